package network

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/annel0/blockverse/internal/config"
	"github.com/annel0/blockverse/internal/logging"
	"github.com/annel0/blockverse/internal/protocol"
	"github.com/annel0/blockverse/internal/storage"
	"github.com/annel0/blockverse/internal/world"
	"github.com/annel0/blockverse/internal/world/block"
	"golang.org/x/time/rate"
)

// ErrServerClosed возвращается Serve после Shutdown
var ErrServerClosed = errors.New("server closed")

// Значения по умолчанию для Options
const (
	DefaultKeepAliveInterval = 10 * time.Second
	DefaultKeepAliveTimeout  = 30 * time.Second
	DefaultTickInterval      = 50 * time.Millisecond
	defaultWriteTimeout      = 10 * time.Second
	playerSaveTimeout        = 5 * time.Second
)

// Options зависимости и параметры сервера
type Options struct {
	Config   config.ServerConfig
	World    *world.World
	Players  storage.PlayerStore
	Registry *block.Registry
	Metrics  *Metrics
	// RegistryCodec готовый NBT для пакета входа в игру; если пуст, строится из измерения мира
	RegistryCodec protocol.RawNBT

	KeepAliveInterval time.Duration
	KeepAliveTimeout  time.Duration
	TickInterval      time.Duration
}

// Server TCP сервер: принимает соединения и владеет единственным контекстом мира.
// Все обращения к миру идут под worldMu.
type Server struct {
	cfg      config.ServerConfig
	players  storage.PlayerStore
	registry *block.Registry
	metrics  *Metrics
	codec    protocol.RawNBT
	limiter  *rate.Limiter
	logger   *logging.Logger

	keepAliveInterval time.Duration
	keepAliveTimeout  time.Duration
	tickInterval      time.Duration

	worldMu sync.Mutex
	world   *world.World

	mu       sync.RWMutex
	conns    map[uint64]*Conn
	names    map[string]*Conn // имена, занятые с LoginStart до закрытия соединения
	listener net.Listener
	closed   bool

	nextConnID   atomic.Uint64
	nextEntityID atomic.Int32

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer создает сервер. Мир и хранилище игроков после Shutdown закрывает сервер.
func NewServer(opts Options) (*Server, error) {
	if opts.World == nil {
		return nil, errors.New("network: world is required")
	}
	if opts.Players == nil {
		return nil, errors.New("network: player store is required")
	}
	if opts.Registry == nil {
		opts.Registry = block.Default()
	}
	if opts.Metrics == nil {
		return nil, errors.New("network: metrics are required")
	}
	if opts.RegistryCodec == nil {
		codec, err := BuildRegistryCodec(opts.World.Dimension())
		if err != nil {
			return nil, err
		}
		opts.RegistryCodec = codec
	}
	if opts.KeepAliveInterval <= 0 {
		opts.KeepAliveInterval = DefaultKeepAliveInterval
	}
	if opts.KeepAliveTimeout <= 0 {
		opts.KeepAliveTimeout = DefaultKeepAliveTimeout
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}

	limit := rate.Inf
	if opts.Config.ConnectionsPerSec > 0 {
		limit = rate.Limit(opts.Config.ConnectionsPerSec)
	}
	burst := opts.Config.ConnectionBurst
	if burst <= 0 {
		burst = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:               opts.Config,
		players:           opts.Players,
		registry:          opts.Registry,
		metrics:           opts.Metrics,
		codec:             opts.RegistryCodec,
		limiter:           rate.NewLimiter(limit, burst),
		logger:            logging.GetNetworkLogger(),
		keepAliveInterval: opts.KeepAliveInterval,
		keepAliveTimeout:  opts.KeepAliveTimeout,
		tickInterval:      opts.TickInterval,
		world:             opts.World,
		conns:             make(map[uint64]*Conn),
		names:             make(map[string]*Conn),
		ctx:               ctx,
		cancel:            cancel,
	}

	s.wg.Add(1)
	go s.tickLoop()
	return s, nil
}

// ListenAndServe слушает адрес из конфигурации
func (s *Server) ListenAndServe() error {
	l, err := net.Listen("tcp", s.cfg.Address())
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Address(), err)
	}
	return s.Serve(l)
}

// Serve принимает соединения с l до Shutdown
func (s *Server) Serve(l net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		l.Close()
		return ErrServerClosed
	}
	s.listener = l
	s.mu.Unlock()

	s.logger.Info("🚀 Сервер слушает %s (протокол %d, %s)", l.Addr(), protocol.ProtocolVersion, protocol.GameVersion)

	for {
		nc, err := l.Accept()
		if err != nil {
			if s.ctx.Err() != nil {
				return ErrServerClosed
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				s.logger.Warn("Ошибка принятия соединения: %v", err)
				continue
			}
			return fmt.Errorf("accept: %w", err)
		}

		if !s.limiter.Allow() {
			s.metrics.ConnectionsRejected.Inc()
			s.logger.Debug("Соединение %s отклонено ограничителем", nc.RemoteAddr())
			nc.Close()
			continue
		}

		go s.HandleConn(nc)
	}
}

// HandleConn обслуживает одно соединение до его закрытия.
// Блокирует вызывающего; Shutdown дожидается всех активных вызовов.
func (s *Server) HandleConn(nc net.Conn) {
	c := newConn(s, s.nextConnID.Add(1), nc)
	if !s.register(c) {
		nc.Close()
		return
	}
	defer s.wg.Done()
	s.metrics.ConnectionsTotal.Inc()
	s.metrics.ActiveConnections.Inc()
	defer s.metrics.ActiveConnections.Dec()

	c.serve()
}

func (s *Server) register(c *Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[c.id] = c
	s.wg.Add(1)
	return true
}

func (s *Server) unregister(c *Conn) {
	s.mu.Lock()
	delete(s.conns, c.id)
	if name := c.Name(); name != "" && s.names[name] == c {
		delete(s.names, name)
	}
	s.mu.Unlock()
}

// reserveName закрепляет имя за соединением до его закрытия.
// Занятые имена считаются в лимит игроков, даже если вход еще не завершен.
// Возвращает причину отказа или пустую строку.
func (s *Server) reserveName(c *Conn, name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.names[name]; taken {
		return "You are already logged in"
	}
	if limit := s.cfg.MaxPlayers; limit > 0 && len(s.names) >= limit {
		return "The server is full"
	}
	s.names[name] = c
	c.name.Store(&name)
	return ""
}

// playConns снимок соединений в состоянии Play, упорядоченный по id
func (s *Server) playConns() []*Conn {
	s.mu.RLock()
	out := make([]*Conn, 0, len(s.conns))
	for _, c := range s.conns {
		if c.State() == protocol.StatePlay && c.joined.Load() {
			out = append(out, c)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// OnlinePlayers имена игроков в состоянии Play
func (s *Server) OnlinePlayers() []string {
	conns := s.playConns()
	names := make([]string, 0, len(conns))
	for _, c := range conns {
		names = append(names, c.Name())
	}
	return names
}

// Broadcast отправляет пакет всем игрокам, кроме except (может быть nil).
// Ошибка записи одному клиенту не прерывает рассылку.
func (s *Server) Broadcast(p protocol.Encoder, except *Conn) {
	for _, c := range s.playConns() {
		if c == except {
			continue
		}
		if err := c.WritePacket(p); err != nil {
			s.logger.Debug("Рассылка %T игроку %s: %v", p, c.Name(), err)
		}
	}
}

// WithWorld выполняет fn под мьютексом мира
func (s *Server) WithWorld(fn func(w *world.World) error) error {
	s.worldMu.Lock()
	defer s.worldMu.Unlock()
	return fn(s.world)
}

func (s *Server) tickLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.worldMu.Lock()
			s.world.Tick()
			s.worldMu.Unlock()
		}
	}
}

// Shutdown закрывает слушатель и все соединения, дожидается сохранения игроков,
// затем сохраняет мир и закрывает хранилище игроков.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrServerClosed
	}
	s.closed = true
	s.cancel()
	if s.listener != nil {
		s.listener.Close()
	}
	conns := make([]*Conn, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		c.Disconnect("Server closed")
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	var errs []error
	select {
	case <-done:
	case <-ctx.Done():
		errs = append(errs, fmt.Errorf("ожидание соединений: %w", ctx.Err()))
	}

	s.worldMu.Lock()
	if err := s.world.Save(); err != nil {
		errs = append(errs, fmt.Errorf("сохранение мира: %w", err))
	}
	s.world.Close()
	s.worldMu.Unlock()

	if err := s.players.Close(); err != nil {
		errs = append(errs, fmt.Errorf("хранилище игроков: %w", err))
	}

	s.logger.Info("Сервер остановлен")
	return errors.Join(errs...)
}
