package network

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Tnze/go-mc/chat"
	"github.com/annel0/blockverse/internal/logging"
	"github.com/annel0/blockverse/internal/protocol"
	"github.com/annel0/blockverse/internal/storage"
	"github.com/annel0/blockverse/internal/vec"
	"github.com/google/uuid"
)

// errCloseConnection обработчик завершил соединение штатно (после pong или отказа во входе)
var errCloseConnection = errors.New("connection closed by handler")

// Conn соединение с клиентом. Цикл чтения и обработчики пакетов работают в одной горутине,
// запись сериализуется writeMu и доступна из любой горутины.
type Conn struct {
	id     uint64
	server *Server
	conn   net.Conn
	reader *bufio.Reader
	logger *logging.Logger

	state   atomic.Int32
	writeMu sync.Mutex

	closeOnce sync.Once
	done      chan struct{}

	// name пишется под Server.mu при входе, читается из любой горутины
	name atomic.Pointer[string]

	// Заполняются при входе, дальше только читаются
	uuid     uuid.UUID
	entityID int32
	joined   atomic.Bool

	// Состояние Play, принадлежит горутине чтения
	player           *storage.PlayerData
	viewDistance     int
	center           vec.Vec2
	loaded           map[vec.Vec2]struct{}
	nextTeleportID   int32
	pendingTeleports map[int32]struct{}

	keepAliveID     atomic.Int64
	keepAliveSentAt atomic.Int64
}

func newConn(s *Server, id uint64, nc net.Conn) *Conn {
	return &Conn{
		id:               id,
		server:           s,
		conn:             nc,
		reader:           bufio.NewReader(nc),
		logger:           s.logger,
		done:             make(chan struct{}),
		loaded:           make(map[vec.Vec2]struct{}),
		pendingTeleports: make(map[int32]struct{}),
	}
}

// State текущее состояние протокола
func (c *Conn) State() protocol.State {
	return protocol.State(c.state.Load())
}

func (c *Conn) setState(s protocol.State) {
	c.state.Store(int32(s))
}

// Name имя игрока (пусто до LoginStart)
func (c *Conn) Name() string {
	if name := c.name.Load(); name != nil {
		return *name
	}
	return ""
}

func (c *Conn) String() string {
	if name := c.Name(); name != "" {
		return fmt.Sprintf("#%d(%s)", c.id, name)
	}
	return fmt.Sprintf("#%d(%s)", c.id, c.conn.RemoteAddr())
}

// WritePacket кодирует и отправляет пакет. Пакет другого состояния не отправляется:
// возвращается protocol.ErrWrongState.
func (c *Conn) WritePacket(p protocol.Encoder) error {
	if st := c.State(); p.State() != st {
		return fmt.Errorf("%w: %T belongs to %s, connection is in %s", protocol.ErrWrongState, p, p.State(), st)
	}
	data, err := protocol.Marshal(p)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(defaultWriteTimeout)); err != nil {
		return err
	}
	_, err = c.conn.Write(data)
	return err
}

// Close закрывает сокет; цикл чтения завершится сам
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// Disconnect отправляет причину отключения, если состояние это позволяет, и закрывает соединение
func (c *Conn) Disconnect(reason string) {
	msg, err := json.Marshal(chat.Text(reason))
	if err == nil {
		switch c.State() {
		case protocol.StateLogin:
			err = c.WritePacket(&protocol.LoginDisconnect{Reason: string(msg)})
		case protocol.StatePlay:
			err = c.WritePacket(&protocol.PlayDisconnect{Reason: string(msg)})
		}
	}
	if err != nil {
		c.logger.Debug("Не удалось отправить причину отключения %s: %v", c, err)
	}
	c.Close()
}

func isClosedErr(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe)
}

// serve цикл чтения. Закрытое соединение завершает его без ошибки в логе,
// неизвестный id пропускается, остальные ошибки разбора закрывают соединение.
func (c *Conn) serve() {
	defer c.cleanup()

	for {
		frame, err := protocol.ReadFrame(c.reader)
		if err != nil {
			if !isClosedErr(err) && !c.isDone() {
				c.fail(err, nil)
			}
			return
		}

		state := c.State()
		c.server.metrics.packetReceived(state)

		pkt, err := protocol.Decode(state, frame)
		if errors.Is(err, protocol.ErrUnhandledPacket) {
			c.server.metrics.packetUnhandled(state)
			c.logger.Debug("%s: пропущен пакет 0x%02X в %s", c, frame.ID, state)
			continue
		}
		if err != nil {
			c.fail(err, frame.Payload)
			return
		}

		if err := c.handle(pkt); err != nil {
			if errors.Is(err, errCloseConnection) || isClosedErr(err) || c.isDone() {
				return
			}
			c.fail(err, nil)
			return
		}
	}
}

func (c *Conn) isDone() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// fail ошибка протокола: лог, попытка сообщить клиенту и закрытие
func (c *Conn) fail(err error, data []byte) {
	c.server.metrics.ProtocolErrors.Inc()
	c.logger.LogProtocolError(c.String(), err, data)
	c.Disconnect("Protocol error")
}

func (c *Conn) handle(pkt protocol.Decoder) error {
	switch p := pkt.(type) {
	case *protocol.Handshake:
		return c.handleHandshake(p)
	case *protocol.StatusRequest:
		return c.handleStatusRequest()
	case *protocol.PingRequest:
		return c.handlePing(p)
	case *protocol.LoginStart:
		return c.handleLoginStart(p)
	case *protocol.ConfirmTeleportation:
		return c.handleConfirmTeleportation(p)
	case *protocol.ClientInformation:
		return c.handleClientInformation(p)
	case *protocol.PluginMessage:
		c.logger.Debug("%s: plugin message %s (%d байт)", c, p.Channel, len(p.Data))
		return nil
	case *protocol.ServerboundKeepAlive:
		return c.handleKeepAlive(p)
	case *protocol.SetPlayerPosition:
		return c.handleMove(&vec.Vec3Float{X: p.X, Y: p.Y, Z: p.Z}, nil, p.OnGround)
	case *protocol.SetPlayerPositionAndRotation:
		return c.handleMove(&vec.Vec3Float{X: p.X, Y: p.Y, Z: p.Z}, &[2]float32{p.Yaw, p.Pitch}, p.OnGround)
	case *protocol.SetPlayerRotation:
		return c.handleMove(nil, &[2]float32{p.Yaw, p.Pitch}, p.OnGround)
	case *protocol.SetPlayerOnGround:
		return c.handleMove(nil, nil, p.OnGround)
	case *protocol.ServerboundPlayerAbilities:
		c.player.Flying = p.Flags&protocol.AbilityFlying != 0
		return nil
	case *protocol.PlayerAction:
		return c.handlePlayerAction(p)
	case *protocol.UseItemOn:
		return c.handleUseItemOn(p)
	default:
		return fmt.Errorf("%w: no handler for %T", protocol.ErrUnhandledPacket, pkt)
	}
}

// cleanup сохраняет игрока и снимает соединение с учета.
// Имя освобождается только после сохранения, чтобы повторный вход прочитал свежие данные.
func (c *Conn) cleanup() {
	c.Close()

	if c.joined.Load() {
		c.server.metrics.PlayersOnline.Dec()
		c.savePlayer()
		c.logger.Info("👋 Игрок %s вышел", c.Name())
	}
	c.server.unregister(c)
	c.logger.Debug("Соединение %s закрыто", c)
}
