package network

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/Tnze/go-mc/chat"
	"github.com/Tnze/go-mc/offline"
	"github.com/annel0/blockverse/internal/config"
	"github.com/annel0/blockverse/internal/logging"
	"github.com/annel0/blockverse/internal/protocol"
	"github.com/annel0/blockverse/internal/storage"
	"github.com/annel0/blockverse/internal/vec"
	"github.com/annel0/blockverse/internal/world"
	"github.com/annel0/blockverse/internal/world/block"
	_ "github.com/annel0/blockverse/internal/world/block/implementations"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTimeout = 5 * time.Second

type testEnv struct {
	server  *Server
	players *storage.MemoryStore
	metrics *Metrics
}

func newTestServer(t *testing.T, tweak ...func(*Options)) *testEnv {
	t.Helper()

	metrics := NewMetrics(prometheus.NewRegistry())
	w, err := world.Open(t.TempDir(), world.Meta{
		Seed:        42,
		Generator:   world.GeneratorFlat,
		SaveFormat:  world.FormatNBT,
		Compression: world.CompressionZstd,
		Dimension:   world.DefaultDimension,
	}, world.WithObserver(metrics))
	require.NoError(t, err)

	players := storage.NewMemoryStore()
	opts := Options{
		Config: config.ServerConfig{
			MOTD:               "Test server",
			MaxPlayers:         5,
			ViewDistance:       1,
			SimulationDistance: 1,
		},
		World:             w,
		Players:           players,
		Metrics:           metrics,
		KeepAliveInterval: time.Hour,
		KeepAliveTimeout:  time.Hour,
	}
	for _, fn := range tweak {
		fn(&opts)
	}

	srv, err := NewServer(opts)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, ErrServerClosed) {
			t.Errorf("shutdown: %v", err)
		}
	})
	return &testEnv{server: srv, players: players, metrics: metrics}
}

// testClient клиентская сторона net.Pipe; кадры читаются в фоне,
// поэтому запись сервера никогда не блокируется на тесте
type testClient struct {
	t      *testing.T
	conn   net.Conn
	frames chan protocol.Frame
	err    chan error
	served chan struct{}
}

func (e *testEnv) dial(t *testing.T) *testClient {
	t.Helper()

	client, server := net.Pipe()
	c := &testClient{
		t:      t,
		conn:   client,
		frames: make(chan protocol.Frame, 1024),
		err:    make(chan error, 1),
		served: make(chan struct{}),
	}
	go func() {
		e.server.HandleConn(server)
		close(c.served)
	}()
	go c.readLoop()
	t.Cleanup(c.close)
	return c
}

func (c *testClient) readLoop() {
	r := bufio.NewReader(c.conn)
	for {
		f, err := protocol.ReadFrame(r)
		if err != nil {
			c.err <- err
			close(c.frames)
			return
		}
		c.frames <- f
	}
}

// close закрывает клиента и ждет, пока сервер закончит обработку соединения
func (c *testClient) close() {
	c.conn.Close()
	select {
	case <-c.served:
	case <-time.After(testTimeout):
		c.t.Error("сервер не завершил соединение")
	}
}

func (c *testClient) send(p protocol.Encoder) {
	c.t.Helper()
	data, err := protocol.Marshal(p)
	require.NoError(c.t, err)
	_, err = c.conn.Write(data)
	require.NoError(c.t, err)
}

func (c *testClient) next() protocol.Frame {
	c.t.Helper()
	select {
	case f, ok := <-c.frames:
		if !ok {
			c.t.Fatalf("соединение закрыто: %v", <-c.err)
		}
		return f
	case <-time.After(testTimeout):
		c.t.Fatal("нет пакета от сервера")
	}
	return protocol.Frame{}
}

func (c *testClient) expect(p protocol.Decoder) {
	c.t.Helper()
	require.NoError(c.t, protocol.Unmarshal(c.next(), p))
}

func (c *testClient) expectID(id int32) protocol.Frame {
	c.t.Helper()
	f := c.next()
	require.Equal(c.t, id, f.ID, "ожидался пакет 0x%02X, пришел 0x%02X", id, f.ID)
	return f
}

// expectClosed пропускает оставшиеся кадры и ждет закрытия соединения
func (c *testClient) expectClosed() {
	c.t.Helper()
	deadline := time.After(testTimeout)
	for {
		select {
		case _, ok := <-c.frames:
			if !ok {
				return
			}
		case <-deadline:
			c.t.Fatal("соединение не закрыто")
		}
	}
}

func (c *testClient) handshake(next int32) {
	c.send(&protocol.Handshake{
		ProtocolVersion: protocol.ProtocolVersion,
		ServerAddress:   "localhost",
		ServerPort:      25565,
		NextState:       next,
	})
}

// login проходит вход и всю последовательность присоединения, возвращает телепорт
func (c *testClient) login(name string) protocol.SynchronizePlayerPosition {
	c.t.Helper()
	c.handshake(protocol.IntentLogin)
	c.send(&protocol.LoginStart{Name: name})

	var success protocol.LoginSuccess
	c.expect(&success)
	require.Equal(c.t, offline.NameToUUID(name), success.UUID)
	require.Equal(c.t, name, success.Username)

	c.expectID(protocol.IDJoinGame)
	c.expectID(protocol.IDSetDefaultSpawnPosition)
	c.expectID(protocol.IDClientboundPlayerAbilities)
	c.expectID(protocol.IDSetCenterChunk)
	for i := 0; i < 9; i++ {
		c.expectID(protocol.IDChunkDataAndUpdateLight)
	}

	var pos protocol.SynchronizePlayerPosition
	c.expect(&pos)
	return pos
}

func disconnectText(t *testing.T, reason string) string {
	t.Helper()
	var msg chat.Message
	require.NoError(t, json.Unmarshal([]byte(reason), &msg))
	return msg.ClearString()
}

func TestLoginSteve(t *testing.T) {
	env := newTestServer(t)
	c := env.dial(t)

	pos := c.login("Steve")
	assert.Equal(t, 0.5, pos.X)
	assert.Equal(t, float64(-60), pos.Y)
	assert.Equal(t, 0.5, pos.Z)
	assert.Equal(t, int32(1), pos.TeleportID)

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(env.metrics.PlayersOnline) == 1
	}, testTimeout, 10*time.Millisecond)
	assert.Equal(t, float64(9), testutil.ToFloat64(env.metrics.ChunksSent))
	assert.Equal(t, float64(9), testutil.ToFloat64(env.metrics.ChunksGeneratedTotal))
	assert.Equal(t, []string{"Steve"}, env.server.OnlinePlayers())

	c.close()
	saved, err := env.players.Load(context.Background(), "Steve")
	require.NoError(t, err)
	assert.Equal(t, 0.5, saved.X)
	assert.Equal(t, float64(-60), saved.Y)
	assert.Equal(t, float64(0), testutil.ToFloat64(env.metrics.PlayersOnline))
}

func TestLoginRestoresSavedPosition(t *testing.T) {
	env := newTestServer(t)
	require.NoError(t, env.players.Save(context.Background(), "Alex", &storage.PlayerData{X: 3.5, Y: 10, Z: -7.25, Flying: true}))

	c := env.dial(t)
	pos := c.login("Alex")
	assert.Equal(t, 3.5, pos.X)
	assert.Equal(t, float64(10), pos.Y)
	assert.Equal(t, -7.25, pos.Z)
}

func TestLoginInvalidUsername(t *testing.T) {
	env := newTestServer(t)
	c := env.dial(t)

	c.handshake(protocol.IntentLogin)
	c.send(&protocol.LoginStart{Name: "Ste ve"})

	var disconnect protocol.LoginDisconnect
	c.expect(&disconnect)
	assert.Equal(t, "Invalid username", disconnectText(t, disconnect.Reason))
	c.expectClosed()

	assert.Equal(t, 0, env.players.Count())
	assert.Empty(t, env.server.OnlinePlayers())
}

func TestLoginOutdatedClient(t *testing.T) {
	env := newTestServer(t)
	c := env.dial(t)

	c.send(&protocol.Handshake{ProtocolVersion: 761, ServerAddress: "localhost", ServerPort: 25565, NextState: protocol.IntentLogin})

	var disconnect protocol.LoginDisconnect
	c.expect(&disconnect)
	assert.Contains(t, disconnectText(t, disconnect.Reason), "Outdated client")
	c.expectClosed()
}

func TestLoginDuplicateName(t *testing.T) {
	env := newTestServer(t)
	first := env.dial(t)
	first.login("Steve")
	assert.Eventually(t, func() bool { return len(env.server.OnlinePlayers()) == 1 }, testTimeout, 10*time.Millisecond)

	second := env.dial(t)
	second.handshake(protocol.IntentLogin)
	second.send(&protocol.LoginStart{Name: "Steve"})

	var disconnect protocol.LoginDisconnect
	second.expect(&disconnect)
	assert.Equal(t, "You are already logged in", disconnectText(t, disconnect.Reason))
	second.expectClosed()
}

// stalledLogin начинает вход и перестает читать: сервер застревает на записи LoginSuccess
func (e *testEnv) stalledLogin(t *testing.T, name string) {
	t.Helper()

	client, server := net.Pipe()
	served := make(chan struct{})
	go func() {
		e.server.HandleConn(server)
		close(served)
	}()
	t.Cleanup(func() {
		client.Close()
		select {
		case <-served:
		case <-time.After(testTimeout):
			t.Error("сервер не завершил соединение")
		}
	})

	for _, p := range []protocol.Encoder{
		&protocol.Handshake{ProtocolVersion: protocol.ProtocolVersion, ServerAddress: "localhost", ServerPort: 25565, NextState: protocol.IntentLogin},
		&protocol.LoginStart{Name: name},
	} {
		data, err := protocol.Marshal(p)
		require.NoError(t, err)
		_, err = client.Write(data)
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool {
		e.server.mu.RLock()
		defer e.server.mu.RUnlock()
		_, ok := e.server.names[name]
		return ok
	}, testTimeout, 10*time.Millisecond)
}

func TestLoginNameReservedDuringJoin(t *testing.T) {
	env := newTestServer(t)
	env.stalledLogin(t, "Steve")
	assert.Empty(t, env.server.OnlinePlayers())

	second := env.dial(t)
	second.handshake(protocol.IntentLogin)
	second.send(&protocol.LoginStart{Name: "Steve"})

	f := second.expectID(protocol.IDLoginDisconnect)
	var disconnect protocol.LoginDisconnect
	require.NoError(t, protocol.Unmarshal(f, &disconnect))
	assert.Equal(t, "You are already logged in", disconnectText(t, disconnect.Reason))
	second.expectClosed()
}

func TestLoginServerFull(t *testing.T) {
	env := newTestServer(t, func(o *Options) { o.Config.MaxPlayers = 1 })
	env.stalledLogin(t, "Steve")

	c := env.dial(t)
	c.handshake(protocol.IntentLogin)
	c.send(&protocol.LoginStart{Name: "Alex"})

	var disconnect protocol.LoginDisconnect
	c.expect(&disconnect)
	assert.Equal(t, "The server is full", disconnectText(t, disconnect.Reason))
	c.expectClosed()
}

func TestLoginNameReleasedAfterDisconnect(t *testing.T) {
	env := newTestServer(t)
	first := env.dial(t)
	first.login("Steve")
	first.close()

	second := env.dial(t)
	second.login("Steve")
	assert.Eventually(t, func() bool { return len(env.server.OnlinePlayers()) == 1 }, testTimeout, 10*time.Millisecond)
}

func TestStatusAndPing(t *testing.T) {
	env := newTestServer(t)
	c := env.dial(t)

	c.handshake(protocol.IntentStatus)
	c.send(&protocol.StatusRequest{})

	var resp protocol.StatusResponse
	c.expect(&resp)

	var status ServerListPing
	require.NoError(t, json.Unmarshal([]byte(resp.JSON), &status))
	assert.Equal(t, protocol.GameVersion, status.Version.Name)
	assert.Equal(t, protocol.ProtocolVersion, status.Version.Protocol)
	assert.Equal(t, 5, status.Players.Max)
	assert.Equal(t, 0, status.Players.Online)
	assert.Equal(t, "Test server", status.Description.ClearString())

	c.send(&protocol.PingRequest{Payload: 123456789})
	var pong protocol.PongResponse
	c.expect(&pong)
	assert.Equal(t, int64(123456789), pong.Payload)
	c.expectClosed()
}

// lockedBuffer буфер логов, в который пишут горутины сервера
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestUnknownPacketIsSkipped(t *testing.T) {
	logs := &lockedBuffer{}
	logging.SetOutput(logs, logging.DEBUG)
	t.Cleanup(func() { logging.SetOutput(os.Stderr, logging.INFO) })

	env := newTestServer(t)
	c := env.dial(t)

	_, err := c.conn.Write(protocol.EncodeFrame(0x7F, []byte{1, 2, 3}))
	require.NoError(t, err)

	c.handshake(protocol.IntentStatus)
	c.send(&protocol.StatusRequest{})
	c.expectID(protocol.IDStatusResponse)

	assert.Equal(t, float64(1), testutil.ToFloat64(env.metrics.UnhandledPackets.WithLabelValues("Handshake")))
	assert.Equal(t, float64(0), testutil.ToFloat64(env.metrics.ProtocolErrors))
	assert.Contains(t, logs.String(), "пропущен пакет 0x7F в Handshake")
}

func TestConnNameSetOnLogin(t *testing.T) {
	env := newTestServer(t)
	c := env.dial(t)

	var conn *Conn
	require.Eventually(t, func() bool {
		env.server.mu.RLock()
		defer env.server.mu.RUnlock()
		for _, sc := range env.server.conns {
			conn = sc
		}
		return conn != nil
	}, testTimeout, 10*time.Millisecond)
	assert.Empty(t, conn.Name())

	// String читается параллельно с входом
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			_ = conn.String()
		}
	}()
	c.login("Steve")
	<-done

	assert.Equal(t, "Steve", conn.Name())
	assert.Contains(t, conn.String(), "(Steve)")
}

func TestMalformedHandshakeClosesConnection(t *testing.T) {
	env := newTestServer(t)
	c := env.dial(t)

	c.handshake(3)
	c.expectClosed()

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(env.metrics.ProtocolErrors) == 1
	}, testTimeout, 10*time.Millisecond)
}

func TestWritePacketWrongState(t *testing.T) {
	env := newTestServer(t)
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	conn := newConn(env.server, 1, server)
	err := conn.WritePacket(&protocol.PlayDisconnect{Reason: `{"text":""}`})
	assert.ErrorIs(t, err, protocol.ErrWrongState)
}

func TestCreativeBreakBroadcasts(t *testing.T) {
	env := newTestServer(t)
	steve := env.dial(t)
	pos := steve.login("Steve")
	alex := env.dial(t)
	alex.login("Alex")
	assert.Eventually(t, func() bool { return len(env.server.OnlinePlayers()) == 2 }, testTimeout, 10*time.Millisecond)

	steve.send(&protocol.ConfirmTeleportation{TeleportID: pos.TeleportID})
	target := vec.Vec3{X: 0, Y: -61, Z: 0}
	steve.send(&protocol.PlayerAction{Status: protocol.ActionStartedDigging, Location: target, Face: 1, Sequence: 7})

	var ack protocol.AcknowledgeBlockChange
	steve.expect(&ack)
	assert.Equal(t, int32(7), ack.Sequence)

	for _, c := range []*testClient{steve, alex} {
		var update protocol.BlockUpdate
		c.expect(&update)
		assert.Equal(t, target, update.Location)
		assert.Equal(t, int32(0), update.StateID)
	}

	require.NoError(t, env.server.WithWorld(func(w *world.World) error {
		_, ok, err := w.Block(target.X, target.Y, target.Z)
		assert.False(t, ok)
		return err
	}))
}

func TestBreakingAirOnlyAcknowledges(t *testing.T) {
	env := newTestServer(t)
	c := env.dial(t)
	c.login("Steve")

	c.send(&protocol.PlayerAction{Status: protocol.ActionFinishedDigging, Location: vec.Vec3{X: 0, Y: 10, Z: 0}, Sequence: 3})
	var ack protocol.AcknowledgeBlockChange
	c.expect(&ack)
	assert.Equal(t, int32(3), ack.Sequence)

	// отмена копания не подтверждается; использование бедрока поглощается без BlockUpdate
	c.send(&protocol.PlayerAction{Status: protocol.ActionCancelledDigging, Location: vec.Vec3{X: 0, Y: 10, Z: 0}, Sequence: 4})
	c.send(&protocol.UseItemOn{Location: vec.Vec3{X: 0, Y: -64, Z: 0}, Face: 1, Sequence: 5})
	c.expect(&ack)
	assert.Equal(t, int32(5), ack.Sequence)
}

func TestBreakingFluidIsRefused(t *testing.T) {
	env := newTestServer(t)
	water := block.ID("water")
	require.NoError(t, env.server.WithWorld(func(w *world.World) error {
		return w.SetBlock(0, 10, 0, &water)
	}))

	c := env.dial(t)
	c.login("Steve")
	c.send(&protocol.PlayerAction{Status: protocol.ActionStartedDigging, Location: vec.Vec3{X: 0, Y: 10, Z: 0}, Sequence: 7})
	var ack protocol.AcknowledgeBlockChange
	c.expect(&ack)
	assert.Equal(t, int32(7), ack.Sequence)

	require.NoError(t, env.server.WithWorld(func(w *world.World) error {
		id, ok, err := w.Block(0, 10, 0)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, water, id)
		return nil
	}))
}

func TestMovementUpdatesView(t *testing.T) {
	env := newTestServer(t)
	c := env.dial(t)
	pos := c.login("Steve")

	// до подтверждения телепорта движение игнорируется
	c.send(&protocol.SetPlayerPosition{X: 100, Y: 0, Z: 100})
	c.send(&protocol.ConfirmTeleportation{TeleportID: pos.TeleportID})
	c.send(&protocol.SetPlayerPositionAndRotation{X: 20.5, Y: -60, Z: 0.5, Yaw: 90, Pitch: 10, OnGround: true})

	var center protocol.SetCenterChunk
	c.expect(&center)
	assert.Equal(t, protocol.SetCenterChunk{X: 1, Z: 0}, center)

	unloaded := map[vec.Vec2]bool{}
	for i := 0; i < 3; i++ {
		var u protocol.UnloadChunk
		c.expect(&u)
		unloaded[vec.Vec2{X: int(u.X), Z: int(u.Z)}] = true
	}
	assert.Equal(t, map[vec.Vec2]bool{{X: -1, Z: -1}: true, {X: -1, Z: 0}: true, {X: -1, Z: 1}: true}, unloaded)
	for i := 0; i < 3; i++ {
		c.expectID(protocol.IDChunkDataAndUpdateLight)
	}

	c.close()
	saved, err := env.players.Load(context.Background(), "Steve")
	require.NoError(t, err)
	assert.Equal(t, 20.5, saved.X)
	assert.Equal(t, float32(90), saved.Yaw)
	assert.Equal(t, float32(10), saved.Pitch)
}

func TestKeepAliveTimeout(t *testing.T) {
	env := newTestServer(t, func(o *Options) {
		o.KeepAliveInterval = 20 * time.Millisecond
		o.KeepAliveTimeout = 60 * time.Millisecond
	})
	c := env.dial(t)
	c.login("Steve")

	for {
		f := c.next()
		if f.ID == protocol.IDClientboundKeepAlive {
			continue
		}
		var disconnect protocol.PlayDisconnect
		require.NoError(t, protocol.Unmarshal(f, &disconnect))
		assert.Equal(t, "Timed out", disconnectText(t, disconnect.Reason))
		break
	}
	c.expectClosed()
}

func TestKeepAliveReply(t *testing.T) {
	env := newTestServer(t, func(o *Options) {
		o.KeepAliveInterval = 10 * time.Millisecond
		o.KeepAliveTimeout = time.Second
	})
	c := env.dial(t)
	c.login("Steve")

	for i := 0; i < 3; i++ {
		var ka protocol.ClientboundKeepAlive
		c.expect(&ka)
		c.send(&protocol.ServerboundKeepAlive{ID: ka.ID})
	}
	assert.Equal(t, []string{"Steve"}, env.server.OnlinePlayers())
}

func TestShutdownSavesWorld(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	dir := t.TempDir()
	w, err := world.Open(dir, world.Meta{
		Generator:   world.GeneratorFlat,
		SaveFormat:  world.FormatJSON,
		Compression: world.CompressionNone,
		Dimension:   world.DefaultDimension,
	}, world.WithObserver(metrics))
	require.NoError(t, err)

	srv, err := NewServer(Options{
		Config:  config.ServerConfig{ViewDistance: 1},
		World:   w,
		Players: storage.NewMemoryStore(),
		Metrics: metrics,
	})
	require.NoError(t, err)

	stone := block.ID("stone")
	require.NoError(t, srv.WithWorld(func(w *world.World) error {
		return w.SetBlock(16, 0, 0, &stone)
	}))
	require.NoError(t, srv.Shutdown(context.Background()))
	assert.ErrorIs(t, srv.Shutdown(context.Background()), ErrServerClosed)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.RegionsSavedTotal))

	reopened, err := world.Open(dir, world.Meta{})
	require.NoError(t, err)
	defer reopened.Close()
	got, ok, err := reopened.Block(16, 0, 0)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, stone, got)
}

func TestServeRejectsAfterShutdown(t *testing.T) {
	env := newTestServer(t)
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	served := make(chan error, 1)
	go func() { served <- env.server.Serve(l) }()

	conn, err := net.Dial("tcp", l.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, env.server.Shutdown(context.Background()))
	select {
	case err := <-served:
		assert.ErrorIs(t, err, ErrServerClosed)
	case <-time.After(testTimeout):
		t.Fatal("Serve не завершился")
	}
}
