package network

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/annel0/blockverse/internal/protocol"
	"github.com/annel0/blockverse/internal/storage"
	"github.com/annel0/blockverse/internal/vec"
	"github.com/annel0/blockverse/internal/world"
	"github.com/annel0/blockverse/internal/world/block"
)

const (
	gameModeCreative = 1
	creativeFlySpeed = 0.05
	defaultFOV       = 0.1
)

// hashedSeed первые 8 байт SHA-256 от сида, как их ждет клиент
func hashedSeed(seed int64) int64 {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(seed))
	sum := sha256.Sum256(buf[:])
	return int64(binary.BigEndian.Uint64(sum[:8]))
}

// spawnPoint точка появления: над верхним блоком столба (0, 0)
func (s *Server) spawnPoint() (vec.Vec3, error) {
	var spawn vec.Vec3
	err := s.WithWorld(func(w *world.World) error {
		c, err := w.ChunkOrGenerate(0, 0)
		if err != nil {
			return err
		}
		spawn.Y = w.Dimension().MinY
		if h, ok := c.Height(0, 0); ok {
			spawn.Y = h + 1
		}
		return nil
	})
	return spawn, err
}

func (c *Conn) loadPlayer(spawn vec.Vec3) *storage.PlayerData {
	ctx, cancel := context.WithTimeout(c.server.ctx, playerSaveTimeout)
	defer cancel()

	data, err := c.server.players.Load(ctx, c.Name())
	switch {
	case err == nil:
		return data
	case errors.Is(err, storage.ErrPlayerNotFound):
		c.logger.Debug("Игрок %s впервые на сервере", c.Name())
	default:
		c.logger.Error("Загрузка игрока %s: %v", c.Name(), err)
	}
	return storage.DefaultPlayerData(float64(spawn.X)+0.5, float64(spawn.Y), float64(spawn.Z)+0.5)
}

func (c *Conn) savePlayer() {
	if c.player == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), playerSaveTimeout)
	defer cancel()
	if err := c.server.players.Save(ctx, c.Name(), c.player); err != nil {
		c.logger.Error("Сохранение игрока %s: %v", c.Name(), err)
	}
}

// joinGame последовательность входа: Login(play), спавн, способности, чанки, телепорт
func (c *Conn) joinGame() error {
	s := c.server

	spawn, err := s.spawnPoint()
	if err != nil {
		return fmt.Errorf("точка появления: %w", err)
	}
	c.player = c.loadPlayer(spawn)
	c.entityID = s.nextEntityID.Add(1)
	c.viewDistance = s.cfg.ViewDistance

	meta := s.world.Meta()
	join := &protocol.JoinGame{
		EntityID:            c.entityID,
		GameMode:            gameModeCreative,
		PreviousGameMode:    -1,
		DimensionNames:      []string{overworldName},
		RegistryCodec:       s.codec,
		DimensionType:       overworldName,
		DimensionName:       overworldName,
		HashedSeed:          hashedSeed(meta.Seed),
		MaxPlayers:          int32(s.cfg.MaxPlayers),
		ViewDistance:        int32(s.cfg.ViewDistance),
		SimulationDistance:  int32(s.cfg.SimulationDistance),
		EnableRespawnScreen: true,
		IsFlat:              meta.Generator == world.GeneratorFlat,
	}
	if err := c.WritePacket(join); err != nil {
		return err
	}
	if err := c.WritePacket(&protocol.SetDefaultSpawnPosition{Location: spawn}); err != nil {
		return err
	}
	if err := c.sendAbilities(); err != nil {
		return err
	}

	c.center = chunkOf(c.player.X, c.player.Z)
	if err := c.WritePacket(&protocol.SetCenterChunk{X: int32(c.center.X), Z: int32(c.center.Z)}); err != nil {
		return err
	}
	if err := c.sendChunks(); err != nil {
		return err
	}
	if err := c.teleport(); err != nil {
		return err
	}

	c.joined.Store(true)
	s.metrics.PlayersOnline.Inc()
	go c.keepAliveLoop()
	return nil
}

func (c *Conn) sendAbilities() error {
	flags := int8(protocol.AbilityInvulnerable | protocol.AbilityAllowFlying | protocol.AbilityInstantBreak)
	if c.player.Flying {
		flags |= protocol.AbilityFlying
	}
	return c.WritePacket(&protocol.ClientboundPlayerAbilities{
		Flags:       flags,
		FlyingSpeed: creativeFlySpeed,
		FOVModifier: defaultFOV,
	})
}

// teleport отправляет позицию из PlayerData; до подтверждения движения клиента игнорируются
func (c *Conn) teleport() error {
	c.nextTeleportID++
	id := c.nextTeleportID
	c.pendingTeleports[id] = struct{}{}
	return c.WritePacket(&protocol.SynchronizePlayerPosition{
		X:          c.player.X,
		Y:          c.player.Y,
		Z:          c.player.Z,
		Yaw:        c.player.Yaw,
		Pitch:      c.player.Pitch,
		TeleportID: id,
	})
}

func (c *Conn) handleConfirmTeleportation(p *protocol.ConfirmTeleportation) error {
	if _, ok := c.pendingTeleports[p.TeleportID]; !ok {
		c.logger.Warn("%s: неизвестный id телепорта %d", c, p.TeleportID)
		return nil
	}
	delete(c.pendingTeleports, p.TeleportID)
	return nil
}

func (c *Conn) handleClientInformation(p *protocol.ClientInformation) error {
	c.logger.Debug("%s: клиент %s, дальность %d", c, p.Locale, p.ViewDistance)
	return nil
}

func (c *Conn) handleMove(pos *vec.Vec3Float, rot *[2]float32, onGround bool) error {
	if len(c.pendingTeleports) > 0 {
		return nil
	}
	if pos != nil {
		if math.IsNaN(pos.X) || math.IsNaN(pos.Y) || math.IsNaN(pos.Z) ||
			math.IsInf(pos.X, 0) || math.IsInf(pos.Y, 0) || math.IsInf(pos.Z, 0) {
			return fmt.Errorf("%w: invalid position %v", protocol.ErrMalformedPacket, *pos)
		}
		c.player.X, c.player.Y, c.player.Z = pos.X, pos.Y, pos.Z
	}
	if rot != nil {
		c.player.Yaw, c.player.Pitch = rot[0], rot[1]
	}
	c.player.OnGround = onGround

	if pos == nil {
		return nil
	}
	if center := chunkOf(pos.X, pos.Z); center != c.center {
		return c.moveView(center)
	}
	return nil
}

func (c *Conn) keepAliveLoop() {
	ticker := time.NewTicker(c.server.keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case now := <-ticker.C:
			if c.keepAliveID.Load() != 0 {
				sent := time.Unix(0, c.keepAliveSentAt.Load())
				if now.Sub(sent) >= c.server.keepAliveTimeout {
					c.logger.Warn("%s: нет ответа на keep-alive %v", c, now.Sub(sent))
					c.Disconnect("Timed out")
					return
				}
				continue
			}
			id := now.UnixMilli()
			c.keepAliveSentAt.Store(now.UnixNano())
			c.keepAliveID.Store(id)
			if err := c.WritePacket(&protocol.ClientboundKeepAlive{ID: id}); err != nil {
				c.logger.Debug("%s: keep-alive: %v", c, err)
				return
			}
		}
	}
}

func (c *Conn) handleKeepAlive(p *protocol.ServerboundKeepAlive) error {
	if !c.keepAliveID.CompareAndSwap(p.ID, 0) || p.ID == 0 {
		c.logger.Warn("%s: неожиданный id keep-alive %d", c, p.ID)
	}
	return nil
}

// stateID id состояния блока для клиента; неизвестный блок отображается воздухом
func (c *Conn) stateID(id block.Identifier, present bool) int32 {
	if !present {
		return 0
	}
	sid, err := c.server.registry.BlockID(id)
	if err != nil {
		return 0
	}
	return sid
}

// handlePlayerAction разрушение блока в творческом режиме
func (c *Conn) handlePlayerAction(p *protocol.PlayerAction) error {
	if p.Status != protocol.ActionStartedDigging && p.Status != protocol.ActionFinishedDigging {
		return nil
	}

	var broken bool
	err := c.server.WithWorld(func(w *world.World) error {
		id, ok, err := w.Block(p.Location.X, p.Location.Y, p.Location.Z)
		if err != nil || !ok {
			return err
		}
		state, err := c.server.registry.DefaultState(id)
		if err != nil {
			return err
		}
		// заменяемые блоки (жидкость, воздух) не разрушаются, их место и так свободно для установки
		if block.HandlerFor(id).CanReplace(state, c.useContext(p.Location, int32(p.Face), vec.Vec3Float{}, false)) {
			return nil
		}
		broken = true
		return w.SetBlock(p.Location.X, p.Location.Y, p.Location.Z, nil)
	})
	if err != nil {
		c.logger.Error("%s: разрушение блока %v: %v", c, p.Location, err)
	}

	if err := c.WritePacket(&protocol.AcknowledgeBlockChange{Sequence: p.Sequence}); err != nil {
		return err
	}
	if broken {
		c.server.Broadcast(&protocol.BlockUpdate{Location: p.Location, StateID: 0}, nil)
	}
	return nil
}

func (c *Conn) useContext(pos vec.Vec3, face int32, cursor vec.Vec3Float, inside bool) block.UseContext {
	return block.UseContext{
		Player:   c.Name(),
		Position: pos,
		Face:     face,
		Cursor:   cursor,
		Inside:   inside,
	}
}

// handleUseItemOn правый клик: поведение блока решает его обработчик
func (c *Conn) handleUseItemOn(p *protocol.UseItemOn) error {
	var (
		result  block.UseResult
		changed int32
	)
	err := c.server.WithWorld(func(w *world.World) error {
		id, _, err := w.Block(p.Location.X, p.Location.Y, p.Location.Z)
		if err != nil {
			return err
		}
		state, err := c.server.registry.DefaultState(id)
		if err != nil {
			return err
		}
		cursor := vec.Vec3Float{X: float64(p.CursorX), Y: float64(p.CursorY), Z: float64(p.CursorZ)}
		result = block.HandlerFor(id).OnUse(state, w, c.useContext(p.Location, p.Face, cursor, p.Inside))
		if result == block.UseSuccess {
			after, ok, err := w.Block(p.Location.X, p.Location.Y, p.Location.Z)
			if err != nil {
				return err
			}
			changed = c.stateID(after, ok)
		}
		return nil
	})
	if err != nil {
		c.logger.Error("%s: использование блока %v: %v", c, p.Location, err)
	}
	c.logger.Trace("%s: использование блока %v: %s", c, p.Location, result)

	if err := c.WritePacket(&protocol.AcknowledgeBlockChange{Sequence: p.Sequence}); err != nil {
		return err
	}
	if result == block.UseSuccess {
		c.server.Broadcast(&protocol.BlockUpdate{Location: p.Location, StateID: changed}, nil)
	}
	return nil
}
