package network

import (
	"math"

	"github.com/annel0/blockverse/internal/protocol"
	"github.com/annel0/blockverse/internal/vec"
	"github.com/annel0/blockverse/internal/world"
)

// chunkOf чанк, в котором стоит точка
func chunkOf(x, z float64) vec.Vec2 {
	return vec.Vec2{
		X: vec.FloorDiv(int(math.Floor(x)), world.SectionSize),
		Z: vec.FloorDiv(int(math.Floor(z)), world.SectionSize),
	}
}

// chunkPacket генерирует чанк при необходимости и кодирует его под мьютексом мира
func (s *Server) chunkPacket(pos vec.Vec2) (*protocol.ChunkDataAndUpdateLight, error) {
	var pkt *protocol.ChunkDataAndUpdateLight
	err := s.WithWorld(func(w *world.World) error {
		c, err := w.ChunkOrGenerate(pos.X, pos.Z)
		if err != nil {
			return err
		}
		pkt, err = world.ChunkPacket(c, s.registry, w.Dimension())
		return err
	})
	return pkt, err
}

// sendChunks отправляет по спирали от центра все чанки квадрата видимости,
// которых у клиента еще нет
func (c *Conn) sendChunks() error {
	side := 2*c.viewDistance + 1
	for _, off := range world.SpiralOrder(side, side) {
		pos := c.center.Add(off)
		if _, ok := c.loaded[pos]; ok {
			continue
		}
		pkt, err := c.server.chunkPacket(pos)
		if err != nil {
			return err
		}
		if err := c.WritePacket(pkt); err != nil {
			return err
		}
		c.loaded[pos] = struct{}{}
		c.server.metrics.ChunksSent.Inc()
	}
	return nil
}

// moveView сдвигает центр видимости: выгружает чанки за пределами квадрата и досылает новые
func (c *Conn) moveView(center vec.Vec2) error {
	c.center = center
	if err := c.WritePacket(&protocol.SetCenterChunk{X: int32(center.X), Z: int32(center.Z)}); err != nil {
		return err
	}

	for pos := range c.loaded {
		if pos.ChebyshevDistance(center) <= c.viewDistance {
			continue
		}
		if err := c.WritePacket(&protocol.UnloadChunk{X: int32(pos.X), Z: int32(pos.Z)}); err != nil {
			return err
		}
		delete(c.loaded, pos)
	}
	return c.sendChunks()
}
