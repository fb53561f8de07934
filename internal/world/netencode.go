package world

import (
	"fmt"
	"math/bits"

	"github.com/annel0/blockverse/internal/protocol"
	"github.com/annel0/blockverse/internal/world/block"
)

// networkBitsPerEntry ширина блока в пакете чанка: словарь с воздухом помещается в 4 бита
const networkBitsPerEntry = 4

// Heightmaps NBT карт высот в пакете чанка
type Heightmaps struct {
	MotionBlocking []int64 `nbt:"MOTION_BLOCKING"`
}

// ChunkPacket строит пакет Chunk Data and Update Light для секций измерения dim.
// Палитра секции всегда полная: [воздух, словарь...] в фиксированном порядке.
func ChunkPacket(c *Chunk, reg *block.Registry, dim Dimension) (*protocol.ChunkDataAndUpdateLight, error) {
	palette, err := reg.NetworkPalette()
	if err != nil {
		return nil, fmt.Errorf("палитра чанка: %w", err)
	}

	w := protocol.NewWriter()
	for sy := dim.MinSection(); sy <= dim.MaxSection(); sy++ {
		writeSection(w, c.Section(sy), palette)
	}

	return &protocol.ChunkDataAndUpdateLight{
		X:          int32(c.X),
		Z:          int32(c.Z),
		Heightmaps: Heightmaps{MotionBlocking: clientHeightmap(c, dim).Raw()},
		Data:       w.Bytes(),
		TrustEdges: true,
		// маски света пустые, массивы света не передаются
		SkyLightMask:        protocol.BitSet{},
		BlockLightMask:      protocol.BitSet{},
		EmptySkyLightMask:   protocol.BitSet{},
		EmptyBlockLightMask: protocol.BitSet{},
	}, nil
}

func writeSection(w *protocol.Writer, s *Section, palette []int32) {
	count := 0
	if s != nil {
		count = s.BlockCount()
	}
	w.WriteInt16(int16(count))

	// блоки: непрямая палитра
	w.WriteUint8(networkBitsPerEntry)
	w.WriteVarInt(int32(len(palette)))
	for _, id := range palette {
		w.WriteVarInt(id)
	}
	const perLong = 64 / networkBitsPerEntry
	w.WriteVarInt(SectionVolume / perLong)
	for i := 0; i < SectionVolume; i += perLong {
		var value uint64
		for j := 0; j < perLong; j++ {
			var code uint8
			if s != nil {
				code = s.codeAt(i + j)
			}
			value = value<<networkBitsPerEntry | uint64(code)
		}
		w.WriteInt64(int64(value))
	}

	// биомы: одно значение, id 0
	w.WriteUint8(0)
	w.WriteVarInt(0)
	w.WriteVarInt(0)
}

// clientHeightmap перепаковывает карту высот в ширину, которую ждет клиент для измерения:
// значение равно y - minY + 1 верхнего блока, 0 для пустого столба.
func clientHeightmap(c *Chunk, dim Dimension) *SimpleBitStorage {
	width := bits.Len(uint(dim.Height))
	offset := uint32(dim.MinY - MinSectionY*SectionSize)
	return c.heightmap.Repack(width, func(v uint32) uint32 {
		switch {
		case v <= offset:
			return 0
		case v-offset > uint32(dim.Height):
			return uint32(dim.Height)
		default:
			return v - offset
		}
	})
}
