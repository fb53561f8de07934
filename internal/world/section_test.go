package world

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/blockverse/internal/world/block"
)

func ident(path string) *block.Identifier {
	id := block.ID(path)
	return &id
}

func TestSectionIndexOrdering(t *testing.T) {
	assert.Equal(t, 15, sectionIndex(0, 0, 0))
	assert.Equal(t, 0, sectionIndex(15, 0, 0))
	assert.Equal(t, 16+15, sectionIndex(0, 0, 1))
	assert.Equal(t, 256+15, sectionIndex(0, 1, 0))

	s := NewSection()
	require.NoError(t, s.SetBlock(0, 0, 0, ident("stone")))
	require.NoError(t, s.SetBlock(15, 0, 0, ident("dirt")))
	assert.Equal(t, uint8(1), s.codeAt(15))
	assert.Equal(t, uint8(9), s.codeAt(0))
}

func TestSectionSetGetEveryPosition(t *testing.T) {
	s := NewSection()
	vocab := block.Vocabulary()
	for y := 0; y < 16; y++ {
		for z := 0; z < 16; z++ {
			for x := 0; x < 16; x++ {
				id := vocab[(x+y+z)%len(vocab)]
				require.NoError(t, s.SetBlock(x, y, z, &id))
				got, ok := s.Block(x, y, z)
				require.True(t, ok)
				require.Equal(t, id, got)
			}
		}
	}
	assert.Equal(t, SectionVolume, s.BlockCount())
}

func TestSectionBlockCount(t *testing.T) {
	s := NewSection()
	require.NoError(t, s.SetBlock(1, 2, 3, ident("stone")))
	require.NoError(t, s.SetBlock(1, 2, 3, ident("dirt")))
	assert.Equal(t, 1, s.BlockCount())

	require.NoError(t, s.SetBlock(1, 2, 3, nil))
	assert.Equal(t, 0, s.BlockCount())
	require.NoError(t, s.SetBlock(1, 2, 3, nil))
	assert.Equal(t, 0, s.BlockCount())

	require.NoError(t, s.SetBlock(4, 4, 4, ident("stone")))
	air := block.Air
	require.NoError(t, s.SetBlock(4, 4, 4, &air))
	assert.True(t, s.IsEmpty())
	_, ok := s.Block(4, 4, 4)
	assert.False(t, ok)
}

func TestSectionRejectsUnknownBlock(t *testing.T) {
	s := NewSection()
	require.NoError(t, s.SetBlock(0, 0, 0, ident("stone")))
	err := s.SetBlock(0, 0, 0, ident("water"))
	assert.ErrorIs(t, err, block.ErrUnknownBlock)

	got, ok := s.Block(0, 0, 0)
	assert.True(t, ok)
	assert.Equal(t, block.ID("stone"), got)
	assert.Equal(t, 1, s.BlockCount())
}

func TestSectionDataRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	vocab := block.Vocabulary()

	s := NewSection()
	for i := 0; i < 3000; i++ {
		x, y, z := rng.Intn(16), rng.Intn(16), rng.Intn(16)
		if rng.Intn(5) == 0 {
			require.NoError(t, s.SetBlock(x, y, z, nil))
			continue
		}
		id := vocab[rng.Intn(len(vocab))]
		require.NoError(t, s.SetBlock(x, y, z, &id))
	}

	data, err := s.ToData(3)
	require.NoError(t, err)
	assert.Equal(t, int32(3), data.Y)
	assert.LessOrEqual(t, len(data.Palette), len(vocab))
	assert.Equal(t, int32(paletteBits(len(data.Palette))), data.Bits)

	back, err := SectionFromData(data)
	require.NoError(t, err)
	assert.Equal(t, s.BlockCount(), back.BlockCount())
	for y := 0; y < 16; y++ {
		for z := 0; z < 16; z++ {
			for x := 0; x < 16; x++ {
				want, wantOK := s.Block(x, y, z)
				got, gotOK := back.Block(x, y, z)
				require.Equal(t, wantOK, gotOK)
				require.Equal(t, want, got)
			}
		}
	}
}

func TestSectionDataPaletteOrder(t *testing.T) {
	s := NewSection()
	// первый по порядку хранения индекс 0 это x=15
	require.NoError(t, s.SetBlock(15, 0, 0, ident("dirt")))
	require.NoError(t, s.SetBlock(0, 0, 0, ident("stone")))
	require.NoError(t, s.SetBlock(0, 5, 0, ident("dirt")))

	data, err := s.ToData(0)
	require.NoError(t, err)
	assert.Equal(t, []string{"minecraft:dirt", "minecraft:stone"}, data.Palette)
	assert.Equal(t, int32(2), data.Bits)

	empty, err := NewSection().ToData(0)
	require.NoError(t, err)
	assert.Empty(t, empty.Palette)
	assert.Equal(t, int32(1), empty.Bits)
}

func TestSectionFromDataFailures(t *testing.T) {
	t.Run("неизвестный блок", func(t *testing.T) {
		data := SectionData{Palette: []string{"minecraft:water"}, Bits: 1, Data: make([]int64, 64)}
		_, err := SectionFromData(data)
		assert.ErrorIs(t, err, block.ErrUnknownBlock)
	})

	t.Run("переполнение палитры", func(t *testing.T) {
		palette := make([]string, 256)
		for i := range palette {
			palette[i] = fmt.Sprintf("minecraft:block_%d", i)
		}
		_, err := SectionFromData(SectionData{Palette: palette, Bits: 9, Data: make([]int64, 586)})
		assert.ErrorIs(t, err, ErrPaletteOverflow)
	})

	t.Run("ширина не совпадает", func(t *testing.T) {
		data := SectionData{Palette: []string{"minecraft:stone"}, Bits: 4, Data: make([]int64, 256)}
		_, err := SectionFromData(data)
		assert.ErrorIs(t, err, ErrStorageMismatch)
	})

	t.Run("индекс вне палитры", func(t *testing.T) {
		packed := NewSimpleBitStorage(2, SectionVolume)
		packed.Set(10, 3)
		data := SectionData{Palette: []string{"minecraft:stone", "minecraft:dirt"}, Bits: 2, Data: packed.Raw()}
		_, err := SectionFromData(data)
		assert.ErrorIs(t, err, block.ErrUnknownBlock)
	})
}
