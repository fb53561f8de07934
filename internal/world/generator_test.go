package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/blockverse/internal/world/block"
)

func TestFlatGenerator(t *testing.T) {
	gen, err := NewGenerator(GeneratorFlat, 0, DefaultDimension)
	require.NoError(t, err)

	c := NewChunk(0, 0)
	require.NoError(t, gen.Generate(c))

	want := map[int]string{-64: "bedrock", -63: "dirt", -62: "dirt", -61: "grass_block"}
	for y, name := range want {
		id, ok := c.Block(7, y, 9)
		require.True(t, ok)
		assert.Equal(t, block.ID(name), id)
	}
	_, ok := c.Block(7, -60, 9)
	assert.False(t, ok)

	h, ok := c.Height(15, 15)
	require.True(t, ok)
	assert.Equal(t, -61, h)
	assert.Equal(t, 256*4, c.Section(-4).BlockCount())
}

func TestNormalGeneratorIsDeterministic(t *testing.T) {
	a := NewNormalGenerator(1234, DefaultDimension)
	b := NewNormalGenerator(1234, DefaultDimension)

	ca, cb := NewChunk(-3, 5), NewChunk(-3, 5)
	require.NoError(t, a.Generate(ca))
	require.NoError(t, b.Generate(cb))
	assertSameChunk(t, ca, cb)

	for z := 0; z < 16; z++ {
		for x := 0; x < 16; x++ {
			top, ok := ca.Height(x, z)
			require.True(t, ok)
			assert.Equal(t, a.SurfaceAt(-3*16+x, 5*16+z), top)

			id, ok := ca.Block(x, -64, z)
			require.True(t, ok)
			assert.Equal(t, block.ID("bedrock"), id)

			surface, _ := ca.Block(x, top, z)
			assert.Contains(t, []block.Identifier{block.ID("grass_block"), block.ID("coarse_dirt"), block.ID("podzol")}, surface)
		}
	}
}

func TestNewGeneratorUnknownKind(t *testing.T) {
	_, err := NewGenerator("void", 0, DefaultDimension)
	assert.Error(t, err)
}
