package implementations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/blockverse/internal/world/block"
)

func TestRegisteredHandlers(t *testing.T) {
	r := block.Default()

	air, err := r.DefaultState(block.Air)
	require.NoError(t, err)
	assert.True(t, block.HandlerFor(block.Air).CanReplace(air, block.UseContext{}))

	source, err := r.DefaultState(block.ID("water"))
	require.NoError(t, err)
	water := block.HandlerFor(block.ID("water"))
	assert.True(t, water.CanReplace(source, block.UseContext{}))
	assert.False(t, water.CanReplace(source, block.UseContext{Inside: true}))

	flowing, err := block.ParseBlockState("minecraft:water[level=3]")
	require.NoError(t, err)
	assert.True(t, water.CanReplace(flowing, block.UseContext{Inside: true}))

	bedrock, err := r.DefaultState(block.ID("bedrock"))
	require.NoError(t, err)
	h := block.HandlerFor(block.ID("bedrock"))
	assert.Equal(t, block.UseConsume, h.OnUse(bedrock, nil, block.UseContext{}))
	assert.False(t, h.CanReplace(bedrock, block.UseContext{}))
}
