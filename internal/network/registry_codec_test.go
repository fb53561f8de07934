package network

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/Tnze/go-mc/nbt"
	"github.com/annel0/blockverse/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type namedEntry struct {
	Name string `nbt:"name"`
	ID   int32  `nbt:"id"`
}

type decodedCodec struct {
	Dimensions struct {
		Type  string `nbt:"type"`
		Value []struct {
			Name    string `nbt:"name"`
			Element struct {
				MinY          int32  `nbt:"min_y"`
				Height        int32  `nbt:"height"`
				LogicalHeight int32  `nbt:"logical_height"`
				Infiniburn    string `nbt:"infiniburn"`
			} `nbt:"element"`
		} `nbt:"value"`
	} `nbt:"minecraft:dimension_type"`
	Biomes struct {
		Value []namedEntry `nbt:"value"`
	} `nbt:"minecraft:worldgen/biome"`
	ChatTypes struct {
		Value []namedEntry `nbt:"value"`
	} `nbt:"minecraft:chat_type"`
	DamageTypes struct {
		Value []namedEntry `nbt:"value"`
	} `nbt:"minecraft:damage_type"`
}

func TestBuildRegistryCodec(t *testing.T) {
	raw, err := BuildRegistryCodec(world.Dimension{MinY: -64, Height: 384})
	require.NoError(t, err)
	require.NotEmpty(t, raw)
	assert.Equal(t, byte(nbt.TagCompound), raw[0])

	var codec decodedCodec
	_, err = nbt.NewDecoder(bytes.NewReader(raw)).Decode(&codec)
	require.NoError(t, err)

	require.Len(t, codec.Dimensions.Value, 1)
	overworld := codec.Dimensions.Value[0]
	assert.Equal(t, "minecraft:dimension_type", codec.Dimensions.Type)
	assert.Equal(t, overworldName, overworld.Name)
	assert.Equal(t, int32(-64), overworld.Element.MinY)
	assert.Equal(t, int32(384), overworld.Element.Height)
	assert.Equal(t, int32(384), overworld.Element.LogicalHeight)
	assert.Equal(t, "#minecraft:infiniburn_overworld", overworld.Element.Infiniburn)

	// биом с id 0 используется заглушкой биомов в пакете чанка
	assert.Equal(t, []namedEntry{{Name: plainsName, ID: 0}}, codec.Biomes.Value)
	assert.Equal(t, []namedEntry{{Name: "minecraft:chat", ID: 0}}, codec.ChatTypes.Value)

	require.Len(t, codec.DamageTypes.Value, len(damageTypes))
	seen := map[string]bool{}
	for i, d := range codec.DamageTypes.Value {
		assert.Equal(t, int32(i), d.ID)
		assert.False(t, seen[d.Name], "повтор %s", d.Name)
		seen[d.Name] = true
	}
	assert.True(t, seen["minecraft:generic"])
	assert.True(t, seen["minecraft:out_of_world"])
}

func TestBuildRegistryCodecFollowsDimension(t *testing.T) {
	raw, err := BuildRegistryCodec(world.Dimension{MinY: 0, Height: 256})
	require.NoError(t, err)

	var codec decodedCodec
	_, err = nbt.NewDecoder(bytes.NewReader(raw)).Decode(&codec)
	require.NoError(t, err)
	assert.Equal(t, int32(0), codec.Dimensions.Value[0].Element.MinY)
	assert.Equal(t, int32(256), codec.Dimensions.Value[0].Element.Height)
}

func TestLoadRegistryCodec(t *testing.T) {
	dir := t.TempDir()

	built, err := BuildRegistryCodec(world.DefaultDimension)
	require.NoError(t, err)
	good := filepath.Join(dir, "codec.nbt")
	require.NoError(t, os.WriteFile(good, built, 0o644))

	loaded, err := LoadRegistryCodec(good)
	require.NoError(t, err)
	assert.Equal(t, built, loaded)

	bad := filepath.Join(dir, "codec.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"not":"nbt"}`), 0o644))
	_, err = LoadRegistryCodec(bad)
	assert.ErrorIs(t, err, ErrInvalidRegistryCodec)

	_, err = LoadRegistryCodec(filepath.Join(dir, "missing.nbt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestHashedSeedIsStable(t *testing.T) {
	assert.Equal(t, hashedSeed(42), hashedSeed(42))
	assert.NotEqual(t, hashedSeed(42), hashedSeed(43))
}
