package network

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/Tnze/go-mc/nbt"
	"github.com/annel0/blockverse/internal/protocol"
	"github.com/annel0/blockverse/internal/world"
)

// ErrInvalidRegistryCodec файл registry codec не является NBT compound
var ErrInvalidRegistryCodec = errors.New("invalid registry codec")

const (
	overworldName = "minecraft:overworld"
	plainsName    = "minecraft:plains"
)

type registryEntry[T any] struct {
	Name    string `nbt:"name"`
	ID      int32  `nbt:"id"`
	Element T      `nbt:"element"`
}

type registry[T any] struct {
	Type  string             `nbt:"type"`
	Value []registryEntry[T] `nbt:"value"`
}

type dimensionType struct {
	PiglinSafe                  bool    `nbt:"piglin_safe"`
	HasRaids                    bool    `nbt:"has_raids"`
	MonsterSpawnLightLevel      int32   `nbt:"monster_spawn_light_level"`
	MonsterSpawnBlockLightLimit int32   `nbt:"monster_spawn_block_light_limit"`
	Natural                     bool    `nbt:"natural"`
	AmbientLight                float32 `nbt:"ambient_light"`
	Infiniburn                  string  `nbt:"infiniburn"`
	RespawnAnchorWorks          bool    `nbt:"respawn_anchor_works"`
	HasSkylight                 bool    `nbt:"has_skylight"`
	BedWorks                    bool    `nbt:"bed_works"`
	Effects                     string  `nbt:"effects"`
	MinY                        int32   `nbt:"min_y"`
	Height                      int32   `nbt:"height"`
	LogicalHeight               int32   `nbt:"logical_height"`
	CoordinateScale             float64 `nbt:"coordinate_scale"`
	Ultrawarm                   bool    `nbt:"ultrawarm"`
	HasCeiling                  bool    `nbt:"has_ceiling"`
}

type biomeEffects struct {
	SkyColor      int32 `nbt:"sky_color"`
	WaterFogColor int32 `nbt:"water_fog_color"`
	FogColor      int32 `nbt:"fog_color"`
	WaterColor    int32 `nbt:"water_color"`
}

type biome struct {
	HasPrecipitation bool         `nbt:"has_precipitation"`
	Temperature      float32      `nbt:"temperature"`
	Downfall         float32      `nbt:"downfall"`
	Effects          biomeEffects `nbt:"effects"`
}

type chatDecoration struct {
	TranslationKey string   `nbt:"translation_key"`
	Parameters     []string `nbt:"parameters"`
}

type chatType struct {
	Chat      chatDecoration `nbt:"chat"`
	Narration chatDecoration `nbt:"narration"`
}

type damageType struct {
	MessageID  string  `nbt:"message_id"`
	Scaling    string  `nbt:"scaling"`
	Exhaustion float32 `nbt:"exhaustion"`
}

// trimEntry пустой элемент: реестры отделки передаются без значений
type trimEntry struct{}

type registryCodec struct {
	DimensionType registry[dimensionType] `nbt:"minecraft:dimension_type"`
	Biome         registry[biome]         `nbt:"minecraft:worldgen/biome"`
	ChatType      registry[chatType]      `nbt:"minecraft:chat_type"`
	DamageType    registry[damageType]    `nbt:"minecraft:damage_type"`
	TrimPattern   registry[trimEntry]     `nbt:"minecraft:trim_pattern"`
	TrimMaterial  registry[trimEntry]     `nbt:"minecraft:trim_material"`
}

// damageTypes набор типов урона 1.19.4: клиент ищет их по имени при входе в мир
var damageTypes = []struct {
	name, message string
	exhaustion    float32
}{
	{"arrow", "arrow", 0.1},
	{"bad_respawn_point", "badRespawnPoint", 0.1},
	{"cactus", "cactus", 0.1},
	{"cramming", "cramming", 0},
	{"dragon_breath", "dragonBreath", 0},
	{"drown", "drown", 0},
	{"dry_out", "dryout", 0.1},
	{"explosion", "explosion", 0.1},
	{"fall", "fall", 0},
	{"falling_anvil", "anvil", 0.1},
	{"falling_block", "fallingBlock", 0.1},
	{"falling_stalactite", "fallingStalactite", 0.1},
	{"fireball", "fireball", 0.1},
	{"fireworks", "fireworks", 0.1},
	{"fly_into_wall", "flyIntoWall", 0},
	{"freeze", "freeze", 0},
	{"generic", "generic", 0},
	{"hot_floor", "hotFloor", 0.1},
	{"in_fire", "inFire", 0.1},
	{"in_wall", "inWall", 0},
	{"indirect_magic", "indirectMagic", 0},
	{"lava", "lava", 0.1},
	{"lightning_bolt", "lightningBolt", 0.1},
	{"magic", "magic", 0},
	{"mob_attack", "mob", 0.1},
	{"mob_attack_no_aggro", "mob", 0.1},
	{"mob_projectile", "mob", 0.1},
	{"on_fire", "onFire", 0},
	{"out_of_world", "outOfWorld", 0},
	{"player_attack", "player", 0.1},
	{"player_explosion", "explosion.player", 0.1},
	{"sonic_boom", "sonic_boom", 0},
	{"stalagmite", "stalagmite", 0},
	{"starve", "starve", 0},
	{"sting", "sting", 0.1},
	{"sweet_berry_bush", "sweetBerryBush", 0.1},
	{"thorns", "thorns", 0.1},
	{"thrown", "thrown", 0.1},
	{"trident", "trident", 0.1},
	{"unattributed_fireball", "onFire", 0.1},
	{"wither", "wither", 0},
	{"wither_skull", "witherSkull", 0.1},
}

func overworldType(dim world.Dimension) dimensionType {
	return dimensionType{
		MonsterSpawnLightLevel:      0,
		MonsterSpawnBlockLightLimit: 0,
		Natural:                     true,
		Infiniburn:                  "#minecraft:infiniburn_overworld",
		HasSkylight:                 true,
		BedWorks:                    true,
		Effects:                     "minecraft:overworld",
		MinY:                        int32(dim.MinY),
		Height:                      int32(dim.Height),
		LogicalHeight:               int32(dim.Height),
		CoordinateScale:             1,
	}
}

// BuildRegistryCodec собирает минимальный registry codec для входа в мир:
// одно измерение с высотами dim, один биом (plains, id 0), тип чата и типы урона.
func BuildRegistryCodec(dim world.Dimension) (protocol.RawNBT, error) {
	codec := registryCodec{
		DimensionType: registry[dimensionType]{
			Type: "minecraft:dimension_type",
			Value: []registryEntry[dimensionType]{
				{Name: overworldName, ID: 0, Element: overworldType(dim)},
			},
		},
		Biome: registry[biome]{
			Type: "minecraft:worldgen/biome",
			Value: []registryEntry[biome]{{
				Name: plainsName,
				ID:   0,
				Element: biome{
					HasPrecipitation: true,
					Temperature:      0.8,
					Downfall:         0.4,
					Effects: biomeEffects{
						SkyColor:      7907327,
						WaterFogColor: 329011,
						FogColor:      12638463,
						WaterColor:    4159204,
					},
				},
			}},
		},
		ChatType: registry[chatType]{
			Type: "minecraft:chat_type",
			Value: []registryEntry[chatType]{{
				Name: "minecraft:chat",
				ID:   0,
				Element: chatType{
					Chat:      chatDecoration{TranslationKey: "chat.type.text", Parameters: []string{"sender", "content"}},
					Narration: chatDecoration{TranslationKey: "chat.type.text.narrate", Parameters: []string{"sender", "content"}},
				},
			}},
		},
		DamageType:   registry[damageType]{Type: "minecraft:damage_type"},
		TrimPattern:  registry[trimEntry]{Type: "minecraft:trim_pattern", Value: []registryEntry[trimEntry]{}},
		TrimMaterial: registry[trimEntry]{Type: "minecraft:trim_material", Value: []registryEntry[trimEntry]{}},
	}
	for i, d := range damageTypes {
		scaling := "when_caused_by_living_non_player"
		switch d.name {
		case "bad_respawn_point", "explosion", "player_explosion", "sonic_boom":
			scaling = "always"
		}
		codec.DamageType.Value = append(codec.DamageType.Value, registryEntry[damageType]{
			Name:    "minecraft:" + d.name,
			ID:      int32(i),
			Element: damageType{MessageID: d.message, Scaling: scaling, Exhaustion: d.exhaustion},
		})
	}

	var buf bytes.Buffer
	if err := nbt.NewEncoder(&buf).Encode(codec, ""); err != nil {
		return nil, fmt.Errorf("registry codec: %w", err)
	}
	return protocol.RawNBT(buf.Bytes()), nil
}

// LoadRegistryCodec читает заранее снятый registry codec (несжатый NBT с безымянным корнем)
func LoadRegistryCodec(path string) (protocol.RawNBT, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("registry codec %s: %w", path, err)
	}
	if len(data) == 0 || data[0] != nbt.TagCompound {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRegistryCodec, path)
	}
	return protocol.RawNBT(data), nil
}
