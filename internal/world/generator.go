package world

import (
	"fmt"

	"github.com/annel0/blockverse/internal/util"
	"github.com/annel0/blockverse/internal/world/block"
)

// GeneratorKind вид генератора мира
type GeneratorKind string

const (
	GeneratorFlat   GeneratorKind = "flat"
	GeneratorNormal GeneratorKind = "normal"
)

// Generator заполняет новый чанк. Вызывается ровно один раз на чанк и может только
// ставить блоки в переданный чанк.
type Generator interface {
	Generate(c *Chunk) error
}

// NewGenerator создает генератор по виду из метаданных мира
func NewGenerator(kind GeneratorKind, seed int64, dim Dimension) (Generator, error) {
	switch kind {
	case GeneratorFlat:
		return &FlatGenerator{MinY: dim.MinY}, nil
	case GeneratorNormal:
		return NewNormalGenerator(seed, dim), nil
	default:
		return nil, fmt.Errorf("неизвестный генератор %q", kind)
	}
}

var (
	stoneID      = block.ID("stone")
	dirtID       = block.ID("dirt")
	grassID      = block.ID("grass_block")
	bedrockID    = block.ID("bedrock")
	graniteID    = block.ID("granite")
	dioriteID    = block.ID("diorite")
	andesiteID   = block.ID("andesite")
	coarseDirtID = block.ID("coarse_dirt")
	podzolID     = block.ID("podzol")
)

// FlatGenerator суперплоский мир: бедрок, два слоя земли, трава
type FlatGenerator struct {
	MinY int
}

var flatLayers = []block.Identifier{bedrockID, dirtID, dirtID, grassID}

func (g *FlatGenerator) Generate(c *Chunk) error {
	for i := range flatLayers {
		id := flatLayers[i]
		y := g.MinY + i
		for z := 0; z < SectionSize; z++ {
			for x := 0; x < SectionSize; x++ {
				if err := c.SetBlock(x, y, z, &id); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// NormalGenerator рельеф по шуму Перлина с пятнами гранита, диорита и андезита
type NormalGenerator struct {
	MinY       int
	BaseHeight int
	Amplitude  float64
	Scale      float64

	height *util.Noise2D
	rock   *util.Noise2D
	soil   *util.Noise2D
}

// NewNormalGenerator создает генератор, привязанный к сиду мира
func NewNormalGenerator(seed int64, dim Dimension) *NormalGenerator {
	return &NormalGenerator{
		MinY:       dim.MinY,
		BaseHeight: 64,
		Amplitude:  48,
		Scale:      0.01,
		height:     util.NewNoise2D(seed),
		rock:       util.NewNoise2D(seed + 1),
		soil:       util.NewNoise2D(seed + 2),
	}
}

// SurfaceAt высота поверхности в абсолютных координатах столба
func (g *NormalGenerator) SurfaceAt(x, z int) int {
	n := g.height.At(float64(x)*g.Scale, float64(z)*g.Scale)
	return g.BaseHeight + int((n-0.5)*2*g.Amplitude)
}

func (g *NormalGenerator) rockAt(x, y, z int) block.Identifier {
	n := g.rock.At(float64(x)*0.05+float64(y)*0.03, float64(z)*0.05-float64(y)*0.03)
	switch {
	case n < 0.2:
		return graniteID
	case n > 0.85:
		return dioriteID
	case n > 0.75:
		return andesiteID
	default:
		return stoneID
	}
}

func (g *NormalGenerator) topAt(x, z int) (block.Identifier, block.Identifier) {
	n := g.soil.At(float64(x)*0.03, float64(z)*0.03)
	switch {
	case n < 0.15:
		return coarseDirtID, dirtID
	case n > 0.85:
		return podzolID, dirtID
	default:
		return grassID, dirtID
	}
}

func (g *NormalGenerator) Generate(c *Chunk) error {
	baseX, baseZ := c.X*SectionSize, c.Z*SectionSize
	for z := 0; z < SectionSize; z++ {
		for x := 0; x < SectionSize; x++ {
			wx, wz := baseX+x, baseZ+z
			surface := g.SurfaceAt(wx, wz)
			if surface <= g.MinY {
				surface = g.MinY + 1
			}
			top, under := g.topAt(wx, wz)

			for y := g.MinY; y <= surface; y++ {
				var id block.Identifier
				switch {
				case y == g.MinY:
					id = bedrockID
				case y == surface:
					id = top
				case y >= surface-3:
					id = under
				default:
					id = g.rockAt(wx, y, wz)
				}
				if err := c.SetBlock(x, y, z, &id); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
