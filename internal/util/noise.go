package util

import (
	"github.com/aquilax/go-perlin"
)

const (
	noiseAlpha   = 2.0 // Сглаживание шума
	noiseBeta    = 2.0 // Частота шума
	noiseOctaves = 3
)

// Noise2D оборачивает генератор шума Перлина, привязанный к одному сиду.
// Экземпляр не разделяется между мирами, поэтому генерация детерминирована.
type Noise2D struct {
	seed   int64
	perlin *perlin.Perlin
}

// NewNoise2D создает генератор шума Перлина с указанным сидом
func NewNoise2D(seed int64) *Noise2D {
	return &Noise2D{
		seed:   seed,
		perlin: perlin.NewPerlin(noiseAlpha, noiseBeta, noiseOctaves, seed),
	}
}

// Seed возвращает сид генератора
func (n *Noise2D) Seed() int64 {
	return n.seed
}

// At возвращает значение шума для указанных координат (от 0 до 1)
func (n *Noise2D) At(x, y float64) float64 {
	// Значение шума лежит примерно в диапазоне от -1 до 1
	v := (n.perlin.Noise2D(x, y) + 1.0) / 2.0
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
