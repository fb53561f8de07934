package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoise2DDeterministic(t *testing.T) {
	a := NewNoise2D(42)
	b := NewNoise2D(42)

	for i := 0; i < 50; i++ {
		x := float64(i) * 0.37
		y := float64(i) * -0.21
		assert.Equal(t, a.At(x, y), b.At(x, y), "один сид должен давать одинаковый шум")
	}
	assert.Equal(t, int64(42), a.Seed())
}

func TestNoise2DRange(t *testing.T) {
	n := NewNoise2D(7)
	for i := -100; i < 100; i++ {
		v := n.At(float64(i)*0.13, float64(i)*0.07)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}
