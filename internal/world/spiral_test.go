package world

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/annel0/blockverse/internal/vec"
)

func TestSpiralOrder3x3(t *testing.T) {
	want := []vec.Vec2{
		{X: 0, Z: 0}, {X: 1, Z: 0}, {X: 1, Z: 1}, {X: 0, Z: 1}, {X: -1, Z: 1},
		{X: -1, Z: 0}, {X: -1, Z: -1}, {X: 0, Z: -1}, {X: 1, Z: -1},
	}
	assert.Equal(t, want, SpiralOrder(3, 3))
}

func TestSpiralOrderCoversBounds(t *testing.T) {
	tests := []struct{ w, h int }{{1, 1}, {2, 2}, {4, 2}, {5, 3}, {17, 17}}
	for _, tt := range tests {
		got := SpiralOrder(tt.w, tt.h)
		assert.Len(t, got, tt.w*tt.h, "%dx%d", tt.w, tt.h)

		seen := map[vec.Vec2]bool{}
		prev := 0
		for _, p := range got {
			assert.False(t, seen[p], "повтор %v", p)
			seen[p] = true
			assert.True(t, 2*p.X > -tt.w && 2*p.X <= tt.w)
			assert.True(t, 2*p.Z > -tt.h && 2*p.Z <= tt.h)
			// кольца не убывают
			d := p.ChebyshevDistance(vec.Vec2{})
			assert.GreaterOrEqual(t, d, prev)
			prev = d
		}
	}
}
