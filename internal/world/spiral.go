package world

import "github.com/annel0/blockverse/internal/vec"

// SpiralOrder обходит прямоугольник w x h от начала координат по часовой спирали.
// Возвращает все (x, y) с -w/2 < x <= w/2 и -h/2 < y <= h/2 (деление вещественное),
// в порядке удаления от центра.
func SpiralOrder(w, h int) []vec.Vec2 {
	side := max(w, h)
	out := make([]vec.Vec2, 0, w*h)

	x, y := 0, 0
	dx, dy := 0, -1
	for i := 0; i < side*side; i++ {
		if 2*x > -w && 2*x <= w && 2*y > -h && 2*y <= h {
			out = append(out, vec.Vec2{X: x, Z: y})
		}
		if x == y || (x < 0 && x == -y) || (x > 0 && x == 1-y) {
			dx, dy = -dy, dx
		}
		x, y = x+dx, y+dy
	}
	return out
}
