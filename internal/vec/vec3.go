package vec

import "math"

// Vec3 представляет позицию блока в мире
type Vec3 struct {
	X int
	Y int
	Z int
}

// Vec3Float представляет позицию с плавающей точкой (позиция игрока)
type Vec3Float struct {
	X float64
	Y float64
	Z float64
}

// Horizontal отбрасывает координату Y
func (v Vec3) Horizontal() Vec2 {
	return Vec2{X: v.X, Z: v.Z}
}

// Add складывает два вектора
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{
		X: v.X + other.X,
		Y: v.Y + other.Y,
		Z: v.Z + other.Z,
	}
}

// BlockPos возвращает позицию блока, в котором находится точка
func (v Vec3Float) BlockPos() Vec3 {
	return Vec3{
		X: int(math.Floor(v.X)),
		Y: int(math.Floor(v.Y)),
		Z: int(math.Floor(v.Z)),
	}
}
