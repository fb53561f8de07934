package vec

// Vec2 представляет горизонтальные координаты (X, Z)
type Vec2 struct {
	X, Z int
}

// FloorDiv делит с округлением вниз (в отличие от оператора /, который округляет к нулю)
func FloorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// FloorMod возвращает остаток с тем же знаком, что и делитель
func FloorMod(a, b int) int {
	return a - FloorDiv(a, b)*b
}

// ToChunkCoords преобразует блочные координаты в координаты чанка
func (v Vec2) ToChunkCoords() Vec2 {
	return Vec2{X: FloorDiv(v.X, 16), Z: FloorDiv(v.Z, 16)}
}

// ToRegionCoords преобразует блочные координаты в координаты региона (512 блоков)
func (v Vec2) ToRegionCoords() Vec2 {
	return Vec2{X: FloorDiv(v.X, 512), Z: FloorDiv(v.Z, 512)}
}

// LocalInChunk возвращает локальные координаты внутри чанка
func (v Vec2) LocalInChunk() Vec2 {
	return Vec2{X: FloorMod(v.X, 16), Z: FloorMod(v.Z, 16)}
}

// ChunkToRegion переводит координаты чанка в координаты региона и смещение внутри него
func (v Vec2) ChunkToRegion() (region Vec2, local Vec2) {
	region = Vec2{X: FloorDiv(v.X, 32), Z: FloorDiv(v.Z, 32)}
	local = Vec2{X: FloorMod(v.X, 32), Z: FloorMod(v.Z, 32)}
	return region, local
}

// Add складывает два вектора
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{X: v.X + other.X, Z: v.Z + other.Z}
}

// ChebyshevDistance возвращает расстояние по максимуму из осей (квадратная зона видимости)
func (v Vec2) ChebyshevDistance(other Vec2) int {
	dx := v.X - other.X
	if dx < 0 {
		dx = -dx
	}
	dz := v.Z - other.Z
	if dz < 0 {
		dz = -dz
	}
	return max(dx, dz)
}
