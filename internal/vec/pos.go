package vec

// Размеры чанка. Чанк — куб 16x16x16 блоков.
const (
	ChunkSize = 16           // Размер чанка по каждой оси
	ChunkBits = 4            // log2(ChunkSize), для сдвигов
	ChunkMask = ChunkSize - 1 // Маска локальных координат
)

// BlockPos представляет позицию блока в мировых координатах (в блоках).
// Координаты могут быть отрицательными.
type BlockPos struct {
	X, Y, Z int
}

// ChunkPos представляет позицию чанка в сетке чанков
// (единица измерения — 16 блоков).
type ChunkPos struct {
	X, Y, Z int
}

// Chunk возвращает координаты чанка, содержащего блок.
// Арифметический сдвиг вправо даёт целочисленное деление с округлением
// вниз, поэтому отрицательные координаты обрабатываются корректно:
// блок {-1,0,0} лежит в чанке {-1,0,0}, а не {0,0,0}.
func (p BlockPos) Chunk() ChunkPos {
	return ChunkPos{X: p.X >> ChunkBits, Y: p.Y >> ChunkBits, Z: p.Z >> ChunkBits}
}

// Local возвращает локальные координаты блока внутри его чанка.
// Маска даёт евклидов остаток: результат всегда в диапазоне [0, 16),
// в том числе для отрицательных мировых координат.
func (p BlockPos) Local() (x, y, z int) {
	return p.X & ChunkMask, p.Y & ChunkMask, p.Z & ChunkMask
}

// Add возвращает сумму позиций.
func (p BlockPos) Add(other BlockPos) BlockPos {
	return BlockPos{X: p.X + other.X, Y: p.Y + other.Y, Z: p.Z + other.Z}
}

// Offset возвращает позицию, смещённую на указанные величины.
func (p BlockPos) Offset(dx, dy, dz int) BlockPos {
	return BlockPos{X: p.X + dx, Y: p.Y + dy, Z: p.Z + dz}
}

// Origin возвращает мировую позицию блока с минимальными координатами
// внутри чанка (угол чанка).
func (c ChunkPos) Origin() BlockPos {
	return BlockPos{X: c.X << ChunkBits, Y: c.Y << ChunkBits, Z: c.Z << ChunkBits}
}

// Add возвращает сумму позиций чанков.
func (c ChunkPos) Add(other ChunkPos) ChunkPos {
	return ChunkPos{X: c.X + other.X, Y: c.Y + other.Y, Z: c.Z + other.Z}
}

// ManhattanDistance возвращает манхэттенское расстояние до другого чанка.
func (c ChunkPos) ManhattanDistance(other ChunkPos) int {
	return abs(other.X-c.X) + abs(other.Y-c.Y) + abs(other.Z-c.Z)
}

// Less задаёт лексикографический порядок (X, затем Y, затем Z).
// Используется для детерминированной итерации по чанкам.
func (c ChunkPos) Less(other ChunkPos) bool {
	if c.X != other.X {
		return c.X < other.X
	}
	if c.Y != other.Y {
		return c.Y < other.Y
	}
	return c.Z < other.Z
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
