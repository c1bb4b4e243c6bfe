package vec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlockPosChunk(t *testing.T) {
	// Положительные координаты
	assert.Equal(t, ChunkPos{0, 0, 0}, BlockPos{0, 0, 0}.Chunk())
	assert.Equal(t, ChunkPos{0, 0, 0}, BlockPos{15, 15, 15}.Chunk())
	assert.Equal(t, ChunkPos{1, 0, 0}, BlockPos{16, 0, 0}.Chunk())

	// Отрицательные координаты: деление должно округляться вниз
	assert.Equal(t, ChunkPos{-1, 0, 0}, BlockPos{-1, 0, 0}.Chunk())
	assert.Equal(t, ChunkPos{0, -1, 0}, BlockPos{0, -1, 0}.Chunk())
	assert.Equal(t, ChunkPos{0, 0, -2}, BlockPos{0, 0, -17}.Chunk())
	assert.Equal(t, ChunkPos{-1, -1, -1}, BlockPos{-16, -16, -16}.Chunk())
}

func TestBlockPosLocal(t *testing.T) {
	x, y, z := BlockPos{0, 0, 0}.Local()
	assert.Equal(t, [3]int{0, 0, 0}, [3]int{x, y, z})

	x, y, z = BlockPos{15, 14, 13}.Local()
	assert.Equal(t, [3]int{15, 14, 13}, [3]int{x, y, z})

	// Евклидов остаток: для -1 локальная координата 15, а не -1
	x, y, z = BlockPos{-1, -1, -1}.Local()
	assert.Equal(t, [3]int{15, 15, 15}, [3]int{x, y, z})
}

func TestBlockPosLocalRange(t *testing.T) {
	// Локальные координаты всегда в [0, 16), и из (чанк, локальная)
	// однозначно восстанавливается исходная координата.
	for world := -64; world < 64; world++ {
		pos := BlockPos{X: world, Y: world, Z: world}
		chunk := pos.Chunk()
		x, y, z := pos.Local()

		assert.True(t, x >= 0 && x < ChunkSize)
		assert.True(t, y >= 0 && y < ChunkSize)
		assert.True(t, z >= 0 && z < ChunkSize)

		assert.Equal(t, world, chunk.X*ChunkSize+x)
		assert.Equal(t, world, chunk.Y*ChunkSize+y)
		assert.Equal(t, world, chunk.Z*ChunkSize+z)
	}
}

func TestChunkPosOrigin(t *testing.T) {
	assert.Equal(t, BlockPos{32, -16, 0}, ChunkPos{2, -1, 0}.Origin())
}

func TestChunkPosLess(t *testing.T) {
	assert.True(t, ChunkPos{0, 0, 0}.Less(ChunkPos{1, 0, 0}))
	assert.True(t, ChunkPos{0, 0, 0}.Less(ChunkPos{0, 0, 1}))
	assert.True(t, ChunkPos{-1, 5, 5}.Less(ChunkPos{0, 0, 0}))
	assert.False(t, ChunkPos{1, 0, 0}.Less(ChunkPos{0, 9, 9}))
	assert.False(t, ChunkPos{0, 0, 0}.Less(ChunkPos{0, 0, 0}))
}

func TestVec3FloatToBlockPos(t *testing.T) {
	assert.Equal(t, BlockPos{1, 2, 3}, Vec3Float{1.9, 2.1, 3.0}.ToBlockPos())
	// Округление вниз для отрицательных значений
	assert.Equal(t, BlockPos{-1, -1, -3}, Vec3Float{-0.1, -0.9, -2.5}.ToBlockPos())
}
