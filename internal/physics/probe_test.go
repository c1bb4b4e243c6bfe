package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world/block"
)

// mapSource — источник блоков для тестов: всё, чего нет в карте, неизвестно.
type mapSource struct {
	blocks map[vec.BlockPos]block.ID
}

func (m *mapSource) Block(pos vec.BlockPos) (block.ID, bool) {
	id, ok := m.blocks[pos]
	return id, ok
}

func newTestSource() *mapSource {
	return &mapSource{blocks: make(map[vec.BlockPos]block.ID)}
}

func TestProbeIsSolid(t *testing.T) {
	reg := block.DefaultRegistry()
	src := newTestSource()
	src.blocks[vec.BlockPos{X: 0, Y: 0, Z: 0}] = reg.ID(block.KindStone)
	src.blocks[vec.BlockPos{X: 0, Y: 1, Z: 0}] = block.Air()
	src.blocks[vec.BlockPos{X: 1, Y: 0, Z: 0}] = reg.IDWith(block.KindWater, 3)

	probe := NewProbe(src, reg)

	solid, ok := probe.IsSolid(vec.BlockPos{X: 0, Y: 0, Z: 0})
	require.True(t, ok)
	assert.True(t, solid, "камень твёрдый")

	solid, ok = probe.IsSolid(vec.BlockPos{X: 0, Y: 1, Z: 0})
	require.True(t, ok)
	assert.False(t, solid, "воздух проходим")

	solid, ok = probe.IsSolid(vec.BlockPos{X: 1, Y: 0, Z: 0})
	require.True(t, ok)
	assert.False(t, solid, "вода проходима")
}

func TestProbeUnknownBlock(t *testing.T) {
	reg := block.DefaultRegistry()
	probe := NewProbe(newTestSource(), reg)

	// Неизвестность доходит до вызывающего, а не маскируется под воздух.
	_, ok := probe.IsSolid(vec.BlockPos{X: 100, Y: 100, Z: 100})
	assert.False(t, ok)

	_, ok = probe.IsPassable(vec.BlockPos{X: 100, Y: 100, Z: 100})
	assert.False(t, ok)
}

func TestProbeCanStand(t *testing.T) {
	reg := block.DefaultRegistry()
	src := newTestSource()
	// Пол на y=-1, два блока воздуха над ним.
	src.blocks[vec.BlockPos{X: 0, Y: -1, Z: 0}] = reg.ID(block.KindGrass)
	src.blocks[vec.BlockPos{X: 0, Y: 0, Z: 0}] = block.Air()
	src.blocks[vec.BlockPos{X: 0, Y: 1, Z: 0}] = block.Air()

	probe := NewProbe(src, reg)

	can, ok := probe.CanStand(vec.BlockPos{X: 0, Y: 0, Z: 0}, 2)
	require.True(t, ok)
	assert.True(t, can)

	// Голова упирается в камень.
	src.blocks[vec.BlockPos{X: 0, Y: 1, Z: 0}] = reg.ID(block.KindStone)
	can, ok = probe.CanStand(vec.BlockPos{X: 0, Y: 0, Z: 0}, 2)
	require.True(t, ok)
	assert.False(t, can)

	// Пол неизвестен — ответа нет.
	_, ok = probe.CanStand(vec.BlockPos{X: 5, Y: 0, Z: 0}, 2)
	assert.False(t, ok)
}

func TestProbeSweepBox(t *testing.T) {
	reg := block.DefaultRegistry()
	src := newTestSource()
	for x := 0; x < 3; x++ {
		for y := 0; y < 3; y++ {
			for z := 0; z < 3; z++ {
				src.blocks[vec.BlockPos{X: x, Y: y, Z: z}] = block.Air()
			}
		}
	}
	probe := NewProbe(src, reg)

	_, hit, ok := probe.SweepBox(vec.BlockPos{}, vec.BlockPos{X: 2, Y: 2, Z: 2})
	require.True(t, ok)
	assert.False(t, hit, "пустой объём свободен")

	src.blocks[vec.BlockPos{X: 1, Y: 2, Z: 1}] = reg.ID(block.KindDirt)
	pos, hit, ok := probe.SweepBox(vec.BlockPos{}, vec.BlockPos{X: 2, Y: 2, Z: 2})
	require.True(t, ok)
	require.True(t, hit)
	assert.Equal(t, vec.BlockPos{X: 1, Y: 2, Z: 1}, pos)

	// Твёрдый блок — определённый ответ, даже если рядом неизвестная область.
	pos, hit, ok = probe.SweepBox(vec.BlockPos{}, vec.BlockPos{X: 3, Y: 2, Z: 2})
	require.True(t, ok)
	require.True(t, hit)
	assert.Equal(t, vec.BlockPos{X: 1, Y: 2, Z: 1}, pos)

	// Без твёрдых блоков в известной части неизвестность не даёт ответа.
	src.blocks[vec.BlockPos{X: 1, Y: 2, Z: 1}] = block.Air()
	_, _, ok = probe.SweepBox(vec.BlockPos{}, vec.BlockPos{X: 3, Y: 2, Z: 2})
	assert.False(t, ok)
}
