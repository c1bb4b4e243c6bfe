package world

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world/block"
)

func TestCodecRoundTripEmpty(t *testing.T) {
	chunk := NewChunk()

	decoded, err := DecodeChunk(EncodeChunk(chunk))
	require.NoError(t, err)

	assert.True(t, decoded.Get(0, 0, 0).Is(block.KindAir))
	assert.Equal(t, chunk.Palette(), decoded.Palette())
}

func TestCodecRoundTripRandom(t *testing.T) {
	reg := block.DefaultRegistry()
	rng := rand.New(rand.NewSource(42))

	kinds := []block.Kind{block.KindAir, block.KindDirt, block.KindStone, block.KindGrass, block.KindMelium}

	chunk := NewChunk()
	for i := 0; i < 2000; i++ {
		x, y, z := rng.Intn(16), rng.Intn(16), rng.Intn(16)
		chunk.Set(x, y, z, reg.ID(kinds[rng.Intn(len(kinds))]))
	}
	// Несколько блоков с состояниями
	chunk.Set(0, 15, 0, reg.IDWith(block.KindWater, 3))
	chunk.Set(1, 15, 0, reg.IDWith(block.KindLamp, 1))

	decoded, err := DecodeChunk(EncodeChunk(chunk))
	require.NoError(t, err)

	// Результат get(x,y,z) совпадает для всех позиций
	for x := 0; x < vec.ChunkSize; x++ {
		for y := 0; y < vec.ChunkSize; y++ {
			for z := 0; z < vec.ChunkSize; z++ {
				require.Equal(t, chunk.Get(x, y, z), decoded.Get(x, y, z), "позиция (%d,%d,%d)", x, y, z)
			}
		}
	}
}

func TestCodecRejectsGarbage(t *testing.T) {
	_, err := DecodeChunk(nil)
	assert.Error(t, err)

	_, err = DecodeChunk([]byte{0x01})
	assert.Error(t, err)

	// Пустая палитра недопустима
	_, err = DecodeChunk([]byte{0x00, 0x00})
	assert.Error(t, err)
}

func TestCodecRejectsOversizedWordCount(t *testing.T) {
	// Заголовок из 15 байт, заявляющий 1<<27 слов: декодер обязан отклонить
	// его до аллокации, сверив заявку с остатком буфера.
	data := []byte{
		0x01, 0x00, // палитра: одна запись
		0x00, 0x00, 0x00, 0x00, // kind = air
		0x00, 0x00, 0x00, 0x00, // state = 0
		0x03,                   // битовая ширина
		0x00, 0x00, 0x00, 0x08, // количество слов = 1<<27
	}

	_, err := DecodeChunk(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "слов")
}

func TestCodecRejectsDuplicatePaletteEntries(t *testing.T) {
	reg := block.DefaultRegistry()

	chunk := NewChunk()
	chunk.Set(0, 0, 0, reg.ID(block.KindDirt))
	chunk.Set(1, 0, 0, reg.ID(block.KindStone)) // палитра: [air, dirt, stone]

	data := EncodeChunk(chunk)

	// Подменяем третью запись копией второй: [air, dirt, dirt]
	copy(data[2+8*2:2+8*3], data[2+8*1:2+8*2])

	_, err := DecodeChunk(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "дубликат")
}

func TestCodecRejectsIndexOutsidePalette(t *testing.T) {
	reg := block.DefaultRegistry()

	chunk := NewChunk()
	chunk.Set(0, 0, 0, reg.ID(block.KindDirt)) // палитра: [air, dirt]

	data := EncodeChunk(chunk)

	// Урезаем палитру до одной записи: индекс 1 станет недопустимым
	data[0] = 0x01
	trimmed := append(append([]byte{}, data[:2]...), data[2+8:]...)

	_, err := DecodeChunk(trimmed)
	assert.Error(t, err)
}
