// Package world содержит структуры хранения блоков: чанки с палитрой,
// зоны (плотные и разреженные) и мир как набор зон.
package world

import (
	"fmt"

	"github.com/annel0/voxel-world/internal/bitpack"
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world/block"
)

// Объём чанка в блоках (16x16x16).
const ChunkVolume = vec.ChunkSize * vec.ChunkSize * vec.ChunkSize

// Начальная битовая ширина индексов палитры. 3 бита дают до 8 различных
// состояний блоков до первого расширения — сознательно мало, потому что
// большинство чанков почти однородны.
const initialBitsPerBlock = 3

// Chunk компактно хранит блоки одного участка 16x16x16.
//
// Внутри — упакованный массив индексов и палитра: каждый элемент массива
// указывает на состояние блока в палитре. Память пропорциональна числу
// РАЗЛИЧНЫХ блоков в чанке, а не фиксированным 4096 записям.
//
// Палитра стабильна, пока массив индексов не обновлён согласованно.
// Палитра монотонна: записи не удаляются, даже если блок перестал
// встречаться после перезаписей (известная неэффективность, не дефект —
// чанки ограничены по размеру).
//
// Чанк не рассчитан на конкурентных писателей: им владеет ровно одна
// зона (и одна горутина). Для передачи в фоновую задачу используйте Clone.
type Chunk struct {
	indexes *bitpack.PackedArray
	palette []block.ID
}

// NewChunk создаёт чанк, целиком заполненный воздухом.
func NewChunk() *Chunk {
	return &Chunk{
		indexes: bitpack.New(ChunkVolume, initialBitsPerBlock),
		palette: []block.ID{block.Air()},
	}
}

// Get возвращает блок по локальным координатам внутри чанка.
//
// Паникует, если какая-либо координата вне [0, 16): координаты всегда
// вычисляются через BlockPos.Local, поэтому выход за границы — ошибка
// вызывающего кода.
func (c *Chunk) Get(x, y, z int) block.ID {
	checkBounds(x, y, z)
	index, _ := c.indexes.Get(ordinal(x, y, z))
	return c.palette[index]
}

// Set устанавливает блок по локальным координатам внутри чанка.
// При необходимости расширяет палитру и битовую ширину индексов.
//
// Паникует при выходе координат за [0, 16).
func (c *Chunk) Set(x, y, z int, b block.ID) {
	checkBounds(x, y, z)
	index := c.findInPalette(b)
	c.indexes.Set(ordinal(x, y, z), uint64(index))
}

// GetLocal и SetLocal — удобные обёртки над Get/Set для позиции блока.
func (c *Chunk) GetLocal(pos vec.BlockPos) block.ID {
	x, y, z := pos.Local()
	return c.Get(x, y, z)
}

func (c *Chunk) SetLocal(pos vec.BlockPos, b block.ID) {
	x, y, z := pos.Local()
	c.Set(x, y, z, b)
}

// Palette возвращает палитру — множество различных состояний блоков
// в чанке. Вызывающий код не должен изменять её.
func (c *Chunk) Palette() []block.ID {
	return c.palette
}

// Indexes возвращает упакованный массив индексов палитры.
//
// Порядок значений: срезы от Y=0 до Y=15, каждый содержит срезы от Z=0
// до Z=15, внутри — блоки от X=0 до X=15. Мешер и сериализатор полагаются
// на этот порядок для индексной арифметики.
func (c *Chunk) Indexes() *bitpack.PackedArray {
	return c.indexes
}

// RemapPalette переписывает палитру через fn, не трогая массив индексов.
// Используется хранилищем при миграции идентификаторов блоков между
// версиями реестра. fn обязана сохранять различимость: два разных
// состояния палитры не должны склеиваться в одно.
func (c *Chunk) RemapPalette(fn func(b block.ID) block.ID) {
	for i, b := range c.palette {
		c.palette[i] = fn(b)
	}
}

// Clone возвращает глубокую копию чанка: и палитра, и битовый буфер
// копируются. Стоимость — O(размер палитры + размер буфера). Копию можно
// изменять и читать независимо от оригинала в другой горутине.
func (c *Chunk) Clone() *Chunk {
	palette := make([]block.ID, len(c.palette))
	copy(palette, c.palette)
	return &Chunk{
		indexes: c.indexes.Clone(),
		palette: palette,
	}
}

// findInPalette возвращает индекс блока в палитре, добавляя блок при
// отсутствии. Линейный поиск: палитры маленькие (обычно меньше пары
// десятков состояний), перебор быстрее хеш-таблицы.
func (c *Chunk) findInPalette(b block.ID) int {
	for i, existing := range c.palette {
		if existing == b {
			return i
		}
	}

	pos := len(c.palette)
	c.growPalette(b)
	return pos
}

func (c *Chunk) growPalette(b block.ID) {
	c.palette = append(c.palette, b)

	// Если новый максимальный индекс палитры не представим текущей
	// битовой шириной, расширяем массив индексов.
	if uint64(len(c.palette)-1) > c.indexes.MaxValue() {
		c.indexes = c.indexes.Resized(c.indexes.BitsPerValue() + 1)
	}
}

func checkBounds(x, y, z int) {
	if x < 0 || x >= vec.ChunkSize || y < 0 || y >= vec.ChunkSize || z < 0 || z >= vec.ChunkSize {
		panic(fmt.Sprintf("world: координаты (%d, %d, %d) вне чанка", x, y, z))
	}
}

func ordinal(x, y, z int) int {
	return y*vec.ChunkSize*vec.ChunkSize + z*vec.ChunkSize + x
}
