package world

import (
	"errors"
	"fmt"

	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world/block"
)

// BlockOutOfBoundsError возвращается при чтении/записи блока вне зоны.
// Это ожидаемое восстановимое состояние (сущности у края мира, лучи,
// выходящие за границу), а не паника.
type BlockOutOfBoundsError struct {
	Pos vec.BlockPos
}

func (e *BlockOutOfBoundsError) Error() string {
	return fmt.Sprintf("блок %v за границами зоны", e.Pos)
}

// ChunkOutOfBoundsError возвращается при добавлении чанка вне границ
// строящейся зоны.
type ChunkOutOfBoundsError struct {
	Pos      vec.ChunkPos
	Min, Max vec.ChunkPos
}

func (e *ChunkOutOfBoundsError) Error() string {
	return fmt.Sprintf("чанк %v за границами зоны (min: %v, max: %v)", e.Pos, e.Min, e.Max)
}

// ErrZoneIncomplete возвращается ZoneBuilder.Build, если добавлены не все
// чанки. Билдер остаётся пригодным: можно дополнить чанки и повторить.
var ErrZoneIncomplete = errors.New("зона не полна: добавлены не все чанки в границах")

// ErrBuilderExhausted возвращается при попытке использовать ZoneBuilder
// после успешного Build.
var ErrBuilderExhausted = errors.New("билдер исчерпан: зона уже построена")

// Zone — зона мира: прямоугольный (box) набор чанков с фиксированными
// границами. Каждая ячейка сетки в [min, max] содержит ровно один чанк;
// форма зоны неизменна после постройки — чанки внутри изменяемы, но
// множество присутствующих позиций не меняется.
//
// Чанки лежат в плотном массиве в фиксированном порядке обхода, поэтому
// поиск чанка — арифметика индексов без хеширования.
//
// С помощью нескольких зон можно строить миры с блоками, которые не
// выровнены по осям или эффективно перемещаются целиком (корабль).
type Zone struct {
	chunks []*Chunk
	min    vec.ChunkPos
	max    vec.ChunkPos
}

// Chunk возвращает чанк в указанной позиции, либо nil вне границ.
// Возвращённый чанк изменяем; владение остаётся у зоны.
func (z *Zone) Chunk(pos vec.ChunkPos) *Chunk {
	index, ok := z.chunkIndex(pos)
	if !ok {
		return nil
	}
	return z.chunks[index]
}

// Block возвращает блок в мировой позиции. Второй результат false,
// если позиция вне границ зоны.
func (z *Zone) Block(pos vec.BlockPos) (block.ID, bool) {
	chunk := z.Chunk(pos.Chunk())
	if chunk == nil {
		return block.ID{}, false
	}
	return chunk.GetLocal(pos), true
}

// SetBlock устанавливает блок в мировой позиции.
// Возвращает BlockOutOfBoundsError, если позиция вне границ зоны.
func (z *Zone) SetBlock(pos vec.BlockPos, b block.ID) error {
	chunk := z.Chunk(pos.Chunk())
	if chunk == nil {
		return &BlockOutOfBoundsError{Pos: pos}
	}
	chunk.SetLocal(pos, b)
	return nil
}

// XDim возвращает размер зоны в чанках по оси X.
func (z *Zone) XDim() int { return z.max.X - z.min.X + 1 }

// YDim возвращает размер зоны в чанках по оси Y.
func (z *Zone) YDim() int { return z.max.Y - z.min.Y + 1 }

// ZDim возвращает размер зоны в чанках по оси Z.
func (z *Zone) ZDim() int { return z.max.Z - z.min.Z + 1 }

// Min возвращает минимальный угол зоны в координатах чанков.
func (z *Zone) Min() vec.ChunkPos { return z.min }

// Max возвращает максимальный угол зоны в координатах чанков.
func (z *Zone) Max() vec.ChunkPos { return z.max }

// ForEachChunk вызывает fn для каждого чанка зоны в детерминированном
// порядке (X внешний цикл, Y средний, Z внутренний).
func (z *Zone) ForEachChunk(fn func(pos vec.ChunkPos, chunk *Chunk)) {
	i := 0
	for x := z.min.X; x <= z.max.X; x++ {
		for y := z.min.Y; y <= z.max.Y; y++ {
			for zc := z.min.Z; zc <= z.max.Z; zc++ {
				fn(vec.ChunkPos{X: x, Y: y, Z: zc}, z.chunks[i])
				i++
			}
		}
	}
}

// chunkIndex вычисляет линейный индекс чанка в плотном массиве.
// Порядок row-major по (x, y, z) относительно min — он обязан совпадать
// с порядком укладки в Build.
func (z *Zone) chunkIndex(pos vec.ChunkPos) (int, bool) {
	if pos.X < z.min.X || pos.X > z.max.X ||
		pos.Y < z.min.Y || pos.Y > z.max.Y ||
		pos.Z < z.min.Z || pos.Z > z.max.Z {
		return 0, false
	}

	xdiff := pos.X - z.min.X
	ydiff := pos.Y - z.min.Y
	zdiff := pos.Z - z.min.Z
	return xdiff*z.YDim()*z.ZDim() + ydiff*z.ZDim() + zdiff, true
}

// ZoneBuilder накапливает чанки и строит Zone только когда заполнена
// каждая позиция в границах. Генератор мира обязан заполнить все позиции
// до того, как зона будет готова к игре.
type ZoneBuilder struct {
	min    vec.ChunkPos
	max    vec.ChunkPos
	chunks map[vec.ChunkPos]*Chunk
}

// NewZoneBuilder создаёт билдер зоны с указанными границами.
// Произвольный порядок min/max нормализуется: компоненты переставляются
// независимо, так что min <= max по каждой оси.
func NewZoneBuilder(min, max vec.ChunkPos) *ZoneBuilder {
	normMin := vec.ChunkPos{X: minInt(min.X, max.X), Y: minInt(min.Y, max.Y), Z: minInt(min.Z, max.Z)}
	normMax := vec.ChunkPos{X: maxInt(min.X, max.X), Y: maxInt(min.Y, max.Y), Z: maxInt(min.Z, max.Z)}

	return &ZoneBuilder{
		min:    normMin,
		max:    normMax,
		chunks: make(map[vec.ChunkPos]*Chunk),
	}
}

// AddChunk добавляет чанк (перезаписывая существующий в той же позиции).
// Возвращает ChunkOutOfBoundsError, если позиция вне границ зоны, и
// ErrBuilderExhausted после успешного Build.
func (b *ZoneBuilder) AddChunk(pos vec.ChunkPos, chunk *Chunk) error {
	if b.chunks == nil {
		return ErrBuilderExhausted
	}
	if pos.X < b.min.X || pos.X > b.max.X ||
		pos.Y < b.min.Y || pos.Y > b.max.Y ||
		pos.Z < b.min.Z || pos.Z > b.max.Z {
		return &ChunkOutOfBoundsError{Pos: pos, Min: b.min, Max: b.max}
	}

	b.chunks[pos] = chunk
	return nil
}

// IsComplete сообщает, добавлены ли все чанки в границах.
// Если true, Build гарантированно успешен.
func (b *ZoneBuilder) IsComplete() bool {
	return b.NumChunks() == b.NeededChunks()
}

// NeededChunks возвращает количество чанков, необходимое для полной зоны.
func (b *ZoneBuilder) NeededChunks() int {
	return (b.max.X - b.min.X + 1) * (b.max.Y - b.min.Y + 1) * (b.max.Z - b.min.Z + 1)
}

// NumChunks возвращает количество уже добавленных чанков.
func (b *ZoneBuilder) NumChunks() int {
	return len(b.chunks)
}

// Min возвращает минимальный угол строящейся зоны.
func (b *ZoneBuilder) Min() vec.ChunkPos { return b.min }

// Max возвращает максимальный угол строящейся зоны.
func (b *ZoneBuilder) Max() vec.ChunkPos { return b.max }

// Build строит Zone. Возвращает ErrZoneIncomplete, если заполнены не все
// позиции; билдер при этом не изменяется и пригоден для повторной попытки.
// После успешной постройки билдер исчерпан.
func (b *ZoneBuilder) Build() (*Zone, error) {
	if !b.IsComplete() {
		return nil, ErrZoneIncomplete
	}

	// Укладываем чанки в том же порядке, в котором chunkIndex их ищет.
	chunks := make([]*Chunk, 0, b.NumChunks())
	for x := b.min.X; x <= b.max.X; x++ {
		for y := b.min.Y; y <= b.max.Y; y++ {
			for z := b.min.Z; z <= b.max.Z; z++ {
				chunks = append(chunks, b.chunks[vec.ChunkPos{X: x, Y: y, Z: z}])
			}
		}
	}

	zone := &Zone{min: b.min, max: b.max, chunks: chunks}
	b.chunks = nil
	return zone, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
