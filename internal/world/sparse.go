package world

import (
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world/block"
)

// SparseZone — «разреженная» зона: динамическое, возможно несвязное
// множество чанков без фиксированных границ. Тот же контракт чтения и
// записи блоков, что у Zone, но на хеш-таблице.
//
// Используется клиентом: он знает только те чанки, которые сервер уже
// прислал. Сервер держит целую зону и использует Zone — арифметический
// поиск чуть эффективнее.
type SparseZone struct {
	chunks map[vec.ChunkPos]*Chunk
}

// NewSparseZone создаёт зону без чанков.
func NewSparseZone() *SparseZone {
	return &SparseZone{chunks: make(map[vec.ChunkPos]*Chunk)}
}

// Chunk возвращает чанк в указанной позиции, либо nil, если чанк
// не загружен.
func (s *SparseZone) Chunk(pos vec.ChunkPos) *Chunk {
	return s.chunks[pos]
}

// Insert добавляет чанк. Существующий чанк в той же позиции заменяется
// целиком (полная перезапись, не слияние).
func (s *SparseZone) Insert(pos vec.ChunkPos, chunk *Chunk) {
	s.chunks[pos] = chunk
}

// Remove удаляет и возвращает чанк. Возвращает nil, если чанка
// в этой позиции не было.
func (s *SparseZone) Remove(pos vec.ChunkPos) *Chunk {
	chunk, ok := s.chunks[pos]
	if !ok {
		return nil
	}
	delete(s.chunks, pos)
	return chunk
}

// Len возвращает количество загруженных чанков.
func (s *SparseZone) Len() int {
	return len(s.chunks)
}

// ForEachChunk вызывает fn для каждого загруженного чанка.
// Порядок обхода не определён.
func (s *SparseZone) ForEachChunk(fn func(pos vec.ChunkPos, chunk *Chunk)) {
	for pos, chunk := range s.chunks {
		fn(pos, chunk)
	}
}

// Block возвращает блок в мировой позиции. Второй результат false, если
// содержащий чанк не загружен — та же семантика, что выход за границы
// Zone, только причина «ещё не прислан», а не «структурно исключён».
func (s *SparseZone) Block(pos vec.BlockPos) (block.ID, bool) {
	chunk := s.Chunk(pos.Chunk())
	if chunk == nil {
		return block.ID{}, false
	}
	return chunk.GetLocal(pos), true
}

// SetBlock устанавливает блок в мировой позиции.
// Возвращает BlockOutOfBoundsError, если содержащий чанк не загружен.
func (s *SparseZone) SetBlock(pos vec.BlockPos, b block.ID) error {
	chunk := s.Chunk(pos.Chunk())
	if chunk == nil {
		return &BlockOutOfBoundsError{Pos: pos}
	}
	chunk.SetLocal(pos, b)
	return nil
}
