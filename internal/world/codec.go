package world

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/annel0/voxel-world/internal/bitpack"
	"github.com/annel0/voxel-world/internal/world/block"
)

// Бинарный формат чанка (little-endian):
//
//	uint16  размер палитры
//	затем на каждую запись палитры: uint32 kind, uint32 state
//	uint8   битовая ширина индексов
//	uint32  количество 64-битных слов
//	затем слова массива индексов
//
// Формат round-trip: декодированный чанк возвращает те же блоки для всех
// позиций, что и исходный. Используется сетевым протоколом и хранилищем;
// поверх при необходимости накладывается сжатие.

// EncodeChunk сериализует чанк в бинарную форму.
func EncodeChunk(c *Chunk) []byte {
	palette := c.Palette()
	indexes := c.Indexes()
	words := indexes.Words()

	buf := bytes.NewBuffer(make([]byte, 0, 2+8*len(palette)+1+4+8*len(words)))

	binary.Write(buf, binary.LittleEndian, uint16(len(palette)))
	for _, id := range palette {
		binary.Write(buf, binary.LittleEndian, uint32(id.Kind))
		binary.Write(buf, binary.LittleEndian, id.State)
	}

	binary.Write(buf, binary.LittleEndian, uint8(indexes.BitsPerValue()))
	binary.Write(buf, binary.LittleEndian, uint32(len(words)))
	binary.Write(buf, binary.LittleEndian, words)

	return buf.Bytes()
}

// DecodeChunk восстанавливает чанк из бинарной формы.
// Инварианты чанка перепроверяются: пустая палитра, дубликаты в палитре,
// слишком узкая битовая ширина или индекс за пределами палитры — ошибка
// данных, не паника.
func DecodeChunk(data []byte) (*Chunk, error) {
	buf := bytes.NewReader(data)

	var paletteLen uint16
	if err := binary.Read(buf, binary.LittleEndian, &paletteLen); err != nil {
		return nil, fmt.Errorf("чтение размера палитры: %w", err)
	}
	if paletteLen == 0 {
		return nil, fmt.Errorf("пустая палитра")
	}

	palette := make([]block.ID, paletteLen)
	seen := make(map[block.ID]struct{}, paletteLen)
	for i := range palette {
		var kind, state uint32
		if err := binary.Read(buf, binary.LittleEndian, &kind); err != nil {
			return nil, fmt.Errorf("чтение палитры: %w", err)
		}
		if err := binary.Read(buf, binary.LittleEndian, &state); err != nil {
			return nil, fmt.Errorf("чтение палитры: %w", err)
		}
		id := block.ID{Kind: block.Kind(kind), State: state}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("дубликат %v в палитре (позиция %d)", id, i)
		}
		seen[id] = struct{}{}
		palette[i] = id
	}

	var bitsPerValue uint8
	if err := binary.Read(buf, binary.LittleEndian, &bitsPerValue); err != nil {
		return nil, fmt.Errorf("чтение битовой ширины: %w", err)
	}

	var wordCount uint32
	if err := binary.Read(buf, binary.LittleEndian, &wordCount); err != nil {
		return nil, fmt.Errorf("чтение количества слов: %w", err)
	}
	// Размер аллокации диктуется данными: перед make сверяем заявленное
	// количество слов с фактическим остатком буфера.
	if int64(wordCount)*8 > int64(buf.Len()) {
		return nil, fmt.Errorf("заявлено %d слов, в буфере осталось %d байт", wordCount, buf.Len())
	}
	words := make([]uint64, wordCount)
	if err := binary.Read(buf, binary.LittleEndian, words); err != nil {
		return nil, fmt.Errorf("чтение массива индексов: %w", err)
	}

	indexes, err := bitpack.NewFromWords(ChunkVolume, int(bitsPerValue), words)
	if err != nil {
		return nil, fmt.Errorf("восстановление массива индексов: %w", err)
	}

	// Каждый индекс обязан указывать внутрь палитры.
	for i := 0; i < ChunkVolume; i++ {
		v, _ := indexes.Get(i)
		if v >= uint64(paletteLen) {
			return nil, fmt.Errorf("индекс %d в позиции %d за пределами палитры (размер %d)", v, i, paletteLen)
		}
	}

	return &Chunk{indexes: indexes, palette: palette}, nil
}
