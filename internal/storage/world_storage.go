package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/dgraph-io/badger/v3"
	"github.com/klauspost/compress/zstd"

	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world"
	"github.com/annel0/voxel-world/internal/world/block"
)

// WorldStorage — персистентное хранилище чанков поверх BadgerDB.
// Чанки хранятся в бинарном виде (world.EncodeChunk) со сжатием zstd,
// под ключами "chunk:<zone>:<x>:<y>:<z>".
type WorldStorage struct {
	db      *badger.DB
	dbPath  string
	encoder *zstd.Encoder
	decoder *zstd.Decoder
	mutex   sync.RWMutex
	isReady bool

	// remap применяется к палитре каждого загруженного чанка.
	// Сырые идентификаторы блоков не стабильны между версиями реестра;
	// при изменении реестра здесь выполняется миграция по slug.
	remap func(b block.ID) block.ID
}

// SetBlockRemap задаёт миграцию идентификаторов блоков при загрузке.
// Вызывается до первого LoadChunk. fn обязана сохранять различимость
// состояний (см. Chunk.RemapPalette).
func (ws *WorldStorage) SetBlockRemap(fn func(b block.ID) block.ID) {
	ws.mutex.Lock()
	defer ws.mutex.Unlock()
	ws.remap = fn
}

// NewWorldStorage создает новое хранилище мира
func NewWorldStorage(dataPath string) (*WorldStorage, error) {
	return newWorldStorage(dataPath, false)
}

// NewInMemoryStorage создаёт хранилище без файлов на диске, для тестов.
func NewInMemoryStorage() (*WorldStorage, error) {
	return newWorldStorage("", true)
}

func newWorldStorage(dataPath string, inMemory bool) (*WorldStorage, error) {
	var opts badger.Options
	dbPath := ""
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		dbPath = filepath.Join(dataPath, "world")
		opts = badger.DefaultOptions(dbPath)
	}
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось создать zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось создать zstd decoder: %w", err)
	}

	return &WorldStorage{
		db:      db,
		dbPath:  dbPath,
		encoder: encoder,
		decoder: decoder,
		isReady: true,
	}, nil
}

// Close закрывает хранилище данных
func (ws *WorldStorage) Close() error {
	ws.mutex.Lock()
	defer ws.mutex.Unlock()

	if !ws.isReady {
		return nil
	}

	ws.isReady = false
	ws.encoder.Close()
	ws.decoder.Close()
	return ws.db.Close()
}

func chunkKey(zone world.ZoneID, pos vec.ChunkPos) []byte {
	return []byte(fmt.Sprintf("chunk:%s:%d:%d:%d", zone.String(), pos.X, pos.Y, pos.Z))
}

// SaveChunk сохраняет чанк зоны под его координатами.
func (ws *WorldStorage) SaveChunk(zone world.ZoneID, pos vec.ChunkPos, chunk *world.Chunk) error {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	if !ws.isReady {
		return fmt.Errorf("хранилище не готово")
	}

	encoded := world.EncodeChunk(chunk)
	compressed := ws.encoder.EncodeAll(encoded, nil)

	err := ws.db.Update(func(txn *badger.Txn) error {
		return txn.Set(chunkKey(zone, pos), compressed)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения чанка в BadgerDB: %w", err)
	}

	return nil
}

// LoadChunk загружает чанк зоны. Второе значение false — чанк не сохранялся.
func (ws *WorldStorage) LoadChunk(zone world.ZoneID, pos vec.ChunkPos) (*world.Chunk, bool, error) {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	if !ws.isReady {
		return nil, false, fmt.Errorf("хранилище не готово")
	}

	var compressed []byte
	err := ws.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(chunkKey(zone, pos))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			compressed = append([]byte{}, val...)
			return nil
		})
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}

	encoded, err := ws.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, false, fmt.Errorf("ошибка распаковки чанка: %w", err)
	}

	chunk, err := world.DecodeChunk(encoded)
	if err != nil {
		return nil, false, fmt.Errorf("ошибка декодирования чанка: %w", err)
	}

	if ws.remap != nil {
		chunk.RemapPalette(ws.remap)
	}
	return chunk, true, nil
}

// DeleteChunk удаляет сохранённый чанк. Отсутствие ключа не считается ошибкой.
func (ws *WorldStorage) DeleteChunk(zone world.ZoneID, pos vec.ChunkPos) error {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	if !ws.isReady {
		return fmt.Errorf("хранилище не готово")
	}

	return ws.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(chunkKey(zone, pos))
	})
}

// SaveZone сохраняет все чанки плотной зоны.
func (ws *WorldStorage) SaveZone(id world.ZoneID, zone *world.Zone) error {
	var firstErr error
	zone.ForEachChunk(func(pos vec.ChunkPos, chunk *world.Chunk) {
		if firstErr != nil {
			return
		}
		if err := ws.SaveChunk(id, pos, chunk); err != nil {
			firstErr = fmt.Errorf("чанк %v: %w", pos, err)
		}
	})
	return firstErr
}

// LoadZone собирает плотную зону из сохранённых чанков. Отсутствующие
// чанки не дозаполняются: если зона сохранена не целиком, вернётся
// world.ErrZoneIncomplete.
func (ws *WorldStorage) LoadZone(id world.ZoneID, min, max vec.ChunkPos) (*world.Zone, error) {
	builder := world.NewZoneBuilder(min, max)
	for x := min.X; x <= max.X; x++ {
		for y := min.Y; y <= max.Y; y++ {
			for z := min.Z; z <= max.Z; z++ {
				pos := vec.ChunkPos{X: x, Y: y, Z: z}
				chunk, found, err := ws.LoadChunk(id, pos)
				if err != nil {
					return nil, err
				}
				if !found {
					continue
				}
				if err := builder.AddChunk(pos, chunk); err != nil {
					return nil, err
				}
			}
		}
	}
	return builder.Build()
}

var mainZoneKey = []byte("meta:main_zone")

// SaveMainZoneID запоминает идентификатор главной зоны. Без него после
// перезапуска нельзя восстановить ключи чанков главной зоны.
func (ws *WorldStorage) SaveMainZoneID(id world.ZoneID) error {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	if !ws.isReady {
		return fmt.Errorf("хранилище не готово")
	}

	return ws.db.Update(func(txn *badger.Txn) error {
		return txn.Set(mainZoneKey, []byte(id.String()))
	})
}

// LoadMainZoneID возвращает сохранённый идентификатор главной зоны.
// Второе значение false — мир ещё не сохранялся.
func (ws *WorldStorage) LoadMainZoneID() (world.ZoneID, bool, error) {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	if !ws.isReady {
		return world.ZoneID{}, false, fmt.Errorf("хранилище не готово")
	}

	var raw []byte
	err := ws.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(mainZoneKey)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			raw = append([]byte{}, val...)
			return nil
		})
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return world.ZoneID{}, false, nil
	}
	if err != nil {
		return world.ZoneID{}, false, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}

	id, err := world.ParseZoneID(string(raw))
	if err != nil {
		return world.ZoneID{}, false, err
	}
	return id, true, nil
}

// SaveSparseZone сохраняет все загруженные чанки разреженной зоны.
func (ws *WorldStorage) SaveSparseZone(id world.ZoneID, zone *world.SparseZone) error {
	var firstErr error
	zone.ForEachChunk(func(pos vec.ChunkPos, chunk *world.Chunk) {
		if firstErr != nil {
			return
		}
		if err := ws.SaveChunk(id, pos, chunk); err != nil {
			firstErr = fmt.Errorf("чанк %v: %w", pos, err)
		}
	})
	return firstErr
}
