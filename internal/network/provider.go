package network

import (
	"sync"

	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world"
	"github.com/annel0/voxel-world/internal/world/block"
)

// ZoneProvider — потокобезопасная обёртка плотной зоны для ChunkServer.
// Zone сама по себе не синхронизирована; все обращения сервера идут
// через RWMutex провайдера.
type ZoneProvider struct {
	zoneID world.ZoneID
	zone   *world.Zone
	mu     sync.RWMutex

	// onBlockChange вызывается после успешной записи блока, под
	// блокировкой записи. Используется для персистентности и
	// инвалидации кеша.
	onBlockChange func(pos vec.BlockPos, b block.ID)
}

// NewZoneProvider оборачивает главную зону мира.
func NewZoneProvider(zoneID world.ZoneID, zone *world.Zone) *ZoneProvider {
	return &ZoneProvider{zoneID: zoneID, zone: zone}
}

// OnBlockChange регистрирует обработчик записи блока.
// Вызывается до Start сервера.
func (p *ZoneProvider) OnBlockChange(fn func(pos vec.BlockPos, b block.ID)) {
	p.onBlockChange = fn
}

// Chunk возвращает копию чанка: её можно кодировать и отправлять,
// не держа блокировку и не гоняясь с параллельными записями.
func (p *ZoneProvider) Chunk(pos vec.ChunkPos) (*world.Chunk, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	chunk := p.zone.Chunk(pos)
	if chunk == nil {
		return nil, &world.ChunkOutOfBoundsError{Pos: pos, Min: p.zone.Min(), Max: p.zone.Max()}
	}
	return chunk.Clone(), nil
}

// SetBlock записывает блок в зону.
func (p *ZoneProvider) SetBlock(pos vec.BlockPos, b block.ID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.zone.SetBlock(pos, b); err != nil {
		return err
	}
	if p.onBlockChange != nil {
		p.onBlockChange(pos, b)
	}
	return nil
}

// Block читает блок зоны (для REST API).
func (p *ZoneProvider) Block(pos vec.BlockPos) (block.ID, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.zone.Block(pos)
}

// Bounds возвращает границы зоны в чанковых координатах.
func (p *ZoneProvider) Bounds() (min, max vec.ChunkPos) {
	return p.zone.Min(), p.zone.Max()
}

// ZoneName возвращает идентификатор зоны для событий и логов.
func (p *ZoneProvider) ZoneName() string {
	return p.zoneID.String()
}

// ZoneID возвращает идентификатор зоны.
func (p *ZoneProvider) ZoneID() world.ZoneID {
	return p.zoneID
}

// SaveTo сохраняет все чанки зоны через переданную функцию.
func (p *ZoneProvider) SaveTo(save func(pos vec.ChunkPos, chunk *world.Chunk) error) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var firstErr error
	p.zone.ForEachChunk(func(pos vec.ChunkPos, chunk *world.Chunk) {
		if firstErr != nil {
			return
		}
		firstErr = save(pos, chunk)
	})
	return firstErr
}
