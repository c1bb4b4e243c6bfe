package physics

import (
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world/block"
)

// BlockSource отдаёт блок по мировой позиции. Второе значение false
// означает, что блок неизвестен (чанк не загружен или позиция вне границ).
type BlockSource interface {
	Block(pos vec.BlockPos) (block.ID, bool)
}

// Probe проверяет проходимость блоков через реестр. Probe не хранит
// состояние мира и безопасен для конкурентного использования.
type Probe struct {
	source   BlockSource
	registry *block.Registry
}

// NewProbe создаёт пробу над источником блоков.
func NewProbe(source BlockSource, registry *block.Registry) *Probe {
	return &Probe{source: source, registry: registry}
}

// IsSolid сообщает, твёрдый ли блок в указанной позиции. Второе значение
// false означает, что ответить нельзя: блок неизвестен источнику.
// Вызывающий сам решает, как трактовать неизвестность (ждать загрузки,
// считать твёрдым и т.п.) — проба этого решения не принимает.
func (p *Probe) IsSolid(pos vec.BlockPos) (bool, bool) {
	id, ok := p.source.Block(pos)
	if !ok {
		return false, false
	}
	return !p.registry.Passable(id), true
}

// IsPassable — обратная к IsSolid проверка для кода движения.
func (p *Probe) IsPassable(pos vec.BlockPos) (bool, bool) {
	solid, ok := p.IsSolid(pos)
	return !solid, ok
}

// CanStand проверяет, может ли сущность высотой height блоков стоять
// в позиции pos: под ногами твёрдый блок, а весь объём тела проходим.
// false во втором значении — хотя бы один нужный блок неизвестен.
func (p *Probe) CanStand(pos vec.BlockPos, height int) (bool, bool) {
	below, ok := p.IsSolid(vec.BlockPos{X: pos.X, Y: pos.Y - 1, Z: pos.Z})
	if !ok {
		return false, false
	}
	if !below {
		return false, true
	}
	for dy := 0; dy < height; dy++ {
		passable, ok := p.IsPassable(vec.BlockPos{X: pos.X, Y: pos.Y + dy, Z: pos.Z})
		if !ok {
			return false, false
		}
		if !passable {
			return false, true
		}
	}
	return true, true
}

// SweepBox проверяет, свободен ли прямоугольный объём [min, max]
// (включительно по всем осям). Твёрдый блок — определённый ответ «занято»
// независимо от неизвестных позиций в объёме; неизвестность (false во
// втором ok) возвращается только когда в известной части твёрдых блоков
// нет. Возвращённая позиция — твёрдая либо первая неизвестная.
func (p *Probe) SweepBox(min, max vec.BlockPos) (vec.BlockPos, bool, bool) {
	var unknown vec.BlockPos
	haveUnknown := false

	for x := min.X; x <= max.X; x++ {
		for y := min.Y; y <= max.Y; y++ {
			for z := min.Z; z <= max.Z; z++ {
				pos := vec.BlockPos{X: x, Y: y, Z: z}
				solid, ok := p.IsSolid(pos)
				if !ok {
					if !haveUnknown {
						unknown, haveUnknown = pos, true
					}
					continue
				}
				if solid {
					return pos, true, true
				}
			}
		}
	}

	if haveUnknown {
		return unknown, false, false
	}
	return vec.BlockPos{}, false, true
}
