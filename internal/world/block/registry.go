package block

import (
	"fmt"
	"sync"
)

// Definition — декларативное описание вида блока. Реестр строится из
// таблицы определений; отдельных типов-реализаций на каждый блок нет.
type Definition struct {
	Kind        Kind
	Slug        string
	DisplayName string
	Props       []Property // Упорядоченный список свойств (может быть пустым)
	Passable    bool       // Сущности проходят сквозь блок (воздух, жидкости)
}

// Registry — реестр видов блоков. Создаётся один раз при старте процесса
// и после этого неизменяем, поэтому безопасен для чтения из любых горутин
// без синхронизации. Передаётся по ссылке в код, которому нужно
// разрешение kind↔slug или распаковка состояний.
type Registry struct {
	defs    []Definition
	packers []*PropertyPacker
	bySlug  map[string]Kind
}

// NewRegistry строит реестр из таблицы определений.
// Определения должны идти строго в порядке констант Kind (0, 1, 2, ...):
// последовательность фиксирует wire-идентификаторы.
func NewRegistry(defs []Definition) (*Registry, error) {
	r := &Registry{
		defs:    defs,
		packers: make([]*PropertyPacker, len(defs)),
		bySlug:  make(map[string]Kind, len(defs)),
	}

	for i, def := range defs {
		if def.Kind != Kind(i) {
			return nil, fmt.Errorf("block: определение %q имеет kind %d, ожидался %d (порядок регистрации фиксирован)", def.Slug, def.Kind, i)
		}
		if _, dup := r.bySlug[def.Slug]; dup {
			return nil, fmt.Errorf("block: повторный slug %q", def.Slug)
		}
		r.bySlug[def.Slug] = def.Kind
		r.packers[i] = NewPacker(def.Props)
	}

	return r, nil
}

// defaultDefs — таблица стандартных блоков. Порядок строк — порядок
// констант Kind.
var defaultDefs = []Definition{
	{Kind: KindAir, Slug: "air", DisplayName: "Air", Passable: true},
	{Kind: KindDirt, Slug: "dirt", DisplayName: "Dirt"},
	{Kind: KindStone, Slug: "stone", DisplayName: "Stone"},
	{Kind: KindGrass, Slug: "grass", DisplayName: "Grass"},
	{Kind: KindMelium, Slug: "melium", DisplayName: "Melium"},
	{Kind: KindWater, Slug: "water", DisplayName: "Water",
		Props: []Property{IntRange("level", 0, 7)}, Passable: true},
	{Kind: KindLog, Slug: "log", DisplayName: "Log",
		Props: []Property{IntRange("axis", 0, 2)}},
	{Kind: KindLamp, Slug: "lamp", DisplayName: "Lamp",
		Props: []Property{Bool("lit")}},
}

var (
	defaultRegistry *Registry
	defaultOnce     sync.Once
)

// DefaultRegistry возвращает реестр стандартных блоков.
// Строится лениво при первом обращении и далее неизменяем.
func DefaultRegistry() *Registry {
	defaultOnce.Do(func() {
		r, err := NewRegistry(defaultDefs)
		if err != nil {
			// Таблица статична; ошибка здесь — дефект сборки.
			panic(err)
		}
		defaultRegistry = r
	})
	return defaultRegistry
}

// ID возвращает идентификатор блока указанного вида в базовом состоянии
// (все свойства в первом значении).
//
// Паникует, если вид не зарегистрирован: это ошибка программиста.
func (r *Registry) ID(kind Kind) ID {
	r.mustDef(kind)
	return ID{Kind: kind}
}

// IDWith возвращает идентификатор блока с указанными индексами значений
// свойств (в порядке объявления свойств в определении).
//
// Паникует, если вид не зарегистрирован, количество значений не совпадает
// или значение вне диапазона.
func (r *Registry) IDWith(kind Kind, values ...uint32) ID {
	r.mustDef(kind)
	return ID{Kind: kind, State: r.packers[kind].Pack(values)}
}

// Unpack возвращает индексы значений свойств блока.
// Возвращает false, если вид не зарегистрирован или состояние
// недопустимо — это нормальный результат запроса, не ошибка.
func (r *Registry) Unpack(id ID) ([]uint32, bool) {
	if int(id.Kind) >= len(r.defs) {
		return nil, false
	}
	return r.packers[id.Kind].Unpack(id.State)
}

// IsValid сообщает, представляет ли id зарегистрированный вид
// с допустимым состоянием.
func (r *Registry) IsValid(id ID) bool {
	_, ok := r.Unpack(id)
	return ok
}

// Descriptor возвращает описание вида блока.
func (r *Registry) Descriptor(kind Kind) (Descriptor, bool) {
	if int(kind) >= len(r.defs) {
		return Descriptor{}, false
	}
	def := r.defs[kind]
	return Descriptor{Slug: def.Slug, DisplayName: def.DisplayName}, true
}

// KindBySlug возвращает вид блока по стабильному идентификатору.
// Используется при загрузке сохранённых миров, где числовые kind
// могут не совпадать с текущим реестром.
func (r *Registry) KindBySlug(slug string) (Kind, bool) {
	kind, ok := r.bySlug[slug]
	return kind, ok
}

// Passable сообщает, проходим ли блок для сущностей.
func (r *Registry) Passable(id ID) bool {
	if int(id.Kind) >= len(r.defs) {
		return false
	}
	return r.defs[id.Kind].Passable
}

// NumKinds возвращает количество зарегистрированных видов.
func (r *Registry) NumKinds() int {
	return len(r.defs)
}

func (r *Registry) mustDef(kind Kind) {
	if int(kind) >= len(r.defs) {
		panic(fmt.Sprintf("block: вид %d не зарегистрирован в реестре", kind))
	}
}
