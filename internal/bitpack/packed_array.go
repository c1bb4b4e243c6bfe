// Package bitpack содержит компактный массив целых чисел с упаковкой по битам.
package bitpack

import "fmt"

// PackedArray хранит length беззнаковых значений фиксированной битовой
// ширины, плотно упакованных в 64-битные слова. Значение никогда не
// пересекает границу слова: в слово помещается floor(64/bitsPerValue)
// значений, старшие биты сверх этого — неиспользуемый заполнитель.
//
// Массив создаётся с фиксированной длиной; изменяется только битовая
// ширина (через Resized, возвращающий новый массив).
type PackedArray struct {
	length       int
	bitsPerValue int
	words        []uint64
}

// MaxBitsPerValue ограничивает битовую ширину значений. Значения — это
// индексы палитры, 32 бита хватает с огромным запасом, а ограничение
// сохраняет корректность масочной арифметики (1<<64 не определён).
const MaxBitsPerValue = 32

// New создаёт PackedArray указанной длины и битовой ширины,
// заполненный нулями.
//
// Паникует, если bitsPerValue вне диапазона [1, MaxBitsPerValue] —
// это ошибка программиста, а не условие времени выполнения.
func New(length, bitsPerValue int) *PackedArray {
	if bitsPerValue < 1 || bitsPerValue > MaxBitsPerValue {
		panic(fmt.Sprintf("bitpack: недопустимая битовая ширина %d", bitsPerValue))
	}
	if length < 0 {
		panic(fmt.Sprintf("bitpack: отрицательная длина %d", length))
	}

	a := &PackedArray{length: length, bitsPerValue: bitsPerValue}
	a.words = make([]uint64, a.neededWords())
	return a
}

// NewFromWords восстанавливает PackedArray из готового буфера слов
// (например, при десериализации чанка). Возвращает ошибку, если длина
// буфера не соответствует длине и битовой ширине массива.
func NewFromWords(length, bitsPerValue int, words []uint64) (*PackedArray, error) {
	if bitsPerValue < 1 || bitsPerValue > MaxBitsPerValue {
		return nil, fmt.Errorf("bitpack: недопустимая битовая ширина %d", bitsPerValue)
	}
	a := &PackedArray{length: length, bitsPerValue: bitsPerValue}
	if len(words) != a.neededWords() {
		return nil, fmt.Errorf("bitpack: ожидалось %d слов, получено %d", a.neededWords(), len(words))
	}
	a.words = words
	return a, nil
}

// Get возвращает значение по индексу. Второй результат false, если
// индекс за пределами массива.
func (a *PackedArray) Get(index int) (uint64, bool) {
	if index < 0 || index >= a.length {
		return 0, false
	}

	wordIndex, bitIndex := a.indexes(index)
	return (a.words[wordIndex] >> bitIndex) & a.mask(), true
}

// Set записывает значение по индексу.
//
// Паникует, если index за пределами массива или value не помещается
// в битовую ширину — оба случая указывают на ошибку вызывающего кода.
func (a *PackedArray) Set(index int, value uint64) {
	if index < 0 || index >= a.length {
		panic(fmt.Sprintf("bitpack: индекс %d вне диапазона [0, %d)", index, a.length))
	}
	mask := a.mask()
	if value > mask {
		panic(fmt.Sprintf("bitpack: значение %d превышает максимум %d", value, mask))
	}

	wordIndex, bitIndex := a.indexes(index)
	a.words[wordIndex] &^= mask << bitIndex
	a.words[wordIndex] |= value << bitIndex
}

// Resized строит новый массив той же длины с другой битовой шириной,
// копируя все значения. Исходный массив не изменяется. Сужение ширины
// допустимо только если все значения помещаются в новую ширину
// (иначе Set паникует); в этой системе ширина только растёт.
func (a *PackedArray) Resized(newBitsPerValue int) *PackedArray {
	resized := New(a.length, newBitsPerValue)
	for i := 0; i < a.length; i++ {
		v, _ := a.Get(i)
		resized.Set(i, v)
	}
	return resized
}

// Clone возвращает глубокую копию массива.
func (a *PackedArray) Clone() *PackedArray {
	words := make([]uint64, len(a.words))
	copy(words, a.words)
	return &PackedArray{length: a.length, bitsPerValue: a.bitsPerValue, words: words}
}

// Len возвращает количество значений в массиве.
func (a *PackedArray) Len() int {
	return a.length
}

// BitsPerValue возвращает битовую ширину значений.
func (a *PackedArray) BitsPerValue() int {
	return a.bitsPerValue
}

// MaxValue возвращает максимальное представимое значение.
func (a *PackedArray) MaxValue() uint64 {
	return a.mask()
}

// Words возвращает внутренний буфер слов для сериализации.
// Вызывающий код не должен изменять его.
func (a *PackedArray) Words() []uint64 {
	return a.words
}

func (a *PackedArray) mask() uint64 {
	return (1 << a.bitsPerValue) - 1
}

func (a *PackedArray) valuesPerWord() int {
	return 64 / a.bitsPerValue
}

func (a *PackedArray) neededWords() int {
	per := a.valuesPerWord()
	return (a.length + per - 1) / per
}

func (a *PackedArray) indexes(index int) (wordIndex, bitIndex int) {
	per := a.valuesPerWord()
	return index / per, (index % per) * a.bitsPerValue
}
