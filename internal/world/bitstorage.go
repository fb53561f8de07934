package world

import (
	"errors"
	"fmt"
)

// ErrStorageMismatch ширина, длина или число слов хранилища не совпадают
var ErrStorageMismatch = errors.New("bit storage mismatch")

// SimpleBitStorage массив беззнаковых значений фиксированной ширины, упакованный в 64-битные слова.
// Значения не переходят границу слова: в слове помещается 64/bits значений, старшие биты
// слова могут оставаться неиспользованными.
type SimpleBitStorage struct {
	bits          int
	size          int
	valuesPerLong int
	mask          uint64
	data          []int64
}

// NewSimpleBitStorage создает хранилище из size значений по bits бит (1..32)
func NewSimpleBitStorage(bits, size int) *SimpleBitStorage {
	if bits < 1 || bits > 32 {
		panic(fmt.Sprintf("bit storage: недопустимая ширина %d", bits))
	}
	if size < 0 {
		panic(fmt.Sprintf("bit storage: недопустимая длина %d", size))
	}
	valuesPerLong := 64 / bits
	return &SimpleBitStorage{
		bits:          bits,
		size:          size,
		valuesPerLong: valuesPerLong,
		mask:          1<<uint(bits) - 1,
		data:          make([]int64, (size+valuesPerLong-1)/valuesPerLong),
	}
}

// Bits ширина значения в битах
func (s *SimpleBitStorage) Bits() int { return s.bits }

// Size число значений
func (s *SimpleBitStorage) Size() int { return s.size }

// Raw возвращает копию слов хранилища
func (s *SimpleBitStorage) Raw() []int64 {
	return append([]int64(nil), s.data...)
}

func (s *SimpleBitStorage) locate(index int) (word int, shift uint) {
	if index < 0 || index >= s.size {
		panic(fmt.Sprintf("bit storage: индекс %d вне [0, %d)", index, s.size))
	}
	word = index / s.valuesPerLong
	shift = uint((index % s.valuesPerLong) * s.bits)
	return word, shift
}

// Get возвращает значение по индексу. Индекс вне диапазона приводит к панике, как у среза.
func (s *SimpleBitStorage) Get(index int) uint32 {
	word, shift := s.locate(index)
	return uint32(uint64(s.data[word]) >> shift & s.mask)
}

// Set записывает значение; лишние старшие биты отбрасываются
func (s *SimpleBitStorage) Set(index int, value uint32) {
	word, shift := s.locate(index)
	w := uint64(s.data[word])
	w &^= s.mask << shift
	w |= (uint64(value) & s.mask) << shift
	s.data[word] = int64(w)
}

// CopyFrom копирует содержимое другого хранилища той же ширины и длины.
// При несовпадении возвращает ErrStorageMismatch и ничего не меняет.
func (s *SimpleBitStorage) CopyFrom(other *SimpleBitStorage) error {
	return s.LoadRaw(other.bits, other.size, other.data)
}

// LoadRaw загружает слова, снятые с хранилища ширины bits и длины size
func (s *SimpleBitStorage) LoadRaw(bits, size int, words []int64) error {
	if bits != s.bits || size != s.size {
		return fmt.Errorf("%w: ожидалось %d бит x %d, получено %d бит x %d", ErrStorageMismatch, s.bits, s.size, bits, size)
	}
	if len(words) != len(s.data) {
		return fmt.Errorf("%w: ожидалось %d слов, получено %d", ErrStorageMismatch, len(s.data), len(words))
	}
	copy(s.data, words)
	return nil
}

// Repack возвращает новое хранилище другой ширины с теми же значениями (через mapper, если задан)
func (s *SimpleBitStorage) Repack(bits int, mapper func(uint32) uint32) *SimpleBitStorage {
	out := NewSimpleBitStorage(bits, s.size)
	for i := 0; i < s.size; i++ {
		v := s.Get(i)
		if mapper != nil {
			v = mapper(v)
		}
		out.Set(i, v)
	}
	return out
}
