package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleBitStorageGetSet(t *testing.T) {
	for _, bits := range []int{1, 4, 5, 9, 12, 32} {
		s := NewSimpleBitStorage(bits, 256)
		max := uint32(1<<uint(bits) - 1)
		for i := 0; i < 256; i++ {
			s.Set(i, uint32(i*7)&max)
		}
		for i := 0; i < 256; i++ {
			require.Equal(t, uint32(i*7)&max, s.Get(i), "bits=%d index=%d", bits, i)
		}
		perLong := 64 / bits
		assert.Len(t, s.Raw(), (256+perLong-1)/perLong)
	}
}

func TestSimpleBitStorageNoSpanning(t *testing.T) {
	// 12 бит: 5 значений на слово, старшие 4 бита не используются
	s := NewSimpleBitStorage(12, 256)
	assert.Len(t, s.Raw(), 52)
	s.Set(4, 0xFFF)
	s.Set(5, 0xABC)
	raw := s.Raw()
	assert.Equal(t, int64(0xFFF)<<48, raw[0])
	assert.Equal(t, int64(0xABC), raw[1])
}

func TestSimpleBitStorageMismatchDoesNotMutate(t *testing.T) {
	dst := NewSimpleBitStorage(12, 256)
	dst.Set(0, 42)
	before := dst.Raw()

	tests := []struct {
		name string
		src  *SimpleBitStorage
	}{
		{"ширина", NewSimpleBitStorage(9, 256)},
		{"длина", NewSimpleBitStorage(12, 255)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.src.Set(0, 7)
			err := dst.CopyFrom(tt.src)
			assert.ErrorIs(t, err, ErrStorageMismatch)
			assert.Equal(t, before, dst.Raw())
		})
	}

	err := dst.LoadRaw(12, 256, make([]int64, 10))
	assert.ErrorIs(t, err, ErrStorageMismatch)
	assert.Equal(t, before, dst.Raw())

	src := NewSimpleBitStorage(12, 256)
	src.Set(255, 4000)
	require.NoError(t, dst.CopyFrom(src))
	assert.Equal(t, uint32(4000), dst.Get(255))
	assert.Equal(t, uint32(0), dst.Get(0))
}

func TestSimpleBitStorageRepack(t *testing.T) {
	s := NewSimpleBitStorage(12, 16)
	for i := 0; i < 16; i++ {
		s.Set(i, uint32(100+i))
	}
	out := s.Repack(9, func(v uint32) uint32 { return v - 100 })
	assert.Equal(t, 9, out.Bits())
	for i := 0; i < 16; i++ {
		assert.Equal(t, uint32(i), out.Get(i))
	}
}

func TestSimpleBitStorageIndexPanics(t *testing.T) {
	s := NewSimpleBitStorage(4, 16)
	assert.Panics(t, func() { s.Get(16) })
	assert.Panics(t, func() { s.Set(-1, 0) })
	assert.Panics(t, func() { NewSimpleBitStorage(0, 16) })
}
