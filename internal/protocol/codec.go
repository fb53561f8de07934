package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"unicode/utf8"

	"github.com/Tnze/go-mc/nbt"
	"github.com/annel0/blockverse/internal/vec"
	"github.com/google/uuid"
)

// Максимальные длины строковых полей в символах
const (
	MaxStringLength     = 32767
	MaxIdentifierLength = 32767
	MaxUsernameLength   = 16
	MaxChatLength       = 262144
)

// RawNBT уже закодированный NBT, записывается как есть
type RawNBT []byte

// Reader читает примитивы протокола из тела пакета
type Reader struct {
	r *bytes.Reader
}

// NewReader создает Reader поверх тела пакета
func NewReader(data []byte) *Reader {
	return &Reader{r: bytes.NewReader(data)}
}

// Len возвращает число непрочитанных байт
func (r *Reader) Len() int {
	return r.r.Len()
}

// ReadByte реализует io.ByteReader
func (r *Reader) ReadByte() (byte, error) {
	b, err := r.r.ReadByte()
	if err == io.EOF {
		return 0, io.ErrUnexpectedEOF
	}
	return b, err
}

func (r *Reader) readN(n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrNegativeLength
	}
	if n > r.r.Len() {
		return nil, io.ErrUnexpectedEOF
	}
	buf := make([]byte, n)
	_, err := io.ReadFull(r.r, buf)
	return buf, err
}

func (r *Reader) ReadBool() (bool, error) {
	b, err := r.ReadByte()
	return b != 0, err
}

func (r *Reader) ReadInt8() (int8, error) {
	b, err := r.ReadByte()
	return int8(b), err
}

func (r *Reader) ReadUint8() (uint8, error) {
	return r.ReadByte()
}

func (r *Reader) ReadInt16() (int16, error) {
	v, err := r.ReadUint16()
	return int16(v), err
}

func (r *Reader) ReadUint16() (uint16, error) {
	buf, err := r.readN(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf), nil
}

func (r *Reader) ReadInt32() (int32, error) {
	buf, err := r.readN(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(buf)), nil
}

func (r *Reader) ReadInt64() (int64, error) {
	buf, err := r.readN(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(buf)), nil
}

func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.ReadInt32()
	return math.Float32frombits(uint32(v)), err
}

func (r *Reader) ReadFloat64() (float64, error) {
	v, err := r.ReadInt64()
	return math.Float64frombits(uint64(v)), err
}

func (r *Reader) ReadVarInt() (int32, error) {
	return ReadVarInt(r)
}

func (r *Reader) ReadVarLong() (int64, error) {
	return ReadVarLong(r)
}

// ReadString читает строку с префиксом длины и проверяет ограничение maxLen (в символах)
func (r *Reader) ReadString(maxLen int) (string, error) {
	n, err := r.ReadVarInt()
	if err != nil {
		return "", err
	}
	if n < 0 {
		return "", ErrNegativeLength
	}
	if int(n) > maxLen*4 {
		return "", fmt.Errorf("%w: %d bytes, max %d characters", ErrStringTooLong, n, maxLen)
	}
	buf, err := r.readN(int(n))
	if err != nil {
		return "", err
	}
	if count := utf8.RuneCount(buf); count > maxLen {
		return "", fmt.Errorf("%w: %d characters, max %d", ErrStringTooLong, count, maxLen)
	}
	return string(buf), nil
}

func (r *Reader) ReadIdentifier() (string, error) {
	return r.ReadString(MaxIdentifierLength)
}

// ReadUUID читает UUID как две big-endian половины
func (r *Reader) ReadUUID() (uuid.UUID, error) {
	var id uuid.UUID
	buf, err := r.readN(16)
	if err != nil {
		return id, err
	}
	copy(id[:], buf)
	return id, nil
}

func (r *Reader) ReadPosition() (vec.Vec3, error) {
	v, err := r.ReadInt64()
	if err != nil {
		return vec.Vec3{}, err
	}
	return UnpackPosition(v), nil
}

func (r *Reader) ReadBitSet() (BitSet, error) {
	n, err := r.ReadVarInt()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, ErrNegativeLength
	}
	if int(n)*8 > r.Len() {
		return nil, io.ErrUnexpectedEOF
	}
	set := make(BitSet, n)
	for i := range set {
		if set[i], err = r.ReadInt64(); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// ReadByteArray читает массив байт с префиксом VarInt
func (r *Reader) ReadByteArray() ([]byte, error) {
	n, err := r.ReadVarInt()
	if err != nil {
		return nil, err
	}
	return r.readN(int(n))
}

// ReadNBT декодирует NBT компаунд в v
func (r *Reader) ReadNBT(v interface{}) error {
	if _, err := nbt.NewDecoder(r.r).Decode(v); err != nil {
		return fmt.Errorf("nbt: %w", err)
	}
	return nil
}

// ReadRest возвращает все оставшиеся байты
func (r *Reader) ReadRest() []byte {
	buf, _ := r.readN(r.r.Len())
	return buf
}

// Writer накапливает тело пакета
type Writer struct {
	buf []byte
}

// NewWriter создает пустой Writer
func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 64)}
}

// Bytes возвращает накопленные байты
func (w *Writer) Bytes() []byte {
	return w.buf
}

func (w *Writer) Len() int {
	return len(w.buf)
}

// Write реализует io.Writer
func (w *Writer) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	return len(p), nil
}

func (w *Writer) WriteBool(v bool) {
	if v {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

func (w *Writer) WriteInt8(v int8) {
	w.buf = append(w.buf, byte(v))
}

func (w *Writer) WriteUint8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *Writer) WriteInt16(v int16) {
	w.buf = binary.BigEndian.AppendUint16(w.buf, uint16(v))
}

func (w *Writer) WriteUint16(v uint16) {
	w.buf = binary.BigEndian.AppendUint16(w.buf, v)
}

func (w *Writer) WriteInt32(v int32) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, uint32(v))
}

func (w *Writer) WriteInt64(v int64) {
	w.buf = binary.BigEndian.AppendUint64(w.buf, uint64(v))
}

func (w *Writer) WriteFloat32(v float32) {
	w.WriteInt32(int32(math.Float32bits(v)))
}

func (w *Writer) WriteFloat64(v float64) {
	w.WriteInt64(int64(math.Float64bits(v)))
}

func (w *Writer) WriteVarInt(v int32) {
	w.buf = AppendVarInt(w.buf, v)
}

func (w *Writer) WriteVarLong(v int64) {
	w.buf = AppendVarLong(w.buf, v)
}

// WriteString пишет строку, если она не длиннее maxLen символов
func (w *Writer) WriteString(s string, maxLen int) error {
	if count := utf8.RuneCountInString(s); count > maxLen {
		return fmt.Errorf("%w: %d characters, max %d", ErrStringTooLong, count, maxLen)
	}
	w.WriteVarInt(int32(len(s)))
	w.buf = append(w.buf, s...)
	return nil
}

func (w *Writer) WriteIdentifier(s string) error {
	return w.WriteString(s, MaxIdentifierLength)
}

func (w *Writer) WriteUUID(id uuid.UUID) {
	w.buf = append(w.buf, id[:]...)
}

func (w *Writer) WritePosition(p vec.Vec3) {
	w.WriteInt64(PackPosition(p))
}

func (w *Writer) WriteBitSet(set BitSet) {
	w.WriteVarInt(int32(len(set)))
	for _, word := range set {
		w.WriteInt64(word)
	}
}

// WriteByteArray пишет массив байт с префиксом VarInt
func (w *Writer) WriteByteArray(p []byte) {
	w.WriteVarInt(int32(len(p)))
	w.buf = append(w.buf, p...)
}

// WriteBytes пишет байты без префикса длины
func (w *Writer) WriteBytes(p []byte) {
	w.buf = append(w.buf, p...)
}

// WriteNBT кодирует v как NBT компаунд с пустым именем корня
func (w *Writer) WriteNBT(v interface{}) error {
	if raw, ok := v.(RawNBT); ok {
		w.buf = append(w.buf, raw...)
		return nil
	}
	if err := nbt.NewEncoder(w).Encode(v, ""); err != nil {
		return fmt.Errorf("nbt: %w", err)
	}
	return nil
}

// PackPosition упаковывает позицию блока: x:26 | z:26 | y:12
func PackPosition(p vec.Vec3) int64 {
	return (int64(p.X)&0x3FFFFFF)<<38 | (int64(p.Z)&0x3FFFFFF)<<12 | int64(p.Y)&0xFFF
}

// UnpackPosition распаковывает позицию блока с расширением знака
func UnpackPosition(v int64) vec.Vec3 {
	return vec.Vec3{
		X: int(v >> 38),
		Y: int(v << 52 >> 52),
		Z: int(v << 26 >> 38),
	}
}

// BitSet набор бит, бит i хранится в слове i/64 на позиции i%64
type BitSet []int64

// Set устанавливает бит i, расширяя набор при необходимости
func (b *BitSet) Set(i int) {
	word := i / 64
	for len(*b) <= word {
		*b = append(*b, 0)
	}
	(*b)[word] |= 1 << (i % 64)
}

// Get проверяет бит i
func (b BitSet) Get(i int) bool {
	word := i / 64
	if word >= len(b) {
		return false
	}
	return b[word]&(1<<(i%64)) != 0
}
