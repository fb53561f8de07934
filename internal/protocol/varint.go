package protocol

import "io"

const (
	MaxVarIntLen  = 5
	MaxVarLongLen = 10
)

// AppendVarInt дописывает v в формате VarInt (беззнаковый LEB128 от 32-битного значения)
func AppendVarInt(buf []byte, v int32) []byte {
	ux := uint32(v)
	for {
		b := byte(ux & 0x7F)
		ux >>= 7
		if ux != 0 {
			b |= 0x80
		}
		buf = append(buf, b)
		if ux == 0 {
			return buf
		}
	}
}

// VarIntSize возвращает число байт, которое займет v
func VarIntSize(v int32) int {
	ux := uint32(v)
	n := 1
	for ux >= 0x80 {
		ux >>= 7
		n++
	}
	return n
}

// ReadVarInt читает VarInt. io.EOF возвращается только если поток кончился до первого байта.
func ReadVarInt(r io.ByteReader) (int32, error) {
	var result uint32
	for i := 0; i < MaxVarIntLen; i++ {
		b, err := r.ReadByte()
		if err != nil {
			if err == io.EOF && i > 0 {
				err = io.ErrUnexpectedEOF
			}
			return 0, err
		}
		result |= uint32(b&0x7F) << (7 * i)
		if b&0x80 == 0 {
			return int32(result), nil
		}
	}
	return 0, ErrVarIntTooBig
}

// AppendVarLong дописывает v в формате VarLong
func AppendVarLong(buf []byte, v int64) []byte {
	ux := uint64(v)
	for {
		b := byte(ux & 0x7F)
		ux >>= 7
		if ux != 0 {
			b |= 0x80
		}
		buf = append(buf, b)
		if ux == 0 {
			return buf
		}
	}
}

// ReadVarLong читает VarLong
func ReadVarLong(r io.ByteReader) (int64, error) {
	var result uint64
	for i := 0; i < MaxVarLongLen; i++ {
		b, err := r.ReadByte()
		if err != nil {
			if err == io.EOF && i > 0 {
				err = io.ErrUnexpectedEOF
			}
			return 0, err
		}
		result |= uint64(b&0x7F) << (7 * i)
		if b&0x80 == 0 {
			return int64(result), nil
		}
	}
	return 0, ErrVarLongTooBig
}
