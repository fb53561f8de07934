package protocol

import (
	"bytes"
	"fmt"
	"io"
)

// MaxFrameLength наибольшая длина кадра, помещающаяся в 3-байтовый VarInt
const MaxFrameLength = 2097151

// Frame сырой пакет: id и необработанное тело
type Frame struct {
	ID      int32
	Payload []byte
}

// FrameReader источник кадров (обычно bufio.Reader поверх соединения)
type FrameReader interface {
	io.Reader
	io.ByteReader
}

// ReadFrame читает один кадр. Если поток закрылся до начала кадра, возвращается io.EOF.
func ReadFrame(r FrameReader) (Frame, error) {
	length, err := ReadVarInt(r)
	if err != nil {
		return Frame{}, err
	}
	if length < 1 || length > MaxFrameLength {
		return Frame{}, fmt.Errorf("%w: %d", ErrFrameLength, length)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return Frame{}, err
	}

	br := bytes.NewReader(body)
	id, err := ReadVarInt(br)
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return Frame{}, fmt.Errorf("packet id: %w", err)
	}
	return Frame{ID: id, Payload: body[len(body)-br.Len():]}, nil
}

// EncodeFrame собирает кадр: VarInt(длина id + длина тела), id, тело
func EncodeFrame(id int32, payload []byte) []byte {
	idSize := VarIntSize(id)
	total := int32(idSize + len(payload))
	buf := make([]byte, 0, VarIntSize(total)+int(total))
	buf = AppendVarInt(buf, total)
	buf = AppendVarInt(buf, id)
	return append(buf, payload...)
}

// WriteFrame пишет кадр одной операцией записи
func WriteFrame(w io.Writer, id int32, payload []byte) error {
	if VarIntSize(id)+len(payload) > MaxFrameLength {
		return fmt.Errorf("%w: %d", ErrFrameLength, VarIntSize(id)+len(payload))
	}
	_, err := w.Write(EncodeFrame(id, payload))
	return err
}
