package protocol

import "fmt"

// Packet общая часть всех пакетов: id и состояние, в котором он допустим
type Packet interface {
	PacketID() int32
	State() State
}

// Encoder пакет, который умеет записывать свое тело
type Encoder interface {
	Packet
	Encode(w *Writer) error
}

// Decoder пакет, который умеет читать свое тело
type Decoder interface {
	Packet
	Decode(r *Reader) error
}

// Marshal кодирует пакет в готовый кадр
func Marshal(p Encoder) ([]byte, error) {
	w := NewWriter()
	if err := p.Encode(w); err != nil {
		return nil, fmt.Errorf("encode %T: %w", p, err)
	}
	if VarIntSize(p.PacketID())+w.Len() > MaxFrameLength {
		return nil, fmt.Errorf("%w: %T is %d bytes", ErrFrameLength, p, w.Len())
	}
	return EncodeFrame(p.PacketID(), w.Bytes()), nil
}

// Unmarshal читает тело кадра в заранее выбранный пакет (используется клиентской стороной и тестами)
func Unmarshal(f Frame, p Decoder) error {
	if f.ID != p.PacketID() {
		return fmt.Errorf("%w: expected id 0x%02X, got 0x%02X", ErrMalformedPacket, p.PacketID(), f.ID)
	}
	return decodeBody(f.Payload, p)
}

func decodeBody(payload []byte, p Decoder) error {
	r := NewReader(payload)
	if err := p.Decode(r); err != nil {
		return fmt.Errorf("%w: %T: %w", ErrMalformedPacket, p, err)
	}
	if r.Len() > 0 {
		return fmt.Errorf("%w: %T: %d trailing bytes", ErrMalformedPacket, p, r.Len())
	}
	return nil
}
