package protocol

import "errors"

var (
	// ErrVarIntTooBig VarInt не уложился в 5 байт
	ErrVarIntTooBig = errors.New("varint is too big")
	// ErrVarLongTooBig VarLong не уложился в 10 байт
	ErrVarLongTooBig = errors.New("varlong is too big")
	// ErrStringTooLong строка длиннее разрешенного для поля максимума
	ErrStringTooLong = errors.New("string exceeds maximum length")
	// ErrNegativeLength отрицательный префикс длины
	ErrNegativeLength = errors.New("negative length prefix")
	// ErrFrameLength длина кадра вне допустимого диапазона
	ErrFrameLength = errors.New("frame length out of range")
	// ErrUnhandledPacket для пары (состояние, id) нет декодера
	ErrUnhandledPacket = errors.New("unhandled packet")
	// ErrMalformedPacket декодер распознал пакет, но тело испорчено
	ErrMalformedPacket = errors.New("malformed packet")
	// ErrWrongState пакет не относится к текущему состоянию соединения
	ErrWrongState = errors.New("packet is not valid in the current state")
)
