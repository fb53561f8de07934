package protocol

import (
	"github.com/google/uuid"
)

// Идентификаторы пакетов рукопожатия, статуса и логина
const (
	IDHandshake = 0x00

	IDStatusRequest  = 0x00
	IDPingRequest    = 0x01
	IDStatusResponse = 0x00
	IDPongResponse   = 0x01

	IDLoginStart      = 0x00
	IDLoginDisconnect = 0x00
	IDLoginSuccess    = 0x02
)

// Handshake первый пакет соединения
type Handshake struct {
	ProtocolVersion int32
	ServerAddress   string
	ServerPort      uint16
	NextState       int32
}

func (*Handshake) PacketID() int32 { return IDHandshake }
func (*Handshake) State() State    { return StateHandshake }

func (p *Handshake) Decode(r *Reader) (err error) {
	if p.ProtocolVersion, err = r.ReadVarInt(); err != nil {
		return err
	}
	if p.ServerAddress, err = r.ReadString(255); err != nil {
		return err
	}
	if p.ServerPort, err = r.ReadUint16(); err != nil {
		return err
	}
	p.NextState, err = r.ReadVarInt()
	return err
}

func (p *Handshake) Encode(w *Writer) error {
	w.WriteVarInt(p.ProtocolVersion)
	if err := w.WriteString(p.ServerAddress, 255); err != nil {
		return err
	}
	w.WriteUint16(p.ServerPort)
	w.WriteVarInt(p.NextState)
	return nil
}

// StatusRequest запрос статуса сервера (пустое тело)
type StatusRequest struct{}

func (*StatusRequest) PacketID() int32        { return IDStatusRequest }
func (*StatusRequest) State() State           { return StateStatus }
func (*StatusRequest) Decode(r *Reader) error { return nil }
func (*StatusRequest) Encode(w *Writer) error { return nil }

// PingRequest пинг, сервер возвращает payload без изменений
type PingRequest struct {
	Payload int64
}

func (*PingRequest) PacketID() int32 { return IDPingRequest }
func (*PingRequest) State() State    { return StateStatus }

func (p *PingRequest) Decode(r *Reader) (err error) {
	p.Payload, err = r.ReadInt64()
	return err
}

func (p *PingRequest) Encode(w *Writer) error {
	w.WriteInt64(p.Payload)
	return nil
}

// StatusResponse JSON с описанием сервера
type StatusResponse struct {
	JSON string
}

func (*StatusResponse) PacketID() int32 { return IDStatusResponse }
func (*StatusResponse) State() State    { return StateStatus }

func (p *StatusResponse) Decode(r *Reader) (err error) {
	p.JSON, err = r.ReadString(MaxStringLength)
	return err
}

func (p *StatusResponse) Encode(w *Writer) error {
	return w.WriteString(p.JSON, MaxStringLength)
}

// PongResponse ответ на PingRequest
type PongResponse struct {
	Payload int64
}

func (*PongResponse) PacketID() int32 { return IDPongResponse }
func (*PongResponse) State() State    { return StateStatus }

func (p *PongResponse) Decode(r *Reader) (err error) {
	p.Payload, err = r.ReadInt64()
	return err
}

func (p *PongResponse) Encode(w *Writer) error {
	w.WriteInt64(p.Payload)
	return nil
}

// LoginStart клиент сообщает имя и, опционально, UUID
type LoginStart struct {
	Name    string
	HasUUID bool
	UUID    uuid.UUID
}

func (*LoginStart) PacketID() int32 { return IDLoginStart }
func (*LoginStart) State() State    { return StateLogin }

func (p *LoginStart) Decode(r *Reader) (err error) {
	if p.Name, err = r.ReadString(MaxUsernameLength); err != nil {
		return err
	}
	if p.HasUUID, err = r.ReadBool(); err != nil {
		return err
	}
	if p.HasUUID {
		p.UUID, err = r.ReadUUID()
	}
	return err
}

func (p *LoginStart) Encode(w *Writer) error {
	if err := w.WriteString(p.Name, MaxUsernameLength); err != nil {
		return err
	}
	w.WriteBool(p.HasUUID)
	if p.HasUUID {
		w.WriteUUID(p.UUID)
	}
	return nil
}

// LoginDisconnect отказ во входе, Reason это JSON chat компонент
type LoginDisconnect struct {
	Reason string
}

func (*LoginDisconnect) PacketID() int32 { return IDLoginDisconnect }
func (*LoginDisconnect) State() State    { return StateLogin }

func (p *LoginDisconnect) Decode(r *Reader) (err error) {
	p.Reason, err = r.ReadString(MaxChatLength)
	return err
}

func (p *LoginDisconnect) Encode(w *Writer) error {
	return w.WriteString(p.Reason, MaxChatLength)
}

// Property свойство профиля игрока (например, textures)
type Property struct {
	Name      string
	Value     string
	Signature string
	Signed    bool
}

// LoginSuccess завершает логин; после отправки соединение переходит в Play
type LoginSuccess struct {
	UUID       uuid.UUID
	Username   string
	Properties []Property
}

func (*LoginSuccess) PacketID() int32 { return IDLoginSuccess }
func (*LoginSuccess) State() State    { return StateLogin }

func (p *LoginSuccess) Decode(r *Reader) (err error) {
	if p.UUID, err = r.ReadUUID(); err != nil {
		return err
	}
	if p.Username, err = r.ReadString(MaxUsernameLength); err != nil {
		return err
	}
	n, err := r.ReadVarInt()
	if err != nil {
		return err
	}
	if n < 0 {
		return ErrNegativeLength
	}
	p.Properties = nil
	for i := int32(0); i < n; i++ {
		var prop Property
		if prop.Name, err = r.ReadString(MaxStringLength); err != nil {
			return err
		}
		if prop.Value, err = r.ReadString(MaxStringLength); err != nil {
			return err
		}
		if prop.Signed, err = r.ReadBool(); err != nil {
			return err
		}
		if prop.Signed {
			if prop.Signature, err = r.ReadString(MaxStringLength); err != nil {
				return err
			}
		}
		p.Properties = append(p.Properties, prop)
	}
	return nil
}

func (p *LoginSuccess) Encode(w *Writer) error {
	w.WriteUUID(p.UUID)
	if err := w.WriteString(p.Username, MaxUsernameLength); err != nil {
		return err
	}
	w.WriteVarInt(int32(len(p.Properties)))
	for _, prop := range p.Properties {
		if err := w.WriteString(prop.Name, MaxStringLength); err != nil {
			return err
		}
		if err := w.WriteString(prop.Value, MaxStringLength); err != nil {
			return err
		}
		w.WriteBool(prop.Signed)
		if prop.Signed {
			if err := w.WriteString(prop.Signature, MaxStringLength); err != nil {
				return err
			}
		}
	}
	return nil
}
