package protocol

import "fmt"

type decoderTable map[int32]func() Decoder

// inbound таблицы декодеров входящих (serverbound) пакетов по состояниям
var inbound = map[State]decoderTable{
	StateHandshake: {
		IDHandshake: func() Decoder { return &Handshake{} },
	},
	StateStatus: {
		IDStatusRequest: func() Decoder { return &StatusRequest{} },
		IDPingRequest:   func() Decoder { return &PingRequest{} },
	},
	StateLogin: {
		IDLoginStart: func() Decoder { return &LoginStart{} },
	},
	StatePlay: {
		IDConfirmTeleportation:         func() Decoder { return &ConfirmTeleportation{} },
		IDClientInformation:            func() Decoder { return &ClientInformation{} },
		IDServerboundPluginMessage:     func() Decoder { return &PluginMessage{} },
		IDServerboundKeepAlive:         func() Decoder { return &ServerboundKeepAlive{} },
		IDSetPlayerPosition:            func() Decoder { return &SetPlayerPosition{} },
		IDSetPlayerPositionAndRotation: func() Decoder { return &SetPlayerPositionAndRotation{} },
		IDSetPlayerRotation:            func() Decoder { return &SetPlayerRotation{} },
		IDSetPlayerOnGround:            func() Decoder { return &SetPlayerOnGround{} },
		IDServerboundPlayerAbilities:   func() Decoder { return &ServerboundPlayerAbilities{} },
		IDPlayerAction:                 func() Decoder { return &PlayerAction{} },
		IDUseItemOn:                    func() Decoder { return &UseItemOn{} },
	},
}

// Decode выбирает декодер по (состоянию, id) и разбирает тело.
// Неизвестная пара дает ErrUnhandledPacket, испорченное тело дает ErrMalformedPacket.
func Decode(state State, f Frame) (Decoder, error) {
	factory, ok := inbound[state][f.ID]
	if !ok {
		return nil, fmt.Errorf("%w: state %s, id 0x%02X", ErrUnhandledPacket, state, f.ID)
	}
	p := factory()
	if err := decodeBody(f.Payload, p); err != nil {
		return nil, err
	}
	return p, nil
}

// IsHandled сообщает, зарегистрирован ли декодер для (состояния, id)
func IsHandled(state State, id int32) bool {
	_, ok := inbound[state][id]
	return ok
}
