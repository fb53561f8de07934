package protocol

import "fmt"

// ProtocolVersion номер версии протокола, который обслуживает сервер (1.19.4)
const (
	ProtocolVersion = 762
	GameVersion     = "1.19.4"
)

// State состояние соединения; у каждого состояния своя таблица пакетов
type State int

const (
	StateHandshake State = iota
	StateStatus
	StateLogin
	StatePlay
)

func (s State) String() string {
	switch s {
	case StateHandshake:
		return "Handshake"
	case StateStatus:
		return "Status"
	case StateLogin:
		return "Login"
	case StatePlay:
		return "Play"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Значения поля NextState в рукопожатии
const (
	IntentStatus = 1
	IntentLogin  = 2
)

// Next возвращает состояние, выбранное клиентом в рукопожатии
func (h *Handshake) Next() (State, error) {
	switch h.NextState {
	case IntentStatus:
		return StateStatus, nil
	case IntentLogin:
		return StateLogin, nil
	default:
		return StateHandshake, fmt.Errorf("%w: unknown handshake intent %d", ErrMalformedPacket, h.NextState)
	}
}
