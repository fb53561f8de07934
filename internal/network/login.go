package network

import (
	"encoding/json"
	"fmt"

	"github.com/Tnze/go-mc/chat"
	"github.com/Tnze/go-mc/offline"
	"github.com/annel0/blockverse/internal/protocol"
	"github.com/annel0/blockverse/internal/storage"
)

// ServerVersion версия в ответе Server List Ping
type ServerVersion struct {
	Name     string `json:"name"`
	Protocol int    `json:"protocol"`
}

// PlayerSample игрок в списке ответа статуса
type PlayerSample struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// PlayerList счетчики игроков в ответе статуса
type PlayerList struct {
	Max    int            `json:"max"`
	Online int            `json:"online"`
	Sample []PlayerSample `json:"sample,omitempty"`
}

// ServerListPing тело StatusResponse
type ServerListPing struct {
	Version     ServerVersion `json:"version"`
	Players     PlayerList    `json:"players"`
	Description chat.Message  `json:"description"`
}

const maxStatusSample = 12

func (c *Conn) handleHandshake(p *protocol.Handshake) error {
	next, err := p.Next()
	if err != nil {
		return err
	}
	c.setState(next)
	c.logger.Debug("%s: рукопожатие %s:%d, протокол %d, переход в %s", c, p.ServerAddress, p.ServerPort, p.ProtocolVersion, next)

	if next == protocol.StateLogin && p.ProtocolVersion != protocol.ProtocolVersion {
		reason := fmt.Sprintf("Outdated client! Please use %s", protocol.GameVersion)
		if p.ProtocolVersion > protocol.ProtocolVersion {
			reason = fmt.Sprintf("Outdated server! I'm still on %s", protocol.GameVersion)
		}
		c.Disconnect(reason)
		return errCloseConnection
	}
	return nil
}

// StatusJSON собирает ответ на запрос статуса
func (s *Server) StatusJSON() (string, error) {
	online := s.playConns()
	status := ServerListPing{
		Version: ServerVersion{Name: protocol.GameVersion, Protocol: protocol.ProtocolVersion},
		Players: PlayerList{
			Max:    s.cfg.MaxPlayers,
			Online: len(online),
		},
		Description: chat.Text(s.cfg.MOTD),
	}
	for i, c := range online {
		if i == maxStatusSample {
			break
		}
		status.Players.Sample = append(status.Players.Sample, PlayerSample{Name: c.Name(), ID: c.uuid.String()})
	}

	data, err := json.Marshal(status)
	if err != nil {
		return "", fmt.Errorf("status json: %w", err)
	}
	return string(data), nil
}

func (c *Conn) handleStatusRequest() error {
	status, err := c.server.StatusJSON()
	if err != nil {
		return err
	}
	return c.WritePacket(&protocol.StatusResponse{JSON: status})
}

func (c *Conn) handlePing(p *protocol.PingRequest) error {
	if err := c.WritePacket(&protocol.PongResponse{Payload: p.Payload}); err != nil {
		return err
	}
	c.Close()
	return errCloseConnection
}

// handleLoginStart офлайн вход: UUID выводится из имени, шифрования и сжатия нет
func (c *Conn) handleLoginStart(p *protocol.LoginStart) error {
	if !storage.ValidName(p.Name) {
		c.logger.Warn("%s: недопустимое имя %q", c, p.Name)
		c.Disconnect("Invalid username")
		return errCloseConnection
	}
	if reason := c.server.reserveName(c, p.Name); reason != "" {
		c.logger.Info("%s: вход %s отклонен: %s", c, p.Name, reason)
		c.Disconnect(reason)
		return errCloseConnection
	}
	c.uuid = offline.NameToUUID(p.Name)

	if err := c.WritePacket(&protocol.LoginSuccess{UUID: c.uuid, Username: p.Name}); err != nil {
		return err
	}
	c.setState(protocol.StatePlay)
	c.logger.Info("🔑 Игрок %s вошел (uuid %s)", p.Name, c.uuid)

	return c.joinGame()
}
