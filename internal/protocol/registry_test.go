package protocol

import (
	"testing"

	"github.com/annel0/blockverse/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frameOf(t *testing.T, p Encoder) Frame {
	t.Helper()
	w := NewWriter()
	require.NoError(t, p.Encode(w))
	return Frame{ID: p.PacketID(), Payload: w.Bytes()}
}

func TestDecodePerState(t *testing.T) {
	// id 0x00 означает разные пакеты в разных состояниях
	p, err := Decode(StateHandshake, frameOf(t, &Handshake{ProtocolVersion: 762, ServerAddress: "a", ServerPort: 1, NextState: 1}))
	require.NoError(t, err)
	assert.IsType(t, &Handshake{}, p)

	p, err = Decode(StateStatus, Frame{ID: 0x00})
	require.NoError(t, err)
	assert.IsType(t, &StatusRequest{}, p)

	p, err = Decode(StateLogin, frameOf(t, &LoginStart{Name: "Steve"}))
	require.NoError(t, err)
	require.IsType(t, &LoginStart{}, p)
	assert.Equal(t, "Steve", p.(*LoginStart).Name)

	p, err = Decode(StatePlay, frameOf(t, &ConfirmTeleportation{TeleportID: 5}))
	require.NoError(t, err)
	assert.Equal(t, int32(5), p.(*ConfirmTeleportation).TeleportID)
}

func TestDecodeUnhandled(t *testing.T) {
	_, err := Decode(StatePlay, Frame{ID: 0x7F, Payload: []byte{1, 2}})
	assert.ErrorIs(t, err, ErrUnhandledPacket)
	assert.NotErrorIs(t, err, ErrMalformedPacket)
	assert.False(t, IsHandled(StatePlay, 0x7F))
	assert.True(t, IsHandled(StatePlay, IDPlayerAction))
}

func TestDecodeMalformed(t *testing.T) {
	t.Run("truncated", func(t *testing.T) {
		_, err := Decode(StateStatus, Frame{ID: IDPingRequest, Payload: []byte{1, 2, 3}})
		assert.ErrorIs(t, err, ErrMalformedPacket)
	})

	t.Run("trailing bytes", func(t *testing.T) {
		_, err := Decode(StateStatus, Frame{ID: IDStatusRequest, Payload: []byte{0}})
		assert.ErrorIs(t, err, ErrMalformedPacket)
	})

	t.Run("username too long", func(t *testing.T) {
		w := NewWriter()
		require.NoError(t, w.WriteString("ThisNameIsWayTooLong", 32))
		w.WriteBool(false)
		_, err := Decode(StateLogin, Frame{ID: IDLoginStart, Payload: w.Bytes()})
		assert.ErrorIs(t, err, ErrMalformedPacket)
		assert.ErrorIs(t, err, ErrStringTooLong)
	})
}

func TestPlayPacketsDecode(t *testing.T) {
	action := &PlayerAction{Status: ActionStartedDigging, Location: vec.Vec3{X: -5, Y: -60, Z: 12}, Face: 1, Sequence: 3}
	p, err := Decode(StatePlay, frameOf(t, action))
	require.NoError(t, err)
	assert.Equal(t, action, p)

	move := &SetPlayerPositionAndRotation{X: 1.5, Y: 64, Z: -3.25, Yaw: 90, Pitch: -10, OnGround: true}
	p, err = Decode(StatePlay, frameOf(t, move))
	require.NoError(t, err)
	assert.Equal(t, move, p)

	plugin := &PluginMessage{Channel: "minecraft:brand", Data: []byte{7, 'v', 'a', 'n', 'i', 'l', 'l', 'a'}}
	p, err = Decode(StatePlay, frameOf(t, plugin))
	require.NoError(t, err)
	assert.Equal(t, plugin, p)

	abilities := &ServerboundPlayerAbilities{Flags: AbilityFlying}
	p, err = Decode(StatePlay, frameOf(t, abilities))
	require.NoError(t, err)
	assert.True(t, p.(*ServerboundPlayerAbilities).Flying())

	use := &UseItemOn{Hand: 0, Location: vec.Vec3{X: 100, Y: -64, Z: -100}, Face: 1, CursorX: 0.5, CursorY: 1, CursorZ: 0.25, Inside: false, Sequence: 9}
	p, err = Decode(StatePlay, frameOf(t, use))
	require.NoError(t, err)
	assert.Equal(t, use, p)
}

func TestLoginSuccessRoundTrip(t *testing.T) {
	in := &LoginSuccess{
		Username: "Alex",
		Properties: []Property{
			{Name: "textures", Value: "abc"},
			{Name: "signed", Value: "v", Signed: true, Signature: "sig"},
		},
	}
	out := &LoginSuccess{}
	require.NoError(t, Unmarshal(frameOf(t, in), out))
	assert.Equal(t, in, out)
}

func TestNextStateRejectsUnknownIntent(t *testing.T) {
	_, err := (&Handshake{NextState: 3}).Next()
	assert.ErrorIs(t, err, ErrMalformedPacket)
}
