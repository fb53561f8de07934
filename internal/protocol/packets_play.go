package protocol

import (
	"github.com/annel0/blockverse/internal/vec"
)

// Входящие пакеты состояния Play
const (
	IDConfirmTeleportation         = 0x00
	IDClientInformation            = 0x08
	IDServerboundPluginMessage     = 0x0D
	IDServerboundKeepAlive         = 0x12
	IDSetPlayerPosition            = 0x14
	IDSetPlayerPositionAndRotation = 0x15
	IDSetPlayerRotation            = 0x16
	IDSetPlayerOnGround            = 0x17
	IDServerboundPlayerAbilities   = 0x1C
	IDPlayerAction                 = 0x1D
	IDUseItemOn                    = 0x31
)

// Исходящие пакеты состояния Play
const (
	IDAcknowledgeBlockChange     = 0x06
	IDBlockUpdate                = 0x0A
	IDPlayDisconnect             = 0x1A
	IDUnloadChunk                = 0x1E
	IDClientboundKeepAlive       = 0x23
	IDChunkDataAndUpdateLight    = 0x24
	IDJoinGame                   = 0x28
	IDClientboundPlayerAbilities = 0x34
	IDSynchronizePlayerPosition  = 0x3C
	IDSetCenterChunk             = 0x4E
	IDSetDefaultSpawnPosition    = 0x50
)

// ConfirmTeleportation клиент подтверждает телепорт с указанным id
type ConfirmTeleportation struct {
	TeleportID int32
}

func (*ConfirmTeleportation) PacketID() int32 { return IDConfirmTeleportation }
func (*ConfirmTeleportation) State() State    { return StatePlay }

func (p *ConfirmTeleportation) Decode(r *Reader) (err error) {
	p.TeleportID, err = r.ReadVarInt()
	return err
}

func (p *ConfirmTeleportation) Encode(w *Writer) error {
	w.WriteVarInt(p.TeleportID)
	return nil
}

// ClientInformation настройки клиента
type ClientInformation struct {
	Locale              string
	ViewDistance        int8
	ChatMode            int32
	ChatColors          bool
	DisplayedSkinParts  uint8
	MainHand            int32
	EnableTextFiltering bool
	AllowServerListings bool
}

func (*ClientInformation) PacketID() int32 { return IDClientInformation }
func (*ClientInformation) State() State    { return StatePlay }

func (p *ClientInformation) Decode(r *Reader) (err error) {
	if p.Locale, err = r.ReadString(16); err != nil {
		return err
	}
	if p.ViewDistance, err = r.ReadInt8(); err != nil {
		return err
	}
	if p.ChatMode, err = r.ReadVarInt(); err != nil {
		return err
	}
	if p.ChatColors, err = r.ReadBool(); err != nil {
		return err
	}
	if p.DisplayedSkinParts, err = r.ReadUint8(); err != nil {
		return err
	}
	if p.MainHand, err = r.ReadVarInt(); err != nil {
		return err
	}
	if p.EnableTextFiltering, err = r.ReadBool(); err != nil {
		return err
	}
	p.AllowServerListings, err = r.ReadBool()
	return err
}

func (p *ClientInformation) Encode(w *Writer) error {
	if err := w.WriteString(p.Locale, 16); err != nil {
		return err
	}
	w.WriteInt8(p.ViewDistance)
	w.WriteVarInt(p.ChatMode)
	w.WriteBool(p.ChatColors)
	w.WriteUint8(p.DisplayedSkinParts)
	w.WriteVarInt(p.MainHand)
	w.WriteBool(p.EnableTextFiltering)
	w.WriteBool(p.AllowServerListings)
	return nil
}

// PluginMessage сообщение канала плагина; тело канала занимает остаток пакета
type PluginMessage struct {
	Channel string
	Data    []byte
}

func (*PluginMessage) PacketID() int32 { return IDServerboundPluginMessage }
func (*PluginMessage) State() State    { return StatePlay }

func (p *PluginMessage) Decode(r *Reader) (err error) {
	if p.Channel, err = r.ReadIdentifier(); err != nil {
		return err
	}
	p.Data = r.ReadRest()
	return nil
}

func (p *PluginMessage) Encode(w *Writer) error {
	if err := w.WriteIdentifier(p.Channel); err != nil {
		return err
	}
	w.WriteBytes(p.Data)
	return nil
}

// ServerboundKeepAlive ответ клиента на keep-alive
type ServerboundKeepAlive struct {
	ID int64
}

func (*ServerboundKeepAlive) PacketID() int32 { return IDServerboundKeepAlive }
func (*ServerboundKeepAlive) State() State    { return StatePlay }

func (p *ServerboundKeepAlive) Decode(r *Reader) (err error) {
	p.ID, err = r.ReadInt64()
	return err
}

func (p *ServerboundKeepAlive) Encode(w *Writer) error {
	w.WriteInt64(p.ID)
	return nil
}

// SetPlayerPosition перемещение без поворота
type SetPlayerPosition struct {
	X, Y, Z  float64
	OnGround bool
}

func (*SetPlayerPosition) PacketID() int32 { return IDSetPlayerPosition }
func (*SetPlayerPosition) State() State    { return StatePlay }

func (p *SetPlayerPosition) Decode(r *Reader) (err error) {
	if p.X, err = r.ReadFloat64(); err != nil {
		return err
	}
	if p.Y, err = r.ReadFloat64(); err != nil {
		return err
	}
	if p.Z, err = r.ReadFloat64(); err != nil {
		return err
	}
	p.OnGround, err = r.ReadBool()
	return err
}

func (p *SetPlayerPosition) Encode(w *Writer) error {
	w.WriteFloat64(p.X)
	w.WriteFloat64(p.Y)
	w.WriteFloat64(p.Z)
	w.WriteBool(p.OnGround)
	return nil
}

// SetPlayerPositionAndRotation перемещение с поворотом
type SetPlayerPositionAndRotation struct {
	X, Y, Z    float64
	Yaw, Pitch float32
	OnGround   bool
}

func (*SetPlayerPositionAndRotation) PacketID() int32 { return IDSetPlayerPositionAndRotation }
func (*SetPlayerPositionAndRotation) State() State    { return StatePlay }

func (p *SetPlayerPositionAndRotation) Decode(r *Reader) (err error) {
	if p.X, err = r.ReadFloat64(); err != nil {
		return err
	}
	if p.Y, err = r.ReadFloat64(); err != nil {
		return err
	}
	if p.Z, err = r.ReadFloat64(); err != nil {
		return err
	}
	if p.Yaw, err = r.ReadFloat32(); err != nil {
		return err
	}
	if p.Pitch, err = r.ReadFloat32(); err != nil {
		return err
	}
	p.OnGround, err = r.ReadBool()
	return err
}

func (p *SetPlayerPositionAndRotation) Encode(w *Writer) error {
	w.WriteFloat64(p.X)
	w.WriteFloat64(p.Y)
	w.WriteFloat64(p.Z)
	w.WriteFloat32(p.Yaw)
	w.WriteFloat32(p.Pitch)
	w.WriteBool(p.OnGround)
	return nil
}

// SetPlayerRotation поворот без перемещения
type SetPlayerRotation struct {
	Yaw, Pitch float32
	OnGround   bool
}

func (*SetPlayerRotation) PacketID() int32 { return IDSetPlayerRotation }
func (*SetPlayerRotation) State() State    { return StatePlay }

func (p *SetPlayerRotation) Decode(r *Reader) (err error) {
	if p.Yaw, err = r.ReadFloat32(); err != nil {
		return err
	}
	if p.Pitch, err = r.ReadFloat32(); err != nil {
		return err
	}
	p.OnGround, err = r.ReadBool()
	return err
}

func (p *SetPlayerRotation) Encode(w *Writer) error {
	w.WriteFloat32(p.Yaw)
	w.WriteFloat32(p.Pitch)
	w.WriteBool(p.OnGround)
	return nil
}

// SetPlayerOnGround только флаг касания земли
type SetPlayerOnGround struct {
	OnGround bool
}

func (*SetPlayerOnGround) PacketID() int32 { return IDSetPlayerOnGround }
func (*SetPlayerOnGround) State() State    { return StatePlay }

func (p *SetPlayerOnGround) Decode(r *Reader) (err error) {
	p.OnGround, err = r.ReadBool()
	return err
}

func (p *SetPlayerOnGround) Encode(w *Writer) error {
	w.WriteBool(p.OnGround)
	return nil
}

// Флаги способностей игрока
const (
	AbilityInvulnerable = 0x01
	AbilityFlying       = 0x02
	AbilityAllowFlying  = 0x04
	AbilityInstantBreak = 0x08
)

// ServerboundPlayerAbilities клиент начал или прекратил полет
type ServerboundPlayerAbilities struct {
	Flags int8
}

func (*ServerboundPlayerAbilities) PacketID() int32 { return IDServerboundPlayerAbilities }
func (*ServerboundPlayerAbilities) State() State    { return StatePlay }

func (p *ServerboundPlayerAbilities) Decode(r *Reader) (err error) {
	p.Flags, err = r.ReadInt8()
	return err
}

func (p *ServerboundPlayerAbilities) Encode(w *Writer) error {
	w.WriteInt8(p.Flags)
	return nil
}

// Flying сообщает, летит ли игрок
func (p *ServerboundPlayerAbilities) Flying() bool {
	return p.Flags&AbilityFlying != 0
}

// Статусы PlayerAction
const (
	ActionStartedDigging   = 0
	ActionCancelledDigging = 1
	ActionFinishedDigging  = 2
)

// PlayerAction копание блока и похожие действия
type PlayerAction struct {
	Status   int32
	Location vec.Vec3
	Face     int8
	Sequence int32
}

func (*PlayerAction) PacketID() int32 { return IDPlayerAction }
func (*PlayerAction) State() State    { return StatePlay }

func (p *PlayerAction) Decode(r *Reader) (err error) {
	if p.Status, err = r.ReadVarInt(); err != nil {
		return err
	}
	if p.Location, err = r.ReadPosition(); err != nil {
		return err
	}
	if p.Face, err = r.ReadInt8(); err != nil {
		return err
	}
	p.Sequence, err = r.ReadVarInt()
	return err
}

func (p *PlayerAction) Encode(w *Writer) error {
	w.WriteVarInt(p.Status)
	w.WritePosition(p.Location)
	w.WriteInt8(p.Face)
	w.WriteVarInt(p.Sequence)
	return nil
}

// UseItemOn правый клик по блоку
type UseItemOn struct {
	Hand     int32
	Location vec.Vec3
	Face     int32
	CursorX  float32
	CursorY  float32
	CursorZ  float32
	Inside   bool
	Sequence int32
}

func (*UseItemOn) PacketID() int32 { return IDUseItemOn }
func (*UseItemOn) State() State    { return StatePlay }

func (p *UseItemOn) Decode(r *Reader) (err error) {
	if p.Hand, err = r.ReadVarInt(); err != nil {
		return err
	}
	if p.Location, err = r.ReadPosition(); err != nil {
		return err
	}
	if p.Face, err = r.ReadVarInt(); err != nil {
		return err
	}
	if p.CursorX, err = r.ReadFloat32(); err != nil {
		return err
	}
	if p.CursorY, err = r.ReadFloat32(); err != nil {
		return err
	}
	if p.CursorZ, err = r.ReadFloat32(); err != nil {
		return err
	}
	if p.Inside, err = r.ReadBool(); err != nil {
		return err
	}
	p.Sequence, err = r.ReadVarInt()
	return err
}

func (p *UseItemOn) Encode(w *Writer) error {
	w.WriteVarInt(p.Hand)
	w.WritePosition(p.Location)
	w.WriteVarInt(p.Face)
	w.WriteFloat32(p.CursorX)
	w.WriteFloat32(p.CursorY)
	w.WriteFloat32(p.CursorZ)
	w.WriteBool(p.Inside)
	w.WriteVarInt(p.Sequence)
	return nil
}

// AcknowledgeBlockChange подтверждает клиенту обработку действия с номером Sequence
type AcknowledgeBlockChange struct {
	Sequence int32
}

func (*AcknowledgeBlockChange) PacketID() int32 { return IDAcknowledgeBlockChange }
func (*AcknowledgeBlockChange) State() State    { return StatePlay }

func (p *AcknowledgeBlockChange) Encode(w *Writer) error {
	w.WriteVarInt(p.Sequence)
	return nil
}

func (p *AcknowledgeBlockChange) Decode(r *Reader) (err error) {
	p.Sequence, err = r.ReadVarInt()
	return err
}

// BlockUpdate изменение одного блока
type BlockUpdate struct {
	Location vec.Vec3
	StateID  int32
}

func (*BlockUpdate) PacketID() int32 { return IDBlockUpdate }
func (*BlockUpdate) State() State    { return StatePlay }

func (p *BlockUpdate) Encode(w *Writer) error {
	w.WritePosition(p.Location)
	w.WriteVarInt(p.StateID)
	return nil
}

func (p *BlockUpdate) Decode(r *Reader) (err error) {
	if p.Location, err = r.ReadPosition(); err != nil {
		return err
	}
	p.StateID, err = r.ReadVarInt()
	return err
}

// PlayDisconnect отключение в состоянии Play
type PlayDisconnect struct {
	Reason string
}

func (*PlayDisconnect) PacketID() int32 { return IDPlayDisconnect }
func (*PlayDisconnect) State() State    { return StatePlay }

func (p *PlayDisconnect) Encode(w *Writer) error {
	return w.WriteString(p.Reason, MaxChatLength)
}

func (p *PlayDisconnect) Decode(r *Reader) (err error) {
	p.Reason, err = r.ReadString(MaxChatLength)
	return err
}

// UnloadChunk клиент должен выгрузить чанк
type UnloadChunk struct {
	X, Z int32
}

func (*UnloadChunk) PacketID() int32 { return IDUnloadChunk }
func (*UnloadChunk) State() State    { return StatePlay }

func (p *UnloadChunk) Encode(w *Writer) error {
	w.WriteInt32(p.X)
	w.WriteInt32(p.Z)
	return nil
}

func (p *UnloadChunk) Decode(r *Reader) (err error) {
	if p.X, err = r.ReadInt32(); err != nil {
		return err
	}
	p.Z, err = r.ReadInt32()
	return err
}

// ClientboundKeepAlive проверка живости соединения
type ClientboundKeepAlive struct {
	ID int64
}

func (*ClientboundKeepAlive) PacketID() int32 { return IDClientboundKeepAlive }
func (*ClientboundKeepAlive) State() State    { return StatePlay }

func (p *ClientboundKeepAlive) Encode(w *Writer) error {
	w.WriteInt64(p.ID)
	return nil
}

func (p *ClientboundKeepAlive) Decode(r *Reader) (err error) {
	p.ID, err = r.ReadInt64()
	return err
}

// ChunkDataAndUpdateLight данные чанка со светом.
// Data содержит уже закодированные секции; блок-сущности не передаются.
type ChunkDataAndUpdateLight struct {
	X, Z                int32
	Heightmaps          interface{}
	Data                []byte
	TrustEdges          bool
	SkyLightMask        BitSet
	BlockLightMask      BitSet
	EmptySkyLightMask   BitSet
	EmptyBlockLightMask BitSet
	SkyLight            [][]byte
	BlockLight          [][]byte
}

func (*ChunkDataAndUpdateLight) PacketID() int32 { return IDChunkDataAndUpdateLight }
func (*ChunkDataAndUpdateLight) State() State    { return StatePlay }

func (p *ChunkDataAndUpdateLight) Encode(w *Writer) error {
	w.WriteInt32(p.X)
	w.WriteInt32(p.Z)
	if err := w.WriteNBT(p.Heightmaps); err != nil {
		return err
	}
	w.WriteByteArray(p.Data)
	w.WriteVarInt(0)
	w.WriteBool(p.TrustEdges)
	w.WriteBitSet(p.SkyLightMask)
	w.WriteBitSet(p.BlockLightMask)
	w.WriteBitSet(p.EmptySkyLightMask)
	w.WriteBitSet(p.EmptyBlockLightMask)
	w.WriteVarInt(int32(len(p.SkyLight)))
	for _, arr := range p.SkyLight {
		w.WriteByteArray(arr)
	}
	w.WriteVarInt(int32(len(p.BlockLight)))
	for _, arr := range p.BlockLight {
		w.WriteByteArray(arr)
	}
	return nil
}

// JoinGame пакет входа в игру (Login в состоянии Play)
type JoinGame struct {
	EntityID            int32
	Hardcore            bool
	GameMode            uint8
	PreviousGameMode    int8
	DimensionNames      []string
	RegistryCodec       interface{}
	DimensionType       string
	DimensionName       string
	HashedSeed          int64
	MaxPlayers          int32
	ViewDistance        int32
	SimulationDistance  int32
	ReducedDebugInfo    bool
	EnableRespawnScreen bool
	IsDebug             bool
	IsFlat              bool
}

func (*JoinGame) PacketID() int32 { return IDJoinGame }
func (*JoinGame) State() State    { return StatePlay }

func (p *JoinGame) Encode(w *Writer) error {
	w.WriteInt32(p.EntityID)
	w.WriteBool(p.Hardcore)
	w.WriteUint8(p.GameMode)
	w.WriteInt8(p.PreviousGameMode)
	w.WriteVarInt(int32(len(p.DimensionNames)))
	for _, name := range p.DimensionNames {
		if err := w.WriteIdentifier(name); err != nil {
			return err
		}
	}
	if err := w.WriteNBT(p.RegistryCodec); err != nil {
		return err
	}
	if err := w.WriteIdentifier(p.DimensionType); err != nil {
		return err
	}
	if err := w.WriteIdentifier(p.DimensionName); err != nil {
		return err
	}
	w.WriteInt64(p.HashedSeed)
	w.WriteVarInt(p.MaxPlayers)
	w.WriteVarInt(p.ViewDistance)
	w.WriteVarInt(p.SimulationDistance)
	w.WriteBool(p.ReducedDebugInfo)
	w.WriteBool(p.EnableRespawnScreen)
	w.WriteBool(p.IsDebug)
	w.WriteBool(p.IsFlat)
	// Точка смерти не передается
	w.WriteBool(false)
	return nil
}

// ClientboundPlayerAbilities способности игрока
type ClientboundPlayerAbilities struct {
	Flags       int8
	FlyingSpeed float32
	FOVModifier float32
}

func (*ClientboundPlayerAbilities) PacketID() int32 { return IDClientboundPlayerAbilities }
func (*ClientboundPlayerAbilities) State() State    { return StatePlay }

func (p *ClientboundPlayerAbilities) Encode(w *Writer) error {
	w.WriteInt8(p.Flags)
	w.WriteFloat32(p.FlyingSpeed)
	w.WriteFloat32(p.FOVModifier)
	return nil
}

// SynchronizePlayerPosition телепорт игрока; клиент подтверждает его через ConfirmTeleportation
type SynchronizePlayerPosition struct {
	X, Y, Z    float64
	Yaw, Pitch float32
	Flags      int8
	TeleportID int32
}

func (*SynchronizePlayerPosition) PacketID() int32 { return IDSynchronizePlayerPosition }
func (*SynchronizePlayerPosition) State() State    { return StatePlay }

func (p *SynchronizePlayerPosition) Encode(w *Writer) error {
	w.WriteFloat64(p.X)
	w.WriteFloat64(p.Y)
	w.WriteFloat64(p.Z)
	w.WriteFloat32(p.Yaw)
	w.WriteFloat32(p.Pitch)
	w.WriteInt8(p.Flags)
	w.WriteVarInt(p.TeleportID)
	return nil
}

func (p *SynchronizePlayerPosition) Decode(r *Reader) (err error) {
	for _, f := range []*float64{&p.X, &p.Y, &p.Z} {
		if *f, err = r.ReadFloat64(); err != nil {
			return err
		}
	}
	if p.Yaw, err = r.ReadFloat32(); err != nil {
		return err
	}
	if p.Pitch, err = r.ReadFloat32(); err != nil {
		return err
	}
	if p.Flags, err = r.ReadInt8(); err != nil {
		return err
	}
	p.TeleportID, err = r.ReadVarInt()
	return err
}

// SetCenterChunk центр области видимости клиента
type SetCenterChunk struct {
	X, Z int32
}

func (*SetCenterChunk) PacketID() int32 { return IDSetCenterChunk }
func (*SetCenterChunk) State() State    { return StatePlay }

func (p *SetCenterChunk) Encode(w *Writer) error {
	w.WriteVarInt(p.X)
	w.WriteVarInt(p.Z)
	return nil
}

func (p *SetCenterChunk) Decode(r *Reader) (err error) {
	if p.X, err = r.ReadVarInt(); err != nil {
		return err
	}
	p.Z, err = r.ReadVarInt()
	return err
}

// SetDefaultSpawnPosition точка спавна мира
type SetDefaultSpawnPosition struct {
	Location vec.Vec3
	Angle    float32
}

func (*SetDefaultSpawnPosition) PacketID() int32 { return IDSetDefaultSpawnPosition }
func (*SetDefaultSpawnPosition) State() State    { return StatePlay }

func (p *SetDefaultSpawnPosition) Encode(w *Writer) error {
	w.WritePosition(p.Location)
	w.WriteFloat32(p.Angle)
	return nil
}
