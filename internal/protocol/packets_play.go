package protocol

import "fmt"

// PlayDisconnect is the S2C Disconnect packet sent during Play.
type PlayDisconnect struct {
	Reason string
}

func decodePlayDisconnect(c *cursor) (PlayDisconnect, error) {
	reason, err := c.string()
	return PlayDisconnect{Reason: reason}, err
}

// KeepAliveS2C/KeepAliveC2S carry an opaque 64-bit id the client must echo
// back unchanged.
type KeepAliveS2C struct{ ID int64 }

func decodeKeepAliveS2C(c *cursor) (KeepAliveS2C, error) {
	id, err := c.i64()
	return KeepAliveS2C{ID: id}, err
}

type KeepAliveC2S struct{ ID int64 }

func (p *KeepAliveC2S) ExpectedSize() int { return 8 }
func (p *KeepAliveC2S) Encode() []byte {
	w := &writer{}
	w.i64(p.ID)
	return w.buf
}

// JoinGame records the entity id assigned to this bot; only the fields the
// swarm actually reads are decoded, the rest of the packet is consumed via
// Remaining so varying server revisions don't trip DirtyBuffer.
type JoinGame struct {
	EntityID int32
}

func decodeJoinGame(c *cursor) (JoinGame, error) {
	entityID, err := c.i32()
	if err != nil {
		return JoinGame{}, err
	}
	_ = c.remainingBytes()
	return JoinGame{EntityID: entityID}, nil
}

// ClientSettings is the fixed C2S reply to JoinGame (§4.5).
type ClientSettings struct {
	Locale          string
	ViewDistance    int8
	ChatMode        int32
	ChatColors      bool
	SkinParts       uint8
	MainHand        int32
	TextFiltering   bool
	ServerListings  bool
}

// DefaultClientSettings is the fixed reply payload spec.md §4.5 mandates.
func DefaultClientSettings() ClientSettings {
	return ClientSettings{
		Locale:         "en_US",
		ViewDistance:   10,
		ChatMode:       0,
		ChatColors:     true,
		SkinParts:      0x7F,
		MainHand:       0,
		TextFiltering:  false,
		ServerListings: true,
	}
}

func (p *ClientSettings) ExpectedSize() int {
	return upperBoundString(p.Locale) + 1 + upperBoundVarInt + 1 + 1 + upperBoundVarInt + 1 + 1
}

func (p *ClientSettings) Encode() []byte {
	w := &writer{}
	w.string(p.Locale)
	w.u8(uint8(p.ViewDistance))
	w.varInt(p.ChatMode)
	w.bool(p.ChatColors)
	w.u8(p.SkinParts)
	w.varInt(p.MainHand)
	w.bool(p.TextFiltering)
	w.bool(p.ServerListings)
	return w.buf
}

// TeleportFlag bits select which axes in TeleportS2C are relative deltas
// rather than absolute coordinates (§4.5).
const (
	TeleportFlagX TeleportFlag = 0b10000
	TeleportFlagY TeleportFlag = 0b01000
	TeleportFlagZ TeleportFlag = 0b00100
)

type TeleportFlag uint8

// TeleportS2C is the server-authoritative position sync that first marks a
// bot as tickable.
type TeleportS2C struct {
	X, Y, Z    float64
	Yaw, Pitch float32
	Flags      TeleportFlag
	TeleportID int32
}

func decodeTeleportS2C(c *cursor) (TeleportS2C, error) {
	var p TeleportS2C
	var err error
	if p.X, err = c.f64(); err != nil {
		return p, err
	}
	if p.Y, err = c.f64(); err != nil {
		return p, err
	}
	if p.Z, err = c.f64(); err != nil {
		return p, err
	}
	if p.Yaw, err = c.f32(); err != nil {
		return p, err
	}
	if p.Pitch, err = c.f32(); err != nil {
		return p, err
	}
	flags, err := c.u8()
	if err != nil {
		return p, err
	}
	p.Flags = TeleportFlag(flags)
	if p.TeleportID, err = c.varInt(); err != nil {
		return p, err
	}
	_ = c.remainingBytes() // dismount/other trailing fields, unused
	return p, nil
}

// ResolveX/ResolveY/ResolveZ apply the relative/absolute rule for one axis
// (§4.5): if the
// corresponding flag bit is set, value is a delta added to prev; else it
// replaces prev outright.
func (p TeleportS2C) ResolveX(prev float64) float64 {
	if p.Flags&TeleportFlagX != 0 {
		return prev + p.X
	}
	return p.X
}

func (p TeleportS2C) ResolveY(prev float64) float64 {
	if p.Flags&TeleportFlagY != 0 {
		return prev + p.Y
	}
	return p.Y
}

func (p TeleportS2C) ResolveZ(prev float64) float64 {
	if p.Flags&TeleportFlagZ != 0 {
		return prev + p.Z
	}
	return p.Z
}

// TeleportConfirm is the mandatory C2S acknowledgement.
type TeleportConfirm struct {
	TeleportID int32
}

func (p *TeleportConfirm) ExpectedSize() int { return upperBoundVarInt }
func (p *TeleportConfirm) Encode() []byte {
	w := &writer{}
	w.varInt(p.TeleportID)
	return w.buf
}

// TimeUpdate drives the TPS estimate (§4.5).
type TimeUpdate struct {
	WorldAge  int64
	TimeOfDay int64
}

func decodeTimeUpdate(c *cursor) (TimeUpdate, error) {
	var p TimeUpdate
	var err error
	if p.WorldAge, err = c.i64(); err != nil {
		return p, err
	}
	if p.TimeOfDay, err = c.i64(); err != nil {
		return p, err
	}
	return p, nil
}

// PositionRotationC2S reports full movement with yaw (§4.5 tick action).
type PositionRotationC2S struct {
	X, Y, Z    float64
	Yaw, Pitch float32
	OnGround   bool
}

func (p *PositionRotationC2S) ExpectedSize() int { return 8*3 + 4*2 + 1 }
func (p *PositionRotationC2S) Encode() []byte {
	w := &writer{}
	w.f64(p.X)
	w.f64(p.Y)
	w.f64(p.Z)
	w.f32(p.Yaw)
	w.f32(p.Pitch)
	w.bool(p.OnGround)
	return w.buf
}

// PositionC2S is the yaw-less movement report used when --no-yaw is set.
type PositionC2S struct {
	X, Y, Z  float64
	OnGround bool
}

func (p *PositionC2S) ExpectedSize() int { return 8*3 + 1 }
func (p *PositionC2S) Encode() []byte {
	w := &writer{}
	w.f64(p.X)
	w.f64(p.Y)
	w.f64(p.Z)
	w.bool(p.OnGround)
	return w.buf
}

// ChatMessageC2S is one of the five tick actions.
type ChatMessageC2S struct {
	Message   string
	Timestamp int64
}

func (p *ChatMessageC2S) ExpectedSize() int {
	return upperBoundString(p.Message) + 8 + 8 + 1 + upperBoundVarInt
}

func (p *ChatMessageC2S) Encode() []byte {
	w := &writer{}
	w.string(p.Message)
	w.i64(p.Timestamp)
	w.i64(0) // salt: no signing, signature is never validated by a test server
	w.bool(false) // has signature
	w.varInt(0)   // acknowledged message count ("seen messages"), always empty
	return w.buf
}

// AnimationC2S swings a hand.
type AnimationC2S struct {
	Hand int32 // 0 = main, 1 = off
}

func (p *AnimationC2S) ExpectedSize() int { return upperBoundVarInt }
func (p *AnimationC2S) Encode() []byte {
	w := &writer{}
	w.varInt(p.Hand)
	return w.buf
}

// EntityActionC2S codes: start sneaking=0, stop sneaking=1, start
// sprinting=3, stop sprinting=4 (§4.5).
type EntityActionC2S struct {
	EntityID int32
	ActionID int32
}

func (p *EntityActionC2S) ExpectedSize() int { return upperBoundVarInt*3 }
func (p *EntityActionC2S) Encode() []byte {
	w := &writer{}
	w.varInt(p.EntityID)
	w.varInt(p.ActionID)
	w.varInt(0) // jump boost, unused outside horses
	return w.buf
}

// HeldItemSlotC2S selects the active hotbar slot (0..8).
type HeldItemSlotC2S struct {
	Slot int16
}

func (p *HeldItemSlotC2S) ExpectedSize() int { return 2 }
func (p *HeldItemSlotC2S) Encode() []byte {
	w := &writer{}
	w.i16(p.Slot)
	return w.buf
}

// PlayHandler is the S2C dispatch trait for the Play state.
type PlayHandler interface {
	HandlePlayDisconnect(PlayDisconnect) error
	HandleKeepAliveS2C(KeepAliveS2C) error
	HandleJoinGame(JoinGame) error
	HandleTeleportS2C(TeleportS2C) error
	HandleTimeUpdate(TimeUpdate) error
}

// NoopPlayHandler gives every PlayHandler method a default no-op body.
type NoopPlayHandler struct{}

func (NoopPlayHandler) HandlePlayDisconnect(PlayDisconnect) error { return nil }
func (NoopPlayHandler) HandleKeepAliveS2C(KeepAliveS2C) error     { return nil }
func (NoopPlayHandler) HandleJoinGame(JoinGame) error             { return nil }
func (NoopPlayHandler) HandleTeleportS2C(TeleportS2C) error       { return nil }
func (NoopPlayHandler) HandleTimeUpdate(TimeUpdate) error         { return nil }

// ParseAndHandlePlay reads the leading packet-id byte from body, decodes
// the matching Play S2C packet, verifies it was fully consumed, and
// invokes the handler. Unknown ids are silently ignored, per §4.3.
func ParseAndHandlePlay(body []byte, h PlayHandler) error {
	c := newCursor(body)
	id, err := c.varInt()
	if err != nil {
		return fmt.Errorf("protocol: play packet id: %w", err)
	}

	switch id {
	case PlayDisconnectPacketID:
		p, err := decodePlayDisconnect(c)
		if err != nil {
			return fmt.Errorf("protocol: decode PlayDisconnect: %w", err)
		}
		if err := c.finish(); err != nil {
			return err
		}
		return h.HandlePlayDisconnect(p)
	case KeepAliveS2CPacketID:
		p, err := decodeKeepAliveS2C(c)
		if err != nil {
			return fmt.Errorf("protocol: decode KeepAliveS2C: %w", err)
		}
		if err := c.finish(); err != nil {
			return err
		}
		return h.HandleKeepAliveS2C(p)
	case JoinGamePacketID:
		p, err := decodeJoinGame(c)
		if err != nil {
			return fmt.Errorf("protocol: decode JoinGame: %w", err)
		}
		return h.HandleJoinGame(p)
	case TeleportS2CPacketID:
		p, err := decodeTeleportS2C(c)
		if err != nil {
			return fmt.Errorf("protocol: decode TeleportS2C: %w", err)
		}
		return h.HandleTeleportS2C(p)
	case TimeUpdatePacketID:
		p, err := decodeTimeUpdate(c)
		if err != nil {
			return fmt.Errorf("protocol: decode TimeUpdate: %w", err)
		}
		if err := c.finish(); err != nil {
			return err
		}
		return h.HandleTimeUpdate(p)
	default:
		return nil
	}
}
