package protocol

import (
	"fmt"

	"github.com/kagenova/mcbotswarm/internal/protoerr"
)

// Handshake is the single packet that precedes the Login state; it is
// never dispatched (it has no reply), only encoded.
type Handshake struct {
	ProtocolVersion int32
	ServerAddress   string
	ServerPort      uint16
	NextState       int32
}

func (p *Handshake) ExpectedSize() int {
	return upperBoundVarInt + upperBoundString(p.ServerAddress) + 2 + upperBoundVarInt
}

func (p *Handshake) Encode() []byte {
	w := &writer{}
	w.varInt(p.ProtocolVersion)
	w.string(p.ServerAddress)
	w.u16(p.ServerPort)
	w.varInt(p.NextState)
	return w.buf
}

// LoginStart is the first C2S login packet.
type LoginStart struct {
	Username string
	// HasUUID/UUID model the optional "player uuid" field some revisions
	// added; the swarm always sends one (derived from the username) even
	// though an offline-mode server recomputes its own and ignores it.
	HasUUID bool
	UUID    [16]byte
}

func (p *LoginStart) ExpectedSize() int {
	return upperBoundString(p.Username) + 1 + 16
}

func (p *LoginStart) Encode() []byte {
	w := &writer{}
	w.string(p.Username)
	w.bool(p.HasUUID)
	if p.HasUUID {
		w.uuid(p.UUID)
	}
	return w.buf
}

// LoginDisconnect is the S2C Disconnect packet sent during Login.
type LoginDisconnect struct {
	Reason string // raw JSON chat component, not reinterpreted
}

func decodeLoginDisconnect(c *cursor) (LoginDisconnect, error) {
	reason, err := c.string()
	return LoginDisconnect{Reason: reason}, err
}

// SetCompression negotiates the zlib threshold (§4.2); a negative threshold
// means compression stays disabled.
type SetCompression struct {
	Threshold int32
}

func decodeSetCompression(c *cursor) (SetCompression, error) {
	n, err := c.varInt()
	return SetCompression{Threshold: n}, err
}

// LoginSuccess transitions the session into Play.
type LoginSuccess struct {
	UUID     [16]byte
	Username string
}

func decodeLoginSuccess(c *cursor) (LoginSuccess, error) {
	var p LoginSuccess
	uuid, err := c.uuid()
	if err != nil {
		return p, err
	}
	username, err := c.string()
	if err != nil {
		return p, err
	}
	// Trailing property array (1.19 LoginSuccess) is not needed by the
	// swarm and is captured via Remaining so DirtyBuffer never fires on it.
	_ = c.remainingBytes()
	p.UUID = uuid
	p.Username = username
	return p, nil
}

// LoginHandler is the S2C dispatch trait for the Login state (§4.3): one
// handle method per dispatched packet, each with a default no-op
// implementation via NoopLoginHandler. EncryptionRequest and
// LoginPluginRequest have no handle method; ParseAndHandleLogin rejects
// them itself.
type LoginHandler interface {
	HandleLoginDisconnect(LoginDisconnect) error
	HandleSetCompression(SetCompression) error
	HandleLoginSuccess(LoginSuccess) error
}

// NoopLoginHandler gives every LoginHandler method a default no-op body;
// embed it and override only the packets a particular handler cares about.
type NoopLoginHandler struct{}

func (NoopLoginHandler) HandleLoginDisconnect(LoginDisconnect) error { return nil }
func (NoopLoginHandler) HandleSetCompression(SetCompression) error  { return nil }
func (NoopLoginHandler) HandleLoginSuccess(LoginSuccess) error       { return nil }

// ParseAndHandleLogin reads the leading packet-id byte from body, decodes
// the matching Login S2C packet, verifies the body was fully consumed, and
// invokes the corresponding handler method. Unknown ids are silently
// ignored. EncryptionRequest and LoginPluginRequest are unimplemented by
// design (the load-generator never runs against an encrypted/modded
// server) and are treated as fatal per §4.5.
func ParseAndHandleLogin(body []byte, h LoginHandler) error {
	c := newCursor(body)
	id, err := c.varInt()
	if err != nil {
		return fmt.Errorf("protocol: login packet id: %w", err)
	}

	switch id {
	case LoginDisconnectPacketID:
		p, err := decodeLoginDisconnect(c)
		if err != nil {
			return fmt.Errorf("protocol: decode LoginDisconnect: %w", err)
		}
		if err := c.finish(); err != nil {
			return err
		}
		return h.HandleLoginDisconnect(p)
	case SetCompressionPacketID:
		p, err := decodeSetCompression(c)
		if err != nil {
			return fmt.Errorf("protocol: decode SetCompression: %w", err)
		}
		if err := c.finish(); err != nil {
			return err
		}
		return h.HandleSetCompression(p)
	case LoginSuccessPacketID:
		p, err := decodeLoginSuccess(c)
		if err != nil {
			return fmt.Errorf("protocol: decode LoginSuccess: %w", err)
		}
		return h.HandleLoginSuccess(p)
	case EncryptionRequestPacketID:
		return fmt.Errorf("protocol: server requires encryption: %w", protoerr.BadProtocolState)
	case LoginPluginRequestPacketID:
		return fmt.Errorf("protocol: server requires a login plugin response: %w", protoerr.BadProtocolState)
	default:
		return nil
	}
}
