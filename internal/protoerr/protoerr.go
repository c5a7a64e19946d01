// Package protoerr defines the typed error taxonomy shared by the framing,
// protocol, and session layers: every I/O or decoding failure on a bot's
// connection resolves to one of these, which the owning session turns into
// a kick.
package protoerr

import (
	"errors"
	"fmt"
)

// Sentinel errors usable with errors.Is. DecodingError values additionally
// carry detail (a bad packet id, a field name) via fmt.Errorf wrapping.
var (
	// Closed means the peer closed the connection cleanly.
	Closed = errors.New("protoerr: connection closed")
	// EOF means a decoder ran out of bytes mid-field.
	EOF = errors.New("protoerr: unexpected end of packet")
	// BadData means a field's bytes could not be interpreted (invalid UTF-8,
	// varint continuation overrun).
	BadData = errors.New("protoerr: bad data")
	// DirtyBuffer means a decoder left unconsumed trailing bytes.
	DirtyBuffer = errors.New("protoerr: dirty buffer")
	// BadProtocolState means a packet arrived in a state that cannot handle it.
	BadProtocolState = errors.New("protoerr: bad protocol state")
	// PacketTooLarge means a payload exceeds framing.MaxFrameLen.
	PacketTooLarge = errors.New("protoerr: packet too large")
	// Compression wraps a zlib failure.
	Compression = errors.New("protoerr: compression failure")
	// ZeroSizedPacket means an isolated 0x00 length byte was read.
	ZeroSizedPacket = errors.New("protoerr: zero sized packet")
	// Decompression wraps a zlib decompression failure.
	Decompression = errors.New("protoerr: decompression failure")
	// BadlyCompressed means a declared data_len was below threshold or did
	// not match the decompressed size.
	BadlyCompressed = errors.New("protoerr: badly compressed frame")
)

// Kicked records that the server sent a Disconnect packet with the given
// reason. The session's own disconnect path carries the reason as a plain
// string and does not return this type; match it with errors.As.
type Kicked struct {
	Reason string
}

func (k *Kicked) Error() string { return fmt.Sprintf("protoerr: kicked: %s", k.Reason) }

// BadPacketID records an unrecognized/unhandled packet id within a state
// that should have known it. No decoder in this module returns it:
// unknown ids are ignored, and EncryptionRequest/LoginPluginRequest are
// reported as BadProtocolState.
type BadPacketID struct {
	ID int32
}

func (b *BadPacketID) Error() string { return fmt.Sprintf("protoerr: bad packet id 0x%02x", b.ID) }
