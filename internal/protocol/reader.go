// Package protocol declares the Minecraft Java Edition packet types used by
// a bot session (§4.3): per-packet Decode/Encode/ExpectedSize methods and a
// per-protocol-state dispatch trait, generalizing the teacher's
// ClientServerMessage envelope into real wire-format packets.
package protocol

import (
	"fmt"
	"unicode/utf8"

	"github.com/kagenova/mcbotswarm/internal/protoerr"
	"github.com/kagenova/mcbotswarm/internal/varint"
)

// MaxStringLen bounds VarInt-prefixed string/byte-slice reads so a corrupt
// or hostile length prefix cannot trigger a multi-gigabyte allocation.
const MaxStringLen = 1 << 20

// cursor is a read-only walk over one packet body, used by every Decode
// method. It never panics; every short read becomes protoerr.EOF.
type cursor struct {
	data []byte
	pos  int
}

func newCursor(data []byte) *cursor { return &cursor{data: data} }

func (c *cursor) remaining() []byte { return c.data[c.pos:] }

func (c *cursor) take(n int) ([]byte, error) {
	if c.pos+n > len(c.data) {
		return nil, protoerr.EOF
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

func (c *cursor) varInt() (int32, error) {
	n, size, err := varint.Decode(c.remaining(), varint.Width32)
	if err != nil {
		return 0, wrapVarintErr(err)
	}
	c.pos += size
	return int32(n), nil
}

func wrapVarintErr(err error) error {
	switch {
	case err == varint.ErrEOF:
		return protoerr.EOF
	case err == varint.ErrBadData:
		return protoerr.BadData
	default:
		return err
	}
}

func (c *cursor) bool() (bool, error) {
	b, err := c.take(1)
	if err != nil {
		return false, err
	}
	return b[0] != 0, nil
}

func (c *cursor) u8() (uint8, error) {
	b, err := c.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *cursor) i16() (int16, error) {
	b, err := c.take(2)
	if err != nil {
		return 0, err
	}
	return int16(uint16(b[0])<<8 | uint16(b[1])), nil
}

func (c *cursor) u16() (uint16, error) {
	b, err := c.take(2)
	if err != nil {
		return 0, err
	}
	return uint16(b[0])<<8 | uint16(b[1]), nil
}

func (c *cursor) i32() (int32, error) {
	b, err := c.take(4)
	if err != nil {
		return 0, err
	}
	return int32(uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])), nil
}

func (c *cursor) i64() (int64, error) {
	b, err := c.take(8)
	if err != nil {
		return 0, err
	}
	var v uint64
	for i := 0; i < 8; i++ {
		v = v<<8 | uint64(b[i])
	}
	return int64(v), nil
}

func (c *cursor) f32() (float32, error) {
	n, err := c.i32()
	if err != nil {
		return 0, err
	}
	return int32BitsToFloat32(n), nil
}

func (c *cursor) f64() (float64, error) {
	n, err := c.i64()
	if err != nil {
		return 0, err
	}
	return int64BitsToFloat64(n), nil
}

func (c *cursor) varIntPrefixedBytes() ([]byte, error) {
	n, err := c.varInt()
	if err != nil {
		return nil, err
	}
	if n < 0 || int(n) > MaxStringLen {
		return nil, protoerr.BadData
	}
	return c.take(int(n))
}

func (c *cursor) string() (string, error) {
	b, err := c.varIntPrefixedBytes()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", protoerr.BadData
	}
	return string(b), nil
}

func (c *cursor) uuid() ([16]byte, error) {
	var out [16]byte
	b, err := c.take(16)
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}

// remainingBytes captures "all bytes left" without a length prefix, for
// fields declared with the Remaining terminator.
func (c *cursor) remainingBytes() []byte {
	b := c.data[c.pos:]
	c.pos = len(c.data)
	return b
}

// finish reports DirtyBuffer if the cursor did not consume exactly its
// input, per §4.3's dispatch contract.
func (c *cursor) finish() error {
	if c.pos != len(c.data) {
		return fmt.Errorf("protocol: %d trailing bytes: %w", len(c.data)-c.pos, protoerr.DirtyBuffer)
	}
	return nil
}
