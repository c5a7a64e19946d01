// Package framing implements the length-prefixed, optionally zlib-compressed
// packet envelope described by spec §4.2: a V21 total length, an optional
// VarInt data_len sub-header when compression is negotiated, and the
// (possibly compressed) body.
package framing

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/kagenova/mcbotswarm/internal/buffer"
	"github.com/kagenova/mcbotswarm/internal/protoerr"
	"github.com/kagenova/mcbotswarm/internal/varint"
)

// MaxFrameLen is the largest total_len a V21 (3-byte) varint can express:
// 2,097,151, clamped down to 2,097,148 per spec so the compressed-frame math
// (3 bytes of data_len header) never overflows the V21 ceiling.
const MaxFrameLen = 2_097_148

// ErrPacketTooLarge, ErrZeroSizedPacket and ErrBadlyCompressed are the
// framing-specific names for three of protoerr's taxonomy, kept as local
// aliases so call sites in this package read as framing errors while still
// satisfying errors.Is(err, protoerr.PacketTooLarge) etc. for callers that
// only know the shared taxonomy.
var (
	ErrPacketTooLarge  = protoerr.PacketTooLarge
	ErrZeroSizedPacket = protoerr.ZeroSizedPacket
	ErrBadlyCompressed = protoerr.BadlyCompressed
)

// Encode writes one outbound frame for body into dst, applying the
// compression rule for threshold (threshold <= 0 disables compression; a
// body shorter than threshold is sent uncompressed with a data_len=0
// sentinel; otherwise it is zlib-compressed and data_len is the
// uncompressed length).
func Encode(dst *buffer.Buffer, body []byte, threshold int, compressor *zlib.Writer) error {
	if len(body) > MaxFrameLen {
		return fmt.Errorf("framing: body %d bytes: %w", len(body), ErrPacketTooLarge)
	}

	if threshold <= 0 {
		writeV21(dst, len(body))
		dst.CopyFrom(body)
		return nil
	}

	if len(body) < threshold {
		lenSlot := reserveV21(dst, 3+len(body))
		varint.NewLazy(lenSlot, varint.Width21).Write(int64(3 + len(body)))
		dataLenSlot := dst.Reserve(3)
		dst.AdvanceWrite(3)
		varint.NewLazy(dataLenSlot, varint.Width21).Write(0)
		dst.CopyFrom(body)
		return nil
	}

	var compressed bytes.Buffer
	compressor.Reset(&compressed)
	if _, err := compressor.Write(body); err != nil {
		return fmt.Errorf("framing: compress: %v: %w", err, protoerr.Compression)
	}
	if err := compressor.Close(); err != nil {
		return fmt.Errorf("framing: compress: %v: %w", err, protoerr.Compression)
	}

	total := 3 + compressed.Len()
	if total > MaxFrameLen {
		return fmt.Errorf("framing: compressed frame %d bytes: %w", total, ErrPacketTooLarge)
	}
	writeV21(dst, total)
	dataLenSlot := dst.Reserve(3)
	dst.AdvanceWrite(3)
	varint.NewLazy(dataLenSlot, varint.Width21).Write(int64(len(body)))
	dst.CopyFrom(compressed.Bytes())
	return nil
}

// writeV21 appends a minimal-length V21 varint for n, it does not need the
// lazy reservation since the frame length is always known up front for
// outbound packets.
func writeV21(dst *buffer.Buffer, n int) {
	dst.CopyFrom(varint.Encode(nil, int64(n)))
}

// reserveV21 reserves exactly 3 bytes (the width of a V21 length prefix) and
// returns the slot for a Lazy writer, advancing the write cursor.
func reserveV21(dst *buffer.Buffer, _ int) []byte {
	slot := dst.Reserve(3)
	dst.AdvanceWrite(3)
	return slot
}

// Frame is one decoded, still-compressed-or-not inbound payload: packet id
// plus body, already stripped of length/compression framing.
type Frame struct {
	Payload []byte // id byte followed by body
}

// TryExtract attempts to pull one complete frame out of the front of data.
// It returns the frame, the number of input bytes consumed, and ok=false if
// data does not yet contain a complete frame (the caller should read more).
// threshold <= 0 means compression is disabled. decompBuf is scratch space
// reused across calls within one dispatch batch; the returned Frame.Payload
// may alias into it.
func TryExtract(data []byte, threshold int, decompBuf *buffer.Buffer, decompressor *zlib.Reader) (frame Frame, consumed int, ok bool, err error) {
	totalLen, lenSize, complete, err := peekV21(data)
	if err != nil {
		return Frame{}, 0, false, err
	}
	if !complete {
		return Frame{}, 0, false, nil
	}
	if totalLen == 0 {
		return Frame{}, 0, false, ErrZeroSizedPacket
	}
	if totalLen > MaxFrameLen {
		return Frame{}, 0, false, fmt.Errorf("framing: declared length %d: %w", totalLen, ErrPacketTooLarge)
	}
	need := lenSize + totalLen
	if len(data) < need {
		return Frame{}, 0, false, nil
	}
	body := data[lenSize:need]

	if threshold <= 0 {
		return Frame{Payload: body}, need, true, nil
	}

	dataLen, dataLenSize, complete, err := peekVarInt(body)
	if err != nil {
		return Frame{}, 0, false, err
	}
	if !complete {
		return Frame{}, 0, false, fmt.Errorf("framing: truncated data_len header")
	}
	rest := body[dataLenSize:]

	if dataLen == 0 {
		return Frame{Payload: rest}, need, true, nil
	}
	if dataLen < threshold {
		return Frame{}, 0, false, fmt.Errorf("framing: data_len %d below threshold %d: %w", dataLen, threshold, ErrBadlyCompressed)
	}
	if dataLen > MaxFrameLen {
		return Frame{}, 0, false, fmt.Errorf("framing: data_len %d: %w", dataLen, ErrPacketTooLarge)
	}

	decompBuf.Reset()
	if err := decompressor.Reset(noOpReadCloser{bytes.NewReader(rest)}, nil); err != nil {
		return Frame{}, 0, false, fmt.Errorf("framing: decompress reset: %v: %w", err, protoerr.Decompression)
	}
	out := decompBuf.Reserve(dataLen)
	n, err := io.ReadFull(decompressor, out)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return Frame{}, 0, false, fmt.Errorf("framing: decompress: %v: %w", err, protoerr.Decompression)
	}
	if n != dataLen {
		return Frame{}, 0, false, fmt.Errorf("framing: decompressed %d bytes, wanted %d: %w", n, dataLen, ErrBadlyCompressed)
	}
	decompBuf.AdvanceWrite(dataLen)
	return Frame{Payload: decompBuf.Written()}, need, true, nil
}

type noOpReadCloser struct{ io.Reader }

func (noOpReadCloser) Close() error { return nil }

// peekV21 parses a leading V21 length prefix, tolerating the partial-input
// special cases from spec §4.2: a first byte of 0x01 with a second byte
// present is a 1-byte payload; a lone 0x00 is ErrZeroSizedPacket; otherwise
// an incomplete prefix requests more data via complete=false.
func peekV21(data []byte) (value, size int, complete bool, err error) {
	if len(data) == 0 {
		return 0, 0, false, nil
	}
	if data[0] == 0x00 {
		return 0, 1, true, nil
	}
	if data[0] == 0x01 {
		if len(data) < 2 {
			return 0, 0, false, nil
		}
		return 1, 1, true, nil
	}
	n, size, err := varint.Decode(data, varint.Width21)
	if errors.Is(err, varint.ErrEOF) {
		return 0, 0, false, nil
	}
	if err != nil {
		return 0, 0, false, err
	}
	return int(n), size, true, nil
}

func peekVarInt(data []byte) (value, size int, complete bool, err error) {
	n, size, err := varint.Decode(data, varint.Width32)
	if errors.Is(err, varint.ErrEOF) {
		return 0, 0, false, nil
	}
	if err != nil {
		return 0, 0, false, err
	}
	return int(n), size, true, nil
}
