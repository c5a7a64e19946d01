package framing

import (
	"io"
	"testing"

	"github.com/klauspost/compress/zlib"

	"github.com/kagenova/mcbotswarm/internal/buffer"
)

func newCompressor(t *testing.T) *zlib.Writer {
	t.Helper()
	w, err := zlib.NewWriterLevel(io.Discard, zlib.BestSpeed)
	if err != nil {
		t.Fatalf("zlib.NewWriterLevel: %v", err)
	}
	return w
}

func TestEncodeExtractRoundTripUncompressed(t *testing.T) {
	body := []byte("hello, minecraft")
	dst := buffer.New(32)
	if err := Encode(dst, body, -1, nil); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decompBuf := buffer.New(32)
	frame, consumed, ok, err := TryExtract(dst.IntoWritten(), -1, decompBuf, &zlib.Reader{})
	if err != nil {
		t.Fatalf("TryExtract: %v", err)
	}
	if !ok {
		t.Fatal("TryExtract: ok = false, want true")
	}
	if consumed != len(dst.IntoWritten()) {
		t.Fatalf("consumed = %d, want %d", consumed, len(dst.IntoWritten()))
	}
	if string(frame.Payload) != string(body) {
		t.Fatalf("Payload = %q, want %q", frame.Payload, body)
	}
}

func TestEncodeExtractRoundTripBelowThreshold(t *testing.T) {
	body := []byte("short")
	threshold := 64
	dst := buffer.New(32)
	if err := Encode(dst, body, threshold, newCompressor(t)); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decompBuf := buffer.New(32)
	frame, _, ok, err := TryExtract(dst.IntoWritten(), threshold, decompBuf, &zlib.Reader{})
	if err != nil {
		t.Fatalf("TryExtract: %v", err)
	}
	if !ok {
		t.Fatal("TryExtract: ok = false, want true")
	}
	if string(frame.Payload) != string(body) {
		t.Fatalf("Payload = %q, want %q", frame.Payload, body)
	}
}

func TestEncodeExtractRoundTripCompressed(t *testing.T) {
	threshold := 4
	body := make([]byte, 1024)
	for i := range body {
		body[i] = byte(i % 251)
	}
	dst := buffer.New(32)
	if err := Encode(dst, body, threshold, newCompressor(t)); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decompBuf := buffer.New(2048)
	frame, consumed, ok, err := TryExtract(dst.IntoWritten(), threshold, decompBuf, &zlib.Reader{})
	if err != nil {
		t.Fatalf("TryExtract: %v", err)
	}
	if !ok {
		t.Fatal("TryExtract: ok = false, want true")
	}
	if consumed != len(dst.IntoWritten()) {
		t.Fatalf("consumed = %d, want %d", consumed, len(dst.IntoWritten()))
	}
	if string(frame.Payload) != string(body) {
		t.Fatalf("decompressed payload mismatch, got %d bytes want %d", len(frame.Payload), len(body))
	}
}

func TestTryExtractPartialFrameAcrossTwoReads(t *testing.T) {
	body := []byte("partial delivery test payload")
	dst := buffer.New(64)
	if err := Encode(dst, body, -1, nil); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	whole := dst.IntoWritten()

	decompBuf := buffer.New(64)
	// Feed only the first half: TryExtract must report ok=false, not error.
	half := whole[:len(whole)/2]
	_, _, ok, err := TryExtract(half, -1, decompBuf, &zlib.Reader{})
	if err != nil {
		t.Fatalf("TryExtract(partial): unexpected error %v", err)
	}
	if ok {
		t.Fatal("TryExtract(partial): ok = true, want false")
	}

	// Now the rest arrives.
	frame, consumed, ok, err := TryExtract(whole, -1, decompBuf, &zlib.Reader{})
	if err != nil {
		t.Fatalf("TryExtract(whole): %v", err)
	}
	if !ok {
		t.Fatal("TryExtract(whole): ok = false, want true")
	}
	if consumed != len(whole) {
		t.Fatalf("consumed = %d, want %d", consumed, len(whole))
	}
	if string(frame.Payload) != string(body) {
		t.Fatalf("Payload = %q, want %q", frame.Payload, body)
	}
}

func TestEncodeRejectsOversizedBody(t *testing.T) {
	body := make([]byte, MaxFrameLen+1)
	dst := buffer.New(8)
	err := Encode(dst, body, -1, nil)
	if err == nil {
		t.Fatal("Encode: want ErrPacketTooLarge, got nil")
	}
}

func TestTryExtractZeroSizedPacket(t *testing.T) {
	decompBuf := buffer.New(8)
	_, _, _, err := TryExtract([]byte{0x00}, -1, decompBuf, &zlib.Reader{})
	if err != ErrZeroSizedPacket {
		t.Fatalf("TryExtract = %v, want ErrZeroSizedPacket", err)
	}
}

func TestTryExtractBadlyCompressedBelowThreshold(t *testing.T) {
	// data_len declared smaller than the negotiated threshold is invalid
	// per §4.2 even though the frame is otherwise well-formed.
	threshold := 100
	body := []byte("tiny")
	dst := buffer.New(32)
	// Hand-encode: total_len, data_len=1 (below threshold), then raw bytes
	// (not actually compressed, but TryExtract rejects before decompressing).
	inner := buffer.New(16)
	inner.CopyFrom([]byte{0x01}) // data_len = 1 (VarInt)
	inner.CopyFrom(body)
	total := inner.Len()
	dst.CopyFrom(encodeV21(total))
	dst.CopyFrom(inner.IntoWritten())

	decompBuf := buffer.New(32)
	_, _, _, err := TryExtract(dst.IntoWritten(), threshold, decompBuf, &zlib.Reader{})
	if err == nil {
		t.Fatal("TryExtract: want ErrBadlyCompressed-wrapping error, got nil")
	}
}

func encodeV21(n int) []byte {
	var out []byte
	v := uint32(n)
	for {
		b := byte(v & 0x7F)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			return out
		}
	}
}
