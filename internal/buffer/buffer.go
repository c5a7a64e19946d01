// Package buffer implements the growable byte arena used throughout the
// read/write paths: a single backing array with independent read and write
// cursors, so a frame can be assembled or scanned without per-call
// allocation.
package buffer

// Buffer is a contiguous byte store with readIndex <= writeIndex <= len(data).
// It is not safe for concurrent use; each bot/worker owns its own scratch
// buffers and never shares them across a dispatch boundary.
type Buffer struct {
	data       []byte
	readIndex  int
	writeIndex int
}

// New returns a Buffer with the given initial capacity.
func New(capacity int) *Buffer {
	return &Buffer{data: make([]byte, capacity)}
}

// Reserve returns a slice of exactly n bytes positioned at the current write
// cursor, growing the backing array if necessary. It does NOT advance the
// write cursor — the caller must call AdvanceWrite once the bytes are
// actually initialized.
func (b *Buffer) Reserve(n int) []byte {
	need := b.writeIndex + n
	if need > len(b.data) {
		grown := make([]byte, need*2)
		copy(grown, b.data[:b.writeIndex])
		b.data = grown
	}
	return b.data[b.writeIndex : b.writeIndex+n]
}

// AdvanceWrite marks n bytes (previously obtained via Reserve) as
// initialized. Advancing past the backing array's capacity is a contract
// violation.
func (b *Buffer) AdvanceWrite(n int) {
	if b.writeIndex+n > len(b.data) {
		panic("buffer: advance_write past capacity")
	}
	b.writeIndex += n
}

// AdvanceRead bumps the read cursor by k without compacting the buffer. The
// caller intends to Consume(0) (or another AdvanceRead) later.
func (b *Buffer) AdvanceRead(k int) {
	if b.readIndex+k > b.writeIndex {
		panic("buffer: advance_read past write index")
	}
	b.readIndex += k
}

// CopyFrom appends the given bytes at the write cursor and advances it —
// the common case of "reserve then advance" for a caller that already has
// the bytes in hand.
func (b *Buffer) CopyFrom(p []byte) {
	dst := b.Reserve(len(p))
	copy(dst, p)
	b.AdvanceWrite(len(p))
}

// Written returns the bytes between the read and write cursors — the
// unread-but-written range.
func (b *Buffer) Written() []byte {
	return b.data[b.readIndex:b.writeIndex]
}

// IntoWritten returns everything written so far, ignoring the read cursor.
// Used by the encode paths (netio, testutil) and by tests that want the
// full accumulated payload.
func (b *Buffer) IntoWritten() []byte {
	return b.data[:b.writeIndex]
}

// Consume removes k bytes from the front of the unread range by shifting the
// remaining (writeIndex-readIndex-k) bytes to offset 0 and resetting both
// cursors. This is O(unread), not a cheap cursor bump, so that a subsequent
// Reserve sees the full capacity again — the "compact to front" trick the
// read path depends on (including the Consume(0) no-op-shift idiom used to
// compact without discarding any unread bytes).
func (b *Buffer) Consume(k int) {
	if b.readIndex+k > b.writeIndex {
		panic("buffer: consume past write index")
	}
	remaining := b.writeIndex - b.readIndex - k
	copy(b.data[0:remaining], b.data[b.readIndex+k:b.writeIndex])
	b.readIndex = 0
	b.writeIndex = remaining
}

// Reset rewinds both cursors to zero, discarding all content. Used by
// per-worker scratch buffers at the top of every dispatch.
func (b *Buffer) Reset() {
	b.readIndex = 0
	b.writeIndex = 0
}

// Len returns the number of unread bytes.
func (b *Buffer) Len() int {
	return b.writeIndex - b.readIndex
}

// Cap returns the capacity of the backing array.
func (b *Buffer) Cap() int {
	return len(b.data)
}
