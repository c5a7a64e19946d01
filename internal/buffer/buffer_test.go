package buffer

import "testing"

func TestReserveAdvanceWrittenRoundTrip(t *testing.T) {
	b := New(4)
	dst := b.Reserve(3)
	copy(dst, []byte{1, 2, 3})
	b.AdvanceWrite(3)

	if got := b.Written(); string(got) != string([]byte{1, 2, 3}) {
		t.Fatalf("Written() = %v, want [1 2 3]", got)
	}
}

func TestReserveGrowsBackingArray(t *testing.T) {
	b := New(2)
	dst := b.Reserve(10)
	if len(dst) != 10 {
		t.Fatalf("Reserve(10) returned slice of len %d", len(dst))
	}
	if b.Cap() < 10 {
		t.Fatalf("Cap() = %d, want >= 10", b.Cap())
	}
}

func TestConsumeCompactsToFront(t *testing.T) {
	b := New(16)
	b.CopyFrom([]byte("hello world"))
	b.AdvanceRead(6) // "hello "
	b.Consume(0)     // compact without discarding anything unread

	if got := string(b.Written()); got != "world" {
		t.Fatalf("Written() after Consume(0) = %q, want %q", got, "world")
	}

	b.Consume(2) // drop "wo"
	if got := string(b.Written()); got != "rld" {
		t.Fatalf("Written() after Consume(2) = %q, want %q", got, "rld")
	}
}

func TestConsumePreservesTrailingUnreadBytes(t *testing.T) {
	b := New(16)
	b.CopyFrom([]byte("ABCDEF"))
	b.Consume(2) // "AB" consumed, "CDEF" remains

	if got := string(b.Written()); got != "CDEF" {
		t.Fatalf("Written() = %q, want %q", got, "CDEF")
	}
	// A subsequent Reserve must see the freed capacity at the front.
	dst := b.Reserve(4)
	copy(dst, []byte("GHIJ"))
	b.AdvanceWrite(4)
	if got := string(b.Written()); got != "CDEFGHIJ" {
		t.Fatalf("Written() = %q, want %q", got, "CDEFGHIJ")
	}
}

func TestResetDiscardsContent(t *testing.T) {
	b := New(8)
	b.CopyFrom([]byte("xyz"))
	b.Reset()
	if b.Len() != 0 {
		t.Fatalf("Len() after Reset = %d, want 0", b.Len())
	}
	if len(b.Written()) != 0 {
		t.Fatalf("Written() after Reset = %v, want empty", b.Written())
	}
}

func TestAdvanceWritePastCapacityPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic advancing past capacity")
		}
	}()
	b := New(2)
	b.Reserve(2)
	b.AdvanceWrite(3)
}

func TestConsumePastWriteIndexPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic consuming past write index")
		}
	}()
	b := New(4)
	b.CopyFrom([]byte("ab"))
	b.Consume(5)
}
