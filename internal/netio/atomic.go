package netio

import "sync/atomic"

// int32box is a tiny named wrapper so Connector's field reads as
// "the threshold" rather than a bare atomic.Int32 at the call site.
type int32box struct {
	v atomic.Int32
}

func (b *int32box) store(n int32) { b.v.Store(n) }
func (b *int32box) load() int32   { return b.v.Load() }
