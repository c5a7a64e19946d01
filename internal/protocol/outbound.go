package protocol

// Outbound is implemented by every C2S packet type: ExpectedSize is an
// upper bound used to pre-size the assembly buffer (§4.3 — underestimating
// is a correctness bug, so every implementation rounds up), Encode writes
// the packet body in field order.
type Outbound interface {
	ExpectedSize() int
	Encode() []byte
}

// EncodeBody prepends the packet's VarInt id to its encoded body, producing
// the full "id + fields" payload the framing layer treats as one body.
func EncodeBody(id int32, p Outbound) []byte {
	w := &writer{}
	w.varInt(id)
	out := make([]byte, 0, upperBoundVarInt+p.ExpectedSize())
	out = append(out, w.buf...)
	out = append(out, p.Encode()...)
	return out
}
