// Package testutil provides an in-process mock Minecraft server used by
// package tests to drive a bot Session through handshake, login and a
// handful of play-state packets without a real server — adapted from the
// teacher's standalone TCP client tool (net.Dial, one reader goroutine,
// one writer side), inverted here from dial-and-chat into accept-and-serve
// the protocol under test.
package testutil

import (
	"bytes"
	"net"

	"github.com/klauspost/compress/zlib"

	"github.com/kagenova/mcbotswarm/internal/buffer"
	"github.com/kagenova/mcbotswarm/internal/framing"
	"github.com/kagenova/mcbotswarm/internal/protocol"
	"github.com/kagenova/mcbotswarm/internal/varint"
)

// MockServer accepts exactly one connection and lets the test script a
// scripted exchange: read one client frame, write one server frame, repeat.
type MockServer struct {
	ln        net.Listener
	threshold int
}

// NewMockServer starts listening on an ephemeral local port. threshold < 0
// disables compression for the whole session, matching the framing rule
// (§4.2) of "no SetCompression packet ever sent".
func NewMockServer(threshold int) (*MockServer, error) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	return &MockServer{ln: ln, threshold: threshold}, nil
}

// Addr returns the host:port a bot Session should dial.
func (m *MockServer) Addr() string { return m.ln.Addr().String() }

// Close stops accepting new connections.
func (m *MockServer) Close() error { return m.ln.Close() }

// Accept blocks for the single inbound connection and wraps it in a
// MockConn for scripted reads/writes.
func (m *MockServer) Accept() (*MockConn, error) {
	conn, err := m.ln.Accept()
	if err != nil {
		return nil, err
	}
	c := &MockConn{
		conn:         conn,
		threshold:    m.threshold,
		readBuf:      buffer.New(4096),
		decompBuf:    buffer.New(4096),
		decompressor: &zlib.Reader{},
	}
	if threshold := m.threshold; threshold > 0 {
		compressor, err := zlib.NewWriterLevel(nil, zlib.BestSpeed)
		if err != nil {
			return nil, err
		}
		c.compressor = compressor
	}
	return c, nil
}

// MockConn is the server side of one accepted connection, offering blocking
// frame-at-a-time read/write built on the same framing package the bot
// client uses, so round-trip tests exercise the real wire format in both
// directions.
type MockConn struct {
	conn         net.Conn
	threshold    int
	readBuf      *buffer.Buffer
	decompBuf    *buffer.Buffer
	decompressor *zlib.Reader
	compressor   *zlib.Writer
}

// Close closes the underlying connection.
func (c *MockConn) Close() error { return c.conn.Close() }

// ReadFrame blocks until one complete inbound frame (id byte + body) has
// been decoded, reading in small chunks the way a real OS socket delivers
// partial TCP segments.
func (c *MockConn) ReadFrame() ([]byte, error) {
	for {
		data := c.readBuf.Written()
		frame, consumed, ok, err := framing.TryExtract(data, c.threshold, c.decompBuf, c.decompressor)
		if err != nil {
			return nil, err
		}
		if ok {
			c.readBuf.Consume(consumed)
			return append([]byte(nil), frame.Payload...), nil
		}

		probe := c.readBuf.Reserve(2048)
		n, err := c.conn.Read(probe)
		if n > 0 {
			c.readBuf.AdvanceWrite(n)
		}
		if err != nil && n == 0 {
			return nil, err
		}
	}
}

// WriteFrame encodes body (an id-prefixed packet payload, e.g. from
// protocol.EncodeBody) through the same framing.Encode the real server
// would use, at whatever threshold NewMockServer was given, and writes it
// to the connection.
func (c *MockConn) WriteFrame(body []byte) error {
	dst := buffer.New(len(body) + 16)
	// framing.Encode only dereferences compressor on the threshold>0 path,
	// so a nil compressor (uncompressed servers never allocate one) is safe.
	if err := framing.Encode(dst, body, c.threshold, c.compressor); err != nil {
		return err
	}
	_, err := c.conn.Write(dst.IntoWritten())
	return err
}

// WriteLoginSuccess sends LoginSuccess so the Session under test
// transitions into the Play state. No real server package exposes an
// S2C encoder (only the bot client encodes C2S packets), so this test
// helper builds the wire bytes directly from the shared varint encoder.
func (c *MockConn) WriteLoginSuccess(uuid [16]byte, username string) error {
	var buf bytes.Buffer
	buf.Write(varint.Encode(nil, int64(protocol.LoginSuccessPacketID)))
	buf.Write(uuid[:])
	buf.Write(varint.Encode(nil, int64(len(username))))
	buf.WriteString(username)
	return c.WriteFrame(buf.Bytes())
}
