// Package netio owns the per-bot socket: a goroutine that dials out, reads
// frames and forwards them into the owning session's actor mailbox, and a
// bounded write-pump channel draining into the same net.Conn — Go's
// idiomatic substitute for a hand-rolled non-blocking reactor (§4.6),
// grounded on the teacher's accept/handle-connection loop (inverted from
// accept to dial) and la2go's GameClient.writePump batching.
package netio

import (
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/klauspost/compress/zlib"

	"github.com/kagenova/mcbotswarm/internal/buffer"
	"github.com/kagenova/mcbotswarm/internal/framing"
	"github.com/kagenova/mcbotswarm/internal/protoerr"
)

const (
	readProbeSize  = 2048
	sendQueueDepth = 64
	writeTimeout   = 10 * time.Second
)

// FrameReceived is delivered to the owning session's mailbox for every
// fully-framed inbound payload (packet id + body, post decompression).
type FrameReceived struct {
	Payload []byte
}

// ConnectionClosed is delivered exactly once, when the read loop exits for
// any reason (peer close, I/O error, protocol framing error).
type ConnectionClosed struct {
	Err error
}

// Connector owns one bot's net.Conn plus its read goroutine and write
// pump. threshold is updated once (on SetCompression) and read by the read
// loop and by EncodeAndSend on the owning actor's goroutine; the write pump
// never reads it. A single-writer/multi-reader int32 needs no lock
// beyond atomic load/store, mirroring the per-worker counters' Relaxed
// ordering contract (§5).
type Connector struct {
	conn       net.Conn
	sendCh     chan []byte
	closed     chan struct{}
	compressor *zlib.Writer

	threshold int32box
}

// Dial opens a TCP connection to addr (already resolved to host:port). It
// does not start reading or writing; call Start once the owning actor is
// ready to receive FrameReceived/ConnectionClosed.
func Dial(addr string) (*Connector, error) {
	conn, err := net.Dial("tcp4", addr)
	if err != nil {
		return nil, fmt.Errorf("netio: dial %s: %w", addr, err)
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}
	compressor, err := zlib.NewWriterLevel(io.Discard, zlib.BestSpeed)
	if err != nil {
		return nil, fmt.Errorf("netio: init compressor: %w", err)
	}
	c := &Connector{
		conn:       conn,
		sendCh:     make(chan []byte, sendQueueDepth),
		closed:     make(chan struct{}),
		compressor: compressor,
	}
	c.threshold.store(-1)
	return c, nil
}

// SetCompressionThreshold updates the threshold applied to subsequent
// writes and reads; threshold < 0 disables compression.
func (c *Connector) SetCompressionThreshold(threshold int32) {
	c.threshold.store(threshold)
}

func (c *Connector) compressionThreshold() int32 {
	return c.threshold.load()
}

// Start launches the write pump and the read loop. Both exit when the
// connection closes.
func (c *Connector) Start(system *actor.ActorSystem, target *actor.PID) {
	go c.writePump()
	go c.readLoop(system, target)
}

// Send enqueues a pre-assembled outbound frame (length+compression
// envelope already applied). Non-blocking: a full queue means the bot is
// too far behind to keep up, so the connection is closed rather than
// blocking the owning actor's mailbox, mirroring la2go's slow-client
// disconnect-on-full-queue policy.
func (c *Connector) Send(frame []byte) error {
	select {
	case c.sendCh <- frame:
		return nil
	case <-c.closed:
		return protoerr.Closed
	default:
		c.CloseAsync()
		return fmt.Errorf("netio: send queue full")
	}
}

// EncodeAndSend assembles the framing envelope for body at the connector's
// current compression threshold and enqueues it, returning the number of
// bytes that will be written (for the packets_tx/bytes_tx counters).
func (c *Connector) EncodeAndSend(body []byte) (int, error) {
	dst := buffer.New(len(body) + 16)
	if err := framing.Encode(dst, body, int(c.compressionThreshold()), c.compressor); err != nil {
		return 0, err
	}
	frame := append([]byte(nil), dst.IntoWritten()...)
	if err := c.Send(frame); err != nil {
		return 0, err
	}
	return len(frame), nil
}

func (c *Connector) writePump() {
	for {
		select {
		case frame, ok := <-c.sendCh:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				return
			}
			if _, err := c.conn.Write(frame); err != nil {
				return
			}
		case <-c.closed:
			return
		}
	}
}

// readLoop is the "non-blocking read path" of §4.6 translated to Go's
// blocking-socket model: one goroutine blocks in conn.Read instead of
// polling for readiness, fills a per-bot scratch buffer exactly the way
// unread_buf/read_buf do, and extracts as many complete frames as are
// available before issuing the next OS read.
func (c *Connector) readLoop(system *actor.ActorSystem, target *actor.PID) {
	readBuf := buffer.New(readProbeSize * 4)
	decompBuf := buffer.New(readProbeSize * 4)
	decompressor := &zlib.Reader{}

	var finalErr error
	for {
		probe := readBuf.Reserve(readProbeSize)
		n, err := c.conn.Read(probe)
		if n > 0 {
			readBuf.AdvanceWrite(n)
		}
		if err != nil && n == 0 {
			finalErr = classifyReadErr(err)
			break
		}

		extractErr := error(nil)
	extract:
		for {
			data := readBuf.Written()
			frame, consumed, ok, ferr := framing.TryExtract(data, int(c.compressionThreshold()), decompBuf, decompressor)
			if ferr != nil {
				extractErr = ferr
				break extract
			}
			if !ok {
				break extract
			}
			readBuf.Consume(consumed)
			payload := append([]byte(nil), frame.Payload...)
			system.Root.Send(target, &FrameReceived{Payload: payload})
		}
		if extractErr != nil {
			finalErr = extractErr
			break
		}

		if err != nil {
			finalErr = classifyReadErr(err)
			break
		}
	}

	close(c.closed)
	system.Root.Send(target, &ConnectionClosed{Err: finalErr})
}

func classifyReadErr(err error) error {
	if errors.Is(err, io.EOF) {
		return protoerr.Closed
	}
	return fmt.Errorf("netio: read: %w", err)
}

// CloseAsync closes the underlying connection; safe to call more than
// once. The read loop observes the resulting error and reports
// ConnectionClosed; the write pump observes c.closed.
func (c *Connector) CloseAsync() {
	select {
	case <-c.closed:
		return
	default:
	}
	_ = c.conn.Close()
}

// RemoteAddr exposes the peer address for logging.
func (c *Connector) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }
