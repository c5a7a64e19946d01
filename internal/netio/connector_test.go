package netio

import (
	"net"
	"testing"
	"time"

	"github.com/asynkron/protoactor-go/actor"

	"github.com/kagenova/mcbotswarm/internal/buffer"
	"github.com/kagenova/mcbotswarm/internal/framing"
)

func collectorProps(reports chan interface{}) *actor.Props {
	return actor.PropsFromFunc(func(ctx actor.Context) {
		switch ctx.Message().(type) {
		case *actor.Started:
		default:
			select {
			case reports <- ctx.Message():
			default:
			}
		}
	})
}

func TestConnectorReadLoopDeliversFrameReceived(t *testing.T) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	c, err := Dial(ln.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.CloseAsync()

	serverConn := <-accepted
	defer serverConn.Close()

	system := actor.NewActorSystem()
	reports := make(chan interface{}, 4)
	target := system.Root.Spawn(collectorProps(reports))
	c.Start(system, target)

	dst := buffer.New(32)
	if err := framing.Encode(dst, []byte{0x01, 0x02, 0x03}, -1, nil); err != nil {
		t.Fatalf("framing.Encode: %v", err)
	}
	if _, err := serverConn.Write(dst.Written()); err != nil {
		t.Fatalf("server write: %v", err)
	}

	select {
	case msg := <-reports:
		fr, ok := msg.(*FrameReceived)
		if !ok {
			t.Fatalf("got %T, want *FrameReceived", msg)
		}
		if len(fr.Payload) != 3 || fr.Payload[0] != 0x01 {
			t.Fatalf("Payload = %v, want [1 2 3]", fr.Payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for FrameReceived")
	}
}

func TestConnectorReadLoopReportsConnectionClosedOnPeerHangUp(t *testing.T) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	c, err := Dial(ln.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.CloseAsync()

	serverConn := <-accepted
	serverConn.Close()

	system := actor.NewActorSystem()
	reports := make(chan interface{}, 4)
	target := system.Root.Spawn(collectorProps(reports))
	c.Start(system, target)

	select {
	case msg := <-reports:
		if _, ok := msg.(*ConnectionClosed); !ok {
			t.Fatalf("got %T, want *ConnectionClosed", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for ConnectionClosed")
	}
}

func TestEncodeAndSendWritesAssembledFrameToPeer(t *testing.T) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	c, err := Dial(ln.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.CloseAsync()

	serverConn := <-accepted
	defer serverConn.Close()

	n, err := c.EncodeAndSend([]byte{0x10, 0x20})
	if err != nil {
		t.Fatalf("EncodeAndSend: %v", err)
	}
	if n <= 0 {
		t.Fatalf("n = %d, want > 0", n)
	}

	serverConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	readBuf := make([]byte, 64)
	read, err := serverConn.Read(readBuf)
	if err != nil {
		t.Fatalf("server read: %v", err)
	}

	decompBuf := buffer.New(32)
	frame, consumed, ok, err := framing.TryExtract(readBuf[:read], -1, decompBuf, nil)
	if err != nil {
		t.Fatalf("TryExtract: %v", err)
	}
	if !ok {
		t.Fatal("TryExtract: ok=false, want a complete frame")
	}
	if consumed != read {
		t.Fatalf("consumed = %d, want %d", consumed, read)
	}
	if len(frame.Payload) != 2 || frame.Payload[0] != 0x10 || frame.Payload[1] != 0x20 {
		t.Fatalf("Payload = %v, want [16 32]", frame.Payload)
	}
}

func TestCompressionThresholdStoreAndLoadRoundTrip(t *testing.T) {
	c := &Connector{}
	c.threshold.store(-1)
	if got := c.compressionThreshold(); got != -1 {
		t.Fatalf("compressionThreshold() = %d, want -1", got)
	}
	c.SetCompressionThreshold(256)
	if got := c.compressionThreshold(); got != 256 {
		t.Fatalf("compressionThreshold() = %d, want 256", got)
	}
}
