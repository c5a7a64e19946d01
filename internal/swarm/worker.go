package swarm

import (
	"fmt"
	"sync/atomic"

	"github.com/asynkron/protoactor-go/actor"

	"github.com/kagenova/mcbotswarm/internal/chatcorpus"
	"github.com/kagenova/mcbotswarm/internal/config"
	"github.com/kagenova/mcbotswarm/internal/logging"
)

// atomicCounter is a single atomic u64 counter (§5), incremented by every
// Session of the owning Worker (each Session is its own actor, so adds may
// run concurrently) and read by the UI consumer.
type atomicCounter struct{ v atomic.Uint64 }

func (c *atomicCounter) add(n uint64) { c.v.Add(n) }
func (c *atomicCounter) load() uint64 { return c.v.Load() }

// WorkerCounters is the four-counter block §3 assigns to each Worker:
// bytes/packets transmitted and received. It is a plain struct of atomics
// (no actor messaging involved): all Sessions of the Worker add to it and
// the UI consumer reads it directly, tolerating slightly stale values, so
// no lock is needed.
type WorkerCounters struct {
	bytesTx, bytesRx, packetsTx, packetsRx atomicCounter
}

// Snapshot is a point-in-time, Relaxed-consistent read of one worker's
// counters, used by the UI consumer.
type Snapshot struct {
	BytesTx, BytesRx, PacketsTx, PacketsRx uint64
}

func (wc *WorkerCounters) Snapshot() Snapshot {
	return Snapshot{
		BytesTx:   wc.bytesTx.load(),
		BytesRx:   wc.bytesRx.load(),
		PacketsTx: wc.packetsTx.load(),
		PacketsRx: wc.packetsRx.load(),
	}
}

// tpsSample is sent by a Session to its Worker whenever HandleTimeUpdate
// computes a fresh estimate; the Worker accumulates sum/count across one
// tick batch before forwarding a single WorkerTPS to the UI (§4.4).
type tpsSample struct {
	value float64
}

// Worker owns one shard of the bot population (§3 "Worker"): a bot table
// (here, the actor system's own child map — protoactor already indexes
// children by PID, so a parallel map is unnecessary), the four atomic
// counters, and round-robin-assigned Session children. It is the
// mailbox-driven stand-in for the spec's reactor thread, generalized from
// the teacher's RoomManagerActor (which played an analogous
// "owns many stateful children, routes requests to them" role).
type Worker struct {
	index    int
	cfg      *config.Config
	corpus   *chatcorpus.Corpus
	counters *WorkerCounters

	sessions map[int]*actor.PID
	uiPID    *actor.PID

	tpsSum   float64
	tpsCount int
}

// NewWorkerProps builds actor.Props for one Worker. counters is owned by
// the caller (main/orchestrator) so the UI consumer can read it without
// going through the actor system; the Worker's Sessions are its writers.
func NewWorkerProps(index int, cfg *config.Config, corpus *chatcorpus.Corpus, counters *WorkerCounters, uiPID *actor.PID) *actor.Props {
	return actor.PropsFromProducer(func() actor.Actor {
		return &Worker{
			index:    index,
			cfg:      cfg,
			corpus:   corpus,
			counters: counters,
			sessions: make(map[int]*actor.PID),
			uiPID:    uiPID,
		}
	})
}

func (w *Worker) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		logging.LogDebugf("worker %d started", w.index)

	case *ConnectBot:
		w.connectBot(ctx, msg)

	case *Tick:
		for _, pid := range w.sessions {
			ctx.Send(pid, msg)
		}
		if w.tpsCount > 0 && w.uiPID != nil {
			ctx.Send(w.uiPID, &WorkerTPS{Sum: w.tpsSum, Count: w.tpsCount})
			w.tpsSum, w.tpsCount = 0, 0
		}

	case *tpsSample:
		w.tpsSum += msg.value
		w.tpsCount++

	case *Stop:
		for _, pid := range w.sessions {
			ctx.Stop(pid)
		}
		ctx.Stop(ctx.Self())

	case *BotConnected:
		if w.uiPID != nil {
			ctx.Send(w.uiPID, msg)
		}

	case *BotDisconnected:
		delete(w.sessions, msg.Index)
		if w.uiPID != nil {
			ctx.Send(w.uiPID, msg)
		}

	case *actor.Terminated:
		w.removeByPID(ctx, msg.Who)
	}
}

func (w *Worker) connectBot(ctx actor.Context, msg *ConnectBot) {
	props := NewSessionProps(w.cfg, w.corpus, msg.Index, w.counters)
	pid := ctx.Spawn(props)
	ctx.Watch(pid)
	w.sessions[msg.Index] = pid
}

func (w *Worker) removeByPID(ctx actor.Context, who *actor.PID) {
	for idx, pid := range w.sessions {
		if pid.Equal(who) {
			delete(w.sessions, idx)
			return
		}
	}
}

func (w *Worker) String() string { return fmt.Sprintf("worker-%d", w.index) }
