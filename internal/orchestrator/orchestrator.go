// Package orchestrator runs the three goroutines that sit above the actor
// tree and drive it from the outside: a Spawner trickling ConnectBot
// messages in at the configured join rate, a Ticker broadcasting Tick at a
// fixed period, and a UIConsumer printing periodic aggregate stats. All
// three are supervised by golang.org/x/sync/errgroup, generalized from the
// teacher's top-level wiring in cmd/game/main.go (which starts the TCP
// accept loop and the signal-handling goroutine side by side).
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/asynkron/protoactor-go/actor"

	"github.com/kagenova/mcbotswarm/internal/config"
	"github.com/kagenova/mcbotswarm/internal/logging"
	"github.com/kagenova/mcbotswarm/internal/swarm"
)

// Spawner sends one ConnectBot per joinRate tick until count bots have
// been requested, or ctx is cancelled first (§4.4 "ramp bots in at a
// configurable rate rather than all at once").
type Spawner struct {
	system   *actor.ActorSystem
	target   *actor.PID
	count    int
	joinRate time.Duration
}

func NewSpawner(system *actor.ActorSystem, target *actor.PID, cfg *config.Config) *Spawner {
	return &Spawner{system: system, target: target, count: cfg.Count, joinRate: cfg.JoinRate}
}

func (s *Spawner) Run(ctx context.Context) error {
	if s.count == 0 {
		return nil
	}
	ticker := time.NewTicker(s.joinRate)
	defer ticker.Stop()

	for i := 0; i < s.count; i++ {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.system.Root.Send(s.target, &swarm.ConnectBot{Index: i, Username: fmt.Sprintf("bot-%d", i)})
		}
	}
	logging.LogInfof("spawner: requested all %d bots", s.count)
	return nil
}

// Ticker broadcasts Tick at a fixed period, accumulating the next deadline
// from a start time instead of sleeping a fixed duration each iteration so
// scheduling jitter doesn't accumulate into long-run drift.
type Ticker struct {
	system   *actor.ActorSystem
	target   *actor.PID
	tickRate time.Duration
}

func NewTicker(system *actor.ActorSystem, target *actor.PID, cfg *config.Config) *Ticker {
	return &Ticker{system: system, target: target, tickRate: cfg.TickRate}
}

func (t *Ticker) Run(ctx context.Context) error {
	start := time.Now()
	var seq int64

	next := start.Add(t.tickRate)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Until(next)):
			seq++
			t.system.Root.Send(t.target, &swarm.Tick{Seq: seq})
			next = start.Add(t.tickRate * time.Duration(seq+1))
		}
	}
}

// uiState is the status aggregated across all workers, accumulated from
// BotConnected/BotDisconnected/WorkerTPS messages.
type uiState struct {
	connected    int
	disconnected int
	tpsSum       float64
	tpsCount     int
}

// UIConsumer drains BotConnected/BotDisconnected/WorkerTPS from its own
// mailbox and periodically logs an aggregate line at INFO level through
// internal/logging (the standard logger, which writes to stderr) — a
// deliberately minimal stand-in for a full terminal dashboard, which is out
// of scope here the same way the teacher never builds an operator UI
// either.
type UIConsumer struct {
	system   *actor.ActorSystem
	pid      *actor.PID
	counters []*swarm.WorkerCounters
	rate     time.Duration

	msgs chan interface{}

	state uiState
}

// NewUIConsumer spawns the actor that feeds UIConsumer.Run and returns both
// the consumer and its PID, so callers can wire the PID into
// swarm.NewSupervisorProps before starting Run.
func NewUIConsumer(system *actor.ActorSystem, counters []*swarm.WorkerCounters, cfg *config.Config) (*UIConsumer, *actor.PID) {
	u := &UIConsumer{
		system:   system,
		counters: counters,
		rate:     cfg.UIUpdateRate,
		msgs:     make(chan interface{}, 1024),
	}
	props := actor.PropsFromFunc(func(ctx actor.Context) {
		switch msg := ctx.Message().(type) {
		case *swarm.BotConnected, *swarm.BotDisconnected, *swarm.WorkerTPS:
			select {
			case u.msgs <- msg:
			default:
				// UI lags behind; drop rather than block the worker that's
				// trying to report in.
			}
		}
	})
	u.pid = system.Root.Spawn(props)
	return u, u.pid
}

func (u *UIConsumer) Run(ctx context.Context) error {
	ticker := time.NewTicker(u.rate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case msg := <-u.msgs:
			switch m := msg.(type) {
			case *swarm.BotConnected:
				u.state.connected++
			case *swarm.BotDisconnected:
				u.state.disconnected++
			case *swarm.WorkerTPS:
				u.state.tpsSum += m.Sum
				u.state.tpsCount += m.Count
			}

		case <-ticker.C:
			u.printSnapshot()
		}
	}
}

func (u *UIConsumer) printSnapshot() {
	var bytesTx, bytesRx, packetsTx, packetsRx uint64
	for _, c := range u.counters {
		snap := c.Snapshot()
		bytesTx += snap.BytesTx
		bytesRx += snap.BytesRx
		packetsTx += snap.PacketsTx
		packetsRx += snap.PacketsRx
	}

	avgTPS := 0.0
	if u.state.tpsCount > 0 {
		avgTPS = u.state.tpsSum / float64(u.state.tpsCount)
	}

	logging.LogInfof(
		"bots connected=%d disconnected=%d | tx=%dB/%dpkt rx=%dB/%dpkt | tps=%.2f",
		u.state.connected, u.state.disconnected,
		bytesTx, packetsTx, bytesRx, packetsRx, avgTPS,
	)
}
