package swarm

import (
	"github.com/asynkron/protoactor-go/actor"

	"github.com/kagenova/mcbotswarm/internal/chatcorpus"
	"github.com/kagenova/mcbotswarm/internal/config"
	"github.com/kagenova/mcbotswarm/internal/logging"
)

// Supervisor is the top-level actor owning every Worker (§5 "a small fixed
// pool of OS threads, each running one reactor loop" — realized here as
// one actor per configured thread). It routes ConnectBot by spawn index
// modulo worker count and broadcasts Tick/Stop, generalized from the
// teacher's WorldManagerActor (which played the analogous top-level
// "owns and routes to the whole population" role for WorldManagerActor →
// PlayerSessionActor).
type Supervisor struct {
	cfg     *config.Config
	corpus  *chatcorpus.Corpus
	uiPID   *actor.PID
	workers []*actor.PID
	// Counters is indexed in parallel with workers, owned here so main can
	// hand the same slice to the UI consumer without going through the
	// actor system.
	Counters []*WorkerCounters
}

// NewCounters allocates one zero-valued WorkerCounters per thread. Callers
// that need the counters before the Supervisor exists (e.g. to spawn a UI
// consumer whose PID is then handed into the Supervisor) call this first,
// then pass the result into NewSupervisorProps.
func NewCounters(cfg *config.Config) []*WorkerCounters {
	counters := make([]*WorkerCounters, cfg.Threads)
	for i := range counters {
		counters[i] = &WorkerCounters{}
	}
	return counters
}

// NewSupervisorProps builds actor.Props for the Supervisor; it spawns its
// Worker children on Started, one per cfg.Threads. counters is typically
// the result of NewCounters, but NewSupervisorProps will allocate its own
// if given nil.
func NewSupervisorProps(cfg *config.Config, corpus *chatcorpus.Corpus, uiPID *actor.PID, counters []*WorkerCounters) *actor.Props {
	if counters == nil {
		counters = NewCounters(cfg)
	}
	return actor.PropsFromProducer(func() actor.Actor {
		return &Supervisor{cfg: cfg, corpus: corpus, uiPID: uiPID, Counters: counters}
	})
}

func (sup *Supervisor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		sup.spawnWorkers(ctx)

	case *ConnectBot:
		if len(sup.workers) == 0 {
			return
		}
		target := sup.workers[msg.Index%len(sup.workers)]
		ctx.Send(target, msg)

	case *Tick, *Stop:
		for _, w := range sup.workers {
			ctx.Send(w, msg)
		}

	case *BotConnected, *BotDisconnected, *WorkerTPS:
		// Workers forward these straight to the UI PID they were given;
		// the Supervisor does not sit on that path.

	case *actor.Terminated:
		logging.LogDebugf("worker terminated: %s", msg.Who.String())
	}
}

func (sup *Supervisor) spawnWorkers(ctx actor.Context) {
	for i := 0; i < sup.cfg.Threads; i++ {
		props := NewWorkerProps(i, sup.cfg, sup.corpus, sup.Counters[i], sup.uiPID)
		pid := ctx.Spawn(props)
		ctx.Watch(pid)
		sup.workers = append(sup.workers, pid)
	}
}
