package swarm

import (
	"testing"
	"time"

	"github.com/asynkron/protoactor-go/actor"

	"github.com/kagenova/mcbotswarm/internal/config"
)

func TestSupervisorSpawnsOneWorkerPerThread(t *testing.T) {
	system := actor.NewActorSystem()
	cfg := &config.Config{Threads: 3}
	sup := &Supervisor{cfg: cfg, Counters: NewCounters(cfg)}
	props := actor.PropsFromProducer(func() actor.Actor { return sup })
	supervisorPID := system.Root.Spawn(props)

	// spawnWorkers runs synchronously inside the Started handler, but that
	// handler races this goroutine; StopFuture forces a round trip through
	// the actor's mailbox so by the time it resolves Started has long run.
	if err := system.Root.StopFuture(supervisorPID).Wait(); err != nil {
		t.Fatalf("supervisor did not stop cleanly: %v", err)
	}
	if len(sup.workers) != cfg.Threads {
		t.Fatalf("len(workers) = %d, want %d", len(sup.workers), cfg.Threads)
	}
}

func TestSupervisorRoutesConnectBotRoundRobinByIndex(t *testing.T) {
	system := actor.NewActorSystem()
	reports := make(chan interface{}, 8)

	sup := &Supervisor{cfg: &config.Config{Threads: 2}}
	props := actor.PropsFromProducer(func() actor.Actor { return sup })
	supervisorPID := system.Root.Spawn(props)

	worker0 := system.Root.Spawn(childProps(reports))
	worker1 := system.Root.Spawn(childProps(reports))
	sup.workers = []*actor.PID{worker0, worker1}

	system.Root.Send(supervisorPID, &ConnectBot{Index: 0})
	system.Root.Send(supervisorPID, &ConnectBot{Index: 1})
	system.Root.Send(supervisorPID, &ConnectBot{Index: 2})

	seen := map[int]bool{}
	for i := 0; i < 3; i++ {
		select {
		case msg := <-reports:
			cb, ok := msg.(*ConnectBot)
			if !ok {
				t.Fatalf("got %T, want *ConnectBot", msg)
			}
			seen[cb.Index] = true
		case <-time.After(2 * time.Second):
			t.Fatalf("only routed %d/3 ConnectBot messages", i)
		}
	}
	for _, idx := range []int{0, 1, 2} {
		if !seen[idx] {
			t.Fatalf("ConnectBot{Index: %d} was never routed", idx)
		}
	}
}

func TestSupervisorBroadcastsTickAndStopToAllWorkers(t *testing.T) {
	system := actor.NewActorSystem()
	reports := make(chan interface{}, 8)

	sup := &Supervisor{cfg: &config.Config{Threads: 2}}
	props := actor.PropsFromProducer(func() actor.Actor { return sup })
	supervisorPID := system.Root.Spawn(props)

	worker0 := system.Root.Spawn(childProps(reports))
	worker1 := system.Root.Spawn(childProps(reports))
	sup.workers = []*actor.PID{worker0, worker1}

	system.Root.Send(supervisorPID, &Tick{Seq: 5})

	gotTicks := 0
	for gotTicks < 2 {
		select {
		case msg := <-reports:
			if _, ok := msg.(*Tick); !ok {
				t.Fatalf("got %T, want *Tick", msg)
			}
			gotTicks++
		case <-time.After(2 * time.Second):
			t.Fatalf("only %d/2 workers received Tick", gotTicks)
		}
	}

	system.Root.Send(supervisorPID, &Stop{})

	gotStops := 0
	for gotStops < 2 {
		select {
		case msg := <-reports:
			if _, ok := msg.(*Stop); !ok {
				t.Fatalf("got %T, want *Stop", msg)
			}
			gotStops++
		case <-time.After(2 * time.Second):
			t.Fatalf("only %d/2 workers received Stop", gotStops)
		}
	}
}

func TestSupervisorIgnoresConnectBotWithNoWorkers(t *testing.T) {
	system := actor.NewActorSystem()
	sup := &Supervisor{cfg: &config.Config{Threads: 0}}
	props := actor.PropsFromProducer(func() actor.Actor { return sup })
	supervisorPID := system.Root.Spawn(props)

	// Must not panic on an empty workers slice (division by len(workers)).
	system.Root.Send(supervisorPID, &ConnectBot{Index: 0})

	if err := system.Root.StopFuture(supervisorPID).Wait(); err != nil {
		t.Fatalf("supervisor did not stop cleanly: %v", err)
	}
}

func TestNewCountersAllocatesOnePerThread(t *testing.T) {
	counters := NewCounters(&config.Config{Threads: 4})
	if len(counters) != 4 {
		t.Fatalf("len(counters) = %d, want 4", len(counters))
	}
	for i, c := range counters {
		if c == nil {
			t.Fatalf("counters[%d] is nil", i)
		}
	}
}
