// Command mcbotswarm drives a swarm of Minecraft Java Edition protocol
// bots against a target server for load testing. Flags and defaults are
// documented by internal/config; run with -h for the full list.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"golang.org/x/sync/errgroup"

	"github.com/kagenova/mcbotswarm/internal/chatcorpus"
	"github.com/kagenova/mcbotswarm/internal/config"
	"github.com/kagenova/mcbotswarm/internal/logging"
	"github.com/kagenova/mcbotswarm/internal/orchestrator"
	"github.com/kagenova/mcbotswarm/internal/swarm"
)

func main() {
	logging.InitFromEnvironment()

	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		logging.LogErrorf("%v", err)
		os.Exit(2)
	}

	corpus, err := chatcorpus.Load(cfg.MessageFile)
	if err != nil {
		logging.LogFatalf("loading chat corpus: %v", err)
	}

	if err := run(cfg, corpus); err != nil {
		logging.LogFatalf("%v", err)
	}
}

func run(cfg *config.Config, corpus *chatcorpus.Corpus) error {
	system := actor.NewActorSystem()
	logging.LogInfof(
		"mcbotswarm starting: target=%s count=%d threads=%d movement=%s",
		cfg.ServerAddr, cfg.Count, cfg.Threads, cfg.Movement,
	)

	// NewUIConsumer needs its actor system to spawn the mailbox that will
	// receive worker reports, and NewSupervisorProps needs that mailbox's
	// PID before the first Worker spawns — so the counters are allocated
	// up front and the UI consumer, if enabled, is wired before the
	// Supervisor.
	counters := swarm.NewCounters(cfg)
	var uiPID *actor.PID
	var uiConsumer *orchestrator.UIConsumer
	if !cfg.NoUI {
		uiConsumer, uiPID = orchestrator.NewUIConsumer(system, counters, cfg)
	}

	props := swarm.NewSupervisorProps(cfg, corpus, uiPID, counters)
	supervisorPID := system.Root.SpawnNamed(props, "supervisor")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return orchestrator.NewSpawner(system, supervisorPID, cfg).Run(gctx) })
	g.Go(func() error { return orchestrator.NewTicker(system, supervisorPID, cfg).Run(gctx) })
	if uiConsumer != nil {
		g.Go(func() error { return uiConsumer.Run(gctx) })
	}

	waitForShutdown(cancel)
	shutdown(system, supervisorPID)

	return g.Wait()
}

// waitForShutdown blocks until SIGINT/SIGTERM, then cancels ctx so the
// spawner/ticker/UI goroutines return, mirroring the teacher's
// signal.Notify-then-block pattern in cmd/game/main.go.
func waitForShutdown(cancel context.CancelFunc) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logging.LogInfof("shutdown requested")
	cancel()
}

// shutdown stops the Supervisor (which cascades Stop to every Worker and
// Session) and waits for the actor system to fully quiesce, the same
// StopFuture-then-Shutdown sequence the teacher uses for its
// RoomManagerActor.
func shutdown(system *actor.ActorSystem, supervisorPID *actor.PID) {
	system.Root.Send(supervisorPID, &swarm.Stop{})
	if err := system.Root.StopFuture(supervisorPID).Wait(); err != nil {
		logging.LogWarnf("stopping supervisor: %v", err)
	}

	done := make(chan struct{})
	go func() {
		system.Shutdown()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(15 * time.Second):
		logging.LogWarnf("actor system shutdown timed out")
	}
	fmt.Println("mcbotswarm: shut down")
}
