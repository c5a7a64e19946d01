// Package swarm implements the per-worker/per-bot actor tree: a
// Supervisor actor owning N Worker actors, each Worker owning a shard of
// bot Session actors, communicating only through the typed messages
// declared here (§2 "control flow across threads", §5 "auxiliary
// threads") — generalized from the teacher's RoomManagerActor/RoomActor/
// PlayerSessionActor tree and its messages package.
package swarm


// ConnectBot asks a Worker (routed by the Supervisor, round-robin by
// spawn index) to open one new bot connection.
type ConnectBot struct {
	Index    int
	Username string
}

// Tick is broadcast to every Worker at a fixed interval by the tick
// scheduler; the Worker forwards it to every non-kicked Session.
type Tick struct {
	Seq int64
}

// Stop is broadcast on shutdown; a Worker stops all its Session children
// then itself.
type Stop struct{}

// BotConnected is sent by a Session (via its Worker) to the UI consumer
// once the handshake completes.
type BotConnected struct {
	Index int
}

// BotDisconnected is sent once a connected bot is kicked.
type BotDisconnected struct {
	Index  int
	Reason string
}

// WorkerTPS carries one worker's aggregated tick-per-second sample
// (§9 — the channel the source leaves "sketchy" to consume; here it is
// wired to orchestrator.UIConsumer).
type WorkerTPS struct {
	Sum   float64
	Count int
}
