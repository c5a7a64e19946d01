// Package config parses the CLI surface (§6) into a Config struct, keeping
// the teacher's "struct + setDefaults method" shape but replacing its JSON
// file loader with github.com/spf13/pflag, since the CLI itself is a
// narrow external collaborator and never needs more than one flat flag set.
package config

import (
	"fmt"
	"math"
	"net"
	"runtime"
	"strconv"
	"time"

	"github.com/spf13/pflag"

	"github.com/kagenova/mcbotswarm/internal/protocol"
)

// Movement selects the per-tick velocity update rule (§4.5).
type Movement int

const (
	MovementBiased Movement = iota
	MovementConsistent
	MovementRandom
)

func (m Movement) String() string {
	switch m {
	case MovementConsistent:
		return "consistent"
	case MovementRandom:
		return "random"
	default:
		return "biased"
	}
}

func parseMovement(s string) (Movement, error) {
	switch s {
	case "biased", "":
		return MovementBiased, nil
	case "consistent":
		return MovementConsistent, nil
	case "random":
		return MovementRandom, nil
	default:
		return 0, fmt.Errorf("config: unknown --movement %q", s)
	}
}

const defaultPort = 25565

// Config is the fully resolved set of run parameters; every field has its
// spec §6 default already applied once Parse returns.
type Config struct {
	ServerAddr string // host:port, IPv4-resolved
	Count      int

	Radius float64 // NaN => unbounded

	Threads int

	UIUpdateRate time.Duration
	JoinRate     time.Duration
	TickRate     time.Duration

	NoAction bool
	NoMove   bool
	NoUI     bool
	NoYaw    bool

	ProtoID int32

	MessageFile string

	Movement     Movement
	ActionChance float64
}

// setDefaults fills in every field Parse doesn't set from a flag/positional
// explicitly — mirroring the teacher's setDefaultValues, but as a method on
// the struct it fills rather than a free function over a fresh pointer.
func (c *Config) setDefaults() {
	if c.Threads <= 0 {
		c.Threads = runtime.NumCPU() / 2
		if c.Threads < 1 {
			c.Threads = 1
		}
	}
	if c.UIUpdateRate <= 0 {
		c.UIUpdateRate = 500 * time.Millisecond
	}
	if c.JoinRate <= 0 {
		c.JoinRate = 15 * time.Millisecond
	}
	if c.TickRate <= 0 {
		c.TickRate = 50 * time.Millisecond
	}
	if c.ProtoID == 0 {
		c.ProtoID = protocol.DefaultProtocolVersion
	}
	if c.ActionChance == 0 {
		c.ActionChance = 0.25
	}
}

// Parse builds a Config from argv (excluding the program name), applying
// spec §6's CLI surface: SERVER and COUNT positionals, then flags.
func Parse(argv []string) (*Config, error) {
	fs := pflag.NewFlagSet("mcbotswarm", pflag.ContinueOnError)

	radius := fs.Float64P("radius", "r", math.NaN(), "movement bound; NaN disables it")
	threads := fs.IntP("threads", "p", 0, "worker thread count; 0 means hw_parallelism/2")
	uiRate := fs.Duration("ui-update-rate", 500*time.Millisecond, "UI redraw interval")
	joinRate := fs.DurationP("join-rate", "j", 15*time.Millisecond, "spawner delay between bots")
	tickRate := fs.Duration("tick-rate", 50*time.Millisecond, "tick scheduler interval")
	noAction := fs.Bool("no-action", false, "disable chat/animation/action emission")
	noMove := fs.Bool("no-move", false, "disable per-tick movement")
	noUI := fs.Bool("no-ui", false, "disable the stats consumer")
	noYaw := fs.Bool("no-yaw", false, "emit Position instead of PositionRotation")
	protoID := fs.Int32("proto-id", 0, "override the pinned protocol version")
	messageFile := fs.String("message-file", "", "path to a newline-delimited chat corpus")
	movementFlag := fs.String("movement", "biased", "biased|consistent|random")
	actionChance := fs.Float64("action-chance", 0.25, "probability of a tick action")

	if err := fs.Parse(argv); err != nil {
		return nil, err
	}

	positional := fs.Args()
	if len(positional) < 2 {
		return nil, fmt.Errorf("config: usage: mcbotswarm SERVER COUNT [flags]")
	}

	addr, err := resolveServerAddr(positional[0])
	if err != nil {
		return nil, err
	}

	count, err := strconv.Atoi(positional[1])
	if err != nil || count < 0 {
		return nil, fmt.Errorf("config: invalid COUNT %q", positional[1])
	}

	movement, err := parseMovement(*movementFlag)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ServerAddr:   addr,
		Count:        count,
		Radius:       *radius,
		Threads:      *threads,
		UIUpdateRate: *uiRate,
		JoinRate:     *joinRate,
		TickRate:     *tickRate,
		NoAction:     *noAction,
		NoMove:       *noMove,
		NoUI:         *noUI,
		NoYaw:        *noYaw,
		ProtoID:      *protoID,
		MessageFile:  *messageFile,
		Movement:     movement,
		ActionChance: *actionChance,
	}
	cfg.setDefaults()
	return cfg, nil
}

// resolveServerAddr implements §4.4's connection resolution: accept
// HOST[:PORT] with a default port, resolve the name, retry against the
// default port on failure, and select the first IPv4 address.
func resolveServerAddr(hostport string) (string, error) {
	host, port := hostport, strconv.Itoa(defaultPort)
	if h, p, err := net.SplitHostPort(hostport); err == nil {
		host, port = h, p
	}

	ips, err := net.LookupIP(host)
	if err != nil || len(ips) == 0 {
		// Retry with the explicit default port in case the original
		// string was misparsed as HOST:garbage by SplitHostPort.
		host, port = hostport, strconv.Itoa(defaultPort)
		ips, err = net.LookupIP(host)
		if err != nil || len(ips) == 0 {
			return "", fmt.Errorf("config: resolve %q: %w", host, err)
		}
	}

	for _, ip := range ips {
		if v4 := ip.To4(); v4 != nil {
			return net.JoinHostPort(v4.String(), port), nil
		}
	}
	return "", fmt.Errorf("config: no IPv4 address found for %q", host)
}
