package swarm

import (
	"fmt"
	"math"
	"math/rand"
	"net"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"

	"github.com/kagenova/mcbotswarm/internal/chatcorpus"
	"github.com/kagenova/mcbotswarm/internal/config"
	"github.com/kagenova/mcbotswarm/internal/logging"
	"github.com/kagenova/mcbotswarm/internal/netio"
	"github.com/kagenova/mcbotswarm/internal/protocol"
)

// vec3 is the position/velocity representation (§3 "3D f64").
type vec3 struct{ x, y, z float64 }

// Session is one bot's protocol state machine (§3 "Player session", §4.5):
// handshake → login → play, tick-driven motion/actions, generalized from
// the teacher's PlayerSessionActor which played the analogous role for a
// real connected player.
type Session struct {
	cfg    *config.Config
	corpus *chatcorpus.Corpus
	index  int

	conn *netio.Connector

	state    protocol.ProtoState
	entityID int32
	username string
	uuid     [16]byte

	connected  bool
	shouldTick bool
	kicked     bool

	compressionThreshold int32

	position vec3
	velocity vec3
	angleBias float64 // radians, chosen once at spawn for MovementBiased

	lastWorldAge     int64
	lastWorldAgeTime time.Time
	joinTime         time.Time

	sneaking, sprinting bool

	rng *rand.Rand

	bytesTx, bytesRx, packetsTx, packetsRx *atomicCounter
}

// NewSessionProps builds actor.Props for one bot session, wired to the
// owning Worker's four atomic counters (§3 "Worker... four u64 counters").
func NewSessionProps(cfg *config.Config, corpus *chatcorpus.Corpus, index int, wc *WorkerCounters) *actor.Props {
	return actor.PropsFromProducer(func() actor.Actor {
		return &Session{
			cfg:                  cfg,
			corpus:               corpus,
			index:                index,
			state:                protocol.StateLogin,
			compressionThreshold: -1,
			angleBias:            (rand.Float64()*20 - 10) * math.Pi / 180,
			rng:                  rand.New(rand.NewSource(int64(index)*2654435761 + 1)),
			bytesTx:              &wc.bytesTx, bytesRx: &wc.bytesRx,
			packetsTx: &wc.packetsTx, packetsRx: &wc.packetsRx,
		}
	})
}

func (s *Session) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		s.onStarted(ctx)
	case *netio.FrameReceived:
		s.onFrame(ctx, msg.Payload)
	case *netio.ConnectionClosed:
		s.kick(ctx, errString(msg.Err))
	case *Tick:
		s.onTick(ctx)
	case *Stop:
		ctx.Stop(ctx.Self())
	case *actor.Stopping:
		if s.conn != nil {
			s.conn.CloseAsync()
		}
	}
}

func errString(err error) string {
	if err == nil {
		return "closed"
	}
	return err.Error()
}

func (s *Session) onStarted(ctx actor.Context) {
	conn, err := netio.Dial(s.cfg.ServerAddr)
	if err != nil {
		logging.LogWarnf("bot %d: dial failed: %v", s.index, err)
		ctx.Stop(ctx.Self())
		return
	}
	s.conn = conn
	s.conn.Start(ctx.ActorSystem(), ctx.Self())
	s.username = fmt.Sprintf("bot%d", s.index)

	host, port := splitAddr(s.cfg.ServerAddr)
	hs := &protocol.Handshake{
		ProtocolVersion: s.cfg.ProtoID,
		ServerAddress:   host,
		ServerPort:      port,
		NextState:       protocol.NextStateLogin,
	}
	s.sendC2S(ctx, protocol.HandshakePacketID, hs)

	// Offline-mode servers recompute their own authoritative UUID from the
	// username and ignore whatever the client sends; this one only has to
	// be stable per bot, not byte-identical to vanilla's derivation.
	offlineUUID := uuid.NewMD5(uuid.Nil, []byte("OfflinePlayer:"+s.username))
	login := &protocol.LoginStart{Username: s.username, HasUUID: true, UUID: offlineUUID}
	s.sendC2S(ctx, protocol.LoginStartPacketID, login)

	s.connected = true
	s.joinTime = time.Now()
	ctx.Send(ctx.Parent(), &BotConnected{Index: s.index})
}

// sendRaw frames and enqueues a payload that already starts with its
// packet id; sendC2S builds that payload for every outbound packet,
// Handshake included.
func (s *Session) sendRaw(ctx actor.Context, body []byte) {
	n, err := s.conn.EncodeAndSend(body)
	if err != nil {
		s.kick(ctx, err.Error())
		return
	}
	s.bytesTx.add(uint64(n))
	s.packetsTx.add(1)
}

func (s *Session) sendC2S(ctx actor.Context, id int32, p protocol.Outbound) {
	s.sendRaw(ctx, protocol.EncodeBody(id, p))
}

func splitAddr(addr string) (string, uint16) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 25565
	}
	var port uint16
	fmt.Sscanf(portStr, "%d", &port)
	return host, port
}

func (s *Session) onFrame(ctx actor.Context, payload []byte) {
	s.packetsRx.add(1)
	s.bytesRx.add(uint64(len(payload)))

	var err error
	switch s.state {
	case protocol.StateLogin:
		err = protocol.ParseAndHandleLogin(payload, &loginDispatch{s, ctx})
	case protocol.StatePlay:
		err = protocol.ParseAndHandlePlay(payload, &playDispatch{s, ctx})
	}
	if err != nil {
		s.kick(ctx, err.Error())
	}
}

// loginDispatch/playDispatch bundle the session and the current dispatch
// context so the handler methods below can reach both.
type loginDispatch struct {
	s   *Session
	ctx actor.Context
}

type playDispatch struct {
	s   *Session
	ctx actor.Context
}

func (d *loginDispatch) HandleLoginDisconnect(p protocol.LoginDisconnect) error {
	d.s.kick(d.ctx, "disconnected during login: "+p.Reason)
	return nil
}

func (d *loginDispatch) HandleSetCompression(p protocol.SetCompression) error {
	d.s.compressionThreshold = p.Threshold
	d.s.conn.SetCompressionThreshold(p.Threshold)
	return nil
}

func (d *loginDispatch) HandleLoginSuccess(p protocol.LoginSuccess) error {
	d.s.uuid = p.UUID
	d.s.username = p.Username
	d.s.state = protocol.StatePlay
	return nil
}

func (d *playDispatch) HandlePlayDisconnect(p protocol.PlayDisconnect) error {
	d.s.kick(d.ctx, "disconnected: "+p.Reason)
	return nil
}

func (d *playDispatch) HandleKeepAliveS2C(p protocol.KeepAliveS2C) error {
	d.s.sendC2S(d.ctx, protocol.KeepAliveC2SPacketID, &protocol.KeepAliveC2S{ID: p.ID})
	return nil
}

func (d *playDispatch) HandleJoinGame(p protocol.JoinGame) error {
	d.s.entityID = p.EntityID
	settings := protocol.DefaultClientSettings()
	d.s.sendC2S(d.ctx, protocol.ClientSettingsPacketID, &settings)
	return nil
}

func (d *playDispatch) HandleTeleportS2C(p protocol.TeleportS2C) error {
	s := d.s
	s.position = vec3{
		x: p.ResolveX(s.position.x),
		y: p.ResolveY(s.position.y),
		z: p.ResolveZ(s.position.z),
	}
	s.shouldTick = true
	s.sendC2S(d.ctx, protocol.TeleportConfirmPacketID, &protocol.TeleportConfirm{TeleportID: p.TeleportID})
	return nil
}

func (d *playDispatch) HandleTimeUpdate(p protocol.TimeUpdate) error {
	s := d.s
	now := time.Now()
	if s.lastWorldAgeTime.IsZero() {
		s.lastWorldAge = p.WorldAge
		s.lastWorldAgeTime = now
		return nil
	}
	if now.Sub(s.joinTime) < 100*time.Millisecond {
		return nil
	}
	elapsed := now.Sub(s.lastWorldAgeTime).Seconds()
	if elapsed > 0 {
		deltaAge := float64(p.WorldAge - s.lastWorldAge)
		tps := deltaAge / elapsed
		if tps > 20.0 {
			tps = 20.0
		}
		d.ctx.Send(d.ctx.Parent(), &tpsSample{value: tps})
	}
	s.lastWorldAge = p.WorldAge
	s.lastWorldAgeTime = now
	return nil
}

// onTick runs one tick's worth of motion/action generation (§4.5).
func (s *Session) onTick(ctx actor.Context) {
	if !s.shouldTick || s.kicked {
		return
	}

	if !s.cfg.NoMove {
		s.updateVelocity()
		s.position.x += s.velocity.x
		s.position.y += s.velocity.y
		s.position.z += s.velocity.z
		s.reflectIfOutOfBounds()
	}

	if s.cfg.NoYaw {
		s.sendC2S(ctx, protocol.PositionC2SPacketID, &protocol.PositionC2S{
			X: s.position.x, Y: s.position.y, Z: s.position.z, OnGround: false,
		})
	} else {
		yaw := yawFromVelocity(s.velocity.x, s.velocity.z)
		s.sendC2S(ctx, protocol.PositionRotationC2SPacketID, &protocol.PositionRotationC2S{
			X: s.position.x, Y: s.position.y, Z: s.position.z, Yaw: yaw, Pitch: 0, OnGround: false,
		})
	}

	if !s.cfg.NoAction && s.rng.Float64() < s.cfg.ActionChance {
		s.emitRandomAction(ctx)
	}
}

func (s *Session) updateVelocity() {
	switch s.cfg.Movement {
	case config.MovementConsistent:
		// velocity unchanged
	case config.MovementRandom:
		theta := s.rng.Float64() * 2 * math.Pi
		s.velocity.x = math.Cos(theta) * 0.2
		s.velocity.z = math.Sin(theta) * 0.2
	default: // MovementBiased
		cos, sin := math.Cos(s.angleBias), math.Sin(s.angleBias)
		vx := s.velocity.x*cos - s.velocity.z*sin
		vz := s.velocity.x*sin + s.velocity.z*cos
		s.velocity.x, s.velocity.z = vx, vz
	}
}

// reflectIfOutOfBounds implements §4.5/§9's explicit NaN handling: a NaN
// radius compares false to every bound check, so no axis is ever
// reflected and position drifts unbounded — made explicit here via
// math.IsNaN rather than relying on NaN's comparison semantics.
func (s *Session) reflectIfOutOfBounds() {
	if math.IsNaN(s.cfg.Radius) {
		return
	}
	if math.Abs(s.position.x) > s.cfg.Radius {
		s.velocity.x = -s.velocity.x
	}
	if math.Abs(s.position.z) > s.cfg.Radius {
		s.velocity.z = -s.velocity.z
	}
}

func yawFromVelocity(vx, vz float64) float32 {
	if vx == 0 && vz == 0 {
		return 0
	}
	deg := math.Atan2(-vx, vz) * 180 / math.Pi
	return float32(deg)
}

func (s *Session) emitRandomAction(ctx actor.Context) {
	switch s.rng.Intn(5) {
	case 0:
		line := s.corpus.Pick(s.rng.Int())
		s.sendC2S(ctx, protocol.ChatMessageC2SPacketID, &protocol.ChatMessageC2S{
			Message:   line,
			Timestamp: time.Now().UnixMilli(),
		})
	case 1:
		s.sendC2S(ctx, protocol.AnimationC2SPacketID, &protocol.AnimationC2S{Hand: int32(s.rng.Intn(2))})
	case 2:
		s.sneaking = !s.sneaking
		action := int32(1)
		if s.sneaking {
			action = 0
		}
		s.sendC2S(ctx, protocol.EntityActionC2SPacketID, &protocol.EntityActionC2S{EntityID: s.entityID, ActionID: action})
	case 3:
		s.sprinting = !s.sprinting
		action := int32(4)
		if s.sprinting {
			action = 3
		}
		s.sendC2S(ctx, protocol.EntityActionC2SPacketID, &protocol.EntityActionC2S{EntityID: s.entityID, ActionID: action})
	case 4:
		s.sendC2S(ctx, protocol.HeldItemSlotC2SPacketID, &protocol.HeldItemSlotC2S{Slot: int16(s.rng.Intn(9))})
	}
}

func (s *Session) kick(ctx actor.Context, reason string) {
	if s.kicked {
		return
	}
	s.kicked = true
	if s.conn != nil {
		s.conn.CloseAsync()
	}
	logging.LogWarnf("bot %d kicked: %s", s.index, reason)
	if s.connected {
		ctx.Send(ctx.Parent(), &BotDisconnected{Index: s.index, Reason: reason})
	}
	ctx.Stop(ctx.Self())
}
