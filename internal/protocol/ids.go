package protocol

// ProtoState identifies which half of the login→play state machine a
// connection is in (§4.5). Handshaking is transient — it exists only long
// enough to emit the single Handshake packet before Login begins.
type ProtoState int

const (
	StateLogin ProtoState = iota
	StatePlay
)

// DefaultProtocolVersion pins the protocol to 1.19 (759), one of the two
// values the source historically disagreed on (see DESIGN.md). Overridable
// via --proto-id.
const DefaultProtocolVersion int32 = 759

// NextStateLogin is the handshake's next_state field value selecting login.
const NextStateLogin int32 = 2

// Packet ids, approximate to the 1.19 (protocol 759) generation and scoped
// to exactly the packets this swarm emits or accepts (§4.5); anything else
// inbound is ignored per the dispatch contract.
const (
	HandshakePacketID int32 = 0x00

	// Login, C2S
	LoginStartPacketID int32 = 0x00

	// Login, S2C
	LoginDisconnectPacketID     int32 = 0x00
	EncryptionRequestPacketID   int32 = 0x01
	LoginSuccessPacketID        int32 = 0x02
	SetCompressionPacketID      int32 = 0x03
	LoginPluginRequestPacketID  int32 = 0x04

	// Play, S2C
	PlayDisconnectPacketID   int32 = 0x17
	KeepAliveS2CPacketID     int32 = 0x1E
	JoinGamePacketID         int32 = 0x23
	TeleportS2CPacketID      int32 = 0x38
	TimeUpdatePacketID       int32 = 0x59

	// Play, C2S
	TeleportConfirmPacketID    int32 = 0x00
	ChatMessageC2SPacketID     int32 = 0x04
	ClientSettingsPacketID     int32 = 0x07
	KeepAliveC2SPacketID       int32 = 0x11
	PositionC2SPacketID        int32 = 0x12
	PositionRotationC2SPacketID int32 = 0x13
	EntityActionC2SPacketID    int32 = 0x1C
	HeldItemSlotC2SPacketID    int32 = 0x25
	AnimationC2SPacketID       int32 = 0x2C
)
