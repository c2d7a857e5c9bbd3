package transport

import "time"

// This file names the external collaborators OutQ depends on but does not
// implement: crypto key state, the packet builder, the congestion
// controller, the packet-number map, the path manager, the event channel to
// the application, and the timer subsystem. OutQ invokes these purely
// through the interfaces below; each has one concrete reference
// implementation elsewhere in this package so the engine is runnable and
// testable, but a caller is free to substitute their own.

// KeyState reports whether a given encryption level currently has
// send-ready key material installed.
type KeyState interface {
	SendReady(level EncryptionLevel) bool
}

// ConfigResult is the tri-state result of PacketBuilder.Config.
type ConfigResult int

const (
	// ConfigOK means the builder is configured for this level/path and the
	// frame may be attempted.
	ConfigOK ConfigResult = 0
	// ConfigFiltered means this particular frame should be skipped, but the
	// phase should continue with the next one.
	ConfigFiltered ConfigResult = 1
	// ConfigBlocked means the entire phase should stop.
	ConfigBlocked ConfigResult = -1
)

// PacketBuilder accumulates frames into in-progress packets and finalizes
// them onto the wire. OutQ never encodes or encrypts a packet itself.
type PacketBuilder interface {
	// Config prepares the builder to pack a frame at level/pathAlt.
	Config(level EncryptionLevel, pathAlt uint8) ConfigResult
	// Tail attempts to append frame to the packet currently being built.
	// It returns false when the packet is full and must be finalized
	// first; the caller retries the same frame after Create.
	Tail(frame *Frame, isDatagram bool) bool
	// Create finalizes and transmits the in-progress packet. It returns
	// the frames that were packed into it, each stamped with its Number
	// and TransmitTs, in pack order. An empty/nil builder (nothing tailed
	// since the last Create/Flush) returns nil.
	Create() []*Frame
	// Flush finalizes any partially-built packet, same contract as Create.
	Flush() []*Frame
	// SetFilter restricts subsequent Config/Tail/Create calls to level
	// only (used by the PTO path, which must only emit at one level).
	SetFilter(level EncryptionLevel, only bool)
	// SetECNProbes resets the count of outstanding ECN-marked probes.
	SetECNProbes(n int)
	// MSSUpdate raises the builder's maximum packet payload size.
	MSSUpdate(mtu int)
	// TagLen returns the current AEAD authentication tag length.
	TagLen() int
	// SetTagLen overrides the AEAD tag length (0 for negotiated plaintext
	// 1-RTT, see SetTransportParams).
	SetTagLen(n int)
}

// CongestionController is consulted for send-window gating and updated on
// ack/loss feedback. The default implementation is NewReno (RFC 9002 §7).
type CongestionController interface {
	// RTTUpdate folds a new RTT sample (derived from transmitTs and
	// ackDelay) into the estimator.
	RTTUpdate(now time.Time, transmitTs time.Time, ackDelay time.Duration)
	// RTO returns the current retransmission timeout.
	RTO() time.Duration
	// Duration returns the base loss-timer duration (used by
	// UpdateLossTimer case 3, scaled by 1+rtx_count).
	Duration() time.Duration
	// Window returns the current congestion window in bytes.
	Window() int
	// CWndUpdateAfterSack folds a successful ack batch into the window.
	CWndUpdateAfterSack(now time.Time, ackedNumber int64, transmitTs time.Time, ackedBytes int, dataInflight int)
	// CWndUpdateAfterTimeout folds a loss event into the window.
	CWndUpdateAfterTimeout(now time.Time, number int64, transmitTs time.Time, lastNumber int64)
}

// PacketNumberMap tracks, per encryption level, the packet numbers that have
// been allocated, which are still in flight, and loss-timer bookkeeping.
type PacketNumberMap interface {
	// NextNumber allocates and returns the next packet number, marking it
	// in flight and stamping LastSentTS.
	NextNumber() int64
	// HighestSent returns the highest packet number allocated so far
	// without allocating a new one (a read-only peek, unlike NextNumber).
	// RetransmitMark passes it to CWndUpdateAfterTimeout as lastNumber;
	// TransmitProbe uses it to predict the probe's packet number.
	HighestSent() int64
	Inflight() int
	DecInflight(len int)
	SetLossTS(ts time.Time)
	LossTS() time.Time
	LastSentTS() time.Time
	MaxPNAcked() int64
	SetMaxPNAcked(n int64)
	SetMaxRecordTS(d time.Duration)
}

// PathManager models path-MTU probing and path-validation bookkeeping.
type PathManager interface {
	// PLConfirm reports whether an ack covering [smallest, largest]
	// confirms the in-flight MTU probe.
	PLConfirm(largest, smallest int64) bool
	// PLRecv consumes a confirmed probe result: the new MTU (0 if none),
	// whether the path timer should be raised to a longer interval, and
	// whether probing is complete.
	PLRecv() (mtu int, raiseTimer bool, complete bool)
	// PLSend records that a probe of the path's current probe size was
	// just sent as packet number n and returns an MTU for the caller to
	// apply to the packet builder (0 for none). The default PathState
	// returns the size of the probe just sent.
	PLSend(number int64) (mtu int)
	// ProbeSize is the current path-MTU probe payload size.
	ProbeSize() int
	// SwapActive swaps the locally-bound address to the alternate one.
	SwapActive()
	// AddrFree releases the previously-active address.
	AddrFree()
	// SetSentCount resets the path's validation packet counter.
	SetSentCount(n int)
}

// EventKind enumerates the application-visible events OutQ may deliver.
type EventKind int

const (
	EventStreamUpdate EventKind = iota
	EventConnectionClose
	EventConnectionMigration
)

// StreamUpdate is the payload of an EventStreamUpdate delivery.
type StreamUpdate struct {
	ID      uint64
	State   StreamSendState
	ErrCode uint64
}

// ConnectionClose is the payload of an EventConnectionClose delivery.
type ConnectionClose struct {
	ErrCode uint32
	Frame   FrameType
}

// EventSink delivers events to the application and reports whether the
// application claimed (handled) the event. When Recv returns true, OutQ
// suppresses its own default handling of that event (the event-veto
// pattern).
type EventSink interface {
	Recv(kind EventKind, payload any) bool
}

// TimerID identifies one of the five timers OutQ arms: a per-level loss
// timer, the SACK timer, and the PATH timer.
type TimerID int

const (
	TimerLossApp TimerID = iota
	TimerLossInitial
	TimerLossHandshake
	TimerSack
	TimerPath
)

// TimerSet is the timer subsystem OutQ arms and disarms. It never fires
// timers itself; a caller observes expiry and invokes the corresponding
// OutQ method (e.g. TransmitOne on a loss timer).
type TimerSet interface {
	// Start arms id to fire after d if not already armed.
	Start(id TimerID, d time.Duration)
	// Reset arms id to fire after d, replacing any existing arm time.
	Reset(id TimerID, d time.Duration)
	// Reduce arms id to fire no later than d from now, leaving an earlier
	// existing arm time untouched.
	Reduce(id TimerID, d time.Duration)
	Stop(id TimerID)
}

// WriteMemAccount tracks socket write-memory charged by enqueued frames and
// refunded on purge/ack, mirroring sk_wmem_alloc/sk_mem_charge.
type WriteMemAccount interface {
	Charge(n int)
	Free(n int)
}
