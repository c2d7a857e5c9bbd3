package transport

import (
	"sync"
	"time"
)

// TransportParams mirrors the peer-advertised transport parameters OutQ
// consumes, per spec's External Interfaces section.
type TransportParams struct {
	MaxData                 uint64
	MaxDatagramFrameSize    uint32
	MaxUDPPayloadSize       uint32
	AckDelayExponent        uint8
	MaxIdleTimeout           time.Duration
	MaxAckDelay              time.Duration
	GreaseQUICBit            bool
	Disable1RTTEncryption    bool
}

// OutQ is the outbound transmission engine: four pending frame queues plus
// one transmitted-but-unacknowledged queue, drained by Transmit in a fixed
// priority order, mutated by ack/loss feedback.
//
// All exported mutating methods acquire OutQ's own mutex. This is a
// deliberate simplification over a kernel socket's single per-connection
// lock held by an enclosing wrapper: it keeps OutQ safely usable
// standalone (including from the async encrypted-drain worker) without
// requiring every caller to also own an outer connection lock. A caller
// embedding OutQ in a larger connection type that has its own lock should
// simply accept OutQ's lock as the single lock for anything touching
// frames, streams, or congestion/loss state.
type OutQ struct {
	mu sync.Mutex

	controlList     FrameList
	streamList      FrameList
	datagramList    FrameList
	transmittedList FrameList

	bytes         uint64
	maxBytes      uint64
	lastMaxBytes  uint64
	dataBlocked   bool

	dataInflight int64
	inflight     int64

	window    int
	rtxCount  int
	dataLevel EncryptionLevel

	closeErrCode uint32
	closeFrame   FrameType
	closeSet     bool
	closePhrase  string
	closed       bool

	// connState tracks the handshake progress an enclosing connection
	// would otherwise report via quic_is_established/quic_is_establishing.
	// OutQ itself never advances it; a caller sets it via SetConnState as
	// the handshake progresses.
	connState ConnState

	params TransportParams

	keys    KeyState
	builder PacketBuilder
	cong    map[EncryptionLevel]CongestionController
	pnmaps  map[EncryptionLevel]PacketNumberMap
	path    PathManager
	events  EventSink
	timers  TimerSet
	wmem    WriteMemAccount
	logs    LogSink

	now func() time.Time

	worker *encryptedWorker

	// probeInterval is the base interval used for the PATH timer
	// (quic_inq_probe_timeout in the original, an inbound-queue
	// collaborator out of this engine's scope). Configurable via Deps,
	// defaults to 3s.
	probeInterval time.Duration
}

// Deps bundles OutQ's external collaborators (contracts.go). Any field left
// nil other than Logs gets a concrete default (keys.go/packet_writer.go/
// congestion_reno.go/pnmap.go/path.go/event.go/timers.go/memaccount.go) so
// OutQ is usable with zero configuration for tests; a nil Logs disables
// logging.
type Deps struct {
	Keys    KeyState
	Builder PacketBuilder
	Cong    map[EncryptionLevel]CongestionController
	PNMaps  map[EncryptionLevel]PacketNumberMap
	Path    PathManager
	Events  EventSink
	Timers  TimerSet
	WMem    WriteMemAccount
	Logs    LogSink
	Now     func() time.Time
	// ProbeInterval sets the PATH timer base interval. Defaults to 3s.
	ProbeInterval time.Duration
}

// NewOutQ constructs an OutQ, filling any unset Deps field with the
// package's default implementation.
func NewOutQ(d Deps) *OutQ {
	if d.Keys == nil {
		d.Keys = NewEpochKeys()
	}
	if d.PNMaps == nil {
		d.PNMaps = map[EncryptionLevel]PacketNumberMap{
			LevelInitial:   NewPNSpace(),
			LevelHandshake: NewPNSpace(),
			LevelApp:       NewPNSpace(),
		}
	}
	if d.Builder == nil {
		d.Builder = NewPacketWriter(1452, d.PNMaps)
	}
	if d.Cong == nil {
		d.Cong = map[EncryptionLevel]CongestionController{
			LevelInitial:   NewRenoCongestion(1452),
			LevelHandshake: NewRenoCongestion(1452),
			LevelApp:       NewRenoCongestion(1452),
		}
	}
	if d.Path == nil {
		d.Path = NewPathState(1200, 1452)
	}
	if d.Events == nil {
		d.Events = NewChanEventSink(64, nil)
	}
	if d.Timers == nil {
		d.Timers = NewWallTimers()
	}
	if d.WMem == nil {
		d.WMem = NewMemAccount()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.ProbeInterval == 0 {
		d.ProbeInterval = 3 * time.Second
	}
	q := &OutQ{
		keys:          d.Keys,
		builder:       d.Builder,
		cong:          d.Cong,
		pnmaps:        d.PNMaps,
		path:          d.Path,
		events:        d.Events,
		timers:        d.Timers,
		wmem:          d.WMem,
		logs:          d.Logs,
		now:           d.Now,
		probeInterval: d.ProbeInterval,
	}
	if c, ok := q.cong[LevelApp]; ok {
		q.window = c.Window()
	}
	return q
}

// SetTransportParams applies peer-advertised transport parameters and their
// side effects: the connection send credit (MaxData), idle-timeout
// negotiation, and the 1-RTT plaintext tag-length special case. No send
// buffer size is derived from MaxData; WriteMemAccount is not touched.
// Mirrors output.c's quic_outq_set_param.
func (q *OutQ) SetTransportParams(p TransportParams, localIdleTimeout time.Duration, localDisable1RTT bool) (effectiveIdleTimeout time.Duration) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.params = p
	q.maxBytes = p.MaxData

	effectiveIdleTimeout = localIdleTimeout
	if p.MaxIdleTimeout > 0 && (localIdleTimeout == 0 || p.MaxIdleTimeout < localIdleTimeout) {
		effectiveIdleTimeout = p.MaxIdleTimeout
	}

	if localDisable1RTT && p.Disable1RTTEncryption {
		q.builder.SetTagLen(0)
	}
	return effectiveIdleTimeout
}

// Window returns the current congestion window snapshot.
func (q *OutQ) Window() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.window
}

// DataInflight returns the current payload-bytes-in-flight counter.
func (q *OutQ) DataInflight() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dataInflight
}

// Inflight returns the current wire-bytes-in-flight counter.
func (q *OutQ) Inflight() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.inflight
}

// RtxCount returns the consecutive-loss-recovery-epoch counter.
func (q *OutQ) RtxCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.rtxCount
}

// Closed reports whether the connection has transitioned to CLOSED, after
// which further enqueues are no-ops.
func (q *OutQ) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// ConnState is the handshake-progress state a caller reports to OutQ so it
// can decide, e.g., which close frame and level to use. Mirrors the
// quic_is_established/quic_is_establishing checks the original makes
// against the enclosing socket's state.
type ConnState int

const (
	ConnStateEstablishing ConnState = iota
	ConnStateEstablished
	ConnStateOther
)

// SetConnState records the connection's current handshake-progress state.
func (q *OutQ) SetConnState(s ConnState) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.connState = s
}

// CloseErrCode returns the error code recorded by the most recent
// TransmitClose/TransmitAppClose call, or 0 if none has occurred.
func (q *OutQ) CloseErrCode() uint32 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closeErrCode
}

// CloseFrame returns the frame type recorded by the most recent
// TransmitClose call.
func (q *OutQ) CloseFrame() FrameType {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closeFrame
}

// logLocked emits a log event if a sink is attached, a no-op otherwise.
func (q *OutQ) logLocked(e LogEvent) {
	if q.logs != nil {
		q.logs.Log(e)
	}
}

func (q *OutQ) setWindowLocked(level EncryptionLevel) {
	if c, ok := q.cong[level]; ok {
		q.window = c.Window()
	}
}
