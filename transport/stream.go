package transport

// StreamSendState is the send-side state machine of a QUIC stream, as driven
// by OutQ enqueue/ack/loss processing (receive-side state is out of scope).
type StreamSendState uint8

const (
	StreamSendReady StreamSendState = iota
	StreamSendSend
	StreamSendSent
	StreamSendRecvd
	StreamSendResetSent
	StreamSendResetRecvd
)

func (s StreamSendState) String() string {
	switch s {
	case StreamSendReady:
		return "ready"
	case StreamSendSend:
		return "send"
	case StreamSendSent:
		return "sent"
	case StreamSendRecvd:
		return "recvd"
	case StreamSendResetSent:
		return "reset_sent"
	case StreamSendResetRecvd:
		return "reset_recvd"
	default:
		return "unknown"
	}
}

// StreamSendStats is the subset of per-stream state OutQ reads and mutates.
type StreamSendStats struct {
	State StreamSendState

	// Bytes is cumulative bytes handed to OutQ (enqueued, not necessarily
	// transmitted or acked).
	Bytes uint64
	// MaxBytes is the peer-advertised send credit (flow control window).
	MaxBytes uint64
	// LastMaxBytes is the MaxBytes value for which a STREAM_DATA_BLOCKED
	// was last emitted, used to avoid repeat blocked announcements for the
	// same credit level.
	LastMaxBytes uint64
	DataBlocked  bool

	// Frags is the number of stream frames with Bytes>0 currently present
	// in transmitted_list for this stream (Invariant 3).
	Frags int

	ErrCode uint64
}

// Stream is a minimal send-side view of a QUIC stream, sufficient for OutQ's
// bookkeeping. Receive-side state, framing of incoming data, and the
// application read API are out of this engine's scope.
type Stream struct {
	ID   uint64
	Send StreamSendStats
}

// NewStream creates a stream in the READY send state with the given
// initial peer-advertised send credit.
func NewStream(id uint64, maxBytes uint64) *Stream {
	return &Stream{ID: id, Send: StreamSendStats{State: StreamSendReady, MaxBytes: maxBytes}}
}
