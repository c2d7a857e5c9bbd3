package transport

import "time"

// EncryptionLevel is a QUIC packet-number-space / key epoch. App is the
// lowest level; Initial and Handshake frames are always drained before App
// frames when all three are send-ready.
type EncryptionLevel uint8

const (
	LevelApp EncryptionLevel = iota
	LevelInitial
	LevelHandshake
)

func (l EncryptionLevel) String() string {
	switch l {
	case LevelApp:
		return "app"
	case LevelInitial:
		return "initial"
	case LevelHandshake:
		return "handshake"
	default:
		return "unknown"
	}
}

// FrameType enumerates the frame kinds OutQ cares about. It is not a full
// QUIC frame-type registry: only the types that flow through the queue
// manager, scheduler, ack and loss processors need a case here.
type FrameType uint8

const (
	FrameCrypto FrameType = iota
	FrameAck
	FramePing
	FrameConnectionClose
	FrameConnectionCloseApp
	FrameHandshakeDone
	FrameStream
	FrameResetStream
	FrameStreamDataBlocked
	FrameDataBlocked
	FrameDatagram
)

// IsDatagram reports whether frames of this type are never retransmitted
// on loss (they are simply dropped and their bytes refunded).
func (t FrameType) IsDatagram() bool {
	return t == FrameDatagram
}

// String names a frame type for logging and metric labels.
func (t FrameType) String() string {
	return frameTypeName(t)
}

// PathAlt bits identify which alternate path a frame is tied to.
const (
	PathAltSrc uint8 = 1 << iota
	PathAltDst
)

// Frame is the unit of queueing. A Frame belongs to at most one FrameList at
// any moment (Invariant 4); transitions between lists are in-place moves via
// FrameList.Remove/PushBack, never copies.
type Frame struct {
	Type FrameType
	Level EncryptionLevel

	// Len is the frame's on-wire length contribution once packed.
	Len uint32
	// Bytes is the payload byte count charged against flow control; zero
	// for frames that carry no stream payload (control frames, PING, …).
	Bytes uint32
	// PadTo is a minimum wire-size hint for frames that must occupy space
	// on the wire without counting against flow control (a PTO or path-MTU
	// probe PING). Unlike Bytes, it never feeds data_inflight/congestion/
	// write-memory accounting — only estimateWireSize reads it.
	PadTo uint32
	// Offset is the stream offset for STREAM/RESET_STREAM frames, 0 otherwise.
	Offset uint64

	// Stream is a weak back-reference: Frame does not own Stream. Streams
	// must be purged (StreamPurge) before being discarded so that no Frame
	// is left pointing at freed state.
	Stream *Stream

	// Number is the packet number this frame was packed into. Undefined
	// (NumberUnset) until the packet builder packs it into a packet.
	Number int64
	// TransmitTs is the wall-clock time the packet carrying this frame was
	// sent. Zero until packed.
	TransmitTs time.Time

	ECN     bool
	PathAlt uint8
	// Fin marks a STREAM frame as carrying the final offset of the stream.
	Fin bool

	next, prev *Frame
	owner      *FrameList
}

// NumberUnset is the sentinel Frame.Number before a frame has been packed.
const NumberUnset int64 = -1

// NewControlFrame creates a frame with no stream payload at the given level.
func NewControlFrame(t FrameType, level EncryptionLevel) *Frame {
	return &Frame{Type: t, Level: level, Number: NumberUnset}
}

// NewStreamFrame creates a stream-carrying frame. Its level is always
// LevelApp (STREAM frames are 1-RTT only in this engine), so level is not
// a parameter.
func NewStreamFrame(s *Stream, offset uint64, bytes uint32, fin bool) *Frame {
	return &Frame{
		Type:   FrameStream,
		Level:  LevelApp,
		Stream: s,
		Offset: offset,
		Bytes:  bytes,
		Number: NumberUnset,
		Fin:    fin,
	}
}
