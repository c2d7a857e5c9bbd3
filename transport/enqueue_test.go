package transport

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Scenario 1 (spec.md §8): backpressure emits DATA_BLOCKED. The blocked
// advertisement is packetized immediately per §4.3 ("re-enter phase 1 ...
// so that the blocked advertisement is packetized immediately"), so by the
// time StreamTail returns it has already moved out of control_list and
// into transmitted_list rather than sitting queued.
func TestFlowControlGateEmitsStreamDataBlocked(t *testing.T) {
	q, _ := newTestOutQ()

	s := NewStream(9, 1000)
	s.Send.State = StreamSendSend
	s.Send.Bytes = 900

	frame := NewStreamFrame(s, 900, 200, false)
	require.NoError(t, q.StreamTail(frame, false))

	require.Equal(t, 1, q.streamList.Len(), "blocked frame must remain queued, not packed")
	require.Same(t, frame, q.streamList.Front())

	require.Equal(t, 0, q.controlList.Len(), "the blocked advertisement was packetized immediately, not left queued")
	require.Equal(t, 1, q.transmittedList.Len())
	blocked := q.transmittedList.Front()
	require.Equal(t, FrameStreamDataBlocked, blocked.Type)
	require.Same(t, s, blocked.Stream)

	require.True(t, s.Send.DataBlocked)
	require.EqualValues(t, 1000, s.Send.LastMaxBytes)
}

// Connection-level DATA_BLOCKED mirrors the stream-level one when it's the
// connection's own send credit, not the stream's, that is exhausted.
func TestFlowControlGateEmitsConnectionDataBlocked(t *testing.T) {
	q, _ := newTestOutQ()
	q.SetTransportParams(TransportParams{MaxData: 1000}, 0, false)
	q.bytes = 900

	s := NewStream(3, 1_000_000)
	s.Send.State = StreamSendSend

	frame := NewStreamFrame(s, 0, 200, false)
	require.NoError(t, q.StreamTail(frame, false))

	require.Equal(t, 1, q.streamList.Len())
	require.Equal(t, 0, q.controlList.Len())
	require.Equal(t, 1, q.transmittedList.Len())
	require.Equal(t, FrameDataBlocked, q.transmittedList.Front().Type)
	require.True(t, q.dataBlocked)
}

// Level ordering invariant (spec.md §8): a mix of Initial/Handshake/App
// control frames always drains Initial, then Handshake, then App.
func TestControlTailHandshakeFirstOrdering(t *testing.T) {
	q, _ := newTestOutQ()

	app := NewControlFrame(FrameAck, LevelApp)
	require.NoError(t, q.ControlTail(app, true))

	initial := NewControlFrame(FrameCrypto, LevelInitial)
	require.NoError(t, q.ControlTail(initial, true))

	require.Same(t, initial, q.controlList.Front(), "initial-level frame must be spliced before the app-level frame")
	require.Same(t, app, q.controlList.Back())

	handshake := NewControlFrame(FrameCrypto, LevelHandshake)
	require.NoError(t, q.ControlTail(handshake, true))

	// Both non-app frames precede the app frame; within non-app levels,
	// insertion is simple append order (FIFO), matching
	// quic_outq_ctrl_tail's single-pass splice-before-first-app-frame rule.
	require.Equal(t, app, q.controlList.Back())
	require.NotEqual(t, LevelApp, q.controlList.Front().Level)

	var order []EncryptionLevel
	for f := q.controlList.Front(); f != nil; f = f.Next() {
		order = append(order, f.Level)
	}
	require.Equal(t, []EncryptionLevel{LevelInitial, LevelHandshake, LevelApp}, order)
}

// Scenario 5 (spec.md §8): Transmit actually packs in level-priority order
// once both levels are send-ready.
func TestTransmitPacksInitialBeforeApp(t *testing.T) {
	q, _ := newTestOutQ()

	app := NewControlFrame(FrameAck, LevelApp)
	require.NoError(t, q.ControlTail(app, true))
	initial := NewControlFrame(FrameCrypto, LevelInitial)
	require.NoError(t, q.ControlTail(initial, true))

	var packedOrder []EncryptionLevel
	w := q.builder.(*PacketWriter)
	w.OnTransmit = func(level EncryptionLevel, frames []*Frame) {
		packedOrder = append(packedOrder, level)
	}

	q.Transmit()

	require.Equal(t, []EncryptionLevel{LevelInitial, LevelApp}, packedOrder)
}

// Idempotence (spec.md §8): a second Transmit with no new input produces
// no further packets.
func TestTransmitIsIdempotentWithNoNewInput(t *testing.T) {
	q, _ := newTestOutQ()

	frame := NewControlFrame(FramePing, LevelApp)
	require.NoError(t, q.ControlTail(frame, false))
	require.Equal(t, 1, q.transmittedList.Len())

	packets := 0
	w := q.builder.(*PacketWriter)
	w.OnTransmit = func(level EncryptionLevel, frames []*Frame) { packets++ }

	q.Transmit()
	require.Equal(t, 0, packets, "nothing new to pack; Transmit must be a no-op")
}
