package transport

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Scenario 3 (spec.md §8): loss returns frames to stream_list in ascending
// offset order regardless of the order they were originally transmitted in.
func TestRetransmitMarkPreservesOffsetOrder(t *testing.T) {
	q, clock := newTestOutQ()

	s := NewStream(4, 1_000_000)
	s.Send.State = StreamSendSent
	s.Send.Frags = 2
	s.Send.Bytes = 300

	high := NewStreamFrame(s, 100, 100, false)
	high.Number = 1
	high.Len = 120
	high.TransmitTs = clock.Now()
	q.transmittedList.PushBack(high)

	low := NewStreamFrame(s, 0, 100, false)
	low.Number = 2
	low.Len = 120
	low.TransmitTs = clock.Now()
	q.transmittedList.PushBack(low)

	q.dataInflight = 200
	q.inflight = 240

	n := q.RetransmitMark(LevelApp, true)

	require.Equal(t, 2, n)
	require.Equal(t, 0, q.transmittedList.Len())
	require.Equal(t, 2, q.streamList.Len())

	var offsets []uint64
	for f := q.streamList.Front(); f != nil; f = f.Next() {
		offsets = append(offsets, f.Offset)
	}
	require.Equal(t, []uint64{0, 100}, offsets, "lost frames must be requeued in ascending offset order")

	require.Equal(t, 0, s.Send.Frags)
	require.EqualValues(t, 100, s.Send.Bytes, "each retransmit_one rewinds the stream's send-side byte counter")
	require.EqualValues(t, 0, q.dataInflight)
	require.EqualValues(t, 0, q.inflight)
}

// A lost datagram is dropped outright (never requeued) and its bytes
// refunded, per retransmit_mark's IsDatagram short-circuit.
func TestRetransmitMarkDropsLostDatagrams(t *testing.T) {
	q, clock := newTestOutQ()

	frame := NewControlFrame(FrameDatagram, LevelApp)
	frame.Bytes = 400
	frame.Number = 1
	frame.Len = 420
	frame.TransmitTs = clock.Now()
	q.transmittedList.PushBack(frame)
	q.dataInflight = 400
	q.inflight = 420

	n := q.RetransmitMark(LevelApp, true)

	require.Equal(t, 0, n, "datagrams are dropped, not counted as retransmitted")
	require.Equal(t, 0, q.transmittedList.Len())
	require.Equal(t, 0, q.streamList.Len())
	require.Equal(t, 0, q.controlList.Len())
}

// Scenario 4 (spec.md §8): when nothing is pending and nothing in flight
// looks lost, TransmitOne's PTO handler synthesizes and sends a PING.
func TestTransmitOneSynthesizesPingWhenNothingToSend(t *testing.T) {
	q, _ := newTestOutQ()

	q.TransmitOne(LevelApp)

	require.Equal(t, 1, q.transmittedList.Len(), "the synthesized PING must actually be packed and transmitted")
	ping := q.transmittedList.Front()
	require.Equal(t, FramePing, ping.Type)
	require.Equal(t, LevelApp, ping.Level)
	require.Equal(t, 1, q.rtxCount)

	require.EqualValues(t, 0, ping.Bytes, "a padding PING must never carry flow-controlled bytes")
	require.EqualValues(t, 0, q.dataInflight, "Invariant 1: dataInflight must stay in sync with Σ transmitted frame.Bytes")
}

// When a normal transmit still has pending frames to send, TransmitOne must
// send those instead of reaching for retransmit_mark or a synthetic PING.
func TestTransmitOnePrefersPendingFramesOverPing(t *testing.T) {
	q, _ := newTestOutQ()

	frame := NewControlFrame(FrameCrypto, LevelApp)
	require.NoError(t, q.ControlTail(frame, true))

	q.TransmitOne(LevelApp)

	require.Equal(t, 1, q.transmittedList.Len())
	require.Equal(t, FrameCrypto, q.transmittedList.Front().Type)
	require.Equal(t, 1, q.rtxCount)
}
