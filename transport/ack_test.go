package transport

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Scenario 2 (spec.md §8): "Ack releases and drives state". Stream s in
// state SENT, frags=1, one frame in transmitted_list with number=42,
// bytes=500. transmitted_sack(App, 42, 42, 42, 0) must free the frame,
// drop frags to 0, drive state to RECVD, deliver a STREAM_UPDATE event,
// decrease data_inflight by 500, and reset rtx_count.
func TestTransmittedSackReleasesAndDrivesStreamState(t *testing.T) {
	q, clock := newTestOutQ()
	q.rtxCount = 3

	s := NewStream(7, 10_000)
	s.Send.State = StreamSendSent
	s.Send.Frags = 1

	frame := NewStreamFrame(s, 0, 500, false)
	frame.Number = 42
	frame.Len = 520
	frame.TransmitTs = clock.Now()
	q.transmittedList.PushBack(frame)
	q.dataInflight = 500
	q.inflight = 520

	acked := q.TransmittedSack(LevelApp, 42, 42, 42, 0)

	require.Equal(t, 500, acked)
	require.Equal(t, 0, q.transmittedList.Len(), "acked frame must be unlinked from transmitted_list")
	require.Equal(t, 0, s.Send.Frags)
	require.Equal(t, StreamSendRecvd, s.Send.State)
	require.EqualValues(t, 0, q.dataInflight)
	require.EqualValues(t, 0, q.inflight)
	require.Equal(t, 0, q.rtxCount)

	sink := q.events.(*ChanEventSink)
	select {
	case ev := <-sink.Events():
		require.Equal(t, EventStreamUpdate, ev.Kind)
		upd, ok := ev.Payload.(StreamUpdate)
		require.True(t, ok)
		require.Equal(t, s.ID, upd.ID)
		require.Equal(t, StreamSendRecvd, upd.State)
	default:
		t.Fatal("expected a STREAM_UPDATE event to have been delivered")
	}
}

// A RESET_STREAM frame being acked drives the stream to RESET_RECVD
// instead of RECVD, and carries no payload bytes (acked == 0).
func TestTransmittedSackAckedResetStream(t *testing.T) {
	q, clock := newTestOutQ()

	s := NewStream(5, 10_000)
	s.Send.ErrCode = 99
	s.Send.State = StreamSendResetSent

	frame := NewControlFrame(FrameResetStream, LevelApp)
	frame.Stream = s
	frame.Number = 10
	frame.Len = 32
	frame.TransmitTs = clock.Now()
	q.transmittedList.PushBack(frame)
	q.inflight = 32

	acked := q.TransmittedSack(LevelApp, 10, 10, 10, 0)

	require.Equal(t, 0, acked)
	require.Equal(t, StreamSendResetRecvd, s.Send.State)
	require.Equal(t, 0, q.transmittedList.Len())
}

// An ack outside [smallest, largest] leaves the transmitted frame alone.
func TestTransmittedSackIgnoresOutOfRangeNumbers(t *testing.T) {
	q, clock := newTestOutQ()

	frame := NewControlFrame(FramePing, LevelApp)
	frame.Number = 7
	frame.Len = 20
	frame.TransmitTs = clock.Now()
	q.transmittedList.PushBack(frame)
	q.inflight = 20

	acked := q.TransmittedSack(LevelApp, 20, 15, 20, 0)

	require.Equal(t, 0, acked)
	require.Equal(t, 1, q.transmittedList.Len(), "frame number 7 is below the acked range and must remain queued")
}
