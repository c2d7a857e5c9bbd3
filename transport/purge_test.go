package transport

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// StreamPurge invariant (spec.md §8): after purging a stream, no frame
// referencing it remains in transmitted_list or stream_list, and the
// write-memory refund equals the sum of bytes removed.
func TestStreamPurgeRemovesAllFramesAndRefunds(t *testing.T) {
	q, clock := newTestOutQ()

	target := NewStream(1, 10_000)
	other := NewStream(2, 10_000)

	sent := NewStreamFrame(target, 0, 100, false)
	sent.Number = 1
	sent.Len = 120
	sent.TransmitTs = clock.Now()
	q.transmittedList.PushBack(sent)

	pending := NewStreamFrame(target, 100, 50, false)
	q.streamList.PushBack(pending)

	untouched := NewStreamFrame(other, 0, 30, false)
	q.streamList.PushBack(untouched)

	q.dataInflight = 100
	q.inflight = 120
	before := q.wmem.(*MemAccount).Allocated()
	q.wmem.Charge(150)

	q.StreamPurge(target)

	for f := q.transmittedList.Front(); f != nil; f = f.Next() {
		require.NotSame(t, target, f.Stream)
	}
	for f := q.streamList.Front(); f != nil; f = f.Next() {
		require.NotSame(t, target, f.Stream)
	}
	require.Equal(t, 1, q.streamList.Len(), "the other stream's frame must survive")
	require.Same(t, untouched, q.streamList.Front())
	require.EqualValues(t, 0, q.dataInflight)
	require.EqualValues(t, 0, q.inflight)
	require.Equal(t, before, q.wmem.(*MemAccount).Allocated(), "purge must refund exactly what was charged for the purged stream's frames")
}

// Free tears down every queue and refunds their combined write-memory
// charge down to zero.
func TestFreeDrainsAllQueuesAndZeroesWriteMemory(t *testing.T) {
	q, _ := newTestOutQ()

	s := NewStream(1, 10_000)
	q.streamList.PushBack(NewStreamFrame(s, 0, 40, false))
	q.controlList.PushBack(NewControlFrame(FrameAck, LevelApp))
	q.datagramList.PushBack(NewControlFrame(FrameDatagram, LevelApp))
	txd := NewControlFrame(FramePing, LevelApp)
	txd.Bytes = 0
	q.transmittedList.PushBack(txd)
	q.wmem.Charge(40)

	q.Free()

	require.Equal(t, 0, q.streamList.Len())
	require.Equal(t, 0, q.controlList.Len())
	require.Equal(t, 0, q.datagramList.Len())
	require.Equal(t, 0, q.transmittedList.Len())
	require.EqualValues(t, 0, q.wmem.(*MemAccount).Allocated())
}

// DiscardLevel removes every frame at level from all four queues (purging
// rather than requeueing them, since that packet-number space is gone for
// good) and drops its pnmap/congestion entries.
func TestDiscardLevelPurgesEverythingAtThatLevel(t *testing.T) {
	q, clock := newTestOutQ()

	initialCrypto := NewControlFrame(FrameCrypto, LevelInitial)
	q.controlList.PushBack(initialCrypto)

	appAck := NewControlFrame(FrameAck, LevelApp)
	q.controlList.PushBack(appAck)

	sentInitial := NewControlFrame(FrameCrypto, LevelInitial)
	sentInitial.Number = 1
	sentInitial.Len = 50
	sentInitial.TransmitTs = clock.Now()
	q.transmittedList.PushBack(sentInitial)
	q.inflight = 50

	q.DiscardLevel(LevelInitial)

	require.Equal(t, 1, q.controlList.Len(), "only the Initial-level control frame is purged")
	require.Same(t, appAck, q.controlList.Front())
	require.Equal(t, 0, q.transmittedList.Len())
	require.EqualValues(t, 0, q.inflight)

	_, ok := q.pnmaps[LevelInitial]
	require.False(t, ok, "the discarded level's packet-number space must be dropped")
	_, ok = q.cong[LevelInitial]
	require.False(t, ok, "the discarded level's congestion controller must be dropped")
}
