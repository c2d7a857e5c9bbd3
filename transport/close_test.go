package transport

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TransmitProbe's PING must occupy probe-sized wire space without being
// charged against flow control: Bytes stays 0 (so data_inflight tracks
// only real payload), while PadTo carries the padding size that
// estimateWireSize reserves for it. The PING is enqueued uncorked, so it
// is packed and moved to transmitted_list before TransmitProbe returns.
func TestTransmitProbeDoesNotInflateDataInflight(t *testing.T) {
	q, _ := newTestOutQ()

	q.TransmitProbe()

	require.Equal(t, 1, q.transmittedList.Len(), "the probe PING must be packed and transmitted")
	ping := q.transmittedList.Front()
	require.Equal(t, FramePing, ping.Type)
	require.Equal(t, LevelApp, ping.Level)

	require.EqualValues(t, 0, ping.Bytes, "a probe PING must never carry flow-controlled bytes")
	require.EqualValues(t, 1200, ping.PadTo, "PadTo must reserve the path's current probe size")
	require.EqualValues(t, 0, q.dataInflight, "Invariant 1: dataInflight must stay in sync with Σ transmitted frame.Bytes")
}

// TransmitProbe is a no-op before the connection is established.
func TestTransmitProbeNoopBeforeEstablished(t *testing.T) {
	q, _ := newTestOutQ()
	q.SetConnState(ConnStateEstablishing)

	q.TransmitProbe()

	require.Equal(t, 0, q.controlList.Len())
	require.Equal(t, 0, q.transmittedList.Len())
}
