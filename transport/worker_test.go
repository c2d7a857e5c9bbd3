package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testPacketSink struct {
	sent chan EncryptedPacket
}

func newTestPacketSink() *testPacketSink {
	return &testPacketSink{sent: make(chan EncryptedPacket, 8)}
}

func (s *testPacketSink) Send(pkt EncryptedPacket) error {
	s.sent <- pkt
	return nil
}

// EncryptedTail starts the async drain worker on first use and hands every
// queued packet to the sink, bypassing the normal Transmit scheduler.
func TestEncryptedTailDrainsToSink(t *testing.T) {
	q, _ := newTestOutQ()
	sink := newTestPacketSink()

	pkt := EncryptedPacket{Level: LevelApp, Payload: []byte("hello")}
	q.EncryptedTail(pkt, sink)

	select {
	case got := <-sink.sent:
		require.Equal(t, pkt.Payload, got.Payload)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the async worker to drain the packet")
	}

	q.StopWorker()
}

// StopWorker drains whatever is already buffered before the worker exits,
// rather than dropping it.
func TestStopWorkerDrainsBufferedPackets(t *testing.T) {
	q, _ := newTestOutQ()
	sink := newTestPacketSink()

	q.EncryptedTail(EncryptedPacket{Level: LevelApp, Payload: []byte("a")}, sink)
	q.EncryptedTail(EncryptedPacket{Level: LevelApp, Payload: []byte("b")}, sink)

	q.StopWorker()

	var got [][]byte
	for i := 0; i < 2; i++ {
		select {
		case pkt := <-sink.sent:
			got = append(got, pkt.Payload)
		case <-time.After(time.Second):
			t.Fatalf("only received %d of 2 buffered packets before timeout", i)
		}
	}
	require.ElementsMatch(t, [][]byte{[]byte("a"), []byte("b")}, got)
}
