package transport

import "time"

// testClock is a manually-advanced clock for deterministic RTO/PTO math in
// tests, grounded on the same "inject a now func" shape NewOutQ's Deps.Now
// already supports for production callers.
type testClock struct {
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// newTestOutQ builds an OutQ with all three encryption levels send-ready,
// a generously-sized default PacketWriter (so test frames never need to
// straddle a packet boundary unless a test wants that), and a manually
// advanced clock.
func newTestOutQ() (*OutQ, *testClock) {
	clock := newTestClock()
	keys := NewEpochKeys()
	keys.SetReady(LevelApp, true)
	keys.SetReady(LevelInitial, true)
	keys.SetReady(LevelHandshake, true)

	q := NewOutQ(Deps{
		Keys: keys,
		Now:  clock.Now,
	})
	q.SetConnState(ConnStateEstablished)
	q.SetTransportParams(TransportParams{MaxData: 1 << 20}, 0, false)
	return q, clock
}
