package transport

import (
	"sync"
	"time"
)

// timerGranularity is the RFC 9002 §6.2.1 assumed system timer granularity.
const timerGranularity = time.Millisecond

// minWindowSegments is RFC 9002 §7.2's floor (2 * max_datagram_size).
const minWindowSegments = 2

// RenoCongestion is the default CongestionController: NewReno per RFC 9002
// §7. Adapted from golang.org/x/net/internal/quic's congestion_reno.go
// (vendored inside the distribution-distribution example) to the push-model
// cwnd_update_after_{sack,timeout} entry points output.c's ack/loss
// processors actually call, rather than x/net's pull-model
// packetSent/packetBatchEnd bookkeeping (which assumes x/net's own
// sent-packet list, a collaborator out of this engine's scope).
type RenoCongestion struct {
	mu sync.Mutex

	mtu int

	cwnd     int
	ssthresh int

	// recoveryStart marks the wall-clock instant recovery began; a loss or
	// ack for a packet sent before recoveryStart does not re-trigger
	// recovery or window growth suppression from an already-handled event.
	recoveryStart time.Time

	ptoBackoffCount int
	maxAckDelay     time.Duration
	handshakeConfirmed bool

	rtt rttState
}

// NewRenoCongestion creates a controller with the RFC 9002 §7.2 initial
// window: min(10*mtu, max(14720, 2*mtu)).
func NewRenoCongestion(mtu int) *RenoCongestion {
	c := &RenoCongestion{mtu: mtu, ssthresh: int(^uint(0) >> 1)}
	iw := 10 * mtu
	floor := 2 * mtu
	if floor < 14720 {
		floor = 14720
	}
	if iw > floor {
		iw = floor
	}
	c.cwnd = iw
	c.rtt.init()
	return c
}

func (c *RenoCongestion) SetMaxAckDelay(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maxAckDelay = d
}

func (c *RenoCongestion) ConfirmHandshake() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handshakeConfirmed = true
}

func (c *RenoCongestion) RTTUpdate(now time.Time, transmitTs time.Time, ackDelay time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	latest := now.Sub(transmitTs)
	if latest < 0 {
		latest = 0
	}
	c.rtt.updateSample(c.handshakeConfirmed, latest, ackDelay, c.maxAckDelay)
}

// pto returns the base probe-timeout duration, RFC 9002 §6.2.1:
// smoothed_rtt + max(4*rttvar, timer_granularity) + max_ack_delay.
func (c *RenoCongestion) pto() time.Duration {
	return c.rtt.smoothedRTT + max(4*c.rtt.rttvar, timerGranularity) + c.maxAckDelay
}

func (c *RenoCongestion) RTO() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := c.pto()
	for i := 0; i < c.ptoBackoffCount; i++ {
		d *= 2
	}
	return d
}

func (c *RenoCongestion) Duration() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pto()
}

func (c *RenoCongestion) Window() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cwnd
}

func (c *RenoCongestion) CWndUpdateAfterSack(now time.Time, ackedNumber int64, transmitTs time.Time, ackedBytes int, dataInflight int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ptoBackoffCount = 0
	if !c.recoveryStart.IsZero() && !transmitTs.After(c.recoveryStart) {
		// Packet was sent before the current recovery period began:
		// acking it doesn't grow the window (RFC 9002 §7.3.2).
		return
	}
	if c.cwnd < c.ssthresh {
		// Slow start: the window grows by the number of acked bytes.
		c.cwnd += ackedBytes
		return
	}
	// Congestion avoidance: RFC 9002 §7.3.3.
	c.cwnd += c.mtu * ackedBytes / c.cwnd
}

func (c *RenoCongestion) CWndUpdateAfterTimeout(now time.Time, number int64, transmitTs time.Time, lastNumber int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.recoveryStart.IsZero() && !transmitTs.After(c.recoveryStart) {
		// Already in recovery for this send episode.
		return
	}
	c.recoveryStart = now
	c.ssthresh = c.cwnd / 2
	floor := minWindowSegments * c.mtu
	if c.ssthresh < floor {
		c.ssthresh = floor
	}
	c.cwnd = c.ssthresh
	c.ptoBackoffCount++
}
