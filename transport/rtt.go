package transport

import "time"

// rttState implements RFC 9002 §5's RTT estimator. Ported from
// golang.org/x/net/internal/quic's rtt.go (vendored inside the
// distribution-distribution example), which is itself a direct
// implementation of the RFC; field names and formulas are kept, renamed to
// this package's style.
type rttState struct {
	minRTT      time.Duration
	latestRTT   time.Duration
	smoothedRTT time.Duration
	rttvar      time.Duration
}

func (r *rttState) init() {
	r.minRTT = -1 // sentinel: no sample yet

	// "the initial RTT SHOULD be set to 333 milliseconds."
	// https://www.rfc-editor.org/rfc/rfc9002.html#section-6.2.2-1
	const initialRTT = 333 * time.Millisecond
	r.smoothedRTT = initialRTT
	r.rttvar = initialRTT / 2
}

func (r *rttState) establishPersistentCongestion() {
	r.minRTT = r.latestRTT
}

// updateSample folds a new RTT sample into the estimator.
// https://www.rfc-editor.org/rfc/rfc9002.html#section-5
func (r *rttState) updateSample(handshakeConfirmed bool, latestRTT, ackDelay, maxAckDelay time.Duration) {
	r.latestRTT = latestRTT

	if r.minRTT < 0 {
		r.minRTT = latestRTT
		r.smoothedRTT = latestRTT
		r.rttvar = latestRTT / 2
		return
	}

	r.minRTT = min(r.minRTT, latestRTT)

	if handshakeConfirmed {
		ackDelay = min(ackDelay, maxAckDelay)
	}
	adjustedRTT := latestRTT - ackDelay
	if adjustedRTT < r.minRTT {
		adjustedRTT = latestRTT
	}
	rttvarSample := abs(r.smoothedRTT - adjustedRTT)
	r.rttvar = (3*r.rttvar + rttvarSample) / 4
	r.smoothedRTT = (7*r.smoothedRTT + adjustedRTT) / 8
}

func abs(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
