package transport

import (
	"sync"
	"time"
)

// WallTimers is the default TimerSet: five time.Timers, one per TimerID,
// matching original_source/net/quic/timer.h's QUIC_TIMER_{AP_LOSS,IN_LOSS,
// HS_LOSS,SACK,PATH} enum exactly (QUIC_TIMER_MAX = 5). Expiry is observed
// by the caller via Fired, which returns a channel per timer; OutQ itself
// never reads these channels — that's left to the connection driving loop,
// matching "OutQ merely arms and stops them" in spec's concurrency model.
type WallTimers struct {
	mu     sync.Mutex
	timers [5]*time.Timer
	armed  [5]time.Time
}

func NewWallTimers() *WallTimers {
	return &WallTimers{}
}

func (w *WallTimers) Start(id TimerID, d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timers[id] != nil {
		return
	}
	w.arm(id, d)
}

func (w *WallTimers) Reset(id TimerID, d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopLocked(id)
	w.arm(id, d)
}

func (w *WallTimers) Reduce(id TimerID, d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	target := time.Now().Add(d)
	if !w.armed[id].IsZero() && w.armed[id].Before(target) {
		return
	}
	w.stopLocked(id)
	w.arm(id, d)
}

func (w *WallTimers) Stop(id TimerID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopLocked(id)
}

func (w *WallTimers) arm(id TimerID, d time.Duration) {
	w.armed[id] = time.Now().Add(d)
	w.timers[id] = time.NewTimer(d)
}

func (w *WallTimers) stopLocked(id TimerID) {
	if w.timers[id] != nil {
		w.timers[id].Stop()
		w.timers[id] = nil
	}
	w.armed[id] = time.Time{}
}

// Fired returns the channel to observe for id's expiry, or nil if the timer
// is not currently armed.
func (w *WallTimers) Fired(id TimerID) <-chan time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timers[id] == nil {
		return nil
	}
	return w.timers[id].C
}
