package transport

import "sync/atomic"

// MemAccount is the default WriteMemAccount: a lock-free byte counter,
// refunded on purge/ack and charged on successful enqueue. Grounded on
// output.c's quic_outq_wfree/quic_outq_set_owner_w, which charge and
// uncharge the socket's write-memory accounting on the same transitions.
type MemAccount struct {
	n int64
}

func NewMemAccount() *MemAccount { return &MemAccount{} }

func (m *MemAccount) Charge(n int) {
	if n == 0 {
		return
	}
	atomic.AddInt64(&m.n, int64(n))
}

func (m *MemAccount) Free(n int) {
	if n == 0 {
		return
	}
	atomic.AddInt64(&m.n, -int64(n))
}

// Allocated returns the currently charged byte count.
func (m *MemAccount) Allocated() int64 {
	return atomic.LoadInt64(&m.n)
}
