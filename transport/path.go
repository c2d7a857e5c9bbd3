package transport

import "sync"

// PathState is the default PathManager: in-memory path-MTU probing state
// and validation bookkeeping, grounded on output.c's quic_path_pl_* call
// sites in quic_outq_transmitted_sack/transmit_probe/validate_path.
type PathState struct {
	mu sync.Mutex

	probeSize   int
	maxProbe    int
	confirmed   bool
	pendingMTU  int
	sentCount   int
	local       bool
}

// NewPathState creates path state with an initial and maximum probe size.
func NewPathState(initialProbe, maxProbe int) *PathState {
	return &PathState{probeSize: initialProbe, maxProbe: maxProbe}
}

func (p *PathState) PLConfirm(largest, smallest int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.confirmed {
		p.confirmed = false
		return true
	}
	return false
}

func (p *PathState) PLRecv() (mtu int, raiseTimer bool, complete bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	mtu = p.pendingMTU
	p.pendingMTU = 0
	complete = p.probeSize >= p.maxProbe
	raiseTimer = complete
	return mtu, raiseTimer, complete
}

func (p *PathState) PLSend(number int64) (mtu int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	mtu = p.probeSize
	if p.probeSize < p.maxProbe {
		p.probeSize *= 2
		if p.probeSize > p.maxProbe {
			p.probeSize = p.maxProbe
		}
	}
	p.sentCount++
	return mtu
}

func (p *PathState) ProbeSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.probeSize
}

func (p *PathState) SwapActive() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.local = !p.local
}

func (p *PathState) AddrFree() {}

func (p *PathState) SetSentCount(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sentCount = n
}

// MarkConfirmed flags that the next PLConfirm call should report a
// confirmed probe, and stages the MTU PLRecv will hand back. Driven by
// whatever reads incoming ACK ranges outside this engine.
func (p *PathState) MarkConfirmed(mtu int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.confirmed = true
	p.pendingMTU = mtu
}
