package transport

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Scenario 6 (spec.md §8): a locally-initiated path validation clears the
// PathAltSrc bit from every frame on control_list and transmitted_list (and
// the triggering frame itself), leaving any PathAltDst bit untouched.
func TestValidatePathClearsLocalAltBit(t *testing.T) {
	q, _ := newTestOutQ()
	q.SetConnState(ConnStateEstablished)

	ctrl := NewControlFrame(FrameAck, LevelApp)
	ctrl.PathAlt = PathAltSrc | PathAltDst
	q.controlList.PushBack(ctrl)

	sent := NewControlFrame(FramePing, LevelApp)
	sent.PathAlt = PathAltSrc
	q.transmittedList.PushBack(sent)

	trigger := NewControlFrame(FrameCrypto, LevelApp)
	trigger.PathAlt = PathAltSrc | PathAltDst

	q.ValidatePath(trigger, true)

	require.Equal(t, PathAltDst, ctrl.PathAlt, "PathAltSrc must be cleared, PathAltDst left alone")
	require.Equal(t, uint8(0), sent.PathAlt)
	require.Equal(t, PathAltDst, trigger.PathAlt)
}

// A non-local (peer-initiated) path validation clears PathAltDst instead,
// and never calls SwapActive.
func TestValidatePathClearsRemoteAltBit(t *testing.T) {
	q, _ := newTestOutQ()
	q.SetConnState(ConnStateEstablished)

	ctrl := NewControlFrame(FrameAck, LevelApp)
	ctrl.PathAlt = PathAltSrc | PathAltDst
	q.controlList.PushBack(ctrl)

	q.ValidatePath(nil, false)

	require.Equal(t, PathAltSrc, ctrl.PathAlt)
}

// PathState.PLSend doubles the probe size on every send up to its maximum.
func TestPathStatePLSendGrowsProbeSizeToMax(t *testing.T) {
	p := NewPathState(1200, 1452)

	first := p.PLSend(0)
	require.Equal(t, 1200, first)
	require.Equal(t, 1452, p.ProbeSize(), "1200*2 exceeds the 1452 cap and must clamp")

	second := p.PLSend(1)
	require.Equal(t, 1452, second)
	require.Equal(t, 1452, p.ProbeSize())
}

// MarkConfirmed primes PLConfirm/PLRecv for exactly the next call.
func TestPathStateMarkConfirmedFeedsPLRecv(t *testing.T) {
	p := NewPathState(1200, 1452)
	p.MarkConfirmed(1400)

	require.True(t, p.PLConfirm(10, 5))
	mtu, _, complete := p.PLRecv()
	require.Equal(t, 1400, mtu)
	require.False(t, complete, "probe size 1200 has not yet reached the 1452 max")

	require.False(t, p.PLConfirm(20, 15), "PLConfirm consumes the confirmed flag; a second call sees nothing pending")
}
