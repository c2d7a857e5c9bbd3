package transport

// transportErrorApplication is the generic APPLICATION_ERROR transport
// error code used when closing before the handshake has established
// (quic_outq_transmit_app_close's fallback errcode).
const transportErrorApplication = 0x0c

// TransmitClose is idempotent by errcode: a zero errcode is a no-op. On a
// nonzero errcode it delivers a ConnectionClose event — if the
// application claims it, transmission and the CLOSED transition are
// skipped, but the errcode/frame are still recorded for diagnostics — then
// enqueues a CONNECTION_CLOSE control frame at level and transitions the
// connection to CLOSED. Mirrors quic_outq_transmit_close.
func (q *OutQ) TransmitClose(frameType FrameType, errcode uint32, level EncryptionLevel) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if errcode == 0 {
		return
	}

	q.closeErrCode = errcode
	q.closeFrame = frameType
	q.closeSet = true

	cc := ConnectionClose{ErrCode: errcode, Frame: frameType}
	if q.events.Recv(EventConnectionClose, cc) {
		return
	}

	frame := NewControlFrame(frameType, level)
	q.controlTailLocked(frame, false)
	q.closed = true
	q.logLocked(newLogEventConnectionClosed(q.now(), cc))
}

// TransmitAppClose closes the connection with an application-originated
// error: CONNECTION_CLOSE_APP at App level once established, or a plain
// CONNECTION_CLOSE at Initial level while still establishing. A no-op once
// neither condition holds (already closed, or never started). Mirrors
// quic_outq_transmit_app_close.
func (q *OutQ) TransmitAppClose() {
	q.mu.Lock()
	defer q.mu.Unlock()

	var level EncryptionLevel
	frameType := FrameConnectionClose

	switch q.connState {
	case ConnStateEstablished:
		level = LevelApp
		frameType = FrameConnectionCloseApp
	case ConnStateEstablishing:
		level = LevelInitial
		q.closeErrCode = transportErrorApplication
	default:
		return
	}

	frame := NewControlFrame(frameType, level)
	q.controlTailLocked(frame, false)
}

// TransmitProbe sends a PING sized to the path's current MTU probe size,
// records the resulting packet number with the path manager (which may
// report back a newly confirmed MTU), and (re)arms the path timer. Only
// effective once established. Mirrors quic_outq_transmit_probe.
func (q *OutQ) TransmitProbe() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.transmitProbeLocked()
}

func (q *OutQ) transmitProbeLocked() {
	if q.connState != ConnStateEstablished {
		return
	}

	probeSize := q.path.ProbeSize()
	frame := NewControlFrame(FramePing, LevelApp)
	frame.PadTo = uint32(probeSize)

	pnmap := q.pnmaps[LevelApp]
	var number int64
	if pnmap != nil {
		number = pnmap.HighestSent() + 1
	}

	q.controlTailLocked(frame, false)

	if mtu := q.path.PLSend(number); mtu > 0 {
		q.builder.MSSUpdate(mtu + q.builder.TagLen())
	}

	q.timers.Reset(TimerPath, q.probeInterval)
}

// ValidatePath reacts to a packet arriving on a new path: it delivers a
// ConnectionMigration event (if the application claims it, nothing else
// happens), otherwise swaps in the alternate local address when the
// migration was locally initiated, frees the
// previously-active address, resets the path's validation counters and
// timer, and clears pathAlt's bit from every frame already queued for (or
// already sent on) the old path so they're eligible to be retried on the
// new one. Mirrors quic_outq_validate_path.
func (q *OutQ) ValidatePath(frame *Frame, local bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	pathAlt := uint8(PathAltDst)
	if q.events.Recv(EventConnectionMigration, local) {
		return
	}

	if local {
		q.path.SwapActive()
		pathAlt = PathAltSrc
	}
	q.path.AddrFree()
	q.path.SetSentCount(0)
	q.timers.Stop(TimerPath)
	q.timers.Reset(TimerPath, q.probeInterval)

	for cur := q.controlList.Front(); cur != nil; cur = cur.Next() {
		cur.PathAlt &^= pathAlt
	}
	for cur := q.transmittedList.Front(); cur != nil; cur = cur.Next() {
		cur.PathAlt &^= pathAlt
	}
	if frame != nil {
		frame.PathAlt &^= pathAlt
	}
	q.builder.SetECNProbes(0)
}
