package transport

import "time"

// timerIDForLevel maps an encryption level to its per-level loss timer.
func timerIDForLevel(level EncryptionLevel) TimerID {
	switch level {
	case LevelInitial:
		return TimerLossInitial
	case LevelHandshake:
		return TimerLossHandshake
	default:
		return TimerLossApp
	}
}

// RetransmitMark walks transmitted_list for level and marks frames that
// look lost (by RTO, or unconditionally when immediate is set) back onto
// their pending queues for retransmission, folding the loss into the
// congestion controller. Returns the count of non-datagram frames marked
// lost. Mirrors quic_outq_retransmit_mark.
func (q *OutQ) RetransmitMark(level EncryptionLevel, immediate bool) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.retransmitMarkLocked(level, immediate)
}

func (q *OutQ) retransmitMarkLocked(level EncryptionLevel, immediate bool) int {
	pnmap := q.pnmaps[level]
	cc := q.cong[level]
	now := q.now()

	if pnmap != nil {
		pnmap.SetLossTS(time.Time{})
	}
	var last int64
	if pnmap != nil {
		last = pnmap.HighestSent()
	}

	count := 0
	var refundedBytes uint64

	cur := q.transmittedList.Front()
	for cur != nil {
		if level != cur.Level {
			cur = cur.Next()
			continue
		}

		transmitTs := cur.TransmitTs
		number := cur.Number
		var rto time.Duration
		if cc != nil {
			rto = cc.RTO()
		}
		maxPNAcked := int64(-1)
		if pnmap != nil {
			maxPNAcked = pnmap.MaxPNAcked()
		}
		if !immediate && transmitTs.Add(rto).After(now) && number+6 > maxPNAcked {
			if pnmap != nil {
				pnmap.SetLossTS(transmitTs.Add(rto))
			}
			break
		}

		if pnmap != nil {
			pnmap.DecInflight(int(cur.Len))
		}
		q.dataInflight -= int64(cur.Bytes)
		q.inflight -= int64(cur.Len)

		next := cur.Next()
		q.transmittedList.Remove(cur)

		lost := cur
		if lost.Type.IsDatagram() {
			// No need to retransmit a datagram: it's simply dropped, and
			// its write-memory charge is refunded.
			refundedBytes += uint64(lost.Bytes)
		} else {
			q.logLocked(newLogEventFrameLost(now, lost))
			q.retransmitOneLocked(lost)
			count++
		}

		if lost.Bytes > 0 && cc != nil {
			cc.CWndUpdateAfterTimeout(now, number, transmitTs, last)
			q.setWindowLocked(level)
		}

		cur = next
	}

	if refundedBytes > 0 && q.wmem != nil {
		q.wmem.Free(int(refundedBytes))
	}
	q.updateLossTimerLocked(level)
	return count
}

// RetransmitList unconditionally moves every frame on head back to its
// pending queue (datagrams are dropped instead), used when discarding an
// encryption level entirely. Mirrors quic_outq_retransmit_list.
func (q *OutQ) RetransmitList(head *FrameList) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.retransmitListLocked(head)
}

func (q *OutQ) retransmitListLocked(head *FrameList) {
	var refundedBytes uint64
	cur := head.Front()
	for cur != nil {
		next := cur.Next()
		head.Remove(cur)
		q.dataInflight -= int64(cur.Bytes)
		if cur.Type.IsDatagram() {
			refundedBytes += uint64(cur.Bytes)
		} else {
			q.retransmitOneLocked(cur)
		}
		cur = next
	}
	if refundedBytes > 0 && q.wmem != nil {
		q.wmem.Free(int(refundedBytes))
	}
}

// retransmitOneLocked places a lost frame back onto control_list or
// stream_list (rewinding the send-side counters a successful Tail had
// already applied), preserving the placement algorithm of
// quic_outq_retransmit_one: scan for the first frame at a level lower
// than frame's, or — within the same level — the first frame whose offset
// is either unset or greater than frame's, and splice immediately before
// it (append at the tail if none found).
func (q *OutQ) retransmitOneLocked(frame *Frame) {
	list := &q.controlList
	if frame.Bytes > 0 {
		list = &q.streamList
		if s := frame.Stream; s != nil {
			s.Send.Frags--
			s.Send.Bytes -= uint64(frame.Bytes)
		}
		q.bytes -= uint64(frame.Bytes)
	}
	insertRetransmitOrdered(list, frame)
}

// insertRetransmitOrdered is a verbatim port of quic_outq_retransmit_one's
// placement loop. A queued frame (cur) with Offset == 0 is treated the same
// as "offset unset" (!pos->offset in the original, which conflates a real offset of
// zero with no offset at all — preserved here rather than reconciled,
// since it is how the reference implementation actually behaves).
func insertRetransmitOrdered(l *FrameList, frame *Frame) {
	var pos *Frame
	for cur := l.Front(); cur != nil; cur = cur.Next() {
		if frame.Level < cur.Level {
			continue
		}
		if frame.Level > cur.Level {
			pos = cur
			break
		}
		if cur.Offset == 0 || frame.Offset < cur.Offset {
			pos = cur
			break
		}
	}
	l.InsertBefore(frame, pos)
}

// UpdateLossTimer (re)arms or stops level's loss timer from the current
// pnmap/congestion state. Mirrors quic_outq_update_loss_timer's 3-case
// logic: an already-recorded loss timestamp wins outright; an empty
// in-flight set stops the timer; otherwise the timer is armed to
// last-sent-ts plus the congestion duration scaled by 1+rtx_count.
func (q *OutQ) UpdateLossTimer(level EncryptionLevel) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.updateLossTimerLocked(level)
}

func (q *OutQ) updateLossTimerLocked(level EncryptionLevel) {
	pnmap := q.pnmaps[level]
	if pnmap == nil {
		return
	}
	id := timerIDForLevel(level)
	now := q.now()

	timeout := pnmap.LossTS()
	if !timeout.IsZero() {
		if timeout.Before(now) {
			timeout = now.Add(time.Microsecond)
		}
		q.timers.Reduce(id, timeout.Sub(now))
		return
	}

	if pnmap.Inflight() == 0 {
		q.timers.Stop(id)
		return
	}

	var duration time.Duration
	if cc, ok := q.cong[level]; ok {
		duration = cc.Duration() * time.Duration(1+q.rtxCount)
	}
	timeout = pnmap.LastSentTS().Add(duration)
	if timeout.Before(now) {
		timeout = now.Add(time.Microsecond)
	}
	q.timers.Reduce(id, timeout.Sub(now))
}

// TransmitOne is the PTO handler: invoked when level's loss timer fires.
// It first retries a normal transmit restricted to level; if that sends
// nothing, it marks in-flight frames as lost and retries once more; if
// that still sends nothing, it synthesizes and immediately sends a PING
// so the peer's ack keeps the loss-detection loop alive. Mirrors
// quic_outq_transmit_one.
func (q *OutQ) TransmitOne(level EncryptionLevel) {
	q.mu.Lock()
	defer q.mu.Unlock()

	const minUDPPayload = 1200

	q.builder.SetFilter(level, true)
	if q.transmitLocked() {
		q.rtxCount++
		q.updateLossTimerLocked(level)
		return
	}

	if q.retransmitMarkLocked(level, false) > 0 {
		q.builder.SetFilter(level, true)
		if q.transmitLocked() {
			q.rtxCount++
			q.updateLossTimerLocked(level)
			return
		}
	}

	frame := NewControlFrame(FramePing, level)
	frame.PadTo = minUDPPayload
	q.controlTailLocked(frame, false)

	q.rtxCount++
	q.updateLossTimerLocked(level)
}
