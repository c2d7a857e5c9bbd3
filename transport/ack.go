package transport

import "time"

// TransmittedSack processes an acknowledgement covering packet numbers in
// [smallest, largest] at level, with ackLargest the largest directly-acked
// number and ackDelay the peer-reported ack delay. Returns the number of
// bytes released. Mirrors quic_outq_transmitted_sack, including the
// path-MTU-confirm preamble.
func (q *OutQ) TransmittedSack(level EncryptionLevel, largest, smallest, ackLargest int64, ackDelay time.Duration) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	now := q.now()

	if q.path.PLConfirm(largest, smallest) {
		mtu, raiseTimer, complete := q.path.PLRecv()
		if mtu > 0 {
			q.builder.MSSUpdate(mtu + q.builder.TagLen())
		}
		if !complete {
			q.transmitProbeLocked()
		}
		if raiseTimer {
			// Reuse the probe timer as a longer-interval "raise" timer.
			q.timers.Reset(TimerPath, q.probeInterval*30)
		}
	}

	pnmap := q.pnmaps[level]

	var ackedBytes int
	var ackedNumber int64
	var transmitTs time.Time
	gotFirst := false

	cur := q.transmittedList.Back()
	for cur != nil {
		if level != cur.Level {
			cur = cur.Prev()
			continue
		}
		if cur.Number > largest {
			cur = cur.Prev()
			continue
		}
		if cur.Number < smallest {
			break
		}

		if cur.Number == ackLargest {
			if cc, ok := q.cong[level]; ok {
				cc.RTTUpdate(now, cur.TransmitTs, ackDelay)
				rto := cc.RTO()
				if pnmap != nil {
					pnmap.SetMaxRecordTS(2 * rto)
				}
			}
		}
		if !gotFirst {
			ackedNumber = cur.Number
			transmitTs = cur.TransmitTs
			gotFirst = true
		}

		s := cur.Stream
		switch {
		case cur.Bytes > 0 && s != nil:
			s.Send.Frags--
			if s.Send.Frags == 0 && s.Send.State == StreamSendSent {
				upd := StreamUpdate{ID: s.ID, State: StreamSendRecvd}
				if q.events.Recv(EventStreamUpdate, upd) {
					// Event delivery refused: roll back and retry on the
					// next ack instead of unlinking this frame now.
					s.Send.Frags++
					cur = cur.Prev()
					continue
				}
				s.Send.State = StreamSendRecvd
			}
		case cur.Type == FrameResetStream && s != nil:
			upd := StreamUpdate{ID: s.ID, State: StreamSendResetRecvd, ErrCode: s.Send.ErrCode}
			if q.events.Recv(EventStreamUpdate, upd) {
				cur = cur.Prev()
				continue
			}
			s.Send.State = StreamSendResetRecvd
		case cur.Type == FrameStreamDataBlocked && s != nil:
			s.Send.DataBlocked = false
		case cur.Type == FrameDataBlocked:
			q.dataBlocked = false
		}

		if pnmap != nil {
			pnmap.SetMaxPNAcked(cur.Number)
			pnmap.DecInflight(int(cur.Len))
		}
		q.logLocked(newLogEventFrameAcked(now, cur))
		ackedBytes += int(cur.Bytes)
		q.dataInflight -= int64(cur.Bytes)
		q.inflight -= int64(cur.Len)

		prev := cur.Prev()
		q.transmittedList.Remove(cur)
		cur = prev
	}

	q.rtxCount = 0
	if ackedBytes > 0 {
		if cc, ok := q.cong[level]; ok {
			cc.CWndUpdateAfterSack(now, ackedNumber, transmitTs, ackedBytes, int(q.dataInflight))
			q.setWindowLocked(level)
		}
		if q.wmem != nil {
			q.wmem.Free(ackedBytes)
		}
	}
	return ackedBytes
}
