package transport

// Transmit is OutQ's single, idempotent entry point: it drains control_list,
// then datagram_list, then stream_list, each under its own gates, and
// flushes any half-built packet at the end. Mirrors quic_outq_transmit's
// three-phase-plus-flush shape.
func (q *OutQ) Transmit() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.transmitLocked()
}

// transmitLocked runs the three phases plus final flush and reports
// whether any packet was actually transmitted, mirroring
// quic_outq_transmit's int return (quic_packet_flush's result, used by
// TransmitOne to decide whether to fall through to retransmit_mark).
func (q *OutQ) transmitLocked() bool {
	n := 0
	n += q.transmitControlLocked()
	n += q.transmitDatagramLocked()
	n += q.transmitStreamLocked()
	n += q.onPacketPackedLocked(q.builder.Flush())
	return n > 0
}

// onPacketPackedLocked moves a finalized packet's frames into
// transmitted_list (preserving the handshake-first ordering rule) and
// folds their wire length into the inflight counter (Invariant 2). Frames
// were already removed from their pending list at the moment Tail
// succeeded, and any flow-control/stream counters were already applied
// there — this step only concerns what happens once a packet is actually
// finalized onto the wire. Returns the number of frames packed.
func (q *OutQ) onPacketPackedLocked(frames []*Frame) int {
	if len(frames) == 0 {
		return 0
	}
	for _, f := range frames {
		q.transmittedTailLocked(f)
		q.inflight += int64(f.Len)
	}
	q.logLocked(newLogEventPacketSent(q.now(), frames[0].Level, frames[0].Number, len(frames)))
	return len(frames)
}

// transmitControlLocked drains control_list in order. Mirrors
// quic_outq_transmit_ctrl.
func (q *OutQ) transmitControlLocked() int {
	packed := 0
	cur := q.controlList.Front()
	for cur != nil {
		if !q.keys.SendReady(cur.Level) {
			break
		}
		res := q.builder.Config(cur.Level, cur.PathAlt)
		if res == ConfigBlocked {
			break
		}
		if res == ConfigFiltered {
			cur = cur.Next()
			continue
		}
		if q.builder.Tail(cur, false) {
			next := cur.Next()
			q.controlList.Remove(cur)
			cur = next
			continue
		}
		// Doesn't fit: finalize the in-progress packet and retry the same
		// frame (the cursor step-back from spec's design notes).
		n := q.onPacketPackedLocked(q.builder.Create())
		if n == 0 {
			// Nothing flushed and it still doesn't fit: this single frame
			// exceeds the packet budget. Avoid looping forever.
			break
		}
		packed += n
	}
	return packed
}

// transmitDatagramLocked drains datagram_list at the current data level,
// gated by the congestion window. Mirrors quic_outq_transmit_dgram.
func (q *OutQ) transmitDatagramLocked() int {
	level := q.dataLevel
	if !q.keys.SendReady(level) {
		return 0
	}

	packed := 0
	cur := q.datagramList.Front()
	for cur != nil {
		if q.dataInflight+int64(estimateWireSize(cur)) > int64(q.window) {
			break
		}
		res := q.builder.Config(level, cur.PathAlt)
		if res == ConfigBlocked {
			break
		}
		if res == ConfigFiltered {
			cur = cur.Next()
			continue
		}
		if q.builder.Tail(cur, true) {
			q.dataInflight += int64(cur.Bytes)
			next := cur.Next()
			q.datagramList.Remove(cur)
			cur = next
			continue
		}
		n := q.onPacketPackedLocked(q.builder.Create())
		if n == 0 {
			break
		}
		packed += n
	}
	return packed
}

// transmitStreamLocked drains stream_list at the current data level, gated
// by flow control (only enforced at App level). Mirrors
// quic_outq_transmit_stream.
func (q *OutQ) transmitStreamLocked() int {
	level := q.dataLevel
	if !q.keys.SendReady(level) {
		return 0
	}

	packed := 0
	cur := q.streamList.Front()
	for cur != nil {
		if level == LevelApp && q.flowControlGateLocked(cur) {
			break
		}
		res := q.builder.Config(level, cur.PathAlt)
		if res == ConfigBlocked {
			break
		}
		if res == ConfigFiltered {
			cur = cur.Next()
			continue
		}
		if q.builder.Tail(cur, false) {
			if cur.Stream != nil {
				cur.Stream.Send.Frags++
				cur.Stream.Send.Bytes += uint64(cur.Bytes)
			}
			q.bytes += uint64(cur.Bytes)
			q.dataInflight += int64(cur.Bytes)
			next := cur.Next()
			q.streamList.Remove(cur)
			cur = next
			continue
		}
		n := q.onPacketPackedLocked(q.builder.Create())
		if n == 0 {
			break
		}
		packed += n
	}
	return packed
}

// flowControlGateLocked is invoked before each stream frame at App level.
// It returns true (blocked) if the frame cannot currently be sent, having
// synthesized STREAM_DATA_BLOCKED/DATA_BLOCKED control frames as needed.
// Mirrors quic_outq_flow_control.
func (q *OutQ) flowControlGateLocked(frame *Frame) bool {
	blocked := false
	blockedFrameEmitted := false
	lenBytes := uint64(frame.Bytes)

	if q.dataInflight+int64(frame.Bytes) > int64(q.window) {
		blocked = true
	}

	s := frame.Stream
	if s != nil && s.Send.Bytes+lenBytes > s.Send.MaxBytes {
		if !s.Send.DataBlocked && s.Send.LastMaxBytes < s.Send.MaxBytes {
			nframe := NewControlFrame(FrameStreamDataBlocked, LevelApp)
			nframe.Stream = s
			insertLevelOrdered(&q.controlList, nframe)
			blockedFrameEmitted = true
			s.Send.LastMaxBytes = s.Send.MaxBytes
			s.Send.DataBlocked = true
		}
		blocked = true
	}

	if q.bytes+lenBytes > q.maxBytes {
		if !q.dataBlocked && q.lastMaxBytes < q.maxBytes {
			nframe := NewControlFrame(FrameDataBlocked, LevelApp)
			insertLevelOrdered(&q.controlList, nframe)
			blockedFrameEmitted = true
			q.lastMaxBytes = q.maxBytes
			q.dataBlocked = true
		}
		blocked = true
	}

	if blockedFrameEmitted {
		q.transmitControlLocked()
	}
	return blocked
}
