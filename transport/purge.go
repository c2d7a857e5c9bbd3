package transport

// StreamPurge removes every frame belonging to stream from both
// transmitted_list and stream_list, refunding their write-memory charge.
// Callers must purge a stream before discarding it: a Frame holds a weak
// reference to its Stream, and a dangling reference left on a queued frame
// would be a use-after-free in spirit even though Go won't crash on it.
// Mirrors quic_outq_stream_purge.
func (q *OutQ) StreamPurge(stream *Stream) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var bytes uint64

	cur := q.transmittedList.Front()
	for cur != nil {
		next := cur.Next()
		if cur.Stream == stream {
			if pnmap := q.pnmaps[cur.Level]; pnmap != nil {
				pnmap.DecInflight(int(cur.Len))
			}
			q.dataInflight -= int64(cur.Bytes)
			q.inflight -= int64(cur.Len)
			q.transmittedList.Remove(cur)
			bytes += uint64(cur.Bytes)
		}
		cur = next
	}

	cur = q.streamList.Front()
	for cur != nil {
		next := cur.Next()
		if cur.Stream == stream {
			q.streamList.Remove(cur)
			bytes += uint64(cur.Bytes)
		}
		cur = next
	}

	if bytes > 0 && q.wmem != nil {
		q.wmem.Free(int(bytes))
	}
}

// listPurge drops every frame on head, refunding their write-memory
// charge, and returns the number of bytes refunded. Mirrors
// quic_outq_list_purge.
func (q *OutQ) listPurge(head *FrameList) uint64 {
	var bytes uint64
	cur := head.Front()
	for cur != nil {
		next := cur.Next()
		head.Remove(cur)
		bytes += uint64(cur.Bytes)
		cur = next
	}
	return bytes
}

// Free tears down all four queues, refunding their combined write-memory
// charge. Mirrors quic_outq_free.
func (q *OutQ) Free() {
	q.mu.Lock()
	defer q.mu.Unlock()

	var bytes uint64
	bytes += q.listPurge(&q.transmittedList)
	bytes += q.listPurge(&q.datagramList)
	bytes += q.listPurge(&q.controlList)
	bytes += q.listPurge(&q.streamList)

	if bytes > 0 && q.wmem != nil {
		q.wmem.Free(int(bytes))
	}
}

// DiscardLevel drops an encryption level entirely (used once a packet
// number space is retired, e.g. Initial keys discarded after the
// handshake completes): every frame still pending or transmitted at level
// is pulled off its queue by a direct walk of the four queues (it does not
// go through RetransmitList), then immediately purged rather than
// requeued, since nothing will ever send at a discarded level again. The
// level's pnmap and congestion controller are dropped without having
// their in-flight counts decremented. This is not a direct port of any
// single output.c function — quic_pnmap_free_space in the original
// discards a packet-number space outright without walking the frame
// queues — it reuses Free's purge-and-refund to give this engine the
// operation a caller otherwise has no way to request from the four queues
// alone.
func (q *OutQ) DiscardLevel(level EncryptionLevel) {
	q.mu.Lock()
	defer q.mu.Unlock()

	pending := FrameList{}
	for _, src := range []*FrameList{&q.controlList, &q.streamList, &q.datagramList} {
		cur := src.Front()
		for cur != nil {
			next := cur.Next()
			if cur.Level == level {
				src.Remove(cur)
				pending.PushBack(cur)
			}
			cur = next
		}
	}

	cur := q.transmittedList.Front()
	for cur != nil {
		next := cur.Next()
		if cur.Level == level {
			q.dataInflight -= int64(cur.Bytes)
			q.inflight -= int64(cur.Len)
			q.transmittedList.Remove(cur)
			pending.PushBack(cur)
		}
		cur = next
	}

	bytes := q.listPurge(&pending)
	if bytes > 0 && q.wmem != nil {
		q.wmem.Free(int(bytes))
	}
	delete(q.pnmaps, level)
	delete(q.cong, level)
}
