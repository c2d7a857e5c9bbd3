package quic

import (
	"sync"
	"time"

	"github.com/goburrow/quicoutq/transport"
)

// defaultStreamCredit is the initial peer-advertised send credit a locally
// created Stream starts with, before any MAX_STREAM_DATA update arrives
// from the (out-of-scope) receive path. Set to a quarter of
// TransportConfig's default MaxData (1 << 20), large enough that a single
// demo stream is never immediately blocked.
const defaultStreamCredit = 1 << 18

// Conn is the ambient per-remote wrapper around a transport.OutQ: it owns
// the stream table and the handful of bookkeeping an application-facing
// API needs (RemoteAddr, Stream-by-ID, Flush, Close) that spec.md §1
// explicitly leaves to "external collaborators, referenced only by
// contract". Requires: outq.mu is OutQ's own lock (see outq.go's doc
// comment); Conn's mutex here only protects the stream table, never the
// queues or counters OutQ already guards itself.
type Conn struct {
	addr string
	outq *transport.OutQ

	mu      sync.Mutex
	streams map[uint64]*Stream
}

func newConn(addr string, outq *transport.OutQ) *Conn {
	return &Conn{addr: addr, outq: outq, streams: make(map[uint64]*Stream)}
}

// RemoteAddr returns the address this Conn was created for.
func (c *Conn) RemoteAddr() string { return c.addr }

// OutQ exposes the underlying engine for callers that need the full
// ack/loss/close surface beyond the Stream convenience wrapper.
func (c *Conn) OutQ() *transport.OutQ { return c.outq }

// Stream returns (creating if necessary) the send-side wrapper for stream
// id, in the READY state with defaultStreamCredit of send credit.
func (c *Conn) Stream(id uint64) *Stream {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.streams[id]
	if !ok {
		st = &Stream{conn: c, s: transport.NewStream(id, defaultStreamCredit)}
		c.streams[id] = st
	}
	return st
}

// Flush attempts to drain every pending queue through the packet builder,
// equivalent to calling OutQ.Transmit directly.
func (c *Conn) Flush() {
	c.outq.Transmit()
}

// Ack forwards a peer acknowledgement to the underlying OutQ and refreshes
// the exported gauges to reflect the result.
func (c *Conn) Ack(level transport.EncryptionLevel, largest, smallest, ackLargest int64, ackDelay time.Duration) int {
	acked := c.outq.TransmittedSack(level, largest, smallest, ackLargest, ackDelay)
	Sample(c.outq)
	return acked
}

// MarkLost forwards a loss-timer firing (or an immediate discard) to the
// underlying OutQ and refreshes the exported gauges.
func (c *Conn) MarkLost(level transport.EncryptionLevel, immediate bool) int {
	n := c.outq.RetransmitMark(level, immediate)
	Sample(c.outq)
	return n
}

// Close tears down every queue and frees its write-memory charge. It does
// not itself send CONNECTION_CLOSE; callers that want a graceful
// application close should call OutQ().TransmitAppClose() first.
func (c *Conn) Close() error {
	c.outq.Free()
	return nil
}

// Stream is the send-side handle an application writes to. Receive-side
// framing and the application read API are out of this engine's scope
// (spec.md §1); Stream only ever appends STREAM frames to the owning
// Conn's OutQ.
type Stream struct {
	conn *Conn
	s    *transport.Stream

	mu     sync.Mutex
	offset uint64
}

// ID returns the stream's identifier.
func (st *Stream) ID() uint64 { return st.s.ID }

// Write enqueues p as a STREAM frame at the stream's current offset and
// attempts an immediate Transmit (cork=false). It never blocks on flow
// control: a blocked write simply leaves the frame queued until credit
// arrives, mirroring OutQ's own non-blocking enqueue contract.
func (st *Stream) Write(p []byte) (int, error) {
	st.mu.Lock()
	off := st.offset
	st.offset += uint64(len(p))
	st.mu.Unlock()

	frame := transport.NewStreamFrame(st.s, off, uint32(len(p)), false)
	if err := st.conn.outq.StreamTail(frame, false); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close enqueues a zero-length FIN frame; the stream is marked SENT at
// enqueue time, before the frame is transmitted.
func (st *Stream) Close() error {
	st.mu.Lock()
	off := st.offset
	st.mu.Unlock()

	frame := transport.NewStreamFrame(st.s, off, 0, true)
	return st.conn.outq.StreamTail(frame, false)
}

// Reset records errcode, moves the local send state to RESET_SENT
// immediately, and enqueues a RESET_STREAM control frame; the ack of that
// frame moves the state to RESET_RECVD.
func (st *Stream) Reset(errcode uint64) error {
	st.s.Send.ErrCode = errcode
	st.s.Send.State = transport.StreamSendResetSent
	frame := transport.NewControlFrame(transport.FrameResetStream, transport.LevelApp)
	frame.Stream = st.s
	return st.conn.outq.ControlTail(frame, false)
}
