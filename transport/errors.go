package transport

import "errors"

// Sentinel errors, in the teacher's style of plain errors.New values
// referenced from conn.go rather than a custom error type hierarchy.
var (
	// ErrDatagramTooLarge is returned by DatagramTail when a frame exceeds
	// the negotiated max_datagram_frame_size.
	ErrDatagramTooLarge = errors.New("transport: datagram frame exceeds negotiated size limit")
	// ErrClosed is returned by enqueue entry points once the connection
	// has transitioned to CLOSED.
	ErrClosed = errors.New("transport: outq is closed")
)
