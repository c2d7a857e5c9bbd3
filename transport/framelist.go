package transport

import "fmt"

// FrameList is an intrusive doubly-linked list of *Frame. A Frame's next/prev
// pointers and owner back-reference live on the Frame itself, so moving a
// frame between lists (pending -> transmitted -> freed, or transmitted ->
// pending on loss) never allocates and never copies frame state.
type FrameList struct {
	head, tail *Frame
	len        int
}

// Len returns the number of frames currently on the list.
func (l *FrameList) Len() int { return l.len }

// Front returns the first frame, or nil if the list is empty.
func (l *FrameList) Front() *Frame { return l.head }

// Back returns the last frame, or nil if the list is empty.
func (l *FrameList) Back() *Frame { return l.tail }

// Next returns the frame following f in its owning list, or nil at the tail.
func (f *Frame) Next() *Frame { return f.next }

// Prev returns the frame preceding f in its owning list, or nil at the head.
func (f *Frame) Prev() *Frame { return f.prev }

// PushBack appends f to the tail of l. Panics if f is already on a list
// (Invariant 4: a frame belongs to at most one list at a time).
func (l *FrameList) PushBack(f *Frame) {
	if f.owner != nil {
		panic(fmt.Sprintf("transport: frame %p already owned by a list", f))
	}
	f.owner = l
	f.prev = l.tail
	f.next = nil
	if l.tail != nil {
		l.tail.next = f
	} else {
		l.head = f
	}
	l.tail = f
	l.len++
}

// InsertBefore inserts f immediately before pos in l. If pos is nil, f is
// appended at the tail, same as PushBack.
func (l *FrameList) InsertBefore(f, pos *Frame) {
	if f.owner != nil {
		panic(fmt.Sprintf("transport: frame %p already owned by a list", f))
	}
	if pos == nil {
		l.PushBack(f)
		return
	}
	if pos.owner != l {
		panic("transport: InsertBefore position not owned by this list")
	}
	f.owner = l
	f.next = pos
	f.prev = pos.prev
	if pos.prev != nil {
		pos.prev.next = f
	} else {
		l.head = f
	}
	pos.prev = f
	l.len++
}

// Remove unlinks f from l. f must currently be owned by l.
func (l *FrameList) Remove(f *Frame) {
	if f.owner != l {
		panic("transport: Remove called with frame not owned by this list")
	}
	if f.prev != nil {
		f.prev.next = f.next
	} else {
		l.head = f.next
	}
	if f.next != nil {
		f.next.prev = f.prev
	} else {
		l.tail = f.prev
	}
	f.next, f.prev, f.owner = nil, nil, nil
	l.len--
}

// FirstLevelZero returns the first frame in l whose Level is LevelApp (0),
// or nil if none. Used by the handshake-first control/transmitted ordering.
func (l *FrameList) FirstLevelZero() *Frame {
	for f := l.head; f != nil; f = f.next {
		if f.Level == LevelApp {
			return f
		}
	}
	return nil
}
