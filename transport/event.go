package transport

// Event is a queued (kind, payload) pair, used by ChanEventSink when nothing
// is actively waiting to claim events (the event-veto pattern's default:
// unclaimed events are observable later; once the buffer is full, each new
// event displaces the oldest queued one).
type Event struct {
	Kind    EventKind
	Payload any
}

// ChanEventSink is the default EventSink: events are queued on a buffered
// channel, and Recv always returns
// false (nothing is claimed automatically) unless a Claim function is
// installed. Grounded on the teacher's Conn.events/addEvent/Events(), which
// likewise buffer events for the caller to drain rather than dispatch them
// synchronously.
type ChanEventSink struct {
	events chan Event
	claim  func(kind EventKind, payload any) bool
}

// NewChanEventSink creates a sink with the given buffer capacity. claim may
// be nil, meaning no event is ever auto-handled.
func NewChanEventSink(capacity int, claim func(kind EventKind, payload any) bool) *ChanEventSink {
	return &ChanEventSink{events: make(chan Event, capacity), claim: claim}
}

func (s *ChanEventSink) Recv(kind EventKind, payload any) bool {
	if s.claim != nil && s.claim(kind, payload) {
		return true
	}
	select {
	case s.events <- Event{Kind: kind, Payload: payload}:
	default:
		// Buffer full: drop the oldest rather than block the connection
		// lock holder, matching "no suspension points inside OutQ".
		select {
		case <-s.events:
		default:
		}
		s.events <- Event{Kind: kind, Payload: payload}
	}
	return false
}

// Events returns the channel of unclaimed events for the caller to drain.
func (s *ChanEventSink) Events() <-chan Event {
	return s.events
}
