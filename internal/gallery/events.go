package gallery

import (
	"github.com/google/uuid"

	"justified-gallery/internal/logging"
)

// EventType names a lifecycle notification.
type EventType int

const (
	// EventRowFlush follows every committed row.
	EventRowFlush EventType = iota
	// EventComplete follows the first full layout.
	EventComplete
	// EventResize follows a layout replayed after a width change.
	EventResize
	// EventDestroy follows Destroy.
	EventDestroy
)

func (t EventType) String() string {
	switch t {
	case EventRowFlush:
		return "jg.rowflush"
	case EventComplete:
		return "jg.complete"
	case EventResize:
		return "jg.resize"
	case EventDestroy:
		return "jg.destroy"
	default:
		return "jg.unknown"
	}
}

// Event is a lifecycle notification.
type Event struct {
	Type    EventType `json:"type"`
	Gallery uuid.UUID `json:"gallery"`
	// Row is the number of committed rows when the event was raised.
	Row int `json:"row"`
}

const eventBuffer = 256

type subscriber struct {
	id int
	fn func(Event)
}

// Subscribe registers fn for every later event and returns a function that
// removes it. fn runs on the gallery's scheduler.
func (g *Gallery) Subscribe(fn func(Event)) (unsubscribe func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextSub++
	id := g.nextSub
	g.subs = append(g.subs, subscriber{id: id, fn: fn})
	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		for i, s := range g.subs {
			if s.id == id {
				g.subs = append(g.subs[:i], g.subs[i+1:]...)
				return
			}
		}
	}
}

// Events returns a buffered channel receiving every later event. The
// channel is closed after the destroy event. Events are dropped when the
// reader falls behind by more than the buffer.
func (g *Gallery) Events() <-chan Event {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.events == nil {
		g.events = make(chan Event, eventBuffer)
		if g.lifecycle == StateDestroyed {
			close(g.events)
		}
	}
	return g.events
}

// emit queues ev for delivery after the current step.
func (g *Gallery) emit(t EventType) {
	ev := Event{Type: t, Gallery: g.id, Row: g.state.Rows}
	g.sched.Post(func() { g.deliver(ev) })
}

func (g *Gallery) deliver(ev Event) {
	g.mu.Lock()
	subs := make([]subscriber, len(g.subs))
	copy(subs, g.subs)
	ch := g.events
	g.mu.Unlock()

	for _, s := range subs {
		s.fn(ev)
	}

	if ch == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.eventsClosed {
		return
	}
	select {
	case ch <- ev:
	default:
		logging.Warn("gallery %s: event channel full, dropping %s", g.id, ev.Type)
	}
	if ev.Type == EventDestroy {
		close(ch)
		g.eventsClosed = true
	}
}
