package muter

import (
	"fmt"
	"time"
)

// EventKind identifies what a machine Event reports.
type EventKind int

const (
	// EventTrackChanged fires whenever the resolved title differs from the last one seen,
	// including the first title and the window disappearing.
	EventTrackChanged EventKind = iota + 1
	// EventMuted fires after a mute convergence succeeded.
	EventMuted
	// EventUnmuted fires after an unmute convergence succeeded.
	EventUnmuted
	// EventWarning fires when a convergence attempt exhausted its retries.
	EventWarning
)

func (k EventKind) String() string {
	switch k {
	case EventTrackChanged:
		return "track_changed"
	case EventMuted:
		return "muted"
	case EventUnmuted:
		return "unmuted"
	case EventWarning:
		return "warning"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is emitted by the Machine during a tick.
type Event struct {
	Kind EventKind
	At   time.Time

	// Title and Present describe the new title for EventTrackChanged.
	// Present is false when the player window is no longer found.
	Title   string
	Present bool

	// Mute is the desired mute flag for EventMuted, EventUnmuted and EventWarning.
	Mute bool

	// Message is a human readable description, set for EventWarning.
	Message string
}

// Sink receives machine events. Emit is called synchronously from the tick.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) { f(e) }

// MultiSink fans an event out to every sink in order.
type MultiSink []Sink

func (m MultiSink) Emit(e Event) {
	for _, s := range m {
		if s != nil {
			s.Emit(e)
		}
	}
}

type discard struct{}

func (discard) Emit(Event) {}
