package muter

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/admuter/admuter/pkg/audio"
	"github.com/admuter/admuter/pkg/window"
)

// State is the machine's belief about the mute it has asserted on the player.
type State int

const (
	Unmuted State = iota
	Muted
)

func (s State) String() string {
	if s == Muted {
		return "muted"
	}
	return "unmuted"
}

// Machine detects advertisement playback and converges the player's mute flag.
//
// The machine is edge-triggered: SetMute is only called while the mute it
// believes it has asserted differs from the one the current title implies.
// The asserted mute is an optimistic cache and is never read back from the
// audio subsystem. A Machine is not safe for concurrent use; it is meant to be
// driven by a single polling loop.
type Machine struct {
	process string
	titles  window.Resolver
	audio   audio.Controller
	retry   RetryPolicy
	sink    Sink
	now     func() time.Time

	muted     bool
	lastTitle string
	lastSeen  bool
}

// Option configures a Machine.
type Option func(*Machine)

// WithRetryPolicy sets the per-tick convergence retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(m *Machine) { m.retry = p }
}

// WithSink sets where events are delivered.
func WithSink(s Sink) Option {
	return func(m *Machine) {
		if s != nil {
			m.sink = s
		}
	}
}

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// New creates a machine for process in the Unmuted state.
func New(process string, titles window.Resolver, ctrl audio.Controller, opts ...Option) *Machine {
	m := &Machine{
		process: process,
		titles:  titles,
		audio:   ctrl,
		retry:   DefaultRetryPolicy,
		sink:    discard{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the currently asserted mute state.
func (m *Machine) State() State {
	if m.muted {
		return Muted
	}
	return Unmuted
}

// LastTitle returns the last title observed and whether the player window was found.
func (m *Machine) LastTitle() (string, bool) {
	return m.lastTitle, m.lastSeen
}

// Process returns the name of the process the machine watches.
func (m *Machine) Process() string {
	return m.process
}

// Tick runs one polling iteration: resolve the title, report track changes,
// classify it and converge the mute flag if needed. Returned errors are
// collaborator faults or context cancellation; the machine keeps its state and
// the next Tick starts over.
func (m *Machine) Tick(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	title, ok, err := m.titles.ResolveTitle(ctx, m.process)
	if err != nil {
		return errors.Wrapf(err, "resolve %s window title", m.process)
	}

	m.observe(title, ok)

	want := IsAdvertisement(title, ok)
	if want == m.muted {
		return nil
	}
	return m.converge(ctx, want)
}

func (m *Machine) observe(title string, ok bool) {
	if !ok {
		title = ""
	}
	if ok == m.lastSeen && title == m.lastTitle {
		return
	}
	m.lastTitle, m.lastSeen = title, ok
	m.sink.Emit(Event{
		Kind:    EventTrackChanged,
		At:      m.now(),
		Title:   title,
		Present: ok,
	})
}

func (m *Machine) converge(ctx context.Context, mute bool) error {
	ok, err := SetMuteWithRetry(ctx, m.audio, m.process, mute, m.retry)
	if err != nil {
		return errors.Wrapf(err, "set %s mute=%v", m.process, mute)
	}

	if !ok {
		verb := "unmute"
		if mute {
			verb = "mute"
		}
		m.sink.Emit(Event{
			Kind:    EventWarning,
			At:      m.now(),
			Mute:    mute,
			Message: fmt.Sprintf("could not %s %s: audio session not found after %d attempts", verb, m.process, m.retry.normalized().Attempts),
		})
		return nil
	}

	m.muted = mute
	kind := EventUnmuted
	if mute {
		kind = EventMuted
	}
	m.sink.Emit(Event{Kind: kind, At: m.now(), Mute: mute})
	return nil
}
