package muter

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

type reading struct {
	title string
	ok    bool
	err   error
}

func seen(title string) reading { return reading{title: title, ok: true} }

var gone = reading{}

// scriptedResolver replays readings in order and repeats the last one.
type scriptedResolver struct {
	readings []reading
	calls    int
}

func (r *scriptedResolver) ResolveTitle(ctx context.Context, process string) (string, bool, error) {
	if len(r.readings) == 0 {
		return "", false, nil
	}
	i := r.calls
	if i >= len(r.readings) {
		i = len(r.readings) - 1
	}
	r.calls++
	rd := r.readings[i]
	return rd.title, rd.ok, rd.err
}

func (r *scriptedResolver) Name() string { return "scripted" }
func (r *scriptedResolver) Close() error { return nil }

type muteCall struct {
	process string
	mute    bool
}

// scriptedController fails the first `failures` calls, then succeeds.
// A non-nil fault is returned on every call instead.
type scriptedController struct {
	mu       sync.Mutex
	failures int
	fault    error
	calls    []muteCall
}

func (c *scriptedController) SetMute(ctx context.Context, process string, mute bool) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, muteCall{process: process, mute: mute})
	if c.fault != nil {
		return false, c.fault
	}
	if c.failures > 0 {
		c.failures--
		return false, nil
	}
	return true, nil
}

func (c *scriptedController) Name() string { return "scripted" }
func (c *scriptedController) Close() error { return nil }

type recorder struct {
	events []Event
}

func (r *recorder) Emit(e Event) { r.events = append(r.events, e) }

func (r *recorder) kinds() []EventKind {
	out := make([]EventKind, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Kind)
	}
	return out
}

func (r *recorder) titles() []string {
	var out []string
	for _, e := range r.events {
		if e.Kind == EventTrackChanged {
			out = append(out, e.Title)
		}
	}
	return out
}

func (r *recorder) reset() { r.events = nil }

var errBoom = errors.New("boom")
