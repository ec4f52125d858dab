package muter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var fastRetry = RetryPolicy{Attempts: 5, Delay: time.Millisecond}

func newTestMachine(r *scriptedResolver, c *scriptedController, rec *recorder, p RetryPolicy) *Machine {
	return New("spotify", r, c, WithSink(rec), WithRetryPolicy(p))
}

func tickN(t *testing.T, m *Machine, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, m.Tick(context.Background()))
	}
}

func TestMachineStartsUnmuted(t *testing.T) {
	m := New("spotify", &scriptedResolver{}, &scriptedController{})
	require.Equal(t, Unmuted, m.State())
	title, ok := m.LastTitle()
	require.Empty(t, title)
	require.False(t, ok)
}

func TestMachineTransitionTable(t *testing.T) {
	tests := []struct {
		name      string
		muted     bool
		title     reading
		wantState State
		wantCalls []muteCall
	}{
		{name: "ad while unmuted mutes", muted: false, title: seen("Advertisement"), wantState: Muted,
			wantCalls: []muteCall{{process: "spotify", mute: true}}},
		{name: "ad while muted does nothing", muted: true, title: seen("Advertisement"), wantState: Muted},
		{name: "song while muted unmutes", muted: true, title: seen("Song"), wantState: Unmuted,
			wantCalls: []muteCall{{process: "spotify", mute: false}}},
		{name: "song while unmuted does nothing", muted: false, title: seen("Song"), wantState: Unmuted},
		{name: "absence while muted unmutes", muted: true, title: gone, wantState: Unmuted,
			wantCalls: []muteCall{{process: "spotify", mute: false}}},
		{name: "absence while unmuted does nothing", muted: false, title: gone, wantState: Unmuted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := &scriptedController{}
			m := newTestMachine(&scriptedResolver{readings: []reading{tt.title}}, ctrl, &recorder{}, fastRetry)
			m.muted = tt.muted

			require.NoError(t, m.Tick(context.Background()))
			require.Equal(t, tt.wantState, m.State())
			require.Equal(t, tt.wantCalls, ctrl.calls)
		})
	}
}

func TestMachineIdempotentWhileConverged(t *testing.T) {
	for _, title := range []reading{seen("Advertisement"), seen("Song"), gone} {
		ctrl := &scriptedController{}
		m := newTestMachine(&scriptedResolver{readings: []reading{title}}, ctrl, &recorder{}, fastRetry)

		tickN(t, m, 25)

		require.LessOrEqual(t, len(ctrl.calls), 1, "title %q", title.title)
	}
}

func TestMachineRetriesNextTickWhenUnconverged(t *testing.T) {
	ctrl := &scriptedController{failures: 3}
	rec := &recorder{}
	m := newTestMachine(&scriptedResolver{readings: []reading{seen("Advertisement")}}, ctrl, rec,
		RetryPolicy{Attempts: 3, Delay: time.Millisecond})

	tickN(t, m, 1)
	require.Len(t, ctrl.calls, 3)
	require.Equal(t, Unmuted, m.State())
	require.Equal(t, []EventKind{EventTrackChanged, EventWarning}, rec.kinds())
	require.True(t, rec.events[1].Mute)
	require.Contains(t, rec.events[1].Message, "could not mute")

	rec.reset()
	tickN(t, m, 1)
	require.Len(t, ctrl.calls, 4)
	require.Equal(t, Muted, m.State())
	require.Equal(t, []EventKind{EventMuted}, rec.kinds())

	tickN(t, m, 3)
	require.Len(t, ctrl.calls, 4)
}

func TestMachineTrackChanges(t *testing.T) {
	rec := &recorder{}
	r := &scriptedResolver{readings: []reading{
		gone, seen("A"), seen("A"), seen("B"), gone, gone, seen("B"), seen("advertisement"), seen("Advertisement"),
	}}
	m := newTestMachine(r, &scriptedController{}, rec, fastRetry)

	tickN(t, m, len(r.readings))

	var changes []Event
	for _, e := range rec.events {
		if e.Kind == EventTrackChanged {
			changes = append(changes, e)
		}
	}
	require.Len(t, changes, 6)
	want := []struct {
		title   string
		present bool
	}{
		{"A", true}, {"B", true}, {"", false}, {"B", true}, {"advertisement", true}, {"Advertisement", true},
	}
	for i, w := range want {
		require.Equal(t, w.title, changes[i].Title, "change %d", i)
		require.Equal(t, w.present, changes[i].Present, "change %d", i)
	}
}

func TestMachineResolverFault(t *testing.T) {
	ctrl := &scriptedController{}
	rec := &recorder{}
	r := &scriptedResolver{readings: []reading{seen("Advertisement"), {err: errBoom}, seen("Advertisement")}}
	m := newTestMachine(r, ctrl, rec, fastRetry)

	tickN(t, m, 1)
	require.Equal(t, Muted, m.State())

	err := m.Tick(context.Background())
	require.ErrorIs(t, err, errBoom)
	require.Equal(t, Muted, m.State())
	require.Len(t, ctrl.calls, 1)

	tickN(t, m, 1)
	require.Len(t, ctrl.calls, 1)
}

func TestMachineControllerFault(t *testing.T) {
	ctrl := &scriptedController{fault: errBoom}
	rec := &recorder{}
	m := newTestMachine(&scriptedResolver{readings: []reading{seen("Advertisement")}}, ctrl, rec, fastRetry)

	err := m.Tick(context.Background())
	require.ErrorIs(t, err, errBoom)
	require.Equal(t, Unmuted, m.State())
	require.Len(t, ctrl.calls, 1)
	require.Equal(t, []EventKind{EventTrackChanged}, rec.kinds())

	ctrl.fault = nil
	tickN(t, m, 1)
	require.Equal(t, Muted, m.State())
}

func TestMachineCancelledContext(t *testing.T) {
	r := &scriptedResolver{readings: []reading{seen("Advertisement")}}
	m := newTestMachine(r, &scriptedController{}, &recorder{}, fastRetry)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, m.Tick(ctx), context.Canceled)
	require.Zero(t, r.calls)
}

func TestMachineEventTimestamps(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rec := &recorder{}
	m := New("spotify", &scriptedResolver{readings: []reading{seen("Advertisement")}}, &scriptedController{},
		WithSink(rec), WithRetryPolicy(fastRetry), WithClock(func() time.Time { return at }))

	tickN(t, m, 1)
	require.Len(t, rec.events, 2)
	for _, e := range rec.events {
		require.Equal(t, at, e.At)
	}
}

// Titles "Song A", "Song A", "Advertisement", "Advertisement", "Song B".
func TestScenarioA(t *testing.T) {
	ctrl := &scriptedController{}
	rec := &recorder{}
	r := &scriptedResolver{readings: []reading{
		seen("Song A"), seen("Song A"), seen("Advertisement"), seen("Advertisement"), seen("Song B"),
	}}
	m := newTestMachine(r, ctrl, rec, fastRetry)

	tickN(t, m, 2)
	require.Equal(t, []string{"Song A"}, rec.titles())
	require.Empty(t, ctrl.calls)

	tickN(t, m, 1)
	require.Equal(t, []muteCall{{process: "spotify", mute: true}}, ctrl.calls)
	require.Equal(t, Muted, m.State())

	rec.reset()
	tickN(t, m, 1)
	require.Empty(t, rec.events)
	require.Len(t, ctrl.calls, 1)

	tickN(t, m, 1)
	require.Equal(t, []muteCall{{process: "spotify", mute: true}, {process: "spotify", mute: false}}, ctrl.calls)
	require.Equal(t, []string{"Song B"}, rec.titles())
	require.Equal(t, []EventKind{EventTrackChanged, EventUnmuted}, rec.kinds())
	require.Equal(t, Unmuted, m.State())
}

// The window disappears for three ticks while an ad is muted.
func TestScenarioB(t *testing.T) {
	ctrl := &scriptedController{}
	rec := &recorder{}
	r := &scriptedResolver{readings: []reading{seen("Advertisement"), gone, gone, gone}}
	m := newTestMachine(r, ctrl, rec, fastRetry)

	tickN(t, m, 1)
	require.Equal(t, Muted, m.State())

	tickN(t, m, 3)
	require.Equal(t, Unmuted, m.State())
	require.Equal(t, []muteCall{{process: "spotify", mute: true}, {process: "spotify", mute: false}}, ctrl.calls)
	require.Equal(t, []EventKind{EventTrackChanged, EventMuted, EventTrackChanged, EventUnmuted}, rec.kinds())
	require.False(t, rec.events[2].Present)
}

// The controller fails twice before succeeding with five attempts allowed.
func TestScenarioC(t *testing.T) {
	ctrl := &scriptedController{failures: 2}
	m := newTestMachine(&scriptedResolver{readings: []reading{seen("Advertisement")}}, ctrl, &recorder{},
		RetryPolicy{Attempts: 5, Delay: time.Millisecond})

	tickN(t, m, 1)
	require.Len(t, ctrl.calls, 3)
	require.Equal(t, Muted, m.State())
}

func TestMultiSink(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	var n int
	sink := MultiSink{a, nil, b, SinkFunc(func(Event) { n++ })}

	sink.Emit(Event{Kind: EventMuted})

	require.Len(t, a.events, 1)
	require.Len(t, b.events, 1)
	require.Equal(t, 1, n)
}

func TestEventKindString(t *testing.T) {
	require.Equal(t, "track_changed", EventTrackChanged.String())
	require.Equal(t, "muted", EventMuted.String())
	require.Equal(t, "unmuted", EventUnmuted.String())
	require.Equal(t, "warning", EventWarning.String())
	require.Equal(t, "event(42)", EventKind(42).String())
	require.Equal(t, "muted", Muted.String())
	require.Equal(t, "unmuted", Unmuted.String())
}
