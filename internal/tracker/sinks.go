package tracker

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/admuter/admuter/internal/database"
	"github.com/admuter/admuter/internal/logging"
	"github.com/admuter/admuter/internal/models"
	"github.com/admuter/admuter/internal/muter"
)

// LogSink writes machine events to logrus. Mute warnings are throttled since
// they repeat every tick while the player has no audio session.
type LogSink struct {
	entry    *logrus.Entry
	warnings *logging.Throttled
}

func NewLogSink(entry *logrus.Entry, warnInterval time.Duration) *LogSink {
	return &LogSink{
		entry:    entry,
		warnings: logging.NewThrottled(entry, warnInterval),
	}
}

func (l *LogSink) Emit(e muter.Event) {
	switch e.Kind {
	case muter.EventTrackChanged:
		if !e.Present {
			l.entry.Debug("Player window not found")
			return
		}
		l.entry.WithField("title", e.Title).Info("Now playing")
	case muter.EventMuted:
		l.warnings.Reset()
		l.entry.Info("Advertisement detected, muted")
	case muter.EventUnmuted:
		l.warnings.Reset()
		l.entry.Info("Advertisement over, unmuted")
	case muter.EventWarning:
		l.warnings.Warn(e.Message)
	}
}

// HistorySink stores machine events in the history database.
type HistorySink struct {
	repo *database.Repository
}

func NewHistorySink(repo *database.Repository) *HistorySink {
	return &HistorySink{repo: repo}
}

func (h *HistorySink) Emit(e muter.Event) {
	event := &models.PlaybackEvent{
		Timestamp: e.At,
		Kind:      e.Kind.String(),
		Title:     e.Title,
		Present:   e.Present,
		Muted:     e.Mute,
		Message:   e.Message,
	}
	if err := h.repo.Create(event); err != nil {
		logrus.WithError(err).WithField("kind", event.Kind).Warn("Failed to record playback event")
	}
}
