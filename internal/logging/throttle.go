package logging

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Throttled logs a repeating condition at most once per interval and reports
// how many entries were dropped in between.
type Throttled struct {
	entry      *logrus.Entry
	limiter    *rate.Limiter
	mu         sync.Mutex
	suppressed int
}

// NewThrottled returns a Throttled logger. A zero interval disables throttling.
func NewThrottled(entry *logrus.Entry, interval time.Duration) *Throttled {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Throttled{
		entry:   entry,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Warn logs msg unless the interval has not elapsed since the last logged warning.
func (t *Throttled) Warn(msg string) bool {
	return t.log(logrus.WarnLevel, msg)
}

// Error logs msg unless the interval has not elapsed since the last logged entry.
func (t *Throttled) Error(msg string) bool {
	return t.log(logrus.ErrorLevel, msg)
}

func (t *Throttled) log(level logrus.Level, msg string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.limiter.Allow() {
		t.suppressed++
		return false
	}

	e := t.entry
	if t.suppressed > 0 {
		e = e.WithField("suppressed", t.suppressed)
		t.suppressed = 0
	}
	e.Log(level, msg)
	return true
}

// Reset clears the suppressed count and lets the next entry through immediately.
func (t *Throttled) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.suppressed = 0
	t.limiter = rate.NewLimiter(t.limiter.Limit(), 1)
}
