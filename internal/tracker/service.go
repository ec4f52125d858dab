package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/admuter/admuter/internal/config"
	"github.com/admuter/admuter/internal/database"
	"github.com/admuter/admuter/internal/logging"
	"github.com/admuter/admuter/internal/models"
	"github.com/admuter/admuter/internal/muter"
	"github.com/admuter/admuter/pkg/audio"
	"github.com/admuter/admuter/pkg/window"
)

// Status is a point-in-time view of the running tracker.
type Status struct {
	Running     bool      `json:"running"`
	Process     string    `json:"process"`
	Resolver    string    `json:"resolver"`
	Controller  string    `json:"controller"`
	State       string    `json:"state"`
	Title       string    `json:"title"`
	Present     bool      `json:"present"`
	Ticks       uint64    `json:"ticks"`
	Mutes       int       `json:"mutes"`
	Unmutes     int       `json:"unmutes"`
	Warnings    int       `json:"warnings"`
	Faults      int       `json:"faults"`
	LastError   string    `json:"last_error,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	LastTickAt  time.Time `json:"last_tick_at"`
	LastEventAt time.Time `json:"last_event_at"`
}

// Service drives a muter.Machine at the configured poll interval.
type Service struct {
	config  *config.Config
	repo    *database.Repository
	titles  window.Resolver
	audio   audio.Controller
	machine *muter.Machine
	faults  *logging.Throttled
	log     *logrus.Entry
	now     func() time.Time

	mu       sync.RWMutex
	status   Status
	running  bool
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewService wires a machine for process. repo may be nil when history is disabled.
func NewService(cfg *config.Config, repo *database.Repository, process string, titles window.Resolver, ctrl audio.Controller) *Service {
	entry := logrus.WithField("process", process)
	s := &Service{
		config:   cfg,
		repo:     repo,
		titles:   titles,
		audio:    ctrl,
		log:      entry,
		faults:   logging.NewThrottled(entry, cfg.Log.WarnInterval),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
	s.status = Status{
		Process:    process,
		Resolver:   titles.Name(),
		Controller: ctrl.Name(),
		State:      muter.Unmuted.String(),
	}

	sinks := muter.MultiSink{
		muter.SinkFunc(s.record),
		NewLogSink(entry, cfg.Log.WarnInterval),
	}
	if repo != nil {
		sinks = append(sinks, NewHistorySink(repo))
	}

	s.machine = muter.New(process, titles, ctrl,
		muter.WithRetryPolicy(muter.RetryPolicy{
			Attempts: cfg.Mute.Retries,
			Delay:    cfg.Mute.RetryDelay,
		}),
		muter.WithSink(sinks),
	)
	return s
}

// Start runs the polling loop until ctx is cancelled or Stop is called.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("tracker is already running")
	}
	s.running = true
	s.status.Running = true
	s.status.StartedAt = s.now()
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.status.Running = false
		s.mu.Unlock()
	}()

	s.log.WithFields(logrus.Fields{
		"interval":   s.config.Tracker.PollInterval,
		"resolver":   s.titles.Name(),
		"controller": s.audio.Name(),
	}).Info("Starting ad muter")

	ticker := time.NewTicker(s.config.Tracker.PollInterval)
	defer ticker.Stop()

	s.tickOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Ad muter stopped by context")
			return ctx.Err()

		case <-s.stopChan:
			s.log.Info("Ad muter stopped")
			return nil

		case <-ticker.C:
			s.tickOnce(ctx)
		}
	}
}

// Stop ends a running loop. It is safe to call more than once.
func (s *Service) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Snapshot returns a copy of the current status.
func (s *Service) Snapshot() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// tickOnce runs one machine tick. Collaborator faults, panics included, never
// stop the loop.
func (s *Service) tickOnce(ctx context.Context) {
	err := s.safeTick(ctx)

	s.mu.Lock()
	s.status.Ticks++
	s.status.LastTickAt = s.now()
	s.status.State = s.machine.State().String()
	if err != nil && ctx.Err() == nil {
		s.status.Faults++
		s.status.LastError = err.Error()
	}
	s.mu.Unlock()

	if err == nil || ctx.Err() != nil {
		return
	}
	s.faults.Error(err.Error())
	s.storeError(err)
}

func (s *Service) safeTick(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("tick panicked: %v", r)
		}
	}()
	return s.machine.Tick(ctx)
}

// record keeps the snapshot in step with machine events.
func (s *Service) record(e muter.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status.LastEventAt = e.At
	switch e.Kind {
	case muter.EventTrackChanged:
		s.status.Title = e.Title
		s.status.Present = e.Present
	case muter.EventMuted:
		s.status.Mutes++
		s.status.State = muter.Muted.String()
	case muter.EventUnmuted:
		s.status.Unmutes++
		s.status.State = muter.Unmuted.String()
	case muter.EventWarning:
		s.status.Warnings++
	}
}

func (s *Service) storeError(err error) {
	if s.repo == nil {
		return
	}

	errorLog := &models.ErrorLog{
		Timestamp: s.now(),
		Process:   s.machine.Process(),
		ErrorMsg:  err.Error(),
	}

	if dbErr := s.repo.CreateErrorLog(errorLog); dbErr != nil {
		s.log.WithError(dbErr).WithField("original", err.Error()).Error("Failed to store error in database")
	}
}
