package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/kardianos/service"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	Name        = "admuter"
	DisplayName = "admuter"
	Description = "Mutes the music player while it plays advertisements"
)

// RunFunc runs the ad muter until ctx is cancelled.
type RunFunc func(ctx context.Context) error

type program struct {
	run    RunFunc
	cancel context.CancelFunc
	done   chan struct{}
	mu     sync.Mutex
}

func (p *program) Start(s service.Service) error {
	ctx, cancel := context.WithCancel(context.Background())

	p.mu.Lock()
	p.cancel = cancel
	p.done = make(chan struct{})
	done := p.done
	p.mu.Unlock()

	go func() {
		defer close(done)
		if err := p.run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logrus.WithError(err).Error("Ad muter exited")
		}
	}()
	return nil
}

func (p *program) Stop(s service.Service) error {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		logrus.Warn("Ad muter did not stop within 5s")
	}
	return nil
}

// Config describes the installed service. The service runs "admuter service run"
// and, on Linux, is installed as a per-user unit so it can reach the desktop
// session's display and sound server.
func Config() *service.Config {
	cfg := &service.Config{
		Name:        Name,
		DisplayName: DisplayName,
		Description: Description,
		Arguments:   []string{"service", "run"},
	}
	if runtime.GOOS == "linux" {
		cfg.Option = service.KeyValue{"UserService": true}
	}
	return cfg
}

// New binds run to the platform service manager.
func New(run RunFunc) (service.Service, error) {
	s, err := service.New(&program{run: run}, Config())
	if err != nil {
		return nil, errors.Wrap(err, "create service")
	}
	return s, nil
}

// IsValidAction reports whether action is one of install, uninstall, start,
// stop or restart.
func IsValidAction(action string) bool {
	for _, a := range service.ControlAction {
		if a == action {
			return true
		}
	}
	return false
}

// Control performs a service manager action.
func Control(s service.Service, action string) error {
	if !IsValidAction(action) {
		return errors.Errorf("unknown service action %q (valid: %v)", action, service.ControlAction)
	}
	if err := service.Control(s, action); err != nil {
		return errors.Wrapf(err, "service %s", action)
	}
	return nil
}

// Interactive reports whether the process was started from a terminal rather
// than by the service manager.
func Interactive() bool {
	return service.Interactive()
}
