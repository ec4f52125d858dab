//go:build windows

package logging

import (
	"github.com/kardianos/service"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type eventLogHook struct {
	logger service.Logger
}

// AttachEventLog forwards every logrus entry to the Windows Event Log under name.
func AttachEventLog(name string) error {
	svc, err := service.New(nil, &service.Config{
		Name:        name,
		DisplayName: name,
		Description: name,
	})
	if err != nil {
		return errors.Wrap(err, "create event log service handle")
	}

	logger, err := svc.Logger(nil)
	if err != nil {
		return errors.Wrap(err, "open event log")
	}

	logrus.AddHook(&eventLogHook{logger: logger})
	return nil
}

func (h *eventLogHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *eventLogHook) Fire(e *logrus.Entry) error {
	line, _ := e.String()

	switch e.Level {
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		return h.logger.Error(line)
	case logrus.WarnLevel:
		return h.logger.Warning(line)
	default:
		return h.logger.Info(line)
	}
}
