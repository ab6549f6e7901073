package notifier

import (
	"context"
	"errors"

	"github.com/semmidev/offsite/internal/domain"
)

type Logger interface {
	Infof(template string, args ...interface{})
	Warnf(template string, args ...interface{})
}

// Log writes every notice to the operator log.
type Log struct {
	logger Logger
}

func NewLog(logger Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Notify(ctx context.Context, n domain.Notice) error {
	if n.Success {
		l.logger.Infof("%s: %d of %d files uploaded to %s", Subject(n), n.Report.Uploaded, n.Report.Attempted, n.Report.Folder)
		return nil
	}
	l.logger.Warnf("%s: %s %s", Subject(n), n.Cause, n.Detail)
	return nil
}

// Multi fans a notice out to every notifier and joins their errors.
type Multi []domain.Notifier

func (m Multi) Notify(ctx context.Context, n domain.Notice) error {
	var errs []error
	for _, target := range m {
		if err := target.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
