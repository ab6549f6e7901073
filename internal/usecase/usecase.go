package usecase

import "github.com/semmidev/offsite/internal/domain"

type Logger interface {
	Infof(template string, args ...interface{})
	Errorf(template string, args ...interface{})
	Warnf(template string, args ...interface{})
}

type SettingsSource interface {
	Current() (domain.Settings, error)
}

type JobQueue interface {
	Enqueue(job domain.JobRequest) (string, error)
}
