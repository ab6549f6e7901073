package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/semmidev/offsite/internal/domain"
)

type Logger interface {
	Infof(template string, args ...interface{})
	Errorf(template string, args ...interface{})
}

type Scheduler struct {
	cron   *cron.Cron
	logger Logger
}

func New(logger Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		logger: logger,
	}
}

// AddJob registers job on its cron schedule. Errors returned by a run are
// logged; they never stop the schedule.
func (s *Scheduler) AddJob(job domain.BackupJob) error {
	_, err := s.cron.AddFunc(job.Schedule, func() {
		if err := job.Run(context.Background()); err != nil {
			s.logger.Errorf("Scheduled job %s failed: %v", job.Name, err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", job.Name, job.Schedule, err)
	}
	s.logger.Infof("Scheduled %s: %s", job.Name, job.Schedule)
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
