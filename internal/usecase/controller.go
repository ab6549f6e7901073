package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/oops"
	"github.com/semmidev/offsite/internal/domain"
)

const JobName = "offsite.take_backup"

type Runner interface {
	Run(ctx context.Context, createNew bool) (domain.UploadReport, error)
}

type ControllerOptions struct {
	Service    string
	Queue      string
	Timeout    time.Duration
	MaxRetries int
}

// Controller owns the retry and notification policy around a backup run.
// Retries cross worker boundaries: a timed out attempt enqueues its
// successor and ends.
type Controller struct {
	settings SettingsSource
	backup   Runner
	guard    *SizeGuard
	queue    JobQueue
	notifier domain.Notifier
	logger   Logger
	opts     ControllerOptions
}

func NewController(
	settings SettingsSource,
	backup Runner,
	guard *SizeGuard,
	queue JobQueue,
	notifier domain.Notifier,
	logger Logger,
	opts ControllerOptions,
) *Controller {
	return &Controller{
		settings: settings,
		backup:   backup,
		guard:    guard,
		queue:    queue,
		notifier: notifier,
		logger:   logger,
		opts:     opts,
	}
}

func (c *Controller) request(retryCount int) domain.JobRequest {
	return domain.JobRequest{
		Name:       JobName,
		Queue:      c.opts.Queue,
		Timeout:    c.opts.Timeout,
		RetryCount: retryCount,
	}
}

// TakeBackup enqueues a first attempt and returns its job id.
func (c *Controller) TakeBackup(ctx context.Context) (string, error) {
	id, err := c.queue.Enqueue(c.request(0))
	if err != nil {
		return "", fmt.Errorf("enqueue backup: %w", err)
	}
	c.logger.Infof("Queued for backup. It may take a few minutes to an hour.")
	return id, nil
}

// TakeBackupsIf starts a backup when backups are enabled and freq is the
// configured frequency.
func (c *Controller) TakeBackupsIf(ctx context.Context, freq domain.Frequency) error {
	settings, err := c.settings.Current()
	if err != nil {
		return fmt.Errorf("read settings: %w", err)
	}
	if !settings.Enabled || settings.Frequency != freq {
		return nil
	}
	_, err = c.TakeBackup(ctx)
	return err
}

func (c *Controller) TakeBackupsDaily(ctx context.Context) error {
	return c.TakeBackupsIf(ctx, domain.Daily)
}

func (c *Controller) TakeBackupsWeekly(ctx context.Context) error {
	return c.TakeBackupsIf(ctx, domain.Weekly)
}

func (c *Controller) TakeBackupsMonthly(ctx context.Context) error {
	return c.TakeBackupsIf(ctx, domain.Monthly)
}

// Handle adapts Execute to the job queue's handler signature.
func (c *Controller) Handle(ctx context.Context, job domain.JobRequest) error {
	outcome := c.Execute(ctx, job)
	if outcome.Kind == domain.OutcomeFailure {
		return outcome.Err
	}
	return nil
}

// Execute runs one attempt under the job's deadline and applies the
// outcome: notify on success, re-enqueue on timeout while retries remain,
// notify on any terminal failure.
func (c *Controller) Execute(ctx context.Context, job domain.JobRequest) domain.Outcome {
	createNew := c.guard.CreateNew(ctx)
	report, err := c.backup.Run(ctx, createNew)
	outcome := domain.Classify(ctx, report, err)

	// Notifications and re-enqueueing must work after the deadline passed.
	ctx = context.WithoutCancel(ctx)

	switch outcome.Kind {
	case domain.OutcomeSuccess:
		c.logger.Infof("Backup finished: %d of %d files uploaded", report.Uploaded, report.Attempted)
		c.notify(ctx, domain.Notice{Success: true, Report: report})

	case domain.OutcomeTimeout:
		if job.RetryCount < c.opts.MaxRetries {
			next := job.Next()
			if _, err := c.queue.Enqueue(next); err != nil {
				c.logger.Errorf("Re-enqueue after timeout failed: %v", err)
				c.notify(ctx, domain.Notice{
					Cause:  "backup timed out and could not be re-queued",
					Detail: c.trace(job, err),
				})
				return domain.Outcome{Kind: domain.OutcomeFailure, Report: report, Err: err}
			}
			c.logger.Warnf("Backup timed out after %s, retry %d of %d queued", job.Timeout, next.RetryCount, c.opts.MaxRetries)
			return outcome
		}
		c.logger.Errorf("Backup timed out on attempt %d, retry budget exhausted", job.RetryCount+1)
		c.notify(ctx, domain.Notice{
			Cause: fmt.Sprintf("backup timed out %d times, retry budget exhausted", job.RetryCount+1),
		})

	case domain.OutcomeFailure:
		c.logger.Errorf("Backup failed: %v", err)
		c.notify(ctx, domain.Notice{Cause: err.Error(), Detail: c.trace(job, err)})
	}

	return outcome
}

// trace renders err followed by the verbose oops report carrying the job
// attributes and stack.
func (c *Controller) trace(job domain.JobRequest, err error) string {
	wrapped := oops.
		In("backup").
		With("job_id", job.ID, "retry_count", job.RetryCount).
		Wrap(err)
	return fmt.Sprintf("%v\n\n%+v", err, wrapped)
}

func (c *Controller) notify(ctx context.Context, n domain.Notice) {
	n.Service = c.opts.Service
	if settings, err := c.settings.Current(); err == nil {
		n.Recipient = settings.NotifyEmail
	}
	if err := c.notifier.Notify(ctx, n); err != nil {
		c.logger.Errorf("Failed to send backup notification: %v", err)
	}
}
