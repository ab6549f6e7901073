package app

import (
	"context"
	"fmt"
	"os"

	"github.com/samber/lo"
	"github.com/semmidev/offsite/internal/adapter/compressor"
	"github.com/semmidev/offsite/internal/adapter/database"
	"github.com/semmidev/offsite/internal/adapter/notifier"
	"github.com/semmidev/offsite/internal/adapter/sitebackup"
	"github.com/semmidev/offsite/internal/adapter/storage"
	"github.com/semmidev/offsite/internal/config"
	"github.com/semmidev/offsite/internal/domain"
	"github.com/semmidev/offsite/internal/infrastructure/logger"
	"github.com/semmidev/offsite/internal/infrastructure/queue"
	"github.com/semmidev/offsite/internal/infrastructure/scheduler"
	"github.com/semmidev/offsite/internal/usecase"
	"github.com/spf13/afero"
)

const queueCapacity = 16

type App struct {
	config     *config.Config
	logger     *logger.Logger
	settings   *config.SettingsStore
	scheduler  *scheduler.Scheduler
	queue      *queue.Queue
	controller *usecase.Controller
	cleanupUC  *usecase.Cleanup
}

func New(cfg *config.Config) (*App, error) {
	log, err := logger.New(logger.Options{Name: cfg.App.Name, Level: cfg.App.LogLevel, File: cfg.App.LogFile})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	log.Infof("Starting %s for site %s", cfg.App.Name, cfg.Site.Name)

	initial, err := cfg.Settings.ToDomain()
	if err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	settings := config.NewSettingsStore(initial)
	cfg.WatchSettings(settings, func(err error) { log.Errorf("%v", err) })

	fs := afero.NewOsFs()

	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, err
	}

	generator, err := sitebackup.New(fs, db, compressor.NewGzip(fs), log, sitebackup.Options{
		Dir:              cfg.Backup.Path,
		Site:             cfg.Site.Name,
		SiteConfigPath:   cfg.Site.ConfigPath,
		PublicFilesPath:  cfg.Site.PublicFilesPath,
		PrivateFilesPath: cfg.Site.PrivateFilesPath,
		Compress:         cfg.Backup.Compress,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize backup generator: %w", err)
	}

	localBackups, err := storage.NewLocal(fs, cfg.Backup.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize local storage: %w", err)
	}

	backupUC := usecase.NewBackup(
		settings,
		storage.NewOpener(cfg.Storage, fs),
		usecase.NewLocator(generator, log),
		usecase.NewUploader(fs, cfg.Site.Name, log, os.Stdout),
		log,
	)

	jobs := queue.New(log, cfg.Queue.Workers, queueCapacity)
	controller := usecase.NewController(
		settings,
		backupUC,
		usecase.NewSizeGuard(generator, generator, cfg.Backup.MaxReuseSize, log),
		jobs,
		initializeNotifiers(cfg, log),
		log,
		usecase.ControllerOptions{
			Service:    cfg.Notify.Service,
			Queue:      cfg.Queue.Name,
			Timeout:    cfg.Queue.Timeout,
			MaxRetries: cfg.Queue.MaxRetries,
		},
	)
	jobs.Register(usecase.JobName, controller.Handle)

	return &App{
		config:     cfg,
		logger:     log,
		settings:   settings,
		scheduler:  scheduler.New(log),
		queue:      jobs,
		controller: controller,
		cleanupUC:  usecase.NewCleanup(localBackups, log, cfg.Backup.RetentionDays),
	}, nil
}

func initializeNotifiers(cfg *config.Config, log *logger.Logger) domain.Notifier {
	targets := notifier.Multi{notifier.NewLog(log)}

	if cfg.Notify.SMTP.Host != "" {
		targets = append(targets, notifier.NewMail(cfg.Notify.SMTP))
		log.Infof("✓ Email notifications enabled (%s)", cfg.Notify.SMTP.Host)
	}

	if cfg.Notify.Telegram.BotToken != "" {
		tg, err := notifier.NewTelegram(cfg.Notify.Telegram)
		if err != nil {
			log.Errorf("Failed to initialize Telegram: %v", err)
		} else {
			targets = append(targets, tg)
			log.Infof("✓ Telegram notifications enabled")
		}
	}

	return targets
}

func (a *App) jobs() []domain.BackupJob {
	return lo.Filter([]domain.BackupJob{
		{Name: "daily backup check", Schedule: a.config.Schedule.Daily, Run: a.controller.TakeBackupsDaily},
		{Name: "weekly backup check", Schedule: a.config.Schedule.Weekly, Run: a.controller.TakeBackupsWeekly},
		{Name: "monthly backup check", Schedule: a.config.Schedule.Monthly, Run: a.controller.TakeBackupsMonthly},
		{Name: "local cleanup", Schedule: a.config.Schedule.Cleanup, Run: a.cleanupUC.Execute},
	}, func(job domain.BackupJob, _ int) bool { return job.Schedule != "" })
}

// Run starts the workers and cadence hooks and blocks until ctx is done.
func (a *App) Run(ctx context.Context) error {
	a.queue.Start(ctx)

	for _, job := range a.jobs() {
		if err := a.scheduler.AddJob(job); err != nil {
			return err
		}
	}

	a.scheduler.Start()
	settings, _ := a.settings.Current()
	a.logger.Infof("Scheduler started (enabled=%t, frequency=%s, backend=%s)",
		settings.Enabled, settings.Frequency, a.config.Storage.Backend)

	<-ctx.Done()
	return nil
}

// BackupNow enqueues one backup and waits until it and any retries reach a
// terminal state.
func (a *App) BackupNow(ctx context.Context) error {
	a.queue.Start(ctx)

	if _, err := a.controller.TakeBackup(ctx); err != nil {
		return err
	}
	a.queue.Wait()
	return nil
}

func (a *App) Shutdown() {
	a.logger.Infof("Shutting down application...")
	a.scheduler.Stop()
	a.queue.Stop()
	a.logger.Close()
}
