package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/semmidev/offsite/internal/domain"
)

const destinationFolderLen = 15

// artifact is one upload slot of a run. A missing required artifact counts
// as a failed upload.
type artifact struct {
	kind     string
	path     string
	required bool
}

// Backup uploads one artifact set to the configured container.
type Backup struct {
	settings SettingsSource
	opener   domain.ContainerOpener
	locator  *Locator
	uploader *Uploader
	logger   Logger
}

func NewBackup(
	settings SettingsSource,
	opener domain.ContainerOpener,
	locator *Locator,
	uploader *Uploader,
	logger Logger,
) *Backup {
	return &Backup{
		settings: settings,
		opener:   opener,
		locator:  locator,
		uploader: uploader,
		logger:   logger,
	}
}

// DestinationFolder groups a run's uploads under the leading timestamp of
// the database dump's file name.
func DestinationFolder(dbPath string) string {
	name := []rune(filepath.Base(dbPath))
	if len(name) > destinationFolderLen {
		return string(name[:destinationFolderLen])
	}
	return string(name)
}

// Run uploads the dump, the site config and, when enabled, the private and
// public file archives. Per-file failures are absorbed into the report;
// setup errors and expiry of ctx are returned.
func (uc *Backup) Run(ctx context.Context, createNew bool) (domain.UploadReport, error) {
	start := time.Now()

	settings, err := uc.settings.Current()
	if err != nil {
		return domain.UploadReport{}, fmt.Errorf("read settings: %w", err)
	}

	container, err := uc.opener.Open(ctx, settings.EndpointURL, settings.DefaultContainer)
	if err != nil {
		return domain.UploadReport{}, fmt.Errorf("open container %s: %w", settings.DefaultContainer, err)
	}
	defer func() {
		if err := container.Close(); err != nil {
			uc.logger.Warnf("Closing container %s: %v", settings.DefaultContainer, err)
		}
	}()

	set, err := uc.locator.Locate(ctx, createNew, settings.BackupFiles)
	if err != nil {
		return domain.UploadReport{}, fmt.Errorf("locate backup: %w", err)
	}
	if set.Database == "" {
		return domain.UploadReport{}, domain.ErrNoDatabaseBackup
	}

	report := domain.UploadReport{Folder: DestinationFolder(set.Database)}
	uploads := []artifact{
		{kind: "database dump", path: set.Database, required: true},
		{kind: "site config backup", path: set.SiteConfig, required: true},
	}
	if settings.BackupFiles {
		uploads = append(uploads,
			artifact{kind: "private files archive", path: set.PrivateFiles},
			artifact{kind: "public files archive", path: set.PublicFiles},
		)
	}

	for _, a := range uploads {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if a.path == "" {
			if a.required {
				uc.logger.Warnf("No %s found next to %s", a.kind, set.Database)
				report.Add(domain.UploadResult{Err: fmt.Errorf("no %s found", a.kind)})
			}
			continue
		}
		report.Add(uc.uploader.Upload(ctx, a.path, report.Folder, container))
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}

	uc.logger.Infof("Uploaded %d of %d files to %s in %s",
		report.Uploaded, report.Attempted, report.Folder, time.Since(start).Round(time.Second))
	return report, nil
}
