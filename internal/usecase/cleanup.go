package usecase

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/semmidev/offsite/internal/domain"
)

var backupNamePattern = regexp.MustCompile(`^(\d{8})_(\d{6})-`)

// Cleanup prunes generated backups older than the retention window from the
// local backups directory. Files not named like a backup are left alone.
type Cleanup struct {
	storage       domain.Storage
	logger        Logger
	retentionDays int
	now           func() time.Time
}

func NewCleanup(storage domain.Storage, logger Logger, retentionDays int) *Cleanup {
	return &Cleanup{
		storage:       storage,
		logger:        logger,
		retentionDays: retentionDays,
		now:           time.Now,
	}
}

func (uc *Cleanup) Execute(ctx context.Context) error {
	if uc.retentionDays <= 0 {
		return nil
	}
	uc.logger.Infof("Starting cleanup, retention: %d days", uc.retentionDays)

	cutoff := uc.now().AddDate(0, 0, -uc.retentionDays)

	files, err := uc.storage.GetOldFiles(ctx, cutoff)
	if err != nil {
		uc.logger.Warnf("Listing old backups by modification time failed, falling back to names: %v", err)
		if files, err = uc.fallbackListFiles(ctx, cutoff); err != nil {
			return err
		}
	}

	deleted := 0
	for _, filename := range files {
		if !backupNamePattern.MatchString(filename) {
			continue
		}
		uc.logger.Infof("Deleting old backup: %s", filename)
		if err := uc.storage.Delete(ctx, filename); err != nil {
			uc.logger.Errorf("Failed to delete %s: %v", filename, err)
			continue
		}
		deleted++
	}

	uc.logger.Infof("Cleanup completed, deleted %d old backup(s)", deleted)
	return nil
}

func (uc *Cleanup) fallbackListFiles(ctx context.Context, cutoff time.Time) ([]string, error) {
	files, err := uc.storage.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	oldFiles := make([]string, 0)
	for _, filename := range files {
		timestamp, err := extractTimestamp(filename)
		if err != nil {
			continue
		}
		if timestamp.Before(cutoff) {
			oldFiles = append(oldFiles, filename)
		}
	}

	return oldFiles, nil
}

func extractTimestamp(filename string) (time.Time, error) {
	matches := backupNamePattern.FindStringSubmatch(filename)
	if len(matches) < 3 {
		return time.Time{}, fmt.Errorf("invalid filename format: no timestamp found")
	}

	return time.ParseInLocation("20060102_150405", matches[1]+"_"+matches[2], time.Local)
}
