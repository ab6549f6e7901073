package usecase

import (
	"context"

	"github.com/semmidev/offsite/internal/domain"
)

// Locator decides which artifact set a run uploads.
type Locator struct {
	generator domain.Generator
	logger    Logger
}

func NewLocator(generator domain.Generator, logger Logger) *Locator {
	return &Locator{generator: generator, logger: logger}
}

// Locate returns a freshly generated set when createNew is true, otherwise
// the latest set on disk. When archives are wanted but missing from the
// latest set, they are generated once and the lookup repeated once; a
// second miss is returned as-is.
func (l *Locator) Locate(ctx context.Context, createNew, includeFiles bool) (domain.ArtifactSet, error) {
	if createNew {
		set, err := l.generator.NewBackup(ctx, domain.BackupOptions{IncludeFiles: includeFiles, Force: true})
		if err != nil {
			return domain.ArtifactSet{}, err
		}
		if !includeFiles {
			set = set.WithoutFiles()
		}
		return set, nil
	}

	set, err := l.generator.LatestBackup(ctx, includeFiles)
	if err != nil {
		return domain.ArtifactSet{}, err
	}
	if !includeFiles {
		return set.WithoutFiles(), nil
	}
	if set.HasFiles() {
		return set, nil
	}

	l.logger.Infof("Latest backup has no file archives, generating them")
	if err := l.generator.GenerateFilesBackup(ctx); err != nil {
		return domain.ArtifactSet{}, err
	}
	return l.generator.LatestBackup(ctx, true)
}
