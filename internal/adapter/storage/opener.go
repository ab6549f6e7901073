package storage

import (
	"context"
	"fmt"
	"path/filepath"

	appconfig "github.com/semmidev/offsite/internal/config"
	"github.com/semmidev/offsite/internal/domain"
	"github.com/spf13/afero"
)

var (
	_ domain.Container = (*AzureContainer)(nil)
	_ domain.Container = (*S3Container)(nil)
	_ domain.Container = (*GDriveContainer)(nil)
	_ domain.Container = (*BucketContainer)(nil)
	_ domain.Container = (*LocalStorage)(nil)
	_ domain.Storage   = (*LocalStorage)(nil)
)

// Opener opens containers for the configured backend. The endpoint and
// container come from the settings record at open time so edits apply to
// the next run.
type Opener struct {
	cfg appconfig.StorageConfig
	fs  afero.Fs
}

func NewOpener(cfg appconfig.StorageConfig, fs afero.Fs) *Opener {
	return &Opener{cfg: cfg, fs: fs}
}

func (o *Opener) Open(ctx context.Context, endpoint, container string) (domain.Container, error) {
	switch o.cfg.Backend {
	case "azure", "":
		return NewAzure(ctx, endpoint, container)
	case "s3":
		return NewS3(ctx, &o.cfg, endpoint, container)
	case "gdrive":
		return NewGDrive(ctx, &o.cfg, container)
	case "bucket":
		return NewBucket(ctx, endpoint, container)
	case "local":
		return NewLocal(o.fs, filepath.Join(endpoint, container))
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownBackend, o.cfg.Backend)
	}
}
