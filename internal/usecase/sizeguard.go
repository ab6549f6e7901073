package usecase

import (
	"context"

	"github.com/semmidev/offsite/internal/domain"
)

type FileSizer interface {
	FileSize(path string) (int64, error)
}

// SizeGuard decides whether a run generates a fresh backup. A database
// larger than the limit is not dumped again; its latest dump is reused.
type SizeGuard struct {
	generator domain.Generator
	sizer     FileSizer
	limit     int64
	logger    Logger
}

func NewSizeGuard(generator domain.Generator, sizer FileSizer, limit int64, logger Logger) *SizeGuard {
	return &SizeGuard{generator: generator, sizer: sizer, limit: limit, logger: logger}
}

func (g *SizeGuard) CreateNew(ctx context.Context) bool {
	latest, err := g.generator.LatestBackup(ctx, false)
	if err != nil || latest.Database == "" {
		return true
	}

	size, err := g.sizer.FileSize(latest.Database)
	if err != nil {
		g.logger.Warnf("Could not stat %s: %v", latest.Database, err)
		return true
	}
	if size > g.limit {
		g.logger.Infof("Latest dump %s is %.2f GB, reusing it instead of creating a new backup",
			latest.Database, float64(size)/(1<<30))
		return false
	}
	return true
}
