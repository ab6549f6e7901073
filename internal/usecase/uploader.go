package usecase

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"

	"github.com/semmidev/offsite/internal/domain"
	"github.com/spf13/afero"
)

// Uploader copies single artifacts into a container under
// "<site>/backup/<folder>/<file>".
type Uploader struct {
	fs     afero.Fs
	site   string
	logger Logger
	out    io.Writer
}

// NewUploader reports progress and failures to out in addition to logger.
func NewUploader(fs afero.Fs, site string, logger Logger, out io.Writer) *Uploader {
	return &Uploader{fs: fs, site: site, logger: logger, out: out}
}

func (u *Uploader) Key(localPath, folder string) string {
	return path.Join(u.site, "backup", folder, filepath.Base(localPath))
}

// Upload never returns an error: a failure is logged, reported and recorded
// in the result so the remaining artifacts still get uploaded.
func (u *Uploader) Upload(ctx context.Context, localPath, folder string, c domain.Container) domain.UploadResult {
	res := domain.UploadResult{Path: localPath, Key: u.Key(localPath, folder)}

	fmt.Fprintln(u.out, "Uploading file:", localPath)
	u.logger.Infof("Uploading %s to %s", localPath, res.Key)

	if err := u.upload(ctx, localPath, res.Key, c); err != nil {
		res.Err = err
		u.logger.Errorf("Failed to upload %s: %v", localPath, err)
		fmt.Fprintf(u.out, "Error uploading: %v\n", err)
	}
	return res
}

func (u *Uploader) upload(ctx context.Context, localPath, key string, c domain.Container) error {
	file, err := u.fs.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return c.Upload(ctx, key, file)
}
