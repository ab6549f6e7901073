package domain

import (
	"context"
	"errors"
)

var (
	ErrNoDatabaseBackup = errors.New("no database backup found")
	ErrUnknownBackend   = errors.New("unknown storage backend")
	ErrQueueClosed      = errors.New("job queue is closed")
)

// ArtifactSet groups the files produced by one backup run. An empty path
// means the slot is absent.
type ArtifactSet struct {
	Database     string
	SiteConfig   string
	PublicFiles  string
	PrivateFiles string
}

// HasFiles reports whether both file archives are present.
func (a ArtifactSet) HasFiles() bool {
	return a.PublicFiles != "" && a.PrivateFiles != ""
}

// WithoutFiles returns a copy with both archive slots cleared.
func (a ArtifactSet) WithoutFiles() ArtifactSet {
	a.PublicFiles = ""
	a.PrivateFiles = ""
	return a
}

type BackupOptions struct {
	IncludeFiles bool
	Force        bool
}

// Generator produces backup artifacts on local disk.
type Generator interface {
	NewBackup(ctx context.Context, opts BackupOptions) (ArtifactSet, error)
	LatestBackup(ctx context.Context, withFiles bool) (ArtifactSet, error)
	GenerateFilesBackup(ctx context.Context) error
}

type UploadResult struct {
	Path string
	Key  string
	Err  error
}

// UploadReport aggregates the uploads of one run.
type UploadReport struct {
	Folder    string
	Attempted int
	Uploaded  int
	Failed    []UploadResult
}

func (r *UploadReport) Add(res UploadResult) {
	r.Attempted++
	if res.Err != nil {
		r.Failed = append(r.Failed, res)
		return
	}
	r.Uploaded++
}

// Complete reports whether every attempted upload succeeded.
func (r UploadReport) Complete() bool {
	return r.Attempted == r.Uploaded
}

type BackupJob struct {
	Name     string
	Schedule string
	Run      func(ctx context.Context) error
}
