package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

// LocalStorage is a directory on a filesystem. It serves as the "local"
// container backend and as the retention view of the backups directory.
type LocalStorage struct {
	fs       afero.Fs
	basePath string
}

func NewLocal(fs afero.Fs, basePath string) (*LocalStorage, error) {
	if err := fs.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	return &LocalStorage{fs: fs, basePath: basePath}, nil
}

// Upload writes r to key below the base path, creating parent directories.
func (l *LocalStorage) Upload(ctx context.Context, key string, r io.Reader) error {
	destPath := l.GetPath(key)
	if err := l.fs.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("failed to create dest dir: %w", err)
	}

	dest, err := l.fs.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create dest: %w", err)
	}
	defer dest.Close()

	if _, err := io.Copy(dest, r); err != nil {
		return fmt.Errorf("failed to copy: %w", err)
	}

	return nil
}

func (l *LocalStorage) Close() error {
	return nil
}

func (l *LocalStorage) List(ctx context.Context) ([]string, error) {
	entries, err := afero.ReadDir(l.fs, l.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() {
			files = append(files, entry.Name())
		}
	}

	return files, nil
}

func (l *LocalStorage) Delete(ctx context.Context, name string) error {
	if err := l.fs.Remove(l.GetPath(name)); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (l *LocalStorage) GetOldFiles(ctx context.Context, cutoffTime time.Time) ([]string, error) {
	entries, err := afero.ReadDir(l.fs, l.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var oldFiles []string
	for _, entry := range entries {
		if !entry.IsDir() && entry.ModTime().Before(cutoffTime) {
			oldFiles = append(oldFiles, entry.Name())
		}
	}

	return oldFiles, nil
}

func (l *LocalStorage) GetPath(name string) string {
	return filepath.Join(l.basePath, filepath.FromSlash(name))
}
