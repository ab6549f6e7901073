package domain

import (
	"context"
	"io"
	"time"
)

// Container is a handle to one blob-storage container. Upload writes a
// single object at key, replacing any existing object.
type Container interface {
	Upload(ctx context.Context, key string, r io.Reader) error
	Close() error
}

type ContainerOpener interface {
	Open(ctx context.Context, endpoint, container string) (Container, error)
}

// Storage is a listable file store used for retention.
type Storage interface {
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, name string) error
	GetOldFiles(ctx context.Context, cutoffTime time.Time) ([]string, error)
}
