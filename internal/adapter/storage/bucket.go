package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
)

// BucketContainer is a container backed by any gocloud bucket URL
// ("file:///srv/offsite", "mem://"). The container name becomes a key
// prefix inside the bucket.
type BucketContainer struct {
	bucket *blob.Bucket
	prefix string
}

func NewBucket(ctx context.Context, url, container string) (*BucketContainer, error) {
	b, err := blob.OpenBucket(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open bucket %q: %w", url, err)
	}

	c, err := NewBucketFrom(ctx, b, container)
	if err != nil {
		b.Close()
		return nil, err
	}
	return c, nil
}

// NewBucketFrom wraps an already opened bucket; closing the container closes
// b.
func NewBucketFrom(ctx context.Context, b *blob.Bucket, container string) (*BucketContainer, error) {
	ok, err := b.IsAccessible(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to reach bucket: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("bucket is not accessible")
	}

	prefix := strings.Trim(container, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &BucketContainer{bucket: b, prefix: prefix}, nil
}

func (c *BucketContainer) Upload(ctx context.Context, key string, r io.Reader) error {
	if err := c.bucket.Upload(ctx, c.prefix+key, r, nil); err != nil {
		return fmt.Errorf("failed to upload to bucket: %w", err)
	}
	return nil
}

func (c *BucketContainer) Close() error {
	return c.bucket.Close()
}
