package domain

import "context"

// Database produces a logical dump of the site database at dumpPath.
// Ping checks that the server accepts the configured credentials before a
// dump is attempted.
type Database interface {
	Backup(ctx context.Context, dumpPath string) error
	GetName() string
	GetType() string
	Ping(ctx context.Context) error
}
