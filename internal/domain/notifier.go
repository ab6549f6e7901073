package domain

import "context"

type Notice struct {
	Success   bool
	Service   string
	Recipient string
	Cause     string
	Detail    string
	Report    UploadReport
}

type Notifier interface {
	Notify(ctx context.Context, n Notice) error
}
