package domain

import (
	"context"
	"errors"
	"time"
)

// JobRequest is the persisted state of one queued attempt. RetryCount
// travels with the request so a re-enqueued attempt survives the worker
// that scheduled it.
type JobRequest struct {
	ID         string
	Name       string
	Queue      string
	Timeout    time.Duration
	RetryCount int
}

// Next returns the request for the following attempt.
func (j JobRequest) Next() JobRequest {
	j.ID = ""
	j.RetryCount++
	return j
}

type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeTimeout
	OutcomeFailure
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeTimeout:
		return "timeout"
	default:
		return "failure"
	}
}

type Outcome struct {
	Kind   OutcomeKind
	Report UploadReport
	Err    error
}

// Classify maps the result of a run executed under ctx onto an outcome. A
// run is a timeout only when the job's own deadline expired; a deadline
// error from an inner call with a live job context is an ordinary failure.
func Classify(ctx context.Context, report UploadReport, err error) Outcome {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return Outcome{Kind: OutcomeTimeout, Report: report, Err: context.DeadlineExceeded}
	}
	if err != nil {
		return Outcome{Kind: OutcomeFailure, Report: report, Err: err}
	}
	return Outcome{Kind: OutcomeSuccess, Report: report}
}
