package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/semmidev/offsite/internal/domain"
)

// Handler executes one job. ctx expires when the job exceeds its timeout.
type Handler func(ctx context.Context, job domain.JobRequest) error

type Logger interface {
	Infof(template string, args ...interface{})
	Errorf(template string, args ...interface{})
}

// Queue is an in-process job queue with a fixed worker pool. Every job runs
// under its own deadline; a job that needs another attempt must enqueue a
// new request.
type Queue struct {
	logger  Logger
	workers int
	jobs    chan domain.JobRequest

	mu       sync.RWMutex
	handlers map[string]Handler
	closed   bool

	pending sync.WaitGroup
	running sync.WaitGroup
}

func New(logger Logger, workers, capacity int) *Queue {
	if workers < 1 {
		workers = 1
	}
	return &Queue{
		logger:   logger,
		workers:  workers,
		jobs:     make(chan domain.JobRequest, capacity),
		handlers: make(map[string]Handler),
	}
}

func (q *Queue) Register(name string, h Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[name] = h
}

// Enqueue submits job and returns its id. It never blocks: a full buffer
// is reported as an error.
func (q *Queue) Enqueue(job domain.JobRequest) (string, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return "", domain.ErrQueueClosed
	}
	if _, ok := q.handlers[job.Name]; !ok {
		return "", fmt.Errorf("no handler registered for job %q", job.Name)
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}

	q.pending.Add(1)
	select {
	case q.jobs <- job:
	default:
		q.pending.Done()
		return "", fmt.Errorf("queue %s is full", job.Queue)
	}

	q.logger.Infof("Enqueued %s on %s queue (id=%s, retry=%d, timeout=%s)",
		job.Name, job.Queue, job.ID, job.RetryCount, job.Timeout)
	return job.ID, nil
}

func (q *Queue) Start(ctx context.Context) {
	for i := 0; i < q.workers; i++ {
		q.running.Add(1)
		go func() {
			defer q.running.Done()
			for job := range q.jobs {
				q.run(ctx, job)
			}
		}()
	}
}

func (q *Queue) run(ctx context.Context, job domain.JobRequest) {
	defer q.pending.Done()
	defer func() {
		if r := recover(); r != nil {
			q.logger.Errorf("Job %s (%s) panicked: %v", job.Name, job.ID, r)
		}
	}()

	q.mu.RLock()
	h := q.handlers[job.Name]
	q.mu.RUnlock()

	var cancel context.CancelFunc
	if job.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, job.Timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	if err := h(ctx, job); err != nil {
		q.logger.Errorf("Job %s (%s) failed: %v", job.Name, job.ID, err)
	}
}

// Wait blocks until every enqueued job, including jobs enqueued by running
// jobs, has finished.
func (q *Queue) Wait() {
	q.pending.Wait()
}

// Stop rejects new jobs, lets workers drain the buffer, and waits for them.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()
	q.running.Wait()
}
