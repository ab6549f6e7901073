package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/semmidev/offsite/internal/domain"
)

type fakeGenerator struct {
	newSet      domain.ArtifactSet
	newErr      error
	latest      []domain.ArtifactSet
	latestErr   error
	generateErr error

	newCalls      []domain.BackupOptions
	latestCalls   []bool
	generateCalls int
}

func (g *fakeGenerator) NewBackup(ctx context.Context, opts domain.BackupOptions) (domain.ArtifactSet, error) {
	g.newCalls = append(g.newCalls, opts)
	return g.newSet, g.newErr
}

// LatestBackup returns the queued results in order and repeats the last one.
func (g *fakeGenerator) LatestBackup(ctx context.Context, withFiles bool) (domain.ArtifactSet, error) {
	g.latestCalls = append(g.latestCalls, withFiles)
	if g.latestErr != nil {
		return domain.ArtifactSet{}, g.latestErr
	}
	if len(g.latest) == 0 {
		return domain.ArtifactSet{}, nil
	}
	set := g.latest[0]
	if len(g.latest) > 1 {
		g.latest = g.latest[1:]
	}
	return set, nil
}

func (g *fakeGenerator) GenerateFilesBackup(ctx context.Context) error {
	g.generateCalls++
	return g.generateErr
}

type fakeContainer struct {
	mu      sync.Mutex
	objects map[string]string
	order   []string
	fail    map[string]error
	closed  bool

	// stall blocks the upload of this key until ctx is done.
	stall string
}

func newFakeContainer() *fakeContainer {
	return &fakeContainer{objects: map[string]string{}, fail: map[string]error{}}
}

func (c *fakeContainer) Upload(ctx context.Context, key string, r io.Reader) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order = append(c.order, key)
	if key == c.stall {
		<-ctx.Done()
		return ctx.Err()
	}
	if err := c.fail[key]; err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	c.objects[key] = string(data)
	return nil
}

func (c *fakeContainer) Close() error {
	c.closed = true
	return nil
}

type fakeOpener struct {
	container *fakeContainer
	err       error
	endpoint  string
	name      string
}

func (o *fakeOpener) Open(ctx context.Context, endpoint, container string) (domain.Container, error) {
	o.endpoint, o.name = endpoint, container
	if o.err != nil {
		return nil, o.err
	}
	return o.container, nil
}

type staticSettings struct {
	settings domain.Settings
	err      error
}

func (s *staticSettings) Current() (domain.Settings, error) {
	return s.settings, s.err
}

type fakeQueue struct {
	jobs []domain.JobRequest
	err  error
}

func (q *fakeQueue) Enqueue(job domain.JobRequest) (string, error) {
	if q.err != nil {
		return "", q.err
	}
	q.jobs = append(q.jobs, job)
	return fmt.Sprintf("job-%d", len(q.jobs)), nil
}

type fakeNotifier struct {
	notices []domain.Notice
	err     error
}

func (n *fakeNotifier) Notify(ctx context.Context, notice domain.Notice) error {
	n.notices = append(n.notices, notice)
	return n.err
}

// fakeRunner returns the context's error once it is done, like a run that
// checks ctx between uploads, and err otherwise.
type fakeRunner struct {
	report    domain.UploadReport
	err       error
	createNew []bool
}

func (r *fakeRunner) Run(ctx context.Context, createNew bool) (domain.UploadReport, error) {
	r.createNew = append(r.createNew, createNew)
	if err := ctx.Err(); err != nil {
		return r.report, err
	}
	return r.report, r.err
}

type fakeSizer map[string]int64

func (s fakeSizer) FileSize(path string) (int64, error) {
	size, ok := s[path]
	if !ok {
		return 0, errors.New("file does not exist")
	}
	return size, nil
}
