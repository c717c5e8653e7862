package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/todotree/internal/config"
	"github.com/dgallion1/todotree/internal/lists"
	"github.com/dgallion1/todotree/internal/store"
	"github.com/dgallion1/todotree/internal/todolist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newLists(t *testing.T) *lists.Service {
	t.Helper()
	fs, err := store.NewFile(t.TempDir(), todolist.JSON)
	require.NoError(t, err)
	return lists.NewService(fs, "", quietLogger())
}

func TestWorker_ImportsMarkdown(t *testing.T) {
	svc := newLists(t)
	jobs := NewJobStore(time.Hour)
	w := NewWorker(svc, jobs, quietLogger(), false)
	ctx := context.Background()

	job := NewJob("todo", 0, "weekend.md", "", []byte("- [ ] buy milk\n- [x] eggs\n"))
	w.Process(ctx, job)

	snap := job.Snapshot()
	require.Equal(t, StatusCompleted, snap.Status, "errors: %v", snap.Progress.Errors)
	assert.Equal(t, 3, snap.Progress.NodesParsed)
	assert.Equal(t, 3, snap.Progress.NodesGrafted)
	assert.NotEmpty(t, snap.ContentHash)

	root, err := svc.Get(ctx, "todo")
	require.NoError(t, err)
	assert.Equal(t, "0.ToDo List:\n    1.weekend:\n        2.buy milk _\n        3.eggs X\n", root.String())
}

func TestWorker_TitleOverridesLabel(t *testing.T) {
	svc := newLists(t)
	w := NewWorker(svc, NewJobStore(time.Hour), quietLogger(), false)

	job := NewJob("todo", 0, "a.txt", "Errands", []byte("post office\n"))
	w.Process(context.Background(), job)
	require.Equal(t, StatusCompleted, job.Snapshot().Status)

	root, err := svc.Get(context.Background(), "todo")
	require.NoError(t, err)
	assert.Equal(t, "Errands", root.Children[0].Label)
}

func TestWorker_SkipsDuplicateImport(t *testing.T) {
	svc := newLists(t)
	w := NewWorker(svc, NewJobStore(time.Hour), quietLogger(), false)
	ctx := context.Background()

	first := NewJob("todo", 0, "a.txt", "", []byte("x\n"))
	w.Process(ctx, first)
	second := NewJob("todo", 0, "a.txt", "", []byte("x\n"))
	w.Process(ctx, second)
	other := NewJob("other", 0, "a.txt", "", []byte("x\n"))
	w.Process(ctx, other)

	assert.Equal(t, StatusCompleted, first.Snapshot().Status)
	assert.Equal(t, StatusDupSkipped, second.Snapshot().Status)
	assert.Equal(t, StatusCompleted, other.Snapshot().Status)

	root, err := svc.Get(ctx, "todo")
	require.NoError(t, err)
	assert.Len(t, root.Children, 1)
}

// slowGrafter holds every graft open until release is closed.
type slowGrafter struct {
	mu      sync.Mutex
	grafts  int
	fail    bool
	started chan struct{}
	release chan struct{}
}

func (g *slowGrafter) Graft(ctx context.Context, listID string, index int, subtree *todolist.Node) (*todolist.Node, error) {
	g.started <- struct{}{}
	<-g.release
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail {
		return nil, errors.New("store down")
	}
	g.grafts++
	return subtree, nil
}

func TestWorker_ConcurrentDuplicatesGraftOnce(t *testing.T) {
	g := &slowGrafter{started: make(chan struct{}, 2), release: make(chan struct{})}
	jobs := NewJobStore(time.Hour)
	a := NewJob("todo", 0, "a.md", "", []byte("- [ ] milk\n"))
	b := NewJob("todo", 0, "a.md", "", []byte("- [ ] milk\n"))

	var wg sync.WaitGroup
	for _, job := range []*Job{a, b} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			NewWorker(g, jobs, quietLogger(), false).Process(context.Background(), job)
		}()
	}

	// One job reaches the grafter; the other must finish as a duplicate
	// while the first is still in flight.
	<-g.started
	require.Eventually(t, func() bool {
		return a.Snapshot().Status == StatusDupSkipped || b.Snapshot().Status == StatusDupSkipped
	}, 5*time.Second, 5*time.Millisecond)
	close(g.release)
	wg.Wait()

	assert.Equal(t, 1, g.grafts)
	statuses := []JobStatus{a.Snapshot().Status, b.Snapshot().Status}
	assert.ElementsMatch(t, []JobStatus{StatusCompleted, StatusDupSkipped}, statuses)
}

func TestWorker_FailedGraftReleasesHash(t *testing.T) {
	g := &slowGrafter{fail: true, started: make(chan struct{}, 2), release: make(chan struct{})}
	close(g.release)
	jobs := NewJobStore(time.Hour)
	w := NewWorker(g, jobs, quietLogger(), false)

	first := NewJob("todo", 0, "a.txt", "", []byte("x\n"))
	w.Process(context.Background(), first)
	require.Equal(t, StatusFailed, first.Snapshot().Status)

	g.fail = false
	retry := NewJob("todo", 0, "a.txt", "", []byte("x\n"))
	w.Process(context.Background(), retry)
	assert.Equal(t, StatusCompleted, retry.Snapshot().Status)
	assert.Equal(t, 1, g.grafts)
}

func TestWorker_Failures(t *testing.T) {
	tests := []struct {
		name  string
		job   *Job
		phase string
	}{
		{"unsupported", NewJob("todo", 0, "a.png", "", nil), "parsing"},
		{"parse error", NewJob("todo", 0, "a.csv", "", []byte("a,maybe\n")), "parsing"},
		{"out of range", NewJob("todo", 9, "a.txt", "", []byte("x\n")), "grafting"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWorker(newLists(t), NewJobStore(time.Hour), quietLogger(), false)
			w.Process(context.Background(), tt.job)

			snap := tt.job.Snapshot()
			assert.Equal(t, StatusFailed, snap.Status)
			assert.Equal(t, tt.phase, snap.Phase)
			assert.Len(t, snap.Progress.Errors, 1)
		})
	}
}

func TestOrchestrator_RunsJobs(t *testing.T) {
	svc := newLists(t)
	cfg := config.Config{WorkerCount: 2, MaxQueueSize: 10, JobTTL: time.Hour}
	o := NewOrchestrator(cfg, svc, quietLogger())
	o.Start(context.Background())
	defer o.Stop()

	job := NewJob("todo", 0, "a.txt", "", []byte("one\ntwo\n"))
	require.NoError(t, o.Submit(job))
	assert.Same(t, job, o.GetJob(job.ID))

	require.Eventually(t, func() bool {
		return o.GetJob(job.ID).Snapshot().Status == StatusCompleted
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, o.TrackedJobs())
}

func TestOrchestrator_QueueFull(t *testing.T) {
	cfg := config.Config{WorkerCount: 1, MaxQueueSize: 1, JobTTL: time.Hour}
	o := NewOrchestrator(cfg, newLists(t), quietLogger())
	// Not started: nothing drains the queue.

	require.NoError(t, o.Submit(NewJob("todo", 0, "a.txt", "", []byte("x"))))
	assert.Equal(t, 1, o.QueueDepth())

	job := NewJob("todo", 0, "b.txt", "", []byte("y"))
	assert.Error(t, o.Submit(job))
	snap := job.Snapshot()
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Equal(t, "queue_full", snap.Phase)
}

func TestOrchestrator_SubmitAfterStop(t *testing.T) {
	cfg := config.Config{WorkerCount: 1, MaxQueueSize: 4, JobTTL: time.Hour}
	o := NewOrchestrator(cfg, newLists(t), quietLogger())
	o.Start(context.Background())
	o.Stop()
	o.Stop()

	job := NewJob("todo", 0, "a.txt", "", []byte("x"))
	assert.ErrorIs(t, o.Submit(job), ErrStopped)
	assert.Equal(t, StatusFailed, job.Snapshot().Status)
}
