package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bulk-importer/internal/imports"
	"github.com/bulk-importer/internal/logging"
)

// queueStub feeds tasks from a buffered channel; an empty drain behaves like
// a dequeue timeout.
type queueStub struct {
	tasks chan queuedTask
}

type queuedTask struct {
	name  string
	jobID uuid.UUID
}

func newQueueStub(tasks ...queuedTask) *queueStub {
	ch := make(chan queuedTask, len(tasks)+1)
	for _, task := range tasks {
		ch <- task
	}
	return &queueStub{tasks: ch}
}

func (q *queueStub) Dequeue(ctx context.Context, timeout time.Duration) (string, uuid.UUID, error) {
	select {
	case task := <-q.tasks:
		return task.name, task.jobID, nil
	case <-time.After(timeout):
		return "", uuid.Nil, nil
	case <-ctx.Done():
		return "", uuid.Nil, ctx.Err()
	}
}

// runnerStub records run invocations.
type runnerStub struct {
	mu   sync.Mutex
	runs []uuid.UUID
	err  error
}

func (r *runnerStub) Run(_ context.Context, jobID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, jobID)
	return r.err
}

func (r *runnerStub) ranJobs() []uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uuid.UUID(nil), r.runs...)
}

func newTestWorker(t *testing.T, queue TaskSource, runner JobRunner) *ImportWorker {
	t.Helper()
	w, err := NewImportWorker(&ImportWorkerConfig{
		Queue:       queue,
		Runner:      runner,
		Logger:      logging.NewLogger(logging.LevelError, logging.FormatJSON),
		PollTimeout: 20 * time.Millisecond,
	})
	require.NoError(t, err)
	return w
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestWorkerRunsQueuedJobs(t *testing.T) {
	first := uuid.New()
	second := uuid.New()
	queue := newQueueStub(
		queuedTask{name: imports.TaskProcessImport, jobID: first},
		queuedTask{name: imports.TaskProcessImport, jobID: second},
	)
	runner := &runnerStub{}
	w := newTestWorker(t, queue, runner)

	ctx := context.Background()
	require.NoError(t, w.Start(ctx))
	defer func() {
		stopCtx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		_ = w.Stop(stopCtx)
	}()

	waitFor(t, time.Second, func() bool { return len(runner.ranJobs()) == 2 })
	assert.Equal(t, []uuid.UUID{first, second}, runner.ranJobs())

	status := w.GetStatus()
	assert.Equal(t, 2, status.JobsProcessed)
	assert.Equal(t, 0, status.JobsFailed)
}

func TestWorkerSkipsUnknownTasks(t *testing.T) {
	wanted := uuid.New()
	queue := newQueueStub(
		queuedTask{name: "compact_segments", jobID: uuid.New()},
		queuedTask{name: imports.TaskProcessImport, jobID: wanted},
	)
	runner := &runnerStub{}
	w := newTestWorker(t, queue, runner)

	ctx := context.Background()
	require.NoError(t, w.Start(ctx))
	defer func() {
		stopCtx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		_ = w.Stop(stopCtx)
	}()

	waitFor(t, time.Second, func() bool { return len(runner.ranJobs()) == 1 })
	assert.Equal(t, []uuid.UUID{wanted}, runner.ranJobs())
}

func TestWorkerCountsFailedJobs(t *testing.T) {
	queue := newQueueStub(queuedTask{name: imports.TaskProcessImport, jobID: uuid.New()})
	runner := &runnerStub{err: errors.New("blob missing")}
	w := newTestWorker(t, queue, runner)

	ctx := context.Background()
	require.NoError(t, w.Start(ctx))
	defer func() {
		stopCtx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		_ = w.Stop(stopCtx)
	}()

	waitFor(t, time.Second, func() bool { return w.GetStatus().JobsFailed == 1 })
}

func TestWorkerStartTwiceFails(t *testing.T) {
	w := newTestWorker(t, newQueueStub(), &runnerStub{})

	ctx := context.Background()
	require.NoError(t, w.Start(ctx))
	assert.Error(t, w.Start(ctx))

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, w.Stop(stopCtx))
}

func TestWorkerStopWithoutStartFails(t *testing.T) {
	w := newTestWorker(t, newQueueStub(), &runnerStub{})
	assert.Error(t, w.Stop(context.Background()))
}
