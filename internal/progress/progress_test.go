package progress

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bulk-importer/internal/logging"
	"github.com/bulk-importer/internal/models"
	"github.com/bulk-importer/internal/types"
)

type jobReaderStub struct {
	mu  sync.Mutex
	job models.ImportJob
	err error
}

func (s *jobReaderStub) GetJob(_ context.Context, _, _ uuid.UUID) (*models.ImportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	cp := s.job
	return &cp, nil
}

func (s *jobReaderStub) set(mutate func(*models.ImportJob)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mutate(&s.job)
}

func testLogger() *logging.Logger {
	return logging.NewLogger(logging.LevelError, logging.FormatText)
}

func collect(t *testing.T, events <-chan Event, wait time.Duration) []Event {
	t.Helper()
	var got []Event
	timeout := time.After(wait)
	for {
		select {
		case e, ok := <-events:
			if !ok {
				return got
			}
			got = append(got, e)
		case <-timeout:
			t.Fatalf("event channel did not close, got %d events", len(got))
		}
	}
}

func TestWatchEmitsProgressThenComplete(t *testing.T) {
	stub := &jobReaderStub{job: models.ImportJob{
		ID:        uuid.New(),
		TenantID:  uuid.New(),
		Status:    types.StatusProcessing,
		TotalRows: 10,
	}}
	w := NewWatcher(stub, 5*time.Millisecond, time.Second, testLogger())

	events := w.Watch(context.Background(), stub.job.TenantID, stub.job.ID)

	go func() {
		time.Sleep(15 * time.Millisecond)
		stub.set(func(j *models.ImportJob) { j.ProcessedRows = 5 })
		time.Sleep(15 * time.Millisecond)
		stub.set(func(j *models.ImportJob) {
			j.ProcessedRows = 10
			j.ImportedCount = 9
			j.ErrorCount = 1
			j.Status = types.StatusCompleted
		})
	}()

	got := collect(t, events, 2*time.Second)
	require.GreaterOrEqual(t, len(got), 3)

	last := got[len(got)-1]
	assert.Equal(t, EventComplete, last.Type)
	assert.Equal(t, types.StatusCompleted, last.Status)
	assert.Equal(t, 10, last.ProcessedRows)
	assert.Equal(t, 9, last.ImportedCount)
	assert.Equal(t, 1, last.ErrorCount)
	assert.Equal(t, float64(100), last.Percent)

	assert.Equal(t, EventProgress, got[0].Type)
	for _, e := range got[:len(got)-1] {
		assert.Equal(t, EventProgress, e.Type)
	}
}

func TestPercentDone(t *testing.T) {
	tests := []struct {
		name      string
		processed int
		total     int
		want      float64
	}{
		{"zero total", 5, 0, 0},
		{"half done", 150, 300, 50},
		{"rounds to two places", 1, 3, 33.33},
		{"complete", 10, 10, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, percentDone(tt.processed, tt.total))
		})
	}
}

func TestSnapshotCarriesPercent(t *testing.T) {
	job := &models.ImportJob{
		ID:            uuid.New(),
		Status:        types.StatusProcessing,
		TotalRows:     200,
		ProcessedRows: 50,
	}
	e := snapshot(EventProgress, job)
	assert.Equal(t, float64(25), e.Percent)
}

func TestWatchSkipsUnchangedPolls(t *testing.T) {
	stub := &jobReaderStub{job: models.ImportJob{
		ID:       uuid.New(),
		TenantID: uuid.New(),
		Status:   types.StatusProcessing,
	}}
	w := NewWatcher(stub, 2*time.Millisecond, time.Second, testLogger())

	events := w.Watch(context.Background(), stub.job.TenantID, stub.job.ID)
	go func() {
		time.Sleep(50 * time.Millisecond)
		stub.set(func(j *models.ImportJob) { j.Status = types.StatusCompleted })
	}()

	got := collect(t, events, 2*time.Second)
	// One initial snapshot, one on the status change, one terminal event.
	assert.Len(t, got, 3)
}

func TestWatchTimesOut(t *testing.T) {
	stub := &jobReaderStub{job: models.ImportJob{
		ID:       uuid.New(),
		TenantID: uuid.New(),
		Status:   types.StatusProcessing,
	}}
	w := NewWatcher(stub, 5*time.Millisecond, 30*time.Millisecond, testLogger())

	got := collect(t, w.Watch(context.Background(), stub.job.TenantID, stub.job.ID), 2*time.Second)
	require.NotEmpty(t, got)
	assert.Equal(t, EventTimeout, got[len(got)-1].Type)
}

func TestWatchEmitsErrorOnLookupFailure(t *testing.T) {
	stub := &jobReaderStub{err: errors.New("connection refused")}
	w := NewWatcher(stub, 5*time.Millisecond, time.Second, testLogger())

	got := collect(t, w.Watch(context.Background(), uuid.New(), uuid.New()), 2*time.Second)
	require.Len(t, got, 1)
	assert.Equal(t, EventError, got[0].Type)
	assert.Contains(t, got[0].Message, "connection refused")
}

func TestWatchStopsOnContextCancel(t *testing.T) {
	stub := &jobReaderStub{job: models.ImportJob{
		ID:       uuid.New(),
		TenantID: uuid.New(),
		Status:   types.StatusProcessing,
	}}
	w := NewWatcher(stub, 5*time.Millisecond, time.Minute, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	events := w.Watch(ctx, stub.job.TenantID, stub.job.ID)
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	for range events {
	}
	// Channel closed without a terminal event; nothing else to assert.
}
