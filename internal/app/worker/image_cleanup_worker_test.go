package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant_menu/internal/platform/logging"
)

type chanQueue struct {
	tasks chan CleanupTask
}

func newChanQueue() *chanQueue {
	return &chanQueue{tasks: make(chan CleanupTask, 16)}
}

func (q *chanQueue) Push(_ context.Context, task CleanupTask) error {
	q.tasks <- task
	return nil
}

func (q *chanQueue) Pop(ctx context.Context) (CleanupTask, bool, error) {
	select {
	case <-ctx.Done():
		return CleanupTask{}, false, ctx.Err()
	case task := <-q.tasks:
		return task, true, nil
	case <-time.After(10 * time.Millisecond):
		return CleanupTask{}, false, nil
	}
}

type flakyStore struct {
	mu       sync.Mutex
	failures int
	deleted  []string
	calls    int
}

func (s *flakyStore) Upload(context.Context, string, string, []byte) (string, error) {
	return "", errors.New("not used")
}

func (s *flakyStore) Delete(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failures > 0 {
		s.failures--
		return errors.New("storage unavailable")
	}
	s.deleted = append(s.deleted, url)
	return nil
}

func (s *flakyStore) snapshot() (int, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls, append([]string(nil), s.deleted...)
}

func TestImageCleanupWorker_DeletesQueuedImages(t *testing.T) {
	q := newChanQueue()
	store := &flakyStore{}
	w := newImageCleanupWorker(q, store, logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	require.NoError(t, q.Push(ctx, CleanupTask{URL: "https://cdn.example.com/products/a.png"}))
	require.NoError(t, q.Push(ctx, CleanupTask{URL: "https://cdn.example.com/products/b.png"}))

	require.Eventually(t, func() bool {
		_, deleted := store.snapshot()
		return len(deleted) == 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancellation")
	}
}

func TestImageCleanupWorker_RetriesThenGivesUp(t *testing.T) {
	q := newChanQueue()
	store := &flakyStore{failures: 10}
	w := newImageCleanupWorker(q, store, logging.Discard())
	w.retryDelay = time.Millisecond
	ctx := context.Background()

	w.process(ctx, CleanupTask{URL: "https://cdn.example.com/x.png"})
	requeued := <-q.tasks
	assert.Equal(t, 1, requeued.Attempts)

	w.process(ctx, requeued)
	requeued = <-q.tasks
	assert.Equal(t, 2, requeued.Attempts)

	w.process(ctx, requeued)
	assert.Empty(t, q.tasks)
	calls, deleted := store.snapshot()
	assert.Equal(t, maxCleanupAttempts, calls)
	assert.Empty(t, deleted)
}

func TestImageCleanupWorker_RecoversAfterTransientFailure(t *testing.T) {
	q := newChanQueue()
	store := &flakyStore{failures: 1}
	w := newImageCleanupWorker(q, store, logging.Discard())
	w.retryDelay = time.Millisecond
	ctx := context.Background()

	w.process(ctx, CleanupTask{URL: "https://cdn.example.com/y.png"})
	w.process(ctx, <-q.tasks)

	_, deleted := store.snapshot()
	assert.Equal(t, []string{"https://cdn.example.com/y.png"}, deleted)
}

func TestImageCleanupWorker_DelaysRetries(t *testing.T) {
	q := newChanQueue()
	store := &flakyStore{failures: 1}
	w := newImageCleanupWorker(q, store, logging.Discard())
	w.retryDelay = 50 * time.Millisecond
	ctx := context.Background()

	start := time.Now()
	w.process(ctx, CleanupTask{URL: "https://cdn.example.com/z.png"})
	requeued := <-q.tasks
	assert.False(t, requeued.NotBefore.Before(start.Add(w.retryDelay)))

	w.process(ctx, requeued)
	assert.False(t, time.Now().Before(requeued.NotBefore))
	calls, deleted := store.snapshot()
	assert.Equal(t, 2, calls)
	assert.Equal(t, []string{"https://cdn.example.com/z.png"}, deleted)
}

func TestImageCleanupWorker_ReturnsPendingTaskOnShutdown(t *testing.T) {
	q := newChanQueue()
	store := &flakyStore{}
	w := newImageCleanupWorker(q, store, logging.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	task := CleanupTask{URL: "https://cdn.example.com/later.png", Attempts: 1, NotBefore: time.Now().Add(time.Hour)}
	w.process(ctx, task)

	require.Len(t, q.tasks, 1)
	assert.Equal(t, task.URL, (<-q.tasks).URL)
	calls, _ := store.snapshot()
	assert.Zero(t, calls)
}
