package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"restaurant_menu/internal/platform/logging"
	"restaurant_menu/internal/platform/storage"
)

const (
	DefaultCleanupQueue = "image_cleanup_queue"
	maxCleanupAttempts  = 3
	popTimeout          = 5 * time.Second
)

// CleanupTask is one queued image removal. A retried task is not attempted
// again before NotBefore.
type CleanupTask struct {
	URL       string    `json:"url"`
	Attempts  int       `json:"attempts"`
	NotBefore time.Time `json:"not_before,omitzero"`
}

type cleanupQueue interface {
	Push(ctx context.Context, task CleanupTask) error
	// Pop blocks until a task arrives; ok is false when nothing arrived in time.
	Pop(ctx context.Context) (task CleanupTask, ok bool, err error)
}

// RedisCleanupQueue is a Redis list of CleanupTasks consumed with BRPOP.
type RedisCleanupQueue struct {
	rdb     *redis.Client
	key     string
	timeout time.Duration
}

func NewRedisCleanupQueue(rdb *redis.Client, key string) *RedisCleanupQueue {
	if key == "" {
		key = DefaultCleanupQueue
	}
	return &RedisCleanupQueue{rdb: rdb, key: key, timeout: popTimeout}
}

// Schedule queues url for removal. Inline images have nothing to remove.
func (q *RedisCleanupQueue) Schedule(ctx context.Context, url string) error {
	if storage.IsDataURL(url) {
		return nil
	}
	return q.Push(ctx, CleanupTask{URL: url})
}

func (q *RedisCleanupQueue) Push(ctx context.Context, task CleanupTask) error {
	raw, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("encode cleanup task: %w", err)
	}
	if err := q.rdb.LPush(ctx, q.key, raw).Err(); err != nil {
		return fmt.Errorf("queue cleanup of %s: %w", task.URL, err)
	}
	return nil
}

func (q *RedisCleanupQueue) Pop(ctx context.Context) (CleanupTask, bool, error) {
	// BRPop returns [key, value].
	res, err := q.rdb.BRPop(ctx, q.timeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return CleanupTask{}, false, nil
		}
		return CleanupTask{}, false, err
	}
	if len(res) < 2 {
		return CleanupTask{}, false, nil
	}
	var task CleanupTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		return CleanupTask{}, false, fmt.Errorf("decode cleanup task %q: %w", res[1], err)
	}
	return task, true, nil
}

// ImageCleanupWorker drains the cleanup queue, deleting each image from the store.
// Failed deletions are re-queued with a growing delay until maxCleanupAttempts,
// then dropped.
type ImageCleanupWorker struct {
	queue      cleanupQueue
	store      storage.ImageStore
	logger     logging.Logger
	retryDelay time.Duration
	now        func() time.Time
}

func NewImageCleanupWorker(queue *RedisCleanupQueue, store storage.ImageStore, logger logging.Logger) *ImageCleanupWorker {
	return newImageCleanupWorker(queue, store, logger)
}

func newImageCleanupWorker(queue cleanupQueue, store storage.ImageStore, logger logging.Logger) *ImageCleanupWorker {
	return &ImageCleanupWorker{
		queue:      queue,
		store:      store,
		logger:     logger,
		retryDelay: 5 * time.Second,
		now:        time.Now,
	}
}

// Start blocks until ctx is cancelled.
func (w *ImageCleanupWorker) Start(ctx context.Context) {
	w.logger.Info(ctx, "image cleanup worker started")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info(context.Background(), "image cleanup worker stopping")
			return
		default:
		}

		task, ok, err := w.queue.Pop(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			w.logger.Error(ctx, "failed to pop cleanup task", "error", err)
			w.sleep(ctx)
			continue
		}
		if !ok {
			continue
		}
		w.process(ctx, task)
	}
}

func (w *ImageCleanupWorker) process(ctx context.Context, task CleanupTask) {
	if d := task.NotBefore.Sub(w.now()); d > 0 && !w.wait(ctx, d) {
		// Shutting down before the task is due; keep it for the next run.
		if err := w.queue.Push(context.WithoutCancel(ctx), task); err != nil {
			w.logger.Error(context.Background(), "failed to return cleanup task to queue", "url", task.URL, "error", err)
		}
		return
	}

	err := w.store.Delete(ctx, task.URL)
	if err == nil {
		w.logger.Info(ctx, "image removed", "url", task.URL)
		return
	}

	task.Attempts++
	if task.Attempts >= maxCleanupAttempts {
		w.logger.Error(ctx, "giving up on image cleanup", "url", task.URL, "attempts", task.Attempts, "error", err)
		return
	}
	task.NotBefore = w.now().Add(time.Duration(task.Attempts) * w.retryDelay)
	w.logger.Warn(ctx, "image cleanup failed, re-queueing", "url", task.URL, "attempts", task.Attempts, "retry_at", task.NotBefore, "error", err)
	if err := w.queue.Push(ctx, task); err != nil {
		w.logger.Error(ctx, "failed to re-queue cleanup task", "url", task.URL, "error", err)
	}
}

func (w *ImageCleanupWorker) sleep(ctx context.Context) {
	w.wait(ctx, w.retryDelay)
}

// wait reports false if ctx ended first.
func (w *ImageCleanupWorker) wait(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
