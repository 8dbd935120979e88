package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrQueueClosed is returned by Enqueue after Shutdown has begun.
var ErrQueueClosed = errors.New("queue is shut down")

// Task is one unit of queued work.
type Task struct {
	ID          string
	SubmittedAt time.Time
}

// Queue dispatches submitted jobs to a fixed pool of pipeline workers over a
// bounded channel, so upload requests return immediately while concurrency
// stays capped.
type Queue struct {
	runner  *Runner
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Task
	wg   sync.WaitGroup
	once sync.Once

	// mu guards closed and fences Shutdown's close(ch) against in-flight
	// sends: Enqueue holds the read side for the whole send, so a blocked
	// upload never stalls other uploads, only the channel close.
	mu     sync.RWMutex
	closed bool
}

type QueueOption func(*Queue)

func WithWorkers(n int) QueueOption {
	return func(q *Queue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) QueueOption {
	return func(q *Queue) {
		if n > 0 {
			q.ch = make(chan Task, n)
		}
	}
}

func WithJobTimeout(d time.Duration) QueueOption {
	return func(q *Queue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewQueue(runner *Runner, logger *slog.Logger, opts ...QueueOption) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &Queue{
		runner:  runner,
		logger:  logger,
		workers: 4,
		timeout: 5 * time.Minute,
		ch:      make(chan Task, 64),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *Queue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker started", "worker_id", workerID)

				for task := range q.ch {
					ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
					err := q.runner.Process(ctx, task.ID)
					cancel()

					if err != nil {
						q.logger.Error("processing failed", "worker_id", workerID, "task_id", task.ID, "error", err)
					} else {
						q.logger.Info("task finished", "worker_id", workerID, "task_id", task.ID,
							"queued_ms", time.Since(task.SubmittedAt).Milliseconds())
					}
				}

				q.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

// Enqueue hands a task to the pool. When the buffer is full it blocks,
// applying backpressure to the submitting request.
func (q *Queue) Enqueue(_ context.Context, task Task) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "task_id", task.ID)
		return ErrQueueClosed
	}
	if task.SubmittedAt.IsZero() {
		task.SubmittedAt = time.Now()
	}
	select {
	case q.ch <- task:
		q.logger.Info("queued task for processing", "task_id", task.ID)
	default:
		q.logger.Warn("queue full, applying backpressure", "task_id", task.ID)
		q.ch <- task
	}
	return nil
}

// Shutdown stops intake and waits for in-flight work, bounded by ctx.
func (q *Queue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
