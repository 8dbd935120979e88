package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ShreedharDynamicCraft/financeautomation/constants"
	"github.com/ShreedharDynamicCraft/financeautomation/internal/common"
)

// Registry is the shared, process-local store of job records. It is the only
// object touched by both the HTTP layer and the pipeline workers, so every
// access goes through its lock. Terminal records never change again.
type Registry struct {
	mu      sync.RWMutex
	jobs    map[string]*Job
	order   []string
	cancels map[string]context.CancelFunc

	logger        *slog.Logger
	ttl           time.Duration
	sweepInterval time.Duration

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

type RegistryOption func(*Registry)

// WithTTL evicts terminal records this long after completion. Zero keeps
// records for the life of the process.
func WithTTL(d time.Duration) RegistryOption {
	return func(r *Registry) {
		if d > 0 {
			r.ttl = d
		}
	}
}

func WithSweepInterval(d time.Duration) RegistryOption {
	return func(r *Registry) {
		if d > 0 {
			r.sweepInterval = d
		}
	}
}

func NewRegistry(logger *slog.Logger, opts ...RegistryOption) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		jobs:          make(map[string]*Job),
		cancels:       make(map[string]context.CancelFunc),
		logger:        logger,
		sweepInterval: time.Minute,
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	for _, o := range opts {
		o(r)
	}
	if r.ttl > 0 {
		go r.sweepLoop()
	} else {
		close(r.done)
	}
	return r
}

// Create registers a new record. The stored copy is owned by the registry.
func (r *Registry) Create(job Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[job.ID]; ok {
		return fmt.Errorf("job %s: %w", job.ID, ErrJobExists)
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	stored := job
	r.jobs[job.ID] = &stored
	r.order = append(r.order, job.ID)
	return nil
}

// Get returns a copy of the record.
func (r *Registry) Get(id string) (Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.jobs[id]
	if !ok {
		return Job{}, fmt.Errorf("job %s: %w", id, common.ErrNotFound)
	}
	return *j, nil
}

// Update applies fn to the record under the write lock. It refuses to touch a
// record already in a terminal state so that completed, failed, and cancelled
// results stay frozen.
func (r *Registry) Update(id string, fn func(*Job)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return fmt.Errorf("job %s: %w", id, common.ErrNotFound)
	}
	if j.Status.Terminal() {
		return fmt.Errorf("job %s: %w", id, ErrJobFinished)
	}
	fn(j)
	return nil
}

// List returns copies of all records in insertion order.
func (r *Registry) List() []Job {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Job, 0, len(r.order))
	for _, id := range r.order {
		if j, ok := r.jobs[id]; ok {
			out = append(out, *j)
		}
	}
	return out
}

// Len returns the number of tracked records.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}

// Cancel marks the record cancelled and interrupts a running pipeline at its
// next stage boundary by cancelling the job context. Terminal records are
// left untouched.
func (r *Registry) Cancel(id string) error {
	r.mu.Lock()
	j, ok := r.jobs[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("job %s: %w", id, common.ErrNotFound)
	}
	if j.Status.Terminal() {
		r.mu.Unlock()
		return fmt.Errorf("job %s: %w", id, ErrJobFinished)
	}
	now := time.Now().UTC()
	j.Status = constants.JobStatusCancelled
	j.CompletedAt = &now
	cancel := r.cancels[id]
	delete(r.cancels, id)
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	r.logger.Info("job cancelled", "task_id", id)
	return nil
}

// bindCancel associates a running job with its context cancel func.
func (r *Registry) bindCancel(id string, cancel context.CancelFunc) {
	r.mu.Lock()
	r.cancels[id] = cancel
	r.mu.Unlock()
}

// clearCancel drops the association once a runner returns.
func (r *Registry) clearCancel(id string) {
	r.mu.Lock()
	delete(r.cancels, id)
	r.mu.Unlock()
}

// Close stops the TTL sweeper, if one is running.
func (r *Registry) Close() {
	r.stopOnce.Do(func() { close(r.stop) })
	<-r.done
}

func (r *Registry) sweepLoop() {
	defer close(r.done)
	ticker := time.NewTicker(r.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			if n := r.sweep(time.Now().UTC()); n > 0 {
				r.logger.Info("evicted expired jobs", "count", n)
			}
		}
	}
}

// sweep removes terminal records whose completion is older than the TTL.
func (r *Registry) sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	kept := r.order[:0]
	for _, id := range r.order {
		j := r.jobs[id]
		if j != nil && j.Status.Terminal() && j.CompletedAt != nil && now.Sub(*j.CompletedAt) > r.ttl {
			delete(r.jobs, id)
			delete(r.cancels, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	r.order = kept
	return removed
}
