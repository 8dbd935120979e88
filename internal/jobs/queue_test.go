package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShreedharDynamicCraft/financeautomation/constants"
	"github.com/ShreedharDynamicCraft/financeautomation/internal/extract"
)

func TestQueueProcessesTasks(t *testing.T) {
	f := newFixture(t,
		&stubExtractor{res: extract.Result{Text: "text"}},
		&stubStructurer{sections: goodSections},
		&stubRenderer{data: []byte("x")},
	)
	q := NewQueue(f.runner, nil, WithWorkers(2), WithQueueSize(4), WithJobTimeout(time.Minute))
	defer q.Shutdown(context.Background())

	job := f.submit(t, "task-q")
	require.NoError(t, q.Enqueue(context.Background(), Task{ID: job.ID}))

	require.Eventually(t, func() bool {
		got, err := f.registry.Get(job.ID)
		return err == nil && got.Status == constants.JobStatusCompleted
	}, 5*time.Second, 10*time.Millisecond)
}

func TestQueueConcurrentEnqueueUnderBackpressure(t *testing.T) {
	release := make(chan struct{})
	f := newFixture(t,
		&stubExtractor{
			res:  extract.Result{Text: "text"},
			hook: func(context.Context) { <-release },
		},
		&stubStructurer{sections: goodSections},
		&stubRenderer{data: []byte("x")},
	)
	q := NewQueue(f.runner, nil, WithWorkers(1), WithQueueSize(1), WithJobTimeout(time.Minute))
	defer q.Shutdown(context.Background())

	// One task occupies the worker, one fills the buffer.
	ids := []string{"task-bp1", "task-bp2", "task-bp3", "task-bp4"}
	for _, id := range ids[:2] {
		job := f.submit(t, id)
		require.NoError(t, q.Enqueue(context.Background(), Task{ID: job.ID}))
	}
	for _, id := range ids[2:] {
		f.submit(t, id)
	}

	// Two more submitters block on the full buffer; neither may wedge the
	// other on the queue's lock.
	done := make(chan error, 2)
	for _, id := range ids[2:] {
		go func(id string) { done <- q.Enqueue(context.Background(), Task{ID: id}) }(id)
	}

	close(release)
	for range ids[2:] {
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("blocked enqueue never completed")
		}
	}

	require.Eventually(t, func() bool {
		for _, id := range ids {
			got, err := f.registry.Get(id)
			if err != nil || got.Status != constants.JobStatusCompleted {
				return false
			}
		}
		return true
	}, 5*time.Second, 10*time.Millisecond)
}

func TestQueueRejectsAfterShutdown(t *testing.T) {
	f := newFixture(t,
		&stubExtractor{res: extract.Result{Text: "text"}},
		&stubStructurer{sections: goodSections},
		&stubRenderer{data: []byte("x")},
	)
	q := NewQueue(f.runner, nil, WithWorkers(1))
	q.Shutdown(context.Background())

	err := q.Enqueue(context.Background(), Task{ID: "late"})
	assert.ErrorIs(t, err, ErrQueueClosed)

	// Shutdown twice is safe.
	q.Shutdown(context.Background())
}
