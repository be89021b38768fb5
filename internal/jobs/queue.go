package jobs

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrQueueFull is returned by Submit when the queue buffer is saturated.
var ErrQueueFull = eris.New("jobs: queue full")

// Task is one unit of background work.
type Task func(ctx context.Context)

// Queue runs submitted tasks on a fixed pool of workers, bounding how many
// jobs can execute or wait at once.
type Queue struct {
	tasks   chan Task
	workers int

	startOnce sync.Once
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// NewQueue creates a queue with the given worker count and buffer size.
func NewQueue(workers, size int) *Queue {
	if workers <= 0 {
		workers = 4
	}
	if size <= 0 {
		size = 64
	}
	return &Queue{
		tasks:   make(chan Task, size),
		workers: workers,
	}
}

// Start launches the worker pool. Workers run until Stop is called or ctx is
// cancelled; a task already picked up runs to completion.
func (q *Queue) Start(ctx context.Context) {
	q.startOnce.Do(func() {
		zap.L().Info("job queue started", zap.Int("workers", q.workers))
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func() {
				defer q.wg.Done()
				for {
					select {
					case <-ctx.Done():
						return
					case task, ok := <-q.tasks:
						if !ok {
							return
						}
						task(ctx)
					}
				}
			}()
		}
	})
}

// Submit enqueues a task without blocking. ErrQueueFull signals the caller
// to shed load.
func (q *Queue) Submit(task Task) error {
	select {
	case q.tasks <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop closes the queue and waits for in-flight tasks to finish.
func (q *Queue) Stop() {
	q.stopOnce.Do(func() {
		close(q.tasks)
	})
	q.wg.Wait()
}
