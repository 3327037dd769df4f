package renderer

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ChunkTask renders one chunk. It owns everything it allocates until it returns.
type ChunkTask struct {
	Chunk  Chunk
	Render func(ctx context.Context, chunk Chunk) (ChunkResult, error)
}

// WorkerPool runs chunk tasks on a bounded number of goroutines and collects
// their results into a shared buffer.
type WorkerPool struct {
	group      *errgroup.Group
	ctx        context.Context
	numWorkers int
	onComplete func(result ChunkResult, completed, rowsCompleted int)

	mu            sync.Mutex // Guards results and rowsCompleted; held only while merging a finished chunk
	results       []ChunkResult
	rowsCompleted int
}

// NewWorkerPool creates a worker pool with the specified number of workers.
// The pool's context is cancelled as soon as any task fails.
func NewWorkerPool(ctx context.Context, numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(numWorkers)

	return &WorkerPool{
		group:      group,
		ctx:        groupCtx,
		numWorkers: numWorkers,
	}
}

// OnComplete registers a callback invoked from the worker goroutine after each chunk is merged.
// completed and rowsCompleted count everything merged so far, including this chunk.
// The callback may run concurrently on several workers.
func (wp *WorkerPool) OnComplete(fn func(result ChunkResult, completed, rowsCompleted int)) {
	wp.onComplete = fn
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}

// Submit schedules a task, blocking while all workers are busy
func (wp *WorkerPool) Submit(task ChunkTask) {
	wp.group.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%s panicked: %v", task.Chunk, r)
			}
		}()

		if err := wp.ctx.Err(); err != nil {
			return err
		}

		result, err := task.Render(wp.ctx, task.Chunk)
		if err != nil {
			return fmt.Errorf("%s: %w", task.Chunk, err)
		}

		wp.mu.Lock()
		wp.results = append(wp.results, result)
		wp.rowsCompleted += result.Chunk.Rows()
		completed, rowsCompleted := len(wp.results), wp.rowsCompleted
		wp.mu.Unlock()

		if wp.onComplete != nil {
			wp.onComplete(result, completed, rowsCompleted)
		}
		return nil
	})
}

// Wait blocks until every submitted task has finished. It returns the results
// sorted from the top of the image down, or the first task error.
func (wp *WorkerPool) Wait() ([]ChunkResult, error) {
	if err := wp.group.Wait(); err != nil {
		return nil, err
	}

	wp.mu.Lock()
	defer wp.mu.Unlock()

	results := wp.results
	sort.Slice(results, func(i, j int) bool {
		return results[i].Chunk.StartRow > results[j].Chunk.StartRow
	})
	return results, nil
}
