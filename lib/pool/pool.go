// Package pool runs an ordered list of tasks under a fixed
// concurrency ceiling, returning results indexed identically
// to the input regardless of completion order.
package pool

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"
)

type Task[T any] func(ctx context.Context) (T, error)

type Result[T any] struct {
	Value T
	Err   error
}

// Run executes every task with at most `limit` in flight at once.
// It returns exactly len(tasks) results, results[i] belonging to
// tasks[i]. Every task settles: a task either runs to completion
// (success or error) or, if ctx is cancelled before it was
// dispatched, settles with the cancellation error. Tasks already
// in flight when ctx is cancelled are left to finish normally.
func Run[T any](ctx context.Context, limit int, tasks []Task[T]) []Result[T] {
	if limit < 1 {
		limit = 1
	}

	results := make([]Result[T], len(tasks))
	sem := semaphore.NewWeighted(int64(limit))
	wg := sync.WaitGroup{}

	// dispatched tasks must not be interrupted mid-flight, so they
	// run detached from the dispatch context's cancellation
	taskCtx := context.WithoutCancel(ctx)

	for i, task := range tasks {
		err := sem.Acquire(ctx, 1)
		if err != nil {
			slog.DebugContext(ctx, "pool cancelled, task not dispatched", "index", i)
			results[i] = Result[T]{Err: err}
			continue
		}

		wg.Add(1)
		go func(i int, task Task[T]) {
			defer wg.Done()
			defer sem.Release(1)

			value, err := task(taskCtx)
			results[i] = Result[T]{Value: value, Err: err}
		}(i, task)
	}

	wg.Wait()
	return results
}
