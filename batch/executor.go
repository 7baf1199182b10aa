// Package batch runs keyed collaborator requests with bounded fan-out. One
// task failing (or panicking) only fails its own key; sibling tasks always
// complete. The whole batch errors only when the context dies.
package batch

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Task is one keyed unit of work. Keys are caller-assigned correlation keys;
// duplicate keys run once.
type Task[T any] struct {
	Key string
	Run func(ctx context.Context) (T, error)
}

// Result carries either a value or that task's failure.
type Result[T any] struct {
	Value T
	Err   error
}

// OK reports whether the task produced a value.
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Execute runs all tasks with at most workers in flight and returns the
// per-key results. Response order is not meaningful; correlation is strictly
// by key.
func Execute[T any](ctx context.Context, workers int, tasks []Task[T]) (map[string]Result[T], error) {
	if workers <= 0 {
		workers = 1
	}

	results := make(map[string]Result[T], len(tasks))
	var mu sync.Mutex

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)

	seen := make(map[string]bool, len(tasks))
	for _, task := range tasks {
		if task.Run == nil || task.Key == "" || seen[task.Key] {
			continue
		}
		seen[task.Key] = true

		task := task
		group.Go(func() error {
			res := runOne(groupCtx, task)
			mu.Lock()
			results[task.Key] = res
			mu.Unlock()
			return nil
		})
	}

	_ = group.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("batch aborted: %w", err)
	}
	return results, nil
}

func runOne[T any](ctx context.Context, task Task[T]) (res Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			res = Result[T]{Err: fmt.Errorf("task %s panicked: %v", task.Key, r)}
		}
	}()

	if err := ctx.Err(); err != nil {
		return Result[T]{Err: err}
	}

	value, err := task.Run(ctx)
	if err != nil {
		return Result[T]{Err: err}
	}
	return Result[T]{Value: value}
}
