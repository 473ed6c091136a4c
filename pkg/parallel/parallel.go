// Package parallel provides the bounded fan-out used to process
// independent per-site work: results are collected by index so the
// outcome is deterministic regardless of completion order.
package parallel

import (
	"context"
	"fmt"
	"runtime"
	"sync"
)

// DefaultWorkers returns the worker count used when a caller passes 0.
func DefaultWorkers() int {
	return runtime.GOMAXPROCS(0)
}

// ForEach runs fn(i) for every i in [0, n) on a bounded pool of workers
// and returns one error slot per index. A panicking task is captured as
// that index's error without crashing its worker. Cancellation is honored
// only between tasks: once a task starts it runs to completion, so no
// partially searched result is ever produced.
func ForEach(ctx context.Context, n, workers int, fn func(i int) error) []error {
	errs := make([]error, n)
	if n == 0 {
		return errs
	}
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	if workers > n {
		workers = n
	}

	indices := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				if err := ctx.Err(); err != nil {
					errs[i] = err
					continue
				}
				errs[i] = runTask(fn, i)
			}
		}()
	}

	for i := 0; i < n; i++ {
		indices <- i
	}
	close(indices)
	wg.Wait()
	return errs
}

// runTask invokes fn(i), converting a panic into an error so one bad site
// does not take down the batch.
func runTask(fn func(int) error, i int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %d panicked: %v", i, r)
		}
	}()
	return fn(i)
}
