package bridge

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Executor runs submitted work. Submit must not block on the work itself.
type Executor interface {
	Submit(fn func())
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(fn func())

// Submit implements Executor.
func (f ExecutorFunc) Submit(fn func()) { f(fn) }

var (
	// Inline runs work on the submitting goroutine. OptimizeSync uses it.
	Inline Executor = ExecutorFunc(func(fn func()) { fn() })

	// Goroutine starts one goroutine per task.
	Goroutine Executor = ExecutorFunc(func(fn func()) { go fn() })
)

// Pool runs at most a fixed number of tasks at once. Submissions past the
// limit queue until a slot frees up.
type Pool struct {
	sem *semaphore.Weighted
	wg  sync.WaitGroup
}

// NewPool returns a pool running up to workers tasks concurrently.
// workers below 1 is treated as 1.
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(workers))}
}

// Submit implements Executor.
func (p *Pool) Submit(fn func()) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		// Acquire only fails on a cancelled context.
		_ = p.sem.Acquire(context.Background(), 1)
		defer p.sem.Release(1)
		fn()
	}()
}

// Close waits for every submitted task to finish.
func (p *Pool) Close() {
	p.wg.Wait()
}
