// Package gate serializes printer exchanges. Callers are admitted one at a
// time in the order they arrived.
package gate

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Gate is a FIFO mutual exclusion lock whose Acquire honours context cancellation
type Gate struct {
	sem     *semaphore.Weighted
	waiting atomic.Int32
}

// New returns an unlocked gate
func New() *Gate {
	return &Gate{sem: semaphore.NewWeighted(1)}
}

// Acquire blocks until the gate is held by the caller or ctx is done. A
// caller whose ctx ends leaves the queue without affecting the others.
func (g *Gate) Acquire(ctx context.Context) error {
	if g.sem.TryAcquire(1) {
		return nil
	}

	g.waiting.Add(1)
	defer g.waiting.Add(-1)
	return g.sem.Acquire(ctx, 1)
}

// Release hands the gate to the oldest waiter, if any
func (g *Gate) Release() {
	g.sem.Release(1)
}

// Waiting returns the number of callers queued behind the holder
func (g *Gate) Waiting() int {
	return int(g.waiting.Load())
}

// Run executes fn while holding the gate. The gate is released when fn
// returns or panics; the panic is propagated.
func (g *Gate) Run(ctx context.Context, fn func() error) error {
	if err := g.Acquire(ctx); err != nil {
		return err
	}
	defer g.Release()
	return fn()
}

// Do is Run for functions that produce a value
func Do[T any](ctx context.Context, g *Gate, fn func() (T, error)) (T, error) {
	if err := g.Acquire(ctx); err != nil {
		var zero T
		return zero, err
	}
	defer g.Release()
	return fn()
}
