// Package dispatch runs session operations as cancellable background tasks.
//
// Tasks that name the same remote object are serialized with a row lock, so
// an upload and a delete of one name never overlap. Tasks with an empty key
// (listings) never wait.
package dispatch

import (
	"context"
	"sync"

	"github.com/fishy/rowlock"
)

// Task is a running operation producing a T
type Task[T any] struct {
	done   chan struct{}
	cancel context.CancelFunc

	value T
	err   error
}

// Done is closed once the task has finished
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task finishes or ctx ends. When ctx ends first the
// result is abandoned and ctx.Err() returned; the task itself keeps running
// until its own context is cancelled.
func (t *Task[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		return t.value, t.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Cancel cancels the task's context. The remote side may still complete.
func (t *Task[T]) Cancel() {
	t.cancel()
}

// Dispatcher starts tasks and tracks them until they finish
type Dispatcher struct {
	locks *rowlock.RowLock
	wg    sync.WaitGroup
}

// New creates a dispatcher
func New() *Dispatcher {
	return &Dispatcher{
		locks: rowlock.NewRowLock(rowlock.MutexNewLocker),
	}
}

// Start runs fn in the background. A non-empty key serializes fn against
// every other task started with the same key.
func Start[T any](ctx context.Context, d *Dispatcher, key string, fn func(context.Context) (T, error)) *Task[T] {
	ctx, cancel := context.WithCancel(ctx)
	task := &Task[T]{
		done:   make(chan struct{}),
		cancel: cancel,
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer close(task.done)
		defer cancel()

		if key != "" {
			d.locks.Lock(key)
			defer d.locks.Unlock(key)
		}

		if err := ctx.Err(); err != nil {
			task.err = err
			return
		}
		task.value, task.err = fn(ctx)
	}()

	return task
}

// Run starts fn and waits for it
func Run[T any](ctx context.Context, d *Dispatcher, key string, fn func(context.Context) (T, error)) (T, error) {
	return Start(ctx, d, key, fn).Wait(ctx)
}

// Wait blocks until every started task has finished
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
