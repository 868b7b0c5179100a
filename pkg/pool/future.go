package pool

import (
	"context"
	"time"
)

// Result represents the outcome of executing a task.
type Result struct {
	// Value contains the successful result value (nil if an error occurred)
	Value interface{}

	// Err contains any error that occurred during execution, including
	// recovered panics (nil if successful)
	Err error

	// Duration is how long the task took to execute
	Duration time.Duration
}

// Future is the handle through which a task's eventual outcome is observed.
//
// A future is resolved exactly once, when the task finishes executing. The
// future of a task discarded by Stop before it was dequeued is never
// resolved; callers holding such a handle should treat it as a definite
// non-completion.
type Future struct {
	done   chan struct{}
	result Result
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// resolve records the result and releases all observers. Called exactly
// once, by the worker that executed the task.
func (f *Future) resolve(r Result) {
	f.result = r
	close(f.done)
}

// Done returns a channel that is closed when the task has finished.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the task has finished or the context is canceled.
// It returns the task's value and error once resolved, or the context's
// error if the context ends first.
func (f *Future) Wait(ctx context.Context) (interface{}, error) {
	select {
	case <-f.done:
		return f.result.Value, f.result.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Poll returns the result and true if the task has finished, or a zero
// Result and false if it is still pending. It never blocks.
func (f *Future) Poll() (Result, bool) {
	select {
	case <-f.done:
		return f.result, true
	default:
		return Result{}, false
	}
}
