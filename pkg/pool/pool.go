package pool

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/taskpool-go/taskpool/pkg/common/validation"
)

// Task represents a unit of work that can be executed by a worker.
type Task interface {
	// Execute runs the task with the given context and returns its value
	// or the error it failed with.
	Execute(ctx context.Context) (interface{}, error)
}

// TaskFunc is a function type that implements the Task interface.
type TaskFunc func(ctx context.Context) (interface{}, error)

// Execute implements the Task interface for TaskFunc.
func (f TaskFunc) Execute(ctx context.Context) (interface{}, error) {
	return f(ctx)
}

// Default configuration values.
const (
	// DefaultQueueSize is the queue capacity used when Config.QueueSize is zero.
	DefaultQueueSize = 10000

	// DefaultSubmitWait bounds how long a blocking submission waits for
	// queue space before admitting the task anyway.
	DefaultSubmitWait = 100 * time.Millisecond
)

// Pool represents a fixed-size worker pool that executes tasks concurrently
// and resolves a Future per task.
type Pool interface {
	// Submit admits a task, blocking up to the configured SubmitWait if
	// the queue is at capacity. If the wait times out the task is admitted
	// anyway; capacity is a backpressure hint, not a hard gate. Returns
	// ErrPoolStopped if shutdown has begun.
	Submit(task Task) (*Future, error)

	// TrySubmit admits a task only if the queue has room and the pool is
	// running. It never blocks beyond lock acquisition; rejection is a
	// normal false return, not an error.
	TrySubmit(task Task) (*Future, bool)

	// Wait blocks until the queue is empty and no task is in flight. It is
	// a snapshot check, not a barrier: tasks submitted concurrently may
	// make a subsequent call block again. Calling Wait from inside a task
	// running on the same pool can self-deadlock.
	Wait()

	// Shutdown stops admissions, lets the workers drain every queued task,
	// and blocks until all workers have exited.
	Shutdown()

	// Stop stops admissions, discards all queued tasks (their futures are
	// never resolved), lets in-flight tasks finish, and blocks until all
	// workers have exited.
	Stop()

	// Size returns the number of workers in the pool.
	Size() int

	// Cap returns the queue capacity bound.
	Cap() int

	// Stats returns a snapshot of the pool's counters.
	Stats() Stats
}

// Stats is a point-in-time snapshot of pool activity.
type Stats struct {
	// Queued is the number of tasks waiting in the queue.
	Queued int

	// Active is the number of tasks currently executing.
	Active int

	// Submitted is the total number of tasks admitted.
	Submitted int64

	// Completed is the total number of tasks that finished executing,
	// successfully or not.
	Completed int64

	// Failed is the total number of tasks that returned an error or panicked.
	Failed int64

	// Forced is the total number of blocking submissions admitted past
	// capacity after their wait timed out.
	Forced int64
}

// Config holds configuration options for creating a worker pool.
type Config struct {
	// WorkerCount is the number of workers in the pool. Must be positive.
	WorkerCount int

	// QueueSize is the queue capacity bound. Zero selects
	// DefaultQueueSize; negative values are invalid.
	QueueSize int

	// SubmitWait bounds how long Submit waits for queue space before
	// admitting the task anyway. Zero selects DefaultSubmitWait.
	SubmitWait time.Duration

	// Logger receives debug and warning records for worker lifecycle and
	// task failures. Nil disables logging.
	Logger *slog.Logger

	// PanicHandler is called when a task panics during execution. The
	// panic is still recorded as the task's failure; the handler is for
	// reporting only.
	PanicHandler func(task Task, recovered interface{})

	// OnTaskComplete is called after a task completes (success or failure).
	OnTaskComplete func(result Result)
}

// workerPool implements the Pool interface. All queue and shutdown state
// is guarded by mu; the three conditions share it. The activity counters
// are atomics so Stats can read them without the lock, but active is only
// written while holding mu so the quiescence predicate stays consistent.
type workerPool struct {
	cfg Config

	mu      sync.Mutex
	queue   taskRing
	stopped bool

	hasWork *sync.Cond // workers: task available or shutdown
	notFull *sync.Cond // blocking submitters: space freed or shutdown
	idle    *sync.Cond // quiescence waiters: queue empty and nothing active

	active    atomic.Int64
	submitted atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
	forced    atomic.Int64

	wg sync.WaitGroup
}

// New creates a worker pool with the given worker count and queue capacity.
// A queueSize of zero selects DefaultQueueSize. It panics on invalid
// arguments; use NewWithConfig to get an error instead.
func New(workerCount, queueSize int) Pool {
	p, err := NewWithConfig(Config{
		WorkerCount: workerCount,
		QueueSize:   queueSize,
	})
	if err != nil {
		panic(err)
	}
	return p
}

// NewWithConfig creates a worker pool with the specified configuration.
func NewWithConfig(cfg Config) (Pool, error) {
	if err := validation.ValidatePositive("pool", "workerCount", cfg.WorkerCount); err != nil {
		return nil, err
	}
	if cfg.QueueSize == 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if err := validation.ValidatePositive("pool", "queueSize", cfg.QueueSize); err != nil {
		return nil, err
	}
	if cfg.SubmitWait <= 0 {
		cfg.SubmitWait = DefaultSubmitWait
	}

	p := &workerPool{cfg: cfg}
	p.hasWork = sync.NewCond(&p.mu)
	p.notFull = sync.NewCond(&p.mu)
	p.idle = sync.NewCond(&p.mu)

	p.wg.Add(cfg.WorkerCount)
	for i := 0; i < cfg.WorkerCount; i++ {
		go p.worker(i)
	}
	return p, nil
}

// worker is the fetch-execute loop run by each of the pool's goroutines.
// It exits only when shutdown has begun and the queue is empty.
func (p *workerPool) worker(id int) {
	defer p.wg.Done()

	if l := p.cfg.Logger; l != nil {
		l.Debug("worker started", "worker_id", id)
	}

	for {
		p.mu.Lock()
		for !p.stopped && p.queue.len() == 0 {
			p.hasWork.Wait()
		}
		if p.stopped && p.queue.len() == 0 {
			p.mu.Unlock()
			if l := p.cfg.Logger; l != nil {
				l.Debug("worker exiting", "worker_id", id)
			}
			return
		}

		bt := p.queue.popFront()
		p.active.Add(1)
		p.mu.Unlock()

		// The dequeue freed a slot; wake one blocked submitter.
		p.notFull.Signal()

		p.runTask(id, bt)
		p.taskDone()
	}
}

// runTask executes a single task outside any lock and resolves its future.
// Errors and panics are routed to the future and never escape the loop.
func (p *workerPool) runTask(id int, bt boundTask) {
	start := time.Now()

	var (
		value interface{}
		err   error
	)
	func() {
		defer func() {
			if r := recover(); r != nil {
				if h := p.cfg.PanicHandler; h != nil {
					h(bt.task, r)
				}
				err = fmt.Errorf("task panicked: %v\nStack trace:\n%s", r, debug.Stack())
			}
		}()
		value, err = bt.task.Execute(context.Background())
	}()

	res := Result{Value: value, Err: err, Duration: time.Since(start)}
	bt.future.resolve(res)

	p.completed.Add(1)
	if err != nil {
		p.failed.Add(1)
		if l := p.cfg.Logger; l != nil {
			l.Warn("task failed", "worker_id", id, "error", err, "duration", res.Duration)
		}
	}
	if cb := p.cfg.OnTaskComplete; cb != nil {
		cb(res)
	}
}

// taskDone retires one in-flight task and signals quiescence when the
// queue is empty and nothing else is executing.
func (p *workerPool) taskDone() {
	p.mu.Lock()
	if p.active.Add(-1) == 0 && p.queue.len() == 0 {
		p.idle.Broadcast()
	}
	p.mu.Unlock()
}

// Wait blocks until the queue is empty and no task is in flight.
func (p *workerPool) Wait() {
	p.mu.Lock()
	for p.queue.len() > 0 || p.active.Load() > 0 {
		p.idle.Wait()
	}
	p.mu.Unlock()
}

// Shutdown stops admissions and drains every queued task before returning.
func (p *workerPool) Shutdown() {
	p.stop(false)
}

// Stop stops admissions and discards every queued task before returning.
func (p *workerPool) Stop() {
	p.stop(true)
}

// stop is idempotent; the discard flag clears the queue even if another
// stop already began, so Stop during a Shutdown drain abandons the rest.
func (p *workerPool) stop(discard bool) {
	p.mu.Lock()
	first := !p.stopped
	p.stopped = true
	if discard && p.queue.len() > 0 {
		n := p.queue.len()
		p.queue.reset()
		if l := p.cfg.Logger; l != nil {
			l.Debug("discarded queued tasks", "count", n)
		}
	}
	if first || discard {
		p.hasWork.Broadcast()
		p.notFull.Broadcast()
		if p.queue.len() == 0 && p.active.Load() == 0 {
			p.idle.Broadcast()
		}
	}
	p.mu.Unlock()

	p.wg.Wait()
}

// Size returns the number of workers in the pool.
func (p *workerPool) Size() int {
	return p.cfg.WorkerCount
}

// Cap returns the queue capacity bound.
func (p *workerPool) Cap() int {
	return p.cfg.QueueSize
}

// Stats returns a snapshot of the pool's counters.
func (p *workerPool) Stats() Stats {
	p.mu.Lock()
	queued := p.queue.len()
	p.mu.Unlock()

	return Stats{
		Queued:    queued,
		Active:    int(p.active.Load()),
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
		Forced:    p.forced.Load(),
	}
}
