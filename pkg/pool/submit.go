package pool

import (
	"time"

	tperrors "github.com/taskpool-go/taskpool/pkg/common/errors"
)

// Submit admits a task for execution, blocking up to SubmitWait when the
// queue is at capacity.
//
// If the wait ends because space was freed, the task is admitted within
// the bound. If the wait times out, the task is admitted anyway: the
// capacity bound is a backpressure hint, and forcing admission keeps
// Submit's latency bounded under sustained overload instead of
// deadlocking submitters. Callers that need a hard bound should use
// TrySubmit and own the retry or drop decision.
//
// Shutdown beginning during the wait does not reject the task; the stop
// flag is checked once at entry. A task admitted in that window is
// picked up or abandoned by the teardown already in progress.
func (p *workerPool) Submit(task Task) (*Future, error) {
	if task == nil {
		return nil, tperrors.ErrNilTask
	}

	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil, tperrors.ErrPoolStopped
	}

	forced := false
	if p.queue.len() >= p.cfg.QueueSize {
		forced = !p.waitForSpace()
	}

	f := newFuture()
	p.queue.pushBack(boundTask{task: task, future: f})
	p.submitted.Add(1)
	if forced {
		p.forced.Add(1)
	}
	p.mu.Unlock()

	p.hasWork.Signal()

	if forced {
		if l := p.cfg.Logger; l != nil {
			l.Warn("queue full past submit wait, task admitted over capacity", "capacity", p.cfg.QueueSize)
		}
	}
	return f, nil
}

// TrySubmit admits a task only if the pool is running and the queue has
// room. It returns false otherwise, without waiting.
func (p *workerPool) TrySubmit(task Task) (*Future, bool) {
	if task == nil {
		return nil, false
	}

	p.mu.Lock()
	if p.stopped || p.queue.len() >= p.cfg.QueueSize {
		p.mu.Unlock()
		return nil, false
	}

	f := newFuture()
	p.queue.pushBack(boundTask{task: task, future: f})
	p.submitted.Add(1)
	p.mu.Unlock()

	p.hasWork.Signal()
	return f, true
}

// waitForSpace blocks until the queue drops below capacity or shutdown
// begins, bounded by SubmitWait. It returns false if the bound elapsed
// with the queue still full. Called with p.mu held; the mutex is held
// again on return.
func (p *workerPool) waitForSpace() bool {
	deadline := time.Now().Add(p.cfg.SubmitWait)

	// sync.Cond has no timed wait; the timer re-broadcasts so the loop
	// can observe the deadline. Taking the lock in the callback orders it
	// after this goroutine has released it inside Wait.
	timer := time.AfterFunc(p.cfg.SubmitWait, func() {
		p.mu.Lock()
		p.notFull.Broadcast()
		p.mu.Unlock()
	})
	defer timer.Stop()

	for !p.stopped && p.queue.len() >= p.cfg.QueueSize {
		if !time.Now().Before(deadline) {
			return false
		}
		p.notFull.Wait()
	}
	return true
}
