/*
Package pool provides a fixed-size worker pool that executes submitted
tasks asynchronously and resolves a Future per task.

A pool owns a fixed set of worker goroutines and a bounded FIFO queue.
Tasks are dequeued in submission order; completion order across workers
is unconstrained.

Basic usage:

	p := pool.New(4, 100) // 4 workers, queue capacity 100
	defer p.Shutdown()

	f, err := p.Submit(pool.TaskFunc(func(ctx context.Context) (interface{}, error) {
		return fetch(url)
	}))
	if err != nil {
		log.Printf("submit: %v", err)
		return
	}

	value, err := f.Wait(context.Background())

Admission:

Two submission modes cover the two backpressure strategies. Submit blocks
for a bounded interval when the queue is full and then admits the task
regardless, so its latency is bounded and submitters never deadlock; the
queue capacity is a soft bound under that mode. TrySubmit never waits and
returns false for a full queue or a stopped pool, leaving the retry or
drop decision to the caller; it is the mechanism for hard backpressure.

Quiescence:

Wait blocks until the queue is empty and no task is executing. A task
that has been dequeued but not yet finished still counts as in flight, so
Wait cannot return while work is running on any worker. Multiple callers
may wait concurrently; all are released together.

Shutdown:

Shutdown stops admissions and drains the queue; Stop stops admissions and
discards it. In both cases in-flight tasks run to completion and the call
blocks until every worker has exited. The futures of discarded tasks are
never resolved.

Failures:

A task's error or panic is captured into its own future and has no effect
on other tasks or on the pool. Workers never die with a task.

Instrumentation:

NewWithMetrics and NewWithConfigAndMetrics wrap a pool with Prometheus
collectors for submissions, completions, failures, rejections, forced
admissions, queue depth, and task duration.
*/
package pool
