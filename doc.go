/*
Package taskpool provides a fixed-size worker pool for asynchronous task
execution with result futures, bounded queueing, and quiescence waiting.

Core (pkg/pool):
  - pool: Fixed worker set pulling from a bounded FIFO queue
  - futures: Per-task result handles resolved with a value or failure
  - admission: Blocking (bounded wait, then forced) and non-blocking modes
  - Wait: Block until the queue is empty and no task is in flight

Scheduling (pkg/schedule):
  - Interval and cron-driven submission of recurring tasks onto a pool

Example usage:

	import (
		"github.com/taskpool-go/taskpool/pkg/pool"
	)

	p := pool.New(4, 100) // 4 workers, queue capacity 100
	defer p.Shutdown()

	f, err := p.Submit(pool.TaskFunc(func(ctx context.Context) (interface{}, error) {
		return compute(), nil
	}))
	if err != nil {
		log.Fatal(err)
	}

	res, err := f.Wait(context.Background())
*/
package taskpool
