/*
Package schedule fires recurring tasks onto a worker pool.

Entries are registered with a fixed interval or a cron expression (with a
seconds field) and submitted through the pool's non-blocking admission;
firings that find the queue full are dropped and counted rather than
queued without bound.

	p := pool.New(4, 100)
	defer p.Shutdown()

	s := schedule.New(p)
	s.Every("refresh-cache", time.Minute, refreshTask)
	s.Cron("nightly-report", "0 0 2 * * *", reportTask)
	s.Start()
	defer s.Stop()
*/
package schedule
