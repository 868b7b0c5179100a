package pool

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/taskpool-go/taskpool/pkg/metrics"
)

// MetricsPool wraps a worker Pool with Prometheus metrics collection.
type MetricsPool struct {
	pool     Pool
	name     string
	registry *metrics.Registry

	mu         sync.Mutex
	lastForced int64
}

// NewWithMetrics creates a worker pool that records metrics under the
// given name in the default registry.
func NewWithMetrics(workerCount, queueSize int, name string) (Pool, error) {
	return NewWithConfigAndMetrics(Config{
		WorkerCount: workerCount,
		QueueSize:   queueSize,
	}, name, metrics.DefaultConfig())
}

// NewWithConfigAndMetrics creates a worker pool with custom config and metrics.
func NewWithConfigAndMetrics(cfg Config, name string, metricsConfig metrics.Config) (Pool, error) {
	if !metricsConfig.Enabled {
		return NewWithConfig(cfg)
	}

	// The default registerer already carries DefaultRegistry's collectors;
	// building a second registry against it would double-register them.
	registry := metrics.DefaultRegistry
	if metricsConfig.Registry != nil && metricsConfig.Registry != prometheus.DefaultRegisterer {
		registry = metrics.NewRegistry(metricsConfig.Registry)
	}

	mp := &MetricsPool{
		name:     name,
		registry: registry,
	}

	// Completion accounting rides on the pool's own completion hook so
	// panics and errors are counted exactly as the future observes them.
	userHook := cfg.OnTaskComplete
	cfg.OnTaskComplete = func(res Result) {
		registry.TaskExecutionDuration.WithLabelValues(name).Observe(res.Duration.Seconds())
		if res.Err != nil {
			registry.TasksFailed.WithLabelValues(name).Inc()
		} else {
			registry.TasksCompleted.WithLabelValues(name).Inc()
		}
		mp.updateGauges()
		if userHook != nil {
			userHook(res)
		}
	}

	base, err := NewWithConfig(cfg)
	if err != nil {
		return nil, err
	}
	mp.pool = base

	registry.PoolSize.WithLabelValues(name).Set(float64(base.Size()))
	mp.updateGauges()
	return mp, nil
}

// updateGauges refreshes the state gauges and folds the forced-admission
// total into its counter.
func (mp *MetricsPool) updateGauges() {
	st := mp.pool.Stats()
	mp.registry.PoolActive.WithLabelValues(mp.name).Set(float64(st.Active))
	mp.registry.PoolQueued.WithLabelValues(mp.name).Set(float64(st.Queued))

	mp.mu.Lock()
	if d := st.Forced - mp.lastForced; d > 0 {
		mp.registry.ForcedAdmissions.WithLabelValues(mp.name).Add(float64(d))
		mp.lastForced = st.Forced
	}
	mp.mu.Unlock()
}

// Submit admits a task with blocking admission and records the submission.
func (mp *MetricsPool) Submit(task Task) (*Future, error) {
	f, err := mp.pool.Submit(task)
	if err == nil {
		mp.registry.TasksSubmitted.WithLabelValues(mp.name).Inc()
	}
	mp.updateGauges()
	return f, err
}

// TrySubmit admits a task without blocking and records the outcome.
func (mp *MetricsPool) TrySubmit(task Task) (*Future, bool) {
	f, ok := mp.pool.TrySubmit(task)
	if ok {
		mp.registry.TasksSubmitted.WithLabelValues(mp.name).Inc()
	} else {
		mp.registry.TasksRejected.WithLabelValues(mp.name).Inc()
	}
	mp.updateGauges()
	return f, ok
}

// Wait blocks until the queue is empty and no task is in flight.
func (mp *MetricsPool) Wait() {
	mp.pool.Wait()
	mp.updateGauges()
}

// Shutdown stops admissions and drains queued tasks.
func (mp *MetricsPool) Shutdown() {
	mp.pool.Shutdown()
	mp.updateGauges()
}

// Stop stops admissions and discards queued tasks.
func (mp *MetricsPool) Stop() {
	mp.pool.Stop()
	mp.updateGauges()
}

// Size returns the number of workers in the pool.
func (mp *MetricsPool) Size() int {
	return mp.pool.Size()
}

// Cap returns the queue capacity bound.
func (mp *MetricsPool) Cap() int {
	return mp.pool.Cap()
}

// Stats returns a snapshot of the underlying pool's counters.
func (mp *MetricsPool) Stats() Stats {
	return mp.pool.Stats()
}
