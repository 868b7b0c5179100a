package schedule

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/taskpool-go/taskpool/internal/testutil"
	tperrors "github.com/taskpool-go/taskpool/pkg/common/errors"
	"github.com/taskpool-go/taskpool/pkg/metrics"
	"github.com/taskpool-go/taskpool/pkg/pool"
)

func countingTask(executed *int32) pool.Task {
	return pool.TaskFunc(func(ctx context.Context) (interface{}, error) {
		atomic.AddInt32(executed, 1)
		return nil, nil
	})
}

func TestEveryFires(t *testing.T) {
	p := pool.New(2, 16)
	defer p.Stop()

	s := New(p, WithTickInterval(5*time.Millisecond))

	var executed int32
	testutil.AssertNoError(t, s.Every("tick", 20*time.Millisecond, countingTask(&executed)))
	testutil.AssertNoError(t, s.Start())

	testutil.Eventually(t, testutil.TestTimeout, func() bool {
		return atomic.LoadInt32(&executed) >= 2
	})

	s.Stop()
	p.Wait()
}

func TestEveryValidation(t *testing.T) {
	p := pool.New(1, 4)
	defer p.Stop()
	s := New(p)

	var executed int32
	if err := s.Every("", time.Second, countingTask(&executed)); err == nil {
		t.Error("empty id should be rejected")
	}
	if err := s.Every("x", 0, countingTask(&executed)); err == nil {
		t.Error("non-positive interval should be rejected")
	}
	if err := s.Every("x", time.Second, nil); !errors.Is(err, tperrors.ErrNilTask) {
		t.Errorf("expected ErrNilTask, got %v", err)
	}
}

func TestDuplicateEntry(t *testing.T) {
	p := pool.New(1, 4)
	defer p.Stop()
	s := New(p)

	var executed int32
	testutil.AssertNoError(t, s.Every("job", time.Second, countingTask(&executed)))
	err := s.Every("job", time.Second, countingTask(&executed))
	if !errors.Is(err, tperrors.ErrDuplicateEntry) {
		t.Errorf("expected ErrDuplicateEntry, got %v", err)
	}
}

func TestCronValidation(t *testing.T) {
	p := pool.New(1, 4)
	defer p.Stop()
	s := New(p)

	var executed int32
	err := s.Cron("bad", "not a cron expr", countingTask(&executed))
	testutil.AssertError(t, err)
	if !errors.Is(err, tperrors.ErrInvalidConfiguration) {
		t.Errorf("expected a validation error, got %v", err)
	}

	testutil.AssertNoError(t, s.Cron("nightly", "0 0 2 * * *", countingTask(&executed)))
	entries := s.Entries()
	testutil.AssertEqual(t, len(entries), 1)
	testutil.AssertEqual(t, entries[0].ID, "nightly")
	testutil.AssertEqual(t, entries[0].Expr, "0 0 2 * * *")
	if !entries[0].Next.After(time.Now()) {
		t.Error("cron entry should have a future firing time")
	}
}

func TestCronFires(t *testing.T) {
	p := pool.New(1, 16)
	defer p.Stop()

	s := New(p, WithTickInterval(10*time.Millisecond))

	var executed int32
	// Every second, on the second.
	testutil.AssertNoError(t, s.Cron("tick", "* * * * * *", countingTask(&executed)))
	testutil.AssertNoError(t, s.Start())
	defer s.Stop()

	testutil.Eventually(t, 3*time.Second, func() bool {
		return atomic.LoadInt32(&executed) >= 1
	})
}

func TestCancel(t *testing.T) {
	p := pool.New(1, 4)
	defer p.Stop()
	s := New(p)

	var executed int32
	testutil.AssertNoError(t, s.Every("job", time.Second, countingTask(&executed)))

	testutil.AssertEqual(t, s.Cancel("job"), true)
	testutil.AssertEqual(t, s.Cancel("job"), false)
	testutil.AssertEqual(t, len(s.Entries()), 0)
}

func TestEntriesSorted(t *testing.T) {
	p := pool.New(1, 4)
	defer p.Stop()
	s := New(p)

	var executed int32
	testutil.AssertNoError(t, s.Every("b", time.Second, countingTask(&executed)))
	testutil.AssertNoError(t, s.Every("a", time.Minute, countingTask(&executed)))

	entries := s.Entries()
	testutil.AssertEqual(t, len(entries), 2)
	testutil.AssertEqual(t, entries[0].ID, "a")
	testutil.AssertEqual(t, entries[1].ID, "b")
	testutil.AssertEqual(t, entries[0].Interval, time.Minute)
}

func TestStartTwice(t *testing.T) {
	p := pool.New(1, 4)
	defer p.Stop()
	s := New(p)

	testutil.AssertNoError(t, s.Start())
	testutil.AssertError(t, s.Start())
	s.Stop()

	// Restartable after Stop.
	testutil.AssertNoError(t, s.Start())
	s.Stop()
}

func TestStopWithoutStart(t *testing.T) {
	p := pool.New(1, 4)
	defer p.Stop()

	s := New(p)
	s.Stop() // no-op
}

func TestDroppedFiringsCounted(t *testing.T) {
	p := pool.New(1, 1)

	reg := metrics.NewRegistry(prometheus.NewRegistry())
	s := New(p, WithTickInterval(5*time.Millisecond), WithMetrics("test", reg))

	// Occupy the worker and fill the queue so every firing is rejected.
	gate := make(chan struct{})
	_, err := p.Submit(pool.TaskFunc(func(ctx context.Context) (interface{}, error) {
		<-gate
		return nil, nil
	}))
	testutil.AssertNoError(t, err)
	testutil.Eventually(t, testutil.TestTimeout, func() bool {
		return p.Stats().Active == 1
	})
	_, ok := p.TrySubmit(pool.TaskFunc(func(ctx context.Context) (interface{}, error) {
		return nil, nil
	}))
	testutil.AssertEqual(t, ok, true)

	var executed int32
	testutil.AssertNoError(t, s.Every("job", 10*time.Millisecond, countingTask(&executed)))
	testutil.AssertNoError(t, s.Start())

	testutil.Eventually(t, testutil.TestTimeout, func() bool {
		return promtestutil.ToFloat64(reg.FiringsDropped.WithLabelValues("test")) >= 1
	})

	s.Stop()
	close(gate)
	p.Stop()
	testutil.AssertEqual(t, atomic.LoadInt32(&executed), int32(0))
}
