package pool

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/taskpool-go/taskpool/internal/testutil"
)

func TestFuturePollBeforeResolve(t *testing.T) {
	f := newFuture()

	res, ok := f.Poll()
	testutil.AssertEqual(t, ok, false)
	testutil.AssertEqual(t, res, Result{})
}

func TestFutureResolveReleasesObservers(t *testing.T) {
	f := newFuture()
	want := Result{Value: 42, Duration: time.Millisecond}

	observed := make(chan Result, 1)
	go func() {
		<-f.Done()
		res, _ := f.Poll()
		observed <- res
	}()

	f.resolve(want)

	select {
	case res := <-observed:
		testutil.AssertEqual(t, res.Value.(int), 42)
	case <-time.After(time.Second):
		t.Fatal("Done was not closed by resolve")
	}

	res, ok := f.Poll()
	testutil.AssertEqual(t, ok, true)
	testutil.AssertEqual(t, res.Value.(int), 42)
}

func TestFutureWait(t *testing.T) {
	f := newFuture()
	boom := errors.New("boom")

	go func() {
		time.Sleep(10 * time.Millisecond)
		f.resolve(Result{Err: boom})
	}()

	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()
	v, err := f.Wait(ctx)
	if v != nil {
		t.Errorf("expected nil value, got %v", v)
	}
	if !errors.Is(err, boom) {
		t.Errorf("expected task error, got %v", err)
	}
}

func TestFutureWaitContextCanceled(t *testing.T) {
	f := newFuture() // never resolved, like a discarded task's handle

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := f.Wait(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}

	// The handle is still observably unresolved.
	_, ok := f.Poll()
	testutil.AssertEqual(t, ok, false)
}
