package testutil

import (
  "errors"
  "testing"
  "time"
)

func TestAssertHelpers(t *testing.T) {
  AssertNoError(t, nil)
  AssertError(t, errors.New("x"))
  AssertEqual(t, 1, 1)
  AssertEqual(t, "a", "a")
  AssertNotEqual(t, 1, 2)
}

func TestWithTimeout(t *testing.T) {
  ctx, cancel := WithTimeout(t)
  defer cancel()

  deadline, ok := ctx.Deadline()
  if !ok {
    t.Fatal("expected a deadline")
  }
  if time.Until(deadline) > TestTimeout {
    t.Errorf("deadline too far in the future: %v", deadline)
  }
}

func TestEventually(t *testing.T) {
  n := 0
  Eventually(t, time.Second, func() bool {
    n++
    return n >= 3
  })
}
