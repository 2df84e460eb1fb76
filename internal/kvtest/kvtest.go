// Package kvtest is shared test-only scaffolding: a ready-to-use adapter
// instance and the cancel/timeout harness used to drive long-running
// operations (export, ExpireScan) under a deadline in tests.
//
// Grounded on ry256-slb/internal/testutil/context.go's
// RunWithCancel/RunWithTimeout, retargeted from the teacher's daemon RPC
// calls to kvidx's own long-running operations.
package kvtest

import (
	"context"
	"testing"
	"time"

	"github.com/Dicklesworthstone/kvidx/internal/kvconfig"
	"github.com/Dicklesworthstone/kvidx/internal/sqliteadapter"
)

// NewInstance opens an in-memory sqliteadapter.Adapter for t, closing it
// automatically on test cleanup.
func NewInstance(t *testing.T) *sqliteadapter.Adapter {
	t.Helper()
	a := sqliteadapter.New()
	if err := a.Open(context.Background(), ":memory:", kvconfig.Default()); err != nil {
		t.Fatalf("kvtest: open adapter: %v", err)
	}
	t.Cleanup(func() { a.Close(context.Background()) })
	return a
}

// CancelResult reports the outcome of RunWithCancel: whether fn's
// context was actually cancelled before fn returned, and the error fn
// returned (if any).
type CancelResult struct {
	Cancelled bool
	Err       error
}

// RunWithCancel runs fn with a context cancelled after cancelAfter,
// bounding the whole call with timeout so a fn that ignores
// cancellation can't hang a test.
func RunWithCancel(fn func(ctx context.Context) error, cancelAfter, timeout time.Duration) CancelResult {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- fn(ctx) }()

	timer := time.NewTimer(cancelAfter)
	defer timer.Stop()

	select {
	case err := <-done:
		return CancelResult{Cancelled: false, Err: err}
	case <-timer.C:
		cancel()
		select {
		case err := <-done:
			return CancelResult{Cancelled: true, Err: err}
		case <-time.After(timeout):
			return CancelResult{Cancelled: true, Err: context.DeadlineExceeded}
		}
	}
}

// RunWithTimeout runs fn with a context that expires after timeout and
// returns fn's error, or context.DeadlineExceeded if fn never returned.
func RunWithTimeout(fn func(ctx context.Context) error, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- fn(ctx) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
