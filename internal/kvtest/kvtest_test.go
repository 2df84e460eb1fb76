package kvtest

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewInstance(t *testing.T) {
	a := NewInstance(t)
	if err := a.Insert(context.Background(), 1, 1, 1, []byte("v")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
}

func TestRunWithTimeout_Expires(t *testing.T) {
	err := RunWithTimeout(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}, 20*time.Millisecond)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
}

func TestRunWithCancel_Cancels(t *testing.T) {
	result := RunWithCancel(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}, 10*time.Millisecond, time.Second)
	if !result.Cancelled {
		t.Fatal("expected cancellation to occur")
	}
	if !errors.Is(result.Err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", result.Err)
	}
}
