package sqliteadapter

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/Dicklesworthstone/kvidx/internal/kvstore"
)

func TestGetAndSet(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()

	prev, had, err := a.GetAndSet(ctx, 1, 1, 1, []byte("first"))
	if err != nil || had {
		t.Fatalf("GetAndSet on absent: had=%v err=%v", had, err)
	}
	prev, had, err = a.GetAndSet(ctx, 1, 2, 2, []byte("second"))
	if err != nil || !had || string(prev.Data) != "first" {
		t.Fatalf("GetAndSet on present: prev=%+v had=%v err=%v", prev, had, err)
	}
	rec, _ := a.Get(ctx, 1)
	if string(rec.Data) != "second" {
		t.Errorf("got %q", rec.Data)
	}
}

func TestGetAndRemove(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()
	_ = a.Insert(ctx, 1, 1, 1, []byte("v"))

	rec, err := a.GetAndRemove(ctx, 1)
	if err != nil || string(rec.Data) != "v" {
		t.Fatalf("GetAndRemove: %+v %v", rec, err)
	}
	if ok, _ := a.Exists(ctx, 1); ok {
		t.Error("expected key removed")
	}
	_, err = a.GetAndRemove(ctx, 1)
	if !errors.Is(err, kvstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second remove, got %v", err)
	}
}

func TestRemoveBeforeN(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()
	for _, id := range []uint64{10, 20, 30, 40} {
		_ = a.Insert(ctx, id, 1, 1, nil)
	}
	n, err := a.RemoveBeforeN(ctx, 20)
	if err != nil || n != 2 {
		t.Fatalf("RemoveBeforeN: n=%d err=%v", n, err)
	}
	min, ok, err := a.MinKey(ctx)
	if err != nil || !ok || min != 30 {
		t.Fatalf("MinKey after RemoveBeforeN: min=%d ok=%v err=%v", min, ok, err)
	}
}

func TestRemoveRange(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()
	for _, id := range []uint64{10, 20, 30, 40, 50} {
		_ = a.Insert(ctx, id, 1, 1, nil)
	}
	n, err := a.RemoveRange(ctx, 20, 40, true, false)
	if err != nil {
		t.Fatalf("RemoveRange: %v", err)
	}
	if n != 2 { // 20, 30 removed; 40 excluded (endIncl=false)
		t.Fatalf("expected 2 removed, got %d", n)
	}
	for _, id := range []uint64{10, 40, 50} {
		if ok, _ := a.Exists(ctx, id); !ok {
			t.Errorf("expected %d to survive", id)
		}
	}
	for _, id := range []uint64{20, 30} {
		if ok, _ := a.Exists(ctx, id); ok {
			t.Errorf("expected %d to be removed", id)
		}
	}
}

func TestRemoveRange_UnboundedEnd(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()
	for _, id := range []uint64{10, 20, 30} {
		_ = a.Insert(ctx, id, 1, 1, nil)
	}
	n, err := a.RemoveRange(ctx, 20, math.MaxUint64, true, true)
	if err != nil || n != 2 {
		t.Fatalf("RemoveRange unbounded: n=%d err=%v", n, err)
	}
	if ok, _ := a.Exists(ctx, 10); !ok {
		t.Error("expected 10 to survive")
	}
}

func TestCountAndExistsInRange(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()
	for _, id := range []uint64{10, 20, 30} {
		_ = a.Insert(ctx, id, 1, 1, nil)
	}
	n, err := a.CountRange(ctx, 15, 25)
	if err != nil || n != 1 {
		t.Fatalf("CountRange: n=%d err=%v", n, err)
	}
	ok, err := a.ExistsInRange(ctx, 100, 200)
	if err != nil || ok {
		t.Fatalf("ExistsInRange empty: ok=%v err=%v", ok, err)
	}
	ok, err = a.ExistsInRange(ctx, 5, 15)
	if err != nil || !ok {
		t.Fatalf("ExistsInRange hit: ok=%v err=%v", ok, err)
	}
}

func TestGetStats(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()
	for _, id := range []uint64{10, 20} {
		_ = a.Insert(ctx, id, 1, 1, []byte("xyz"))
	}
	stats, err := a.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.KeyCount != 2 || !stats.HasMinMax || stats.MinID != 10 || stats.MaxID != 20 {
		t.Fatalf("got %+v", stats)
	}
	if stats.DataSizeBytes != 6 {
		t.Errorf("expected 6 data bytes, got %d", stats.DataSizeBytes)
	}
}

func TestGetValueRange_AbsentKey(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()
	_, err := a.GetValueRange(ctx, 999, 0, 10)
	if !errors.Is(err, kvstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
