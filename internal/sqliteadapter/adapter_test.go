package sqliteadapter

import (
	"bytes"
	"context"
	"errors"
	"math"
	"testing"

	"github.com/Dicklesworthstone/kvidx/internal/codec"
	"github.com/Dicklesworthstone/kvidx/internal/kvconfig"
	"github.com/Dicklesworthstone/kvidx/internal/kvstore"
)

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	a := New()
	if err := a.Open(context.Background(), ":memory:", kvconfig.Default()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { a.Close(context.Background()) })
	return a
}

func TestInsertGetExists(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()

	if err := a.Insert(ctx, 331, 1, 7, []byte("payload")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	rec, err := a.Get(ctx, 331)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Term != 1 || rec.Cmd != 7 || string(rec.Data) != "payload" {
		t.Errorf("got %+v", rec)
	}
	ok, err := a.Exists(ctx, 331)
	if err != nil || !ok {
		t.Fatalf("Exists: ok=%v err=%v", ok, err)
	}
	ok, err = a.Exists(ctx, 332)
	if err != nil || ok {
		t.Fatalf("Exists(absent): ok=%v err=%v", ok, err)
	}
}

func TestInsertEx_Conditions(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()

	if err := a.InsertEx(ctx, 1, 1, 1, []byte("a"), kvstore.IfExists); !errors.Is(err, kvstore.ErrConditionFailed) {
		t.Fatalf("expected ErrConditionFailed, got %v", err)
	}
	if err := a.InsertEx(ctx, 1, 1, 1, []byte("a"), kvstore.IfNotExists); err != nil {
		t.Fatalf("IfNotExists on absent: %v", err)
	}
	if err := a.InsertEx(ctx, 1, 2, 2, []byte("b"), kvstore.IfNotExists); !errors.Is(err, kvstore.ErrConditionFailed) {
		t.Fatalf("expected ErrConditionFailed on present, got %v", err)
	}
	if err := a.InsertEx(ctx, 1, 3, 3, []byte("c"), kvstore.IfExists); err != nil {
		t.Fatalf("IfExists on present: %v", err)
	}
	rec, _ := a.Get(ctx, 1)
	if rec.Term != 3 || string(rec.Data) != "c" {
		t.Errorf("got %+v", rec)
	}
}

func TestMaxKeyAndRemoveAfterN(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()
	for _, id := range []uint64{10, 20, 30, 40} {
		if err := a.Insert(ctx, id, 1, 1, nil); err != nil {
			t.Fatalf("Insert(%d): %v", id, err)
		}
	}
	max, ok, err := a.MaxKey(ctx)
	if err != nil || !ok || max != 40 {
		t.Fatalf("MaxKey: max=%d ok=%v err=%v", max, ok, err)
	}
	n, err := a.RemoveAfterN(ctx, 30)
	if err != nil {
		t.Fatalf("RemoveAfterN: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 removed, got %d", n)
	}
	max, ok, err = a.MaxKey(ctx)
	if err != nil || !ok || max != 20 {
		t.Fatalf("MaxKey after remove: max=%d ok=%v err=%v", max, ok, err)
	}
}

func TestGetPrevGetNext(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()
	for _, id := range []uint64{10, 20, 30} {
		_ = a.Insert(ctx, id, 1, 1, nil)
	}
	rec, err := a.GetPrev(ctx, 30)
	if err != nil || rec.ID != 20 {
		t.Fatalf("GetPrev(30): id=%d err=%v", rec.ID, err)
	}
	rec, err = a.GetNext(ctx, 10)
	if err != nil || rec.ID != 20 {
		t.Fatalf("GetNext(10): id=%d err=%v", rec.ID, err)
	}
	_, err = a.GetNext(ctx, 30)
	if !errors.Is(err, kvstore.ErrNotFound) {
		t.Fatalf("GetNext(30) expected ErrNotFound, got %v", err)
	}
	_, err = a.GetPrev(ctx, 10)
	if !errors.Is(err, kvstore.ErrNotFound) {
		t.Fatalf("GetPrev(10) expected ErrNotFound, got %v", err)
	}
}

func TestU64Boundary_GetPrevGetNextAtMax(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()
	_ = a.Insert(ctx, 10, 1, 1, nil)
	_ = a.Insert(ctx, 20, 1, 1, nil)

	rec, err := a.GetPrev(ctx, math.MaxUint64)
	if err != nil || rec.ID != 20 {
		t.Fatalf("GetPrev(MaxUint64) expected record at maxKey(20), got id=%d err=%v", rec.ID, err)
	}
	_, err = a.GetNext(ctx, math.MaxUint64)
	if !errors.Is(err, kvstore.ErrNotFound) {
		t.Fatalf("GetNext(MaxUint64) expected ErrNotFound, got %v", err)
	}
}

func TestU64Boundary_SpansSignBit(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()

	low := uint64(100)
	high := uint64(1) << 63 // first id that casts to a negative int64
	higher := high + 100

	for _, id := range []uint64{low, high, higher} {
		if err := a.Insert(ctx, id, 1, 1, nil); err != nil {
			t.Fatalf("Insert(%d): %v", id, err)
		}
	}

	max, ok, err := a.MaxKey(ctx)
	if err != nil || !ok || max != higher {
		t.Fatalf("MaxKey: got %d, want %d (err=%v)", max, higher, err)
	}
	min, ok, err := a.MinKey(ctx)
	if err != nil || !ok || min != low {
		t.Fatalf("MinKey: got %d, want %d (err=%v)", min, low, err)
	}

	rec, err := a.GetNext(ctx, low)
	if err != nil || rec.ID != high {
		t.Fatalf("GetNext(low): got id=%d err=%v, want %d", rec.ID, err, high)
	}
	rec, err = a.GetPrev(ctx, higher)
	if err != nil || rec.ID != high {
		t.Fatalf("GetPrev(higher): got id=%d err=%v, want %d", rec.ID, err, high)
	}
	rec, err = a.GetPrev(ctx, high)
	if err != nil || rec.ID != low {
		t.Fatalf("GetPrev(high): got id=%d err=%v, want %d", rec.ID, err, low)
	}
}

func TestCompareAndSwap(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()
	_ = a.Insert(ctx, 1, 1, 1, []byte("v1"))

	swapped, err := a.CompareAndSwap(ctx, 1, []byte("wrong"), []byte("v2"))
	if err != nil || swapped {
		t.Fatalf("CAS with wrong expected: swapped=%v err=%v", swapped, err)
	}
	swapped, err = a.CompareAndSwap(ctx, 1, []byte("v1"), []byte("v2"))
	if err != nil || !swapped {
		t.Fatalf("CAS with right expected: swapped=%v err=%v", swapped, err)
	}
	rec, _ := a.Get(ctx, 1)
	if string(rec.Data) != "v2" {
		t.Errorf("got %q", rec.Data)
	}
}

func TestCompareTermAndSwap(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()
	_ = a.Insert(ctx, 1, 5, 1, []byte("v1"))

	swapped, err := a.CompareTermAndSwap(ctx, 1, 4, 6, 2, []byte("v2"))
	if err != nil || swapped {
		t.Fatalf("CTAS with wrong term: swapped=%v err=%v", swapped, err)
	}
	swapped, err = a.CompareTermAndSwap(ctx, 1, 5, 6, 2, []byte("v2"))
	if err != nil || !swapped {
		t.Fatalf("CTAS with right term: swapped=%v err=%v", swapped, err)
	}
}

func TestAppendPrependValueRange(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()

	n, err := a.Append(ctx, 1, 1, 1, []byte("world"))
	if err != nil || n != 5 {
		t.Fatalf("Append on absent: n=%d err=%v", n, err)
	}
	// Existing record: term/cmd supplied here must NOT overwrite the
	// (1, 1) set by the creating Append above.
	n, err = a.Prepend(ctx, 1, 9, 9, []byte("hello "))
	if err != nil || n != 11 {
		t.Fatalf("Prepend: n=%d err=%v", n, err)
	}
	got, err := a.GetValueRange(ctx, 1, 0, 5)
	if err != nil || string(got) != "hello" {
		t.Fatalf("GetValueRange: got=%q err=%v", got, err)
	}

	rec, err := a.Get(ctx, 1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Term != 1 || rec.Cmd != 1 {
		t.Fatalf("Prepend must preserve original term/cmd, got term=%d cmd=%d", rec.Term, rec.Cmd)
	}

	n, err = a.SetValueRange(ctx, 1, 20, []byte("tail"))
	if err != nil || n != 24 {
		t.Fatalf("SetValueRange gap-fill: n=%d err=%v", n, err)
	}
	full, err := a.GetValueRange(ctx, 1, 0, 100)
	if err != nil {
		t.Fatalf("GetValueRange full: %v", err)
	}
	if len(full) != 24 {
		t.Fatalf("expected length 24, got %d", len(full))
	}
	for i := 11; i < 20; i++ {
		if full[i] != 0 {
			t.Errorf("expected zero-fill at %d, got %d", i, full[i])
		}
	}

	rec, err = a.Get(ctx, 1)
	if err != nil {
		t.Fatalf("Get after SetValueRange: %v", err)
	}
	if rec.Term != 1 || rec.Cmd != 1 {
		t.Fatalf("SetValueRange must preserve term/cmd, got term=%d cmd=%d", rec.Term, rec.Cmd)
	}
}

func TestSetValueRange_AbsentIDIsNotFound(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()

	if _, err := a.SetValueRange(ctx, 42, 0, []byte("x")); !errors.Is(err, kvstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAppend_PreservesTermCmdAcrossEdits(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()

	if err := a.Insert(ctx, 1, 5, 6, []byte("a")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, err := a.Append(ctx, 1, 100, 200, []byte("b")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	rec, err := a.Get(ctx, 1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Term != 5 || rec.Cmd != 6 {
		t.Fatalf("Append must preserve original term/cmd, got term=%d cmd=%d", rec.Term, rec.Cmd)
	}
	if string(rec.Data) != "ab" {
		t.Fatalf("Data = %q", rec.Data)
	}
}

func TestTTL(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()
	_ = a.Insert(ctx, 1, 1, 1, []byte("v"))

	_, err := a.GetTTL(ctx, 1)
	if !errors.Is(err, kvstore.ErrTTLNone) {
		t.Fatalf("expected ErrTTLNone before SetExpire, got %v", err)
	}
	_, err = a.GetTTL(ctx, 999)
	if !errors.Is(err, kvstore.ErrTTLNotFound) {
		t.Fatalf("expected ErrTTLNotFound for absent key, got %v", err)
	}

	if err := a.SetExpire(ctx, 1, 60_000); err != nil {
		t.Fatalf("SetExpire: %v", err)
	}
	remaining, err := a.GetTTL(ctx, 1)
	if err != nil || remaining <= 0 {
		t.Fatalf("GetTTL after SetExpire: remaining=%d err=%v", remaining, err)
	}

	if err := a.Persist(ctx, 1); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	_, err = a.GetTTL(ctx, 1)
	if !errors.Is(err, kvstore.ErrTTLNone) {
		t.Fatalf("expected ErrTTLNone after Persist, got %v", err)
	}
}

func TestExpireScan(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()
	_ = a.Insert(ctx, 1, 1, 1, []byte("v"))
	_ = a.Insert(ctx, 2, 1, 1, []byte("v"))

	if err := a.SetExpireAt(ctx, 1, 1); err != nil { // already expired (epoch ms=1)
		t.Fatalf("SetExpireAt: %v", err)
	}
	removed, err := a.ExpireScan(ctx, 0)
	if err != nil {
		t.Fatalf("ExpireScan: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if ok, _ := a.Exists(ctx, 1); ok {
		t.Error("expected key 1 removed by ExpireScan")
	}
	if ok, _ := a.Exists(ctx, 2); !ok {
		t.Error("expected key 2 untouched by ExpireScan")
	}
}

func TestTransactionCommitAbort(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()

	if err := a.Begin(ctx); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := a.Insert(ctx, 1, 1, 1, []byte("v")); err != nil {
		t.Fatalf("Insert in tx: %v", err)
	}
	if err := a.Commit(ctx); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if ok, _ := a.Exists(ctx, 1); !ok {
		t.Error("expected committed insert visible")
	}

	if err := a.Begin(ctx); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := a.Insert(ctx, 2, 1, 1, []byte("v")); err != nil {
		t.Fatalf("Insert in tx: %v", err)
	}
	if err := a.Abort(ctx); err != nil {
		t.Fatalf("Abort: %v", err)
	}
	if ok, _ := a.Exists(ctx, 2); ok {
		t.Error("expected aborted insert invisible")
	}
}

func TestNestedBeginFails(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()
	if err := a.Begin(ctx); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer a.Abort(ctx)
	if err := a.Begin(ctx); err == nil {
		t.Fatal("expected nested Begin to fail")
	}
}

func TestExportImportBinaryRoundTrip(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()
	for _, id := range []uint64{1, 2, 3} {
		_ = a.Insert(ctx, id, id, id, []byte("data"))
	}

	var buf bytes.Buffer
	w, err := codec.NewWriter(&buf, "binary")
	if err != nil {
		t.Fatalf("writer: %v", err)
	}
	if err := a.ExportData(ctx, w, "binary", 0, math.MaxUint64, false, nil); err != nil {
		t.Fatalf("ExportData: %v", err)
	}

	b2 := newTestAdapter(t)
	r, err := codec.NewReader(&buf, "binary")
	if err != nil {
		t.Fatalf("reader: %v", err)
	}
	n, err := b2.ImportData(ctx, r, "binary", false, false, nil)
	if err != nil {
		t.Fatalf("ImportData: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 imported, got %d", n)
	}
	rec, err := b2.Get(ctx, 2)
	if err != nil || string(rec.Data) != "data" {
		t.Fatalf("Get(2) after import: %+v %v", rec, err)
	}
}
