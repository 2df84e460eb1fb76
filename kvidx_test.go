package kvidx

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/Dicklesworthstone/kvidx/internal/codec"
)

func openTest(t *testing.T) *Instance {
	t.Helper()
	inst, err := Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { inst.Close(context.Background()) })
	return inst
}

func TestOpenInsertGet(t *testing.T) {
	ctx := context.Background()
	inst := openTest(t)

	if err := inst.Insert(ctx, 7, 1, 1, []byte("hello")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	rec, err := inst.Get(ctx, 7)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(rec.Data) != "hello" {
		t.Fatalf("Data = %q", rec.Data)
	}
	if _, err := inst.Get(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestWithInitHookSeedsStore(t *testing.T) {
	ctx := context.Background()
	inst, err := Open(ctx, ":memory:", WithInitHook(func(i *Instance) error {
		return i.Insert(ctx, 1, 1, 1, []byte("seed"))
	}))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer inst.Close(ctx)

	rec, err := inst.Get(ctx, 1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(rec.Data) != "seed" {
		t.Fatalf("Data = %q", rec.Data)
	}
}

func TestBatchInsertAtomic(t *testing.T) {
	ctx := context.Background()
	inst := openTest(t)

	ops := []BatchOp{
		{ID: 1, Term: 1, Cmd: 1, Data: []byte("a"), Cond: Always},
		{ID: 2, Term: 1, Cmd: 1, Data: []byte("b"), Cond: Always},
		{ID: 3, Term: 1, Cmd: 1, Data: []byte("c"), Cond: Always},
	}
	if err := inst.BatchInsert(ctx, ops); err != nil {
		t.Fatalf("BatchInsert: %v", err)
	}
	count, err := inst.GetKeyCount(ctx)
	if err != nil {
		t.Fatalf("GetKeyCount: %v", err)
	}
	if count != 3 {
		t.Fatalf("count = %d", count)
	}
}

func TestBatchInsertRollsBackOnConditionFailure(t *testing.T) {
	ctx := context.Background()
	inst := openTest(t)

	if err := inst.Insert(ctx, 2, 1, 1, []byte("existing")); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	ops := []BatchOp{
		{ID: 1, Term: 1, Cmd: 1, Data: []byte("a"), Cond: Always},
		{ID: 2, Term: 1, Cmd: 1, Data: []byte("b"), Cond: IfNotExists},
	}
	err := inst.BatchInsert(ctx, ops)
	if !errors.Is(err, ErrConditionFailed) {
		t.Fatalf("expected ErrConditionFailed, got %v", err)
	}

	if _, err := inst.Get(ctx, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected id 1 rolled back, got %v", err)
	}
}

func TestExportImportRoundTripThroughFacade(t *testing.T) {
	ctx := context.Background()
	inst := openTest(t)

	for id := uint64(1); id <= 5; id++ {
		if err := inst.Insert(ctx, id, id, id, []byte{byte(id)}); err != nil {
			t.Fatalf("Insert(%d): %v", id, err)
		}
	}

	var buf bytes.Buffer
	w, err := codec.NewWriter(&buf, "binary")
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := inst.ExportData(ctx, w, "binary", 0, 5, true, nil); err != nil {
		t.Fatalf("ExportData: %v", err)
	}

	reopened, err := Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("Open reopened: %v", err)
	}
	defer reopened.Close(ctx)

	r, err := codec.NewReader(&buf, "binary")
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	n, err := reopened.ImportData(ctx, r, "binary", false, false, nil)
	if err != nil {
		t.Fatalf("ImportData: %v", err)
	}
	if n != 5 {
		t.Fatalf("imported = %d", n)
	}

	for id := uint64(1); id <= 5; id++ {
		rec, err := reopened.Get(ctx, id)
		if err != nil {
			t.Fatalf("Get(%d): %v", id, err)
		}
		if len(rec.Data) != 1 || rec.Data[0] != byte(id) {
			t.Fatalf("Get(%d) = %v", id, rec.Data)
		}
	}
}

func TestTransactionCommitAbort(t *testing.T) {
	ctx := context.Background()
	inst := openTest(t)

	if err := inst.Begin(ctx); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := inst.Insert(ctx, 1, 1, 1, []byte("x")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := inst.Abort(ctx); err != nil {
		t.Fatalf("Abort: %v", err)
	}
	if _, err := inst.Get(ctx, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected aborted insert to vanish, got %v", err)
	}

	if err := inst.Begin(ctx); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := inst.Insert(ctx, 1, 1, 1, []byte("x")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := inst.Commit(ctx); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if _, err := inst.Get(ctx, 1); err != nil {
		t.Fatalf("expected committed insert to persist, got %v", err)
	}
}

func TestLastError(t *testing.T) {
	ctx := context.Background()
	inst := openTest(t)

	if inst.LastError() != nil {
		t.Fatalf("expected nil LastError on fresh instance")
	}
	if _, err := inst.Get(ctx, 123); err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(inst.LastError(), ErrNotFound) {
		t.Fatalf("LastError = %v", inst.LastError())
	}
	if err := inst.Insert(ctx, 123, 1, 1, []byte("ok")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if inst.LastError() != nil {
		t.Fatalf("expected LastError cleared after success, got %v", inst.LastError())
	}
}
