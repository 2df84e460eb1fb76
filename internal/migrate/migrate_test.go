package migrate

import (
	"context"
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestApply_FromEmpty(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	migrations := []Migration{
		{Version: 1, Name: "create_users", Up: `CREATE TABLE users(id INTEGER PRIMARY KEY, name TEXT);`},
		{Version: 2, Name: "add_email", Up: `ALTER TABLE users ADD COLUMN email TEXT;`},
	}

	if err := Apply(ctx, db, migrations, 2); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	version, err := CurrentVersion(ctx, db)
	if err != nil {
		t.Fatalf("CurrentVersion: %v", err)
	}
	if version != 2 {
		t.Errorf("expected version 2, got %d", version)
	}

	versions, err := AppliedVersions(ctx, db)
	if err != nil {
		t.Fatalf("AppliedVersions: %v", err)
	}
	if len(versions) != 2 || versions[0] != 1 || versions[1] != 2 {
		t.Errorf("expected [1 2], got %v", versions)
	}
}

func TestApply_Idempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	migrations := []Migration{
		{Version: 1, Name: "create_users", Up: `CREATE TABLE users(id INTEGER PRIMARY KEY);`},
	}

	if err := Apply(ctx, db, migrations, 1); err != nil {
		t.Fatalf("first Apply: %v", err)
	}
	if err := Apply(ctx, db, migrations, 1); err != nil {
		t.Fatalf("second Apply should be a no-op, got error: %v", err)
	}

	version, err := CurrentVersion(ctx, db)
	if err != nil {
		t.Fatalf("CurrentVersion: %v", err)
	}
	if version != 1 {
		t.Errorf("expected version to remain 1, got %d", version)
	}
}

func TestApply_SkipsAlreadyApplied(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	first := []Migration{{Version: 1, Name: "a", Up: `CREATE TABLE t(id INTEGER PRIMARY KEY);`}}
	if err := Apply(ctx, db, first, 1); err != nil {
		t.Fatalf("Apply v1: %v", err)
	}

	withOld := []Migration{
		{Version: 1, Name: "a", Up: `DROP TABLE t;`}, // must be skipped, not re-run
		{Version: 2, Name: "b", Up: `ALTER TABLE t ADD COLUMN x TEXT;`},
	}
	if err := Apply(ctx, db, withOld, 2); err != nil {
		t.Fatalf("Apply v2: %v", err)
	}

	// If migration 1 had re-run, table t would have been dropped and the
	// ALTER TABLE in migration 2 would have failed instead.
	version, err := CurrentVersion(ctx, db)
	if err != nil {
		t.Fatalf("CurrentVersion: %v", err)
	}
	if version != 2 {
		t.Errorf("expected version 2, got %d", version)
	}
}

func TestApply_FailureAbortsOnlyThatMigration(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	migrations := []Migration{
		{Version: 1, Name: "good", Up: `CREATE TABLE t(id INTEGER PRIMARY KEY);`},
		{Version: 2, Name: "bad", Up: `THIS IS NOT VALID SQL;`},
	}

	if err := Apply(ctx, db, migrations, 2); err == nil {
		t.Fatal("expected error from malformed migration 2")
	}

	version, err := CurrentVersion(ctx, db)
	if err != nil {
		t.Fatalf("CurrentVersion: %v", err)
	}
	if version != 1 {
		t.Errorf("expected migration 1 to remain committed, got version %d", version)
	}
}

func TestNeedsMigration(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	needs, err := NeedsMigration(ctx, db, 1)
	if err != nil {
		t.Fatalf("NeedsMigration: %v", err)
	}
	if !needs {
		t.Error("expected NeedsMigration true on empty store")
	}

	migrations := []Migration{{Version: 1, Name: "a", Up: `CREATE TABLE t(id INTEGER PRIMARY KEY);`}}
	if err := Apply(ctx, db, migrations, 1); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	needs, err = NeedsMigration(ctx, db, 1)
	if err != nil {
		t.Fatalf("NeedsMigration: %v", err)
	}
	if needs {
		t.Error("expected NeedsMigration false once caught up")
	}
}
