// Package migrate applies ordered, version-stamped DDL scripts against a
// store and records the applied version in a metadata table.
//
// Grounded directly on ry256-slb/internal/db/migrations.go: the same
// schema_migrations(version, applied_at) control table, the same
// "skip if version <= current, run each in its own tx, record in the same
// tx" control flow, generalized from a hardcoded package-level migration
// list to a parameter, since kvidx's runner is a standalone contract
// (spec.md §4.2) rather than baked into one schema.
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"
)

// Migration is one version-stamped DDL script.
type Migration struct {
	Version int
	Name    string
	Up      string
}

// CurrentVersion returns the highest applied migration version, or 0 if
// the metadata table is absent or empty.
func CurrentVersion(ctx context.Context, db *sql.DB) (int, error) {
	if err := ensureMigrationsTable(ctx, db); err != nil {
		return 0, err
	}
	return currentVersionLocked(ctx, db)
}

func currentVersionLocked(ctx context.Context, q querier) (int, error) {
	var v sql.NullInt64
	if err := q.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_migrations`).Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	if !v.Valid {
		return 0, nil
	}
	return int(v.Int64), nil
}

// NeedsMigration reports whether the store's current version is below
// target.
func NeedsMigration(ctx context.Context, db *sql.DB, target int) (bool, error) {
	current, err := CurrentVersion(ctx, db)
	if err != nil {
		return false, err
	}
	return current < target, nil
}

// Apply applies every migration whose version is > current and <= target,
// in ascending order. Each migration runs inside its own transaction and,
// on success, updates the metadata table in the same transaction. A
// migration whose version is <= the already-applied version is skipped.
// Re-invoking Apply with the same target after all scripts have succeeded
// is a no-op.
func Apply(ctx context.Context, db *sql.DB, migrations []Migration, targetVersion int) error {
	if err := ensureMigrationsTable(ctx, db); err != nil {
		return err
	}

	current, err := currentVersionLocked(ctx, db)
	if err != nil {
		return err
	}

	sorted := make([]Migration, len(migrations))
	copy(sorted, migrations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Version < sorted[j].Version })

	for _, m := range sorted {
		if m.Version <= current || m.Version > targetVersion {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.ExecContext(ctx, m.Up); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Name, err)
		}

		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO schema_migrations(version, applied_at) VALUES(?, ?)`,
			m.Version, time.Now().UTC().Format(time.RFC3339)); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// AppliedVersions reports the versions recorded, in ascending order.
func AppliedVersions(ctx context.Context, db *sql.DB) ([]int, error) {
	if err := ensureMigrationsTable(ctx, db); err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations ORDER BY version ASC`)
	if err != nil {
		return nil, fmt.Errorf("query applied versions: %w", err)
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan applied version: %w", err)
		}
		versions = append(versions, v)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterating applied versions: %w", rows.Err())
	}
	return versions, nil
}

func ensureMigrationsTable(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  applied_at TEXT NOT NULL
);`)
	return err
}

// querier is the subset of *sql.DB/*sql.Tx this package needs, so
// currentVersionLocked can run inside or outside a transaction.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
