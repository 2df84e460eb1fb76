package sqliteadapter

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/Dicklesworthstone/kvidx/internal/kvstore"
)

// ensureTTLTable lazily creates the TTL side table on first use. Making
// this a per-instance idempotent action (rather than something Open
// always runs) keeps the TTL feature entirely optional for callers that
// never touch it — schema.go's ttlTableDef documents why this isn't a
// migration.
func (a *Adapter) ensureTTLTable(ctx context.Context) error {
	if a.ttlReady {
		return nil
	}
	createStmts, err := emitTTLSchema()
	if err != nil {
		return err
	}
	for _, stmt := range createStmts {
		if _, err := a.conn().ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	a.ttlReady = true
	return nil
}

// SetExpire sets id to expire ttlMs milliseconds from now. id must exist
// in LOG.
func (a *Adapter) SetExpire(ctx context.Context, id uint64, ttlMs int64) error {
	return a.SetExpireAt(ctx, id, time.Now().UnixMilli()+ttlMs)
}

// SetExpireAt sets id to expire at the given epoch-millisecond instant.
func (a *Adapter) SetExpireAt(ctx context.Context, id uint64, epochMs int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.ensureTTLTable(ctx); err != nil {
		return kvstore.Wrap("setExpireAt", kvstore.ErrIO, err)
	}

	var exists int
	if err := a.conn().QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM `+logTable+` WHERE id=?)`, signedID(id)).Scan(&exists); err != nil {
		return kvstore.Wrap("setExpireAt", kvstore.ErrIO, err)
	}
	if exists == 0 {
		return kvstore.Wrap("setExpireAt", kvstore.ErrNotFound, nil)
	}

	if _, err := a.conn().ExecContext(ctx,
		`INSERT INTO `+ttlTable+`(id, expires_at) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET expires_at=excluded.expires_at`,
		signedID(id), epochMs); err != nil {
		return kvstore.Wrap("setExpireAt", kvstore.ErrIO, err)
	}
	return nil
}

// GetTTL returns the remaining lifetime in milliseconds for id, or the
// sentinel kvstore.TTLNotFound/TTLNone statuses as a plain int64 (the
// method itself surfaces them as errors; callers wanting the raw status
// use kvstore.TTLNotFound/TTLNone directly against the returned error).
func (a *Adapter) GetTTL(ctx context.Context, id uint64) (int64, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var exists int
	if err := a.conn().QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM `+logTable+` WHERE id=?)`, signedID(id)).Scan(&exists); err != nil {
		return 0, kvstore.Wrap("getTTL", kvstore.ErrIO, err)
	}
	if exists == 0 {
		return int64(kvstore.TTLNotFound), kvstore.Wrap("getTTL", kvstore.ErrTTLNotFound, nil)
	}

	if err := a.ensureTTLTable(ctx); err != nil {
		return 0, kvstore.Wrap("getTTL", kvstore.ErrIO, err)
	}

	var expiresAt sql.NullInt64
	err := a.conn().QueryRowContext(ctx, `SELECT expires_at FROM `+ttlTable+` WHERE id=?`, signedID(id)).Scan(&expiresAt)
	if err == sql.ErrNoRows || !expiresAt.Valid {
		return int64(kvstore.TTLNone), kvstore.Wrap("getTTL", kvstore.ErrTTLNone, nil)
	}
	if err != nil {
		return 0, kvstore.Wrap("getTTL", kvstore.ErrIO, err)
	}

	remaining := expiresAt.Int64 - time.Now().UnixMilli()
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// Persist removes any expiration set on id, leaving the record itself
// untouched. Removing a TTL from a key with none set is not an error.
func (a *Adapter) Persist(ctx context.Context, id uint64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.ensureTTLTable(ctx); err != nil {
		return kvstore.Wrap("persist", kvstore.ErrIO, err)
	}
	if _, err := a.conn().ExecContext(ctx, `DELETE FROM `+ttlTable+` WHERE id=?`, signedID(id)); err != nil {
		return kvstore.Wrap("persist", kvstore.ErrIO, err)
	}
	return nil
}

// ExpireScan lazily sweeps up to maxKeys expired entries: every TTL row
// whose expires_at has passed is removed from both the TTL table and
// LOG, and the count actually removed is returned. maxKeys == 0 means
// unbounded.
func (a *Adapter) ExpireScan(ctx context.Context, maxKeys uint64) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.ensureTTLTable(ctx); err != nil {
		return 0, kvstore.Wrap("expireScan", kvstore.ErrIO, err)
	}

	now := time.Now().UnixMilli()
	limit := "-1"
	if maxKeys > 0 {
		capped := maxKeys
		if capped > 1<<31 {
			capped = 1 << 31
		}
		limit = strconv.FormatInt(int64(capped), 10)
	}

	rows, err := a.conn().QueryContext(ctx,
		`SELECT id FROM `+ttlTable+` WHERE expires_at <= ? ORDER BY expires_at ASC LIMIT `+limit, now)
	if err != nil {
		return 0, kvstore.Wrap("expireScan", kvstore.ErrIO, err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, kvstore.Wrap("expireScan", kvstore.ErrIO, err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, kvstore.Wrap("expireScan", kvstore.ErrIO, err)
	}

	var removed int64
	for _, id := range ids {
		if _, err := a.conn().ExecContext(ctx, `DELETE FROM `+logTable+` WHERE id=?`, id); err != nil {
			return removed, kvstore.Wrap("expireScan", kvstore.ErrIO, err)
		}
		if _, err := a.conn().ExecContext(ctx, `DELETE FROM `+ttlTable+` WHERE id=?`, id); err != nil {
			return removed, kvstore.Wrap("expireScan", kvstore.ErrIO, err)
		}
		removed++
	}
	return removed, nil
}
