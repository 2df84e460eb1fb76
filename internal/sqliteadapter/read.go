package sqliteadapter

import (
	"context"
	"database/sql"
	"math"

	"github.com/Dicklesworthstone/kvidx/internal/kvstore"
)

func scanRecord(row *sql.Row) (kvstore.Record, error) {
	var id, created, term, cmd int64
	var data []byte
	if err := row.Scan(&id, &created, &term, &cmd, &data); err != nil {
		return kvstore.Record{}, err
	}
	return kvstore.Record{
		ID:      unsignedID(id),
		Created: created,
		Term:    unsignedID(term),
		Cmd:     unsignedID(cmd),
		Data:    data,
	}, nil
}

// Get fetches the record at id.
func (a *Adapter) Get(ctx context.Context, id uint64) (kvstore.Record, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stmt, err := a.hot(ctx, &a.stmts.get, `SELECT id, created, term, cmd, data FROM `+logTable+` WHERE id = ?`)
	if err != nil {
		return kvstore.Record{}, kvstore.Wrap("get", kvstore.ErrIO, err)
	}
	row := a.stmtOrTx(ctx, stmt).QueryRowContext(ctx, signedID(id))
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return kvstore.Record{}, kvstore.Wrap("get", kvstore.ErrNotFound, nil)
	}
	if err != nil {
		return kvstore.Record{}, kvstore.Wrap("get", kvstore.ErrIO, err)
	}
	return rec, nil
}

// Exists reports whether id is present.
func (a *Adapter) Exists(ctx context.Context, id uint64) (bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stmt, err := a.hot(ctx, &a.stmts.exists, `SELECT EXISTS(SELECT 1 FROM `+logTable+` WHERE id = ?)`)
	if err != nil {
		return false, kvstore.Wrap("exists", kvstore.ErrIO, err)
	}
	var found int
	if err := a.stmtOrTx(ctx, stmt).QueryRowContext(ctx, signedID(id)).Scan(&found); err != nil {
		return false, kvstore.Wrap("exists", kvstore.ErrIO, err)
	}
	return found != 0, nil
}

// ExistsDual reports whether id is present AND its stored term equals
// expectedTerm.
func (a *Adapter) ExistsDual(ctx context.Context, id uint64, expectedTerm uint64) (bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stmt, err := a.hot(ctx, &a.stmts.existsDual, `SELECT EXISTS(SELECT 1 FROM `+logTable+` WHERE id = ? AND term = ?)`)
	if err != nil {
		return false, kvstore.Wrap("existsDual", kvstore.ErrIO, err)
	}
	var found int
	if err := a.stmtOrTx(ctx, stmt).QueryRowContext(ctx, signedID(id), signedID(expectedTerm)).Scan(&found); err != nil {
		return false, kvstore.Wrap("existsDual", kvstore.ErrIO, err)
	}
	return found != 0, nil
}

// extreme is the shared implementation for MaxKey/MinKey. For MaxKey
// (forMax=true) the high group (id<0, unsigned [2^63,2^64)) holds the
// true maximum whenever it is non-empty, since every high-group id
// unsigned-exceeds every low-group id; MAX(id) within that group gives
// it directly (ascending signed order tracks ascending unsigned order
// within one group, see boundary.go). Falls back to MAX(id) over the low
// group only when the high group is empty. MinKey is the mirror image.
func (a *Adapter) extreme(ctx context.Context, forMax bool) (uint64, bool, error) {
	query := func(highGroup bool) (sql.NullInt64, error) {
		cond := "id >= 0"
		aggregate := "MIN"
		if highGroup {
			cond = "id < 0"
		}
		if forMax {
			aggregate = "MAX"
		}
		var v sql.NullInt64
		q := "SELECT " + aggregate + "(id) FROM " + logTable + " WHERE " + cond
		err := a.conn().QueryRowContext(ctx, q).Scan(&v)
		return v, err
	}

	preferred := forMax // MaxKey prefers the high group, MinKey the low group.
	v, err := query(preferred)
	if err != nil {
		return 0, false, err
	}
	if v.Valid {
		return unsignedID(v.Int64), true, nil
	}
	v, err = query(!preferred)
	if err != nil {
		return 0, false, err
	}
	if !v.Valid {
		return 0, false, nil
	}
	return unsignedID(v.Int64), true, nil
}

// MaxKey returns the largest key in LOG, or ok=false if empty.
func (a *Adapter) MaxKey(ctx context.Context) (uint64, bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	id, ok, err := a.extreme(ctx, true)
	if err != nil {
		return 0, false, kvstore.Wrap("maxKey", kvstore.ErrIO, err)
	}
	return id, ok, nil
}

// MinKey returns the smallest key in LOG, or ok=false if empty.
func (a *Adapter) MinKey(ctx context.Context) (uint64, bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	id, ok, err := a.extreme(ctx, false)
	if err != nil {
		return 0, false, kvstore.Wrap("minKey", kvstore.ErrIO, err)
	}
	return id, ok, nil
}

// GetPrev returns the record with the largest id strictly less than
// nextKey (unsigned), or ErrNotFound if none exists. nextKey ==
// math.MaxUint64 is special-cased to "the record at maxKey", matching
// spec.md's documented boundary behavior.
func (a *Adapter) GetPrev(ctx context.Context, nextKey uint64) (kvstore.Record, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if nextKey == math.MaxUint64 {
		id, ok, err := a.extreme(ctx, true)
		if err != nil {
			return kvstore.Record{}, kvstore.Wrap("getPrev", kvstore.ErrIO, err)
		}
		if !ok {
			return kvstore.Record{}, kvstore.Wrap("getPrev", kvstore.ErrNotFound, nil)
		}
		return a.Get(ctx, id)
	}

	sNext := signedID(nextKey)
	var row *sql.Row
	if sNext >= 0 {
		stmt, err := a.hot(ctx, &a.stmts.getPrevLow,
			`SELECT id, created, term, cmd, data FROM `+logTable+` WHERE id >= 0 AND id < ? ORDER BY id DESC LIMIT 1`)
		if err != nil {
			return kvstore.Record{}, kvstore.Wrap("getPrev", kvstore.ErrIO, err)
		}
		row = a.stmtOrTx(ctx, stmt).QueryRowContext(ctx, sNext)
	} else {
		row = a.conn().QueryRowContext(ctx,
			`SELECT id, created, term, cmd, data FROM `+logTable+` WHERE id < 0 AND id < ? ORDER BY id DESC LIMIT 1`, sNext)
	}
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return a.getPrevFallback(ctx, sNext)
	}
	if err != nil {
		return kvstore.Record{}, kvstore.Wrap("getPrev", kvstore.ErrIO, err)
	}
	return rec, nil
}

func (a *Adapter) getPrevFallback(ctx context.Context, sNext int64) (kvstore.Record, error) {
	if sNext >= 0 {
		return kvstore.Record{}, kvstore.Wrap("getPrev", kvstore.ErrNotFound, nil)
	}
	var v sql.NullInt64
	err := a.conn().QueryRowContext(ctx, `SELECT MAX(id) FROM `+logTable+` WHERE id >= 0`).Scan(&v)
	if err != nil {
		return kvstore.Record{}, kvstore.Wrap("getPrev", kvstore.ErrIO, err)
	}
	if !v.Valid {
		return kvstore.Record{}, kvstore.Wrap("getPrev", kvstore.ErrNotFound, nil)
	}
	return a.Get(ctx, unsignedID(v.Int64))
}

// GetNext returns the record with the smallest id strictly greater than
// previousKey (unsigned), or ErrNotFound if none exists. previousKey ==
// math.MaxUint64 always returns ErrNotFound, matching spec.md's
// documented boundary behavior.
func (a *Adapter) GetNext(ctx context.Context, previousKey uint64) (kvstore.Record, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if previousKey == math.MaxUint64 {
		return kvstore.Record{}, kvstore.Wrap("getNext", kvstore.ErrNotFound, nil)
	}

	sPrev := signedID(previousKey)
	var row *sql.Row
	if sPrev < 0 {
		row = a.conn().QueryRowContext(ctx,
			`SELECT id, created, term, cmd, data FROM `+logTable+` WHERE id < 0 AND id > ? ORDER BY id ASC LIMIT 1`, sPrev)
		rec, err := scanRecord(row)
		if err == sql.ErrNoRows {
			return kvstore.Record{}, kvstore.Wrap("getNext", kvstore.ErrNotFound, nil)
		}
		if err != nil {
			return kvstore.Record{}, kvstore.Wrap("getNext", kvstore.ErrIO, err)
		}
		return rec, nil
	}

	stmt, err := a.hot(ctx, &a.stmts.getNextLow,
		`SELECT id, created, term, cmd, data FROM `+logTable+` WHERE id >= 0 AND id > ? ORDER BY id ASC LIMIT 1`)
	if err != nil {
		return kvstore.Record{}, kvstore.Wrap("getNext", kvstore.ErrIO, err)
	}
	rec, err := scanRecord(a.stmtOrTx(ctx, stmt).QueryRowContext(ctx, sPrev))
	if err == sql.ErrNoRows {
		// Fall back to the high group's min: every high-group id is
		// unsigned-larger than a low-group previousKey.
		var v sql.NullInt64
		if err := a.conn().QueryRowContext(ctx, `SELECT MIN(id) FROM `+logTable+` WHERE id < 0`).Scan(&v); err != nil {
			return kvstore.Record{}, kvstore.Wrap("getNext", kvstore.ErrIO, err)
		}
		if !v.Valid {
			return kvstore.Record{}, kvstore.Wrap("getNext", kvstore.ErrNotFound, nil)
		}
		return a.Get(ctx, unsignedID(v.Int64))
	}
	if err != nil {
		return kvstore.Record{}, kvstore.Wrap("getNext", kvstore.ErrIO, err)
	}
	return rec, nil
}
