package sqliteadapter

import (
	"context"

	"github.com/Dicklesworthstone/kvidx/internal/kvstore"
)

// Insert is an upsert: insert the row, or replace it in place if id
// already exists. created is always bound to 0 — spec.md §9 reserves the
// column for future use and kvidx never computes it.
func (a *Adapter) Insert(ctx context.Context, id uint64, term, cmd uint64, data []byte) error {
	return a.InsertEx(ctx, id, term, cmd, data, kvstore.Always)
}

// InsertEx inserts subject to cond: Always upserts unconditionally,
// IfNotExists inserts only when id is absent, IfExists updates only when
// id is already present. A failed condition returns ErrConditionFailed.
func (a *Adapter) InsertEx(ctx context.Context, id uint64, term, cmd uint64, data []byte, cond kvstore.Condition) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	sid, sterm, scmd := signedID(id), signedID(term), signedID(cmd)

	switch cond {
	case kvstore.Always:
		stmt, err := a.hot(ctx, &a.stmts.upsert,
			`INSERT INTO `+logTable+`(id, created, term, cmd, data) VALUES (?, 0, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET term=excluded.term, cmd=excluded.cmd, data=excluded.data`)
		if err != nil {
			a.fail()
			return kvstore.Wrap("insert", kvstore.ErrIO, err)
		}
		if _, err := a.stmtOrTx(ctx, stmt).ExecContext(ctx, sid, sterm, scmd, data); err != nil {
			a.fail()
			return kvstore.Wrap("insert", kvstore.ErrIO, err)
		}
		return nil

	case kvstore.IfNotExists:
		res, err := a.conn().ExecContext(ctx,
			`INSERT INTO `+logTable+`(id, created, term, cmd, data) SELECT ?, 0, ?, ?, ?
			 WHERE NOT EXISTS (SELECT 1 FROM `+logTable+` WHERE id = ?)`,
			sid, sterm, scmd, data, sid)
		if err != nil {
			a.fail()
			return kvstore.Wrap("insert", kvstore.ErrIO, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return kvstore.Wrap("insert", kvstore.ErrConditionFailed, nil)
		}
		return nil

	case kvstore.IfExists:
		res, err := a.conn().ExecContext(ctx,
			`UPDATE `+logTable+` SET term=?, cmd=?, data=? WHERE id = ?`,
			sterm, scmd, data, sid)
		if err != nil {
			a.fail()
			return kvstore.Wrap("insert", kvstore.ErrIO, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return kvstore.Wrap("insert", kvstore.ErrConditionFailed, nil)
		}
		return nil

	default:
		return kvstore.Wrap("insert", kvstore.ErrInvalidArgument, nil)
	}
}

// Remove deletes id. Removing an absent id is not an error — spec.md
// models Remove as idempotent.
func (a *Adapter) Remove(ctx context.Context, id uint64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	stmt, err := a.hot(ctx, &a.stmts.remove, `DELETE FROM `+logTable+` WHERE id = ?`)
	if err != nil {
		a.fail()
		return kvstore.Wrap("remove", kvstore.ErrIO, err)
	}
	if _, err := a.stmtOrTx(ctx, stmt).ExecContext(ctx, signedID(id)); err != nil {
		a.fail()
		return kvstore.Wrap("remove", kvstore.ErrIO, err)
	}
	return nil
}

// RemoveAfterN deletes every record with id >= n (unsigned) and returns
// the count removed.
func (a *Adapter) RemoveAfterN(ctx context.Context, n uint64) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	b := gte(n)
	clause, args := whereClause(&b, nil)
	res, err := a.conn().ExecContext(ctx, `DELETE FROM `+logTable+` WHERE `+clause, args...)
	if err != nil {
		a.fail()
		return 0, kvstore.Wrap("removeAfterN", kvstore.ErrIO, err)
	}
	n2, err := res.RowsAffected()
	if err != nil {
		return 0, kvstore.Wrap("removeAfterN", kvstore.ErrIO, err)
	}
	return n2, nil
}

// RemoveBeforeN deletes every record with id <= n (unsigned) and returns
// the count removed.
func (a *Adapter) RemoveBeforeN(ctx context.Context, n uint64) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	b := lte(n)
	clause, args := whereClause(nil, &b)
	res, err := a.conn().ExecContext(ctx, `DELETE FROM `+logTable+` WHERE `+clause, args...)
	if err != nil {
		a.fail()
		return 0, kvstore.Wrap("removeBeforeN", kvstore.ErrIO, err)
	}
	n2, err := res.RowsAffected()
	if err != nil {
		return 0, kvstore.Wrap("removeBeforeN", kvstore.ErrIO, err)
	}
	return n2, nil
}

// RemoveRange deletes every record with id in [start, end] (subject to
// startIncl/endIncl) and returns the count removed. end == math.MaxUint64
// is treated as unbounded above, per spec.md's export/range convention.
func (a *Adapter) RemoveRange(ctx context.Context, start, end uint64, startIncl, endIncl bool) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	lower := gte(start)
	if !startIncl {
		lower = gt(start)
	}

	var clause string
	var args []any
	if isUnboundedEnd(end) {
		clause, args = whereClause(&lower, nil)
	} else {
		upper := lte(end)
		if !endIncl {
			upper = lt(end)
		}
		clause, args = whereClause(&lower, &upper)
	}

	res, err := a.conn().ExecContext(ctx, `DELETE FROM `+logTable+` WHERE `+clause, args...)
	if err != nil {
		a.fail()
		return 0, kvstore.Wrap("removeRange", kvstore.ErrIO, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, kvstore.Wrap("removeRange", kvstore.ErrIO, err)
	}
	return n, nil
}

// isUnboundedEnd reports whether end should be treated as "no upper
// bound" — math.MaxUint64, reserved by spec.md for this purpose.
func isUnboundedEnd(end uint64) bool {
	return end == ^uint64(0)
}
