package sqliteadapter

import (
	"context"

	"github.com/Dicklesworthstone/kvidx/internal/kvstore"
)

// ExportData streams every record with id in [startKey, endKey] (unsigned,
// both inclusive; endKey == math.MaxUint64 is unbounded) to w in format,
// invoking progress every 100 entries and at the end. progress returning
// false cancels the export at the next boundary with ErrCancelled.
func (a *Adapter) ExportData(ctx context.Context, w kvstore.ExportWriter, format string, startKey, endKey uint64, includeMeta bool, progress kvstore.ProgressFunc) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	total, err := a.countRangeLocked(ctx, startKey, endKey)
	if err != nil {
		return kvstore.Wrap("exportData", kvstore.ErrIO, err)
	}
	if err := w.WriteHeader(total, includeMeta); err != nil {
		return kvstore.Wrap("exportData", kvstore.ErrIO, err)
	}

	lower := gte(startKey)
	var clause string
	var args []any
	if isUnboundedEnd(endKey) {
		clause, args = whereClause(&lower, nil)
	} else {
		upper := lte(endKey)
		clause, args = whereClause(&lower, &upper)
	}

	rows, err := a.conn().QueryContext(ctx,
		`SELECT id, created, term, cmd, data FROM `+logTable+` WHERE `+clause+` ORDER BY (id < 0), id ASC`, args...)
	if err != nil {
		return kvstore.Wrap("exportData", kvstore.ErrIO, err)
	}
	defer rows.Close()

	var done uint64
	for rows.Next() {
		var id, created, term, cmd int64
		var data []byte
		if err := rows.Scan(&id, &created, &term, &cmd, &data); err != nil {
			return kvstore.Wrap("exportData", kvstore.ErrIO, err)
		}
		rec := kvstore.Record{ID: unsignedID(id), Created: created, Term: unsignedID(term), Cmd: unsignedID(cmd), Data: data}
		if err := w.WriteEntry(rec); err != nil {
			return kvstore.Wrap("exportData", kvstore.ErrIO, err)
		}
		done++
		if progress != nil && done%100 == 0 {
			if !progress(done, total) {
				return kvstore.Wrap("exportData", kvstore.ErrCancelled, nil)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return kvstore.Wrap("exportData", kvstore.ErrIO, err)
	}
	if progress != nil {
		progress(done, total)
	}
	if err := w.Close(); err != nil {
		return kvstore.Wrap("exportData", kvstore.ErrIO, err)
	}
	return nil
}

// countRangeLocked is CountRange's body without re-acquiring a.mu, for use
// by callers that already hold it.
func (a *Adapter) countRangeLocked(ctx context.Context, start, end uint64) (uint64, error) {
	lower := gte(start)
	var clause string
	var args []any
	if isUnboundedEnd(end) {
		clause, args = whereClause(&lower, nil)
	} else {
		upper := lte(end)
		clause, args = whereClause(&lower, &upper)
	}
	var n int64
	if err := a.conn().QueryRowContext(ctx, `SELECT COUNT(*) FROM `+logTable+` WHERE `+clause, args...).Scan(&n); err != nil {
		return 0, err
	}
	return uint64(n), nil
}

// ImportData reads every entry r yields and writes it to LOG with its own
// INSERT statements, clearing LOG first when clearFirst is set. When
// skipDuplicates is set, an id already present is left unchanged and not
// counted; when it is not set, an id already present is overwritten
// (term, cmd and data replaced) and counted, and the import does not
// stop on it. Returns the count actually imported.
func (a *Adapter) ImportData(ctx context.Context, r kvstore.ImportReader, format string, clearFirst bool, skipDuplicates bool, progress kvstore.ProgressFunc) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if clearFirst {
		if _, err := a.conn().ExecContext(ctx, `DELETE FROM `+logTable); err != nil {
			return 0, kvstore.Wrap("importData", kvstore.ErrIO, err)
		}
	}

	cond := kvstore.Always
	if skipDuplicates {
		cond = kvstore.IfNotExists
	}

	var imported int64
	for {
		rec, ok, err := r.ReadEntry()
		if err != nil {
			return imported, kvstore.Wrap("importData", kvstore.ErrIO, err)
		}
		if !ok {
			break
		}

		sid, sterm, scmd := signedID(rec.ID), signedID(rec.Term), signedID(rec.Cmd)
		switch cond {
		case kvstore.IfNotExists:
			res, err := a.conn().ExecContext(ctx,
				`INSERT INTO `+logTable+`(id, created, term, cmd, data) SELECT ?, 0, ?, ?, ?
				 WHERE NOT EXISTS (SELECT 1 FROM `+logTable+` WHERE id = ?)`,
				sid, sterm, scmd, rec.Data, sid)
			if err != nil {
				return imported, kvstore.Wrap("importData", kvstore.ErrIO, err)
			}
			if n, _ := res.RowsAffected(); n > 0 {
				imported++
			}
		default:
			if _, err := a.conn().ExecContext(ctx,
				`INSERT INTO `+logTable+`(id, created, term, cmd, data) VALUES (?, 0, ?, ?, ?)
				 ON CONFLICT(id) DO UPDATE SET term=excluded.term, cmd=excluded.cmd, data=excluded.data`,
				sid, sterm, scmd, rec.Data); err != nil {
				return imported, kvstore.Wrap("importData", kvstore.ErrIO, err)
			}
			imported++
		}

		if progress != nil && imported%100 == 0 {
			if !progress(uint64(imported), 0) {
				return imported, kvstore.Wrap("importData", kvstore.ErrCancelled, nil)
			}
		}
	}
	if progress != nil {
		progress(uint64(imported), uint64(imported))
	}
	return imported, nil
}
