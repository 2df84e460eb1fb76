package sqliteadapter

import (
	"bytes"
	"context"
	"database/sql"

	"github.com/Dicklesworthstone/kvidx/internal/kvstore"
)

// withImplicitTx runs fn inside a transaction if one is not already
// active, committing on success and rolling back on error, so every
// multi-statement atomic below is itself atomic even when the caller
// never called Begin. Mirrors ry256-slb/internal/db/db.go's
// Transaction(fn) helper, generalized to be a no-op wrapper when a
// transaction is already open (atomics must compose inside a caller's
// explicit batch too).
func (a *Adapter) withImplicitTx(ctx context.Context, fn func() error) error {
	if a.tx != nil {
		return fn()
	}
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return kvstore.Wrap("atomic", kvstore.ErrIO, err)
	}
	a.tx = tx
	defer func() { a.tx = nil }()

	if err := fn(); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return kvstore.Wrap("atomic", kvstore.ErrIO, err)
	}
	return nil
}

// GetAndSet atomically swaps in (term, cmd, data) at id and returns the
// previous record, if any.
func (a *Adapter) GetAndSet(ctx context.Context, id uint64, term, cmd uint64, data []byte) (prev kvstore.Record, hadPrev bool, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	txErr := a.withImplicitTx(ctx, func() error {
		row := a.conn().QueryRowContext(ctx,
			`SELECT id, created, term, cmd, data FROM `+logTable+` WHERE id = ?`, signedID(id))
		rec, scanErr := scanRecord(row)
		switch scanErr {
		case nil:
			prev, hadPrev = rec, true
		case sql.ErrNoRows:
			hadPrev = false
		default:
			return kvstore.Wrap("getAndSet", kvstore.ErrIO, scanErr)
		}

		_, execErr := a.conn().ExecContext(ctx,
			`INSERT INTO `+logTable+`(id, created, term, cmd, data) VALUES (?, 0, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET term=excluded.term, cmd=excluded.cmd, data=excluded.data`,
			signedID(id), signedID(term), signedID(cmd), data)
		if execErr != nil {
			return kvstore.Wrap("getAndSet", kvstore.ErrIO, execErr)
		}
		return nil
	})
	if txErr != nil {
		return kvstore.Record{}, false, txErr
	}
	return prev, hadPrev, nil
}

// GetAndRemove atomically fetches and deletes id. Absence is ErrNotFound.
func (a *Adapter) GetAndRemove(ctx context.Context, id uint64) (kvstore.Record, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var rec kvstore.Record
	txErr := a.withImplicitTx(ctx, func() error {
		row := a.conn().QueryRowContext(ctx,
			`SELECT id, created, term, cmd, data FROM `+logTable+` WHERE id = ?`, signedID(id))
		r, scanErr := scanRecord(row)
		if scanErr == sql.ErrNoRows {
			return kvstore.Wrap("getAndRemove", kvstore.ErrNotFound, nil)
		}
		if scanErr != nil {
			return kvstore.Wrap("getAndRemove", kvstore.ErrIO, scanErr)
		}
		rec = r
		if _, err := a.conn().ExecContext(ctx, `DELETE FROM `+logTable+` WHERE id = ?`, signedID(id)); err != nil {
			return kvstore.Wrap("getAndRemove", kvstore.ErrIO, err)
		}
		return nil
	})
	if txErr != nil {
		return kvstore.Record{}, txErr
	}
	return rec, nil
}

// CompareAndSwap swaps in newData at id iff the currently stored data
// equals expected byte-for-byte. A nil expected matches iff the current
// data is empty (zero-length) — spec.md's Open Question on nil-expected
// semantics, resolved in DESIGN.md. Swapping into an absent id never
// succeeds.
func (a *Adapter) CompareAndSwap(ctx context.Context, id uint64, expected, newData []byte) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var swapped bool
	txErr := a.withImplicitTx(ctx, func() error {
		row := a.conn().QueryRowContext(ctx, `SELECT data FROM `+logTable+` WHERE id = ?`, signedID(id))
		var current []byte
		scanErr := row.Scan(&current)
		if scanErr == sql.ErrNoRows {
			return kvstore.Wrap("compareAndSwap", kvstore.ErrNotFound, nil)
		}
		if scanErr != nil {
			return kvstore.Wrap("compareAndSwap", kvstore.ErrIO, scanErr)
		}
		if !bytes.Equal(current, expected) {
			swapped = false
			return nil
		}
		if _, err := a.conn().ExecContext(ctx, `UPDATE `+logTable+` SET data = ? WHERE id = ?`, newData, signedID(id)); err != nil {
			return kvstore.Wrap("compareAndSwap", kvstore.ErrIO, err)
		}
		swapped = true
		return nil
	})
	if txErr != nil {
		return false, txErr
	}
	return swapped, nil
}

// CompareTermAndSwap swaps in (newTerm, newCmd, newData) at id iff the
// currently stored term equals expectedTerm. Data content is irrelevant
// to the comparison — only the term gates it.
func (a *Adapter) CompareTermAndSwap(ctx context.Context, id uint64, expectedTerm uint64, newTerm, newCmd uint64, newData []byte) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var swapped bool
	txErr := a.withImplicitTx(ctx, func() error {
		row := a.conn().QueryRowContext(ctx, `SELECT term FROM `+logTable+` WHERE id = ?`, signedID(id))
		var term int64
		scanErr := row.Scan(&term)
		if scanErr == sql.ErrNoRows {
			return kvstore.Wrap("compareTermAndSwap", kvstore.ErrNotFound, nil)
		}
		if scanErr != nil {
			return kvstore.Wrap("compareTermAndSwap", kvstore.ErrIO, scanErr)
		}
		if unsignedID(term) != expectedTerm {
			swapped = false
			return nil
		}
		if _, err := a.conn().ExecContext(ctx,
			`UPDATE `+logTable+` SET term = ?, cmd = ?, data = ? WHERE id = ?`,
			signedID(newTerm), signedID(newCmd), newData, signedID(id)); err != nil {
			return kvstore.Wrap("compareTermAndSwap", kvstore.ErrIO, err)
		}
		swapped = true
		return nil
	})
	if txErr != nil {
		return false, txErr
	}
	return swapped, nil
}
