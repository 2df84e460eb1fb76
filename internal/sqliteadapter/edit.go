package sqliteadapter

import (
	"context"
	"database/sql"

	"github.com/Dicklesworthstone/kvidx/internal/kvstore"
)

// fetchData reads the current data blob (and whether id exists).
func (a *Adapter) fetchData(ctx context.Context, id uint64) ([]byte, bool, error) {
	var data []byte
	err := a.conn().QueryRowContext(ctx, `SELECT data FROM `+logTable+` WHERE id = ?`, signedID(id)).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Append appends data to the value at id, creating the record with
// (term, cmd) if absent, and returns the new length. When id already
// exists, term/cmd are left untouched — spec.md requires Append/Prepend
// to preserve the original put's term/cmd across byte-level edits; the
// supplied term/cmd only seed a freshly created record.
func (a *Adapter) Append(ctx context.Context, id uint64, term, cmd uint64, data []byte) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.editValue(ctx, id, term, cmd, func(current []byte) []byte {
		return append(append([]byte(nil), current...), data...)
	})
}

// Prepend inserts data before the current value at id and returns the
// new length.
func (a *Adapter) Prepend(ctx context.Context, id uint64, term, cmd uint64, data []byte) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.editValue(ctx, id, term, cmd, func(current []byte) []byte {
		out := make([]byte, 0, len(data)+len(current))
		out = append(out, data...)
		out = append(out, current...)
		return out
	})
}

func (a *Adapter) editValue(ctx context.Context, id uint64, term, cmd uint64, transform func([]byte) []byte) (int64, error) {
	var newLen int64
	txErr := a.withImplicitTx(ctx, func() error {
		current, existed, err := a.fetchData(ctx, id)
		if err != nil {
			return kvstore.Wrap("edit", kvstore.ErrIO, err)
		}
		next := transform(current)
		newLen = int64(len(next))
		if existed {
			if _, err := a.conn().ExecContext(ctx,
				`UPDATE `+logTable+` SET data=? WHERE id=?`,
				next, signedID(id)); err != nil {
				return kvstore.Wrap("edit", kvstore.ErrIO, err)
			}
			return nil
		}
		if _, err := a.conn().ExecContext(ctx,
			`INSERT INTO `+logTable+`(id, created, term, cmd, data) VALUES (?, 0, ?, ?, ?)`,
			signedID(id), signedID(term), signedID(cmd), next); err != nil {
			return kvstore.Wrap("edit", kvstore.ErrIO, err)
		}
		return nil
	})
	if txErr != nil {
		return 0, txErr
	}
	return newLen, nil
}

// GetValueRange returns up to length bytes of the value at id starting at
// offset. Reading past the end of the stored value yields a short (or
// empty) slice rather than an error; reading an absent id is ErrNotFound.
func (a *Adapter) GetValueRange(ctx context.Context, id uint64, offset, length uint64) ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	current, existed, err := a.fetchData(ctx, id)
	if err != nil {
		return nil, kvstore.Wrap("getValueRange", kvstore.ErrIO, err)
	}
	if !existed {
		return nil, kvstore.Wrap("getValueRange", kvstore.ErrNotFound, nil)
	}
	if offset >= uint64(len(current)) {
		return []byte{}, nil
	}
	end := offset + length
	if end > uint64(len(current)) || end < offset {
		end = uint64(len(current))
	}
	out := make([]byte, end-offset)
	copy(out, current[offset:end])
	return out, nil
}

// SetValueRange overwrites the value at id starting at offset with data,
// zero-filling any gap between the previous end of the value and offset,
// and returns the new length. An absent id is ErrNotFound — unlike
// Append/Prepend, SetValueRange never creates a record.
func (a *Adapter) SetValueRange(ctx context.Context, id uint64, offset uint64, data []byte) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var newLen int64
	txErr := a.withImplicitTx(ctx, func() error {
		current, existed, err := a.fetchData(ctx, id)
		if err != nil {
			return kvstore.Wrap("setValueRange", kvstore.ErrIO, err)
		}
		if !existed {
			return kvstore.Wrap("setValueRange", kvstore.ErrNotFound, nil)
		}

		needed := offset + uint64(len(data))
		next := current
		if uint64(len(next)) < needed {
			grown := make([]byte, needed)
			copy(grown, next)
			next = grown
		}
		copy(next[offset:], data)
		newLen = int64(len(next))

		if _, err := a.conn().ExecContext(ctx, `UPDATE `+logTable+` SET data=? WHERE id=?`, next, signedID(id)); err != nil {
			return kvstore.Wrap("setValueRange", kvstore.ErrIO, err)
		}
		return nil
	})
	if txErr != nil {
		return 0, txErr
	}
	return newLen, nil
}
