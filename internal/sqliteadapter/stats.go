package sqliteadapter

import (
	"context"
	"database/sql"
	"os"

	"github.com/Dicklesworthstone/kvidx/internal/kvstore"
)

// GetKeyCount returns the number of records in LOG.
func (a *Adapter) GetKeyCount(ctx context.Context) (uint64, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var n int64
	if err := a.conn().QueryRowContext(ctx, `SELECT COUNT(*) FROM `+logTable).Scan(&n); err != nil {
		return 0, kvstore.Wrap("getKeyCount", kvstore.ErrIO, err)
	}
	return uint64(n), nil
}

// GetMinKey is an alias for MinKey, named separately in the contract so
// callers reading only the statistics group don't need the navigation
// group's symbol.
func (a *Adapter) GetMinKey(ctx context.Context) (uint64, bool, error) {
	return a.MinKey(ctx)
}

// GetDataSize returns the sum of stored value lengths across all records.
func (a *Adapter) GetDataSize(ctx context.Context) (uint64, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var total sql.NullInt64
	if err := a.conn().QueryRowContext(ctx, `SELECT SUM(LENGTH(data)) FROM `+logTable).Scan(&total); err != nil {
		return 0, kvstore.Wrap("getDataSize", kvstore.ErrIO, err)
	}
	if !total.Valid {
		return 0, nil
	}
	return uint64(total.Int64), nil
}

// GetStats gathers a full kvstore.Stats snapshot: key count, min/max key,
// total data size, and SQLite's own page/file accounting (PRAGMA
// page_count / page_size / freelist_count, plus the WAL sidecar's file
// size when journal_mode=WAL).
func (a *Adapter) GetStats(ctx context.Context) (kvstore.Stats, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var stats kvstore.Stats

	var keyCount int64
	if err := a.conn().QueryRowContext(ctx, `SELECT COUNT(*) FROM `+logTable).Scan(&keyCount); err != nil {
		return kvstore.Stats{}, kvstore.Wrap("getStats", kvstore.ErrIO, err)
	}
	stats.KeyCount = uint64(keyCount)

	if minID, ok, err := a.extreme(ctx, false); err != nil {
		return kvstore.Stats{}, kvstore.Wrap("getStats", kvstore.ErrIO, err)
	} else if ok {
		stats.HasMinMax = true
		stats.MinID = minID
	}
	if maxID, ok, err := a.extreme(ctx, true); err != nil {
		return kvstore.Stats{}, kvstore.Wrap("getStats", kvstore.ErrIO, err)
	} else if ok {
		stats.MaxID = maxID
	}

	var dataSize sql.NullInt64
	if err := a.conn().QueryRowContext(ctx, `SELECT SUM(LENGTH(data)) FROM `+logTable).Scan(&dataSize); err != nil {
		return kvstore.Stats{}, kvstore.Wrap("getStats", kvstore.ErrIO, err)
	}
	if dataSize.Valid {
		stats.DataSizeBytes = uint64(dataSize.Int64)
	}

	if err := a.conn().QueryRowContext(ctx, `PRAGMA page_count`).Scan(&stats.PageCount); err != nil {
		return kvstore.Stats{}, kvstore.Wrap("getStats", kvstore.ErrIO, err)
	}
	if err := a.conn().QueryRowContext(ctx, `PRAGMA page_size`).Scan(&stats.PageSize); err != nil {
		return kvstore.Stats{}, kvstore.Wrap("getStats", kvstore.ErrIO, err)
	}
	if err := a.conn().QueryRowContext(ctx, `PRAGMA freelist_count`).Scan(&stats.FreePages); err != nil {
		return kvstore.Stats{}, kvstore.Wrap("getStats", kvstore.ErrIO, err)
	}
	stats.FileSizeBytes = stats.PageCount * stats.PageSize

	if a.path != ":memory:" && a.path != "" {
		if fi, err := os.Stat(a.path + "-wal"); err == nil {
			stats.WALSizeBytes = fi.Size()
		}
	}

	return stats, nil
}

// CountRange counts records with id in [start, end] (unsigned, both
// inclusive). end == math.MaxUint64 is unbounded above.
func (a *Adapter) CountRange(ctx context.Context, start, end uint64) (uint64, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

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
		return 0, kvstore.Wrap("countRange", kvstore.ErrIO, err)
	}
	return uint64(n), nil
}

// ExistsInRange reports whether any record has id in [start, end]
// (unsigned, both inclusive).
func (a *Adapter) ExistsInRange(ctx context.Context, start, end uint64) (bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	lower := gte(start)
	var clause string
	var args []any
	if isUnboundedEnd(end) {
		clause, args = whereClause(&lower, nil)
	} else {
		upper := lte(end)
		clause, args = whereClause(&lower, &upper)
	}

	var found int
	if err := a.conn().QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM `+logTable+` WHERE `+clause+`)`, args...).Scan(&found); err != nil {
		return false, kvstore.Wrap("existsInRange", kvstore.ErrIO, err)
	}
	return found != 0, nil
}
