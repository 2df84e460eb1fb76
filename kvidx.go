package kvidx

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/Dicklesworthstone/kvidx/internal/kvconfig"
	"github.com/Dicklesworthstone/kvidx/internal/kvstore"
	"github.com/Dicklesworthstone/kvidx/internal/sqliteadapter"
)

// Instance is a handle onto one opened store. Not safe for concurrent
// use from multiple goroutines, matching spec.md §5's single-threaded,
// one-instance-per-goroutine model; the embedded mutex guards against
// accidental concurrent use rather than enabling it, the same stance
// ry256-slb/internal/db/db.go takes with DB.mu.
type Instance struct {
	mu      sync.Mutex
	backend kvstore.Backend
	logger  *log.Logger
	path    string
	cfg     kvstore.Config

	lastErr error
}

// Open opens (creating if absent) the store at path using
// internal/sqliteadapter as the realized kvstore.Backend, applying opts
// in order. path == ":memory:" selects an ephemeral, process-local store.
func Open(ctx context.Context, path string, opts ...Option) (*Instance, error) {
	settings := defaultSettings()
	for _, opt := range opts {
		opt(&settings)
	}
	cfg := kvconfig.Normalize(settings.cfg)

	backend := sqliteadapter.New()
	if err := backend.Open(ctx, path, cfg); err != nil {
		return nil, err
	}

	inst := &Instance{
		backend: backend,
		logger:  settings.logger,
		path:    path,
		cfg:     cfg,
	}

	if settings.initHook != nil {
		if err := settings.initHook(inst); err != nil {
			backend.Close(ctx)
			return nil, err
		}
	}

	inst.logger.Debug("kvidx: opened store", "path", path)
	return inst, nil
}

// Close releases the underlying backend.
func (inst *Instance) Close(ctx context.Context) error {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.backend.Close(ctx)
}

// Fsync forces a durability barrier on the underlying store.
func (inst *Instance) Fsync(ctx context.Context) error {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.recordErr(inst.backend.Fsync(ctx))
}

// ApplyConfig re-applies configuration that can change on a live handle.
func (inst *Instance) ApplyConfig(ctx context.Context, cfg kvstore.Config) error {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	err := inst.recordErr(inst.backend.ApplyConfig(ctx, kvconfig.Normalize(cfg)))
	if err == nil {
		inst.cfg = kvconfig.Normalize(cfg)
	}
	return err
}

// Begin starts an explicit transaction; subsequent calls on inst are
// batched until Commit or Abort.
func (inst *Instance) Begin(ctx context.Context) error {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.recordErr(inst.backend.Begin(ctx))
}

// Commit commits the active transaction.
func (inst *Instance) Commit(ctx context.Context) error {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.recordErr(inst.backend.Commit(ctx))
}

// Abort rolls back the active transaction.
func (inst *Instance) Abort(ctx context.Context) error {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.recordErr(inst.backend.Abort(ctx))
}

// Get fetches the record at id.
func (inst *Instance) Get(ctx context.Context, id uint64) (Record, error) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	rec, err := inst.backend.Get(ctx, id)
	return rec, inst.recordErr(err)
}

// Exists reports whether id is present.
func (inst *Instance) Exists(ctx context.Context, id uint64) (bool, error) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	ok, err := inst.backend.Exists(ctx, id)
	return ok, inst.recordErr(err)
}

// ExistsDual reports whether id is present with the given term.
func (inst *Instance) ExistsDual(ctx context.Context, id uint64, expectedTerm uint64) (bool, error) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	ok, err := inst.backend.ExistsDual(ctx, id, expectedTerm)
	return ok, inst.recordErr(err)
}

// GetPrev returns the record with the largest id strictly less than
// nextKey.
func (inst *Instance) GetPrev(ctx context.Context, nextKey uint64) (Record, error) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	rec, err := inst.backend.GetPrev(ctx, nextKey)
	return rec, inst.recordErr(err)
}

// GetNext returns the record with the smallest id strictly greater than
// previousKey.
func (inst *Instance) GetNext(ctx context.Context, previousKey uint64) (Record, error) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	rec, err := inst.backend.GetNext(ctx, previousKey)
	return rec, inst.recordErr(err)
}

// MaxKey returns the largest key present.
func (inst *Instance) MaxKey(ctx context.Context) (uint64, bool, error) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	id, ok, err := inst.backend.MaxKey(ctx)
	return id, ok, inst.recordErr(err)
}

// MinKey returns the smallest key present.
func (inst *Instance) MinKey(ctx context.Context) (uint64, bool, error) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	id, ok, err := inst.backend.MinKey(ctx)
	return id, ok, inst.recordErr(err)
}

// Insert upserts (id, term, cmd, data).
func (inst *Instance) Insert(ctx context.Context, id uint64, term, cmd uint64, data []byte) error {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.recordErr(inst.backend.Insert(ctx, id, term, cmd, data))
}

// InsertEx inserts subject to cond.
func (inst *Instance) InsertEx(ctx context.Context, id uint64, term, cmd uint64, data []byte, cond Condition) error {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.recordErr(inst.backend.InsertEx(ctx, id, term, cmd, data, cond))
}

// Remove deletes id.
func (inst *Instance) Remove(ctx context.Context, id uint64) error {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.recordErr(inst.backend.Remove(ctx, id))
}

// RemoveAfterN deletes every record with id >= n and returns the count.
func (inst *Instance) RemoveAfterN(ctx context.Context, n uint64) (int64, error) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	removed, err := inst.backend.RemoveAfterN(ctx, n)
	return removed, inst.recordErr(err)
}

// RemoveBeforeN deletes every record with id <= n and returns the count.
func (inst *Instance) RemoveBeforeN(ctx context.Context, n uint64) (int64, error) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	removed, err := inst.backend.RemoveBeforeN(ctx, n)
	return removed, inst.recordErr(err)
}

// RemoveRange deletes records with id in [start, end] per startIncl/
// endIncl and returns the count removed.
func (inst *Instance) RemoveRange(ctx context.Context, start, end uint64, startIncl, endIncl bool) (int64, error) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	removed, err := inst.backend.RemoveRange(ctx, start, end, startIncl, endIncl)
	return removed, inst.recordErr(err)
}

// GetAndSet atomically swaps in (term, cmd, data) and returns the
// previous record, if any.
func (inst *Instance) GetAndSet(ctx context.Context, id uint64, term, cmd uint64, data []byte) (Record, bool, error) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	prev, had, err := inst.backend.GetAndSet(ctx, id, term, cmd, data)
	return prev, had, inst.recordErr(err)
}

// GetAndRemove atomically fetches and deletes id.
func (inst *Instance) GetAndRemove(ctx context.Context, id uint64) (Record, error) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	rec, err := inst.backend.GetAndRemove(ctx, id)
	return rec, inst.recordErr(err)
}

// CompareAndSwap swaps in newData at id iff the stored data equals
// expected.
func (inst *Instance) CompareAndSwap(ctx context.Context, id uint64, expected, newData []byte) (bool, error) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	swapped, err := inst.backend.CompareAndSwap(ctx, id, expected, newData)
	return swapped, inst.recordErr(err)
}

// CompareTermAndSwap swaps in (newTerm, newCmd, newData) at id iff the
// stored term equals expectedTerm.
func (inst *Instance) CompareTermAndSwap(ctx context.Context, id uint64, expectedTerm uint64, newTerm, newCmd uint64, newData []byte) (bool, error) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	swapped, err := inst.backend.CompareTermAndSwap(ctx, id, expectedTerm, newTerm, newCmd, newData)
	return swapped, inst.recordErr(err)
}

// Append appends data to the value at id, creating it with (term, cmd)
// if absent.
func (inst *Instance) Append(ctx context.Context, id uint64, term, cmd uint64, data []byte) (int64, error) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	n, err := inst.backend.Append(ctx, id, term, cmd, data)
	return n, inst.recordErr(err)
}

// Prepend inserts data before the current value at id.
func (inst *Instance) Prepend(ctx context.Context, id uint64, term, cmd uint64, data []byte) (int64, error) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	n, err := inst.backend.Prepend(ctx, id, term, cmd, data)
	return n, inst.recordErr(err)
}

// GetValueRange reads up to length bytes starting at offset.
func (inst *Instance) GetValueRange(ctx context.Context, id uint64, offset, length uint64) ([]byte, error) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	data, err := inst.backend.GetValueRange(ctx, id, offset, length)
	return data, inst.recordErr(err)
}

// SetValueRange overwrites the value at id starting at offset, zero-
// filling any gap. id must already exist; ErrNotFound otherwise.
func (inst *Instance) SetValueRange(ctx context.Context, id uint64, offset uint64, data []byte) (int64, error) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	n, err := inst.backend.SetValueRange(ctx, id, offset, data)
	return n, inst.recordErr(err)
}

// SetExpire sets id to expire ttlMs milliseconds from now.
func (inst *Instance) SetExpire(ctx context.Context, id uint64, ttlMs int64) error {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.recordErr(inst.backend.SetExpire(ctx, id, ttlMs))
}

// SetExpireAt sets id to expire at the given epoch-millisecond instant.
func (inst *Instance) SetExpireAt(ctx context.Context, id uint64, epochMs int64) error {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.recordErr(inst.backend.SetExpireAt(ctx, id, epochMs))
}

// GetTTL returns id's remaining lifetime in milliseconds.
func (inst *Instance) GetTTL(ctx context.Context, id uint64) (int64, error) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	ttl, err := inst.backend.GetTTL(ctx, id)
	return ttl, inst.recordErr(err)
}

// Persist removes any expiration set on id.
func (inst *Instance) Persist(ctx context.Context, id uint64) error {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.recordErr(inst.backend.Persist(ctx, id))
}

// ExpireScan sweeps up to maxKeys expired entries and returns the count
// removed.
func (inst *Instance) ExpireScan(ctx context.Context, maxKeys uint64) (int64, error) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	n, err := inst.backend.ExpireScan(ctx, maxKeys)
	return n, inst.recordErr(err)
}

// GetKeyCount returns the number of records stored.
func (inst *Instance) GetKeyCount(ctx context.Context) (uint64, error) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	n, err := inst.backend.GetKeyCount(ctx)
	return n, inst.recordErr(err)
}

// GetDataSize returns the sum of stored value lengths.
func (inst *Instance) GetDataSize(ctx context.Context) (uint64, error) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	n, err := inst.backend.GetDataSize(ctx)
	return n, inst.recordErr(err)
}

// GetStats gathers a full storage usage snapshot.
func (inst *Instance) GetStats(ctx context.Context) (Stats, error) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	stats, err := inst.backend.GetStats(ctx)
	return stats, inst.recordErr(err)
}

// CountRange counts records with id in [start, end].
func (inst *Instance) CountRange(ctx context.Context, start, end uint64) (uint64, error) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	n, err := inst.backend.CountRange(ctx, start, end)
	return n, inst.recordErr(err)
}

// ExistsInRange reports whether any record has id in [start, end].
func (inst *Instance) ExistsInRange(ctx context.Context, start, end uint64) (bool, error) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	ok, err := inst.backend.ExistsInRange(ctx, start, end)
	return ok, inst.recordErr(err)
}

// ExportData streams records in [startKey, endKey] to w in format
// ("binary", "json", or "csv").
func (inst *Instance) ExportData(ctx context.Context, w kvstore.ExportWriter, format string, startKey, endKey uint64, includeMeta bool, progress ProgressFunc) error {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.recordErr(inst.backend.ExportData(ctx, w, format, startKey, endKey, includeMeta, progress))
}

// ImportData reads records from r in format and inserts them.
func (inst *Instance) ImportData(ctx context.Context, r kvstore.ImportReader, format string, clearFirst bool, skipDuplicates bool, progress ProgressFunc) (int64, error) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	n, err := inst.backend.ImportData(ctx, r, format, clearFirst, skipDuplicates, progress)
	return n, inst.recordErr(err)
}

// LastError returns the most recent error any call on inst returned, or
// nil if the last call succeeded. Mirrors the getLastErrorMessage
// convenience spec.md §7 calls out alongside the error taxonomy.
func (inst *Instance) LastError() error {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.lastErr
}

func (inst *Instance) recordErr(err error) error {
	inst.lastErr = err
	return err
}
