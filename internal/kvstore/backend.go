package kvstore

import "context"

// Backend is the capability set every storage backend implements: the
// vtable. kvidx's only realization is internal/sqliteadapter; alternative
// backends (memory-mapped B-tree, LSM) are out of scope here — only their
// conformance to this contract matters. A backend that lacks a capability
// returns ErrNotSupported wrapped with the capability's name rather than
// panicking.
//
// Each method is a pure function of (receiver, inputs): side effects land
// only on the backend's own store. None of these methods are safe for
// concurrent use from multiple goroutines against the same Backend value.
type Backend interface {
	// Lifecycle.
	Open(ctx context.Context, path string, cfg Config) error
	Close(ctx context.Context) error
	Fsync(ctx context.Context) error
	ApplyConfig(ctx context.Context, cfg Config) error

	// Transactions. Deferred: locks acquire lazily on first read/write.
	// Nested Begin calls fail.
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Abort(ctx context.Context) error

	// Point queries.
	Get(ctx context.Context, id uint64) (Record, error)
	Exists(ctx context.Context, id uint64) (bool, error)
	ExistsDual(ctx context.Context, id uint64, expectedTerm uint64) (bool, error)

	// Ordered navigation.
	GetPrev(ctx context.Context, nextKey uint64) (Record, error)
	GetNext(ctx context.Context, previousKey uint64) (Record, error)
	MaxKey(ctx context.Context) (uint64, bool, error)
	MinKey(ctx context.Context) (uint64, bool, error)

	// Writes.
	Insert(ctx context.Context, id uint64, term, cmd uint64, data []byte) error
	InsertEx(ctx context.Context, id uint64, term, cmd uint64, data []byte, cond Condition) error
	Remove(ctx context.Context, id uint64) error
	RemoveAfterN(ctx context.Context, id uint64) (int64, error)
	RemoveBeforeN(ctx context.Context, id uint64) (int64, error)
	RemoveRange(ctx context.Context, start, end uint64, startIncl, endIncl bool) (int64, error)

	// Atomics.
	GetAndSet(ctx context.Context, id uint64, term, cmd uint64, data []byte) (prev Record, hadPrev bool, err error)
	GetAndRemove(ctx context.Context, id uint64) (Record, error)
	CompareAndSwap(ctx context.Context, id uint64, expected, newData []byte) (swapped bool, err error)
	CompareTermAndSwap(ctx context.Context, id uint64, expectedTerm uint64, newTerm, newCmd uint64, newData []byte) (swapped bool, err error)

	// Content edits.
	Append(ctx context.Context, id uint64, term, cmd uint64, data []byte) (newLen int64, err error)
	Prepend(ctx context.Context, id uint64, term, cmd uint64, data []byte) (newLen int64, err error)
	GetValueRange(ctx context.Context, id uint64, offset, length uint64) ([]byte, error)
	SetValueRange(ctx context.Context, id uint64, offset uint64, data []byte) (newLen int64, err error)

	// TTL.
	SetExpire(ctx context.Context, id uint64, ttlMs int64) error
	SetExpireAt(ctx context.Context, id uint64, epochMs int64) error
	GetTTL(ctx context.Context, id uint64) (int64, error)
	Persist(ctx context.Context, id uint64) error
	ExpireScan(ctx context.Context, maxKeys uint64) (expired int64, err error)

	// Statistics.
	GetKeyCount(ctx context.Context) (uint64, error)
	GetMinKey(ctx context.Context) (uint64, bool, error)
	GetDataSize(ctx context.Context) (uint64, error)
	GetStats(ctx context.Context) (Stats, error)
	CountRange(ctx context.Context, start, end uint64) (uint64, error)
	ExistsInRange(ctx context.Context, start, end uint64) (bool, error)

	// Bulk I/O. Format is one of "binary", "json", "csv".
	ExportData(ctx context.Context, w ExportWriter, format string, startKey, endKey uint64, includeMeta bool, progress ProgressFunc) error
	ImportData(ctx context.Context, r ImportReader, format string, clearFirst bool, skipDuplicates bool, progress ProgressFunc) (imported int64, err error)
}

// ExportWriter is the minimal sink kvstore.Backend.ExportData writes to;
// internal/codec implements it for each format.
type ExportWriter interface {
	WriteHeader(totalHint uint64, includeMeta bool) error
	WriteEntry(r Record) error
	Close() error
}

// ImportReader is the minimal source kvstore.Backend.ImportData reads
// from; internal/codec implements it for each format.
type ImportReader interface {
	ReadEntry() (Record, bool, error)
}

// Config mirrors the configuration surface spec.md §6 names. It lives in
// kvstore (not kvconfig) so Backend can depend on it without an import
// cycle; internal/kvconfig is the package that builds and defaults one.
type Config struct {
	CacheSizeBytes          int64
	VFSName                 string
	JournalMode             string
	SyncMode                string
	EnableRecursiveTriggers bool
	EnableForeignKeys       bool
	ReadOnly                bool
	BusyTimeoutMs           int64
	MmapSizeBytes           int64
	PageSize                int64
}
