package sqliteadapter

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/Dicklesworthstone/kvidx/internal/kvconfig"
	"github.com/Dicklesworthstone/kvidx/internal/kvstore"
	"github.com/Dicklesworthstone/kvidx/internal/migrate"
	"github.com/Dicklesworthstone/kvidx/internal/txstate"
)

// Adapter is the concrete kvstore.Backend realized on a single SQLite
// handle. It is not safe for concurrent use — spec.md §5 models one
// instance per goroutine — but the mutex mirrors
// ry256-slb/internal/db/db.go's DB.mu, guarding against accidental
// concurrent use rather than enabling it.
type Adapter struct {
	mu   sync.RWMutex
	db   *sql.DB
	path string
	cfg  kvstore.Config

	tx *sql.Tx
	tm *txstate.Machine

	stmts *stmtCache

	ttlReady bool
}

// New returns an unopened Adapter.
func New() *Adapter {
	return &Adapter{tm: txstate.NewMachine()}
}

// Open establishes the SQLite handle at path, applies cfg's pragmas via
// the connection DSN, and brings the schema up to date through
// internal/migrate. A single connection is pinned (SetMaxOpenConns(1))
// so "one store handle" holds even when database/sql's pool would
// otherwise hand out a second physical connection.
func (a *Adapter) Open(ctx context.Context, path string, cfg kvstore.Config) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	cfg = kvconfig.Normalize(cfg)
	dsn := kvconfig.DSN(path, cfg)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return kvstore.Wrap("open", kvstore.ErrIO, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return kvstore.Wrap("open", kvstore.ErrIO, err)
	}

	if err := migrate.Apply(ctx, db, schemaMigrations(), schemaVersionTarget); err != nil {
		db.Close()
		return kvstore.Wrap("open", kvstore.ErrInternal, err)
	}

	a.db = db
	a.path = path
	a.cfg = cfg
	a.tm = txstate.NewMachine()
	a.stmts = newStmtCache()
	a.ttlReady = false
	return nil
}

// Close releases the prepared-statement cache and the underlying handle.
func (a *Adapter) Close(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stmts != nil {
		a.stmts.Close()
	}
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	if err != nil {
		return kvstore.Wrap("close", kvstore.ErrIO, err)
	}
	return nil
}

// Fsync forces a WAL checkpoint, the closest SQLite analog to an explicit
// durability barrier on top of a journal_mode=WAL store.
func (a *Adapter) Fsync(ctx context.Context) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.db == nil {
		return kvstore.Wrap("fsync", kvstore.ErrInvalidArgument, fmt.Errorf("adapter not open"))
	}
	if _, err := a.db.ExecContext(ctx, `PRAGMA wal_checkpoint(FULL)`); err != nil {
		return kvstore.Wrap("fsync", kvstore.ErrIO, err)
	}
	return nil
}

// ApplyConfig re-derives the DSN pragmas from cfg and applies the ones
// that can be changed on a live connection (cache_size, synchronous,
// foreign_keys, recursive_triggers). journal_mode, page_size, and vfs
// require reopening and are rejected with ErrNotSupported on a live
// handle, matching the "returns typed not-supported rather than
// panicking" contract for capabilities a backend cannot satisfy in
// place.
func (a *Adapter) ApplyConfig(ctx context.Context, cfg kvstore.Config) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.db == nil {
		return kvstore.Wrap("applyConfig", kvstore.ErrInvalidArgument, fmt.Errorf("adapter not open"))
	}
	cfg = kvconfig.Normalize(cfg)
	if cfg.JournalMode != a.cfg.JournalMode || cfg.PageSize != a.cfg.PageSize || cfg.VFSName != a.cfg.VFSName {
		return kvstore.Wrap("applyConfig", kvstore.ErrNotSupported, fmt.Errorf("journal_mode/page_size/vfs cannot change without reopening"))
	}
	pragmas := []string{
		fmt.Sprintf("PRAGMA synchronous=%s", cfg.SyncMode),
		fmt.Sprintf("PRAGMA cache_size=-%d", cfg.CacheSizeBytes/1024),
		fmt.Sprintf("PRAGMA busy_timeout=%d", cfg.BusyTimeoutMs),
	}
	if cfg.EnableRecursiveTriggers {
		pragmas = append(pragmas, "PRAGMA recursive_triggers=ON")
	} else {
		pragmas = append(pragmas, "PRAGMA recursive_triggers=OFF")
	}
	if cfg.EnableForeignKeys {
		pragmas = append(pragmas, "PRAGMA foreign_keys=ON")
	} else {
		pragmas = append(pragmas, "PRAGMA foreign_keys=OFF")
	}
	for _, p := range pragmas {
		if _, err := a.db.ExecContext(ctx, p); err != nil {
			return kvstore.Wrap("applyConfig", kvstore.ErrIO, err)
		}
	}
	a.cfg = cfg
	return nil
}

// Begin starts a deferred transaction. A nested Begin fails.
func (a *Adapter) Begin(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.tm.Begin(); err != nil {
		return kvstore.Wrap("begin", kvstore.ErrInvalidArgument, err)
	}
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		a.tm.Fail()
		return kvstore.Wrap("begin", kvstore.ErrIO, err)
	}
	a.tx = tx
	return nil
}

// Commit commits the active transaction. Commit of a Failed transaction
// is refused by the state machine before it ever reaches SQLite.
func (a *Adapter) Commit(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.tm.Commit(); err != nil {
		return kvstore.Wrap("commit", kvstore.ErrInvalidArgument, err)
	}
	tx := a.tx
	a.tx = nil
	if tx == nil {
		return nil
	}
	if err := tx.Commit(); err != nil {
		return kvstore.Wrap("commit", kvstore.ErrIO, err)
	}
	return nil
}

// Abort rolls back the active (or failed) transaction and returns to
// Idle.
func (a *Adapter) Abort(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.tm.Abort(); err != nil {
		return kvstore.Wrap("abort", kvstore.ErrInvalidArgument, err)
	}
	tx := a.tx
	a.tx = nil
	if tx == nil {
		return nil
	}
	if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
		return kvstore.Wrap("abort", kvstore.ErrIO, err)
	}
	return nil
}

// fail marks the transaction state Failed after an operation error
// inside an active transaction, so a subsequent Commit is refused.
func (a *Adapter) fail() {
	if a.tm.IsActive() {
		a.tm.Fail()
	}
}

// execer is the subset of *sql.DB / *sql.Tx this package routes through,
// selected per call by whether a transaction is active.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn returns the execer to route the current call through: the active
// transaction's *sql.Tx if one is open, else the shared *sql.DB.
func (a *Adapter) conn() execer {
	if a.tx != nil {
		return a.tx
	}
	return a.db
}

var _ kvstore.Backend = (*Adapter)(nil)
