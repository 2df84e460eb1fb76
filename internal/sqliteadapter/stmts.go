package sqliteadapter

import (
	"context"
	"database/sql"
)

// stmtCache holds the small set of prepared statements spec.md §4.4 calls
// out as the hot path: GET, EXISTS, EXISTS_DUAL, the upsert INSERT,
// REMOVE, and the common (low-bound) branch of GET_PREV/GET_NEXT. MAX_ID
// and MIN_ID vary their query per call (see extreme in read.go, which
// must try one group then the other) so they are not cached here.
// Everything else — the rarer high-group navigation branch, RemoveRange,
// the atomics, content edits, TTL, stats, export/import — prepares its
// statement on demand per call, per steveyegge-beads/internal/storage/
// sqlite's split between a handful of long-lived prepared statements
// (issues.go's insertIssues) and one-shot PrepareContext calls for
// everything else.
type stmtCache struct {
	get        *sql.Stmt
	exists     *sql.Stmt
	existsDual *sql.Stmt
	upsert     *sql.Stmt
	remove     *sql.Stmt
	getPrevLow *sql.Stmt
	getNextLow *sql.Stmt
}

func newStmtCache() *stmtCache { return &stmtCache{} }

// Close releases every prepared statement that was actually created.
// Safe to call on a zero-value cache.
func (c *stmtCache) Close() {
	for _, s := range []*sql.Stmt{
		c.get, c.exists, c.existsDual, c.upsert, c.remove,
		c.getPrevLow, c.getNextLow,
	} {
		if s != nil {
			s.Close()
		}
	}
}

// hot lazily prepares (once) and returns the cached statement for slot,
// preparing sqlText against the adapter's *sql.DB the first time slot is
// needed. Hot statements are always prepared against a.db, never against
// the active *sql.Tx, since database/sql transposes a *sql.DB-prepared
// statement onto whichever connection a *sql.Tx is already using.
func (a *Adapter) hot(ctx context.Context, slot **sql.Stmt, sqlText string) (*sql.Stmt, error) {
	if *slot != nil {
		return *slot, nil
	}
	stmt, err := a.db.PrepareContext(ctx, sqlText)
	if err != nil {
		return nil, err
	}
	*slot = stmt
	return stmt, nil
}

// stmtOrTx returns stmt bound to the active transaction if one is open
// (via sql.Tx.StmtContext), else stmt itself.
func (a *Adapter) stmtOrTx(ctx context.Context, stmt *sql.Stmt) *sql.Stmt {
	if a.tx != nil {
		return a.tx.StmtContext(ctx, stmt)
	}
	return stmt
}
