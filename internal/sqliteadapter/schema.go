// Package sqliteadapter is the concrete kvstore.Backend realized on top of
// a transactional relational store (modernc.org/sqlite, pure Go, no cgo —
// the driver every SQLite-backed teacher in the pack uses).
//
// Grounded on ry256-slb/internal/db/db.go for the handle/mutex/Transaction
// shape, ry256-slb/internal/db/requests.go for null-handling and row
// scanning idioms, and steveyegge-beads/internal/storage/sqlite for
// prepared-statement lifecycle conventions.
package sqliteadapter

import (
	"github.com/Dicklesworthstone/kvidx/internal/migrate"
	"github.com/Dicklesworthstone/kvidx/internal/sdl"
)

const (
	logTable  = "log"
	ttlTable  = "_kvidx_ttl"
	schemaVersionTarget = 1
)

// logTableDef is LOG's SDL description: id is the sole primary key and
// never NULL (I6); created is the reserved slot always bound to 0 on
// insert (spec.md §9 Open Question — kept but never computed by kvidx).
func logTableDef() sdl.TableDef {
	return sdl.Table(logTable,
		sdl.Col("id").Integer().PrimaryKey().NotNull(),
		sdl.Col("created").Integer().NotNull().DefaultIntValue(0),
		sdl.Col("term").Integer().NotNull(),
		sdl.Col("cmd").Integer().NotNull(),
		sdl.Col("data").BlobType(),
	)
}

// ttlTableDef is the TTL side table's SDL description. It is created
// lazily on first TTL call (ensureTTLTable), not by a migration — the
// design notes call out "TTL table exists" as a hazard when modeled as
// global mutable state; making creation an idempotent per-instance action
// avoids that without a process-static flag.
func ttlTableDef() sdl.TableDef {
	t := sdl.Table(ttlTable,
		sdl.Col("id").Integer().PrimaryKey().NotNull(),
		sdl.Col("expires_at").Integer().NotNull(),
	)
	return sdl.WithIndex(t, "", false, "expires_at")
}

// emitTTLSchema returns the CREATE TABLE + CREATE INDEX statements for
// the TTL side table, built from ttlTableDef via the same SDL emitters
// the LOG migration uses.
func emitTTLSchema() ([]string, error) {
	t := ttlTableDef()
	createTable, err := sdl.EmitCreateTable(t)
	if err != nil {
		return nil, err
	}
	indexStmts, err := sdl.EmitCreateIndexes(t)
	if err != nil {
		return nil, err
	}
	return append([]string{createTable}, indexStmts...), nil
}

func schemaMigrations() []migrate.Migration {
	createLog, err := sdl.EmitCreateTable(logTableDef())
	if err != nil {
		panic("sqliteadapter: invalid LOG schema: " + err.Error())
	}
	return []migrate.Migration{
		{Version: 1, Name: "create_log", Up: createLog},
	}
}
