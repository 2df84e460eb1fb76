// Package kvidx is the embedded, single-process key-value index façade:
// ordered navigation, range operations, atomic read-modify-write,
// conditional writes, CAS, partial value edits, per-key TTL, and
// transactional batches over a durable store.
//
// Grounded on ry256-slb/internal/db/db.go's Open/OpenWithOptions/
// Transaction trio, generalized from "one SQLite-backed struct" to "thin
// forwarding layer over a kvstore.Backend interface" — the façade itself
// never branches on which backend is in play; only conformance to the
// Backend contract matters.
package kvidx

import "github.com/Dicklesworthstone/kvidx/internal/kvstore"

// Re-exported sentinel errors, so callers never need to import
// internal/kvstore directly.
var (
	ErrInvalidArgument = kvstore.ErrInvalidArgument
	ErrNotFound        = kvstore.ErrNotFound
	ErrConditionFailed = kvstore.ErrConditionFailed
	ErrNotSupported    = kvstore.ErrNotSupported
	ErrIO              = kvstore.ErrIO
	ErrNoMemory        = kvstore.ErrNoMemory
	ErrInternal        = kvstore.ErrInternal
	ErrCancelled       = kvstore.ErrCancelled
	ErrTTLNotFound     = kvstore.ErrTTLNotFound
	ErrTTLNone         = kvstore.ErrTTLNone
)

// Record, Condition, Stats, and ProgressFunc are re-exported so callers
// never need to import internal/kvstore directly either.
type (
	Record       = kvstore.Record
	Condition    = kvstore.Condition
	Stats        = kvstore.Stats
	ProgressFunc = kvstore.ProgressFunc
)

const (
	Always      = kvstore.Always
	IfNotExists = kvstore.IfNotExists
	IfExists    = kvstore.IfExists
)
