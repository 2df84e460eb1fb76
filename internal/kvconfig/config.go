// Package kvconfig builds and defaults the configuration surface kvidx
// exposes to callers, and turns it into the pragma-laden DSN
// internal/sqliteadapter hands to database/sql.
//
// Grounded on ry256-slb/internal/db/db.go's OpenOptions/DefaultOpenOptions
// and its "file:%s?_pragma=..." DSN construction, extended with the
// additional pragmas spec.md §6 names.
package kvconfig

import (
	"fmt"

	"github.com/Dicklesworthstone/kvidx/internal/kvstore"
)

// Journal modes recognized by Config.JournalMode.
const (
	JournalDelete   = "DELETE"
	JournalTruncate = "TRUNCATE"
	JournalPersist  = "PERSIST"
	JournalMemory   = "MEMORY"
	JournalWAL      = "WAL"
	JournalOff      = "OFF"
)

// Sync modes recognized by Config.SyncMode.
const (
	SyncOff    = "OFF"
	SyncNormal = "NORMAL"
	SyncFull   = "FULL"
	SyncExtra  = "EXTRA"
)

const (
	defaultCacheSizeBytes = 32 * 1024 * 1024
	defaultBusyTimeoutMs  = 5000
)

// Config is a type alias for kvstore.Config so callers of this package and
// callers of internal/kvstore see the same type.
type Config = kvstore.Config

// Default returns the configuration spec.md §6 lists as defaults.
func Default() Config {
	return Config{
		CacheSizeBytes:          defaultCacheSizeBytes,
		VFSName:                 "",
		JournalMode:             JournalWAL,
		SyncMode:                SyncNormal,
		EnableRecursiveTriggers: true,
		EnableForeignKeys:       false,
		ReadOnly:                false,
		BusyTimeoutMs:           defaultBusyTimeoutMs,
		MmapSizeBytes:           0,
		PageSize:                0,
	}
}

// Normalize fills zero-valued fields with defaults, so a caller can pass a
// partially populated Config (e.g. only overriding JournalMode) the way
// the teacher's OpenWithOptions accepted a partially populated OpenOptions.
func Normalize(cfg Config) Config {
	d := Default()
	if cfg.CacheSizeBytes == 0 {
		cfg.CacheSizeBytes = d.CacheSizeBytes
	}
	if cfg.JournalMode == "" {
		cfg.JournalMode = d.JournalMode
	}
	if cfg.SyncMode == "" {
		cfg.SyncMode = d.SyncMode
	}
	if cfg.BusyTimeoutMs == 0 {
		cfg.BusyTimeoutMs = d.BusyTimeoutMs
	}
	return cfg
}

// IsEphemeral reports whether path is the reserved ":memory:" token, which
// selects an ephemeral store using the driver's default (non-exclusive)
// locking regardless of Config.
func IsEphemeral(path string) bool {
	return path == ":memory:"
}

// DSN builds the modernc.org/sqlite connection string for path under cfg.
// cacheKiB encodes cache_size in KiB (SQLite's own convention:
// a negative cache_size pragma argument means "KiB", positive means
// "pages") so CacheSizeBytes translates directly.
func DSN(path string, cfg Config) string {
	if IsEphemeral(path) {
		return "file::memory:?cache=shared"
	}

	cfg = Normalize(cfg)
	cacheKiB := cfg.CacheSizeBytes / 1024
	if cacheKiB <= 0 {
		cacheKiB = defaultCacheSizeBytes / 1024
	}

	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(%s)&_pragma=busy_timeout(%d)&_pragma=synchronous(%s)&_pragma=cache_size(-%d)",
		path, cfg.JournalMode, cfg.BusyTimeoutMs, cfg.SyncMode, cacheKiB,
	)

	if cfg.EnableRecursiveTriggers {
		dsn += "&_pragma=recursive_triggers(ON)"
	} else {
		dsn += "&_pragma=recursive_triggers(OFF)"
	}
	if cfg.EnableForeignKeys {
		dsn += "&_pragma=foreign_keys(ON)"
	} else {
		dsn += "&_pragma=foreign_keys(OFF)"
	}
	if cfg.MmapSizeBytes > 0 {
		dsn += fmt.Sprintf("&_pragma=mmap_size(%d)", cfg.MmapSizeBytes)
	}
	if cfg.PageSize > 0 {
		dsn += fmt.Sprintf("&_pragma=page_size(%d)", cfg.PageSize)
	}
	if cfg.VFSName != "" {
		dsn += fmt.Sprintf("&vfs=%s", cfg.VFSName)
	}
	if cfg.ReadOnly {
		dsn += "&mode=ro"
	}

	return dsn
}
