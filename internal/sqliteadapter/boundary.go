package sqliteadapter

// id is stored as SQLite's native signed 64-bit INTEGER, but spec.md keys
// are unsigned. signedID/unsignedID are the bit-for-bit reinterpretation
// between the two — equality and storage never need more than this cast.
//
// Ordered comparisons do need more: the bit pattern for the upper half of
// the u64 range (2^63..2^64-1) reads as negative once cast to int64, so a
// plain "ORDER BY id" or "WHERE id > ?" sorts and filters in the wrong
// order across that boundary. Every id in [0, 2^63) casts to a
// non-negative int64 and keeps signed order; every id in [2^63, 2^64)
// casts to a negative int64 and *also* keeps signed order *within that
// group*, because incrementing the unsigned value increments the two's
// complement bit pattern the same way. So unsigned order is: all
// non-negative ids ascending, followed by all negative ids ascending.
// Splitting every ordered query into "low group" (id >= 0) and "high
// group" (id < 0) sub-queries — never comparing across the two directly —
// recovers correct unsigned semantics with ordinary signed SQL.
func signedID(id uint64) int64  { return int64(id) }
func unsignedID(id int64) uint64 { return uint64(id) }

// boundary carries the two WHERE-clause fragments (and bind args) needed
// to express an unsigned comparison "id >= X" / "id > X" / "id <= X" /
// "id < X" against the signed id column, split across the low/high
// group boundary described above.
type boundary struct {
	loClause string // fragment restricted to id >= 0
	loArgs   []any
	hiClause string // fragment restricted to id < 0
	hiArgs   []any
}

// gte builds "id >=u x": low group qualifies iff x itself is low (id>=x),
// high group always qualifies when x is low, and only id>=x within the
// high group qualifies when x is itself high.
func gte(x uint64) boundary {
	sx := signedID(x)
	if sx >= 0 {
		return boundary{
			loClause: "id >= ?", loArgs: []any{sx},
			hiClause: "1=1",
		}
	}
	return boundary{
		loClause: "1=0",
		hiClause: "id >= ?", hiArgs: []any{sx},
	}
}

// gt builds "id >u x".
func gt(x uint64) boundary {
	sx := signedID(x)
	if sx >= 0 {
		return boundary{
			loClause: "id > ?", loArgs: []any{sx},
			hiClause: "1=1",
		}
	}
	return boundary{
		loClause: "1=0",
		hiClause: "id > ?", hiArgs: []any{sx},
	}
}

// lte builds "id <=u x".
func lte(x uint64) boundary {
	sx := signedID(x)
	if sx >= 0 {
		return boundary{
			loClause: "id <= ?", loArgs: []any{sx},
			hiClause: "1=0",
		}
	}
	return boundary{
		loClause: "1=1",
		hiClause: "id <= ?", hiArgs: []any{sx},
	}
}

// lt builds "id <u x".
func lt(x uint64) boundary {
	sx := signedID(x)
	if sx >= 0 {
		return boundary{
			loClause: "id < ?", loArgs: []any{sx},
			hiClause: "1=0",
		}
	}
	return boundary{
		loClause: "1=1",
		hiClause: "id < ?", hiArgs: []any{sx},
	}
}

// whereClause combines a pair of boundaries (lower bound, upper bound;
// either may be nil for "unbounded") into one SQL WHERE body applicable
// to the whole table: (low-group rows satisfying both) OR (high-group
// rows satisfying both). Argument order matches placeholder order left
// to right in the returned clause.
func whereClause(lower, upper *boundary) (string, []any) {
	lowLowClause, lowUpClause := "1=1", "1=1"
	hiLowClause, hiUpClause := "1=1", "1=1"
	var lowLowArgs, lowUpArgs, hiLowArgs, hiUpArgs []any

	if lower != nil {
		lowLowClause = lower.loClause
		lowLowArgs = lower.loArgs
		hiLowClause = lower.hiClause
		hiLowArgs = lower.hiArgs
	}
	if upper != nil {
		lowUpClause = upper.loClause
		lowUpArgs = upper.loArgs
		hiUpClause = upper.hiClause
		hiUpArgs = upper.hiArgs
	}

	clause := "((id >= 0 AND " + lowLowClause + " AND " + lowUpClause + ") OR (id < 0 AND " + hiLowClause + " AND " + hiUpClause + "))"
	var args []any
	args = append(args, lowLowArgs...)
	args = append(args, lowUpArgs...)
	args = append(args, hiLowArgs...)
	args = append(args, hiUpArgs...)
	return clause, args
}
