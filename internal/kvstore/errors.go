package kvstore

import (
	"errors"
	"fmt"
)

// Sentinel errors, one per kind in the taxonomy. Callers compare with
// errors.Is; every operation that fails wraps one of these via KindError
// rather than returning it bare, so call-specific context survives.
var (
	ErrInvalidArgument = errors.New("kvidx: invalid argument")
	ErrNotFound        = errors.New("kvidx: not found")
	ErrConditionFailed = errors.New("kvidx: condition failed")
	ErrNotSupported    = errors.New("kvidx: not supported")
	ErrIO              = errors.New("kvidx: io error")
	ErrNoMemory        = errors.New("kvidx: no memory")
	ErrInternal        = errors.New("kvidx: internal error")
	ErrCancelled       = errors.New("kvidx: cancelled")

	// ErrTTLNotFound and ErrTTLNone are the TTL-specific sentinels for
	// getTTL: the former means LOG has no such key, the latter that LOG
	// has it but no TTL row exists.
	ErrTTLNotFound = errors.New("kvidx: ttl: key not found")
	ErrTTLNone     = errors.New("kvidx: ttl: no expiration set")
)

// KindError wraps a sentinel kind with call-specific context, so
// errors.Is(err, kvstore.ErrNotFound) keeps working while the error's
// message (e.g. of Instance.LastError) still carries useful detail.
type KindError struct {
	Kind error
	Op   string
	Err  error
}

func (e *KindError) Error() string {
	if e.Err != nil && e.Err != e.Kind {
		return fmt.Sprintf("kvidx: %s: %v: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("kvidx: %s: %v", e.Op, e.Kind)
}

// Unwrap lets errors.Is/errors.As see through to the sentinel kind.
func (e *KindError) Unwrap() error {
	return e.Kind
}

// Wrap builds a KindError for op, attributing the failure to kind and
// carrying the underlying error (if any) for diagnostics.
func Wrap(op string, kind error, err error) error {
	return &KindError{Kind: kind, Op: op, Err: err}
}
