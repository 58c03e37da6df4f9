package common

import (
	"errors"
	"fmt"
)

var (
	ErrNotAllBytesConsumed = errors.New("serialization error: not all bytes were consumed")

	// ErrDBUnavailable implementations of KV storage may choose to panic with this error in case the
	// underlying storage is closed or unavailable
	ErrDBUnavailable = errors.New("database is closed or unavailable")
)

// Kind classifies the error returned by a fragment layer or tree operation.
type Kind int

const (
	// StoreUnavailable: the underlying KV operation failed to complete. Retry at the caller level.
	StoreUnavailable Kind = iota
	// StoreInconsistent: a reference resolved to absent, or a fragment failed decoder validation.
	// Fatal for the operation: it indicates corruption or a bug.
	StoreInconsistent
	// InvalidKey: a key cannot be compared against existing keys (incompatible types).
	InvalidKey
	// InvariantViolation: a structural check failed (e.g. entry count outside [b, 2b-1]).
	InvariantViolation
)

func (k Kind) String() string {
	switch k {
	case StoreUnavailable:
		return "StoreUnavailable"
	case StoreInconsistent:
		return "StoreInconsistent"
	case InvalidKey:
		return "InvalidKey"
	case InvariantViolation:
		return "InvariantViolation"
	default:
		return "UnknownKind"
	}
}

// KindError wraps an underlying cause with one of the four error kinds, so callers can
// switch on Kind() instead of matching message strings.
type KindError struct {
	kind Kind
	err  error
}

func NewKindError(k Kind, format string, args ...any) *KindError {
	return &KindError{kind: k, err: fmt.Errorf(format, args...)}
}

func WrapKindError(k Kind, err error) *KindError {
	return &KindError{kind: k, err: err}
}

func (e *KindError) Kind() Kind { return e.kind }

func (e *KindError) Error() string {
	return fmt.Sprintf("%s: %s", e.kind, e.err)
}

func (e *KindError) Unwrap() error { return e.err }

// IsKind reports whether err (or something it wraps) is a *KindError of kind k.
func IsKind(err error, k Kind) bool {
	var ke *KindError
	if errors.As(err, &ke) {
		return ke.kind == k
	}
	return false
}
