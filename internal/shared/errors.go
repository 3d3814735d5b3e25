package shared

import "errors"

// Error taxonomy for the quotation engine. Services wrap these sentinels with
// fmt.Errorf("%w: ...") so callers classify with errors.Is while the message
// stays human readable.
var (
	// ErrInvalidInput indicates a malformed or incomplete payload, rejected
	// before any write.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict indicates a uniqueness violation or an illegal status
	// transition. The enclosing transaction is aborted.
	ErrConflict = errors.New("conflict")
	// ErrNotFound indicates the requested record does not exist in the
	// caller's scope.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized indicates a role or ownership check failure.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrTransient indicates a retryable storage failure (commit failure,
	// deadlock, serialization). Nothing was applied.
	ErrTransient = errors.New("transient storage failure")
)
