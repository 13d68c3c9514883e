package types

import "errors"

var (
	// ErrNoMatch is reported when a query yields zero recognized invocations.
	// It is informational; callers decide whether it is fatal.
	ErrNoMatch = errors.New("no recognized layout invocation")

	ErrAnchorNotFound     = errors.New("anchor declaration not found")
	ErrEmptyGrid          = errors.New("layout invocation has no arguments")
	ErrNestedInvocation   = errors.New("nested layout invocation")
	ErrQueueExhausted     = errors.New("pending grid queue exhausted")
	ErrQueueNotDrained    = errors.New("pending grids left after splice")
	ErrIdentifierMismatch = errors.New("layout identifier changed between passes")
	ErrReformatFailed     = errors.New("reformatter failed")
	ErrEncoding           = errors.New("text is not valid UTF-8")
	ErrInvalidConfig      = errors.New("invalid configuration")
)
