package libdex

import "errors"

// Kind classifies a rejection reason into the taxonomy a caller can branch
// on without string matching. It is carried by *Error; the core's other
// error type, *AggregateError (Any's all-rejected case), has no Kind.
type Kind string

const (
	// TimedOut marks a timeout source's rejection after its deadline elapses.
	TimedOut Kind = "TIMED_OUT"
	// Closed marks rejection of an operation attempted against a closed
	// bounded channel endpoint.
	Closed Kind = "CLOSED"
	// Cancelled marks rejection propagated from an explicitly cancelled
	// source (see UnixSignal).
	Cancelled Kind = "CANCELLED"
	// DependencyFailed marks All rejecting because one of its constituent
	// futures rejected.
	DependencyFailed Kind = "DEPENDENCY_FAILED"
	// Failed is the catch-all for invalid arguments and other core-detected
	// failures that are not one of the above (nil future, non-positive
	// channel capacity, and similar caller errors).
	Failed Kind = "FAILED"
)

// Error is the error type the core constructs for rejections it originates
// itself. Rejections carrying a caller-supplied reason pass through as they
// are, except in All, which wraps the reason as the Cause of a
// DependencyFailed *Error. errors.Is matches an *Error against any other
// *Error of the same Kind (see Is), and it unwraps to an optional
// underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// NewError constructs an *Error of the given kind with no further cause.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapError constructs an *Error of the given kind wrapping cause.
func WrapError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Message
}

// Unwrap returns the wrapped cause, if any, for errors.Is/errors.As chains.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same Kind, regardless of
// Message or Cause, so callers can write
// errors.Is(err, libdex.NewError(libdex.TimedOut, "")) to test the kind
// without caring about the message.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return other.Kind == e.Kind
	}
	return false
}

// AggregateError collects the rejection reasons of every constituent future
// that failed, used by Any when every one of its inputs rejects (or when it
// is given none). The constituent errors are exposed via Unwrap, so
// errors.Is/errors.As walk into any of them.
type AggregateError struct {
	Message string
	Errors  []error
}

func (e *AggregateError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	switch len(e.Errors) {
	case 0:
		return "aggregate error"
	case 1:
		return e.Errors[0].Error()
	default:
		return e.Errors[0].Error() + " (+ more)"
	}
}

// Unwrap exposes every constituent error for multi-error unwrapping.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// Is reports true for any target that is itself an *AggregateError.
func (e *AggregateError) Is(target error) bool {
	var other *AggregateError
	return errors.As(target, &other)
}
