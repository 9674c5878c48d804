package evque

import "github.com/pkg/errors"

// Kind is the error taxonomy a synthetic EV_ERROR record's Data field
// carries, and the type wrapped by whole-call errors.
type Kind int

const (
	// NoSuchFilter reports an unregistered filter id.
	NoSuchFilter Kind = iota + 1
	// BadIdent reports ident is not open, is the wrong type, or is gone.
	BadIdent
	// FilterRefusedAttach reports the filter's Attach returned an error.
	FilterRefusedAttach
	// NoSuchRegistration reports a Delete or Enable/Disable-only modify
	// against a (filter,ident) pair that is not registered.
	NoSuchRegistration
	// OutOfMemory reports allocation failure (e.g. the scan sentinel).
	OutOfMemory
	// InvalidArgument reports a malformed descriptor.
	InvalidArgument
	// Interrupted reports ModifyAndWait's scan returned early due to an
	// external cancellation. Not an error for scan itself; see ModifyAndWait.
	Interrupted
	// TimedOut reports the scan's deadline elapsed. Not an error for
	// scan itself; see ModifyAndWait.
	TimedOut
)

func (k Kind) String() string {
	switch k {
	case NoSuchFilter:
		return "no such filter"
	case BadIdent:
		return "bad ident"
	case FilterRefusedAttach:
		return "filter refused attach"
	case NoSuchRegistration:
		return "no such registration"
	case OutOfMemory:
		return "out of memory"
	case InvalidArgument:
		return "invalid argument"
	case Interrupted:
		return "interrupted"
	case TimedOut:
		return "timed out"
	default:
		return "unknown error kind"
	}
}

// Error wraps a Kind as an error value. validateFD returns one; the
// registration path turns it into a BadIdent EV_ERROR record, so per-change
// failures reach the caller inline, never as an Error. A destroyed queue is
// reported by ModifyAndWait as ErrDestroyed.
type Error struct {
	Kind Kind
	// Cause is the underlying error, if any (e.g. the fcntl error behind
	// a BadIdent), wrapped for %+v stack traces via github.com/pkg/errors.
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Kind.String() + ": " + e.Cause.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Cause }

func newError(kind Kind, cause error) *Error {
	if cause != nil {
		cause = errors.WithStack(cause)
	}
	return &Error{Kind: kind, Cause: cause}
}

// ErrDestroyed is returned by ModifyAndWait once the queue's last handle
// has been closed.
var ErrDestroyed = errors.New("evque: queue is destroyed")
