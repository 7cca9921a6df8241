package pipeline

import "fmt"

// Kind names a fatal error category, reported to the job store as
// View.Error.Code (spec.md §7). Kinds are checked with errors.Is, not
// string matching, grounded on the teacher's sentinel-error convention
// (manifold/internal/a2a/errors, manifold/internal/rag/service/errors.go).
type Kind string

const (
	KindNotFound        Kind = "NotFound"
	KindNoCandidates    Kind = "NoCandidates"
	KindNoInsights      Kind = "NoInsights"
	KindBadOutput       Kind = "BadOutput"
	KindCancelled       Kind = "Cancelled"
	KindUnexpectedPanic Kind = "UnexpectedPanic"
)

// Error is a fatal pipeline failure carrying the kind reported to clients.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("pipeline: %s: %s", e.Kind, e.Message)
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Is supports errors.Is(err, pipeline.ErrCancelled) style checks by
// matching on Kind when the target is also an *Error.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

// Sentinel errors for errors.Is comparisons against a bare Kind.
var (
	ErrCancelled = &Error{Kind: KindCancelled, Message: "cancelled"}
)
