// Package memerr defines the structured error taxonomy the core uses at
// every boundary. The core never raises a raw exception to a caller; every
// failure is a *memerr.Error carrying one of the Kind values below.
package memerr

import "fmt"

// Kind enumerates the error taxonomy from the spec's error handling design.
type Kind string

const (
	TemplateNotFound     Kind = "TemplateNotFound"
	CategoryConfigError  Kind = "CategoryConfigError"
	UnknownCategory      Kind = "UnknownCategory"
	CycleDetected        Kind = "CycleDetected"
	StorageIOError       Kind = "StorageIOError"
	StoragePersistFailed Kind = "StoragePersistFailed"
	EmbeddingFailed      Kind = "EmbeddingFailed"
	LLMCallFailed        Kind = "LLMCallFailed"
	LLMTimeout           Kind = "LLMTimeout"
	AgentGenerationFailed Kind = "AgentGenerationFailed"
	DependencyUnavailable Kind = "DependencyUnavailable"
	CancelledBySignal    Kind = "CancelledBySignal"
	InternalInvariant    Kind = "InternalInvariant"
)

// Error is the structured error shape surfaced at every boundary operation.
type Error struct {
	Kind Kind
	Op   string // operation that failed, e.g. "category.Registry.Register"
	Err  error  // wrapped cause, may be nil
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a Kind-tagged error whose cause is a plain error carrying msg.
func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf("%s", msg)}
}

// Wrap attaches a Kind and operation name to an underlying error.
func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Is reports whether err, or any *Error it wraps (directly or via a
// nested memerr.Error's own Err field), carries the given Kind. This lets
// a caller check for an inner kind (e.g. LLMCallFailed) even when an
// outer operation rewrapped it under a broader kind (e.g.
// AgentGenerationFailed).
func Is(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			if e.Kind == kind {
				return true
			}
			err = e.Err
			continue
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
