package errors

import (
	"fmt"
	"strings"
)

// Phase indicates which subsystem produced the error
type Phase string

const (
	PhaseValue   Phase = "value"   // tagged value access and copy
	PhaseStore   Phase = "store"   // named object table
	PhaseTrie    Phase = "trie"    // handle table
	PhaseShare   Phase = "share"   // cross-thread registry
	PhaseArchive Phase = "archive" // application archive mounting
	PhaseConfig  Phase = "config"  // application configuration
	PhaseScript  Phase = "script"  // scripting layer
	PhaseEngine  Phase = "engine"  // engine shell lifecycle
	PhaseCodec   Phase = "codec"   // binary-to-text codecs
)

// Kind categorizes the error
type Kind string

const (
	KindAllocation     Kind = "allocation"
	KindIDExhausted    Kind = "id_exhausted"
	KindInvalidVariant Kind = "invalid_variant"
	KindReleased       Kind = "released"
	KindNotFound       Kind = "not_found"
	KindInvalidInput   Kind = "invalid_input"
	KindInvalidData    Kind = "invalid_data"
	KindUnsupported    Kind = "unsupported"
	KindClosed         Kind = "closed"
	KindOutOfBounds    Kind = "out_of_bounds"
)

// Sentinels for errors.Is checks that only care about the kind.
var (
	ErrAllocation     = &Error{Kind: KindAllocation}
	ErrIDExhausted    = &Error{Kind: KindIDExhausted}
	ErrInvalidVariant = &Error{Kind: KindInvalidVariant}
	ErrReleased       = &Error{Kind: KindReleased}
	ErrClosed         = &Error{Kind: KindClosed}
	ErrNotFound       = &Error{Kind: KindNotFound}
)

// Error is the structured error type used throughout the engine
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	if e.Phase != "" {
		b.WriteByte('[')
		b.WriteString(string(e.Phase))
		b.WriteString("] ")
	}
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// A target without a phase matches on kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase == "" {
		return e.Kind == t.Kind
	}
	return e.Phase == t.Phase && e.Kind == t.Kind
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the key path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// AllocationFailed reports that backing storage could not be obtained.
func AllocationFailed(phase Phase, what string, size uint64) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("cannot allocate %s of %d slots", what, size),
		Value:  size,
	}
}

// IDExhausted reports that the handle counter passed the id-width ceiling.
func IDExhausted(bits int, next uint64) *Error {
	return &Error{
		Phase:  PhaseTrie,
		Kind:   KindIDExhausted,
		Detail: fmt.Sprintf("handle %d exceeds %d-bit identity space", next, bits),
		Value:  next,
	}
}

// InvalidVariant reports a read of a tagged value through the wrong arm.
func InvalidVariant(name, want, have string) *Error {
	return &Error{
		Phase:  PhaseValue,
		Kind:   KindInvalidVariant,
		Path:   []string{name},
		Detail: fmt.Sprintf("read as %s, holds %s", want, have),
	}
}

// Released reports access to a value whose buffer was already released.
func Released(name, kind string) *Error {
	return &Error{
		Phase:  PhaseValue,
		Kind:   KindReleased,
		Path:   []string{name},
		Detail: fmt.Sprintf("%s buffer already released", kind),
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, path []string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
	}
}

// Closed reports use of a component after Close.
func Closed(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindClosed,
		Detail: fmt.Sprintf("%s closed", what),
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Load creates an application loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseArchive,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}

// ParseFailed creates a configuration parsing error
func ParseFailed(what string, cause error) *Error {
	return &Error{
		Phase:  PhaseConfig,
		Kind:   KindInvalidData,
		Detail: fmt.Sprintf("parse %s", what),
		Cause:  cause,
	}
}
