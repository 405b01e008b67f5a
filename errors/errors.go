package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseRead    Phase = "read"    // guest object to Go
	PhaseEncode  Phase = "encode"  // Go value to guest bytes
	PhaseAlloc   Phase = "alloc"   // __new + copy
	PhasePin     Phase = "pin"     // __pin / __unpin
	PhaseCollect Phase = "collect" // __collect
	PhaseConfig  Phase = "config"  // heap/engine configuration
	PhaseLoad    Phase = "load"    // module compilation
	PhaseRuntime Phase = "runtime" // instance calls
	PhaseHost    Phase = "host"    // env host functions
)

// Kind categorizes the error
type Kind string

const (
	KindHeaderMismatch Kind = "header_mismatch"
	KindDecodeFailure  Kind = "decode_failure"
	KindMissingExport  Kind = "missing_export"
	KindPinState       Kind = "pin_state"
	KindOutOfBounds    Kind = "out_of_bounds"
	KindInvalidInput   Kind = "invalid_input"
	KindNotFound       Kind = "not_found"
	KindInstantiation  Kind = "instantiation"
	KindGuestAbort     Kind = "guest_abort"
	KindGuestCall      Kind = "guest_call"
)

// Sentinels for errors.Is. They match any phase.
var (
	ErrHeaderMismatch = &Error{Kind: KindHeaderMismatch}
	ErrDecodeFailure  = &Error{Kind: KindDecodeFailure}
	ErrMissingExport  = &Error{Kind: KindMissingExport}
	ErrPinState       = &Error{Kind: KindPinState}
	ErrOutOfBounds    = &Error{Kind: KindOutOfBounds}
	ErrGuestAbort     = &Error{Kind: KindGuestAbort}
)

// Error is the structured error type used throughout the module
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Export string
	Detail string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Export != "" {
		b.WriteString(" (export ")
		b.WriteString(e.Export)
		b.WriteByte(')')
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
	if t.Phase != "" && t.Phase != e.Phase {
		return false
	}
	return e.Kind == t.Kind
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

// Export sets the guest export name involved
func (b *Builder) Export(name string) *Builder {
	b.err.Export = name
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

// HeaderMismatchError is returned when a guest object header carries a
// different runtime id than the read operation expects.
type HeaderMismatchError struct {
	Addr uint64 // host address of the object payload
	Got  uint32
	Want uint32
}

func (e *HeaderMismatchError) Error() string {
	return fmt.Sprintf("[read] header_mismatch: object at 0x%x has rtId %d, expected %d", e.Addr, e.Got, e.Want)
}

// Is matches other header mismatches and the ErrHeaderMismatch sentinel.
func (e *HeaderMismatchError) Is(target error) bool {
	switch t := target.(type) {
	case *HeaderMismatchError:
		return true
	case *Error:
		return t.Kind == KindHeaderMismatch && (t.Phase == "" || t.Phase == PhaseRead)
	}
	return false
}

// HeaderMismatch creates a header mismatch error
func HeaderMismatch(addr uint64, got, want uint32) *HeaderMismatchError {
	return &HeaderMismatchError{Addr: addr, Got: got, Want: want}
}

// DecodeFailure creates an error for payload bytes that are not valid text
func DecodeFailure(phase Phase, detail string, data []byte) *Error {
	preview := data
	if len(preview) > 32 {
		preview = preview[:32]
	}
	return New(phase, KindDecodeFailure).
		Detail("%s: %x", detail, preview).
		Build()
}

// MissingExport creates an error for a runtime export the guest does not provide
func MissingExport(phase Phase, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindMissingExport,
		Export: name,
		Detail: "guest was not built with its runtime exported",
	}
}

// PinState creates a pin/unpin ordering error
func PinState(ptr uint64, pinned bool) *Error {
	state := "not pinned"
	if pinned {
		state = "already pinned"
	}
	return &Error{
		Phase:  PhasePin,
		Kind:   KindPinState,
		Detail: fmt.Sprintf("object 0x%x is %s", ptr, state),
		Value:  ptr,
	}
}

// OutOfBounds creates an out of bounds error for a guest memory access
func OutOfBounds(phase Phase, addr uint64, length uint32, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("access of %d bytes at 0x%x", length, addr),
		Value:  addr,
		Cause:  cause,
	}
}

// GuestCall wraps a failed call into a guest export
func GuestCall(phase Phase, export string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindGuestCall,
		Export: export,
		Detail: "guest call failed",
		Cause:  cause,
	}
}

// GuestAbort creates an error for a guest that called env.abort
func GuestAbort(msg, file string, line, col uint32) *Error {
	return &Error{
		Phase:  PhaseHost,
		Kind:   KindGuestAbort,
		Detail: fmt.Sprintf("%s at %s:%d:%d", msg, file, line, col),
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

// Instantiation creates an instantiation error
func Instantiation(cause error) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindInstantiation,
		Detail: "instantiate module",
		Cause:  cause,
	}
}

// Load creates a module loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidInput,
		Detail: detail,
		Cause:  cause,
	}
}
