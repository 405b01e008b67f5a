// Package errors provides structured error types for ascmem.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseAlloc, errors.KindGuestCall).
//		Export("__new").
//		Value(size).
//		Detail("allocator returned null").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.MissingExport(errors.PhaseCollect, "__collect")
//	err := errors.PinState(ptr, true)
//
// Sentinels match any phase, so callers can branch on the kind alone:
//
//	if errors.Is(err, ascerrors.ErrHeaderMismatch) { ... }
package errors
