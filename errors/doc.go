// Package errors provides structured error types for the wrx engine.
//
// Errors are categorized by Phase (which subsystem failed) and Kind (error category).
// The Error type carries the key path, a detail message and the cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseStore, errors.KindAllocation).
//		Path("sprites", "hero.png").
//		Detail("bucket array of %d slots", 1<<20).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.AllocationFailed(errors.PhaseStore, "bucket array", 1024)
//	err := errors.IDExhausted(16, 65536)
//
// Kind-only sentinels (ErrAllocation, ErrIDExhausted, ErrInvalidVariant, ...)
// match any phase:
//
//	if errors.Is(err, wrxerrors.ErrAllocation) { ... }
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
