package lowerer

import "errors"

var (
	// ErrAllocationFailed is returned when the guest's allocate export
	// fails or traps.
	ErrAllocationFailed = errors.New("guest allocation failed")
	// ErrWriteFailed is returned when writing lowered bytes into guest
	// memory fails after a successful allocation (e.g. the guest grew
	// or otherwise changed memory unexpectedly).
	ErrWriteFailed = errors.New("writing to guest memory failed")
	// ErrRecordArity is returned when a RecordValue's field count does
	// not match its registered schema.
	ErrRecordArity = errors.New("record value field count mismatch")
	// ErrUnsupportedValue mirrors lifter.ErrUnsupportedType; defensive
	// default case for the closed IValue sum.
	ErrUnsupportedValue = errors.New("unsupported interface value")
)
