package lifter

import "errors"

var (
	// ErrNotEnoughValues is returned when a lift operation runs out of
	// raw values before the declared type is fully consumed.
	ErrNotEnoughValues = errors.New("not enough raw values to lift the declared type")
	// ErrInvalidMemoryAccess is returned when a string/byte-array/array
	// lift references an out-of-bounds guest memory region.
	ErrInvalidMemoryAccess = errors.New("invalid guest memory access while lifting")
	// ErrInvalidUTF8 is returned when a String lift's backing bytes are
	// not valid UTF-8.
	ErrInvalidUTF8 = errors.New("lifted string is not valid UTF-8")
	// ErrUnsupportedType is returned for an IType outside the closed set
	// (should be unreachable given the type is a closed Go sum, kept as
	// a defensive default case in the type switch).
	ErrUnsupportedType = errors.New("unsupported interface type")
)
