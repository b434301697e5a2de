package hostimport

import "errors"

var (
	// ErrMalformedCallParameters is returned when a record claiming to
	// be the CallParameters shape does not match the registered schema.
	ErrMalformedCallParameters = errors.New("malformed call parameters record")
	// ErrMountedBinaryEmptyArgs is returned when mounted_binary is
	// invoked with an empty argument array — there is no program name
	// to execute.
	ErrMountedBinaryEmptyArgs = errors.New("mounted binary call has empty args")
	// ErrMountedBinaryNotConfigured is returned when a module invokes
	// mounted_binary under a name with no corresponding path in its
	// configuration.
	ErrMountedBinaryNotConfigured = errors.New("mounted binary not configured")
	// ErrNoResultSink is returned when a host import's output
	// materializes in memory but no ResultSink was wired to carry it
	// back via set_result_ptr/set_result_size.
	ErrNoResultSink = errors.New("no result sink configured for in-memory output")
)
