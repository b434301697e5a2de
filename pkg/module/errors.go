package module

import "fmt"

type NoSuchFunctionError struct{ Name string }

func (e *NoSuchFunctionError) Error() string { return fmt.Sprintf("no such function %q", e.Name) }

type ArgumentCountMismatchError struct {
	Function string
	Want     int
	Got      int
}

func (e *ArgumentCountMismatchError) Error() string {
	return fmt.Sprintf("%s: expected %d arguments, got %d", e.Function, e.Want, e.Got)
}

type ArgumentTypeMismatchError struct {
	Function string
	Index    int
	Want     string
	Got      string
}

func (e *ArgumentTypeMismatchError) Error() string {
	return fmt.Sprintf("%s: argument %d expected %s, got %s", e.Function, e.Index, e.Want, e.Got)
}

type InstantiationError struct{ Detail string }

func (e *InstantiationError) Error() string { return fmt.Sprintf("instantiation failed: %s", e.Detail) }

type MissingGuestExportError struct{ Name string }

func (e *MissingGuestExportError) Error() string {
	return fmt.Sprintf("module does not export required function %q", e.Name)
}

var (
	// ErrNotYetInstantiated guards against a host import firing (via a
	// re-entrant call from within the guest's own start section) before
	// this module's own instantiation has completed and its Allocator
	// closures have a live engine.Instance to call through.
	ErrNotYetInstantiated = fmt.Errorf("module allocator invoked before instantiation completed")
	// ErrNoResultRetrieval is returned when a module exports a function
	// whose declared return type materializes in memory but the module
	// does not also export get_result_ptr/get_result_size.
	ErrNoResultRetrieval = fmt.Errorf("module exports a compound-result function but not get_result_ptr/get_result_size")
)
