package linker

import (
	"errors"
	"fmt"
)

// ErrUnresolvedImport is returned when a module imports a function
// from another module that either has not been loaded yet or does not
// export a function of that name.
var ErrUnresolvedImport = errors.New("unresolved cross-module import")

// ErrNoCrossModuleCaller is returned if a cross-module import fires
// before Service has called SetCaller — a construction-order bug, not
// a user-facing condition.
var ErrNoCrossModuleCaller = errors.New("linker has no cross-module caller configured")

// ImportSignatureMismatchError is returned when an imported function's
// declared signature does not match what the target module actually
// exports.
type ImportSignatureMismatchError struct {
	Importer string
	Module   string
	Function string
}

func (e *ImportSignatureMismatchError) Error() string {
	return fmt.Sprintf("%s imports %s.%s with a signature that does not match the export", e.Importer, e.Module, e.Function)
}

// ModuleImportCycleError is returned when resolving an import would
// close a cycle in the module-import DAG.
type ModuleImportCycleError struct {
	From string
	To   string
}

func (e *ModuleImportCycleError) Error() string {
	return fmt.Sprintf("module import from %q to %q would close a cycle", e.From, e.To)
}
