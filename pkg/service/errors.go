package service

import (
	"errors"
	"fmt"
)

// ErrServiceBusy is returned by Call when a top-level call is already
// in flight on another goroutine: no method is re-entrant from a
// different caller.
var ErrServiceBusy = errors.New("service is busy with another call")

type NoSuchModuleError struct{ Name string }

func (e *NoSuchModuleError) Error() string { return fmt.Sprintf("no such module %q", e.Name) }

type ModuleAlreadyLoadedError struct{ Name string }

func (e *ModuleAlreadyLoadedError) Error() string {
	return fmt.Sprintf("module %q is already loaded", e.Name)
}

type ModuleInUseError struct{ Name string }

func (e *ModuleInUseError) Error() string {
	return fmt.Sprintf("module %q is in use by another loaded module's import", e.Name)
}

// TimeoutError reports a call that was still running when its
// Service-level epoch deadline (the ctx passed to Call) elapsed —
// wazero's CloseOnContextDone aborts the guest call and this module's
// instance at that point, so the call never returns normally.
type TimeoutError struct{ ModuleName, FunctionName string }

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("call to %s.%s timed out", e.ModuleName, e.FunctionName)
}

// TrapError reports a guest-side panic recovered at the Call boundary,
// the one place a panic crossing the wazero host-function boundary is
// converted back into a normal Go error rather than crashing the
// process.
type TrapError struct{ Detail string }

func (e *TrapError) Error() string { return fmt.Sprintf("trap: %s", e.Detail) }
