// Package linker resolves one module's cross-module imports into raw
// host functions that re-enter the owning Service, and maintains the
// module-import DAG a Service consults before loading or unloading a
// module. The DAG/cycle-detection responsibility is grounded on
// original_source/core/src/lib.rs's module-registry; OPA's own SDK
// loads exactly one module and has no analog for cross-module linking.
package linker

import (
	"context"
	"fmt"
	"sync"

	"github.com/fluencelabs/marine-sub002/pkg/engine"
	"github.com/fluencelabs/marine-sub002/pkg/hostimport"
	"github.com/fluencelabs/marine-sub002/pkg/ittype"
	"github.com/fluencelabs/marine-sub002/pkg/itsection"
	"github.com/fluencelabs/marine-sub002/pkg/lowerer"
)

// CrossModuleCaller re-enters the owning Service to route one
// cross-module call through the same lift/lower pipeline a top-level
// Service.Call uses. Linker holds this as a closure, set once via
// SetCaller after both Service and Linker exist, rather than importing
// pkg/service directly — pkg/service already imports pkg/linker, and a
// direct reverse import would be a cycle.
type CrossModuleCaller func(ctx context.Context, module, function string, args []ittype.IValue) (ittype.IValue, error)

// Linker owns the importer->imported module DAG plus every loaded
// module's exported signatures, keyed by module name.
type Linker struct {
	mu      sync.RWMutex
	disp    *hostimport.Dispatcher
	caller  CrossModuleCaller
	edges   map[string]map[string]struct{}            // importer -> set of imported module names
	exports map[string]map[string]ittype.FunctionSignature // module -> function name -> signature
}

// New returns a Linker sharing registry with the rest of the Service.
func New(registry *ittype.RecordRegistry) *Linker {
	return &Linker{
		disp:    &hostimport.Dispatcher{Registry: registry},
		edges:   make(map[string]map[string]struct{}),
		exports: make(map[string]map[string]ittype.FunctionSignature),
	}
}

// SetCaller wires the closure Resolve's synthesized host functions
// invoke for every cross-module call. Must be called once, after
// Service and Linker are both constructed and before any module is
// loaded.
func (l *Linker) SetCaller(caller CrossModuleCaller) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.caller = caller
}

// RegisterModule records moduleName's exported functions, making them
// resolvable as targets of another module's cross-module import. Call
// after a module instantiates successfully.
func (l *Linker) RegisterModule(moduleName string, exports map[string]ittype.FunctionSignature) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.exports[moduleName] = exports
	if l.edges[moduleName] == nil {
		l.edges[moduleName] = make(map[string]struct{})
	}
}

// Unregister drops moduleName from the DAG and export table, for
// Service.UnloadModule. Callers must have already checked ModuleInUse.
func (l *Linker) Unregister(moduleName string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.exports, moduleName)
	delete(l.edges, moduleName)
	for _, targets := range l.edges {
		delete(targets, moduleName)
	}
}

// ModuleInUse reports whether any other loaded module imports from
// moduleName, the condition Service.UnloadModule must reject on.
func (l *Linker) ModuleInUse(moduleName string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for importer, targets := range l.edges {
		if importer == moduleName {
			continue
		}
		if _, ok := targets[moduleName]; ok {
			return true
		}
	}
	return false
}

// Resolve synthesizes one engine.HostFunc per cross-module import in
// imports, re-entering l.caller on each invocation, and returns them
// for the importing module's instantiation. Host-namespaced imports
// (log_utf8_string, get_call_parameters, mounted_binary entries) are
// skipped here — those are built by hostimport.BuildStandardImports —
// so Resolve only ever sees imports whose namespace names another
// loaded module. A new edge set is checked against the existing DAG
// for cycles before being committed; on any error no edge from this
// call is committed, matching module.New's staged-registration
// atomicity.
func (l *Linker) Resolve(ctx context.Context, moduleName string, imports []itsection.Import, alloc lowerer.Allocator, sink hostimport.ResultSink) ([]engine.HostFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []engine.HostFunc
	newTargets := make(map[string]struct{})

	for _, imp := range imports {
		if itsection.IsHostImport(imp.Namespace) {
			continue
		}
		targetModule := imp.Namespace

		targetExports, ok := l.exports[targetModule]
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s imported by %s", ErrUnresolvedImport, targetModule, imp.Name, moduleName)
		}
		targetSig, ok := targetExports[imp.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s imported by %s", ErrUnresolvedImport, targetModule, imp.Name, moduleName)
		}
		if !signaturesEqual(targetSig, imp.Signature) {
			return nil, &ImportSignatureMismatchError{Importer: moduleName, Module: targetModule, Function: imp.Name}
		}
		if l.wouldCycleLocked(moduleName, targetModule) {
			return nil, &ModuleImportCycleError{From: moduleName, To: targetModule}
		}
		newTargets[targetModule] = struct{}{}

		target, fn := targetModule, imp.Name
		handler := func(ctx context.Context, args []ittype.IValue) (ittype.IValue, error) {
			if l.caller == nil {
				return nil, ErrNoCrossModuleCaller
			}
			return l.caller(ctx, target, fn, args)
		}
		out = append(out, l.disp.Build(imp.Namespace, imp.Name, imp.Signature, handler, alloc, sink))
	}

	if len(newTargets) > 0 {
		if l.edges[moduleName] == nil {
			l.edges[moduleName] = make(map[string]struct{})
		}
		for t := range newTargets {
			l.edges[moduleName][t] = struct{}{}
		}
	}
	return out, nil
}

// wouldCycleLocked reports whether adding an edge from->to would close
// a cycle: true iff to can already reach from through existing edges,
// or from==to. l.mu must be held.
func (l *Linker) wouldCycleLocked(from, to string) bool {
	if from == to {
		return true
	}
	visited := make(map[string]bool)
	var dfs func(string) bool
	dfs = func(n string) bool {
		if n == from {
			return true
		}
		if visited[n] {
			return false
		}
		visited[n] = true
		for next := range l.edges[n] {
			if dfs(next) {
				return true
			}
		}
		return false
	}
	return dfs(to)
}

func signaturesEqual(a, b ittype.FunctionSignature) bool {
	if len(a.Arguments) != len(b.Arguments) || len(a.Outputs) != len(b.Outputs) {
		return false
	}
	for i := range a.Arguments {
		if !ittype.TypesEqual(a.Arguments[i].Type, b.Arguments[i].Type) {
			return false
		}
	}
	for i := range a.Outputs {
		if !ittype.TypesEqual(a.Outputs[i], b.Outputs[i]) {
			return false
		}
	}
	return true
}
