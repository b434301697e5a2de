// Package service implements the top-level FaaS facade: loading and
// unloading modules, routing calls into them (including cross-module
// re-entrancy), and reporting the service-wide interface and memory
// statistics. Grounded on OPA's own SDK lifecycle facade shape and
// original_source/crates/fluence-app-service/src/{app_service_factory,service_interface}.rs's
// multi-module orchestration.
package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/fluencelabs/marine-sub002/internal/rtlog"
	"github.com/fluencelabs/marine-sub002/pkg/hostimport"
	"github.com/fluencelabs/marine-sub002/pkg/ittype"
	"github.com/fluencelabs/marine-sub002/pkg/engine"
	"github.com/fluencelabs/marine-sub002/pkg/linker"
	"github.com/fluencelabs/marine-sub002/pkg/module"
)

// Service owns every loaded module, the record registry and linker
// they share, and the call-parameter stack a top-level Call pushes
// exactly once regardless of how many cross-module calls it triggers.
type Service struct {
	mu        sync.Mutex
	instances map[string]*module.Instance
	registry  *ittype.RecordRegistry
	linker    *linker.Linker
	rt        engine.Runtime
	log       *logrus.Logger
	callStack []hostimport.CallParameters
}

// New constructs an empty Service backed by rt, registering the two
// standard record schemas (CallParameters, MountedBinaryResult) every
// module's standard host imports depend on.
func New(rt engine.Runtime, log *logrus.Logger) (*Service, error) {
	registry := ittype.NewRecordRegistry()
	if err := hostimport.RegisterStandardSchemas(registry); err != nil {
		return nil, fmt.Errorf("registering standard schemas: %w", err)
	}
	s := &Service{
		instances: make(map[string]*module.Instance),
		registry:  registry,
		linker:    linker.New(registry),
		rt:        rt,
		log:       log,
	}
	s.linker.SetCaller(s.crossModuleCall)
	return s, nil
}

// LoadModule instantiates wasmBytes under name and cfg and, on
// success, registers its exports with the linker so other modules can
// import from it. module.New itself rolls back the record registry
// additions it makes on failure; LoadModule drops any import edges the
// linker recorded for name during that attempt and adds no
// instances/exports to this Service's own tables until it succeeds, so
// a failed load leaves the Service state unchanged.
func (s *Service) LoadModule(ctx context.Context, name string, wasmBytes []byte, cfg module.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.instances[name]; exists {
		return &ModuleAlreadyLoadedError{Name: name}
	}

	disp := &hostimport.Dispatcher{Registry: s.registry}
	inst, err := module.New(ctx, name, wasmBytes, cfg, s.registry, s.rt, disp, s.linker,
		s.currentCallParams, rtlog.For(s.log, name))
	if err != nil {
		s.linker.Unregister(name)
		return err
	}

	s.instances[name] = inst
	s.linker.RegisterModule(name, inst.Exports())
	return nil
}

// UnloadModule removes name's instance, failing ModuleInUse if any
// other loaded module still imports from it, then garbage-collects
// every record id no longer referenced by any remaining module's
// signatures.
func (s *Service) UnloadModule(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inst, ok := s.instances[name]
	if !ok {
		return &NoSuchModuleError{Name: name}
	}
	if s.linker.ModuleInUse(name) {
		return &ModuleInUseError{Name: name}
	}

	if err := inst.Close(ctx); err != nil {
		return fmt.Errorf("closing module %q: %w", name, err)
	}
	delete(s.instances, name)
	s.linker.Unregister(name)

	live := map[uint64]struct{}{
		hostimport.CallParametersRecordID:      {},
		hostimport.MountedBinaryResultRecordID: {},
	}
	for _, other := range s.instances {
		for _, sig := range other.Exports() {
			for _, a := range sig.Arguments {
				collectRecordIDs(a.Type, live)
			}
			for _, o := range sig.Outputs {
				collectRecordIDs(o, live)
			}
		}
	}
	s.registry.GC(live)
	return nil
}

// Call is the single entry point for a top-level invocation: it fails
// ErrServiceBusy rather than block if another top-level call is
// already in flight, keeping the whole Service single-threaded and
// cooperative rather than re-entrant across callers, otherwise pushes
// params as the one call-parameter stack frame every
// nested cross-module call triggered from within will observe, and
// recovers a guest-side panic into a TrapError.
func (s *Service) Call(ctx context.Context, moduleName, functionName string, args []ittype.IValue, params hostimport.CallParameters) (ittype.IValue, error) {
	if !s.mu.TryLock() {
		return nil, ErrServiceBusy
	}
	defer s.mu.Unlock()

	if params.CallID == "" {
		params.CallID = hostimport.NewCallID()
	}
	s.callStack = append(s.callStack, params)
	defer func() { s.callStack = s.callStack[:len(s.callStack)-1] }()

	return s.callInternal(ctx, moduleName, functionName, args)
}

// crossModuleCall is the linker.CrossModuleCaller Resolve's synthesized
// host functions invoke: same call path as Call minus the mutex
// acquisition and stack push, since it always runs on the same
// goroutine inside an already-in-flight top-level Call.
func (s *Service) crossModuleCall(ctx context.Context, moduleName, functionName string, args []ittype.IValue) (ittype.IValue, error) {
	return s.callInternal(ctx, moduleName, functionName, args)
}

func (s *Service) callInternal(ctx context.Context, moduleName, functionName string, args []ittype.IValue) (result ittype.IValue, err error) {
	inst, ok := s.instances[moduleName]
	if !ok {
		return nil, &NoSuchModuleError{Name: moduleName}
	}
	defer func() {
		if r := recover(); r != nil {
			err = &TrapError{Detail: fmt.Sprintf("%v", r)}
		}
	}()
	result, err = inst.Call(ctx, functionName, args)
	if err != nil && ctx.Err() == context.DeadlineExceeded {
		return nil, &TimeoutError{ModuleName: moduleName, FunctionName: functionName}
	}
	return result, err
}

// currentCallParams is threaded into every module's get_call_parameters
// standard import; it always reads the single outermost frame, so a
// nested cross-module call sees the same parameters the top-level
// caller supplied.
func (s *Service) currentCallParams() hostimport.CallParameters {
	if len(s.callStack) == 0 {
		return hostimport.CallParameters{}
	}
	return s.callStack[len(s.callStack)-1]
}

// ModuleMemoryStats reports every loaded module's linear memory size
// and allocation-reject count.
func (s *Service) ModuleMemoryStats() MemoryStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats MemoryStats
	for _, name := range s.sortedModuleNamesLocked() {
		inst := s.instances[name]
		stats.Modules = append(stats.Modules, ModuleMemoryStat{
			Name:              name,
			MemorySize:        inst.MemorySize(),
			AllocationRejects: inst.AllocationRejects(),
		})
	}
	return stats
}

// ModuleInterface is one loaded module's rendered functions.
type ModuleInterface struct {
	Name      string
	Functions []FunctionInterface
}

// FunctionInterface is one function signature rendered as
// human-readable type strings.
type FunctionInterface struct {
	Name      string
	Arguments []string
	Outputs   []string
}

// RecordInterface is one record schema rendered the same way.
type RecordInterface struct {
	Name   string
	Fields []RecordFieldInterface
}

// RecordFieldInterface is one rendered record field, ordered.
type RecordFieldInterface struct {
	Name string
	Type string
}

// Interface is the full get_interface() report.
type Interface struct {
	Modules []ModuleInterface
	Records []RecordInterface
}

// GetInterface enumerates every loaded module's function signatures
// and every record schema any of them reference, each rendered via
// ittype.TextView, mirroring service_interface.rs's shape.
func (s *Service) GetInterface() Interface {
	s.mu.Lock()
	defer s.mu.Unlock()

	liveRecords := make(map[uint64]struct{})
	var modules []ModuleInterface
	for _, name := range s.sortedModuleNamesLocked() {
		inst := s.instances[name]
		mi := ModuleInterface{Name: name}
		exports := inst.Exports()
		fnNames := make([]string, 0, len(exports))
		for fn := range exports {
			fnNames = append(fnNames, fn)
		}
		sort.Strings(fnNames)
		for _, fn := range fnNames {
			sig := exports[fn]
			fi := FunctionInterface{Name: fn}
			for _, a := range sig.Arguments {
				fi.Arguments = append(fi.Arguments, ittype.TextView(a.Type, s.registry))
				collectRecordIDs(a.Type, liveRecords)
			}
			for _, o := range sig.Outputs {
				fi.Outputs = append(fi.Outputs, ittype.TextView(o, s.registry))
				collectRecordIDs(o, liveRecords)
			}
			mi.Functions = append(mi.Functions, fi)
		}
		modules = append(modules, mi)
	}

	ids := make([]uint64, 0, len(liveRecords))
	for id := range liveRecords {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var records []RecordInterface
	for _, id := range ids {
		schema, err := s.registry.Resolve(id)
		if err != nil {
			continue
		}
		ri := RecordInterface{Name: schema.Name}
		for _, f := range schema.Fields {
			ri.Fields = append(ri.Fields, RecordFieldInterface{Name: f.Name, Type: ittype.TextView(f.Type, s.registry)})
		}
		records = append(records, ri)
	}
	return Interface{Modules: modules, Records: records}
}

func (s *Service) sortedModuleNamesLocked() []string {
	names := make([]string, 0, len(s.instances))
	for name := range s.instances {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// collectRecordIDs walks t, recording every Record id reachable
// through it (including through Array(Record) and Array(Array(...))
// nesting), for GC liveness and for GetInterface's record set.
func collectRecordIDs(t ittype.IType, live map[uint64]struct{}) {
	switch v := t.(type) {
	case ittype.Record:
		live[v.ID] = struct{}{}
	case ittype.Array:
		collectRecordIDs(v.Element, live)
	}
}
