// Package module implements ModuleInstance construction and calling:
// parsing a module's interface-types section, checking its declared
// versions, registering its record schemas, instantiating it against
// its resolved host and cross-module imports, and routing typed calls
// through the lift/lower pipeline. Grounded on
// original_source/core/src/module.
package module

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/fluencelabs/marine-sub002/pkg/engine"
	"github.com/fluencelabs/marine-sub002/pkg/hostimport"
	"github.com/fluencelabs/marine-sub002/pkg/ittype"
	"github.com/fluencelabs/marine-sub002/pkg/itsection"
	"github.com/fluencelabs/marine-sub002/pkg/lifter"
	"github.com/fluencelabs/marine-sub002/pkg/lowerer"
)

// Linker resolves a module's non-standard imports (cross-module calls)
// into raw host functions ready to pass to engine.Runtime.Instantiate.
// Accepting this narrow interface rather than pkg/linker's concrete
// type keeps pkg/module independent of pkg/linker's own dependencies.
type Linker interface {
	Resolve(ctx context.Context, moduleName string, imports []itsection.Import, alloc lowerer.Allocator, sink hostimport.ResultSink) ([]engine.HostFunc, error)
}

// Instance is one instantiated, callable module.
type Instance struct {
	Name         string
	inst         engine.Instance
	registry     *ittype.RecordRegistry
	exports      map[string]ittype.FunctionSignature
	alloc        lowerer.Allocator
	freeArgs     bool
	log          *logrus.Entry
	allocRejects *uint64
}

// New parses wasmBytes' interface-types section, checks its declared
// SDK/IT versions, registers its record schemas into registry (rolling
// back every registration made by this call if a later one fails or
// instantiation itself fails, so a partially-failed load leaves the
// registry exactly as it was found), resolves its host and
// cross-module imports, and instantiates it via
// rt. callParams is invoked fresh on every get_call_parameters host
// import call, reading whatever the service's call stack currently has
// on top.
func New(
	ctx context.Context,
	name string,
	wasmBytes []byte,
	cfg Config,
	registry *ittype.RecordRegistry,
	rt engine.Runtime,
	disp *hostimport.Dispatcher,
	lnk Linker,
	callParams func() hostimport.CallParameters,
	log *logrus.Entry,
) (*Instance, error) {
	sections, err := itsection.ParseCustomSections(wasmBytes)
	if err != nil {
		return nil, &InstantiationError{Detail: err.Error()}
	}

	itSec, err := itsection.ExtractOne(sections, itsection.SectionName, itsection.ErrNoITSection, itsection.ErrMultipleITSections)
	if err != nil {
		return nil, err
	}
	ast, err := itsection.ParseITSection(itSec.Content)
	if err != nil {
		return nil, fmt.Errorf("parsing interface-types section of %q: %w", name, err)
	}

	sdkVersion, err := itsection.ExtractSDKVersion(sections)
	if err != nil {
		return nil, err
	}
	if err := itsection.CheckSDKVersion(sdkVersion, itsection.MinSDKVersion); err != nil {
		return nil, err
	}
	itVersion, err := itsection.ExtractITVersion(sections)
	if err != nil {
		if !errors.Is(err, itsection.ErrNoITVersionSection) {
			return nil, err
		}
		itVersion = itsection.MinITVersion
	}
	if err := itsection.CheckITVersion(itVersion, itsection.MinITVersion); err != nil {
		return nil, err
	}

	staged := make([]uint64, 0, len(ast.Records))
	rollback := func() {
		for _, id := range staged {
			registry.Remove(id)
		}
	}
	for id, schema := range ast.Records {
		_, resolveErr := registry.Resolve(id)
		if err := registry.Register(id, schema); err != nil {
			rollback()
			return nil, fmt.Errorf("registering record %d of %q: %w", id, name, err)
		}
		if resolveErr != nil {
			staged = append(staged, id)
		}
	}

	// inst starts nil; every closure below captures it by reference so
	// that once Instantiate succeeds and assigns it, host imports firing
	// mid-call (including during the guest's own start section) reach a
	// live engine.Instance instead of the zero value.
	var inst engine.Instance
	var allocRejects uint64
	alloc := func(ctx context.Context, size uint32, tag lowerer.TypeTag) (uint32, error) {
		if inst == nil {
			return 0, ErrNotYetInstantiated
		}
		res, err := inst.CallFunc(ctx, AllocateFuncName, uint64(size), uint64(tag))
		if err != nil {
			atomic.AddUint64(&allocRejects, 1)
			return 0, err
		}
		if len(res) == 0 {
			atomic.AddUint64(&allocRejects, 1)
			return 0, fmt.Errorf("%s returned no value", AllocateFuncName)
		}
		return uint32(res[0]), nil
	}
	sink := hostimport.ResultSink{
		SetPtr: func(ctx context.Context, offset uint32) error {
			_, err := inst.CallFunc(ctx, SetResultPtrFuncName, uint64(offset))
			return err
		},
		SetSize: func(ctx context.Context, size uint32) error {
			_, err := inst.CallFunc(ctx, SetResultSizeFuncName, uint64(size))
			return err
		},
	}

	hostFuncs := disp.BuildStandardImports(hostimport.StandardImportsConfig{
		Namespace:       itsection.HostImportNamespaceV0,
		ModuleName:      name,
		Log:             log,
		LoggingMask:     cfg.LoggingMask,
		CallParams:      callParams,
		MountedBinaries: cfg.MountedBinaries,
		Alloc:           alloc,
		Sink:            sink,
	})
	if lnk != nil {
		crossFuncs, err := lnk.Resolve(ctx, name, ast.Imports, alloc, sink)
		if err != nil {
			rollback()
			return nil, fmt.Errorf("resolving imports of %q: %w", name, err)
		}
		hostFuncs = append(hostFuncs, crossFuncs...)
	}

	created, err := rt.Instantiate(ctx, wasmBytes, engine.ModuleConfig{
		Name:               name,
		MemoryMinPages:     cfg.MemPagesCount,
		MemoryMaxPages:     cfg.MaxHeapPagesCount,
		WASIEnabled:        true,
		Envs:               cfg.WASI.Envs,
		PreopenedDirs:      cfg.WASI.MappedDirs,
		HostFuncs:          hostFuncs,
		CloseOnContextDone: true,
	})
	if err != nil {
		rollback()
		return nil, &InstantiationError{Detail: err.Error()}
	}
	inst = created

	for _, required := range []string{AllocateFuncName, SetResultPtrFuncName, SetResultSizeFuncName} {
		if !inst.HasFunc(required) {
			inst.Close(ctx)
			rollback()
			return nil, &MissingGuestExportError{Name: required}
		}
	}

	exports := make(map[string]ittype.FunctionSignature, len(ast.Exports))
	for _, e := range ast.Exports {
		if !inst.HasFunc(e.Name) {
			inst.Close(ctx)
			rollback()
			return nil, &MissingGuestExportError{Name: e.Name}
		}
		exports[e.Name] = e.Signature
	}

	return &Instance{
		Name:         name,
		inst:         inst,
		registry:     registry,
		exports:      exports,
		alloc:        alloc,
		freeArgs:     cfg.FreeArgumentsAfterCall,
		log:          log,
		allocRejects: &allocRejects,
	}, nil
}

// Exports returns every function this module makes callable, keyed by
// name, for pkg/service's get_interface and pkg/linker's import
// resolution.
func (m *Instance) Exports() map[string]ittype.FunctionSignature { return m.exports }

// MemorySize reports the module's current linear memory size in bytes.
func (m *Instance) MemorySize() uint32 { return m.inst.Memory().Size() }

// AllocationRejects reports how many times this module's guest
// allocate export has failed or returned no value, across both
// argument-lowering and host-import-result allocations — the
// back-pressure counter module_memory_stats surfaces alongside memory
// size.
func (m *Instance) AllocationRejects() uint64 { return atomic.LoadUint64(m.allocRejects) }

// Close releases the module's Wasm instance.
func (m *Instance) Close(ctx context.Context) error { return m.inst.Close(ctx) }

// Call resolves functionName among this module's exports, checks its
// arguments for exact arity and type match, lowers them into guest
// memory, invokes the export, and lifts its result back — retrieving a
// compound result via get_result_ptr/get_result_size when the
// declared output type does not fit on the Wasm value stack.
func (m *Instance) Call(ctx context.Context, functionName string, args []ittype.IValue) (ittype.IValue, error) {
	sig, ok := m.exports[functionName]
	if !ok {
		return nil, &NoSuchFunctionError{Name: functionName}
	}
	if len(args) != len(sig.Arguments) {
		return nil, &ArgumentCountMismatchError{Function: functionName, Want: len(sig.Arguments), Got: len(args)}
	}
	for i, a := range args {
		want := sig.Arguments[i].Type
		got := ittype.ValueType(a)
		if !ittype.TypesEqual(want, got) {
			return nil, &ArgumentTypeMismatchError{
				Function: functionName,
				Index:    i,
				Want:     ittype.TextView(want, m.registry),
				Got:      ittype.TextView(got, m.registry),
			}
		}
	}

	rawArgs := make([]uint64, 0, len(args)*2)
	var freeable []allocRegion
	for i, a := range args {
		lowered, err := lowerer.Lower(ctx, m.inst.Memory(), m.alloc, a, m.registry)
		if err != nil {
			return nil, fmt.Errorf("lowering argument %d of %q: %w", i, functionName, err)
		}
		for _, v := range lowered {
			rawArgs = append(rawArgs, uint64(v))
		}
		if region, ok := freeableRegion(sig.Arguments[i].Type, lowered); ok {
			freeable = append(freeable, region)
		}
	}

	rawResults, err := m.inst.CallFunc(ctx, functionName, rawArgs...)
	if err != nil {
		return nil, fmt.Errorf("calling %q: %w", functionName, err)
	}

	if m.freeArgs && len(freeable) > 0 && m.inst.HasFunc(DeallocateFuncName) {
		for _, r := range freeable {
			if _, err := m.inst.CallFunc(ctx, DeallocateFuncName, uint64(r.offset), uint64(r.size)); err != nil {
				m.log.WithError(err).Warnf("deallocate failed for an argument of %q", functionName)
			}
		}
	}

	if len(sig.Outputs) == 0 {
		return nil, nil
	}
	outputType := sig.Outputs[0]

	if hostimport.IsScalar(outputType) {
		raw := make([]lifter.RawValue, len(rawResults))
		for i, v := range rawResults {
			raw[i] = lifter.RawValue(v)
		}
		return lifter.Lift(lifter.NewSource(m.inst.Memory(), raw), outputType, m.registry)
	}

	if !m.inst.HasFunc(GetResultPtrFuncName) || !m.inst.HasFunc(GetResultSizeFuncName) {
		return nil, fmt.Errorf("%q: %w", functionName, ErrNoResultRetrieval)
	}
	ptrRes, err := m.inst.CallFunc(ctx, GetResultPtrFuncName)
	if err != nil {
		return nil, fmt.Errorf("%s after %q: %w", GetResultPtrFuncName, functionName, err)
	}
	sizeRes, err := m.inst.CallFunc(ctx, GetResultSizeFuncName)
	if err != nil {
		return nil, fmt.Errorf("%s after %q: %w", GetResultSizeFuncName, functionName, err)
	}

	var raw []lifter.RawValue
	if _, isRecord := outputType.(ittype.Record); isRecord {
		raw = []lifter.RawValue{lifter.RawValue(ptrRes[0])}
	} else {
		raw = []lifter.RawValue{lifter.RawValue(ptrRes[0]), lifter.RawValue(sizeRes[0])}
	}
	return lifter.Lift(lifter.NewSource(m.inst.Memory(), raw), outputType, m.registry)
}

type allocRegion struct {
	offset uint32
	size   uint32
}

// freeableRegion reports the (offset, size) region a lowered top-level
// argument occupies if it is one this host allocated and can safely
// ask the guest to deallocate — strings, byte arrays, and arrays carry
// an explicit size; records do not (lowerRecord returns only an
// offset), so a record argument is left to the guest's own arena
// policy regardless of Config.FreeArgumentsAfterCall.
func freeableRegion(t ittype.IType, raw []lifter.RawValue) (allocRegion, bool) {
	switch t.(type) {
	case ittype.String, ittype.ByteArray, ittype.Array:
		if len(raw) != 2 {
			return allocRegion{}, false
		}
		offset, size := uint32(raw[0]), uint32(raw[1])
		if offset == 0 && size == 0 {
			return allocRegion{}, false
		}
		return allocRegion{offset: offset, size: size}, true
	default:
		return allocRegion{}, false
	}
}
