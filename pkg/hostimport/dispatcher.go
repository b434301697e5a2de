// Package hostimport builds the raw Wasm-facing host functions for
// every host import a module declares: the three standard imports
// (log_utf8_string, get_call_parameters, mounted_binary) plus, via
// pkg/linker, synthesized cross-module call imports. Each wraps the
// lift/lower pipeline around a typed Go handler, grounded on OPA's own
// wazero host-function registration pattern and on
// original_source/core/src/host_imports/mod.rs.
package hostimport

import (
	"context"
	"fmt"

	"github.com/fluencelabs/marine-sub002/pkg/engine"
	"github.com/fluencelabs/marine-sub002/pkg/ittype"
	"github.com/fluencelabs/marine-sub002/pkg/lifter"
	"github.com/fluencelabs/marine-sub002/pkg/lowerer"
	"github.com/fluencelabs/marine-sub002/pkg/memview"
)

// Handler is a typed host import implementation: it receives the
// already-lifted arguments and returns the value to lower back (or
// nil if the signature declares no output).
type Handler func(ctx context.Context, args []ittype.IValue) (ittype.IValue, error)

// ResultSink stashes a compound host-import (or exported-function)
// result's guest-memory location via the two guest exports
// set_result_ptr/set_result_size, the side channel used for any
// output type that materializes in memory rather than returning
// directly on the Wasm value stack.
type ResultSink struct {
	SetPtr  func(ctx context.Context, offset uint32) error
	SetSize func(ctx context.Context, size uint32) error
}

// Dispatcher builds engine.HostFunc entries around Handlers, sharing
// one RecordRegistry across every module in a Service.
type Dispatcher struct {
	Registry *ittype.RecordRegistry
}

// Build wraps handler as a raw engine.HostFunc importable under
// namespace/name with the given declared signature. alloc is used to
// lower a non-scalar result back into guest memory; sink receives
// the resulting offset/size for any output type classified non-scalar
// by hostimport.IsScalar. Both may be nil if sig declares no output
// or a scalar-only output.
func (d *Dispatcher) Build(namespace, name string, sig ittype.FunctionSignature, handler Handler, alloc lowerer.Allocator, sink ResultSink) engine.HostFunc {
	return engine.HostFunc{
		Namespace: namespace,
		Name:      name,
		Params:    ArgWasmTypes(sig),
		Results:   ResultWasmTypes(sig),
		Func: func(ctx context.Context, mem memview.View, raw []uint64) ([]uint64, error) {
			rawValues := make([]lifter.RawValue, len(raw))
			for i, v := range raw {
				rawValues[i] = lifter.RawValue(v)
			}
			src := lifter.NewSource(mem, rawValues)

			args := make([]ittype.IValue, 0, len(sig.Arguments))
			for _, a := range sig.Arguments {
				v, err := lifter.Lift(src, a.Type, d.Registry)
				if err != nil {
					return nil, fmt.Errorf("lifting argument %q of %q: %w", a.Name, name, err)
				}
				args = append(args, v)
			}

			result, err := handler(ctx, args)
			if err != nil {
				return nil, err
			}

			if len(sig.Outputs) == 0 {
				return nil, nil
			}
			if result == nil {
				return nil, fmt.Errorf("host import %q declared an output but returned none", name)
			}

			outputType := sig.Outputs[0]
			lowered, err := lowerer.Lower(ctx, mem, alloc, result, d.Registry)
			if err != nil {
				return nil, fmt.Errorf("lowering result of %q: %w", name, err)
			}

			if IsScalar(outputType) {
				out := make([]uint64, len(lowered))
				for i, v := range lowered {
					out[i] = uint64(v)
				}
				return out, nil
			}

			if sink.SetPtr == nil {
				return nil, fmt.Errorf("host import %q: %w", name, ErrNoResultSink)
			}
			if err := sink.SetPtr(ctx, uint32(lowered[0])); err != nil {
				return nil, fmt.Errorf("set_result_ptr for %q: %w", name, err)
			}
			if len(lowered) > 1 && sink.SetSize != nil {
				if err := sink.SetSize(ctx, uint32(lowered[1])); err != nil {
					return nil, fmt.Errorf("set_result_size for %q: %w", name, err)
				}
			}
			return nil, nil
		},
	}
}

// RegisterStandardSchemas registers the two fixed record schemas the
// standard host imports depend on (CallParameters, MountedBinaryResult)
// into registry, idempotently.
func RegisterStandardSchemas(registry *ittype.RecordRegistry) error {
	if err := registry.Register(CallParametersRecordID, CallParametersSchema()); err != nil {
		return err
	}
	return registry.Register(MountedBinaryResultRecordID, MountedBinaryResultSchema())
}
