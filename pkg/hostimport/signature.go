package hostimport

import (
	"github.com/fluencelabs/marine-sub002/pkg/engine"
	"github.com/fluencelabs/marine-sub002/pkg/ittype"
)

// rawWidth returns how many raw Wasm value slots t occupies and the
// Wasm value type used for each — scalars take one slot of their
// natural type, strings/byte arrays/arrays take two I32 slots
// (offset, length), and records take one I32 slot (offset). This
// mirrors itypes_args_to_wtypes/itypes_output_to_wtypes from
// original_source/core/src/host_imports/utils.rs.
func rawWidth(t ittype.IType) []engine.ValueKind {
	switch t.(type) {
	case ittype.Boolean, ittype.S8, ittype.S16, ittype.S32, ittype.U8, ittype.U16, ittype.U32, ittype.I32:
		return []engine.ValueKind{engine.I32}
	case ittype.S64, ittype.U64, ittype.I64:
		return []engine.ValueKind{engine.I64}
	case ittype.F32:
		return []engine.ValueKind{engine.F32}
	case ittype.F64:
		return []engine.ValueKind{engine.F64}
	case ittype.String, ittype.ByteArray, ittype.Array:
		return []engine.ValueKind{engine.I32, engine.I32}
	case ittype.Record:
		return []engine.ValueKind{engine.I32}
	default:
		return nil
	}
}

// ArgWasmTypes flattens every argument type's raw slots in order.
func ArgWasmTypes(sig ittype.FunctionSignature) []engine.ValueKind {
	var out []engine.ValueKind
	for _, a := range sig.Arguments {
		out = append(out, rawWidth(a.Type)...)
	}
	return out
}

// IsScalar reports whether t is returned directly on the Wasm value
// stack (true) or materializes in guest memory and is instead
// retrieved via the set_result_ptr/set_result_size /
// get_result_ptr/get_result_size side channel (false). An IT that
// materializes in memory contributes zero Wasm result values.
func IsScalar(t ittype.IType) bool {
	switch t.(type) {
	case ittype.String, ittype.ByteArray, ittype.Array, ittype.Record:
		return false
	default:
		return true
	}
}

// ResultWasmTypes flattens every scalar output type's single raw slot
// in order; compound (in-memory) outputs contribute nothing here —
// they are retrieved out-of-band, never as Wasm call results.
func ResultWasmTypes(sig ittype.FunctionSignature) []engine.ValueKind {
	var out []engine.ValueKind
	for _, o := range sig.Outputs {
		if IsScalar(o) {
			out = append(out, rawWidth(o)...)
		}
	}
	return out
}
