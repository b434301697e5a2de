// Package lowerer turns typed IValues into raw Wasm scalars plus
// writes into guest linear memory, mirroring the lowering half of
// original_source/core/src/host_imports/lowering. Lowering allocates
// guest memory bottom-up: nested elements and fields are lowered (and
// thus allocated) before the container that holds their offsets.
package lowerer

import (
	"context"
	"fmt"

	"github.com/fluencelabs/marine-sub002/pkg/ittype"
	"github.com/fluencelabs/marine-sub002/pkg/lifter"
	"github.com/fluencelabs/marine-sub002/pkg/memview"
)

// TypeTag is passed as the second argument to the guest's allocate
// export, letting a guest runtime pick an allocation strategy per
// value shape. Values match original_source/core/src/host_imports/lowering's ordering.
type TypeTag uint32

const (
	TagByteArray TypeTag = iota
	TagString
	TagArray
	TagRecord
)

// Allocator requests size bytes of guest linear memory for a value of
// the given shape and returns its offset. It is the Go form of calling
// the guest's exported "allocate" function.
type Allocator func(ctx context.Context, size uint32, tag TypeTag) (uint32, error)

// Lower writes v into guest memory (allocating as needed via alloc)
// and returns the flat raw value sequence a caller passes to, or
// receives back from, a Wasm call — the inverse of lifter.Lift.
func Lower(ctx context.Context, mem memview.View, alloc Allocator, v ittype.IValue, registry *ittype.RecordRegistry) ([]lifter.RawValue, error) {
	switch val := v.(type) {
	case ittype.BooleanValue:
		if val.V {
			return []lifter.RawValue{1}, nil
		}
		return []lifter.RawValue{0}, nil
	case ittype.S8Value:
		return []lifter.RawValue{lifter.RawValue(uint8(val.V))}, nil
	case ittype.S16Value:
		return []lifter.RawValue{lifter.RawValue(uint16(val.V))}, nil
	case ittype.S32Value:
		return []lifter.RawValue{lifter.RawValue(uint32(val.V))}, nil
	case ittype.S64Value:
		return []lifter.RawValue{lifter.RawValue(uint64(val.V))}, nil
	case ittype.U8Value:
		return []lifter.RawValue{lifter.RawValue(val.V)}, nil
	case ittype.U16Value:
		return []lifter.RawValue{lifter.RawValue(val.V)}, nil
	case ittype.U32Value:
		return []lifter.RawValue{lifter.RawValue(val.V)}, nil
	case ittype.U64Value:
		return []lifter.RawValue{lifter.RawValue(val.V)}, nil
	case ittype.I32Value:
		return []lifter.RawValue{lifter.RawValue(uint32(val.V))}, nil
	case ittype.I64Value:
		return []lifter.RawValue{lifter.RawValue(uint64(val.V))}, nil
	case ittype.F32Value:
		return []lifter.RawValue{lifter.RawValue(float32bits(val.V))}, nil
	case ittype.F64Value:
		return []lifter.RawValue{lifter.RawValue(float64bits(val.V))}, nil
	case ittype.StringValue:
		return lowerBytes(ctx, mem, alloc, []byte(val.V), TagString)
	case ittype.ByteArrayValue:
		return lowerBytes(ctx, mem, alloc, val.V, TagByteArray)
	case ittype.ArrayValue:
		return lowerArray(ctx, mem, alloc, val, registry)
	case ittype.RecordValue:
		return lowerRecord(ctx, mem, alloc, val, registry)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
}

func lowerBytes(ctx context.Context, mem memview.View, alloc Allocator, b []byte, tag TypeTag) ([]lifter.RawValue, error) {
	if len(b) == 0 {
		return []lifter.RawValue{0, 0}, nil
	}
	offset, err := alloc(ctx, uint32(len(b)), tag)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAllocationFailed, err)
	}
	if err := mem.Write(offset, b); err != nil {
		return nil, fmt.Errorf("%w: writing %d bytes at %d", ErrWriteFailed, len(b), offset)
	}
	return []lifter.RawValue{lifter.RawValue(offset), lifter.RawValue(len(b))}, nil
}

// lowerArray lowers every element first (each may itself allocate),
// then allocates one contiguous region sized for count elements at
// their natural byte width and writes each element in order.
func lowerArray(ctx context.Context, mem memview.View, alloc Allocator, v ittype.ArrayValue, registry *ittype.RecordRegistry) ([]lifter.RawValue, error) {
	count := len(v.Elements)
	if count == 0 {
		return []lifter.RawValue{0, 0}, nil
	}
	elemRaws := make([][]lifter.RawValue, count)
	for i, elem := range v.Elements {
		raw, err := Lower(ctx, mem, alloc, elem, registry)
		if err != nil {
			return nil, err
		}
		elemRaws[i] = raw
	}
	elemWidth := lifter.StorageWidth(ittype.ValueType(v.Elements[0]))
	offset, err := alloc(ctx, uint32(count)*elemWidth, TagArray)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAllocationFailed, err)
	}
	cursor := offset
	for i, raw := range elemRaws {
		if err := writeStorageSlot(mem, cursor, ittype.ValueType(v.Elements[i]), raw); err != nil {
			return nil, fmt.Errorf("%w: array element %d", ErrWriteFailed, i)
		}
		cursor += elemWidth
	}
	return []lifter.RawValue{lifter.RawValue(offset), lifter.RawValue(count)}, nil
}

// lowerRecord lowers every field first, then allocates one contiguous
// region for all fields at their natural byte width and writes them
// in schema order.
func lowerRecord(ctx context.Context, mem memview.View, alloc Allocator, v ittype.RecordValue, registry *ittype.RecordRegistry) ([]lifter.RawValue, error) {
	schema, err := registry.Resolve(v.ID)
	if err != nil {
		return nil, err
	}
	if len(schema.Fields) != len(v.Fields) {
		return nil, fmt.Errorf("%w: record %q expects %d fields, got %d", ErrRecordArity, schema.Name, len(schema.Fields), len(v.Fields))
	}
	fieldRaws := make([][]lifter.RawValue, len(v.Fields))
	totalWidth := uint32(0)
	for i, fv := range v.Fields {
		raw, err := Lower(ctx, mem, alloc, fv, registry)
		if err != nil {
			return nil, err
		}
		fieldRaws[i] = raw
		totalWidth += lifter.StorageWidth(schema.Fields[i].Type)
	}
	offset, err := alloc(ctx, totalWidth, TagRecord)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAllocationFailed, err)
	}
	cursor := offset
	for i, raw := range fieldRaws {
		fieldType := schema.Fields[i].Type
		if err := writeStorageSlot(mem, cursor, fieldType, raw); err != nil {
			return nil, fmt.Errorf("%w: record %q field %d", ErrWriteFailed, schema.Name, i)
		}
		cursor += lifter.StorageWidth(fieldType)
	}
	return []lifter.RawValue{lifter.RawValue(offset)}, nil
}

// writeStorageSlot writes one already-lowered value's raw slot(s) at
// offset using the IT's natural byte width, mirroring readStorageSlot
// in pkg/lifter.
func writeStorageSlot(mem memview.View, offset uint32, t ittype.IType, raw []lifter.RawValue) error {
	switch t.(type) {
	case ittype.Boolean, ittype.S8, ittype.U8:
		return mem.Write(offset, []byte{byte(raw[0])})
	case ittype.S16, ittype.U16:
		return memview.WriteU16(mem, offset, uint16(raw[0]))
	case ittype.S32, ittype.U32, ittype.I32, ittype.F32:
		return memview.WriteU32(mem, offset, uint32(raw[0]))
	case ittype.S64, ittype.U64, ittype.I64, ittype.F64:
		return memview.WriteU64(mem, offset, uint64(raw[0]))
	case ittype.String, ittype.ByteArray, ittype.Array:
		if err := memview.WriteU32(mem, offset, uint32(raw[0])); err != nil {
			return err
		}
		return memview.WriteU32(mem, offset+4, uint32(raw[1]))
	case ittype.Record:
		return memview.WriteU32(mem, offset, uint32(raw[0]))
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedValue, t)
	}
}
