// Package lifter turns raw Wasm scalar results plus guest linear
// memory into typed IValues, mirroring the lifting half of
// original_source/core/src/host_imports/lifting.
package lifter

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/fluencelabs/marine-sub002/pkg/ittype"
	"github.com/fluencelabs/marine-sub002/pkg/memview"
)

// RawValue is one raw Wasm return/argument slot: every IT scalar
// consumes exactly one, strings/byte arrays/arrays consume two
// (offset, length), and a record consumes one (its offset).
type RawValue uint64

// Source is the reader lifting pulls raw values from: a flat queue of
// RawValue plus the guest's memory for out-of-band data. It mirrors
// how a real Wasm call result stream plus linear memory are the only
// two data sources lifting ever touches.
type Source struct {
	Memory memview.View
	Raw    []RawValue
	pos    int
}

func NewSource(mem memview.View, raw []RawValue) *Source {
	return &Source{Memory: mem, Raw: raw}
}

func (s *Source) next() (RawValue, error) {
	if s.pos >= len(s.Raw) {
		return 0, fmt.Errorf("%w: expected a raw value at position %d, have %d", ErrNotEnoughValues, s.pos, len(s.Raw))
	}
	v := s.Raw[s.pos]
	s.pos++
	return v, nil
}

// Remaining reports how many raw values the source has not yet consumed.
func (s *Source) Remaining() int { return len(s.Raw) - s.pos }

// Lift consumes raw values (and, for out-of-band types, guest memory)
// from src and returns the typed IValue for it.
func Lift(src *Source, it ittype.IType, registry *ittype.RecordRegistry) (ittype.IValue, error) {
	switch t := it.(type) {
	case ittype.Boolean:
		v, err := src.next()
		if err != nil {
			return nil, err
		}
		return ittype.BooleanValue{V: v != 0}, nil
	case ittype.S8:
		v, err := src.next()
		if err != nil {
			return nil, err
		}
		return ittype.S8Value{V: int8(v)}, nil
	case ittype.S16:
		v, err := src.next()
		if err != nil {
			return nil, err
		}
		return ittype.S16Value{V: int16(v)}, nil
	case ittype.S32:
		v, err := src.next()
		if err != nil {
			return nil, err
		}
		return ittype.S32Value{V: int32(v)}, nil
	case ittype.S64:
		v, err := src.next()
		if err != nil {
			return nil, err
		}
		return ittype.S64Value{V: int64(v)}, nil
	case ittype.U8:
		v, err := src.next()
		if err != nil {
			return nil, err
		}
		return ittype.U8Value{V: uint8(v)}, nil
	case ittype.U16:
		v, err := src.next()
		if err != nil {
			return nil, err
		}
		return ittype.U16Value{V: uint16(v)}, nil
	case ittype.U32:
		v, err := src.next()
		if err != nil {
			return nil, err
		}
		return ittype.U32Value{V: uint32(v)}, nil
	case ittype.U64:
		v, err := src.next()
		if err != nil {
			return nil, err
		}
		return ittype.U64Value{V: uint64(v)}, nil
	case ittype.I32:
		v, err := src.next()
		if err != nil {
			return nil, err
		}
		return ittype.I32Value{V: int32(v)}, nil
	case ittype.I64:
		v, err := src.next()
		if err != nil {
			return nil, err
		}
		return ittype.I64Value{V: int64(v)}, nil
	case ittype.F32:
		v, err := src.next()
		if err != nil {
			return nil, err
		}
		return ittype.F32Value{V: math.Float32frombits(uint32(v))}, nil
	case ittype.F64:
		v, err := src.next()
		if err != nil {
			return nil, err
		}
		return ittype.F64Value{V: math.Float64frombits(uint64(v))}, nil
	case ittype.String:
		offset, length, err := liftOffsetLength(src)
		if err != nil {
			return nil, err
		}
		b, err := src.Memory.Read(offset, length)
		if err != nil {
			return nil, fmt.Errorf("%w: string at [%d,%d)", ErrInvalidMemoryAccess, offset, offset+length)
		}
		if !isValidUTF8(b) {
			return nil, fmt.Errorf("%w: string at [%d,%d)", ErrInvalidUTF8, offset, offset+length)
		}
		return ittype.StringValue{V: string(b)}, nil
	case ittype.ByteArray:
		offset, length, err := liftOffsetLength(src)
		if err != nil {
			return nil, err
		}
		b, err := src.Memory.Read(offset, length)
		if err != nil {
			return nil, fmt.Errorf("%w: byte array at [%d,%d)", ErrInvalidMemoryAccess, offset, offset+length)
		}
		return ittype.ByteArrayValue{V: b}, nil
	case ittype.Array:
		offset, count, err := liftOffsetLength(src)
		if err != nil {
			return nil, err
		}
		elems, err := liftArrayElements(src.Memory, offset, count, t.Element, registry)
		if err != nil {
			return nil, err
		}
		return ittype.ArrayValue{Elements: elems}, nil
	case ittype.Record:
		offset, err := src.next()
		if err != nil {
			return nil, err
		}
		return liftRecord(src.Memory, uint32(offset), t.ID, registry)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedType, it)
	}
}

func liftOffsetLength(src *Source) (offset, length uint32, err error) {
	o, err := src.next()
	if err != nil {
		return 0, 0, err
	}
	l, err := src.next()
	if err != nil {
		return 0, 0, err
	}
	return uint32(o), uint32(l), nil
}

// liftArrayElements reads count elements directly out of guest memory
// starting at offset, each occupying StorageWidth(elemType) bytes in
// the natural byte-width encoding, recursing through Lift for each
// element via a fresh Source over its decoded raw slot(s).
func liftArrayElements(mem memview.View, offset uint32, count uint32, elemType ittype.IType, registry *ittype.RecordRegistry) ([]ittype.IValue, error) {
	if count == 0 {
		return nil, nil
	}
	out := make([]ittype.IValue, 0, count)
	cursor := offset
	width := StorageWidth(elemType)
	for i := uint32(0); i < count; i++ {
		raw, err := readStorageSlot(mem, cursor, elemType)
		if err != nil {
			return nil, fmt.Errorf("%w: array element %d", ErrInvalidMemoryAccess, i)
		}
		elemSrc := NewSource(mem, raw)
		v, err := Lift(elemSrc, elemType, registry)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		cursor += width
	}
	return out, nil
}

// StorageWidth reports how many bytes one value of t occupies when
// embedded as an array element or record field, per the natural
// byte-width encoding: Boolean/S8/U8 are 1 byte, S16/U16 are 2,
// S32/U32/I32/F32 are 4, S64/U64/I64/F64 are 8, String/ByteArray/
// Array are an (offset:u32, length:u32) pair, and Record is a single
// offset:u32.
func StorageWidth(t ittype.IType) uint32 {
	switch t.(type) {
	case ittype.Boolean, ittype.S8, ittype.U8:
		return 1
	case ittype.S16, ittype.U16:
		return 2
	case ittype.S32, ittype.U32, ittype.I32, ittype.F32:
		return 4
	case ittype.S64, ittype.U64, ittype.I64, ittype.F64:
		return 8
	case ittype.String, ittype.ByteArray, ittype.Array:
		return 8
	case ittype.Record:
		return 4
	default:
		return 8
	}
}

// readStorageSlot reads one value of type t at its natural byte width
// starting at offset and returns it as the RawValue slot(s) Lift
// expects: narrower scalars are zero-extended into a single RawValue,
// String/ByteArray/Array decode an (offset, length) pair, and Record
// decodes its single offset.
func readStorageSlot(mem memview.View, offset uint32, t ittype.IType) ([]RawValue, error) {
	switch t.(type) {
	case ittype.Boolean, ittype.S8, ittype.U8:
		v, err := mem.ReadByte(offset)
		if err != nil {
			return nil, err
		}
		return []RawValue{RawValue(v)}, nil
	case ittype.S16, ittype.U16:
		v, err := memview.ReadU16(mem, offset)
		if err != nil {
			return nil, err
		}
		return []RawValue{RawValue(v)}, nil
	case ittype.S32, ittype.U32, ittype.I32, ittype.F32:
		v, err := memview.ReadU32(mem, offset)
		if err != nil {
			return nil, err
		}
		return []RawValue{RawValue(v)}, nil
	case ittype.S64, ittype.U64, ittype.I64, ittype.F64:
		v, err := memview.ReadU64(mem, offset)
		if err != nil {
			return nil, err
		}
		return []RawValue{RawValue(v)}, nil
	case ittype.String, ittype.ByteArray, ittype.Array:
		o, err := memview.ReadU32(mem, offset)
		if err != nil {
			return nil, err
		}
		l, err := memview.ReadU32(mem, offset+4)
		if err != nil {
			return nil, err
		}
		return []RawValue{RawValue(o), RawValue(l)}, nil
	case ittype.Record:
		o, err := memview.ReadU32(mem, offset)
		if err != nil {
			return nil, err
		}
		return []RawValue{RawValue(o)}, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedType, t)
	}
}

// liftRecord reads a record's fields sequentially starting at offset,
// each field occupying StorageWidth(field.Type) bytes exactly as
// liftArrayElements does for array elements.
func liftRecord(mem memview.View, offset uint32, id uint64, registry *ittype.RecordRegistry) (ittype.IValue, error) {
	schema, err := registry.Resolve(id)
	if err != nil {
		return nil, err
	}
	fields := make([]ittype.IValue, 0, len(schema.Fields))
	cursor := offset
	for _, f := range schema.Fields {
		raw, err := readStorageSlot(mem, cursor, f.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: record %q field %q", ErrInvalidMemoryAccess, schema.Name, f.Name)
		}
		fieldSrc := NewSource(mem, raw)
		v, err := Lift(fieldSrc, f.Type, registry)
		if err != nil {
			return nil, err
		}
		fields = append(fields, v)
		cursor += StorageWidth(f.Type)
	}
	return ittype.RecordValue{ID: id, Fields: fields}, nil
}

func isValidUTF8(b []byte) bool {
	return utf8.Valid(b)
}
