package ittype

// TypesEqual reports whether a and b are the identical interface type,
// recursively for Array and by id for Record. Used for the strict
// argument-type compatibility check in ModuleInstance.Call: an S32
// IValue is never interchangeable with a U32 one even though both are
// four raw bytes.
func TypesEqual(a, b IType) bool {
	switch at := a.(type) {
	case Array:
		bt, ok := b.(Array)
		if !ok {
			return false
		}
		if at.Element == nil || bt.Element == nil {
			// An empty array's IValue carries no element type evidence
			// (ValueType has nothing to recurse into), so emptiness on
			// either side is accepted against any declared element type.
			return true
		}
		return TypesEqual(at.Element, bt.Element)
	case Record:
		bt, ok := b.(Record)
		return ok && at.ID == bt.ID
	default:
		return sameScalarKind(a, b)
	}
}

// ValueType returns the IType an IValue was constructed with.
func ValueType(v IValue) IType {
	switch val := v.(type) {
	case BooleanValue:
		return Boolean{}
	case S8Value:
		return S8{}
	case S16Value:
		return S16{}
	case S32Value:
		return S32{}
	case S64Value:
		return S64{}
	case U8Value:
		return U8{}
	case U16Value:
		return U16{}
	case U32Value:
		return U32{}
	case U64Value:
		return U64{}
	case I32Value:
		return I32{}
	case I64Value:
		return I64{}
	case F32Value:
		return F32{}
	case F64Value:
		return F64{}
	case StringValue:
		return String{}
	case ByteArrayValue:
		return ByteArray{}
	case ArrayValue:
		if len(val.Elements) == 0 {
			return Array{}
		}
		return Array{Element: ValueType(val.Elements[0])}
	case RecordValue:
		return Record{ID: val.ID}
	default:
		return nil
	}
}
