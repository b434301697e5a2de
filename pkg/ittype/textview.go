package ittype

import "fmt"

// TextView renders an IType the way Service.GetInterface reports it to
// callers, matching original_source/crates/module-interface/src/interface/mod.rs's
// itype_to_text mapping table exactly so generated interface
// descriptions stay stable across a rewrite.
func TextView(t IType, registry *RecordRegistry) string {
	switch v := t.(type) {
	case Boolean:
		return "bool"
	case S8:
		return "i8"
	case S16:
		return "i16"
	case S32:
		return "i32"
	case S64:
		return "i64"
	case U8:
		return "u8"
	case U16:
		return "u16"
	case U32:
		return "u32"
	case U64:
		return "u64"
	case I32:
		return "i32"
	case I64:
		return "i64"
	case F32:
		return "f32"
	case F64:
		return "f64"
	case String:
		return "string"
	case ByteArray:
		return "[]u8"
	case Array:
		return "[]" + TextView(v.Element, registry)
	case Record:
		if registry == nil {
			return fmt.Sprintf("record(%d)", v.ID)
		}
		schema, err := registry.Resolve(v.ID)
		if err != nil {
			return fmt.Sprintf("record(%d)", v.ID)
		}
		return schema.Name
	default:
		return "unknown"
	}
}
