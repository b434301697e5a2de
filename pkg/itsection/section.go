// Package itsection implements the custom Wasm section codec: parsing
// and embedding the "interface-types" section's typed AST, the SDK
// version section, and the manifest section, grounded on
// original_source/crates/it-parser and
// original_source/crates/module-info-parser.
package itsection

import (
	"fmt"

	"github.com/fluencelabs/marine-sub002/pkg/ittype"
)

// SectionName is the custom section name carrying the interface-types
// AST, matching it-parser's IT_SECTION_NAME constant exactly.
const SectionName = "interface-types"

// SDKVersionSectionName carries the SDK's semver string.
const SDKVersionSectionName = "sdk-version"

// ManifestSectionName carries the length-prefixed manifest fields.
const ManifestSectionName = "manifest"

// CustomSection is one raw (name, content) pair as it appears in a
// Wasm binary's custom section list.
type CustomSection struct {
	Name    string
	Content []byte
}

// Import describes one module-level import: either a standard host
// import or a cross-module import, resolved later by pkg/linker.
type Import struct {
	Namespace string
	Name      string
	Signature ittype.FunctionSignature
}

// Export describes one function a module makes callable from outside.
type Export struct {
	Name      string
	Signature ittype.FunctionSignature
}

// AST is the parsed content of the "interface-types" custom section:
// the record schemas a module declares plus its typed imports and
// exports. Adapters/implementations from the original binary format
// collapse here into Exports directly naming their resolved
// signature, since this port has no separate adapter bytecode stage —
// every export's signature is already the lifted/lowered one.
type AST struct {
	Records map[uint64]ittype.RecordSchema
	Imports []Import
	Exports []Export
}

// ParseITSection decodes raw into an AST.
func ParseITSection(raw []byte) (*AST, error) {
	r := newReader(raw)
	ast := &AST{Records: make(map[uint64]ittype.RecordSchema)}

	recordCount, err := r.u32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < recordCount; i++ {
		id, err := r.u64()
		if err != nil {
			return nil, err
		}
		schema, err := readRecordSchema(r)
		if err != nil {
			return nil, err
		}
		ast.Records[id] = schema
	}

	importCount, err := r.u32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < importCount; i++ {
		namespace, err := r.str()
		if err != nil {
			return nil, err
		}
		sig, err := readSignature(r, namespace)
		if err != nil {
			return nil, err
		}
		ast.Imports = append(ast.Imports, Import{Namespace: namespace, Name: sig.Name, Signature: sig})
	}

	exportCount, err := r.u32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < exportCount; i++ {
		sig, err := readSignature(r, "")
		if err != nil {
			return nil, err
		}
		ast.Exports = append(ast.Exports, Export{Name: sig.Name, Signature: sig})
	}

	if r.remaining() != 0 {
		return nil, fmt.Errorf("%w: %d bytes left", ErrTrailingBytes, r.remaining())
	}
	return ast, nil
}

func readRecordSchema(r *reader) (ittype.RecordSchema, error) {
	name, err := r.str()
	if err != nil {
		return ittype.RecordSchema{}, err
	}
	fieldCount, err := r.u32()
	if err != nil {
		return ittype.RecordSchema{}, err
	}
	fields := make([]ittype.RecordField, 0, fieldCount)
	for i := uint32(0); i < fieldCount; i++ {
		fname, err := r.str()
		if err != nil {
			return ittype.RecordSchema{}, err
		}
		ftype, err := readType(r)
		if err != nil {
			return ittype.RecordSchema{}, err
		}
		fields = append(fields, ittype.RecordField{Name: fname, Type: ftype})
	}
	return ittype.RecordSchema{Name: name, Fields: fields}, nil
}

func readSignature(r *reader, _ string) (ittype.FunctionSignature, error) {
	name, err := r.str()
	if err != nil {
		return ittype.FunctionSignature{}, err
	}
	argCount, err := r.u32()
	if err != nil {
		return ittype.FunctionSignature{}, err
	}
	args := make([]ittype.RecordField, 0, argCount)
	for i := uint32(0); i < argCount; i++ {
		aname, err := r.str()
		if err != nil {
			return ittype.FunctionSignature{}, err
		}
		atype, err := readType(r)
		if err != nil {
			return ittype.FunctionSignature{}, err
		}
		args = append(args, ittype.RecordField{Name: aname, Type: atype})
	}
	outCount, err := r.u32()
	if err != nil {
		return ittype.FunctionSignature{}, err
	}
	outputs := make([]ittype.IType, 0, outCount)
	for i := uint32(0); i < outCount; i++ {
		ot, err := readType(r)
		if err != nil {
			return ittype.FunctionSignature{}, err
		}
		outputs = append(outputs, ot)
	}
	return ittype.FunctionSignature{Name: name, Arguments: args, Outputs: outputs}, nil
}

// Type tags for the wire encoding. Scalars 0-12, then compound types.
const (
	tagBoolean byte = iota
	tagS8
	tagS16
	tagS32
	tagS64
	tagU8
	tagU16
	tagU32
	tagU64
	tagI32
	tagI64
	tagF32
	tagF64
	tagString
	tagByteArray
	tagArray
	tagRecord
)

func readType(r *reader) (ittype.IType, error) {
	tag, err := r.u8()
	if err != nil {
		return nil, err
	}
	switch tag {
	case tagBoolean:
		return ittype.Boolean{}, nil
	case tagS8:
		return ittype.S8{}, nil
	case tagS16:
		return ittype.S16{}, nil
	case tagS32:
		return ittype.S32{}, nil
	case tagS64:
		return ittype.S64{}, nil
	case tagU8:
		return ittype.U8{}, nil
	case tagU16:
		return ittype.U16{}, nil
	case tagU32:
		return ittype.U32{}, nil
	case tagU64:
		return ittype.U64{}, nil
	case tagI32:
		return ittype.I32{}, nil
	case tagI64:
		return ittype.I64{}, nil
	case tagF32:
		return ittype.F32{}, nil
	case tagF64:
		return ittype.F64{}, nil
	case tagString:
		return ittype.String{}, nil
	case tagByteArray:
		return ittype.ByteArray{}, nil
	case tagArray:
		elem, err := readType(r)
		if err != nil {
			return nil, err
		}
		return ittype.Array{Element: elem}, nil
	case tagRecord:
		id, err := r.u64()
		if err != nil {
			return nil, err
		}
		return ittype.Record{ID: id}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownTypeTag, tag)
	}
}

// EmbedIT encodes ast back into the "interface-types" wire format,
// the inverse of ParseITSection, used when re-serializing a module
// (e.g. after stripping a SDK-only section) is required.
func EmbedIT(ast *AST) []byte {
	w := &writer{}
	w.u32(uint32(len(ast.Records)))
	for id, schema := range ast.Records {
		w.u64(id)
		writeRecordSchema(w, schema)
	}
	w.u32(uint32(len(ast.Imports)))
	for _, imp := range ast.Imports {
		w.str(imp.Namespace)
		writeSignature(w, imp.Signature)
	}
	w.u32(uint32(len(ast.Exports)))
	for _, exp := range ast.Exports {
		writeSignature(w, exp.Signature)
	}
	return w.buf
}

func writeRecordSchema(w *writer, schema ittype.RecordSchema) {
	w.str(schema.Name)
	w.u32(uint32(len(schema.Fields)))
	for _, f := range schema.Fields {
		w.str(f.Name)
		writeType(w, f.Type)
	}
}

func writeSignature(w *writer, sig ittype.FunctionSignature) {
	w.str(sig.Name)
	w.u32(uint32(len(sig.Arguments)))
	for _, a := range sig.Arguments {
		w.str(a.Name)
		writeType(w, a.Type)
	}
	w.u32(uint32(len(sig.Outputs)))
	for _, o := range sig.Outputs {
		writeType(w, o)
	}
}

func writeType(w *writer, t ittype.IType) {
	switch v := t.(type) {
	case ittype.Boolean:
		w.u8(tagBoolean)
	case ittype.S8:
		w.u8(tagS8)
	case ittype.S16:
		w.u8(tagS16)
	case ittype.S32:
		w.u8(tagS32)
	case ittype.S64:
		w.u8(tagS64)
	case ittype.U8:
		w.u8(tagU8)
	case ittype.U16:
		w.u8(tagU16)
	case ittype.U32:
		w.u8(tagU32)
	case ittype.U64:
		w.u8(tagU64)
	case ittype.I32:
		w.u8(tagI32)
	case ittype.I64:
		w.u8(tagI64)
	case ittype.F32:
		w.u8(tagF32)
	case ittype.F64:
		w.u8(tagF64)
	case ittype.String:
		w.u8(tagString)
	case ittype.ByteArray:
		w.u8(tagByteArray)
	case ittype.Array:
		w.u8(tagArray)
		writeType(w, v.Element)
	case ittype.Record:
		w.u8(tagRecord)
		w.u64(v.ID)
	}
}

// FindSections returns every custom section in sections whose name is
// name, in order; it returns nil when there is none.
func FindSections(sections []CustomSection, name string) []CustomSection {
	var out []CustomSection
	for _, s := range sections {
		if s.Name == name {
			out = append(out, s)
		}
	}
	return out
}

// ExtractOne returns the single custom section named name, erroring if
// none or more than one is present.
func ExtractOne(sections []CustomSection, name string, notFound, multiple error) (CustomSection, error) {
	matches := FindSections(sections, name)
	switch len(matches) {
	case 0:
		return CustomSection{}, notFound
	case 1:
		return matches[0], nil
	default:
		return CustomSection{}, multiple
	}
}

// DeleteITSections returns sections with every "interface-types"
// entry removed, leaving code/data and all other custom sections
// untouched.
func DeleteITSections(sections []CustomSection) []CustomSection {
	out := make([]CustomSection, 0, len(sections))
	for _, s := range sections {
		if s.Name != SectionName {
			out = append(out, s)
		}
	}
	return out
}
