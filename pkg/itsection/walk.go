package itsection

import "fmt"

// wasmMagic is the fixed four-byte magic number every Wasm binary
// starts with.
var wasmMagic = [4]byte{0x00, 0x61, 0x73, 0x6d}

const customSectionID = 0

// ParseCustomSections walks a raw Wasm binary's section list and
// returns every custom section (id 0) verbatim, decoding only enough
// of the binary format to find section boundaries — this module never
// interprets code, type, or any other section, matching the non-goal
// "implementing a Wasm VM, compiling Wasm": it only ever reads the
// custom section envelope the IT/SDK-version/manifest data rides in.
func ParseCustomSections(wasmBytes []byte) ([]CustomSection, error) {
	if len(wasmBytes) < 8 || [4]byte(wasmBytes[:4]) != wasmMagic {
		return nil, fmt.Errorf("%w: not a wasm binary", ErrTruncated)
	}
	pos := 8
	var out []CustomSection
	for pos < len(wasmBytes) {
		id := wasmBytes[pos]
		pos++
		size, n, err := readVarU32(wasmBytes[pos:])
		if err != nil {
			return nil, err
		}
		pos += n
		if pos+int(size) > len(wasmBytes) {
			return nil, fmt.Errorf("%w: section body", ErrTruncated)
		}
		body := wasmBytes[pos : pos+int(size)]
		pos += int(size)

		if id == customSectionID {
			r := newReader(body)
			name, err := r.str()
			if err != nil {
				return nil, fmt.Errorf("custom section name: %w", err)
			}
			out = append(out, CustomSection{Name: name, Content: body[r.pos:]})
		}
	}
	return out, nil
}

// readVarU32 decodes an unsigned LEB128 integer, the encoding every
// Wasm binary section length uses.
func readVarU32(b []byte) (value uint32, n int, err error) {
	var shift uint
	for {
		if n >= len(b) {
			return 0, 0, fmt.Errorf("%w: varuint32", ErrTruncated)
		}
		byte_ := b[n]
		n++
		value |= uint32(byte_&0x7f) << shift
		if byte_&0x80 == 0 {
			return value, n, nil
		}
		shift += 7
		if shift >= 32 {
			return 0, 0, fmt.Errorf("%w: varuint32 overflow", ErrTruncated)
		}
	}
}

// EncodeCustomSection re-serializes one custom section back into the
// standard Wasm binary envelope (id 0, size, name, content), used by
// EmbedIT's callers when splicing a rebuilt "interface-types" section
// back into a module.
func EncodeCustomSection(s CustomSection) []byte {
	w := &writer{}
	w.str(s.Name)
	w.bytes(s.Content)
	body := w.buf

	out := &writer{}
	out.u8(customSectionID)
	writeVarU32(out, uint32(len(body)))
	out.bytes(body)
	return out.buf
}

func writeVarU32(w *writer, v uint32) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		w.u8(b)
		if v == 0 {
			return
		}
	}
}
