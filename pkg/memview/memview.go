// Package memview abstracts over a guest module's linear memory so
// the lifter and lowerer never depend on the concrete Wasm engine
// package, matching the MemoryView trait boundary in the original
// design: a thin read/write/bounds-check surface over whatever the
// engine (pkg/engine) exposes.
package memview

import (
	"encoding/binary"
	"fmt"
)

// View is implemented by pkg/engine's memory wrapper. Offsets and
// lengths are guest byte addresses, little-endian throughout as Wasm
// linear memory always is.
type View interface {
	Size() uint32
	ReadByte(offset uint32) (byte, error)
	Read(offset, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
}

// OutOfBoundsError reports an access outside the guest's current
// memory size.
type OutOfBoundsError struct {
	Offset, Length, Size uint32
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("memory access [%d, %d) out of bounds (size %d)", e.Offset, e.Offset+e.Length, e.Size)
}

// CheckBounds returns an *OutOfBoundsError if the half-open byte range
// [offset, offset+length) does not lie entirely within size.
func CheckBounds(offset, length, size uint32) error {
	if length == 0 {
		if offset > size {
			return &OutOfBoundsError{offset, length, size}
		}
		return nil
	}
	end := offset + length
	if end < offset || end > size { // end < offset catches uint32 overflow
		return &OutOfBoundsError{offset, length, size}
	}
	return nil
}

// ReadU16 reads a little-endian uint16 at offset.
func ReadU16(v View, offset uint32) (uint16, error) {
	b, err := v.Read(offset, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadU32 reads a little-endian uint32 at offset.
func ReadU32(v View, offset uint32) (uint32, error) {
	b, err := v.Read(offset, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadU64 reads a little-endian uint64 at offset.
func ReadU64(v View, offset uint32) (uint64, error) {
	b, err := v.Read(offset, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// WriteU32 writes a little-endian uint32 at offset.
func WriteU32(v View, offset, value uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], value)
	return v.Write(offset, b[:])
}

// WriteU16 writes a little-endian uint16 at offset.
func WriteU16(v View, offset uint32, value uint16) error {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], value)
	return v.Write(offset, b[:])
}

// WriteU64 writes a little-endian uint64 at offset.
func WriteU64(v View, offset uint32, value uint64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], value)
	return v.Write(offset, b[:])
}
