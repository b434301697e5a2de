package memview

// Buffer is an in-process View backed by a plain byte slice. It is
// used by pkg/lifter and pkg/lowerer's tests in place of a real guest
// instance, and doubles as the growth model pkg/engine's wazero-backed
// view follows.
type Buffer struct {
	data []byte
}

// NewBuffer returns a Buffer of the given size, zero-filled.
func NewBuffer(size uint32) *Buffer {
	return &Buffer{data: make([]byte, size)}
}

func (b *Buffer) Size() uint32 { return uint32(len(b.data)) }

func (b *Buffer) ReadByte(offset uint32) (byte, error) {
	if err := CheckBounds(offset, 1, b.Size()); err != nil {
		return 0, err
	}
	return b.data[offset], nil
}

func (b *Buffer) Read(offset, length uint32) ([]byte, error) {
	if err := CheckBounds(offset, length, b.Size()); err != nil {
		return nil, err
	}
	out := make([]byte, length)
	copy(out, b.data[offset:offset+length])
	return out, nil
}

func (b *Buffer) Write(offset uint32, data []byte) error {
	if err := CheckBounds(offset, uint32(len(data)), b.Size()); err != nil {
		return err
	}
	copy(b.data[offset:], data)
	return nil
}

// Grow appends extraPages*65536 zero bytes, mirroring Wasm memory.grow.
func (b *Buffer) Grow(extraPages uint32) {
	b.data = append(b.data, make([]byte, extraPages*65536)...)
}
