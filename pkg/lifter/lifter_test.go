package lifter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fluencelabs/marine-sub002/pkg/ittype"
	"github.com/fluencelabs/marine-sub002/pkg/memview"
)

func TestLiftScalars(t *testing.T) {
	mem := memview.NewBuffer(0)
	src := NewSource(mem, []RawValue{42, 1})

	v, err := Lift(src, ittype.S32{}, nil)
	require.NoError(t, err)
	require.Equal(t, ittype.S32Value{V: 42}, v)

	v, err = Lift(src, ittype.Boolean{}, nil)
	require.NoError(t, err)
	require.Equal(t, ittype.BooleanValue{V: true}, v)
}

func TestLiftString(t *testing.T) {
	mem := memview.NewBuffer(64)
	require.NoError(t, mem.Write(8, []byte("hello")))
	src := NewSource(mem, []RawValue{8, 5})

	v, err := Lift(src, ittype.String{}, nil)
	require.NoError(t, err)
	require.Equal(t, ittype.StringValue{V: "hello"}, v)
}

func TestLiftStringInvalidUTF8(t *testing.T) {
	mem := memview.NewBuffer(16)
	require.NoError(t, mem.Write(0, []byte{0xff, 0xfe, 0xfd}))
	src := NewSource(mem, []RawValue{0, 3})

	_, err := Lift(src, ittype.String{}, nil)
	require.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestLiftStringOutOfBounds(t *testing.T) {
	mem := memview.NewBuffer(4)
	src := NewSource(mem, []RawValue{0, 100})

	_, err := Lift(src, ittype.String{}, nil)
	require.ErrorIs(t, err, ErrInvalidMemoryAccess)
}

func TestLiftNotEnoughValues(t *testing.T) {
	mem := memview.NewBuffer(0)
	src := NewSource(mem, nil)

	_, err := Lift(src, ittype.S32{}, nil)
	require.ErrorIs(t, err, ErrNotEnoughValues)
}

func TestLiftRecord(t *testing.T) {
	registry := ittype.NewRecordRegistry()
	require.NoError(t, registry.Register(1, ittype.RecordSchema{
		Name: "Point",
		Fields: []ittype.RecordField{
			{Name: "x", Type: ittype.S32{}},
			{Name: "y", Type: ittype.S32{}},
		},
	}))

	mem := memview.NewBuffer(32)
	require.NoError(t, memview.WriteU32(mem, 0, 10))
	require.NoError(t, memview.WriteU32(mem, 4, 20))

	src := NewSource(mem, []RawValue{0})
	v, err := Lift(src, ittype.Record{ID: 1}, registry)
	require.NoError(t, err)
	require.Equal(t, ittype.RecordValue{
		ID: 1,
		Fields: []ittype.IValue{
			ittype.S32Value{V: 10},
			ittype.S32Value{V: 20},
		},
	}, v)
}

func TestLiftArrayOfS32(t *testing.T) {
	mem := memview.NewBuffer(64)
	require.NoError(t, memview.WriteU32(mem, 0, 1))
	require.NoError(t, memview.WriteU32(mem, 4, 2))
	require.NoError(t, memview.WriteU32(mem, 8, 3))

	src := NewSource(mem, []RawValue{0, 3})
	v, err := Lift(src, ittype.Array{Element: ittype.S32{}}, nil)
	require.NoError(t, err)
	require.Equal(t, ittype.ArrayValue{Elements: []ittype.IValue{
		ittype.S32Value{V: 1}, ittype.S32Value{V: 2}, ittype.S32Value{V: 3},
	}}, v)
}
