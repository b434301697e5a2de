package module

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/fluencelabs/marine-sub002/pkg/engine"
	"github.com/fluencelabs/marine-sub002/pkg/hostimport"
	"github.com/fluencelabs/marine-sub002/pkg/ittype"
	"github.com/fluencelabs/marine-sub002/pkg/itsection"
	"github.com/fluencelabs/marine-sub002/pkg/memview"
)

// buildFakeModuleBytes assembles a minimal byte string New() can parse:
// the fixed 8-byte wasm preamble followed by custom sections only — the
// fake runtime below never looks at wasmBytes itself, so no other
// section type is needed for this test.
func buildFakeModuleBytes(t *testing.T, ast *itsection.AST, sdkVersion string) []byte {
	t.Helper()
	out := append([]byte{}, 0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00)
	out = append(out, itsection.EncodeCustomSection(itsection.CustomSection{
		Name:    itsection.SectionName,
		Content: itsection.EmbedIT(ast),
	})...)
	out = append(out, itsection.EncodeCustomSection(itsection.CustomSection{
		Name:    itsection.SDKVersionSectionName,
		Content: []byte(sdkVersion),
	})...)
	return out
}

// fakeInstance simulates a guest module's exported functions without
// any real Wasm engine: allocate/set_result_ptr/set_result_size/
// get_result_ptr/get_result_size behave as a real SDK-generated guest
// would, plus two test exports (double, identity_string) whose bodies
// are expressed directly in Go rather than compiled Wasm.
type fakeInstance struct {
	mem        *memview.Buffer
	next       uint32
	resultPtr  uint32
	resultSize uint32
	dealloc    []allocRegion
	extra      map[string]bool
}

func newFakeInstance(extra ...string) *fakeInstance {
	set := map[string]bool{
		AllocateFuncName:      true,
		SetResultPtrFuncName:  true,
		SetResultSizeFuncName: true,
		GetResultPtrFuncName:  true,
		GetResultSizeFuncName: true,
		DeallocateFuncName:    true,
	}
	for _, n := range extra {
		set[n] = true
	}
	return &fakeInstance{mem: memview.NewBuffer(0), extra: set}
}

func (f *fakeInstance) Memory() memview.View { return f.mem }

func (f *fakeInstance) CallFunc(_ context.Context, name string, args ...uint64) ([]uint64, error) {
	switch name {
	case AllocateFuncName:
		size := uint32(args[0])
		offset := f.next
		needed := offset + size
		for needed > f.mem.Size() {
			f.mem.Grow(1)
		}
		f.next = needed
		return []uint64{uint64(offset)}, nil
	case SetResultPtrFuncName:
		f.resultPtr = uint32(args[0])
		return nil, nil
	case SetResultSizeFuncName:
		f.resultSize = uint32(args[0])
		return nil, nil
	case GetResultPtrFuncName:
		return []uint64{uint64(f.resultPtr)}, nil
	case GetResultSizeFuncName:
		return []uint64{uint64(f.resultSize)}, nil
	case DeallocateFuncName:
		f.dealloc = append(f.dealloc, allocRegion{offset: uint32(args[0]), size: uint32(args[1])})
		return nil, nil
	case "double":
		return []uint64{args[0] * 2}, nil
	case "identity_string":
		// The guest's own body: the string it was handed is already in
		// its memory at [offset,length); an identity function reports
		// that same region back as its result.
		f.resultPtr = uint32(args[0])
		f.resultSize = uint32(args[1])
		return nil, nil
	}
	return nil, engine.ErrNoSuchExport
}

func (f *fakeInstance) HasFunc(name string) bool { return f.extra[name] }

func (f *fakeInstance) Close(context.Context) error { return nil }

type fakeRuntime struct {
	inst *fakeInstance
}

func (r *fakeRuntime) Instantiate(context.Context, []byte, engine.ModuleConfig) (engine.Instance, error) {
	return r.inst, nil
}

func (r *fakeRuntime) Close(context.Context) error { return nil }

func newTestModule(t *testing.T, ast *itsection.AST, inst *fakeInstance) *Instance {
	t.Helper()
	registry := ittype.NewRecordRegistry()
	disp := &hostimport.Dispatcher{Registry: registry}
	wasmBytes := buildFakeModuleBytes(t, ast, "0.6.0")
	m, err := New(context.Background(), "test-module", wasmBytes, Config{FreeArgumentsAfterCall: true}, registry,
		&fakeRuntime{inst: inst}, disp, nil,
		func() hostimport.CallParameters { return hostimport.CallParameters{CallID: "call-1"} },
		logrus.NewEntry(logrus.New()))
	require.NoError(t, err)
	return m
}

func TestModuleCallScalar(t *testing.T) {
	ast := &itsection.AST{
		Exports: []itsection.Export{{
			Name: "double",
			Signature: ittype.FunctionSignature{
				Name:      "double",
				Arguments: []ittype.RecordField{{Name: "x", Type: ittype.I32{}}},
				Outputs:   []ittype.IType{ittype.I32{}},
			},
		}},
	}
	m := newTestModule(t, ast, newFakeInstance("double"))

	out, err := m.Call(context.Background(), "double", []ittype.IValue{ittype.I32Value{V: 21}})
	require.NoError(t, err)
	require.Equal(t, ittype.I32Value{V: 42}, out)
}

func TestModuleCallCompoundResultViaResultSink(t *testing.T) {
	ast := &itsection.AST{
		Exports: []itsection.Export{{
			Name: "identity_string",
			Signature: ittype.FunctionSignature{
				Name:      "identity_string",
				Arguments: []ittype.RecordField{{Name: "s", Type: ittype.String{}}},
				Outputs:   []ittype.IType{ittype.String{}},
			},
		}},
	}
	inst := newFakeInstance("identity_string")
	m := newTestModule(t, ast, inst)

	out, err := m.Call(context.Background(), "identity_string", []ittype.IValue{ittype.StringValue{V: "hello"}})
	require.NoError(t, err)
	require.Equal(t, ittype.StringValue{V: "hello"}, out)
	require.Len(t, inst.dealloc, 1)
}

func TestModuleCallNoSuchFunction(t *testing.T) {
	m := newTestModule(t, &itsection.AST{}, newFakeInstance())
	_, err := m.Call(context.Background(), "missing", nil)
	var nsf *NoSuchFunctionError
	require.ErrorAs(t, err, &nsf)
}

func TestModuleCallArgumentCountMismatch(t *testing.T) {
	ast := &itsection.AST{
		Exports: []itsection.Export{{
			Name:      "double",
			Signature: ittype.FunctionSignature{Name: "double", Arguments: []ittype.RecordField{{Name: "x", Type: ittype.I32{}}}},
		}},
	}
	m := newTestModule(t, ast, newFakeInstance("double"))
	_, err := m.Call(context.Background(), "double", nil)
	var cm *ArgumentCountMismatchError
	require.ErrorAs(t, err, &cm)
}

func TestModuleCallArgumentTypeMismatch(t *testing.T) {
	ast := &itsection.AST{
		Exports: []itsection.Export{{
			Name:      "double",
			Signature: ittype.FunctionSignature{Name: "double", Arguments: []ittype.RecordField{{Name: "x", Type: ittype.S32{}}}},
		}},
	}
	m := newTestModule(t, ast, newFakeInstance("double"))
	_, err := m.Call(context.Background(), "double", []ittype.IValue{ittype.U32Value{V: 1}})
	var tm *ArgumentTypeMismatchError
	require.ErrorAs(t, err, &tm)
}

func TestModuleNewMissingITSection(t *testing.T) {
	registry := ittype.NewRecordRegistry()
	disp := &hostimport.Dispatcher{Registry: registry}
	wasmBytes := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	_, err := New(context.Background(), "m", wasmBytes, Config{}, registry, &fakeRuntime{inst: newFakeInstance()}, disp, nil,
		func() hostimport.CallParameters { return hostimport.CallParameters{} }, logrus.NewEntry(logrus.New()))
	require.ErrorIs(t, err, itsection.ErrNoITSection)
}

func TestModuleNewRollsBackRecordsOnMissingGuestExport(t *testing.T) {
	ast := &itsection.AST{
		Records: map[uint64]ittype.RecordSchema{
			100: {Name: "Foo", Fields: []ittype.RecordField{{Name: "a", Type: ittype.I32{}}}},
		},
	}
	registry := ittype.NewRecordRegistry()
	disp := &hostimport.Dispatcher{Registry: registry}
	wasmBytes := buildFakeModuleBytes(t, ast, "0.6.0")

	inst := &fakeInstance{mem: memview.NewBuffer(0), extra: map[string]bool{}} // exports nothing, not even allocate
	_, err := New(context.Background(), "m", wasmBytes, Config{}, registry, &fakeRuntime{inst: inst}, disp, nil,
		func() hostimport.CallParameters { return hostimport.CallParameters{} }, logrus.NewEntry(logrus.New()))
	var mge *MissingGuestExportError
	require.ErrorAs(t, err, &mge)

	_, resolveErr := registry.Resolve(100)
	require.Error(t, resolveErr, "staged record registration must roll back when instantiation fails")
}
