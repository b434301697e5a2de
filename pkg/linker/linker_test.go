package linker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fluencelabs/marine-sub002/pkg/hostimport"
	"github.com/fluencelabs/marine-sub002/pkg/ittype"
	"github.com/fluencelabs/marine-sub002/pkg/itsection"
)

func addSig() ittype.FunctionSignature {
	return ittype.FunctionSignature{
		Name:      "add",
		Arguments: []ittype.RecordField{{Name: "a", Type: ittype.I32{}}, {Name: "b", Type: ittype.I32{}}},
		Outputs:   []ittype.IType{ittype.I32{}},
	}
}

func TestResolveCrossModuleImportInvokesCaller(t *testing.T) {
	registry := ittype.NewRecordRegistry()
	l := New(registry)
	l.RegisterModule("math", map[string]ittype.FunctionSignature{"add": addSig()})

	var gotModule, gotFunc string
	l.SetCaller(func(_ context.Context, module, function string, args []ittype.IValue) (ittype.IValue, error) {
		gotModule, gotFunc = module, function
		a := args[0].(ittype.I32Value).V
		b := args[1].(ittype.I32Value).V
		return ittype.I32Value{V: a + b}, nil
	})

	imports := []itsection.Import{{Namespace: "math", Name: "add", Signature: addSig()}}
	funcs, err := l.Resolve(context.Background(), "caller", imports, nil, hostimport.ResultSink{})
	require.NoError(t, err)
	require.Len(t, funcs, 1)

	out, err := funcs[0].Func(context.Background(), nil, []uint64{2, 3})
	require.NoError(t, err)
	require.Equal(t, []uint64{5}, out)
	require.Equal(t, "math", gotModule)
	require.Equal(t, "add", gotFunc)
}

func TestResolveUnresolvedImport(t *testing.T) {
	l := New(ittype.NewRecordRegistry())
	imports := []itsection.Import{{Namespace: "missing", Name: "add", Signature: addSig()}}
	_, err := l.Resolve(context.Background(), "caller", imports, nil, hostimport.ResultSink{})
	require.ErrorIs(t, err, ErrUnresolvedImport)
}

func TestResolveSignatureMismatch(t *testing.T) {
	registry := ittype.NewRecordRegistry()
	l := New(registry)
	l.RegisterModule("math", map[string]ittype.FunctionSignature{"add": addSig()})

	badSig := addSig()
	badSig.Outputs = []ittype.IType{ittype.F32{}}
	imports := []itsection.Import{{Namespace: "math", Name: "add", Signature: badSig}}
	_, err := l.Resolve(context.Background(), "caller", imports, nil, hostimport.ResultSink{})
	var mismatch *ImportSignatureMismatchError
	require.ErrorAs(t, err, &mismatch)
}

func TestResolveRejectsCycle(t *testing.T) {
	registry := ittype.NewRecordRegistry()
	l := New(registry)
	l.RegisterModule("a", map[string]ittype.FunctionSignature{"f": addSig()})
	l.RegisterModule("b", map[string]ittype.FunctionSignature{"f": addSig()})
	l.SetCaller(func(context.Context, string, string, []ittype.IValue) (ittype.IValue, error) { return nil, nil })

	// b imports from a: edge b->a.
	_, err := l.Resolve(context.Background(), "b", []itsection.Import{{Namespace: "a", Name: "f", Signature: addSig()}}, nil, hostimport.ResultSink{})
	require.NoError(t, err)

	// a importing from b would close the cycle a->b->a.
	_, err = l.Resolve(context.Background(), "a", []itsection.Import{{Namespace: "b", Name: "f", Signature: addSig()}}, nil, hostimport.ResultSink{})
	var cycleErr *ModuleImportCycleError
	require.ErrorAs(t, err, &cycleErr)
}

func TestModuleInUseAndUnregister(t *testing.T) {
	registry := ittype.NewRecordRegistry()
	l := New(registry)
	l.RegisterModule("a", map[string]ittype.FunctionSignature{"f": addSig()})
	l.RegisterModule("b", map[string]ittype.FunctionSignature{"f": addSig()})
	l.SetCaller(func(context.Context, string, string, []ittype.IValue) (ittype.IValue, error) { return nil, nil })

	_, err := l.Resolve(context.Background(), "b", []itsection.Import{{Namespace: "a", Name: "f", Signature: addSig()}}, nil, hostimport.ResultSink{})
	require.NoError(t, err)

	require.True(t, l.ModuleInUse("a"))
	require.False(t, l.ModuleInUse("b"))

	l.Unregister("b")
	require.False(t, l.ModuleInUse("a"))
}

func TestResolveSkipsHostNamespacedImports(t *testing.T) {
	l := New(ittype.NewRecordRegistry())
	imports := []itsection.Import{{Namespace: itsection.HostImportNamespaceV0, Name: "log_utf8_string"}}
	funcs, err := l.Resolve(context.Background(), "caller", imports, nil, hostimport.ResultSink{})
	require.NoError(t, err)
	require.Empty(t, funcs)
}
