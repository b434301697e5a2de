package hostimport

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/fluencelabs/marine-sub002/pkg/engine"
	"github.com/fluencelabs/marine-sub002/pkg/ittype"
	"github.com/fluencelabs/marine-sub002/pkg/itsection"
	"github.com/fluencelabs/marine-sub002/pkg/lowerer"
)

// StandardImportsConfig carries everything BuildStandardImports needs
// to wire the three fixed host imports for one module.
type StandardImportsConfig struct {
	Namespace       string
	ModuleName      string
	Log             *logrus.Entry
	LoggingMask     int32
	CallParams      func() CallParameters // current top-of-stack call parameters
	MountedBinaries map[string]string     // import name -> executable path
	Alloc           lowerer.Allocator
	Sink            ResultSink
}

// BuildStandardImports returns the engine.HostFuncs for
// log_utf8_string, get_call_parameters, and one mounted_binary entry
// per name declared in cfg.MountedBinaries — the set every module's
// "host" namespace is built from before its module-specific
// cross-module imports are added by pkg/linker.
func (d *Dispatcher) BuildStandardImports(cfg StandardImportsConfig) []engine.HostFunc {
	var out []engine.HostFunc

	loggerSig := ittype.FunctionSignature{
		Name: itsection.LoggerImportName,
		Arguments: []ittype.RecordField{
			{Name: "level", Type: ittype.I32{}},
			{Name: "target", Type: ittype.I32{}},
			{Name: "msg_offset", Type: ittype.I32{}},
			{Name: "msg_size", Type: ittype.I32{}},
		},
	}
	out = append(out, engine.HostFunc{
		Namespace: cfg.Namespace,
		Name:      itsection.LoggerImportName,
		Params:    ArgWasmTypes(loggerSig),
		Results:   ResultWasmTypes(loggerSig),
		Func:      LogUTF8String(cfg.Log, cfg.ModuleName, cfg.LoggingMask),
	})

	callParamsSig := ittype.FunctionSignature{
		Name:    itsection.CallParametersImportName,
		Outputs: []ittype.IType{ittype.Record{ID: CallParametersRecordID}},
	}
	out = append(out, d.Build(cfg.Namespace, itsection.CallParametersImportName, callParamsSig,
		func(ctx context.Context, args []ittype.IValue) (ittype.IValue, error) {
			return cfg.CallParams().ToRecordValue(), nil
		}, cfg.Alloc, cfg.Sink))

	mountedSig := ittype.FunctionSignature{
		Name:      itsection.MountedBinaryImportName,
		Arguments: []ittype.RecordField{{Name: "cmd", Type: ittype.Array{Element: ittype.String{}}}},
		Outputs:   []ittype.IType{ittype.Record{ID: MountedBinaryResultRecordID}},
	}
	for name, path := range cfg.MountedBinaries {
		path := path
		out = append(out, d.Build(cfg.Namespace, name, mountedSig,
			func(ctx context.Context, args []ittype.IValue) (ittype.IValue, error) {
				arr, ok := args[0].(ittype.ArrayValue)
				if !ok {
					return nil, fmt.Errorf("mounted_binary %q: %w", name, ErrMalformedCallParameters)
				}
				cmdArgs, err := ArgsFromArrayValue(arr)
				if err != nil {
					return nil, err
				}
				return RunMountedBinary(ctx, path, cmdArgs[1:]), nil
			}, cfg.Alloc, cfg.Sink))
	}
	return out
}
