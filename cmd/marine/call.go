package main

import (
	"context"
	"fmt"

	"github.com/fluencelabs/marine-sub002/pkg/hostimport"
	"github.com/fluencelabs/marine-sub002/pkg/ittype"
	"github.com/fluencelabs/marine-sub002/pkg/service"
)

// findSignature looks up moduleName.functionName's declared signature
// in GetInterface's report. The report carries only each type's
// rendered text (TextView loses the concrete IType), so argument
// decoding is driven by that text.
func findSignature(iface service.Interface, moduleName, functionName string) (service.FunctionInterface, bool) {
	for _, m := range iface.Modules {
		if m.Name != moduleName {
			continue
		}
		for _, f := range m.Functions {
			if f.Name == functionName {
				return f, true
			}
		}
	}
	return service.FunctionInterface{}, false
}

// textToScalarType maps a TextView rendering back to the IType it
// came from, for the scalar kinds the CLI accepts as arguments.
func textToScalarType(text string) (ittype.IType, bool) {
	switch text {
	case "bool":
		return ittype.Boolean{}, true
	case "i8":
		return ittype.S8{}, true
	case "i16":
		return ittype.S16{}, true
	case "i32":
		return ittype.I32{}, true
	case "i64":
		return ittype.I64{}, true
	case "u8":
		return ittype.U8{}, true
	case "u16":
		return ittype.U16{}, true
	case "u32":
		return ittype.U32{}, true
	case "u64":
		return ittype.U64{}, true
	case "f32":
		return ittype.F32{}, true
	case "f64":
		return ittype.F64{}, true
	case "string":
		return ittype.String{}, true
	default:
		return nil, false
	}
}

func runCall(ctx context.Context, svc *service.Service, moduleName, functionName string, rawArgs []string) error {
	fi, ok := findSignature(svc.GetInterface(), moduleName, functionName)
	if !ok {
		return fmt.Errorf("no such function %s.%s", moduleName, functionName)
	}
	if len(rawArgs) != len(fi.Arguments) {
		return fmt.Errorf("%s.%s expects %d argument(s), got %d", moduleName, functionName, len(fi.Arguments), len(rawArgs))
	}

	args := make([]ittype.IValue, len(rawArgs))
	for i, text := range fi.Arguments {
		t, ok := textToScalarType(text)
		if !ok {
			return fmt.Errorf("argument %d: %s: command-line calls only support scalar argument types", i, text)
		}
		v, err := decodeScalarArg(t, rawArgs[i])
		if err != nil {
			return fmt.Errorf("argument %d: %w", i, err)
		}
		args[i] = v
	}

	result, err := svc.Call(ctx, moduleName, functionName, args, hostimport.CallParameters{})
	if err != nil {
		return err
	}
	fmt.Println(formatResult(result))
	return nil
}

func printInterface(svc *service.Service) {
	iface := svc.GetInterface()
	for _, m := range iface.Modules {
		fmt.Printf("module %s:\n", m.Name)
		for _, f := range m.Functions {
			fmt.Printf("  %s(%s) -> (%s)\n", f.Name, joinTypes(f.Arguments), joinTypes(f.Outputs))
		}
	}
	for _, r := range iface.Records {
		fmt.Printf("record %s:\n", r.Name)
		for _, f := range r.Fields {
			fmt.Printf("  %s: %s\n", f.Name, f.Type)
		}
	}
}

func joinTypes(types []string) string {
	out := ""
	for i, t := range types {
		if i > 0 {
			out += ", "
		}
		out += t
	}
	return out
}
