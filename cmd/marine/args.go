package main

import (
	"encoding/json"
	"fmt"

	"github.com/fluencelabs/marine-sub002/pkg/ittype"
)

// decodeScalarArg converts one raw command-line token into the typed
// IValue t describes. Only scalar argument types are supported from
// the command line; Array/Record arguments need a richer source than
// a shell invocation and are rejected with a clear error instead of
// guessed at.
func decodeScalarArg(t ittype.IType, raw string) (ittype.IValue, error) {
	switch t.(type) {
	case ittype.Boolean:
		var v bool
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, err
		}
		return ittype.BooleanValue{V: v}, nil
	case ittype.S8:
		v, err := decodeInt(raw)
		return ittype.S8Value{V: int8(v)}, err
	case ittype.S16:
		v, err := decodeInt(raw)
		return ittype.S16Value{V: int16(v)}, err
	case ittype.S32:
		v, err := decodeInt(raw)
		return ittype.S32Value{V: int32(v)}, err
	case ittype.S64:
		v, err := decodeInt(raw)
		return ittype.S64Value{V: v}, err
	case ittype.U8:
		v, err := decodeInt(raw)
		return ittype.U8Value{V: uint8(v)}, err
	case ittype.U16:
		v, err := decodeInt(raw)
		return ittype.U16Value{V: uint16(v)}, err
	case ittype.U32:
		v, err := decodeInt(raw)
		return ittype.U32Value{V: uint32(v)}, err
	case ittype.U64:
		v, err := decodeInt(raw)
		return ittype.U64Value{V: uint64(v)}, err
	case ittype.I32:
		v, err := decodeInt(raw)
		return ittype.I32Value{V: int32(v)}, err
	case ittype.I64:
		v, err := decodeInt(raw)
		return ittype.I64Value{V: v}, err
	case ittype.F32:
		var v float64
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, err
		}
		return ittype.F32Value{V: float32(v)}, nil
	case ittype.F64:
		var v float64
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, err
		}
		return ittype.F64Value{V: v}, nil
	case ittype.String:
		return ittype.StringValue{V: raw}, nil
	default:
		return nil, fmt.Errorf("%s: command-line arguments only support scalar types", ittype.TextView(t, nil))
	}
}

func decodeInt(raw string) (int64, error) {
	var v int64
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return 0, fmt.Errorf("expected an integer: %w", err)
	}
	return v, nil
}

// formatResult renders a call's result the way the REPL and the
// one-shot call command both print it: scalars as their Go value,
// byte arrays as hex, arrays/records as their JSON-friendly shape.
func formatResult(v ittype.IValue) string {
	if v == nil {
		return "(no result)"
	}
	switch t := v.(type) {
	case ittype.BooleanValue:
		return fmt.Sprintf("%v", t.V)
	case ittype.S8Value:
		return fmt.Sprintf("%d", t.V)
	case ittype.S16Value:
		return fmt.Sprintf("%d", t.V)
	case ittype.S32Value:
		return fmt.Sprintf("%d", t.V)
	case ittype.S64Value:
		return fmt.Sprintf("%d", t.V)
	case ittype.U8Value:
		return fmt.Sprintf("%d", t.V)
	case ittype.U16Value:
		return fmt.Sprintf("%d", t.V)
	case ittype.U32Value:
		return fmt.Sprintf("%d", t.V)
	case ittype.U64Value:
		return fmt.Sprintf("%d", t.V)
	case ittype.I32Value:
		return fmt.Sprintf("%d", t.V)
	case ittype.I64Value:
		return fmt.Sprintf("%d", t.V)
	case ittype.F32Value:
		return fmt.Sprintf("%g", t.V)
	case ittype.F64Value:
		return fmt.Sprintf("%g", t.V)
	case ittype.StringValue:
		return t.V
	case ittype.ByteArrayValue:
		return fmt.Sprintf("%x", t.V)
	default:
		b, err := json.Marshal(describeValue(v))
		if err != nil {
			return fmt.Sprintf("%+v", v)
		}
		return string(b)
	}
}

// describeValue converts an Array/Record IValue into plain
// interface{} data json.Marshal can render, since ArrayValue/
// RecordValue aren't themselves JSON-tagged structs.
func describeValue(v ittype.IValue) interface{} {
	switch t := v.(type) {
	case ittype.ArrayValue:
		out := make([]interface{}, len(t.Elements))
		for i, e := range t.Elements {
			out[i] = describeValue(e)
		}
		return out
	case ittype.RecordValue:
		out := make([]interface{}, len(t.Fields))
		for i, f := range t.Fields {
			out[i] = describeValue(f)
		}
		return out
	default:
		return formatResult(v)
	}
}
