package hostimport

import (
	"bytes"
	"context"
	"os/exec"

	"github.com/fluencelabs/marine-sub002/pkg/ittype"
)

// MountedBinaryResultRecordID is the well-known record id the
// mounted_binary standard import returns.
const MountedBinaryResultRecordID uint64 = 1

// MountedBinaryResultSchema is the RecordSchema registered under
// MountedBinaryResultRecordID.
func MountedBinaryResultSchema() ittype.RecordSchema {
	return ittype.RecordSchema{
		Name: "MountedBinaryResult",
		Fields: []ittype.RecordField{
			{Name: "stdout", Type: ittype.ByteArray{}},
			{Name: "stderr", Type: ittype.ByteArray{}},
			{Name: "exit_code", Type: ittype.I32{}},
			{Name: "error", Type: ittype.String{}},
		},
	}
}

// RunMountedBinary executes path with every element of args passed
// verbatim as its arguments and returns the MountedBinaryResult record. A spawn failure is reported in the
// error field with exit_code -1; it is never returned as a Go error so
// the guest always receives a well-formed record back.
func RunMountedBinary(ctx context.Context, path string, args []string) ittype.RecordValue {
	cmd := exec.CommandContext(ctx, path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	errMsg := ""
	exitCode := int32(0)
	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = int32(exitErr.ExitCode())
		} else {
			exitCode = -1
			errMsg = err.Error()
		}
	}

	return ittype.RecordValue{
		ID: MountedBinaryResultRecordID,
		Fields: []ittype.IValue{
			ittype.ByteArrayValue{V: stdout.Bytes()},
			ittype.ByteArrayValue{V: stderr.Bytes()},
			ittype.I32Value{V: exitCode},
			ittype.StringValue{V: errMsg},
		},
	}
}

// ArgsFromArrayValue extracts the string slice backing an
// Array(String) IValue, as mounted_binary's single argument arrives.
func ArgsFromArrayValue(v ittype.ArrayValue) ([]string, error) {
	if len(v.Elements) == 0 {
		return nil, ErrMountedBinaryEmptyArgs
	}
	out := make([]string, 0, len(v.Elements))
	for _, e := range v.Elements {
		sv, ok := e.(ittype.StringValue)
		if !ok {
			return nil, ErrMalformedCallParameters
		}
		out = append(out, sv.V)
	}
	return out, nil
}
