package itsection

import (
	"testing"

	"github.com/blang/semver"
	"github.com/stretchr/testify/require"

	"github.com/fluencelabs/marine-sub002/pkg/ittype"
)

func TestITSectionRoundTrip(t *testing.T) {
	ast := &AST{
		Records: map[uint64]ittype.RecordSchema{
			1: {Name: "Point", Fields: []ittype.RecordField{
				{Name: "x", Type: ittype.S32{}},
				{Name: "y", Type: ittype.S32{}},
			}},
		},
		Imports: []Import{
			{Namespace: HostImportNamespaceV0, Name: LoggerImportName,
				Signature: ittype.FunctionSignature{Name: LoggerImportName, Arguments: []ittype.RecordField{{Name: "msg", Type: ittype.String{}}}}},
		},
		Exports: []Export{
			{Name: "greet", Signature: ittype.FunctionSignature{
				Name:      "greet",
				Arguments: []ittype.RecordField{{Name: "name", Type: ittype.String{}}},
				Outputs:   []ittype.IType{ittype.String{}},
			}},
		},
	}

	encoded := EmbedIT(ast)
	decoded, err := ParseITSection(encoded)
	require.NoError(t, err)

	require.Equal(t, ast.Records, decoded.Records)
	require.Equal(t, ast.Imports, decoded.Imports)
	require.Equal(t, ast.Exports, decoded.Exports)
}

func TestParseITSectionTrailingBytes(t *testing.T) {
	ast := &AST{Records: map[uint64]ittype.RecordSchema{}}
	encoded := EmbedIT(ast)
	encoded = append(encoded, 0xFF, 0xFF)

	_, err := ParseITSection(encoded)
	require.ErrorIs(t, err, ErrTrailingBytes)
}

func TestParseITSectionTruncated(t *testing.T) {
	_, err := ParseITSection([]byte{1, 0})
	require.ErrorIs(t, err, ErrTruncated)
}

func TestExtractOneMultipleSections(t *testing.T) {
	sections := []CustomSection{
		{Name: SectionName, Content: []byte{}},
		{Name: SectionName, Content: []byte{}},
	}
	_, err := ExtractOne(sections, SectionName, ErrNoITSection, ErrMultipleITSections)
	require.ErrorIs(t, err, ErrMultipleITSections)
}

func TestDeleteITSections(t *testing.T) {
	sections := []CustomSection{
		{Name: SectionName, Content: []byte{1}},
		{Name: "name", Content: []byte{2}},
	}
	out := DeleteITSections(sections)
	require.Len(t, out, 1)
	require.Equal(t, "name", out[0].Name)
}

func TestManifestRoundTrip(t *testing.T) {
	m := Manifest{Authors: "a", Version: "1.0.0", Description: "d", Repository: "r", BuildTime: "t"}
	decoded, err := ParseManifest(EmbedManifest(m))
	require.NoError(t, err)
	require.Equal(t, m, decoded)
}

func TestDetectEffects(t *testing.T) {
	imports := []Import{
		{Namespace: HostImportNamespaceV0, Name: LoggerImportName},
		{Namespace: HostImportNamespaceV0, Name: CallParametersImportName},
		{Namespace: HostImportNamespaceV0, Name: "curl"},
		{Namespace: "env", Name: "unrelated"},
	}
	effects := DetectEffects(imports)
	require.Contains(t, effects, LoggerEffect{})
	require.Contains(t, effects, MountedBinaryEffect{Name: "curl"})
	require.Len(t, effects, 2)
}

func TestVersionChecks(t *testing.T) {
	require.NoError(t, CheckSDKVersion(MinSDKVersion, MinSDKVersion))
	err := CheckSDKVersion(semver.MustParse("0.5.0"), MinSDKVersion)
	require.Error(t, err)
}
