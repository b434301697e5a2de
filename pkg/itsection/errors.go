package itsection

import "errors"

var (
	// ErrTruncated is returned when a custom section's declared content
	// runs past the end of the available bytes.
	ErrTruncated = errors.New("interface-types section truncated")
	// ErrTrailingBytes is returned when bytes remain after the declared
	// AST content of an "interface-types" section has been fully read.
	ErrTrailingBytes = errors.New("interface-types section has trailing bytes")
	// ErrMultipleITSections is returned when a module carries more than
	// one "interface-types" custom section; the SDK-version, it-version
	// and manifest extractors also return it for duplicates of theirs.
	ErrMultipleITSections = errors.New("module has more than one interface-types section")
	// ErrNoITSection is returned when a module has no "interface-types"
	// custom section at all.
	ErrNoITSection = errors.New("module has no interface-types section")
	// ErrUnknownTypeTag is returned when a type tag byte is outside the
	// closed set this codec understands.
	ErrUnknownTypeTag = errors.New("unknown interface type tag")
	// ErrNoSDKVersionSection is returned when a module has no SDK
	// version custom section.
	ErrNoSDKVersionSection = errors.New("module has no sdk version section")
	// ErrNoManifestSection is returned when a module has no manifest
	// custom section.
	ErrNoManifestSection = errors.New("module has no manifest section")
	// ErrNoITVersionSection is returned when a module has no it-version
	// custom section.
	ErrNoITVersionSection = errors.New("module has no it-version section")
)
