package itsection

import "strings"

// Standard host import names and namespaces, matching
// module-info-parser's effects.rs constants exactly.
const (
	HostImportNamespaceV0    = "host"
	HostImportNamespacePrefix = "__marine_host_api_v"
	LoggerImportName          = "log_utf8_string"
	CallParametersImportName  = "get_call_parameters"
	MountedBinaryImportName   = "mounted_binary"
)

// Effect is the closed set of observable side-effect capabilities a
// module's import list can declare, beyond pure computation.
type Effect interface{ effect() }

// LoggerEffect marks a module that imports log_utf8_string.
type LoggerEffect struct{}

// MountedBinaryEffect marks a module that imports a mounted_binary
// entry under the given logical name.
type MountedBinaryEffect struct{ Name string }

func (LoggerEffect) effect()        {}
func (MountedBinaryEffect) effect() {}

// IsHostImport reports whether namespace names one of this module's
// standard host import namespaces (the unversioned "host" namespace or
// any "__marine_host_api_v{N}" versioned one).
func IsHostImport(namespace string) bool {
	return namespace == HostImportNamespaceV0 || strings.HasPrefix(namespace, HostImportNamespacePrefix)
}

// DetectEffects inspects a module's import list and classifies each
// host import into the Effect it grants, matching effects.rs's
// inspect_import logic: log_utf8_string implies LoggerEffect, any
// import name other than the two standard ones implies a
// MountedBinaryEffect under that name (mounted binaries are
// registered dynamically by name, unlike the two fixed standard
// calls).
func DetectEffects(imports []Import) []Effect {
	var out []Effect
	seenLogger := false
	for _, imp := range imports {
		if !IsHostImport(imp.Namespace) {
			continue
		}
		switch imp.Name {
		case LoggerImportName:
			if !seenLogger {
				out = append(out, LoggerEffect{})
				seenLogger = true
			}
		case CallParametersImportName:
			// Always available, not a distinguishing effect.
		default:
			out = append(out, MountedBinaryEffect{Name: imp.Name})
		}
	}
	return out
}
