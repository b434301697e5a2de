// Package engine abstracts over the concrete Wasm runtime so the rest
// of this module depends only on this interface, not directly on
// tetratelabs/wazero's API. original_source/crates/wasm-backend-traits
// defines the same kind of generic WasmBackend trait with a concrete
// backend plugged in at the top; this interface plays the same role
// in Go.
package engine

import (
	"context"

	"github.com/fluencelabs/marine-sub002/pkg/memview"
)

// HostFunc is a host-implemented import, registered before
// instantiation. Params/results are raw Wasm value kinds expressed as
// ValueKind; the caller (pkg/hostimport) is responsible for any
// lift/lower translation around it.
type HostFunc struct {
	Namespace string
	Name      string
	Params    []ValueKind
	Results   []ValueKind
	Func      func(ctx context.Context, mem memview.View, args []uint64) ([]uint64, error)
}

// ValueKind is a raw Wasm value type.
type ValueKind int

const (
	I32 ValueKind = iota
	I64
	F32
	F64
)

// ModuleConfig configures how a module is instantiated.
//
// MemoryMinPages/MemoryMaxPages are carried through for parity with
// the original per-module memory policy, but the concrete wazero
// backend can only enforce a maximum at the Runtime level (shared
// across every module instantiated from it) — see
// NewWazeroRuntime's maxMemoryPages parameter; the wasm binary's own
// memory section still governs its starting size.
type ModuleConfig struct {
	Name           string
	MemoryMinPages uint32
	MemoryMaxPages uint32
	WASIEnabled    bool
	Envs           map[string]string
	PreopenedDirs  map[string]string // guest path -> host path
	HostFuncs      []HostFunc
	// CloseOnContextDone aborts an in-flight call and closes the module
	// as soon as its ctx is done, the interrupt point a Service-level
	// epoch deadline traps a long-running guest loop at.
	CloseOnContextDone bool
}

// Runtime creates module Instances from raw Wasm bytes, mirroring the
// "compile once, instantiate" lifecycle every Wasm engine exposes.
type Runtime interface {
	// Instantiate compiles and instantiates wasmBytes under cfg,
	// returning a ready-to-call Instance.
	Instantiate(ctx context.Context, wasmBytes []byte, cfg ModuleConfig) (Instance, error)
	// Close releases every resource the runtime holds (all instances
	// created from it become invalid).
	Close(ctx context.Context) error
}

// Instance is one instantiated Wasm module: its exported functions and
// its linear memory.
type Instance interface {
	Memory() memview.View
	// CallFunc invokes the named export with raw Wasm args, returning
	// its raw results.
	CallFunc(ctx context.Context, name string, args ...uint64) ([]uint64, error)
	// HasFunc reports whether name is exported.
	HasFunc(name string) bool
	Close(ctx context.Context) error
}
