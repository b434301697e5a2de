package engine

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/fluencelabs/marine-sub002/pkg/memview"
)

// wazeroRuntime is the tetratelabs/wazero-backed Runtime, generalized
// from OPA's own wazero host-module wiring (a fixed ABI of
// opa_abort/opa_builtin0..4/opa_println) to a caller-supplied set of
// HostFuncs, one per IT standard or cross-module import.
type wazeroRuntime struct {
	rt wazero.Runtime
}

// NewWazeroRuntime constructs a Runtime backed by wazero's compiler
// engine (falls back to the interpreter automatically on platforms
// the compiler doesn't support — wazero handles that internally).
// maxMemoryPages, if non-zero, caps every module instantiated from
// this Runtime at that many 64KiB linear-memory pages; wazero only
// exposes this ceiling at the Runtime level, so a Service wanting
// distinct per-module ceilings needs one Runtime per such module.
func NewWazeroRuntime(ctx context.Context, maxMemoryPages uint32) Runtime {
	rtCfg := wazero.NewRuntimeConfig()
	if maxMemoryPages > 0 {
		rtCfg = rtCfg.WithMemoryLimitPages(maxMemoryPages)
	}
	return &wazeroRuntime{rt: wazero.NewRuntimeWithConfig(ctx, rtCfg)}
}

func (w *wazeroRuntime) Instantiate(ctx context.Context, wasmBytes []byte, cfg ModuleConfig) (Instance, error) {
	if cfg.WASIEnabled {
		if _, err := wasi_snapshot_preview1.Instantiate(ctx, w.rt); err != nil {
			return nil, fmt.Errorf("instantiating wasi: %w", err)
		}
	}

	inst := &wazeroInstance{}

	if len(cfg.HostFuncs) > 0 {
		byNamespace := make(map[string][]HostFunc)
		for _, hf := range cfg.HostFuncs {
			byNamespace[hf.Namespace] = append(byNamespace[hf.Namespace], hf)
		}
		for namespace, funcs := range byNamespace {
			builder := w.rt.NewHostModuleBuilder(namespace)
			for _, hf := range funcs {
				hf := hf
				builder = builder.NewFunctionBuilder().
					WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
						args := append([]uint64(nil), stack[:len(hf.Params)]...)
						results, err := hf.Func(ctx, inst.mem, args)
						if err != nil {
							panic(err)
						}
						copy(stack, results)
					}), toAPIValueKinds(hf.Params), toAPIValueKinds(hf.Results)).
					Export(hf.Name)
			}
			if _, err := builder.Instantiate(ctx); err != nil {
				return nil, fmt.Errorf("instantiating host module %q: %w", namespace, err)
			}
		}
	}

	modCfg := wazero.NewModuleConfig().WithName(cfg.Name).WithCloseOnContextDone(cfg.CloseOnContextDone)
	for k, v := range cfg.Envs {
		modCfg = modCfg.WithEnv(k, v)
	}
	fsConfig := wazero.NewFSConfig()
	hasFS := false
	for guestPath, hostPath := range cfg.PreopenedDirs {
		fsConfig = fsConfig.WithDirMount(hostPath, guestPath)
		hasFS = true
	}
	if hasFS {
		modCfg = modCfg.WithFSConfig(fsConfig)
	}

	compiled, err := w.rt.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, fmt.Errorf("compiling module: %w", err)
	}

	mod, err := w.rt.InstantiateModule(ctx, compiled, modCfg)
	if err != nil {
		return nil, fmt.Errorf("instantiating module: %w", err)
	}

	inst.mod = mod
	inst.mem = &wazeroMemory{mem: mod.Memory()}
	return inst, nil
}

func (w *wazeroRuntime) Close(ctx context.Context) error {
	return w.rt.Close(ctx)
}

func toAPIValueKinds(kinds []ValueKind) []api.ValueType {
	out := make([]api.ValueType, len(kinds))
	for i, k := range kinds {
		switch k {
		case I32:
			out[i] = api.ValueTypeI32
		case I64:
			out[i] = api.ValueTypeI64
		case F32:
			out[i] = api.ValueTypeF32
		case F64:
			out[i] = api.ValueTypeF64
		}
	}
	return out
}

type wazeroInstance struct {
	mod api.Module
	mem *wazeroMemory
}

func (i *wazeroInstance) Memory() memview.View { return i.mem }

func (i *wazeroInstance) CallFunc(ctx context.Context, name string, args ...uint64) ([]uint64, error) {
	fn := i.mod.ExportedFunction(name)
	if fn == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoSuchExport, name)
	}
	return fn.Call(ctx, args...)
}

func (i *wazeroInstance) HasFunc(name string) bool {
	return i.mod.ExportedFunction(name) != nil
}

func (i *wazeroInstance) Close(ctx context.Context) error {
	return i.mod.Close(ctx)
}

// wazeroMemory adapts wazero's api.Memory to memview.View.
type wazeroMemory struct {
	mem api.Memory
}

func (m *wazeroMemory) Size() uint32 { return m.mem.Size() }

func (m *wazeroMemory) ReadByte(offset uint32) (byte, error) {
	b, ok := m.mem.ReadByte(offset)
	if !ok {
		return 0, memview.CheckBounds(offset, 1, m.mem.Size())
	}
	return b, nil
}

func (m *wazeroMemory) Read(offset, length uint32) ([]byte, error) {
	b, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, memview.CheckBounds(offset, length, m.mem.Size())
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func (m *wazeroMemory) Write(offset uint32, data []byte) error {
	if !m.mem.Write(offset, data) {
		return memview.CheckBounds(offset, uint32(len(data)), m.mem.Size())
	}
	return nil
}
