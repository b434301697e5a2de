package config

import "github.com/fluencelabs/marine-sub002/pkg/module"

// ToModuleConfig converts a decoded TOML ModuleConfig into the runtime
// shape module.New consumes, resolving the free-arguments-after-call
// default along the way.
func (m ModuleConfig) ToModuleConfig() module.Config {
	return module.Config{
		MemPagesCount:     m.MemPagesCount,
		MaxHeapPagesCount: m.MaxHeapPagesCount,
		LoggerEnabled:     m.LoggerEnabled,
		LoggingMask:       m.LoggingMask,
		WASI: module.WASIConfig{
			Envs:           m.WASI.Envs,
			PreopenedFiles: m.WASI.PreopenedFiles,
			MappedDirs:     m.WASI.MappedDirs,
		},
		MountedBinaries:        m.MountedBinaries,
		FreeArgumentsAfterCall: m.FreeArgsAfterCall(),
	}
}
