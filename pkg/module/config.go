package module

// WASIConfig configures a module's WASI preview1 environment.
type WASIConfig struct {
	Envs           map[string]string
	PreopenedFiles []string
	MappedDirs     map[string]string // guest path -> host path
}

// Config is the fully-resolved, in-memory configuration for one
// module, the form pkg/config's TOML decoding converts into before
// handing off to Module.New.
type Config struct {
	MemPagesCount          uint32
	MaxHeapPagesCount      uint32
	LoggerEnabled          bool
	LoggingMask            int32
	WASI                   WASIConfig
	MountedBinaries        map[string]string
	FreeArgumentsAfterCall bool
}
