// Package config decodes the TOML service/module configuration file,
// mirroring original_source/crates/fluence-app-service/src/raw_toml_config.rs: a
// Toml*Config wire shape decoded with go-toml/v2, then converted into
// the typed in-memory configuration the rest of this module consumes.
package config

import (
	"fmt"
	"os"

	"github.com/blang/semver"
	"github.com/pelletier/go-toml/v2"
)

// WASIConfig configures a module's WASI preview1 environment.
type WASIConfig struct {
	Envs           map[string]string `toml:"envs"`
	PreopenedFiles []string          `toml:"preopened_files"`
	MappedDirs     map[string]string `toml:"mapped_dirs"`
}

// ModuleConfig configures one loaded module.
type ModuleConfig struct {
	Name                    string            `toml:"name"`
	Path                    string            `toml:"path"`
	MemPagesCount           uint32            `toml:"mem_pages_count"`
	MaxHeapPagesCount       uint32            `toml:"max_heap_pages_count"`
	LoggerEnabled           bool              `toml:"logger_enabled"`
	LoggingMask             int32             `toml:"logging_mask"`
	WASI                    WASIConfig        `toml:"wasi"`
	MountedBinaries         map[string]string `toml:"mounted_binaries"`
	FreeArgumentsAfterCall  *bool             `toml:"free_arguments_after_call"`
}

// FreeArgsAfterCall returns the module's deallocate-after-call policy,
// defaulting to true when unset (Open Question (a)'s resolution).
func (m ModuleConfig) FreeArgsAfterCall() bool {
	if m.FreeArgumentsAfterCall == nil {
		return true
	}
	return *m.FreeArgumentsAfterCall
}

// ServiceConfig is the root TOML document.
type ServiceConfig struct {
	ModulesDir    string         `toml:"modules_dir"`
	MinSDKVersion string         `toml:"min_sdk_version"`
	MinITVersion  string         `toml:"min_it_version"`
	Modules       []ModuleConfig `toml:"module"`
}

// Load decodes a TOML file at path into a ServiceConfig.
func Load(path string) (*ServiceConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg ServiceConfig
	if err := toml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &cfg, nil
}

// MinSDKSemver parses MinSDKVersion, falling back to the package
// default when the field is empty.
func (c *ServiceConfig) MinSDKSemver(fallback semver.Version) (semver.Version, error) {
	if c.MinSDKVersion == "" {
		return fallback, nil
	}
	return semver.Parse(c.MinSDKVersion)
}

// MinITSemver parses MinITVersion, falling back to the package default
// when the field is empty.
func (c *ServiceConfig) MinITSemver(fallback semver.Version) (semver.Version, error) {
	if c.MinITVersion == "" {
		return fallback, nil
	}
	return semver.Parse(c.MinITVersion)
}

// ModuleByName returns the configuration for the named module.
func (c *ServiceConfig) ModuleByName(name string) (ModuleConfig, bool) {
	for _, m := range c.Modules {
		if m.Name == name {
			return m, true
		}
	}
	return ModuleConfig{}, false
}
