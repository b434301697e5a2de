package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/fluencelabs/marine-sub002/internal/rtlog"
	"github.com/fluencelabs/marine-sub002/pkg/config"
	"github.com/fluencelabs/marine-sub002/pkg/engine"
	"github.com/fluencelabs/marine-sub002/pkg/service"
)

// buildService loads cfgPath and every module it declares, in
// declaration order, into a fresh Service backed by one wazero
// Runtime shared across them.
func buildService(ctx context.Context, cfgPath string, verbose bool) (*service.Service, *config.ServiceConfig, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, err
	}

	log := rtlog.New()
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	var maxPages uint32
	for _, m := range cfg.Modules {
		if m.MaxHeapPagesCount > maxPages {
			maxPages = m.MaxHeapPagesCount
		}
	}

	rt := engine.NewWazeroRuntime(ctx, maxPages)
	svc, err := service.New(rt, log)
	if err != nil {
		return nil, nil, err
	}

	for _, m := range cfg.Modules {
		path := m.Path
		if !filepath.IsAbs(path) && cfg.ModulesDir != "" {
			path = filepath.Join(cfg.ModulesDir, path)
		}
		wasmBytes, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("reading module %q: %w", m.Name, err)
		}
		if err := svc.LoadModule(ctx, m.Name, wasmBytes, m.ToModuleConfig()); err != nil {
			return nil, nil, fmt.Errorf("loading module %q: %w", m.Name, err)
		}
	}
	return svc, cfg, nil
}
