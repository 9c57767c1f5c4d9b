package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"mdref/internal/project"
	"mdref/internal/resolve"
)

// cliConfig is the manifest merged with command-line flags. Any --search
// replaces the manifest's search paths rather than extending them, so an
// image on a flag path is never outranked by a newer one from the manifest.
type cliConfig struct {
	Manifest    *project.Manifest // nil without mdref.toml
	SearchPaths []string
	Jobs        int
	Redirects   []resolve.Redirect
}

type configKey struct{}

func withConfig(ctx context.Context, cfg *cliConfig) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, configKey{}, cfg)
}

// configFrom returns the configuration loaded by the root command, or an
// empty one.
func configFrom(ctx context.Context) *cliConfig {
	if ctx != nil {
		if cfg, ok := ctx.Value(configKey{}).(*cliConfig); ok && cfg != nil {
			return cfg
		}
	}
	return &cliConfig{}
}

func loadConfig(cmd *cobra.Command) (*cliConfig, error) {
	flags := cmd.Root().PersistentFlags()
	configPath, err := flags.GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	search, err := flags.GetStringArray("search")
	if err != nil {
		return nil, fmt.Errorf("failed to get search flag: %w", err)
	}

	var manifest *project.Manifest
	if configPath != "" {
		manifest, err = project.LoadManifest(configPath)
		if err != nil {
			return nil, err
		}
	} else {
		var found bool
		manifest, found, err = project.LoadNearest(".")
		if err != nil {
			return nil, err
		}
		if !found {
			manifest = nil
		}
	}

	cfg := &cliConfig{Manifest: manifest}
	for _, dir := range search {
		abs, absErr := filepath.Abs(dir)
		if absErr != nil {
			return nil, fmt.Errorf("search path %q: %w", dir, absErr)
		}
		cfg.SearchPaths = append(cfg.SearchPaths, abs)
	}
	if manifest != nil {
		if len(search) == 0 {
			cfg.SearchPaths = append(cfg.SearchPaths, manifest.Resolver.SearchPaths...)
		}
		cfg.Jobs = manifest.Resolver.Jobs
		cfg.Redirects = manifest.Redirects()
	}
	if len(cfg.SearchPaths) == 0 {
		cwd, cwdErr := os.Getwd()
		if cwdErr != nil {
			return nil, errors.New("no search paths: pass --search or add [resolver].search_paths to mdref.toml")
		}
		cfg.SearchPaths = []string{cwd}
	}
	return cfg, nil
}
