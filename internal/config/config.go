// Package config loads engine settings from .gamestringer.kdl and
// resolves the data directory translation memories live in.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	gserrors "github.com/gamestringer/gamestringer/internal/errors"
	"github.com/gamestringer/gamestringer/internal/router"
	"github.com/gamestringer/gamestringer/internal/tm"
)

// DefaultFileName is looked up in the working directory when no
// explicit config path is given.
const DefaultFileName = ".gamestringer.kdl"

// Config carries every tunable of the engine. Missing file and
// missing keys both fall back to defaults.
type Config struct {
	Data     Data
	Search   Search
	Backends router.Config
}

// Data locates the persisted translation memories.
type Data struct {
	Dir   string
	Watch bool // watch the data dir for external edits
}

// Search holds the fuzzy search knobs.
type Search struct {
	MinSimilarity float64
	MaxResults    int
}

func defaultConfig() *Config {
	return &Config{
		Data: Data{Watch: true},
		Search: Search{
			MinSimilarity: tm.DefaultMinSimilarity,
			MaxResults:    tm.DefaultMaxResults,
		},
		Backends: router.DefaultConfig(),
	}
}

// Load reads the config file at path, or DefaultFileName when path is
// empty. A missing file yields defaults. The data dir is resolved to
// a concrete path either way, so callers never see an empty one.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultFileName
	}

	cfg := defaultConfig()
	content, err := os.ReadFile(path)
	if err == nil {
		cfg, err = parseKDL(path, string(content))
		if err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, gserrors.NewConfigError("config", path, err)
	}

	if cfg.Data.Dir == "" {
		dir, err := DefaultDataDir()
		if err != nil {
			return nil, err
		}
		cfg.Data.Dir = dir
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultDataDir resolves where translation memories live when no dir
// is configured: GAMESTRINGER_DATA wins, then the platform data dir
// (LOCALAPPDATA, XDG_DATA_HOME, ~/.local/share) joined with
// GameStringer/translation_memory.
func DefaultDataDir() (string, error) {
	if dir := os.Getenv("GAMESTRINGER_DATA"); dir != "" {
		return dir, nil
	}
	base := os.Getenv("LOCALAPPDATA")
	if base == "" {
		base = os.Getenv("XDG_DATA_HOME")
	}
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", gserrors.NewConfigError("data.dir", "", fmt.Errorf("no home directory: %w", err))
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "GameStringer", "translation_memory"), nil
}

// Validate rejects values outside their working ranges.
func (c *Config) Validate() error {
	if c.Search.MinSimilarity < 0 || c.Search.MinSimilarity > 1 {
		return gserrors.NewConfigError("search.min_similarity",
			fmt.Sprintf("%g", c.Search.MinSimilarity), fmt.Errorf("must be within [0, 1]"))
	}
	if c.Search.MaxResults < 1 {
		return gserrors.NewConfigError("search.max_results",
			fmt.Sprintf("%d", c.Search.MaxResults), fmt.Errorf("must be positive"))
	}
	for name, bc := range c.Backends.Backends {
		if bc.RateLimitPerMinute < 0 {
			return gserrors.NewConfigError(fmt.Sprintf("backends.%s.rate_limit", name),
				fmt.Sprintf("%d", bc.RateLimitPerMinute), fmt.Errorf("must not be negative"))
		}
		if bc.Priority < 1 {
			return gserrors.NewConfigError(fmt.Sprintf("backends.%s.priority", name),
				fmt.Sprintf("%d", bc.Priority), fmt.Errorf("must be 1 or higher"))
		}
		if bc.CostPerChar < 0 {
			return gserrors.NewConfigError(fmt.Sprintf("backends.%s.cost_per_char", name),
				fmt.Sprintf("%g", bc.CostPerChar), fmt.Errorf("must not be negative"))
		}
	}
	return nil
}
