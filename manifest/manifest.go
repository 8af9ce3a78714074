// Package manifest loads tapevm.toml run configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/chazu/tapevm/pkg/bytecode"
)

// ManifestName is the configuration file name searched for.
const ManifestName = "tapevm.toml"

// Manifest represents a tapevm.toml configuration.
type Manifest struct {
	Engine Engine `toml:"engine"`
	Cache  Cache  `toml:"cache"`

	// Dir is the directory containing the tapevm.toml file (set at load time).
	Dir string `toml:"-"`
}

// Engine configures the execution engine.
type Engine struct {
	TapeSize int    `toml:"tape_size"`
	Strategy string `toml:"strategy"`
	Trace    bool   `toml:"trace"`
}

// Cache configures the compiled-program cache.
type Cache struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Default returns the configuration used when no tapevm.toml exists.
func Default() *Manifest {
	return &Manifest{
		Engine: Engine{
			TapeSize: bytecode.DefaultTapeSize,
			Strategy: bytecode.StrategySwitch.String(),
		},
		Cache: Cache{
			Path: "tapevm-cache.db",
		},
	}
}

// Load reads tapevm.toml from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	m := Default()
	if err := toml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}
	return m, nil
}

// FindAndLoad searches from startDir upward for tapevm.toml and loads the
// first one found. Returns (nil, nil) when no manifest exists; callers
// fall back to Default.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, ManifestName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// DispatchStrategy returns the configured strategy.
func (m *Manifest) DispatchStrategy() (bytecode.Strategy, error) {
	return bytecode.ParseStrategy(m.Engine.Strategy)
}

// CachePath resolves the cache database path relative to the manifest
// directory.
func (m *Manifest) CachePath() string {
	if filepath.IsAbs(m.Cache.Path) || m.Dir == "" {
		return m.Cache.Path
	}
	return filepath.Join(m.Dir, m.Cache.Path)
}

func (m *Manifest) validate() error {
	if m.Engine.TapeSize <= 0 {
		return fmt.Errorf("engine.tape_size must be positive, got %d", m.Engine.TapeSize)
	}
	if _, err := bytecode.ParseStrategy(m.Engine.Strategy); err != nil {
		return fmt.Errorf("engine.strategy: %w", err)
	}
	if m.Cache.Enabled && m.Cache.Path == "" {
		return fmt.Errorf("cache.path is required when cache.enabled is set")
	}
	return nil
}
