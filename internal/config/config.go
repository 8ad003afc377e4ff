// Package config loads formc.toml, the optional per-project settings file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"

	"formc/internal/trace"
)

// FileName is the settings file looked up from the working directory upward.
const FileName = "formc.toml"

type Config struct {
	// Path is the file the settings came from, empty for defaults.
	Path string `toml:"-"`

	Check    CheckConfig    `toml:"check"`
	Pipeline PipelineConfig `toml:"pipeline"`
	Snapshot SnapshotConfig `toml:"snapshot"`
	Trace    TraceConfig    `toml:"trace"`
}

type CheckConfig struct {
	// Strict confirms hash-equal chains by comparing parameters structurally.
	Strict bool `toml:"strict"`
}

type PipelineConfig struct {
	Jobs int `toml:"jobs"`
}

type SnapshotConfig struct {
	Dir string `toml:"dir"`
}

type TraceConfig struct {
	Level  string `toml:"level"`
	Output string `toml:"output"`
}

// Default returns the settings used when no formc.toml exists.
func Default() Config {
	return Config{
		Pipeline: PipelineConfig{Jobs: runtime.GOMAXPROCS(0)},
		Trace:    TraceConfig{Level: "off"},
	}
}

// Find walks up from startDir to locate formc.toml.
func Find(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Discover finds and loads formc.toml starting at startDir. Without a file
// it returns Default.
func Discover(startDir string) (Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Load decodes path over Default. Keys absent from the file keep their
// default values; unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if meta.IsDefined("pipeline", "jobs") && cfg.Pipeline.Jobs < 1 {
		return Config{}, fmt.Errorf("%s: [pipeline].jobs must be at least 1, got %d", path, cfg.Pipeline.Jobs)
	}
	if meta.IsDefined("trace", "level") {
		if _, err := trace.ParseLevel(cfg.Trace.Level); err != nil {
			return Config{}, fmt.Errorf("%s: [trace].level: %w", path, err)
		}
	}
	if meta.IsDefined("snapshot", "dir") {
		dir := strings.TrimSpace(cfg.Snapshot.Dir)
		if dir == "" {
			return Config{}, fmt.Errorf("%s: [snapshot].dir must not be empty", path)
		}
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(filepath.Dir(path), filepath.FromSlash(dir))
		}
		cfg.Snapshot.Dir = dir
	}
	cfg.Path = path
	return cfg, nil
}
