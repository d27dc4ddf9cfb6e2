// Package config loads .phpreflect.toml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gobwas/glob"
)

// FileName is the config file looked up in the project root.
const FileName = ".phpreflect.toml"

type Config struct {
	PHPVersion string   `toml:"php_version"`
	DB         string   `toml:"db"`
	Paths      []string `toml:"paths"`
	Parallel   *bool    `toml:"parallel"`
	Exclude    Exclude  `toml:"exclude"`
	Watch      Watch    `toml:"watch"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads and validates the config at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return &cfg, nil
}

// Find loads FileName from dir, falling back to Default when it does not
// exist.
func Find(dir string) (*Config, error) {
	cfg, err := Load(filepath.Join(dir, FileName))
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.PHPVersion) == "" {
		cfg.PHPVersion = "8.3"
	}
	if strings.TrimSpace(cfg.DB) == "" {
		cfg.DB = "phpreflect.db"
	}
	if len(cfg.Paths) == 0 {
		cfg.Paths = []string{"."}
	}
	if cfg.Parallel == nil {
		parallel := true
		cfg.Parallel = &parallel
	}
	if len(cfg.Exclude.Dirs) == 0 {
		cfg.Exclude.Dirs = []string{".*", "vendor", "node_modules"}
	}
	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
}

func validate(cfg *Config) error {
	if _, err := CompileGlobs(cfg.Exclude.Dirs); err != nil {
		return fmt.Errorf("exclude.dirs: %w", err)
	}
	if _, err := CompileGlobs(cfg.Exclude.Files); err != nil {
		return fmt.Errorf("exclude.files: %w", err)
	}
	return nil
}

// CompileGlobs compiles exclude patterns. Patterns match a base name.
func CompileGlobs(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", pattern, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

// Excluder matches paths against the exclude patterns.
type Excluder struct {
	dirs  []glob.Glob
	files []glob.Glob
}

// Excluder compiles the exclude section.
func (c *Config) Excluder() (*Excluder, error) {
	return NewExcluder(c.Exclude.Dirs, c.Exclude.Files)
}

func NewExcluder(dirs, files []string) (*Excluder, error) {
	d, err := CompileGlobs(dirs)
	if err != nil {
		return nil, err
	}
	f, err := CompileGlobs(files)
	if err != nil {
		return nil, err
	}
	return &Excluder{dirs: d, files: f}, nil
}

// Dir reports whether the directory at path is excluded.
func (x *Excluder) Dir(path string) bool {
	if x == nil {
		return false
	}
	return matchAny(x.dirs, filepath.Base(path))
}

// File reports whether the file at path, or any directory on the way to
// it, is excluded.
func (x *Excluder) File(path string) bool {
	if x == nil {
		return false
	}
	if matchAny(x.files, filepath.Base(path)) {
		return true
	}
	for dir := filepath.Dir(path); dir != "." && dir != string(filepath.Separator); dir = filepath.Dir(dir) {
		if matchAny(x.dirs, filepath.Base(dir)) {
			return true
		}
		if next := filepath.Dir(dir); next == dir {
			break
		}
	}
	return false
}

func matchAny(globs []glob.Glob, name string) bool {
	for _, g := range globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}
