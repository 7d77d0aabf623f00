// Package config loads randopen settings from defaults, an optional YAML
// file and command-line overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/taigrr/randopen/internal/cache"
	"github.com/taigrr/randopen/internal/types"
	"gopkg.in/yaml.v3"
)

// Config holds everything a selector run needs.
type Config struct {
	Root            string             `yaml:"root,omitempty"`
	CacheName       string             `yaml:"cacheName,omitempty"`
	ShuffleRounds   int                `yaml:"shuffleRounds,omitempty"`
	SkipHidden      bool               `yaml:"skipHidden,omitempty"`
	Wait            bool               `yaml:"wait,omitempty"`
	IgnoredPatterns []string           `yaml:"ignoredPatterns,omitempty"`
	Rules           []types.FilterRule `yaml:"rules,omitempty"`
	LogLevel        string             `yaml:"logLevel,omitempty"`
	LogFormat       string             `yaml:"logFormat,omitempty"`

	// SelfPath is the running executable; it is never a candidate.
	SelfPath string `yaml:"-"`
	// File is the YAML file this config was read from, if any.
	File string `yaml:"-"`
}

// Default returns the built-in settings. Root is left empty and resolved
// from the executable location by Resolve.
func Default() Config {
	return Config{
		CacheName:     cache.DefaultName,
		ShuffleRounds: types.DefaultShuffleRounds,
		LogLevel:      "info",
		LogFormat:     "auto",
	}
}

// Load reads a YAML file on top of the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	content, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %s - %w", path, err)
	}
	if err := cfg.decode(content); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	cfg.File = abs

	// A relative root is taken relative to the config file.
	if cfg.Root != "" && !filepath.IsAbs(cfg.Root) {
		cfg.Root = filepath.Join(filepath.Dir(abs), cfg.Root)
	}
	return cfg, nil
}

func (c *Config) decode(content []byte) error {
	if len(bytes.TrimSpace(content)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Resolve fills in the executable path and, when no root was configured,
// uses the directory that contains the executable.
func (c *Config) Resolve() error {
	if c.SelfPath == "" {
		self, err := os.Executable()
		if err != nil {
			return fmt.Errorf("failed to locate executable: %w", err)
		}
		if resolved, err := filepath.EvalSymlinks(self); err == nil {
			self = resolved
		}
		c.SelfPath = self
	}
	if c.Root == "" {
		c.Root = filepath.Dir(c.SelfPath)
	}

	root, err := filepath.Abs(c.Root)
	if err != nil {
		return fmt.Errorf("failed to resolve root %s: %w", c.Root, err)
	}
	// Walked paths must share SelfPath's symlink-free form to be excluded.
	// A missing root is left as is and reported by the walk.
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	c.Root = root
	if c.File != "" {
		if resolved, err := filepath.EvalSymlinks(c.File); err == nil {
			c.File = resolved
		}
	}
	return c.Validate()
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.CacheName == "" {
		return errors.New("cacheName cannot be empty")
	}
	if c.CacheName != filepath.Base(c.CacheName) || strings.ContainsAny(c.CacheName, `/\`) {
		return fmt.Errorf("cacheName must be a plain file name: %s", c.CacheName)
	}
	if c.ShuffleRounds < 1 {
		return fmt.Errorf("shuffleRounds must be at least 1, got %d", c.ShuffleRounds)
	}
	for i, r := range c.Rules {
		switch r.Action {
		case types.FilterInclude, types.FilterExclude:
		default:
			return fmt.Errorf("rules[%d]: unknown action %q", i, r.Action)
		}
		switch r.Type {
		case types.MatchContains, types.MatchStartsWith, types.MatchEndsWith:
		case types.MatchRegex:
			if _, err := regexp.Compile(r.Pattern); err != nil {
				return fmt.Errorf("rules[%d]: invalid regex: %w", i, err)
			}
		default:
			return fmt.Errorf("rules[%d]: unknown type %q", i, r.Type)
		}
		if r.Pattern == "" {
			return fmt.Errorf("rules[%d]: pattern cannot be empty", i)
		}
	}
	return nil
}

// CachePath returns the cache file, which always lives directly in Root.
func (c *Config) CachePath() string {
	return filepath.Join(c.Root, c.CacheName)
}

// Paths returns the locations a run works with.
func (c *Config) Paths() types.Paths {
	return types.Paths{
		Root:      c.Root,
		CachePath: c.CachePath(),
		SelfPath:  c.SelfPath,
	}
}

// FilterConfig builds the path filter settings. The executable, the cache,
// its lock file and the config file itself are always excluded.
func (c *Config) FilterConfig() *types.PathFilterConfig {
	cachePath := c.CachePath()
	excluded := []string{c.SelfPath, cachePath, cache.LockPath(cachePath)}
	if c.File != "" {
		excluded = append(excluded, c.File)
	}
	return &types.PathFilterConfig{
		ExcludedPaths:   excluded,
		IgnoredPatterns: c.IgnoredPatterns,
		Rules:           c.Rules,
		SkipHidden:      c.SkipHidden,
	}
}

// Marshal renders the config as YAML.
func (c *Config) Marshal() (string, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(out), nil
}
