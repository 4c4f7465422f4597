// Package config provides configuration management for canvasgroup.
//
// The config file describes how the server runs: where it listens, where the
// edit journal lives and which scene seeds the tree. It never holds diagram
// content.
//
// Config file locations are listed by SearchPaths. With no file present the
// defaults are used.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultAddr         = ":3000"
	defaultDBPath       = "./canvasgroup.db"
	defaultEventBuffer  = 100
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultDebounce     = 500 * time.Millisecond
)

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		// No config found - return defaults
		return DefaultConfig(), "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, path, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return &cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaultAddr
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = Duration(defaultReadTimeout)
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = Duration(defaultWriteTimeout)
	}
	if c.Database.Path == "" {
		c.Database.Path = defaultDBPath
	}
	if c.Scene.Debounce == 0 {
		c.Scene.Debounce = Duration(defaultDebounce)
	}
	if c.Editor.EventBuffer == 0 {
		c.Editor.EventBuffer = defaultEventBuffer
	}
	if c.Editor.Group.Width == 0 {
		c.Editor.Group.Width = 100
	}
	if c.Editor.Group.Height == 0 {
		c.Editor.Group.Height = 100
	}
}

// Validate rejects values defaults cannot repair
func (c *Config) Validate() error {
	var problems []string
	if c.Editor.EventBuffer < 0 {
		problems = append(problems, "editor.event_buffer must not be negative")
	}
	if c.Editor.Group.Width < 0 || c.Editor.Group.Height < 0 {
		problems = append(problems, "editor.group size must not be negative")
	}
	if c.Scene.Watch && c.Scene.Path == "" {
		problems = append(problems, "scene.watch requires scene.path")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	return nil
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	scene := c.Scene.Path
	if scene == "" {
		scene = "(none)"
	}
	summary := fmt.Sprintf("Listen: %s, Journal: %s\n", c.Server.Addr, c.Database.Path)
	summary += fmt.Sprintf("Scene: %s (watch: %v), Debug invariants: %v",
		scene, c.Scene.Watch, c.Editor.DebugInvariants)
	return summary
}
