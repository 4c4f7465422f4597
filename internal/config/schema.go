package config

import (
	"time"
)

// Config is the root configuration structure
type Config struct {
	Version  int            `yaml:"version"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Scene    SceneConfig    `yaml:"scene"`
	Editor   EditorConfig   `yaml:"editor"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Addr         string   `yaml:"addr"`
	ReadTimeout  Duration `yaml:"read_timeout"`
	WriteTimeout Duration `yaml:"write_timeout"`
}

// DatabaseConfig holds edit journal settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// SceneConfig points at the seed scene loaded on startup
type SceneConfig struct {
	Path     string   `yaml:"path,omitempty"` // empty = start with an empty global group
	Watch    bool     `yaml:"watch"`
	Debounce Duration `yaml:"debounce"`
}

// EditorConfig tunes the edit thread
type EditorConfig struct {
	DebugInvariants bool          `yaml:"debug_invariants"` // validate the tree after every mutation
	EventBuffer     int           `yaml:"event_buffer"`
	Group           GroupDefaults `yaml:"group"`
}

// GroupDefaults applies to groups created by GroupItems
type GroupDefaults struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
