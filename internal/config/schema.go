package config

import (
	"time"
)

// Config is the root configuration structure
type Config struct {
	Version  int            `yaml:"version"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Driver   DriverConfig   `yaml:"driver"`
	Nic      NicConfig      `yaml:"nic"`
	Journal  JournalConfig  `yaml:"journal"`
	Seed     SeedConfig     `yaml:"seed"`
	Features FeaturesConfig `yaml:"features"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Addr            string   `yaml:"addr"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
	// CORSOrigins lists allowed origins; "*" allows any
	CORSOrigins []string `yaml:"cors_origins,omitempty"`
}

// LogConfig selects the slog handler
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// DriverConfig tunes the per-graph poll loop
type DriverConfig struct {
	// YieldEvery calls runtime.Gosched after every N passes (0 = never)
	YieldEvery int `yaml:"yield_every"`
	// PollInterval sleeps between passes (0 = tight loop)
	PollInterval Duration `yaml:"poll_interval"`
}

// NicConfig describes the devices nic bricks may acquire
type NicConfig struct {
	Ports        int      `yaml:"ports"`
	VdevPrefixes []string `yaml:"vdev_prefixes,omitempty"`
}

// JournalConfig holds operation journal settings
type JournalConfig struct {
	Path string `yaml:"path"`
}

// SeedConfig lists topology files applied at startup. With Watch, a seed
// file that changes on disk has its graphs rebuilt.
type SeedConfig struct {
	Paths    []string `yaml:"paths,omitempty"`
	Watch    bool     `yaml:"watch,omitempty"`
	Debounce Duration `yaml:"debounce,omitempty"`
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
