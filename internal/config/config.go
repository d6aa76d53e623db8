// Package config provides configuration management for the control plane.
//
// Config file locations (priority order):
//  1. the -config flag
//  2. $RPG_CONFIG
//  3. ./rpg.yaml
//  4. $XDG_CONFIG_HOME/rpg/rpg.yaml (~/.config when unset)
//  5. /etc/rpg/rpg.yaml
//
// The first two are explicit and fail when the file is missing.
//
// Command line flags override individual values after loading.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultAddr            = ":8000"
	DefaultJournalPath     = "./rpg.db"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultSeedDebounce    = 500 * time.Millisecond
)

// Load discovers and loads the config file, or returns defaults if none
// is found. flagPath is the -config value and may be empty.
func Load(flagPath string) (*Config, string, error) {
	path, err := Discover(flagPath)
	if err != nil {
		return nil, "", err
	}
	if path == "" {
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

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, path, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
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
	return &Config{
		Version: 1,
		Server: ServerConfig{
			Addr:            DefaultAddr,
			ShutdownTimeout: Duration(DefaultShutdownTimeout),
			CORSOrigins:     []string{"*"},
		},
		Log:      LogConfig{Level: "info", Format: "text"},
		Journal:  JournalConfig{Path: DefaultJournalPath},
		Seed:     SeedConfig{Debounce: Duration(DefaultSeedDebounce)},
		Features: DefaultFeatures(),
	}
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = Duration(DefaultShutdownTimeout)
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Journal.Path == "" {
		c.Journal.Path = DefaultJournalPath
	}
	if c.Seed.Debounce == 0 {
		c.Seed.Debounce = Duration(DefaultSeedDebounce)
	}
}

// Validate rejects values the server cannot run with
func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q: must be debug, info, warn or error", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q: must be text or json", c.Log.Format))
	}
	if c.Driver.YieldEvery < 0 {
		errs = append(errs, errors.New("driver.yield_every must not be negative"))
	}
	if c.Driver.PollInterval < 0 {
		errs = append(errs, errors.New("driver.poll_interval must not be negative"))
	}
	if c.Nic.Ports < 0 {
		errs = append(errs, errors.New("nic.ports must not be negative"))
	}
	if c.Seed.Debounce < 0 {
		errs = append(errs, errors.New("seed.debounce must not be negative"))
	}

	return errors.Join(errs...)
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	summary := fmt.Sprintf("Listen: %s, Log: %s/%s\n", c.Server.Addr, c.Log.Level, c.Log.Format)
	summary += fmt.Sprintf("Driver: yield_every=%d poll_interval=%s, NIC ports: %d\n",
		c.Driver.YieldEvery, c.Driver.PollInterval.Duration(), c.Nic.Ports)

	var enabled []string
	for _, f := range c.Features.List() {
		if f.Enabled {
			enabled = append(enabled, f.Name)
		}
	}
	summary += fmt.Sprintf("Enabled features (%d): %s", len(enabled), strings.Join(enabled, " "))

	return summary
}
