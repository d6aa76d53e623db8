package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnvConfigPath names a config file the same way the -config flag does
const EnvConfigPath = "RPG_CONFIG"

const fileName = "rpg.yaml"

// candidate is one place a config file may live. Explicit candidates
// come from the operator and must exist; the rest are probed in order.
type candidate struct {
	source   string
	path     string
	explicit bool
}

// candidates lists config locations, highest precedence first
func candidates(flagPath string) []candidate {
	list := []candidate{
		{source: "flag", path: flagPath, explicit: true},
		{source: "env", path: os.Getenv(EnvConfigPath), explicit: true},
		{source: "cwd", path: fileName},
	}
	if dir, err := os.UserConfigDir(); err == nil {
		list = append(list, candidate{source: "user", path: filepath.Join(dir, "rpg", fileName)})
	}
	return append(list, candidate{source: "system", path: filepath.Join("/etc", "rpg", fileName)})
}

// Discover resolves the config file to load. An empty result with a nil
// error means no file was found and defaults apply.
func Discover(flagPath string) (string, error) {
	for _, c := range candidates(flagPath) {
		if c.path == "" {
			continue
		}
		info, err := os.Stat(c.path)
		switch {
		case err == nil && info.IsDir():
			if c.explicit {
				return "", fmt.Errorf("config from %s: %s is a directory", c.source, c.path)
			}
		case err == nil:
			if abs, aerr := filepath.Abs(c.path); aerr == nil {
				return abs, nil
			}
			return c.path, nil
		case c.explicit:
			return "", fmt.Errorf("config from %s: %w", c.source, err)
		}
	}
	return "", nil
}
