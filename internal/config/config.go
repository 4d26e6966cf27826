// Package config loads gitlet settings. Sources are layered, later ones
// winning: built-in defaults, the user file
// ($XDG_CONFIG_HOME/gitlet/config.toml), the repository file
// (.gitlet/config.toml) and GITLET_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// FileName is the config file name in both the user and repository dirs.
	FileName  = "config.toml"
	envPrefix = "GITLET_"
)

// Config holds every tunable setting.
type Config struct {
	Core  CoreConfig  `koanf:"core"`
	Log   LogConfig   `koanf:"log"`
	Mount MountConfig `koanf:"mount"`
}

type CoreConfig struct {
	DefaultBranch  string `koanf:"default_branch"`
	InitialMessage string `koanf:"initial_message"`
}

type LogConfig struct {
	Level string `koanf:"level"`
}

type MountConfig struct {
	Debug bool `koanf:"debug"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"core.default_branch":  "master",
		"core.initial_message": "initial commit",
		"log.level":            "warn",
		"mount.debug":          false,
	}
}

// UserConfigPath returns the per-user config file location.
func UserConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "gitlet", FileName)
}

// Load builds the configuration. repoDir is the .gitlet directory; it may
// not exist yet (e.g. before init).
func Load(repoDir string) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. User and repository files, if present
	for _, path := range []string{UserConfigPath(), filepath.Join(repoDir, FileName)} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	}

	// 3. Environment: GITLET_CORE_DEFAULT_BRANCH -> core.default_branch
	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.Replace(key, "_", ".", 1)
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if cfg.Core.DefaultBranch == "" {
		cfg.Core.DefaultBranch = "master"
	}
	return &cfg, nil
}
