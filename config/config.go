// Package config loads inspection settings: built-in defaults, an optional
// YAML file, then INSPECT_* environment variables.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/st-keller/inspection/errors"
)

// EnvPrefix prefixes environment overrides: INSPECT_PREFS_BACKEND=sqlite
// sets prefs.backend.
const EnvPrefix = "INSPECT_"

// Preference store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config holds inspection settings.
type Config struct {
	Prefs  PrefsConfig  `koanf:"prefs"`
	Host   HostConfig   `koanf:"host"`
	Server ServerConfig `koanf:"server"`
}

// PrefsConfig selects where group expansion preferences live.
type PrefsConfig struct {
	Backend string `koanf:"backend"`
	Path    string `koanf:"path"`
}

// HostConfig configures host facts.
type HostConfig struct {
	SysRoot     string `koanf:"sysroot"`      // root of /sys, for battery facts
	StoragePath string `koanf:"storage_path"` // filesystem to measure
}

// ServerConfig configures the snapshot endpoint.
type ServerConfig struct {
	Addr     string `koanf:"addr"`
	CertPath string `koanf:"cert_path"`
	KeyPath  string `koanf:"key_path"`
	CAPath   string `koanf:"ca_path"`
}

// Default returns the built-in configuration.
func Default() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return Config{
		Prefs: PrefsConfig{
			Backend: BackendFile,
			Path:    filepath.Join(home, ".config", "inspection", "prefs.yaml"),
		},
		Host: HostConfig{
			SysRoot:     "/sys",
			StoragePath: home,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:9180",
		},
	}
}

// Validate checks field combinations.
func (c Config) Validate() error {
	switch c.Prefs.Backend {
	case BackendMemory:
	case BackendFile, BackendSQLite:
		if c.Prefs.Path == "" {
			return errors.Newf(errors.ErrConfigValid, "prefs.path required for %s backend", c.Prefs.Backend)
		}
	default:
		return errors.Newf(errors.ErrConfigValid, "unknown prefs.backend %q (memory, file or sqlite)", c.Prefs.Backend)
	}
	if c.Server.Addr == "" {
		return errors.New(errors.ErrConfigValid, "server.addr required")
	}
	tls := []string{c.Server.CertPath, c.Server.KeyPath, c.Server.CAPath}
	set := 0
	for _, p := range tls {
		if p != "" {
			set++
		}
	}
	if set != 0 && set != len(tls) {
		return errors.New(errors.ErrConfigValid, "server.cert_path, server.key_path and server.ca_path must be set together")
	}
	return nil
}

// TLSEnabled reports whether the server should use mutual TLS.
func (c Config) TLSEnabled() bool {
	return c.Server.CertPath != ""
}

// Load reads configuration. path may be empty; a missing file is an error
// only when path was given explicitly.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	def := Default()
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"prefs.backend":     def.Prefs.Backend,
		"prefs.path":        def.Prefs.Path,
		"host.sysroot":      def.Host.SysRoot,
		"host.storage_path": def.Host.StoragePath,
		"server.addr":       def.Server.Addr,
	}, "."), nil); err != nil {
		return Config{}, errors.Wrap(err, errors.ErrConfigLoad, "loading defaults")
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, errors.Wrapf(err, errors.ErrConfigLoad, "loading config from %s", path)
		}
	}

	// INSPECT_PREFS_BACKEND -> prefs.backend, INSPECT_HOST_STORAGE_PATH -> host.storage_path
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, errors.Wrap(err, errors.ErrConfigLoad, "loading environment")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, errors.Wrap(err, errors.ErrConfigLoad, "decoding configuration")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, rest, found := strings.Cut(s, "_")
	if !found {
		return s
	}
	return section + "." + rest
}
