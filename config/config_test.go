package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/st-keller/inspection/config"
	"github.com/st-keller/inspection/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	def := config.Default()
	assert.Equal(t, def, cfg)
	assert.Equal(t, config.BackendFile, cfg.Prefs.Backend)
	assert.False(t, cfg.TLSEnabled())
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inspect.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
prefs:
  backend: sqlite
  path: /tmp/prefs.db
server:
  addr: 0.0.0.0:9999
`), 0o644))

	t.Setenv("INSPECT_SERVER_ADDR", "127.0.0.1:7000")
	t.Setenv("INSPECT_HOST_STORAGE_PATH", "/data")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.BackendSQLite, cfg.Prefs.Backend)
	assert.Equal(t, "/tmp/prefs.db", cfg.Prefs.Path)
	assert.Equal(t, "127.0.0.1:7000", cfg.Server.Addr)
	assert.Equal(t, "/data", cfg.Host.StoragePath)
	assert.Equal(t, "/sys", cfg.Host.SysRoot)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigLoad))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		ok     bool
	}{
		{"defaults", func(*config.Config) {}, true},
		{"memory needs no path", func(c *config.Config) { c.Prefs.Backend = config.BackendMemory; c.Prefs.Path = "" }, true},
		{"file needs path", func(c *config.Config) { c.Prefs.Path = "" }, false},
		{"unknown backend", func(c *config.Config) { c.Prefs.Backend = "redis" }, false},
		{"addr required", func(c *config.Config) { c.Server.Addr = "" }, false},
		{"partial tls", func(c *config.Config) { c.Server.CertPath = "/c.pem" }, false},
		{"full tls", func(c *config.Config) {
			c.Server.CertPath, c.Server.KeyPath, c.Server.CAPath = "/c.pem", "/k.pem", "/ca.pem"
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.IsErrorCode(err, errors.ErrConfigValid), "got %v", err)
			}
		})
	}
}
