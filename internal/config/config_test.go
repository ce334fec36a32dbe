package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeFile(t, `
server:
  address: ":8080"
  request_timeout: 2s
database:
  driver: pgx
  url: postgres://localhost/rentrento
auth:
  secret: from-file
`)
	t.Setenv("RENTRENTO_AUTH_SECRET", "from-env")
	t.Setenv("RENTRENTO_SERVER_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 2*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "pgx", cfg.Database.Driver)
	assert.Equal(t, "from-env", cfg.Auth.Secret)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	// untouched sections keep their defaults
	assert.Equal(t, 3*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, time.Minute, cfg.Worker.FinisherInterval)
}

func TestLoadWithoutFile(t *testing.T) {
	t.Setenv("RENTRENTO_AUTH_SECRET", "s")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Database.Driver)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "server: [unclosed"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults with secret", func(c *Config) {}, true},
		{"missing secret", func(c *Config) { c.Auth.Secret = "" }, false},
		{"unknown driver", func(c *Config) { c.Database.Driver = "sqlite" }, false},
		{"mysql without url", func(c *Config) { c.Database.Driver = "mysql" }, false},
		{"mongo with url", func(c *Config) { c.Database.Driver = "mongo"; c.Database.URL = "mongodb://localhost" }, true},
		{"zero finisher interval", func(c *Config) { c.Worker.FinisherInterval = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Auth.Secret = "s"
			tt.mutate(&cfg)
			if tt.ok {
				assert.NoError(t, cfg.Validate())
			} else {
				assert.Error(t, cfg.Validate())
			}
		})
	}
}
