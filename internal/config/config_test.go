package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, 4, cfg.Catalog.FeaturedPageSize)
	assert.Nil(t, cfg.Catalog.Seed)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, 5*time.Minute, cfg.Cleanup.Interval)

	level, err := cfg.Log.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "marketplace.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
  allowed_origins: ["http://localhost:5173"]
storage:
  driver: bolt
  bolt_path: /tmp/marketplace.db
catalog:
  seed: 42
  featured_page_size: 8
auth:
  session_ttl: 2h
log:
  level: debug
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	// env wins over the file
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.AllowedOrigins)

	assert.Equal(t, "bolt", cfg.Storage.Driver)
	assert.Equal(t, "/tmp/marketplace.db", cfg.Storage.BoltPath)
	require.NotNil(t, cfg.Catalog.Seed)
	assert.Equal(t, uint64(42), *cfg.Catalog.Seed)
	assert.Equal(t, 8, cfg.Catalog.FeaturedPageSize)
	assert.Equal(t, 2*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, "debug", cfg.Log.Level)

	// untouched by either source
	assert.Equal(t, "localhost:6379", cfg.Redis.Address)
}

func TestLoad_CatalogSeedFromEnv(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("CATALOG_SEED", "2024")

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg.Catalog.Seed)
	assert.Equal(t, uint64(2024), *cfg.Catalog.Seed)

	t.Setenv("CATALOG_SEED", "not-a-number")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, true},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }, true},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "mongo" }, true},
		{"postgres without dsn", func(c *Config) { c.Storage.Driver = "postgres"; c.Database.DSN = "" }, true},
		{"bolt without path", func(c *Config) { c.Storage.Driver = "bolt"; c.Storage.BoltPath = "" }, true},
		{"redis without address", func(c *Config) { c.Storage.Driver = "redis"; c.Redis.Address = "" }, true},
		{"featured page size zero", func(c *Config) { c.Catalog.FeaturedPageSize = 0 }, true},
		{"session ttl zero", func(c *Config) { c.Auth.SessionTTL = 0 }, true},
		{"bcrypt cost too low", func(c *Config) { c.Auth.BcryptCost = 1 }, true},
		{"demo users without password", func(c *Config) { c.Auth.DemoPassword = "" }, true},
		{"demo users disabled", func(c *Config) { c.Auth.SeedDemoUsers = false; c.Auth.DemoPassword = "" }, false},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_INT", "12")
	t.Setenv("TEST_BAD_INT", "twelve")
	t.Setenv("TEST_BOOL", "false")
	t.Setenv("TEST_DURATION", "90s")
	t.Setenv("TEST_LIST", " a, ,b ")

	assert.Equal(t, 12, getEnvAsInt("TEST_INT", 1))
	assert.Equal(t, 1, getEnvAsInt("TEST_BAD_INT", 1))
	assert.False(t, getEnvAsBool("TEST_BOOL", true))
	assert.Equal(t, 90*time.Second, getEnvAsDuration("TEST_DURATION", time.Second))
	assert.Equal(t, []string{"a", "b"}, getEnvAsList("TEST_LIST", nil))
	assert.Equal(t, "fallback", getEnv("TEST_UNSET_KEY", "fallback"))
}
