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
	path := filepath.Join(t.TempDir(), "todobot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, StorageSQLite, cfg.Storage.Driver)
	assert.Equal(t, SessionNone, cfg.Session.Backend)
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, `
log:
  level: debug
  format: json
storage:
  driver: postgres
  dsn: postgres://localhost/todobot
session:
  backend: redis
  lock: true
  lock_ttl: 5s
redis:
  addr: redis:6379
  ttl: 24h
security:
  redact_keys: ["^login$"]
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, StoragePostgres, cfg.Storage.Driver)
	assert.True(t, cfg.Session.Lock)
	assert.Equal(t, 5*time.Second, cfg.Session.LockTTL)
	assert.Equal(t, 24*time.Hour, cfg.Redis.TTL)
	assert.Equal(t, []string{"^login$"}, cfg.Security.RedactKeys)
	// Keys absent from the file keep their defaults.
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "http:\n  addr: \":9000\"\n")
	t.Setenv("TODOBOT_HTTP_ADDR", ":9100")
	t.Setenv("TODOBOT_STORAGE_DRIVER", "memory")
	t.Setenv("TODOBOT_REDACT_KEYS", "^a$, ^b$")
	t.Setenv("TODOBOT_MAX_INPUT_SIZE", "128")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.HTTP.Addr)
	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, []string{"^a$", "^b$"}, cfg.Security.RedactKeys)
	assert.Equal(t, 128, cfg.MaxInputSize)
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv("TODOBOT_SESSION_LOCK_TTL", "soon")
	_, err := Load("")
	assert.ErrorContains(t, err, "TODOBOT_SESSION_LOCK_TTL")
}

func TestLoad_FileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "log: [oops"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"unknown driver":       func(c *Config) { c.Storage.Driver = "mongo" },
		"missing dsn":          func(c *Config) { c.Storage.DSN = "" },
		"unknown backend":      func(c *Config) { c.Session.Backend = "etcd" },
		"lock without redis":   func(c *Config) { c.Session.Lock = true },
		"zero lock ttl":        func(c *Config) { c.Session.LockTTL = 0 },
		"negative redis ttl":   func(c *Config) { c.Redis.TTL = -time.Second },
		"fallback without key": func(c *Config) { c.Security.FallbackKeys = []string{"x"} },
		"zero max input":       func(c *Config) { c.MaxInputSize = 0 },
		"unknown log format":   func(c *Config) { c.Log.Format = "xml" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	memory := Default()
	memory.Storage = StorageConfig{Driver: StorageMemory}
	assert.NoError(t, memory.Validate())
}
