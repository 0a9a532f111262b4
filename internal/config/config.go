// Package config loads runtime settings from an optional YAML file and TODOBOT_*
// environment variables. Environment variables win over the file, the file wins
// over defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Session backends.
const (
	SessionNone   = "none"
	SessionMemory = "memory"
	SessionFile   = "file"
	SessionRedis  = "redis"
)

// Config contains all runtime settings.
type Config struct {
	Log      LogConfig      `yaml:"log"`
	HTTP     HTTPConfig     `yaml:"http"`
	Storage  StorageConfig  `yaml:"storage"`
	Session  SessionConfig  `yaml:"session"`
	Redis    RedisConfig    `yaml:"redis"`
	Security SecurityConfig `yaml:"security"`
	Metrics  MetricsConfig  `yaml:"metrics"`

	// MessagesFile overlays the built-in texts.
	MessagesFile string `yaml:"messages_file"`
	MaxInputSize int    `yaml:"max_input_size"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type SessionConfig struct {
	Backend string        `yaml:"backend"`
	Dir     string        `yaml:"dir"`
	Lock    bool          `yaml:"lock"`
	LockTTL time.Duration `yaml:"lock_ttl"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

// SecurityConfig protects session snapshots at rest and in inspection views.
type SecurityConfig struct {
	// EncryptionKey is a base64 32-byte key. Empty disables encryption.
	EncryptionKey string `yaml:"encryption_key"`
	// FallbackKeys decrypt snapshots written before a key rotation.
	FallbackKeys []string `yaml:"fallback_keys"`
	// RedactKeys are regular expressions over scratch keys.
	RedactKeys []string `yaml:"redact_keys"`
}

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Log:  LogConfig{Level: "info", Format: "text"},
		HTTP: HTTPConfig{Addr: ":8080", ShutdownTimeout: 10 * time.Second},
		Storage: StorageConfig{
			Driver: StorageSQLite,
			DSN:    "todobot.db",
		},
		Session: SessionConfig{
			Backend: SessionNone,
			Dir:     ".todobot/sessions",
			LockTTL: 30 * time.Second,
		},
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "todobot:session:",
		},
		Security: SecurityConfig{
			RedactKeys: []string{"^login$", "^user_name$"},
		},
		Metrics:      MetricsConfig{Enabled: true, Namespace: "todobot"},
		MaxInputSize: 4096,
	}
}

// Load reads path (when non-empty), then applies environment overrides and validates.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Log.Level = envOrDefault("TODOBOT_LOG_LEVEL", c.Log.Level)
	c.Log.Format = envOrDefault("TODOBOT_LOG_FORMAT", c.Log.Format)
	c.HTTP.Addr = envOrDefault("TODOBOT_HTTP_ADDR", c.HTTP.Addr)
	c.HTTP.AllowedOrigins = listFromEnv("TODOBOT_HTTP_ALLOWED_ORIGINS", c.HTTP.AllowedOrigins)
	c.Storage.Driver = envOrDefault("TODOBOT_STORAGE_DRIVER", c.Storage.Driver)
	c.Storage.DSN = envOrDefault("TODOBOT_STORAGE_DSN", c.Storage.DSN)
	c.Session.Backend = envOrDefault("TODOBOT_SESSION_BACKEND", c.Session.Backend)
	c.Session.Dir = envOrDefault("TODOBOT_SESSION_DIR", c.Session.Dir)
	c.Redis.Addr = envOrDefault("TODOBOT_REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = envOrDefault("TODOBOT_REDIS_PASSWORD", c.Redis.Password)
	c.Redis.Prefix = envOrDefault("TODOBOT_REDIS_PREFIX", c.Redis.Prefix)
	c.Security.EncryptionKey = envOrDefault("TODOBOT_ENCRYPTION_KEY", c.Security.EncryptionKey)
	c.Security.FallbackKeys = listFromEnv("TODOBOT_ENCRYPTION_FALLBACK_KEYS", c.Security.FallbackKeys)
	c.Security.RedactKeys = listFromEnv("TODOBOT_REDACT_KEYS", c.Security.RedactKeys)
	c.Metrics.Namespace = envOrDefault("TODOBOT_METRICS_NAMESPACE", c.Metrics.Namespace)
	c.MessagesFile = envOrDefault("TODOBOT_MESSAGES_FILE", c.MessagesFile)

	var err error
	if c.HTTP.ShutdownTimeout, err = durationFromEnv("TODOBOT_HTTP_SHUTDOWN_TIMEOUT", c.HTTP.ShutdownTimeout); err != nil {
		return err
	}
	if c.Session.Lock, err = boolFromEnv("TODOBOT_SESSION_LOCK", c.Session.Lock); err != nil {
		return err
	}
	if c.Session.LockTTL, err = durationFromEnv("TODOBOT_SESSION_LOCK_TTL", c.Session.LockTTL); err != nil {
		return err
	}
	if c.Redis.DB, err = intFromEnv("TODOBOT_REDIS_DB", c.Redis.DB); err != nil {
		return err
	}
	if c.Redis.TTL, err = durationFromEnv("TODOBOT_REDIS_TTL", c.Redis.TTL); err != nil {
		return err
	}
	if c.Metrics.Enabled, err = boolFromEnv("TODOBOT_METRICS_ENABLED", c.Metrics.Enabled); err != nil {
		return err
	}
	if c.MaxInputSize, err = intFromEnv("TODOBOT_MAX_INPUT_SIZE", c.MaxInputSize); err != nil {
		return err
	}
	return nil
}

// Validate rejects inconsistent settings.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case StorageMemory, StorageSQLite, StoragePostgres:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver != StorageMemory && c.Storage.DSN == "" {
		return fmt.Errorf("storage driver %q requires a dsn", c.Storage.Driver)
	}

	switch c.Session.Backend {
	case SessionNone, SessionMemory, SessionFile, SessionRedis:
	default:
		return fmt.Errorf("unknown session backend %q", c.Session.Backend)
	}
	if c.Session.Lock && c.Session.Backend != SessionRedis {
		return fmt.Errorf("session lock requires the redis session backend")
	}
	if c.Session.LockTTL <= 0 {
		return fmt.Errorf("session lock_ttl must be positive")
	}
	if c.Redis.TTL < 0 {
		return fmt.Errorf("redis ttl must be >= 0")
	}
	if c.Security.EncryptionKey == "" && len(c.Security.FallbackKeys) > 0 {
		return fmt.Errorf("fallback keys require an encryption key")
	}
	if c.MaxInputSize <= 0 {
		return fmt.Errorf("max_input_size must be positive")
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func listFromEnv(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s parse error: %w", key, err)
	}
	return b, nil
}
