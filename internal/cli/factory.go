// Package cli wires configuration into runnable bot processes.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/todobot"
	"github.com/aretw0/todobot/internal/config"
	"github.com/aretw0/todobot/internal/logging"
	"github.com/aretw0/todobot/pkg/adapters/file"
	"github.com/aretw0/todobot/pkg/adapters/memory"
	"github.com/aretw0/todobot/pkg/adapters/postgres"
	redisstore "github.com/aretw0/todobot/pkg/adapters/redis"
	"github.com/aretw0/todobot/pkg/adapters/sqlite"
	"github.com/aretw0/todobot/pkg/flow"
	"github.com/aretw0/todobot/pkg/persistence/middleware"
	"github.com/aretw0/todobot/pkg/ports"
)

// Infra holds the adapters selected by the configuration.
type Infra struct {
	Gateway  ports.Gateway
	Sessions ports.SessionStore // nil when sessions live in memory only
	Locker   ports.DistributedLocker
	Redactor *middleware.Redactor

	closers []io.Closer
}

// NewLogger builds the process logger from the log section.
func NewLogger(cfg config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	return logging.NewWithFormat(w, level, cfg.Log.Format), nil
}

// Build opens the storage gateway and the session backend. Call Close when done.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Infra, error) {
	infra := &Infra{Redactor: middleware.NewRedactor(cfg.Security.RedactKeys)}

	gw, err := infra.openGateway(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	infra.Gateway = gw

	store, err := infra.openSessions(ctx, cfg)
	if err != nil {
		infra.Close()
		return nil, err
	}
	if store != nil {
		mws, err := sessionMiddleware(cfg.Security)
		if err != nil {
			infra.Close()
			return nil, err
		}
		infra.Sessions = middleware.Chain(store, mws...)
	}

	logger.Info("infrastructure ready",
		"storage", cfg.Storage.Driver,
		"sessions", cfg.Session.Backend,
		"lock", infra.Locker != nil,
		"encrypted", cfg.Security.EncryptionKey != "",
	)
	return infra, nil
}

func (i *Infra) openGateway(ctx context.Context, cfg config.StorageConfig) (ports.Gateway, error) {
	switch cfg.Driver {
	case config.StorageMemory:
		return memory.NewGateway(), nil
	case config.StorageSQLite:
		gw, err := sqlite.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		i.closers = append(i.closers, gw)
		return gw, nil
	case config.StoragePostgres:
		gw, err := postgres.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		i.closers = append(i.closers, gw)
		return gw, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

func (i *Infra) openSessions(ctx context.Context, cfg config.Config) (ports.SessionStore, error) {
	switch cfg.Session.Backend {
	case config.SessionNone:
		return nil, nil
	case config.SessionMemory:
		return memory.NewStore(), nil
	case config.SessionFile:
		return file.New(cfg.Session.Dir), nil
	case config.SessionRedis:
		client := redisstore.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		store := redisstore.NewFromClient(client,
			redisstore.WithPrefix(cfg.Redis.Prefix),
			redisstore.WithTTL(cfg.Redis.TTL),
		)
		i.closers = append(i.closers, store)
		if err := store.Ping(ctx); err != nil {
			return nil, fmt.Errorf("redis unreachable: %w", err)
		}
		if cfg.Session.Lock {
			i.Locker = redisstore.NewLocker(client, cfg.Redis.Prefix)
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
}

func sessionMiddleware(cfg config.SecurityConfig) ([]middleware.Middleware, error) {
	if cfg.EncryptionKey == "" {
		return nil, nil
	}
	active, err := middleware.ParseKey(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("encryption key: %w", err)
	}
	enc := middleware.EncryptionConfig{ActiveKey: active}
	for _, k := range cfg.FallbackKeys {
		key, err := middleware.ParseKey(k)
		if err != nil {
			return nil, fmt.Errorf("fallback key: %w", err)
		}
		enc.FallbackKeys = append(enc.FallbackKeys, key)
	}
	return []middleware.Middleware{middleware.NewEncryptionMiddleware(enc)}, nil
}

// BotOptions translates the remaining configuration into todobot options.
func (i *Infra) BotOptions(cfg config.Config, logger *slog.Logger) ([]todobot.Option, error) {
	opts := []todobot.Option{
		todobot.WithLogger(logger),
		todobot.WithMaxInputSize(cfg.MaxInputSize),
	}
	if i.Sessions != nil {
		opts = append(opts, todobot.WithSessionStore(i.Sessions))
	}
	if i.Locker != nil {
		opts = append(opts, todobot.WithLocker(i.Locker, cfg.Session.LockTTL))
	}
	if cfg.MessagesFile != "" {
		msgs, err := flow.LoadMessages(cfg.MessagesFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, todobot.WithMessages(msgs))
	}
	return opts, nil
}

// Close releases every opened connection.
func (i *Infra) Close() error {
	var errs []error
	for j := len(i.closers) - 1; j >= 0; j-- {
		if err := i.closers[j].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	i.closers = nil
	return errors.Join(errs...)
}
