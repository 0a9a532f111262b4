package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/todobot"
	"github.com/aretw0/todobot/internal/config"
	httpadapter "github.com/aretw0/todobot/pkg/adapters/http"
	"github.com/aretw0/todobot/pkg/observability"
)

// NewHandler wires the bot behind the HTTP/WebSocket transport.
func NewHandler(cfg config.Config, infra *Infra, logger *slog.Logger, version string) (http.Handler, error) {
	hub := httpadapter.NewHub(
		httpadapter.WithRedactor(infra.Redactor),
		httpadapter.WithHubLogger(logger),
	)

	opts, err := infra.BotOptions(cfg, logger)
	if err != nil {
		return nil, err
	}
	opts = append(opts,
		todobot.WithPresenter(hub),
		todobot.WithLifecycleHooks(hub.Hooks()),
		todobot.WithLifecycleHooks(observability.AuditHooks(logger, infra.Redactor)),
	)

	serverOpts := []httpadapter.Option{
		httpadapter.WithVersion(version),
		httpadapter.WithAllowedOrigins(cfg.HTTP.AllowedOrigins...),
		httpadapter.WithLogger(logger),
	}
	if cfg.Metrics.Enabled {
		metrics := observability.NewMetrics(cfg.Metrics.Namespace)
		opts = append(opts, todobot.WithLifecycleHooks(metrics.Hooks()))
		serverOpts = append(serverOpts, httpadapter.WithMetrics(metrics.Handler()))
	}

	bot, err := todobot.New(infra.Gateway, opts...)
	if err != nil {
		return nil, err
	}
	serverOpts = append(serverOpts, httpadapter.WithSessions(bot.Sessions(), infra.Redactor))

	return httpadapter.New(bot, hub, serverOpts...).Router(), nil
}

// Serve runs the HTTP server until ctx is cancelled, then drains in-flight requests
// for at most cfg.HTTP.ShutdownTimeout.
func Serve(ctx context.Context, cfg config.Config, logger *slog.Logger, version string) error {
	infra, err := Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer infra.Close()

	handler, err := NewHandler(cfg, infra, logger, version)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Starting todobot server", "addr", srv.Addr, "version", version)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down", "timeout", cfg.HTTP.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Graceful shutdown did not complete", "err", err)
		return srv.Close()
	}
	logger.Info("Server stopped gracefully")
	return nil
}
