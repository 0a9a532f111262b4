package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/aretw0/todobot"
	"github.com/aretw0/todobot/internal/config"
	"github.com/aretw0/todobot/pkg/adapters/console"
	"github.com/aretw0/todobot/pkg/domain"
	"github.com/aretw0/todobot/pkg/observability"
)

// ChatOptions configures an interactive console conversation.
type ChatOptions struct {
	User     domain.UserID
	Handle   string
	Input    io.Reader
	Output   io.Writer
	Headless bool
	Version  string
}

// Chat talks to the bot as one user over the given IO until EOF or "exit".
func Chat(ctx context.Context, cfg config.Config, logger *slog.Logger, opts ChatOptions) error {
	infra, err := Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer infra.Close()

	r := todobot.NewRunner(opts.User)
	r.Input = opts.Input
	r.Output = opts.Output
	r.Handle = opts.Handle
	r.Headless = opts.Headless
	if !opts.Headless {
		r.Renderer = console.NewRenderer(opts.Output)
		r.Controls = console.Controls()
		console.PrintBanner(opts.Output, opts.Version)
	}

	botOpts, err := infra.BotOptions(cfg, logger)
	if err != nil {
		return err
	}
	botOpts = append(botOpts,
		todobot.WithPresenter(r),
		todobot.WithLifecycleHooks(observability.AuditHooks(logger, infra.Redactor)),
	)
	bot, err := todobot.New(infra.Gateway, botOpts...)
	if err != nil {
		return err
	}

	return r.Run(ctx, bot)
}
