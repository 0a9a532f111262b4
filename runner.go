package todobot

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/aretw0/todobot/pkg/domain"
)

// ContentRenderer transforms reply text before it is written, e.g. markdown to ANSI.
type ContentRenderer func(string) (string, error)

// ControlFormatter renders the buttons of a control as one line.
type ControlFormatter func(*domain.Control) string

// Runner drives a line-based conversation for a single user over the provided IO.
// It is also the Presenter of that conversation: pass it to WithPresenter.
//
// A line holding the number of a shown button, or ":<action>", presses that button.
// Any other line is sent as text. "exit" and "quit" end the loop.
type Runner struct {
	Input    io.Reader
	Output   io.Writer
	Renderer ContentRenderer
	Controls ControlFormatter
	User     domain.UserID
	Handle   string
	Headless bool

	mu      sync.Mutex
	actions []string
}

// NewRunner creates a Runner for user. Input and Output must be set before Run.
func NewRunner(user domain.UserID) *Runner {
	return &Runner{User: user, Controls: PlainControls}
}

// Present writes reply to Output.
func (r *Runner) Present(_ context.Context, user domain.UserID, reply domain.Reply) error {
	if user != r.User {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	output := reply.Text
	if r.Renderer != nil {
		if rendered, err := r.Renderer(output); err == nil {
			output = rendered
		}
	}
	if _, err := fmt.Fprintln(r.Output, strings.TrimSpace(output)); err != nil {
		return err
	}

	r.actions = nil
	if reply.Control != nil {
		r.actions = reply.Control.Actions()
		format := r.Controls
		if format == nil {
			format = PlainControls
		}
		if _, err := fmt.Fprintln(r.Output, format(reply.Control)); err != nil {
			return err
		}
	}
	return nil
}

// Run starts the conversation with /start and feeds every input line to bot until
// EOF, exit or ctx cancellation.
func (r *Runner) Run(ctx context.Context, bot *Bot) error {
	if r.Input == nil {
		return fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}

	if !r.Headless {
		fmt.Fprintln(r.Output, "--- todobot ---")
	}
	if err := r.send(ctx, bot, domain.TextEvent(r.User, domain.CommandStart)); err != nil {
		return err
	}

	lines := bufio.NewScanner(r.Input)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !r.Headless {
			fmt.Fprint(r.Output, "> ")
		}
		if !lines.Scan() {
			if err := lines.Err(); err != nil {
				return fmt.Errorf("input error: %w", err)
			}
			return nil
		}

		input := strings.TrimSpace(lines.Text())
		if input == "exit" || input == "quit" {
			fmt.Fprintln(r.Output, "Bye!")
			return nil
		}
		if err := r.send(ctx, bot, r.parse(input)); err != nil {
			return err
		}
	}
}

// send dispatches ev. Handler failures were already reported to the user, so only
// cancellation stops the loop.
func (r *Runner) send(ctx context.Context, bot *Bot, ev domain.Event) error {
	ev.Handle = r.Handle
	if _, err := bot.Handle(ctx, ev); err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}

func (r *Runner) parse(input string) domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(r.actions) {
		return domain.ButtonEvent(r.User, r.actions[n-1])
	}
	if action, ok := strings.CutPrefix(input, ":"); ok && action != "" {
		return domain.ButtonEvent(r.User, action)
	}
	return domain.TextEvent(r.User, input)
}

// PlainControls lists the actions of c as numbered buttons.
func PlainControls(c *domain.Control) string {
	var b strings.Builder
	if c.Kind == domain.ControlNavigation && c.Total > 0 {
		fmt.Fprintf(&b, "(%d/%d) ", c.Cursor, c.Total)
	}
	for i, action := range c.Actions() {
		if i > 0 {
			b.WriteString("  ")
		}
		fmt.Fprintf(&b, "[%d] %s", i+1, action)
	}
	return b.String()
}
