package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/todobot/pkg/adapters/console"
	"github.com/aretw0/todobot/pkg/domain"
)

// ErrNoSessionBackend is returned by session administration without a durable backend.
var ErrNoSessionBackend = errors.New("session commands need a durable session backend (memory sessions vanish with the process)")

// ListSessions prints the users that have a stored conversation.
func ListSessions(ctx context.Context, infra *Infra, w io.Writer) error {
	if infra.Sessions == nil {
		return ErrNoSessionBackend
	}
	users, err := infra.Sessions.List(ctx)
	if err != nil {
		return fmt.Errorf("error listing sessions: %w", err)
	}
	if len(users) == 0 {
		fmt.Fprintln(w, "No active sessions found.")
		return nil
	}
	fmt.Fprintln(w, "Active Sessions:")
	for _, u := range users {
		fmt.Fprintln(w, "- "+u.String())
	}
	return nil
}

// InspectSession prints the redacted snapshot of user as indented JSON.
func InspectSession(ctx context.Context, infra *Infra, user domain.UserID, w io.Writer) error {
	if infra.Sessions == nil {
		return ErrNoSessionBackend
	}
	sess, err := infra.Sessions.Load(ctx, user)
	if err != nil {
		return fmt.Errorf("error loading session '%s': %w", user, err)
	}
	data, err := json.MarshalIndent(infra.Redactor.Redact(sess), "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// RemoveSessions deletes every listed session, reporting each outcome.
func RemoveSessions(ctx context.Context, infra *Infra, users []domain.UserID, w io.Writer) error {
	if infra.Sessions == nil {
		return ErrNoSessionBackend
	}
	var failed int
	for _, u := range users {
		if err := infra.Sessions.Delete(ctx, u); err != nil {
			fmt.Fprintln(w, console.Status(false, "Error removing '%s': %v", u, err))
			failed++
			continue
		}
		fmt.Fprintln(w, console.Status(true, "Removed session '%s'", u))
	}
	if failed > 0 {
		return fmt.Errorf("%d session(s) could not be removed", failed)
	}
	return nil
}

// ParseUsers converts command arguments to user ids.
func ParseUsers(args []string) ([]domain.UserID, error) {
	users := make([]domain.UserID, 0, len(args))
	for _, a := range args {
		u, err := domain.ParseUserID(a)
		if err != nil {
			return nil, fmt.Errorf("invalid user %q: must be an integer", a)
		}
		users = append(users, u)
	}
	return users, nil
}
