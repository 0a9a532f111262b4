package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/todobot/pkg/domain"
)

// DiffRedactor masks sensitive scratch values before they are logged.
type DiffRedactor interface {
	RedactDiff(*domain.SessionDiff) *domain.SessionDiff
}

// AuditHooks logs every lifecycle event. Transitions carry the scratch diff,
// passed through redactor when one is given.
func AuditHooks(logger *slog.Logger, redactor DiffRedactor) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			diff := e.Diff
			if redactor != nil {
				diff = redactor.RedactDiff(diff)
			}
			attrs := []any{
				"user", e.User,
				"route", e.Route,
				"from", e.From,
				"to", e.To,
				"duration", e.Duration,
			}
			if diff != nil && len(diff.Data) > 0 {
				attrs = append(attrs, "data", diff.Data)
			}
			logger.InfoContext(ctx, "transition", attrs...)
		},
		OnDrop: func(ctx context.Context, e *domain.DropEvent) {
			logger.DebugContext(ctx, "dropped", "user", e.User, "kind", e.Kind, "state", e.State)
		},
		OnFailure: func(ctx context.Context, e *domain.FailureEvent) {
			logger.WarnContext(ctx, "failure", "user", e.User, "route", e.Route, "state", e.State, "err", e.Err)
		},
	}
}
