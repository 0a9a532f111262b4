package observability_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aretw0/todobot/pkg/domain"
	"github.com/aretw0/todobot/pkg/observability"
	"github.com/aretw0/todobot/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	m := observability.NewMetrics("test")
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnTransition(ctx, &domain.TransitionEvent{
		Kind:     domain.EventText,
		Route:    "registration.name",
		From:     domain.StateWaitForName,
		To:       domain.StateSubmitName,
		Duration: 3 * time.Millisecond,
	})
	hooks.OnDrop(ctx, &domain.DropEvent{Kind: domain.EventButton, State: domain.StateInMenu})
	hooks.OnDrop(ctx, &domain.DropEvent{Kind: domain.EventButton, State: domain.StateInMenu})
	hooks.OnFailure(ctx, &domain.FailureEvent{Kind: domain.EventButton, Route: "task.description.confirm"})

	body := scrape(t, m)
	assert.Contains(t, body, `test_transitions_total{from="WAIT_FOR_NAME",route="registration.name",to="SUBMIT_NAME"} 1`)
	assert.Contains(t, body, `test_dropped_events_total{kind="button",state="IN_MENU"} 2`)
	assert.Contains(t, body, `test_handler_failures_total{route="task.description.confirm"} 1`)
	assert.Contains(t, body, `test_events_total{kind="button",outcome="dropped"} 2`)
	assert.Contains(t, body, `test_handler_latency_ms_count{route="registration.name"} 1`)
}

func scrape(t *testing.T, m *observability.Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMetrics_SeparateRegistries(t *testing.T) {
	// Two instances must not collide on registration.
	a := observability.NewMetrics("")
	b := observability.NewMetrics("")
	assert.NotSame(t, a.Registry(), b.Registry())
}

func TestMetrics_FailureWithoutRoute(t *testing.T) {
	m := observability.NewMetrics("test")
	m.Hooks().OnFailure(context.Background(), &domain.FailureEvent{Kind: domain.EventText})

	assert.Contains(t, scrape(t, m), `test_handler_failures_total{route="none"} 1`)
}

func TestAuditHooks_RedactsDiff(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	hooks := observability.AuditHooks(logger, middleware.NewRedactor([]string{"^login$"}))

	hooks.OnTransition(context.Background(), &domain.TransitionEvent{
		EventBase: domain.EventBase{User: 42},
		Route:     "registration.login",
		From:      domain.StateWaitForLogin,
		To:        domain.StateSubmitLogin,
		Diff: &domain.SessionDiff{
			User: 42,
			Data: map[string]any{domain.KeyLogin: "alice", domain.KeyUserName: "Alice"},
		},
	})

	out := buf.String()
	assert.Contains(t, out, `"route":"registration.login"`)
	assert.Contains(t, out, `"login":"***"`)
	assert.NotContains(t, out, "alice")
	assert.Contains(t, out, "Alice")
}
