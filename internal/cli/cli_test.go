package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/todobot/internal/config"
	"github.com/aretw0/todobot/internal/logging"
	"github.com/aretw0/todobot/pkg/domain"
)

func memoryConfig() config.Config {
	cfg := config.Default()
	cfg.Storage = config.StorageConfig{Driver: config.StorageMemory}
	return cfg
}

func testKey(seed byte) string {
	return base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{seed}, 32))
}

func TestBuild_Backends(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewNop()

	t.Run("memory without sessions", func(t *testing.T) {
		infra, err := Build(ctx, memoryConfig(), logger)
		require.NoError(t, err)
		defer infra.Close()
		assert.NotNil(t, infra.Gateway)
		assert.Nil(t, infra.Sessions)
		assert.Nil(t, infra.Locker)
	})

	t.Run("sqlite with file sessions", func(t *testing.T) {
		dir := t.TempDir()
		cfg := config.Default()
		cfg.Storage.DSN = filepath.Join(dir, "todo.db")
		cfg.Session.Backend = config.SessionFile
		cfg.Session.Dir = filepath.Join(dir, "sessions")

		infra, err := Build(ctx, cfg, logger)
		require.NoError(t, err)
		assert.NotNil(t, infra.Sessions)
		assert.NoError(t, infra.Close())
	})

	t.Run("redis with lock", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := memoryConfig()
		cfg.Session.Backend = config.SessionRedis
		cfg.Session.Lock = true
		cfg.Redis.Addr = mr.Addr()

		infra, err := Build(ctx, cfg, logger)
		require.NoError(t, err)
		defer infra.Close()
		assert.NotNil(t, infra.Sessions)
		assert.NotNil(t, infra.Locker)
	})

	t.Run("redis unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		cfg := memoryConfig()
		cfg.Session.Backend = config.SessionRedis
		cfg.Redis.Addr = addr
		_, err := Build(ctx, cfg, logger)
		assert.ErrorContains(t, err, "redis unreachable")
	})

	t.Run("bad encryption key", func(t *testing.T) {
		cfg := memoryConfig()
		cfg.Session.Backend = config.SessionMemory
		cfg.Security.EncryptionKey = "not-base64!"
		_, err := Build(ctx, cfg, logger)
		assert.ErrorContains(t, err, "encryption key")
	})
}

func TestBotOptions_MessagesFile(t *testing.T) {
	infra, err := Build(context.Background(), memoryConfig(), logging.NewNop())
	require.NoError(t, err)

	cfg := memoryConfig()
	cfg.MessagesFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = infra.BotOptions(cfg, logging.NewNop())
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "messages.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ask_name: Who are you?\n"), 0o644))
	cfg.MessagesFile = path

	var out bytes.Buffer
	require.NoError(t, Chat(context.Background(), cfg, logging.NewNop(), ChatOptions{
		User:     1,
		Input:    strings.NewReader(""),
		Output:   &out,
		Headless: true,
	}))
	assert.Contains(t, out.String(), "Who are you?")
}

func TestNewHandler(t *testing.T) {
	infra, err := Build(context.Background(), memoryConfig(), logging.NewNop())
	require.NoError(t, err)

	handler, err := NewHandler(memoryConfig(), infra, logging.NewNop(), "1.2.3")
	require.NoError(t, err)
	srv := httptest.NewServer(handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/v1/events", "application/json",
		strings.NewReader(`{"user":3,"kind":"text","payload":"/start"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	var body bytes.Buffer
	_, _ = body.ReadFrom(resp.Body)
	resp.Body.Close()
	assert.Contains(t, body.String(), `todobot_events_total{kind="text",outcome="handled"} 1`)
}

func TestChat_Headless(t *testing.T) {
	var out bytes.Buffer
	err := Chat(context.Background(), memoryConfig(), logging.NewNop(), ChatOptions{
		User:     9,
		Input:    strings.NewReader("Alice\nexit\n"),
		Output:   &out,
		Headless: true,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "What is your name?")
	assert.Contains(t, out.String(), "Your name is Alice. Is that right?")
	assert.Contains(t, out.String(), "Bye!")
}

func TestSessionAdministration(t *testing.T) {
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = false })

	ctx := context.Background()
	dir := t.TempDir()
	cfg := memoryConfig()
	cfg.Session.Backend = config.SessionFile
	cfg.Session.Dir = dir
	cfg.Security.EncryptionKey = testKey(7)

	require.NoError(t, Chat(ctx, cfg, logging.NewNop(), ChatOptions{
		User:     5,
		Input:    strings.NewReader("Zed\n"),
		Output:   &bytes.Buffer{},
		Headless: true,
	}))

	raw, err := os.ReadFile(filepath.Join(dir, "5.json"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "Zed", "scratch data must be sealed at rest")

	infra, err := Build(ctx, cfg, logging.NewNop())
	require.NoError(t, err)
	defer infra.Close()

	var out bytes.Buffer
	require.NoError(t, ListSessions(ctx, infra, &out))
	assert.Equal(t, "Active Sessions:\n- 5\n", out.String())

	out.Reset()
	require.NoError(t, InspectSession(ctx, infra, 5, &out))
	assert.Contains(t, out.String(), string(domain.StateSubmitName))
	assert.Contains(t, out.String(), `"user_name": "***"`)
	assert.NotContains(t, out.String(), "Zed")

	out.Reset()
	require.NoError(t, RemoveSessions(ctx, infra, []domain.UserID{5}, &out))
	assert.Equal(t, "✓ Removed session '5'\n", out.String())

	out.Reset()
	require.NoError(t, ListSessions(ctx, infra, &out))
	assert.Equal(t, "No active sessions found.\n", out.String())
}

func TestSessionAdministration_RequiresBackend(t *testing.T) {
	infra, err := Build(context.Background(), memoryConfig(), logging.NewNop())
	require.NoError(t, err)
	assert.ErrorIs(t, ListSessions(context.Background(), infra, &bytes.Buffer{}), ErrNoSessionBackend)
}

func TestParseUsers(t *testing.T) {
	users, err := ParseUsers([]string{"1", "42"})
	require.NoError(t, err)
	assert.Equal(t, []domain.UserID{1, 42}, users)

	_, err = ParseUsers([]string{"bob"})
	assert.Error(t, err)
}
