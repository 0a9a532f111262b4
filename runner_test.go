package todobot_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/aretw0/todobot"
	"github.com/aretw0/todobot/pkg/adapters/memory"
	"github.com/aretw0/todobot/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_Conversation(t *testing.T) {
	gw := memory.NewGateway()
	runner := todobot.NewRunner(5)
	runner.Headless = true
	runner.Handle = "eve_tg"

	bot, err := todobot.New(gw, todobot.WithPresenter(runner))
	require.NoError(t, err)

	var out bytes.Buffer
	runner.Output = &out
	runner.Input = strings.NewReader(strings.Join([]string{
		"Eve",
		"1",                   // confirm
		":use_platform_login", // button by name
		"1",                   // confirm
		"2",                   // list_tasks
		"exit",
		"never read",
	}, "\n"))

	require.NoError(t, runner.Run(context.Background(), bot))

	u, err := gw.FindUser(context.Background(), domain.ByIdentity(5))
	require.NoError(t, err)
	assert.Equal(t, "eve_tg", u.Login)

	text := out.String()
	assert.Contains(t, text, "[1] confirm  [2] cancel")
	assert.Contains(t, text, "You have no open tasks.")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(text), "Bye!"))
}

func TestRunner_RequiresIO(t *testing.T) {
	bot, err := todobot.New(memory.NewGateway())
	require.NoError(t, err)

	r := todobot.NewRunner(1)
	assert.Error(t, r.Run(context.Background(), bot))
	r.Input = strings.NewReader("")
	assert.Error(t, r.Run(context.Background(), bot))
}

func TestRunner_IgnoresOtherUsers(t *testing.T) {
	var out bytes.Buffer
	r := todobot.NewRunner(1)
	r.Output = &out
	require.NoError(t, r.Present(context.Background(), 2, domain.Plain("not for you")))
	assert.Empty(t, out.String())
}

func TestPlainControls(t *testing.T) {
	nav := &domain.Control{Kind: domain.ControlNavigation, Cursor: 2, Total: 3}
	assert.Equal(t, "(2/3) [1] task_completed  [2] delete_task  [3] back  [4] next", todobot.PlainControls(nav))
}
