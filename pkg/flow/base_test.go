package flow_test

import (
	"testing"

	"github.com/aretw0/todobot/pkg/dispatch"
	"github.com/aretw0/todobot/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Scenario E
func TestOnboarding_UnknownIdentity(t *testing.T) {
	h := newHarness(t)

	_, known := h.states.State(99)
	require.False(t, known)

	h.mustText(99, "hello there")
	assert.Equal(t, domain.StateWaitForName, h.state(99))
	assert.Equal(t, h.messages.AskName, h.out.last(99).Text)
}

func TestOnboarding_ButtonFromUnknownIdentity(t *testing.T) {
	h := newHarness(t)
	h.mustPress(98, domain.ActionConfirm)
	assert.Equal(t, domain.StateWaitForName, h.state(98))
}

func TestOnboarding_ReturningUserLostState(t *testing.T) {
	h := newHarness(t)
	h.register(10, "Liam", "liam")

	// Restart without a session backend: memory is gone, storage is not.
	h.states.ResetState(10)
	h.mustText(10, "anything")
	assert.Equal(t, domain.StateInMenu, h.state(10))
	assert.Equal(t, domain.ControlMenu, h.out.last(10).Control.Kind)
}

func TestStart_GreetsAndChecks(t *testing.T) {
	h := newHarness(t)
	h.mustText(1, "/start")

	replies := h.out.all(1)
	require.Len(t, replies, 3)
	assert.Equal(t, h.messages.Greeting, replies[0].Text)
	assert.Equal(t, h.messages.NotRegistered, replies[1].Text)
	assert.Equal(t, domain.StateWaitForName, h.state(1))
}

func TestMenu_AbandonsDialog(t *testing.T) {
	h := newHarness(t)
	h.register(2, "Mia", "mia")
	h.mustPress(2, domain.ActionAddTask)
	h.mustText(2, "half-typed")
	require.Equal(t, domain.StateSubmitTitle, h.state(2))

	h.mustText(2, "/menu")
	assert.Equal(t, domain.StateInMenu, h.state(2))
	assert.Empty(t, h.states.All(2))
}

func TestRegistrationCheck_LookupFailure(t *testing.T) {
	h := newHarness(t)
	h.gateway.setFail("FindUser", true)

	outcome, err := h.text(7, "hi")
	assert.Equal(t, dispatch.OutcomeFailed, outcome)
	assert.ErrorIs(t, err, errStorage)
	_, known := h.states.State(7)
	assert.False(t, known, "no transition on lookup failure")
	assert.Equal(t, h.messages.Failure, h.out.last(7).Text)
}

func TestStates_AlwaysValidOnceSet(t *testing.T) {
	h := newHarness(t)
	inputs := []func(){
		func() { _, _ = h.text(1, "/start") },
		func() { _, _ = h.text(1, "Nora") },
		func() { _, _ = h.press(1, domain.ActionCancel) },
		func() { _, _ = h.text(1, "Nora") },
		func() { _, _ = h.press(1, domain.ActionConfirm) },
		func() { _, _ = h.press(1, domain.ActionNext) },
		func() { _, _ = h.text(1, "nora") },
		func() { _, _ = h.press(1, domain.ActionConfirm) },
		func() { _, _ = h.press(1, domain.ActionListTasks) },
		func() { _, _ = h.press(1, domain.ActionAddTask) },
	}
	for _, in := range inputs {
		in()
		st, ok := h.states.State(1)
		require.True(t, ok)
		assert.True(t, st.Valid(), "state %q", st)
	}
}
