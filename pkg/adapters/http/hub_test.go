package http

import (
	"context"
	"testing"

	"github.com/aretw0/todobot/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_SubscribeBroadcast(t *testing.T) {
	h := NewHub()
	ch1, cancel1 := h.Subscribe(1)
	ch2, cancel2 := h.Subscribe(1)
	other, cancelOther := h.Subscribe(2)
	defer cancelOther()

	h.Broadcast(1, Message{Type: MessageReply})
	assert.Equal(t, MessageReply, (<-ch1).Type)
	assert.Equal(t, MessageReply, (<-ch2).Type)
	assert.Empty(t, other)

	cancel1()
	cancel1()
	assert.Equal(t, 1, h.Subscribers(1))
	cancel2()
	assert.Equal(t, 0, h.Subscribers(1))

	_, open := <-ch1
	assert.False(t, open)
}

func TestHub_SlowSubscriberDropsMessages(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe(1)
	defer cancel()

	for i := 0; i < cap(ch)+5; i++ {
		h.Broadcast(1, Message{Type: MessageDiff})
	}
	assert.Len(t, ch, cap(ch))
}

func TestHub_PresentCollects(t *testing.T) {
	h := NewHub()
	ctx, c := withCollector(context.Background())

	require.NoError(t, h.Present(ctx, 1, domain.Plain("a")))
	require.NoError(t, h.Present(context.Background(), 1, domain.Plain("b")))
	require.NoError(t, h.Present(ctx, 1, domain.Plain("c")))

	got := c.all()
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[1].Text)
}

type maskAll struct{}

func (maskAll) RedactDiff(d *domain.SessionDiff) *domain.SessionDiff {
	out := *d
	out.Data = map[string]any{"masked": true}
	return &out
}

func TestHub_HooksStreamRedactedDiffs(t *testing.T) {
	h := NewHub(WithRedactor(maskAll{}))
	ch, cancel := h.Subscribe(9)
	defer cancel()

	hooks := h.Hooks()
	hooks.OnTransition(context.Background(), &domain.TransitionEvent{EventBase: domain.EventBase{User: 9}})
	assert.Empty(t, ch, "no diff, nothing streamed")

	hooks.OnTransition(context.Background(), &domain.TransitionEvent{
		EventBase: domain.EventBase{User: 9},
		Diff:      &domain.SessionDiff{User: 9, Data: map[string]any{"login": "x"}},
	})
	msg := <-ch
	assert.Equal(t, MessageDiff, msg.Type)
	assert.Equal(t, map[string]any{"masked": true}, msg.Diff.Data)
}
