package http

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aretw0/todobot/internal/logging"
	"github.com/aretw0/todobot/pkg/domain"
)

// Message is one frame pushed to streaming clients.
type Message struct {
	Type  string              `json:"type"`
	Reply *domain.Reply       `json:"reply,omitempty"`
	Diff  *domain.SessionDiff `json:"diff,omitempty"`
	Error string              `json:"error,omitempty"`
}

// Message types.
const (
	MessageReply = "reply"
	MessageDiff  = "diff"
	MessageError = "error"
)

// DiffRedactor masks sensitive scratch values before diffs leave the process.
type DiffRedactor interface {
	RedactDiff(*domain.SessionDiff) *domain.SessionDiff
}

// Hub fans replies and session diffs out to the connections of each user.
// It is the Presenter of the HTTP transport: replies produced while serving a
// POST /v1/events request are also collected into that request's response.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[domain.UserID]map[chan Message]struct{}

	redactor DiffRedactor
	logger   *slog.Logger
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithRedactor masks diffs before broadcasting them.
func WithRedactor(r DiffRedactor) HubOption {
	return func(h *Hub) {
		h.redactor = r
	}
}

// WithHubLogger configures a logger for the Hub.
func WithHubLogger(logger *slog.Logger) HubOption {
	return func(h *Hub) {
		h.logger = logger
	}
}

// NewHub creates a hub without subscribers.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		subscribers: make(map[domain.UserID]map[chan Message]struct{}),
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe registers a buffered channel for user. The returned cancel function
// unregisters and closes it.
func (h *Hub) Subscribe(user domain.UserID) (<-chan Message, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Message, 16)
	if _, ok := h.subscribers[user]; !ok {
		h.subscribers[user] = make(map[chan Message]struct{})
	}
	h.subscribers[user][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if subs, ok := h.subscribers[user]; ok {
				delete(subs, ch)
				close(ch)
				if len(subs) == 0 {
					delete(h.subscribers, user)
				}
			}
		})
	}
}

// Subscribers returns the number of open subscriptions of user.
func (h *Hub) Subscribers(user domain.UserID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[user])
}

// Broadcast delivers msg to every subscriber of user. Slow subscribers lose the message.
func (h *Hub) Broadcast(user domain.UserID, msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers[user] {
		select {
		case ch <- msg:
		default:
			h.logger.Warn("Stream buffer full, dropping message", "user", user, "type", msg.Type)
		}
	}
}

// Present implements ports.Presenter.
func (h *Hub) Present(ctx context.Context, user domain.UserID, reply domain.Reply) error {
	if c := collectorFrom(ctx); c != nil {
		c.add(reply)
	}
	h.Broadcast(user, Message{Type: MessageReply, Reply: &reply})
	return nil
}

// Hooks streams the scratch diff of every transition to the user's subscribers.
func (h *Hub) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(_ context.Context, e *domain.TransitionEvent) {
			if e.Diff == nil {
				return
			}
			diff := e.Diff
			if h.redactor != nil {
				diff = h.redactor.RedactDiff(diff)
			}
			h.Broadcast(e.User, Message{Type: MessageDiff, Diff: diff})
		},
	}
}

type collectorKey struct{}

// collector gathers the replies of one HTTP request.
type collector struct {
	mu      sync.Mutex
	replies []domain.Reply
}

func (c *collector) add(r domain.Reply) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replies = append(c.replies, r)
}

func (c *collector) all() []domain.Reply {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Reply{}, c.replies...)
}

func withCollector(ctx context.Context) (context.Context, *collector) {
	c := &collector{}
	return context.WithValue(ctx, collectorKey{}, c), c
}

func collectorFrom(ctx context.Context) *collector {
	c, _ := ctx.Value(collectorKey{}).(*collector)
	return c
}
