// Package http exposes the bot over HTTP: a request/response endpoint for events,
// a WebSocket stream per user and read-only session inspection.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/aretw0/todobot/internal/logging"
	"github.com/aretw0/todobot/pkg/dispatch"
	"github.com/aretw0/todobot/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Bot handles inbound events. *todobot.Bot satisfies it.
type Bot interface {
	Handle(ctx context.Context, ev domain.Event) (dispatch.Outcome, error)
}

// Sessions is the read side of the session manager.
type Sessions interface {
	Inspect(ctx context.Context, user domain.UserID) (*domain.Session, error)
	List(ctx context.Context) ([]domain.UserID, error)
}

// SessionRedactor masks sensitive scratch values of inspected sessions.
type SessionRedactor interface {
	Redact(*domain.Session) *domain.Session
}

// Server serves the HTTP transport.
type Server struct {
	bot      Bot
	hub      *Hub
	sessions Sessions
	redactor SessionRedactor
	metrics  http.Handler
	version  string
	origins  []string
	maxBody  int64
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// DefaultMaxBodyBytes caps request bodies of POST /v1/events.
const DefaultMaxBodyBytes = 64 << 10

// Option configures the Server.
type Option func(*Server)

// WithSessions enables GET /v1/sessions and GET /v1/sessions/{user}.
func WithSessions(s Sessions, redactor SessionRedactor) Option {
	return func(srv *Server) {
		srv.sessions = s
		srv.redactor = redactor
	}
}

// WithMetrics mounts h on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithVersion is reported by GET /health.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// WithAllowedOrigins lists browser origins accepted by the WebSocket endpoint.
// "*" accepts any origin. Without it only same-host origins are accepted.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		s.origins = origins
	}
}

// WithMaxBodyBytes caps request bodies. Larger bodies are refused with 413.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		s.maxBody = n
	}
}

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New creates a Server. hub must be the Presenter the bot was built with.
func New(bot Bot, hub *Hub, opts ...Option) *Server {
	s := &Server{
		bot:     bot,
		hub:     hub,
		version: "dev",
		maxBody: DefaultMaxBodyBytes,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// Router builds the chi router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)

	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	r.Post("/v1/events", s.handleEvent)
	r.Get("/v1/ws", s.handleWS)
	if s.sessions != nil {
		r.Get("/v1/sessions", s.handleListSessions)
		r.Get("/v1/sessions/{user}", s.handleGetSession)
	}
	return r
}

// EventRequest is the body of POST /v1/events.
type EventRequest struct {
	User    domain.UserID    `json:"user"`
	Kind    domain.EventKind `json:"kind"`
	Payload string           `json:"payload"`
	Handle  string           `json:"handle,omitempty"`
}

func (e EventRequest) event() domain.Event {
	return domain.Event{User: e.User, Kind: e.Kind, Payload: e.Payload, Handle: e.Handle}
}

// EventResponse is the body returned by POST /v1/events.
type EventResponse struct {
	Outcome string         `json:"outcome"`
	Replies []domain.Reply `json:"replies"`
	Error   string         `json:"error,omitempty"`
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	var req EventRequest
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	if err := decodeJSON(r, &req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "body_too_large",
				fmt.Sprintf("body exceeds %d bytes", tooLarge.Limit))
			return
		}
		respondError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	if req.User == 0 {
		respondError(w, http.StatusBadRequest, "missing_user", "user is required")
		return
	}

	ctx, replies := withCollector(r.Context())
	outcome, err := s.bot.Handle(ctx, req.event())
	if errors.Is(err, dispatch.ErrInvalidEvent) {
		respondError(w, http.StatusBadRequest, "invalid_event", err.Error())
		return
	}

	resp := EventResponse{Outcome: outcome.String(), Replies: replies.all()}
	if err != nil {
		// The user already got the generic failure reply; the detail stays server side.
		s.logger.Warn("Event failed", "user", req.User, "request_id", requestIDFrom(r.Context()), "err", err)
		resp.Error = "internal_error"
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"app":     "todobot",
		"version": strings.TrimSpace(s.version),
	})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	users, err := s.sessions.List(r.Context())
	if err != nil {
		s.logger.Error("List sessions failed", "err", err)
		respondError(w, http.StatusInternalServerError, "list_failed", "failed to list sessions")
		return
	}
	if users == nil {
		users = []domain.UserID{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	user, err := domain.ParseUserID(chi.URLParam(r, "user"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_user", "user must be an integer")
		return
	}

	sess, err := s.sessions.Inspect(r.Context(), user)
	if errors.Is(err, domain.ErrSessionNotFound) {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return
	}
	if err != nil {
		s.logger.Error("Inspect session failed", "user", user, "err", err)
		respondError(w, http.StatusInternalServerError, "inspect_failed", "failed to inspect session")
		return
	}
	if s.redactor != nil {
		sess = s.redactor.Redact(sess)
	}
	respondJSON(w, http.StatusOK, sess)
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		// Non-browser clients often omit Origin.
		return true
	}
	for _, allowed := range s.origins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

type requestIDKey struct{}

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("HTTP request", "method", r.Method, "path", r.URL.Path, "request_id", requestIDFrom(r.Context()))
		next.ServeHTTP(w, r)
	})
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
