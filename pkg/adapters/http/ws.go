package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aretw0/todobot/pkg/dispatch"
	"github.com/aretw0/todobot/pkg/domain"
	"github.com/gorilla/websocket"
)

const (
	wsReadTimeout  = 120 * time.Second
	wsWriteTimeout = 10 * time.Second
	wsReadLimit    = 64 << 10
)

// ClientMessage is an event sent by a WebSocket client. The user is fixed by the
// connection.
type ClientMessage struct {
	Kind    domain.EventKind `json:"kind"`
	Payload string           `json:"payload"`
	Handle  string           `json:"handle,omitempty"`
}

// handleWS streams replies and diffs of one user and accepts that user's events.
// GET /v1/ws?user=<id>
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	user, err := domain.ParseUserID(r.URL.Query().Get("user"))
	if err != nil || user == 0 {
		respondError(w, http.StatusBadRequest, "invalid_user", "query parameter user is required")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	stream, unsubscribe := s.hub.Subscribe(user)
	defer unsubscribe()
	s.logger.Info("Stream connected", "user", user, "request_id", requestIDFrom(ctx))

	// Direct error frames share the single writer with the hub stream.
	direct := make(chan Message, 4)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		if err := writeFrames(ctx, conn, stream, direct); err != nil {
			s.logger.Debug("Stream write failed", "user", user, "err", err)
			cancel()
		}
	}()

	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		if msgType != websocket.TextMessage {
			continue
		}

		var in ClientMessage
		if err := json.Unmarshal(data, &in); err != nil {
			s.sendDirect(direct, Message{Type: MessageError, Error: "invalid_client_message"})
			continue
		}
		ev := domain.Event{User: user, Kind: in.Kind, Payload: in.Payload, Handle: in.Handle}
		if _, err := s.bot.Handle(ctx, ev); err != nil {
			code := "internal_error"
			if errors.Is(err, dispatch.ErrInvalidEvent) {
				code = "invalid_event"
			}
			s.logger.Warn("Stream event failed", "user", user, "err", err)
			s.sendDirect(direct, Message{Type: MessageError, Error: code})
		}
	}

	cancel()
	<-writerDone
	s.logger.Info("Stream disconnected", "user", user)
}

func (s *Server) sendDirect(ch chan<- Message, msg Message) {
	select {
	case ch <- msg:
	default:
	}
}

// frameConn is the write side of a WebSocket connection.
type frameConn interface {
	SetWriteDeadline(t time.Time) error
	WriteJSON(v any) error
	Close() error
}

// writeFrames is the only writer of conn. A failed write closes conn so the
// blocked reader returns at once.
func writeFrames(ctx context.Context, conn frameConn, stream <-chan Message, direct <-chan Message) error {
	for {
		var msg Message
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-stream:
			if !ok {
				return nil
			}
			msg = m
		case msg = <-direct:
		}
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(msg); err != nil {
			_ = conn.Close()
			return err
		}
	}
}
