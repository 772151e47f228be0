package http

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"

	"github.com/aretw0/canopy/pkg/session"
)

const pingInterval = 30 * time.Second

// StreamHello is the first message of every stream. Events published after it
// are delivered.
type StreamHello struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
}

// stream pushes the session's events over a websocket until either side closes.
func (s *Server) stream(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "id")
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.origins,
	})
	if err != nil {
		s.logger.Warn("websocket accept failed", "session_id", sid, "err", err)
		return
	}
	defer conn.CloseNow()

	events, cancel := s.engine.Subscribe(sid)
	defer cancel()

	// Reads are never expected; CloseRead handles control frames and cancels
	// ctx when the client goes away.
	ctx := conn.CloseRead(r.Context())
	if err := wsjson.Write(ctx, conn, StreamHello{Type: "connected", SessionID: sid}); err != nil {
		return
	}
	s.logger.Debug("stream opened", "session_id", sid)

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("stream closed", "session_id", sid)
			return
		case <-ticker.C:
			if err := ping(ctx, conn); err != nil {
				return
			}
		case ev, ok := <-events:
			if !ok {
				conn.Close(websocket.StatusNormalClosure, "session closed")
				return
			}
			if err := s.send(ctx, conn, ev); err != nil {
				return
			}
		}
	}
}

func (s *Server) send(ctx context.Context, conn *websocket.Conn, ev session.Event) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return wsjson.Write(ctx, conn, ev)
}

func ping(ctx context.Context, conn *websocket.Conn) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return conn.Ping(ctx)
}
