// Package mcp exposes a canopy engine as a Model Context Protocol server: tools for
// injecting, generating and interacting with views, and a view resource that hosts
// render.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/catalog"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/generate"
	"github.com/aretw0/canopy/pkg/host"
	"github.com/aretw0/canopy/pkg/session"
	"github.com/aretw0/canopy/pkg/widget"
)

// ViewURI is the generic view resource. Every session reads its own latest tree
// through it.
const ViewURI = "ui://canopy/view"

// LegacyViewURIs resolve to the same document as ViewURI.
var LegacyViewURIs = []string{"ui://canopy/dashboard", "ui://crm/dashboard"}

// DefaultSession is used when neither the transport nor the caller names a session.
const DefaultSession = "default"

// Engine defines what the MCP server needs from canopy. *canopy.Engine satisfies it.
type Engine interface {
	Connect(sessionID string, caps domain.HostCapabilities) bool
	Inject(ctx context.Context, sessionID string, tree *domain.UITree, data map[string]any, source string) (*domain.Snapshot, error)
	View(ctx context.Context, sessionID string) ([]byte, error)
	Execute(ctx context.Context, sessionID string, req domain.ActionRequest) domain.ActionResult
	MoveCard(ctx context.Context, sessionID, nodeID, cardID, to string) (widget.Result, error)
	EditField(ctx context.Context, sessionID, nodeID string, value any) (widget.Result, error)
	Changes(ctx context.Context, sessionID string) ([]domain.PendingChange, error)
	Confirm(ctx context.Context, sessionID string) ([]domain.PendingChange, error)
	Generate(ctx context.Context, sessionID, prompt string, hints ...string) (*generate.Result, *domain.Snapshot, error)
	Catalog() *catalog.Catalog
	Subscribe(sessionID string) (<-chan session.Event, func())
}

// Server wraps the canopy engine and exposes it as an MCP server.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
	logger    *slog.Logger

	mu   sync.Mutex
	subs map[string]func()
}

// Option configures the Server.
type Option func(*Server)

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer creates a new MCP server instance.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		engine: engine,
		logger: logging.NewNop(),
		subs:   make(map[string]func()),
	}
	for _, opt := range opts {
		opt(s)
	}

	hooks := &server.Hooks{}
	hooks.AddAfterInitialize(s.afterInitialize)
	hooks.AddOnUnregisterSession(func(_ context.Context, cs server.ClientSession) {
		s.unsubscribe(cs.SessionID())
	})

	s.mcpServer = server.NewMCPServer("canopy-mcp", strings.TrimSpace(canopy.Version),
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(true, false),
		server.WithLogging(),
		server.WithHooks(hooks),
	)
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutdown signal received, shutting down server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// transportSession is the MCP session of the request, or DefaultSession.
func transportSession(ctx context.Context) string {
	if cs := server.ClientSessionFromContext(ctx); cs != nil && cs.SessionID() != "" {
		return cs.SessionID()
	}
	return DefaultSession
}

// sessionID prefers an explicit session_id argument over the transport session.
func sessionID(ctx context.Context, req mcp.CallToolRequest) string {
	if id := req.GetString("session_id", ""); id != "" {
		return id
	}
	return transportSession(ctx)
}

// afterInitialize reads the host's canopy capability block once and starts
// forwarding session events to the client.
func (s *Server) afterInitialize(ctx context.Context, _ any, msg *mcp.InitializeRequest, _ *mcp.InitializeResult) {
	sid := transportSession(ctx)
	caps := host.Detect(msg.Params.Capabilities.Experimental)
	if !s.engine.Connect(sid, caps) {
		s.logger.Debug("capabilities already declared", "session_id", sid)
	}
	if cs := server.ClientSessionFromContext(ctx); cs != nil {
		s.subscribe(sid)
	}
}

func (s *Server) subscribe(sid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[sid]; ok {
		return
	}
	events, cancel := s.engine.Subscribe(sid)
	s.subs[sid] = cancel
	go s.forward(sid, events)
}

func (s *Server) unsubscribe(sid string) {
	s.mu.Lock()
	cancel, ok := s.subs[sid]
	delete(s.subs, sid)
	s.mu.Unlock()
	if ok {
		cancel()
	}
}

// forward turns session events into MCP notifications: narration becomes a log
// message for the agent, view changes become resource updates.
func (s *Server) forward(sid string, events <-chan session.Event) {
	for ev := range events {
		var err error
		switch ev.Type {
		case session.EventNarration:
			err = s.mcpServer.SendNotificationToSpecificClient(sid, "notifications/message", map[string]any{
				"level":  mcp.LoggingLevelInfo,
				"logger": "canopy",
				"data":   ev.Message,
			})
		case session.EventView:
			err = s.mcpServer.SendNotificationToSpecificClient(sid, mcp.MethodNotificationResourceUpdated, map[string]any{
				"uri": ViewURI,
			})
		}
		if err != nil {
			s.logger.Debug("notification dropped", "session_id", sid, "type", ev.Type, "err", err)
		}
	}
}

// decodeTree accepts a tree as a JSON object or as a JSON string.
func decodeTree(v any) (*domain.UITree, error) {
	switch val := v.(type) {
	case string:
		return generate.ParseTree(val)
	case map[string]any:
		raw, err := json.Marshal(val)
		if err != nil {
			return nil, err
		}
		return generate.ParseTree(string(raw))
	default:
		return nil, errors.New("tree must be a JSON object")
	}
}
