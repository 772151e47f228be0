// Package http exposes a canopy engine over a JSON API, with a websocket stream of
// session events.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/internal/sanitize"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/generate"
	"github.com/aretw0/canopy/pkg/host"
	"github.com/aretw0/canopy/pkg/session"
	"github.com/aretw0/canopy/pkg/widget"
)

// CapabilitiesHeader carries the host capabilities of the caller, e.g.
// "callTools,narrate". It is read on the first request of each session.
const CapabilitiesHeader = "X-Canopy-Capabilities"

// DefaultMaxBodySize bounds request bodies unless WithMaxBodySize says otherwise.
const DefaultMaxBodySize int64 = 1 << 20

// Engine defines what the HTTP API needs from canopy. *canopy.Engine satisfies it.
type Engine interface {
	CanGenerate() bool
	Connect(sessionID string, caps domain.HostCapabilities) bool
	Inject(ctx context.Context, sessionID string, tree *domain.UITree, data map[string]any, source string) (*domain.Snapshot, error)
	Snapshot(ctx context.Context, sessionID string) (*domain.Snapshot, error)
	View(ctx context.Context, sessionID string) ([]byte, error)
	Execute(ctx context.Context, sessionID string, req domain.ActionRequest) domain.ActionResult
	MoveCard(ctx context.Context, sessionID, nodeID, cardID, to string) (widget.Result, error)
	EditField(ctx context.Context, sessionID, nodeID string, value any) (widget.Result, error)
	Changes(ctx context.Context, sessionID string) ([]domain.PendingChange, error)
	Summary(ctx context.Context, sessionID string) (string, error)
	Confirm(ctx context.Context, sessionID string) ([]domain.PendingChange, error)
	Generate(ctx context.Context, sessionID, prompt string, hints ...string) (*generate.Result, *domain.Snapshot, error)
	Subscribe(sessionID string) (<-chan session.Event, func())
}

// Server serves the canopy API.
type Server struct {
	engine   Engine
	logger   *slog.Logger
	gatherer prometheus.Gatherer
	origins  []string
	validate bool
	maxBody  int64
}

// Option configures the Server.
type Option func(*Server)

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithGatherer sets the registry exposed on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithOriginPatterns allows websocket connections from other origins.
func WithOriginPatterns(patterns ...string) Option {
	return func(s *Server) { s.origins = patterns }
}

// WithMaxBodySize limits request bodies to n bytes. Larger bodies get 413.
func WithMaxBodySize(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

// WithoutValidation disables request validation against the OpenAPI document.
func WithoutValidation() Option {
	return func(s *Server) { s.validate = false }
}

// NewHandler creates a new HTTP handler for the engine. It fails only when the
// embedded OpenAPI document is invalid.
func NewHandler(engine Engine, opts ...Option) (http.Handler, error) {
	s := &Server{
		engine:   engine,
		logger:   logging.NewNop(),
		gatherer: prometheus.DefaultGatherer,
		validate: true,
		maxBody:  DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))
	r.Use(enableCORS)
	r.Use(middleware.RequestSize(s.maxBody))

	if s.validate {
		validator, err := newValidator()
		if err != nil {
			return nil, err
		}
		r.Use(validator.middleware)
	}

	r.Get("/health", s.getHealth)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(openAPIDocument)
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Use(s.capabilities)
		r.Get("/tree", s.getTree)
		r.Put("/tree", s.putTree)
		r.Get("/view", s.getView)
		r.Post("/actions", s.executeAction)
		r.Post("/boards/{node}/moves", s.moveCard)
		r.Post("/editors/{node}", s.editField)
		r.Get("/changes", s.listChanges)
		r.Delete("/changes", s.confirmChanges)
		r.Post("/generate", s.generateView)
		r.Get("/stream", s.stream)
	})
	return r, nil
}

// ListenAndServe runs handler on addr until ctx is cancelled.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "address", addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		logger.Info("shutdown signal received, shutting down server")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+CapabilitiesHeader)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

// capabilities records the caller's declared capabilities. The first
// declaration of a session wins; later headers are ignored.
func (s *Server) capabilities(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if value := r.Header.Get(CapabilitiesHeader); value != "" {
			s.engine.Connect(chi.URLParam(r, "id"), host.ParseHeader(value))
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) getHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"version":    strings.TrimSpace(canopy.Version),
		"generation": s.engine.CanGenerate(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errBadRequest),
		errors.Is(err, sanitize.ErrEmptyInput),
		errors.Is(err, sanitize.ErrInputTooLarge),
		errors.Is(err, sanitize.ErrInvalidUTF8):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNoView),
		errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrWidgetNotFound):
		return http.StatusNotFound
	case errors.Is(err, widget.ErrCardNotFound),
		errors.Is(err, widget.ErrColumnNotFound),
		errors.Is(err, widget.ErrInvalidOption),
		errors.Is(err, widget.ErrNoDrag):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrTrackerFull):
		return http.StatusConflict
	case errors.Is(err, domain.ErrMissingCredential):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrInvalidJSON),
		errors.Is(err, domain.ErrInvalidTree),
		errors.Is(err, domain.ErrGenerationFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
