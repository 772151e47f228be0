package canopy

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/action"
	"github.com/aretw0/canopy/pkg/adapters/memory"
	"github.com/aretw0/canopy/pkg/catalog"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/generate"
	"github.com/aretw0/canopy/pkg/host"
	"github.com/aretw0/canopy/pkg/ports"
	"github.com/aretw0/canopy/pkg/render"
	"github.com/aretw0/canopy/pkg/session"
	"github.com/aretw0/canopy/pkg/widget"
)

// SourceGenerated marks snapshots produced by the generation pipeline.
const SourceGenerated = "generated"

// Engine is the high-level entry point for the Canopy library.
// It ties the session manager, the interpreter and the generation pipeline
// together behind one API that transports (MCP, HTTP, CLI) share.
type Engine struct {
	sessions *session.Manager
	pipeline *generate.Pipeline
	interp   *render.Interpreter

	store      ports.TreeStore
	changes    ports.ChangeStore
	locker     ports.DistributedLocker
	invoker    ports.ToolInvoker
	narrator   ports.Narrator
	generator  ports.Generator
	sources    []ports.DataSource
	catalog    *catalog.Catalog
	caps       *host.Registry
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	limits     generate.Limits
	actionTO   time.Duration
	generateTO time.Duration
	maxChanges int
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithStore sets where session snapshots live. Defaults to memory.
func WithStore(s ports.TreeStore) Option {
	return func(e *Engine) { e.store = s }
}

// WithChangeStore sets where pending changes live. Defaults to memory.
func WithChangeStore(s ports.ChangeStore) Option {
	return func(e *Engine) { e.changes = s }
}

// WithLocker enables distributed session locking.
func WithLocker(l ports.DistributedLocker) Option {
	return func(e *Engine) { e.locker = l }
}

// WithInvoker sets the tool surface for direct calls.
func WithInvoker(inv ports.ToolInvoker) Option {
	return func(e *Engine) { e.invoker = inv }
}

// WithNarrator forwards narration to the supervising agent.
func WithNarrator(n ports.Narrator) Option {
	return func(e *Engine) { e.narrator = n }
}

// WithGenerator enables Generate.
func WithGenerator(g ports.Generator) Option {
	return func(e *Engine) { e.generator = g }
}

// WithSources registers CRM data sources for generation.
func WithSources(sources ...ports.DataSource) Option {
	return func(e *Engine) { e.sources = append(e.sources, sources...) }
}

// WithCatalog replaces the default component catalog.
func WithCatalog(c *catalog.Catalog) Option {
	return func(e *Engine) { e.catalog = c }
}

// WithCapabilities shares a capability registry with a transport.
func WithCapabilities(r *host.Registry) Option {
	return func(e *Engine) { e.caps = r }
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) { e.hooks = hooks }
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithLimits sets the density limits given to the model.
func WithLimits(l generate.Limits) Option {
	return func(e *Engine) { e.limits = l }
}

func WithActionTimeout(d time.Duration) Option {
	return func(e *Engine) { e.actionTO = d }
}

func WithGenerationTimeout(d time.Duration) Option {
	return func(e *Engine) { e.generateTO = d }
}

// WithMaxChanges caps each session's pending change log.
func WithMaxChanges(n int) Option {
	return func(e *Engine) { e.maxChanges = n }
}

// New initializes a new Canopy engine. Without options it keeps everything in
// memory, never calls tools directly and cannot generate.
func New(opts ...Option) *Engine {
	e := &Engine{
		limits:     generate.DefaultLimits,
		actionTO:   action.DefaultTimeout,
		generateTO: generate.DefaultTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	if e.store == nil {
		e.store = memory.NewStore()
	}
	if e.catalog == nil {
		e.catalog = catalog.Default()
	}

	e.interp = render.New(
		render.WithCatalog(e.catalog),
		render.WithLogger(e.logger),
		render.WithHooks(e.hooks),
	)

	sessionOpts := []session.Option{
		session.WithInterpreter(e.interp),
		session.WithLogger(e.logger),
		session.WithHooks(e.hooks),
		session.WithActionTimeout(e.actionTO),
	}
	if e.changes != nil {
		sessionOpts = append(sessionOpts, session.WithChangeStore(e.changes))
	}
	if e.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(e.locker))
	}
	if e.invoker != nil {
		sessionOpts = append(sessionOpts, session.WithInvoker(e.invoker))
	}
	if e.narrator != nil {
		sessionOpts = append(sessionOpts, session.WithNarrator(e.narrator))
	}
	if e.caps != nil {
		sessionOpts = append(sessionOpts, session.WithCapabilities(e.caps))
	}
	if e.maxChanges > 0 {
		sessionOpts = append(sessionOpts, session.WithMaxChanges(e.maxChanges))
	}
	e.sessions = session.NewManager(e.store, sessionOpts...)

	if e.generator != nil {
		e.pipeline = generate.New(e.generator,
			generate.WithCatalog(e.catalog),
			generate.WithSources(e.sources...),
			generate.WithLimits(e.limits),
			generate.WithTimeout(e.generateTO),
			generate.WithLogger(e.logger),
			generate.WithHooks(e.hooks),
		)
	}
	return e
}

// Catalog returns the component catalog.
func (e *Engine) Catalog() *catalog.Catalog { return e.catalog }

// Interpreter returns the tree interpreter.
func (e *Engine) Interpreter() *render.Interpreter { return e.interp }

// Sessions returns the session manager.
func (e *Engine) Sessions() *session.Manager { return e.sessions }

// Subscribe streams a session's view, narration and change events.
func (e *Engine) Subscribe(sessionID string) (<-chan session.Event, func()) {
	return e.sessions.Hub().Subscribe(sessionID)
}

// CanGenerate reports whether a generator is configured.
func (e *Engine) CanGenerate() bool { return e.pipeline != nil }

// Connect records the host capabilities of a session. The first call wins.
func (e *Engine) Connect(sessionID string, caps domain.HostCapabilities) bool {
	return e.sessions.Connect(sessionID, caps)
}

// Capabilities returns the host capabilities of a session.
func (e *Engine) Capabilities(sessionID string) domain.HostCapabilities {
	return e.sessions.Capabilities(sessionID)
}

// Inject makes tree the session's current view. source names the producer (a
// template name, or SourceGenerated) and data is the ancillary context blob.
func (e *Engine) Inject(ctx context.Context, sessionID string, tree *domain.UITree, data map[string]any, source string) (*domain.Snapshot, error) {
	return e.sessions.Inject(ctx, sessionID, tree, data, source)
}

// Snapshot returns the session's effective snapshot.
func (e *Engine) Snapshot(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	return e.sessions.Snapshot(ctx, sessionID)
}

// Render interprets the session's current view.
func (e *Engine) Render(ctx context.Context, sessionID string) (*render.View, error) {
	return e.sessions.Render(ctx, sessionID)
}

// View renders the session's current view as an HTML document.
func (e *Engine) View(ctx context.Context, sessionID string) ([]byte, error) {
	return e.sessions.View(ctx, sessionID)
}

// Execute runs a free-form action through the execution protocol.
func (e *Engine) Execute(ctx context.Context, sessionID string, req domain.ActionRequest) domain.ActionResult {
	return e.sessions.Execute(ctx, sessionID, req)
}

// MoveCard moves a card on a KanbanBoard node.
func (e *Engine) MoveCard(ctx context.Context, sessionID, nodeID, cardID, to string) (widget.Result, error) {
	return e.sessions.MoveCard(ctx, sessionID, nodeID, cardID, to)
}

// EditField commits a value on an InlineEditor or Picker node.
func (e *Engine) EditField(ctx context.Context, sessionID, nodeID string, value any) (widget.Result, error) {
	return e.sessions.EditField(ctx, sessionID, nodeID, value)
}

// Changes lists the session's pending changes.
func (e *Engine) Changes(ctx context.Context, sessionID string) ([]domain.PendingChange, error) {
	return e.sessions.Changes(ctx, sessionID)
}

// Summary describes the session's pending changes.
func (e *Engine) Summary(ctx context.Context, sessionID string) (string, error) {
	return e.sessions.Summary(ctx, sessionID)
}

// Confirm returns and clears the session's pending changes.
func (e *Engine) Confirm(ctx context.Context, sessionID string) ([]domain.PendingChange, error) {
	return e.sessions.Confirm(ctx, sessionID)
}

// Delete forgets a session.
func (e *Engine) Delete(ctx context.Context, sessionID string) error {
	return e.sessions.Delete(ctx, sessionID)
}

// List returns the ids of stored sessions.
func (e *Engine) List(ctx context.Context) ([]string, error) {
	return e.sessions.List(ctx)
}

// Generate asks the model for a tree and injects it into the session through the
// same path as template-built trees. Without a configured generator it fails with
// domain.ErrMissingCredential.
func (e *Engine) Generate(ctx context.Context, sessionID, prompt string, hints ...string) (*generate.Result, *domain.Snapshot, error) {
	res, err := e.Preview(ctx, prompt, hints...)
	if err != nil {
		return nil, nil, err
	}
	snap, err := e.Inject(ctx, sessionID, res.Tree, map[string]any{
		"prompt":  prompt,
		"sources": res.Sources,
	}, SourceGenerated)
	if err != nil {
		return res, nil, err
	}
	return res, snap, nil
}

// Preview runs the generation pipeline without touching any session.
func (e *Engine) Preview(ctx context.Context, prompt string, hints ...string) (*generate.Result, error) {
	if e.pipeline == nil {
		return nil, domain.ErrMissingCredential
	}
	return e.pipeline.Generate(ctx, prompt, hints...)
}
