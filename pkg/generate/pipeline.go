package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/internal/sanitize"
	"github.com/aretw0/canopy/internal/validator"
	"github.com/aretw0/canopy/pkg/catalog"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
)

// DefaultTimeout bounds a single generation call.
const DefaultTimeout = 60 * time.Second

// Result is a generated tree plus what was learned while producing it.
type Result struct {
	Tree *domain.UITree
	// Issues are validation findings. They are informational; the tree is still usable.
	Issues []domain.ValidationIssue
	// Sources lists the data sources that contributed records, sorted.
	Sources []string
	// Raw is the model reply as received.
	Raw string
}

// Pipeline turns a natural-language prompt into a UI tree.
type Pipeline struct {
	gen     ports.Generator
	catalog *catalog.Catalog
	sources []ports.DataSource
	limits  Limits
	timeout time.Duration
	logger  *slog.Logger
	hooks   domain.LifecycleHooks
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithSources registers the data sources the pipeline may consult.
func WithSources(sources ...ports.DataSource) Option {
	return func(p *Pipeline) { p.sources = append(p.sources, sources...) }
}

func WithCatalog(c *catalog.Catalog) Option {
	return func(p *Pipeline) { p.catalog = c }
}

func WithLimits(l Limits) Option {
	return func(p *Pipeline) { p.limits = l }
}

// WithTimeout sets the generation deadline. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) { p.timeout = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

func WithHooks(h domain.LifecycleHooks) Option {
	return func(p *Pipeline) { p.hooks = h }
}

// New builds a pipeline around a generator.
func New(gen ports.Generator, opts ...Option) *Pipeline {
	p := &Pipeline{
		gen:     gen,
		catalog: catalog.Default(),
		limits:  DefaultLimits,
		timeout: DefaultTimeout,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Sources returns the names of the registered data sources.
func (p *Pipeline) Sources() []string {
	names := make([]string, 0, len(p.sources))
	for _, s := range p.sources {
		names = append(names, s.Name())
	}
	return names
}

// Generate produces a tree for prompt. Hints name data sources explicitly; without
// hints, sources are chosen by keyword match against the prompt.
//
// Errors wrap domain.ErrGenerationFailed, domain.ErrInvalidJSON or
// domain.ErrInvalidTree. Validation issues never cause an error.
func (p *Pipeline) Generate(ctx context.Context, prompt string, hints ...string) (res *Result, err error) {
	start := time.Now()
	defer func() {
		p.emit(ctx, start, res, err)
	}()

	limit := p.limits.MaxPromptSize
	if limit <= 0 {
		limit = sanitize.MaxPromptSize()
	}
	clean, err := sanitize.PromptWithLimit(prompt, limit)
	if err != nil {
		return nil, fmt.Errorf("invalid prompt: %w", err)
	}

	selected := p.resolve(clean, hints)
	data := p.fetch(ctx, selected)

	user, err := UserMessage(clean, data)
	if err != nil {
		return nil, err
	}
	system := SystemPrompt(p.catalog, p.limits)

	callCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	p.logger.Debug("requesting tree", "sources", len(data), "prompt_bytes", len(clean))
	raw, err := p.gen.Generate(callCtx, system, user)
	if err != nil {
		if errors.Is(err, domain.ErrMissingCredential) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrGenerationFailed, err)
	}

	tree, err := ParseTree(raw)
	if err != nil {
		p.logger.Warn("discarding generated reply", "error", err)
		return nil, err
	}

	issues := validator.Validate(tree,
		validator.WithCatalog(p.catalog),
		validator.WithMaxNodes(p.limits.MaxNodes),
	)
	for _, issue := range issues {
		p.logger.Warn("generated tree issue", "node", issue.NodeID, "code", issue.Code, "reason", issue.Reason)
	}

	names := make([]string, 0, len(data))
	for name := range data {
		names = append(names, name)
	}
	slices.Sort(names)

	return &Result{Tree: tree, Issues: issues, Sources: names, Raw: raw}, nil
}

// resolve picks sources by hint or, when no hint is given, by keyword.
func (p *Pipeline) resolve(prompt string, hints []string) []ports.DataSource {
	if len(hints) > 0 {
		var out []ports.DataSource
		for _, h := range hints {
			idx := slices.IndexFunc(p.sources, func(s ports.DataSource) bool {
				return strings.EqualFold(s.Name(), h)
			})
			if idx < 0 {
				p.logger.Warn("unknown data source hint", "hint", h)
				continue
			}
			if !slices.Contains(out, p.sources[idx]) {
				out = append(out, p.sources[idx])
			}
		}
		return out
	}

	lower := strings.ToLower(prompt)
	var out []ports.DataSource
	for _, s := range p.sources {
		if matches(lower, s) {
			out = append(out, s)
		}
	}
	return out
}

func matches(lowerPrompt string, s ports.DataSource) bool {
	if strings.Contains(lowerPrompt, strings.ToLower(s.Name())) {
		return true
	}
	for _, kw := range s.Keywords() {
		if kw != "" && strings.Contains(lowerPrompt, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// fetch loads all selected sources concurrently. A failing source is logged and
// skipped; generation continues with whatever is available.
func (p *Pipeline) fetch(ctx context.Context, sources []ports.DataSource) map[string]json.RawMessage {
	var (
		mu  sync.Mutex
		out = make(map[string]json.RawMessage, len(sources))
		g   errgroup.Group
	)
	for _, s := range sources {
		g.Go(func() error {
			v, err := s.Fetch(ctx)
			if err != nil {
				p.logger.Warn("data source failed", "source", s.Name(), "error", err)
				return nil
			}
			blob, err := encode(v)
			if err != nil {
				p.logger.Warn("data source returned unencodable records", "source", s.Name(), "error", err)
				return nil
			}
			mu.Lock()
			out[s.Name()] = blob
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// encode keeps pre-encoded JSON byte-for-byte so numbers reach the model verbatim.
func encode(v any) (json.RawMessage, error) {
	switch val := v.(type) {
	case nil:
		return nil, errors.New("no records")
	case json.RawMessage:
		if !json.Valid(val) {
			return nil, errors.New("invalid JSON")
		}
		return val, nil
	case []byte:
		if !json.Valid(val) {
			return nil, errors.New("invalid JSON")
		}
		return json.RawMessage(val), nil
	default:
		return json.Marshal(val)
	}
}

func (p *Pipeline) emit(ctx context.Context, start time.Time, res *Result, err error) {
	if p.hooks.OnGenerate == nil {
		return
	}
	ev := &domain.GenerateEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventGenerate},
		Duration:  time.Since(start),
	}
	if err != nil {
		ev.Error = err.Error()
	}
	if res != nil {
		ev.Sources = res.Sources
		ev.Nodes = res.Tree.Len()
		ev.Issues = len(res.Issues)
	}
	p.hooks.OnGenerate(ctx, ev)
}
