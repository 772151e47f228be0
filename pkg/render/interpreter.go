package render

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/catalog"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/schema"
)

// DefaultBudget bounds the number of elements one render may produce. Shared
// subtrees are rendered once per reference, so a small DAG can expand a lot.
const DefaultBudget = 500

// Warning records a local recovery made while interpreting a tree.
type Warning struct {
	NodeID  string `json:"node_id"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.NodeID, w.Message)
}

// View is the interpreted form of a tree.
type View struct {
	Root         Element   `json:"-"`
	Warnings     []Warning `json:"warnings,omitempty"`
	Elements     int       `json:"elements"`
	Placeholders int       `json:"placeholders"`
}

// Interpreter turns UI trees into Views.
type Interpreter struct {
	catalog *catalog.Catalog
	logger  *slog.Logger
	budget  int
	hooks   domain.LifecycleHooks
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithCatalog sets the component catalog. Defaults to catalog.Default().
func WithCatalog(c *catalog.Catalog) Option {
	return func(i *Interpreter) { i.catalog = c }
}

// WithLogger sets the logger used to report recoveries.
func WithLogger(l *slog.Logger) Option {
	return func(i *Interpreter) { i.logger = l }
}

// WithBudget sets the maximum number of elements per render.
func WithBudget(n int) Option {
	return func(i *Interpreter) { i.budget = n }
}

// WithHooks registers lifecycle hooks fired after each render.
func WithHooks(h domain.LifecycleHooks) Option {
	return func(i *Interpreter) { i.hooks = h }
}

// New creates an Interpreter.
func New(opts ...Option) *Interpreter {
	i := &Interpreter{
		catalog: catalog.Default(),
		logger:  logging.NewNop(),
		budget:  DefaultBudget,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Catalog returns the catalog the interpreter dispatches on.
func (i *Interpreter) Catalog() *catalog.Catalog {
	return i.catalog
}

// Render interprets tree starting from its root. It never fails: structural problems
// are recovered locally and listed in View.Warnings.
func (i *Interpreter) Render(ctx context.Context, tree *domain.UITree) *View {
	w := &walker{
		interp: i,
		tree:   tree,
		path:   make(map[string]bool),
		view:   &View{},
	}

	var root string
	if tree != nil {
		root = tree.Root
	}
	if _, ok := tree.Node(root); !ok {
		w.warn(root, "root is not in elements")
		w.view.Root = w.placeholder(root, "", "missing root")
	} else {
		w.view.Root = w.visit(root)
	}

	if len(w.view.Warnings) > 0 {
		i.logger.Debug("render recovered", "warnings", len(w.view.Warnings), "placeholders", w.view.Placeholders)
	}
	if i.hooks.OnRender != nil {
		i.hooks.OnRender(ctx, &domain.RenderEvent{
			EventBase:    domain.EventBase{Timestamp: time.Now(), Type: domain.EventRender},
			Elements:     w.view.Elements,
			Placeholders: w.view.Placeholders,
			Warnings:     len(w.view.Warnings),
		})
	}
	return w.view
}

type walker struct {
	interp    *Interpreter
	tree      *domain.UITree
	path      map[string]bool
	view      *View
	exhausted bool
}

func (w *walker) warn(id, format string, args ...any) {
	w.view.Warnings = append(w.view.Warnings, Warning{NodeID: id, Message: fmt.Sprintf(format, args...)})
}

func (w *walker) placeholder(id, rawType, reason string) Element {
	w.view.Elements++
	w.view.Placeholders++
	return &Placeholder{Node: Node{NodeID: id}, RawType: rawType, Reason: reason}
}

// visit renders one node. It returns nil when the node must be skipped.
func (w *walker) visit(id string) Element {
	node, ok := w.tree.Node(id)
	if !ok {
		w.warn(id, "child is not in elements, skipped")
		return nil
	}
	if w.path[id] {
		w.warn(id, "cyclic reference omitted")
		return nil
	}
	if w.view.Elements >= w.interp.budget {
		if !w.exhausted {
			w.exhausted = true
			w.warn(id, "render budget of %d elements exhausted, remaining nodes skipped", w.interp.budget)
		}
		return nil
	}

	kind := w.interp.catalog.Parse(node.Type)
	el := newElement(kind, id)
	if el == nil {
		w.warn(id, "unknown component type %q", node.Type)
		return w.placeholder(id, node.Type, "unknown component type")
	}
	w.view.Elements++

	w.decode(el, kind, node.Props)
	finish(el)

	spec, _ := w.interp.catalog.Lookup(string(kind))
	if len(node.Children) > 0 {
		if !spec.AcceptsChildren {
			w.warn(id, "%s does not accept children, %d ignored", kind, len(node.Children))
			return el
		}
		w.path[id] = true
		children := make([]Element, 0, len(node.Children))
		for _, childID := range node.Children {
			if child := w.visit(childID); child != nil {
				children = append(children, child)
			}
		}
		delete(w.path, id)
		setChildren(el, children)
	}
	return el
}

// decode merges props over the catalog defaults and decodes them into el. Props that
// fail validation or decoding fall back to their defaults.
func (w *walker) decode(el Element, kind catalog.ComponentType, props map[string]any) {
	id := el.ID()
	merged := w.interp.catalog.Defaults(kind)

	err := w.interp.catalog.ValidateProps(kind, props)
	invalid := make(map[string]bool)
	for _, e := range schema.ValidationErrors(err) {
		w.warn(id, "%v", e)
	}
	for _, k := range schema.InvalidKeys(err) {
		invalid[k] = true
	}
	for k, v := range props {
		if invalid[k] || v == nil {
			continue
		}
		merged[k] = v
	}

	if err := decodeInto(el, merged); err == nil {
		return
	}

	// Something slipped past the schema. Decode key by key and keep what fits.
	_ = decodeInto(el, w.interp.catalog.Defaults(kind))
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := decodeInto(el, map[string]any{k: merged[k]}); err != nil {
			w.warn(id, "prop %q: %v", k, err)
		}
	}
}

func decodeInto(target any, input map[string]any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
		ZeroFields:       true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

// finish applies post-decoding normalization.
func finish(el Element) {
	switch e := el.(type) {
	case *Table:
		if e.MaxRows > 0 && len(e.Rows) > e.MaxRows {
			e.Hidden = len(e.Rows) - e.MaxRows
			e.Rows = e.Rows[:e.MaxRows]
		}
	case *Heading:
		e.Level = min(max(e.Level, 1), 4)
	case *Grid:
		e.Columns = max(e.Columns, 1)
	case *ProgressBar:
		if e.Max <= 0 {
			e.Max = 100
		}
	}
}

// Decode interprets a single node on its own, ignoring its children. Widgets use it
// to read their props with the same defaults and recovery rules as Render.
func (i *Interpreter) Decode(node domain.UINode) (Element, []Warning) {
	leaf := node
	leaf.Children = nil
	w := &walker{
		interp: i,
		tree:   &domain.UITree{Root: node.Key, Elements: map[string]domain.UINode{node.Key: leaf}},
		path:   make(map[string]bool),
		view:   &View{},
	}
	return w.visit(node.Key), w.view.Warnings
}
