package render

import "github.com/aretw0/canopy/pkg/catalog"

// Element is one interpreted node. The set of implementations is closed and mirrors
// the catalog; Placeholder stands in for anything the catalog does not know.
type Element interface {
	ID() string
	Kind() catalog.ComponentType
	element()
}

// Container is an element that renders children.
type Container interface {
	Element
	Items() []Element
}

// Node carries the element id.
type Node struct {
	NodeID string `json:"id" mapstructure:"-"`
}

func (n Node) ID() string { return n.NodeID }
func (Node) element()     {}

// Layout

type Stack struct {
	Node      `mapstructure:"-"`
	Direction string    `json:"direction" mapstructure:"direction"`
	Gap       int       `json:"gap" mapstructure:"gap"`
	Align     string    `json:"align" mapstructure:"align"`
	Children  []Element `json:"-" mapstructure:"-"`
}

type Grid struct {
	Node     `mapstructure:"-"`
	Columns  int       `json:"columns" mapstructure:"columns"`
	Gap      int       `json:"gap" mapstructure:"gap"`
	Children []Element `json:"-" mapstructure:"-"`
}

type Card struct {
	Node     `mapstructure:"-"`
	Title    string    `json:"title,omitempty" mapstructure:"title"`
	Subtitle string    `json:"subtitle,omitempty" mapstructure:"subtitle"`
	Children []Element `json:"-" mapstructure:"-"`
}

type Divider struct {
	Node  `mapstructure:"-"`
	Label string `json:"label,omitempty" mapstructure:"label"`
}

// Content

type Heading struct {
	Node  `mapstructure:"-"`
	Text  string `json:"text" mapstructure:"text"`
	Level int    `json:"level" mapstructure:"level"`
}

type Text struct {
	Node `mapstructure:"-"`
	Text string `json:"text" mapstructure:"text"`
	Tone string `json:"tone" mapstructure:"tone"`
}

type Markdown struct {
	Node    `mapstructure:"-"`
	Content string `json:"content" mapstructure:"content"`
}

type Badge struct {
	Node  `mapstructure:"-"`
	Label string `json:"label" mapstructure:"label"`
	Tone  string `json:"tone" mapstructure:"tone"`
}

type Alert struct {
	Node    `mapstructure:"-"`
	Title   string `json:"title,omitempty" mapstructure:"title"`
	Message string `json:"message" mapstructure:"message"`
	Variant string `json:"variant" mapstructure:"variant"`
}

// Data

type Metric struct {
	Node     `mapstructure:"-"`
	Label    string   `json:"label" mapstructure:"label"`
	Value    any      `json:"value" mapstructure:"value"`
	Delta    *float64 `json:"delta,omitempty" mapstructure:"delta"`
	Format   string   `json:"format" mapstructure:"format"`
	Currency string   `json:"currency" mapstructure:"currency"`
}

type TableColumn struct {
	Key   string `json:"key" mapstructure:"key"`
	Label string `json:"label,omitempty" mapstructure:"label"`
	Align string `json:"align,omitempty" mapstructure:"align"`
}

// Title returns the column label, or its key when unlabelled.
func (c TableColumn) Title() string {
	if c.Label != "" {
		return c.Label
	}
	return c.Key
}

type Table struct {
	Node    `mapstructure:"-"`
	Columns []TableColumn    `json:"columns" mapstructure:"columns"`
	Rows    []map[string]any `json:"rows" mapstructure:"rows"`
	Caption string           `json:"caption,omitempty" mapstructure:"caption"`
	MaxRows int              `json:"max_rows" mapstructure:"maxRows"`
	// Hidden counts the rows cut by MaxRows.
	Hidden int `json:"hidden,omitempty" mapstructure:"-"`
}

type ListItem struct {
	Title    string `json:"title" mapstructure:"title"`
	Subtitle string `json:"subtitle,omitempty" mapstructure:"subtitle"`
	Meta     string `json:"meta,omitempty" mapstructure:"meta"`
}

type List struct {
	Node    `mapstructure:"-"`
	Items   []ListItem `json:"items" mapstructure:"items"`
	Ordered bool       `json:"ordered" mapstructure:"ordered"`
}

type BarPoint struct {
	Label string  `json:"label" mapstructure:"label"`
	Value float64 `json:"value" mapstructure:"value"`
}

type BarChart struct {
	Node  `mapstructure:"-"`
	Title string     `json:"title,omitempty" mapstructure:"title"`
	Data  []BarPoint `json:"data" mapstructure:"data"`
}

// Max returns the largest value, used to scale bars.
func (b *BarChart) Max() float64 {
	var m float64
	for _, p := range b.Data {
		if p.Value > m {
			m = p.Value
		}
	}
	return m
}

type ProgressBar struct {
	Node  `mapstructure:"-"`
	Label string  `json:"label,omitempty" mapstructure:"label"`
	Value float64 `json:"value" mapstructure:"value"`
	Max   float64 `json:"max" mapstructure:"max"`
}

// Interactive

type BoardCard struct {
	ID       string   `json:"id" mapstructure:"id"`
	Title    string   `json:"title" mapstructure:"title"`
	Subtitle string   `json:"subtitle,omitempty" mapstructure:"subtitle"`
	Value    *float64 `json:"value,omitempty" mapstructure:"value"`
}

type BoardColumn struct {
	ID    string      `json:"id" mapstructure:"id"`
	Title string      `json:"title" mapstructure:"title"`
	Cards []BoardCard `json:"cards" mapstructure:"cards"`
}

type KanbanBoard struct {
	Node       `mapstructure:"-"`
	Title      string        `json:"title,omitempty" mapstructure:"title"`
	Columns    []BoardColumn `json:"columns" mapstructure:"columns"`
	MoveAction string        `json:"move_action" mapstructure:"moveAction"`
}

type InlineEditor struct {
	Node      `mapstructure:"-"`
	Label     string `json:"label,omitempty" mapstructure:"label"`
	Field     string `json:"field" mapstructure:"field"`
	RecordID  string `json:"record_id,omitempty" mapstructure:"recordId"`
	Value     any    `json:"value" mapstructure:"value"`
	InputType string `json:"input_type" mapstructure:"inputType"`
	Action    string `json:"action" mapstructure:"action"`
}

type PickerOption struct {
	Value string `json:"value" mapstructure:"value"`
	Label string `json:"label,omitempty" mapstructure:"label"`
}

type Picker struct {
	Node     `mapstructure:"-"`
	Label    string         `json:"label,omitempty" mapstructure:"label"`
	Field    string         `json:"field" mapstructure:"field"`
	RecordID string         `json:"record_id,omitempty" mapstructure:"recordId"`
	Options  []PickerOption `json:"options" mapstructure:"options"`
	Value    string         `json:"value,omitempty" mapstructure:"value"`
	Action   string         `json:"action" mapstructure:"action"`
}

type Button struct {
	Node    `mapstructure:"-"`
	Label   string         `json:"label" mapstructure:"label"`
	Action  string         `json:"action" mapstructure:"action"`
	Args    map[string]any `json:"args,omitempty" mapstructure:"args"`
	Variant string         `json:"variant" mapstructure:"variant"`
}

// Placeholder replaces a node whose type is not in the catalog, or a root that
// could not be resolved. RawType keeps the original name for diagnostics.
type Placeholder struct {
	Node    `mapstructure:"-"`
	RawType string `json:"raw_type"`
	Reason  string `json:"reason"`
}

func (*Stack) Kind() catalog.ComponentType        { return catalog.Stack }
func (*Grid) Kind() catalog.ComponentType         { return catalog.Grid }
func (*Card) Kind() catalog.ComponentType         { return catalog.Card }
func (*Divider) Kind() catalog.ComponentType      { return catalog.Divider }
func (*Heading) Kind() catalog.ComponentType      { return catalog.Heading }
func (*Text) Kind() catalog.ComponentType         { return catalog.Text }
func (*Markdown) Kind() catalog.ComponentType     { return catalog.Markdown }
func (*Badge) Kind() catalog.ComponentType        { return catalog.Badge }
func (*Alert) Kind() catalog.ComponentType        { return catalog.Alert }
func (*Metric) Kind() catalog.ComponentType       { return catalog.Metric }
func (*Table) Kind() catalog.ComponentType        { return catalog.Table }
func (*List) Kind() catalog.ComponentType         { return catalog.List }
func (*BarChart) Kind() catalog.ComponentType     { return catalog.BarChart }
func (*ProgressBar) Kind() catalog.ComponentType  { return catalog.ProgressBar }
func (*KanbanBoard) Kind() catalog.ComponentType  { return catalog.KanbanBoard }
func (*InlineEditor) Kind() catalog.ComponentType { return catalog.InlineEditor }
func (*Picker) Kind() catalog.ComponentType       { return catalog.Picker }
func (*Button) Kind() catalog.ComponentType       { return catalog.Button }
func (*Placeholder) Kind() catalog.ComponentType  { return catalog.Unknown }

func (s *Stack) Items() []Element { return s.Children }
func (g *Grid) Items() []Element  { return g.Children }
func (c *Card) Items() []Element  { return c.Children }

// newElement allocates the zero element for a component type, or nil for Unknown.
func newElement(t catalog.ComponentType, id string) Element {
	n := Node{NodeID: id}
	switch t {
	case catalog.Stack:
		return &Stack{Node: n}
	case catalog.Grid:
		return &Grid{Node: n}
	case catalog.Card:
		return &Card{Node: n}
	case catalog.Divider:
		return &Divider{Node: n}
	case catalog.Heading:
		return &Heading{Node: n}
	case catalog.Text:
		return &Text{Node: n}
	case catalog.Markdown:
		return &Markdown{Node: n}
	case catalog.Badge:
		return &Badge{Node: n}
	case catalog.Alert:
		return &Alert{Node: n}
	case catalog.Metric:
		return &Metric{Node: n}
	case catalog.Table:
		return &Table{Node: n}
	case catalog.List:
		return &List{Node: n}
	case catalog.BarChart:
		return &BarChart{Node: n}
	case catalog.ProgressBar:
		return &ProgressBar{Node: n}
	case catalog.KanbanBoard:
		return &KanbanBoard{Node: n}
	case catalog.InlineEditor:
		return &InlineEditor{Node: n}
	case catalog.Picker:
		return &Picker{Node: n}
	case catalog.Button:
		return &Button{Node: n}
	default:
		return nil
	}
}

// setChildren attaches rendered children to container elements.
func setChildren(e Element, children []Element) {
	switch c := e.(type) {
	case *Stack:
		c.Children = children
	case *Grid:
		c.Children = children
	case *Card:
		c.Children = children
	}
}
