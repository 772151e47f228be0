package catalog

// ComponentType is the closed set of component names a UI tree may reference.
type ComponentType string

const (
	// Layout
	Stack   ComponentType = "Stack"
	Grid    ComponentType = "Grid"
	Card    ComponentType = "Card"
	Divider ComponentType = "Divider"

	// Content
	Heading  ComponentType = "Heading"
	Text     ComponentType = "Text"
	Markdown ComponentType = "Markdown"
	Badge    ComponentType = "Badge"
	Alert    ComponentType = "Alert"

	// Data
	Metric      ComponentType = "Metric"
	Table       ComponentType = "Table"
	List        ComponentType = "List"
	BarChart    ComponentType = "BarChart"
	ProgressBar ComponentType = "ProgressBar"

	// Interactive
	KanbanBoard  ComponentType = "KanbanBoard"
	InlineEditor ComponentType = "InlineEditor"
	Picker       ComponentType = "Picker"
	Button       ComponentType = "Button"

	// Unknown is the fallback variant for names outside the catalog.
	Unknown ComponentType = ""
)

// Category groups components when describing the catalog.
type Category string

const (
	CategoryLayout      Category = "layout"
	CategoryContent     Category = "content"
	CategoryData        Category = "data"
	CategoryInteractive Category = "interactive"
)

// Interactive reports whether the component mutates remote state through actions.
func (c ComponentType) Interactive() bool {
	switch c {
	case KanbanBoard, InlineEditor, Picker, Button:
		return true
	}
	return false
}
