package catalog

import "github.com/aretw0/canopy/pkg/schema"

var (
	tone    = schema.Enum("neutral", "success", "warning", "danger", "info")
	variant = schema.Enum("info", "success", "warning", "error")

	tableColumn = schema.Schema{
		"key":   {Type: schema.String(), Required: true},
		"label": {Type: schema.String()},
		"align": {Type: schema.Enum("left", "right", "center")},
	}
	listItem = schema.Schema{
		"title":    {Type: schema.String(), Required: true},
		"subtitle": {Type: schema.String()},
		"meta":     {Type: schema.String()},
	}
	chartPoint = schema.Schema{
		"label": {Type: schema.String(), Required: true},
		"value": {Type: schema.Number(), Required: true},
	}
	boardCard = schema.Schema{
		"id":       {Type: schema.String(), Required: true},
		"title":    {Type: schema.String(), Required: true},
		"subtitle": {Type: schema.String()},
		"value":    {Type: schema.Number()},
	}
	boardColumn = schema.Schema{
		"id":    {Type: schema.String(), Required: true},
		"title": {Type: schema.String(), Required: true},
		"cards": {Type: schema.Slice(schema.Object(boardCard))},
	}
	pickerOption = schema.Schema{
		"value": {Type: schema.String(), Required: true},
		"label": {Type: schema.String()},
	}
)

// Default returns the catalog of CRM dashboard components.
func Default() *Catalog {
	return New(
		Spec{
			Type: Stack, Category: CategoryLayout, AcceptsChildren: true,
			Description: "Vertical or horizontal stack of children",
			Props: schema.Schema{
				"direction": {Type: schema.Enum("vertical", "horizontal"), Default: "vertical"},
				"gap":       {Type: schema.Int(), Default: 8, Description: "spacing in px"},
				"align":     {Type: schema.Enum("start", "center", "end", "stretch"), Default: "stretch"},
			},
		},
		Spec{
			Type: Grid, Category: CategoryLayout, AcceptsChildren: true,
			Description: "Fixed column grid of children",
			Props: schema.Schema{
				"columns": {Type: schema.Int(), Default: 2},
				"gap":     {Type: schema.Int(), Default: 12},
			},
		},
		Spec{
			Type: Card, Category: CategoryLayout, AcceptsChildren: true,
			Description: "Titled container",
			Props: schema.Schema{
				"title":    {Type: schema.String()},
				"subtitle": {Type: schema.String()},
			},
		},
		Spec{
			Type: Divider, Category: CategoryLayout,
			Description: "Horizontal rule with an optional label",
			Props: schema.Schema{
				"label": {Type: schema.String()},
			},
		},
		Spec{
			Type: Heading, Category: CategoryContent,
			Description: "Section heading",
			Props: schema.Schema{
				"text":  {Type: schema.String(), Required: true},
				"level": {Type: schema.Int(), Default: 2, Description: "1-4"},
			},
		},
		Spec{
			Type: Text, Category: CategoryContent,
			Description: "Plain paragraph",
			Props: schema.Schema{
				"text": {Type: schema.String(), Required: true},
				"tone": {Type: schema.Enum("default", "muted", "strong"), Default: "default"},
			},
		},
		Spec{
			Type: Markdown, Category: CategoryContent,
			Description: "Markdown block, rendered and sanitized",
			Props: schema.Schema{
				"content": {Type: schema.String(), Required: true},
			},
		},
		Spec{
			Type: Badge, Category: CategoryContent,
			Description: "Short status label",
			Props: schema.Schema{
				"label": {Type: schema.String(), Required: true},
				"tone":  {Type: tone, Default: "neutral"},
			},
		},
		Spec{
			Type: Alert, Category: CategoryContent,
			Description: "Callout message",
			Props: schema.Schema{
				"title":   {Type: schema.String()},
				"message": {Type: schema.String(), Required: true},
				"variant": {Type: variant, Default: "info"},
			},
		},
		Spec{
			Type: Metric, Category: CategoryData,
			Description: "Single KPI with optional delta",
			Props: schema.Schema{
				"label":    {Type: schema.String(), Required: true},
				"value":    {Type: schema.Any(), Required: true},
				"delta":    {Type: schema.Number(), Description: "change vs previous period, percent"},
				"format":   {Type: schema.Enum("number", "currency", "percent"), Default: "number"},
				"currency": {Type: schema.String(), Default: "USD"},
			},
		},
		Spec{
			Type: Table, Category: CategoryData,
			Description: "Tabular records",
			Props: schema.Schema{
				"columns": {Type: schema.Slice(schema.Object(tableColumn)), Required: true},
				"rows":    {Type: schema.Slice(schema.Object()), Required: true},
				"caption": {Type: schema.String()},
				"maxRows": {Type: schema.Int(), Default: 10},
			},
		},
		Spec{
			Type: List, Category: CategoryData,
			Description: "List of titled items",
			Props: schema.Schema{
				"items":   {Type: schema.Slice(schema.Object(listItem)), Required: true},
				"ordered": {Type: schema.Bool(), Default: false},
			},
		},
		Spec{
			Type: BarChart, Category: CategoryData,
			Description: "Horizontal bar chart of labelled values",
			Props: schema.Schema{
				"title": {Type: schema.String()},
				"data":  {Type: schema.Slice(schema.Object(chartPoint)), Required: true},
			},
		},
		Spec{
			Type: ProgressBar, Category: CategoryData,
			Description: "Progress toward a target",
			Props: schema.Schema{
				"label": {Type: schema.String()},
				"value": {Type: schema.Number(), Required: true},
				"max":   {Type: schema.Number(), Default: 100},
			},
		},
		Spec{
			Type: KanbanBoard, Category: CategoryInteractive,
			Description: "Drag-and-drop board; moving a card runs moveAction",
			Props: schema.Schema{
				"title":      {Type: schema.String()},
				"columns":    {Type: schema.Slice(schema.Object(boardColumn)), Required: true},
				"moveAction": {Type: schema.String(), Default: "move_card", Description: "tool invoked with card_id, from, to"},
			},
		},
		Spec{
			Type: InlineEditor, Category: CategoryInteractive,
			Description: "Editable field; saving runs action with record_id, field, value",
			Props: schema.Schema{
				"label":     {Type: schema.String()},
				"field":     {Type: schema.String(), Required: true},
				"recordId":  {Type: schema.String()},
				"value":     {Type: schema.Any()},
				"inputType": {Type: schema.Enum("text", "number", "date"), Default: "text"},
				"action":    {Type: schema.String(), Default: "update_field"},
			},
		},
		Spec{
			Type: Picker, Category: CategoryInteractive,
			Description: "Single choice; selecting runs action with record_id, field, value",
			Props: schema.Schema{
				"label":    {Type: schema.String()},
				"field":    {Type: schema.String(), Required: true},
				"recordId": {Type: schema.String()},
				"options":  {Type: schema.Slice(schema.Object(pickerOption)), Required: true},
				"value":    {Type: schema.String()},
				"action":   {Type: schema.String(), Default: "update_field"},
			},
		},
		Spec{
			Type: Button, Category: CategoryInteractive,
			Description: "Runs action with args when pressed",
			Props: schema.Schema{
				"label":   {Type: schema.String(), Required: true},
				"action":  {Type: schema.String(), Required: true},
				"args":    {Type: schema.Object()},
				"variant": {Type: schema.Enum("primary", "secondary", "danger"), Default: "primary"},
			},
		},
	)
}
