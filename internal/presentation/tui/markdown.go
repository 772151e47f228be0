package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/canopy/pkg/render"
)

const barWidth = 24

// Markdown writes an interpreted view as markdown, for terminal previews.
// Interactive widgets show their current state; their actions are listed but
// cannot be run from here.
func Markdown(v *render.View) string {
	var b strings.Builder
	if v.Root != nil {
		write(&b, v.Root)
	}
	if len(v.Warnings) > 0 {
		b.WriteString("\n---\n\n")
		for _, w := range v.Warnings {
			fmt.Fprintf(&b, "> ⚠ %s\n", w)
		}
	}
	return b.String()
}

func write(b *strings.Builder, e render.Element) {
	switch el := e.(type) {
	case *render.Stack:
		children(b, el.Children)
	case *render.Grid:
		children(b, el.Children)
	case *render.Card:
		if el.Title != "" {
			fmt.Fprintf(b, "### %s\n\n", el.Title)
		}
		if el.Subtitle != "" {
			fmt.Fprintf(b, "_%s_\n\n", el.Subtitle)
		}
		children(b, el.Children)
	case *render.Divider:
		if el.Label != "" {
			fmt.Fprintf(b, "---\n\n**%s**\n\n", el.Label)
		} else {
			b.WriteString("---\n\n")
		}
	case *render.Heading:
		level := min(max(el.Level, 1), 4)
		fmt.Fprintf(b, "%s %s\n\n", strings.Repeat("#", level), el.Text)
	case *render.Text:
		if el.Tone == "strong" {
			fmt.Fprintf(b, "**%s**\n\n", el.Text)
		} else {
			fmt.Fprintf(b, "%s\n\n", el.Text)
		}
	case *render.Markdown:
		fmt.Fprintf(b, "%s\n\n", strings.TrimSpace(el.Content))
	case *render.Badge:
		fmt.Fprintf(b, "`%s`\n\n", el.Label)
	case *render.Alert:
		if el.Title != "" {
			fmt.Fprintf(b, "> **%s** %s\n\n", el.Title, el.Message)
		} else {
			fmt.Fprintf(b, "> %s\n\n", el.Message)
		}
	case *render.Metric:
		fmt.Fprintf(b, "**%s**: %s", el.Label, render.FormatMetric(el))
		if d := render.FormatDelta(el.Delta); d != "" {
			fmt.Fprintf(b, " (%s)", d)
		}
		b.WriteString("\n\n")
	case *render.Table:
		table(b, el)
	case *render.List:
		for i, item := range el.Items {
			marker := "-"
			if el.Ordered {
				marker = fmt.Sprintf("%d.", i+1)
			}
			fmt.Fprintf(b, "%s **%s**", marker, item.Title)
			if item.Subtitle != "" {
				fmt.Fprintf(b, " %s", item.Subtitle)
			}
			if item.Meta != "" {
				fmt.Fprintf(b, " _%s_", item.Meta)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	case *render.BarChart:
		if el.Title != "" {
			fmt.Fprintf(b, "**%s**\n\n", el.Title)
		}
		b.WriteString("```\n")
		peak := el.Max()
		for _, p := range el.Data {
			n := int(render.Percent(p.Value, peak) / 100 * barWidth)
			fmt.Fprintf(b, "%-12s %s %s\n", p.Label, strings.Repeat("█", n), render.FormatCell(p.Value))
		}
		b.WriteString("```\n\n")
	case *render.ProgressBar:
		pct := render.Percent(el.Value, el.Max)
		n := int(pct / 100 * barWidth)
		fmt.Fprintf(b, "%s `[%s%s]` %.0f%%\n\n", el.Label, strings.Repeat("#", n), strings.Repeat(".", barWidth-n), pct)
	case *render.KanbanBoard:
		if el.Title != "" {
			fmt.Fprintf(b, "### %s\n\n", el.Title)
		}
		for _, col := range el.Columns {
			fmt.Fprintf(b, "**%s** (%d)\n\n", col.Title, len(col.Cards))
			for _, c := range col.Cards {
				fmt.Fprintf(b, "- %s", c.Title)
				if c.Subtitle != "" {
					fmt.Fprintf(b, " _%s_", c.Subtitle)
				}
				b.WriteString("\n")
			}
			b.WriteString("\n")
		}
	case *render.InlineEditor:
		fmt.Fprintf(b, "%s: `%s` ✎\n\n", label(el.Label, el.Field), render.FormatCell(el.Value))
	case *render.Picker:
		opts := make([]string, 0, len(el.Options))
		for _, o := range el.Options {
			text := o.Label
			if text == "" {
				text = o.Value
			}
			if o.Value == el.Value {
				text = "**" + text + "**"
			}
			opts = append(opts, text)
		}
		fmt.Fprintf(b, "%s: %s\n\n", label(el.Label, el.Field), strings.Join(opts, " | "))
	case *render.Button:
		fmt.Fprintf(b, "[ %s ] → `%s`\n\n", el.Label, el.Action)
	case *render.Placeholder:
		fmt.Fprintf(b, "> _%s: %s_\n\n", el.RawType, el.Reason)
	}
}

func children(b *strings.Builder, items []render.Element) {
	for _, c := range items {
		write(b, c)
	}
}

func label(text, field string) string {
	if text != "" {
		return text
	}
	return field
}

func table(b *strings.Builder, t *render.Table) {
	if len(t.Columns) == 0 {
		return
	}
	if t.Caption != "" {
		fmt.Fprintf(b, "**%s**\n\n", t.Caption)
	}
	b.WriteString("|")
	for _, c := range t.Columns {
		fmt.Fprintf(b, " %s |", escape(c.Title()))
	}
	b.WriteString("\n|")
	for _, c := range t.Columns {
		switch c.Align {
		case "right":
			b.WriteString(" ---: |")
		case "center":
			b.WriteString(" :---: |")
		default:
			b.WriteString(" --- |")
		}
	}
	b.WriteString("\n")
	for _, row := range t.Rows {
		b.WriteString("|")
		for _, c := range t.Columns {
			fmt.Fprintf(b, " %s |", escape(render.FormatCell(row[c.Key])))
		}
		b.WriteString("\n")
	}
	if t.Hidden > 0 {
		fmt.Fprintf(b, "\n_%d more rows_\n", t.Hidden)
	}
	b.WriteString("\n")
}

func escape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
