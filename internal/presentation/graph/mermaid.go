package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/canopy/pkg/catalog"
	"github.com/aretw0/canopy/pkg/domain"
)

// Overlay marks nodes on the diagram.
type Overlay struct {
	// Issues from the validator; their nodes are styled as invalid.
	Issues []domain.ValidationIssue
	// Changed nodes, e.g. widgets with optimistic state.
	Changed []string
}

// GenerateMermaid produces a Mermaid flowchart of the tree's parent/child
// structure. Shapes follow the component category:
// - Layout: (Rounded)
// - Interactive: [[Subroutine]]
// - Unknown type: {{Hexagon}}
// - Default: [Rectangle]
// Children that do not exist are drawn as dotted edges to a missing marker.
func GenerateMermaid(tree *domain.UITree, c *catalog.Catalog, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	if tree == nil {
		return sb.String()
	}

	ids := make([]string, 0, len(tree.Elements))
	for id := range tree.Elements {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		node := tree.Elements[id]
		safeID := sanitizeMermaidID(id)

		opener, closer := "[", "]"
		spec, known := c.Lookup(node.Type)
		switch {
		case !known:
			opener, closer = "{{", "}}"
		case spec.Category == catalog.CategoryLayout:
			opener, closer = "(", ")"
		case spec.Category == catalog.CategoryInteractive:
			opener, closer = "[[", "]]"
		}
		label := fmt.Sprintf("%s <br/> %s", id, node.Type)
		if id == tree.Root {
			label = "⌂ " + label
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, escapeLabel(label), closer)

		for _, child := range node.Children {
			if _, ok := tree.Elements[child]; ok {
				fmt.Fprintf(&sb, "    %s --> %s\n", safeID, sanitizeMermaidID(child))
				continue
			}
			missing := "missing_" + sanitizeMermaidID(child)
			fmt.Fprintf(&sb, "    %s -.-> %s>\"%s ?\"]\n", safeID, missing, escapeLabel(child))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef invalid fill:#fee2e2,stroke:#b91c1c,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef changed fill:#fef9c3,stroke:#ca8a04,stroke-width:2px,color:#000;\n")

		seen := make(map[string]bool)
		for _, issue := range overlay.Issues {
			if _, ok := tree.Elements[issue.NodeID]; !ok {
				continue
			}
			safeID := sanitizeMermaidID(issue.NodeID)
			if !seen[safeID] {
				seen[safeID] = true
				fmt.Fprintf(&sb, "    class %s invalid;\n", safeID)
			}
		}
		for _, id := range overlay.Changed {
			fmt.Fprintf(&sb, "    class %s changed;\n", sanitizeMermaidID(id))
		}
	}

	return sb.String()
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
