package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/canopy/pkg/catalog"
	"github.com/aretw0/canopy/pkg/domain"
)

// Option configures optional checks.
type Option func(*config)

type config struct {
	catalog  *catalog.Catalog
	maxNodes int
}

// WithCatalog enables the unknown_type and unexpected_children checks.
func WithCatalog(c *catalog.Catalog) Option {
	return func(cfg *config) { cfg.catalog = c }
}

// WithMaxNodes reports a too_many_nodes issue when the tree holds more than n elements.
func WithMaxNodes(n int) Option {
	return func(cfg *config) { cfg.maxNodes = n }
}

// Validate reports the structural problems of a tree. It never fails: a sound tree
// yields an empty slice. Issues are warnings; the interpreter still renders what it can.
//
// Checks run in order: root presence, dangling children, cycles reachable from the root,
// then per-node type and key consistency.
func Validate(tree *domain.UITree, opts ...Option) []domain.ValidationIssue {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	if tree == nil {
		return []domain.ValidationIssue{{Code: domain.IssueMissingRoot, Reason: "tree is nil"}}
	}

	var issues []domain.ValidationIssue
	ids := sortedIDs(tree)

	// 1. Root
	if _, ok := tree.Elements[tree.Root]; !ok {
		reason := fmt.Sprintf("root %q is not in elements", tree.Root)
		if tree.Root == "" {
			reason = "root is empty"
		}
		issues = append(issues, domain.ValidationIssue{NodeID: tree.Root, Code: domain.IssueMissingRoot, Reason: reason})
	}

	// 2. Dangling children
	for _, id := range ids {
		for _, child := range tree.Elements[id].Children {
			if _, ok := tree.Elements[child]; !ok {
				issues = append(issues, domain.ValidationIssue{
					NodeID: id,
					Code:   domain.IssueDanglingChild,
					Reason: fmt.Sprintf("child %q is not in elements", child),
				})
			}
		}
	}

	// 3. Cycles
	issues = append(issues, findCycles(tree)...)

	// 4. Node consistency
	for _, id := range ids {
		node := tree.Elements[id]
		if strings.TrimSpace(node.Type) == "" {
			issues = append(issues, domain.ValidationIssue{NodeID: id, Code: domain.IssueEmptyType, Reason: "type is empty"})
		}
		if node.Key != id {
			issues = append(issues, domain.ValidationIssue{
				NodeID: id,
				Code:   domain.IssueKeyMismatch,
				Reason: fmt.Sprintf("key %q does not match element id", node.Key),
			})
		}
		if cfg.catalog == nil || node.Type == "" {
			continue
		}
		spec, ok := cfg.catalog.Lookup(node.Type)
		if !ok {
			issues = append(issues, domain.ValidationIssue{
				NodeID: id,
				Code:   domain.IssueUnknownType,
				Reason: fmt.Sprintf("type %q is not in the catalog", node.Type),
			})
			continue
		}
		if !spec.AcceptsChildren && len(node.Children) > 0 {
			issues = append(issues, domain.ValidationIssue{
				NodeID: id,
				Code:   domain.IssueUnexpectedChildren,
				Reason: fmt.Sprintf("%s does not accept children (%d given)", node.Type, len(node.Children)),
			})
		}
	}

	if cfg.maxNodes > 0 && tree.Len() > cfg.maxNodes {
		issues = append(issues, domain.ValidationIssue{
			NodeID: tree.Root,
			Code:   domain.IssueTooManyNodes,
			Reason: fmt.Sprintf("%d elements exceed the limit of %d", tree.Len(), cfg.maxNodes),
		})
	}

	return issues
}

const (
	white = iota // unvisited
	gray         // on the current path
	black        // done
)

// findCycles walks the graph from the root and reports each node that closes a cycle
// (the target of a back-edge) exactly once.
func findCycles(tree *domain.UITree) []domain.ValidationIssue {
	if _, ok := tree.Elements[tree.Root]; !ok {
		return nil
	}

	color := make(map[string]int, len(tree.Elements))
	reported := make(map[string]bool)
	var issues []domain.ValidationIssue

	var visit func(id string)
	visit = func(id string) {
		color[id] = gray
		for _, child := range tree.Elements[id].Children {
			if _, ok := tree.Elements[child]; !ok {
				continue
			}
			switch color[child] {
			case white:
				visit(child)
			case gray:
				if !reported[child] {
					reported[child] = true
					issues = append(issues, domain.ValidationIssue{
						NodeID: child,
						Code:   domain.IssueCycle,
						Reason: fmt.Sprintf("%q is its own ancestor (via %q)", child, id),
					})
				}
			}
		}
		color[id] = black
	}
	visit(tree.Root)

	return issues
}

func sortedIDs(tree *domain.UITree) []string {
	ids := make([]string, 0, len(tree.Elements))
	for id := range tree.Elements {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Report folds issues into a single error, or nil when there are none.
func Report(issues []domain.ValidationIssue) error {
	if len(issues) == 0 {
		return nil
	}
	lines := make([]string, len(issues))
	for i, issue := range issues {
		lines[i] = issue.String()
	}
	return fmt.Errorf("found %d issues:\n- %s", len(issues), strings.Join(lines, "\n- "))
}
