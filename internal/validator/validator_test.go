package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/canopy/pkg/catalog"
	"github.com/aretw0/canopy/pkg/domain"
)

func node(key, typ string, children ...string) domain.UINode {
	return domain.UINode{Key: key, Type: typ, Children: children}
}

func tree(root string, nodes ...domain.UINode) *domain.UITree {
	t := &domain.UITree{Root: root, Elements: map[string]domain.UINode{}}
	for _, n := range nodes {
		t.Elements[n.Key] = n
	}
	return t
}

func codes(issues []domain.ValidationIssue) []domain.IssueCode {
	out := make([]domain.IssueCode, len(issues))
	for i, is := range issues {
		out[i] = is.Code
	}
	return out
}

func TestValidate_SoundTree(t *testing.T) {
	tr := tree("root",
		node("root", "Stack", "title", "kpi"),
		node("title", "Heading"),
		node("kpi", "Metric"),
	)
	assert.Empty(t, Validate(tr))
	assert.Empty(t, Validate(tr, WithCatalog(catalog.Default()), WithMaxNodes(15)))
}

func TestValidate_SharedChildIsNotACycle(t *testing.T) {
	tr := tree("root",
		node("root", "Stack", "a", "b"),
		node("a", "Card", "shared"),
		node("b", "Card", "shared"),
		node("shared", "Text"),
	)
	assert.Empty(t, Validate(tr))
}

func TestValidate_MissingRoot(t *testing.T) {
	tests := []struct {
		name string
		tree *domain.UITree
	}{
		{"nil tree", nil},
		{"empty root", tree("", node("a", "Text"))},
		{"absent root", tree("ghost", node("a", "Text"))},
		{"no elements", &domain.UITree{Root: "root"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := Validate(tt.tree)
			require.NotEmpty(t, issues)
			assert.Equal(t, domain.IssueMissingRoot, issues[0].Code)
		})
	}
}

func TestValidate_DanglingChild(t *testing.T) {
	tr := tree("root", node("root", "Stack", "a", "ghost"), node("a", "Text"))
	issues := Validate(tr)
	require.Len(t, issues, 1)
	assert.Equal(t, domain.IssueDanglingChild, issues[0].Code)
	assert.Equal(t, "root", issues[0].NodeID)
	assert.Contains(t, issues[0].Reason, "ghost")
}

func TestValidate_Cycles(t *testing.T) {
	t.Run("self loop", func(t *testing.T) {
		tr := tree("root", node("root", "Stack", "root"))
		issues := Validate(tr)
		require.Len(t, issues, 1)
		assert.Equal(t, domain.IssueCycle, issues[0].Code)
		assert.Equal(t, "root", issues[0].NodeID)
	})

	t.Run("one entry point reached twice", func(t *testing.T) {
		// a -> b -> a and a -> c -> a share the entry point a.
		tr := tree("root",
			node("root", "Stack", "a"),
			node("a", "Card", "b", "c"),
			node("b", "Card", "a"),
			node("c", "Card", "a"),
		)
		issues := Validate(tr)
		require.Len(t, issues, 1)
		assert.Equal(t, "a", issues[0].NodeID)
	})

	t.Run("two distinct cycles", func(t *testing.T) {
		tr := tree("root",
			node("root", "Stack", "a", "x"),
			node("a", "Card", "b"),
			node("b", "Card", "a"),
			node("x", "Card", "y"),
			node("y", "Card", "x"),
		)
		issues := Validate(tr)
		assert.Equal(t, []domain.IssueCode{domain.IssueCycle, domain.IssueCycle}, codes(issues))
		assert.Equal(t, "a", issues[0].NodeID)
		assert.Equal(t, "x", issues[1].NodeID)
	})

	t.Run("unreachable cycle is ignored", func(t *testing.T) {
		tr := tree("root",
			node("root", "Text"),
			node("a", "Card", "b"),
			node("b", "Card", "a"),
		)
		assert.Empty(t, Validate(tr))
	})
}

func TestValidate_NodeConsistency(t *testing.T) {
	tr := &domain.UITree{
		Root: "root",
		Elements: map[string]domain.UINode{
			"root":  {Key: "root", Type: "Stack", Children: []string{"blank", "moved"}},
			"blank": {Key: "blank", Type: "  "},
			"moved": {Key: "other", Type: "Text"},
		},
	}
	issues := Validate(tr)
	assert.Equal(t, []domain.IssueCode{domain.IssueEmptyType, domain.IssueKeyMismatch}, codes(issues))
	assert.Equal(t, "blank", issues[0].NodeID)
	assert.Equal(t, "moved", issues[1].NodeID)
}

func TestValidate_CatalogChecks(t *testing.T) {
	tr := tree("root",
		node("root", "Stack", "metric", "weird"),
		node("metric", "Metric", "root"),
		node("weird", "Carousel"),
	)
	issues := Validate(tr, WithCatalog(catalog.Default()))
	assert.Equal(t, []domain.IssueCode{
		domain.IssueCycle,
		domain.IssueUnexpectedChildren,
		domain.IssueUnknownType,
	}, codes(issues))
}

func TestValidate_MaxNodes(t *testing.T) {
	tr := tree("root", node("root", "Stack", "a", "b"), node("a", "Text"), node("b", "Text"))
	assert.Empty(t, Validate(tr, WithMaxNodes(3)))

	issues := Validate(tr, WithMaxNodes(2))
	require.Len(t, issues, 1)
	assert.Equal(t, domain.IssueTooManyNodes, issues[0].Code)
}

func TestReport(t *testing.T) {
	assert.NoError(t, Report(nil))

	err := Report([]domain.ValidationIssue{{NodeID: "root", Code: domain.IssueMissingRoot, Reason: "root is empty"}})
	require.Error(t, err)
	assert.Equal(t, "found 1 issues:\n- root [missing_root]: root is empty", err.Error())
}
