package catalog

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_ParseAndLookup(t *testing.T) {
	c := Default()

	assert.Equal(t, KanbanBoard, c.Parse("KanbanBoard"))
	assert.Equal(t, Unknown, c.Parse("kanbanboard"))
	assert.Equal(t, Unknown, c.Parse("Carousel"))

	spec, ok := c.Lookup("Card")
	require.True(t, ok)
	assert.True(t, spec.AcceptsChildren)

	spec, ok = c.Lookup("Metric")
	require.True(t, ok)
	assert.False(t, spec.AcceptsChildren)
}

func TestDefault_NamesAreUniqueAndOrdered(t *testing.T) {
	names := Default().Names()
	require.NotEmpty(t, names)
	assert.Equal(t, "Stack", names[0])

	seen := map[string]bool{}
	for _, n := range names {
		assert.False(t, seen[n], "duplicate component %s", n)
		seen[n] = true
	}
}

func TestDefaults(t *testing.T) {
	c := Default()
	d := c.Defaults(Stack)
	assert.Equal(t, "vertical", d["direction"])
	assert.Equal(t, 8, d["gap"])
	assert.Empty(t, c.Defaults(Unknown))
}

func TestValidateProps(t *testing.T) {
	c := Default()
	assert.NoError(t, c.ValidateProps(Heading, map[string]any{"text": "Hi"}))
	assert.Error(t, c.ValidateProps(Heading, map[string]any{"level": 2}))
	assert.NoError(t, c.ValidateProps(Unknown, map[string]any{"anything": 1}))
}

func TestDescribe(t *testing.T) {
	text := Default().Describe()
	assert.True(t, strings.HasPrefix(text, "## LAYOUT"))
	assert.Contains(t, text, "- KanbanBoard:")
	assert.Contains(t, text, "columns ([{cards:[{id:string,subtitle:string,title:string,value:number}],id:string,title:string}], required)")
	assert.Contains(t, text, "(accepts children)")
}

func TestMarshalJSON(t *testing.T) {
	b, err := json.Marshal(Default())
	require.NoError(t, err)

	var specs []map[string]any
	require.NoError(t, json.Unmarshal(b, &specs))
	assert.Len(t, specs, len(Default().Names()))
	assert.Equal(t, "Stack", specs[0]["type"])
}

func TestInteractive(t *testing.T) {
	assert.True(t, KanbanBoard.Interactive())
	assert.True(t, Button.Interactive())
	assert.False(t, Table.Interactive())
}
