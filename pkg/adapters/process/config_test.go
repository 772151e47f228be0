package process

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		f, err := Load(filepath.Join(dir, "nope.yaml"))
		require.NoError(t, err)
		assert.Empty(t, f.Tools)
	})

	t.Run("yaml", func(t *testing.T) {
		path := filepath.Join(dir, "canopy.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
tools:
  - name: move_card
    command: ./bin/crm
    args: [move]
  - name: ""
    command: ignored
sources:
  - name: pipeline
    command: ./bin/crm
    args: [deals]
    keywords: [deal, funnel]
`), 0o644))

		f, err := Load(path)
		require.NoError(t, err)
		require.Len(t, f.Tools, 1)
		assert.Equal(t, "move_card", f.Tools[0].Name)
		assert.Equal(t, []string{"move"}, f.Tools[0].Args)
		require.Len(t, f.Sources, 1)
		assert.Equal(t, []string{"deal", "funnel"}, f.Sources[0].Keywords)
	})

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(dir, "process.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"tools":[{"name":"t","command":"c"}]}`), 0o644))
		f, err := Load(path)
		require.NoError(t, err)
		assert.Len(t, f.Tools, 1)
	})

	t.Run("malformed", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("tools: ["), 0o644))
		_, err := Load(path)
		assert.Error(t, err)
	})
}
