package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aretw0/canopy/internal/presentation/graph"
	"github.com/aretw0/canopy/internal/presentation/tui"
	"github.com/aretw0/canopy/pkg/catalog"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/generate"
	"github.com/aretw0/canopy/pkg/render"
)

// Output formats of render and generate.
const (
	formatAuto     = "auto"
	formatTerminal = "terminal"
	formatHTML     = "html"
	formatJSON     = "json"
	formatMermaid  = "mermaid"
)

var renderCmd = &cobra.Command{
	Use:   "render <tree.json>",
	Short: "Render a UI tree",
	Long: `Interprets a UI tree and prints it. The default format is a terminal preview
when stdout is a terminal and the self-contained HTML document otherwise.
Use - to read the tree from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tree, err := readTree(cmd, args[0])
		if err != nil {
			return err
		}
		var data map[string]any
		if path, _ := cmd.Flags().GetString("context"); path != "" {
			raw, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			if err := json.Unmarshal(raw, &data); err != nil {
				return fmt.Errorf("failed to parse context: %w", err)
			}
		}

		snap := &domain.Snapshot{
			SessionID: "cli",
			Tree:      tree,
			Context:   data,
			Version:   1,
			UpdatedAt: time.Now(),
		}
		format, _ := cmd.Flags().GetString("format")
		interp := render.New(render.WithCatalog(catalog.Default()), render.WithLogger(logger))
		return writeSnapshot(cmd.Context(), cmd.OutOrStdout(), interp, snap, format)
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringP("format", "f", formatAuto, "Output format: auto, terminal, html, json, mermaid")
	renderCmd.Flags().String("context", "", "JSON file embedded next to the tree in the HTML document")
}

func readTree(cmd *cobra.Command, path string) (*domain.UITree, error) {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(cmd.InOrStdin())
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	return generate.ParseTree(string(raw))
}

func writeSnapshot(ctx context.Context, w io.Writer, interp *render.Interpreter, snap *domain.Snapshot, format string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if format == formatAuto {
		format = formatHTML
		if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			format = formatTerminal
		}
	}

	switch format {
	case formatHTML:
		page, err := interp.Document(ctx, snap, domain.HostCapabilities{})
		if err != nil {
			return err
		}
		_, err = w.Write(page)
		return err
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(interp.Render(ctx, snap.Tree))
	case formatMermaid:
		_, err := fmt.Fprint(w, graph.GenerateMermaid(snap.Tree, interp.Catalog(), nil))
		return err
	case formatTerminal:
		width := 0
		if f, ok := w.(*os.File); ok {
			if cols, _, err := term.GetSize(int(f.Fd())); err == nil {
				width = cols
			}
		}
		renderMarkdown, err := tui.NewRenderer(width)
		if err != nil {
			return err
		}
		out, err := renderMarkdown(tui.Markdown(interp.Render(ctx, snap.Tree)))
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(w, out)
		return err
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
