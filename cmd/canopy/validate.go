package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/canopy/internal/presentation/graph"
	"github.com/aretw0/canopy/internal/validator"
	"github.com/aretw0/canopy/pkg/catalog"
)

var validateCmd = &cobra.Command{
	Use:   "validate <tree.json>",
	Short: "Check a UI tree for structural problems",
	Long: `Reports dangling children, unknown component types, cycles and other issues.
Issues never stop rendering; this command exits non-zero so scripts can catch them.
Use - to read the tree from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tree, err := readTree(cmd, args[0])
		if err != nil {
			return err
		}
		c := catalog.Default()
		issues := validator.Validate(tree,
			validator.WithCatalog(c),
			validator.WithMaxNodes(cfg.Limits.MaxNodes),
		)

		out := cmd.OutOrStdout()
		if asGraph, _ := cmd.Flags().GetBool("graph"); asGraph {
			fmt.Fprint(out, graph.GenerateMermaid(tree, c, &graph.Overlay{Issues: issues}))
		} else {
			for _, issue := range issues {
				fmt.Fprintln(out, issue)
			}
		}

		if err := validator.Report(issues); err != nil {
			return err
		}
		if asGraph, _ := cmd.Flags().GetBool("graph"); !asGraph {
			fmt.Fprintln(out, "Tree is valid! ✅")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("graph", false, "Print the tree as a Mermaid flowchart with issues highlighted")
}
