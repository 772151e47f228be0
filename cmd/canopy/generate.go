package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate <prompt>",
	Short: "Ask the language model for a dashboard",
	Long: `Builds a UI tree from a natural language request, using the data sources
declared in canopy.yaml, and prints it like render. Requires OPENAI_API_KEY.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := buildEngine(cfg)
		if err != nil {
			return err
		}
		defer rt.close()

		hints, _ := cmd.Flags().GetStringSlice("data")
		res, snap, err := rt.engine.Generate(cmd.Context(), "cli", strings.Join(args, " "), hints...)
		if err != nil {
			return err
		}
		for _, issue := range res.Issues {
			logger.Warn("generated tree issue", "node_id", issue.NodeID, "code", issue.Code, "reason", issue.Reason)
		}
		if len(res.Sources) > 0 {
			logger.Info("data sources used", "sources", res.Sources)
		}

		format, _ := cmd.Flags().GetString("format")
		if format == formatJSON {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), res.Raw)
			return err
		}
		return writeSnapshot(cmd.Context(), cmd.OutOrStdout(), rt.engine.Interpreter(), snap, format)
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringSlice("data", nil, "Data sources to use instead of keyword matching")
	generateCmd.Flags().StringP("format", "f", formatAuto, "Output format: auto, terminal, html, json, mermaid")
}
