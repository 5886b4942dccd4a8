// commands.go contains the cobra command definitions and their flag
// configurations. Each command builder wires a command to its handler.
package main

import (
	"github.com/spf13/cobra"
)

func buildRenderCmd() *cobra.Command {
	var (
		inputPath string
		strict    bool
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render an NDJSON message stream in one batch",
		Long: `Parse a complete NDJSON stream, apply every message in order, and print
each renderable surface's payload as JSON keyed by surface id.`,
		Example: `  # Render from a file
  loom render --input surfaces.ndjson

  # Render from stdin
  cat surfaces.ndjson | loom render`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.Context(), inputPath, strict)
		},
	}
	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "NDJSON input file (defaults to stdin)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Report malformed lines instead of dropping them")
	return cmd
}

func buildServeCmd() *cobra.Command {
	var (
		configPath string
		debug      bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Consume a stream on stdin and deliver surfaces to Slack",
		Long: `Read NDJSON messages from stdin, render each surface as it becomes
renderable, post payloads to the configured Slack channel, and route button
clicks back through the interaction bridge.

Graceful shutdown is handled on SIGINT/SIGTERM signals.`,
		Example: `  producer | loom serve --config loom.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath, debug)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "loom.yaml", "Path to configuration file")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	return cmd
}

func buildTailCmd() *cobra.Command {
	var (
		filePath string
		debug    bool
	)
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Follow a growing NDJSON file and print rendered payloads",
		Example: `  loom tail --file /tmp/surfaces.ndjson`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTail(cmd.Context(), filePath, debug)
		},
	}
	cmd.Flags().StringVarP(&filePath, "file", "f", "", "NDJSON file to follow")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func buildConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "schema",
		Short: "Print the configuration JSON schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSchema()
		},
	})
	return cmd
}
