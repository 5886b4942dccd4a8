// Package main provides the CLI entry point for loom, the incremental
// surface-rendering engine.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

func main() {
	root := buildRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "loom",
		Short: "Incremental surface-rendering engine",
		Long: `Loom consumes a stream of newline-delimited JSON update messages,
incrementally assembles addressable surfaces from them, renders each surface
to a Slack payload once it becomes renderable, and routes user interactions
on delivered payloads back to action handlers.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		buildRenderCmd(),
		buildServeCmd(),
		buildTailCmd(),
		buildConfigCmd(),
		buildVersionCmd(),
	)
	return root
}

func buildVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the loom version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("loom", version)
		},
	}
}
