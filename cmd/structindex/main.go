// Command structindex builds and serves the structural index described
// by internal/index and internal/query: `build` runs a one-shot index
// and reports counts, `serve` exposes the query surface over MCP on
// stdio, and `query` runs a single operation against a freshly built
// index for scripting and debugging. Grounded on the cobra root/
// subcommand layout used across the pack's CLI tools (mvp-joe-canopy's
// cmd/canopy, EthanGuo-coder-Contextify, dshills-RealityCheck).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var flagRoot string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "structindex",
	Short:         "Structural index and navigation queries for a source repository",
	Long:          "structindex discovers source files, extracts per-file structure, and answers navigation/impact queries without requiring the caller to read source files directly.",
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagRoot, "root", "", "project root to index (default: $PROJECT_ROOT, else the current directory)")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(queryCmd)
}
