package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/kestrel-dev/structindex/internal/index"
	"github.com/kestrel-dev/structindex/internal/mcpserver"
	"github.com/kestrel-dev/structindex/internal/query"
)

var queryCmd = &cobra.Command{
	Use:   "query <operation> [json-args]",
	Short: "Build a fresh index and run one query operation, for scripting",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runQuery,
}

func runQuery(cmd *cobra.Command, args []string) error {
	op := args[0]
	var argsJSON json.RawMessage
	if len(args) > 1 {
		argsJSON = json.RawMessage(args[1])
	}

	root, err := resolveRoot()
	if err != nil {
		return err
	}
	builder, err := newBuilder(root)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	pi, err := builder.Build(ctx)
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}
	idx := index.New(root)
	idx.Replace(pi)

	engine := query.New(idx, builder)
	srv := mcpserver.NewServer(engine)

	res, err := srv.CallTool(ctx, op, argsJSON)
	if err != nil {
		return fmt.Errorf("query %s: %w", op, err)
	}

	out := os.Stdout
	if res.IsError {
		out = os.Stderr
	}
	for _, c := range res.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			fmt.Fprintln(out, tc.Text)
		}
	}

	if res.IsError {
		os.Exit(1)
	}
	return nil
}
