package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/kestrel-dev/structindex/internal/index"
	"github.com/kestrel-dev/structindex/internal/mcpserver"
	"github.com/kestrel-dev/structindex/internal/query"
	"github.com/kestrel-dev/structindex/internal/snapshot"
)

var serveNoCache bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the structural index over MCP on stdio",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveNoCache, "no-cache", false, "always build fresh instead of loading a prior snapshot")
}

func runServe(cmd *cobra.Command, _ []string) error {
	root, err := resolveRoot()
	if err != nil {
		return err
	}
	builder, err := newBuilder(root)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, err := snapshot.Open(root)
	if err != nil {
		slog.Warn("snapshot.open.failed", "root", root, "err", err)
		store = nil
	} else {
		defer store.Close()
	}

	idx := index.New(root)
	if pi := loadOrBuild(ctx, root, idx, builder, store); pi != nil {
		slog.Info("serve.index.ready", "root", root, "files", len(pi.Files), "symbols", len(pi.Symbols))
	}

	engine := query.New(idx, builder)
	srv := mcpserver.NewServer(engine)

	fmt.Fprintf(os.Stderr, "structindex: serving %d tools over stdio for %s\n", len(srv.ToolNames()), root)

	if err := srv.MCPServer().Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// loadOrBuild installs a snapshot-cached index if one exists and
// --no-cache wasn't given, then builds fresh otherwise. The cache only
// avoids a cold full build; it is never treated as authoritative once
// a fresh build has run.
func loadOrBuild(ctx context.Context, root string, idx *index.Index, builder *index.Builder, store *snapshot.Store) *index.ProjectIndex {
	if store != nil && !serveNoCache {
		if pi, ok, err := store.Load(root); err != nil {
			slog.Warn("snapshot.load.failed", "err", err)
		} else if ok {
			idx.Replace(pi)
			return pi
		}
	}

	pi, err := builder.Build(ctx)
	if err != nil {
		slog.Error("serve.build.failed", "err", err)
		return nil
	}
	idx.Replace(pi)
	if store != nil {
		store.SaveAsync(pi)
	}
	return pi
}
