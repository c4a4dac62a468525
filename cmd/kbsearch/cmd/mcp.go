package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/kbsearch/internal/mcp"
	"github.com/Aman-CERP/kbsearch/internal/search"
	"github.com/Aman-CERP/kbsearch/internal/telemetry"
)

func newMCPCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run as an MCP server over stdio",
		Long: `Expose kbsearch to AI assistants through the Model Context Protocol.

Tools: search, list_repositories, list_directory, read_file and
search_stats.

Example client configuration:
  {"mcpServers": {"kbsearch": {"command": "kbsearch", "args": ["mcp"]}}}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMCP(cmd.Context(), g)
		},
	}
}

func runMCP(parent context.Context, g *globalOptions) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	if err := g.startStdioLogging(cfg); err != nil {
		return err
	}

	ctx, stop := signalContext(parent)
	defer stop()

	metrics := telemetry.New()
	engine, store := newEngine(cfg, search.WithRecorder(metrics))
	defer store.Close()
	defer logSearchStats(metrics)

	server, err := mcp.NewServer(engine, store, mcp.WithMetrics(metrics))
	if err != nil {
		return err
	}

	eg, ctx := errgroup.WithContext(ctx)
	watchCtx, stopWatch := context.WithCancel(ctx)
	eg.Go(func() error {
		watchConfig(watchCtx, store)
		return nil
	})
	eg.Go(func() error {
		defer stopWatch()
		return server.Serve(ctx)
	})
	return eg.Wait()
}
