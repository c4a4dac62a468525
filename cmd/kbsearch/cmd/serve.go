package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/kbsearch/internal/opener"
	"github.com/Aman-CERP/kbsearch/internal/protocol"
	"github.com/Aman-CERP/kbsearch/internal/search"
	"github.com/Aman-CERP/kbsearch/internal/telemetry"
)

type serveOptions struct {
	socket string
	editor string
}

func newServeCmd(g *globalOptions) *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Answer newline-delimited JSON search requests",
		Long: `Run the message server used by editor and desktop front ends.

Each input line is a JSON message such as
  {"type":"search","payload":{"term":"todo"}}
and each search is answered with a searchResults message. Requests run
concurrently. An openResult message opens the result in your editor.

By default the server speaks on stdin/stdout. With --socket it listens
on a unix socket instead and serves each connection independently.

Logs go to ~/.kbsearch/logs/kbsearch.log, never to stdout. The config
file is watched and reloaded on change.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), g, opts)
		},
	}

	cmd.Flags().StringVar(&opts.socket, "socket", "", "Listen on this unix socket instead of stdio")
	cmd.Flags().StringVar(&opts.editor, "editor", "", "Editor command for openResult (default: $VISUAL, $EDITOR, vi)")

	return cmd
}

func runServe(parent context.Context, g *globalOptions, opts serveOptions) error {
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

	// The editor must not touch the protocol streams.
	op := &opener.EditorOpener{Editor: opts.editor}
	server := protocol.NewServer(engine, op, store)

	eg, ctx := errgroup.WithContext(ctx)
	watchCtx, stopWatch := context.WithCancel(ctx)
	eg.Go(func() error {
		watchConfig(watchCtx, store)
		return nil
	})
	eg.Go(func() error {
		defer stopWatch()
		if opts.socket == "" {
			slog.Info("serving on stdio", slog.String("strategy", string(engine.Strategy(cfg.Search))))
			return server.Serve(ctx, os.Stdin, os.Stdout)
		}

		ln, err := protocol.ListenUnix(opts.socket)
		if err != nil {
			return err
		}
		defer func() { _ = os.Remove(opts.socket) }()
		slog.Info("serving on socket", slog.String("socket", opts.socket))
		return server.ServeListener(ctx, ln)
	})

	err = eg.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
