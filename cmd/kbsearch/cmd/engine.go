package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Aman-CERP/kbsearch/internal/config"
	"github.com/Aman-CERP/kbsearch/internal/search"
	"github.com/Aman-CERP/kbsearch/internal/telemetry"
	"github.com/Aman-CERP/kbsearch/internal/watcher"
)

// newEngine builds a search engine over a store holding cfg.
func newEngine(cfg *config.Config, opts ...search.Option) (*search.Engine, *config.Store) {
	store := config.NewStore(cfg)
	return search.NewEngine(store, opts...), store
}

// logSearchStats writes a summary of m, typically when a server stops.
func logSearchStats(m *telemetry.Metrics) {
	snap := m.Snapshot()
	slog.Info("search_stats",
		slog.Int64("total", snap.TotalQueries),
		slog.Int64("zero_results", snap.ZeroResultCount),
		slog.Int64("cancelled", snap.CancelledCount),
		slog.Int64("repeats", snap.RepeatCount),
		slog.Duration("uptime", time.Since(snap.Since)))
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// watchConfig reloads store whenever its file changes, until ctx is done.
// Long-running commands run it in the background.
func watchConfig(ctx context.Context, store *config.Store) {
	path := store.Config().Path()
	if path == "" {
		return
	}
	w, err := watcher.NewConfigWatcher(path, store, watcher.DefaultOptions())
	if err != nil {
		slog.Warn("config watcher unavailable", slog.String("error", err.Error()))
		return
	}
	if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Warn("config watcher stopped", slog.String("error", err.Error()))
	}
}
