package search

import (
	"context"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/kbsearch/internal/config"
	kberrors "github.com/Aman-CERP/kbsearch/internal/errors"
	"github.com/Aman-CERP/kbsearch/internal/exclude"
	"github.com/Aman-CERP/kbsearch/internal/telemetry"
)

// Strategy names the content search strategy used for a query.
type Strategy string

const (
	StrategyRipgrep  Strategy = "ripgrep"
	StrategyFallback Strategy = "fallback"
	StrategyCustom   Strategy = "custom"
)

// ToolProbe locates the ripgrep executable for the given settings.
type ToolProbe func(cfg config.SearchConfig) (path string, ok bool)

// DefaultToolProbe probes RipgrepCandidates.
func DefaultToolProbe(cfg config.SearchConfig) (string, bool) {
	return ProbeRipgrep(RipgrepCandidates(cfg))
}

// Recorder receives one event per finished non-empty search.
type Recorder interface {
	Record(telemetry.QueryEvent)
}

// Engine orchestrates searches across the configured repositories.
// It is safe for concurrent use; overlapping searches are independent.
type Engine struct {
	store     *config.Store
	fileNames ContentSearcher
	fallback  ContentSearcher
	content   ContentSearcher // overrides strategy selection when set
	probe     ToolProbe
	recorder  Recorder

	probeOnce sync.Once
	toolPath  string
	toolOK    bool
}

// Option configures the engine.
type Option func(*Engine)

// WithContentSearcher fixes the content strategy, skipping tool probing.
func WithContentSearcher(cs ContentSearcher) Option {
	return func(e *Engine) {
		e.content = cs
	}
}

// WithFallbackSearcher replaces the searcher used when ripgrep is unavailable.
func WithFallbackSearcher(cs ContentSearcher) Option {
	return func(e *Engine) {
		e.fallback = cs
	}
}

// WithFileNameSearcher replaces the filename matcher.
func WithFileNameSearcher(cs ContentSearcher) Option {
	return func(e *Engine) {
		e.fileNames = cs
	}
}

// WithToolProbe replaces how ripgrep is located.
func WithToolProbe(p ToolProbe) Option {
	return func(e *Engine) {
		e.probe = p
	}
}

// WithRecorder reports every finished search to r.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		e.recorder = r
	}
}

// NewEngine creates an engine reading repositories from store.
// A nil store behaves as an empty configuration.
func NewEngine(store *config.Store, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		fileNames: FileNameMatcher{},
		fallback:  FallbackSearcher{},
		probe:     DefaultToolProbe,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search runs q against the store's current snapshot.
func (e *Engine) Search(ctx context.Context, q Query) (Response, error) {
	var snap config.Snapshot
	if e.store != nil {
		snap = e.store.Snapshot()
	}
	return e.SearchWithSnapshot(ctx, snap, q)
}

// SearchWithSnapshot runs q against snap.
//
// Content matches from every target repository come first, in
// configuration order, followed by filename matches not already present.
// Per-repository failures only reduce the result set; the error is
// non-nil only when ctx is cancelled or the search times out.
func (e *Engine) SearchWithSnapshot(ctx context.Context, snap config.Snapshot, q Query) (Response, error) {
	term := strings.TrimSpace(q.Term)
	if term == "" {
		return Response{Term: "", Results: []MatchResult{}}, nil
	}

	targets := selectTargets(snap.Repositories, q.RepositoryPath)
	if len(targets) == 0 {
		return Response{Term: term, Results: []MatchResult{}}, nil
	}

	searcher, strategy := e.contentSearcher(snap.Search)
	searchID := uuid.NewString()
	start := time.Now()
	slog.Info("search_started",
		slog.String("search_id", searchID),
		slog.String("term", term),
		slog.Int("repositories", len(targets)),
		slog.String("strategy", string(strategy)))

	ctx, cancel := context.WithTimeout(ctx, snap.Search.TimeoutDuration())
	defer cancel()

	content := make([][]MatchResult, len(targets))
	names := make([][]MatchResult, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrencyLimit(snap.Search.MaxConcurrency))
	for i, repo := range targets {
		patterns := snap.ExcludePatternsFor(repo)
		g.Go(func() error {
			r, err := runSearcher(gctx, searcher, term, repo, patterns, searchID)
			content[i] = r
			return err
		})
		g.Go(func() error {
			r, err := runSearcher(gctx, e.fileNames, term, repo, patterns, searchID)
			names[i] = r
			return err
		})
	}
	if err := g.Wait(); err != nil {
		e.record(term, strategy, len(targets), 0, time.Since(start), true)
		slog.Warn("search_aborted",
			slog.String("search_id", searchID),
			slog.String("error", err.Error()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()))
		return Response{}, kberrors.New(kberrors.ErrCodeSearchFailed, "search cancelled", err).
			WithDetail("search_id", searchID)
	}

	results := Merge(flatten(content), flatten(names))
	e.record(term, strategy, len(targets), len(results), time.Since(start), false)
	slog.Info("search_complete",
		slog.String("search_id", searchID),
		slog.Int("results", len(results)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return Response{Term: term, Results: results}, nil
}

// Strategy reports which content strategy the engine will use for cfg.
func (e *Engine) Strategy(cfg config.SearchConfig) Strategy {
	_, s := e.contentSearcher(cfg)
	return s
}

// contentSearcher picks the single content strategy for a query. The tool
// is probed at most once per engine.
func (e *Engine) contentSearcher(cfg config.SearchConfig) (ContentSearcher, Strategy) {
	if e.content != nil {
		return e.content, StrategyCustom
	}
	if cfg.DisableTool {
		return e.fallback, StrategyFallback
	}

	e.probeOnce.Do(func() {
		if e.probe != nil {
			e.toolPath, e.toolOK = e.probe(cfg)
		}
		if e.toolOK {
			slog.Debug("ripgrep found", slog.String("path", e.toolPath))
		} else {
			slog.Info("ripgrep not found, using fallback scanner")
		}
	})
	if !e.toolOK {
		return e.fallback, StrategyFallback
	}
	return NewRipgrepSearcher(e.toolPath, cfg.ToolTimeoutDuration()), StrategyRipgrep
}

func (e *Engine) record(term string, strategy Strategy, repos, results int, latency time.Duration, cancelled bool) {
	if e.recorder == nil {
		return
	}
	e.recorder.Record(telemetry.QueryEvent{
		Term:         term,
		Strategy:     string(strategy),
		Repositories: repos,
		ResultCount:  results,
		Latency:      latency,
		Cancelled:    cancelled,
	})
}

// runSearcher runs one per-repository search. Failures other than context
// cancellation are logged and yield no results.
func runSearcher(ctx context.Context, s ContentSearcher, term string, repo config.Repository, patterns exclude.Set, searchID string) ([]MatchResult, error) {
	results, err := s.Search(ctx, term, repo, patterns)
	if err == nil {
		return results, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	slog.Warn("repository search failed",
		slog.String("search_id", searchID),
		slog.String("repository", repo.Name),
		slog.String("error", err.Error()))
	return nil, nil
}

// selectTargets narrows repos to the one at path, when path is set.
func selectTargets(repos []config.Repository, path string) []config.Repository {
	if path == "" {
		return repos
	}
	want := filepath.Clean(path)
	for _, repo := range repos {
		if filepath.Clean(repo.Path) == want {
			return []config.Repository{repo}
		}
	}
	return nil
}

func concurrencyLimit(n int) int {
	if n > 0 {
		return n
	}
	return runtime.NumCPU()
}

func flatten(groups [][]MatchResult) []MatchResult {
	var out []MatchResult
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
