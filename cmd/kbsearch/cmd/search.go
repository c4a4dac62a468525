package cmd

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/kbsearch/internal/config"
	kberrors "github.com/Aman-CERP/kbsearch/internal/errors"
	"github.com/Aman-CERP/kbsearch/internal/output"
	"github.com/Aman-CERP/kbsearch/internal/search"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	repo   string
	format string // "text", "json"
}

func newSearchCmd(g *globalOptions) *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <term>",
		Short: "Search all configured repositories",
		Long: `Search every configured repository for a literal term, ignoring case.

Matching lines are listed per repository and file, followed by files
whose name contains the term.

Examples:
  kbsearch search "meeting notes"
  kbsearch search todo --repo work
  kbsearch search deploy --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, g, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.repo, "repo", "r", "", "Restrict to one repository (name or path)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runSearch(cmd *cobra.Command, g *globalOptions, term string, opts searchOptions) error {
	if opts.format != "text" && opts.format != "json" {
		return kberrors.ValidationError(fmt.Sprintf("unknown format %q", opts.format), nil).
			WithSuggestion("use --format text or --format json")
	}

	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	g.startLogging(cfg, true)

	q := search.Query{Term: term}
	if opts.repo != "" {
		repo, ok := cfg.FindRepository(opts.repo)
		if !ok {
			abs, absErr := filepath.Abs(opts.repo)
			if absErr == nil {
				repo, ok = cfg.FindRepository(abs)
			}
		}
		if !ok {
			return config.UnknownRepositoryError(opts.repo, cfg.Repositories,
				"run 'kbsearch repo list' to see configured repositories")
		}
		q.RepositoryPath = repo.Path
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	engine, store := newEngine(cfg)
	defer store.Close()

	resp, err := engine.Search(ctx, q)
	if err != nil {
		slog.Error("search failed", kberrors.LogAttrs(err)...)
		return err
	}

	out := output.New(cmd.OutOrStdout())
	if opts.format == "json" {
		return out.JSON(resp)
	}
	out.Results(resp)
	return nil
}
