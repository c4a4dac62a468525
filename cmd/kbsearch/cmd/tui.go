package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/kbsearch/internal/ui"
)

type tuiOptions struct {
	repo    string
	editor  string
	noColor bool
}

func newTUICmd(g *globalOptions) *cobra.Command {
	var opts tuiOptions

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Search interactively",
		Long: `Open an interactive search view. Results update as you type; use the
arrow keys to pick one and enter to open it in your editor. Esc quits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), g, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.repo, "repo", "r", "", "Restrict to one repository (name or path)")
	cmd.Flags().StringVar(&opts.editor, "editor", "", "Editor command (default: $VISUAL, $EDITOR, vi)")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colors")

	return cmd
}

func runTUI(parent context.Context, g *globalOptions, opts tuiOptions) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	// The view owns the terminal, so logs go to the file only.
	g.startLogging(cfg, false)

	var repoPath string
	if opts.repo != "" {
		repo, ok := cfg.FindRepository(opts.repo)
		if !ok {
			return fmt.Errorf("unknown repository: %s", opts.repo)
		}
		repoPath = repo.Path
	}

	ctx, stop := signalContext(parent)
	defer stop()

	engine, store := newEngine(cfg)
	defer store.Close()

	go watchConfig(ctx, store)

	return ui.Run(ctx, ui.Config{
		Searcher:       engine,
		RepositoryPath: repoPath,
		Editor:         opts.editor,
		NoColor:        opts.noColor,
	})
}
