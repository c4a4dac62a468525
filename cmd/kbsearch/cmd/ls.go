package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/kbsearch/internal/browser"
	"github.com/Aman-CERP/kbsearch/internal/config"
	"github.com/Aman-CERP/kbsearch/internal/output"
)

func newLsCmd(g *globalOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "ls <repo> [dir]",
		Short: "List a directory inside a repository",
		Long: `List the visible entries of a repository directory, folders first.
Entries matching the exclusion patterns are hidden.

Examples:
  kbsearch ls notes
  kbsearch ls notes projects/2024`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			repo, ok := cfg.FindRepository(args[0])
			if !ok {
				return config.UnknownRepositoryError(args[0], cfg.Repositories,
					"run 'kbsearch repo list' to see configured repositories")
			}

			dir := ""
			if len(args) == 2 {
				dir = args[1]
			}
			items, err := browser.List(repo, dir, cfg.ExcludePatternsFor(repo))
			if err != nil {
				return err
			}

			out := output.New(cmd.OutOrStdout())
			if jsonOutput {
				return out.JSON(items)
			}
			out.Listing(items)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
