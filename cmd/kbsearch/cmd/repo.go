package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/kbsearch/internal/config"
	kberrors "github.com/Aman-CERP/kbsearch/internal/errors"
	"github.com/Aman-CERP/kbsearch/internal/git"
	"github.com/Aman-CERP/kbsearch/internal/output"
)

func newRepoCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repo",
		Short: "Manage the searched repositories",
	}

	cmd.AddCommand(newRepoListCmd(g))
	cmd.AddCommand(newRepoAddCmd(g))
	cmd.AddCommand(newRepoRemoveCmd(g))
	cmd.AddCommand(newRepoCloneCmd(g))
	return cmd
}

func newRepoListCmd(g *globalOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List configured repositories",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}

			out := output.New(cmd.OutOrStdout())
			if jsonOutput {
				return out.JSON(cfg.Repositories)
			}
			if len(cfg.Repositories) == 0 {
				out.Status("", "No repositories configured. Add one with 'kbsearch repo add <path>'.")
				return nil
			}
			for _, repo := range cfg.Repositories {
				if _, err := os.Stat(repo.Path); err != nil {
					out.Warningf("%s  %s (missing)", repo.Name, repo.Path)
					continue
				}
				out.Statusf("📁", "%s  %s", repo.Name, repo.Path)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newRepoAddCmd(g *globalOptions) *cobra.Command {
	var name string
	var excludes []string

	cmd := &cobra.Command{
		Use:   "add <path>",
		Short: "Add a repository",
		Long: `Add a directory to the searched repositories. The name defaults to the
directory's base name.

Examples:
  kbsearch repo add ~/notes
  kbsearch repo add ./docs --name handbook --exclude drafts --exclude "*.tmp"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}

			abs, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			if name == "" {
				name = filepath.Base(abs)
			}

			repo := config.Repository{Name: name, Path: abs, ExcludePatterns: excludes}
			if err := cfg.AddRepository(repo); err != nil {
				return err
			}
			if err := cfg.Save(); err != nil {
				return err
			}

			output.New(cmd.OutOrStdout()).Successf("Added %s (%s)", name, abs)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Repository name")
	cmd.Flags().StringArrayVarP(&excludes, "exclude", "e", nil, "Exclusion pattern for this repository (repeatable)")
	return cmd
}

func newRepoRemoveCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <name|path>",
		Aliases: []string{"rm"},
		Short:   "Remove a repository",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}

			target := args[0]
			if _, ok := cfg.FindRepository(target); !ok {
				if abs, err := filepath.Abs(target); err == nil {
					if _, ok := cfg.FindRepository(abs); ok {
						target = abs
					}
				}
			}
			if err := cfg.RemoveRepository(target); err != nil {
				return err
			}
			if err := cfg.Save(); err != nil {
				return err
			}

			output.New(cmd.OutOrStdout()).Successf("Removed %s", args[0])
			return nil
		},
	}
}

func newRepoCloneCmd(g *globalOptions) *cobra.Command {
	var name string
	var gitPath string
	var excludes []string

	cmd := &cobra.Command{
		Use:   "clone <url> <path>",
		Short: "Clone a git repository and add it",
		Long: `Clone a git repository into path, which must not exist yet, then add
it to the searched repositories. The name defaults to the directory's
base name.

Examples:
  kbsearch repo clone https://github.com/org/handbook.git ~/kb/handbook
  kbsearch repo clone git@host:team/notes.git ./notes --name team-notes`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}

			abs, err := filepath.Abs(args[1])
			if err != nil {
				return err
			}
			if name == "" {
				name = filepath.Base(abs)
			}
			// Check the entry first so a clone is never left unregistered.
			if _, ok := cfg.FindRepository(name); ok {
				return kberrors.New(kberrors.ErrCodeDuplicateRepository,
					fmt.Sprintf("repository already exists: %s", name), nil).
					WithSuggestion("pick another name with --name")
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			out := output.New(cmd.OutOrStdout())
			out.Statusf("⬇️", "Cloning %s into %s", args[0], abs)
			client := &git.Client{Path: gitPath}
			if err := client.Clone(ctx, args[0], abs); err != nil {
				return err
			}
			if !client.IsRepo(ctx, abs) {
				out.Warningf("%s does not look like a git work tree", abs)
			}

			repo := config.Repository{Name: name, Path: abs, ExcludePatterns: excludes}
			if err := cfg.AddRepository(repo); err != nil {
				return err
			}
			if err := cfg.Save(); err != nil {
				return err
			}

			out.Successf("Added %s (%s)", name, abs)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Repository name")
	cmd.Flags().StringVar(&gitPath, "git", "", "git executable (default: git on PATH)")
	cmd.Flags().StringArrayVarP(&excludes, "exclude", "e", nil, "Exclusion pattern for this repository (repeatable)")
	return cmd
}
