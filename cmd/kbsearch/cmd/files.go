package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/kbsearch/internal/browser"
	"github.com/Aman-CERP/kbsearch/internal/config"
	kberrors "github.com/Aman-CERP/kbsearch/internal/errors"
	"github.com/Aman-CERP/kbsearch/internal/files"
	"github.com/Aman-CERP/kbsearch/internal/output"
)

// repoPath is a path argument resolved inside a configured repository.
type repoPath struct {
	cfg  *config.Config
	repo config.Repository
	abs  string
	rel  string // "" for the repository root
}

// resolveRepoPath loads the config and resolves rel inside repository
// name, refusing escapes and excluded paths.
func (o *globalOptions) resolveRepoPath(name, rel string) (*repoPath, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	repo, ok := cfg.FindRepository(name)
	if !ok {
		return nil, config.UnknownRepositoryError(name, cfg.Repositories,
			"run 'kbsearch repo list' to see configured repositories")
	}
	abs, clean, err := browser.Resolve(repo, rel, cfg.ExcludePatternsFor(repo))
	if err != nil {
		return nil, err
	}
	return &repoPath{cfg: cfg, repo: repo, abs: abs, rel: clean}, nil
}

func newNewFileCmd(g *globalOptions) *cobra.Command {
	var empty bool

	cmd := &cobra.Command{
		Use:   "new <repo> <path>",
		Short: "Create a note inside a repository",
		Long: `Create a file inside a repository. The file starts with a markdown
template (title, creation time, summary and details sections) unless
--empty is given. Existing files are never overwritten.

Examples:
  kbsearch new notes meeting.md
  kbsearch new notes projects/plan.md`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := g.resolveRepoPath(args[0], args[1])
			if err != nil {
				return err
			}
			if target.rel == "" {
				return kberrors.ValidationError("a file name is required", nil)
			}

			m := &files.Manager{}
			path, err := m.CreateFile(filepath.Dir(target.abs), filepath.Base(target.abs), !empty)
			if err != nil {
				return err
			}
			output.New(cmd.OutOrStdout()).Successf("Created %s", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&empty, "empty", false, "Create an empty file instead of using the template")
	return cmd
}

func newMkdirCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir <repo> <path>",
		Short: "Create a folder inside a repository",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := g.resolveRepoPath(args[0], args[1])
			if err != nil {
				return err
			}
			if target.rel == "" {
				return kberrors.ValidationError("a folder name is required", nil)
			}

			m := &files.Manager{}
			path, err := m.CreateFolder(filepath.Dir(target.abs), filepath.Base(target.abs))
			if err != nil {
				return err
			}
			output.New(cmd.OutOrStdout()).Successf("Created %s", path)
			return nil
		},
	}
}

func newMvCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mv <repo> <path> <new-name>",
		Short: "Rename a file or folder inside a repository",
		Long: `Rename a file or folder in place. Use "." as the path to rename the
repository root itself; the repository then takes the new name too.

Examples:
  kbsearch mv notes drafts/idea.md plan.md
  kbsearch mv notes . handbook`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := g.resolveRepoPath(args[0], args[1])
			if err != nil {
				return err
			}

			m := &files.Manager{}
			next, err := m.Rename(target.abs, args[2])
			if err != nil {
				return err
			}

			out := output.New(cmd.OutOrStdout())
			if target.rel == "" {
				name, _ := files.ValidateName(args[2])
				if err := target.cfg.RenameRepository(target.repo.Path, name, next); err != nil {
					return err
				}
				if err := target.cfg.Save(); err != nil {
					return err
				}
				out.Successf("Renamed repository %s to %s (%s)", target.repo.Name, name, next)
				return nil
			}
			out.Successf("Renamed %s to %s", target.abs, next)
			return nil
		},
	}
}

func newRmCmd(g *globalOptions) *cobra.Command {
	var permanent bool

	cmd := &cobra.Command{
		Use:   "rm <repo> <path>",
		Short: "Delete a file or folder inside a repository",
		Long: `Delete a file or folder. It is moved to ~/.kbsearch/trash unless
--permanent is given. Repository roots are not deleted; use
'kbsearch repo remove' to stop searching one.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := g.resolveRepoPath(args[0], args[1])
			if err != nil {
				return err
			}
			if target.rel == "" {
				return kberrors.ValidationError("refusing to delete a repository root", nil).
					WithSuggestion("use 'kbsearch repo remove " + target.repo.Name + "'")
			}

			m := &files.Manager{}
			out := output.New(cmd.OutOrStdout())
			if permanent {
				if err := m.Remove(target.abs); err != nil {
					return err
				}
				out.Successf("Deleted %s", target.abs)
				return nil
			}
			moved, err := m.Trash(target.abs)
			if err != nil {
				return err
			}
			out.Successf("Moved %s to %s", target.abs, moved)
			return nil
		},
	}

	cmd.Flags().BoolVar(&permanent, "permanent", false, "Delete instead of moving to the trash")
	return cmd
}
