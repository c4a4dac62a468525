// Package ui provides the interactive terminal search view.
package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Aman-CERP/kbsearch/internal/opener"
	"github.com/Aman-CERP/kbsearch/internal/output"
	"github.com/Aman-CERP/kbsearch/internal/search"
)

// DefaultDebounce is the pause after the last keystroke before a search runs.
const DefaultDebounce = 250 * time.Millisecond

// Searcher runs a query.
type Searcher interface {
	Search(ctx context.Context, q search.Query) (search.Response, error)
}

// Config configures the search view.
type Config struct {
	Searcher Searcher

	// RepositoryPath restricts searches to one repository when set.
	RepositoryPath string

	// Editor overrides $VISUAL/$EDITOR for opening results.
	Editor string

	Input    io.Reader
	Output   io.Writer
	NoColor  bool
	Debounce time.Duration
}

// Run starts the search view and blocks until the user quits or ctx is
// cancelled.
func Run(ctx context.Context, cfg Config) error {
	if cfg.Searcher == nil {
		return fmt.Errorf("ui: searcher is required")
	}
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	if cfg.Input == nil {
		cfg.Input = os.Stdin
	}
	if !output.IsTTY(cfg.Output) {
		return fmt.Errorf("output is not a TTY")
	}
	if !output.ColorEnabled(cfg.Output) {
		cfg.NoColor = true
	}

	m := newModel(ctx, cfg)
	p := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithInput(cfg.Input),
		tea.WithOutput(cfg.Output),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

// editorCommand runs the editor as a tea.ExecCommand so the program
// releases the terminal while the editor owns it.
type editorCommand struct {
	ctx    context.Context
	opener opener.EditorOpener
	result search.MatchResult
}

func (c *editorCommand) Run() error {
	return c.opener.Open(c.ctx, c.result)
}

func (c *editorCommand) SetStdin(r io.Reader)  { c.opener.Stdin = r }
func (c *editorCommand) SetStdout(w io.Writer) { c.opener.Stdout = w }
func (c *editorCommand) SetStderr(w io.Writer) { c.opener.Stderr = w }
