package ui

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	kberrors "github.com/Aman-CERP/kbsearch/internal/errors"
	"github.com/Aman-CERP/kbsearch/internal/opener"
	"github.com/Aman-CERP/kbsearch/internal/search"
)

// Message types for bubbletea
type debounceMsg struct {
	seq  int
	term string
}

type resultsMsg struct {
	seq  int
	resp search.Response
	err  error
}

type openedMsg struct{ err error }

// model is the bubbletea model for the search view.
type model struct {
	ctx      context.Context
	searcher Searcher
	repoPath string
	editor   string
	debounce time.Duration

	input   textinput.Model
	spinner spinner.Model
	styles  Styles

	// seq identifies the latest query; results for older ones are dropped.
	seq       int
	searching bool
	results   []search.MatchResult
	term      string
	cursor    int
	offset    int
	err       error
	status    string

	width  int
	height int
}

func newModel(ctx context.Context, cfg Config) *model {
	ti := textinput.New()
	ti.Placeholder = "search your repositories"
	ti.Prompt = "› "
	ti.CharLimit = 256
	ti.Focus()

	styles := GetStyles(cfg.NoColor)
	ti.PromptStyle = styles.Prompt

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Prompt

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &model{
		ctx:      ctx,
		searcher: cfg.Searcher,
		repoPath: cfg.RepositoryPath,
		editor:   cfg.Editor,
		debounce: debounce,
		input:    ti,
		spinner:  s,
		styles:   styles,
		width:    80,
		height:   24,
	}
}

// Init implements tea.Model.
func (m *model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = msg.Width - 4
		m.clampOffset()
		return m, nil

	case debounceMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.searching = true
		return m, tea.Batch(m.searchCmd(msg.seq, msg.term), m.spinner.Tick)

	case resultsMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.searching = false
		m.err = msg.err
		if msg.err == nil {
			m.results = msg.resp.Results
			m.term = msg.resp.Term
			m.cursor, m.offset = 0, 0
		}
		return m, nil

	case openedMsg:
		m.err = msg.err
		return m, nil

	case spinner.TickMsg:
		if !m.searching {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "ctrl+p":
		m.move(-1)
		return m, nil
	case "down", "ctrl+n":
		m.move(1)
		return m, nil
	case "pgup":
		m.move(-m.visibleRows())
		return m, nil
	case "pgdown":
		m.move(m.visibleRows())
		return m, nil
	case "enter":
		return m, m.openSelected()
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() == before {
		return m, cmd
	}
	return m, tea.Batch(cmd, m.scheduleSearch(m.input.Value()))
}

// scheduleSearch starts the debounce timer for term. A later keystroke
// bumps seq and invalidates this timer.
func (m *model) scheduleSearch(term string) tea.Cmd {
	m.seq++
	seq := m.seq
	if strings.TrimSpace(term) == "" {
		m.searching = false
		m.results = nil
		m.term = ""
		m.err = nil
		m.cursor, m.offset = 0, 0
		return nil
	}
	return tea.Tick(m.debounce, func(time.Time) tea.Msg {
		return debounceMsg{seq: seq, term: term}
	})
}

func (m *model) searchCmd(seq int, term string) tea.Cmd {
	ctx := m.ctx
	searcher := m.searcher
	q := search.Query{Term: term, RepositoryPath: m.repoPath}
	return func() tea.Msg {
		resp, err := searcher.Search(ctx, q)
		return resultsMsg{seq: seq, resp: resp, err: err}
	}
}

func (m *model) openSelected() tea.Cmd {
	r, ok := m.selected()
	if !ok {
		return nil
	}
	c := &editorCommand{ctx: m.ctx, opener: opener.EditorOpener{Editor: m.editor}, result: r}
	return tea.Exec(c, func(err error) tea.Msg {
		return openedMsg{err: err}
	})
}

func (m *model) selected() (search.MatchResult, bool) {
	if m.cursor < 0 || m.cursor >= len(m.results) {
		return search.MatchResult{}, false
	}
	return m.results[m.cursor], true
}

func (m *model) move(delta int) {
	if len(m.results) == 0 {
		return
	}
	m.cursor = max(0, min(len(m.results)-1, m.cursor+delta))
	m.clampOffset()
}

func (m *model) clampOffset() {
	rows := m.visibleRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}
	m.offset = max(0, m.offset)
}

// visibleRows is the result rows left after header, input, divider and
// status line.
func (m *model) visibleRows() int {
	return max(1, m.height-5)
}

// View implements tea.Model.
func (m *model) View() string {
	width := max(40, m.width)

	var b strings.Builder
	b.WriteString(m.styles.Header.Render("kbsearch"))
	if m.repoPath != "" {
		b.WriteString(m.styles.Dim.Render("  " + m.repoPath))
	}
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.styles.Border.Render(strings.Repeat("─", width)))
	b.WriteString("\n")

	highlight := termPattern(m.term)
	end := min(len(m.results), m.offset+m.visibleRows())
	for i := m.offset; i < end; i++ {
		b.WriteString(m.renderRow(m.results[i], i == m.cursor, width, highlight))
		b.WriteString("\n")
	}

	b.WriteString(m.renderStatus())
	return b.String()
}

func (m *model) renderRow(r search.MatchResult, selected bool, width int, highlight *regexp.Regexp) string {
	rel, err := filepath.Rel(r.RepositoryPath, r.FilePath)
	if err != nil {
		rel = r.FilePath
	}
	location := rel
	if !r.IsFileMatch() {
		location = fmt.Sprintf("%s:%d", rel, r.LineNumber)
	}

	prefix := r.RepositoryName + " " + location + "  "
	content := truncate(r.LineContent, width-lipgloss.Width(prefix)-2)

	if selected {
		return m.styles.Selected.Render(truncate("▸ "+prefix+content, width))
	}

	line := m.styles.Repo.Render(r.RepositoryName) + " " + m.styles.File.Render(location) + "  "
	if highlight != nil {
		content = highlight.ReplaceAllStringFunc(content, func(s string) string {
			return m.styles.Match.Render(s)
		})
	}
	return "  " + line + content
}

func (m *model) renderStatus() string {
	switch {
	case m.err != nil:
		return m.styles.Error.Render("✗ " + errorText(m.err))
	case m.searching:
		return m.spinner.View() + m.styles.Label.Render(" searching…")
	case m.term == "":
		return m.styles.Dim.Render("type to search  •  esc to quit")
	case len(m.results) == 0:
		return m.styles.Label.Render(fmt.Sprintf("no results for %q", m.term))
	default:
		return m.styles.Label.Render(fmt.Sprintf("%d/%d  •  enter to open  •  esc to quit", m.cursor+1, len(m.results)))
	}
}

func errorText(err error) string {
	if msg := kberrors.FormatForCLI(err); msg != "" {
		return strings.SplitN(msg, "\n", 2)[0]
	}
	return err.Error()
}

func termPattern(term string) *regexp.Regexp {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil
	}
	return regexp.MustCompile("(?i)" + regexp.QuoteMeta(term))
}

// truncate shortens s to at most n terminal cells, marking the cut with an
// ellipsis. Wide runes count as two cells.
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	return runewidth.Truncate(s, n, "…")
}
