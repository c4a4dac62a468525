// Package output provides consistent CLI output: status lines, search
// results grouped by repository and file, directory listings and JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/Aman-CERP/kbsearch/internal/browser"
	"github.com/Aman-CERP/kbsearch/internal/search"
)

// Writer provides formatted output for the CLI.
type Writer struct {
	out    io.Writer
	color  bool
	styles styles
}

type styles struct {
	repo  lipgloss.Style
	file  lipgloss.Style
	line  lipgloss.Style
	match lipgloss.Style
	dim   lipgloss.Style
	dir   lipgloss.Style
}

// New creates a Writer. Color is used only when out is a terminal and
// NO_COLOR is unset.
func New(out io.Writer) *Writer {
	return NewWithColor(out, ColorEnabled(out))
}

// NewWithColor creates a Writer with color forced on or off.
func NewWithColor(out io.Writer, color bool) *Writer {
	w := &Writer{out: out, color: color}
	if color {
		w.styles = styles{
			repo:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("154")),
			file:  lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
			line:  lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
			match: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220")),
			dim:   lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
			dir:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		}
	}
	return w
}

// Status prints a status message with an icon.
// Errors from writing are intentionally ignored for console output.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
	}
}

// Statusf prints a formatted status message with an icon.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

// Success prints a success message with checkmark.
func (w *Writer) Success(msg string) {
	w.Status("✅", msg)
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	w.Status("⚠️ ", msg)
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints an error message.
func (w *Writer) Error(msg string) {
	w.Status("❌", msg)
}

// Errorf prints a formatted error message.
func (w *Writer) Errorf(format string, args ...any) {
	w.Error(fmt.Sprintf(format, args...))
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}

// JSON writes v as indented JSON.
func (w *Writer) JSON(v any) error {
	enc := json.NewEncoder(w.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Results prints a search response grouped by repository, then by file,
// each in order of first appearance.
func (w *Writer) Results(resp search.Response) {
	if len(resp.Results) == 0 {
		_, _ = fmt.Fprintf(w.out, "No results for %q\n", resp.Term)
		return
	}

	highlight := termPattern(resp.Term)
	for _, repo := range groupResults(resp.Results) {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", w.render(w.styles.repo, repo.name), w.render(w.styles.dim, repo.path))
		for _, file := range repo.files {
			_, _ = fmt.Fprintf(w.out, "  %s\n", w.render(w.styles.file, file.rel))
			for _, r := range file.results {
				if r.IsFileMatch() {
					_, _ = fmt.Fprintf(w.out, "    %s\n", w.render(w.styles.dim, r.LineContent))
					continue
				}
				_, _ = fmt.Fprintf(w.out, "    %s %s\n",
					w.render(w.styles.line, fmt.Sprintf("%d:", r.LineNumber)),
					w.highlight(highlight, r.LineContent))
			}
		}
	}

	noun := "results"
	if len(resp.Results) == 1 {
		noun = "result"
	}
	_, _ = fmt.Fprintf(w.out, "%d %s for %q\n", len(resp.Results), noun, resp.Term)
}

// Listing prints a directory listing, directories marked with a slash.
func (w *Writer) Listing(items []browser.Item) {
	for _, it := range items {
		if it.IsDir() {
			_, _ = fmt.Fprintln(w.out, w.render(w.styles.dir, it.Name+"/"))
			continue
		}
		_, _ = fmt.Fprintln(w.out, it.Name)
	}
}

func (w *Writer) render(s lipgloss.Style, text string) string {
	if !w.color {
		return text
	}
	return s.Render(text)
}

func (w *Writer) highlight(re *regexp.Regexp, text string) string {
	if !w.color || re == nil {
		return text
	}
	return re.ReplaceAllStringFunc(text, func(m string) string {
		return w.styles.match.Render(m)
	})
}

func termPattern(term string) *regexp.Regexp {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil
	}
	return regexp.MustCompile("(?i)" + regexp.QuoteMeta(term))
}

type repoGroup struct {
	name  string
	path  string
	files []*fileGroup
}

type fileGroup struct {
	rel     string
	results []search.MatchResult
}

func groupResults(results []search.MatchResult) []*repoGroup {
	var repos []*repoGroup
	byRepo := map[string]*repoGroup{}
	byFile := map[string]*fileGroup{}

	for _, r := range results {
		repo, ok := byRepo[r.RepositoryPath]
		if !ok {
			repo = &repoGroup{name: r.RepositoryName, path: r.RepositoryPath}
			byRepo[r.RepositoryPath] = repo
			repos = append(repos, repo)
		}
		file, ok := byFile[r.FilePath]
		if !ok {
			rel, err := filepath.Rel(r.RepositoryPath, r.FilePath)
			if err != nil {
				rel = r.FilePath
			}
			file = &fileGroup{rel: rel}
			byFile[r.FilePath] = file
			repo.files = append(repo.files, file)
		}
		file.results = append(file.results, r)
	}
	return repos
}

// ColorEnabled reports whether colored output suits w.
func ColorEnabled(w io.Writer) bool {
	return IsTTY(w) && !DetectNoColor()
}

// IsTTY checks if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// DetectNoColor checks if the NO_COLOR environment variable is set.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}
