package search

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/Aman-CERP/kbsearch/internal/config"
	"github.com/Aman-CERP/kbsearch/internal/exclude"
)

// ripgrepLine is the shape of one line of ripgrep output. The path is
// matched lazily so a path containing ':' still parses.
var ripgrepLine = regexp.MustCompile(`^(.+?):(\d+):(.*)$`)

// RipgrepSearcher runs ripgrep once per repository.
type RipgrepSearcher struct {
	// Path is the rg executable.
	Path string

	// Timeout bounds a single rg process. Zero means no extra bound.
	Timeout time.Duration
}

// NewRipgrepSearcher creates a searcher for the rg executable at path.
func NewRipgrepSearcher(path string, timeout time.Duration) *RipgrepSearcher {
	return &RipgrepSearcher{Path: path, Timeout: timeout}
}

// Search runs rg in repo's root. Exit codes 0 and 1 are both success;
// any other exit status or a spawn failure yields no results for repo.
// The error is non-nil only when ctx is done.
func (s *RipgrepSearcher) Search(ctx context.Context, term string, repo config.Repository, patterns exclude.Set) ([]MatchResult, error) {
	runCtx := ctx
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, s.Path, RipgrepArgs(term, patterns)...)
	cmd.Dir = repo.Path
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) || exitErr.ExitCode() != 1 {
			slog.Warn("ripgrep failed, no results for repository",
				slog.String("repository", repo.Name),
				slog.String("error", err.Error()),
				slog.String("stderr", strings.TrimSpace(stderr.String())),
				slog.Bool("timed_out", runCtx.Err() != nil))
			return nil, nil
		}
	}

	return parseRipgrepOutput(out, repo), nil
}

// RipgrepArgs builds the rg command line for a literal, case-insensitive
// search with one negated glob per exclusion pattern.
func RipgrepArgs(term string, patterns exclude.Set) []string {
	args := []string{
		"-n",
		"-i",
		"--color", "never",
		"--trim",
		"--no-heading",
		"--with-filename",
	}
	for _, p := range patterns {
		args = append(args, "--glob", "!"+p)
	}
	// -e keeps a term starting with '-' from being read as a flag.
	return append(args, "-e", regexp.QuoteMeta(term), ".")
}

// ParseRipgrepLine parses one "path:line:content" line of rg output.
// Malformed lines report false.
func ParseRipgrepLine(line string, repo config.Repository) (MatchResult, bool) {
	m := ripgrepLine.FindStringSubmatch(line)
	if m == nil {
		return MatchResult{}, false
	}
	lineNumber, err := strconv.Atoi(m[2])
	if err != nil || lineNumber < 1 {
		return MatchResult{}, false
	}
	return MatchResult{
		RepositoryName: repo.Name,
		RepositoryPath: repo.Path,
		FilePath:       filepath.Join(repo.Path, filepath.FromSlash(m[1])),
		LineNumber:     lineNumber,
		LineContent:    m[3],
		MatchContext:   m[3],
	}, true
}

func parseRipgrepOutput(out []byte, repo config.Repository) []MatchResult {
	var results []MatchResult
	sc := bufio.NewScanner(bytes.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := strings.TrimSuffix(sc.Text(), "\r")
		if line == "" {
			continue
		}
		if r, ok := ParseRipgrepLine(line, repo); ok {
			results = append(results, r)
		}
	}
	return results
}

// RipgrepCandidates returns the locations probed for rg, in order:
// the configured path, a binary shipped next to the kbsearch executable,
// the bundled copies under the app root, then "rg" on PATH.
func RipgrepCandidates(cfg config.SearchConfig) []string {
	name := "rg"
	if runtime.GOOS == "windows" {
		name = "rg.exe"
	}

	var candidates []string
	if cfg.RipgrepPath != "" {
		candidates = append(candidates, cfg.RipgrepPath)
	}
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), "bin", name))
	}
	if cfg.AppRoot != "" {
		candidates = append(candidates,
			filepath.Join(cfg.AppRoot, "node_modules.asar.unpacked", "@vscode", "ripgrep", "bin", name),
			filepath.Join(cfg.AppRoot, "node_modules", "@vscode", "ripgrep", "bin", name),
		)
	}
	return append(candidates, name)
}

// ProbeRipgrep returns the first usable candidate. Candidates containing a
// path separator must be existing regular files; bare names are looked up
// on PATH.
func ProbeRipgrep(candidates []string) (string, bool) {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if !strings.ContainsRune(c, filepath.Separator) && !strings.ContainsRune(c, '/') {
			if path, err := exec.LookPath(c); err == nil {
				return path, true
			}
			continue
		}
		info, err := os.Stat(c)
		if err == nil && info.Mode().IsRegular() {
			return c, true
		}
	}
	return "", false
}
