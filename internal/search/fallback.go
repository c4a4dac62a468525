package search

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/Aman-CERP/kbsearch/internal/config"
	"github.com/Aman-CERP/kbsearch/internal/exclude"
	"github.com/Aman-CERP/kbsearch/internal/scanner"
)

// FallbackSearcher scans file contents directly. It is used when ripgrep
// is not available.
type FallbackSearcher struct{}

// Search walks repo and returns every line containing term, ignoring case.
// Denylisted, unreadable, binary and non-UTF-8 files are skipped.
func (FallbackSearcher) Search(ctx context.Context, term string, repo config.Repository, patterns exclude.Set) ([]MatchResult, error) {
	re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(term))
	if err != nil {
		return nil, err
	}

	var results []MatchResult
	err = scanner.Walk(ctx, repo.Path, patterns, func(f scanner.File) error {
		if !scanner.IsLikelyText(f.Name) {
			return nil
		}
		data, ok := scanner.ReadText(f.AbsPath)
		if !ok || !utf8.Valid(data) {
			return nil
		}
		results = append(results, matchLines(re, string(data), repo, f.AbsPath)...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// matchLines returns a result per line of content that re matches.
func matchLines(re *regexp.Regexp, content string, repo config.Repository, path string) []MatchResult {
	var results []MatchResult
	for i, line := range strings.Split(content, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if !re.MatchString(line) {
			continue
		}
		trimmed := strings.TrimSpace(line)
		results = append(results, MatchResult{
			RepositoryName: repo.Name,
			RepositoryPath: repo.Path,
			FilePath:       path,
			LineNumber:     i + 1,
			LineContent:    trimmed,
			MatchContext:   trimmed,
		})
	}
	return results
}
