package search

import (
	"context"
	"strings"

	"github.com/Aman-CERP/kbsearch/internal/config"
	"github.com/Aman-CERP/kbsearch/internal/exclude"
	"github.com/Aman-CERP/kbsearch/internal/scanner"
)

// FileNameMatcher reports files whose base name contains the term,
// ignoring case. File contents are never read.
type FileNameMatcher struct{}

// Search walks repo and returns one result per matching file.
func (FileNameMatcher) Search(ctx context.Context, term string, repo config.Repository, patterns exclude.Set) ([]MatchResult, error) {
	needle := strings.ToLower(term)
	var results []MatchResult

	err := scanner.Walk(ctx, repo.Path, patterns, func(f scanner.File) error {
		if !strings.Contains(strings.ToLower(f.Name), needle) {
			return nil
		}
		results = append(results, MatchResult{
			RepositoryName: repo.Name,
			RepositoryPath: repo.Path,
			FilePath:       f.AbsPath,
			LineNumber:     1,
			LineContent:    fileMatchPrefix + f.Name,
			MatchContext:   f.RelPath,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}
