// Package search implements kbsearch's multi-repository text search.
//
// A query fans out over every configured repository. Content matches come
// from a single strategy per query (ripgrep when it can be found, otherwise
// a manual scan), filename matches come from a separate walk, and the two
// lists are merged with content matches taking priority.
package search

import (
	"context"
	"strconv"
	"strings"

	"github.com/Aman-CERP/kbsearch/internal/config"
	"github.com/Aman-CERP/kbsearch/internal/exclude"
)

// fileMatchPrefix marks a filename-only match in LineContent.
const fileMatchPrefix = "[File] "

// MatchResult is a single hit.
// Filename matches have LineNumber 1 and LineContent "[File] <name>".
type MatchResult struct {
	RepositoryName string `json:"repositoryName"`
	RepositoryPath string `json:"repositoryPath"`
	FilePath       string `json:"filePath"`
	LineNumber     int    `json:"lineNumber"`
	LineContent    string `json:"lineContent"`
	MatchContext   string `json:"matchContext"`
}

// Key returns the deduplication identity of the result.
func (m MatchResult) Key() string {
	return m.FilePath + ":" + strconv.Itoa(m.LineNumber) + ":" + m.LineContent
}

// IsFileMatch reports whether the result came from a filename match.
func (m MatchResult) IsFileMatch() bool {
	return m.LineNumber == 1 && strings.HasPrefix(m.LineContent, fileMatchPrefix)
}

// Query is a search request.
type Query struct {
	// Term is searched literally and case-insensitively. It is trimmed;
	// an empty term is a no-op.
	Term string `json:"term"`

	// RepositoryPath restricts the search to one configured repository.
	RepositoryPath string `json:"repositoryPath,omitempty"`
}

// Response is the outcome of a search. Results is never nil.
type Response struct {
	Term    string        `json:"term"`
	Results []MatchResult `json:"results"`
}

// ContentSearcher finds lines containing term in one repository.
// Implementations skip unreadable entries and return an error only when
// ctx is done.
type ContentSearcher interface {
	Search(ctx context.Context, term string, repo config.Repository, patterns exclude.Set) ([]MatchResult, error)
}
