package mcp

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Aman-CERP/kbsearch/internal/search"
)

// Result limits for the search tool.
const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// ToSearchOutput converts a response, keeping at most limit results.
func ToSearchOutput(resp search.Response, limit int) SearchOutput {
	out := SearchOutput{
		Term:    resp.Term,
		Total:   len(resp.Results),
		Results: make([]SearchResultOutput, 0, min(limit, len(resp.Results))),
	}
	for i, r := range resp.Results {
		if i >= limit {
			out.Truncated = true
			break
		}
		out.Results = append(out.Results, ToSearchResultOutput(r))
	}
	return out
}

// ToSearchResultOutput converts one match.
func ToSearchResultOutput(r search.MatchResult) SearchResultOutput {
	rel, err := filepath.Rel(r.RepositoryPath, r.FilePath)
	if err != nil {
		rel = r.FilePath
	}
	return SearchResultOutput{
		Repository:   r.RepositoryName,
		FilePath:     r.FilePath,
		RelativePath: filepath.ToSlash(rel),
		Line:         r.LineNumber,
		Content:      r.LineContent,
		FileNameHit:  r.IsFileMatch(),
	}
}

// FormatSearchResults renders search output as markdown, one section per
// file in order of first appearance.
func FormatSearchResults(out SearchOutput) string {
	var sb strings.Builder

	if len(out.Results) == 0 {
		fmt.Fprintf(&sb, "No results found for: %q\n", out.Term)
		return sb.String()
	}

	fmt.Fprintf(&sb, "## Results for %q\n\n", out.Term)
	if out.Truncated {
		fmt.Fprintf(&sb, "Showing %d of %d matches.\n\n", len(out.Results), out.Total)
	} else {
		fmt.Fprintf(&sb, "%d matches.\n\n", out.Total)
	}

	var order []string
	byFile := map[string][]SearchResultOutput{}
	for _, r := range out.Results {
		key := r.Repository + "/" + r.RelativePath
		if _, seen := byFile[key]; !seen {
			order = append(order, key)
		}
		byFile[key] = append(byFile[key], r)
	}

	for _, key := range order {
		fmt.Fprintf(&sb, "### %s\n", key)
		for _, r := range byFile[key] {
			if r.FileNameHit {
				sb.WriteString("- file name matches\n")
				continue
			}
			fmt.Fprintf(&sb, "- L%d: `%s`\n", r.Line, strings.ReplaceAll(r.Content, "`", "'"))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// FormatRepositories renders the repository list as markdown.
func FormatRepositories(out ListRepositoriesOutput) string {
	if len(out.Repositories) == 0 {
		return "No repositories configured. Add one with `kbsearch repo add <path>`.\n"
	}

	var sb strings.Builder
	sb.WriteString("## Repositories\n\n")
	for _, r := range out.Repositories {
		status := ""
		if !r.Available {
			status = " (missing)"
		}
		fmt.Fprintf(&sb, "- **%s**%s: `%s`\n", r.Name, status, r.Path)
		if len(r.ExcludePatterns) > 0 {
			fmt.Fprintf(&sb, "  - excludes: %s\n", strings.Join(r.ExcludePatterns, ", "))
		}
	}
	return sb.String()
}

// FormatDirectory renders a directory listing as markdown.
func FormatDirectory(out ListDirectoryOutput) string {
	var sb strings.Builder
	dir := out.Path
	if dir == "" {
		dir = "."
	}
	fmt.Fprintf(&sb, "## %s/%s\n\n", out.Repository, dir)
	if len(out.Entries) == 0 {
		sb.WriteString("(empty)\n")
		return sb.String()
	}
	for _, e := range out.Entries {
		if e.IsDir {
			fmt.Fprintf(&sb, "- %s/\n", e.Name)
		} else {
			fmt.Fprintf(&sb, "- %s\n", e.Name)
		}
	}
	return sb.String()
}

// clampLimit ensures limit is within bounds.
func clampLimit(limit, defaultVal, lo, hi int) int {
	if limit <= 0 {
		return defaultVal
	}
	if limit < lo {
		return lo
	}
	if limit > hi {
		return hi
	}
	return limit
}
