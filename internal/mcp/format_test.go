package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/kbsearch/internal/search"
)

func formatFixture() search.Response {
	return search.Response{
		Term: "hello",
		Results: []search.MatchResult{
			{RepositoryName: "notes", RepositoryPath: "/kb/notes", FilePath: "/kb/notes/docs/a.md", LineNumber: 3, LineContent: "hello `world`"},
			{RepositoryName: "notes", RepositoryPath: "/kb/notes", FilePath: "/kb/notes/b.md", LineNumber: 1, LineContent: "say hello"},
			{RepositoryName: "notes", RepositoryPath: "/kb/notes", FilePath: "/kb/notes/docs/a.md", LineNumber: 8, LineContent: "HELLO"},
			{RepositoryName: "notes", RepositoryPath: "/kb/notes", FilePath: "/kb/notes/hello.md", LineNumber: 1, LineContent: "[File] hello.md", MatchContext: "hello.md"},
		},
	}
}

func TestToSearchOutput(t *testing.T) {
	out := ToSearchOutput(formatFixture(), DefaultLimit)

	assert.Equal(t, "hello", out.Term)
	assert.Equal(t, 4, out.Total)
	assert.False(t, out.Truncated)
	require.Len(t, out.Results, 4)
	assert.Equal(t, "docs/a.md", out.Results[0].RelativePath)
	assert.Equal(t, 3, out.Results[0].Line)
	assert.True(t, out.Results[3].FileNameHit)
}

func TestToSearchOutput_Truncates(t *testing.T) {
	out := ToSearchOutput(formatFixture(), 2)

	assert.Equal(t, 4, out.Total)
	assert.True(t, out.Truncated)
	assert.Len(t, out.Results, 2)
}

func TestFormatSearchResults(t *testing.T) {
	md := FormatSearchResults(ToSearchOutput(formatFixture(), DefaultLimit))

	want := "## Results for \"hello\"\n\n" +
		"4 matches.\n\n" +
		"### notes/docs/a.md\n" +
		"- L3: `hello 'world'`\n" +
		"- L8: `HELLO`\n\n" +
		"### notes/b.md\n" +
		"- L1: `say hello`\n\n" +
		"### notes/hello.md\n" +
		"- file name matches\n\n"
	assert.Equal(t, want, md)
}

func TestFormatSearchResults_TruncatedAndEmpty(t *testing.T) {
	md := FormatSearchResults(ToSearchOutput(formatFixture(), 1))
	assert.Contains(t, md, "Showing 1 of 4 matches.")

	md = FormatSearchResults(ToSearchOutput(search.Response{Term: "zzz", Results: []search.MatchResult{}}, DefaultLimit))
	assert.Equal(t, "No results found for: \"zzz\"\n", md)
}

func TestFormatRepositories(t *testing.T) {
	assert.Contains(t, FormatRepositories(ListRepositoriesOutput{}), "No repositories configured")

	md := FormatRepositories(ListRepositoriesOutput{Repositories: []RepositoryOutput{
		{Name: "notes", Path: "/kb/notes", Available: true, ExcludePatterns: []string{".git", "*.tmp"}},
		{Name: "old", Path: "/kb/old"},
	}})
	assert.Contains(t, md, "- **notes**: `/kb/notes`")
	assert.Contains(t, md, "excludes: .git, *.tmp")
	assert.Contains(t, md, "- **old** (missing): `/kb/old`")
}

func TestFormatDirectory(t *testing.T) {
	md := FormatDirectory(ListDirectoryOutput{Repository: "notes", Entries: []EntryOutput{
		{Name: "docs", Path: "docs", IsDir: true},
		{Name: "a.md", Path: "a.md"},
	}})
	assert.Equal(t, "## notes/.\n\n- docs/\n- a.md\n", md)

	assert.Contains(t, FormatDirectory(ListDirectoryOutput{Repository: "notes", Path: "docs"}), "(empty)")
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		limit, want int
	}{
		{0, DefaultLimit},
		{-3, DefaultLimit},
		{1, 1},
		{120, 120},
		{MaxLimit + 1, MaxLimit},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, clampLimit(tt.limit, DefaultLimit, 1, MaxLimit))
	}
}
