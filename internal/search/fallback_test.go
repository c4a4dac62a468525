package search

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/kbsearch/internal/exclude"
)

func TestFallbackSearcher_SkipsExcludedDirectories(t *testing.T) {
	repo := testRepo(t, "notes", map[string]string{
		"root.md":              "keyword-in-root",
		"node_modules/skip.md": "keyword-in-node-modules",
	})

	got, err := FallbackSearcher{}.Search(context.Background(), "keyword-in", repo, exclude.Set{"node_modules"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, MatchResult{
		RepositoryName: "notes",
		RepositoryPath: repo.Path,
		FilePath:       filepath.Join(repo.Path, "root.md"),
		LineNumber:     1,
		LineContent:    "keyword-in-root",
		MatchContext:   "keyword-in-root",
	}, got[0])
}

func TestFallbackSearcher_GitSegmentOnly(t *testing.T) {
	repo := testRepo(t, "notes", map[string]string{
		".git/config": "target-keyword",
		".gitignore":  "target-keyword",
	})

	got, err := FallbackSearcher{}.Search(context.Background(), "target-keyword", repo, exclude.Set{".git"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, filepath.Join(repo.Path, ".gitignore"), got[0].FilePath)
}

func TestFallbackSearcher_NeverOpensBinaryExtensions(t *testing.T) {
	repo := testRepo(t, "notes", map[string]string{
		"image.png": "needle",
		"photo.JPG": "needle",
		"notes.txt": "needle",
	})

	got, err := FallbackSearcher{}.Search(context.Background(), "needle", repo, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, filepath.Join(repo.Path, "notes.txt"), got[0].FilePath)
}

func TestFallbackSearcher_Lines(t *testing.T) {
	repo := testRepo(t, "notes", map[string]string{
		"a.md": "first\r\n  Needle here  \r\nnothing\n\tNEEDLE again\n",
	})

	got, err := FallbackSearcher{}.Search(context.Background(), "needle", repo, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].LineNumber)
	assert.Equal(t, "Needle here", got[0].LineContent)
	assert.Equal(t, got[0].LineContent, got[0].MatchContext)
	assert.Equal(t, 4, got[1].LineNumber)
	assert.Equal(t, "NEEDLE again", got[1].LineContent)
}

func TestFallbackSearcher_TermIsLiteral(t *testing.T) {
	repo := testRepo(t, "notes", map[string]string{
		"a.md": "price is $5 (approx.)\nprice is 55 approx\n",
	})

	got, err := FallbackSearcher{}.Search(context.Background(), "$5 (approx.)", repo, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].LineNumber)
}

func TestFallbackSearcher_SkipsBinaryAndInvalidText(t *testing.T) {
	repo := testRepo(t, "notes", map[string]string{
		"nul.dat":   "needle\x00\x01",
		"latin1.md": "needle \xff\xfe",
		"ok.md":     "needle",
	})

	got, err := FallbackSearcher{}.Search(context.Background(), "needle", repo, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, filepath.Join(repo.Path, "ok.md"), got[0].FilePath)
}

func TestFallbackSearcher_Cancelled(t *testing.T) {
	repo := testRepo(t, "notes", map[string]string{"a.md": "needle"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := FallbackSearcher{}.Search(ctx, "needle", repo, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
