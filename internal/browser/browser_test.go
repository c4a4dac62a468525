package browser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/kbsearch/internal/config"
	kberrors "github.com/Aman-CERP/kbsearch/internal/errors"
	"github.com/Aman-CERP/kbsearch/internal/exclude"
	"github.com/Aman-CERP/kbsearch/internal/scanner"
)

func newRepo(t *testing.T, files ...string) config.Repository {
	t.Helper()
	root := t.TempDir()
	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, nil, 0o644))
	}
	return config.Repository{Name: "notes", Path: root}
}

func names(items []Item) []string {
	var out []string
	for _, it := range items {
		out = append(out, it.Name)
	}
	return out
}

func TestList_FoldersFirstSorted(t *testing.T) {
	repo := newRepo(t, "b.md", "a.md", "zeta/x.md", "alpha/y.md", "node_modules/m.js", ".git/HEAD", ".gitignore")

	items, err := List(repo, "", exclude.Set{"node_modules", ".git"})
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta", ".gitignore", "a.md", "b.md"}, names(items))
	assert.Equal(t, scanner.KindDirectory, items[0].Kind)
	assert.Equal(t, filepath.Join(repo.Path, "alpha"), items[0].Path)
	assert.Equal(t, "alpha", items[0].RelPath)
}

func TestList_Subdirectory(t *testing.T) {
	repo := newRepo(t, "docs/guide.md", "docs/private/secret.md", "docs/img/logo.png")

	items, err := List(repo, "docs", exclude.Set{"docs/private", "*.png"})
	require.NoError(t, err)
	assert.Equal(t, []string{"img", "guide.md"}, names(items))
	assert.Equal(t, filepath.Join("docs", "guide.md"), items[1].RelPath)
}

func TestList_Errors(t *testing.T) {
	repo := newRepo(t, "docs/a.md", "node_modules/x.js")

	tests := []struct {
		name string
		dir  string
		code string
	}{
		{"parent escape", "../etc", kberrors.ErrCodeInvalidPath},
		{"dotdot", "..", kberrors.ErrCodeInvalidPath},
		{"absolute", filepath.Join(repo.Path, "docs"), kberrors.ErrCodeInvalidPath},
		{"excluded", "node_modules", kberrors.ErrCodeInvalidPath},
		{"missing", "nope", kberrors.ErrCodeDirectoryListing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := List(repo, tt.dir, exclude.Set{"node_modules"})
			require.Error(t, err)
			assert.Equal(t, tt.code, kberrors.GetCode(err))
		})
	}
}

func TestList_DotAndCleanedPaths(t *testing.T) {
	repo := newRepo(t, "docs/a.md")

	for _, dir := range []string{".", "./", "docs/..", "./docs/../"} {
		items, err := List(repo, dir, nil)
		require.NoError(t, err, dir)
		assert.Equal(t, []string{"docs"}, names(items), dir)
	}
}

func TestResolve(t *testing.T) {
	repo := newRepo(t, "docs/a.md")

	abs, rel, err := Resolve(repo, "docs/./a.md", exclude.Set{"drafts"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(repo.Path, "docs", "a.md"), abs)
	assert.Equal(t, filepath.Join("docs", "a.md"), rel)

	abs, rel, err = Resolve(repo, "", nil)
	require.NoError(t, err)
	assert.Equal(t, repo.Path, abs)
	assert.Empty(t, rel)

	_, _, err = Resolve(repo, "drafts/b.md", exclude.Set{"drafts"})
	assert.Equal(t, kberrors.ErrCodeInvalidPath, kberrors.GetCode(err))
	_, _, err = Resolve(repo, "../x", nil)
	assert.Equal(t, kberrors.ErrCodeInvalidPath, kberrors.GetCode(err))
}
