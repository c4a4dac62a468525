// Package browser lists the contents of a repository directory, hiding
// excluded entries, for `kbsearch ls` and UI file explorers.
package browser

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/Aman-CERP/kbsearch/internal/config"
	kberrors "github.com/Aman-CERP/kbsearch/internal/errors"
	"github.com/Aman-CERP/kbsearch/internal/exclude"
	"github.com/Aman-CERP/kbsearch/internal/scanner"
)

// Item is one visible child of a listed directory.
type Item struct {
	scanner.Entry
	Path    string `json:"path"`    // absolute
	RelPath string `json:"relPath"` // relative to the repository root
}

// List returns the visible children of dir, a path relative to the
// repository root ("" for the root). Directories come first, then files;
// each group is sorted by name.
func List(repo config.Repository, dir string, patterns exclude.Set) ([]Item, error) {
	abs, rel, err := Resolve(repo, dir, patterns)
	if err != nil {
		return nil, err
	}

	entries, err := scanner.ListDir(abs)
	if err != nil {
		return nil, kberrors.New(kberrors.ErrCodeDirectoryListing, "cannot list directory", err).
			WithDetail("path", abs)
	}

	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		childRel := filepath.Join(rel, e.Name)
		if patterns.Excludes(childRel) {
			continue
		}
		items = append(items, Item{
			Entry:   e,
			Path:    filepath.Join(abs, e.Name),
			RelPath: childRel,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].IsDir() != items[j].IsDir() {
			return items[i].IsDir()
		}
		return items[i].Name < items[j].Name
	})
	return items, nil
}

// Resolve maps a path relative to the repository root ("" for the root) to
// its absolute path and cleaned relative form. Paths leaving the root or
// hidden by patterns are refused.
func Resolve(repo config.Repository, rel string, patterns exclude.Set) (abs, clean string, err error) {
	clean, err = cleanRelative(rel)
	if err != nil {
		return "", "", err
	}
	if clean != "" && patterns.Excludes(clean) {
		return "", "", kberrors.New(kberrors.ErrCodeInvalidPath, "path is excluded", nil).
			WithDetail("path", rel)
	}
	return filepath.Join(repo.Path, clean), clean, nil
}

// cleanRelative normalizes dir and rejects paths leaving the root.
func cleanRelative(dir string) (string, error) {
	if filepath.IsAbs(dir) {
		return "", kberrors.New(kberrors.ErrCodeInvalidPath, "path must be relative to the repository root", nil).
			WithDetail("path", dir)
	}
	rel := filepath.Clean(filepath.FromSlash(dir))
	if rel == "." {
		return "", nil
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", kberrors.New(kberrors.ErrCodeInvalidPath, "path is outside the repository", nil).
			WithDetail("path", dir)
	}
	return rel, nil
}
