package scanner

import (
	"bytes"
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Aman-CERP/kbsearch/internal/exclude"
)

// sniffSize is how much of a file is inspected for NUL bytes.
const sniffSize = 512

// ListDir lists dir into tagged entries, in name order.
// Symlinks are classified by their target; symlinked directories and
// irregular files (sockets, devices, pipes) are left out so walks never
// loop or block.
func ListDir(dir string) ([]Entry, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, d := range dirEntries {
		mode := d.Type()
		switch {
		case mode.IsDir():
			entries = append(entries, Entry{Kind: KindDirectory, Name: d.Name()})
		case mode.IsRegular():
			entries = append(entries, Entry{Kind: KindFile, Name: d.Name()})
		case mode&fs.ModeSymlink != 0:
			info, err := os.Stat(filepath.Join(dir, d.Name()))
			if err == nil && info.Mode().IsRegular() {
				entries = append(entries, Entry{Kind: KindFile, Name: d.Name()})
			}
		}
	}
	return entries, nil
}

// Walk visits every non-excluded file under root depth-first, in listing
// order. Excluded directories are pruned. A directory that cannot be listed
// is skipped. Walk stops early only when ctx is done or visit returns an
// error, and returns that error.
func Walk(ctx context.Context, root string, patterns exclude.Set, visit func(File) error) error {
	return walkDir(ctx, root, root, patterns, visit)
}

func walkDir(ctx context.Context, root, dir string, patterns exclude.Set, visit func(File) error) error {
	entries, err := ListDir(dir)
	if err != nil {
		slog.Debug("skipping unreadable directory",
			slog.String("dir", dir),
			slog.String("error", err.Error()))
		return nil
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		absPath := filepath.Join(dir, entry.Name)
		relPath, err := filepath.Rel(root, absPath)
		if err != nil {
			continue
		}
		if patterns.Excludes(relPath) {
			continue
		}

		if entry.IsDir() {
			if err := walkDir(ctx, root, absPath, patterns, visit); err != nil {
				return err
			}
			continue
		}

		if err := visit(File{AbsPath: absPath, RelPath: relPath, Name: entry.Name}); err != nil {
			return err
		}
	}
	return nil
}

// ReadText reads a file for line matching. It reports false when the file
// cannot be read or looks binary (a NUL byte near the start).
func ReadText(path string) ([]byte, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	head := data
	if len(head) > sniffSize {
		head = head[:sniffSize]
	}
	if bytes.IndexByte(head, 0) >= 0 {
		return nil, false
	}
	return data, true
}
