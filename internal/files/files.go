// Package files creates, renames and deletes notes and folders inside
// repositories. Deleted entries go to a trash directory unless removed
// outright.
package files

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	kberrors "github.com/Aman-CERP/kbsearch/internal/errors"
)

// MarkdownTemplate is the initial content of a new note.
func MarkdownTemplate(title string, created time.Time) string {
	return fmt.Sprintf("# %s\n\nCreated: %s\n\n## Summary\n\n- \n\n## Details\n\n",
		title, created.UTC().Format(time.RFC3339))
}

// DefaultTrashDir returns ~/.kbsearch/trash, or a temp-dir equivalent when
// the home directory is unknown.
func DefaultTrashDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".kbsearch", "trash")
	}
	return filepath.Join(home, ".kbsearch", "trash")
}

// Manager performs file operations. The zero value uses the default trash
// directory and the wall clock.
type Manager struct {
	TrashDir string
	Now      func() time.Time
}

func (m *Manager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

func (m *Manager) trashDir() string {
	if m.TrashDir != "" {
		return m.TrashDir
	}
	return DefaultTrashDir()
}

// CreateFile creates name inside dir and returns its path. With template,
// the file starts with MarkdownTemplate titled after the name without its
// extension. An existing file is never overwritten.
func (m *Manager) CreateFile(dir, name string, template bool) (string, error) {
	name, err := ValidateName(name)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fileError("failed to create file", path, err)
	}
	defer func() { _ = f.Close() }()

	if template {
		title := strings.TrimSuffix(name, filepath.Ext(name))
		if _, err := f.WriteString(MarkdownTemplate(title, m.now())); err != nil {
			return "", fileError("failed to write file", path, err)
		}
	}
	return path, nil
}

// CreateFolder creates name inside dir and returns its path.
func (m *Manager) CreateFolder(dir, name string) (string, error) {
	name, err := ValidateName(name)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	if err := os.Mkdir(path, 0o755); err != nil {
		return "", fileError("failed to create folder", path, err)
	}
	return path, nil
}

// Rename gives path a new base name in the same directory and returns the
// new path. An existing target is never replaced.
func (m *Manager) Rename(path, newName string) (string, error) {
	newName, err := ValidateName(newName)
	if err != nil {
		return "", err
	}
	if _, err := os.Lstat(path); err != nil {
		return "", fileError("cannot rename", path, err)
	}

	next := filepath.Join(filepath.Dir(path), newName)
	if next == path {
		return path, nil
	}
	if _, err := os.Lstat(next); err == nil {
		return "", fileError("cannot rename", next, fs.ErrExist)
	}
	if err := os.Rename(path, next); err != nil {
		return "", fileError("failed to rename", path, err)
	}
	return next, nil
}

// Trash moves path into the trash directory under a timestamped name and
// returns where it went.
func (m *Manager) Trash(path string) (string, error) {
	if _, err := os.Lstat(path); err != nil {
		return "", fileError("cannot delete", path, err)
	}

	trash := m.trashDir()
	if err := os.MkdirAll(trash, 0o755); err != nil {
		return "", fileError("failed to create trash directory", trash, err)
	}

	stamp := m.now().UTC().Format("20060102-150405")
	target := filepath.Join(trash, stamp+"-"+filepath.Base(path))
	for i := 1; ; i++ {
		if _, err := os.Lstat(target); errors.Is(err, fs.ErrNotExist) {
			break
		}
		target = filepath.Join(trash, fmt.Sprintf("%s-%d-%s", stamp, i, filepath.Base(path)))
	}

	if err := os.Rename(path, target); err != nil {
		return "", fileError("failed to move to trash", path, err).
			WithSuggestion("the trash must be on the same filesystem; use --permanent to delete instead")
	}
	return target, nil
}

// Remove deletes path and everything beneath it.
func (m *Manager) Remove(path string) error {
	if _, err := os.Lstat(path); err != nil {
		return fileError("cannot delete", path, err)
	}
	if err := os.RemoveAll(path); err != nil {
		return fileError("failed to delete", path, err)
	}
	return nil
}

// ValidateName trims name and checks it is a single path element.
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return "", kberrors.ValidationError("name is required", nil)
	case name == "." || name == "..":
		return "", kberrors.ValidationError(fmt.Sprintf("invalid name %q", name), nil)
	case strings.ContainsAny(name, `/\`):
		return "", kberrors.ValidationError(fmt.Sprintf("name must not contain a path separator: %q", name), nil)
	}
	return name, nil
}

// fileError classifies a filesystem error by cause.
func fileError(msg, path string, err error) *kberrors.KBError {
	var ke *kberrors.KBError
	switch {
	case errors.Is(err, fs.ErrPermission):
		ke = kberrors.New(kberrors.ErrCodeFilePermission, msg+": permission denied", err)
	case errors.Is(err, fs.ErrNotExist):
		ke = kberrors.New(kberrors.ErrCodeFileNotFound, msg+": no such file or directory", err)
	case errors.Is(err, fs.ErrExist):
		ke = kberrors.New(kberrors.ErrCodeInvalidPath, msg+": already exists", err)
	default:
		ke = kberrors.New(kberrors.ErrCodeInternal, msg, err)
	}
	return ke.WithDetail("path", path)
}
