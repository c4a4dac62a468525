// Package scanner walks repository trees for kbsearch.
// It lists directories into tagged entries, prunes excluded paths and
// classifies files as searchable text or not.
package scanner

import (
	"path/filepath"
	"strings"
)

// EntryKind tags a directory entry, resolved once at listing time.
type EntryKind int

const (
	// KindFile is a regular file, or a symlink to one.
	KindFile EntryKind = iota
	// KindDirectory is a directory.
	KindDirectory
)

// String returns a human-readable representation of the kind.
func (k EntryKind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind by name.
func (k EntryKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Entry is one child of a listed directory.
type Entry struct {
	Kind EntryKind `json:"kind"`
	Name string    `json:"name"`
}

// IsDir reports whether the entry is a directory.
func (e Entry) IsDir() bool {
	return e.Kind == KindDirectory
}

// File is a file reached by Walk.
type File struct {
	AbsPath string // Absolute path
	RelPath string // Path relative to the walk root
	Name    string // Base name
}

// binaryExtensions are never opened for content inspection.
var binaryExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
	".pdf":  true,
	".zip":  true,
	".gz":   true,
	".tar":  true,
	".mp4":  true,
	".mov":  true,
	".exe":  true,
	".dll":  true,
	".so":   true,
}

// IsLikelyText reports whether a file's extension allows content search.
func IsLikelyText(path string) bool {
	return !binaryExtensions[strings.ToLower(filepath.Ext(path))]
}
