package mcp

import (
	"path/filepath"
	"strings"
)

// mimeTypes maps file extensions to MIME types.
var mimeTypes = map[string]string{
	// Documentation
	".md":       "text/markdown",
	".mdx":      "text/markdown",
	".markdown": "text/markdown",
	".txt":      "text/plain",
	".rst":      "text/x-rst",
	".adoc":     "text/asciidoc",
	".org":      "text/x-org",
	".tex":      "text/x-tex",
	".csv":      "text/csv",

	// Web
	".html": "text/html",
	".htm":  "text/html",
	".css":  "text/css",
	".scss": "text/x-scss",

	// Data
	".json": "application/json",
	".yaml": "text/x-yaml",
	".yml":  "text/x-yaml",
	".xml":  "text/xml",
	".toml": "text/x-toml",

	// Config
	".env":  "text/plain",
	".ini":  "text/plain",
	".conf": "text/plain",

	// Shell
	".sh":   "text/x-sh",
	".bash": "text/x-sh",
	".zsh":  "text/x-sh",

	// SQL
	".sql": "text/x-sql",

	// Source
	".go":   "text/x-go",
	".py":   "text/x-python",
	".js":   "text/javascript",
	".ts":   "text/typescript",
	".java": "text/x-java",
	".rs":   "text/x-rust",
	".c":    "text/x-c",
	".h":    "text/x-c",
}

// specialFilenames maps specific filenames to MIME types.
var specialFilenames = map[string]string{
	"Dockerfile": "text/x-dockerfile",
	"Makefile":   "text/x-makefile",
	"README":     "text/plain",
	"LICENSE":    "text/plain",
}

// MimeTypeForPath returns the MIME type for a file path, checking special
// filenames before the extension. Unknown types are "text/plain".
func MimeTypeForPath(path string) string {
	base := filepath.Base(path)
	if mime, ok := specialFilenames[base]; ok {
		return mime
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != "" {
		if mime, ok := mimeTypes[ext]; ok {
			return mime
		}
	}

	return "text/plain"
}
