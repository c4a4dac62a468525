package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/kbsearch/internal/browser"
	kberrors "github.com/Aman-CERP/kbsearch/internal/errors"
	"github.com/Aman-CERP/kbsearch/internal/scanner"
)

// MaxFileSize is the largest file read_file returns (1MB).
const MaxFileSize = 1024 * 1024

// mcpListDirectoryHandler is the MCP SDK handler for the list_directory tool.
func (s *Server) mcpListDirectoryHandler(_ context.Context, _ *mcp.CallToolRequest, input ListDirectoryInput) (
	*mcp.CallToolResult,
	ListDirectoryOutput,
	error,
) {
	repo, err := s.findRepository(input.Repository)
	if err != nil {
		return nil, ListDirectoryOutput{}, MapError(err)
	}
	if input.Path != "" && !isValidPath(input.Path) {
		return nil, ListDirectoryOutput{}, NewInvalidParamsError(fmt.Sprintf("invalid path: %s", input.Path))
	}

	snap := s.store.Snapshot()
	items, err := browser.List(repo, input.Path, snap.ExcludePatternsFor(repo))
	if err != nil {
		return nil, ListDirectoryOutput{}, MapError(err)
	}

	out := ListDirectoryOutput{
		Repository: repo.Name,
		Path:       filepath.ToSlash(input.Path),
		Entries:    make([]EntryOutput, 0, len(items)),
	}
	for _, it := range items {
		out.Entries = append(out.Entries, EntryOutput{
			Name:  it.Name,
			Path:  filepath.ToSlash(it.RelPath),
			IsDir: it.IsDir(),
		})
	}
	return textResult(FormatDirectory(out)), out, nil
}

// mcpReadFileHandler is the MCP SDK handler for the read_file tool.
// Excluded, binary and oversized files are refused.
func (s *Server) mcpReadFileHandler(_ context.Context, _ *mcp.CallToolRequest, input ReadFileInput) (
	*mcp.CallToolResult,
	ReadFileOutput,
	error,
) {
	repo, err := s.findRepository(input.Repository)
	if err != nil {
		return nil, ReadFileOutput{}, MapError(err)
	}
	if !isValidPath(input.Path) {
		return nil, ReadFileOutput{}, NewInvalidParamsError(fmt.Sprintf("invalid path: %s", input.Path))
	}

	rel := filepath.Clean(input.Path)
	snap := s.store.Snapshot()
	if snap.ExcludePatternsFor(repo).Excludes(rel) {
		return nil, ReadFileOutput{}, NewInvalidParamsError(fmt.Sprintf("path is excluded: %s", input.Path))
	}

	fullPath := filepath.Join(repo.Path, rel)
	info, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ReadFileOutput{}, &MCPError{
				Code:    ErrCodeFileNotFound,
				Message: fmt.Sprintf("file not found: %s", input.Path),
			}
		}
		if os.IsPermission(err) {
			return nil, ReadFileOutput{}, MapError(kberrors.New(kberrors.ErrCodeFilePermission,
				fmt.Sprintf("permission denied: %s", input.Path), err))
		}
		return nil, ReadFileOutput{}, MapError(err)
	}
	if info.IsDir() {
		return nil, ReadFileOutput{}, NewInvalidParamsError(fmt.Sprintf("path is a directory: %s", input.Path))
	}
	if info.Size() > MaxFileSize {
		return nil, ReadFileOutput{}, &MCPError{
			Code:    ErrCodeFileTooLarge,
			Message: fmt.Sprintf("file too large: %s (max %s)", humanSize(info.Size()), humanSize(MaxFileSize)),
		}
	}

	content, ok := scanner.ReadText(fullPath)
	if !ok || !utf8.Valid(content) {
		return nil, ReadFileOutput{}, NewInvalidParamsError(fmt.Sprintf("not a text file: %s", input.Path))
	}

	out := ReadFileOutput{
		Path:     filepath.ToSlash(rel),
		MIMEType: MimeTypeForPath(rel),
		Size:     info.Size(),
		Content:  string(content),
	}
	return textResult(out.Content), out, nil
}

// isValidPath reports whether path is relative and stays inside the
// repository root.
func isValidPath(path string) bool {
	if path == "" {
		return false
	}
	if filepath.IsAbs(path) {
		return false
	}
	// Windows drive letters
	if len(path) >= 2 && path[1] == ':' {
		return false
	}

	cleaned := filepath.Clean(path)
	for _, part := range strings.Split(filepath.ToSlash(cleaned), "/") {
		if part == ".." {
			return false
		}
	}
	return true
}

// humanSize formats bytes as a human-readable string.
func humanSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
	)

	switch {
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
