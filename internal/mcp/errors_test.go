package mcp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	kberrors "github.com/Aman-CERP/kbsearch/internal/errors"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{
			name:     "deadline",
			err:      fmt.Errorf("wrapped: %w", context.DeadlineExceeded),
			wantCode: ErrCodeTimeout,
			wantMsg:  "Request timed out.",
		},
		{
			name:     "canceled",
			err:      context.Canceled,
			wantCode: ErrCodeTimeout,
			wantMsg:  "Request was canceled.",
		},
		{
			name:     "not exist",
			err:      os.ErrNotExist,
			wantCode: ErrCodeFileNotFound,
		},
		{
			name:     "unknown",
			err:      errors.New("boom"),
			wantCode: ErrCodeInternalError,
			wantMsg:  "Internal server error.",
		},
		{
			name:     "unknown repository is invalid params",
			err:      kberrors.New(kberrors.ErrCodeUnknownRepository, "unknown repository: x", nil).WithSuggestion("call list_repositories"),
			wantCode: ErrCodeInvalidParams,
			wantMsg:  "unknown repository: x. call list_repositories",
		},
		{
			name:     "invalid path",
			err:      kberrors.New(kberrors.ErrCodeInvalidPath, "directory is excluded", nil),
			wantCode: ErrCodeInvalidParams,
			wantMsg:  "directory is excluded",
		},
		{
			name:     "search failed",
			err:      kberrors.New(kberrors.ErrCodeSearchFailed, "search cancelled", context.DeadlineExceeded),
			wantCode: ErrCodeSearchFailed,
			wantMsg:  "search cancelled",
		},
		{
			name:     "file not found",
			err:      kberrors.New(kberrors.ErrCodeFileNotFound, "gone", nil),
			wantCode: ErrCodeFileNotFound,
		},
		{
			name:     "file permission keeps message",
			err:      kberrors.New(kberrors.ErrCodeFilePermission, "permission denied: a.md", os.ErrPermission),
			wantCode: ErrCodeInternalError,
			wantMsg:  "permission denied: a.md",
		},
		{
			name:     "directory listing is internal",
			err:      kberrors.New(kberrors.ErrCodeDirectoryListing, "cannot list directory", nil),
			wantCode: ErrCodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			assert.Equal(t, tt.wantCode, got.Code)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, got.Message)
			}
		})
	}
}

func TestMapError_Nil(t *testing.T) {
	assert.Nil(t, MapError(nil))
}

func TestMapError_PassesMCPErrorThrough(t *testing.T) {
	orig := NewInvalidParamsError("bad")
	assert.Same(t, orig, MapError(fmt.Errorf("ctx: %w", orig)))
}

func TestMCPError_Error(t *testing.T) {
	err := &MCPError{Code: ErrCodeInvalidParams, Message: "query is required"}
	assert.Equal(t, "MCP error -32602: query is required", err.Error())
}
