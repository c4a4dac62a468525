// Package git clones repositories for kbsearch by running the git
// executable.
package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	kberrors "github.com/Aman-CERP/kbsearch/internal/errors"
)

// Client runs git commands. The zero value runs "git" from PATH.
type Client struct {
	// Path is the git executable.
	Path string
}

func (c *Client) bin() string {
	if c.Path != "" {
		return c.Path
	}
	return "git"
}

// IsRepo reports whether dir is inside a git work tree.
func (c *Client) IsRepo(ctx context.Context, dir string) bool {
	cmd := exec.CommandContext(ctx, c.bin(), "-C", dir, "rev-parse", "--is-inside-work-tree")
	out, err := cmd.Output()
	return err == nil && strings.TrimSpace(string(out)) == "true"
}

// Clone clones url into target. The parent of target must exist and
// target itself must not.
func (c *Client) Clone(ctx context.Context, url, target string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return kberrors.ValidationError("repository URL is required", nil)
	}
	abs, err := filepath.Abs(target)
	if err != nil {
		return kberrors.New(kberrors.ErrCodeInvalidPath, fmt.Sprintf("invalid target %s", target), err)
	}
	parent, name := filepath.Dir(abs), filepath.Base(abs)

	if info, err := os.Stat(parent); err != nil || !info.IsDir() {
		return kberrors.New(kberrors.ErrCodeInvalidPath, fmt.Sprintf("parent directory does not exist: %s", parent), err)
	}
	if _, err := os.Lstat(abs); err == nil {
		return kberrors.New(kberrors.ErrCodeInvalidPath, fmt.Sprintf("target already exists: %s", abs), nil)
	}

	// "--" keeps a URL starting with '-' from being read as an option.
	cmd := exec.CommandContext(ctx, c.bin(), "clone", "--", url, name)
	cmd.Dir = parent
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return kberrors.New(kberrors.ErrCodeToolTimeout, "git clone was interrupted", ctxErr)
		}
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return kberrors.New(kberrors.ErrCodeToolUnavailable, "git is not installed", err).
				WithSuggestion("install git or add an existing checkout with 'kbsearch repo add'")
		}
		return kberrors.New(kberrors.ErrCodeToolFailed, "git clone failed", err).
			WithDetail("stderr", strings.TrimSpace(stderr.String()))
	}
	return nil
}
