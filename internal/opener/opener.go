// Package opener opens search results in the user's editor.
package opener

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	kberrors "github.com/Aman-CERP/kbsearch/internal/errors"
	"github.com/Aman-CERP/kbsearch/internal/search"
)

// gotoEditors take "-g file:line".
var gotoEditors = map[string]bool{
	"code":          true,
	"code-insiders": true,
	"codium":        true,
	"cursor":        true,
}

// colonEditors take "file:line".
var colonEditors = map[string]bool{
	"subl": true,
	"zed":  true,
	"hx":   true,
}

// EditorOpener runs an editor command for a result.
type EditorOpener struct {
	// Editor is the command line, e.g. "code --wait". Empty means
	// $VISUAL, then $EDITOR, then vi.
	Editor string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// New returns an opener attached to the process's terminal.
func New(editor string) *EditorOpener {
	return &EditorOpener{
		Editor: editor,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Open launches the editor at the result's line and waits for it to exit.
func (o *EditorOpener) Open(ctx context.Context, r search.MatchResult) error {
	if r.FilePath == "" || !filepath.IsAbs(r.FilePath) {
		return kberrors.New(kberrors.ErrCodeInvalidPath, "result has no absolute file path", nil).
			WithDetail("path", r.FilePath)
	}
	if _, err := os.Stat(r.FilePath); err != nil {
		return kberrors.New(kberrors.ErrCodeFileNotFound, "file no longer exists", err).
			WithDetail("path", r.FilePath)
	}

	argv := Command(o.editor(), r.FilePath, r.LineNumber)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = o.Stdin, o.Stdout, o.Stderr
	if err := cmd.Run(); err != nil {
		return kberrors.New(kberrors.ErrCodeToolFailed, "editor failed", err).
			WithDetail("editor", argv[0]).
			WithSuggestion("set $EDITOR or pass --editor")
	}
	return nil
}

func (o *EditorOpener) editor() string {
	for _, e := range []string{o.Editor, os.Getenv("VISUAL"), os.Getenv("EDITOR")} {
		if strings.TrimSpace(e) != "" {
			return e
		}
	}
	return "vi"
}

// Command builds the argv that opens path at line with editor.
// Lines below 1 open the file without a position.
func Command(editor, path string, line int) []string {
	argv := strings.Fields(editor)
	if len(argv) == 0 {
		argv = []string{"vi"}
	}
	if line < 1 {
		return append(argv, path)
	}

	name := strings.TrimSuffix(filepath.Base(argv[0]), ".exe")
	pos := path + ":" + strconv.Itoa(line)
	switch {
	case gotoEditors[name]:
		return append(argv, "-g", pos)
	case colonEditors[name]:
		return append(argv, pos)
	default:
		return append(argv, "+"+strconv.Itoa(line), path)
	}
}
