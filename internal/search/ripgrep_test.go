package search

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/kbsearch/internal/config"
	"github.com/Aman-CERP/kbsearch/internal/exclude"
)

func TestParseRipgrepLine(t *testing.T) {
	repo := config.Repository{Name: "docs", Path: "/R"}

	tests := []struct {
		name    string
		line    string
		ok      bool
		path    string
		lineNo  int
		content string
	}{
		{"simple", "docs/a.md:12:hello", true, "/R/docs/a.md", 12, "hello"},
		{"dot prefix", "./a.md:1:x", true, "/R/a.md", 1, "x"},
		{"colon in content", "a.md:3:key: value:1", true, "/R/a.md", 3, "key: value:1"},
		{"colon in path", "we:ird/a.md:4:x", true, "/R/we:ird/a.md", 4, "x"},
		{"empty content", "a.md:5:", true, "/R/a.md", 5, ""},
		{"untrimmed content kept", "a.md:6:  spaced ", true, "/R/a.md", 6, "  spaced "},
		{"no line number", "a.md:hello", false, "", 0, ""},
		{"zero line", "a.md:0:x", false, "", 0, ""},
		{"empty line", "", false, "", 0, ""},
		{"context separator", "--", false, "", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseRipgrepLine(tt.line, repo)
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, filepath.FromSlash(tt.path), got.FilePath)
			assert.Equal(t, tt.lineNo, got.LineNumber)
			assert.Equal(t, tt.content, got.LineContent)
			assert.Equal(t, tt.content, got.MatchContext)
			assert.Equal(t, "docs", got.RepositoryName)
			assert.Equal(t, "/R", got.RepositoryPath)
		})
	}
}

func TestRipgrepArgs(t *testing.T) {
	args := RipgrepArgs("a.b*", exclude.Set{"node_modules", "*.png"})
	assert.Equal(t, []string{
		"-n", "-i", "--color", "never", "--trim", "--no-heading", "--with-filename",
		"--glob", "!node_modules",
		"--glob", "!*.png",
		"-e", `a\.b\*`,
		".",
	}, args)
}

func TestRipgrepArgs_ResolvedPatternsAreTrimmed(t *testing.T) {
	args := RipgrepArgs("x", exclude.Resolve([]string{" node_modules ", "  "}, nil))
	assert.Contains(t, args, "!node_modules")
	assert.NotContains(t, args, "! node_modules ")
	assert.NotContains(t, args, "!")
}

func TestRipgrepArgs_DashTerm(t *testing.T) {
	args := RipgrepArgs("-v", nil)
	require.GreaterOrEqual(t, len(args), 3)
	assert.Equal(t, []string{"-e", "-v", "."}, args[len(args)-3:])
}

func TestRipgrepSearcher_ExitCodes(t *testing.T) {
	tests := []struct {
		name   string
		output string
		code   int
		want   int
	}{
		{"matches", "docs/a.md:12:hello\nnot a match line\nb.md:2:world\n", 0, 2},
		{"no matches", "", 1, 0},
		{"error exit", "docs/a.md:12:hello\n", 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			script, _ := writeFakeRipgrep(t, tt.output, tt.code)
			repo := config.Repository{Name: "r", Path: t.TempDir()}

			got, err := NewRipgrepSearcher(script, time.Minute).Search(context.Background(), "hello", repo, nil)
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestRipgrepSearcher_InvocationContract(t *testing.T) {
	script, argsFile := writeFakeRipgrep(t, "docs/a.md:12:hello\n", 0)
	root := t.TempDir()
	repo := config.Repository{Name: "r", Path: root}

	got, err := NewRipgrepSearcher(script, 0).Search(context.Background(), "hello", repo, exclude.Set{".git"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, filepath.Join(root, "docs", "a.md"), got[0].FilePath)
	assert.Equal(t, 12, got[0].LineNumber)

	data, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.NotEmpty(t, lines)

	wantDir, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	gotDir, err := filepath.EvalSymlinks(lines[len(lines)-1])
	require.NoError(t, err)
	assert.Equal(t, wantDir, gotDir, "rg must run in the repository root")
	assert.Equal(t, RipgrepArgs("hello", exclude.Set{".git"}), lines[:len(lines)-1])
}

func TestRipgrepSearcher_SpawnFailure(t *testing.T) {
	repo := config.Repository{Name: "r", Path: t.TempDir()}
	missing := filepath.Join(t.TempDir(), "no-such-rg")

	got, err := NewRipgrepSearcher(missing, 0).Search(context.Background(), "x", repo, nil)
	assert.NoError(t, err)
	assert.Empty(t, got)
}

func TestRipgrepSearcher_Cancelled(t *testing.T) {
	script, _ := writeFakeRipgrep(t, "a.md:1:x\n", 0)
	repo := config.Repository{Name: "r", Path: t.TempDir()}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewRipgrepSearcher(script, 0).Search(ctx, "x", repo, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProbeRipgrep(t *testing.T) {
	dir := t.TempDir()
	exe := filepath.Join(dir, "rg")
	require.NoError(t, os.WriteFile(exe, []byte("#!/bin/sh\n"), 0o755))

	path, ok := ProbeRipgrep([]string{"", filepath.Join(dir, "missing"), dir, exe})
	assert.True(t, ok)
	assert.Equal(t, exe, path)

	_, ok = ProbeRipgrep([]string{filepath.Join(dir, "missing"), "kbsearch-no-such-binary-on-path"})
	assert.False(t, ok)

	_, ok = ProbeRipgrep(nil)
	assert.False(t, ok)
}

func TestRipgrepCandidates(t *testing.T) {
	got := RipgrepCandidates(config.SearchConfig{RipgrepPath: "/opt/rg", AppRoot: "/app"})
	require.GreaterOrEqual(t, len(got), 4)
	assert.Equal(t, "/opt/rg", got[0])
	assert.Contains(t, got, filepath.Join("/app", "node_modules.asar.unpacked", "@vscode", "ripgrep", "bin", filepath.Base(got[len(got)-1])))
	assert.Equal(t, filepath.Base(got[len(got)-1]), got[len(got)-1], "PATH lookup comes last")

	plain := RipgrepCandidates(config.SearchConfig{})
	assert.NotContains(t, plain, "")
}
