package search

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/kbsearch/internal/config"
	"github.com/Aman-CERP/kbsearch/internal/exclude"
)

func createTestFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func testRepo(t *testing.T, name string, files map[string]string) config.Repository {
	t.Helper()
	root := t.TempDir()
	createTestFiles(t, root, files)
	return config.Repository{Name: name, Path: root}
}

// fakeSearcher records calls and returns canned results per repository.
type fakeSearcher struct {
	mu      sync.Mutex
	calls   int
	results map[string][]MatchResult
	delays  map[string]time.Duration
	err     error
}

func (f *fakeSearcher) Search(ctx context.Context, term string, repo config.Repository, patterns exclude.Set) ([]MatchResult, error) {
	f.mu.Lock()
	f.calls++
	delay := f.delays[repo.Name]
	results := f.results[repo.Name]
	err := f.err
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, err
}

func (f *fakeSearcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// blockingSearcher waits for cancellation.
type blockingSearcher struct{}

func (blockingSearcher) Search(ctx context.Context, _ string, _ config.Repository, _ exclude.Set) ([]MatchResult, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func noTool(config.SearchConfig) (string, bool) { return "", false }

// writeFakeRipgrep writes a shell script standing in for rg. It records its
// arguments to argsFile, prints output and exits with code.
func writeFakeRipgrep(t *testing.T, output string, code int) (script, argsFile string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake rg is a shell script")
	}
	dir := t.TempDir()
	script = filepath.Join(dir, "rg")
	argsFile = filepath.Join(dir, "args")
	body := "#!/bin/sh\n" +
		"printf '%s\\n' \"$@\" > '" + argsFile + "'\n" +
		"pwd >> '" + argsFile + "'\n" +
		"cat <<'KBSEARCH_EOF'\n" + output + "KBSEARCH_EOF\n" +
		"exit " + strconv.Itoa(code) + "\n"
	require.NoError(t, os.WriteFile(script, []byte(body), 0o755))
	return script, argsFile
}
