package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// testEnv isolates HOME and writes a config using the built-in scanner.
type testEnv struct {
	home       string
	configPath string
	logPath    string
}

func newTestEnv(t *testing.T, repos map[string]string) *testEnv {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("KBSEARCH_DISABLE_TOOL", "")

	env := &testEnv{
		home:       home,
		configPath: filepath.Join(home, "config.yaml"),
		logPath:    filepath.Join(home, "logs", "kbsearch.log"),
	}

	var b strings.Builder
	b.WriteString("version: 1\n")
	b.WriteString("search:\n  disable_tool: true\n")
	fmt.Fprintf(&b, "logging:\n  file: %s\n", env.logPath)
	if len(repos) > 0 {
		b.WriteString("repositories:\n")
		for name, path := range repos {
			fmt.Fprintf(&b, "  - name: %s\n    path: %s\n", name, path)
		}
	}
	require.NoError(t, os.WriteFile(env.configPath, []byte(b.String()), 0o644))
	return env
}

// run executes the root command with --config and returns stdout.
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))

	err := cmd.Execute()
	return stdout.String(), err
}

// writeFiles creates files (relative path -> content) under a new temp dir.
func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}
