package output

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/kbsearch/internal/browser"
	"github.com/Aman-CERP/kbsearch/internal/scanner"
	"github.com/Aman-CERP/kbsearch/internal/search"
)

func TestWriter_StatusLines(t *testing.T) {
	tests := []struct {
		name  string
		print func(w *Writer)
		want  string
	}{
		{"status", func(w *Writer) { w.Status("🔍", "Checking ripgrep...") }, "🔍 Checking ripgrep...\n"},
		{"status without icon", func(w *Writer) { w.Status("", "indented") }, "   indented\n"},
		{"success", func(w *Writer) { w.Successf("Added %s", "notes") }, "✅ Added notes\n"},
		{"warning", func(w *Writer) { w.Warning("path missing") }, "⚠️  path missing\n"},
		{"error", func(w *Writer) { w.Errorf("failed: %d", 2) }, "❌ failed: 2\n"},
		{"newline", func(w *Writer) { w.Newline() }, "\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given: a writer with a buffer
			buf := &bytes.Buffer{}
			w := New(buf)

			// When: printing
			tt.print(w)

			// Then: the exact line is written
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestWriter_Results_GroupsByRepositoryAndFile(t *testing.T) {
	// Given: content and filename matches across two repositories
	resp := search.Response{
		Term: "hello",
		Results: []search.MatchResult{
			{RepositoryName: "notes", RepositoryPath: "/notes", FilePath: "/notes/docs/a.md", LineNumber: 3, LineContent: "hello there", MatchContext: "hello there"},
			{RepositoryName: "wiki", RepositoryPath: "/wiki", FilePath: "/wiki/b.md", LineNumber: 1, LineContent: "say hello", MatchContext: "say hello"},
			{RepositoryName: "notes", RepositoryPath: "/notes", FilePath: "/notes/docs/a.md", LineNumber: 9, LineContent: "HELLO again", MatchContext: "HELLO again"},
			{RepositoryName: "notes", RepositoryPath: "/notes", FilePath: "/notes/hello.md", LineNumber: 1, LineContent: "[File] hello.md", MatchContext: "hello.md"},
		},
	}
	buf := &bytes.Buffer{}

	// When: rendering without color
	NewWithColor(buf, false).Results(resp)

	// Then: results are grouped in first-appearance order
	want := strings.Join([]string{
		"notes /notes",
		"  docs/a.md",
		"    3: hello there",
		"    9: HELLO again",
		"  hello.md",
		"    [File] hello.md",
		"wiki /wiki",
		"  b.md",
		"    1: say hello",
		`4 results for "hello"`,
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func TestWriter_Results_Empty(t *testing.T) {
	buf := &bytes.Buffer{}
	NewWithColor(buf, false).Results(search.Response{Term: "nothing", Results: []search.MatchResult{}})
	assert.Equal(t, "No results for \"nothing\"\n", buf.String())
}

func TestWriter_Results_SingularCount(t *testing.T) {
	buf := &bytes.Buffer{}
	NewWithColor(buf, false).Results(search.Response{Term: "x", Results: []search.MatchResult{
		{RepositoryName: "r", RepositoryPath: "/r", FilePath: "/r/a.md", LineNumber: 2, LineContent: "x"},
	}})
	assert.Contains(t, buf.String(), "1 result for \"x\"\n")
}

func TestWriter_Results_ColorKeepsText(t *testing.T) {
	buf := &bytes.Buffer{}
	NewWithColor(buf, true).Results(search.Response{Term: "ell", Results: []search.MatchResult{
		{RepositoryName: "r", RepositoryPath: "/r", FilePath: "/r/a.md", LineNumber: 2, LineContent: "hello"},
	}})
	assert.Contains(t, buf.String(), "ell")
	assert.Contains(t, buf.String(), "a.md")
}

func TestWriter_JSON(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, New(buf).JSON(search.Response{Term: "x", Results: []search.MatchResult{}}))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "x", decoded["term"])
	assert.Equal(t, []any{}, decoded["results"])
}

func TestWriter_Listing(t *testing.T) {
	buf := &bytes.Buffer{}
	NewWithColor(buf, false).Listing([]browser.Item{
		{Entry: scanner.Entry{Kind: scanner.KindDirectory, Name: "docs"}},
		{Entry: scanner.Entry{Kind: scanner.KindFile, Name: "a.md"}},
	})
	assert.Equal(t, "docs/\na.md\n", buf.String())
}

func TestColorEnabled(t *testing.T) {
	// Given: a non-terminal writer
	// Then: color is off regardless of NO_COLOR
	assert.False(t, ColorEnabled(&bytes.Buffer{}))
	assert.False(t, IsTTY(nil))

	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.False(t, IsTTY(f))
}

func TestDetectNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.True(t, DetectNoColor())

	require.NoError(t, os.Unsetenv("NO_COLOR"))
	assert.False(t, DetectNoColor())
}
