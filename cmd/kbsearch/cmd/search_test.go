package cmd

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kberrors "github.com/Aman-CERP/kbsearch/internal/errors"
	"github.com/Aman-CERP/kbsearch/internal/search"
)

func TestSearchCmd_JSON(t *testing.T) {
	// Given: a repository with one content match and one filename match
	repo := writeFiles(t, map[string]string{
		"notes.md":        "Monday\nMeeting notes for the week\n",
		"meeting-plan.md": "agenda\n",
		"other.md":        "nothing here\n",
	})
	env := newTestEnv(t, map[string]string{"kb": repo})

	// When: searching with JSON output
	out, err := env.run(t, "search", "meeting", "--format", "json")

	// Then: both kinds of match are reported
	require.NoError(t, err)
	var resp search.Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "meeting", resp.Term)

	var content, file bool
	for _, r := range resp.Results {
		assert.Equal(t, "kb", r.RepositoryName)
		switch filepath.Base(r.FilePath) {
		case "notes.md":
			content = true
			assert.Equal(t, 2, r.LineNumber)
		case "meeting-plan.md":
			file = r.IsFileMatch()
		case "other.md":
			t.Errorf("unexpected match in other.md")
		}
	}
	assert.True(t, content, "content match")
	assert.True(t, file, "filename match")
}

func TestSearchCmd_TextJoinsArgs(t *testing.T) {
	repo := writeFiles(t, map[string]string{"a.md": "the meeting notes\n"})
	env := newTestEnv(t, map[string]string{"kb": repo})

	out, err := env.run(t, "search", "meeting", "notes")

	require.NoError(t, err)
	assert.Contains(t, out, "a.md")
	assert.Contains(t, out, `"meeting notes"`)
}

func TestSearchCmd_NoResults(t *testing.T) {
	repo := writeFiles(t, map[string]string{"a.md": "hello\n"})
	env := newTestEnv(t, map[string]string{"kb": repo})

	out, err := env.run(t, "search", "absent")

	require.NoError(t, err)
	assert.Contains(t, out, `No results for "absent"`)
}

func TestSearchCmd_RestrictsToRepository(t *testing.T) {
	a := writeFiles(t, map[string]string{"a.md": "shared term\n"})
	b := writeFiles(t, map[string]string{"b.md": "shared term\n"})
	env := newTestEnv(t, map[string]string{"a": a, "b": b})

	out, err := env.run(t, "search", "shared", "--repo", "b", "-f", "json")

	require.NoError(t, err)
	var resp search.Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotEmpty(t, resp.Results)
	for _, r := range resp.Results {
		assert.Equal(t, "b", r.RepositoryName)
	}
}

func TestSearchCmd_UnknownRepository(t *testing.T) {
	env := newTestEnv(t, nil)

	_, err := env.run(t, "search", "x", "--repo", "nope")

	var kbErr *kberrors.KBError
	require.True(t, errors.As(err, &kbErr))
	assert.Equal(t, kberrors.ErrCodeUnknownRepository, kbErr.Code)
}

func TestSearchCmd_InvalidFormat(t *testing.T) {
	env := newTestEnv(t, nil)

	_, err := env.run(t, "search", "x", "--format", "xml")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "xml")
}
