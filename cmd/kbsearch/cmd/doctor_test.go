package cmd

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoctorCmd_JSON(t *testing.T) {
	// Given: one existing and one missing repository
	repo := writeFiles(t, map[string]string{"a.md": "a"})
	env := newTestEnv(t, map[string]string{"kb": repo, "gone": "/does/not/exist/kbsearch"})

	// When: running doctor with JSON output
	out, _ := env.run(t, "doctor", "--json")

	// Then: every repository is checked and the missing one warns
	var result struct {
		Status string `json:"status"`
		Checks []struct {
			Name   string `json:"name"`
			Status string `json:"status"`
		} `json:"checks"`
		Warnings []string `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.NotEqual(t, "ready", result.Status)

	statuses := map[string]string{}
	for _, c := range result.Checks {
		statuses[c.Name] = c.Status
	}
	assert.Equal(t, "pass", statuses["repository kb"])
	assert.Equal(t, "warn", statuses["repository gone"])
	assert.Equal(t, "pass", statuses["ripgrep"], "disabled tool is not a warning")

	var found bool
	for _, w := range result.Warnings {
		found = found || strings.HasPrefix(w, "repository gone")
	}
	assert.True(t, found)
}

func TestDoctorCmd_Text(t *testing.T) {
	env := newTestEnv(t, nil)

	out, _ := env.run(t, "doctor")

	assert.Contains(t, out, "kbsearch doctor")
	assert.Contains(t, out, "repositories: none configured")
	assert.Contains(t, out, "Status:")
}
