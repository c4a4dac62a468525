package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/kbsearch/internal/exclude"
)

func TestSnapshot_IsDeepCopy(t *testing.T) {
	cfg := NewConfig()
	cfg.Repositories = []Repository{{Name: "a", Path: "/r/a", ExcludePatterns: []string{"x"}}}

	snap := cfg.Snapshot()
	cfg.Repositories[0].ExcludePatterns[0] = "mutated"
	cfg.ExcludePatterns[0] = "mutated"

	assert.Equal(t, []string{"x"}, snap.Repositories[0].ExcludePatterns)
	assert.Equal(t, ".git", snap.ExcludePatterns[0])
}

func TestSnapshot_ExcludePatternsFor(t *testing.T) {
	snap := Snapshot{ExcludePatterns: []string{"node_modules"}}

	assert.Equal(t, exclude.Set{"node_modules"}, snap.ExcludePatternsFor(Repository{}))
	assert.Equal(t, exclude.Set{"dist"}, snap.ExcludePatternsFor(Repository{ExcludePatterns: []string{"dist"}}))
}

func TestSnapshot_Owner(t *testing.T) {
	root := t.TempDir()
	notes := Repository{Name: "notes", Path: filepath.Join(root, "notes")}
	work := Repository{Name: "work", Path: filepath.Join(root, "notes", "work")}
	snap := Snapshot{Repositories: []Repository{notes, work}}

	tests := []struct {
		name string
		path string
		want string
		ok   bool
	}{
		{name: "file under root", path: filepath.Join(notes.Path, "a.md"), want: "notes", ok: true},
		{name: "root itself", path: notes.Path, want: "notes", ok: true},
		{name: "nested root resolves to first configured", path: filepath.Join(work.Path, "b.md"), want: "notes", ok: true},
		{name: "sibling with shared prefix", path: filepath.Join(root, "notes-old", "a.md")},
		{name: "dot-dot escape", path: filepath.Join(notes.Path, "..", "secret.txt")},
		{name: "relative path", path: "notes/a.md"},
		{name: "outside", path: filepath.Join(root, "elsewhere.md")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, ok := snap.Owner(tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, repo.Name)
		})
	}
}

func TestStore_SubscribeReplaceUnsubscribe(t *testing.T) {
	store := NewStore(nil)
	assert.Empty(t, store.Snapshot().Repositories)

	var got []Snapshot
	unsubscribe := store.Subscribe(func(s Snapshot) { got = append(got, s) })

	next := NewConfig()
	next.Repositories = []Repository{{Name: "a", Path: "/r/a"}}
	store.Replace(next)

	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Repositories[0].Name)
	assert.Equal(t, "a", store.Snapshot().Repositories[0].Name)

	unsubscribe()
	unsubscribe()
	store.Replace(NewConfig())
	assert.Len(t, got, 1)
}

func TestStore_SubscribersRunInOrder(t *testing.T) {
	store := NewStore(NewConfig())
	var order []int
	store.Subscribe(func(Snapshot) { order = append(order, 1) })
	store.Subscribe(func(Snapshot) { order = append(order, 2) })

	store.Replace(NewConfig())
	assert.Equal(t, []int{1, 2}, order)

	store.Close()
	store.Replace(NewConfig())
	assert.Equal(t, []int{1, 2}, order)
}

func TestStore_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg, err := Load(path)
	require.NoError(t, err)
	store := NewStore(cfg)

	require.NoError(t, os.WriteFile(path, []byte("exclude_patterns: [vendor]\n"), 0o644))
	require.NoError(t, store.Reload())
	assert.Equal(t, []string{"vendor"}, store.Snapshot().ExcludePatterns)

	// A broken file leaves the previous configuration in place.
	require.NoError(t, os.WriteFile(path, []byte("exclude_patterns: [\n"), 0o644))
	assert.Error(t, store.Reload())
	assert.Equal(t, []string{"vendor"}, store.Snapshot().ExcludePatterns)
}
