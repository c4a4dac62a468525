package config

import (
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Aman-CERP/kbsearch/internal/exclude"
)

// Snapshot is an immutable view of the configuration taken at one point in
// time. Searches run against a snapshot, so a configuration change while a
// search is in flight does not affect its results.
type Snapshot struct {
	Repositories    []Repository
	ExcludePatterns []string
	Search          SearchConfig
}

// Snapshot returns a deep copy of the search-relevant configuration.
func (c *Config) Snapshot() Snapshot {
	repos := c.ValidRepositories()
	out := make([]Repository, len(repos))
	for i, repo := range repos {
		repo.ExcludePatterns = append([]string(nil), repo.ExcludePatterns...)
		out[i] = repo
	}
	return Snapshot{
		Repositories:    out,
		ExcludePatterns: append([]string(nil), c.ExcludePatterns...),
		Search:          c.Search,
	}
}

// ExcludePatternsFor returns the effective exclusion patterns for repo.
func (s Snapshot) ExcludePatternsFor(repo Repository) exclude.Set {
	return exclude.Resolve(repo.ExcludePatterns, s.ExcludePatterns)
}

// Owner returns the first repository, in configuration order, whose root
// contains the absolute path. The check is lexical.
func (s Snapshot) Owner(path string) (Repository, bool) {
	if !filepath.IsAbs(path) {
		return Repository{}, false
	}
	for _, repo := range s.Repositories {
		if Contains(repo.Path, path) {
			return repo, true
		}
	}
	return Repository{}, false
}

// Contains reports whether path is root or lies beneath it.
func Contains(root, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// Store is the process-wide holder of the current configuration.
//
// Lifecycle: NewStore publishes the initial snapshot, Reload re-reads the
// bound file and publishes a new one, Close drops all subscribers.
// Subscribers are called synchronously, in registration order, after each
// publish; the returned func unsubscribes.
type Store struct {
	mu     sync.RWMutex
	cfg    *Config
	snap   Snapshot
	subs   map[int]func(Snapshot)
	order  []int
	nextID int
}

// NewStore creates a store holding cfg.
func NewStore(cfg *Config) *Store {
	if cfg == nil {
		cfg = NewConfig()
	}
	return &Store{
		cfg:  cfg,
		snap: cfg.Snapshot(),
		subs: make(map[int]func(Snapshot)),
	}
}

// Snapshot returns the current configuration snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Config returns the current configuration.
// Callers that mutate it must follow up with Replace.
func (s *Store) Config() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Replace publishes cfg as the current configuration and notifies subscribers.
func (s *Store) Replace(cfg *Config) {
	s.mu.Lock()
	s.cfg = cfg
	s.snap = cfg.Snapshot()
	snap := s.snap
	subs := make([]func(Snapshot), 0, len(s.order))
	for _, id := range s.order {
		subs = append(subs, s.subs[id])
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

// Reload re-reads the bound config file. On error the current
// configuration stays in place.
func (s *Store) Reload() error {
	path := s.Config().Path()
	cfg, err := Load(path)
	if err != nil {
		slog.Warn("config_reload_failed", slog.String("path", path), slog.String("error", err.Error()))
		return err
	}
	slog.Info("config_reloaded",
		slog.String("path", path),
		slog.Int("repositories", len(cfg.ValidRepositories())))
	s.Replace(cfg)
	return nil
}

// Subscribe registers fn to be called with every new snapshot.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.order = append(s.order, id)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			for i, v := range s.order {
				if v == id {
					s.order = append(s.order[:i], s.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Close drops all subscribers.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = make(map[int]func(Snapshot))
	s.order = nil
}
