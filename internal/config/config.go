// Package config loads, validates and persists the kbsearch configuration:
// the ordered repository list and the global exclusion patterns.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	kberrors "github.com/Aman-CERP/kbsearch/internal/errors"
	"github.com/Aman-CERP/kbsearch/internal/exclude"
)

// Config represents the complete kbsearch configuration.
type Config struct {
	Version         int          `yaml:"version" json:"version" toml:"version"`
	Repositories    []Repository `yaml:"repositories" json:"repositories" toml:"repositories"`
	ExcludePatterns []string     `yaml:"exclude_patterns" json:"exclude_patterns" toml:"exclude_patterns"`
	Search          SearchConfig `yaml:"search" json:"search" toml:"search"`
	Logging         LogConfig    `yaml:"logging" json:"logging" toml:"logging"`

	// path is the file the configuration was loaded from and is saved to.
	path string
}

// Repository is one configured search root. Identity is Path.
type Repository struct {
	Name            string   `yaml:"name" json:"name" toml:"name"`
	Path            string   `yaml:"path" json:"path" toml:"path"`
	ExcludePatterns []string `yaml:"exclude_patterns,omitempty" json:"exclude_patterns,omitempty" toml:"exclude_patterns,omitempty"`
}

// SearchConfig tunes the search engine.
type SearchConfig struct {
	// MaxConcurrency bounds parallel per-repository work (0 = NumCPU).
	MaxConcurrency int `yaml:"max_concurrency" json:"max_concurrency" toml:"max_concurrency"`

	// Timeout bounds a whole search call (e.g. "60s").
	Timeout string `yaml:"timeout" json:"timeout" toml:"timeout"`

	// ToolTimeout bounds a single ripgrep process (e.g. "30s").
	ToolTimeout string `yaml:"tool_timeout" json:"tool_timeout" toml:"tool_timeout"`

	// RipgrepPath is an explicit rg executable, probed before the defaults.
	RipgrepPath string `yaml:"ripgrep_path" json:"ripgrep_path" toml:"ripgrep_path"`

	// AppRoot is an installation root probed for a bundled rg.
	AppRoot string `yaml:"app_root" json:"app_root" toml:"app_root"`

	// DisableTool forces the fallback scanner.
	DisableTool bool `yaml:"disable_tool" json:"disable_tool" toml:"disable_tool"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level" json:"level" toml:"level"`
	File  string `yaml:"file" json:"file" toml:"file"`
}

// defaultExcludePatterns apply when neither the user nor a repository
// configures any.
var defaultExcludePatterns = []string{
	".git",
	"node_modules",
}

const (
	defaultTimeout     = 60 * time.Second
	defaultToolTimeout = 30 * time.Second
)

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version:         1,
		Repositories:    []Repository{},
		ExcludePatterns: append([]string(nil), defaultExcludePatterns...),
		Search: SearchConfig{
			MaxConcurrency: runtime.NumCPU(),
			Timeout:        defaultTimeout.String(),
			ToolTimeout:    defaultToolTimeout.String(),
		},
		Logging: LogConfig{
			Level: "info",
		},
	}
}

// GetUserConfigPath returns the path to the user configuration file.
// It follows XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/kbsearch/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/kbsearch/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "kbsearch", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "kbsearch", "config.yaml")
	}
	return filepath.Join(home, ".config", "kbsearch", "config.yaml")
}

// Load loads configuration from path (the user config file when empty).
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. The config file, if it exists (.yaml, .yml or .toml)
//  3. Environment variables (KBSEARCH_*)
func Load(path string) (*Config, error) {
	if path == "" {
		path = GetUserConfigPath()
	}

	cfg := NewConfig()
	cfg.path = path

	if fileExists(path) {
		parsed, err := parseFile(path)
		if err != nil {
			return nil, err
		}
		cfg.mergeWith(parsed)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// parseFile decodes a config file, choosing the format by extension.
func parseFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, kberrors.New(kberrors.ErrCodeConfigPermission,
			fmt.Sprintf("failed to read config file %s", path), err)
	}

	var parsed Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), &parsed); err != nil {
			return nil, kberrors.ConfigError(fmt.Sprintf("failed to parse config file %s", path), err)
		}
	default:
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return nil, kberrors.ConfigError(fmt.Sprintf("failed to parse config file %s", path), err)
		}
	}
	return &parsed, nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	// Lists replace rather than append: the file is the source of truth.
	if other.Repositories != nil {
		c.Repositories = other.Repositories
	}
	if other.ExcludePatterns != nil {
		c.ExcludePatterns = other.ExcludePatterns
	}

	if other.Search.MaxConcurrency != 0 {
		c.Search.MaxConcurrency = other.Search.MaxConcurrency
	}
	if other.Search.Timeout != "" {
		c.Search.Timeout = other.Search.Timeout
	}
	if other.Search.ToolTimeout != "" {
		c.Search.ToolTimeout = other.Search.ToolTimeout
	}
	if other.Search.RipgrepPath != "" {
		c.Search.RipgrepPath = other.Search.RipgrepPath
	}
	if other.Search.AppRoot != "" {
		c.Search.AppRoot = other.Search.AppRoot
	}
	if other.Search.DisableTool {
		c.Search.DisableTool = true
	}

	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.File != "" {
		c.Logging.File = other.Logging.File
	}
}

// applyEnvOverrides applies KBSEARCH_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("KBSEARCH_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("KBSEARCH_RG_PATH"); v != "" {
		c.Search.RipgrepPath = v
	}
	if v := os.Getenv("KBSEARCH_MAX_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Search.MaxConcurrency = n
		}
	}
	if v := os.Getenv("KBSEARCH_DISABLE_TOOL"); v != "" {
		c.Search.DisableTool = strings.ToLower(v) == "true" || v == "1"
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	names := make(map[string]bool, len(c.Repositories))
	paths := make(map[string]bool, len(c.Repositories))
	for i, repo := range c.Repositories {
		if repo.Name == "" || repo.Path == "" {
			// Incomplete entries are ignored, see Repositories.
			continue
		}
		if !filepath.IsAbs(repo.Path) {
			return kberrors.New(kberrors.ErrCodeInvalidPath,
				fmt.Sprintf("repositories[%d].path must be absolute, got %s", i, repo.Path), nil)
		}
		if names[repo.Name] || paths[repo.Path] {
			return kberrors.New(kberrors.ErrCodeDuplicateRepository,
				fmt.Sprintf("duplicate repository: %s", repo.Name), nil)
		}
		names[repo.Name] = true
		paths[repo.Path] = true
		if err := validatePatterns(repo.ExcludePatterns); err != nil {
			return err.WithDetail("repository", repo.Name)
		}
	}

	if err := validatePatterns(c.ExcludePatterns); err != nil {
		return err
	}

	if c.Search.MaxConcurrency < 0 {
		return kberrors.ConfigError(
			fmt.Sprintf("search.max_concurrency must be non-negative, got %d", c.Search.MaxConcurrency), nil)
	}
	if _, err := parseDuration(c.Search.Timeout); err != nil {
		return kberrors.ConfigError(fmt.Sprintf("search.timeout: %v", err), err)
	}
	if _, err := parseDuration(c.Search.ToolTimeout); err != nil {
		return kberrors.ConfigError(fmt.Sprintf("search.tool_timeout: %v", err), err)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return kberrors.ConfigError(
			fmt.Sprintf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level), nil)
	}

	return nil
}

func validatePatterns(patterns []string) *kberrors.KBError {
	for _, p := range patterns {
		if p == "" {
			continue
		}
		if err := exclude.Validate(p); err != nil {
			return kberrors.New(kberrors.ErrCodeInvalidPattern, err.Error(), err).
				WithDetail("pattern", p)
		}
	}
	return nil
}

// Path returns the file this configuration is bound to.
func (c *Config) Path() string {
	return c.path
}

// SetPath rebinds the configuration to a different file.
func (c *Config) SetPath(path string) {
	c.path = path
}

// ValidRepositories returns the configured repositories in order, skipping
// entries without a name or path.
func (c *Config) ValidRepositories() []Repository {
	out := make([]Repository, 0, len(c.Repositories))
	for _, repo := range c.Repositories {
		if repo.Name != "" && repo.Path != "" {
			out = append(out, repo)
		}
	}
	return out
}

// ExcludePatternsFor returns the effective exclusion patterns for repo.
func (c *Config) ExcludePatternsFor(repo Repository) exclude.Set {
	return exclude.Resolve(repo.ExcludePatterns, c.ExcludePatterns)
}

// TimeoutDuration returns the per-search timeout.
func (s SearchConfig) TimeoutDuration() time.Duration {
	if d, err := parseDuration(s.Timeout); err == nil && d > 0 {
		return d
	}
	return defaultTimeout
}

// ToolTimeoutDuration returns the per-process ripgrep timeout.
func (s SearchConfig) ToolTimeoutDuration() time.Duration {
	if d, err := parseDuration(s.ToolTimeout); err == nil && d > 0 {
		return d
	}
	return defaultToolTimeout
}

// parseDuration accepts "" (use the default) and Go durations.
func parseDuration(s string) (time.Duration, error) {
	if s == "" || s == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be non-negative, got %s", s)
	}
	return d, nil
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// dirExists checks if a directory exists.
func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
