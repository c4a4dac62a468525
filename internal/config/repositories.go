package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"

	kberrors "github.com/Aman-CERP/kbsearch/internal/errors"
)

// FindRepository looks a repository up by name or path.
func (c *Config) FindRepository(nameOrPath string) (Repository, bool) {
	for _, repo := range c.ValidRepositories() {
		if repo.Name == nameOrPath || repo.Path == nameOrPath {
			return repo, true
		}
	}
	return Repository{}, false
}

// AddRepository appends repo to the configuration.
// The path is made absolute and must be an existing directory; both name
// and path must be unique.
func (c *Config) AddRepository(repo Repository) error {
	if repo.Name == "" {
		return kberrors.ValidationError("repository name is required", nil)
	}
	abs, err := filepath.Abs(repo.Path)
	if err != nil {
		return kberrors.New(kberrors.ErrCodeInvalidPath, fmt.Sprintf("invalid repository path %s", repo.Path), err)
	}
	repo.Path = abs
	if !dirExists(abs) {
		return kberrors.New(kberrors.ErrCodeInvalidPath, fmt.Sprintf("repository path is not a directory: %s", abs), nil)
	}

	for _, existing := range c.ValidRepositories() {
		if existing.Path == repo.Path || existing.Name == repo.Name {
			return kberrors.New(kberrors.ErrCodeDuplicateRepository,
				fmt.Sprintf("repository already exists: %s", repo.Name), nil).
				WithSuggestion("pick another name or remove the existing entry first")
		}
	}
	if err := validatePatterns(repo.ExcludePatterns); err != nil {
		return err
	}

	c.Repositories = append(c.Repositories, repo)
	return nil
}

// RemoveRepository removes the repository with the given name or path.
func (c *Config) RemoveRepository(nameOrPath string) error {
	kept := make([]Repository, 0, len(c.Repositories))
	removed := false
	for _, repo := range c.Repositories {
		if repo.Path == nameOrPath || (repo.Name != "" && repo.Name == nameOrPath) {
			removed = true
			continue
		}
		kept = append(kept, repo)
	}
	if !removed {
		return UnknownRepositoryError(nameOrPath, c.Repositories,
			"run 'kbsearch repo list' to see configured repositories")
	}
	c.Repositories = kept
	return nil
}

// RenameRepository rebinds the repository at path to a new name and root,
// keeping its position and exclusion patterns.
func (c *Config) RenameRepository(path, newName, newPath string) error {
	idx := -1
	for i, repo := range c.Repositories {
		if repo.Path == path {
			idx = i
			continue
		}
		if (repo.Name != "" && repo.Name == newName) || repo.Path == newPath {
			return kberrors.New(kberrors.ErrCodeDuplicateRepository,
				fmt.Sprintf("repository already exists: %s", newName), nil)
		}
	}
	if idx < 0 {
		return UnknownRepositoryError(path, c.Repositories,
			"run 'kbsearch repo list' to see configured repositories")
	}
	c.Repositories[idx].Name = newName
	c.Repositories[idx].Path = newPath
	return nil
}

// Save writes the configuration to its bound path.
// Writers are serialized through an exclusive lock file next to the config,
// and the previous file is kept as a timestamped backup.
func (c *Config) Save() error {
	if c.path == "" {
		return kberrors.InternalError("config has no file path", nil)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return kberrors.New(kberrors.ErrCodeConfigPermission, "failed to create config directory", err)
	}

	lock := flock.New(c.path + ".lock")
	if err := lock.Lock(); err != nil {
		return kberrors.New(kberrors.ErrCodeConfigLocked, "failed to lock config file", err)
	}
	defer func() { _ = lock.Unlock() }()

	data, err := c.encode()
	if err != nil {
		return kberrors.InternalError("failed to marshal config", err)
	}

	if _, err := BackupFile(c.path); err != nil {
		return err
	}

	// Write to a temp file and rename so readers never see a partial file.
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return kberrors.New(kberrors.ErrCodeConfigPermission, "failed to write config file", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		_ = os.Remove(tmp)
		return kberrors.New(kberrors.ErrCodeConfigPermission, "failed to replace config file", err)
	}
	return nil
}

func (c *Config) encode() ([]byte, error) {
	if strings.EqualFold(filepath.Ext(c.path), ".toml") {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return yaml.Marshal(c)
}
