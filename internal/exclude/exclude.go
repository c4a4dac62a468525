package exclude

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	lru "github.com/hashicorp/golang-lru/v2"
)

// patternCacheSize bounds the number of compiled wildcard patterns kept around.
// Pattern sets are small and stable, so this is rarely hit.
const patternCacheSize = 256

var patternCache *lru.Cache[string, *regexp.Regexp]

func init() {
	cache, err := lru.New[string, *regexp.Regexp](patternCacheSize)
	if err != nil {
		panic(fmt.Sprintf("exclude: failed to create pattern cache: %v", err))
	}
	patternCache = cache
}

// Set is the effective, ordered sequence of patterns for one repository.
type Set []string

// Resolve returns the repository-specific patterns when any are configured,
// otherwise the global patterns. Entries are trimmed and blank ones dropped,
// so ripgrep globs and in-process matching see the same patterns.
func Resolve(repoPatterns, globalPatterns []string) Set {
	if s := compact(repoPatterns); len(s) > 0 {
		return s
	}
	return compact(globalPatterns)
}

func compact(patterns []string) Set {
	out := make(Set, 0, len(patterns))
	for _, p := range patterns {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Excludes reports whether relPath is matched by at least one pattern in the set.
func (s Set) Excludes(relPath string) bool {
	for _, pattern := range s {
		if Match(relPath, pattern) {
			return true
		}
	}
	return false
}

// Match reports whether the repository-relative path is excluded by pattern.
func Match(relPath, pattern string) bool {
	path := normalize(relPath)
	pattern = strings.TrimSpace(normalize(pattern))
	if pattern == "" {
		return false
	}

	if strings.Contains(pattern, "*") {
		return wildcardRegexp(pattern).MatchString(path)
	}

	if strings.Contains(pattern, "/") {
		return path == pattern ||
			strings.HasPrefix(path, pattern+"/") ||
			strings.HasSuffix(path, "/"+pattern)
	}

	// Segment equality, so ".git" never hides ".gitignore".
	for _, segment := range strings.Split(path, "/") {
		if segment != "" && segment == pattern {
			return true
		}
	}
	return false
}

// wildcardRegexp compiles a wildcard pattern anchored at segment boundaries.
func wildcardRegexp(pattern string) *regexp.Regexp {
	if re, ok := patternCache.Get(pattern); ok {
		return re
	}
	escaped := strings.ReplaceAll(regexp.QuoteMeta(pattern), `\*`, ".*")
	re := regexp.MustCompile("(^|/)" + escaped + "($|/)")
	patternCache.Add(pattern, re)
	return re
}

// Validate checks that a pattern is usable both here and as a negated glob
// for ripgrep. Plain and path-shaped patterns are always valid.
func Validate(pattern string) error {
	p := strings.TrimSpace(normalize(pattern))
	if p == "" {
		return fmt.Errorf("empty exclude pattern")
	}
	if strings.Contains(p, "*") && !doublestar.ValidatePattern(p) {
		return fmt.Errorf("invalid exclude pattern %q", pattern)
	}
	return nil
}

func normalize(s string) string {
	return strings.ReplaceAll(s, `\`, "/")
}
