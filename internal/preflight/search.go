package preflight

import (
	"fmt"
	"os"
	"strings"

	"github.com/Aman-CERP/kbsearch/internal/config"
	"github.com/Aman-CERP/kbsearch/internal/exclude"
	"github.com/Aman-CERP/kbsearch/internal/scanner"
	"github.com/Aman-CERP/kbsearch/internal/search"
)

// CheckConfigFile reports where the configuration came from.
func (c *Checker) CheckConfigFile(cfg *config.Config) CheckResult {
	result := CheckResult{
		Name:    "config",
		Details: cfg.Path(),
	}

	if _, err := os.Stat(cfg.Path()); err != nil {
		result.Status = StatusWarn
		result.Message = "no config file, using defaults"
		return result
	}

	result.Status = StatusPass
	result.Message = cfg.Path()
	return result
}

// CheckExcludePatterns validates every global and per-repository pattern.
func (c *Checker) CheckExcludePatterns(cfg *config.Config) CheckResult {
	result := CheckResult{
		Name:     "exclude_patterns",
		Required: true,
	}

	var bad []string
	check := func(owner string, patterns []string) {
		for _, p := range patterns {
			if err := exclude.Validate(p); err != nil {
				bad = append(bad, fmt.Sprintf("%s: %q", owner, p))
			}
		}
	}
	check("global", cfg.ExcludePatterns)
	for _, repo := range cfg.Repositories {
		check(repo.Name, repo.ExcludePatterns)
	}

	if len(bad) > 0 {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("%d invalid pattern(s)", len(bad))
		result.Details = strings.Join(bad, ", ")
		return result
	}

	result.Status = StatusPass
	result.Message = fmt.Sprintf("%d global pattern(s)", len(cfg.ExcludePatterns))
	return result
}

// CheckRipgrep reports which content search strategy will be used.
func (c *Checker) CheckRipgrep(cfg config.SearchConfig) CheckResult {
	result := CheckResult{
		Name:    "ripgrep",
		Details: strings.Join(search.RipgrepCandidates(cfg), ", "),
	}

	if cfg.DisableTool {
		result.Status = StatusPass
		result.Message = "disabled, using built-in scanner"
		return result
	}

	path, ok := c.probe(cfg)
	if !ok {
		result.Status = StatusWarn
		result.Message = "not found, using built-in scanner (slower)"
		return result
	}

	result.Status = StatusPass
	result.Message = path
	return result
}

// CheckRepositories returns one result per configured repository, or a
// warning when none is configured.
func (c *Checker) CheckRepositories(cfg *config.Config) []CheckResult {
	if len(cfg.Repositories) == 0 {
		return []CheckResult{{
			Name:    "repositories",
			Status:  StatusWarn,
			Message: "none configured",
			Details: "add one with 'kbsearch repo add <path>'",
		}}
	}

	results := make([]CheckResult, 0, len(cfg.Repositories))
	for _, repo := range cfg.Repositories {
		result := CheckResult{
			Name:    "repository " + repo.Name,
			Details: repo.Path,
		}

		info, err := os.Stat(repo.Path)
		switch {
		case err != nil:
			result.Status = StatusWarn
			result.Message = "path does not exist: " + repo.Path
		case !info.IsDir():
			result.Status = StatusWarn
			result.Message = "not a directory: " + repo.Path
		default:
			entries, err := scanner.ListDir(repo.Path)
			if err != nil {
				result.Status = StatusWarn
				result.Message = "cannot list: " + err.Error()
			} else {
				result.Status = StatusPass
				result.Message = fmt.Sprintf("%s (%d entries)", repo.Path, len(entries))
			}
		}
		results = append(results, result)
	}
	return results
}
