package preflight

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Aman-CERP/kbsearch/internal/config"
	"github.com/Aman-CERP/kbsearch/internal/logging"
	"github.com/Aman-CERP/kbsearch/internal/search"
)

// CheckStatus is the outcome of one doctor check. Its JSON form is the
// lower-case value; String renders the upper-case label used on terminals.
type CheckStatus string

const (
	StatusPass CheckStatus = "pass"
	StatusWarn CheckStatus = "warn"
	StatusFail CheckStatus = "fail"
)

func (s CheckStatus) String() string {
	if s == "" {
		return "UNKNOWN"
	}
	return strings.ToUpper(string(s))
}

// CheckResult is the outcome of a single named check.
type CheckResult struct {
	Name     string      `json:"name"`
	Status   CheckStatus `json:"status"`
	Message  string      `json:"message"`
	Details  string      `json:"details,omitempty"`
	Required bool        `json:"required"`
}

// IsCritical reports whether a required check failed.
func (r CheckResult) IsCritical() bool {
	return r.Required && r.Status == StatusFail
}

func (r CheckResult) line() string {
	return r.Name + ": " + r.Message
}

// Report groups check results under an overall verdict.
type Report struct {
	Status   string        `json:"status"`
	Checks   []CheckResult `json:"checks"`
	Warnings []string      `json:"warnings,omitempty"`
	Errors   []string      `json:"errors,omitempty"`
}

// Summarize builds a Report. Any critical failure makes the verdict
// "failed"; any other non-passing result makes it "ready_with_warnings".
func Summarize(results []CheckResult) Report {
	rep := Report{Status: "ready", Checks: results}
	for _, r := range results {
		switch {
		case r.IsCritical():
			rep.Errors = append(rep.Errors, r.line())
		case r.Status != StatusPass:
			rep.Warnings = append(rep.Warnings, r.line())
		}
	}
	if len(rep.Errors) > 0 {
		rep.Status = "failed"
	} else if len(rep.Warnings) > 0 {
		rep.Status = "ready_with_warnings"
	}
	return rep
}

// Checker runs the doctor checks.
type Checker struct {
	verbose bool
	output  io.Writer
	probe   search.ToolProbe
	logDir  string
}

// Option configures a Checker.
type Option func(*Checker)

// WithVerbose prints check details.
func WithVerbose(verbose bool) Option {
	return func(c *Checker) { c.verbose = verbose }
}

// WithOutput sets where PrintResults writes.
func WithOutput(w io.Writer) Option {
	return func(c *Checker) { c.output = w }
}

// WithToolProbe replaces the ripgrep probe.
func WithToolProbe(p search.ToolProbe) Option {
	return func(c *Checker) { c.probe = p }
}

// WithLogDir sets the directory checked for write access.
func WithLogDir(dir string) Option {
	return func(c *Checker) { c.logDir = dir }
}

func New(opts ...Option) *Checker {
	c := &Checker{
		output: os.Stdout,
		probe:  search.DefaultToolProbe,
		logDir: logging.DefaultLogDir(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RunAll runs every check against cfg in display order.
func (c *Checker) RunAll(_ context.Context, cfg *config.Config) []CheckResult {
	results := []CheckResult{
		c.CheckConfigFile(cfg),
		c.CheckExcludePatterns(cfg),
		c.CheckRipgrep(cfg.Search),
	}
	results = append(results, c.CheckRepositories(cfg)...)
	return append(results,
		c.CheckWritePermissions(c.logDir),
		c.CheckFileDescriptors(),
	)
}

// HasCriticalFailures reports whether any required check failed.
func (c *Checker) HasCriticalFailures(results []CheckResult) bool {
	return len(Summarize(results).Errors) > 0
}

// SummaryStatus is the overall verdict: ready, ready_with_warnings or failed.
func (c *Checker) SummaryStatus(results []CheckResult) string {
	return Summarize(results).Status
}

// PrintResults writes a human readable report.
func (c *Checker) PrintResults(results []CheckResult) {
	rep := Summarize(results)
	w := c.output

	fmt.Fprintf(w, "kbsearch doctor\n\n")
	for _, r := range results {
		fmt.Fprintf(w, "[%s] %s\n", r.Status, r.line())
		if c.verbose && r.Details != "" {
			fmt.Fprintf(w, "       %s\n", r.Details)
		}
	}
	fmt.Fprintf(w, "\nStatus: %s\n", strings.ToUpper(rep.Status))

	printList(w, "error(s)", rep.Errors)
	printList(w, "warning(s)", rep.Warnings)
}

func printList(w io.Writer, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%d %s:\n", len(items), label)
	for _, item := range items {
		fmt.Fprintf(w, "  - %s\n", item)
	}
}

// CheckWritePermissions checks that logs can be written under dir.
func (c *Checker) CheckWritePermissions(dir string) CheckResult {
	result := CheckResult{
		Name:    "log_directory",
		Details: dir,
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("cannot create %s: %v", dir, err)
		return result
	}

	testFile := filepath.Join(dir, ".kbsearch-preflight-test")
	f, err := os.Create(testFile)
	if err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("permission denied: %v", err)
		return result
	}
	_ = f.Close()
	_ = os.Remove(testFile)

	result.Status = StatusPass
	result.Message = "writable"
	return result
}
