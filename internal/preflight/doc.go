// Package preflight runs the diagnostics behind `kbsearch doctor`.
//
// The package validates:
//   - The configuration file and its exclusion patterns
//   - ripgrep availability (the built-in scanner is used without it)
//   - Every configured repository path
//   - Write access to the log directory
//   - File descriptor limits
//
// Use the Checker type to run all validations:
//
//	checker := preflight.New()
//	results := checker.RunAll(ctx, cfg)
//	if checker.HasCriticalFailures(results) {
//	    // Handle failures
//	}
package preflight
