// Package exclude decides whether a repository-relative path is hidden by a
// configured exclusion pattern.
//
// Three pattern shapes are supported:
//   - Plain names (node_modules, .git) match a whole path segment exactly.
//   - Path-shaped patterns (docs/drafts) match the path itself, anything
//     beneath it, or a path ending in it.
//   - Wildcard patterns (*.png, build*) match one or more whole segments.
//
// The same rules drive both content search and directory browsing.
//
// Usage:
//
//	set := exclude.Resolve(repo.ExcludePatterns, cfg.ExcludePatterns)
//	if set.Excludes("node_modules/left-pad/index.js") {
//	    // skip
//	}
package exclude
