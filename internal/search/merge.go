package search

// Merge combines content and filename matches. Content matches keep their
// order; each filename match is appended unless a result with the same key
// is already present. Within either list only the first result for a key
// is kept, so overlapping repositories never report a line twice. Merge is
// idempotent and never returns nil.
func Merge(content, fileNames []MatchResult) []MatchResult {
	merged := make([]MatchResult, 0, len(content)+len(fileNames))
	seen := make(map[string]struct{}, len(content)+len(fileNames))

	for _, list := range [][]MatchResult{content, fileNames} {
		for _, r := range list {
			key := r.Key()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, r)
		}
	}
	return merged
}
