package config

import (
	"fmt"
	"strings"

	"github.com/hbollon/go-edlib"

	kberrors "github.com/Aman-CERP/kbsearch/internal/errors"
)

// ClosestRepositoryName returns the configured name nearest to input by
// Levenshtein distance, ignoring case. Names further than a third of the
// input length (at least 2 edits) are not considered close.
func ClosestRepositoryName(repos []Repository, input string) (string, bool) {
	want := strings.ToLower(strings.TrimSpace(input))
	if want == "" {
		return "", false
	}

	best, bestDistance := "", -1
	for _, repo := range repos {
		if repo.Name == "" {
			continue
		}
		d := edlib.LevenshteinDistance(want, strings.ToLower(repo.Name))
		if bestDistance < 0 || d < bestDistance {
			best, bestDistance = repo.Name, d
		}
	}
	if bestDistance < 0 || bestDistance > max(2, len([]rune(want))/3) {
		return "", false
	}
	return best, true
}

// UnknownRepositoryError reports that nameOrPath matches no repository in
// repos. hint tells the caller how to list them.
func UnknownRepositoryError(nameOrPath string, repos []Repository, hint string) *kberrors.KBError {
	err := kberrors.New(kberrors.ErrCodeUnknownRepository,
		fmt.Sprintf("unknown repository: %s", nameOrPath), nil)
	if name, ok := ClosestRepositoryName(repos, nameOrPath); ok {
		return err.WithSuggestion(fmt.Sprintf("did you mean %q? %s", name, hint))
	}
	return err.WithSuggestion(hint)
}
