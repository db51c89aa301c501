package match

import (
	"sort"
	"strings"
)

// Overlap computes the lexical overlap between a project's declared
// tech-stack/tags and a repo's topics+language. Terms are case-folded.
// Returns a score in [0,1] and the matched terms sorted for deterministic
// display. Either side empty means no overlap is computable, not an error.
func Overlap(projectTerms, repoTerms []string) (float64, []string) {
	pset := termSet(projectTerms)
	rset := termSet(repoTerms)
	if len(pset) == 0 || len(rset) == 0 {
		return 0, nil
	}

	var matched []string
	for t := range pset {
		if rset[t] {
			matched = append(matched, t)
		}
	}
	if len(matched) == 0 {
		return 0, nil
	}
	sort.Strings(matched)

	score := float64(len(matched)) / float64(max(len(pset), 1))
	return min(1.0, score), matched
}

func termSet(terms []string) map[string]bool {
	set := make(map[string]bool, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			set[t] = true
		}
	}
	return set
}
