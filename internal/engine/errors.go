// Package engine orchestrates one matching run: radius pre-filter,
// critical-requirement filter, parallel scoring, ranking and slot
// selection over an in-memory candidate batch.
package engine

import (
	"fmt"
	"sort"

	"github.com/mwhitfield/carematch/internal/types"
)

// InsufficientCandidatesError reports a run whose filtered pool came up
// short of the caller's minimum. It carries the run diagnostics and
// concrete relaxation hints so callers can tell "too strict" apart from
// "nothing to search".
type InsufficientCandidatesError struct {
	Scored      int
	Required    int
	Diagnostics types.RunDiagnostics
	Hints       []string
}

func (e *InsufficientCandidatesError) Error() string {
	return fmt.Sprintf("only %d candidates survived filtering, %d required", e.Scored, e.Required)
}

// relaxationHints reads the attrition counters and suggests what to loosen.
func relaxationHints(profile *types.UserProfile, diag types.RunDiagnostics) []string {
	if diag.CandidatesIn == 0 {
		return []string{"no candidates were supplied; check the dataset inputs"}
	}

	var hints []string
	if diag.OutOfRadius > 0 {
		hints = append(hints, fmt.Sprintf(
			"%d homes sit outside the %.0f mile search radius; widening it would add them",
			diag.OutOfRadius, profile.SearchRadiusMiles))
	}

	if attr, n := worstDisqualifier(diag.DisqualifiedBy); attr != "" {
		hints = append(hints, fmt.Sprintf(
			"%d homes were excluded for explicitly lacking %s; review whether it is truly non-negotiable",
			n, attr))
	}

	if diag.Failed > 0 {
		hints = append(hints, fmt.Sprintf("%d records failed scoring; see diagnostics failures", diag.Failed))
	}
	return hints
}

// worstDisqualifier picks the attribute that excluded the most homes,
// breaking count ties alphabetically so hints are reproducible.
func worstDisqualifier(byAttr map[string]int) (string, int) {
	attrs := make([]string, 0, len(byAttr))
	for a := range byAttr {
		attrs = append(attrs, a)
	}
	sort.Strings(attrs)

	best, n := "", 0
	for _, a := range attrs {
		if byAttr[a] > n {
			best, n = a, byAttr[a]
		}
	}
	return best, n
}
