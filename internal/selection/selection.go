// Package selection turns scored candidates into a ranked shortlist with
// named recommendation slots.
package selection

import (
	"sort"

	"github.com/mwhitfield/carematch/internal/rules"
	"github.com/mwhitfield/carematch/internal/types"
)

const (
	// defaultTopK caps the ranked shortlist when the caller does not ask
	// for a specific length.
	defaultTopK = 10
	// minReviewCount is the fewest directory reviews a candidate needs
	// before its review score can win the best-reviewed slot on its own.
	minReviewCount = 3
	// defaultBudgetStretch bounds best-value qualification when the
	// ruleset carries no price bands.
	defaultBudgetStretch = 1.25
)

// Rank orders scored candidates by total score, best first, and assigns
// 1-based ranks. Ties fall back to name then location ID so equal scores
// still produce a stable, reproducible order.
func Rank(scored []types.RankedCandidate) []types.RankedCandidate {
	ranked := make([]types.RankedCandidate, len(scored))
	copy(ranked, scored)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i].Breakdown, ranked[j].Breakdown
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.LocationID < b.LocationID
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// Select produces the ranked shortlist and the named slot assignments for
// one matching run. k caps the shortlist length. Slots are decided over the
// full scored set, not the truncated shortlist, so a strong specialist just
// outside the top k can still win its slot.
func Select(rs *rules.Ruleset, profile *types.UserProfile, scored []types.RankedCandidate, k int) ([]types.RankedCandidate, []types.SlotAssignment) {
	ranked := Rank(scored)
	slots := assignSlots(rs, profile, ranked)

	if k <= 0 {
		k = defaultTopK
	}
	if len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked, slots
}
