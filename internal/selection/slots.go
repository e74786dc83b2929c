// Package selection turns scored candidates into a ranked shortlist with
// named recommendation slots.
package selection

import (
	"fmt"
	"sort"

	"github.com/mwhitfield/carematch/internal/rules"
	"github.com/mwhitfield/carematch/internal/types"
)

// slotRule defines one named slot: which candidates qualify for it, how
// qualifiers are ordered (best first), and how the winner is explained.
type slotRule struct {
	slot    types.Slot
	qualify func(c *types.RankedCandidate) bool
	less    func(a, b *types.RankedCandidate) bool
	reason  func(c *types.RankedCandidate) string
}

// assignSlots fills the named slots in presentation order. A candidate
// already holding a slot is skipped for later slots whenever another
// distinct qualifying candidate exists; when it is the only qualifier it
// keeps the later slot too. Slots nobody qualifies for are omitted.
func assignSlots(rs *rules.Ruleset, profile *types.UserProfile, ranked []types.RankedCandidate) []types.SlotAssignment {
	slotRules := []slotRule{
		bestOverallRule(),
		safestRule(),
		bestValueRule(rs, profile),
		bestReviewedRule(ranked),
	}

	assigned := map[string]bool{}
	out := make([]types.SlotAssignment, 0, len(slotRules))

	for _, rule := range slotRules {
		pick := pickForSlot(rule, ranked, assigned)
		if pick == nil {
			continue
		}
		assigned[pick.Breakdown.LocationID] = true
		out = append(out, types.SlotAssignment{
			Slot:       rule.slot,
			LocationID: pick.Breakdown.LocationID,
			Name:       pick.Breakdown.Name,
			Reason:     rule.reason(pick),
		})
	}
	return out
}

func pickForSlot(rule slotRule, ranked []types.RankedCandidate, assigned map[string]bool) *types.RankedCandidate {
	qualifiers := make([]*types.RankedCandidate, 0, len(ranked))
	for i := range ranked {
		if rule.qualify(&ranked[i]) {
			qualifiers = append(qualifiers, &ranked[i])
		}
	}
	if len(qualifiers) == 0 {
		return nil
	}

	sort.SliceStable(qualifiers, func(i, j int) bool {
		return rule.less(qualifiers[i], qualifiers[j])
	})

	for _, q := range qualifiers {
		if !assigned[q.Breakdown.LocationID] {
			return q
		}
	}
	// Every qualifier already holds a slot, so there is no distinct
	// alternative to divert to.
	return qualifiers[0]
}

// tieBreak orders by total score then name then location ID. Every slot
// ordering funnels through this once its own signal is exhausted.
func tieBreak(a, b *types.RankedCandidate) bool {
	if a.Breakdown.Total != b.Breakdown.Total {
		return a.Breakdown.Total > b.Breakdown.Total
	}
	if a.Breakdown.Name != b.Breakdown.Name {
		return a.Breakdown.Name < b.Breakdown.Name
	}
	return a.Breakdown.LocationID < b.Breakdown.LocationID
}

func bestOverallRule() slotRule {
	return slotRule{
		slot:    types.SlotBestOverall,
		qualify: func(*types.RankedCandidate) bool { return true },
		less:    tieBreak,
		reason: func(c *types.RankedCandidate) string {
			return fmt.Sprintf("highest overall match score (%.1f/100)", c.Breakdown.Total)
		},
	}
}

func safestRule() slotRule {
	safety := func(c *types.RankedCandidate) float64 {
		return c.Breakdown.CategoryScoreValue(types.CategoryMedical, 0)
	}
	return slotRule{
		slot:    types.SlotSafest,
		qualify: func(*types.RankedCandidate) bool { return true },
		less: func(a, b *types.RankedCandidate) bool {
			if safety(a) != safety(b) {
				return safety(a) > safety(b)
			}
			return tieBreak(a, b)
		},
		reason: func(c *types.RankedCandidate) string {
			return fmt.Sprintf("strongest medical and safety fit (%.0f/100) at overall score %.1f", safety(c), c.Breakdown.Total)
		},
	}
}

// bestValueRule ranks by score per pound of weekly fee. Only candidates
// with a usable price qualify, and when the profile states a budget the
// price must sit within the ruleset's widest tolerated band of it.
func bestValueRule(rs *rules.Ruleset, profile *types.UserProfile) slotRule {
	stretch := defaultBudgetStretch
	if n := len(rs.PriceBands); n > 0 {
		stretch = rs.PriceBands[n-1].MaxRatio
	}

	price := func(c *types.RankedCandidate) (float64, bool) {
		if c.Candidate == nil {
			return 0, false
		}
		for _, careType := range rs.PriceChain(profile.CareType) {
			if p, ok := c.Candidate.WeeklyPrice(careType); ok {
				return p, true
			}
		}
		return 0, false
	}
	perPound := func(c *types.RankedCandidate) float64 {
		p, ok := price(c)
		if !ok || p <= 0 {
			return 0
		}
		return c.Breakdown.Total / p
	}

	return slotRule{
		slot: types.SlotBestValue,
		qualify: func(c *types.RankedCandidate) bool {
			p, ok := price(c)
			if !ok {
				return false
			}
			if profile.WeeklyBudget != nil && *profile.WeeklyBudget > 0 {
				return p <= *profile.WeeklyBudget*stretch
			}
			return true
		},
		less: func(a, b *types.RankedCandidate) bool {
			if perPound(a) != perPound(b) {
				return perPound(a) > perPound(b)
			}
			return tieBreak(a, b)
		},
		reason: func(c *types.RankedCandidate) string {
			p, _ := price(c)
			return fmt.Sprintf("scores %.1f at £%.0f per week", c.Breakdown.Total, p)
		},
	}
}

// bestReviewedRule prefers genuine directory reviews when any candidate in
// the set carries enough of them; otherwise it falls back to the published
// quality ratings so the slot still means something.
func bestReviewedRule(ranked []types.RankedCandidate) slotRule {
	reviewed := func(c *types.RankedCandidate) bool {
		return c.Candidate != nil &&
			c.Candidate.ReviewScore != nil &&
			c.Candidate.ReviewCount != nil &&
			*c.Candidate.ReviewCount >= minReviewCount
	}

	anyReviewed := false
	for i := range ranked {
		if reviewed(&ranked[i]) {
			anyReviewed = true
			break
		}
	}

	if !anyReviewed {
		quality := func(c *types.RankedCandidate) float64 {
			return c.Breakdown.CategoryScoreValue(types.CategoryQuality, 0)
		}
		return slotRule{
			slot:    types.SlotBestReviewed,
			qualify: func(*types.RankedCandidate) bool { return true },
			less: func(a, b *types.RankedCandidate) bool {
				if quality(a) != quality(b) {
					return quality(a) > quality(b)
				}
				return tieBreak(a, b)
			},
			reason: func(c *types.RankedCandidate) string {
				return fmt.Sprintf("strongest published quality ratings (%.0f/100)", quality(c))
			},
		}
	}

	return slotRule{
		slot:    types.SlotBestReviewed,
		qualify: reviewed,
		less: func(a, b *types.RankedCandidate) bool {
			as, bs := *a.Candidate.ReviewScore, *b.Candidate.ReviewScore
			if as != bs {
				return as > bs
			}
			ac, bc := *a.Candidate.ReviewCount, *b.Candidate.ReviewCount
			if ac != bc {
				return ac > bc
			}
			return tieBreak(a, b)
		},
		reason: func(c *types.RankedCandidate) string {
			return fmt.Sprintf("rated %.1f by %d reviewers", *c.Candidate.ReviewScore, *c.Candidate.ReviewCount)
		},
	}
}
