// Package scoring implements the category scorers, the dynamic weight
// calculator, the critical-requirement filter and the aggregator that
// turn one candidate and one profile into a scored breakdown.
package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/mwhitfield/carematch/internal/rules"
	"github.com/mwhitfield/carematch/internal/types"
)

// WeightVector maps each category to its fraction of the total score.
// A valid vector sums to 1.0 and carries no negative entries.
type WeightVector map[types.Category]float64

// Sum returns the total weight mass.
func (w WeightVector) Sum() float64 {
	sum := 0.0
	for _, v := range w {
		sum += v
	}
	return sum
}

// Validate checks the vector invariant: non-negative entries summing to
// one within tolerance.
func (w WeightVector) Validate() error {
	for cat, v := range w {
		if v < 0 {
			return fmt.Errorf("weight for %s is negative", cat)
		}
	}
	if diff := math.Abs(w.Sum() - 1.0); diff > 0.001 {
		return fmt.Errorf("weights sum to %.4f, want 1.0", w.Sum())
	}
	return nil
}

// ComputeWeights derives the category weight vector for a profile.
//
// The base vector comes from the ruleset. Every adjustment whose
// trigger matches the profile applies additively (all matched triggers
// stack), then the caller's explicit priorities are added the same way.
// Negative results clamp to zero before the final renormalisation back
// to a sum of exactly 1.0.
func ComputeWeights(rs *rules.Ruleset, profile *types.UserProfile) (WeightVector, []string, error) {
	weights := make(WeightVector, len(rs.BaseWeights))
	for cat, w := range rs.BaseWeights {
		weights[cat] = w
	}

	var applied []string
	for _, adj := range rs.Adjustments {
		if !adj.Trigger.Matches(profile) {
			continue
		}
		applied = append(applied, adj.Name)
		for cat, delta := range adj.Deltas {
			weights[cat] += delta
		}
	}

	if len(profile.Priorities) > 0 {
		// Deterministic application order; additions commute but the
		// applied-trail should not depend on map order.
		cats := make([]types.Category, 0, len(profile.Priorities))
		for cat := range profile.Priorities {
			cats = append(cats, cat)
		}
		sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
		for _, cat := range cats {
			if _, ok := weights[cat]; !ok {
				return nil, nil, fmt.Errorf("priority names unknown category %q", cat)
			}
			weights[cat] += profile.Priorities[cat]
			applied = append(applied, fmt.Sprintf("priority_%s", cat))
		}
	}

	for cat, w := range weights {
		if w < 0 {
			weights[cat] = 0
		}
	}

	sum := weights.Sum()
	if sum <= 0 {
		return nil, nil, fmt.Errorf("adjusted weights sum to %.4f; ruleset adjustments cancel every category", sum)
	}
	for cat := range weights {
		weights[cat] /= sum
	}

	return weights, applied, nil
}
