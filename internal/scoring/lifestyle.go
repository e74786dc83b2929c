package scoring

import (
	"github.com/mwhitfield/carematch/internal/types"
)

// ScoreLifestyle scores the amenity and service checklist through the
// same resolver discipline as the medical scorer: confirmed amenities
// earn their weight, proxied ones earn calibrated credit, unknown ones
// keep a reduced contribution in play.
func ScoreLifestyle(ctx *Context, rec *types.CandidateRecord) types.CategoryScore {
	var checks []types.CheckResult
	var warnings []string

	preferred := make(map[string]bool, len(ctx.Profile.PreferredAmenities))
	for _, a := range ctx.Profile.PreferredAmenities {
		preferred[a] = true
	}

	tally := weightedTally{}
	for _, amenity := range ctx.Rules.Amenities {
		weight := amenity.Weight
		note := ""
		if preferred[amenity.Attribute] {
			weight = ctx.Rules.PreferredAmenityWeight
			note = "requested amenity"
			delete(preferred, amenity.Attribute)
		}
		res := ctx.Resolver.ResolveRequired(rec, amenity.Attribute)
		tally.add(res, weight)
		checks = append(checks, check(res, weight, note))
	}

	// Requested amenities outside the standard checklist still count.
	for _, a := range ctx.Profile.PreferredAmenities {
		if !preferred[a] {
			continue
		}
		delete(preferred, a)
		res := ctx.Resolver.ResolveRequired(rec, a)
		tally.add(res, ctx.Rules.PreferredAmenityWeight)
		checks = append(checks, check(res, ctx.Rules.PreferredAmenityWeight, "requested amenity"))
	}

	score := tally.score()
	if tally.checks == 0 {
		score = neutralSubScore
	}
	if ratio := tally.unknownRatio(); ratio > lowConfidenceUnknownRatio {
		warnings = append(warnings, "low confidence: most lifestyle checks could not be verified from the data")
	}

	return types.CategoryScore{
		Category: types.CategoryLifestyle,
		Score:    score,
		Checks:   checks,
		Warnings: warnings,
	}
}
