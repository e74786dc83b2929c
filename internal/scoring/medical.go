package scoring

import (
	"fmt"

	"github.com/mwhitfield/carematch/internal/rules"
	"github.com/mwhitfield/carematch/internal/types"
)

// Component shares within the medical/safety score.
const (
	medicalRequirementsShare = 0.60
	medicalSafetyShare       = 0.25
	medicalAccessShare       = 0.15
)

// lowConfidenceUnknownRatio is the fraction of unknown resolutions at
// which a category's answer stops being trustworthy.
const lowConfidenceUnknownRatio = 0.5

// neutralSubScore stands in for a sub-component the data cannot answer.
const neutralSubScore = 50.0

// ScoreMedical scores how well a candidate covers the profile's medical
// and safety needs: the condition and behaviour requirement map, the
// regulator's safety sub-rating, and mobility-driven accessibility.
func ScoreMedical(ctx *Context, rec *types.CandidateRecord) types.CategoryScore {
	var checks []types.CheckResult
	var warnings []string

	// Condition and behaviour requirements through the resolver.
	needs := weightedTally{}
	for _, cond := range ctx.Profile.Conditions {
		for _, req := range ctx.Rules.ConditionRequirements[cond] {
			checks = append(checks, resolveRequirement(ctx, rec, req, &needs, "condition "+cond)...)
		}
	}
	for _, behaviour := range ctx.Profile.Behaviours {
		for _, req := range ctx.Rules.BehaviourRequirements[behaviour] {
			checks = append(checks, resolveRequirement(ctx, rec, req, &needs, "behaviour "+behaviour)...)
		}
	}

	// Accessibility requirements derived from the mobility level.
	access := weightedTally{}
	if ctx.Profile.Mobility != "" {
		for _, req := range ctx.Rules.MobilityRequirements[ctx.Profile.Mobility] {
			checks = append(checks, resolveRequirement(ctx, rec, req, &access, "mobility "+ctx.Profile.Mobility)...)
		}
	}

	// The regulator's safety sub-rating, when published.
	safetyScore := neutralSubScore
	if rating, ok := rec.Rating("safe"); ok {
		if v, mapped := ctx.Rules.RatingValue(rating); mapped {
			safetyScore = v
			checks = append(checks, types.CheckResult{
				Requirement: "regulator_safety_rating",
				Status:      types.StatusMatch,
				Confidence:  1,
				Points:      v * medicalSafetyShare,
				Note:        rating,
			})
		} else {
			checks = append(checks, types.CheckResult{
				Requirement: "regulator_safety_rating",
				Status:      types.StatusUnknown,
				Note:        fmt.Sprintf("unmapped rating %q", rating),
			})
		}
	} else {
		checks = append(checks, types.CheckResult{
			Requirement: "regulator_safety_rating",
			Status:      types.StatusUnknown,
			Note:        "safety rating unpublished",
		})
	}

	score := needs.score()*medicalRequirementsShare +
		safetyScore*medicalSafetyShare +
		access.score()*medicalAccessShare

	resolved := needs
	resolved.checks += access.checks
	resolved.unknowns += access.unknowns
	if ratio := resolved.unknownRatio(); ratio > lowConfidenceUnknownRatio {
		warnings = append(warnings, fmt.Sprintf(
			"low confidence: %.0f%% of medical checks could not be verified from the data", ratio*100))
	}

	return types.CategoryScore{
		Category: types.CategoryMedical,
		Score:    score,
		Checks:   checks,
		Warnings: warnings,
	}
}

// resolveRequirement resolves one requirement (and its paired amenity,
// when declared) into the tally, returning the trail entries.
func resolveRequirement(ctx *Context, rec *types.CandidateRecord, req rules.Requirement, tally *weightedTally, origin string) []types.CheckResult {
	res := ctx.Resolver.ResolveRequired(rec, req.Attribute)
	tally.add(res, req.Weight)
	out := []types.CheckResult{check(res, req.Weight, origin)}

	if req.Amenity != "" {
		amenityRes := ctx.Resolver.ResolveRequired(rec, req.Amenity)
		tally.add(amenityRes, req.AmenityWeight)
		out = append(out, check(amenityRes, req.AmenityWeight, origin+" amenity"))
	}
	return out
}
