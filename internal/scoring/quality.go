package scoring

import (
	"fmt"
	"sort"
	"time"

	"github.com/mwhitfield/carematch/internal/types"
)

// The overall rating speaks for the whole service, so it carries twice
// the weight of any single sub-dimension.
const (
	overallRatingWeight = 2.0
	subRatingWeight     = 1.0
)

// ScoreQuality scores the regulator's published ratings. Every
// published sub-dimension contributes, mapped onto the ruleset's
// numeric scale, and a recent inspection earns a freshness bonus on
// the grounds that an old Good says less than a new one.
func ScoreQuality(ctx *Context, rec *types.CandidateRecord) types.CategoryScore {
	var checks []types.CheckResult
	var warnings []string

	domains := make([]string, 0, len(rec.Ratings))
	for domain := range rec.Ratings {
		domains = append(domains, domain)
	}
	sort.Strings(domains)

	weighted, mass := 0.0, 0.0
	for _, domain := range domains {
		rating := rec.Ratings[domain]
		if rating == "" {
			continue
		}
		w := subRatingWeight
		if domain == "overall" {
			w = overallRatingWeight
		}
		v, ok := ctx.Rules.RatingValue(rating)
		if !ok {
			checks = append(checks, types.CheckResult{
				Requirement: "rating_" + domain,
				Status:      types.StatusUnknown,
				Note:        fmt.Sprintf("unmapped rating %q", rating),
			})
			continue
		}
		weighted += v * w
		mass += w
		checks = append(checks, types.CheckResult{
			Requirement: "rating_" + domain,
			Status:      types.StatusMatch,
			Confidence:  1,
			Points:      v * w,
			Note:        rating,
		})
	}

	score := neutralSubScore
	if mass > 0 {
		score = weighted / mass
	} else {
		warnings = append(warnings, "no published ratings; quality score is neutral")
	}

	// Freshness bonus.
	if rec.LastInspection != nil {
		months := monthsSince(ctx.Now, *rec.LastInspection)
		bonus := 0.0
		fb := ctx.Rules.FreshnessBonus
		switch {
		case months <= fb.FullWithinMonths:
			bonus = fb.FullPoints
		case months <= fb.PartialWithinMonths:
			bonus = fb.PartialPoints
		case months <= fb.MinimalWithinMonths:
			bonus = fb.MinimalPoints
		}
		if mass > 0 && bonus > 0 {
			score += bonus
			if score > 100 {
				score = 100
			}
		}
		checks = append(checks, types.CheckResult{
			Requirement: "inspection_freshness",
			Status:      types.StatusMatch,
			Confidence:  1,
			Points:      bonus,
			Note:        fmt.Sprintf("last inspection %d months ago", months),
		})
	} else {
		checks = append(checks, types.CheckResult{
			Requirement: "inspection_freshness",
			Status:      types.StatusUnknown,
			Note:        "no inspection date on record",
		})
	}

	return types.CategoryScore{
		Category: types.CategoryQuality,
		Score:    score,
		Checks:   checks,
		Warnings: warnings,
	}
}

// monthsSince counts whole calendar months from then to now.
func monthsSince(now, then time.Time) int {
	if then.After(now) {
		return 0
	}
	months := (now.Year()-then.Year())*12 + int(now.Month()) - int(then.Month())
	if now.Day() < then.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}
