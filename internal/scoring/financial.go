package scoring

import (
	"fmt"

	"github.com/mwhitfield/carematch/internal/types"
)

// ScoreFinancial scores the candidate's weekly price against the stated
// budget using the ruleset's banded tolerance. A price at or under
// budget is a full score, small overages earn graduated partial credit,
// and a large overage earns nothing. A candidate with no usable price,
// or a profile with no budget, lands on the configured neutral
// mid-score: unpriceable is not the same as unaffordable.
func ScoreFinancial(ctx *Context, rec *types.CandidateRecord) types.CategoryScore {
	neutral := ctx.Rules.FinancialNeutral

	if ctx.Profile.WeeklyBudget == nil {
		return types.CategoryScore{
			Category: types.CategoryFinancial,
			Score:    neutral,
			Checks: []types.CheckResult{{
				Requirement: "weekly_price",
				Status:      types.StatusUnknown,
				Note:        "no budget stated; financial fit is neutral",
			}},
		}
	}
	budget := *ctx.Profile.WeeklyBudget

	price, careType, ok := priceForCareType(ctx, rec)
	if !ok {
		return types.CategoryScore{
			Category: types.CategoryFinancial,
			Score:    neutral,
			Checks: []types.CheckResult{{
				Requirement: "weekly_price",
				Status:      types.StatusUnknown,
				Note:        fmt.Sprintf("no price published for %s or its fallbacks; using neutral score", ctx.Profile.CareType),
			}},
			Warnings: []string{"price unknown; financial fit could not be assessed"},
		}
	}

	ratio := price / budget
	score := 0.0
	for _, band := range ctx.Rules.PriceBands {
		if ratio <= band.MaxRatio {
			score = band.Score
			break
		}
	}

	note := fmt.Sprintf("£%.0f/week (%s) against budget £%.0f", price, careType, budget)
	if careType != ctx.Profile.CareType {
		note += " via price fallback"
	}

	return types.CategoryScore{
		Category: types.CategoryFinancial,
		Score:    score,
		Checks: []types.CheckResult{{
			Requirement: "weekly_price",
			Status:      types.StatusMatch,
			Confidence:  1,
			Points:      score,
			Note:        note,
		}},
	}
}

// priceForCareType walks the ruleset's fallback chain for the requested
// care type and returns the first published price.
func priceForCareType(ctx *Context, rec *types.CandidateRecord) (price float64, careType string, ok bool) {
	for _, ct := range ctx.Rules.PriceChain(ctx.Profile.CareType) {
		if p, found := rec.WeeklyPrice(ct); found {
			return p, ct, true
		}
	}
	return 0, "", false
}
