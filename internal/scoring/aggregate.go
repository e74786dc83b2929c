package scoring

import (
	"github.com/mwhitfield/carematch/internal/types"
)

// ScoreCandidate runs every category scorer against one candidate and
// folds the sub-scores into a weighted total. The total is the exact
// sum of the per-category point allocations; with a valid weight vector
// and bounded sub-scores it cannot leave [0,100].
func ScoreCandidate(ctx *Context, rec *types.CandidateRecord, weights WeightVector) *types.ScoreBreakdown {
	subs := []types.CategoryScore{
		ScoreMedical(ctx, rec),
		ScoreQuality(ctx, rec),
		ScoreFinancial(ctx, rec),
		ScoreLocation(ctx, rec),
		ScoreLifestyle(ctx, rec),
	}

	breakdown := &types.ScoreBreakdown{
		LocationID: rec.LocationID,
		Name:       rec.Name,
		Categories: make([]types.CategoryScore, 0, len(subs)),
	}

	total := 0.0
	for _, sub := range subs {
		sub.Weight = weights[sub.Category]
		sub.Points = sub.Score * sub.Weight
		total += sub.Points
		breakdown.Categories = append(breakdown.Categories, sub)
		breakdown.Warnings = append(breakdown.Warnings, sub.Warnings...)
	}
	breakdown.Total = total

	return breakdown
}
