package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwhitfield/carematch/internal/rules"
	"github.com/mwhitfield/carematch/internal/types"
)

func financialContext(t *testing.T, careType string, budget *float64) *Context {
	t.Helper()
	rs := rules.Default()
	profile := &types.UserProfile{CareType: careType, Postcode: "GU1 4LX", WeeklyBudget: budget}
	return NewContext(rs, profile, testNow)
}

func TestScoreFinancial_BandedTolerance(t *testing.T) {
	tests := []struct {
		name  string
		price float64
		want  float64
	}{
		{"well under budget", 800, 100},
		{"exactly at budget", 1000, 100},
		{"small overage", 1050, 70},
		{"moderate overage", 1200, 40},
		{"large overage", 1600, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := financialContext(t, "residential", f64(1000))
			rec := &types.CandidateRecord{WeeklyPrices: map[string]float64{"residential": tt.price}}

			sub := ScoreFinancial(ctx, rec)
			assert.Equal(t, tt.want, sub.Score)
		})
	}
}

func TestScoreFinancial_MissingPriceIsNeutralNotZero(t *testing.T) {
	ctx := financialContext(t, "residential", f64(1000))
	rec := &types.CandidateRecord{}

	sub := ScoreFinancial(ctx, rec)

	assert.Equal(t, ctx.Rules.FinancialNeutral, sub.Score)
	require.Len(t, sub.Checks, 1)
	assert.Equal(t, types.StatusUnknown, sub.Checks[0].Status)
	assert.NotEmpty(t, sub.Warnings)
}

func TestScoreFinancial_FallbackChain(t *testing.T) {
	ctx := financialContext(t, "dementia_nursing", f64(1300))
	rec := &types.CandidateRecord{WeeklyPrices: map[string]float64{"nursing": 1250}}

	sub := ScoreFinancial(ctx, rec)

	assert.Equal(t, 100.0, sub.Score)
	require.Len(t, sub.Checks, 1)
	assert.Contains(t, sub.Checks[0].Note, "nursing")
	assert.Contains(t, sub.Checks[0].Note, "fallback")
}

func TestScoreFinancial_RequestedTypeBeatsFallback(t *testing.T) {
	ctx := financialContext(t, "dementia_nursing", f64(1300))
	rec := &types.CandidateRecord{WeeklyPrices: map[string]float64{
		"dementia_nursing": 1400,
		"nursing":          1100,
	}}

	sub := ScoreFinancial(ctx, rec)

	assert.Equal(t, 70.0, sub.Score, "the requested care type's price applies even when a fallback is cheaper")
	assert.NotContains(t, sub.Checks[0].Note, "fallback")
}

func TestScoreFinancial_NoBudgetIsNeutral(t *testing.T) {
	ctx := financialContext(t, "residential", nil)
	rec := &types.CandidateRecord{WeeklyPrices: map[string]float64{"residential": 900}}

	sub := ScoreFinancial(ctx, rec)

	assert.Equal(t, ctx.Rules.FinancialNeutral, sub.Score)
	assert.Equal(t, types.StatusUnknown, sub.Checks[0].Status)
}
