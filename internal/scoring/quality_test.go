package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwhitfield/carematch/internal/rules"
	"github.com/mwhitfield/carematch/internal/types"
)

func qualityContext(t *testing.T) *Context {
	t.Helper()
	rs := rules.Default()
	profile := &types.UserProfile{CareType: "residential", Postcode: "GU1 4LX"}
	return NewContext(rs, profile, testNow)
}

func inspectedAt(t time.Time) *time.Time { return &t }

func TestScoreQuality_AllSubRatingsContribute(t *testing.T) {
	ctx := qualityContext(t)
	rec := &types.CandidateRecord{
		Ratings: map[string]string{
			"overall":    "Good",
			"safe":       "Outstanding",
			"effective":  "Good",
			"caring":     "Good",
			"responsive": "Requires improvement",
			"well_led":   "Good",
		},
	}

	sub := ScoreQuality(ctx, rec)

	// overall 75 at double weight; 100+75+75+40+75 at single weight.
	want := (75*2 + 100 + 75 + 75 + 40 + 75) / 7.0
	assert.InDelta(t, want, sub.Score, 1e-9)
	assert.Len(t, sub.Checks, 7, "six ratings plus the freshness check")
}

func TestScoreQuality_FreshnessBands(t *testing.T) {
	ctx := qualityContext(t)

	tests := []struct {
		name      string
		monthsAgo int
		bonus     float64
	}{
		{"fresh inspection", 3, 10},
		{"recent inspection", 9, 6},
		{"ageing inspection", 18, 3},
		{"stale inspection", 36, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &types.CandidateRecord{
				Ratings:        map[string]string{"overall": "Good"},
				LastInspection: inspectedAt(testNow.AddDate(0, -tt.monthsAgo, 0)),
			}
			sub := ScoreQuality(ctx, rec)
			assert.InDelta(t, 75+tt.bonus, sub.Score, 1e-9)
		})
	}
}

func TestScoreQuality_BonusNeverExceedsScale(t *testing.T) {
	ctx := qualityContext(t)
	rec := &types.CandidateRecord{
		Ratings:        map[string]string{"overall": "Outstanding"},
		LastInspection: inspectedAt(testNow.AddDate(0, -2, 0)),
	}

	sub := ScoreQuality(ctx, rec)
	assert.Equal(t, 100.0, sub.Score)
}

func TestScoreQuality_NoRatingsIsNeutralWithWarning(t *testing.T) {
	ctx := qualityContext(t)
	rec := &types.CandidateRecord{}

	sub := ScoreQuality(ctx, rec)

	assert.Equal(t, neutralSubScore, sub.Score)
	require.NotEmpty(t, sub.Warnings)
	assert.Contains(t, sub.Warnings[0], "no published ratings")
}

func TestScoreQuality_UnmappedRatingIsSkippedNotZero(t *testing.T) {
	ctx := qualityContext(t)
	rec := &types.CandidateRecord{
		Ratings: map[string]string{"overall": "Good", "safe": "Inspection pending"},
	}

	sub := ScoreQuality(ctx, rec)

	assert.InDelta(t, 75.0, sub.Score, 1e-9, "unmappable ratings must not drag the average")

	var pending *types.CheckResult
	for i := range sub.Checks {
		if sub.Checks[i].Requirement == "rating_safe" {
			pending = &sub.Checks[i]
		}
	}
	require.NotNil(t, pending)
	assert.Equal(t, types.StatusUnknown, pending.Status)
}

func TestMonthsSince(t *testing.T) {
	now := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, monthsSince(now, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 6, monthsSince(now, time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 5, monthsSince(now, time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC)), "a partial month does not count")
	assert.Equal(t, 24, monthsSince(now, time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 0, monthsSince(now, now.AddDate(0, 1, 0)), "future dates clamp to zero")
}
