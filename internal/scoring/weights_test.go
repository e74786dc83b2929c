package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwhitfield/carematch/internal/rules"
	"github.com/mwhitfield/carematch/internal/types"
)

func f64(v float64) *float64 { return &v }

func baseProfile() *types.UserProfile {
	return &types.UserProfile{
		CareType: "residential",
		Postcode: "GU1 4LX",
	}
}

func TestComputeWeights_NoTriggersReturnsBase(t *testing.T) {
	rs := rules.Default()

	weights, applied, err := ComputeWeights(rs, baseProfile())
	require.NoError(t, err)

	assert.Empty(t, applied)
	for cat, w := range rs.BaseWeights {
		assert.InDelta(t, w, weights[cat], 1e-9)
	}
	require.NoError(t, weights.Validate())
}

func TestComputeWeights_DementiaShiftsTowardsMedical(t *testing.T) {
	rs := rules.Default()
	profile := baseProfile()
	profile.Conditions = []string{"dementia"}

	weights, applied, err := ComputeWeights(rs, profile)
	require.NoError(t, err)

	assert.Contains(t, applied, "cognitive_decline")
	assert.Greater(t, weights[types.CategoryMedical], rs.BaseWeights[types.CategoryMedical])
	assert.Less(t, weights[types.CategoryLifestyle], rs.BaseWeights[types.CategoryLifestyle])
	require.NoError(t, weights.Validate())
}

func TestComputeWeights_AdjustmentsStack(t *testing.T) {
	rs := rules.Default()
	profile := baseProfile()
	profile.Conditions = []string{"dementia"}
	profile.Mobility = "wheelchair"
	profile.Urgent = true
	profile.WeeklyBudget = f64(800)

	weights, applied, err := ComputeWeights(rs, profile)
	require.NoError(t, err)

	assert.Contains(t, applied, "cognitive_decline")
	assert.Contains(t, applied, "urgent_placement")
	assert.Contains(t, applied, "reduced_mobility")
	assert.Contains(t, applied, "tight_budget")
	require.NoError(t, weights.Validate(), "stacked adjustments must still renormalise")
}

func TestComputeWeights_PrioritiesApply(t *testing.T) {
	rs := rules.Default()
	profile := baseProfile()
	profile.Priorities = map[types.Category]float64{types.CategoryLocation: 0.2}

	weights, applied, err := ComputeWeights(rs, profile)
	require.NoError(t, err)

	assert.Contains(t, applied, "priority_location_fit")
	assert.Greater(t, weights[types.CategoryLocation], rs.BaseWeights[types.CategoryLocation])
	require.NoError(t, weights.Validate())
}

func TestComputeWeights_UnknownPriorityCategory(t *testing.T) {
	rs := rules.Default()
	profile := baseProfile()
	profile.Priorities = map[types.Category]float64{"sparkle": 0.1}

	_, _, err := ComputeWeights(rs, profile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown category")
}

func TestComputeWeights_ClampsAtZeroBeforeRenormalising(t *testing.T) {
	rs := rules.Default()
	rs.Adjustments = []rules.WeightAdjustment{{
		Name:    "crush_lifestyle",
		Trigger: rules.Trigger{Urgent: true},
		Deltas:  map[types.Category]float64{types.CategoryLifestyle: -0.5},
	}}
	profile := baseProfile()
	profile.Urgent = true

	weights, _, err := ComputeWeights(rs, profile)
	require.NoError(t, err)

	assert.Zero(t, weights[types.CategoryLifestyle], "weights clamp at zero, never go negative")
	require.NoError(t, weights.Validate())
}

func TestComputeWeights_InvariantAcrossProfiles(t *testing.T) {
	rs := rules.Default()

	conditions := [][]string{nil, {"dementia"}, {"dementia", "diabetes"}, {"parkinsons", "stroke", "cancer"}}
	mobilities := []string{"", "independent", "aided", "wheelchair", "bedbound"}
	budgets := []*float64{nil, f64(700), f64(1200), f64(3000)}
	urgents := []bool{false, true}

	for _, conds := range conditions {
		for _, mobility := range mobilities {
			for _, budget := range budgets {
				for _, urgent := range urgents {
					profile := &types.UserProfile{
						CareType:     "nursing",
						Postcode:     "GU1 4LX",
						Conditions:   conds,
						Mobility:     mobility,
						WeeklyBudget: budget,
						Urgent:       urgent,
					}
					weights, _, err := ComputeWeights(rs, profile)
					require.NoError(t, err)
					assert.NoError(t, weights.Validate(), "profile %+v", profile)
				}
			}
		}
	}
}
