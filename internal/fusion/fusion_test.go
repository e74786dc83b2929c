package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwhitfield/carematch/internal/types"
)

func primaryFixture() []types.RawRecord {
	return []types.RawRecord{
		{
			"location_id":        "1-101",
			"name":               "Oakwood Care Home",
			"address_line":       "12 Mill Lane",
			"postcode":           "GU1 4LX",
			"phone":              "01483 123456",
			"latitude":           51.24,
			"longitude":          -0.57,
			"rating_overall":     "Good",
			"rating_safe":        "Good",
			"last_inspection":    "2026-03-01",
			"service_user_bands": []any{"service_band_dementia"},
			"dementia_care":      true,
			"price_residential":  900.0,
		},
		{
			"location_id":    "1-102",
			"name":           "Mulberry House",
			"postcode":       "GU2 7XH",
			"rating_overall": "Outstanding",
		},
		{
			"name":           "Riverside Lodge",
			"address_line":   "3 Quay Street",
			"postcode":       "GU1 3XN",
			"phone":          "01483 555000",
			"rating_overall": "Requires improvement",
		},
	}
}

func secondaryFixture() []types.RawRecord {
	return []types.RawRecord{
		{
			"location_id":       "1-101",
			"name":              "The Oakwood",
			"rating_overall":    "Outstanding",
			"price_residential": 1050.0,
			"price_nursing":     1250.0,
			"review_score":      9.1,
			"review_count":      23.0,
			"amenities":         []any{"garden", "wifi"},
			"garden":            true,
		},
		{
			"name":         "Riverside Lodge Care Home",
			"postcode":     "gu1 3xn",
			"phone":        "+44 1483 555000",
			"beds":         30.0,
			"review_score": 8.2,
		},
		{
			"name":     "Sunnybank",
			"postcode": "PO1 1AA",
			"beds":     25.0,
		},
	}
}

func TestFuse_MatchesByIdentifier(t *testing.T) {
	fused, report, err := Fuse(primaryFixture(), secondaryFixture(), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 1, report.MatchedByID)
	assert.Equal(t, 1, report.SoftMatched)
	assert.Equal(t, 1, report.PrimaryOnly)
	assert.Equal(t, 1, report.SecondaryOnlyDropped)
	assert.Len(t, fused, 3, "secondary-only records are excluded by default")
}

func TestFuse_AuthoritativeFieldsPreferPrimary(t *testing.T) {
	fused, report, err := Fuse(primaryFixture(), secondaryFixture(), DefaultOptions())
	require.NoError(t, err)

	oakwood := findRecord(t, fused, "1-101")
	assert.Equal(t, "Good", oakwood.Ratings["overall"], "regulator rating wins over directory claim")

	require.NotEmpty(t, report.Conflicts)
	conflict := report.Conflicts[0]
	assert.Equal(t, "1-101", conflict.LocationID)
	assert.Equal(t, "ratings.overall", conflict.Field)
	assert.Equal(t, "Good", conflict.Primary)
	assert.Equal(t, "Outstanding", conflict.Secondary)
}

func TestFuse_AuxiliaryFieldsPreferSecondary(t *testing.T) {
	fused, _, err := Fuse(primaryFixture(), secondaryFixture(), DefaultOptions())
	require.NoError(t, err)

	oakwood := findRecord(t, fused, "1-101")
	assert.Equal(t, 1050.0, oakwood.WeeklyPrices["residential"], "directory pricing is fresher")
	assert.Equal(t, 1250.0, oakwood.WeeklyPrices["nursing"])
	require.NotNil(t, oakwood.ReviewScore)
	assert.Equal(t, 9.1, *oakwood.ReviewScore)

	v, ok := oakwood.Attribute("garden")
	require.True(t, ok)
	assert.True(t, v)
}

func TestFuse_SoftMatchRequiresTwoSignals(t *testing.T) {
	primary := []types.RawRecord{
		{
			"name":     "Riverside Lodge",
			"postcode": "GU1 3XN",
		},
	}
	secondary := []types.RawRecord{
		{
			"name":         "Riverside Lodge Care Home",
			"postcode":     "PO5 9ZZ",
			"review_score": 8.0,
		},
	}

	fused, report, err := Fuse(primary, secondary, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, fused, 1)
	assert.Zero(t, report.SoftMatched, "one agreeing signal must not merge records")
	assert.Nil(t, fused[0].ReviewScore)
}

func TestFuse_SoftMatchMergesOnTwoSignals(t *testing.T) {
	fused, report, err := Fuse(primaryFixture(), secondaryFixture(), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 1, report.SoftMatched)
	riverside := findRecordByName(t, fused, "Riverside Lodge")
	require.NotNil(t, riverside.Beds, "soft-matched directory fields are merged")
	assert.Equal(t, 30, *riverside.Beds)
}

func TestFuse_PrimaryOnlyFieldsStayUnknown(t *testing.T) {
	fused, _, err := Fuse(primaryFixture(), secondaryFixture(), DefaultOptions())
	require.NoError(t, err)

	mulberry := findRecord(t, fused, "1-102")
	assert.Nil(t, mulberry.ReviewScore)
	assert.Empty(t, mulberry.WeeklyPrices)

	_, ok := mulberry.Attribute("garden")
	assert.False(t, ok, "fields the directory never supplied stay absent, not false")
}

func TestFuse_KeepSecondaryOnly(t *testing.T) {
	opts := DefaultOptions()
	opts.KeepSecondaryOnly = true

	fused, report, err := Fuse(primaryFixture(), secondaryFixture(), opts)
	require.NoError(t, err)

	assert.Equal(t, 1, report.SecondaryOnlyKept)
	assert.Len(t, fused, 4)
	sunnybank := findRecordByName(t, fused, "Sunnybank")
	assert.NotEmpty(t, sunnybank.LocationID, "kept records get a synthetic identifier")
}

func TestFuse_Deterministic(t *testing.T) {
	first, firstReport, err := Fuse(primaryFixture(), secondaryFixture(), DefaultOptions())
	require.NoError(t, err)
	second, secondReport, err := Fuse(primaryFixture(), secondaryFixture(), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, firstReport, secondReport)

	for i := 1; i < len(first); i++ {
		assert.LessOrEqual(t, first[i-1].LocationID, first[i].LocationID, "output is sorted by identifier")
	}
}

func findRecord(t *testing.T, recs []*types.CandidateRecord, locationID string) *types.CandidateRecord {
	t.Helper()
	for _, rec := range recs {
		if rec.LocationID == locationID {
			return rec
		}
	}
	t.Fatalf("record %s not found", locationID)
	return nil
}

func findRecordByName(t *testing.T, recs []*types.CandidateRecord, name string) *types.CandidateRecord {
	t.Helper()
	for _, rec := range recs {
		if rec.Name == name {
			return rec
		}
	}
	t.Fatalf("record named %q not found", name)
	return nil
}
