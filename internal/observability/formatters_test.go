package observability

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mwhitfield/carematch/internal/fusion"
	"github.com/mwhitfield/carematch/internal/loader"
	"github.com/mwhitfield/carematch/internal/types"
)

func f64(v float64) *float64 { return &v }

func TestPrintProfile(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	profile := &types.UserProfile{
		Conditions:        []string{"dementia", "diabetes"},
		Behaviours:        []string{"wandering"},
		Mobility:          "wheelchair",
		CareType:          "dementia_residential",
		WeeklyBudget:      f64(1100),
		Postcode:          "GU1 4LX",
		SearchRadiusMiles: 15,
		Urgent:            true,
	}

	p.PrintProfile(profile)
	output := buf.String()

	assert.Contains(t, output, "RESIDENT PROFILE")
	assert.Contains(t, output, "dementia_residential")
	assert.Contains(t, output, "GU1 4LX")
	assert.Contains(t, output, "£1100/week")
	assert.Contains(t, output, "wheelchair")
	assert.Contains(t, output, "dementia, diabetes")
	assert.Contains(t, output, "wandering")
	assert.Contains(t, output, "15 miles")
	assert.Contains(t, output, "Urgent:     yes")
}

func TestPrintProfile_Nil(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintProfile(nil)

	assert.Empty(t, buf.String())
}

func TestPrintProfile_SparseOmitsEmptyLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintProfile(&types.UserProfile{CareType: "nursing", Postcode: "GU1 4LX"})
	output := buf.String()

	assert.Contains(t, output, "nursing")
	assert.NotContains(t, output, "Budget")
	assert.NotContains(t, output, "Conditions")
	assert.NotContains(t, output, "Urgent")
}

func TestPrintWeights(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	weights := map[types.Category]float64{
		types.CategoryMedical:   0.40,
		types.CategoryQuality:   0.25,
		types.CategoryFinancial: 0.15,
		types.CategoryLocation:  0.10,
		types.CategoryLifestyle: 0.10,
	}

	p.PrintWeights(weights, []string{"cognitive_decline", "priority:medical_safety"})
	output := buf.String()

	assert.Contains(t, output, "CATEGORY WEIGHTS")
	assert.Contains(t, output, "medical_safety")
	assert.Contains(t, output, "0.40")
	assert.Contains(t, output, "Applied adjustments")
	assert.Contains(t, output, "cognitive_decline")
	assert.Contains(t, output, "priority:medical_safety")

	// Canonical category order, not map order.
	medIdx := strings.Index(output, "medical_safety")
	lifeIdx := strings.Index(output, "lifestyle_services")
	assert.Less(t, medIdx, lifeIdx)
}

func TestPrintWeights_Empty(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintWeights(nil, nil)

	assert.Empty(t, buf.String())
}

func TestPrintDatasetReport(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	report := &loader.Report{
		Rows:    240,
		Skipped: 3,
		Problems: []string{
			"row 12: missing location ID",
			"row 80: malformed price",
			"row 131: missing location ID",
			"row 190: malformed price",
		},
	}

	p.PrintDatasetReport("regulator", report)
	output := buf.String()

	assert.Contains(t, output, "DATASET: REGULATOR")
	assert.Contains(t, output, "240")
	assert.Contains(t, output, "row 12: missing location ID")
	assert.Contains(t, output, "... and 1 more")
}

func TestPrintFusionReport(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	report := &fusion.Report{
		PrimaryIn:         200,
		SecondaryIn:       150,
		MatchedByID:       120,
		SoftMatched:       15,
		PrimaryOnly:       65,
		SecondaryOnlyKept: 5,
		Conflicts: []fusion.Conflict{
			{LocationID: "1-100", Field: "postcode", Primary: "GU1 4LX", Secondary: "GU1 4LY"},
		},
	}

	p.PrintFusionReport(report)
	output := buf.String()

	assert.Contains(t, output, "FUSION REPORT")
	assert.Contains(t, output, "200")
	assert.Contains(t, output, "Matched by ID:    120")
	assert.Contains(t, output, "1 field conflicts (primary wins)")
	assert.Contains(t, output, "1-100 postcode")
}

func TestPrintShortlist(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	result := &types.SelectionResult{
		Ranked: []types.RankedCandidate{
			{Rank: 1, Breakdown: types.ScoreBreakdown{LocationID: "1-100", Name: "Oakwood Manor", Total: 87.3}},
			{Rank: 2, Breakdown: types.ScoreBreakdown{LocationID: "1-101", Name: "Riverview Court", Total: 71.0}},
		},
		Slots: []types.SlotAssignment{
			{Slot: types.SlotBestOverall, LocationID: "1-100", Name: "Oakwood Manor", Reason: "highest total score"},
			{Slot: types.SlotSafest, LocationID: "1-100", Name: "Oakwood Manor", Reason: "strongest medical safety"},
		},
	}

	p.PrintShortlist(result)
	output := buf.String()

	assert.Contains(t, output, "SHORTLIST")
	assert.Contains(t, output, "Oakwood Manor")
	assert.Contains(t, output, "87.3")
	assert.Contains(t, output, "best_overall")
	assert.Contains(t, output, "highest total score")
}

func TestPrintShortlist_Empty(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintShortlist(nil)
	p.PrintShortlist(&types.SelectionResult{})

	assert.Empty(t, buf.String())
}

func TestPrintBreakdown(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	b := &types.ScoreBreakdown{
		LocationID: "1-100",
		Name:       "Oakwood Manor",
		Total:      87.3,
		Categories: []types.CategoryScore{
			{Category: types.CategoryMedical, Score: 92.0, Weight: 0.40, Points: 36.8},
			{Category: types.CategoryQuality, Score: 80.0, Weight: 0.25, Points: 20.0},
		},
		Warnings: []string{"price missing for care type; sector median used"},
	}

	p.PrintBreakdown(b)
	output := buf.String()

	assert.Contains(t, output, "SCORE BREAKDOWN")
	assert.Contains(t, output, "Oakwood Manor (1-100)")
	assert.Contains(t, output, "Total: 87.3")
	assert.Contains(t, output, "medical_safety")
	assert.Contains(t, output, "92.0")
	assert.Contains(t, output, "price missing for care type")
}

func TestPrintDiagnostics(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	diag := &types.RunDiagnostics{
		CandidatesIn: 120,
		OutOfRadius:  13,
		Disqualified: 4,
		Scored:       103,
		DisqualifiedBy: map[string]int{
			"wheelchair_access": 3,
			"dementia_care":     1,
		},
		Attributes: map[string]types.AttributeStats{
			"secure_garden":     {Match: 10, Unknown: 57},
			"dementia_care":     {Match: 90, Unknown: 4},
			"wheelchair_access": {Match: 80, NoMatch: 3},
		},
	}

	p.PrintDiagnostics(diag)
	output := buf.String()

	assert.Contains(t, output, "RUN DIAGNOSTICS")
	assert.Contains(t, output, "Candidates in:  120")
	assert.Contains(t, output, "Out of radius:  13")
	assert.Contains(t, output, "wheelchair_access (3)")
	assert.Contains(t, output, "secure_garden (57 unknown)")
	// wheelchair_access has no unknowns, so it never appears in that list.
	assert.NotContains(t, output, "wheelchair_access (0 unknown)")
}

func TestPrintDiagnostics_Nil(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintDiagnostics(nil)

	assert.Empty(t, buf.String())
}

func TestPrintBox_TruncatesLongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	long := strings.Repeat("x", 100)
	p.printBox("TITLE", long)
	output := buf.String()

	assert.Contains(t, output, "...")
	for _, line := range strings.Split(strings.TrimSuffix(output, "\n"), "\n") {
		assert.LessOrEqual(t, len([]rune(line)), boxWidth)
	}
}
