package schemas

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xeipuuv/gojsonschema"

	"github.com/mwhitfield/carematch/internal/engine"
	"github.com/mwhitfield/carematch/internal/rules"
	"github.com/mwhitfield/carematch/internal/schemas"
	"github.com/mwhitfield/carematch/internal/types"
)

func readSchema(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(name)
	require.NoError(t, err, "should be able to read schema file")
	return string(data)
}

func TestAllSchemaFiles_ValidJSON(t *testing.T) {
	schemaFiles := []string{
		"profile.schema.json",
		"selection.schema.json",
	}

	for _, schemaFile := range schemaFiles {
		t.Run(schemaFile, func(t *testing.T) {
			data, err := os.ReadFile(schemaFile)
			require.NoError(t, err, "should be able to read schema file")

			var v interface{}
			err = json.Unmarshal(data, &v)
			assert.NoError(t, err, "schema file should be valid JSON: %s", schemaFile)
		})
	}
}

func TestSchemaFiles_CompileAsJSONSchema(t *testing.T) {
	schemaFiles := []string{
		"profile.schema.json",
		"selection.schema.json",
	}

	for _, schemaFile := range schemaFiles {
		t.Run(schemaFile, func(t *testing.T) {
			data, err := os.ReadFile(schemaFile)
			require.NoError(t, err)

			_, err = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
			assert.NoError(t, err, "schema should compile: %s", schemaFile)
		})
	}
}

func TestProfileSchema_AcceptsValidDocuments(t *testing.T) {
	schema := readSchema(t, "profile.schema.json")

	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "minimal profile",
			doc:  `{"care_type": "residential", "postcode": "GU1 4LX"}`,
		},
		{
			name: "full profile",
			doc: `{
				"conditions": ["dementia", "diabetes"],
				"behaviours": ["wandering"],
				"mobility": "wheelchair",
				"age_band": "85_plus",
				"care_type": "dementia_residential",
				"weekly_budget": 1100,
				"postcode": "GU1 4LX",
				"latitude": 51.2362,
				"longitude": -0.5704,
				"search_radius_miles": 15,
				"urgent": true,
				"preferred_amenities": ["secure_garden"],
				"priorities": {"medical_safety": 0.1, "financial_fit": -0.05}
			}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := schemas.ValidateJSONString(schema, tt.doc)
			assert.NoError(t, err)
		})
	}
}

func TestProfileSchema_RejectsInvalidDocuments(t *testing.T) {
	schema := readSchema(t, "profile.schema.json")

	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "missing care type",
			doc:  `{"postcode": "GU1 4LX"}`,
		},
		{
			name: "unknown care type",
			doc:  `{"care_type": "hotel", "postcode": "GU1 4LX"}`,
		},
		{
			name: "postcode too short",
			doc:  `{"care_type": "residential", "postcode": "GU1"}`,
		},
		{
			name: "zero budget",
			doc:  `{"care_type": "residential", "postcode": "GU1 4LX", "weekly_budget": 0}`,
		},
		{
			name: "unknown mobility level",
			doc:  `{"care_type": "residential", "postcode": "GU1 4LX", "mobility": "sprinting"}`,
		},
		{
			name: "unknown priority category",
			doc:  `{"care_type": "residential", "postcode": "GU1 4LX", "priorities": {"sparkle": 0.1}}`,
		},
		{
			name: "priority out of range",
			doc:  `{"care_type": "residential", "postcode": "GU1 4LX", "priorities": {"medical_safety": 0.5}}`,
		},
		{
			name: "unknown top-level field",
			doc:  `{"care_type": "residential", "postcode": "GU1 4LX", "favourite_colour": "blue"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := schemas.ValidateJSONString(schema, tt.doc)
			require.Error(t, err)

			var ve *schemas.ValidationError
			require.True(t, errors.As(err, &ve), "expected a validation error, got %v", err)
			assert.NotEmpty(t, ve.Errors)
		})
	}
}

func TestSelectionSchema_AcceptsEngineOutput(t *testing.T) {
	schema := readSchema(t, "selection.schema.json")

	f64 := func(v float64) *float64 { return &v }
	candidates := []*types.CandidateRecord{
		{
			LocationID: "1-100",
			Name:       "Oakwood Manor",
			Postcode:   "GU2 7XX",
			Latitude:   f64(51.2400),
			Longitude:  f64(-0.5800),
			Ratings:    map[string]string{"overall": "good", "safe": "good"},
			WeeklyPrices: map[string]float64{
				"residential": 950,
			},
			Flags: map[string]bool{
				"wheelchair_access": true,
				"secure_garden":     true,
			},
		},
		{
			LocationID: "1-101",
			Name:       "Riverview Court",
			Postcode:   "GU3 1AB",
			Ratings:    map[string]string{"overall": "requires_improvement"},
			Flags: map[string]bool{
				"lift_access": true,
			},
		},
	}
	profile := &types.UserProfile{
		CareType:     "residential",
		Postcode:     "GU1 4LX",
		WeeklyBudget: f64(1000),
		Conditions:   []string{"dementia"},
		Mobility:     "wheelchair",
	}

	eng := engine.New(rules.Default())
	result, err := eng.Match(context.Background(), profile, candidates, engine.Options{})
	require.NoError(t, err)

	data, err := json.Marshal(result)
	require.NoError(t, err)

	err = schemas.ValidateJSONString(schema, string(data))
	assert.NoError(t, err, "engine output should satisfy the selection schema")
}

func TestSelectionSchema_RejectsInvalidDocuments(t *testing.T) {
	schema := readSchema(t, "selection.schema.json")

	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "missing diagnostics",
			doc:  `{"ranked": [], "slots": []}`,
		},
		{
			name: "unknown slot",
			doc: `{
				"ranked": [],
				"slots": [{"slot": "best_coffee", "location_id": "1-100", "name": "Oakwood Manor", "reason": ""}],
				"diagnostics": {"candidates_in": 1, "out_of_radius": 0, "disqualified": 0, "scored": 1, "failed": 0}
			}`,
		},
		{
			name: "rank below one",
			doc: `{
				"ranked": [{"rank": 0, "breakdown": {"location_id": "1-100", "name": "Oakwood Manor", "total": 50, "categories": []}}],
				"slots": [],
				"diagnostics": {"candidates_in": 1, "out_of_radius": 0, "disqualified": 0, "scored": 1, "failed": 0}
			}`,
		},
		{
			name: "total above bound",
			doc: `{
				"ranked": [{"rank": 1, "breakdown": {"location_id": "1-100", "name": "Oakwood Manor", "total": 140, "categories": []}}],
				"slots": [],
				"diagnostics": {"candidates_in": 1, "out_of_radius": 0, "disqualified": 0, "scored": 1, "failed": 0}
			}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := schemas.ValidateJSONString(schema, tt.doc)
			require.Error(t, err)

			var ve *schemas.ValidationError
			require.True(t, errors.As(err, &ve), "expected a validation error, got %v", err)
			assert.NotEmpty(t, ve.Errors)
		})
	}
}
