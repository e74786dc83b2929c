package db

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestStepAndStatusConstants(t *testing.T) {
	groups := map[string][]string{
		"steps": {
			StepProfile,
			StepDatasetReport,
			StepFusionReport,
			StepEnrichmentReport,
			StepSelection,
			StepDiagnostics,
			StepShortlistText,
		},
		"statuses": {StatusRunning, StatusCompleted, StatusFailed},
	}

	for name, values := range groups {
		t.Run(name, func(t *testing.T) {
			seen := map[string]bool{}
			for _, v := range values {
				assert.NotEmpty(t, v)
				assert.False(t, seen[v], "%q appears twice", v)
				seen[v] = true
			}
		})
	}
}

func TestRun_FreshRunHasNoCompletion(t *testing.T) {
	run := Run{
		ID:        uuid.New(),
		Postcode:  "YO1 7HH",
		CareType:  "nursing",
		Status:    StatusRunning,
		CreatedAt: time.Now(),
	}

	assert.Equal(t, StatusRunning, run.Status)
	assert.Nil(t, run.CompletedAt, "completion is stamped by CompleteRun, not at creation")
}

func TestConnect_InvalidURL(t *testing.T) {
	// pgxpool.New parses the URL eagerly, so a mangled URL fails fast
	// without a live server.
	db, err := Connect(context.Background(), "not-a-postgres-url://///")
	assert.Error(t, err)
	assert.Nil(t, db)
}
