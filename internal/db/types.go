package db

import (
	"time"

	"github.com/google/uuid"
)

// Run is one persisted matching run. Postcode and care type record what the
// caller asked for; Status tracks the run lifecycle.
type Run struct {
	ID          uuid.UUID  `json:"id"`
	Postcode    string     `json:"postcode"`
	CareType    string     `json:"care_type"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// A run stays running until CompleteRun stamps it completed or failed.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Step names for the artifact slots a run can fill. Each occupies at most
// one row per run, upserted on re-run.
const (
	StepProfile          = "profile"
	StepDatasetReport    = "dataset_report"
	StepFusionReport     = "fusion_report"
	StepEnrichmentReport = "enrichment_report"
	StepSelection        = "selection"
	StepDiagnostics      = "diagnostics"
	StepShortlistText    = "shortlist_text"
)
