// Package types provides type definitions for structured data used throughout the carematch system.
package types

// Slot names a specialised recommendation produced alongside the overall
// ranking.
type Slot string

// Named recommendation slots.
const (
	SlotBestOverall  Slot = "best_overall"
	SlotSafest       Slot = "safest"
	SlotBestValue    Slot = "best_value"
	SlotBestReviewed Slot = "best_reviewed"
)

// Slots returns every named slot in presentation order.
func Slots() []Slot {
	return []Slot{SlotBestOverall, SlotSafest, SlotBestValue, SlotBestReviewed}
}

// RankedCandidate pairs a candidate with its scoring outcome. Rank is
// 1-based.
type RankedCandidate struct {
	Rank      int              `json:"rank"`
	Breakdown ScoreBreakdown   `json:"breakdown"`
	Candidate *CandidateRecord `json:"candidate,omitempty"`
}

// SlotAssignment names the winner of one specialised slot together with
// a human-readable justification.
type SlotAssignment struct {
	Slot       Slot   `json:"slot"`
	LocationID string `json:"location_id"`
	Name       string `json:"name"`
	Reason     string `json:"reason"`
}

// AttributeStats counts how one attribute resolved across a batch.
type AttributeStats struct {
	Match      int `json:"match"`
	ProxyMatch int `json:"proxy_match"`
	Unknown    int `json:"unknown"`
	NoMatch    int `json:"no_match"`
}

// RunDiagnostics aggregates resolution quality and candidate attrition
// across a matching run.
type RunDiagnostics struct {
	CandidatesIn   int                       `json:"candidates_in"`
	OutOfRadius    int                       `json:"out_of_radius"`
	Disqualified   int                       `json:"disqualified"`
	Scored         int                       `json:"scored"`
	Failed         int                       `json:"failed"`
	Attributes     map[string]AttributeStats `json:"attributes,omitempty"`
	DisqualifiedBy map[string]int            `json:"disqualified_by,omitempty"`
	Failures       []string                  `json:"failures,omitempty"`

	// AppliedAdjustments names the weight adjustments and priorities that
	// fired for this profile, in application order.
	AppliedAdjustments []string `json:"applied_adjustments,omitempty"`
}

// SelectionResult is the final output of a matching run: the ranked
// shortlist, the named slots, and run-level diagnostics.
type SelectionResult struct {
	Ranked      []RankedCandidate `json:"ranked"`
	Slots       []SlotAssignment  `json:"slots"`
	Diagnostics RunDiagnostics    `json:"diagnostics"`
}
