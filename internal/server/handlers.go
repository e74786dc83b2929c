package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/mwhitfield/carematch/internal/db"
	"github.com/mwhitfield/carematch/internal/engine"
	"github.com/mwhitfield/carematch/internal/types"
)

// MatchRequest represents the request body for /api/v1/match
type MatchRequest struct {
	Profile      *types.UserProfile `json:"profile" validate:"required"`
	TopK         int                `json:"top_k,omitempty" validate:"omitempty,gte=1,lte=50"`
	MinShortlist int                `json:"min_shortlist,omitempty" validate:"omitempty,gte=1"`
}

// MatchResponse represents the response for /api/v1/match
type MatchResponse struct {
	RunID  string                 `json:"run_id,omitempty"`
	Result *types.SelectionResult `json:"result"`
}

// RunResponse represents one persisted run in API responses
type RunResponse struct {
	RunID       string `json:"run_id"`
	Postcode    string `json:"postcode"`
	CareType    string `json:"care_type"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
	CompletedAt string `json:"completed_at,omitempty"`
}

func runResponse(run *db.Run) RunResponse {
	resp := RunResponse{
		RunID:     run.ID.String(),
		Postcode:  run.Postcode,
		CareType:  run.CareType,
		Status:    run.Status,
		CreatedAt: run.CreatedAt.Format(time.RFC3339),
	}
	if run.CompletedAt != nil {
		resp.CompletedAt = run.CompletedAt.Format(time.RFC3339)
	}
	return resp
}

// handleMatch scores the fused candidate pool against the submitted
// profile and returns the selection. When a database is configured the
// run and its artifacts are persisted and the response carries the run ID.
func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	var req MatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	if err := req.Profile.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid profile: "+err.Error())
		return
	}

	var runID uuid.UUID
	if s.db != nil {
		id, err := s.db.CreateRun(r.Context(), req.Profile.Postcode, req.Profile.CareType)
		if err != nil {
			// Persistence is best-effort around the match itself.
			log.Printf("Failed to create run record: %v", err)
		} else {
			runID = id
		}
	}

	result, err := s.engine.Match(r.Context(), req.Profile, s.candidates, engine.Options{
		TopK:         req.TopK,
		MinShortlist: req.MinShortlist,
		Workers:      s.workers,
	})
	if err != nil {
		if runID != uuid.Nil {
			if dbErr := s.db.CompleteRun(r.Context(), runID, db.StatusFailed); dbErr != nil {
				log.Printf("Failed to mark run %s failed: %v", runID, dbErr)
			}
		}

		var insufficient *engine.InsufficientCandidatesError
		if errors.As(err, &insufficient) {
			s.jsonResponse(w, HTTPStatus(err), map[string]any{
				"error":       "insufficient_candidates",
				"message":     insufficient.Error(),
				"hints":       insufficient.Hints,
				"diagnostics": insufficient.Diagnostics,
			})
			return
		}

		// Remaining failures are profile problems the validator cannot
		// express (unknown priority category and the like).
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	if runID != uuid.Nil {
		s.persistRun(r.Context(), runID, req.Profile, result)
	}

	resp := MatchResponse{Result: result}
	if runID != uuid.Nil {
		resp.RunID = runID.String()
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// persistRun stores the artifacts of a completed match. Failures are
// logged and swallowed: the caller already has the result in hand.
func (s *Server) persistRun(ctx context.Context, runID uuid.UUID, profile *types.UserProfile, result *types.SelectionResult) {
	if err := s.db.SaveArtifact(ctx, runID, db.StepProfile, "profile", profile); err != nil {
		log.Printf("Failed to save profile artifact: %v", err)
	}
	if err := s.db.SaveArtifact(ctx, runID, db.StepSelection, "selection", result); err != nil {
		log.Printf("Failed to save selection artifact: %v", err)
	}
	if err := s.db.SaveArtifact(ctx, runID, db.StepDiagnostics, "diagnostics", result.Diagnostics); err != nil {
		log.Printf("Failed to save diagnostics artifact: %v", err)
	}
	if err := s.db.CompleteRun(ctx, runID, db.StatusCompleted); err != nil {
		log.Printf("Failed to complete run %s: %v", runID, err)
	}
}

// lookupRun resolves a path ID to a persisted run, mapping every failure
// mode to a typed error for HTTPStatus.
func (s *Server) lookupRun(ctx context.Context, idStr string) (*db.Run, error) {
	if s.db == nil {
		return nil, &ErrStoreDisabled{}
	}
	if idStr == "" {
		return nil, &ErrValidation{Field: "id", Message: "run ID is required"}
	}
	runID, err := uuid.Parse(idStr)
	if err != nil {
		return nil, &ErrValidation{Field: "id", Message: "invalid run ID format"}
	}
	run, err := s.db.GetRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("loading run: %w", err)
	}
	if run == nil {
		return nil, &ErrRunNotFound{RunID: runID}
	}
	return run, nil
}

// handleGetRun returns the status of a persisted run
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.lookupRun(r.Context(), r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, runResponse(run))
}

// handleListRuns returns persisted runs, optionally filtered by postcode
// prefix, care type and status
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		err := &ErrStoreDisabled{}
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	filters := db.RunFilters{
		Postcode: r.URL.Query().Get("postcode"),
		CareType: r.URL.Query().Get("care_type"),
		Status:   r.URL.Query().Get("status"),
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			s.errorResponse(w, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		filters.Limit = limit
	}

	runs, err := s.db.ListRunsFiltered(r.Context(), filters)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	resp := make([]RunResponse, 0, len(runs))
	for i := range runs {
		resp = append(resp, runResponse(&runs[i]))
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"runs": resp})
}

// handleRunDiagnostics returns the stored diagnostics artifact for a run
func (s *Server) handleRunDiagnostics(w http.ResponseWriter, r *http.Request) {
	run, err := s.lookupRun(r.Context(), r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	raw, err := s.db.GetArtifact(r.Context(), run.ID, db.StepDiagnostics)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if raw == nil {
		notFound := &ErrArtifactNotFound{RunID: run.ID, Step: db.StepDiagnostics}
		s.errorResponse(w, HTTPStatus(notFound), notFound.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(raw); err != nil {
		log.Printf("Error writing diagnostics response: %v", err)
	}
}

// handleRunShortlist returns the rendered text shortlist for a run
func (s *Server) handleRunShortlist(w http.ResponseWriter, r *http.Request) {
	run, err := s.lookupRun(r.Context(), r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	text, err := s.db.GetTextArtifact(r.Context(), run.ID, db.StepShortlistText)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if text == "" {
		notFound := &ErrArtifactNotFound{RunID: run.ID, Step: db.StepShortlistText}
		s.errorResponse(w, HTTPStatus(notFound), notFound.Error())
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(text)); err != nil {
		log.Printf("Error writing shortlist response: %v", err)
	}
}

// handleRunArtifacts lists the artifacts recorded for a run
func (s *Server) handleRunArtifacts(w http.ResponseWriter, r *http.Request) {
	run, err := s.lookupRun(r.Context(), r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	artifacts, err := s.db.ListArtifacts(r.Context(), db.ArtifactFilters{RunID: run.ID})
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"run_id":    run.ID.String(),
		"artifacts": artifacts,
	})
}

// handleDeleteRun deletes a persisted run and its artifacts
func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.lookupRun(r.Context(), r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	if err := s.db.DeleteRun(r.Context(), run.ID); err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status": "deleted",
		"run_id": run.ID.String(),
	})
}

// handleGetArtifact returns one artifact by its own ID
func (s *Server) handleGetArtifact(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		err := &ErrStoreDisabled{}
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	idStr := r.PathValue("id")
	artifactID, err := uuid.Parse(idStr)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid artifact ID format")
		return
	}

	artifact, err := s.db.GetArtifactByID(r.Context(), artifactID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if artifact == nil {
		s.errorResponse(w, http.StatusNotFound, "Artifact not found")
		return
	}

	s.jsonResponse(w, http.StatusOK, artifact)
}
