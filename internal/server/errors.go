// Package server provides the HTTP REST API for the matching engine.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/mwhitfield/carematch/internal/engine"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrRunNotFound indicates no persisted run has the given ID
type ErrRunNotFound struct {
	RunID uuid.UUID
}

func (e *ErrRunNotFound) Error() string {
	return fmt.Sprintf("run not found: %s", e.RunID)
}

// ErrArtifactNotFound indicates a run exists but never recorded the
// requested artifact
type ErrArtifactNotFound struct {
	RunID uuid.UUID
	Step  string
}

func (e *ErrArtifactNotFound) Error() string {
	return fmt.Sprintf("run %s has no %s artifact", e.RunID, e.Step)
}

// ErrStoreDisabled indicates the server is running without a database, so
// run history endpoints have nothing to serve
type ErrStoreDisabled struct{}

func (e *ErrStoreDisabled) Error() string {
	return "run persistence is not configured on this server"
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var insufficient *engine.InsufficientCandidatesError
	if errors.As(err, &insufficient) {
		return http.StatusUnprocessableEntity
	}

	var validation *ErrValidation
	var runNotFound *ErrRunNotFound
	var artifactNotFound *ErrArtifactNotFound
	var storeDisabled *ErrStoreDisabled
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &runNotFound), errors.As(err, &artifactNotFound):
		return http.StatusNotFound
	case errors.As(err, &storeDisabled):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
