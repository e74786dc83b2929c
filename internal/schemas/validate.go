// Package schemas wraps gojsonschema for the JSON documents this system
// exchanges: ruleset files, resident profiles and selection artifacts.
package schemas

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ResolveSchemaPath locates a schema file relative to the working
// directory, walking up to two levels towards the repo root. Commands and
// package tests run from different depths, so a fixed relative path would
// only work for one of them. Returns "" when nothing matches.
func ResolveSchemaPath(relativePath string) string {
	for _, base := range []string{".", "..", filepath.Join("..", "..")} {
		candidate, err := filepath.Abs(filepath.Join(base, relativePath))
		if err != nil {
			continue
		}
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// ValidationError reports a document that does not satisfy its schema,
// one entry per offending field.
type ValidationError struct {
	Errors []FieldError
}

// FieldError is a single schema violation at one field path.
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, fe := range ve.Errors {
		fmt.Fprintf(&sb, "  %d. %s: %s\n", i+1, fe.Field, fe.Message)
	}
	return sb.String()
}

// SchemaLoadError reports a schema that could not be loaded or compiled.
// Distinct from ValidationError so callers can treat a broken schema as
// an environment problem rather than a data problem.
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	msg := e.Path + ": " + e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

// ValidateJSON validates a JSON document file against a JSON Schema file.
// Returns nil, a *ValidationError, a *SchemaLoadError, or a plain error
// when the document itself cannot be read or parsed.
func ValidateJSON(schemaPath, jsonPath string) error {
	schemaAbs, err := filepath.Abs(schemaPath)
	if err != nil {
		return fmt.Errorf("failed to resolve schema path: %w", err)
	}
	jsonAbs, err := filepath.Abs(jsonPath)
	if err != nil {
		return fmt.Errorf("failed to resolve JSON path: %w", err)
	}

	if _, err := os.Stat(schemaAbs); os.IsNotExist(err) {
		return fmt.Errorf("schema file not found: %s", schemaAbs)
	}
	if _, err := os.Stat(jsonAbs); os.IsNotExist(err) {
		return fmt.Errorf("JSON file not found: %s", jsonAbs)
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewReferenceLoader("file://" + schemaAbs))
	if err != nil {
		return &SchemaLoadError{
			Path:    schemaAbs,
			Message: "schema did not compile",
			Cause:   err,
		}
	}

	result, err := schema.Validate(gojsonschema.NewReferenceLoader("file://" + jsonAbs))
	if err != nil {
		return fmt.Errorf("failed to read document %s: %w", jsonAbs, err)
	}

	return resultError(result)
}

// ValidateJSONString validates in-memory JSON content against in-memory
// schema content. Same error contract as ValidateJSON.
func ValidateJSONString(schemaContent, jsonContent string) error {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaContent))
	if err != nil {
		return &SchemaLoadError{
			Path:    "(string schema)",
			Message: "schema did not compile",
			Cause:   err,
		}
	}

	result, err := schema.Validate(gojsonschema.NewStringLoader(jsonContent))
	if err != nil {
		return fmt.Errorf("failed to parse document: %w", err)
	}

	return resultError(result)
}

// resultError converts a gojsonschema result into the package's error
// contract: nil for a valid document, *ValidationError otherwise.
func resultError(result *gojsonschema.Result) error {
	if result.Valid() {
		return nil
	}

	ve := &ValidationError{Errors: make([]FieldError, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		ve.Errors = append(ve.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return ve
}
