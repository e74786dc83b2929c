package rules

import (
	_ "embed"
	"fmt"

	"github.com/mwhitfield/carematch/internal/schemas"
)

// rulesetSchema is the structural schema every ruleset document must
// satisfy before decoding. Embedding it keeps schema and decoder in the
// same package and in step.
//
//go:embed ruleset.schema.json
var rulesetSchema string

// checkSchema validates raw ruleset JSON against the embedded schema.
// Field-level failures carry the offending paths so a misconfigured
// deployment points at the exact line to fix.
func checkSchema(data []byte) error {
	if err := schemas.ValidateJSONString(rulesetSchema, string(data)); err != nil {
		return fmt.Errorf("ruleset schema check failed: %w", err)
	}
	return nil
}
