package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildExtractionPrompt_IncludesSchemaAndText(t *testing.T) {
	schema := CareAttributesSchema()
	prompt := BuildExtractionPrompt(schema, "Oakwood Manor offers nursing and dementia care.")

	assert.Contains(t, prompt, "care directory parser")
	assert.Contains(t, prompt, "\"care_types\"")
	assert.Contains(t, prompt, "(required)")
	assert.Contains(t, prompt, "Oakwood Manor offers nursing and dementia care.")
	assert.Contains(t, prompt, "Return ONLY the JSON object")
}

func TestCareAttributesSchema_FlagsRulesForbidGuessing(t *testing.T) {
	schema := CareAttributesSchema()

	// The flags rules keep "never mentioned" distinct from "explicitly not
	// offered"; scoring depends on that distinction surviving extraction.
	assert.Contains(t, schema.Description, "OMIT it entirely")
	assert.Contains(t, schema.Description, "explicitly states it is NOT offered")

	var flagsField *SchemaField
	for i := range schema.Fields {
		if schema.Fields[i].Name == "flags" {
			flagsField = &schema.Fields[i]
		}
	}
	assert.NotNil(t, flagsField)
	assert.False(t, flagsField.Required)
}

func TestHomeNarrativeSchema_AllFieldsOptional(t *testing.T) {
	schema := HomeNarrativeSchema()
	for _, field := range schema.Fields {
		assert.False(t, field.Required, "field %s should be optional", field.Name)
	}
}
