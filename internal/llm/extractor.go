package llm

import (
	"fmt"
	"strings"
)

// ExtractionSchema describes one structured extraction: what the model is
// asked to do and the JSON fields it must return.
type ExtractionSchema struct {
	Name        string
	Description string // task preamble, including any ground rules
	Fields      []SchemaField
}

// SchemaField is one field of the expected JSON output. An empty Type reads
// as "string".
type SchemaField struct {
	Name        string
	Type        string
	Description string
	Required    bool
}

// promptLine renders the field as one line of the output-shape block.
func (f SchemaField) promptLine(last bool) string {
	typeHint := f.Type
	if typeHint == "" {
		typeHint = "string"
	}
	line := fmt.Sprintf("  %q: %s", f.Name, typeHint)
	if f.Required {
		line += " (required)"
	}
	if !last {
		line += ","
	}
	if f.Description != "" {
		line += " // " + f.Description
	}
	return line
}

// BuildExtractionPrompt assembles the full prompt: the task description,
// the JSON shape to return, the output rules, then the text to extract
// from, fenced so page content cannot read as instructions.
func BuildExtractionPrompt(schema ExtractionSchema, inputText string) string {
	var sb strings.Builder

	sb.WriteString(schema.Description)
	sb.WriteString("\n\nReturn ONLY valid JSON matching this exact structure:\n{\n")
	for i, field := range schema.Fields {
		sb.WriteString(field.promptLine(i == len(schema.Fields)-1))
		sb.WriteByte('\n')
	}
	sb.WriteString("}\n\n")

	sb.WriteString("IMPORTANT:\n")
	sb.WriteString("- Extract information directly from the text, do not invent or summarize.\n")
	sb.WriteString("- Return ONLY the JSON object, no markdown, no explanation, no code blocks.\n\n")

	sb.WriteString("Input text:\n\"\"\"\n")
	sb.WriteString(inputText)
	sb.WriteString("\n\"\"\"\n")

	return sb.String()
}

// CareAttributesSchema returns the extraction schema for care directory listings.
// Extracts care categories, facility attributes, fees, and review figures.
//
// The flags instructions matter: a missing attribute means the page never
// mentioned it, which downstream scoring treats differently from an explicit
// "not offered". The prompt must not let the model guess either way.
func CareAttributesSchema() ExtractionSchema {
	return ExtractionSchema{
		Name: "CareAttributes",
		Description: `You are an expert care directory parser. Your task is to extract factual attributes of one care home from its directory listing text.
RULES FOR THE "flags" FIELD:
- Set an attribute to true ONLY when the text clearly states the home offers or has it.
- Set an attribute to false ONLY when the text explicitly states it is NOT offered, NOT available, or the home CANNOT accommodate it.
- If the text says nothing about an attribute, OMIT it entirely. Do not infer, do not default to false.
Goal: Extract care types, specialisms, facility flags, weekly fees, and published review figures.
EXCLUDE: Enquiry forms, marketing superlatives, content about other homes on the page.`,
		Fields: []SchemaField{
			{
				Name:        "care_types",
				Type:        "[\"string\"]",
				Description: "Care categories offered (e.g., 'Residential', 'Nursing', 'Dementia', 'Respite') - copy each verbatim",
				Required:    true,
			},
			{
				Name:        "specialisms",
				Type:        "[\"string\"]",
				Description: "Conditions and needs the home states it supports (e.g., 'Parkinson's', 'Stroke', 'Palliative')",
				Required:    false,
			},
			{
				Name:        "flags",
				Type:        "{\"attribute\": true|false}",
				Description: "Facility and service attributes using snake_case keys (e.g., wheelchair_access, secure_garden, ensuite_rooms, own_gp_visits, hoist_available) - follow the flags rules above",
				Required:    false,
			},
			{
				Name:        "weekly_fees",
				Type:        "{\"care_type\": number}",
				Description: "Weekly fees in GBP keyed by care type in snake_case (e.g., residential, nursing, dementia_residential) - include only fees the text states, digits only",
				Required:    false,
			},
			{
				Name:        "review_score",
				Type:        "number",
				Description: "Aggregate review score as published (e.g., 9.7) - omit if the listing shows no reviews",
				Required:    false,
			},
			{
				Name:        "review_count",
				Type:        "number",
				Description: "Number of reviews behind the aggregate score - omit if not shown",
				Required:    false,
			},
		},
	}
}

// HomeNarrativeSchema returns the extraction schema for a care home's own website.
// Extracts lifestyle and amenity details the directory listing tends to omit.
func HomeNarrativeSchema() ExtractionSchema {
	return ExtractionSchema{
		Name: "HomeNarrative",
		Description: `You are an expert care services analyst. Your task is to extract lifestyle and amenity details of one care home from its own website text.
RULES FOR THE "flags" FIELD:
- Set an attribute to true ONLY when the text clearly states the home offers or allows it.
- Set an attribute to false ONLY when the text explicitly states it is NOT offered or NOT allowed.
- If the text says nothing about an attribute, OMIT it entirely. Do not infer, do not default to false.`,
		Fields: []SchemaField{
			{
				Name:        "amenities",
				Type:        "[\"string\"]",
				Description: "Physical amenities mentioned (e.g., 'cinema room', 'hair salon', 'landscaped garden')",
				Required:    false,
			},
			{
				Name:        "activities",
				Type:        "[\"string\"]",
				Description: "Regular activities and outings described for residents",
				Required:    false,
			},
			{
				Name:        "flags",
				Type:        "{\"attribute\": true|false}",
				Description: "Policy attributes using snake_case keys (e.g., pet_friendly, visiting_flexibility, chef_prepared_meals, wifi) - follow the flags rules above",
				Required:    false,
			},
		},
	}
}
