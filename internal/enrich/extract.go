// Package enrich - extract.go maps LLM extraction output onto raw-record keys.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mwhitfield/carematch/internal/llm"
	"github.com/mwhitfield/carematch/internal/types"
)

// careAttributes is the JSON shape CareAttributesSchema asks for.
// Pointer and map fields stay nil when the model omitted them, which is
// how "the page never said" survives the trip.
type careAttributes struct {
	CareTypes   []string           `json:"care_types"`
	Specialisms []string           `json:"specialisms"`
	Flags       map[string]bool    `json:"flags"`
	WeeklyFees  map[string]float64 `json:"weekly_fees"`
	ReviewScore *float64           `json:"review_score"`
	ReviewCount *int               `json:"review_count"`
}

// homeNarrative is the JSON shape HomeNarrativeSchema asks for.
type homeNarrative struct {
	Amenities  []string        `json:"amenities"`
	Activities []string        `json:"activities"`
	Flags      map[string]bool `json:"flags"`
}

// ExtractAttributes runs LLM extraction over directory listing text and
// returns a raw record fusion can coerce.
func ExtractAttributes(ctx context.Context, client llm.Client, text string) (types.RawRecord, error) {
	prompt := llm.BuildExtractionPrompt(llm.CareAttributesSchema(), text)

	jsonResp, err := client.GenerateJSON(ctx, prompt, llm.TaskListing)
	if err != nil {
		return nil, fmt.Errorf("attribute extraction failed: %w", err)
	}
	jsonResp = llm.CleanJSONBlock(jsonResp)

	var attrs careAttributes
	if err := json.Unmarshal([]byte(jsonResp), &attrs); err != nil {
		return nil, fmt.Errorf("attribute extraction returned invalid JSON: %w", err)
	}

	return attrs.rawRecord(), nil
}

func (a careAttributes) rawRecord() types.RawRecord {
	rec := types.RawRecord{}

	bands := make([]string, 0, len(a.CareTypes)+len(a.Specialisms))
	bands = append(bands, a.CareTypes...)
	bands = append(bands, a.Specialisms...)
	if len(bands) > 0 {
		rec["service_user_bands"] = bands
	}

	for attr, v := range a.Flags {
		key := slugify(attr)
		if key == "" {
			continue
		}
		rec[key] = v
	}

	if len(a.WeeklyFees) > 0 {
		fees := make(map[string]any, len(a.WeeklyFees))
		for careType, fee := range a.WeeklyFees {
			if fee > 0 {
				fees[slugify(careType)] = fee
			}
		}
		if len(fees) > 0 {
			rec["weekly_prices"] = fees
		}
	}

	if a.ReviewScore != nil {
		rec["review_score"] = *a.ReviewScore
	}
	if a.ReviewCount != nil {
		rec["review_count"] = *a.ReviewCount
	}

	return rec
}

// ExtractNarrative runs LLM extraction over a home's own website text.
// Only checklist-shaped findings make it into the record; whether a
// policy statement means true, false or unknown is the model's call
// under the schema's rules, never inferred here.
func ExtractNarrative(ctx context.Context, client llm.Client, text string) (types.RawRecord, error) {
	prompt := llm.BuildExtractionPrompt(llm.HomeNarrativeSchema(), text)

	jsonResp, err := client.GenerateJSON(ctx, prompt, llm.TaskNarrative)
	if err != nil {
		return nil, fmt.Errorf("narrative extraction failed: %w", err)
	}
	jsonResp = llm.CleanJSONBlock(jsonResp)

	var narrative homeNarrative
	if err := json.Unmarshal([]byte(jsonResp), &narrative); err != nil {
		return nil, fmt.Errorf("narrative extraction returned invalid JSON: %w", err)
	}

	return narrative.rawRecord(), nil
}

func (n homeNarrative) rawRecord() types.RawRecord {
	rec := types.RawRecord{}

	var amenities []string
	seen := map[string]bool{}
	add := func(label string) {
		name := CanonicalAmenity(label)
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		amenities = append(amenities, name)
	}
	for _, a := range n.Amenities {
		add(a)
	}
	// A site describing its activity schedule is stating it has one.
	if len(n.Activities) > 0 {
		add("activities programme")
	}

	if len(amenities) > 0 {
		rec["amenities"] = amenities
	}

	for attr, v := range n.Flags {
		key := slugify(attr)
		if key == "" {
			continue
		}
		rec[key] = v
	}

	return rec
}
