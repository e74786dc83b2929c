package rules

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Load reads a ruleset file, fills unset sections from the defaults and
// validates the result. Any failure is returned as an error so callers
// can refuse to start; a malformed ruleset must never be clamped or
// silently corrected.
func Load(path string) (*Ruleset, error) {
	if path == "" {
		return nil, fmt.Errorf("ruleset path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ruleset file %s: %w", path, err)
	}

	return FromJSON(data)
}

// FromJSON parses ruleset JSON, fills unset sections from the defaults
// and validates the result. The document is checked against the embedded
// schema first so structural mistakes surface with field paths instead
// of decoder errors.
func FromJSON(data []byte) (*Ruleset, error) {
	if err := checkSchema(data); err != nil {
		return nil, err
	}

	var rs Ruleset
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&rs); err != nil {
		return nil, fmt.Errorf("failed to parse ruleset JSON: %w", err)
	}

	merged := rs.mergeDefaults(Default())
	if err := merged.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ruleset: %w", err)
	}
	return merged, nil
}

// mergeDefaults returns a copy of r with every unset section taken from
// defaults. Sections are replaced whole: a ruleset that sets proxies
// owns the entire proxy table.
func (r *Ruleset) mergeDefaults(defaults *Ruleset) *Ruleset {
	out := *r

	if out.Version == "" {
		out.Version = defaults.Version
	}
	if out.UnknownPenaltyDefault == 0 {
		out.UnknownPenaltyDefault = defaults.UnknownPenaltyDefault
	}
	if len(out.Proxies) == 0 {
		out.Proxies = defaults.Proxies
	}
	if len(out.BaseWeights) == 0 {
		out.BaseWeights = defaults.BaseWeights
	}
	if out.Adjustments == nil {
		out.Adjustments = defaults.Adjustments
	}
	if len(out.ConditionRequirements) == 0 {
		out.ConditionRequirements = defaults.ConditionRequirements
	}
	if len(out.BehaviourRequirements) == 0 {
		out.BehaviourRequirements = defaults.BehaviourRequirements
	}
	if len(out.MobilityRequirements) == 0 {
		out.MobilityRequirements = defaults.MobilityRequirements
	}
	if out.CriticalRequirements == nil {
		out.CriticalRequirements = defaults.CriticalRequirements
	}
	if len(out.RatingScale) == 0 {
		out.RatingScale = defaults.RatingScale
	}
	if out.FreshnessBonus == (FreshnessBonus{}) {
		out.FreshnessBonus = defaults.FreshnessBonus
	}
	if len(out.PriceBands) == 0 {
		out.PriceBands = defaults.PriceBands
	}
	if len(out.PriceFallbacks) == 0 {
		out.PriceFallbacks = defaults.PriceFallbacks
	}
	if out.FinancialNeutral == 0 {
		out.FinancialNeutral = defaults.FinancialNeutral
	}
	if len(out.DistanceBands) == 0 {
		out.DistanceBands = defaults.DistanceBands
	}
	if out.DistanceFloor == 0 {
		out.DistanceFloor = defaults.DistanceFloor
	}
	if out.LocationNeutral == 0 {
		out.LocationNeutral = defaults.LocationNeutral
	}
	if len(out.Amenities) == 0 {
		out.Amenities = defaults.Amenities
	}
	if out.PreferredAmenityWeight == 0 {
		out.PreferredAmenityWeight = defaults.PreferredAmenityWeight
	}

	return &out
}

// NormalizeRating canonicalises a regulator rating string for scale
// lookup: "Requires improvement" and "requires_improvement" are the
// same rating.
func NormalizeRating(rating string) string {
	s := strings.ToLower(strings.TrimSpace(rating))
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.Join(strings.Fields(s), "_")
	return s
}
