package rules

import (
	"fmt"
	"math"

	"github.com/mwhitfield/carematch/internal/types"
)

const weightSumTolerance = 0.001

// Validate checks the ruleset's semantic invariants. It returns the
// first violation found; callers treat any error as fatal.
func (r *Ruleset) Validate() error {
	if r.UnknownPenaltyDefault < 0 || r.UnknownPenaltyDefault > 1 {
		return fmt.Errorf("unknown_penalty_default %.3f outside [0,1]", r.UnknownPenaltyDefault)
	}

	for attr, rule := range r.Proxies {
		if len(rule.Proxies) == 0 {
			return fmt.Errorf("proxy rule for %q lists no proxies", attr)
		}
		for _, p := range rule.Proxies {
			if p.Attribute == "" {
				return fmt.Errorf("proxy rule for %q has a proxy with no attribute", attr)
			}
			if p.Attribute == attr {
				return fmt.Errorf("proxy rule for %q proxies onto itself", attr)
			}
			if p.Confidence <= 0 || p.Confidence > 1 {
				return fmt.Errorf("proxy %q for %q has confidence %.3f outside (0,1]", p.Attribute, attr, p.Confidence)
			}
		}
		if rule.UnknownPenalty != nil && (*rule.UnknownPenalty < 0 || *rule.UnknownPenalty > 1) {
			return fmt.Errorf("proxy rule for %q has unknown_penalty %.3f outside [0,1]", attr, *rule.UnknownPenalty)
		}
	}

	if err := validateWeights(r.BaseWeights); err != nil {
		return err
	}

	for _, adj := range r.Adjustments {
		if adj.Name == "" {
			return fmt.Errorf("weight adjustment with no name")
		}
		for cat := range adj.Deltas {
			if _, ok := r.BaseWeights[cat]; !ok {
				return fmt.Errorf("adjustment %q shifts unknown category %q", adj.Name, cat)
			}
		}
	}

	for cond, reqs := range r.ConditionRequirements {
		if err := validateRequirements("condition", cond, reqs); err != nil {
			return err
		}
	}
	for behaviour, reqs := range r.BehaviourRequirements {
		if err := validateRequirements("behaviour", behaviour, reqs); err != nil {
			return err
		}
	}
	for mobility, reqs := range r.MobilityRequirements {
		if err := validateRequirements("mobility", mobility, reqs); err != nil {
			return err
		}
	}

	for _, cr := range r.CriticalRequirements {
		if cr.Attribute == "" {
			return fmt.Errorf("critical requirement %q names no attribute", cr.Name)
		}
		if cr.Trigger == (Trigger{}) {
			return fmt.Errorf("critical requirement %q has an empty trigger and would disqualify for everyone", cr.Name)
		}
	}

	if len(r.RatingScale) == 0 {
		return fmt.Errorf("rating_scale is empty")
	}
	for rating, v := range r.RatingScale {
		if v < 0 || v > 100 {
			return fmt.Errorf("rating_scale[%q] = %.1f outside [0,100]", rating, v)
		}
	}

	fb := r.FreshnessBonus
	if fb.FullWithinMonths > fb.PartialWithinMonths || fb.PartialWithinMonths > fb.MinimalWithinMonths {
		return fmt.Errorf("freshness_bonus windows must be ordered full <= partial <= minimal")
	}

	if err := validateBands("price_bands", len(r.PriceBands), func(i int) (float64, float64) {
		return r.PriceBands[i].MaxRatio, r.PriceBands[i].Score
	}); err != nil {
		return err
	}
	if r.FinancialNeutral < 0 || r.FinancialNeutral > 100 {
		return fmt.Errorf("financial_neutral %.1f outside [0,100]", r.FinancialNeutral)
	}

	if err := validateBands("distance_bands", len(r.DistanceBands), func(i int) (float64, float64) {
		return r.DistanceBands[i].MaxMiles, r.DistanceBands[i].Score
	}); err != nil {
		return err
	}
	if r.DistanceFloor < 0 || r.DistanceFloor > 100 {
		return fmt.Errorf("distance_floor %.1f outside [0,100]", r.DistanceFloor)
	}
	if r.LocationNeutral < 0 || r.LocationNeutral > 100 {
		return fmt.Errorf("location_neutral %.1f outside [0,100]", r.LocationNeutral)
	}

	for _, a := range r.Amenities {
		if a.Attribute == "" {
			return fmt.Errorf("amenity with no attribute")
		}
		if a.Weight <= 0 {
			return fmt.Errorf("amenity %q has non-positive weight %.3f", a.Attribute, a.Weight)
		}
	}
	if r.PreferredAmenityWeight <= 0 {
		return fmt.Errorf("preferred_amenity_weight must be positive")
	}

	return nil
}

// validateWeights enforces the weight vector contract: all categories
// present, nothing negative, total 1.0 within tolerance.
func validateWeights(weights map[types.Category]float64) error {
	if len(weights) == 0 {
		return fmt.Errorf("base_weights is empty")
	}

	sum := 0.0
	for cat, w := range weights {
		known := false
		for _, c := range types.Categories() {
			if cat == c {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("base_weights names unknown category %q", cat)
		}
		if w < 0 {
			return fmt.Errorf("base_weights[%q] is negative", cat)
		}
		sum += w
	}
	for _, c := range types.Categories() {
		if _, ok := weights[c]; !ok {
			return fmt.Errorf("base_weights missing category %q", c)
		}
	}
	if math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("base_weights sum to %.4f, want 1.0", sum)
	}
	return nil
}

func validateRequirements(kind, key string, reqs []Requirement) error {
	for _, req := range reqs {
		if req.Attribute == "" {
			return fmt.Errorf("%s %q has a requirement with no attribute", kind, key)
		}
		if req.Weight <= 0 {
			return fmt.Errorf("%s %q requirement %q has non-positive weight", kind, key, req.Attribute)
		}
		if req.Amenity != "" && req.AmenityWeight <= 0 {
			return fmt.Errorf("%s %q requirement %q pairs amenity %q without a weight", kind, key, req.Attribute, req.Amenity)
		}
	}
	return nil
}

func validateBands(name string, n int, at func(int) (limit, score float64)) error {
	if n == 0 {
		return fmt.Errorf("%s is empty", name)
	}
	prevLimit := math.Inf(-1)
	for i := 0; i < n; i++ {
		limit, score := at(i)
		if limit <= prevLimit {
			return fmt.Errorf("%s must be strictly increasing, band %d breaks the order", name, i)
		}
		if score < 0 || score > 100 {
			return fmt.Errorf("%s band %d score %.1f outside [0,100]", name, i, score)
		}
		prevLimit = limit
	}
	return nil
}
