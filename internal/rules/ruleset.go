// Package rules loads and validates the matching ruleset: the proxy
// tables, weights, requirement maps and scoring bands that make matching
// policy configuration rather than code.
package rules

import (
	"github.com/mwhitfield/carematch/internal/types"
)

// Proxy is one fallback attribute with its calibrated confidence. A
// proxy match on service_band_dementia at 0.9 means "this tag implies
// dementia care with 90% confidence".
type Proxy struct {
	Attribute  string  `json:"attribute"`
	Confidence float64 `json:"confidence"`
}

// ProxyRule is the ordered fallback policy for one attribute. Proxies
// are tried in order and the first one that resolves directly wins, so
// rules list their most trusted proxy first. UnknownPenalty overrides
// the ruleset default when set.
type ProxyRule struct {
	Proxies        []Proxy  `json:"proxies"`
	UnknownPenalty *float64 `json:"unknown_penalty,omitempty"`
}

// Trigger is a profile predicate. Every non-zero field must hold for the
// trigger to fire, so a trigger with Condition and Mobility set matches
// only profiles with both.
type Trigger struct {
	Condition    string   `json:"condition,omitempty"`
	Behaviour    string   `json:"behaviour,omitempty"`
	Mobility     string   `json:"mobility,omitempty"`
	CareType     string   `json:"care_type,omitempty"`
	Urgent       bool     `json:"urgent,omitempty"`
	BudgetAtMost *float64 `json:"budget_at_most,omitempty"`
}

// Matches reports whether the profile satisfies every set field.
func (t Trigger) Matches(p *types.UserProfile) bool {
	if t.Condition != "" && !p.HasCondition(t.Condition) {
		return false
	}
	if t.Behaviour != "" && !p.HasBehaviour(t.Behaviour) {
		return false
	}
	if t.Mobility != "" && p.Mobility != t.Mobility {
		return false
	}
	if t.CareType != "" && p.CareType != t.CareType {
		return false
	}
	if t.Urgent && !p.Urgent {
		return false
	}
	if t.BudgetAtMost != nil {
		if p.WeeklyBudget == nil || *p.WeeklyBudget > *t.BudgetAtMost {
			return false
		}
	}
	return true
}

// WeightAdjustment shifts category weights when its trigger fires.
// Deltas are additive on the base vector; the calculator clamps at zero
// and renormalises afterwards.
type WeightAdjustment struct {
	Name    string                     `json:"name"`
	Trigger Trigger                    `json:"trigger"`
	Deltas  map[types.Category]float64 `json:"deltas"`
}

// Requirement maps a profile need onto a candidate attribute inside a
// category scorer. Weight is the requirement's relative importance
// within its category. Amenity optionally names a softer paired
// attribute scored at AmenityWeight.
type Requirement struct {
	Attribute     string  `json:"attribute"`
	Weight        float64 `json:"weight"`
	Amenity       string  `json:"amenity,omitempty"`
	AmenityWeight float64 `json:"amenity_weight,omitempty"`
}

// CriticalRequirement disqualifies candidates that explicitly lack an
// attribute when the trigger fires. Disqualification happens only on a
// confirmed negative; unknown or proxy answers never disqualify.
type CriticalRequirement struct {
	Name      string  `json:"name"`
	Trigger   Trigger `json:"trigger"`
	Attribute string  `json:"attribute"`
}

// FreshnessBonus rewards recent inspections in the quality score.
type FreshnessBonus struct {
	FullWithinMonths    int     `json:"full_within_months"`
	PartialWithinMonths int     `json:"partial_within_months"`
	MinimalWithinMonths int     `json:"minimal_within_months"`
	FullPoints          float64 `json:"full_points"`
	PartialPoints       float64 `json:"partial_points"`
	MinimalPoints       float64 `json:"minimal_points"`
}

// PriceBand scores a price-to-budget ratio. Bands are ordered by
// MaxRatio ascending and the first band at or above the ratio applies.
type PriceBand struct {
	MaxRatio float64 `json:"max_ratio"`
	Score    float64 `json:"score"`
}

// DistanceBand scores a distance in miles. Bands are ordered by
// MaxMiles ascending and the first band at or above the distance applies.
type DistanceBand struct {
	MaxMiles float64 `json:"max_miles"`
	Score    float64 `json:"score"`
}

// Amenity is one lifestyle checklist entry with its relative weight.
type Amenity struct {
	Attribute string  `json:"attribute"`
	Weight    float64 `json:"weight"`
}

// Ruleset is the complete matching policy document. It is loaded once,
// validated, and shared read-only across concurrent scoring.
type Ruleset struct {
	Version string `json:"version,omitempty"`

	// UnknownPenaltyDefault applies to attributes with no proxy rule and
	// to proxy rules that do not set their own penalty.
	UnknownPenaltyDefault float64 `json:"unknown_penalty_default"`

	Proxies map[string]ProxyRule `json:"proxies,omitempty"`

	BaseWeights map[types.Category]float64 `json:"base_weights"`
	Adjustments []WeightAdjustment         `json:"adjustments,omitempty"`

	ConditionRequirements map[string][]Requirement `json:"condition_requirements,omitempty"`
	BehaviourRequirements map[string][]Requirement `json:"behaviour_requirements,omitempty"`
	MobilityRequirements  map[string][]Requirement `json:"mobility_requirements,omitempty"`

	CriticalRequirements []CriticalRequirement `json:"critical_requirements,omitempty"`

	// RatingScale maps normalised regulator ratings onto 0..100.
	RatingScale    map[string]float64 `json:"rating_scale"`
	FreshnessBonus FreshnessBonus     `json:"freshness_bonus"`

	PriceBands       []PriceBand         `json:"price_bands"`
	PriceFallbacks   map[string][]string `json:"price_fallbacks,omitempty"`
	FinancialNeutral float64             `json:"financial_neutral"`

	DistanceBands   []DistanceBand `json:"distance_bands"`
	DistanceFloor   float64        `json:"distance_floor"`
	LocationNeutral float64        `json:"location_neutral"`

	Amenities []Amenity `json:"amenities,omitempty"`

	// PreferredAmenityWeight scores amenities the profile singles out.
	PreferredAmenityWeight float64 `json:"preferred_amenity_weight"`
}

// ProxyRuleFor returns the proxy rule for an attribute, if one exists.
func (r *Ruleset) ProxyRuleFor(attribute string) (ProxyRule, bool) {
	rule, ok := r.Proxies[attribute]
	return rule, ok
}

// UnknownPenaltyFor returns the penalty confidence for an unanswerable
// attribute, honouring the rule-level override.
func (r *Ruleset) UnknownPenaltyFor(attribute string) float64 {
	if rule, ok := r.Proxies[attribute]; ok && rule.UnknownPenalty != nil {
		return *rule.UnknownPenalty
	}
	return r.UnknownPenaltyDefault
}

// RatingValue maps a regulator rating string onto the numeric scale.
func (r *Ruleset) RatingValue(rating string) (float64, bool) {
	v, ok := r.RatingScale[NormalizeRating(rating)]
	return v, ok
}

// PriceChain returns the care types to try, in order, when pricing a
// stay of the requested type. The requested type always leads.
func (r *Ruleset) PriceChain(careType string) []string {
	chain, ok := r.PriceFallbacks[careType]
	if !ok {
		return []string{careType}
	}
	if len(chain) > 0 && chain[0] == careType {
		return chain
	}
	out := make([]string, 0, len(chain)+1)
	out = append(out, careType)
	for _, c := range chain {
		if c != careType {
			out = append(out, c)
		}
	}
	return out
}
