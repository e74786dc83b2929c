package rules

import "github.com/mwhitfield/carematch/internal/types"

func f64(v float64) *float64 { return &v }

// Default returns the built-in matching policy. Every value here is a
// tuned starting point, not a law: deployments override sections through
// a ruleset file and Load fills the gaps from these defaults.
func Default() *Ruleset {
	return &Ruleset{
		Version:               "builtin",
		UnknownPenaltyDefault: 0.3,

		Proxies: map[string]ProxyRule{
			"dementia_care": {
				Proxies: []Proxy{
					{Attribute: "service_band_dementia", Confidence: 0.9},
					{Attribute: "secure_unit", Confidence: 0.7},
				},
			},
			"nursing_care": {
				Proxies: []Proxy{
					{Attribute: "regulated_activity_nursing", Confidence: 0.95},
					{Attribute: "nurse_on_site", Confidence: 0.8},
				},
				UnknownPenalty: f64(0.25),
			},
			"wheelchair_access": {
				Proxies: []Proxy{
					{Attribute: "lift_access", Confidence: 0.7},
					{Attribute: "ground_floor_rooms", Confidence: 0.6},
				},
				UnknownPenalty: f64(0.35),
			},
			"palliative_care": {
				Proxies: []Proxy{
					{Attribute: "service_band_end_of_life", Confidence: 0.9},
					{Attribute: "nursing_care", Confidence: 0.5},
				},
			},
			"secure_unit": {
				Proxies: []Proxy{
					{Attribute: "service_band_dementia", Confidence: 0.6},
				},
			},
			"diabetes_management": {
				Proxies: []Proxy{
					{Attribute: "nursing_care", Confidence: 0.7},
				},
				UnknownPenalty: f64(0.4),
			},
			"challenging_behaviour_support": {
				Proxies: []Proxy{
					{Attribute: "service_band_mental_health", Confidence: 0.7},
					{Attribute: "dementia_care", Confidence: 0.5},
				},
			},
			"physiotherapy": {
				Proxies: []Proxy{
					{Attribute: "visiting_therapists", Confidence: 0.7},
				},
				UnknownPenalty: f64(0.4),
			},
			"hoist": {
				Proxies: []Proxy{
					{Attribute: "nursing_care", Confidence: 0.6},
				},
				UnknownPenalty: f64(0.4),
			},
		},

		BaseWeights: map[types.Category]float64{
			types.CategoryMedical:   0.30,
			types.CategoryQuality:   0.25,
			types.CategoryFinancial: 0.20,
			types.CategoryLocation:  0.15,
			types.CategoryLifestyle: 0.10,
		},

		Adjustments: []WeightAdjustment{
			{
				Name:    "cognitive_decline",
				Trigger: Trigger{Condition: "dementia"},
				Deltas: map[types.Category]float64{
					types.CategoryMedical:   0.10,
					types.CategoryQuality:   0.05,
					types.CategoryLifestyle: -0.10,
					types.CategoryFinancial: -0.05,
				},
			},
			{
				Name:    "cognitive_decline_alzheimers",
				Trigger: Trigger{Condition: "alzheimers"},
				Deltas: map[types.Category]float64{
					types.CategoryMedical:   0.10,
					types.CategoryQuality:   0.05,
					types.CategoryLifestyle: -0.10,
					types.CategoryFinancial: -0.05,
				},
			},
			{
				Name:    "urgent_placement",
				Trigger: Trigger{Urgent: true},
				Deltas: map[types.Category]float64{
					types.CategoryLocation:  0.08,
					types.CategoryFinancial: -0.08,
				},
			},
			{
				Name:    "reduced_mobility",
				Trigger: Trigger{Mobility: "wheelchair"},
				Deltas: map[types.Category]float64{
					types.CategoryMedical:   0.05,
					types.CategoryLifestyle: -0.05,
				},
			},
			{
				Name:    "bedbound",
				Trigger: Trigger{Mobility: "bedbound"},
				Deltas: map[types.Category]float64{
					types.CategoryMedical:   0.08,
					types.CategoryLifestyle: -0.08,
				},
			},
			{
				Name:    "tight_budget",
				Trigger: Trigger{BudgetAtMost: f64(900)},
				Deltas: map[types.Category]float64{
					types.CategoryFinancial: 0.10,
					types.CategoryQuality:   -0.05,
					types.CategoryLifestyle: -0.05,
				},
			},
		},

		ConditionRequirements: map[string][]Requirement{
			"dementia": {
				{Attribute: "dementia_care", Weight: 1.0, Amenity: "secure_garden", AmenityWeight: 0.3},
			},
			"alzheimers": {
				{Attribute: "dementia_care", Weight: 1.0, Amenity: "secure_garden", AmenityWeight: 0.3},
			},
			"parkinsons": {
				{Attribute: "nursing_care", Weight: 0.9},
				{Attribute: "physiotherapy", Weight: 0.5},
			},
			"stroke": {
				{Attribute: "nursing_care", Weight: 0.9},
				{Attribute: "physiotherapy", Weight: 0.6},
			},
			"diabetes": {
				{Attribute: "diabetes_management", Weight: 0.7},
			},
			"copd": {
				{Attribute: "nursing_care", Weight: 0.8},
			},
			"heart_disease": {
				{Attribute: "nursing_care", Weight: 0.8},
			},
			"arthritis": {
				{Attribute: "physiotherapy", Weight: 0.4},
			},
			"incontinence": {
				{Attribute: "continence_support", Weight: 0.5},
			},
			"depression": {
				{Attribute: "mental_health_support", Weight: 0.6},
			},
			"cancer": {
				{Attribute: "palliative_care", Weight: 0.9},
			},
		},

		BehaviourRequirements: map[string][]Requirement{
			"wandering":  {{Attribute: "secure_unit", Weight: 0.9}},
			"aggression": {{Attribute: "challenging_behaviour_support", Weight: 0.8}},
			"sundowning": {{Attribute: "dementia_care", Weight: 0.6}},
		},

		MobilityRequirements: map[string][]Requirement{
			"wheelchair": {{Attribute: "wheelchair_access", Weight: 1.0}},
			"bedbound": {
				{Attribute: "nursing_care", Weight: 1.0},
				{Attribute: "hoist", Weight: 0.7},
			},
			"aided": {{Attribute: "lift_access", Weight: 0.5}},
		},

		CriticalRequirements: []CriticalRequirement{
			{Name: "wheelchair_access", Trigger: Trigger{Mobility: "wheelchair"}, Attribute: "wheelchair_access"},
			{Name: "dementia_care", Trigger: Trigger{Condition: "dementia"}, Attribute: "dementia_care"},
			{Name: "nursing_care", Trigger: Trigger{CareType: "nursing"}, Attribute: "nursing_care"},
			{Name: "nursing_care", Trigger: Trigger{CareType: "dementia_nursing"}, Attribute: "nursing_care"},
			{Name: "dementia_care", Trigger: Trigger{CareType: "dementia_residential"}, Attribute: "dementia_care"},
			{Name: "dementia_care", Trigger: Trigger{CareType: "dementia_nursing"}, Attribute: "dementia_care"},
		},

		RatingScale: map[string]float64{
			"outstanding":          100,
			"good":                 75,
			"requires_improvement": 40,
			"inadequate":           10,
		},

		FreshnessBonus: FreshnessBonus{
			FullWithinMonths:    6,
			PartialWithinMonths: 12,
			MinimalWithinMonths: 24,
			FullPoints:          10,
			PartialPoints:       6,
			MinimalPoints:       3,
		},

		PriceBands: []PriceBand{
			{MaxRatio: 1.00, Score: 100},
			{MaxRatio: 1.10, Score: 70},
			{MaxRatio: 1.25, Score: 40},
		},
		PriceFallbacks: map[string][]string{
			"residential":          {"residential"},
			"nursing":              {"nursing", "residential"},
			"dementia_residential": {"dementia_residential", "residential"},
			"dementia_nursing":     {"dementia_nursing", "nursing", "dementia_residential"},
		},
		FinancialNeutral: 50,

		DistanceBands: []DistanceBand{
			{MaxMiles: 3, Score: 100},
			{MaxMiles: 7, Score: 85},
			{MaxMiles: 12, Score: 70},
			{MaxMiles: 20, Score: 50},
			{MaxMiles: 30, Score: 30},
		},
		DistanceFloor:   10,
		LocationNeutral: 55,

		Amenities: []Amenity{
			{Attribute: "activities_programme", Weight: 1.0},
			{Attribute: "garden", Weight: 0.8},
			{Attribute: "ensuite_rooms", Weight: 0.7},
			{Attribute: "outings", Weight: 0.6},
			{Attribute: "visiting_flexibility", Weight: 0.6},
			{Attribute: "chef_prepared_meals", Weight: 0.5},
			{Attribute: "pet_friendly", Weight: 0.5},
			{Attribute: "hairdresser", Weight: 0.4},
			{Attribute: "religious_services", Weight: 0.4},
			{Attribute: "wifi", Weight: 0.3},
		},
		PreferredAmenityWeight: 1.2,
	}
}
