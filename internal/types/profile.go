// Package types provides type definitions for structured data used throughout the carematch system.
package types

import (
	"github.com/go-playground/validator/v10"
)

// Category identifies one scoring dimension.
type Category string

// Scoring categories in canonical order.
const (
	CategoryMedical   Category = "medical_safety"
	CategoryQuality   Category = "quality_compliance"
	CategoryFinancial Category = "financial_fit"
	CategoryLocation  Category = "location_fit"
	CategoryLifestyle Category = "lifestyle_services"
)

// Categories returns every scoring dimension in canonical order.
func Categories() []Category {
	return []Category{
		CategoryMedical,
		CategoryQuality,
		CategoryFinancial,
		CategoryLocation,
		CategoryLifestyle,
	}
}

// UserProfile describes the prospective resident a matching run scores
// candidates against. Optional fields left empty are treated as
// unconstrained, never as zero-value requirements.
type UserProfile struct {
	// Conditions are diagnosed conditions in snake_case vocabulary,
	// e.g. dementia, parkinsons, diabetes.
	Conditions []string `json:"conditions,omitempty" validate:"dive,min=1"`
	// Behaviours capture care-relevant behaviours such as wandering
	// or aggression that map onto safety requirements.
	Behaviours []string `json:"behaviours,omitempty" validate:"dive,min=1"`
	Mobility   string   `json:"mobility,omitempty" validate:"omitempty,oneof=independent aided wheelchair bedbound"`
	AgeBand    string   `json:"age_band,omitempty" validate:"omitempty,oneof=under_65 65_to_74 75_to_84 85_plus"`

	CareType     string   `json:"care_type" validate:"required,oneof=residential nursing dementia_residential dementia_nursing"`
	WeeklyBudget *float64 `json:"weekly_budget,omitempty" validate:"omitempty,gt=0"`

	Postcode          string   `json:"postcode" validate:"required,min=5"`
	Latitude          *float64 `json:"latitude,omitempty" validate:"omitempty,latitude,required_with=Longitude"`
	Longitude         *float64 `json:"longitude,omitempty" validate:"omitempty,longitude,required_with=Latitude"`
	SearchRadiusMiles float64  `json:"search_radius_miles,omitempty" validate:"omitempty,gt=0,lte=200"`

	// Urgent marks placements needed within days, which shifts weight
	// towards nearby availability and away from price sensitivity.
	Urgent bool `json:"urgent,omitempty"`

	// PreferredAmenities are amenity attributes the resident cares about
	// beyond the standard lifestyle checklist.
	PreferredAmenities []string `json:"preferred_amenities,omitempty" validate:"dive,min=1"`

	// Priorities lets the caller emphasise categories explicitly; values
	// are additive weight adjustments applied before renormalisation.
	Priorities map[Category]float64 `json:"priorities,omitempty" validate:"omitempty,dive,gte=-0.2,lte=0.2"`
}

// Validate validates the UserProfile using the validator.
func (p *UserProfile) Validate() error {
	validate := validator.New()
	return validate.Struct(p)
}

// HasCondition reports whether the profile lists a diagnosed condition.
func (p *UserProfile) HasCondition(name string) bool {
	for _, c := range p.Conditions {
		if c == name {
			return true
		}
	}
	return false
}

// HasBehaviour reports whether the profile lists a behaviour.
func (p *UserProfile) HasBehaviour(name string) bool {
	for _, b := range p.Behaviours {
		if b == name {
			return true
		}
	}
	return false
}

// Coordinates returns the profile's position when both halves are known.
func (p *UserProfile) Coordinates() (lat, lng float64, ok bool) {
	if p.Latitude == nil || p.Longitude == nil {
		return 0, 0, false
	}
	return *p.Latitude, *p.Longitude, true
}
