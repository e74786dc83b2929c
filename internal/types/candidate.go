// Package types provides type definitions for structured data used throughout the carematch system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "time"

// Tag is a single entry in a nested attribute group, such as one service
// user band or one amenity. Negative marks tags parsed from an explicit
// "not offered" statement, which is different from the tag being absent.
type Tag struct {
	Name     string `json:"name"`
	Negative bool   `json:"negative,omitempty"`
}

// CandidateRecord is one care home as seen by the scoring engine, fused
// from the regulator dataset and (when matched) the directory dataset.
// Records are built once per run and treated as read-only afterwards.
type CandidateRecord struct {
	LocationID  string `json:"location_id"`
	Name        string `json:"name"`
	AddressLine string `json:"address_line,omitempty"`
	Postcode    string `json:"postcode,omitempty"`
	Region      string `json:"region,omitempty"`
	Phone       string `json:"phone,omitempty"`

	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	// Ratings holds the regulator's published ratings keyed by domain
	// (overall, safe, effective, caring, responsive, well_led).
	Ratings        map[string]string `json:"ratings,omitempty"`
	LastInspection *time.Time        `json:"last_inspection,omitempty"`

	// WeeklyPrices holds advertised weekly fees keyed by care type.
	WeeklyPrices map[string]float64 `json:"weekly_prices,omitempty"`
	Beds         *int               `json:"beds,omitempty"`
	ReviewScore  *float64           `json:"review_score,omitempty"`
	ReviewCount  *int               `json:"review_count,omitempty"`

	// Flags is the flat attribute store. A key being present means the
	// attribute was explicitly recorded, true or false; a missing key
	// means nothing is known about it.
	Flags map[string]bool `json:"flags,omitempty"`

	// Groups is the nested attribute store: list-shaped source fields
	// such as service user bands, regulated activities and amenity
	// lists. A tag's presence is as authoritative as a flat flag.
	Groups map[string][]Tag `json:"groups,omitempty"`

	// Sources lists the datasets that contributed fields to this record.
	Sources []string `json:"sources,omitempty"`
}

// Attribute reports the directly recorded value of a named attribute.
// The flat flag store is consulted first; nested tag groups are always
// tried when no flag is present. ok is false only when neither
// representation records the attribute at all, which callers must treat
// as unknown rather than false.
func (c *CandidateRecord) Attribute(name string) (value, ok bool) {
	if v, present := c.Flags[name]; present {
		return v, true
	}
	for _, tags := range c.Groups {
		for _, t := range tags {
			if t.Name == name {
				return !t.Negative, true
			}
		}
	}
	return false, false
}

// GroupHas reports whether a specific group records the named tag.
func (c *CandidateRecord) GroupHas(group, name string) (value, ok bool) {
	for _, t := range c.Groups[group] {
		if t.Name == name {
			return !t.Negative, true
		}
	}
	return false, false
}

// Rating returns the published rating for a domain, if any.
func (c *CandidateRecord) Rating(domain string) (string, bool) {
	r, ok := c.Ratings[domain]
	if !ok || r == "" {
		return "", false
	}
	return r, true
}

// WeeklyPrice returns the advertised weekly fee for a care type, if any.
func (c *CandidateRecord) WeeklyPrice(careType string) (float64, bool) {
	p, ok := c.WeeklyPrices[careType]
	if !ok || p <= 0 {
		return 0, false
	}
	return p, true
}

// Coordinates returns the record's position when both halves are known.
func (c *CandidateRecord) Coordinates() (lat, lng float64, ok bool) {
	if c.Latitude == nil || c.Longitude == nil {
		return 0, 0, false
	}
	return *c.Latitude, *c.Longitude, true
}
