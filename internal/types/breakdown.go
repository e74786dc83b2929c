// Package types provides type definitions for structured data used throughout the carematch system.
package types

// CheckResult records one requirement check inside a category scorer,
// preserving how the underlying attribute resolved and what it earned.
type CheckResult struct {
	Requirement string           `json:"requirement"`
	Status      ResolutionStatus `json:"status"`
	Confidence  float64          `json:"confidence"`
	ProxyUsed   string           `json:"proxy_used,omitempty"`
	Points      float64          `json:"points"`
	Note        string           `json:"note,omitempty"`
}

// CategoryScore is one category's sub-score with its diagnostic trail.
// Score is on the 0..100 scale; Points is the weighted allocation the
// category contributes to the total.
type CategoryScore struct {
	Category Category      `json:"category"`
	Score    float64       `json:"score"`
	Weight   float64       `json:"weight"`
	Points   float64       `json:"points"`
	Checks   []CheckResult `json:"checks,omitempty"`
	Warnings []string      `json:"warnings,omitempty"`
}

// ScoreBreakdown is the full scoring outcome for one candidate. Total is
// the sum of category points and stays within 0..100 because category
// scores are bounded and weights sum to one.
type ScoreBreakdown struct {
	LocationID string          `json:"location_id"`
	Name       string          `json:"name"`
	Total      float64         `json:"total"`
	Categories []CategoryScore `json:"categories"`
	Warnings   []string        `json:"warnings,omitempty"`
}

// Category returns the named category's score, if present.
func (b *ScoreBreakdown) Category(c Category) (CategoryScore, bool) {
	for _, cs := range b.Categories {
		if cs.Category == c {
			return cs, true
		}
	}
	return CategoryScore{}, false
}

// CategoryScoreValue returns the named category's 0..100 sub-score, or
// the given fallback when the category is absent.
func (b *ScoreBreakdown) CategoryScoreValue(c Category, fallback float64) float64 {
	if cs, ok := b.Category(c); ok {
		return cs.Score
	}
	return fallback
}
