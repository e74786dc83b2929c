// Package types provides type definitions for structured data used throughout the carematch system.
package types

// ResolutionStatus distinguishes how an attribute lookup concluded. The
// four states are deliberately explicit: a confirmed negative (NoMatch)
// and a missing answer (Unknown) must never collapse into one value.
type ResolutionStatus string

// Resolution statuses.
const (
	StatusMatch      ResolutionStatus = "match"
	StatusNoMatch    ResolutionStatus = "no_match"
	StatusProxyMatch ResolutionStatus = "proxy_match"
	StatusUnknown    ResolutionStatus = "unknown"
)

// FieldResolution is the outcome of resolving one required attribute
// against a candidate: which tier answered, at what confidence, and
// through which proxy when one was used. Construct values with the
// Resolved* helpers so confidence always agrees with status.
type FieldResolution struct {
	Attribute  string           `json:"attribute"`
	Status     ResolutionStatus `json:"status"`
	Confidence float64          `json:"confidence"`
	ProxyUsed  string           `json:"proxy_used,omitempty"`
}

// ResolvedMatch records a direct positive answer.
func ResolvedMatch(attribute string) FieldResolution {
	return FieldResolution{Attribute: attribute, Status: StatusMatch, Confidence: 1.0}
}

// ResolvedNoMatch records an explicit negative answer.
func ResolvedNoMatch(attribute string) FieldResolution {
	return FieldResolution{Attribute: attribute, Status: StatusNoMatch, Confidence: 0}
}

// ResolvedProxy records a positive answer inferred from a proxy attribute.
func ResolvedProxy(attribute, proxy string, confidence float64) FieldResolution {
	return FieldResolution{
		Attribute:  attribute,
		Status:     StatusProxyMatch,
		Confidence: confidence,
		ProxyUsed:  proxy,
	}
}

// ResolvedUnknown records that no tier could answer; the penalty keeps a
// reduced contribution in play instead of treating absence as failure.
func ResolvedUnknown(attribute string, penalty float64) FieldResolution {
	return FieldResolution{Attribute: attribute, Status: StatusUnknown, Confidence: penalty}
}

// Contribution returns the score mass this resolution earns for a
// requirement of the given weight.
func (r FieldResolution) Contribution(weight float64) float64 {
	return weight * r.Confidence
}

// Positive reports whether the resolution counts as satisfying the
// attribute in any form (directly or through a proxy).
func (r FieldResolution) Positive() bool {
	return r.Status == StatusMatch || r.Status == StatusProxyMatch
}
