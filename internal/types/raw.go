// Package types provides type definitions for structured data used throughout the carematch system.
package types

// RawRecord is the loosely-typed attribute map dataset loaders and
// enrichment parsers produce. Values may be strings, booleans, numbers
// or nested tag lists; fusion owns coercing them into a CandidateRecord.
type RawRecord map[string]any

// String returns a string-valued field, if present and non-empty.
func (r RawRecord) String(key string) (string, bool) {
	v, ok := r[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}
