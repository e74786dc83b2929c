// Package fusion merges the regulator dataset with the directory
// dataset into one candidate list, matching records across sources and
// applying per-field-group priority when both sources speak.
package fusion

import (
	"regexp"
	"strings"
	"unicode"
)

// abbrevRules expand the street abbreviations UK address feeds disagree
// on. Applied in order after punctuation stripping.
var abbrevRules = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`\bRD\b`), "ROAD"},
	{regexp.MustCompile(`\bAVE\b`), "AVENUE"},
	{regexp.MustCompile(`\bGDNS\b`), "GARDENS"},
	{regexp.MustCompile(`\bCT\b`), "COURT"},
	{regexp.MustCompile(`\bDR\b`), "DRIVE"},
	{regexp.MustCompile(`\bLN\b`), "LANE"},
	{regexp.MustCompile(`\bPL\b`), "PLACE"},
	{regexp.MustCompile(`\bSQ\b`), "SQUARE"},
	{regexp.MustCompile(`\bCRES\b`), "CRESCENT"},
	{regexp.MustCompile(`\bTER\b`), "TERRACE"},
	{regexp.MustCompile(`\bCL\b`), "CLOSE"},
	{regexp.MustCompile(`\bPK\b`), "PARK"},
	{regexp.MustCompile(`\bWY\b`), "WAY"},
	{regexp.MustCompile(`\bHSE\b`), "HOUSE"},
	{regexp.MustCompile(`\bNTH\b`), "NORTH"},
	{regexp.MustCompile(`\bSTH\b`), "SOUTH"},
}

var rePostcode = regexp.MustCompile(`^[A-Z]{1,2}\d[\dA-Z]?\s*\d[A-Z]{2}$`)

// nameNoise are tokens that carry no identity in a care home name:
// corporate suffixes and the generic home-type words both datasets
// attach inconsistently.
var nameNoise = map[string]bool{
	"THE": true, "LTD": true, "LIMITED": true, "LLP": true, "PLC": true,
	"CARE": true, "NURSING": true, "RESIDENTIAL": true, "HOME": true, "HOMES": true,
}

// stripPunct replaces everything outside letters, digits and spaces
// with a space and collapses runs of whitespace. Apostrophes are
// dropped outright so "Jude's" stays one token.
func stripPunct(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '\'' || r == '’':
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// NormalizeName canonicalises a home name for soft matching.
func NormalizeName(raw string) string {
	s := stripPunct(strings.ToUpper(strings.TrimSpace(raw)))
	fields := strings.Fields(s)
	kept := make([]string, 0, len(fields))
	for _, f := range fields {
		if !nameNoise[f] {
			kept = append(kept, f)
		}
	}
	// A name made entirely of noise words still has to match itself.
	if len(kept) == 0 {
		return s
	}
	return strings.Join(kept, " ")
}

// NormalizePostcode canonicalises a UK postcode to compact uppercase
// ("gu1 4lx" -> "GU14LX"). Strings that do not look like a postcode
// normalise to empty so they can never agree with anything.
func NormalizePostcode(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if !rePostcode.MatchString(s) {
		return ""
	}
	return strings.ReplaceAll(s, " ", "")
}

// NormalizeAddress canonicalises an address line: uppercase, punctuation
// stripped, street abbreviations expanded.
func NormalizeAddress(raw string) string {
	s := stripPunct(strings.ToUpper(strings.TrimSpace(raw)))
	for _, rule := range abbrevRules {
		s = rule.re.ReplaceAllString(s, rule.repl)
	}
	return strings.Join(strings.Fields(s), " ")
}

// NormalizePhone reduces a phone number to digits with the +44 country
// prefix folded back to the domestic leading zero.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	s := b.String()
	if strings.HasPrefix(s, "44") && len(s) > 9 {
		s = "0" + s[2:]
	}
	return s
}

// tokenOverlap is the shared-token ratio against the smaller set, used
// to compare address lines that rarely agree verbatim.
func tokenOverlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]bool, len(a))
	for _, t := range a {
		set[t] = true
	}
	overlap := 0
	for _, t := range b {
		if set[t] {
			overlap++
		}
	}
	min := len(a)
	if len(b) < min {
		min = len(b)
	}
	return float64(overlap) / float64(min)
}
