// Package resolve implements fallback-aware attribute lookup. A lookup
// walks three tiers in order: the candidate's own stores, calibrated
// proxy attributes, and finally a penalised unknown. The tiers exist to
// keep one distinction intact everywhere: a record that says "no" and a
// record that says nothing are different answers.
package resolve

import (
	"github.com/mwhitfield/carematch/internal/rules"
	"github.com/mwhitfield/carematch/internal/types"
)

// Resolver answers attribute questions about candidates using the
// ruleset's proxy tables. It is stateless apart from the shared
// read-only ruleset and safe for concurrent use.
type Resolver struct {
	rules *rules.Ruleset
}

// New returns a Resolver backed by a validated ruleset.
func New(rs *rules.Ruleset) *Resolver {
	return &Resolver{rules: rs}
}

// Resolve looks up one logical attribute on a candidate.
//
// Tier 1, direct: when the attribute is recorded anywhere on the record
// (flat flag or nested tag), the recorded value is authoritative. Equal
// to expected is a Match, anything else is a NoMatch, and no proxy can
// override it.
//
// Tier 2, proxy: when the attribute is absent, the ruleset's proxies
// are tried in declared order; the first proxy whose own direct value
// equals expected yields a ProxyMatch at that proxy's confidence.
// Proxies that are themselves absent or contradicted are skipped, not
// treated as negatives.
//
// Tier 3, unknown: nothing answered. The result is Unknown carrying the
// rule's penalty confidence, never NoMatch.
func (r *Resolver) Resolve(rec *types.CandidateRecord, attribute string, expected bool) types.FieldResolution {
	if v, ok := rec.Attribute(attribute); ok {
		if v == expected {
			return types.ResolvedMatch(attribute)
		}
		return types.ResolvedNoMatch(attribute)
	}

	if rule, ok := r.rules.ProxyRuleFor(attribute); ok {
		for _, p := range rule.Proxies {
			if v, ok := rec.Attribute(p.Attribute); ok && v == expected {
				return types.ResolvedProxy(attribute, p.Attribute, p.Confidence)
			}
		}
	}

	return types.ResolvedUnknown(attribute, r.rules.UnknownPenaltyFor(attribute))
}

// ResolveRequired looks up an attribute the profile needs to be true.
// It is the form every scorer uses.
func (r *Resolver) ResolveRequired(rec *types.CandidateRecord, attribute string) types.FieldResolution {
	return r.Resolve(rec, attribute, true)
}
