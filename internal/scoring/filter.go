package scoring

import (
	"github.com/mwhitfield/carematch/internal/types"
)

// FilterResult is the outcome of the critical-requirement filter for
// one candidate.
type FilterResult struct {
	Disqualified bool
	// FailedRequirements names the critical attributes the candidate
	// explicitly lacks.
	FailedRequirements []string
	Checks             []types.CheckResult
}

// ApplyFilter evaluates every critical requirement whose trigger the
// profile matches. A candidate is disqualified only on an explicit
// NoMatch: the home says it cannot meet the need. Unknown and proxy
// answers never disqualify here; they already cost score in the
// category scorers. That asymmetry is the point of the filter and must
// hold for any requirement set.
func ApplyFilter(ctx *Context, rec *types.CandidateRecord) FilterResult {
	result := FilterResult{}
	seen := map[string]bool{}

	for _, cr := range ctx.Rules.CriticalRequirements {
		if !cr.Trigger.Matches(ctx.Profile) {
			continue
		}
		if seen[cr.Attribute] {
			continue
		}
		seen[cr.Attribute] = true

		res := ctx.Resolver.ResolveRequired(rec, cr.Attribute)
		entry := check(res, 0, "critical requirement")
		result.Checks = append(result.Checks, entry)

		if res.Status == types.StatusNoMatch {
			result.Disqualified = true
			result.FailedRequirements = append(result.FailedRequirements, cr.Attribute)
		}
	}

	return result
}
