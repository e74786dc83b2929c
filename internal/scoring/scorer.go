package scoring

import (
	"time"

	"github.com/mwhitfield/carematch/internal/resolve"
	"github.com/mwhitfield/carematch/internal/rules"
	"github.com/mwhitfield/carematch/internal/types"
)

// Context bundles the read-only inputs every category scorer consumes.
// One Context serves a whole matching run; it holds no per-candidate
// state and is safe to share across concurrent scoring.
type Context struct {
	Rules    *rules.Ruleset
	Resolver *resolve.Resolver
	Profile  *types.UserProfile

	// Now anchors inspection freshness for the run so every candidate
	// is measured against the same clock.
	Now time.Time
}

// NewContext builds a scoring context for one profile against one
// validated ruleset.
func NewContext(rs *rules.Ruleset, profile *types.UserProfile, now time.Time) *Context {
	return &Context{
		Rules:    rs,
		Resolver: resolve.New(rs),
		Profile:  profile,
		Now:      now,
	}
}

// check turns a resolution into a diagnostic trail entry.
func check(res types.FieldResolution, weight float64, note string) types.CheckResult {
	return types.CheckResult{
		Requirement: res.Attribute,
		Status:      res.Status,
		Confidence:  res.Confidence,
		ProxyUsed:   res.ProxyUsed,
		Points:      res.Contribution(weight),
		Note:        note,
	}
}

// weightedTally accumulates confidence-weighted contributions and
// reduces them to a 0..100 score.
type weightedTally struct {
	contributions float64
	weights       float64
	checks        int
	unknowns      int
}

func (t *weightedTally) add(res types.FieldResolution, weight float64) {
	t.contributions += res.Contribution(weight)
	t.weights += weight
	t.checks++
	if res.Status == types.StatusUnknown {
		t.unknowns++
	}
}

// score reduces the tally to 0..100. A tally with no checks means
// nothing was demanded, which is full marks, not a failure.
func (t *weightedTally) score() float64 {
	if t.weights == 0 {
		return 100
	}
	return t.contributions / t.weights * 100
}

// unknownRatio is the fraction of checks that resolved Unknown.
func (t *weightedTally) unknownRatio() float64 {
	if t.checks == 0 {
		return 0
	}
	return float64(t.unknowns) / float64(t.checks)
}
