// Package engine orchestrates one matching run: radius pre-filter,
// critical-requirement filter, parallel scoring, ranking and slot
// selection over an in-memory candidate batch.
package engine

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mwhitfield/carematch/internal/rules"
	"github.com/mwhitfield/carematch/internal/scoring"
	"github.com/mwhitfield/carematch/internal/selection"
	"github.com/mwhitfield/carematch/internal/types"
)

// Options tune one matching run.
type Options struct {
	// TopK caps the ranked shortlist. Zero means the selection default.
	TopK int
	// MinShortlist is the fewest scored candidates the caller will accept.
	// When fewer survive the filters, Match returns an
	// InsufficientCandidatesError carrying relaxation hints. Zero disables
	// the check.
	MinShortlist int
	// Workers bounds concurrent scoring. Zero means one per CPU.
	Workers int
	// Now anchors inspection-freshness maths for the run. Zero means the
	// wall clock; tests and replayed runs pin it.
	Now time.Time
}

// Engine scores candidate batches against one loaded ruleset. The ruleset
// is read-only after construction, so a single Engine is safe for
// concurrent use across requests.
type Engine struct {
	rules *rules.Ruleset
}

// New builds an Engine over a validated ruleset.
func New(rs *rules.Ruleset) *Engine {
	return &Engine{rules: rs}
}

// outcome carries one candidate's result across the scoring join.
type outcome struct {
	rec       *types.CandidateRecord
	filter    scoring.FilterResult
	breakdown *types.ScoreBreakdown
	failure   string
}

// Match runs the full pipeline for one profile. Scoring of individual
// candidates is pure and runs concurrently; ranking and slot selection
// happen after the join. A candidate whose scorer panics is dropped and
// recorded in the diagnostics rather than sinking the batch.
func (e *Engine) Match(ctx context.Context, profile *types.UserProfile, candidates []*types.CandidateRecord, opts Options) (*types.SelectionResult, error) {
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("invalid profile: %w", err)
	}

	weights, applied, err := scoring.ComputeWeights(e.rules, profile)
	if err != nil {
		return nil, fmt.Errorf("computing weights: %w", err)
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	sctx := scoring.NewContext(e.rules, profile, now)

	diag := types.RunDiagnostics{
		CandidatesIn:       len(candidates),
		Attributes:         map[string]types.AttributeStats{},
		DisqualifiedBy:     map[string]int{},
		AppliedAdjustments: applied,
	}

	pool := e.withinRadius(profile, candidates, &diag)

	results := make([]outcome, len(pool))

	g, gctx := errgroup.WithContext(ctx)
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	g.SetLimit(workers)

	for i, rec := range pool {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = scoreOne(sctx, rec, weights)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scoring batch: %w", err)
	}

	scored := make([]types.RankedCandidate, 0, len(results))
	for _, out := range results {
		if out.failure != "" {
			diag.Failed++
			diag.Failures = append(diag.Failures, out.failure)
			continue
		}
		countChecks(diag.Attributes, out.filter.Checks)
		if out.filter.Disqualified {
			diag.Disqualified++
			for _, attr := range out.filter.FailedRequirements {
				diag.DisqualifiedBy[attr]++
			}
			continue
		}
		for _, sub := range out.breakdown.Categories {
			countChecks(diag.Attributes, sub.Checks)
		}
		diag.Scored++
		scored = append(scored, types.RankedCandidate{
			Breakdown: *out.breakdown,
			Candidate: out.rec,
		})
	}

	if opts.MinShortlist > 0 && diag.Scored < opts.MinShortlist {
		return nil, &InsufficientCandidatesError{
			Scored:      diag.Scored,
			Required:    opts.MinShortlist,
			Diagnostics: diag,
			Hints:       relaxationHints(profile, diag),
		}
	}

	ranked, slots := selection.Select(e.rules, profile, scored, opts.TopK)

	return &types.SelectionResult{
		Ranked:      ranked,
		Slots:       slots,
		Diagnostics: diag,
	}, nil
}

// withinRadius drops candidates whose known position lies beyond the
// profile's search radius. Candidates with unknown coordinates stay in:
// missing data lowers their location score but never excludes them.
func (e *Engine) withinRadius(profile *types.UserProfile, candidates []*types.CandidateRecord, diag *types.RunDiagnostics) []*types.CandidateRecord {
	plat, plng, ok := profile.Coordinates()
	if !ok || profile.SearchRadiusMiles <= 0 {
		return candidates
	}

	pool := make([]*types.CandidateRecord, 0, len(candidates))
	for _, rec := range candidates {
		if lat, lng, known := rec.Coordinates(); known {
			if scoring.DistanceMiles(plat, plng, lat, lng) > profile.SearchRadiusMiles {
				diag.OutOfRadius++
				continue
			}
		}
		pool = append(pool, rec)
	}
	return pool
}

// scoreOne filters and scores a single candidate, converting a panic into
// a recorded failure.
func scoreOne(sctx *scoring.Context, rec *types.CandidateRecord, weights scoring.WeightVector) (out outcome) {
	out.rec = rec
	id := "(unidentified record)"
	if rec != nil && rec.LocationID != "" {
		id = rec.LocationID
	}
	defer func() {
		if r := recover(); r != nil {
			out.breakdown = nil
			out.failure = fmt.Sprintf("%s: scoring panicked: %v", id, r)
		}
	}()

	out.filter = scoring.ApplyFilter(sctx, rec)
	if out.filter.Disqualified {
		return out
	}
	out.breakdown = scoring.ScoreCandidate(sctx, rec, weights)
	return out
}

func countChecks(stats map[string]types.AttributeStats, checks []types.CheckResult) {
	for _, c := range checks {
		s := stats[c.Requirement]
		switch c.Status {
		case types.StatusMatch:
			s.Match++
		case types.StatusProxyMatch:
			s.ProxyMatch++
		case types.StatusUnknown:
			s.Unknown++
		case types.StatusNoMatch:
			s.NoMatch++
		}
		stats[c.Requirement] = s
	}
}
