// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/mwhitfield/carematch/internal/fusion"
	"github.com/mwhitfield/carematch/internal/loader"
	"github.com/mwhitfield/carematch/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintProfile outputs a human-readable summary of the resident profile.
func (p *Printer) PrintProfile(profile *types.UserProfile) {
	if profile == nil {
		return
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Care type:  %s\n", profile.CareType))
	sb.WriteString(fmt.Sprintf("Postcode:   %s\n", profile.Postcode))
	if profile.WeeklyBudget != nil {
		sb.WriteString(fmt.Sprintf("Budget:     £%.0f/week\n", *profile.WeeklyBudget))
	}
	if profile.Mobility != "" {
		sb.WriteString(fmt.Sprintf("Mobility:   %s\n", profile.Mobility))
	}
	if len(profile.Conditions) > 0 {
		sb.WriteString(fmt.Sprintf("Conditions: %s\n", strings.Join(profile.Conditions, ", ")))
	}
	if len(profile.Behaviours) > 0 {
		sb.WriteString(fmt.Sprintf("Behaviours: %s\n", strings.Join(profile.Behaviours, ", ")))
	}
	if profile.SearchRadiusMiles > 0 {
		sb.WriteString(fmt.Sprintf("Radius:     %.0f miles\n", profile.SearchRadiusMiles))
	}
	if profile.Urgent {
		sb.WriteString("Urgent:     yes\n")
	}

	p.printBox("RESIDENT PROFILE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintWeights outputs the resolved category weights and the adjustments
// that produced them.
func (p *Printer) PrintWeights(weights map[types.Category]float64, applied []string) {
	if len(weights) == 0 {
		return
	}

	var sb strings.Builder
	for _, cat := range types.Categories() {
		w, ok := weights[cat]
		if !ok {
			continue
		}
		sb.WriteString(fmt.Sprintf("%-20s %5.2f\n", cat, w))
	}

	if len(applied) > 0 {
		sb.WriteString("\nApplied adjustments:\n")
		for _, adj := range applied {
			sb.WriteString(fmt.Sprintf("  • %s\n", adj))
		}
	}

	p.printBox("CATEGORY WEIGHTS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintDatasetReport outputs one dataset's load outcome.
func (p *Printer) PrintDatasetReport(name string, report *loader.Report) {
	if report == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Rows loaded:  %d\n", report.Rows))
	sb.WriteString(fmt.Sprintf("Rows skipped: %d\n", report.Skipped))

	if len(report.Problems) > 0 {
		sb.WriteString("\nProblems:\n")
		count := min(len(report.Problems), 3)
		for i := 0; i < count; i++ {
			problem := report.Problems[i]
			if len(problem) > 50 {
				problem = problem[:47] + "..."
			}
			sb.WriteString(fmt.Sprintf("  • %s\n", problem))
		}
		if len(report.Problems) > 3 {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(report.Problems)-3))
		}
	}

	p.printBox("DATASET: "+strings.ToUpper(name), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintFusionReport outputs how the two datasets were merged.
func (p *Printer) PrintFusionReport(report *fusion.Report) {
	if report == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Primary in:       %d\n", report.PrimaryIn))
	sb.WriteString(fmt.Sprintf("Secondary in:     %d\n", report.SecondaryIn))
	sb.WriteString(fmt.Sprintf("Matched by ID:    %d\n", report.MatchedByID))
	sb.WriteString(fmt.Sprintf("Soft matched:     %d\n", report.SoftMatched))
	sb.WriteString(fmt.Sprintf("Primary only:     %d\n", report.PrimaryOnly))
	sb.WriteString(fmt.Sprintf("Secondary kept:   %d\n", report.SecondaryOnlyKept))
	sb.WriteString(fmt.Sprintf("Secondary dropped:%d\n", report.SecondaryOnlyDropped))

	if len(report.Conflicts) > 0 {
		sb.WriteString(fmt.Sprintf("\n%d field conflicts (primary wins):\n", len(report.Conflicts)))
		count := min(len(report.Conflicts), 3)
		for i := 0; i < count; i++ {
			c := report.Conflicts[i]
			sb.WriteString(fmt.Sprintf("  • %s %s\n", c.LocationID, c.Field))
		}
		if len(report.Conflicts) > 3 {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(report.Conflicts)-3))
		}
	}

	p.printBox("FUSION REPORT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintShortlist outputs the ranked shortlist and named slots.
func (p *Printer) PrintShortlist(result *types.SelectionResult) {
	if result == nil || len(result.Ranked) == 0 {
		return
	}

	var sb strings.Builder

	count := min(len(result.Ranked), maxItemsToShow)
	for i := 0; i < count; i++ {
		rc := result.Ranked[i]
		name := rc.Breakdown.Name
		if name == "" {
			name = rc.Breakdown.LocationID
		}
		if len(name) > 32 {
			name = name[:29] + "..."
		}
		sb.WriteString(fmt.Sprintf("#%-2d %-32s %5.1f\n", rc.Rank, name, rc.Breakdown.Total))
	}
	if len(result.Ranked) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more\n", len(result.Ranked)-maxItemsToShow))
	}

	if len(result.Slots) > 0 {
		sb.WriteString("\nRecommendations:\n")
		for _, slot := range result.Slots {
			sb.WriteString(fmt.Sprintf("  %-14s %s\n", slot.Slot, slot.Name))
			if slot.Reason != "" {
				reason := slot.Reason
				if len(reason) > 45 {
					reason = reason[:42] + "..."
				}
				sb.WriteString(fmt.Sprintf("    %s\n", reason))
			}
		}
	}

	p.printBox("SHORTLIST", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintBreakdown outputs one candidate's per-category scoring trail.
func (p *Printer) PrintBreakdown(b *types.ScoreBreakdown) {
	if b == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s (%s)\n", b.Name, b.LocationID))
	sb.WriteString(fmt.Sprintf("Total: %.1f\n\n", b.Total))

	sb.WriteString(fmt.Sprintf("%-20s %6s %7s %7s\n", "Category", "Score", "Weight", "Points"))
	for _, cs := range b.Categories {
		sb.WriteString(fmt.Sprintf("%-20s %6.1f %7.2f %7.1f\n", cs.Category, cs.Score, cs.Weight, cs.Points))
	}

	if len(b.Warnings) > 0 {
		sb.WriteString("\nWarnings:\n")
		count := min(len(b.Warnings), 3)
		for i := 0; i < count; i++ {
			warning := b.Warnings[i]
			if len(warning) > 50 {
				warning = warning[:47] + "..."
			}
			sb.WriteString(fmt.Sprintf("  ⚠ %s\n", warning))
		}
		if len(b.Warnings) > 3 {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(b.Warnings)-3))
		}
	}

	p.printBox("SCORE BREAKDOWN", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintDiagnostics outputs run-level attrition and resolution quality.
func (p *Printer) PrintDiagnostics(diag *types.RunDiagnostics) {
	if diag == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Candidates in:  %d\n", diag.CandidatesIn))
	if diag.OutOfRadius > 0 {
		sb.WriteString(fmt.Sprintf("Out of radius:  %d\n", diag.OutOfRadius))
	}
	sb.WriteString(fmt.Sprintf("Disqualified:   %d\n", diag.Disqualified))
	sb.WriteString(fmt.Sprintf("Scored:         %d\n", diag.Scored))
	if diag.Failed > 0 {
		sb.WriteString(fmt.Sprintf("Failed:         %d\n", diag.Failed))
	}

	if len(diag.DisqualifiedBy) > 0 {
		sb.WriteString("\nDisqualified by:\n")
		for _, attr := range sortedKeys(diag.DisqualifiedBy) {
			sb.WriteString(fmt.Sprintf("  • %s (%d)\n", attr, diag.DisqualifiedBy[attr]))
		}
	}

	if unknowns := mostUnknown(diag.Attributes, 3); len(unknowns) > 0 {
		sb.WriteString("\nLeast-known attributes:\n")
		for _, attr := range unknowns {
			sb.WriteString(fmt.Sprintf("  • %s (%d unknown)\n", attr, diag.Attributes[attr].Unknown))
		}
	}

	p.printBox("RUN DIAGNOSTICS", strings.TrimSuffix(sb.String(), "\n"))
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// mostUnknown returns up to n attribute names ordered by how often they
// resolved to Unknown, ties broken alphabetically.
func mostUnknown(stats map[string]types.AttributeStats, n int) []string {
	attrs := make([]string, 0, len(stats))
	for attr, s := range stats {
		if s.Unknown > 0 {
			attrs = append(attrs, attr)
		}
	}
	sort.Slice(attrs, func(i, j int) bool {
		si, sj := stats[attrs[i]].Unknown, stats[attrs[j]].Unknown
		if si != sj {
			return si > sj
		}
		return attrs[i] < attrs[j]
	})
	if len(attrs) > n {
		attrs = attrs[:n]
	}
	return attrs
}
