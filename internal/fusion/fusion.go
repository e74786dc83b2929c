package fusion

import (
	"fmt"
	"sort"

	"github.com/mwhitfield/carematch/internal/rules"
	"github.com/mwhitfield/carematch/internal/types"
)

// Options controls fusion behaviour.
type Options struct {
	// KeepSecondaryOnly admits records the regulator has never seen.
	// Off by default: the primary dataset defines the eligible universe.
	KeepSecondaryOnly bool

	// AuxiliaryGroups are tag groups where the directory wins conflicts.
	AuxiliaryGroups []string

	// AuxiliaryAttributes are flat flags where the directory wins
	// conflicts, typically the amenity checklist.
	AuxiliaryAttributes []string

	// PrimarySource and SecondarySource label record provenance.
	PrimarySource   string
	SecondarySource string
}

// DefaultOptions returns fusion options aligned with the default
// ruleset's amenity checklist.
func DefaultOptions() Options {
	amenities := rules.Default().Amenities
	attrs := make([]string, 0, len(amenities))
	for _, a := range amenities {
		attrs = append(attrs, a.Attribute)
	}
	return Options{
		AuxiliaryGroups:     []string{"amenities"},
		AuxiliaryAttributes: attrs,
		PrimarySource:       "regulator",
		SecondarySource:     "directory",
	}
}

// Conflict records one authoritative-field disagreement that fusion
// resolved by priority.
type Conflict struct {
	LocationID string `json:"location_id"`
	Field      string `json:"field"`
	Primary    string `json:"primary"`
	Secondary  string `json:"secondary"`
}

// Report summarises one fusion run.
type Report struct {
	PrimaryIn            int        `json:"primary_in"`
	SecondaryIn          int        `json:"secondary_in"`
	MatchedByID          int        `json:"matched_by_id"`
	SoftMatched          int        `json:"soft_matched"`
	PrimaryOnly          int        `json:"primary_only"`
	SecondaryOnlyKept    int        `json:"secondary_only_kept"`
	SecondaryOnlyDropped int        `json:"secondary_only_dropped"`
	Conflicts            []Conflict `json:"conflicts,omitempty"`
}

// Fuse merges the primary (regulator) and secondary (directory) record
// collections into one deterministic candidate list.
//
// Records are matched by the shared location identifier first; records
// the identifier cannot link are soft-matched on normalised identity
// signals, requiring at least two in agreement. Authoritative field
// groups (identity, geo, ratings, inspection dates, care registration)
// take the primary's value whenever the primary has one; auxiliary
// groups (pricing, reviews, beds, amenities) prefer the secondary.
// Fields only one source knows pass through untouched, and a field
// neither source knows stays absent rather than becoming false.
func Fuse(primary, secondary []types.RawRecord, opts Options) ([]*types.CandidateRecord, *Report, error) {
	if opts.PrimarySource == "" {
		opts.PrimarySource = "regulator"
	}
	if opts.SecondarySource == "" {
		opts.SecondarySource = "directory"
	}

	report := &Report{PrimaryIn: len(primary), SecondaryIn: len(secondary)}

	type primaryRecord struct {
		rec       *types.CandidateRecord
		synthetic bool
	}

	primaries := make([]primaryRecord, 0, len(primary))
	for _, raw := range primary {
		rec := coerceRecord(raw, opts.PrimarySource)
		synthetic := rec.LocationID == ""
		if synthetic {
			rec.LocationID = syntheticID(rec)
		}
		if rec.LocationID == "" {
			// Nothing to key on at all; the record is unusable.
			continue
		}
		primaries = append(primaries, primaryRecord{rec: rec, synthetic: synthetic})
	}

	secondaries := make([]*types.CandidateRecord, 0, len(secondary))
	for _, raw := range secondary {
		secondaries = append(secondaries, coerceRecord(raw, opts.SecondarySource))
	}

	// Pass 1: identifier matches.
	secByID := make(map[string]int, len(secondaries))
	for i, sec := range secondaries {
		if sec.LocationID != "" {
			if _, dup := secByID[sec.LocationID]; !dup {
				secByID[sec.LocationID] = i
			}
		}
	}

	claimed := make([]bool, len(secondaries))
	fused := make([]*types.CandidateRecord, 0, len(primaries))
	var unmatched []primaryRecord

	for _, prim := range primaries {
		if i, ok := secByID[prim.rec.LocationID]; ok && !claimed[i] {
			claimed[i] = true
			fused = append(fused, merge(prim.rec, secondaries[i], opts, report))
			report.MatchedByID++
			continue
		}
		unmatched = append(unmatched, prim)
	}

	// Pass 2: soft matching for primaries the identifier could not link.
	// A secondary that carries its own unmatched identifier may only
	// merge with a primary that never had a real one; records whose
	// explicit identifiers disagree are different homes.
	secKeys := make([]softKey, len(secondaries))
	for i, sec := range secondaries {
		secKeys[i] = softKeyOf(sec)
	}

	for _, prim := range unmatched {
		key := softKeyOf(prim.rec)
		matched := false
		for i := range secondaries {
			if claimed[i] {
				continue
			}
			if secondaries[i].LocationID != "" && !prim.synthetic {
				continue
			}
			if isSoftMatch(key, secKeys[i]) {
				claimed[i] = true
				rec := merge(prim.rec, secondaries[i], opts, report)
				if prim.synthetic && secondaries[i].LocationID != "" {
					rec.LocationID = secondaries[i].LocationID
				}
				fused = append(fused, rec)
				report.SoftMatched++
				matched = true
				break
			}
		}
		if !matched {
			fused = append(fused, prim.rec)
			report.PrimaryOnly++
		}
	}

	// Secondary-only records are outside the regulated universe.
	for i, sec := range secondaries {
		if claimed[i] {
			continue
		}
		if !opts.KeepSecondaryOnly {
			report.SecondaryOnlyDropped++
			continue
		}
		if sec.LocationID == "" {
			sec.LocationID = syntheticID(sec)
		}
		if sec.LocationID == "" {
			report.SecondaryOnlyDropped++
			continue
		}
		fused = append(fused, sec)
		report.SecondaryOnlyKept++
	}

	sort.Slice(fused, func(i, j int) bool {
		if fused[i].LocationID != fused[j].LocationID {
			return fused[i].LocationID < fused[j].LocationID
		}
		return fused[i].Name < fused[j].Name
	})

	return fused, report, nil
}

// syntheticID builds a stable key for records without an identifier so
// output order and downstream references stay deterministic.
func syntheticID(rec *types.CandidateRecord) string {
	name := NormalizeName(rec.Name)
	pc := NormalizePostcode(rec.Postcode)
	if name == "" {
		return ""
	}
	if pc == "" {
		pc = "NOPC"
	}
	return fmt.Sprintf("x-%s-%s", snakeCase(name), pc)
}

// merge folds one matched secondary record into its primary record.
func merge(prim, sec *types.CandidateRecord, opts Options, report *Report) *types.CandidateRecord {
	out := *prim
	out.Sources = append(append([]string{}, prim.Sources...), sec.Sources...)

	// Identity and geo are authoritative; the secondary only fills gaps.
	if out.AddressLine == "" {
		out.AddressLine = sec.AddressLine
	}
	if out.Postcode == "" {
		out.Postcode = sec.Postcode
	}
	if out.Region == "" {
		out.Region = sec.Region
	}
	if out.Phone == "" {
		out.Phone = sec.Phone
	}
	if out.Latitude == nil {
		out.Latitude = sec.Latitude
	}
	if out.Longitude == nil {
		out.Longitude = sec.Longitude
	}
	if out.Name != "" && sec.Name != "" && NormalizeName(out.Name) != NormalizeName(sec.Name) {
		report.Conflicts = append(report.Conflicts, Conflict{
			LocationID: out.LocationID, Field: "name", Primary: out.Name, Secondary: sec.Name,
		})
	}

	// Ratings and inspection dates are authoritative.
	out.Ratings = mergeRatings(prim.Ratings, sec.Ratings, out.LocationID, report)
	if out.LastInspection == nil {
		out.LastInspection = sec.LastInspection
	}

	// Pricing, reviews and beds are fresher in the directory.
	out.WeeklyPrices = mergePrices(prim.WeeklyPrices, sec.WeeklyPrices)
	if sec.Beds != nil {
		out.Beds = sec.Beds
	}
	if sec.ReviewScore != nil {
		out.ReviewScore = sec.ReviewScore
	}
	if sec.ReviewCount != nil {
		out.ReviewCount = sec.ReviewCount
	}

	out.Flags = mergeFlags(prim.Flags, sec.Flags, opts)
	out.Groups = mergeGroups(prim.Groups, sec.Groups, opts)

	return &out
}

func mergeRatings(prim, sec map[string]string, locationID string, report *Report) map[string]string {
	out := make(map[string]string, len(prim)+len(sec))
	for domain, v := range sec {
		out[domain] = v
	}

	// Conflicts are reported in sorted domain order so identical inputs
	// produce identical reports.
	domains := make([]string, 0, len(prim))
	for domain := range prim {
		domains = append(domains, domain)
	}
	sort.Strings(domains)

	for _, domain := range domains {
		v := prim[domain]
		if sv, ok := sec[domain]; ok && sv != v {
			report.Conflicts = append(report.Conflicts, Conflict{
				LocationID: locationID,
				Field:      "ratings." + domain,
				Primary:    v,
				Secondary:  sv,
			})
		}
		out[domain] = v
	}
	return out
}

func mergePrices(prim, sec map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(prim)+len(sec))
	for careType, v := range prim {
		out[careType] = v
	}
	for careType, v := range sec {
		out[careType] = v
	}
	return out
}

func mergeFlags(prim, sec map[string]bool, opts Options) map[string]bool {
	aux := make(map[string]bool, len(opts.AuxiliaryAttributes))
	for _, a := range opts.AuxiliaryAttributes {
		aux[a] = true
	}

	out := make(map[string]bool, len(prim)+len(sec))
	for k, v := range prim {
		out[k] = v
	}
	for k, v := range sec {
		if existing, ok := out[k]; ok {
			if aux[k] {
				out[k] = v
			} else {
				out[k] = existing
			}
			continue
		}
		out[k] = v
	}
	return out
}

func mergeGroups(prim, sec map[string][]types.Tag, opts Options) map[string][]types.Tag {
	aux := make(map[string]bool, len(opts.AuxiliaryGroups))
	for _, g := range opts.AuxiliaryGroups {
		aux[g] = true
	}

	out := make(map[string][]types.Tag, len(prim)+len(sec))
	for g, tags := range prim {
		out[g] = tags
	}
	for g, tags := range sec {
		existing, ok := out[g]
		if !ok {
			out[g] = tags
			continue
		}
		if aux[g] {
			// Directory owns the group; regulator tags fill in behind it.
			out[g] = unionTags(tags, existing)
		} else {
			out[g] = unionTags(existing, tags)
		}
	}
	return out
}

// unionTags keeps every tag from the leading set and appends trailing
// tags whose names the leading set does not mention.
func unionTags(lead, trail []types.Tag) []types.Tag {
	seen := make(map[string]bool, len(lead))
	out := make([]types.Tag, 0, len(lead)+len(trail))
	for _, t := range lead {
		if !seen[t.Name] {
			seen[t.Name] = true
			out = append(out, t)
		}
	}
	for _, t := range trail {
		if !seen[t.Name] {
			seen[t.Name] = true
			out = append(out, t)
		}
	}
	return out
}
