// Package enrich - listing.go parses the structured parts of directory listing pages.
package enrich

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mwhitfield/carematch/internal/types"
)

// Selectors for the structured widgets directory listings share. The
// platform-specific content selectors in fetch handle the prose; these
// target markup that carries machine-readable values.
const (
	reviewScoreSelector = "[itemprop='ratingValue'], .review-score, .rating-value, .review-rating__score"
	reviewCountSelector = "[itemprop='reviewCount'], .review-count, .reviews-total"
	feeRowSelector      = ".fees-table tr, .fee-table tr, .pricing-table tr, .weekly-fees li"
	amenitySelector     = ".facilities li, .amenities li, .features-list li"
	postcodeSelector    = "[itemprop='postalCode'], .postcode"
)

var (
	numberRe = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)
	priceRe  = regexp.MustCompile(`£\s*([\d,]+(?:\.\d+)?)`)
)

// ParseListing reads the structured parts of a directory listing page:
// review figures, published weekly fees and the amenity checklist.
// Prose sections are left to the LLM extraction pass. Values the markup
// does not expose stay absent; the parse never defaults anything.
func ParseListing(html string) (types.RawRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	rec := types.RawRecord{}

	if name := textOf(doc, "h1"); name != "" {
		rec["name"] = name
	}
	if pc := textOf(doc, postcodeSelector); pc != "" {
		rec["postcode"] = pc
	}

	if score, ok := firstNumber(textOf(doc, reviewScoreSelector)); ok {
		rec["review_score"] = score
	}
	if count, ok := firstNumber(textOf(doc, reviewCountSelector)); ok {
		rec["review_count"] = count
	}

	if fees := parseFees(doc); len(fees) > 0 {
		rec["weekly_prices"] = fees
	}

	if amenities := parseAmenities(doc); len(amenities) > 0 {
		rec["amenities"] = amenities
	}

	return rec, nil
}

func textOf(doc *goquery.Document, selector string) string {
	return strings.TrimSpace(doc.Find(selector).First().Text())
}

// firstNumber reads the first number out of widget text like
// "9.7 out of 10" or "(74 reviews)".
func firstNumber(text string) (float64, bool) {
	match := numberRe.FindString(text)
	if match == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// parseFees reads fee table rows like "Residential care | from £1,095".
// Rows whose label maps onto no known care type are ignored.
func parseFees(doc *goquery.Document) map[string]any {
	fees := map[string]any{}

	doc.Find(feeRowSelector).Each(func(_ int, row *goquery.Selection) {
		text := strings.TrimSpace(row.Text())
		careType := careTypeOf(text)
		if careType == "" {
			return
		}
		if _, dup := fees[careType]; dup {
			return
		}

		match := priceRe.FindStringSubmatch(text)
		if match == nil {
			return
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(match[1], ",", ""), 64)
		if err != nil || f <= 0 {
			return
		}
		fees[careType] = f
	})

	return fees
}

// careTypeOf maps a fee row label onto the care type vocabulary prices
// are keyed by. Dementia fees split by the underlying care level.
func careTypeOf(label string) string {
	l := strings.ToLower(label)
	dementia := strings.Contains(l, "dementia")
	switch {
	case dementia && strings.Contains(l, "nursing"):
		return "dementia_nursing"
	case dementia:
		return "dementia_residential"
	case strings.Contains(l, "nursing"):
		return "nursing"
	case strings.Contains(l, "respite"):
		return "respite"
	case strings.Contains(l, "residential"):
		return "residential"
	default:
		return ""
	}
}

func parseAmenities(doc *goquery.Document) []string {
	var amenities []string
	seen := map[string]bool{}

	doc.Find(amenitySelector).Each(func(_ int, item *goquery.Selection) {
		name := CanonicalAmenity(item.Text())
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		amenities = append(amenities, name)
	})

	return amenities
}

// amenityAliases maps directory phrasings onto the attribute names the
// ruleset's amenity checklist and proxy rules use.
var amenityAliases = map[string]string{
	"hair_salon":           "hairdresser",
	"hairdressing_salon":   "hairdresser",
	"activities":           "activities_programme",
	"activity_programme":   "activities_programme",
	"daily_activities":     "activities_programme",
	"gardens":              "garden",
	"landscaped_gardens":   "garden",
	"garden_for_residents": "garden",
	"en_suite_rooms":       "ensuite_rooms",
	"en_suite":             "ensuite_rooms",
	"ensuite":              "ensuite_rooms",
	"pets_welcome":         "pet_friendly",
	"pets_allowed":         "pet_friendly",
	"day_trips":            "outings",
	"trips_out":            "outings",
	"minibus_outings":      "outings",
	"own_chef":             "chef_prepared_meals",
	"home_cooked_food":     "chef_prepared_meals",
	"chaplaincy":           "religious_services",
	"church_services":      "religious_services",
	"internet_access":      "wifi",
	"free_wifi":            "wifi",
	"flexible_visiting":    "visiting_flexibility",
	"open_visiting":        "visiting_flexibility",
	"lift":                 "lift_access",
	"passenger_lift":       "lift_access",
	"secure_gardens":       "secure_garden",
}

// CanonicalAmenity slugs a directory amenity label and resolves known
// aliases onto ruleset attribute names. Unrecognised amenities keep
// their slug; an unmatched tag simply never resolves.
func CanonicalAmenity(label string) string {
	slug := slugify(label)
	if canonical, ok := amenityAliases[slug]; ok {
		return canonical
	}
	return slug
}

// slugify lowercases a label and collapses non-alphanumeric runs to
// single underscores, matching the attribute-name convention.
func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	lastUnderscore := true
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteRune('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
