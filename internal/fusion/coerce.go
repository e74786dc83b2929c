package fusion

import (
	"strconv"
	"strings"
	"time"

	"github.com/mwhitfield/carematch/internal/types"
)

// Typed keys recognised by coercion. Loaders are responsible for mapping
// source columns onto these names; coercion only handles shape.
const (
	keyLocationID  = "location_id"
	keyName        = "name"
	keyAddress     = "address_line"
	keyPostcode    = "postcode"
	keyRegion      = "region"
	keyPhone       = "phone"
	keyLatitude    = "latitude"
	keyLongitude   = "longitude"
	keyRatings     = "ratings"
	keyInspection  = "last_inspection"
	keyPrices      = "weekly_prices"
	keyBeds        = "beds"
	keyReviewScore = "review_score"
	keyReviewCount = "review_count"

	ratingPrefix = "rating_"
	pricePrefix  = "price_"
)

// groupPrefixes maps each nested tag collection onto the namespace its
// tags carry once coerced. Regulator exports list bands and activities
// as bare labels ("Dementia") while rulesets address them as namespaced
// attributes ("service_band_dementia"), so coercion applies the prefix.
// Amenity names stay bare. Already-canonical names pass through as-is.
var groupPrefixes = map[string]string{
	"service_user_bands":   "service_band_",
	"regulated_activities": "regulated_activity_",
	"amenities":            "",
}

func isGroupKey(key string) bool {
	_, ok := groupPrefixes[key]
	return ok
}

var inspectionFormats = []string{"2006-01-02", time.RFC3339}

// coerceRecord turns one loosely-typed raw record into a CandidateRecord.
// Values that cannot be read as their expected shape are dropped, which
// leaves the attribute unknown; coercion never invents an explicit false.
func coerceRecord(raw types.RawRecord, source string) *types.CandidateRecord {
	rec := &types.CandidateRecord{
		Ratings:      map[string]string{},
		WeeklyPrices: map[string]float64{},
		Flags:        map[string]bool{},
		Groups:       map[string][]types.Tag{},
		Sources:      []string{source},
	}

	for rawKey, v := range raw {
		key := snakeCase(rawKey)
		switch {
		case key == keyLocationID:
			rec.LocationID, _ = asString(v)
		case key == keyName:
			rec.Name, _ = asString(v)
		case key == keyAddress:
			rec.AddressLine, _ = asString(v)
		case key == keyPostcode:
			rec.Postcode, _ = asString(v)
		case key == keyRegion:
			rec.Region, _ = asString(v)
		case key == keyPhone:
			rec.Phone, _ = asString(v)
		case key == keyLatitude:
			if f, ok := asFloat(v); ok {
				rec.Latitude = &f
			}
		case key == keyLongitude:
			if f, ok := asFloat(v); ok {
				rec.Longitude = &f
			}
		case key == keyRatings:
			if m, ok := v.(map[string]any); ok {
				for domain, rv := range m {
					if s, ok := asString(rv); ok {
						rec.Ratings[snakeCase(domain)] = s
					}
				}
			}
		case strings.HasPrefix(key, ratingPrefix):
			if s, ok := asString(v); ok {
				rec.Ratings[strings.TrimPrefix(key, ratingPrefix)] = s
			}
		case key == keyInspection:
			if s, ok := asString(v); ok {
				for _, layout := range inspectionFormats {
					if ts, err := time.Parse(layout, s); err == nil {
						rec.LastInspection = &ts
						break
					}
				}
			}
		case key == keyPrices:
			if m, ok := v.(map[string]any); ok {
				for careType, pv := range m {
					if f, ok := asFloat(pv); ok && f > 0 {
						rec.WeeklyPrices[snakeCase(careType)] = f
					}
				}
			}
		case strings.HasPrefix(key, pricePrefix):
			if f, ok := asFloat(v); ok && f > 0 {
				rec.WeeklyPrices[strings.TrimPrefix(key, pricePrefix)] = f
			}
		case key == keyBeds:
			if n, ok := asInt(v); ok && n > 0 {
				rec.Beds = &n
			}
		case key == keyReviewScore:
			if f, ok := asFloat(v); ok {
				rec.ReviewScore = &f
			}
		case key == keyReviewCount:
			if n, ok := asInt(v); ok && n >= 0 {
				rec.ReviewCount = &n
			}
		case isGroupKey(key):
			rec.Groups[key] = coerceTags(v, groupPrefixes[key])
		default:
			if b, ok := asBool(v); ok {
				rec.Flags[key] = b
			}
		}
	}

	return rec
}

// coerceTags reads a nested tag collection: plain strings mark presence,
// objects may carry an explicit negative.
func coerceTags(v any, prefix string) []types.Tag {
	list, ok := v.([]any)
	if !ok {
		if strs, ok := v.([]string); ok {
			tags := make([]types.Tag, 0, len(strs))
			for _, s := range strs {
				if s != "" {
					tags = append(tags, types.Tag{Name: tagName(s, prefix)})
				}
			}
			return tags
		}
		return nil
	}

	tags := make([]types.Tag, 0, len(list))
	for _, item := range list {
		switch t := item.(type) {
		case string:
			if t != "" {
				tags = append(tags, types.Tag{Name: tagName(t, prefix)})
			}
		case map[string]any:
			name, _ := asString(t["name"])
			if name == "" {
				continue
			}
			neg, _ := asBool(t["negative"])
			tags = append(tags, types.Tag{Name: tagName(name, prefix), Negative: neg})
		}
	}
	return tags
}

func tagName(label, prefix string) string {
	name := snakeCase(label)
	if prefix == "" || strings.HasPrefix(name, prefix) {
		return name
	}
	return prefix + name
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(n, ",", ""))
		s = strings.TrimPrefix(s, "£")
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func asInt(v any) (int, bool) {
	f, ok := asFloat(v)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// asBool reads the boolean spellings the datasets actually use. Any
// other string is unreadable and the attribute stays unknown; mapping
// unrecognised text to false would corrupt the absence distinction.
func asBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "yes", "y", "1":
			return true, true
		case "false", "no", "n", "0":
			return false, true
		default:
			return false, false
		}
	case float64:
		if b == 1 {
			return true, true
		}
		if b == 0 {
			return false, true
		}
		return false, false
	default:
		return false, false
	}
}

// snakeCase canonicalises attribute and key names: lowercase with
// non-alphanumeric runs collapsed to single underscores.
func snakeCase(s string) string {
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
