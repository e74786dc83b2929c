package scoring

import (
	"fmt"
	"math"

	"github.com/mwhitfield/carematch/internal/types"
)

const earthRadiusMiles = 3958.8

// ScoreLocation scores proximity to the profile's location through the
// ruleset's distance bands, monotonically decreasing with distance.
// When either side lacks coordinates the score is the configured
// neutral default; an ungeocodable candidate is not a distant one.
func ScoreLocation(ctx *Context, rec *types.CandidateRecord) types.CategoryScore {
	userLat, userLng, userOK := ctx.Profile.Coordinates()
	recLat, recLng, recOK := rec.Coordinates()

	if !userOK || !recOK {
		note := "candidate has no coordinates; using neutral score"
		if !userOK {
			note = "profile has no coordinates; using neutral score"
		}
		return types.CategoryScore{
			Category: types.CategoryLocation,
			Score:    ctx.Rules.LocationNeutral,
			Checks: []types.CheckResult{{
				Requirement: "distance",
				Status:      types.StatusUnknown,
				Note:        note,
			}},
		}
	}

	miles := DistanceMiles(userLat, userLng, recLat, recLng)
	score := ctx.Rules.DistanceFloor
	for _, band := range ctx.Rules.DistanceBands {
		if miles <= band.MaxMiles {
			score = band.Score
			break
		}
	}

	return types.CategoryScore{
		Category: types.CategoryLocation,
		Score:    score,
		Checks: []types.CheckResult{{
			Requirement: "distance",
			Status:      types.StatusMatch,
			Confidence:  1,
			Points:      score,
			Note:        fmt.Sprintf("%.1f miles away", miles),
		}},
	}
}

// DistanceMiles is the haversine great-circle distance between two
// points in miles.
func DistanceMiles(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMiles * math.Asin(math.Sqrt(a))
}
