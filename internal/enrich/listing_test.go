package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingFixture = `
<html>
<body>
	<h1>Oakwood Manor</h1>
	<div class="address">12 Elm Road, Guildford, <span itemprop="postalCode">GU1 4XA</span></div>
	<div class="review-rating">
		<span itemprop="ratingValue">9.7</span> out of 10
		<span itemprop="reviewCount">(74 reviews)</span>
	</div>
	<table class="fees-table">
		<tr><td>Residential care</td><td>from £1,095 per week</td></tr>
		<tr><td>Nursing care</td><td>from £1,350 per week</td></tr>
		<tr><td>Dementia nursing care</td><td>from £1,425 per week</td></tr>
		<tr><td>Day care</td><td>price on enquiry</td></tr>
	</table>
	<ul class="facilities">
		<li>Hair Salon</li>
		<li>Landscaped Gardens</li>
		<li>En-suite rooms</li>
		<li>Free WiFi</li>
		<li>Cinema Room</li>
	</ul>
</body>
</html>`

func TestParseListing_ReadsReviewWidgetsAndFees(t *testing.T) {
	rec, err := ParseListing(listingFixture)
	require.NoError(t, err)

	assert.Equal(t, "Oakwood Manor", rec["name"])
	assert.Equal(t, "GU1 4XA", rec["postcode"])
	assert.Equal(t, 9.7, rec["review_score"])
	assert.Equal(t, 74.0, rec["review_count"])

	fees, ok := rec["weekly_prices"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 1095.0, fees["residential"])
	assert.Equal(t, 1350.0, fees["nursing"])
	assert.Equal(t, 1425.0, fees["dementia_nursing"])
	assert.NotContains(t, fees, "day", "unpriceable rows are ignored")

	amenities, ok := rec["amenities"].([]string)
	require.True(t, ok)
	assert.Contains(t, amenities, "hairdresser")
	assert.Contains(t, amenities, "garden")
	assert.Contains(t, amenities, "ensuite_rooms")
	assert.Contains(t, amenities, "wifi")
	assert.Contains(t, amenities, "cinema_room")
}

func TestParseListing_AbsentWidgetsStayAbsent(t *testing.T) {
	rec, err := ParseListing("<html><body><h1>Willow Lodge</h1><p>A lovely home.</p></body></html>")
	require.NoError(t, err)

	assert.Equal(t, "Willow Lodge", rec["name"])
	assert.NotContains(t, rec, "review_score")
	assert.NotContains(t, rec, "review_count")
	assert.NotContains(t, rec, "weekly_prices")
	assert.NotContains(t, rec, "amenities")
}

func TestParseListing_UnreadableReviewWidgetIgnored(t *testing.T) {
	html := `<html><body><span class="review-score">No reviews yet</span></body></html>`
	rec, err := ParseListing(html)
	require.NoError(t, err)
	assert.NotContains(t, rec, "review_score")
}

func TestCareTypeOf(t *testing.T) {
	tests := []struct {
		label    string
		expected string
	}{
		{"Residential care from £1,095", "residential"},
		{"Nursing care", "nursing"},
		{"Dementia residential", "dementia_residential"},
		{"Dementia care", "dementia_residential"},
		{"Dementia nursing care", "dementia_nursing"},
		{"Respite stays", "respite"},
		{"Day care", ""},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.expected, careTypeOf(tt.label))
		})
	}
}

func TestCanonicalAmenity(t *testing.T) {
	tests := []struct {
		label    string
		expected string
	}{
		{"Hair Salon", "hairdresser"},
		{"Landscaped Gardens", "garden"},
		{"Secure gardens", "secure_garden"},
		{"Passenger lift", "lift_access"},
		{"Pets welcome", "pet_friendly"},
		{"Cinema Room", "cinema_room"},
		{"  ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.expected, CanonicalAmenity(tt.label))
		})
	}
}

func TestIsAggregator(t *testing.T) {
	assert.True(t, isAggregator("https://www.cqc.org.uk/location/1-100"))
	assert.True(t, isAggregator("https://www.carehome.co.uk/carehome.cfm/searchazref/100"))
	assert.True(t, isAggregator("https://en.wikipedia.org/wiki/Care_home"))
	assert.False(t, isAggregator("https://www.oakwoodmanor.co.uk/"))
}
