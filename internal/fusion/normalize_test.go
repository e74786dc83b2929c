package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "OAKWOOD", NormalizeName("Oakwood Care Home Ltd"))
	assert.Equal(t, "OAKWOOD", NormalizeName("The Oakwood Nursing Home"))
	assert.Equal(t, "MULBERRY HOUSE", NormalizeName("Mulberry House Residential Home"))
	assert.Equal(t, "ST JUDES", NormalizeName("St. Jude's"))
	assert.Equal(t, "THE HOME", NormalizeName("The Home"), "all-noise names keep their tokens")
}

func TestNormalizePostcode(t *testing.T) {
	assert.Equal(t, "GU14LX", NormalizePostcode("gu1 4lx"))
	assert.Equal(t, "GU14LX", NormalizePostcode("GU1  4LX"))
	assert.Equal(t, "SW1A1AA", NormalizePostcode("SW1A 1AA"))
	assert.Empty(t, NormalizePostcode("not a postcode"))
	assert.Empty(t, NormalizePostcode(""))
}

func TestNormalizeAddress(t *testing.T) {
	assert.Equal(t, "12 MILL LANE GUILDFORD", NormalizeAddress("12 Mill Ln, Guildford"))
	assert.Equal(t, "4 HIGH STREET", NormalizeAddress("4  High   Street."))
	assert.Equal(t, "THE OLD RECTORY CHURCH ROAD", NormalizeAddress("The Old Rectory, Church Rd"))
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "01483123456", NormalizePhone("01483 123456"))
	assert.Equal(t, "01483123456", NormalizePhone("+44 1483 123456"))
	assert.Equal(t, "01483123456", NormalizePhone("(01483) 123-456"))
}

func TestSnakeCase(t *testing.T) {
	assert.Equal(t, "service_band_dementia", snakeCase("Service Band - Dementia"))
	assert.Equal(t, "wheelchair_access", snakeCase("Wheelchair Access"))
	assert.Equal(t, "garden", snakeCase("garden"))
	assert.Equal(t, "x_1", snakeCase("  X 1 "))
}

func TestTokenOverlap(t *testing.T) {
	assert.Equal(t, 1.0, tokenOverlap([]string{"MILL", "LANE"}, []string{"MILL", "LANE", "GUILDFORD"}))
	assert.Equal(t, 0.5, tokenOverlap([]string{"MILL", "LANE"}, []string{"MILL", "ROAD"}))
	assert.Zero(t, tokenOverlap(nil, []string{"MILL"}))
}
