package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV_MapsHeadersAndLists(t *testing.T) {
	csvData := strings.Join([]string{
		`Location ID,Location Name,Location Post Code,Service User Bands,Nursing Care,Weekly Price Residential`,
		`1-101,Oakwood Manor,GU1 4LX,Dementia; Old Age,Y,"£1,050"`,
	}, "\n")

	records, report, err := ReadCSV(strings.NewReader(csvData), DefaultOptions())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1, report.Rows)
	assert.Zero(t, report.Skipped)

	rec := records[0]
	assert.Equal(t, "1-101", rec["Location ID"], "unmapped headers pass through under their own name")
	assert.Equal(t, "Oakwood Manor", rec["name"])
	assert.Equal(t, "GU1 4LX", rec["postcode"])
	assert.Equal(t, []string{"Dementia", "Old Age"}, rec["service_user_bands"])
	assert.Equal(t, "Y", rec["Nursing Care"])
	assert.Equal(t, "£1,050", rec["price_residential"])
}

func TestReadCSV_SkipsMalformedRows(t *testing.T) {
	csvData := strings.Join([]string{
		`Location ID,Location Name`,
		`1-101,Oakwood Manor`,
		`1-102,Hilltop Lodge,unexpected,extra`,
		`1-103,Quiet House`,
	}, "\n")

	records, report, err := ReadCSV(strings.NewReader(csvData), DefaultOptions())
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "1-101", records[0]["Location ID"])
	assert.Equal(t, "1-103", records[1]["Location ID"])
	assert.Equal(t, 1, report.Skipped)
	require.Len(t, report.Problems, 1)
	assert.Contains(t, report.Problems[0], "line 3")
}

func TestReadCSV_SkipsRowsWithNoValues(t *testing.T) {
	csvData := strings.Join([]string{
		`Location ID,Location Name`,
		`1-101,Oakwood Manor`,
		`,`,
	}, "\n")

	records, report, err := ReadCSV(strings.NewReader(csvData), DefaultOptions())
	require.NoError(t, err)

	assert.Len(t, records, 1)
	assert.Equal(t, 1, report.Skipped)
}

func TestReadCSV_EmptyInput(t *testing.T) {
	_, _, err := ReadCSV(strings.NewReader(""), DefaultOptions())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no header row")
}

func TestLoadJSON_SkipsNonObjectElements(t *testing.T) {
	path := filepath.Join(t.TempDir(), "directory.json")
	payload := `[
		{"name": "Oakwood Manor", "review_score": 9.2},
		42,
		{"name": "Quiet House"}
	]`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0644))

	records, report, err := LoadJSON(path)
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "Oakwood Manor", records[0]["name"])
	assert.Equal(t, 2, report.Rows)
	assert.Equal(t, 1, report.Skipped)
	require.Len(t, report.Problems, 1)
	assert.Contains(t, report.Problems[0], "record 1")
}

func TestLoadJSON_RejectsNonArrayFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "directory.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"name": "not a list"}`), 0644))

	_, _, err := LoadJSON(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "directory.json")
}

func TestLoad_DispatchesOnExtension(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "homes.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("Location ID,Location Name\n1-1,Oakwood Manor\n"), 0644))
	records, _, err := Load(csvPath, DefaultOptions())
	require.NoError(t, err)
	assert.Len(t, records, 1)

	jsonPath := filepath.Join(dir, "homes.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`[{"name":"Oakwood Manor"}]`), 0644))
	records, _, err = Load(jsonPath, DefaultOptions())
	require.NoError(t, err)
	assert.Len(t, records, 1)

	_, _, err = Load(filepath.Join(dir, "homes.txt"), DefaultOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported dataset format")
}

func TestLoadCSV_MissingFile(t *testing.T) {
	_, _, err := LoadCSV(filepath.Join(t.TempDir(), "missing.csv"), DefaultOptions())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening dataset")
}
