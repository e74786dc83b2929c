package main

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwhitfield/carematch/internal/types"
)

func writeTestDataset(t *testing.T, dir string) string {
	t.Helper()
	csvData := strings.Join([]string{
		`Location ID,Location Name,Location Post Code,Latest Rating,Weekly Price Residential,Service User Bands`,
		`1-100,Oakwood Manor,GU2 7XX,Good,950,Dementia; Old Age`,
		`1-101,Riverview Court,GU3 1AB,Requires improvement,"£1,100",Old Age`,
		`1-102,Hilltop Lodge,GU1 2AB,Outstanding,1250,Physical Disability`,
	}, "\n")
	path := filepath.Join(dir, "regulator.csv")
	require.NoError(t, os.WriteFile(path, []byte(csvData), 0644))
	return path
}

func writeTestProfile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "profile.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const testProfileJSON = `{
  "care_type": "residential",
  "postcode": "GU1 4LX",
  "weekly_budget": 1100,
  "conditions": ["dementia"]
}`

func TestMatchCommand_MissingFlags(t *testing.T) {
	binaryPath := builtBinary(t)

	cmd := exec.Command(binaryPath, "match")
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "primary dataset is required")
}

func TestMatchCommand_MissingProfile(t *testing.T) {
	binaryPath := builtBinary(t)
	dataset := writeTestDataset(t, t.TempDir())

	cmd := exec.Command(binaryPath, "match", "--primary", dataset)
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "resident profile is required")
}

func TestMatchCommand_EndToEnd(t *testing.T) {
	binaryPath := builtBinary(t)

	tmpDir := t.TempDir()
	dataset := writeTestDataset(t, tmpDir)
	profile := writeTestProfile(t, tmpDir, testProfileJSON)
	outFile := filepath.Join(tmpDir, "result.json")

	cmd := exec.Command(binaryPath, "match",
		"--primary", dataset,
		"--profile", profile,
		"--out", outFile)
	output, err := cmd.CombinedOutput()

	require.NoError(t, err, "match should succeed, output: %s", string(output))
	assert.Contains(t, string(output), "Step 5/5")
	assert.Contains(t, string(output), "SHORTLIST")
	assert.Contains(t, string(output), "Output: "+outFile)

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)

	var result types.SelectionResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.NotEmpty(t, result.Ranked)
	assert.NotEmpty(t, result.Slots)
	assert.Equal(t, 3, result.Diagnostics.CandidatesIn)
	assert.Equal(t, 3, result.Diagnostics.Scored)
}

func TestMatchCommand_VerboseOutput(t *testing.T) {
	binaryPath := builtBinary(t)

	tmpDir := t.TempDir()
	dataset := writeTestDataset(t, tmpDir)
	profile := writeTestProfile(t, tmpDir, testProfileJSON)

	cmd := exec.Command(binaryPath, "match",
		"--primary", dataset,
		"--profile", profile,
		"--verbose")
	output, err := cmd.CombinedOutput()

	require.NoError(t, err, "match should succeed, output: %s", string(output))
	assert.Contains(t, string(output), "RESIDENT PROFILE")
	assert.Contains(t, string(output), "CATEGORY WEIGHTS")
	assert.Contains(t, string(output), "DATASET: REGULATOR")
	assert.Contains(t, string(output), "FUSION REPORT")
	assert.Contains(t, string(output), "SCORE BREAKDOWN")
	assert.Contains(t, string(output), "RUN DIAGNOSTICS")
}

func TestMatchCommand_InvalidProfile(t *testing.T) {
	binaryPath := builtBinary(t)

	tmpDir := t.TempDir()
	dataset := writeTestDataset(t, tmpDir)
	profile := writeTestProfile(t, tmpDir, `{"care_type": "hotel", "postcode": "GU1 4LX"}`)

	cmd := exec.Command(binaryPath, "match",
		"--primary", dataset,
		"--profile", profile)
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "profile does not validate against schema")
}

func TestMatchCommand_InsufficientCandidates(t *testing.T) {
	binaryPath := builtBinary(t)

	tmpDir := t.TempDir()
	dataset := writeTestDataset(t, tmpDir)
	profile := writeTestProfile(t, tmpDir, testProfileJSON)

	cmd := exec.Command(binaryPath, "match",
		"--primary", dataset,
		"--profile", profile,
		"--min-shortlist", "10")
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "No viable shortlist")
	assert.Contains(t, string(output), "only 3 candidates survived filtering, 10 required")
}

func TestMatchCommand_ConfigFile(t *testing.T) {
	binaryPath := builtBinary(t)

	tmpDir := t.TempDir()
	dataset := writeTestDataset(t, tmpDir)
	profile := writeTestProfile(t, tmpDir, testProfileJSON)

	configJSON, err := json.Marshal(map[string]any{
		"primary": dataset,
		"profile": profile,
		"top_k":   1,
	})
	require.NoError(t, err)
	configPath := filepath.Join(tmpDir, "config.json")
	require.NoError(t, os.WriteFile(configPath, configJSON, 0644))
	outFile := filepath.Join(tmpDir, "result.json")

	cmd := exec.Command(binaryPath, "match", "--config", configPath, "--out", outFile)
	output, err := cmd.CombinedOutput()

	require.NoError(t, err, "match should succeed, output: %s", string(output))

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)

	var result types.SelectionResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Len(t, result.Ranked, 1, "config file top_k should cap the shortlist")
}
