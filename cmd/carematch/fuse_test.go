package main

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwhitfield/carematch/internal/types"
)

func TestFuseCommand_MissingPrimary(t *testing.T) {
	binaryPath := builtBinary(t)

	cmd := exec.Command(binaryPath, "fuse")
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "primary dataset is required")
}

func TestFuseCommand_EndToEnd(t *testing.T) {
	binaryPath := builtBinary(t)

	tmpDir := t.TempDir()
	dataset := writeTestDataset(t, tmpDir)

	secondaryJSON := `[
		{"location_id": "1-100", "review_score": 9.2, "review_count": 41, "amenities": ["Secure Garden", "Cinema Room"]},
		{"location_id": "9-999", "name": "Unmatched House", "postcode": "ZZ9 9ZZ"}
	]`
	secondary := filepath.Join(tmpDir, "directory.json")
	require.NoError(t, os.WriteFile(secondary, []byte(secondaryJSON), 0644))

	outFile := filepath.Join(tmpDir, "fused.json")

	cmd := exec.Command(binaryPath, "fuse",
		"--primary", dataset,
		"--secondary", secondary,
		"--out", outFile)
	output, err := cmd.CombinedOutput()

	require.NoError(t, err, "fuse should succeed, output: %s", string(output))
	assert.Contains(t, string(output), "DATASET: REGULATOR")
	assert.Contains(t, string(output), "DATASET: DIRECTORY")
	assert.Contains(t, string(output), "FUSION REPORT")
	assert.Contains(t, string(output), "Fused pool (3 candidates")

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)

	var candidates []*types.CandidateRecord
	require.NoError(t, json.Unmarshal(data, &candidates))
	require.Len(t, candidates, 3, "unmatched directory records drop without --keep-secondary-only")

	var oakwood *types.CandidateRecord
	for _, c := range candidates {
		if c.LocationID == "1-100" {
			oakwood = c
		}
	}
	require.NotNil(t, oakwood)
	require.NotNil(t, oakwood.ReviewScore, "directory review score should merge into the regulator record")
	assert.InDelta(t, 9.2, *oakwood.ReviewScore, 0.001)
}

func TestFuseCommand_KeepSecondaryOnly(t *testing.T) {
	binaryPath := builtBinary(t)

	tmpDir := t.TempDir()
	dataset := writeTestDataset(t, tmpDir)

	secondaryJSON := `[{"name": "Unmatched House", "postcode": "ZZ9 9ZZ"}]`
	secondary := filepath.Join(tmpDir, "directory.json")
	require.NoError(t, os.WriteFile(secondary, []byte(secondaryJSON), 0644))

	cmd := exec.Command(binaryPath, "fuse",
		"--primary", dataset,
		"--secondary", secondary,
		"--keep-secondary-only")
	output, err := cmd.CombinedOutput()

	require.NoError(t, err, "fuse should succeed, output: %s", string(output))
	assert.Contains(t, string(output), "Fused pool (4 candidates")
	assert.Contains(t, string(output), "Unmatched House")
}
