package main

import (
	"os"
	"path/filepath"
	"testing"
)

// builtBinary locates the compiled carematch binary that the exec-style CLI
// tests drive. The caller is skipped in -short mode and when the binary has
// not been built yet.
func builtBinary(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping CLI exec tests in short mode")
	}

	path := filepath.Join("..", "..", "bin", "carematch")
	if _, err := os.Stat(path); err != nil {
		t.Skipf("carematch binary missing at %s, run 'make build' first", path)
	}
	return path
}
