package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mwhitfield/carematch/internal/fusion"
	"github.com/mwhitfield/carematch/internal/loader"
	"github.com/mwhitfield/carematch/internal/observability"
	"github.com/mwhitfield/carematch/internal/types"
)

var fuseCmd = &cobra.Command{
	Use:   "fuse",
	Short: "Fuse regulator and directory datasets without scoring",
	Long:  "Loads the datasets, runs identity matching and conflict resolution, and prints the fused candidate pool with its fusion report. Useful for checking what the matching engine would actually see.",
	RunE:  runFuse,
}

var (
	fusePrimary       string
	fuseSecondary     string
	fuseKeepSecondary bool
	fuseOutput        string
	fuseLimit         int
)

func init() {
	fuseCmd.Flags().StringVarP(&fusePrimary, "primary", "p", "", "Path to the regulator dataset (CSV or JSON)")
	fuseCmd.Flags().StringVarP(&fuseSecondary, "secondary", "s", "", "Path to the directory dataset (optional)")
	fuseCmd.Flags().BoolVar(&fuseKeepSecondary, "keep-secondary-only", false, "Admit directory records the regulator has never seen")
	fuseCmd.Flags().StringVarP(&fuseOutput, "out", "o", "", "Path to write the fused candidates JSON (optional)")
	fuseCmd.Flags().IntVar(&fuseLimit, "limit", 20, "Maximum candidates to list on stdout (0 = all)")

	rootCmd.AddCommand(fuseCmd)
}

func runFuse(_ *cobra.Command, _ []string) error {
	if fusePrimary == "" {
		return fmt.Errorf("a primary dataset is required (use --primary)")
	}

	printer := observability.NewPrinter(os.Stdout)

	primary, preport, err := loader.Load(fusePrimary, loader.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to load primary dataset: %w", err)
	}
	printer.PrintDatasetReport("regulator", preport)

	var secondary []types.RawRecord
	if fuseSecondary != "" {
		var sreport *loader.Report
		secondary, sreport, err = loader.Load(fuseSecondary, loader.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to load secondary dataset: %w", err)
		}
		printer.PrintDatasetReport("directory", sreport)
	}

	opts := fusion.DefaultOptions()
	opts.KeepSecondaryOnly = fuseKeepSecondary
	candidates, report, err := fusion.Fuse(primary, secondary, opts)
	if err != nil {
		return fmt.Errorf("failed to fuse datasets: %w", err)
	}
	printer.PrintFusionReport(report)

	limit := fuseLimit
	if limit <= 0 || limit > len(candidates) {
		limit = len(candidates)
	}
	fmt.Printf("\nFused pool (%d candidates, showing %d):\n", len(candidates), limit)
	for _, c := range candidates[:limit] {
		fmt.Printf("  %-12s %-32s %-10s [%s]\n",
			c.LocationID, truncateName(c.Name, 32), c.Postcode, strings.Join(c.Sources, ", "))
	}

	if fuseOutput != "" {
		jsonBytes, err := json.MarshalIndent(candidates, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal candidates: %w", err)
		}
		if err := os.WriteFile(fuseOutput, jsonBytes, 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Printf("Output: %s\n", fuseOutput)
	}

	return nil
}

func truncateName(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
