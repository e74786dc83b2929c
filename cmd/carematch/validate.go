package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mwhitfield/carematch/internal/rules"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a ruleset or resident profile file without running a match",
	Long:  "Checks a ruleset JSON against the embedded schema and its semantic invariants, and a resident profile against the profile schema and struct rules. Exits non-zero on the first problem.",
	RunE:  runValidate,
}

var (
	validateRuleset string
	validateProfile string
)

func init() {
	validateCmd.Flags().StringVarP(&validateRuleset, "ruleset", "r", "", "Path to a ruleset JSON file")
	validateCmd.Flags().StringVar(&validateProfile, "profile", "", "Path to a resident profile JSON file")

	rootCmd.AddCommand(validateCmd)
}

func runValidate(_ *cobra.Command, _ []string) error {
	if validateRuleset == "" && validateProfile == "" {
		return fmt.Errorf("nothing to validate (use --ruleset and/or --profile)")
	}

	if validateRuleset != "" {
		rs, err := rules.Load(validateRuleset)
		if err != nil {
			return fmt.Errorf("ruleset invalid: %w", err)
		}
		fmt.Printf("Ruleset OK: %d proxy rules, %d adjustments, %d critical requirements\n",
			len(rs.Proxies), len(rs.Adjustments), len(rs.CriticalRequirements))
	}

	if validateProfile != "" {
		profile, err := loadProfile(validateProfile)
		if err != nil {
			return fmt.Errorf("profile invalid: %w", err)
		}
		fmt.Printf("Profile OK: %s care near %s\n", profile.CareType, profile.Postcode)
	}

	return nil
}
