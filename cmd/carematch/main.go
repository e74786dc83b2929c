// Package main is the carematch command line entry point.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "carematch",
	Short: "Care home matching engine",
	Long: "carematch fuses regulator and directory datasets into one candidate pool\n" +
		"and scores every care home against a resident profile, producing a ranked,\n" +
		"diversified shortlist with per-candidate scoring trails.",
}

func main() {
	// A .env file is optional; deployments set real environment variables.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
