// Package cmd implements the command-line interface for chartlog.
// It uses the Cobra library to handle commands, flags, and execution.
package cmd

import (
	"log"

	"github.com/spf13/cobra"
)

// Flag variables for command-line options.
// These are package-level variables as required by Cobra's flag binding.
var (
	// Output flags
	outputFlag string // --output: Output directory for generated files
	jsonFlag   bool   // --json: Also export the merged run as JSON

	// Configuration flags
	configFlag      string   // --config: YAML configuration file
	fieldPrefixFlag string   // --field-prefix: Prefix identifying user status lines
	aliasFlag       []string // --alias: field:alias display-name overrides
	keyRegexFlag    string   // --key-regex: Pattern selecting dynamic user-status keys
	maxKeysFlag     int      // --max-keys: Cap on distinct dynamic key columns
	otherBucketFlag bool     // --other-bucket: Fold over-cap keys into an "other" column
	skipFlag        float64  // --skip: Fraction of the time span to skip at file start
	utcOffsetFlag   int      // --utc-offset: Log timezone offset east of UTC, in minutes
)

// rootCmd is the main command for the chartlog CLI.
var rootCmd = &cobra.Command{
	Use:   "chartlog [files or dirs]",
	Short: "Correlator log extractor and chart generator",
	Long: `chartlog extracts time-series data from correlator log files and
renders it as CSV tables and a standalone HTML chart report.

It understands:
  - Periodic "Correlator Status:" lines with rate and memory derivations
  - User-defined status lines with dynamically discovered keys
  - Proxy status counters
  - Receiver/sender connection events
  - Warnings and errors, grouped into logical incidents

Specify log files, directories or archives as arguments. Multiple files
from the same run are merged into one continuous series.`,
	Args: cobra.MinimumNArgs(1),
	Run:  executeAnalysis,
}

// Execute runs the root command.
// This is called by main.go to start the CLI application.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

// init initializes all command-line flags.
func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFlag, "output", "o", "",
		"Output directory (default: chartlog_<newest log name>)")
	rootCmd.PersistentFlags().BoolVarP(&jsonFlag, "json", "J", false,
		"Also write the merged run as report.json")

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "",
		"YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&fieldPrefixFlag, "field-prefix", "",
		"Prefix identifying user-defined status lines (e.g. \"MyApp Status\")")
	rootCmd.PersistentFlags().StringSliceVar(&aliasFlag, "alias", nil,
		"Display name override as field:alias. Can be specified multiple times")
	rootCmd.PersistentFlags().StringVar(&keyRegexFlag, "key-regex", "",
		"Pattern selecting which user-status keys are extracted")
	rootCmd.PersistentFlags().IntVar(&maxKeysFlag, "max-keys", 0,
		"Maximum number of distinct dynamic key columns")
	rootCmd.PersistentFlags().BoolVar(&otherBucketFlag, "other-bucket", false,
		"Fold keys beyond --max-keys into a single \"other\" column")
	rootCmd.PersistentFlags().Float64Var(&skipFlag, "skip", -1,
		"Fraction of each file's time span to skip at the start (0.1 = 10%)")
	rootCmd.PersistentFlags().IntVar(&utcOffsetFlag, "utc-offset", 0,
		"Timezone offset of the log timestamps, in minutes east of UTC")
}
