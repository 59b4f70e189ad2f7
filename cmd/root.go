package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/chartloom-cli/internal/config"
)

var (
	// Global flags (wired to config via loadConfig)
	cfgFile string
	debug   bool
	// Parsing/plan flags overriding config if set
	flagDateFormat  string
	flagLocale      string
	flagShowMissing bool
	flagConcurrency int

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "chartloom",
	Short: "ChartLoom CLI: profile tabular data and chart what matters",
	Long:  `ChartLoom inspects CSV/TSV/XLSX files, infers which columns are metrics and dimensions, plans a ranked set of group-by aggregations, and renders the results as tables and charts.`,
}

// Execute is the entry point called by main.main()
func Execute() {
	// Initialize configuration before executing commands
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.chartloom/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&flagDateFormat, "date-format", "", "date parsing: auto|dd/mm/yyyy|mm/dd/yyyy (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLocale, "locale", "", "number parsing locale: default|eu (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&flagShowMissing, "show-missing", false, "keep rows without a group key as a (Missing) bucket")
	rootCmd.PersistentFlags().IntVar(&flagConcurrency, "concurrency", 0, "parallel aggregation jobs (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: allow running commands that don't need config
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		cfg = &cfgpkg.Global{}
		return
	}
	cfg = c

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("date-format") && flagDateFormat != "" {
		cfg.DateFormat = flagDateFormat
	}
	if f.Changed("locale") && flagLocale != "" {
		cfg.Locale = flagLocale
	}
	if f.Changed("show-missing") {
		cfg.ShowMissing = flagShowMissing
	}
	if f.Changed("concurrency") && flagConcurrency > 0 {
		cfg.Concurrency = flagConcurrency
	}
}
