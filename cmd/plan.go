package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/chartloom-cli/internal/ai"
	"github.com/KaramelBytes/chartloom-cli/internal/plan"
)

var (
	planExclude []string
	planAI      bool
)

var planCmd = &cobra.Command{
	Use:   "plan <file>",
	Short: "Show the ranked analysis plan without executing it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tab, p, err := loadAndProfile(args[0])
		if err != nil {
			return err
		}
		opts, err := planOptions(planExclude)
		if err != nil {
			return err
		}
		var extra []plan.Strategy
		if planAI || (cfg != nil && cfg.AIPlan) {
			if cfg == nil || cfg.APIKey == "" {
				return fmt.Errorf("ai planning requires api_key (chartloom config set api_key <key>)")
			}
			extra = append(extra, plan.AIStrategy{Generator: ai.NewClient(cfg.APIKey, cfg.AIModel)})
		}
		jobs := plan.Generate(cmd.Context(), tab, p, opts, extra...)
		if len(jobs) == 0 {
			fmt.Println("No analyses could be planned for this file.")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "#\tgroup by\tmetric\tagg\tbucket\tchart\tpriority")
		for i, j := range jobs {
			metric := j.Metric
			if metric == "" {
				metric = "-"
			}
			bucket := string(j.DateBucket)
			if bucket == "" {
				bucket = "-"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n", i+1, j.GroupBy, metric, j.Agg, bucket, j.Chart, j.Priority)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(planCmd)
	planCmd.Flags().StringVar(&anaDelimiter, "delimiter", "", "CSV delimiter: ','|';'|'tab'")
	planCmd.Flags().StringVar(&anaSheetName, "sheet", "", "XLSX sheet name (default first sheet)")
	planCmd.Flags().IntVar(&anaSheetIndex, "sheet-index", 0, "XLSX sheet index, 1-based")
	planCmd.Flags().IntVar(&anaMaxRows, "max-rows", 0, "limit rows loaded (0 = all)")
	planCmd.Flags().StringSliceVar(&planExclude, "exclude", nil, "dimension columns to exclude from planning")
	planCmd.Flags().BoolVar(&planAI, "ai", false, "let the configured AI model propose the plan first")
}
