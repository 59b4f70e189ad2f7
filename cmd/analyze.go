package cmd

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/chartloom-cli/internal/aggregate"
	"github.com/KaramelBytes/chartloom-cli/internal/ai"
	"github.com/KaramelBytes/chartloom-cli/internal/chart"
	"github.com/KaramelBytes/chartloom-cli/internal/dataset"
	"github.com/KaramelBytes/chartloom-cli/internal/plan"
	"github.com/KaramelBytes/chartloom-cli/internal/profile"
	"github.com/KaramelBytes/chartloom-cli/internal/worker"
)

var (
	anaDelimiter   string
	anaSheetName   string
	anaSheetIndex  int
	anaMaxRows     int
	anaExclude     []string
	anaFilterShare float64
	anaFilterMin   float64
	anaChartsDir   string
	anaChartsPage  string
	anaAI          bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Plan and run ranked group-by aggregations over a CSV/TSV/XLSX file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tab, p, err := loadAndProfile(args[0])
		if err != nil {
			return err
		}
		opts, err := planOptions(anaExclude)
		if err != nil {
			return err
		}
		locale, err := effectiveLocale()
		if err != nil {
			return err
		}

		var extra []plan.Strategy
		if anaAI || (cfg != nil && cfg.AIPlan) {
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

		aggOpts := aggregate.Options{Locale: locale}
		if cfg != nil {
			aggOpts.ShowMissing = cfg.ShowMissing
		}
		switch {
		case anaFilterShare > 0 && anaFilterMin > 0:
			return fmt.Errorf("--filter-share and --filter-min are mutually exclusive")
		case anaFilterShare > 0:
			aggOpts.Filter = &aggregate.Filter{Mode: aggregate.FilterShare, Value: anaFilterShare}
		case anaFilterMin > 0:
			aggOpts.Filter = &aggregate.Filter{Mode: aggregate.FilterValue, Value: anaFilterMin}
		}

		exec := worker.NewExecutor(effectiveConcurrency())
		resp, err := exec.Run(cmd.Context(), worker.Request{
			Session: exec.NewSession(),
			Table:   tab,
			Profile: p,
			Jobs:    jobs,
			Options: aggOpts,
		})
		if err != nil {
			return err
		}

		var items []chart.Item
		for _, r := range resp.Results {
			if r.Err != nil {
				fmt.Fprintf(os.Stderr, "⚠ Warning: %v\n", r.Err)
				continue
			}
			printResult(r.Job, r.Result)
			items = append(items, chart.Item{Job: r.Job, Result: r.Result})
		}

		if anaChartsDir != "" {
			for _, item := range items {
				path, err := chart.WriteFile(anaChartsDir, item)
				if err != nil {
					return err
				}
				fmt.Printf("chart written: %s\n", path)
			}
		}
		if anaChartsPage != "" {
			f, err := os.Create(anaChartsPage)
			if err != nil {
				return fmt.Errorf("create charts page: %w", err)
			}
			defer f.Close()
			if err := chart.RenderPage(f, items); err != nil {
				return err
			}
			fmt.Printf("dashboard written: %s\n", anaChartsPage)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVar(&anaDelimiter, "delimiter", "", "CSV delimiter: ','|';'|'tab'")
	analyzeCmd.Flags().StringVar(&anaSheetName, "sheet", "", "XLSX sheet name (default first sheet)")
	analyzeCmd.Flags().IntVar(&anaSheetIndex, "sheet-index", 0, "XLSX sheet index, 1-based")
	analyzeCmd.Flags().IntVar(&anaMaxRows, "max-rows", 0, "limit rows loaded (0 = all)")
	analyzeCmd.Flags().StringSliceVar(&anaExclude, "exclude", nil, "dimension columns to exclude from planning")
	analyzeCmd.Flags().Float64Var(&anaFilterShare, "filter-share", 0, "drop groups below this share of the total (0..1)")
	analyzeCmd.Flags().Float64Var(&anaFilterMin, "filter-min", 0, "drop groups below this absolute value")
	analyzeCmd.Flags().StringVar(&anaChartsDir, "charts-dir", "", "write one HTML chart per analysis into this directory")
	analyzeCmd.Flags().StringVar(&anaChartsPage, "charts-page", "", "write all charts into a single HTML dashboard file")
	analyzeCmd.Flags().BoolVar(&anaAI, "ai", false, "let the configured AI model propose the plan first")
}

// loadAndProfile loads a table honoring the shared ingestion flags and
// profiles it under the configured date format.
func loadAndProfile(path string) (*dataset.Table, *profile.Profile, error) {
	opt := dataset.LoadOptions{MaxRows: anaMaxRows}
	switch anaDelimiter {
	case "":
	case ",":
		opt.Delimiter = ','
	case ";":
		opt.Delimiter = ';'
	case "\t", "tab":
		opt.Delimiter = '\t'
	default:
		return nil, nil, fmt.Errorf("unsupported --delimiter: %s", anaDelimiter)
	}
	tab, err := dataset.Load(path, dataset.SheetOptions{Name: anaSheetName, Index: anaSheetIndex}, opt)
	if err != nil {
		return nil, nil, err
	}
	df, err := effectiveDateFormat()
	if err != nil {
		return nil, nil, err
	}
	return tab, profile.Build(tab, df), nil
}

func printResult(job plan.Job, res *aggregate.Result) {
	fmt.Printf("\n== %s ==\n", resultTitle(job, res))
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", res.Header[0], res.Header[1])
	for _, r := range res.Rows {
		fmt.Fprintf(w, "%s\t%s\n", r.Key, formatValue(r.Value))
	}
	w.Flush()

	fmt.Printf("total: %s over %d groups", formatValue(res.TotalSum), res.GroupsBeforeFilter)
	if res.MissingCount > 0 {
		fmt.Printf(", %d rows without a group key (worth %s)", res.MissingCount, formatValue(res.MissingSum))
	}
	if removed := len(res.RemovedRows); removed > 0 {
		fmt.Printf(", %d groups filtered out", removed)
	}
	fmt.Println()
	if debug {
		fmt.Printf("audit: raw sum %s over %d rows\n", formatValue(res.RawDataSum), res.RawRowsCount)
	}
}

func resultTitle(job plan.Job, res *aggregate.Result) string {
	title := fmt.Sprintf("%s by %s", res.Header[1], job.GroupBy)
	if job.Metric != "" {
		title += fmt.Sprintf(" (%s)", job.Agg)
	}
	if job.DateBucket != "" {
		title += fmt.Sprintf(" per %s", job.DateBucket)
	}
	return title
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
