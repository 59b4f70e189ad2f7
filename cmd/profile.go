package cmd

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/chartloom-cli/internal/roles"
)

var profileCmd = &cobra.Command{
	Use:   "profile <file>",
	Short: "Show per-column types, statistics, and inferred roles",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tab, p, err := loadAndProfile(args[0])
		if err != nil {
			return err
		}
		opts, err := planOptions(nil)
		if err != nil {
			return err
		}
		assignments := roles.InferAll(p, tab, opts.Thresholds)

		fmt.Printf("%s: %d rows, %d columns (%d sampled)\n\n", tab.Name, p.RowCount, len(p.Columns), p.SampledRows())
		w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "column\ttype\trole\tpriority\tunique\tcompleteness\tsamples")
		for i, col := range p.Columns {
			a := assignments[i]
			role := string(a.Role)
			if a.Unsuitable {
				role += " (unsuitable)"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
				col.Name, col.Type, role, a.Priority, col.UniqueCount,
				strconv.FormatFloat(col.Completeness, 'f', 2, 64),
				joinSamples(col.SampleValues))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.Flags().StringVar(&anaDelimiter, "delimiter", "", "CSV delimiter: ','|';'|'tab'")
	profileCmd.Flags().StringVar(&anaSheetName, "sheet", "", "XLSX sheet name (default first sheet)")
	profileCmd.Flags().IntVar(&anaSheetIndex, "sheet-index", 0, "XLSX sheet index, 1-based")
	profileCmd.Flags().IntVar(&anaMaxRows, "max-rows", 0, "limit rows loaded (0 = all)")
}

func joinSamples(samples []string) string {
	out := ""
	for i, s := range samples {
		if i > 0 {
			out += " | "
		}
		if r := []rune(s); len(r) > 24 {
			s = string(r[:24]) + "…"
		}
		out += s
	}
	return out
}
