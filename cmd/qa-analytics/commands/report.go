package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"qa-analytics/internal/records"
	"qa-analytics/internal/visuals"
)

var (
	reportFormat string
	reportFilter records.Filter
)

var reportCmd = &cobra.Command{
	Use:       "report <defects|wash-recipes|comparison>",
	Short:     "Run one analytics view against the configured snapshot",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"defects", "wash-recipes", "comparison"},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		switch reportFormat {
		case "json", "table", "mermaid":
		default:
			return fmt.Errorf("unknown format %q: use json, table or mermaid", reportFormat)
		}

		engine, _, closeFn, err := openEngine(ctx)
		if err != nil {
			return err
		}
		defer closeFn()

		var (
			data   any
			table  func() string
			charts func() []string
		)
		switch args[0] {
		case "defects":
			res, err := engine.GetDefectAnalytics(ctx, reportFilter)
			if err != nil {
				return err
			}
			data = res
			table = func() string { return visuals.RenderDefects(res) }
			charts = func() []string { return visuals.DefectCharts(res) }
		case "wash-recipes":
			res, err := engine.GetWashRecipeDefectAnalytics(ctx, reportFilter)
			if err != nil {
				return err
			}
			data = res
			table = func() string { return visuals.RenderWash(res) }
			charts = func() []string { return visuals.WashCharts(res) }
		case "comparison":
			res, err := engine.GetComparisonData(ctx, reportFilter)
			if err != nil {
				return err
			}
			data = res
			table = func() string { return visuals.RenderComparison(res) }
			charts = func() []string { return visuals.ComparisonCharts(res) }
		default:
			return fmt.Errorf("unknown view %q: use defects, wash-recipes or comparison", args[0])
		}

		out := cmd.OutOrStdout()
		switch reportFormat {
		case "table":
			_, err = fmt.Fprintln(out, table())
		case "mermaid":
			_, err = fmt.Fprintln(out, strings.Join(charts(), "\n\n"))
		default:
			err = writeJSON(out, data)
		}
		return err
	},
}

func writeJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func init() {
	f := reportCmd.Flags()
	f.StringVarP(&reportFormat, "format", "f", "json", "output format: json, table or mermaid")
	f.StringVar(&reportFilter.StartDate, "start-date", "", "inclusive start date (YYYY-MM-DD)")
	f.StringVar(&reportFilter.EndDate, "end-date", "", "inclusive end date (YYYY-MM-DD)")
	f.StringVar((*string)(&reportFilter.Severity), "severity", "", "Low, Medium or High")
	f.StringVar((*string)(&reportFilter.Status), "status", "", "Open, In Progress or Resolved")
	f.StringVar(&reportFilter.DefectType, "defect-type", "", "defect type id")
	f.StringVar((*string)(&reportFilter.WashType), "wash-type", "", "Size set, SMS, Proto, Production or Fitting Sample")
	f.StringVar((*string)(&reportFilter.ComparisonType), "comparison-type", "", "fabric-vs-style, composition-vs-defect or time-vs-severity")
	f.StringVar((*string)(&reportFilter.Metric), "metric", "", "count or percentage")
}
