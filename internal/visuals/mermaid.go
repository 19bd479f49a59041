package visuals

import (
	"fmt"
	"math"
	"strings"

	"qa-analytics/internal/analytics"
	"qa-analytics/internal/stats"
)

// maxSlices caps pie charts; the remainder is folded into "Other".
const maxSlices = 8

// GenerateDistributionPie creates a Mermaid pie chart from ranked rows.
func GenerateDistributionPie(title string, rows []stats.Row) string {
	if len(rows) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString(fmt.Sprintf("pie title %s\n", title))

	other := 0
	for i, r := range rows {
		if i >= maxSlices {
			other += r.Count
			continue
		}
		sb.WriteString(fmt.Sprintf("    %q : %d\n", r.Name, r.Count))
	}
	if other > 0 {
		sb.WriteString(fmt.Sprintf("    \"Other\" : %d\n", other))
	}
	sb.WriteString("```")
	return sb.String()
}

// GenerateBinChart creates a Mermaid bar chart of a binned distribution.
func GenerateBinChart(title, axis string, bins []stats.BinRow) string {
	if len(bins) == 0 {
		return ""
	}

	var labels []string
	var values []string
	maxVal := 0
	for _, b := range bins {
		labels = append(labels, fmt.Sprintf("%q", b.Range))
		values = append(values, fmt.Sprintf("%d", b.Count))
		maxVal = max(maxVal, b.Count)
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title %q\n", title))
	sb.WriteString(fmt.Sprintf("    x-axis %q [%s]\n", axis, strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Defects\" 0 --> %d\n", maxVal+int(math.Max(1, float64(maxVal)*0.2))))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GenerateTrendChart creates a Mermaid line chart of a defect time series with
// one extra line per severity.
func GenerateTrendChart(title string, buckets []stats.TimeBucket) string {
	if len(buckets) == 0 {
		return ""
	}

	var labels, totals, highs, mediums, lows []string
	maxVal := 0

	// Subsample points if the chart is too wide for Mermaid's layout engine
	subsampleRate := 1
	if len(buckets) > 60 {
		subsampleRate = int(math.Ceil(float64(len(buckets)) / 60.0))
	}

	for i, b := range buckets {
		if i%subsampleRate != 0 && i != len(buckets)-1 {
			continue
		}
		labels = append(labels, fmt.Sprintf("%q", b.Period))
		totals = append(totals, fmt.Sprintf("%d", b.Count))
		highs = append(highs, fmt.Sprintf("%d", b.High))
		mediums = append(mediums, fmt.Sprintf("%d", b.Medium))
		lows = append(lows, fmt.Sprintf("%d", b.Low))
		maxVal = max(maxVal, b.Count)
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title %q\n", title))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Defects\" 0 --> %d\n", int(math.Ceil(float64(maxVal)*1.2))+1))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(totals, ", ")))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(highs, ", ")))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(mediums, ", ")))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(lows, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GenerateScatterChart plots both series of a comparison against the rank.
// Mermaid has no scatter type, so the two series are drawn as bars and a line.
func GenerateScatterChart(title string, points []stats.ScatterPoint) string {
	if len(points) == 0 {
		return ""
	}

	var labels, xs, ys []string
	maxVal := 0.0
	for _, p := range points {
		labels = append(labels, fmt.Sprintf("%q", fmt.Sprintf("#%d", p.Rank)))
		xs = append(xs, fmt.Sprintf("%.2f", p.X))
		ys = append(ys, fmt.Sprintf("%.2f", p.Y))
		maxVal = math.Max(maxVal, math.Max(p.X, p.Y))
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title %q\n", title))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Value\" 0 --> %d\n", int(math.Ceil(maxVal*1.2))+1))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(xs, ", ")))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(ys, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// DefectCharts renders the charts of the general view, skipping empty ones.
func DefectCharts(a *analytics.DefectAnalytics) []string {
	return nonEmpty(
		GenerateDistributionPie("Defects by Fabric", a.ByFabric),
		GenerateDistributionPie("Defects by Defect Type", a.ByDefectType),
		GenerateDistributionPie("Defects by Severity", a.Summary.BySeverity),
		GenerateTrendChart("Monthly Defect Trend", a.MonthlyTrend),
	)
}

// WashCharts renders the charts of a recipe breakdown.
func WashCharts(a *analytics.WashRecipeAnalytics) []string {
	return nonEmpty(
		GenerateDistributionPie("Defects by Wash Type", a.ByWashType),
		GenerateDistributionPie("Defects by Chemical", a.ByChemical),
		GenerateBinChart("Defects by Max Temperature", "Temperature", a.ByTemperature),
		GenerateBinChart("Defects by Max Water Volume", "Volume", a.ByVolume),
		GenerateBinChart("Defects by Max Duration", "Duration", a.ByDuration),
	)
}

// ComparisonCharts renders the charts of a comparison.
func ComparisonCharts(c *analytics.ComparisonData) []string {
	charts := []string{GenerateScatterChart(fmt.Sprintf("%s vs %s", c.XAxis, c.YAxis), c.Scatter)}
	if c.Series != nil {
		charts = append(charts, GenerateTrendChart("Defects over Time", c.Series.Buckets))
	}
	return nonEmpty(charts...)
}

func nonEmpty(charts ...string) []string {
	out := make([]string, 0, len(charts))
	for _, c := range charts {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}
