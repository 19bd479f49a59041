package visuals

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"qa-analytics/internal/analytics"
	"qa-analytics/internal/stats"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).MarginTop(1)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
)

// Table renders a titled grid. Columns listed in numeric are right-aligned.
func Table(title string, headers []string, rows [][]string, numeric ...int) string {
	if len(rows) == 0 {
		return ""
	}
	right := make(map[int]bool, len(numeric))
	for _, c := range numeric {
		right[c] = true
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case right[col]:
				return numberStyle
			default:
				return cellStyle
			}
		})

	return lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), t.String())
}

// RowsTable renders ranked rows as Name / Count / Share.
func RowsTable(title string, rows []stats.Row) string {
	cells := make([][]string, len(rows))
	for i, r := range rows {
		cells[i] = []string{r.Name, strconv.Itoa(r.Count), r.Percentage + "%"}
	}
	return Table(title, []string{"Name", "Count", "Share"}, cells, 1, 2)
}

// BinsTable renders a binned distribution.
func BinsTable(title string, bins []stats.BinRow) string {
	cells := make([][]string, len(bins))
	for i, b := range bins {
		cells[i] = []string{b.Range, strconv.Itoa(b.Count), b.Percentage + "%"}
	}
	return Table(title, []string{"Range", "Count", "Share"}, cells, 1, 2)
}

// RecipesTable renders recipe density rows.
func RecipesTable(title string, recipes []analytics.RecipeRow) string {
	cells := make([][]string, len(recipes))
	for i, r := range recipes {
		cells[i] = []string{r.WashCode, string(r.WashType), r.OrderNo, strconv.Itoa(r.OrderQty), strconv.Itoa(r.DefectCount), r.DefectDensity}
	}
	return Table(title, []string{"Wash Code", "Type", "Order", "Qty", "Defects", "Density %"}, cells, 3, 4, 5)
}

// RenderDefects renders the general view as a sequence of tables.
func RenderDefects(a *analytics.DefectAnalytics) string {
	s := a.Summary
	summary := Table("Summary", []string{"Metric", "Value"}, [][]string{
		{"Total defects", strconv.Itoa(s.TotalDefects)},
		{"Defect records", strconv.Itoa(s.TotalRecords)},
		{"Orders", strconv.Itoa(s.TotalOrders)},
		{"Produced items", strconv.Itoa(s.TotalProducedItems)},
		{"Defect ratio", s.DefectRatio + "%"},
	}, 1)

	return join(
		summary,
		RowsTable("By Status", s.ByStatus),
		RowsTable("By Severity", s.BySeverity),
		RowsTable("By Fabric", a.ByFabric),
		RowsTable("By Style", a.ByStyle),
		RowsTable("By Composition", a.ByComposition),
		RowsTable("By Defect Type", a.ByDefectType),
		RowsTable("By Defect Place", a.ByDefectPlace),
		RowsTable("By Production Line", a.ByProductionLine),
		trendTable("Monthly Trend", a.MonthlyTrend),
		RenderWash(&a.WashRecipes),
	)
}

// RenderWash renders a recipe breakdown.
func RenderWash(a *analytics.WashRecipeAnalytics) string {
	s := a.Summary
	summary := Table("Wash Recipe Summary", []string{"Metric", "Value"}, [][]string{
		{"Total defects", strconv.Itoa(s.TotalDefects)},
		{"Recipe defects", strconv.Itoa(s.WashRecipeDefects)},
		{"Recipe defect ratio", s.WashRecipeDefectRatio + "%"},
		{"Recipes", strconv.Itoa(s.TotalRecipes)},
		{"Average density", s.AverageDefectDensity + "%"},
		{"Median density", s.MedianDefectDensity + "%"},
	}, 1)

	return join(
		summary,
		RowsTable("By Wash Type", a.ByWashType),
		RowsTable("By Chemical", a.ByChemical),
		RowsTable("By Process", a.ByProcess),
		BinsTable("By Max Temperature", a.ByTemperature),
		BinsTable("By Max Water Volume", a.ByVolume),
		BinsTable("By Max Duration", a.ByDuration),
		RecipesTable("Highest Defect Density", a.TopRecipes),
		RecipesTable("Lowest Defect Density", a.BottomRecipes),
	)
}

// RenderComparison renders a comparison as its scatter pairs and breakdowns.
func RenderComparison(c *analytics.ComparisonData) string {
	corr := stats.NotAvailable
	if c.Correlation != nil {
		corr = strconv.FormatFloat(*c.Correlation, 'f', 4, 64)
	}
	header := Table(fmt.Sprintf("%s (%s)", c.ComparisonType, c.Metric), []string{"Metric", "Value"}, [][]string{
		{"Total defects", strconv.Itoa(c.TotalDefects)},
		{"Correlation", corr},
	}, 1)

	points := make([][]string, len(c.Scatter))
	for i, p := range c.Scatter {
		points[i] = []string{
			strconv.Itoa(p.Rank),
			p.XLabel, strconv.FormatFloat(p.X, 'f', 2, 64),
			p.YLabel, strconv.FormatFloat(p.Y, 'f', 2, 64),
		}
	}

	composite := make([][]string, len(c.Composite))
	for i, p := range c.Composite {
		composite[i] = []string{p.Key, strconv.Itoa(p.Count), strconv.Itoa(p.Severity.High), strconv.Itoa(p.Severity.Medium), strconv.Itoa(p.Severity.Low)}
	}

	var series string
	if c.Series != nil {
		series = trendTable(fmt.Sprintf("Series (%s)", c.Series.Granularity), c.Series.Buckets)
	}

	return join(
		header,
		Table("Pairs", []string{"Rank", c.XAxis, "X", c.YAxis, "Y"}, points, 0, 2, 4),
		Table("Combinations", []string{"Key", "Count", "High", "Medium", "Low"}, composite, 1, 2, 3, 4),
		series,
		RowsTable("Primary", c.Breakdowns.Primary),
		RowsTable("Secondary", c.Breakdowns.Secondary),
		c.Insights.Message,
	)
}

func trendTable(title string, buckets []stats.TimeBucket) string {
	cells := make([][]string, len(buckets))
	for i, b := range buckets {
		cells[i] = []string{b.Period, strconv.Itoa(b.Count), strconv.Itoa(b.High), strconv.Itoa(b.Medium), strconv.Itoa(b.Low)}
	}
	return Table(title, []string{"Period", "Count", "High", "Medium", "Low"}, cells, 1, 2, 3, 4)
}

func join(parts ...string) string {
	return strings.Join(nonEmpty(parts...), "\n")
}
