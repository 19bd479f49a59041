package analytics

import (
	"context"
	"fmt"
	"time"

	"qa-analytics/internal/records"
	"qa-analytics/internal/stats"
)

// InsightsPlaceholder is returned until insight generation exists.
const InsightsPlaceholder = "Automated insights are not available yet."

// Insights is the narrative part of a comparison.
type Insights struct {
	Message string `json:"message"`
}

// Breakdowns are the two ranked dimensions a comparison is drawn from.
type Breakdowns struct {
	Primary   []stats.Row `json:"primary"`
	Secondary []stats.Row `json:"secondary"`
}

// ComparisonData is the output of the comparison view.
type ComparisonData struct {
	ComparisonType records.ComparisonType `json:"comparisonType"`
	Metric         records.Metric         `json:"metric"`
	XAxis          string                 `json:"xAxis"`
	YAxis          string                 `json:"yAxis"`
	TotalDefects   int                    `json:"totalDefects"`
	Scatter        []stats.ScatterPoint   `json:"scatterData"`
	Composite      []stats.CompositePoint `json:"compositeData,omitempty"`
	Series         *stats.TimeSeries      `json:"timeSeries,omitempty"`
	Breakdowns     Breakdowns             `json:"breakdowns"`
	// Correlation is null when the scatter series cannot be correlated.
	Correlation *float64 `json:"correlation"`
	Insights    Insights `json:"insights"`
}

type comparator func(defects []stats.ResolvedDefect, value stats.RowValue, pred records.Predicate) ComparisonData

var comparators = map[records.ComparisonType]comparator{
	records.CompareFabricVsStyle:       compareFabricVsStyle,
	records.CompareCompositionVsDefect: compareCompositionVsDefect,
	records.CompareTimeVsSeverity:      compareTimeVsSeverity,
}

// GetComparisonData dispatches on the filter's comparisonType. An empty type
// means fabric-vs-style and an empty metric means count.
func (e *Engine) GetComparisonData(ctx context.Context, filter records.Filter) (*ComparisonData, error) {
	started := time.Now()
	kind := filter.ComparisonType
	if kind == "" {
		kind = records.CompareFabricVsStyle
	}
	compare, ok := comparators[kind]
	if !ok {
		return nil, fmt.Errorf("comparison %q: %w", kind, ErrUnknownComparison)
	}
	pred, err := filter.Compile()
	if err != nil {
		return nil, err
	}
	metric := filter.Metric
	if metric == "" {
		metric = records.MetricCount
	}

	raw, err := e.fetchDefects(ctx, pred)
	if err != nil {
		return nil, fmt.Errorf("comparison analytics: %w", err)
	}
	defects := stats.ResolveAll(raw)

	out := compare(defects, stats.ValueFor(metric), pred)
	out.ComparisonType = kind
	out.Metric = metric
	out.TotalDefects = totalWeight(defects)
	out.Insights = Insights{Message: InsightsPlaceholder}
	if out.Scatter == nil {
		out.Scatter = []stats.ScatterPoint{}
	}

	logView("comparison", started, len(defects))
	return &out, nil
}

// rankedPair pairs two ranked dimensions positionally and correlates them.
func rankedPair(primary, secondary []stats.Row, value stats.RowValue) ComparisonData {
	points := stats.PairByRank(primary, secondary, value)
	return ComparisonData{
		Scatter:     points,
		Breakdowns:  Breakdowns{Primary: primary, Secondary: secondary},
		Correlation: stats.Pearson(stats.Axes(points)),
	}
}

func compareFabricVsStyle(defects []stats.ResolvedDefect, value stats.RowValue, _ records.Predicate) ComparisonData {
	out := rankedPair(stats.Aggregate(defects, byFabric), stats.Aggregate(defects, byStyle), value)
	out.XAxis, out.YAxis = "fabric", "style"
	return out
}

func compareCompositionVsDefect(defects []stats.ResolvedDefect, value stats.RowValue, _ records.Predicate) ComparisonData {
	out := rankedPair(stats.Aggregate(defects, byDominantFiber), stats.Aggregate(defects, byDefectType), value)
	out.XAxis, out.YAxis = "composition", "defectType"
	out.Composite = stats.CompositeGroup(defects,
		func(d stats.ResolvedDefect) string { return d.DominantFiber },
		func(d stats.ResolvedDefect) string { return d.DefectTypeName },
	)
	return out
}

// compareTimeVsSeverity plots the bucket ordinal against the weighted mean
// severity of the bucket.
func compareTimeVsSeverity(defects []stats.ResolvedDefect, _ stats.RowValue, pred records.Predicate) ComparisonData {
	series := stats.Bucket(defects, pred.Start, pred.End)
	points := make([]stats.ScatterPoint, len(series.Buckets))
	for i, b := range series.Buckets {
		points[i] = stats.ScatterPoint{
			Rank:   i + 1,
			XLabel: b.Period,
			YLabel: "severity",
			X:      float64(i + 1),
			Y:      b.MeanScore(),
		}
	}
	return ComparisonData{
		XAxis:   "time",
		YAxis:   "severity",
		Scatter: points,
		Series:  &series,
		Breakdowns: Breakdowns{
			Primary:   stats.Aggregate(defects, bySeverity),
			Secondary: stats.Aggregate(defects, byStatus),
		},
		Correlation: stats.Pearson(stats.Axes(points)),
	}
}
