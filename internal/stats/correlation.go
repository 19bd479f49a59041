package stats

import (
	"cmp"
	"math"
	"slices"

	"qa-analytics/internal/records"
)

// Pearson returns the product-moment correlation of two index-aligned series,
// rounded to four decimals. It returns nil when the series differ in length,
// are empty, or either one is constant.
func Pearson(xs, ys []float64) *float64 {
	n := len(xs)
	if n == 0 || n != len(ys) {
		return nil
	}

	var sumX, sumY float64
	for i := range n {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX, meanY := sumX/float64(n), sumY/float64(n)

	// Mean-centred sums: a constant series leaves only rounding noise here.
	var sxx, syy, sxy, sqX, sqY float64
	for i := range n {
		dx, dy := xs[i]-meanX, ys[i]-meanY
		sxx += dx * dx
		syy += dy * dy
		sxy += dx * dy
		sqX += xs[i] * xs[i]
		sqY += ys[i] * ys[i]
	}
	if isFlat(sxx, sqX) || isFlat(syy, sqY) {
		return nil
	}

	num := sxy
	den := math.Sqrt(sxx * syy)
	if den == 0 || math.IsNaN(den) || math.IsInf(den, 0) {
		return nil
	}

	r := RoundTo(num/den, 4)
	r = math.Max(-1, math.Min(1, r))
	return &r
}

// varianceEpsilon is the relative spread below which a series counts as constant.
const varianceEpsilon = 1e-12

func isFlat(spread, sumSquares float64) bool {
	return spread <= varianceEpsilon*math.Max(1, sumSquares)
}

// ScatterPoint pairs one observation of two dimensions.
type ScatterPoint struct {
	Rank   int     `json:"rank"`
	XLabel string  `json:"xLabel"`
	YLabel string  `json:"yLabel"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// RowValue extracts the number a ranked row contributes to a scatter plot.
type RowValue func(Row) float64

// CountValue uses the weighted count.
func CountValue(r Row) float64 { return float64(r.Count) }

// PercentageValue uses the row's share of its grouping.
func PercentageValue(r Row) float64 { return ParsePercent(r.Percentage) }

// ValueFor maps a metric onto its extractor. Unknown metrics use counts.
func ValueFor(m records.Metric) RowValue {
	if m == records.MetricPercentage {
		return PercentageValue
	}
	return CountValue
}

// PairByRank pairs the i-th row of a with the i-th row of b. Rows are matched by
// rank position, not by a shared key: the top fabric is compared with the top
// style whether or not any order uses both. The result is as long as the
// shorter input.
func PairByRank(a, b []Row, value RowValue) []ScatterPoint {
	if value == nil {
		value = CountValue
	}
	n := min(len(a), len(b))
	points := make([]ScatterPoint, n)
	for i := range n {
		points[i] = ScatterPoint{
			Rank:   i + 1,
			XLabel: a[i].Name,
			YLabel: b[i].Name,
			X:      value(a[i]),
			Y:      value(b[i]),
		}
	}
	return points
}

// Axes splits scatter points into their x and y series.
func Axes(points []ScatterPoint) (xs, ys []float64) {
	xs = make([]float64, len(points))
	ys = make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.X
		ys[i] = p.Y
	}
	return xs, ys
}

// Contributor is a source row behind a composite point, for detail display.
type Contributor struct {
	DefectID     string           `json:"defectId"`
	OrderNo      string           `json:"orderNo"`
	FabricName   string           `json:"fabricName"`
	Severity     records.Severity `json:"severity"`
	Count        int              `json:"count"`
	DetectedDate string           `json:"detectedDate"`
}

// CompositePoint aggregates all defects sharing a (A, B) key pair.
type CompositePoint struct {
	Key          string        `json:"key"`
	A            string        `json:"a"`
	B            string        `json:"b"`
	Count        int           `json:"count"`
	Severity     SeveritySplit `json:"severity"`
	Contributors []Contributor `json:"contributors"`
}

// CompositeGroup groups defects on the pair of categorical fields a and b and
// returns one point per pair, ranked by descending weight.
func CompositeGroup(defects []ResolvedDefect, a, b func(ResolvedDefect) string) []CompositePoint {
	index := make(map[string]int)
	points := make([]CompositePoint, 0)
	for _, d := range defects {
		av, bv := a(d), b(d)
		key := av + " × " + bv
		i, ok := index[key]
		if !ok {
			i = len(points)
			index[key] = i
			points = append(points, CompositePoint{Key: key, A: av, B: bv, Contributors: []Contributor{}})
		}
		p := &points[i]
		p.Count += d.Weight
		p.Severity.Add(d.Severity, d.Weight)
		p.Contributors = append(p.Contributors, Contributor{
			DefectID:     d.ID,
			OrderNo:      d.OrderNo,
			FabricName:   d.FabricName,
			Severity:     d.Severity,
			Count:        d.Weight,
			DetectedDate: d.DetectedDate.UTC().Format(records.DateLayout),
		})
	}

	slices.SortStableFunc(points, func(x, y CompositePoint) int { return cmp.Compare(y.Count, x.Count) })
	return points
}
