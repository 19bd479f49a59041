package stats

import (
	"cmp"
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
)

// Range is a labelled half-open interval [Min, Max). The last range of a set
// has Max = +Inf.
type Range struct {
	Min   float64 `json:"min" yaml:"min"`
	Max   float64 `json:"max" yaml:"max"`
	Label string  `json:"label" yaml:"label"`
}

// BinSet holds the ranges for the three continuous recipe attributes.
type BinSet struct {
	Temperature []Range `json:"temperature" yaml:"temperature"`
	Volume      []Range `json:"volume" yaml:"volume"`
	Duration    []Range `json:"duration" yaml:"duration"`
}

// DefaultBins returns the standard temperature (°C), liquor volume (L) and
// duration (minutes) ranges.
func DefaultBins() BinSet {
	inf := math.Inf(1)
	return BinSet{
		Temperature: []Range{
			{0, 31, "0-30°C"},
			{31, 51, "31-50°C"},
			{51, 71, "51-70°C"},
			{71, 91, "71-90°C"},
			{91, inf, "91°C+"},
		},
		Volume: []Range{
			{0, 51, "0-50L"},
			{51, 101, "51-100L"},
			{101, 201, "101-200L"},
			{201, 501, "201-500L"},
			{501, inf, "501L+"},
		},
		Duration: []Range{
			{0, 16, "0-15 min"},
			{16, 31, "16-30 min"},
			{31, 61, "31-60 min"},
			{61, 121, "61-120 min"},
			{121, inf, "121 min+"},
		},
	}
}

// Validate checks that each set is non-empty, ascending, contiguous and open-ended.
func (b BinSet) Validate() error {
	for name, ranges := range map[string][]Range{
		"temperature": b.Temperature,
		"volume":      b.Volume,
		"duration":    b.Duration,
	} {
		if err := ValidateRanges(ranges); err != nil {
			return fmt.Errorf("%s bins: %w", name, err)
		}
	}
	return nil
}

// ValidateRanges checks a single ordered range list.
func ValidateRanges(ranges []Range) error {
	if len(ranges) == 0 {
		return fmt.Errorf("no ranges")
	}
	for i, r := range ranges {
		if r.Label == "" {
			return fmt.Errorf("range %d has no label", i)
		}
		if !(r.Max > r.Min) {
			return fmt.Errorf("range %q: max must exceed min", r.Label)
		}
		if i > 0 && r.Min != ranges[i-1].Max {
			return fmt.Errorf("range %q does not start where %q ends", r.Label, ranges[i-1].Label)
		}
	}
	if !math.IsInf(ranges[len(ranges)-1].Max, 1) {
		return fmt.Errorf("last range %q must be open-ended", ranges[len(ranges)-1].Label)
	}
	return nil
}

// BinRow is one non-empty bin of a distribution.
type BinRow struct {
	Range      string `json:"range"`
	Count      int    `json:"count"`
	Percentage string `json:"percentage"`
}

// Representative reduces several raw samples of one parent to the single value
// that is binned: the maximum of the valid samples. A recipe with steps at
// 20, 45 and 95°C is a 95°C recipe. ok is false when no sample is usable.
func Representative(samples []*float64) (value float64, ok bool) {
	for _, s := range samples {
		if s == nil || math.IsNaN(*s) || math.IsInf(*s, 0) {
			continue
		}
		if !ok || *s > value {
			value = *s
			ok = true
		}
	}
	return value, ok
}

// Locate returns the index of the range containing v, or -1. Values below the
// first range's minimum land in the first range so that every representative
// value falls into exactly one bin.
func Locate(ranges []Range, v float64) int {
	if math.IsNaN(v) {
		return -1
	}
	for i, r := range ranges {
		if v < r.Max {
			return i
		}
	}
	return -1
}

// Bin reduces each parent to its representative value, credits the parent's
// full weight to the matching range and returns the non-empty bins ordered by
// their numeric lower bound.
func Bin[T any](parents []T, samples func(T) []*float64, weight func(T) int, ranges []Range) []BinRow {
	counts := make([]int, len(ranges))
	total := 0
	for _, p := range parents {
		v, ok := Representative(samples(p))
		if !ok {
			continue
		}
		idx := Locate(ranges, v)
		if idx < 0 {
			continue
		}
		w := 1
		if weight != nil {
			w = weight(p)
		}
		counts[idx] += w
		total += w
	}

	type bin struct {
		row   BinRow
		lower float64
	}
	bins := make([]bin, 0, len(ranges))
	for i, r := range ranges {
		if counts[i] == 0 {
			continue
		}
		bins = append(bins, bin{
			row:   BinRow{Range: r.Label, Count: counts[i], Percentage: Percent(counts[i], total)},
			lower: LowerBound(r),
		})
	}
	slices.SortStableFunc(bins, func(a, b bin) int { return cmp.Compare(a.lower, b.lower) })

	rows := make([]BinRow, len(bins))
	for i, b := range bins {
		rows[i] = b.row
	}
	return rows
}

var leadingNumber = regexp.MustCompile(`^\s*(-?\d+(?:\.\d+)?)`)

// LowerBound reads the numeric lower bound from a range label ("91°C+" -> 91,
// "0-30°C" -> 0), falling back to Min for labels that do not start with a number.
func LowerBound(r Range) float64 {
	m := leadingNumber.FindStringSubmatch(r.Label)
	if m == nil {
		return r.Min
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return r.Min
	}
	return v
}
