package stats

import (
	"fmt"
	"math"
	"slices"
	"strconv"
)

// ZeroPercent is emitted whenever a percentage or ratio has no denominator.
const ZeroPercent = "0.00"

// Percent formats part/total*100 with one decimal ("60.0").
func Percent(part, total int) string {
	if total <= 0 {
		return ZeroPercent
	}
	return fmt.Sprintf("%.1f", RoundTo(float64(part)/float64(total)*100, 1))
}

// Ratio formats part/total*100 with two decimals, used for defect ratios and
// densities where the denominator is a produced quantity.
func Ratio(part, total int) string {
	if total <= 0 {
		return ZeroPercent
	}
	return fmt.Sprintf("%.2f", RoundTo(float64(part)/float64(total)*100, 2))
}

// RatioValue is the numeric form of Ratio.
func RatioValue(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return RoundTo(float64(part)/float64(total)*100, 2)
}

// RoundTo rounds v to the given number of decimals.
func RoundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// ParsePercent reads a formatted percentage back. Malformed input reads as zero.
func ParsePercent(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// CalculateMedianContinuous finds the median value in a slice of floats.
func CalculateMedianContinuous(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	temp := make([]float64, len(values))
	copy(temp, values)
	slices.Sort(temp)

	n := len(temp)
	if n%2 == 1 {
		return temp[n/2]
	}
	return (temp[n/2-1] + temp[n/2]) / 2.0
}
