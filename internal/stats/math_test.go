package stats

import (
	"testing"
)

func TestPercent(t *testing.T) {
	tests := []struct {
		name        string
		part, total int
		expected    string
	}{
		{"Simple", 6, 10, "60.0"},
		{"Thirds", 1, 3, "33.3"},
		{"TwoThirds", 2, 3, "66.7"},
		{"Whole", 4, 4, "100.0"},
		{"ZeroDenominator", 3, 0, ZeroPercent},
		{"NegativeDenominator", 3, -1, ZeroPercent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Percent(tt.part, tt.total); got != tt.expected {
				t.Errorf("Percent() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRatio(t *testing.T) {
	tests := []struct {
		name        string
		part, total int
		expected    string
	}{
		{"Density", 4, 100, "4.00"},
		{"Fraction", 7, 300, "2.33"},
		{"ZeroProduced", 5, 0, ZeroPercent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Ratio(tt.part, tt.total); got != tt.expected {
				t.Errorf("Ratio() = %v, want %v", got, tt.expected)
			}
		})
	}
	if RatioValue(7, 300) != 2.33 {
		t.Errorf("RatioValue() = %v", RatioValue(7, 300))
	}
}

func TestParsePercent(t *testing.T) {
	if ParsePercent("66.7") != 66.7 || ParsePercent("garbage") != 0 || ParsePercent("NaN") != 0 {
		t.Error("ParsePercent mismatch")
	}
}

func TestCalculateMedianContinuous(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{"Empty", []float64{}, 0},
		{"SingleItem", []float64{5.5}, 5.5},
		{"OddCount", []float64{1.1, 3.3, 2.2, 4.4, 5.5}, 3.3},
		{"EvenCount", []float64{1.1, 2.2, 3.3, 4.4}, 2.75},
		{"Unsorted", []float64{10.5, 2.5, 8.5, 4.5, 6.5}, 6.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalculateMedianContinuous(tt.values); got != tt.expected {
				t.Errorf("CalculateMedianContinuous() = %v, want %v", got, tt.expected)
			}
		})
	}
}
