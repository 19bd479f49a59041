package stats

import (
	"math"
	"testing"
)

func f(v float64) *float64 { return &v }

type recipeSample struct {
	temps  []*float64
	weight int
}

func temps(r recipeSample) []*float64 { return r.temps }
func weights(r recipeSample) int { return r.weight }

func TestRepresentative_UsesMaximum(t *testing.T) {
	tests := []struct {
		name    string
		samples []*float64
		want    float64
		wantOK  bool
	}{
		{"MultiStep", []*float64{f(20), f(45), f(95)}, 95, true},
		{"SkipsMissing", []*float64{nil, f(30), nil}, 30, true},
		{"SkipsNaN", []*float64{f(math.NaN()), f(12)}, 12, true},
		{"Negative", []*float64{f(-5), f(-2)}, -2, true},
		{"NoValidSample", []*float64{nil, f(math.NaN())}, 0, false},
		{"Empty", nil, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Representative(tt.samples)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Representative() = %v,%v want %v,%v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestBin_MaxPolicyPlacesRecipeInTopBin(t *testing.T) {
	recipes := []recipeSample{{temps: []*float64{f(20), f(45), f(95)}, weight: 3}}

	rows := Bin(recipes, temps, weights, DefaultBins().Temperature)

	if len(rows) != 1 {
		t.Fatalf("expected one bin, got %+v", rows)
	}
	if rows[0].Range != "91°C+" || rows[0].Count != 3 || rows[0].Percentage != "100.0" {
		t.Errorf("unexpected bin: %+v", rows[0])
	}
}

func TestBin_CompletenessAndExclusivity(t *testing.T) {
	recipes := []recipeSample{
		{temps: []*float64{f(0)}, weight: 1},
		{temps: []*float64{f(30)}, weight: 1},
		{temps: []*float64{f(30.5)}, weight: 1},
		{temps: []*float64{f(31)}, weight: 2},
		{temps: []*float64{f(90.9)}, weight: 1},
		{temps: []*float64{f(91)}, weight: 1},
		{temps: []*float64{f(400)}, weight: 1},
		{temps: []*float64{f(-3)}, weight: 1},
		{temps: []*float64{nil}, weight: 10},
		{temps: nil, weight: 10},
	}

	rows := Bin(recipes, temps, weights, DefaultBins().Temperature)

	got := map[string]int{}
	total := 0
	for _, r := range rows {
		got[r.Range] = r.Count
		total += r.Count
	}
	if total != 9 {
		t.Errorf("binned weight = %d, want 9 (recipes without samples are skipped)", total)
	}
	want := map[string]int{"0-30°C": 4, "31-50°C": 2, "71-90°C": 1, "91°C+": 2}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("bin %s = %d, want %d", k, got[k], v)
		}
	}
	if _, ok := got["51-70°C"]; ok {
		t.Error("empty bins must be omitted")
	}
}

func TestBin_SortsByNumericLowerBound(t *testing.T) {
	// Declared out of order on purpose; label sorting would put "101-200L" first.
	ranges := []Range{
		{0, 51, "0-50L"},
		{51, 101, "51-100L"},
		{101, 201, "101-200L"},
		{201, math.Inf(1), "201L+"},
	}
	recipes := []recipeSample{
		{temps: []*float64{f(250)}, weight: 1},
		{temps: []*float64{f(150)}, weight: 1},
		{temps: []*float64{f(60)}, weight: 1},
		{temps: []*float64{f(10)}, weight: 1},
	}
	rows := Bin(recipes, temps, weights, ranges)

	want := []string{"0-50L", "51-100L", "101-200L", "201L+"}
	for i, w := range want {
		if rows[i].Range != w {
			t.Fatalf("order = %+v, want %v", rows, want)
		}
	}
}

func TestLowerBound(t *testing.T) {
	tests := []struct {
		label string
		want  float64
	}{
		{"91°C+", 91},
		{"0-30°C", 0},
		{"121 min+", 121},
		{"71-90°C", 71},
		{"cold", 5},
	}
	for _, tt := range tests {
		if got := LowerBound(Range{Min: 5, Label: tt.label}); got != tt.want {
			t.Errorf("LowerBound(%q) = %v, want %v", tt.label, got, tt.want)
		}
	}
}

func TestBinSetValidate(t *testing.T) {
	if err := DefaultBins().Validate(); err != nil {
		t.Fatalf("default bins invalid: %v", err)
	}

	gap := DefaultBins()
	gap.Volume[1].Min = 60
	if err := gap.Validate(); err == nil {
		t.Error("expected error for non-contiguous ranges")
	}

	closed := DefaultBins()
	closed.Duration[len(closed.Duration)-1].Max = 500
	if err := closed.Validate(); err == nil {
		t.Error("expected error for bounded last range")
	}
}
