package analytics

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"qa-analytics/internal/records"
	"qa-analytics/internal/stats"
)

type fakeProvider struct {
	defects []records.DefectRecord
	orders  []records.OrderRecord
	recipes []records.WashRecipeRecord
	types   []records.NamedRef
	err     error

	orderCalls int
}

func (f *fakeProvider) Defects(ctx context.Context) ([]records.DefectRecord, error) {
	return f.defects, f.err
}

func (f *fakeProvider) Orders(ctx context.Context, ids []string) ([]records.OrderRecord, error) {
	f.orderCalls++
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []records.OrderRecord
	for _, o := range f.orders {
		if want[o.ID] {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeProvider) WashRecipes(ctx context.Context) ([]records.WashRecipeRecord, error) {
	return f.recipes, nil
}

func (f *fakeProvider) DefectTypes(ctx context.Context) ([]records.NamedRef, error) {
	return f.types, nil
}

func fp(v float64) *float64 { return &v }
func ip(v int) *int { return &v }

func date(s string) time.Time {
	t, _ := time.Parse(records.DateLayout, s)
	return t.Add(10 * time.Hour)
}

func chem(name string) records.StepItem {
	return records.StepItem{Chemical: &records.ChemicalItem{ID: "C-" + name, Name: name}}
}

// fixture builds three orders and five defects:
//
//	O1 qty 100, Denim, Slim, recipes R1 (SMS, 20/45/95°C) and R2 (Production, 40°C)
//	O2 qty 200, Cotton, Cargo, recipe R3 (SMS, 60°C)
//	O3 qty 50, no fabric, no style, no recipes
//
// Laundry defects: D1 (O1, x2), D3 (O2, x3), D4 (O3, x1). Others: D2 (O1, x1), D5 (no order, x4).
func fixture() *fakeProvider {
	r1 := records.WashRecipeRecord{
		ID: "R1", OrderID: "O1", WashType: records.WashSMS, WashCode: "W-1",
		Steps: []records.RecipeStep{
			{Temp: fp(20), Liters: fp(80), Time: fp(10), StepItems: []records.StepItem{chem("Enzyme")}},
			{Temp: fp(45), Liters: fp(60), Time: fp(30), StepItems: []records.StepItem{chem("Softener")}},
			{Temp: fp(95), Time: fp(5)},
		},
		Processes: []records.RecipeProcess{{Process: &records.LaundryProcess{ID: "P1", Name: "Stone Wash", Type: "Dry"}}},
	}
	r2 := records.WashRecipeRecord{
		ID: "R2", OrderID: "O1", WashType: records.WashProduction, WashCode: "W-2",
		Steps: []records.RecipeStep{{Temp: fp(40), Liters: fp(300), Time: fp(90), StepItems: []records.StepItem{chem("Bleach")}}},
	}
	r3 := records.WashRecipeRecord{
		ID: "R3", OrderID: "O2", WashType: records.WashSMS, WashCode: "W-3",
		Steps: []records.RecipeStep{{Temp: fp(60), Liters: fp(40), Time: fp(10), StepItems: []records.StepItem{chem("Enzyme")}}},
	}

	o1 := records.OrderRecord{
		ID: "O1", OrderNo: "PO-1", OrderQty: 100, KeyNo: "K1",
		Fabric: &records.FabricRecord{ID: "F1", Name: "Denim", Code: "DN", Composition: []records.FabricComposition{
			{Value: 40, Item: &records.CompositionItem{Name: "Polyester"}},
			{Value: 60, Item: &records.CompositionItem{Name: "Cotton"}},
		}},
		Style:       &records.StyleRecord{ID: "S1", Name: "Slim"},
		WashRecipes: []records.WashRecipeRecord{r1, r2},
	}
	o2 := records.OrderRecord{
		ID: "O2", OrderNo: "PO-2", OrderQty: 200, KeyNo: "K2",
		Fabric: &records.FabricRecord{ID: "F2", Name: "Cotton", Code: "CT", Composition: []records.FabricComposition{
			{Value: 100, Item: &records.CompositionItem{Name: "Cotton"}},
		}},
		Style:       &records.StyleRecord{ID: "S2", Name: "Cargo"},
		WashRecipes: []records.WashRecipeRecord{r3},
	}
	o3 := records.OrderRecord{ID: "O3", OrderNo: "PO-3", OrderQty: 50}

	laundry := &records.NamedRef{ID: "T1", Name: "Laundry Defects"}
	sewing := &records.NamedRef{ID: "T2", Name: "Sewing"}

	return &fakeProvider{
		defects: []records.DefectRecord{
			{ID: "D1", OrderID: "O1", Order: &o1, DefectType: laundry, Severity: records.SeverityHigh, Status: records.StatusOpen, DefectCount: ip(2), DetectedDate: date("2024-01-05")},
			{ID: "D2", OrderID: "O1", Order: &o1, DefectType: sewing, Severity: records.SeverityLow, Status: records.StatusResolved, DefectCount: ip(1), DetectedDate: date("2024-01-10")},
			{ID: "D3", OrderID: "O2", Order: &o2, DefectType: laundry, Severity: records.SeverityMedium, Status: records.StatusOpen, DefectCount: ip(3), DetectedDate: date("2024-02-01")},
			{ID: "D4", OrderID: "O3", Order: &o3, DefectType: laundry, Severity: records.SeverityLow, Status: records.StatusInProgress, DetectedDate: date("2024-02-15")},
			{ID: "D5", DefectType: sewing, Severity: records.SeverityHigh, Status: records.StatusOpen, DefectCount: ip(4), DetectedDate: date("2024-03-01"),
				ProductionLine: &records.ProductionLine{Name: "Line 4"}},
		},
		orders:  []records.OrderRecord{o1, o2, o3},
		recipes: []records.WashRecipeRecord{r1, r2, r3},
		types:   []records.NamedRef{*sewing, {ID: "T1", Name: "laundry Defects"}},
	}
}

func rowNames(rows []stats.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Name
	}
	return out
}

func findRow(rows []stats.Row, name string) (stats.Row, bool) {
	for _, r := range rows {
		if r.Name == name {
			return r, true
		}
	}
	return stats.Row{}, false
}

func TestGetDefectAnalytics_Summary(t *testing.T) {
	p := fixture()
	e := NewEngine(p, Options{})

	got, err := e.GetDefectAnalytics(context.Background(), records.Filter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s := got.Summary
	if s.TotalDefects != 11 || s.TotalRecords != 5 {
		t.Errorf("totals = %d/%d, want 11/5", s.TotalDefects, s.TotalRecords)
	}
	// O1 carries two defects but is counted once.
	if s.TotalProducedItems != 350 || s.TotalOrders != 3 {
		t.Errorf("produced = %d over %d orders, want 350 over 3", s.TotalProducedItems, s.TotalOrders)
	}
	if s.DefectRatio != "3.14" {
		t.Errorf("defectRatio = %s, want 3.14", s.DefectRatio)
	}
	if open, _ := findRow(s.ByStatus, "Open"); open.Count != 9 {
		t.Errorf("Open = %d, want 9", open.Count)
	}
	if p.orderCalls != 1 {
		t.Errorf("orders fetched %d times, want 1", p.orderCalls)
	}
}

func TestGetDefectAnalytics_Dimensions(t *testing.T) {
	e := NewEngine(fixture(), Options{})
	got, err := e.GetDefectAnalytics(context.Background(), records.Filter{})
	if err != nil {
		t.Fatal(err)
	}

	names := rowNames(got.ByFabric)
	if strings.Join(names, ",") != "Unknown Fabric,Denim,Cotton" {
		t.Errorf("byFabric order = %v", names)
	}
	if stats.SumCounts(got.ByFabric) != 11 {
		t.Errorf("byFabric loses weight: %d", stats.SumCounts(got.ByFabric))
	}

	slim, ok := findRow(got.ByStyle, "Slim")
	if !ok || slim.Count != 3 || len(slim.Breakdown) != 1 || slim.Breakdown[0].Name != "K1" {
		t.Errorf("unexpected Slim row: %+v", slim)
	}

	if comp, ok := findRow(got.ByComposition, "60% Cotton, 40% Polyester"); !ok || comp.Attrs["dominantFiber"] != "Cotton" {
		t.Errorf("composition row missing or wrong: %+v", got.ByComposition)
	}

	line, ok := findRow(got.ByProductionLine, "Line 4")
	if !ok || line.Count != 4 {
		t.Errorf("unexpected production line rows: %+v", got.ByProductionLine)
	}

	var periods []string
	for _, b := range got.MonthlyTrend {
		periods = append(periods, b.Period)
	}
	if strings.Join(periods, ",") != "2024-01,2024-02,2024-03" {
		t.Errorf("monthly trend periods = %v", periods)
	}
}

func TestGetDefectAnalytics_GeneralWashSectionUsesAllDefects(t *testing.T) {
	e := NewEngine(fixture(), Options{})
	got, err := e.GetDefectAnalytics(context.Background(), records.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	w := got.WashRecipes

	if w.Summary.TotalDefects != 11 || w.Summary.WashRecipeDefects != 6 || w.Summary.WashRecipeDefectRatio != "54.55" {
		t.Errorf("unexpected wash summary: %+v", w.Summary)
	}
	sms, _ := findRow(w.ByWashType, "SMS")
	if sms.Count != 6 || sms.Percentage != "54.5" {
		t.Errorf("SMS row = %+v, want 6 at 54.5%%", sms)
	}

	var bins []string
	for _, b := range w.ByTemperature {
		bins = append(bins, b.Range)
	}
	if strings.Join(bins, ",") != "31-50°C,51-70°C,91°C+" {
		t.Errorf("temperature bins = %v", bins)
	}

	if len(w.TopRecipes) != 3 || w.TopRecipes[0].RecipeID != "R1" || w.TopRecipes[0].DefectDensity != "3.00" {
		t.Errorf("unexpected top recipes: %+v", w.TopRecipes)
	}
	if w.BottomRecipes[0].RecipeID != "R3" || w.BottomRecipes[0].DefectDensity != "1.50" {
		t.Errorf("unexpected bottom recipes: %+v", w.BottomRecipes)
	}
	if w.Summary.MedianDefectDensity != "3.00" || w.Summary.AverageDefectDensity != "2.50" {
		t.Errorf("density stats = %s/%s", w.Summary.MedianDefectDensity, w.Summary.AverageDefectDensity)
	}
}

func TestGetWashRecipeDefectAnalytics(t *testing.T) {
	e := NewEngine(fixture(), Options{})
	got, err := e.GetWashRecipeDefectAnalytics(context.Background(), records.Filter{})
	if err != nil {
		t.Fatal(err)
	}

	if got.Summary.TotalDefects != 6 || got.Summary.WashRecipeDefects != 5 {
		t.Errorf("summary = %+v, want 6 laundry defects, 5 with recipes", got.Summary)
	}
	if names := rowNames(got.ByWashType); strings.Join(names, ",") != "SMS,Production" {
		t.Errorf("byWashType = %v", names)
	}
	if got.ByWashType[0].Percentage != "71.4" {
		t.Errorf("SMS share = %s, want 71.4", got.ByWashType[0].Percentage)
	}
	if stone, ok := findRow(got.ByProcess, "Stone Wash"); !ok || stone.Count != 2 || stone.Attrs["type"] != "Dry" {
		t.Errorf("unexpected process rows: %+v", got.ByProcess)
	}
	if unknown, ok := findRow(got.ByProcess, stats.UnknownProcess); !ok || unknown.Count != 3 {
		t.Errorf("recipes without processes should land under the placeholder: %+v", got.ByProcess)
	}
}

func TestGetWashRecipeDefectAnalytics_WashTypeKeepsDenominator(t *testing.T) {
	e := NewEngine(fixture(), Options{})
	got, err := e.GetWashRecipeDefectAnalytics(context.Background(), records.Filter{WashType: records.WashSMS})
	if err != nil {
		t.Fatal(err)
	}

	if got.Summary.TotalDefects != 6 {
		t.Errorf("totalDefects = %d, want 6 (all laundry defects)", got.Summary.TotalDefects)
	}
	if len(got.ByWashType) != 1 || got.ByWashType[0].Name != "SMS" || got.ByWashType[0].Count != 5 {
		t.Errorf("byWashType = %+v, want only SMS", got.ByWashType)
	}
	enzyme, _ := findRow(got.ByChemical, "Enzyme")
	softener, _ := findRow(got.ByChemical, "Softener")
	if enzyme.Count != 5 || softener.Count != 2 {
		t.Errorf("chemicals = %+v", got.ByChemical)
	}
	if _, ok := findRow(got.ByChemical, "Bleach"); ok {
		t.Error("Production recipe chemicals leaked into SMS view")
	}
	if len(got.Recipes) != 2 {
		t.Errorf("expected 2 SMS recipes, got %d", len(got.Recipes))
	}
}

func TestGetWashRecipeDefectAnalytics_OrderlessDefectGetsNoRecipes(t *testing.T) {
	p := fixture()
	p.defects = append(p.defects, records.DefectRecord{
		ID: "D6", DefectType: &records.NamedRef{ID: "T1", Name: "laundry Defects"}, Severity: records.SeverityHigh,
		Status: records.StatusOpen, DefectCount: ip(5), DetectedDate: date("2024-03-02"),
	})
	p.recipes = append(p.recipes, records.WashRecipeRecord{
		ID: "RX", WashType: records.WashSMS, Steps: []records.RecipeStep{{Temp: fp(30)}},
	})
	e := NewEngine(p, Options{})

	got, err := e.GetWashRecipeDefectAnalytics(context.Background(), records.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if got.Summary.TotalDefects != 11 || got.Summary.WashRecipeDefects != 5 {
		t.Errorf("summary = %+v, want 11 laundry defects, 5 with recipes", got.Summary)
	}
	if sms, _ := findRow(got.ByWashType, "SMS"); sms.Count != 5 {
		t.Errorf("SMS count = %d, want 5", sms.Count)
	}
	for _, r := range got.Recipes {
		if r.RecipeID == "RX" {
			t.Errorf("unowned recipe attributed to a defect: %+v", r)
		}
	}
}

func TestGetWashRecipeDefectAnalytics_LookupWithoutIDs(t *testing.T) {
	p := fixture()
	p.defects = []records.DefectRecord{
		{ID: "D1", OrderID: "O1", Order: &p.orders[0], DefectType: &records.NamedRef{Name: "Sewing"}, DefectCount: ip(7), DetectedDate: date("2024-01-05")},
		{ID: "D2", OrderID: "O2", Order: &p.orders[1], DefectType: &records.NamedRef{Name: "Laundry defects"}, DefectCount: ip(2), DetectedDate: date("2024-01-06")},
	}
	p.types = []records.NamedRef{{Name: "laundry Defects"}, {Name: "Sewing"}}
	e := NewEngine(p, Options{})

	got, err := e.GetWashRecipeDefectAnalytics(context.Background(), records.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if got.Summary.TotalDefects != 2 || got.Summary.WashRecipeDefects != 2 {
		t.Errorf("summary = %+v, want only the laundry defect (2)", got.Summary)
	}
}

func TestGetWashRecipeDefectAnalytics_MissingLaundryType(t *testing.T) {
	p := fixture()
	p.types = []records.NamedRef{{ID: "T2", Name: "Sewing"}}
	e := NewEngine(p, Options{})

	_, err := e.GetWashRecipeDefectAnalytics(context.Background(), records.Filter{})
	if !errors.Is(err, ErrReferenceNotFound) {
		t.Fatalf("expected ErrReferenceNotFound, got %v", err)
	}
}

func TestGetWashRecipeDefectAnalytics_CustomCategory(t *testing.T) {
	p := fixture()
	p.types = append(p.types, records.NamedRef{ID: "T9", Name: "Washing"})
	e := NewEngine(p, Options{LaundryDefectType: "washing"})

	got, err := e.GetWashRecipeDefectAnalytics(context.Background(), records.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if got.Summary.TotalDefects != 0 || len(got.ByWashType) != 0 {
		t.Errorf("no defect carries the custom category, got %+v", got.Summary)
	}
	if got.Summary.WashRecipeDefectRatio != stats.ZeroPercent {
		t.Errorf("ratio = %s, want %s", got.Summary.WashRecipeDefectRatio, stats.ZeroPercent)
	}
}

func TestViews_PropagateFetchFailure(t *testing.T) {
	boom := errors.New("boom")
	p := fixture()
	p.err = boom
	e := NewEngine(p, Options{})
	ctx := context.Background()

	if _, err := e.GetDefectAnalytics(ctx, records.Filter{}); !errors.Is(err, boom) || !strings.HasPrefix(err.Error(), "defect analytics:") {
		t.Errorf("defect view error = %v", err)
	}
	if _, err := e.GetWashRecipeDefectAnalytics(ctx, records.Filter{}); !errors.Is(err, boom) || !strings.HasPrefix(err.Error(), "wash recipe analytics:") {
		t.Errorf("wash view error = %v", err)
	}
	if _, err := e.GetComparisonData(ctx, records.Filter{}); !errors.Is(err, boom) {
		t.Errorf("comparison view error = %v", err)
	}
}

func TestViews_RejectInvalidFilter(t *testing.T) {
	e := NewEngine(fixture(), Options{})
	_, err := e.GetDefectAnalytics(context.Background(), records.Filter{Severity: "Critical"})
	if !errors.Is(err, records.ErrInvalidFilter) {
		t.Errorf("expected ErrInvalidFilter, got %v", err)
	}
}

func TestGetDefectAnalytics_DateFilter(t *testing.T) {
	e := NewEngine(fixture(), Options{})
	got, err := e.GetDefectAnalytics(context.Background(), records.Filter{StartDate: "2024-01-01", EndDate: "2024-01-31"})
	if err != nil {
		t.Fatal(err)
	}
	if got.Summary.TotalDefects != 3 || got.Summary.TotalProducedItems != 100 {
		t.Errorf("january summary = %+v", got.Summary)
	}
}

func TestGetComparisonData(t *testing.T) {
	e := NewEngine(fixture(), Options{})
	ctx := context.Background()

	t.Run("FabricVsStyle", func(t *testing.T) {
		got, err := e.GetComparisonData(ctx, records.Filter{ComparisonType: records.CompareFabricVsStyle})
		if err != nil {
			t.Fatal(err)
		}
		if len(got.Scatter) != 3 || got.Scatter[0].XLabel != stats.UnknownFabric || got.Scatter[0].YLabel != stats.UnknownStyle {
			t.Errorf("unexpected scatter: %+v", got.Scatter)
		}
		if got.Correlation == nil || *got.Correlation != 1 {
			t.Errorf("correlation = %v, want 1", got.Correlation)
		}
		if got.Insights.Message != InsightsPlaceholder || got.Metric != records.MetricCount {
			t.Errorf("unexpected stub fields: %+v", got)
		}
	})

	t.Run("CompositionVsDefect", func(t *testing.T) {
		got, err := e.GetComparisonData(ctx, records.Filter{ComparisonType: records.CompareCompositionVsDefect, Metric: records.MetricPercentage})
		if err != nil {
			t.Fatal(err)
		}
		if len(got.Composite) == 0 || got.Composite[0].Key != "Cotton × Laundry Defects" || got.Composite[0].Count != 5 {
			t.Errorf("unexpected composite points: %+v", got.Composite)
		}
		if got.Scatter[0].X != stats.ParsePercent(got.Breakdowns.Primary[0].Percentage) {
			t.Errorf("percentage metric not used: %+v", got.Scatter[0])
		}
	})

	t.Run("TimeVsSeverity", func(t *testing.T) {
		got, err := e.GetComparisonData(ctx, records.Filter{ComparisonType: records.CompareTimeVsSeverity, StartDate: "2024-01-01", EndDate: "2024-03-31"})
		if err != nil {
			t.Fatal(err)
		}
		if got.Series == nil || got.Series.Granularity != stats.GranularityWeek || len(got.Series.Buckets) != 5 {
			t.Fatalf("unexpected series: %+v", got.Series)
		}
		if got.Scatter[0].Y != 3 || got.Scatter[1].Y != 1 {
			t.Errorf("mean severity points = %+v", got.Scatter)
		}
		if got.Correlation == nil {
			t.Error("expected a correlation for a non-constant series")
		}
	})

	t.Run("Unknown", func(t *testing.T) {
		_, err := e.GetComparisonData(ctx, records.Filter{ComparisonType: "fabric-vs-moon"})
		if !errors.Is(err, ErrUnknownComparison) {
			t.Errorf("expected ErrUnknownComparison, got %v", err)
		}
	})
}
