package engine

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"qa-analytics/internal/analytics"
	"qa-analytics/internal/records"
	"qa-analytics/internal/snapshot"
)

func TestGenerate_Consistency(t *testing.T) {
	now := time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)
	snap := Generate(GeneratorConfig{Scenario: "mild", Distribution: "uniform", Count: 120, Seed: 7, Now: now})

	if len(snap.Defects) != 120 {
		t.Fatalf("expected 120 defects, got %d", len(snap.Defects))
	}
	if len(snap.Orders) != 30 {
		t.Errorf("expected one order per four defects, got %d", len(snap.Orders))
	}

	orders := make(map[string]bool, len(snap.Orders))
	for _, o := range snap.Orders {
		orders[o.ID] = true
	}
	for _, r := range snap.WashRecipes {
		if !orders[r.OrderID] {
			t.Errorf("recipe %s points at unknown order %s", r.ID, r.OrderID)
		}
	}
	for _, d := range snap.Defects {
		if d.OrderID != "" && !orders[d.OrderID] {
			t.Errorf("defect %s points at unknown order %s", d.ID, d.OrderID)
		}
		if d.DetectedDate.After(now) {
			t.Errorf("defect %s detected in the future", d.ID)
		}
		if d.DefectCount != nil && *d.DefectCount < 1 {
			t.Errorf("defect %s has count %d", d.ID, *d.DefectCount)
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	cfg := GeneratorConfig{Scenario: "chaos", Distribution: "weibull", Count: 40, Seed: 42, Now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	if !reflect.DeepEqual(Generate(cfg), Generate(cfg)) {
		t.Error("same seed should produce the same snapshot")
	}
}

func TestGenerate_FeedsEngine(t *testing.T) {
	snap := Generate(GeneratorConfig{Scenario: "drift", Count: 200, Seed: 3, Now: time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)})

	path := filepath.Join(t.TempDir(), "snapshot.yaml")
	ctx := context.Background()
	if err := Save(ctx, path, snap); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	store := snapshot.NewStore(snapshot.NewFileSource(path))
	if err := store.Reload(ctx); err != nil {
		t.Fatalf("Reload() error: %v", err)
	}
	engine := analytics.NewEngine(store, analytics.Options{LaundryDefectType: LaundryDefectType})

	general, err := engine.GetDefectAnalytics(ctx, records.Filter{})
	if err != nil {
		t.Fatalf("GetDefectAnalytics() error: %v", err)
	}
	if general.Summary.TotalRecords != 200 {
		t.Errorf("expected 200 records, got %d", general.Summary.TotalRecords)
	}

	wash, err := engine.GetWashRecipeDefectAnalytics(ctx, records.Filter{})
	if err != nil {
		t.Fatalf("GetWashRecipeDefectAnalytics() error: %v", err)
	}
	if wash.Summary.TotalDefects == 0 {
		t.Error("expected laundry defects in a drift scenario")
	}
}
