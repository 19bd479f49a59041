package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"qa-analytics/internal/snapshot"
)

func TestParseBins(t *testing.T) {
	doc := `
temperature:
  - {min: 0, max: 41, label: "0-40°C"}
  - {min: 41, max: 81, label: "41-80°C"}
  - {min: 81, label: "81°C+"}
`
	bins, err := ParseBins([]byte(doc))
	if err != nil {
		t.Fatalf("ParseBins() error: %v", err)
	}
	if len(bins.Temperature) != 3 {
		t.Fatalf("expected 3 temperature ranges, got %d", len(bins.Temperature))
	}
	if !math.IsInf(bins.Temperature[2].Max, 1) {
		t.Errorf("missing max should be open-ended, got %v", bins.Temperature[2].Max)
	}
	if len(bins.Volume) != 5 || bins.Volume[0].Label != "0-50L" {
		t.Errorf("volume ranges should keep defaults, got %+v", bins.Volume)
	}
}

func TestParseBins_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"Gap", "volume:\n  - {min: 0, max: 10, label: a}\n  - {min: 20, label: b}\n"},
		{"Closed", "duration:\n  - {min: 0, max: 10, label: a}\n"},
		{"Malformed", "temperature: [oops"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseBins([]byte(tt.doc)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	binsPath := filepath.Join(dir, "bins.yaml")
	if err := os.WriteFile(binsPath, []byte("duration:\n  - {min: 0, max: 60, label: \"0-59 min\"}\n  - {min: 60, label: \"60 min+\"}\n"), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("DATA_PATH", dir)
	t.Setenv("LOGS_FOLDER", filepath.Join(dir, "logs"))
	t.Setenv("SNAPSHOT_DRIVER", "sqlite")
	t.Setenv("SNAPSHOT_DSN", filepath.Join(dir, "qa.db"))
	t.Setenv("BINS_FILE", binsPath)
	t.Setenv("ENABLE_MERMAID_CHARTS", "true")
	t.Setenv("LAUNDRY_DEFECT_TYPE", "Washing")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Snapshot.Driver != snapshot.DriverSQLite || cfg.Snapshot.DSN != filepath.Join(dir, "qa.db") {
		t.Errorf("unexpected snapshot config: %+v", cfg.Snapshot)
	}
	if cfg.Snapshot.Path != filepath.Join(dir, "snapshot.json") {
		t.Errorf("default snapshot path = %s", cfg.Snapshot.Path)
	}
	if len(cfg.Bins.Duration) != 2 || !cfg.EnableMermaidCharts {
		t.Errorf("bins/mermaid not applied: %+v", cfg)
	}
	if opts := cfg.EngineOptions(); opts.LaundryDefectType != "Washing" {
		t.Errorf("laundry type = %s", opts.LaundryDefectType)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("default HTTP addr = %s", cfg.HTTPAddr)
	}
}

func TestLoadEnv_WorkingDirectoryQuoting(t *testing.T) {
	dir := t.TempDir()
	content := `QA_TEST_QUOTED='value with "double quotes"'`
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
	t.Cleanup(func() { os.Unsetenv("QA_TEST_QUOTED") })

	LoadEnv()

	expected := `value with "double quotes"`
	if got := os.Getenv("QA_TEST_QUOTED"); got != expected {
		t.Errorf("Expected %s, got %s", expected, got)
	}
}
