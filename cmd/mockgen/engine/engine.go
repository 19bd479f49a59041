package engine

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"qa-analytics/internal/records"
	"qa-analytics/internal/snapshot"
)

// LaundryDefectType is the defect-type name the wash view looks up.
const LaundryDefectType = "laundry Defects"

type GeneratorConfig struct {
	Scenario     string // "mild", "chaos" or "drift"
	Distribution string // "uniform" or "weibull"
	Count        int    // number of defect records
	Seed         uint64
	Now          time.Time
}

var (
	defectTypes = []records.NamedRef{
		{ID: "DT-1", Name: LaundryDefectType},
		{ID: "DT-2", Name: "Sewing Defects"},
		{ID: "DT-3", Name: "Fabric Defects"},
		{ID: "DT-4", Name: "Finishing Defects"},
	}
	defectNames = []string{"Shade variation", "Broken stitch", "Stain", "Hole", "Puckering", "Uneven wash"}
	places      = []string{"Front panel", "Back panel", "Waistband", "Pocket", "Hem"}
	lines       = []string{"Line 1", "Line 2", "Line 3", "Line 4"}
	brands      = []records.NamedRef{{ID: "B-1", Name: "Northwind"}, {ID: "B-2", Name: "Contoso"}}
	styles      = []records.StyleRecord{
		{ID: "S-1", Name: "Slim Jean", StyleNo: "SJ-100"},
		{ID: "S-2", Name: "Cargo Pant", StyleNo: "CP-200"},
		{ID: "S-3", Name: "Chino", StyleNo: "CH-300"},
		{ID: "S-4", Name: "Denim Jacket", StyleNo: "DJ-400"},
	}
	fabrics = []records.FabricRecord{
		{ID: "F-1", Name: "Stretch Denim", Code: "SD", Composition: composition("Cotton", 98, "Elastane", 2)},
		{ID: "F-2", Name: "Rigid Denim", Code: "RD", Composition: composition("Cotton", 100)},
		{ID: "F-3", Name: "Twill", Code: "TW", Composition: composition("Cotton", 65, "Polyester", 35)},
		{ID: "F-4", Name: "Canvas", Code: "CV", Composition: composition("Polyester", 60, "Cotton", 40)},
	}
	chemicals = []string{"Enzyme", "Bleach", "Softener", "Neutraliser", "Pumice"}
	processes = []records.LaundryProcess{
		{ID: "P-1", Name: "Stone Wash", Type: "Dry"},
		{ID: "P-2", Name: "Enzyme Wash", Type: "Wet"},
		{ID: "P-3", Name: "Bleach Wash", Type: "Wet"},
		{ID: "P-4", Name: "Rinse", Type: "Wet"},
	}
	washTypes = []records.WashType{records.WashSizeSet, records.WashSMS, records.WashProto, records.WashProduction, records.WashFittingSample}
)

func composition(pairs ...any) []records.FabricComposition {
	var out []records.FabricComposition
	for i := 0; i+1 < len(pairs); i += 2 {
		name := pairs[i].(string)
		out = append(out, records.FabricComposition{
			Value: float64(pairs[i+1].(int)),
			Item:  &records.CompositionItem{ID: "FI-" + name, Name: name},
		})
	}
	return out
}

// Generate builds a consistent snapshot: orders with wash recipes, one defect
// per day ending at cfg.Now, and the defect-type lookup.
func Generate(cfg GeneratorConfig) snapshot.Snapshot {
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}
	if cfg.Count <= 0 {
		cfg.Count = 1
	}
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

	orderCount := max(1, cfg.Count/4)
	start := cfg.Now.AddDate(0, 0, -cfg.Count)

	snap := snapshot.Snapshot{DefectTypes: defectTypes}
	hotOrder := make([]bool, orderCount)

	for i := 0; i < orderCount; i++ {
		brand := brands[rng.IntN(len(brands))]
		style := styles[rng.IntN(len(styles))]
		style.Brand = &brand
		fabric := fabrics[rng.IntN(len(fabrics))]

		order := records.OrderRecord{
			ID:        fmt.Sprintf("O-%d", i+1),
			OrderNo:   fmt.Sprintf("PO-%05d", 1000+i),
			OrderQty:  100 + rng.IntN(1900),
			KeyNo:     fmt.Sprintf("K-%03d", i%12),
			ArticleNo: fmt.Sprintf("A-%04d", i),
			FabricID:  fabric.ID,
			Fabric:    &fabric,
			Style:     &style,
			Brand:     &brand,
		}
		snap.Orders = append(snap.Orders, order)

		for r := 0; r < 1+rng.IntN(2); r++ {
			recipe := recipe(rng, cfg, order.ID, fmt.Sprintf("R-%d-%d", i+1, r+1), start.Add(time.Duration(i)*24*time.Hour))
			if maxTemp(recipe) >= 70 {
				hotOrder[i] = true
			}
			snap.WashRecipes = append(snap.WashRecipes, recipe)
		}
	}

	for i := 0; i < cfg.Count; i++ {
		detected := start.Add(time.Duration(i*24) * time.Hour)
		progress := float64(i) / float64(cfg.Count)

		d := records.DefectRecord{
			ID:           fmt.Sprintf("D-%d", i+1),
			Severity:     severity(rng, cfg.Scenario, progress),
			DetectedDate: detected,
			DefectName:   pick(rng, "DN", defectNames),
			DefectPlace:  pick(rng, "DP", places),
			ProductionLine: &records.ProductionLine{
				Name:       lines[rng.IntN(len(lines))],
				Efficiency: ptr(60 + rng.Float64()*35),
			},
		}

		// A small share of defects are logged without an order.
		orderIdx := -1
		if rng.Float64() >= 0.05 {
			orderIdx = rng.IntN(orderCount)
			d.OrderID = snap.Orders[orderIdx].ID
		}

		laundryShare := 0.3
		switch cfg.Scenario {
		case "drift":
			laundryShare = 0.1 + 0.6*progress
		case "chaos":
			laundryShare = 0.5
		}
		if orderIdx >= 0 && hotOrder[orderIdx] {
			laundryShare += 0.2
		}
		dt := defectTypes[1+rng.IntN(len(defectTypes)-1)]
		if rng.Float64() < laundryShare {
			dt = defectTypes[0]
		}
		d.DefectType = &records.NamedRef{ID: dt.ID, Name: dt.Name}
		d.DefectProcess = &records.NamedRef{ID: "DPR-" + dt.ID, Name: dt.Name}

		if count := defectCount(rng, cfg); count > 0 {
			d.DefectCount = &count
		}

		ageDays := cfg.Now.Sub(detected).Hours() / 24
		switch {
		case ageDays < 7:
			d.Status = records.StatusOpen
		case ageDays < 21 || rng.Float64() < 0.1:
			d.Status = records.StatusInProgress
		default:
			d.Status = records.StatusResolved
			resolved := detected.Add(time.Duration(1+rng.IntN(72)) * time.Hour)
			d.ResolvedDate = &resolved
		}

		snap.Defects = append(snap.Defects, d)
	}

	return snap
}

func recipe(rng *rand.Rand, cfg GeneratorConfig, orderID, id string, date time.Time) records.WashRecipeRecord {
	r := records.WashRecipeRecord{
		ID:       id,
		OrderID:  orderID,
		WashType: washTypes[rng.IntN(len(washTypes))],
		WashCode: "W-" + id[2:],
		Date:     date,
	}

	hot := 60.0
	if cfg.Scenario == "chaos" {
		hot = 95
	}
	for s := 0; s < 1+rng.IntN(3); s++ {
		step := records.RecipeStep{
			Temp:   ptr(math.Round(20 + rng.Float64()*(hot-20+15))),
			Liters: ptr(math.Round(40 + rng.Float64()*400)),
			Time:   ptr(math.Round(5 + rng.Float64()*100)),
		}
		// Some steps are logged without a temperature.
		if rng.Float64() < 0.1 {
			step.Temp = nil
		}
		for c := 0; c < rng.IntN(3); c++ {
			name := chemicals[rng.IntN(len(chemicals))]
			step.StepItems = append(step.StepItems, records.StepItem{
				Chemical: &records.ChemicalItem{ID: "C-" + name, Name: name},
				Quantity: math.Round(rng.Float64()*50) / 10,
				Unit:     "g/L",
			})
		}
		r.Steps = append(r.Steps, step)
	}

	for p := 0; p < rng.IntN(3); p++ {
		proc := processes[rng.IntN(len(processes))]
		r.Processes = append(r.Processes, records.RecipeProcess{Process: &proc})
	}
	return r
}

func severity(rng *rand.Rand, scenario string, progress float64) records.Severity {
	high := 0.2
	switch scenario {
	case "chaos":
		high = 0.4
	case "drift":
		high = 0.1 + 0.4*progress
	}
	u := rng.Float64()
	switch {
	case u < high:
		return records.SeverityHigh
	case u < high+(1-high)/2:
		return records.SeverityMedium
	default:
		return records.SeverityLow
	}
}

// defectCount returns 0 when the record carries no count, which the engine
// weighs as 1.
func defectCount(rng *rand.Rand, cfg GeneratorConfig) int {
	if rng.Float64() < 0.15 {
		return 0
	}
	if cfg.Distribution == "weibull" {
		k := 1.5
		if cfg.Scenario == "chaos" {
			k = 0.8
		}
		return 1 + int(weibullSample(rng, k, 3))
	}
	return 1 + rng.IntN(5)
}

func weibullSample(rng *rand.Rand, k, lambda float64) float64 {
	u := rng.Float64()
	if u == 0 {
		u = 0.0001
	}
	// X = lambda * (-ln(1-u))^(1/k)
	return lambda * math.Pow(-math.Log(1.0-u), 1.0/k)
}

func maxTemp(r records.WashRecipeRecord) float64 {
	out := 0.0
	for _, s := range r.Steps {
		if s.Temp != nil {
			out = max(out, *s.Temp)
		}
	}
	return out
}

func pick(rng *rand.Rand, prefix string, names []string) *records.NamedRef {
	i := rng.IntN(len(names))
	return &records.NamedRef{ID: fmt.Sprintf("%s-%d", prefix, i+1), Name: names[i]}
}

func ptr(v float64) *float64 { return &v }

// Save writes the snapshot to path; the extension picks JSON or YAML.
func Save(ctx context.Context, path string, snap snapshot.Snapshot) error {
	return snapshot.NewFileSource(path).Save(ctx, snap)
}
