package analytics

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"qa-analytics/internal/records"
	"qa-analytics/internal/stats"
)

const recipeListSize = 10

// WashSummary holds the headline numbers of a recipe breakdown.
type WashSummary struct {
	// TotalDefects is the weighted count the breakdown is normalised against.
	TotalDefects          int    `json:"totalDefects"`
	WashRecipeDefects     int    `json:"washRecipeDefects"`
	WashRecipeDefectRatio string `json:"washRecipeDefectRatio"`
	TotalRecipes          int    `json:"totalRecipes"`
	AverageDefectDensity  string `json:"averageDefectDensity"`
	MedianDefectDensity   string `json:"medianDefectDensity"`
}

// RecipeRow is one wash recipe with the defects raised on its order.
type RecipeRow struct {
	RecipeID      string           `json:"recipeId"`
	WashCode      string           `json:"washCode"`
	WashType      records.WashType `json:"washType"`
	OrderNo       string           `json:"orderNo"`
	OrderQty      int              `json:"orderQty"`
	DefectCount   int              `json:"defectCount"`
	DefectDensity string           `json:"defectDensity"`

	density float64
}

// WashRecipeAnalytics is the recipe-level breakdown of a defect set.
type WashRecipeAnalytics struct {
	Summary       WashSummary    `json:"summary"`
	ByWashType    []stats.Row    `json:"byWashType"`
	ByChemical    []stats.Row    `json:"byChemical"`
	ByProcess     []stats.Row    `json:"byProcess"`
	ByTemperature []stats.BinRow `json:"byTemperature"`
	ByVolume      []stats.BinRow `json:"byVolume"`
	ByDuration    []stats.BinRow `json:"byDuration"`
	Recipes       []RecipeRow    `json:"recipes"`
	TopRecipes    []RecipeRow    `json:"topRecipes"`
	BottomRecipes []RecipeRow    `json:"bottomRecipes"`
}

// recipeView describes one flavour of the recipe pipeline: where a defect's
// recipes come from and what the breakdown percentages are taken against.
// The general view walks the order-joined path and normalises against every
// defect; the wash view uses the batch-fetched recipes and its own totals.
type recipeView struct {
	name    string
	recipes func(stats.ResolvedDefect) []records.WashRecipeRecord
	// denominator for breakdown percentages; <= 0 means the breakdown's own total.
	denominator int
}

func generalRecipes(pred records.Predicate, allDefects int) recipeView {
	return recipeView{
		name: "general",
		recipes: func(d stats.ResolvedDefect) []records.WashRecipeRecord {
			return matchingRecipes(d.WashRecipes, pred)
		},
		denominator: allDefects,
	}
}

func washRecipes(pred records.Predicate, byOrder map[string][]records.WashRecipeRecord) recipeView {
	return recipeView{
		name: "wash",
		recipes: func(d stats.ResolvedDefect) []records.WashRecipeRecord {
			if d.OrderID == "" {
				return nil
			}
			return matchingRecipes(byOrder[d.OrderID], pred)
		},
	}
}

func matchingRecipes(recipes []records.WashRecipeRecord, pred records.Predicate) []records.WashRecipeRecord {
	out := make([]records.WashRecipeRecord, 0, len(recipes))
	for _, r := range recipes {
		if pred.MatchWashType(r) {
			out = append(out, r)
		}
	}
	return out
}

// GetWashRecipeDefectAnalytics restricts the snapshot to laundry defects whose
// order carries at least one matching wash recipe and breaks them down by
// recipe chemistry. The summary total counts every laundry defect that passed
// the filter, whatever its wash type.
func (e *Engine) GetWashRecipeDefectAnalytics(ctx context.Context, filter records.Filter) (*WashRecipeAnalytics, error) {
	started := time.Now()
	pred, err := filter.Compile()
	if err != nil {
		return nil, err
	}
	// The view is pinned to the laundry category.
	pred.DefectType = ""

	var (
		raw     []records.DefectRecord
		recipes []records.WashRecipeRecord
		types   []records.NamedRef
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		raw, err = e.fetchDefects(gctx, pred)
		return err
	})
	g.Go(func() error {
		var err error
		if recipes, err = e.provider.WashRecipes(gctx); err != nil {
			return fmt.Errorf("failed to fetch wash recipes: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if types, err = e.provider.DefectTypes(gctx); err != nil {
			return fmt.Errorf("failed to fetch defect types: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("wash recipe analytics: %w", err)
	}

	laundry, ok := findDefectType(types, e.laundry)
	if !ok {
		return nil, fmt.Errorf("wash recipe analytics: defect type %q: %w", e.laundry, ErrReferenceNotFound)
	}

	typed := make([]records.DefectRecord, 0, len(raw))
	for _, d := range raw {
		if isDefectType(d.DefectType, laundry) {
			typed = append(typed, d)
		}
	}
	defects := stats.ResolveAll(typed)

	byOrder := make(map[string][]records.WashRecipeRecord)
	for _, r := range recipes {
		// Recipes without an owner belong to no order.
		if r.OrderID == "" {
			continue
		}
		byOrder[r.OrderID] = append(byOrder[r.OrderID], r)
	}

	out := e.runRecipes(washRecipes(pred, byOrder), defects, totalWeight(defects))
	logView("wash-recipes", started, len(defects))
	return &out, nil
}

func findDefectType(types []records.NamedRef, name string) (records.NamedRef, bool) {
	for _, t := range types {
		if strings.EqualFold(t.Name, name) {
			return t, true
		}
	}
	return records.NamedRef{}, false
}

// isDefectType matches on ID when both sides carry one, otherwise on name.
func isDefectType(ref *records.NamedRef, want records.NamedRef) bool {
	if ref == nil {
		return false
	}
	if want.ID != "" && ref.ID == want.ID {
		return true
	}
	return ref.Name != "" && strings.EqualFold(ref.Name, want.Name)
}

// recipeSubject is a defect together with the recipes it is attributed to.
type recipeSubject struct {
	defect  stats.ResolvedDefect
	recipes []records.WashRecipeRecord
}

// recipeUnit is a recipe with the summed weight of the defects on its order.
type recipeUnit struct {
	recipe records.WashRecipeRecord
	order  stats.ResolvedDefect
	weight int
}

func (u recipeUnit) temps() []*float64 {
	return stepValues(u.recipe, func(s records.RecipeStep) *float64 { return s.Temp })
}

func (u recipeUnit) liters() []*float64 {
	return stepValues(u.recipe, func(s records.RecipeStep) *float64 { return s.Liters })
}

func (u recipeUnit) minutes() []*float64 {
	return stepValues(u.recipe, func(s records.RecipeStep) *float64 { return s.Time })
}

func stepValues(r records.WashRecipeRecord, pick func(records.RecipeStep) *float64) []*float64 {
	out := make([]*float64, len(r.Steps))
	for i, s := range r.Steps {
		out[i] = pick(s)
	}
	return out
}

// runRecipes is the single recipe pipeline shared by both views.
func (e *Engine) runRecipes(view recipeView, defects []stats.ResolvedDefect, totalDefects int) WashRecipeAnalytics {
	subjects := make([]recipeSubject, 0)
	for _, d := range defects {
		if rs := view.recipes(d); len(rs) > 0 {
			subjects = append(subjects, recipeSubject{defect: d, recipes: rs})
		}
	}

	units := make([]*recipeUnit, 0)
	index := make(map[string]*recipeUnit)
	washDefects := 0
	for _, s := range subjects {
		washDefects += s.defect.Weight
		seen := make(map[string]bool)
		for _, r := range s.recipes {
			key := recipeKey(r, s.defect)
			if seen[key] {
				continue
			}
			seen[key] = true
			u, ok := index[key]
			if !ok {
				u = &recipeUnit{recipe: r, order: s.defect}
				index[key] = u
				units = append(units, u)
			}
			u.weight += s.defect.Weight
		}
	}

	weight := func(s recipeSubject) int { return s.defect.Weight }
	unitWeight := func(u *recipeUnit) int { return u.weight }
	table := recipeTable(units)

	out := WashRecipeAnalytics{
		ByWashType:    stats.AggregateMulti(subjects, washTypeKeys, weight, view.denominator),
		ByChemical:    stats.AggregateMulti(subjects, chemicalKeys, weight, view.denominator),
		ByProcess:     stats.AggregateMulti(subjects, processKeys, weight, view.denominator),
		ByTemperature: stats.Bin(units, (*recipeUnit).temps, unitWeight, e.bins.Temperature),
		ByVolume:      stats.Bin(units, (*recipeUnit).liters, unitWeight, e.bins.Volume),
		ByDuration:    stats.Bin(units, (*recipeUnit).minutes, unitWeight, e.bins.Duration),
		Recipes:       table,
		TopRecipes:    topRecipes(table),
		BottomRecipes: bottomRecipes(table),
	}
	out.Summary = WashSummary{
		TotalDefects:          totalDefects,
		WashRecipeDefects:     washDefects,
		WashRecipeDefectRatio: stats.Ratio(washDefects, totalDefects),
		TotalRecipes:          len(table),
		AverageDefectDensity:  densityString(meanDensity(table)),
		MedianDefectDensity:   densityString(medianDensity(table)),
	}
	return out
}

func recipeKey(r records.WashRecipeRecord, owner stats.ResolvedDefect) string {
	if r.ID != "" {
		return r.ID
	}
	return owner.OrderKey() + "/" + r.WashCode + "/" + string(r.WashType)
}

func washTypeKeys(s recipeSubject) []stats.Keyed {
	out := make([]stats.Keyed, 0, len(s.recipes))
	for _, r := range s.recipes {
		name := string(r.WashType)
		if name == "" {
			name = stats.UnknownWashType
		}
		out = append(out, stats.Keyed{Key: name, Label: stats.Label{Name: name}})
	}
	return out
}

func chemicalKeys(s recipeSubject) []stats.Keyed {
	out := make([]stats.Keyed, 0)
	for _, r := range s.recipes {
		for _, step := range r.Steps {
			for _, item := range step.StepItems {
				c := item.Chemical
				if c == nil || c.Name == "" {
					out = append(out, stats.Keyed{Key: stats.UnknownChemical, Label: stats.Label{Name: stats.UnknownChemical}})
					continue
				}
				out = append(out, stats.Keyed{Key: stats.PreferID(c.ID, c.Name), Label: stats.Label{Name: c.Name}})
			}
		}
	}
	if len(out) == 0 {
		out = append(out, stats.Keyed{Key: stats.UnknownChemical, Label: stats.Label{Name: stats.UnknownChemical}})
	}
	return out
}

func processKeys(s recipeSubject) []stats.Keyed {
	out := make([]stats.Keyed, 0)
	for _, r := range s.recipes {
		for _, rp := range r.Processes {
			p := rp.Process
			if p == nil || p.Name == "" {
				out = append(out, stats.Keyed{Key: stats.UnknownProcess, Label: stats.Label{Name: stats.UnknownProcess}})
				continue
			}
			attrs := map[string]any{"type": p.Type}
			if p.Type == "" {
				attrs["type"] = stats.NotAvailable
			}
			out = append(out, stats.Keyed{Key: stats.PreferID(p.ID, p.Name), Label: stats.Label{Name: p.Name, Attrs: attrs}})
		}
	}
	if len(out) == 0 {
		out = append(out, stats.Keyed{Key: stats.UnknownProcess, Label: stats.Label{Name: stats.UnknownProcess}})
	}
	return out
}

func recipeTable(units []*recipeUnit) []RecipeRow {
	rows := make([]RecipeRow, len(units))
	for i, u := range units {
		washCode := u.recipe.WashCode
		if washCode == "" {
			washCode = stats.NotAvailable
		}
		rows[i] = RecipeRow{
			RecipeID:      u.recipe.ID,
			WashCode:      washCode,
			WashType:      u.recipe.WashType,
			OrderNo:       u.order.OrderNo,
			OrderQty:      u.order.OrderQty,
			DefectCount:   u.weight,
			DefectDensity: stats.Ratio(u.weight, u.order.OrderQty),
			density:       stats.RatioValue(u.weight, u.order.OrderQty),
		}
	}
	return rows
}

// topRecipes returns the densest recipes first.
func topRecipes(table []RecipeRow) []RecipeRow {
	sorted := slices.Clone(table)
	slices.SortStableFunc(sorted, func(a, b RecipeRow) int { return cmp.Compare(b.density, a.density) })
	return sorted[:min(recipeListSize, len(sorted))]
}

// bottomRecipes returns the least dense recipes that still have a density.
func bottomRecipes(table []RecipeRow) []RecipeRow {
	nonzero := make([]RecipeRow, 0, len(table))
	for _, r := range table {
		if r.density > 0 {
			nonzero = append(nonzero, r)
		}
	}
	slices.SortStableFunc(nonzero, func(a, b RecipeRow) int { return cmp.Compare(a.density, b.density) })
	return nonzero[:min(recipeListSize, len(nonzero))]
}

func densities(table []RecipeRow) []float64 {
	out := make([]float64, len(table))
	for i, r := range table {
		out[i] = r.density
	}
	return out
}

func meanDensity(table []RecipeRow) float64 {
	if len(table) == 0 {
		return 0
	}
	sum := 0.0
	for _, d := range densities(table) {
		sum += d
	}
	return sum / float64(len(table))
}

func medianDensity(table []RecipeRow) float64 {
	return stats.CalculateMedianContinuous(densities(table))
}

func densityString(v float64) string {
	if v == 0 {
		return stats.ZeroPercent
	}
	return fmt.Sprintf("%.2f", stats.RoundTo(v, 2))
}
