package analytics

import (
	"context"
	"fmt"
	"time"

	"qa-analytics/internal/records"
	"qa-analytics/internal/stats"
)

// DefectSummary holds the headline numbers of the general view.
type DefectSummary struct {
	TotalDefects       int         `json:"totalDefects"`
	TotalRecords       int         `json:"totalRecords"`
	TotalOrders        int         `json:"totalOrders"`
	TotalProducedItems int         `json:"totalProducedItems"`
	DefectRatio        string      `json:"defectRatio"`
	ByStatus           []stats.Row `json:"byStatus"`
	BySeverity         []stats.Row `json:"bySeverity"`
}

// DefectAnalytics is the general-purpose rollup.
type DefectAnalytics struct {
	Summary          DefectSummary       `json:"summary"`
	ByFabric         []stats.Row         `json:"byFabric"`
	ByStyle          []stats.Row         `json:"byStyle"`
	ByComposition    []stats.Row         `json:"byComposition"`
	ByDefectType     []stats.Row         `json:"byDefectType"`
	ByDefectPlace    []stats.Row         `json:"byDefectPlace"`
	ByProductionLine []stats.Row         `json:"byProductionLine"`
	MonthlyTrend     []stats.TimeBucket  `json:"monthlyTrend"`
	WashRecipes      WashRecipeAnalytics `json:"washRecipes"`
}

// GetDefectAnalytics computes the general view over the filtered defects.
func (e *Engine) GetDefectAnalytics(ctx context.Context, filter records.Filter) (*DefectAnalytics, error) {
	started := time.Now()
	pred, err := filter.Compile()
	if err != nil {
		return nil, err
	}

	raw, err := e.fetchDefects(ctx, pred)
	if err != nil {
		return nil, fmt.Errorf("defect analytics: %w", err)
	}
	defects := stats.ResolveAll(raw)
	total := totalWeight(defects)

	produced, orders, err := e.producedItems(ctx, defects)
	if err != nil {
		return nil, fmt.Errorf("defect analytics: %w", err)
	}

	out := &DefectAnalytics{
		Summary: DefectSummary{
			TotalDefects:       total,
			TotalRecords:       len(defects),
			TotalOrders:        orders,
			TotalProducedItems: produced,
			DefectRatio:        stats.Ratio(total, produced),
			ByStatus:           stats.Aggregate(defects, byStatus),
			BySeverity:         stats.Aggregate(defects, bySeverity),
		},
		ByFabric:         stats.Aggregate(defects, byFabric),
		ByStyle:          stats.AggregateNested(defects, byStyle, byKeyNo),
		ByComposition:    stats.Aggregate(defects, byComposition),
		ByDefectType:     stats.Aggregate(defects, byDefectType),
		ByDefectPlace:    stats.Aggregate(defects, byDefectPlace),
		ByProductionLine: stats.Aggregate(defects, byProductionLine),
		MonthlyTrend:     stats.BucketBy(defects, stats.GranularityMonth).Buckets,
		WashRecipes:      e.runRecipes(generalRecipes(pred, total), defects, total),
	}

	logView("defects", started, len(defects))
	return out, nil
}

// producedItems sums orderQty over the distinct orders the defects reference.
func (e *Engine) producedItems(ctx context.Context, defects []stats.ResolvedDefect) (produced, orders int, err error) {
	seen := make(map[string]bool)
	ids := make([]string, 0)
	for _, d := range defects {
		if d.OrderID == "" || seen[d.OrderID] {
			continue
		}
		seen[d.OrderID] = true
		ids = append(ids, d.OrderID)
	}
	if len(ids) == 0 {
		return 0, 0, nil
	}

	found, err := e.provider.Orders(ctx, ids)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to fetch orders: %w", err)
	}
	counted := make(map[string]bool, len(found))
	for _, o := range found {
		if counted[o.ID] {
			continue
		}
		counted[o.ID] = true
		produced += max(o.OrderQty, 0)
	}
	return produced, len(counted), nil
}

var (
	byStatus = stats.ByName(func(d stats.ResolvedDefect) string {
		if d.Status == "" {
			return stats.NotAvailable
		}
		return string(d.Status)
	})

	bySeverity = stats.ByName(func(d stats.ResolvedDefect) string {
		if d.Severity == "" {
			return stats.NotAvailable
		}
		return string(d.Severity)
	})

	byFabric = stats.ByDefect(stats.ResolvedDefect.FabricKey, func(d stats.ResolvedDefect) stats.Label {
		return stats.Label{Name: d.FabricName, Attrs: map[string]any{"code": d.FabricCode}}
	})

	byStyle = stats.ByDefect(stats.ResolvedDefect.StyleKey, func(d stats.ResolvedDefect) stats.Label {
		return stats.Label{Name: d.StyleName, Attrs: map[string]any{"styleNo": d.StyleNo, "brand": d.BrandName}}
	})

	byKeyNo = stats.ByName(func(d stats.ResolvedDefect) string { return d.KeyNo })

	byComposition = stats.ByDefect(
		func(d stats.ResolvedDefect) string { return d.CompositionLabel },
		func(d stats.ResolvedDefect) stats.Label {
			return stats.Label{Name: d.CompositionLabel, Attrs: map[string]any{"dominantFiber": d.DominantFiber}}
		},
	)

	byDominantFiber = stats.ByName(func(d stats.ResolvedDefect) string { return d.DominantFiber })

	byDefectType = stats.ByDefect(
		func(d stats.ResolvedDefect) string { return stats.PreferID(d.DefectTypeID, d.DefectTypeName) },
		func(d stats.ResolvedDefect) stats.Label { return stats.Label{Name: d.DefectTypeName} },
	)

	byDefectPlace = stats.ByName(func(d stats.ResolvedDefect) string { return d.DefectPlace })

	byProductionLine = stats.ByDefect(
		func(d stats.ResolvedDefect) string { return d.LineName },
		func(d stats.ResolvedDefect) stats.Label {
			attrs := map[string]any{"efficiency": nil}
			if d.LineEfficiency != nil {
				attrs["efficiency"] = *d.LineEfficiency
			}
			return stats.Label{Name: d.LineName, Attrs: attrs}
		},
	)
)
