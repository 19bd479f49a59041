package stats

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"qa-analytics/internal/records"
)

// Placeholders used whenever a relation is missing. Grouping on a placeholder
// keeps the defect in every total instead of silently dropping it.
const (
	UnknownOrder       = "Unknown Order"
	UnknownFabric      = "Unknown Fabric"
	UnknownStyle       = "Unknown Style"
	UnknownBrand       = "Unknown Brand"
	UnknownComposition = "Unknown Composition"
	UnknownFiber       = "Unknown Fiber"
	UnknownDefectType  = "Unknown Type"
	UnknownDefectName  = "Unknown Defect"
	UnknownPlace       = "Unknown Place"
	UnknownProcess     = "Unknown Process"
	UnknownLine        = "Unknown Line"
	UnknownChemical    = "Unknown Chemical"
	UnknownWashType    = "Unknown Wash Type"
	NotAvailable       = "N/A"
)

// CompositionShare is one fiber of a fabric with its percentage.
type CompositionShare struct {
	Fiber string  `json:"fiber"`
	Value float64 `json:"value"`
}

// ResolvedDefect is a defect with every optional relation replaced by a typed
// default. Nothing downstream of Resolve needs a nil check.
type ResolvedDefect struct {
	ID           string
	Weight       int
	Severity     records.Severity
	Status       records.Status
	DetectedDate time.Time

	HasOrder  bool
	OrderID   string
	OrderNo   string
	OrderQty  int
	KeyNo     string
	ArticleNo string

	FabricID         string
	FabricName       string
	FabricCode       string
	Composition      []CompositionShare
	CompositionLabel string
	DominantFiber    string

	StyleID   string
	StyleName string
	StyleNo   string
	BrandName string

	DefectTypeID   string
	DefectTypeName string
	DefectName     string
	DefectPlace    string
	DefectProcess  string

	LineName       string
	LineEfficiency *float64

	// WashRecipes is the order-joined recipe path (order.washRecipes).
	WashRecipes []records.WashRecipeRecord
}

// FabricKey groups by fabric identity, falling back to the display name.
func (r ResolvedDefect) FabricKey() string { return PreferID(r.FabricID, r.FabricName) }

// StyleKey groups by style identity, falling back to the display name.
func (r ResolvedDefect) StyleKey() string { return PreferID(r.StyleID, r.StyleName) }

// OrderKey groups by order identity, falling back to the order number.
func (r ResolvedDefect) OrderKey() string { return PreferID(r.OrderID, r.OrderNo) }

// Resolve normalises a defect and its joined sub-graph. It never fails.
func Resolve(d records.DefectRecord) ResolvedDefect {
	r := ResolvedDefect{
		ID:           d.ID,
		Weight:       d.Weight(),
		Severity:     d.Severity,
		Status:       d.Status,
		DetectedDate: d.DetectedDate,

		OrderID:   d.OrderID,
		OrderNo:   UnknownOrder,
		KeyNo:     NotAvailable,
		ArticleNo: NotAvailable,

		FabricName:       UnknownFabric,
		FabricCode:       NotAvailable,
		Composition:      []CompositionShare{},
		CompositionLabel: UnknownComposition,
		DominantFiber:    UnknownComposition,

		StyleName: UnknownStyle,
		StyleNo:   NotAvailable,
		BrandName: UnknownBrand,

		DefectTypeName: UnknownDefectType,
		DefectName:     UnknownDefectName,
		DefectPlace:    UnknownPlace,
		DefectProcess:  UnknownProcess,
		LineName:       UnknownLine,
	}

	if d.DefectType != nil {
		r.DefectTypeID = d.DefectType.ID
		r.DefectTypeName = nameOr(d.DefectType.Name, UnknownDefectType)
	}
	if d.DefectName != nil {
		r.DefectName = nameOr(d.DefectName.Name, UnknownDefectName)
	}
	if d.DefectPlace != nil {
		r.DefectPlace = nameOr(d.DefectPlace.Name, UnknownPlace)
	}
	if d.DefectProcess != nil {
		r.DefectProcess = nameOr(d.DefectProcess.Name, UnknownProcess)
	}
	if d.ProductionLine != nil {
		r.LineName = nameOr(d.ProductionLine.Name, UnknownLine)
		r.LineEfficiency = d.ProductionLine.Efficiency
	}

	o := d.Order
	if o == nil {
		return r
	}
	r.HasOrder = true
	r.OrderID = records.PreferNonEmpty(o.ID, d.OrderID)
	r.OrderNo = nameOr(o.OrderNo, UnknownOrder)
	r.OrderQty = max(o.OrderQty, 0)
	r.KeyNo = nameOr(o.KeyNo, NotAvailable)
	r.ArticleNo = nameOr(o.ArticleNo, NotAvailable)
	r.WashRecipes = o.WashRecipes

	if o.Brand != nil {
		r.BrandName = nameOr(o.Brand.Name, UnknownBrand)
	}
	if s := o.Style; s != nil {
		r.StyleID = s.ID
		r.StyleName = nameOr(s.Name, UnknownStyle)
		r.StyleNo = nameOr(s.StyleNo, NotAvailable)
		if s.Brand != nil && s.Brand.Name != "" {
			r.BrandName = s.Brand.Name
		}
	}
	if f := o.Fabric; f != nil {
		r.FabricID = f.ID
		r.FabricName = nameOr(f.Name, UnknownFabric)
		r.FabricCode = nameOr(f.Code, NotAvailable)
		r.Composition = resolveComposition(f.Composition)
		if len(r.Composition) > 0 {
			r.CompositionLabel = CompositionLabel(r.Composition)
			r.DominantFiber = r.Composition[0].Fiber
		}
	}
	return r
}

// ResolveAll resolves a defect list, preserving order.
func ResolveAll(defects []records.DefectRecord) []ResolvedDefect {
	out := make([]ResolvedDefect, len(defects))
	for i, d := range defects {
		out[i] = Resolve(d)
	}
	return out
}

// resolveComposition orders shares by descending value so the dominant fiber
// comes first. Ties keep their stored order.
func resolveComposition(comp []records.FabricComposition) []CompositionShare {
	shares := make([]CompositionShare, 0, len(comp))
	for _, c := range comp {
		fiber := UnknownFiber
		if c.Item != nil && c.Item.Name != "" {
			fiber = c.Item.Name
		}
		shares = append(shares, CompositionShare{Fiber: fiber, Value: c.Value})
	}
	slices.SortStableFunc(shares, func(a, b CompositionShare) int {
		switch {
		case a.Value > b.Value:
			return -1
		case a.Value < b.Value:
			return 1
		}
		return 0
	})
	return shares
}

// CompositionLabel renders shares as "60% Cotton, 40% Polyester".
func CompositionLabel(shares []CompositionShare) string {
	if len(shares) == 0 {
		return UnknownComposition
	}
	parts := make([]string, len(shares))
	for i, s := range shares {
		parts[i] = fmt.Sprintf("%s%% %s", strconv.FormatFloat(s.Value, 'f', -1, 64), s.Fiber)
	}
	return strings.Join(parts, ", ")
}

func nameOr(name, fallback string) string {
	if strings.TrimSpace(name) == "" {
		return fallback
	}
	return name
}
