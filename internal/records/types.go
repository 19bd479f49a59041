package records

import (
	"time"
)

// Severity grades a defect.
type Severity string

const (
	SeverityLow    Severity = "Low"
	SeverityMedium Severity = "Medium"
	SeverityHigh   Severity = "High"
)

// Status is the lifecycle state of a defect.
type Status string

const (
	StatusOpen       Status = "Open"
	StatusInProgress Status = "In Progress"
	StatusResolved   Status = "Resolved"
)

// WashType classifies a wash recipe by the production stage it was written for.
type WashType string

const (
	WashSizeSet       WashType = "Size set"
	WashSMS           WashType = "SMS"
	WashProto         WashType = "Proto"
	WashProduction    WashType = "Production"
	WashFittingSample WashType = "Fitting Sample"
)

// NamedRef is a lookup entity that only carries an identity and a display name
// (defect type, defect name, defect place, defect process, brand).
type NamedRef struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// DefectRecord is a single quality-defect entry raised on an order.
type DefectRecord struct {
	ID           string     `json:"id" yaml:"id"`
	Severity     Severity   `json:"severity" yaml:"severity"`
	Status       Status     `json:"status" yaml:"status"`
	DetectedDate time.Time  `json:"detectedDate" yaml:"detectedDate"`
	ResolvedDate *time.Time `json:"resolvedDate,omitempty" yaml:"resolvedDate,omitempty"`
	// DefectCount is the number of pieces affected. Absent means one.
	DefectCount *int `json:"defectCount,omitempty" yaml:"defectCount,omitempty"`

	OrderID string       `json:"orderId" yaml:"orderId"`
	Order   *OrderRecord `json:"order,omitempty" yaml:"order,omitempty"`

	DefectType     *NamedRef       `json:"defectType,omitempty" yaml:"defectType,omitempty"`
	DefectName     *NamedRef       `json:"defectName,omitempty" yaml:"defectName,omitempty"`
	DefectPlace    *NamedRef       `json:"defectPlace,omitempty" yaml:"defectPlace,omitempty"`
	DefectProcess  *NamedRef       `json:"defectProcess,omitempty" yaml:"defectProcess,omitempty"`
	ProductionLine *ProductionLine `json:"productionLine,omitempty" yaml:"productionLine,omitempty"`
}

// Weight returns the weighted count a defect contributes to every aggregate.
func (d DefectRecord) Weight() int {
	if d.DefectCount == nil || *d.DefectCount < 1 {
		return 1
	}
	return *d.DefectCount
}

// OrderRecord is a production order. OrderQty is the produced-unit denominator.
type OrderRecord struct {
	ID          string             `json:"id" yaml:"id"`
	OrderNo     string             `json:"orderNo" yaml:"orderNo"`
	OrderQty    int                `json:"orderQty" yaml:"orderQty"`
	KeyNo       string             `json:"keyNo,omitempty" yaml:"keyNo,omitempty"`
	ArticleNo   string             `json:"articleNo,omitempty" yaml:"articleNo,omitempty"`
	FabricID    string             `json:"fabricId,omitempty" yaml:"fabricId,omitempty"`
	Fabric      *FabricRecord      `json:"fabric,omitempty" yaml:"fabric,omitempty"`
	Style       *StyleRecord       `json:"style,omitempty" yaml:"style,omitempty"`
	Brand       *NamedRef          `json:"brand,omitempty" yaml:"brand,omitempty"`
	WashRecipes []WashRecipeRecord `json:"washRecipes,omitempty" yaml:"washRecipes,omitempty"`
}

// FabricRecord describes the cloth an order is cut from.
type FabricRecord struct {
	ID          string              `json:"id" yaml:"id"`
	Name        string              `json:"name" yaml:"name"`
	Code        string              `json:"code,omitempty" yaml:"code,omitempty"`
	Composition []FabricComposition `json:"composition,omitempty" yaml:"composition,omitempty"`
}

// FabricComposition is one fiber share of a fabric. Value is a percentage.
type FabricComposition struct {
	Value float64          `json:"value" yaml:"value"`
	Item  *CompositionItem `json:"item,omitempty" yaml:"item,omitempty"`
}

// CompositionItem is a named fiber such as "Cotton".
type CompositionItem struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

type StyleRecord struct {
	ID      string    `json:"id" yaml:"id"`
	Name    string    `json:"name" yaml:"name"`
	StyleNo string    `json:"styleNo,omitempty" yaml:"styleNo,omitempty"`
	Brand   *NamedRef `json:"brand,omitempty" yaml:"brand,omitempty"`
}

// WashRecipeRecord is a laundry recipe attached to an order.
type WashRecipeRecord struct {
	ID        string          `json:"id" yaml:"id"`
	OrderID   string          `json:"orderId,omitempty" yaml:"orderId,omitempty"`
	WashType  WashType        `json:"washType" yaml:"washType"`
	WashCode  string          `json:"washCode,omitempty" yaml:"washCode,omitempty"`
	Date      time.Time       `json:"date" yaml:"date"`
	Steps     []RecipeStep    `json:"steps,omitempty" yaml:"steps,omitempty"`
	Processes []RecipeProcess `json:"recipeProcess,omitempty" yaml:"recipeProcess,omitempty"`
}

// RecipeStep is one bath of a recipe. Temp is in °C, Liters is the liquor volume
// and Time is in minutes. Any of them may be missing on legacy recipes.
type RecipeStep struct {
	Temp      *float64   `json:"temp,omitempty" yaml:"temp,omitempty"`
	Liters    *float64   `json:"liters,omitempty" yaml:"liters,omitempty"`
	Time      *float64   `json:"time,omitempty" yaml:"time,omitempty"`
	StepItems []StepItem `json:"stepItems,omitempty" yaml:"stepItems,omitempty"`
}

type StepItem struct {
	Chemical *ChemicalItem `json:"chemical,omitempty" yaml:"chemical,omitempty"`
	Quantity float64       `json:"quantity,omitempty" yaml:"quantity,omitempty"`
	Unit     string        `json:"unit,omitempty" yaml:"unit,omitempty"`
}

type ChemicalItem struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

type RecipeProcess struct {
	Process *LaundryProcess `json:"laundryProcess,omitempty" yaml:"laundryProcess,omitempty"`
}

// LaundryProcess is a named laundry operation (enzyme wash, bleach, ...).
type LaundryProcess struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	Type string `json:"type,omitempty" yaml:"type,omitempty"`
}
