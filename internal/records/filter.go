package records

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// DateLayout is the wire format of Filter dates.
const DateLayout = "2006-01-02"

// ComparisonType selects the pairing used by the comparison view.
type ComparisonType string

const (
	CompareFabricVsStyle       ComparisonType = "fabric-vs-style"
	CompareCompositionVsDefect ComparisonType = "composition-vs-defect"
	CompareTimeVsSeverity      ComparisonType = "time-vs-severity"
)

// Metric selects which value of a ranked row feeds scatter data.
type Metric string

const (
	MetricCount      Metric = "count"
	MetricPercentage Metric = "percentage"
)

// ErrInvalidFilter is returned when a Filter fails validation.
var ErrInvalidFilter = errors.New("invalid filter")

// Filter is the user-supplied narrowing applied before any aggregation.
// Every field is optional; the zero value matches everything.
type Filter struct {
	StartDate      string         `json:"startDate,omitempty" form:"startDate" validate:"omitempty,datetime=2006-01-02" jsonschema:"inclusive lower bound on the detected date (YYYY-MM-DD)"`
	EndDate        string         `json:"endDate,omitempty" form:"endDate" validate:"omitempty,datetime=2006-01-02" jsonschema:"inclusive upper bound on the detected date (YYYY-MM-DD)"`
	Severity       Severity       `json:"severity,omitempty" form:"severity" validate:"omitempty,oneof=Low Medium High" jsonschema:"Low, Medium or High"`
	Status         Status         `json:"status,omitempty" form:"status" validate:"omitempty,oneof=Open 'In Progress' Resolved" jsonschema:"Open, In Progress or Resolved"`
	DefectType     string         `json:"defectType,omitempty" form:"defectType" jsonschema:"defect type id"`
	WashType       WashType       `json:"washType,omitempty" form:"washType" validate:"omitempty,oneof='Size set' SMS Proto Production 'Fitting Sample'" jsonschema:"Size set, SMS, Proto, Production or Fitting Sample"`
	ComparisonType ComparisonType `json:"comparisonType,omitempty" form:"comparisonType" validate:"omitempty,oneof=fabric-vs-style composition-vs-defect time-vs-severity" jsonschema:"fabric-vs-style, composition-vs-defect or time-vs-severity"`
	Metric         Metric         `json:"metric,omitempty" form:"metric" validate:"omitempty,oneof=count percentage" jsonschema:"count (default) or percentage"`
}

var filterValidate *validator.Validate

func init() {
	filterValidate = validator.New()
	filterValidate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
}

// Validate checks enum fields and date formats. The HTTP layer validates too,
// but callers embedding the engine elsewhere get the same guarantees here.
func (f Filter) Validate() error {
	if err := filterValidate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %v", ErrInvalidFilter, err)
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s: invalid value %q", fe.Field(), fmt.Sprint(fe.Value())))
		}
		return fmt.Errorf("%w: %s", ErrInvalidFilter, strings.Join(msgs, "; "))
	}

	start, end, err := f.Bounds()
	if err != nil {
		return err
	}
	if start != nil && end != nil && end.Before(*start) {
		return fmt.Errorf("%w: endDate is before startDate", ErrInvalidFilter)
	}
	return nil
}

// Bounds parses the date range. The upper bound is extended to the last
// nanosecond of its day so that a defect detected that afternoon still matches.
func (f Filter) Bounds() (start, end *time.Time, err error) {
	if f.StartDate != "" {
		t, err := time.Parse(DateLayout, f.StartDate)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: startDate: %v", ErrInvalidFilter, err)
		}
		start = &t
	}
	if f.EndDate != "" {
		t, err := time.Parse(DateLayout, f.EndDate)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: endDate: %v", ErrInvalidFilter, err)
		}
		eod := EndOfDay(t)
		end = &eod
	}
	return start, end, nil
}

// EndOfDay returns the last nanosecond of t's calendar day.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999999999, t.Location())
}

// Predicate is a compiled Filter.
type Predicate struct {
	Start      *time.Time
	End        *time.Time
	Severity   Severity
	Status     Status
	DefectType string
	WashType   WashType
}

// Compile validates the filter and returns the predicate shared by all views.
func (f Filter) Compile() (Predicate, error) {
	if err := f.Validate(); err != nil {
		return Predicate{}, err
	}
	start, end, err := f.Bounds()
	if err != nil {
		return Predicate{}, err
	}
	return Predicate{
		Start:      start,
		End:        end,
		Severity:   f.Severity,
		Status:     f.Status,
		DefectType: f.DefectType,
		WashType:   f.WashType,
	}, nil
}

// Match reports whether a defect passes the date, severity, status and
// defect-type criteria. Wash type is applied separately on recipes.
func (p Predicate) Match(d DefectRecord) bool {
	if p.Start != nil && d.DetectedDate.Before(*p.Start) {
		return false
	}
	if p.End != nil && d.DetectedDate.After(*p.End) {
		return false
	}
	if p.Severity != "" && d.Severity != p.Severity {
		return false
	}
	if p.Status != "" && d.Status != p.Status {
		return false
	}
	if p.DefectType != "" {
		if d.DefectType == nil {
			return false
		}
		if d.DefectType.ID != p.DefectType && !strings.EqualFold(d.DefectType.Name, p.DefectType) {
			return false
		}
	}
	return true
}

// MatchWashType reports whether a recipe passes the wash-type criterion.
func (p Predicate) MatchWashType(r WashRecipeRecord) bool {
	return p.WashType == "" || r.WashType == p.WashType
}

// Apply returns the defects that match, preserving order.
func (p Predicate) Apply(defects []DefectRecord) []DefectRecord {
	out := make([]DefectRecord, 0, len(defects))
	for _, d := range defects {
		if p.Match(d) {
			out = append(out, d)
		}
	}
	return out
}
