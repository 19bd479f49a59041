package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"qa-analytics/internal/records"
	"qa-analytics/internal/stats"
)

// DefaultLaundryDefectType is the defect-type category the wash view is built on.
const DefaultLaundryDefectType = "laundry Defects"

// Options tunes an Engine. Zero values fall back to defaults.
type Options struct {
	Bins              stats.BinSet
	LaundryDefectType string
}

// Engine is the analytics facade. It holds no per-call state; every view reads
// a fresh snapshot from the provider and reduces it locally.
type Engine struct {
	provider RecordProvider
	bins     stats.BinSet
	laundry  string
}

// NewEngine creates an engine over provider.
func NewEngine(provider RecordProvider, opts Options) *Engine {
	e := &Engine{
		provider: provider,
		bins:     opts.Bins,
		laundry:  opts.LaundryDefectType,
	}
	if len(e.bins.Temperature) == 0 || len(e.bins.Volume) == 0 || len(e.bins.Duration) == 0 {
		e.bins = stats.DefaultBins()
	}
	if e.laundry == "" {
		e.laundry = DefaultLaundryDefectType
	}
	return e
}

// Bins returns the ranges the engine bins recipe attributes into.
func (e *Engine) Bins() stats.BinSet { return e.bins }

// fetchDefects reads the defect snapshot and applies the predicate.
func (e *Engine) fetchDefects(ctx context.Context, pred records.Predicate) ([]records.DefectRecord, error) {
	all, err := e.provider.Defects(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch defects: %w", err)
	}
	return pred.Apply(all), nil
}

func logView(view string, started time.Time, defects int) {
	log.Debug().
		Str("view", view).
		Int("defects", defects).
		Dur("elapsed", time.Since(started)).
		Msg("Analytics view computed")
}

func totalWeight(defects []stats.ResolvedDefect) int {
	total := 0
	for _, d := range defects {
		total += d.Weight
	}
	return total
}
