package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"qa-analytics/internal/stats"
)

// binRange is the file form of stats.Range. A missing max means open-ended.
type binRange struct {
	Min   float64  `yaml:"min"`
	Max   *float64 `yaml:"max"`
	Label string   `yaml:"label"`
}

type binFile struct {
	Temperature []binRange `yaml:"temperature"`
	Volume      []binRange `yaml:"volume"`
	Duration    []binRange `yaml:"duration"`
}

// LoadBins reads bin ranges from a YAML file. Attributes the file leaves out
// keep their default ranges.
func LoadBins(path string) (stats.BinSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return stats.BinSet{}, fmt.Errorf("failed to read bins file: %w", err)
	}
	return ParseBins(data)
}

// ParseBins decodes and validates a YAML bin definition.
func ParseBins(data []byte) (stats.BinSet, error) {
	var f binFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return stats.BinSet{}, fmt.Errorf("failed to decode bins: %w", err)
	}

	bins := stats.DefaultBins()
	if len(f.Temperature) > 0 {
		bins.Temperature = toRanges(f.Temperature)
	}
	if len(f.Volume) > 0 {
		bins.Volume = toRanges(f.Volume)
	}
	if len(f.Duration) > 0 {
		bins.Duration = toRanges(f.Duration)
	}
	if err := bins.Validate(); err != nil {
		return stats.BinSet{}, fmt.Errorf("invalid bins: %w", err)
	}
	return bins, nil
}

func toRanges(in []binRange) []stats.Range {
	out := make([]stats.Range, len(in))
	for i, r := range in {
		upper := math.Inf(1)
		if r.Max != nil {
			upper = *r.Max
		}
		out[i] = stats.Range{Min: r.Min, Max: upper, Label: r.Label}
	}
	return out
}
