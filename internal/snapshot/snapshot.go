package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"qa-analytics/internal/records"
)

// Snapshot is a point-in-time copy of every record the engine reads.
type Snapshot struct {
	Defects     []records.DefectRecord     `json:"defects" yaml:"defects"`
	Orders      []records.OrderRecord      `json:"orders" yaml:"orders"`
	WashRecipes []records.WashRecipeRecord `json:"washRecipes" yaml:"washRecipes"`
	DefectTypes []records.NamedRef         `json:"defectTypes" yaml:"defectTypes"`
}

// Source loads a snapshot from wherever it is kept.
type Source interface {
	Load(ctx context.Context) (Snapshot, error)
	// Describe names the source for logs.
	Describe() string
}

// Format is a snapshot serialisation.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the format from a file name or object key. Anything that is
// not .yaml or .yml is treated as JSON.
func FormatFor(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Decode parses a serialised snapshot.
func Decode(data []byte, format Format) (Snapshot, error) {
	var s Snapshot
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &s)
	default:
		err = json.Unmarshal(data, &s)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode %s snapshot: %w", format, err)
	}
	return s, nil
}

// Encode serialises a snapshot.
func Encode(s Snapshot, format Format) ([]byte, error) {
	if format == FormatYAML {
		return yaml.Marshal(s)
	}
	return json.MarshalIndent(s, "", "  ")
}
