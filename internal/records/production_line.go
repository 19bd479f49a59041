package records

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ProductionLine identifies the sewing line that raised a defect.
//
// Upstream producers store this field either as a bare label ("Line 4", or an
// id-like string) or as an object; it is never a joined entity, so both forms
// decode into the same value and Efficiency is usually absent.
type ProductionLine struct {
	Name       string   `json:"name" yaml:"name"`
	Efficiency *float64 `json:"efficiency,omitempty" yaml:"efficiency,omitempty"`
}

// UnmarshalJSON accepts either a JSON string or an object.
func (p *ProductionLine) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		return json.Unmarshal(data, &p.Name)
	}

	var obj struct {
		Name       string   `json:"name"`
		LineNumber string   `json:"lineNumber"`
		Efficiency *float64 `json:"efficiency"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("production line: %w", err)
	}
	p.Name = PreferNonEmpty(obj.Name, obj.LineNumber)
	p.Efficiency = obj.Efficiency
	return nil
}

// UnmarshalYAML mirrors UnmarshalJSON for YAML snapshots.
func (p *ProductionLine) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		p.Name = value.Value
		return nil
	}

	var obj struct {
		Name       string   `yaml:"name"`
		LineNumber string   `yaml:"lineNumber"`
		Efficiency *float64 `yaml:"efficiency"`
	}
	if err := value.Decode(&obj); err != nil {
		return fmt.Errorf("production line: %w", err)
	}
	p.Name = PreferNonEmpty(obj.Name, obj.LineNumber)
	p.Efficiency = obj.Efficiency
	return nil
}

// PreferNonEmpty returns the first non-empty value.
func PreferNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
