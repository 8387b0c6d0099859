// Package catalog describes the occupation records held by the vector index.
// Records are read-only to the matcher; this package only reads them.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Record is one occupation in the classification catalog.
type Record struct {
	ID          string   `json:"id" yaml:"id" mapstructure:"id"`
	Title       string   `json:"occupationTitle" yaml:"occupationTitle" mapstructure:"occupationTitle"`
	Description string   `json:"description" yaml:"description" mapstructure:"description"`
	Code        string   `json:"code" yaml:"code" mapstructure:"code"`
	Category    string   `json:"category" yaml:"category" mapstructure:"category"`
	Skills      []string `json:"skills" yaml:"skills" mapstructure:"skills"`
	TextContent string   `json:"textContent" yaml:"textContent" mapstructure:"textContent"`
}

var ErrInvalidRecord = errors.New("invalid catalog record")

// Text is the string embedded for a record at index-build time.
func (r Record) Text() string {
	return strings.Join([]string{r.Title, r.Description, strings.Join(r.Skills, " "), r.TextContent}, " ")
}

// Metadata is the payload stored next to the record's vector.
func (r Record) Metadata() map[string]any {
	skills := make([]any, len(r.Skills))
	for i, s := range r.Skills {
		skills[i] = s
	}
	return map[string]any{
		"occupationTitle": r.Title,
		"description":     r.Description,
		"code":            r.Code,
		"category":        r.Category,
		"skills":          skills,
		"textContent":     r.TextContent,
	}
}

// Validate checks the fields the matcher relies on.
func (r Record) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidRecord)
	}
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("%w: %s: missing occupationTitle", ErrInvalidRecord, r.ID)
	}
	return nil
}

type file struct {
	Occupations []Record `yaml:"occupations"`
}

// LoadFile reads a YAML (or JSON) catalog with a top-level "occupations" list.
func LoadFile(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes catalog bytes and validates every record.
func Parse(data []byte) ([]Record, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	seen := make(map[string]bool, len(f.Occupations))
	for _, r := range f.Occupations {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
		if seen[r.ID] {
			return nil, fmt.Errorf("catalog: %w: duplicate id %s", ErrInvalidRecord, r.ID)
		}
		seen[r.ID] = true
	}
	return f.Occupations, nil
}
