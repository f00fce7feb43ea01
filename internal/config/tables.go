package config

import (
	"fmt"
	"os"

	"github.com/outlierlabs/digest-curator/internal/dedup"
	"github.com/outlierlabs/digest-curator/internal/scoring"
	"github.com/outlierlabs/digest-curator/internal/selection"
	"github.com/outlierlabs/digest-curator/internal/virality"
	"gopkg.in/yaml.v3"
)

// Tables groups every keyword table and threshold. Keys absent from a tables file keep their defaults;
// a list that is present replaces the default list entirely.
type Tables struct {
	Scoring   scoring.Config   `yaml:"scoring"`
	Dedup     dedup.Config     `yaml:"dedup"`
	Selection selection.Config `yaml:"selection"`
	Virality  virality.Config  `yaml:"virality"`
}

// DefaultTables returns the built-in tables
func DefaultTables() Tables {
	return Tables{
		Scoring:   scoring.DefaultConfig(),
		Dedup:     dedup.DefaultConfig(),
		Selection: selection.DefaultConfig(),
		Virality:  virality.DefaultConfig(),
	}
}

// LoadTables reads a YAML tables file over the defaults. An empty path returns the defaults.
func LoadTables(path string) (Tables, error) {
	tables := DefaultTables()
	if path == "" {
		return tables, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return tables, fmt.Errorf("failed to read tables file: %w", err)
	}

	if err := ParseTables(data, &tables); err != nil {
		return tables, fmt.Errorf("failed to parse tables file %s: %w", path, err)
	}
	return tables, nil
}

// ParseTables overlays YAML onto tables
func ParseTables(data []byte, tables *Tables) error {
	return yaml.Unmarshal(data, tables)
}
