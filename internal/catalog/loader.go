package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a catalog file, normalizes its weight profiles onto the goal
// simplex, and validates every invariant. The returned catalog is immutable:
// a data change means loading a fresh catalog and rebuilding anything
// derived from it.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse builds a validated catalog from raw YAML.
func Parse(data []byte) (*Catalog, error) {
	cat := &Catalog{}
	if err := yaml.Unmarshal(data, cat); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return New(*cat)
}

// New indexes, normalizes, and validates a catalog assembled in code.
func New(c Catalog) (*Catalog, error) {
	cat := &c
	cat.buildIndexes()

	// Authored presets carry free-form relative weights; project them onto
	// the simplex before validation so downstream code only ever sees
	// sum-to-1 vectors.
	for i := range cat.Profiles {
		cat.Profiles[i].Weights = NormalizeWeights(cat.Profiles[i].Weights)
	}

	if err := cat.Validate(); err != nil {
		return nil, fmt.Errorf("validate catalog: %w", err)
	}
	return cat, nil
}
