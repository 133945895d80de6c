package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/farmdesk/complyd/internal/types"
)

// Catalog is a YAML-seeded requirement template. The catalog file is read
// once during `complyd init`; the requirements it defines are immutable
// afterwards.
type Catalog struct {
	Template     string               `yaml:"template"`
	Requirements []CatalogRequirement `yaml:"requirements"`
}

// CatalogRequirement is one checklist entry in a catalog file.
type CatalogRequirement struct {
	ID          string `yaml:"id"`
	Category    string `yaml:"category,omitempty"`
	Title       string `yaml:"title"`
	Notes       string `yaml:"notes,omitempty"`
	Optional    bool   `yaml:"optional,omitempty"`
	RecencyDays int    `yaml:"recency_days,omitempty"`
}

// LoadCatalog reads and validates a catalog seed file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path) // #nosec G304 - user-supplied seed path
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	if cat.Template == "" {
		return nil, fmt.Errorf("catalog: template is required")
	}
	for i, r := range cat.Requirements {
		if r.ID == "" {
			return nil, fmt.Errorf("catalog: requirement %d: id is required", i)
		}
		if r.Title == "" {
			return nil, fmt.Errorf("catalog: requirement %s: title is required", r.ID)
		}
		if r.RecencyDays < 0 {
			return nil, fmt.Errorf("catalog: requirement %s: recency_days cannot be negative", r.ID)
		}
	}
	return &cat, nil
}

// ToRequirements converts the catalog entries to typed requirements, with
// positions assigned in file order.
func (c *Catalog) ToRequirements() []*types.Requirement {
	out := make([]*types.Requirement, len(c.Requirements))
	for i, r := range c.Requirements {
		req := &types.Requirement{
			ID:         r.ID,
			TemplateID: c.Template,
			Category:   r.Category,
			Title:      r.Title,
			Notes:      r.Notes,
			Required:   !r.Optional,
			Position:   i,
		}
		if r.RecencyDays > 0 {
			days := r.RecencyDays
			req.RecencyDays = &days
		}
		out[i] = req
	}
	return out
}
