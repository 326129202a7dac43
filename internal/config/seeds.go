package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
)

// Seed describes one institution entry point for discovery.
type Seed struct {
	InstitutionID   string   `json:"institution_id" validate:"required"`
	InstitutionName string   `json:"institution_name" validate:"required"`
	SeedURL         string   `json:"seed_url" validate:"required,url"`
	Keywords        []string `json:"keywords,omitempty"`
	FundingTypes    []string `json:"funding_types,omitempty"`
	MaxResults      int      `json:"max_results,omitempty" validate:"gte=0"`
}

// Validate validates the Seed using the validator.
func (s *Seed) Validate() error {
	validate := validator.New()
	return validate.Struct(s)
}

// DefaultKeywords is the multilingual funding-domain keyword list applied when
// a seed does not configure its own. URLs must contain at least one keyword to
// survive discovery filtering.
func DefaultKeywords() []string {
	return []string{
		"foerderung", "förderung", "foerderungen",
		"funding", "grant", "grants", "program", "programme",
		"finanzierung", "darlehen", "kredit", "subvention", "beihilfe",
		"startup", "innovation", "forschung", "research",
		"investment", "loan", "equity", "ausbildung", "export",
	}
}

// LoadSeeds loads the institution seed list from a JSON file and validates
// every entry. A single invalid seed fails the load; discovery should never
// run against a half-valid registry.
func LoadSeeds(path string) ([]Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seeds file %s: %w", path, err)
	}

	var seeds []Seed
	if err := json.Unmarshal(data, &seeds); err != nil {
		return nil, fmt.Errorf("failed to parse seeds JSON: %w", err)
	}

	for i := range seeds {
		if err := seeds[i].Validate(); err != nil {
			return nil, fmt.Errorf("invalid seed %q (index %d): %w", seeds[i].SeedURL, i, err)
		}
		if seeds[i].MaxResults == 0 {
			seeds[i].MaxResults = DefaultMaxResults
		}
		if len(seeds[i].Keywords) == 0 {
			seeds[i].Keywords = DefaultKeywords()
		}
	}

	return seeds, nil
}
