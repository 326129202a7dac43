package types

import "time"

// RawRequirement is one requirement statement as returned by the
// structured-extraction call, before categorization. Category is a free-form
// hint; the categorizer maps it onto the closed vocabulary.
type RawRequirement struct {
	Category string `json:"category"`
	Type     string `json:"type"`
	Value    string `json:"value"`
	Required bool   `json:"required"`
}

// RequirementItem is a single normalized requirement statement attached to a
// program. Items are immutable once attached to a ProgramRecord.
type RequirementItem struct {
	Category      Category          `json:"category"`
	Type          string            `json:"type"`
	Value         string            `json:"value"`
	Source        RequirementSource `json:"source"`
	Required      bool              `json:"required"`
	LowConfidence bool              `json:"low_confidence,omitempty"`
}

// ProgramRecord is one extracted funding program, keyed by URL.
// Re-scrapes of the same URL overwrite the record in place.
type ProgramRecord struct {
	URL              string                         `json:"url"`
	InstitutionID    string                         `json:"institution_id"`
	Name             string                         `json:"name"`
	Description      string                         `json:"description,omitempty"`
	FundingAmountMin float64                        `json:"funding_amount_min,omitempty"`
	FundingAmountMax float64                        `json:"funding_amount_max,omitempty"`
	Currency         string                         `json:"currency,omitempty"`
	Deadline         *time.Time                     `json:"deadline,omitempty"`
	OpenDeadline     bool                           `json:"open_deadline,omitempty"`
	ContactEmail     string                         `json:"contact_email,omitempty"`
	ContactPhone     string                         `json:"contact_phone,omitempty"`
	FundingTypes     []string                       `json:"funding_types,omitempty"`
	Requirements     map[Category][]RequirementItem `json:"categorized_requirements"`
	ConfidenceScore  float64                        `json:"confidence_score"`
	ScrapedAt        time.Time                      `json:"scraped_at"`
}

// RequirementCount returns the total number of requirement items across all
// categories.
func (p *ProgramRecord) RequirementCount() int {
	n := 0
	for _, items := range p.Requirements {
		n += len(items)
	}
	return n
}

// HasRequiredCoFinancing reports whether any categorized requirement marks
// co-financing as mandatory.
func (p *ProgramRecord) HasRequiredCoFinancing() bool {
	for _, item := range p.Requirements[CategoryCoFinancing] {
		if item.Required {
			return true
		}
	}
	for _, item := range p.Requirements[CategoryFinancial] {
		if item.Type == "co_financing" && item.Required {
			return true
		}
	}
	return false
}
