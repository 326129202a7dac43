package llm

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/fundscout/fundscout/internal/types"
)

// ExtractionError indicates the structured-extraction call errored or
// returned an unusable shape. The owning job is failed and the cache is not
// written.
type ExtractionError struct {
	Message string
	Cause   error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("extraction failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("extraction failed: %s", e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// Extraction is the parsed, schema-valid result of a structured-extraction
// call for one funding page.
type Extraction struct {
	Name             string                 `json:"name"`
	Description      string                 `json:"description,omitempty"`
	FundingAmountMin float64                `json:"funding_amount_min,omitempty"`
	FundingAmountMax float64                `json:"funding_amount_max,omitempty"`
	Currency         string                 `json:"currency,omitempty"`
	Deadline         string                 `json:"deadline,omitempty"`
	OpenDeadline     bool                   `json:"open_deadline,omitempty"`
	ContactEmail     string                 `json:"contact_email,omitempty"`
	ContactPhone     string                 `json:"contact_phone,omitempty"`
	FundingTypes     []string               `json:"funding_types,omitempty"`
	Requirements     []types.RawRequirement `json:"requirements"`
}

// ParsedDeadline returns the deadline as a time, or nil when absent or not a
// valid YYYY-MM-DD date.
func (e *Extraction) ParsedDeadline() *time.Time {
	if e.Deadline == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", e.Deadline)
	if err != nil {
		return nil
	}
	return &t
}

// extractionJSONSchema is the shape contract for the extraction response.
const extractionJSONSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["name", "requirements"],
	"properties": {
		"name": {"type": "string", "minLength": 1},
		"description": {"type": "string"},
		"funding_amount_min": {"type": "number", "minimum": 0},
		"funding_amount_max": {"type": "number", "minimum": 0},
		"currency": {"type": "string"},
		"deadline": {"type": "string"},
		"open_deadline": {"type": "boolean"},
		"contact_email": {"type": "string"},
		"contact_phone": {"type": "string"},
		"funding_types": {
			"type": "array",
			"items": {"type": "string"}
		},
		"requirements": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["category", "value"],
				"properties": {
					"category": {"type": "string"},
					"type": {"type": "string"},
					"value": {"type": "string"},
					"required": {"type": "boolean"}
				}
			}
		}
	}
}`

// ParseExtraction validates the raw JSON returned by the extraction call
// against the response schema and decodes it. Any shape violation is an
// *ExtractionError.
func ParseExtraction(jsonText string) (*Extraction, error) {
	schemaLoader := gojsonschema.NewStringLoader(extractionJSONSchema)
	documentLoader := gojsonschema.NewStringLoader(jsonText)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, &ExtractionError{Message: "response is not valid JSON", Cause: err}
	}
	if !result.Valid() {
		detail := ""
		for i, desc := range result.Errors() {
			if i > 0 {
				detail += "; "
			}
			detail += desc.String()
		}
		return nil, &ExtractionError{Message: "response violates schema: " + detail}
	}

	var out Extraction
	if err := json.Unmarshal([]byte(jsonText), &out); err != nil {
		return nil, &ExtractionError{Message: "failed to decode response", Cause: err}
	}
	return &out, nil
}
