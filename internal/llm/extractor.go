// Package llm - extractor.go defines the funding-page extraction schema and
// prompt construction.
package llm

import (
	"fmt"
	"strings"
)

// ExtractorVersion identifies the current extraction logic. It is part of
// every cache key, so bumping it invalidates previously cached results.
const ExtractorVersion = "v3"

// ExtractionSchema defines the structure for LLM-based content extraction.
type ExtractionSchema struct {
	Name        string        // Schema name (e.g., "FundingProgram")
	Description string        // System prompt preamble describing the extraction task
	Fields      []SchemaField // Expected output fields
}

// SchemaField defines a single field in the extraction output.
type SchemaField struct {
	Name        string // JSON field name
	Type        string // Type hint: "string", "number", ...
	Description string // Description for the LLM
	Required    bool   // Whether this field is required
}

// BuildExtractionPrompt constructs the LLM prompt from schema and input text.
func BuildExtractionPrompt(schema ExtractionSchema, inputText string) string {
	var sb strings.Builder

	sb.WriteString(schema.Description)
	sb.WriteString("\n\n")

	sb.WriteString("Return ONLY valid JSON matching this exact structure:\n{\n")
	for i, field := range schema.Fields {
		typeHint := field.Type
		if typeHint == "" {
			typeHint = "string"
		}
		requiredHint := ""
		if field.Required {
			requiredHint = " (required)"
		}
		sb.WriteString(fmt.Sprintf("  \"%s\": %s%s", field.Name, typeHint, requiredHint))
		if field.Description != "" {
			sb.WriteString(fmt.Sprintf(" // %s", field.Description))
		}
		if i < len(schema.Fields)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("}\n\n")

	sb.WriteString("IMPORTANT:\n")
	sb.WriteString("- Extract information directly from the text, do not invent or summarize.\n")
	sb.WriteString("- Return ONLY the JSON object, no markdown, no explanation, no code blocks.\n\n")

	sb.WriteString("Input text:\n\"\"\"\n")
	sb.WriteString(inputText)
	sb.WriteString("\n\"\"\"\n")

	return sb.String()
}

// FundingProgramSchema returns the extraction schema for funding-program
// pages. Pages are often German or English; values are extracted in the
// page's language.
func FundingProgramSchema() ExtractionSchema {
	return ExtractionSchema{
		Name: "FundingProgram",
		Description: `You are an expert analyst of public funding and grant programs.
Your task is to extract structured data from a funding-program web page.
The page may be in German or English. COPY VALUES FROM THE TEXT - do not invent amounts, dates, or conditions that are not stated.
Goal: Extract the program's identity, funding amounts, deadline, contacts, funding types, and every eligibility or application requirement.`,
		Fields: []SchemaField{
			{
				Name:        "name",
				Type:        "\"string\"",
				Description: "Official program name",
				Required:    true,
			},
			{
				Name:        "description",
				Type:        "\"string\"",
				Description: "One-paragraph summary of what the program funds",
				Required:    false,
			},
			{
				Name:        "funding_amount_min",
				Type:        "number",
				Description: "Minimum funding amount as a plain number, 0 if not stated",
				Required:    false,
			},
			{
				Name:        "funding_amount_max",
				Type:        "number",
				Description: "Maximum funding amount as a plain number, 0 if not stated",
				Required:    false,
			},
			{
				Name:        "currency",
				Type:        "\"string\"",
				Description: "ISO currency code, e.g. EUR",
				Required:    false,
			},
			{
				Name:        "deadline",
				Type:        "\"string\"",
				Description: "Application deadline as YYYY-MM-DD, empty if none stated",
				Required:    false,
			},
			{
				Name:        "open_deadline",
				Type:        "boolean",
				Description: "true when applications are accepted on a rolling basis (laufend)",
				Required:    false,
			},
			{
				Name:        "contact_email",
				Type:        "\"string\"",
				Description: "Contact email address if stated",
				Required:    false,
			},
			{
				Name:        "contact_phone",
				Type:        "\"string\"",
				Description: "Contact phone number if stated",
				Required:    false,
			},
			{
				Name:        "funding_types",
				Type:        "[\"string\"]",
				Description: "Instrument types, e.g. grant, loan, equity, subsidy, guarantee",
				Required:    false,
			},
			{
				Name:        "requirements",
				Type:        "[{\"category\": \"string\", \"type\": \"string\", \"value\": \"string\", \"required\": boolean}]",
				Description: "Every eligibility or application requirement; category is a short hint like location, revenue, team, documents",
				Required:    true,
			},
		},
	}
}
