// Package types provides type definitions for structured funding-program data
// used throughout the fundscout system.
package types

// Category is the closed vocabulary of semantic requirement categories.
// New categories require a code change here and in the categorizer rule table;
// unknown strings are rejected at the categorizer boundary.
type Category string

const (
	CategoryEligibility  Category = "eligibility"
	CategoryFinancial    Category = "financial"
	CategoryDocuments    Category = "documents"
	CategoryTimeline     Category = "timeline"
	CategoryGeographic   Category = "geographic"
	CategoryTeam         Category = "team"
	CategoryProject      Category = "project"
	CategoryCompliance   Category = "compliance"
	CategoryImpact       Category = "impact"
	CategoryCapexOpex    Category = "capex_opex"
	CategoryUseOfFunds   Category = "use_of_funds"
	CategoryRevenueModel Category = "revenue_model"
	CategoryMarketSize   Category = "market_size"
	CategoryCoFinancing  Category = "co_financing"
	CategoryTRLLevel     Category = "trl_level"
	CategoryConsortium   Category = "consortium"
	CategoryTechnical    Category = "technical"
	CategoryLegal        Category = "legal"
)

// AllCategories lists every valid category in a stable order.
func AllCategories() []Category {
	return []Category{
		CategoryEligibility,
		CategoryFinancial,
		CategoryDocuments,
		CategoryTimeline,
		CategoryGeographic,
		CategoryTeam,
		CategoryProject,
		CategoryCompliance,
		CategoryImpact,
		CategoryCapexOpex,
		CategoryUseOfFunds,
		CategoryRevenueModel,
		CategoryMarketSize,
		CategoryCoFinancing,
		CategoryTRLLevel,
		CategoryConsortium,
		CategoryTechnical,
		CategoryLegal,
	}
}

var categorySet = func() map[Category]bool {
	set := make(map[Category]bool)
	for _, c := range AllCategories() {
		set[c] = true
	}
	return set
}()

// CategoryFromString maps a raw string onto the closed vocabulary.
// The second return value is false for anything outside the vocabulary.
func CategoryFromString(s string) (Category, bool) {
	c := Category(s)
	return c, categorySet[c]
}

// Valid reports whether the category belongs to the closed vocabulary.
func (c Category) Valid() bool {
	return categorySet[c]
}

// RequirementSource identifies where on a page a requirement was found.
type RequirementSource string

const (
	SourceTable             RequirementSource = "table"
	SourceDefinitionList    RequirementSource = "definition_list"
	SourceStructuredSection RequirementSource = "structured_section"
	SourceText              RequirementSource = "text"
)

// ValidSource reports whether s is a known requirement source.
func ValidSource(s RequirementSource) bool {
	switch s {
	case SourceTable, SourceDefinitionList, SourceStructuredSection, SourceText:
		return true
	}
	return false
}
