package categorize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundscout/fundscout/internal/types"
)

func TestCategorizeTrustsValidHint(t *testing.T) {
	raw := []types.RawRequirement{
		{Category: "geographic", Type: "location", Value: "Registered office in Austria required", Required: true},
	}
	got := Categorize(raw, types.SourceStructuredSection)

	require.Len(t, got[types.CategoryGeographic], 1)
	item := got[types.CategoryGeographic][0]
	assert.Equal(t, "location", item.Type)
	assert.True(t, item.Required)
	assert.False(t, item.LowConfidence)
	assert.Equal(t, types.SourceStructuredSection, item.Source)
}

func TestCategorizeRuleTableOnFreeFormHints(t *testing.T) {
	tests := []struct {
		name string
		raw  types.RawRequirement
		want types.Category
	}{
		{
			"co-financing beats financial",
			types.RawRequirement{Category: "finance", Value: "At least 50% Eigenmittel must be provided by the applicant"},
			types.CategoryCoFinancing,
		},
		{
			"trl from value text",
			types.RawRequirement{Category: "tech", Value: "Project must have reached Technology Readiness Level 5"},
			types.CategoryTRLLevel,
		},
		{
			"location keyword",
			types.RawRequirement{Category: "where", Value: "Company headquarters must be located in Wien"},
			types.CategoryGeographic,
		},
		{
			"document keyword",
			types.RawRequirement{Category: "", Value: "A detailed Businessplan must accompany the application"},
			types.CategoryDocuments,
		},
		{
			"consortium keyword",
			types.RawRequirement{Category: "", Value: "Ein Konsortium aus mindestens drei Unternehmen ist erforderlich"},
			types.CategoryConsortium,
		},
		{
			"company type fallback rule",
			types.RawRequirement{Category: "who can apply", Value: "Open to KMU registered for less than five years"},
			types.CategoryEligibility,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Categorize([]types.RawRequirement{tt.raw}, types.SourceText)
			require.Len(t, got[tt.want], 1, "expected item in %s, got %v", tt.want, got)
		})
	}
}

func TestCategorizeRuleOrderIsDeterministic(t *testing.T) {
	// Mentions both Eigenmittel (co_financing) and Förderung (financial);
	// the more specific co-financing rule is declared first and must win.
	raw := []types.RawRequirement{
		{Value: "Die Förderung setzt 30% Eigenmittel des Antragstellers voraus"},
	}
	got := Categorize(raw, types.SourceText)
	assert.Len(t, got[types.CategoryCoFinancing], 1)
	assert.Empty(t, got[types.CategoryFinancial])
}

func TestCategorizeUnmatchedLandsInEligibilityLowConfidence(t *testing.T) {
	raw := []types.RawRequirement{
		{Category: "misc", Value: "Der Vorstand behandelt jeden Einzelfall gesondert und individuell"},
	}
	got := Categorize(raw, types.SourceText)
	require.Len(t, got[types.CategoryEligibility], 1)
	item := got[types.CategoryEligibility][0]
	assert.True(t, item.LowConfidence)
	assert.Equal(t, "unclassified", item.Type)
}

func TestCategorizeFlagsShortAndGenericValues(t *testing.T) {
	raw := []types.RawRequirement{
		{Category: "documents", Value: "required"},
		{Category: "team", Value: "yes"},
		{Category: "geographic", Value: "Austria"},
		{Category: "timeline", Value: "Applications accepted until 31 March each calendar year"},
	}
	got := Categorize(raw, types.SourceText)

	assert.True(t, got[types.CategoryDocuments][0].LowConfidence)
	assert.True(t, got[types.CategoryTeam][0].LowConfidence)
	assert.True(t, got[types.CategoryGeographic][0].LowConfidence, "short value is flagged")
	assert.False(t, got[types.CategoryTimeline][0].LowConfidence)
}

func TestCategorizeSkipsEmptyValues(t *testing.T) {
	got := Categorize([]types.RawRequirement{
		{Category: "team", Value: "   "},
		{Category: "team", Value: ""},
	}, types.SourceText)
	assert.Empty(t, got)
}

func TestCategorizeOnlyProducesVocabularyCategories(t *testing.T) {
	raw := []types.RawRequirement{
		{Category: "funding-stuff", Value: "Maximale Förderhöhe beträgt 100.000 Euro pro Projekt"},
		{Category: "WEIRD", Value: "Nachhaltigkeit und Klimaschutz müssen nachgewiesen werden"},
	}
	got := Categorize(raw, types.SourceText)
	for category := range got {
		assert.True(t, category.Valid(), "category %q outside vocabulary", category)
	}
}

func TestConfidenceScore(t *testing.T) {
	categorized := map[types.Category][]types.RequirementItem{
		types.CategoryGeographic: {
			{Value: "Registered office in Austria required", LowConfidence: false},
			{Value: "Austria", LowConfidence: true},
		},
		types.CategoryTeam: {
			{Value: "At least two full-time founders on the team", LowConfidence: false},
			{Value: "yes", LowConfidence: true},
		},
	}
	assert.InDelta(t, 0.5, ConfidenceScore(categorized), 1e-9)
	assert.Zero(t, ConfidenceScore(nil))
}
