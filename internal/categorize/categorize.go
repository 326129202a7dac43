// Package categorize maps raw extracted requirements onto the closed
// 18-category vocabulary. Rules are evaluated in declaration order, most
// specific first; the first matching rule wins, which keeps the mapping
// deterministic across runs.
package categorize

import (
	"strings"

	"github.com/fundscout/fundscout/internal/types"
)

// minValueLength is the shortest requirement value considered specific
// enough to stand on its own. Shorter values are kept but flagged.
const minValueLength = 20

// genericValues are phrases too vague to act on. Matching values are kept
// but flagged low-confidence.
var genericValues = map[string]bool{
	"required":      true,
	"see below":     true,
	"see website":   true,
	"available":     true,
	"yes":           true,
	"no":            true,
	"n/a":           true,
	"tbd":           true,
	"various":       true,
	"none":          true,
	"multiple":      true,
	"siehe website": true,
	"auf anfrage":   true,
}

type rule struct {
	category types.Category
	reqType  string
	patterns []string
}

// rules is ordered most-specific first. A pattern matches as a lowercase
// substring of the raw category hint, type, or value.
var rules = []rule{
	{types.CategoryCoFinancing, "co_financing", []string{"co-financing", "cofinancing", "kofinanzierung", "eigenmittel", "eigenkapital", "own funds"}},
	{types.CategoryTRLLevel, "trl_level", []string{"trl", "technology readiness"}},
	{types.CategoryConsortium, "consortium", []string{"konsortium", "consortium", "projektpartner", "partner organisation"}},
	{types.CategoryCapexOpex, "cost_type", []string{"capex", "opex", "investitionskosten", "betriebskosten"}},
	{types.CategoryUseOfFunds, "use_of_funds", []string{"use of funds", "mittelverwendung", "verwendungszweck"}},
	{types.CategoryRevenueModel, "revenue", []string{"revenue", "umsatz", "erlös", "turnover"}},
	{types.CategoryMarketSize, "market_size", []string{"market size", "marktgröße", "marktpotenzial"}},
	{types.CategoryGeographic, "location", []string{"location", "standort", "österreich", "austria", "wien", "vienna", "bundesland", "region", "sitz", "headquarter"}},
	{types.CategoryTeam, "team", []string{"team", "mitarbeiter", "personal", "qualifikation", "ausbildung", "gründer", "founder", "employee"}},
	{types.CategoryTimeline, "timeline", []string{"deadline", "frist", "laufzeit", "duration", "zeitraum", "termin", "einreichung"}},
	{types.CategoryDocuments, "documents", []string{"antrag", "bewerbung", "application", "unterlagen", "dokument", "businessplan", "business plan", "nachweis", "formular"}},
	{types.CategoryImpact, "impact", []string{"nachhaltigkeit", "sustainability", "impact", "klima", "climate", "co2", "umwelt"}},
	{types.CategoryLegal, "legal", []string{"rechtlich", "legal", "gesetz", "dsgvo", "gdpr", "haftung"}},
	{types.CategoryCompliance, "compliance", []string{"compliance", "richtlinie", "guideline", "vorschrift", "audit", "de-minimis", "beihilfe"}},
	{types.CategoryTechnical, "technical", []string{"technisch", "technical", "prototyp", "prototype", "software", "hardware"}},
	{types.CategoryFinancial, "funding", []string{"funding", "förderhöhe", "förderung", "finanzierung", "budget", "€", "eur", "betrag", "amount"}},
	{types.CategoryProject, "project", []string{"innovation", "forschung", "research", "entwicklung", "projekt", "project"}},
	{types.CategoryEligibility, "company_type", []string{"startup", "neugründung", "unternehmen", "firma", "company", "kmu", "sme", "gründung", "eligib"}},
}

// Categorize maps raw requirements onto the closed vocabulary. The raw
// category hint is trusted when it already names a vocabulary category;
// otherwise the rule table decides. Requirements nothing matches land in
// eligibility with a low-confidence flag rather than being dropped.
func Categorize(raw []types.RawRequirement, source types.RequirementSource) map[types.Category][]types.RequirementItem {
	out := map[types.Category][]types.RequirementItem{}
	for _, r := range raw {
		if strings.TrimSpace(r.Value) == "" {
			continue
		}

		category, reqType, matched := classify(r)
		item := types.RequirementItem{
			Category:      category,
			Type:          reqType,
			Value:         strings.TrimSpace(r.Value),
			Source:        source,
			Required:      r.Required,
			LowConfidence: !matched || lowConfidence(r.Value),
		}
		out[category] = append(out[category], item)
	}
	return out
}

func classify(r types.RawRequirement) (types.Category, string, bool) {
	if c, ok := types.CategoryFromString(strings.ToLower(strings.TrimSpace(r.Category))); ok {
		return c, typeOrDefault(r, string(c)), true
	}

	haystack := strings.ToLower(r.Category + " " + r.Type + " " + r.Value)
	for _, rule := range rules {
		for _, p := range rule.patterns {
			if strings.Contains(haystack, p) {
				return rule.category, typeOrDefault(r, rule.reqType), true
			}
		}
	}

	return types.CategoryEligibility, typeOrDefault(r, "unclassified"), false
}

func typeOrDefault(r types.RawRequirement, fallback string) string {
	if t := strings.TrimSpace(r.Type); t != "" {
		return t
	}
	return fallback
}

func lowConfidence(value string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	if len(v) < minValueLength {
		return true
	}
	return genericValues[v]
}

// ConfidenceScore is the fraction of requirement items not flagged
// low-confidence. A page with no requirements scores zero.
func ConfidenceScore(categorized map[types.Category][]types.RequirementItem) float64 {
	total, confident := 0, 0
	for _, items := range categorized {
		for _, item := range items {
			total++
			if !item.LowConfidence {
				confident++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(confident) / float64(total)
}
