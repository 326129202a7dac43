// Package questions derives a bounded, importance-ordered list of intake
// questions from requirement frequency statistics across the program corpus.
package questions

import (
	"strings"

	"github.com/fundscout/fundscout/internal/types"
)

// MapToQuestionID maps a (category, type) requirement pair onto a canonical
// question id. Pairs without a mapping produce no question; callers may
// surface frequent unmapped pairs as candidates for new mappings.
func MapToQuestionID(category types.Category, reqType string) (string, bool) {
	t := strings.ToLower(reqType)
	switch category {
	case types.CategoryGeographic:
		if strings.Contains(t, "location") || strings.Contains(t, "standort") {
			return "location", true
		}
	case types.CategoryTeam:
		if strings.Contains(t, "age") {
			return "company_age", true
		}
		if strings.Contains(t, "team") {
			return "team_size", true
		}
	case types.CategoryFinancial:
		if strings.Contains(t, "revenue") {
			return "revenue", true
		}
		if strings.Contains(t, "funding") {
			return "funding_amount", true
		}
		if strings.Contains(t, "co_financing") || strings.Contains(t, "cofinancing") {
			return "co_financing", true
		}
	case types.CategoryCoFinancing:
		return "co_financing", true
	case types.CategoryProject:
		if strings.Contains(t, "research") {
			return "research_focus", true
		}
		if strings.Contains(t, "innovation") {
			return "innovation_focus", true
		}
		if strings.Contains(t, "sustainability") {
			return "sustainability_focus", true
		}
		if strings.Contains(t, "industry") {
			return "industry_focus", true
		}
	case types.CategoryConsortium:
		if strings.Contains(t, "consortium") || strings.Contains(t, "partner") || t == "" {
			return "consortium", true
		}
	case types.CategoryTRLLevel:
		return "trl_level", true
	case types.CategoryTechnical:
		if strings.Contains(t, "trl") {
			return "trl_level", true
		}
		if strings.Contains(t, "technology") {
			return "technology_focus", true
		}
	case types.CategoryEligibility:
		if strings.Contains(t, "company_type") {
			return "company_type", true
		}
		if strings.Contains(t, "sector") {
			return "sector", true
		}
	case types.CategoryTimeline:
		if strings.Contains(t, "deadline") {
			return "deadline_urgency", true
		}
		if strings.Contains(t, "duration") {
			return "project_duration", true
		}
	case types.CategoryImpact:
		if strings.Contains(t, "impact") || strings.Contains(t, "nachhaltigkeit") || strings.Contains(t, "sustainability") {
			return "impact", true
		}
	case types.CategoryMarketSize:
		return "market_size", true
	case types.CategoryRevenueModel:
		return "revenue_model", true
	case types.CategoryUseOfFunds:
		return "use_of_funds", true
	case types.CategoryCapexOpex:
		return "investment_type", true
	case types.CategoryLegal:
		if strings.Contains(t, "legal") {
			return "legal_compliance", true
		}
	case types.CategoryDocuments:
		if strings.Contains(t, "document") {
			return "has_documents", true
		}
	}
	return "", false
}

// questionMeta carries the display metadata attached to each canonical
// question id.
type questionMeta struct {
	Label     string
	InputKind string
}

var questionMetadata = map[string]questionMeta{
	"location":             {"Where is your organisation registered?", "single-select"},
	"company_type":         {"What type of organisation are you?", "single-select"},
	"company_age":          {"How old is your organisation (years)?", "number"},
	"revenue":              {"What is your revenue situation?", "single-select"},
	"funding_amount":       {"How much funding do you need?", "number"},
	"use_of_funds":         {"What will you use the funding for?", "multi-select"},
	"impact":               {"Does your project have a sustainability or societal impact?", "boolean"},
	"co_financing":         {"Can you provide co-financing from own funds?", "boolean"},
	"research_focus":       {"Does your project involve research or development?", "boolean"},
	"consortium":           {"Are you applying together with partner organisations?", "boolean"},
	"market_size":          {"What market are you targeting?", "single-select"},
	"team_size":            {"How many people work in your organisation?", "number"},
	"innovation_focus":     {"Is your project innovative beyond the state of the art?", "boolean"},
	"sustainability_focus": {"Is sustainability a core goal of the project?", "boolean"},
	"industry_focus":       {"Which industries does your project address?", "multi-select"},
	"trl_level":            {"Which technology readiness level has your project reached?", "single-select"},
	"technology_focus":     {"Which technologies does your project build on?", "multi-select"},
	"sector":               {"Which sector do you operate in?", "multi-select"},
	"deadline_urgency":     {"How soon do you need the funding?", "single-select"},
	"project_duration":     {"How long will the project run (months)?", "number"},
	"revenue_model":        {"How does your organisation earn revenue?", "single-select"},
	"investment_type":      {"Is the funding for investments or operating costs?", "single-select"},
	"legal_compliance":     {"Does your organisation meet the program's legal requirements?", "boolean"},
	"has_documents":        {"Do you have a business plan and supporting documents ready?", "boolean"},
}

// importanceOrder is the fixed semantic presentation order. Ids absent from
// this list sort after all listed ones, ties broken by selection order.
var importanceOrder = []string{
	"location",
	"company_type",
	"company_age",
	"revenue",
	"funding_amount",
	"use_of_funds",
	"impact",
	"co_financing",
	"research_focus",
	"consortium",
	"market_size",
	"team_size",
}

var importanceRank = func() map[string]int {
	m := make(map[string]int, len(importanceOrder))
	for i, id := range importanceOrder {
		m[id] = i
	}
	return m
}()

// rankOf returns the importance rank for an id; unknown ids rank last.
func rankOf(id string) int {
	if r, ok := importanceRank[id]; ok {
		return r
	}
	return len(importanceOrder)
}
