// Package match filters and scores funding programs against user intake
// answers. Hard filters prune ineligible programs; survivors are ranked by a
// weighted score, ties broken by scrape recency.
package match

import (
	"errors"
	"sort"
	"strings"

	"github.com/fundscout/fundscout/internal/types"
)

// Hard filter names, used in exclusion diagnostics.
const (
	FilterGeographic   = "geographic"
	FilterAmount       = "funding_amount"
	FilterCoFinancing  = "co_financing"
	FilterRevenueStage = "revenue_stage"
)

// ErrInsufficientData signals an empty corpus. Callers present zero matches
// rather than failing.
var ErrInsufficientData = errors.New("no programs in corpus to match against")

// Match is one eligible program with its ranking score.
type Match struct {
	Program         types.ProgramRecord `json:"program"`
	Score           float64             `json:"score"`
	MatchedCriteria int                 `json:"matched_criteria"`
}

// Result is the outcome of one matching request. When Matches is empty,
// MostExcludingFilter names the hard filter that pruned the most candidates.
type Result struct {
	Matches             []Match        `json:"matches"`
	Considered          int            `json:"considered"`
	ExcludedByFilter    map[string]int `json:"excluded_by_filter"`
	MostExcludingFilter string         `json:"most_excluding_filter,omitempty"`
}

// euWideMarkers identify programs open beyond a single location.
var euWideMarkers = []string{
	"eu-weit", "eu-wide", "europe", "europa", "european union",
	"bundesweit", "nationwide", "österreichweit", "all regions",
}

// Grant-like instrument sets for the co-financing and revenue-stage rules.
var (
	noCoFinanceTypes = map[string]bool{"grant": true, "subsidy": true, "support": true}
	preRevenueTypes  = map[string]bool{"grant": true, "angel": true, "crowdfunding": true, "micro-credit": true, "subsidy": true}
)

// Run matches the corpus against the user's answers.
func Run(answers *types.UserAnswers, programs []types.ProgramRecord) (*Result, error) {
	if len(programs) == 0 {
		return nil, ErrInsufficientData
	}
	if err := answers.Validate(); err != nil {
		return nil, err
	}

	result := &Result{
		Considered:       len(programs),
		ExcludedByFilter: map[string]int{},
	}

	for _, p := range programs {
		if excludedBy := hardFilter(answers, &p); excludedBy != "" {
			result.ExcludedByFilter[excludedBy]++
			continue
		}
		s, matched := score(answers, &p)
		result.Matches = append(result.Matches, Match{Program: p, Score: s, MatchedCriteria: matched})
	}

	sort.SliceStable(result.Matches, func(i, j int) bool {
		if result.Matches[i].Score != result.Matches[j].Score {
			return result.Matches[i].Score > result.Matches[j].Score
		}
		if !result.Matches[i].Program.ScrapedAt.Equal(result.Matches[j].Program.ScrapedAt) {
			return result.Matches[i].Program.ScrapedAt.After(result.Matches[j].Program.ScrapedAt)
		}
		return result.Matches[i].Program.URL < result.Matches[j].Program.URL
	})

	if len(result.Matches) == 0 {
		result.MostExcludingFilter = mostExcluding(result.ExcludedByFilter)
	}
	return result, nil
}

// hardFilter returns the name of the first filter that excludes the program,
// or "" when the program stays eligible. Filters are evaluated in a fixed
// order so exclusion counts are stable.
func hardFilter(answers *types.UserAnswers, p *types.ProgramRecord) string {
	if !geographicOK(answers, p) {
		return FilterGeographic
	}
	if !amountOK(answers.FundingAmount, p) {
		return FilterAmount
	}
	if !coFinancingOK(answers, p) {
		return FilterCoFinancing
	}
	if !revenueStageOK(answers, p) {
		return FilterRevenueStage
	}
	return ""
}

// geographicOK passes programs without location requirements, programs
// marked EU- or nation-wide, and programs naming the user's location.
func geographicOK(answers *types.UserAnswers, p *types.ProgramRecord) bool {
	items := p.Requirements[types.CategoryGeographic]
	if len(items) == 0 {
		return true
	}
	location := strings.ToLower(strings.TrimSpace(answers.Location))
	for _, item := range items {
		value := strings.ToLower(item.Value)
		if location != "" && strings.Contains(value, location) {
			return true
		}
		for _, marker := range euWideMarkers {
			if strings.Contains(value, marker) {
				return true
			}
		}
	}
	return false
}

// amountOK accepts programs whose range overlaps the tolerance band
// [amount/3, amount*3]. Programs without a stated range stay eligible, as do
// requests without an amount.
func amountOK(amount float64, p *types.ProgramRecord) bool {
	if amount <= 0 {
		return true
	}
	if p.FundingAmountMin <= 0 && p.FundingAmountMax <= 0 {
		return true
	}

	lo, hi := amount/3, amount*3
	pmin, pmax := p.FundingAmountMin, p.FundingAmountMax
	if pmax <= 0 {
		pmax = pmin
	}
	return pmin <= hi && pmax >= lo
}

// coFinancingOK applies when the user cannot provide matching funds: programs
// requiring co-financing are excluded, and only grant/subsidy-type
// instruments remain eligible.
func coFinancingOK(answers *types.UserAnswers, p *types.ProgramRecord) bool {
	if answers.CanCoFinance {
		return true
	}
	if p.HasRequiredCoFinancing() {
		return false
	}
	if len(p.FundingTypes) == 0 {
		return true
	}
	for _, t := range p.FundingTypes {
		if noCoFinanceTypes[strings.ToLower(t)] {
			return true
		}
	}
	return false
}

// revenueStageOK restricts pre-revenue organisations to grant-like
// instruments. Organisations with revenue are eligible for all types.
func revenueStageOK(answers *types.UserAnswers, p *types.ProgramRecord) bool {
	if answers.RevenueStatus != types.RevenuePre {
		return true
	}
	if len(p.FundingTypes) == 0 {
		return true
	}
	for _, t := range p.FundingTypes {
		if preRevenueTypes[strings.ToLower(t)] {
			return true
		}
	}
	return false
}

// score ranks an eligible program: explicit criteria matches dominate,
// requirement coverage and extraction confidence refine the order.
func score(answers *types.UserAnswers, p *types.ProgramRecord) (float64, int) {
	matched := 0

	if len(p.Requirements[types.CategoryGeographic]) > 0 {
		matched++ // survived the filter on an explicit location statement
	}
	if answers.FundingAmount > 0 && (p.FundingAmountMin > 0 || p.FundingAmountMax > 0) {
		matched++
	}
	if overlap(answers.IndustryFocus, requirementValues(p, types.CategoryProject)) {
		matched++
	}
	if overlap(answers.UseOfFunds, requirementValues(p, types.CategoryUseOfFunds)) {
		matched++
	}
	if answers.RevenueStatus == types.RevenuePre && hasAnyType(p, preRevenueTypes) {
		matched++
	}

	coverage := float64(p.RequirementCount()) / 10
	if coverage > 1 {
		coverage = 1
	}

	return float64(matched) + 0.5*coverage + 0.25*p.ConfidenceScore, matched
}

func requirementValues(p *types.ProgramRecord, category types.Category) []string {
	var values []string
	for _, item := range p.Requirements[category] {
		values = append(values, item.Value)
	}
	return values
}

// overlap reports whether any answer term appears in any requirement value,
// case-insensitively.
func overlap(answerTerms, values []string) bool {
	for _, term := range answerTerms {
		t := strings.ToLower(strings.TrimSpace(term))
		if t == "" {
			continue
		}
		for _, v := range values {
			if strings.Contains(strings.ToLower(v), t) {
				return true
			}
		}
	}
	return false
}

func hasAnyType(p *types.ProgramRecord, set map[string]bool) bool {
	for _, t := range p.FundingTypes {
		if set[strings.ToLower(t)] {
			return true
		}
	}
	return false
}

func mostExcluding(counts map[string]int) string {
	best, bestCount := "", -1
	// Fixed evaluation order keeps the diagnostic stable on ties
	for _, f := range []string{FilterGeographic, FilterAmount, FilterCoFinancing, FilterRevenueStage} {
		if counts[f] > bestCount {
			best, bestCount = f, counts[f]
		}
	}
	if bestCount <= 0 {
		return ""
	}
	return best
}
