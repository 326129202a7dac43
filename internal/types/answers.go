package types

import "github.com/go-playground/validator/v10"

// RevenueStatus describes where the organisation is on its revenue journey.
type RevenueStatus string

const (
	RevenuePre         RevenueStatus = "pre_revenue"
	RevenueEarly       RevenueStatus = "early_revenue"
	RevenueEstablished RevenueStatus = "established"
)

// UserAnswers holds the intake answers a user gave, consumed by the matching
// engine. Validated at the request boundary.
type UserAnswers struct {
	Location          string        `json:"location" validate:"required"`
	OrganisationStage string        `json:"organisation_stage,omitempty"`
	RevenueStatus     RevenueStatus `json:"revenue_status,omitempty" validate:"omitempty,oneof=pre_revenue early_revenue established"`
	FundingAmount     float64       `json:"funding_amount" validate:"gte=0"`
	CanCoFinance      bool          `json:"can_co_finance"`
	IndustryFocus     []string      `json:"industry_focus,omitempty"`
	TeamSize          int           `json:"team_size,omitempty" validate:"gte=0"`
	UseOfFunds        []string      `json:"use_of_funds,omitempty"`
}

// Validate validates the UserAnswers using the validator.
func (a *UserAnswers) Validate() error {
	validate := validator.New()
	return validate.Struct(a)
}

// QuestionCandidate is one derived intake question. Candidates are recomputed
// whenever the corpus changes materially; they are not persisted long-term.
type QuestionCandidate struct {
	ID             string   `json:"id"`
	Category       Category `json:"category"`
	Type           string   `json:"type"`
	Frequency      int      `json:"frequency"`
	ImportanceRank int      `json:"importance_rank"`
	Label          string   `json:"label,omitempty"`
	InputKind      string   `json:"input_kind,omitempty"`
}
