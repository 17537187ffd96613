package models

import (
	"time"

	"github.com/google/uuid"
)

type Badge string

const (
	BadgeGold     Badge = "Gold"
	BadgeSilver   Badge = "Silver"
	BadgeBronze   Badge = "Bronze"
	BadgeRejected Badge = "Rejected"
)

var ValidBadges = map[Badge]bool{
	BadgeGold:     true,
	BadgeSilver:   true,
	BadgeBronze:   true,
	BadgeRejected: true,
}

// BadgeCeiling is an upper bound on the assignable badge. The zero value means no cap.
type BadgeCeiling string

const (
	CeilingNone   BadgeCeiling = ""
	CeilingSilver BadgeCeiling = "Silver"
	CeilingBronze BadgeCeiling = "Bronze"
)

type Polarity string

const (
	PolarityPositive Polarity = "positive"
	PolarityNegative Polarity = "negative"
	PolarityNeutral  Polarity = "neutral"
)

// RuleOutcome is one fired scoring rule's contribution to a lead's score.
type RuleOutcome struct {
	Name      string   `json:"rule"`
	Polarity  Polarity `json:"impact"`
	Weight    int      `json:"weight"`
	Rationale string   `json:"explanation"`
}

type ConfidenceBand string

const (
	ConfidenceHigh   ConfidenceBand = "High"
	ConfidenceMedium ConfidenceBand = "Medium"
	ConfidenceLow    ConfidenceBand = "Low"
)

type NarrativeSource string

const (
	NarrativeGenerated NarrativeSource = "generated"
	NarrativeFallback  NarrativeSource = "fallback"
)

// Verdict is the write-once analysis of one lead submission. Badge, BaseScore,
// Rules and BadgeCeiling are deterministic; the narrative fields are not.
type Verdict struct {
	Badge                      Badge           `json:"badge"`
	BaseScore                  int             `json:"base_score"`
	BadgeCeiling               BadgeCeiling    `json:"badge_ceiling,omitempty"`
	ConfidenceScore            int             `json:"confidence_score"`
	ConfidenceBand             ConfidenceBand  `json:"confidence_level"`
	Action                     string          `json:"action"`
	Strengths                  []string        `json:"strengths"`
	Risks                      []string        `json:"risks"`
	OutreachScript             string          `json:"dm_script"`
	Summary                    string          `json:"summary"`
	Rules                      []RuleOutcome   `json:"rule_breakdown"`
	HardDisqualificationReason string          `json:"hard_rule_triggered,omitempty"`
	NarrativeSource            NarrativeSource `json:"narrative_source"`
	FallbackReason             string          `json:"fallback_reason,omitempty"`
	AnalyzedAt                 time.Time       `json:"analyzed_at"`
}

// NeedsManualReview reports whether the narrative came from the fallback path.
func (v *Verdict) NeedsManualReview() bool {
	return v.NarrativeSource == NarrativeFallback
}

type Lead struct {
	ID        uuid.UUID `json:"id"`
	FormID    uuid.UUID `json:"form_id"`
	LeadName  string    `json:"lead_name"`
	LeadEmail string    `json:"lead_email"`
	Answers   AnswerSet `json:"answers"`
	Verdict   *Verdict  `json:"verdict,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// LeadSummary is a dashboard row.
type LeadSummary struct {
	ID              uuid.UUID       `json:"id"`
	LeadName        string          `json:"lead_name"`
	LeadEmail       string          `json:"lead_email"`
	Badge           *Badge          `json:"badge"`
	ConfidenceScore *int            `json:"confidence_score"`
	ConfidenceBand  *ConfidenceBand `json:"confidence_level"`
	Action          *string         `json:"action"`
	CreatedAt       time.Time       `json:"created_at"`
}

type SubmitLeadRequest struct {
	LeadName  string    `json:"lead_name"`
	LeadEmail string    `json:"lead_email"`
	Answers   AnswerSet `json:"answers"`
}

type AnalyzeLeadRequest struct {
	Answers   AnswerSet  `json:"answers"`
	Questions []Question `json:"questions"`
}

type AnalyzeLeadResponse struct {
	Success  bool     `json:"success"`
	Analysis *Verdict `json:"analysis"`
}

// FixPendingResult reports one lead of a batch re-analysis.
type FixPendingResult struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Success    bool      `json:"success"`
	Badge      Badge     `json:"badge,omitempty"`
	Confidence int       `json:"confidence,omitempty"`
	Action     string    `json:"action,omitempty"`
	Error      string    `json:"error,omitempty"`
}

type FixPendingResponse struct {
	Success    bool               `json:"success"`
	Message    string             `json:"message"`
	Total      int                `json:"total"`
	Successful int                `json:"successful"`
	Failed     int                `json:"failed"`
	Results    []FixPendingResult `json:"results"`
}
