package scoring

import (
	"fmt"
	"strings"

	"github.com/leadvett/backend/internal/models"
)

// NeutralScore is the base score before any rule fires.
const NeutralScore = 50

// EvaluationResult is the deterministic output of the rule engine.
// BaseScore always equals NeutralScore plus the sum of rule weights.
type EvaluationResult struct {
	BaseScore                  int                  `json:"base_score"`
	Rules                      []models.RuleOutcome `json:"rules"`
	HardDisqualificationReason string               `json:"hard_disqualification_reason,omitempty"`
	BadgeCeiling               models.BadgeCeiling  `json:"badge_ceiling,omitempty"`
}

// HardDisqualified reports whether the budget floor fired.
func (r EvaluationResult) HardDisqualified() bool {
	return r.HardDisqualificationReason != ""
}

// Evaluate scores a customizable form, locating categories by question label.
func Evaluate(questions []models.Question, answers models.AnswerSet) EvaluationResult {
	return EvaluateSignals(ExtractSignals(questions, answers))
}

// EvaluateFixed scores the fixed five-question schema.
func EvaluateFixed(answers models.AnswerSet) EvaluationResult {
	return EvaluateSignals(ExtractFixedSignals(answers))
}

// EvaluateSignals applies the rule table. Every fired rule is recorded, even when
// the hard floor caps the badge.
func EvaluateSignals(s Signals) EvaluationResult {
	res := EvaluationResult{
		BaseScore: NeutralScore,
		Rules:     []models.RuleOutcome{},
	}

	apply := func(r Rule) {
		res.BaseScore += r.Weight
		res.Rules = append(res.Rules, r.Outcome())
		res.BadgeCeiling = Tighten(res.BadgeCeiling, r.Ceiling)
	}

	for _, group := range ScoringGroups {
		sig := s.get(group.Category)
		if !sig.Present {
			continue
		}
		answer := sig.Lower()

		switch group.Category {
		case CategoryBudget:
			if HardFloorRule.Match(answer) {
				apply(HardFloorRule)
				res.HardDisqualificationReason = fmt.Sprintf("Budget below threshold (%s)", sig.Text)
				continue
			}
		case CategoryTrigger:
			answer = strings.TrimSpace(answer)
			if answer == "" {
				continue
			}
		}

		for _, r := range group.Rules {
			if r.Match(answer) {
				apply(r)
				break
			}
		}
	}

	if s.Fixed && RichnessRule.Match(s.Combined) {
		apply(RichnessRule)
	}

	return res
}
