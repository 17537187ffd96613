package scoring

import (
	"strings"
	"unicode/utf8"

	"github.com/leadvett/backend/internal/models"
)

// Rule is one row of the scoring table. Match receives the lower-cased answer
// text of the rule's category.
type Rule struct {
	Name      string
	Category  Category
	Weight    int
	Rationale string
	Match     func(answer string) bool
	// Ceiling is applied when the rule fires; it can only tighten the current cap.
	Ceiling models.BadgeCeiling
}

// Outcome returns the audit record for a fired rule.
func (r Rule) Outcome() models.RuleOutcome {
	return models.RuleOutcome{
		Name:      r.Name,
		Polarity:  polarityOf(r.Weight),
		Weight:    r.Weight,
		Rationale: r.Rationale,
	}
}

func polarityOf(weight int) models.Polarity {
	switch {
	case weight > 0:
		return models.PolarityPositive
	case weight < 0:
		return models.PolarityNegative
	default:
		return models.PolarityNeutral
	}
}

func containsAny(subs ...string) func(string) bool {
	return func(s string) bool {
		for _, sub := range subs {
			if strings.Contains(s, sub) {
				return true
			}
		}
		return false
	}
}

var HardFloorRule = Rule{
	Name:      "Hard Rule: Budget Floor",
	Category:  CategoryBudget,
	Weight:    -30,
	Rationale: "Budget below minimum threshold",
	Match:     containsAny("<", "less than", "under", "1,000", "1k", "$1,000", "500", "$500"),
	Ceiling:   models.CeilingBronze,
}

// RuleGroup is a set of mutually exclusive rules: the first match wins.
type RuleGroup struct {
	Category Category
	Rules    []Rule
}

var BudgetRules = RuleGroup{Category: CategoryBudget, Rules: []Rule{
	{
		Name:      "Budget Strength: High-Tier",
		Category:  CategoryBudget,
		Weight:    20,
		Rationale: "Strong budget commitment indicated",
		Match:     containsAny("5,000", "5k", "$5", "10,000", "10k", "$10"),
	},
	{
		Name:      "Budget Strength: Mid-Tier",
		Category:  CategoryBudget,
		Weight:    10,
		Rationale: "Workable budget mentioned",
		Match:     containsAny("3,000", "3k", "$3"),
	},
}}

var TimelineRules = RuleGroup{Category: CategoryTimeline, Rules: []Rule{
	{
		Name:      "Timeline: Immediate Need",
		Category:  CategoryTimeline,
		Weight:    15,
		Rationale: "High urgency indicated",
		Match:     containsAny("asap", "immediately", "urgent", "now", "this week"),
	},
	{
		Name:      "Timeline: Near-term",
		Category:  CategoryTimeline,
		Weight:    10,
		Rationale: "Clear short-term timeline",
		Match:     containsAny("this month", "soon", "1-2 weeks", "30 days"),
	},
	{
		Name:      "Timeline: Vague/Distant",
		Category:  CategoryTimeline,
		Weight:    -10,
		Rationale: "No clear urgency",
		Match:     containsAny("exploring", "not sure", "eventually", "someday"),
	},
}}

var AuthorityRules = RuleGroup{Category: CategoryAuthority, Rules: []Rule{
	{
		Name:      "Authority Friction: Multi-Stakeholder",
		Category:  CategoryAuthority,
		Weight:    -15,
		Rationale: "Multiple decision makers involved",
		Match:     containsAny("team", "committee", "partner", "board", "need to check", "manager"),
		Ceiling:   models.CeilingSilver,
	},
	{
		Name:      "Authority: Clear Decision Maker",
		Category:  CategoryAuthority,
		Weight:    15,
		Rationale: "Direct authority confirmed",
		Match:     containsAny("i do", "i decide", "founder", "ceo", "owner", "me"),
	},
}}

var TriggerRules = RuleGroup{Category: CategoryTrigger, Rules: []Rule{
	{
		Name:      "Trigger: Specific Pain",
		Category:  CategoryTrigger,
		Weight:    10,
		Rationale: "Concrete, reasoned trigger for seeking help",
		Match: func(s string) bool {
			return utf8.RuneCountInString(s) > 50 && strings.Contains(s, "because")
		},
	},
	{
		Name:      "Trigger: Vague",
		Category:  CategoryTrigger,
		Weight:    -5,
		Rationale: "Trigger too brief to show real pain",
		Match: func(s string) bool {
			return utf8.RuneCountInString(s) < 20
		},
	},
}}

var HistoryRules = RuleGroup{Category: CategoryHistory, Rules: []Rule{
	{
		Name:      "Prior Attempts: None",
		Category:  CategoryHistory,
		Weight:    -5,
		Rationale: "No prior attempts to solve the problem",
		Match:     containsAny("nothing", "no", "haven't tried"),
	},
	{
		Name:      "Prior Attempts: Vendor Experience",
		Category:  CategoryHistory,
		Weight:    5,
		Rationale: "Has worked with outside help before",
		Match:     containsAny("agency", "freelancer", "in-house", "consultant"),
	},
}}

var RichnessRule = Rule{
	Name:      "Response Quality: Detailed",
	Weight:    5,
	Rationale: "Comprehensive answers provided",
	Match: func(s string) bool {
		return utf8.RuneCountInString(s) > 200
	},
}

// ScoringGroups lists the first-match-wins groups in evaluation order. The hard
// floor is checked separately, before BudgetRules.
var ScoringGroups = []RuleGroup{BudgetRules, TimelineRules, AuthorityRules, TriggerRules, HistoryRules}

// Tighten combines two ceilings, keeping the stricter one.
func Tighten(current, next models.BadgeCeiling) models.BadgeCeiling {
	if current == models.CeilingBronze || next == models.CeilingBronze {
		return models.CeilingBronze
	}
	if current == models.CeilingSilver || next == models.CeilingSilver {
		return models.CeilingSilver
	}
	return models.CeilingNone
}
