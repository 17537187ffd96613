package scoring

import (
	"strings"

	"github.com/leadvett/backend/internal/models"
)

type Category string

const (
	CategoryBudget    Category = "budget"
	CategoryTimeline  Category = "timeline"
	CategoryAuthority Category = "authority"
	CategoryTrigger   Category = "trigger"
	CategoryHistory   Category = "history"
)

// categoryKeywords are matched case-insensitively against question labels.
var categoryKeywords = map[Category][]string{
	CategoryBudget:    {"budget", "price", "invest"},
	CategoryTimeline:  {"timeline", "when", "urgency"},
	CategoryAuthority: {"decide", "authority", "who makes"},
	CategoryTrigger:   {"trigger", "why now", "what made", "prompted"},
	CategoryHistory:   {"tried", "previous", "before", "in the past"},
}

// Signal is the respondent's answer to the question that represents one category.
// Present is false when no question matched or the answer was missing.
type Signal struct {
	QuestionID string `json:"question_id,omitempty"`
	Text       string `json:"text,omitempty"`
	Present    bool   `json:"present"`
}

// Lower returns the answer lower-cased for substring rules.
func (s Signal) Lower() string {
	return strings.ToLower(s.Text)
}

// Signals holds everything the rule table reads from one submission.
type Signals struct {
	Budget    Signal `json:"budget"`
	Timeline  Signal `json:"timeline"`
	Authority Signal `json:"authority"`
	Trigger   Signal `json:"trigger"`
	History   Signal `json:"history"`

	// Fixed is set for the fixed five-question schema; only then does the
	// response richness rule apply.
	Fixed    bool   `json:"fixed"`
	Combined string `json:"-"`
}

func (s Signals) get(c Category) Signal {
	switch c {
	case CategoryBudget:
		return s.Budget
	case CategoryTimeline:
		return s.Timeline
	case CategoryAuthority:
		return s.Authority
	case CategoryTrigger:
		return s.Trigger
	case CategoryHistory:
		return s.History
	}
	return Signal{}
}

// ExtractSignals finds, for each category, the first question by Order (ties by
// declared position) whose label contains one of the category keywords and reads
// its answer. A question may serve more than
// one category.
func ExtractSignals(questions []models.Question, answers models.AnswerSet) Signals {
	ordered := models.SortedByOrder(questions)

	return Signals{
		Budget:    matchCategory(ordered, answers, CategoryBudget),
		Timeline:  matchCategory(ordered, answers, CategoryTimeline),
		Authority: matchCategory(ordered, answers, CategoryAuthority),
		Trigger:   matchCategory(ordered, answers, CategoryTrigger),
		History:   matchCategory(ordered, answers, CategoryHistory),
	}
}

func matchCategory(questions []models.Question, answers models.AnswerSet, c Category) Signal {
	for _, q := range questions {
		label := strings.ToLower(q.Label)
		for _, kw := range categoryKeywords[c] {
			if strings.Contains(label, kw) {
				return signalFor(q.ID, answers)
			}
		}
	}
	return Signal{}
}

func signalFor(id string, answers models.AnswerSet) Signal {
	text, ok := answers[id]
	return Signal{QuestionID: id, Text: text, Present: ok}
}

// ExtractFixedSignals reads the fixed five-question schema by question ID.
func ExtractFixedSignals(answers models.AnswerSet) Signals {
	parts := make([]string, 0, len(models.FixedQuestions))
	for _, q := range models.FixedQuestions {
		if a, ok := answers[q.ID]; ok {
			parts = append(parts, a)
		}
	}

	return Signals{
		Budget:    signalFor(models.FixedBudget, answers),
		Timeline:  signalFor(models.FixedTimeline, answers),
		Authority: signalFor(models.FixedDecisionMaker, answers),
		Trigger:   signalFor(models.FixedTrigger, answers),
		History:   signalFor(models.FixedTried, answers),
		Fixed:     true,
		Combined:  strings.Join(parts, " "),
	}
}
