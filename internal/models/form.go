package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

type QuestionKind string

const (
	KindShortText    QuestionKind = "short_text"
	KindLongText     QuestionKind = "long_text"
	KindNumber       QuestionKind = "number"
	KindSingleChoice QuestionKind = "single_choice"
)

var ValidQuestionKinds = map[QuestionKind]bool{
	KindShortText:    true,
	KindLongText:     true,
	KindNumber:       true,
	KindSingleChoice: true,
}

// Question is one declared field of an intake form. Answers reference it by ID,
// so the ID must stay stable once a lead has answered.
type Question struct {
	ID       string       `json:"id" yaml:"id"`
	Label    string       `json:"question" yaml:"question"`
	Kind     QuestionKind `json:"type" yaml:"type"`
	Required bool         `json:"required" yaml:"required"`
	Choices  []string     `json:"options,omitempty" yaml:"options,omitempty"`
	Order    int          `json:"order" yaml:"order"`
}

// SortedByOrder returns a copy of questions sorted by Order. Questions with equal
// Order keep their declared position.
func SortedByOrder(questions []Question) []Question {
	ordered := make([]Question, len(questions))
	copy(ordered, questions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Order < ordered[j].Order
	})
	return ordered
}

// AnswerSet maps question ID to the respondent's raw answer. Numbers and choices
// are carried as their string form.
type AnswerSet map[string]string

type FormSchema string

const (
	// SchemaCustom forms declare their own questions; scoring finds the budget,
	// timeline and authority questions by label keywords.
	SchemaCustom FormSchema = "custom"
	// SchemaFixed forms use FixedQuestions and are scored by question ID.
	SchemaFixed FormSchema = "fixed"
)

// Fixed-schema question IDs.
const (
	FixedTrigger       = "trigger"
	FixedBudget        = "budget"
	FixedTimeline      = "timeline"
	FixedDecisionMaker = "decision_maker"
	FixedTried         = "tried"
)

// FixedQuestions is the non-customizable five-question intake form.
var FixedQuestions = []Question{
	{ID: FixedTrigger, Label: "What triggered you to look for help now?", Kind: KindLongText, Required: true, Order: 0},
	{ID: FixedBudget, Label: "What's your monthly budget?", Kind: KindSingleChoice, Required: true, Order: 1,
		Choices: []string{"<$1k", "$1k-$5k", "$5k-$10k", "$10k+"}},
	{ID: FixedTimeline, Label: "What's your timeline?", Kind: KindSingleChoice, Required: true, Order: 2,
		Choices: []string{"ASAP", "1-2 weeks", "1 month", "2-3 months", "3+ months"}},
	{ID: FixedDecisionMaker, Label: "Who decides?", Kind: KindShortText, Required: true, Order: 3},
	{ID: FixedTried, Label: "What have you tried?", Kind: KindLongText, Required: true, Order: 4},
}

type Form struct {
	ID                uuid.UUID  `json:"id"`
	UserID            int64      `json:"user_id"`
	Name              string     `json:"name"`
	Description       string     `json:"description,omitempty"`
	ShareLink         uuid.UUID  `json:"share_link"`
	Schema            FormSchema `json:"schema"`
	Questions         []Question `json:"questions"`
	RejectOnHardFloor bool       `json:"reject_on_hard_floor"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// ScoringQuestions returns the questions the rule engine reads for this form.
func (f *Form) ScoringQuestions() []Question {
	if f.Schema == SchemaFixed {
		return FixedQuestions
	}
	return f.Questions
}

type SaveFormRequest struct {
	Name              string     `json:"name"`
	Description       string     `json:"description"`
	Schema            FormSchema `json:"schema"`
	Questions         []Question `json:"questions"`
	RejectOnHardFloor bool       `json:"reject_on_hard_floor"`
}

// PublicForm is what a prospect sees on the intake page.
type PublicForm struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	ShareLink   uuid.UUID  `json:"share_link"`
	Questions   []Question `json:"questions"`
}

func (f *Form) Public() PublicForm {
	return PublicForm{
		Name:        f.Name,
		Description: f.Description,
		ShareLink:   f.ShareLink,
		Questions:   f.ScoringQuestions(),
	}
}
