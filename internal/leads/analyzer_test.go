package leads

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leadvett/backend/internal/generator"
	"github.com/leadvett/backend/internal/models"
)

var testQuestions = []models.Question{
	{ID: "q1", Label: "What's your monthly budget?", Kind: models.KindShortText, Required: true, Order: 0},
	{ID: "q2", Label: "What's your timeline?", Kind: models.KindSingleChoice, Choices: []string{"ASAP", "Not sure"}, Order: 1},
	{ID: "q3", Label: "Who decides on this purchase?", Kind: models.KindShortText, Order: 2},
}

// stubNarrator returns a generated narrative, or the fallback when fail is set.
type stubNarrator struct {
	fail  bool
	calls atomic.Int32

	mu   sync.Mutex
	last generator.NarrativeInput
}

func (s *stubNarrator) Narrate(ctx context.Context, in generator.NarrativeInput) generator.NarrativeResult {
	s.calls.Add(1)
	s.mu.Lock()
	s.last = in
	s.mu.Unlock()
	if s.fail {
		return generator.Fallback(in.Badge, "generate: service unavailable")
	}
	return generator.NarrativeResult{
		Source:         models.NarrativeGenerated,
		Strengths:      []string{"Clear budget", "Urgent timeline", "Owner is deciding"},
		Risks:          []string{"Scope unknown", "No prior vendor"},
		OutreachScript: "Hi, saw your note about launching fast.",
		Summary:        "Strong fit.",
	}
}

func TestAnalyze_StrongLead(t *testing.T) {
	narrator := &stubNarrator{}
	a := NewAnalyzer(narrator)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return fixed }

	v, err := a.Analyze(context.Background(), AnalyzeInput{
		Questions: testQuestions,
		Answers:   models.AnswerSet{"q1": "$10,000/month", "q2": "ASAP", "q3": "I'm the CEO, I decide"},
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if v.Badge != models.BadgeGold {
		t.Errorf("Badge = %s, want Gold", v.Badge)
	}
	if v.BaseScore != 100 {
		t.Errorf("BaseScore = %d, want 100", v.BaseScore)
	}
	if v.ConfidenceScore != 100 || v.ConfidenceBand != models.ConfidenceHigh {
		t.Errorf("confidence = %d %s, want 100 High", v.ConfidenceScore, v.ConfidenceBand)
	}
	if v.Action != "Book 30-min Strategy Call within 2 hours" {
		t.Errorf("Action = %q", v.Action)
	}
	if len(v.Rules) != 3 {
		t.Errorf("len(Rules) = %d, want 3", len(v.Rules))
	}
	if v.NarrativeSource != models.NarrativeGenerated || v.NeedsManualReview() {
		t.Errorf("NarrativeSource = %q, want generated", v.NarrativeSource)
	}
	if v.Summary != "Strong fit." || len(v.Strengths) != 3 || len(v.Risks) != 2 {
		t.Errorf("narrative not copied into verdict: %+v", v)
	}
	if !v.AnalyzedAt.Equal(fixed) {
		t.Errorf("AnalyzedAt = %v, want %v", v.AnalyzedAt, fixed)
	}

	if narrator.last.Badge != models.BadgeGold || narrator.last.Evaluation.BaseScore != 100 {
		t.Errorf("narrator got badge=%s score=%d", narrator.last.Badge, narrator.last.Evaluation.BaseScore)
	}
}

func TestAnalyze_FallbackKeepsDeterministicFields(t *testing.T) {
	answers := models.AnswerSet{"q1": "$10,000/month", "q2": "ASAP", "q3": "I'm the CEO, I decide"}

	generated, err := NewAnalyzer(&stubNarrator{}).Analyze(context.Background(), AnalyzeInput{Questions: testQuestions, Answers: answers})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	fallback, err := NewAnalyzer(&stubNarrator{fail: true}).Analyze(context.Background(), AnalyzeInput{Questions: testQuestions, Answers: answers})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if fallback.Badge != generated.Badge || fallback.BaseScore != generated.BaseScore ||
		fallback.ConfidenceScore != generated.ConfidenceScore || fallback.Action != generated.Action {
		t.Errorf("fallback changed deterministic fields: %+v vs %+v", fallback, generated)
	}
	if !fallback.NeedsManualReview() {
		t.Error("expected fallback verdict to need manual review")
	}
	if fallback.FallbackReason == "" {
		t.Error("expected a fallback reason")
	}
	if fallback.Summary != "Gold lead based on rule engine evaluation" {
		t.Errorf("Summary = %q", fallback.Summary)
	}
	if len(fallback.Strengths) != 1 || fallback.Strengths[0] != generator.FallbackStrength {
		t.Errorf("Strengths = %v", fallback.Strengths)
	}
}

func TestAnalyze_UnconfiguredNarratorFallsBack(t *testing.T) {
	a := NewAnalyzer(generator.NewNarrator(nil, 0))
	v, err := a.Analyze(context.Background(), AnalyzeInput{Questions: testQuestions, Answers: models.AnswerSet{}})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if v.NarrativeSource != models.NarrativeFallback {
		t.Errorf("NarrativeSource = %q, want fallback", v.NarrativeSource)
	}
	if v.Badge != models.BadgeSilver || v.BaseScore != 50 {
		t.Errorf("verdict = %s/%d, want Silver/50", v.Badge, v.BaseScore)
	}
}

func TestAnalyze_HardFloor(t *testing.T) {
	answers := models.AnswerSet{"q1": "$500", "q2": "ASAP"}

	tests := []struct {
		name       string
		reject     bool
		wantBadge  models.Badge
		wantAction string
	}{
		{"bronze by default", false, models.BadgeBronze, "Add to 90-day Nurture Sequence"},
		{"rejected when opted in", true, models.BadgeRejected, "Disqualified - Archive"},
	}
	for _, tt := range tests {
		v, err := NewAnalyzer(&stubNarrator{}).Analyze(context.Background(), AnalyzeInput{
			Questions:         testQuestions,
			Answers:           answers,
			RejectOnHardFloor: tt.reject,
		})
		if err != nil {
			t.Fatalf("%s: Analyze: %v", tt.name, err)
		}
		if v.Badge != tt.wantBadge {
			t.Errorf("%s: Badge = %s, want %s", tt.name, v.Badge, tt.wantBadge)
		}
		if v.Action != tt.wantAction {
			t.Errorf("%s: Action = %q, want %q", tt.name, v.Action, tt.wantAction)
		}
		if v.BaseScore != 35 {
			t.Errorf("%s: BaseScore = %d, want 35", tt.name, v.BaseScore)
		}
		if v.HardDisqualificationReason != "Budget below threshold ($500)" {
			t.Errorf("%s: HardDisqualificationReason = %q", tt.name, v.HardDisqualificationReason)
		}
		if v.BadgeCeiling != models.CeilingBronze {
			t.Errorf("%s: BadgeCeiling = %q, want Bronze", tt.name, v.BadgeCeiling)
		}
	}
}

func TestAnalyze_FixedSchemaForm(t *testing.T) {
	form := &models.Form{Schema: models.SchemaFixed}
	answers := models.AnswerSet{
		models.FixedTrigger:       "Our launch is in six weeks because investors moved the date up",
		models.FixedBudget:        "$5k-$10k",
		models.FixedTimeline:      "ASAP",
		models.FixedDecisionMaker: "Me",
		models.FixedTried:         "We hired a freelancer but they ghosted us",
	}

	in := InputForForm(form, answers)
	if !in.Fixed || len(in.Questions) != len(models.FixedQuestions) {
		t.Fatalf("InputForForm = %+v, want fixed schema with %d questions", in, len(models.FixedQuestions))
	}

	v, err := NewAnalyzer(&stubNarrator{}).Analyze(context.Background(), in)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if v.BaseScore != 115 || v.Badge != models.BadgeGold {
		t.Errorf("verdict = %s/%d, want Gold/115", v.Badge, v.BaseScore)
	}
}
