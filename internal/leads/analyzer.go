package leads

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/leadvett/backend/internal/generator"
	"github.com/leadvett/backend/internal/models"
	"github.com/leadvett/backend/internal/scoring"
)

// Narrator writes the explanatory part of a verdict. Implementations must not fail;
// *generator.Narrator degrades to its fallback instead.
type Narrator interface {
	Narrate(ctx context.Context, in generator.NarrativeInput) generator.NarrativeResult
}

type AnalyzeInput struct {
	Questions []models.Question
	Answers   models.AnswerSet
	// Fixed selects scoring by fixed-schema question ID instead of label keywords.
	Fixed             bool
	RejectOnHardFloor bool
}

// InputForForm builds the analyzer input for a stored lead.
func InputForForm(form *models.Form, answers models.AnswerSet) AnalyzeInput {
	return AnalyzeInput{
		Questions:         form.ScoringQuestions(),
		Answers:           answers,
		Fixed:             form.Schema == models.SchemaFixed,
		RejectOnHardFloor: form.RejectOnHardFloor,
	}
}

type Analyzer struct {
	narrator Narrator
	now      func() time.Time
}

func NewAnalyzer(narrator Narrator) *Analyzer {
	return &Analyzer{narrator: narrator, now: time.Now}
}

// Analyze runs the full qualification pipeline for one lead. The deterministic
// fields are computed before the narrative and are never altered by it.
func (a *Analyzer) Analyze(ctx context.Context, in AnalyzeInput) (*models.Verdict, error) {
	var eval scoring.EvaluationResult
	if in.Fixed {
		eval = scoring.EvaluateFixed(in.Answers)
	} else {
		eval = scoring.Evaluate(in.Questions, in.Answers)
	}

	badge := scoring.AssignBadge(eval.BaseScore, eval.BadgeCeiling)
	if in.RejectOnHardFloor && eval.HardDisqualified() {
		badge = models.BadgeRejected
	}
	if !models.ValidBadges[badge] {
		log.Printf("ERROR: badge assigner produced invalid badge %q for score %d", badge, eval.BaseScore)
		return nil, fmt.Errorf("analyze lead: invalid badge %q", badge)
	}

	confidence := scoring.EstimateConfidence(eval.BaseScore, eval.Rules)
	action := scoring.RecommendAction(badge)

	narrative := a.narrator.Narrate(ctx, generator.NarrativeInput{
		Badge:      badge,
		Action:     action,
		Evaluation: eval,
		Confidence: confidence,
		Questions:  in.Questions,
		Answers:    in.Answers,
	})

	log.Printf("Lead analyzed: badge=%s score=%d confidence=%d%% rules=%d narrative=%s",
		badge, eval.BaseScore, confidence.Score, len(eval.Rules), narrative.Source)

	return &models.Verdict{
		Badge:                      badge,
		BaseScore:                  eval.BaseScore,
		BadgeCeiling:               eval.BadgeCeiling,
		ConfidenceScore:            confidence.Score,
		ConfidenceBand:             confidence.Band,
		Action:                     action,
		Strengths:                  narrative.Strengths,
		Risks:                      narrative.Risks,
		OutreachScript:             narrative.OutreachScript,
		Summary:                    narrative.Summary,
		Rules:                      eval.Rules,
		HardDisqualificationReason: eval.HardDisqualificationReason,
		NarrativeSource:            narrative.Source,
		FallbackReason:             narrative.FallbackReason,
		AnalyzedAt:                 a.now().UTC(),
	}, nil
}
