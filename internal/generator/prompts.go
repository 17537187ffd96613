package generator

import (
	"fmt"
	"strings"

	"github.com/leadvett/backend/internal/models"
	"github.com/leadvett/backend/internal/scoring"
)

// NarrativeInput is everything the narrative prompt is grounded on. The
// deterministic fields are stated to the model as facts it must not contradict.
type NarrativeInput struct {
	Badge      models.Badge
	Action     string
	Evaluation scoring.EvaluationResult
	Confidence scoring.Confidence
	Questions  []models.Question
	Answers    models.AnswerSet
}

func NarrativeSystemPrompt() string {
	return `You are LeadVett AI - a senior consultant who qualifies inbound leads for agencies.
You are senior, clinical and decisive. You extract key signals from any form structure.

The qualification verdict has already been computed by a deterministic rule engine.
You MUST NOT change, question or contradict the badge, score, confidence or hard rule you are given.
Your job is only to explain the verdict and write the outreach message.

Always respond with a single JSON object and nothing else.`
}

// BuildNarrativePrompt renders the user prompt for one lead.
func BuildNarrativePrompt(in NarrativeInput) string {
	var facts strings.Builder
	fmt.Fprintf(&facts, "- Badge: %s\n", in.Badge)
	fmt.Fprintf(&facts, "- Score: %d/100\n", in.Evaluation.BaseScore)
	fmt.Fprintf(&facts, "- Confidence: %d%% (%s)\n", in.Confidence.Score, in.Confidence.Band)
	fmt.Fprintf(&facts, "- Recommended action: %s\n", in.Action)
	if in.Evaluation.HardDisqualified() {
		fmt.Fprintf(&facts, "- Hard Rule: %s\n", in.Evaluation.HardDisqualificationReason)
	}

	var rules strings.Builder
	if len(in.Evaluation.Rules) == 0 {
		rules.WriteString("- No scoring rules fired\n")
	}
	for _, r := range in.Evaluation.Rules {
		fmt.Fprintf(&rules, "- %s (%+d): %s\n", r.Name, r.Weight, r.Rationale)
	}

	return fmt.Sprintf(`RULE ENGINE RESULTS:
%s
RULES APPLIED:
%s
FORM QUESTIONS & ANSWERS:
%s

Analyze this lead and respond with this exact JSON structure:
{
  "strengths": ["3-5 bullet points of positive signals"],
  "risks": ["2-4 bullet points of concerns or red flags"],
  "dmScript": "One paragraph in a professional, senior consultant tone that references specific details from their answers. Frame it as if you have already qualified them and are moving to next steps.",
  "summary": "One decisive sentence verdict"
}

Be clinical, decisive, and reference their actual words. Only respond with JSON.`,
		facts.String(), rules.String(), FormatAnswers(in.Questions, in.Answers))
}

// FormatAnswers renders question/answer pairs in the order the scorer reads them.
func FormatAnswers(questions []models.Question, answers models.AnswerSet) string {
	blocks := make([]string, len(questions))
	for i, q := range models.SortedByOrder(questions) {
		answer := strings.TrimSpace(answers[q.ID])
		if answer == "" {
			answer = "No answer"
		}
		blocks[i] = fmt.Sprintf("Q%d: %s\nA: %s", i+1, q.Label, answer)
	}
	return strings.Join(blocks, "\n\n")
}
