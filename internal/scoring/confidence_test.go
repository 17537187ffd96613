package scoring

import (
	"testing"

	"github.com/leadvett/backend/internal/models"
)

func outcomes(polarities ...models.Polarity) []models.RuleOutcome {
	rules := make([]models.RuleOutcome, len(polarities))
	for i, p := range polarities {
		w := 5
		if p == models.PolarityNegative {
			w = -5
		}
		rules[i] = models.RuleOutcome{Name: "r", Polarity: p, Weight: w}
	}
	return rules
}

func TestEstimateConfidence(t *testing.T) {
	pos, neg := models.PolarityPositive, models.PolarityNegative

	tests := []struct {
		name  string
		score int
		rules []models.RuleOutcome
		want  Confidence
	}{
		{"neutral", 50, nil, Confidence{50, models.ConfidenceMedium}},
		{"three positives boost", 70, outcomes(pos, pos, pos), Confidence{80, models.ConfidenceHigh}},
		{"boost capped at 100", 100, outcomes(pos, pos, pos), Confidence{100, models.ConfidenceHigh}},
		{"score above 100 clamped", 130, outcomes(pos, pos, pos, pos), Confidence{100, models.ConfidenceHigh}},
		{"mixed penalty", 60, outcomes(pos, neg), Confidence{55, models.ConfidenceMedium}},
		{"boost and penalty", 70, outcomes(pos, pos, pos, neg), Confidence{75, models.ConfidenceHigh}},
		{"negatives only", 35, outcomes(neg), Confidence{35, models.ConfidenceLow}},
		{"negative score clamped to zero", -15, outcomes(neg, neg), Confidence{0, models.ConfidenceLow}},
		{"mixed below zero falls through", 2, outcomes(pos, neg), Confidence{-3, models.ConfidenceLow}},
	}

	for _, tt := range tests {
		got := EstimateConfidence(tt.score, tt.rules)
		if got != tt.want {
			t.Errorf("%s: EstimateConfidence(%d) = %+v, want %+v", tt.name, tt.score, got, tt.want)
		}
		if got.Score > 100 {
			t.Errorf("%s: confidence %d exceeds 100", tt.name, got.Score)
		}
	}
}

func TestConfidenceBandFor(t *testing.T) {
	tests := []struct {
		score int
		want  models.ConfidenceBand
	}{
		{100, models.ConfidenceHigh},
		{75, models.ConfidenceHigh},
		{74, models.ConfidenceMedium},
		{50, models.ConfidenceMedium},
		{49, models.ConfidenceLow},
		{0, models.ConfidenceLow},
		{-5, models.ConfidenceLow},
	}
	for _, tt := range tests {
		if got := ConfidenceBandFor(tt.score); got != tt.want {
			t.Errorf("ConfidenceBandFor(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}
