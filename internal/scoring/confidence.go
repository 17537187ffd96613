package scoring

import "github.com/leadvett/backend/internal/models"

type Confidence struct {
	Score int                   `json:"score"`
	Band  models.ConfidenceBand `json:"band"`
}

// EstimateConfidence derives confidence from the base score and the mix of fired
// rules. Only the upper bound is clamped after adjustment, so a heavily negative
// lead can end below zero.
func EstimateConfidence(score int, rules []models.RuleOutcome) Confidence {
	c := clamp(score, 0, 100)

	positive, negative := 0, 0
	for _, r := range rules {
		switch r.Polarity {
		case models.PolarityPositive:
			positive++
		case models.PolarityNegative:
			negative++
		}
	}

	if positive >= 3 {
		c += 10
	}
	if positive > 0 && negative > 0 {
		c -= 5
	}
	if c > 100 {
		c = 100
	}

	return Confidence{Score: c, Band: ConfidenceBandFor(c)}
}

func ConfidenceBandFor(score int) models.ConfidenceBand {
	switch {
	case score >= 75:
		return models.ConfidenceHigh
	case score >= 50:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
