package scoring

import "github.com/leadvett/backend/internal/models"

// RecommendAction returns the next step for a badge.
func RecommendAction(badge models.Badge) string {
	switch badge {
	case models.BadgeGold:
		return "Book 30-min Strategy Call within 2 hours"
	case models.BadgeSilver:
		return "Send 15-min Screening Loom Video"
	case models.BadgeBronze:
		return "Add to 90-day Nurture Sequence"
	case models.BadgeRejected:
		return "Disqualified - Archive"
	}
	return ""
}
