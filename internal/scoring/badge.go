package scoring

import "github.com/leadvett/backend/internal/models"

const (
	GoldThreshold   = 70
	SilverThreshold = 45
)

// AssignBadge maps a base score to a tier, then enforces the ceiling as an upper
// bound. It never upgrades a badge and never returns BadgeRejected.
func AssignBadge(score int, ceiling models.BadgeCeiling) models.Badge {
	var badge models.Badge
	switch {
	case score >= GoldThreshold:
		badge = models.BadgeGold
	case score >= SilverThreshold:
		badge = models.BadgeSilver
	default:
		badge = models.BadgeBronze
	}

	switch ceiling {
	case models.CeilingBronze:
		return models.BadgeBronze
	case models.CeilingSilver:
		if badge == models.BadgeGold {
			return models.BadgeSilver
		}
	}
	return badge
}
