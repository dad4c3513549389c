package rubric

// Weighted-mode performance tiers, keyed off the score percentage.
const (
	TierWorldClass  = "World-class — publish as is"
	TierStrong      = "Strong, but tighten weak areas"
	TierNeedsWork   = "Needs restructuring and sharper insights"
	TierNeedsRework = "Rework before publishing"
)

// WeightedTier classifies a weighted score percentage.
func WeightedTier(percentage float64) string {
	switch {
	case percentage >= 89:
		return TierWorldClass
	case percentage >= 72:
		return TierStrong
	case percentage >= 56:
		return TierNeedsWork
	default:
		return TierNeedsRework
	}
}

// BinaryTier classifies a binary checklist score (0-100). The checklist uses
// shorter labels and its own thresholds.
func BinaryTier(score float64) string {
	switch {
	case score >= 90:
		return "World-class"
	case score >= 75:
		return "Strong"
	case score >= 60:
		return "Needs work"
	default:
		return TierNeedsRework
	}
}

// BinaryScore computes the checklist total: each failed criterion costs ten
// points, floored at zero.
func BinaryScore(failures int) int {
	score := 100 - 10*failures
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
