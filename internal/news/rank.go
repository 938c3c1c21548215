package news

import "sort"

const (
	highTierFloor   = 7.0
	mediumTierFloor = 4.0
)

// Select orders items by score, newest first on ties, and keeps at most max.
// The input slice is left untouched.
func Select(items []Item, max int) []Item {
	sorted := make([]Item, len(items))
	copy(sorted, items)

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].Published.After(sorted[j].Published)
	})

	if max >= 0 && len(sorted) > max {
		sorted = sorted[:max]
	}
	return sorted
}

func TierOf(score float64) Tier {
	switch {
	case score >= highTierFloor:
		return TierHigh
	case score >= mediumTierFloor:
		return TierMedium
	default:
		return TierLow
	}
}
