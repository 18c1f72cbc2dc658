package rag

import "time"

const day = 24 * time.Hour

// DaysUntil returns the whole days from now to target, truncated toward zero.
// Negative values mean target is already past.
func DaysUntil(now, target time.Time) int {
	return int(target.Sub(now) / day)
}
