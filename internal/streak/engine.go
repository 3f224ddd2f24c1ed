package streak

import "github.com/andrewc156/DiscordLangaugeStreakBot/internal/domain"

// ComputeStreak decides the new streak value from the previously recorded
// state and today's date. Posting again on the same day keeps the current
// value, an exact one-day gap extends the run, and anything else (first
// entry, longer gaps, a clock going backwards) starts over at 1.
//
// The function is total: every combination of inputs yields a value.
func ComputeStreak(previous int, lastDate, today domain.Date) int {
	switch {
	case lastDate.IsZero():
		return 1
	case today.Equal(lastDate):
		return previous
	case today.DaysSince(lastDate) == 1:
		return previous + 1
	default:
		return 1
	}
}
