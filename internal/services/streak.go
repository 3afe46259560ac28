package services

import "time"

// Day truncates to the calendar day in UTC. Streak arithmetic only ever
// compares days, never clock times.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func DayString(t time.Time) string {
	return Day(t).Format("2006-01-02")
}

// NextStreak computes the streak value after an approval on `now`.
//
//	same day            -> unchanged
//	exactly one day gap -> +1
//	larger gap          -> reset to 1, unless insurance bought since the last
//	                       active day covers every missed day, then +1
//
// Insurance forgives the gap only; it never advances progress by itself.
func NextStreak(lastActiveAt *time.Time, now time.Time, current int, insuredDays int) (streak int, advanced bool) {
	if lastActiveAt == nil {
		return 1, true
	}

	gap := int(Day(now).Sub(Day(*lastActiveAt)) / (24 * time.Hour))
	switch {
	case gap <= 0:
		return current, false
	case gap == 1:
		return current + 1, true
	case gap-1 <= insuredDays:
		return current + 1, true
	default:
		return 1, true
	}
}
