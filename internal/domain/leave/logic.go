package leave

import "time"

// TotalDays counts the span inclusive of both endpoints, in calendar days.
// Times of day are ignored.
func TotalDays(start, end time.Time) float64 {
	s := truncateToDay(start)
	e := truncateToDay(end)
	if e.Before(s) {
		return 0
	}
	return e.Sub(s).Hours()/24 + 1
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// RemainingForTotal rebases a balance to a new yearly total while keeping
// the days already consumed. An over-consumed balance goes negative rather
// than being clamped.
func RemainingForTotal(total, used float64) float64 {
	return total - used
}

// Overlaps reports whether two inclusive date ranges share at least one day.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !truncateToDay(aStart).After(truncateToDay(bEnd)) &&
		!truncateToDay(bStart).After(truncateToDay(aEnd))
}
