package domain

import "time"

// NextReset returns the end of a window starting at from: the same day of the
// next calendar month, clamped to that month's last day. Jan 31 becomes Feb 28
// (or 29), not Mar 3.
func NextReset(from time.Time) time.Time {
	from = from.UTC()
	year, month, day := from.Date()

	nextYear, nextMonth := year, month+1
	if nextMonth > time.December {
		nextYear, nextMonth = year+1, time.January
	}
	if last := daysIn(nextYear, nextMonth); day > last {
		day = last
	}

	return time.Date(nextYear, nextMonth, day,
		from.Hour(), from.Minute(), from.Second(), from.Nanosecond(), time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
