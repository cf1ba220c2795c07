package shared

import "time"

// PeriodKey renders the yyyyMM key used by the monthly target tables and
// the partitioned fact tables.
func PeriodKey(t time.Time) string {
	return t.Format("200601")
}

// MonthProgress returns the elapsed day and the total days of t's month.
func MonthProgress(t time.Time) (day, days int) {
	day = t.Day()
	days = daysIn(time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC))
	return day, days
}

// SameDayMonthsAgo shifts t back by the given number of months, clamping
// the day so a month-end date never spills into the next month
// (31 March minus one month is 28 February, not 3 March).
func SameDayMonthsAgo(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month-time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	if last := daysIn(first); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

// SameDayYearsAgo shifts t back by whole years with the same day clamp,
// which only matters for 29 February.
func SameDayYearsAgo(t time.Time, years int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year-years, month, 1, 0, 0, 0, 0, time.UTC)
	if last := daysIn(first); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

// StartOfYear returns 1 January of t's year.
func StartOfYear(t time.Time) time.Time {
	return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
}

func daysIn(firstOfMonth time.Time) int {
	return firstOfMonth.AddDate(0, 1, -1).Day()
}
