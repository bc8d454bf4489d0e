package member

import "time"

// DateLayout is the calendar-date format used for join and expiry dates.
const DateLayout = "2006-01-02"

// ParseDate parses an ISO calendar date as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// FormatDate renders t's calendar date in its own location.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// AddMonths moves date forward by n calendar months.
// The day of month is clamped to the target month's length, so
// Jan 31 + 1 month is Feb 28 (or Feb 29 in a leap year).
// PRE: n >= 0
// POST: result is in the same location as date
func AddMonths(date time.Time, n int) time.Time {
	y, m, d := date.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, date.Location())
	if last := daysIn(first.Year(), first.Month(), date.Location()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, date.Location())
}

// AddMonthsISO applies AddMonths to an ISO date string.
func AddMonthsISO(date string, n int) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return FormatDate(AddMonths(t, n)), nil
}

// daysIn returns the number of days in the given month.
func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
