// Package billing maps purchases onto credit card billing cycles and splits
// installment purchases into dated records.
package billing

import "time"

// ResolveBillingMonth returns the first day (UTC) of the billing cycle the
// date belongs to: the date's own month when day <= closingDay, otherwise the
// following month.
//
// closingDay is compared numerically and never clamped to the month length,
// so a closing day of 31 keeps every day of February in February.
func ResolveBillingMonth(date time.Time, closingDay int) time.Time {
	y, m, d := date.Date()
	if d > closingDay {
		m++
	}
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// DaysInMonth returns the number of days of the given month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddMonthsClamped advances t by n calendar months. When the day does not
// exist in the target month it clamps to the month's last day
// (Jan 31 + 1 → Feb 28/29, never March).
func AddMonthsClamped(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	target := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	if last := DaysInMonth(target.Year(), target.Month()); d > last {
		d = last
	}
	return time.Date(target.Year(), target.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// MonthStart returns midnight UTC of the first day of t's month.
func MonthStart(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// MonthWindow returns [start, end) of t's month shifted by offset months.
func MonthWindow(t time.Time, offset int) (start, end time.Time) {
	start = MonthStart(t).AddDate(0, offset, 0)
	return start, start.AddDate(0, 1, 0)
}
