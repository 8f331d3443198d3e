package cashcow

import "time"

const dateLayout = "2006-01-02"

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// monthStart normalizes a date to the first day of its month, UTC midnight —
// the unit every forecast period is keyed by.
func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// addMonths advances a month-start date by n months (n may be negative).
func addMonths(t time.Time, n int) time.Time {
	return time.Date(t.Year(), t.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
}

// monthsBetween counts whole months from a to b (b assumed >= a, both
// month-starts); used for amortization windows and vesting schedules.
func monthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()-a.Month())
}

// monthlyPeriods returns the ordered list of month-start dates spanning
// [start, end] inclusive.
func monthlyPeriods(start, end time.Time) []time.Time {
	s := monthStart(start)
	e := monthStart(end)
	if e.Before(s) {
		return nil
	}
	n := monthsBetween(s, e) + 1
	periods := make([]time.Time, n)
	cur := s
	for i := 0; i < n; i++ {
		periods[i] = cur
		cur = addMonths(cur, 1)
	}
	return periods
}

// sameMonth reports whether two dates fall in the same calendar month.
func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}
