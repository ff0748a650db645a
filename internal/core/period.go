package core

import "time"

// PeriodRange resolves a period token against an anchor date into an
// inclusive [start, end] calendar-day window:
//
//	daily   -> (anchor, anchor)
//	weekly  -> Monday..Sunday of the anchor's ISO week
//	monthly -> first..last day of the anchor's month
//	yearly  -> Jan 1..Dec 31 of the anchor's year
//
// Any other token resolves like monthly. A zero anchor means "today".
func PeriodRange(period Period, anchor time.Time) (start, end time.Time) {
	if anchor.IsZero() {
		anchor = time.Now()
	}
	base := Day(anchor)

	switch period {
	case Daily:
		return base, base
	case Weekly:
		// time.Weekday has Sunday == 0; shift so Monday == 0.
		offset := (int(base.Weekday()) + 6) % 7
		start = base.AddDate(0, 0, -offset)
		return start, start.AddDate(0, 0, 6)
	case Yearly:
		start = time.Date(base.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		return start, time.Date(base.Year(), time.December, 31, 0, 0, 0, 0, time.UTC)
	default: // Monthly and unrecognized tokens
		start = time.Date(base.Year(), base.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, -1)
	}
}

// DaysRemaining reports how many full days are left in the current period
// window, counted from today (exclusive). daily periods always report 0.
func DaysRemaining(period Period, now time.Time) int {
	base := Day(now)

	switch period {
	case Daily:
		return 0
	case Weekly:
		return (7 - int(base.Weekday())) % 7 // days until Sunday
	case Monthly:
		nextMonth := time.Date(base.Year(), base.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
		return int(nextMonth.Sub(base).Hours() / 24)
	case Yearly:
		nextYear := time.Date(base.Year()+1, time.January, 1, 0, 0, 0, 0, time.UTC)
		return int(nextYear.Sub(base).Hours() / 24)
	default:
		return 0
	}
}
