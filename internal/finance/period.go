package finance

import "time"

// Bounds returns the half-open window [from, to) for p around now, in loc.
// Weeks start on Monday.
func Bounds(p Period, now time.Time, loc *time.Location) (time.Time, time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	switch p {
	case PeriodToday:
		return midnight, midnight.AddDate(0, 0, 1), nil
	case PeriodWeek:
		daysSinceMonday := (int(local.Weekday()) + 6) % 7
		from := midnight.AddDate(0, 0, -daysSinceMonday)
		return from, from.AddDate(0, 0, 7), nil
	case PeriodMonth:
		from := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
		return from, from.AddDate(0, 1, 0), nil
	}
	return time.Time{}, time.Time{}, ErrInvalidPeriod
}
