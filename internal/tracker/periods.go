package tracker

import "time"

// DayStart returns the UTC midnight that keys the daily aggregate containing t.
func DayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// WeekStart returns the UTC midnight of the most recent weekStart day at or
// before t, keying the weekly aggregate.
func WeekStart(t time.Time, weekStart time.Weekday) time.Time {
	day := DayStart(t)
	offset := (int(day.Weekday()) - int(weekStart) + 7) % 7
	return day.AddDate(0, 0, -offset)
}

// MonthStart returns the UTC midnight of the first of t's month, keying the
// monthly aggregate.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
