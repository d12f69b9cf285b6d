package calendar

import "time"

// GridSize is the fixed length of a month grid: 6 rows of 7 days. The
// grid always covers full weeks, so days of adjacent months appear at
// the edges and are told apart by comparing Day.Month to the requested
// month.
const GridSize = 42

// DaysPerWeek is the fixed length of a week strip.
const DaysPerWeek = 7

// Day is a calendar cell: a civil date plus the zone it was projected
// in. Two Day values are the same day only if both the date and the
// projection zone match.
type Day struct {
	Year  int
	Month time.Month
	Date  int

	loc *time.Location
}

// NewDay builds a Day for the given civil date in loc. Out-of-range
// components (e.g. day 32) are normalized the way time.Date normalizes
// them.
func NewDay(year int, month time.Month, date int, loc *time.Location) Day {
	if loc == nil {
		loc = time.UTC
	}
	t := time.Date(year, month, date, 0, 0, 0, 0, loc)
	return Day{Year: t.Year(), Month: t.Month(), Date: t.Day(), loc: t.Location()}
}

// DayOf projects an instant onto the calendar day containing it in loc.
func DayOf(instant time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.UTC
	}
	local := instant.In(loc)
	return Day{Year: local.Year(), Month: local.Month(), Date: local.Day(), loc: loc}
}

// Location returns the projection zone of the day.
func (d Day) Location() *time.Location {
	if d.loc == nil {
		return time.UTC
	}
	return d.loc
}

// Start is the instant the day begins: local midnight. In zones where
// a DST transition removes midnight, the first valid wall-clock time of
// the day is used (time.Date semantics).
func (d Day) Start() time.Time {
	return time.Date(d.Year, d.Month, d.Date, 0, 0, 0, 0, d.Location())
}

// End is the instant the next day begins. The day spans [Start, End).
func (d Day) End() time.Time {
	return time.Date(d.Year, d.Month, d.Date+1, 0, 0, 0, 0, d.Location())
}

// AddDays returns the day n civil days later (or earlier, for negative n).
func (d Day) AddDays(n int) Day {
	return NewDay(d.Year, d.Month, d.Date+n, d.Location())
}

// Weekday reports the day of week of the civil date.
func (d Day) Weekday() time.Weekday {
	return d.Start().Weekday()
}

// Equal reports whether two Day values denote the same date in the
// same projection zone.
func (d Day) Equal(o Day) bool {
	return d.Year == o.Year && d.Month == o.Month && d.Date == o.Date &&
		d.Location().String() == o.Location().String()
}

// Format renders the civil date, ignoring the zone.
func (d Day) Format(layout string) string {
	return d.Start().Format(layout)
}

// Overlaps reports whether the half-open event interval [evStart, evEnd)
// intersects the day's [Start, End) window. Both comparisons happen on
// the absolute timeline; an event ending exactly at Start, or starting
// exactly at End, does not belong to the day.
func Overlaps(evStart, evEnd time.Time, d Day) bool {
	return evStart.Before(d.End()) && evEnd.After(d.Start())
}

// MonthGrid builds the fixed 6x7 day sequence for a month view. The
// sequence starts on the weekStart-weekday of the week containing the
// first of the month and proceeds by consecutive days; its length is
// always GridSize. Pure: safe to memoize by (year, month, loc, weekStart).
func MonthGrid(year int, month time.Month, loc *time.Location, weekStart time.Weekday) []Day {
	first := NewDay(year, month, 1, loc)
	offset := (int(first.Weekday()) - int(weekStart) + DaysPerWeek) % DaysPerWeek

	grid := make([]Day, GridSize)
	for i := range grid {
		grid[i] = first.AddDays(i - offset)
	}
	return grid
}

// WeekDays builds the 7-day strip for the week containing anchor,
// starting on weekStart.
func WeekDays(anchor Day, weekStart time.Weekday) []Day {
	offset := (int(anchor.Weekday()) - int(weekStart) + DaysPerWeek) % DaysPerWeek

	week := make([]Day, DaysPerWeek)
	for i := range week {
		week[i] = anchor.AddDays(i - offset)
	}
	return week
}
