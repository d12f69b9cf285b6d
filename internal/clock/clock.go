package clock

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTimeZone is returned when an IANA zone name cannot be
// resolved. Conversion never falls back to a different zone.
var ErrInvalidTimeZone = errors.New("invalid time zone")

const (
	// DateLayout / TimeLayout are the wall-clock formats exchanged with
	// edit forms: separate date and minute-resolution time strings.
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// WallClock is a date and time as written or read by a person in a
// specific zone, not yet resolved to an instant.
type WallClock struct {
	Date string // "2006-01-02"
	Time string // "15:04"
}

// LoadZone resolves an IANA zone name. An unknown or empty name fails
// with ErrInvalidTimeZone.
func LoadZone(name string) (*time.Location, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty zone name", ErrInvalidTimeZone)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimeZone, name)
	}
	return loc, nil
}

// ToZoneLocal projects an absolute instant onto the wall clock of loc.
// Sub-minute components are not representable in the wall-clock form;
// instants are expected at minute resolution at this boundary.
func ToZoneLocal(instant time.Time, loc *time.Location) WallClock {
	local := instant.In(loc)
	return WallClock{
		Date: local.Format(DateLayout),
		Time: local.Format(TimeLayout),
	}
}

// FromZoneLocal resolves a wall-clock value in loc back to a UTC
// instant. It is the inverse of ToZoneLocal for any instant whose zone
// offset is defined: FromZoneLocal(ToZoneLocal(i, z), z) == i.
func FromZoneLocal(wc WallClock, loc *time.Location) (time.Time, error) {
	if loc == nil {
		return time.Time{}, fmt.Errorf("%w: nil location", ErrInvalidTimeZone)
	}
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, wc.Date+" "+wc.Time, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse wall clock %q %q: %w", wc.Date, wc.Time, err)
	}
	return t.UTC(), nil
}

// ParseWallClock is FromZoneLocal over raw strings.
func ParseWallClock(dateStr, timeStr string, loc *time.Location) (time.Time, error) {
	return FromZoneLocal(WallClock{Date: dateStr, Time: timeStr}, loc)
}

// AllDaySpan resolves an all-day date in loc to the instant pair stored
// for all-day events: [00:00:00, 23:59:59] of that day, as UTC. Under
// half-open day overlap the pair covers exactly the authored day in the
// authoring zone.
func AllDaySpan(dateStr string, loc *time.Location) (start, end time.Time, err error) {
	if loc == nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: nil location", ErrInvalidTimeZone)
	}
	d, err := time.ParseInLocation(DateLayout, dateStr, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse all-day date %q: %w", dateStr, err)
	}
	start = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	end = time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 0, loc)
	return start.UTC(), end.UTC(), nil
}

// AllDayRange is AllDaySpan across an inclusive date range, for all-day
// events spanning multiple days.
func AllDayRange(startDate, endDate string, loc *time.Location) (start, end time.Time, err error) {
	start, _, err = AllDaySpan(startDate, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	_, end, err = AllDaySpan(endDate, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}
