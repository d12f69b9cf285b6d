// Package form holds the edit-form state for creating and updating
// events. The form works in wall-clock strings in a single authoring
// zone; Build resolves them to UTC instants. Precondition violations
// (bad zone, inverted interval) are caught here, before anything is
// sent to the service.
package form

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"tcal/internal/clock"
	"tcal/internal/model"
)

// ErrMalformedInterval is returned when the form's start instant is
// after its end instant. Rejected client-side; never sent to the
// service.
var ErrMalformedInterval = errors.New("start is after end")

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// EditForm is the mutable state behind an event create/edit form. Zone
// is the explicit authoring zone; there is no ambient default.
type EditForm struct {
	Title       string
	Description string
	Location    string
	Attendees   []string

	StartDate string // "2006-01-02"
	StartTime string // "15:04"
	EndDate   string
	EndTime   string
	AllDay    bool

	Zone string // IANA name
}

// New returns a form prefilled for a one-hour event starting at the
// next full hour after now, in zone.
func New(now time.Time, zone string) (*EditForm, error) {
	loc, err := clock.LoadZone(zone)
	if err != nil {
		return nil, err
	}
	start := now.In(loc).Truncate(time.Hour).Add(time.Hour)
	end := start.Add(time.Hour)
	return &EditForm{
		StartDate: start.Format(clock.DateLayout),
		StartTime: start.Format(clock.TimeLayout),
		EndDate:   end.Format(clock.DateLayout),
		EndTime:   end.Format(clock.TimeLayout),
		Zone:      zone,
	}, nil
}

// FromEvent populates a form from an existing event. The form adopts
// the event's authoring zone when it still resolves, so building the
// unmodified form yields the event's exact stored instants — crucially
// for all-day events, whose day boundaries only re-anchor losslessly in
// the zone they were authored in. zone is the fallback when the stored
// name no longer resolves.
func FromEvent(ev model.Event, zone string) (*EditForm, error) {
	if _, err := clock.LoadZone(ev.OriginalTimezone); err == nil {
		zone = ev.OriginalTimezone
	}
	loc, err := clock.LoadZone(zone)
	if err != nil {
		return nil, err
	}
	start := clock.ToZoneLocal(ev.StartDatetime, loc)
	end := clock.ToZoneLocal(ev.EndDatetime, loc)

	f := &EditForm{
		Title:       ev.Title,
		Description: ev.Description,
		Location:    ev.Location,
		Attendees:   append([]string(nil), ev.Attendees...),
		StartDate:   start.Date,
		StartTime:   start.Time,
		EndDate:     end.Date,
		EndTime:     end.Time,
		AllDay:      ev.AllDay,
		Zone:        zone,
	}
	if ev.AllDay {
		// All-day boundaries carry no meaningful clock times.
		f.StartTime = ""
		f.EndTime = ""
	}
	return f, nil
}

// FromDraft populates a form from an extractor draft. Missing temporal
// fields fall back to the defaults a fresh form would have; everything
// is still subject to Build's validation.
func FromDraft(draft model.EventDraft, zone string, now time.Time) (*EditForm, error) {
	f, err := New(now, zone)
	if err != nil {
		return nil, err
	}
	loc, _ := clock.LoadZone(zone)

	f.Title = draft.Title
	f.Description = draft.Description
	f.Location = draft.Location
	f.Attendees = append([]string(nil), draft.Attendees...)
	f.AllDay = draft.AllDay

	if draft.StartDatetime != nil {
		wc := clock.ToZoneLocal(*draft.StartDatetime, loc)
		f.StartDate, f.StartTime = wc.Date, wc.Time
		// Keep the interval non-dangling even before the end is known.
		f.EndDate, f.EndTime = wc.Date, wc.Time
	}
	if draft.EndDatetime != nil {
		wc := clock.ToZoneLocal(*draft.EndDatetime, loc)
		f.EndDate, f.EndTime = wc.Date, wc.Time
	}
	if f.AllDay {
		f.StartTime = ""
		f.EndTime = ""
	}
	f.ensureEndNotBeforeStart()
	return f, nil
}

// SetStartDate moves the start date. If that leaves the end date
// dangling before the start, the end date advances to match; the form
// never submits an interval the service is guaranteed to reject.
func (f *EditForm) SetStartDate(date string) {
	f.StartDate = date
	f.ensureEndNotBeforeStart()
}

// SetStartTime moves the start time within the start date.
func (f *EditForm) SetStartTime(t string) {
	f.StartTime = t
	f.ensureEndNotBeforeStart()
}

func (f *EditForm) ensureEndNotBeforeStart() {
	if f.StartDate > f.EndDate {
		f.EndDate = f.StartDate
	}
	if f.StartDate == f.EndDate && !f.AllDay && f.EndTime != "" && f.StartTime > f.EndTime {
		f.EndTime = f.StartTime
	}
}

// Build validates the form and resolves it to an EventInput with UTC
// instants. Validation failures are returned one at a time, first
// error wins.
func (f *EditForm) Build() (model.EventInput, error) {
	title := strings.TrimSpace(f.Title)
	if title == "" {
		return model.EventInput{}, errors.New("title required")
	}

	loc, err := clock.LoadZone(f.Zone)
	if err != nil {
		return model.EventInput{}, err
	}

	for _, a := range f.Attendees {
		if !emailRe.MatchString(a) {
			return model.EventInput{}, fmt.Errorf("invalid attendee email: %q", a)
		}
	}

	var start, end time.Time
	if f.AllDay {
		start, end, err = clock.AllDayRange(f.StartDate, f.EndDate, loc)
		if err != nil {
			return model.EventInput{}, err
		}
	} else {
		start, err = clock.ParseWallClock(f.StartDate, f.StartTime, loc)
		if err != nil {
			return model.EventInput{}, err
		}
		end, err = clock.ParseWallClock(f.EndDate, f.EndTime, loc)
		if err != nil {
			return model.EventInput{}, err
		}
	}

	if start.After(end) {
		return model.EventInput{}, ErrMalformedInterval
	}

	return model.EventInput{
		Title:            title,
		Description:      strings.TrimSpace(f.Description),
		Location:         strings.TrimSpace(f.Location),
		StartDatetime:    start,
		EndDatetime:      end,
		AllDay:           f.AllDay,
		OriginalTimezone: f.Zone,
		Attendees:        f.Attendees,
	}, nil
}

// Patch builds a partial update against the event the form was
// populated from: only fields that differ are set.
func (f *EditForm) Patch(base model.Event) (model.EventPatch, error) {
	in, err := f.Build()
	if err != nil {
		return model.EventPatch{}, err
	}

	var p model.EventPatch
	if in.Title != base.Title {
		p.Title = &in.Title
	}
	if in.Description != base.Description {
		p.Description = &in.Description
	}
	if in.Location != base.Location {
		p.Location = &in.Location
	}
	if !in.StartDatetime.Equal(base.StartDatetime) {
		p.StartDatetime = &in.StartDatetime
	}
	if !in.EndDatetime.Equal(base.EndDatetime) {
		p.EndDatetime = &in.EndDatetime
	}
	if in.AllDay != base.AllDay {
		p.AllDay = &in.AllDay
	}
	if in.OriginalTimezone != base.OriginalTimezone {
		p.OriginalTimezone = &in.OriginalTimezone
	}
	if !equalStrings(in.Attendees, base.Attendees) {
		p.Attendees = &in.Attendees
	}
	return p, nil
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
