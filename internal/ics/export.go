// Package ics serializes fetched events to an iCalendar document, so a
// viewed range can be handed to other calendar tools.
package ics

import (
	"fmt"
	"io"
	"time"

	ical "github.com/arran4/golang-ical"

	"tcal/internal/model"
)

// Write serializes events as a VCALENDAR to w. Timed events are written
// as UTC instants; all-day events as all-day DTSTART/DTEND on their
// civil dates so other clients re-anchor them per viewer zone.
func Write(w io.Writer, events []model.Event, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)

	for _, ev := range events {
		ve := cal.AddEvent(fmt.Sprintf("%d@tcal", ev.ID))
		ve.SetSummary(ev.Title)
		if ev.Description != "" {
			ve.SetDescription(ev.Description)
		}
		if ev.Location != "" {
			ve.SetLocation(ev.Location)
		}
		for _, a := range ev.Attendees {
			ve.AddAttendee(a)
		}
		if !ev.CreatedAt.IsZero() {
			ve.SetCreatedTime(ev.CreatedAt)
		}
		if !ev.UpdatedAt.IsZero() {
			ve.SetModifiedAt(ev.UpdatedAt)
		}
		ve.SetDtStampTime(ev.UpdatedAt)

		if ev.AllDay {
			// Day boundaries were authored in the event's own zone; fall
			// back to the viewer zone when the stored name is stale.
			evLoc := loc
			if ev.OriginalTimezone != "" {
				if l, err := time.LoadLocation(ev.OriginalTimezone); err == nil {
					evLoc = l
				}
			}
			start := ev.StartDatetime.In(evLoc)
			// DTEND of an all-day VEVENT is exclusive.
			end := ev.EndDatetime.In(evLoc).AddDate(0, 0, 1)
			ve.SetAllDayStartAt(start)
			ve.SetAllDayEndAt(time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, evLoc))
		} else {
			ve.SetStartAt(ev.StartDatetime.UTC())
			ve.SetEndAt(ev.EndDatetime.UTC())
		}
	}

	return cal.SerializeTo(w)
}
