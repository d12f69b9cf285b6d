package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"tcal/internal/calendar"
	"tcal/internal/clock"
	"tcal/internal/model"
)

// eventsOn filters events down to the ones overlapping a single day.
func eventsOn(events []model.Event, d calendar.Day) []model.Event {
	var out []model.Event
	for _, ev := range events {
		if calendar.Overlaps(ev.StartDatetime, ev.EndDatetime, d) {
			out = append(out, ev)
		}
	}
	return out
}

func renderMonth(w io.Writer, grid []calendar.Day, month time.Month, events []model.Event, weekStart time.Weekday) {
	fmt.Fprintf(w, "%s %d\n", month, grid[len(grid)/2].Year)

	for i := 0; i < calendar.DaysPerWeek; i++ {
		wd := time.Weekday((int(weekStart) + i) % 7)
		fmt.Fprintf(w, " %-5s", wd.String()[:3])
	}
	fmt.Fprintln(w)

	for row := 0; row < calendar.GridSize/calendar.DaysPerWeek; row++ {
		for col := 0; col < calendar.DaysPerWeek; col++ {
			d := grid[row*calendar.DaysPerWeek+col]
			cell := fmt.Sprintf("%2d", d.Date)
			if d.Month != month {
				cell = " ." // outside the requested month
			}
			mark := " "
			if len(eventsOn(events, d)) > 0 {
				mark = "*"
			}
			fmt.Fprintf(w, " %s%s  ", cell, mark)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w)
	loc := grid[0].Location()
	for _, ev := range sortedByStart(events) {
		fmt.Fprintln(w, eventLine(ev, loc))
	}
}

func renderWeek(w io.Writer, week []calendar.Day, events []model.Event, loc *time.Location) {
	for _, d := range week {
		fmt.Fprintf(w, "%s %s\n", d.Weekday().String()[:3], d.Format(clock.DateLayout))
		day := eventsOn(events, d)
		if len(day) == 0 {
			fmt.Fprintln(w, "    -")
			continue
		}
		for _, ev := range sortedByStart(day) {
			fmt.Fprintf(w, "    %s\n", eventLine(ev, loc))
		}
	}
}

// eventLine is the one-line listing form: id, span, title.
func eventLine(ev model.Event, loc *time.Location) string {
	var span string
	if ev.AllDay {
		start := clock.ToZoneLocal(ev.StartDatetime, loc)
		end := clock.ToZoneLocal(ev.EndDatetime, loc)
		if start.Date == end.Date {
			span = fmt.Sprintf("%s (all day)", start.Date)
		} else {
			span = fmt.Sprintf("%s - %s (all day)", start.Date, end.Date)
		}
	} else {
		start := clock.ToZoneLocal(ev.StartDatetime, loc)
		end := clock.ToZoneLocal(ev.EndDatetime, loc)
		if start.Date == end.Date {
			span = fmt.Sprintf("%s %s-%s", start.Date, start.Time, end.Time)
		} else {
			span = fmt.Sprintf("%s %s - %s %s", start.Date, start.Time, end.Date, end.Time)
		}
	}
	return fmt.Sprintf("#%-4d %s  %s", ev.ID, span, ev.Title)
}

func printEvent(w io.Writer, ev model.Event, loc *time.Location) {
	fmt.Fprintf(w, "event %d\n", ev.ID)
	fmt.Fprintf(w, "  title:     %s\n", ev.Title)
	start := clock.ToZoneLocal(ev.StartDatetime, loc)
	end := clock.ToZoneLocal(ev.EndDatetime, loc)
	if ev.AllDay {
		fmt.Fprintf(w, "  when:      %s - %s (all day)\n", start.Date, end.Date)
	} else {
		fmt.Fprintf(w, "  when:      %s %s - %s %s (%s)\n", start.Date, start.Time, end.Date, end.Time, loc)
	}
	if ev.OriginalTimezone != "" && ev.OriginalTimezone != loc.String() {
		fmt.Fprintf(w, "  authored:  %s\n", ev.OriginalTimezone)
	}
	if ev.Location != "" {
		fmt.Fprintf(w, "  location:  %s\n", ev.Location)
	}
	if ev.Description != "" {
		fmt.Fprintf(w, "  notes:     %s\n", ev.Description)
	}
	if len(ev.Attendees) > 0 {
		fmt.Fprintf(w, "  attendees: %s\n", strings.Join(ev.Attendees, ", "))
	}
	if !ev.UpdatedAt.IsZero() {
		fmt.Fprintf(w, "  updated:   %s\n", ev.UpdatedAt.UTC().Format(time.RFC3339))
	}
}
