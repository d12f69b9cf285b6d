package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"tcal/internal/calendar"
	"tcal/internal/clock"
	"tcal/internal/config"
	"tcal/internal/eventsvc"
	"tcal/internal/form"
	"tcal/internal/ics"
	"tcal/internal/model"
	"tcal/internal/refresh"
	"tcal/internal/session"
)

const usage = `usage: tcal [-config path] <command> [flags]

commands:
  month    show a month grid (default: current month)
  week     show one week
  list     list events in a range
  show     show a single event
  create   create an event
  edit     edit an event
  rm       delete an event
  draft    draft an event from a natural-language prompt
  export   export a range as iCalendar
  watch    keep the month view on screen, refreshing on a schedule
`

// app carries everything a subcommand needs.
type app struct {
	cfg  *config.Config
	loc  *time.Location
	sess *session.Session
}

func main() {
	_ = godotenv.Load()
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}

	configPath := flag.String("config", defaultConfigPath(), "path to config file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	// Env overrides beat the config file.
	if v := os.Getenv("TCAL_SERVICE_URL"); v != "" {
		cfg.ServiceURL = v
	}
	if v := os.Getenv("TCAL_TIMEZONE"); v != "" {
		cfg.Timezone = v
	}

	loc, err := clock.LoadZone(cfg.Timezone)
	if err != nil {
		log.Fatalf("config timezone: %v", err)
	}

	a := &app{
		cfg:  cfg,
		loc:  loc,
		sess: session.New(eventsvc.New(cfg.ServiceURL)),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd, args := flag.Arg(0), flag.Args()[1:]
	if err := a.run(ctx, cmd, args); err != nil {
		log.Fatalf("%s: %v", cmd, err)
	}
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "month":
		return a.cmdMonth(ctx, args)
	case "week":
		return a.cmdWeek(ctx, args)
	case "list":
		return a.cmdList(ctx, args)
	case "show":
		return a.cmdShow(ctx, args)
	case "create":
		return a.cmdCreate(ctx, args)
	case "edit":
		return a.cmdEdit(ctx, args)
	case "rm":
		return a.cmdDelete(ctx, args)
	case "draft":
		return a.cmdDraft(ctx, args)
	case "export":
		return a.cmdExport(ctx, args)
	case "watch":
		return a.cmdWatch(ctx, args)
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func defaultConfigPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir + "/tcal/config.yaml"
	}
	return "./tcal.yaml"
}

// fetchRange pulls every page of events overlapping [from, to).
func (a *app) fetchRange(ctx context.Context, from, to time.Time, query string) ([]model.Event, error) {
	var out []model.Event
	page := 1
	for {
		p, err := a.sess.Events(ctx, eventsvc.Filter{
			From: from, To: to, Query: query, Page: page, Size: a.cfg.PageSize,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, p.Events...)
		if page >= p.Pages || len(p.Events) == 0 {
			break
		}
		page++
	}
	// The service does not guarantee ordering.
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartDatetime.Before(out[j].StartDatetime)
	})
	return out, nil
}

func (a *app) cmdMonth(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("month", flag.ExitOnError)
	now := time.Now().In(a.loc)
	year := fs.Int("y", now.Year(), "year")
	month := fs.Int("m", int(now.Month()), "month (1-12)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	grid := calendar.MonthGrid(*year, time.Month(*month), a.loc, a.cfg.WeekStartWeekday())
	events, err := a.fetchRange(ctx, grid[0].Start(), grid[len(grid)-1].End(), "")
	if err != nil {
		return err
	}

	renderMonth(os.Stdout, grid, time.Month(*month), events, a.cfg.WeekStartWeekday())
	return nil
}

func (a *app) cmdWeek(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("week", flag.ExitOnError)
	anchorStr := fs.String("d", "", "anchor date (2006-01-02, default today)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	anchor := calendar.DayOf(time.Now(), a.loc)
	if *anchorStr != "" {
		d, err := time.ParseInLocation(clock.DateLayout, *anchorStr, a.loc)
		if err != nil {
			return fmt.Errorf("bad -d: %w", err)
		}
		anchor = calendar.NewDay(d.Year(), d.Month(), d.Day(), a.loc)
	}

	week := calendar.WeekDays(anchor, a.cfg.WeekStartWeekday())
	events, err := a.fetchRange(ctx, week[0].Start(), week[len(week)-1].End(), "")
	if err != nil {
		return err
	}

	renderWeek(os.Stdout, week, events, a.loc)
	return nil
}

func (a *app) cmdList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	fromStr := fs.String("from", "", "start date (2006-01-02)")
	toStr := fs.String("to", "", "end date (2006-01-02, inclusive)")
	query := fs.String("q", "", "free-text filter")
	pageN := fs.Int("page", 1, "page number")
	size := fs.Int("size", 0, "page size (default from config)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var from, to time.Time
	if *fromStr != "" {
		d, err := time.ParseInLocation(clock.DateLayout, *fromStr, a.loc)
		if err != nil {
			return fmt.Errorf("bad -from: %w", err)
		}
		from = calendar.NewDay(d.Year(), d.Month(), d.Day(), a.loc).Start()
	}
	if *toStr != "" {
		d, err := time.ParseInLocation(clock.DateLayout, *toStr, a.loc)
		if err != nil {
			return fmt.Errorf("bad -to: %w", err)
		}
		to = calendar.NewDay(d.Year(), d.Month(), d.Day(), a.loc).End()
	}
	if *size <= 0 {
		*size = a.cfg.PageSize
	}

	page, err := a.sess.Events(ctx, eventsvc.Filter{
		From: from, To: to, Query: *query, Page: *pageN, Size: *size,
	})
	if err != nil {
		return err
	}

	for _, ev := range sortedByStart(page.Events) {
		fmt.Println(eventLine(ev, a.loc))
	}
	fmt.Printf("page %d/%d, %d total\n", page.Page, page.Pages, page.Total)
	return nil
}

func (a *app) cmdShow(ctx context.Context, args []string) error {
	id, err := idArg(args)
	if err != nil {
		return err
	}
	ev, err := a.sess.Event(ctx, id)
	if err != nil {
		return err
	}
	printEvent(os.Stdout, ev, a.loc)
	return nil
}

// eventFlags registers the shared create/edit form flags on fs.
type eventFlags struct {
	title, desc, location, attendees      *string
	date, timeStr, endDate, endTime, zone *string
	allDay                                *bool
}

func newEventFlags(fs *flag.FlagSet, defaultZone string) *eventFlags {
	return &eventFlags{
		title:     fs.String("title", "", "event title"),
		desc:      fs.String("desc", "", "description"),
		location:  fs.String("location", "", "location"),
		attendees: fs.String("attendees", "", "comma-separated attendee emails"),
		date:      fs.String("date", "", "start date (2006-01-02)"),
		timeStr:   fs.String("time", "", "start time (15:04)"),
		endDate:   fs.String("end-date", "", "end date (defaults to start date)"),
		endTime:   fs.String("end-time", "", "end time"),
		zone:      fs.String("zone", defaultZone, "authoring time zone"),
		allDay:    fs.Bool("all-day", false, "all-day event"),
	}
}

func splitAttendees(s string) []string {
	var out []string
	for _, a := range strings.Split(s, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

func (a *app) cmdCreate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	ef := newEventFlags(fs, a.cfg.Timezone)
	if err := fs.Parse(args); err != nil {
		return err
	}

	f, err := form.New(time.Now(), *ef.zone)
	if err != nil {
		return err
	}
	f.Title = *ef.title
	f.Description = *ef.desc
	f.Location = *ef.location
	f.Attendees = splitAttendees(*ef.attendees)
	f.AllDay = *ef.allDay
	if *ef.date != "" {
		f.SetStartDate(*ef.date)
	}
	if *ef.timeStr != "" {
		f.SetStartTime(*ef.timeStr)
	}
	if *ef.endDate != "" {
		f.EndDate = *ef.endDate
	}
	if *ef.endTime != "" {
		f.EndTime = *ef.endTime
	}
	if f.AllDay {
		f.StartTime, f.EndTime = "", ""
	}

	in, err := f.Build()
	if err != nil {
		return err
	}
	ev, err := a.sess.Create(ctx, in)
	if err != nil {
		return err
	}
	fmt.Printf("created event %d\n", ev.ID)
	printEvent(os.Stdout, ev, a.loc)
	return nil
}

func (a *app) cmdEdit(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: tcal edit <id> [flags]")
	}
	id, err := idArg(args[:1])
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("edit", flag.ExitOnError)
	ef := newEventFlags(fs, a.cfg.Timezone)
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	base, err := a.sess.Event(ctx, id)
	if err != nil {
		return err
	}
	f, err := form.FromEvent(base, *ef.zone)
	if err != nil {
		return err
	}

	// Only flags the user actually set touch the form.
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "title":
			f.Title = *ef.title
		case "desc":
			f.Description = *ef.desc
		case "location":
			f.Location = *ef.location
		case "attendees":
			f.Attendees = splitAttendees(*ef.attendees)
		case "all-day":
			f.AllDay = *ef.allDay
		case "date":
			f.SetStartDate(*ef.date)
		case "time":
			f.SetStartTime(*ef.timeStr)
		case "end-date":
			f.EndDate = *ef.endDate
		case "end-time":
			f.EndTime = *ef.endTime
		case "zone":
			f.Zone = *ef.zone
		}
	})

	patch, err := f.Patch(base)
	if err != nil {
		return err
	}
	ev, err := a.sess.Update(ctx, id, patch)
	if err != nil {
		return err
	}
	fmt.Printf("updated event %d\n", ev.ID)
	printEvent(os.Stdout, ev, a.loc)
	return nil
}

func (a *app) cmdDelete(ctx context.Context, args []string) error {
	id, err := idArg(args)
	if err != nil {
		return err
	}
	if err := a.sess.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Printf("deleted event %d\n", id)
	return nil
}

func (a *app) cmdDraft(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("draft", flag.ExitOnError)
	save := fs.Bool("save", false, "create the event if the draft validates")
	if err := fs.Parse(args); err != nil {
		return err
	}
	prompt := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if prompt == "" {
		return fmt.Errorf("usage: tcal draft [-save] <prompt>")
	}

	draft, err := a.sess.Draft(ctx, prompt)
	if err != nil {
		return err
	}

	fmt.Printf("draft (confidence %.2f):\n", draft.Confidence)
	f, err := form.FromDraft(draft, a.cfg.Timezone, time.Now())
	if err != nil {
		return err
	}
	fmt.Printf("  title:     %s\n", f.Title)
	if f.AllDay {
		fmt.Printf("  when:      %s - %s (all day, %s)\n", f.StartDate, f.EndDate, f.Zone)
	} else {
		fmt.Printf("  when:      %s %s - %s %s (%s)\n", f.StartDate, f.StartTime, f.EndDate, f.EndTime, f.Zone)
	}
	if f.Location != "" {
		fmt.Printf("  location:  %s\n", f.Location)
	}
	if len(f.Attendees) > 0 {
		fmt.Printf("  attendees: %s\n", strings.Join(f.Attendees, ", "))
	}

	if !*save {
		return nil
	}
	in, err := f.Build()
	if err != nil {
		return err
	}
	ev, err := a.sess.Create(ctx, in)
	if err != nil {
		return err
	}
	fmt.Printf("created event %d\n", ev.ID)
	return nil
}

func (a *app) cmdExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fromStr := fs.String("from", "", "start date (2006-01-02)")
	toStr := fs.String("to", "", "end date (inclusive)")
	out := fs.String("o", "", "output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var from, to time.Time
	if *fromStr != "" {
		d, err := time.ParseInLocation(clock.DateLayout, *fromStr, a.loc)
		if err != nil {
			return fmt.Errorf("bad -from: %w", err)
		}
		from = calendar.NewDay(d.Year(), d.Month(), d.Day(), a.loc).Start()
	}
	if *toStr != "" {
		d, err := time.ParseInLocation(clock.DateLayout, *toStr, a.loc)
		if err != nil {
			return fmt.Errorf("bad -to: %w", err)
		}
		to = calendar.NewDay(d.Year(), d.Month(), d.Day(), a.loc).End()
	}

	events, err := a.fetchRange(ctx, from, to, "")
	if err != nil {
		return err
	}

	w := os.Stdout
	if *out != "" {
		file, err := os.Create(*out)
		if err != nil {
			return err
		}
		defer file.Close()
		w = file
	}
	return ics.Write(w, events, a.loc)
}

func (a *app) cmdWatch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	interval := fs.Duration("interval", time.Minute, "redraw interval")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ref, err := refresh.New(a.cfg.RefreshCron, a.sess)
	if err != nil {
		return fmt.Errorf("refresh schedule %q: %w", a.cfg.RefreshCron, err)
	}
	ref.Start()
	defer ref.Stop()

	draw := func() {
		now := time.Now().In(a.loc)
		grid := calendar.MonthGrid(now.Year(), now.Month(), a.loc, a.cfg.WeekStartWeekday())
		events, err := a.fetchRange(ctx, grid[0].Start(), grid[len(grid)-1].End(), "")
		if err != nil {
			log.WithError(err).Error("refresh fetch failed, keeping last view")
			return
		}
		fmt.Print("\033[2J\033[H")
		renderMonth(os.Stdout, grid, now.Month(), events, a.cfg.WeekStartWeekday())
	}

	draw()
	tick := time.NewTicker(*interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			fmt.Println()
			return nil
		case <-tick.C:
			draw()
		}
	}
}

func idArg(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expected exactly one event id")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad event id %q", args[0])
	}
	return id, nil
}

func sortedByStart(events []model.Event) []model.Event {
	out := append([]model.Event(nil), events...)
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartDatetime.Before(out[j].StartDatetime)
	})
	return out
}
