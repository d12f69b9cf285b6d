package session

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"tcal/internal/eventsvc"
	"tcal/internal/model"
)

type stubService struct {
	listFn   func(ctx context.Context, f eventsvc.Filter) (model.EventPage, error)
	getFn    func(ctx context.Context, id int64) (model.Event, error)
	createFn func(ctx context.Context, in model.EventInput) (model.Event, error)
	updateFn func(ctx context.Context, id int64, patch model.EventPatch) (model.Event, error)
	deleteFn func(ctx context.Context, id int64) error
	draftFn  func(ctx context.Context, prompt string) (model.EventDraft, error)
}

func (s *stubService) List(ctx context.Context, f eventsvc.Filter) (model.EventPage, error) {
	if s.listFn == nil {
		return model.EventPage{}, errors.New("unexpected List call")
	}
	return s.listFn(ctx, f)
}

func (s *stubService) Get(ctx context.Context, id int64) (model.Event, error) {
	if s.getFn == nil {
		return model.Event{}, errors.New("unexpected Get call")
	}
	return s.getFn(ctx, id)
}

func (s *stubService) Create(ctx context.Context, in model.EventInput) (model.Event, error) {
	if s.createFn == nil {
		return model.Event{}, errors.New("unexpected Create call")
	}
	return s.createFn(ctx, in)
}

func (s *stubService) Update(ctx context.Context, id int64, patch model.EventPatch) (model.Event, error) {
	if s.updateFn == nil {
		return model.Event{}, errors.New("unexpected Update call")
	}
	return s.updateFn(ctx, id, patch)
}

func (s *stubService) Delete(ctx context.Context, id int64) error {
	if s.deleteFn == nil {
		return errors.New("unexpected Delete call")
	}
	return s.deleteFn(ctx, id)
}

func (s *stubService) Draft(ctx context.Context, prompt string) (model.EventDraft, error) {
	if s.draftFn == nil {
		return model.EventDraft{}, errors.New("unexpected Draft call")
	}
	return s.draftFn(ctx, prompt)
}

func sampleEvent(id int64) model.Event {
	return model.Event{
		ID:               id,
		Title:            "Standup",
		StartDatetime:    time.Date(2023, 12, 1, 9, 0, 0, 0, time.UTC),
		EndDatetime:      time.Date(2023, 12, 1, 9, 15, 0, 0, time.UTC),
		OriginalTimezone: "UTC",
	}
}

func monthFilter() eventsvc.Filter {
	return eventsvc.Filter{
		From: time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Page: 1, Size: 20,
	}
}

func TestEventsCachedAcrossCalls(t *testing.T) {
	var calls int
	expected := model.EventPage{Events: []model.Event{sampleEvent(1)}, Total: 1, Page: 1, Size: 20, Pages: 1}
	sess := New(&stubService{
		listFn: func(ctx context.Context, f eventsvc.Filter) (model.EventPage, error) {
			calls++
			return expected, nil
		},
	})

	for i := 0; i < 3; i++ {
		page, err := sess.Events(context.Background(), monthFilter())
		if err != nil {
			t.Fatalf("events: %v", err)
		}
		if !reflect.DeepEqual(page, expected) {
			t.Fatalf("page = %+v", page)
		}
	}
	if calls != 1 {
		t.Fatalf("expected 1 list call, got %d", calls)
	}
}

func TestDifferentFiltersDifferentEntries(t *testing.T) {
	var calls int
	sess := New(&stubService{
		listFn: func(ctx context.Context, f eventsvc.Filter) (model.EventPage, error) {
			calls++
			return model.EventPage{Page: f.Page}, nil
		},
	})

	f := monthFilter()
	if _, err := sess.Events(context.Background(), f); err != nil {
		t.Fatal(err)
	}
	f.Page = 2
	if _, err := sess.Events(context.Background(), f); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 list calls, got %d", calls)
	}
}

func TestCreateInvalidatesListings(t *testing.T) {
	var listCalls int
	sess := New(&stubService{
		listFn: func(ctx context.Context, f eventsvc.Filter) (model.EventPage, error) {
			listCalls++
			return model.EventPage{}, nil
		},
		createFn: func(ctx context.Context, in model.EventInput) (model.Event, error) {
			ev := sampleEvent(5)
			ev.Title = in.Title
			return ev, nil
		},
	})

	ctx := context.Background()
	if _, err := sess.Events(ctx, monthFilter()); err != nil {
		t.Fatal(err)
	}
	if _, err := sess.Create(ctx, model.EventInput{Title: "New"}); err != nil {
		t.Fatal(err)
	}
	if _, err := sess.Events(ctx, monthFilter()); err != nil {
		t.Fatal(err)
	}
	if listCalls != 2 {
		t.Fatalf("listing not refetched after create: %d calls", listCalls)
	}

	// The created event was seeded into its single-entity slot.
	ev, err := sess.Event(ctx, 5)
	if err != nil {
		t.Fatalf("event: %v", err)
	}
	if ev.Title != "New" {
		t.Fatalf("seeded event = %+v", ev)
	}
}

func TestCreateFailureLeavesCacheAlone(t *testing.T) {
	var listCalls int
	rejection := errors.New("service rejected")
	sess := New(&stubService{
		listFn: func(ctx context.Context, f eventsvc.Filter) (model.EventPage, error) {
			listCalls++
			return model.EventPage{}, nil
		},
		createFn: func(ctx context.Context, in model.EventInput) (model.Event, error) {
			return model.Event{}, rejection
		},
	})

	ctx := context.Background()
	if _, err := sess.Events(ctx, monthFilter()); err != nil {
		t.Fatal(err)
	}
	if _, err := sess.Create(ctx, model.EventInput{Title: "x"}); !errors.Is(err, rejection) {
		t.Fatalf("expected rejection, got %v", err)
	}
	if _, err := sess.Events(ctx, monthFilter()); err != nil {
		t.Fatal(err)
	}
	if listCalls != 1 {
		t.Fatalf("failed create must not invalidate: %d calls", listCalls)
	}
}

func TestUpdateSeedsEntityAndInvalidatesListings(t *testing.T) {
	var listCalls, getCalls int
	updated := sampleEvent(3)
	updated.Title = "Renamed"

	sess := New(&stubService{
		listFn: func(ctx context.Context, f eventsvc.Filter) (model.EventPage, error) {
			listCalls++
			return model.EventPage{}, nil
		},
		getFn: func(ctx context.Context, id int64) (model.Event, error) {
			getCalls++
			return sampleEvent(id), nil
		},
		updateFn: func(ctx context.Context, id int64, patch model.EventPatch) (model.Event, error) {
			return updated, nil
		},
	})

	ctx := context.Background()
	if _, err := sess.Events(ctx, monthFilter()); err != nil {
		t.Fatal(err)
	}

	title := "Renamed"
	if _, err := sess.Update(ctx, 3, model.EventPatch{Title: &title}); err != nil {
		t.Fatal(err)
	}

	// Single-entity read is served from the mutation response.
	ev, err := sess.Event(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if ev.Title != "Renamed" {
		t.Fatalf("event = %+v", ev)
	}
	if getCalls != 0 {
		t.Fatalf("expected no Get round trip, got %d", getCalls)
	}

	// Listings refetch.
	if _, err := sess.Events(ctx, monthFilter()); err != nil {
		t.Fatal(err)
	}
	if listCalls != 2 {
		t.Fatalf("listing not refetched after update: %d calls", listCalls)
	}
}

func TestDeleteEvictsAndInvalidates(t *testing.T) {
	var listCalls, getCalls int
	sess := New(&stubService{
		listFn: func(ctx context.Context, f eventsvc.Filter) (model.EventPage, error) {
			listCalls++
			return model.EventPage{}, nil
		},
		getFn: func(ctx context.Context, id int64) (model.Event, error) {
			getCalls++
			return sampleEvent(id), nil
		},
		deleteFn: func(ctx context.Context, id int64) error { return nil },
	})

	ctx := context.Background()
	if _, err := sess.Event(ctx, 8); err != nil {
		t.Fatal(err)
	}
	if _, err := sess.Events(ctx, monthFilter()); err != nil {
		t.Fatal(err)
	}

	if err := sess.Delete(ctx, 8); err != nil {
		t.Fatal(err)
	}

	// Entity slot was evicted: next read goes back to the service.
	if _, err := sess.Event(ctx, 8); err != nil {
		t.Fatal(err)
	}
	if getCalls != 2 {
		t.Fatalf("expected refetch after delete, got %d get calls", getCalls)
	}
	if _, err := sess.Events(ctx, monthFilter()); err != nil {
		t.Fatal(err)
	}
	if listCalls != 2 {
		t.Fatalf("listing not refetched after delete: %d calls", listCalls)
	}
}

func TestDeleteFailureKeepsEntity(t *testing.T) {
	var getCalls int
	boom := errors.New("unreachable")
	sess := New(&stubService{
		getFn: func(ctx context.Context, id int64) (model.Event, error) {
			getCalls++
			return sampleEvent(id), nil
		},
		deleteFn: func(ctx context.Context, id int64) error { return boom },
	})

	ctx := context.Background()
	if _, err := sess.Event(ctx, 2); err != nil {
		t.Fatal(err)
	}
	if err := sess.Delete(ctx, 2); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, err := sess.Event(ctx, 2); err != nil {
		t.Fatal(err)
	}
	if getCalls != 1 {
		t.Fatalf("failed delete must keep the cached entity: %d get calls", getCalls)
	}
}

func TestInvalidateLists(t *testing.T) {
	var listCalls int
	sess := New(&stubService{
		listFn: func(ctx context.Context, f eventsvc.Filter) (model.EventPage, error) {
			listCalls++
			return model.EventPage{}, nil
		},
	})

	ctx := context.Background()
	if _, err := sess.Events(ctx, monthFilter()); err != nil {
		t.Fatal(err)
	}
	sess.InvalidateLists()
	if _, err := sess.Events(ctx, monthFilter()); err != nil {
		t.Fatal(err)
	}
	if listCalls != 2 {
		t.Fatalf("expected refetch after invalidation, got %d", listCalls)
	}
}
