package eventsvc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tcal/internal/model"
)

func testEvent() model.Event {
	return model.Event{
		ID:               1,
		Title:            "Standup",
		StartDatetime:    time.Date(2023, 12, 1, 9, 0, 0, 0, time.UTC),
		EndDatetime:      time.Date(2023, 12, 1, 9, 15, 0, 0, time.UTC),
		OriginalTimezone: "UTC",
		Attendees:        []string{"a@example.com"},
		CreatedAt:        time.Date(2023, 11, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:        time.Date(2023, 11, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestListEncodesFilter(t *testing.T) {
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/events/" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("missing X-Request-ID")
		}
		gotQuery = r.URL.Query()
		json.NewEncoder(w).Encode(model.EventPage{
			Events: []model.Event{testEvent()},
			Total:  1, Page: 2, Size: 10, Pages: 1,
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	from := time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC)
	page, err := c.List(context.Background(), Filter{
		From: from, To: from.AddDate(0, 1, 0), Query: "stand", Page: 2, Size: 10,
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	want := map[string]string{
		"from":  "2023-12-01T00:00:00Z",
		"to":    "2024-01-01T00:00:00Z",
		"query": "stand",
		"page":  "2",
		"size":  "10",
	}
	for k, v := range want {
		if got := gotQuery[k]; len(got) != 1 || got[0] != v {
			t.Errorf("query %s = %v, want %s", k, got, v)
		}
	}
	if len(page.Events) != 1 || page.Events[0].Title != "Standup" {
		t.Fatalf("page = %+v", page)
	}
}

func TestListOmitsUnsetFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if enc := r.URL.RawQuery; enc != "" {
			t.Errorf("unexpected query string %q", enc)
		}
		json.NewEncoder(w).Encode(model.EventPage{Page: 1, Size: 20, Pages: 1})
	}))
	defer srv.Close()

	if _, err := New(srv.URL).List(context.Background(), Filter{}); err != nil {
		t.Fatalf("list: %v", err)
	}
}

func TestCreateSendsWireFormat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["title"] != "Lunch" {
			t.Errorf("title = %v", body["title"])
		}
		if body["start_datetime"] != "2023-12-01T12:00:00Z" {
			t.Errorf("start_datetime = %v", body["start_datetime"])
		}
		if body["all_day"] != false {
			t.Errorf("all_day = %v", body["all_day"])
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(testEvent())
	}))
	defer srv.Close()

	_, err := New(srv.URL).Create(context.Background(), model.EventInput{
		Title:            "Lunch",
		StartDatetime:    time.Date(2023, 12, 1, 12, 0, 0, 0, time.UTC),
		EndDatetime:      time.Date(2023, 12, 1, 13, 0, 0, 0, time.UTC),
		OriginalTimezone: "UTC",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
}

func TestUpdateOmitsNilPatchFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/v1/events/7" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if len(body) != 1 {
			t.Errorf("patch carries %d fields, want 1: %v", len(body), body)
		}
		if body["title"] != "Renamed" {
			t.Errorf("title = %v", body["title"])
		}
		json.NewEncoder(w).Encode(testEvent())
	}))
	defer srv.Close()

	title := "Renamed"
	_, err := New(srv.URL).Update(context.Background(), 7, model.EventPatch{Title: &title})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
}

func TestRejectionPreservesDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]any{
			"detail": map[string]any{
				"code":    "CONFLICT",
				"message": "All-day event overlaps with existing event: Holiday",
				"fields":  map[string]any{"start_datetime": "overlaps"},
			},
		})
	}))
	defer srv.Close()

	_, err := New(srv.URL).Create(context.Background(), model.EventInput{Title: "x"})
	var se *ServiceError
	if !errors.As(err, &se) {
		t.Fatalf("expected ServiceError, got %v", err)
	}
	if se.StatusCode != http.StatusConflict || se.Code != "CONFLICT" {
		t.Errorf("status/code = %d/%s", se.StatusCode, se.Code)
	}
	if se.Message != "All-day event overlaps with existing event: Holiday" {
		t.Errorf("message not preserved verbatim: %q", se.Message)
	}
	if se.Fields["start_datetime"] != "overlaps" {
		t.Errorf("fields not preserved: %v", se.Fields)
	}
}

func TestNotFoundMatchesSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]any{
			"detail": map[string]any{"code": "NOT_FOUND", "message": "Event with id 99 not found"},
		})
	}))
	defer srv.Close()

	_, err := New(srv.URL).Get(context.Background(), 99)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing is listening anymore

	_, err := New(srv.URL).Get(context.Background(), 1)
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/api/v1/events/3" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	if err := New(srv.URL).Delete(context.Background(), 3); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestDraft(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/events/draft" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["prompt"] != "lunch with Sarah tomorrow at noon" {
			t.Errorf("prompt = %q", body["prompt"])
		}
		json.NewEncoder(w).Encode(map[string]any{
			"title":              "Lunch with Sarah",
			"all_day":            false,
			"confidence":         0.8,
			"attendees":          []string{},
			"extracted_entities": map[string]any{"people": []string{"Sarah"}},
		})
	}))
	defer srv.Close()

	draft, err := New(srv.URL).Draft(context.Background(), "lunch with Sarah tomorrow at noon")
	if err != nil {
		t.Fatalf("draft: %v", err)
	}
	if draft.Title != "Lunch with Sarah" || draft.Confidence != 0.8 {
		t.Fatalf("draft = %+v", draft)
	}
	if draft.StartDatetime != nil {
		t.Error("absent start must stay nil")
	}
}
