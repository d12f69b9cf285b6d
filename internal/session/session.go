// Package session ties the query cache to the event service client.
// Reads go through the cache; mutations hit the service and then apply
// the minimal cache updates needed for consistency. All outcomes are
// explicit return values; on any failure the cache keeps its prior
// state.
package session

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"tcal/internal/eventsvc"
	"tcal/internal/model"
	"tcal/internal/querycache"
)

// Service is the slice of the event service client the session needs.
type Service interface {
	List(ctx context.Context, f eventsvc.Filter) (model.EventPage, error)
	Get(ctx context.Context, id int64) (model.Event, error)
	Create(ctx context.Context, in model.EventInput) (model.Event, error)
	Update(ctx context.Context, id int64, patch model.EventPatch) (model.Event, error)
	Delete(ctx context.Context, id int64) error
	Draft(ctx context.Context, prompt string) (model.EventDraft, error)
}

// Session is one viewer session: a cache store plus the service client
// that fills it. Construct one at startup and pass it around; the store
// is never shared implicitly.
type Session struct {
	cache *querycache.Store
	svc   Service
}

// New creates a Session around an empty cache.
func New(svc Service) *Session {
	return &Session{cache: querycache.New(), svc: svc}
}

// NewWithStore creates a Session over an existing store. Mostly for
// tests that want to inspect or pre-seed cache state.
func NewWithStore(svc Service, store *querycache.Store) *Session {
	return &Session{cache: store, svc: svc}
}

// Events returns the page for f, from cache when fresh. Concurrent
// calls with an identical filter share one fetch.
func (s *Session) Events(ctx context.Context, f eventsvc.Filter) (model.EventPage, error) {
	key := querycache.ListKey(f.From, f.To, f.Query, f.Page, f.Size)
	v, err := s.cache.Get(ctx, key, func(ctx context.Context) (any, error) {
		return s.svc.List(ctx, f)
	})
	if err != nil {
		return model.EventPage{}, err
	}
	page, ok := v.(model.EventPage)
	if !ok {
		return model.EventPage{}, fmt.Errorf("cache entry for %v holds %T", key, v)
	}
	return page, nil
}

// Event returns a single event, from cache when fresh.
func (s *Session) Event(ctx context.Context, id int64) (model.Event, error) {
	key := querycache.EventKey(id)
	v, err := s.cache.Get(ctx, key, func(ctx context.Context) (any, error) {
		return s.svc.Get(ctx, id)
	})
	if err != nil {
		return model.Event{}, err
	}
	ev, ok := v.(model.Event)
	if !ok {
		return model.Event{}, fmt.Errorf("cache entry for %v holds %T", key, v)
	}
	return ev, nil
}

// Create submits a new event. On success every list-kind entry goes
// stale: the new event may fall into any previously cached range. On
// failure the cache is untouched.
func (s *Session) Create(ctx context.Context, in model.EventInput) (model.Event, error) {
	ev, err := s.svc.Create(ctx, in)
	if err != nil {
		return model.Event{}, err
	}
	s.cache.SetEntry(querycache.EventKey(ev.ID), ev)
	s.cache.InvalidateKind(querycache.KindEventList)
	log.WithFields(log.Fields{"id": ev.ID, "title": ev.Title}).Debug("event created, lists invalidated")
	return ev, nil
}

// Update applies patch. On success the single-entity slot is seeded
// from the response (saving a round trip) and list-kind entries go
// stale, since the ranges the event falls into may have shifted. No
// optimistic patching: nothing changes until the service confirms.
func (s *Session) Update(ctx context.Context, id int64, patch model.EventPatch) (model.Event, error) {
	ev, err := s.svc.Update(ctx, id, patch)
	if err != nil {
		return model.Event{}, err
	}
	s.cache.SetEntry(querycache.EventKey(id), ev)
	s.cache.InvalidateKind(querycache.KindEventList)
	log.WithFields(log.Fields{"id": id}).Debug("event updated, lists invalidated")
	return ev, nil
}

// Delete removes the event. On success its cache slot is evicted and
// list-kind entries go stale; on failure the entry stays as-is.
func (s *Session) Delete(ctx context.Context, id int64) error {
	if err := s.svc.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Remove(querycache.EventKey(id))
	s.cache.InvalidateKind(querycache.KindEventList)
	log.WithFields(log.Fields{"id": id}).Debug("event deleted, lists invalidated")
	return nil
}

// Draft passes the prompt through to the service's extractor. Drafts
// are never cached; they are one-shot form input.
func (s *Session) Draft(ctx context.Context, prompt string) (model.EventDraft, error) {
	return s.svc.Draft(ctx, prompt)
}

// InvalidateLists marks every list-kind entry stale. Used by the
// background refresher so long-running sessions refetch on next read.
func (s *Session) InvalidateLists() {
	s.cache.InvalidateKind(querycache.KindEventList)
}
