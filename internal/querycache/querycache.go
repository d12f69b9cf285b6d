// Package querycache is a session-scoped read cache for event service
// responses, keyed by normalized request shape. It is the only mutable
// shared state of the client core; every write goes through Get,
// Invalidate, SetEntry or Remove.
package querycache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Kind is the resource kind component of a Key. Invalidation after a
// mutation is deliberately coarse: every key of a list kind goes stale,
// trading extra refetches for consistency simplicity.
type Kind string

const (
	// KindEventList keys cache paginated, filtered event listings.
	KindEventList Kind = "event-list"
	// KindEvent keys cache a single event by ID.
	KindEvent Kind = "event"
)

// Key is the normalized identity of a cached request. Two keys are
// equal iff all components match; equality drives cache hits and
// invalidation scope. From/To are RFC3339 UTC strings (or empty) so
// that the struct stays comparable.
type Key struct {
	Kind  Kind
	ID    int64
	From  string
	To    string
	Query string
	Page  int
	Size  int
}

// EventKey is the single-entity key for an event ID.
func EventKey(id int64) Key {
	return Key{Kind: KindEvent, ID: id}
}

// ListKey normalizes a listing request into a Key. Zero time bounds
// mean an unbounded side.
func ListKey(from, to time.Time, query string, page, size int) Key {
	k := Key{Kind: KindEventList, Query: query, Page: page, Size: size}
	if !from.IsZero() {
		k.From = from.UTC().Format(time.RFC3339)
	}
	if !to.IsZero() {
		k.To = to.UTC().Format(time.RFC3339)
	}
	return k
}

// String is the flight identity of the key. Query is quoted because it
// is free text and may contain the separator.
func (k Key) String() string {
	return fmt.Sprintf("%s|%d|%s|%s|%q|%d|%d", k.Kind, k.ID, k.From, k.To, k.Query, k.Page, k.Size)
}

// entry is the last known response for a Key. In-flight de-duplication
// lives in the singleflight group, not here.
type entry struct {
	data      any
	fetchedAt time.Time
	fresh     bool
}

// Store maps Keys to cached responses for the lifetime of one
// application session. Construct one per session (or per test case)
// with New; there is no package-level instance.
type Store struct {
	mu      sync.Mutex
	entries map[Key]*entry
	flight  singleflight.Group
}

// New creates an empty Store.
func New() *Store {
	return &Store{entries: make(map[Key]*entry)}
}

// Get returns the fresh cached value for key, or runs fetch to obtain
// one. At most one fetch is in flight per key: concurrent callers for
// the same key share the pending fetch instead of issuing duplicates.
// The fetched value is stored under key even if the requesting caller
// has since moved on; any later caller sharing the key gets it.
func (s *Store) Get(ctx context.Context, key Key, fetch func(context.Context) (any, error)) (any, error) {
	s.mu.Lock()
	if e, ok := s.entries[key]; ok && e.fresh {
		data := e.data
		s.mu.Unlock()
		return data, nil
	}
	s.mu.Unlock()

	v, err, _ := s.flight.Do(key.String(), func() (any, error) {
		data, err := fetch(ctx)
		if err != nil {
			// Failed fetch leaves the prior entry (stale or absent) as-is.
			return nil, err
		}
		s.SetEntry(key, data)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// SetEntry stores data under key and marks it fresh. Used both on fetch
// completion and to seed a single-entity slot from a mutation response.
func (s *Store) SetEntry(key Key, data any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = &entry{data: data, fetchedAt: time.Now(), fresh: true}
}

// Invalidate marks every entry whose key matches pred as stale. The
// entry and its data stay in place until the next Get refetches.
func (s *Store) Invalidate(pred func(Key) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.entries {
		if pred(k) {
			e.fresh = false
		}
	}
}

// InvalidateKind marks every entry of the given resource kind stale.
func (s *Store) InvalidateKind(kind Kind) {
	s.Invalidate(func(k Key) bool { return k.Kind == kind })
}

// Remove evicts the entry for key, if any.
func (s *Store) Remove(key Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}
