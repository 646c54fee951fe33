// Package store holds the authoritative in-memory copy of the city
// collection and coordinates every network operation against the remote city
// service. All screens share one Store instance; they read state through
// Snapshot, subscribe for change notifications, and trigger operations — they
// never mutate state directly.
package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/jfenske/worldwise/internal/domain"
)

// Status is the lifecycle of the in-flight or most recently settled
// network operation.
type Status string

const (
	// StatusIdle is the initial state before the first list fetch.
	StatusIdle Status = "idle"
	// StatusLoading means a network operation is outstanding.
	StatusLoading Status = "loading"
	// StatusReady means the last settled operation succeeded.
	StatusReady Status = "ready"
	// StatusError means the last settled operation failed; ErrMsg is set.
	StatusError Status = "error"
)

// CityService defines the remote operations the store depends on.
// Declared here, in the consumer package, so tests can inject a double
// without touching the HTTP client.
type CityService interface {
	List(ctx context.Context) ([]domain.City, error)
	Get(ctx context.Context, id uuid.UUID) (domain.City, error)
	Create(ctx context.Context, draft domain.CityDraft) (domain.City, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Snapshot is a read-only view of store state handed to consumers and
// subscribers. Cities is a copy; mutating it does not affect the store.
type Snapshot struct {
	Cities  []domain.City
	Current *domain.City
	Status  Status
	ErrMsg  string
}

// Store is the city data synchronization layer.
//
// Consistency rules:
//   - Cities never contains two entries with the same ID; order is server
//     list order, with created entries appended as their responses arrive.
//   - Current caches the most recently fetched or created single city and is
//     cleared when that city is deleted.
//   - Status/ErrMsg reflect the most recently settled operation
//     (last-settled-wins; concurrent operations do not serialize on it).
type Store struct {
	remote  CityService
	metrics *Metrics

	mu      sync.Mutex
	cities  []domain.City
	current *domain.City
	status  Status
	errMsg  string

	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int

	// flight collapses concurrent Get calls for the same ID into one fetch.
	flight singleflight.Group
}

// New constructs an idle, empty Store backed by the given remote service.
// Pass nil metrics to disable instrumentation.
func New(remote CityService, metrics *Metrics) *Store {
	return &Store{
		remote:  remote,
		metrics: metrics,
		status:  StatusIdle,
		subs:    make(map[int]func(Snapshot)),
	}
}

// Snapshot returns a copy of the current store state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		Cities: make([]domain.City, len(s.cities)),
		Status: s.status,
		ErrMsg: s.errMsg,
	}
	copy(snap.Cities, s.cities)
	if s.current != nil {
		c := *s.current
		snap.Current = &c
	}
	return snap
}

// Subscribe registers fn to be called with a fresh Snapshot after every state
// transition. It returns an unsubscribe function; calling it more than once
// is harmless. Callbacks run on the goroutine that settled the operation and
// must not call back into the store synchronously.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// notify delivers snap to all subscribers, outside the state lock.
func (s *Store) notify(snap Snapshot) {
	s.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// begin records that an operation went on the wire and notifies subscribers.
func (s *Store) begin() {
	s.mu.Lock()
	s.status = StatusLoading
	s.errMsg = ""
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// settle applies mutate (may be nil) and records the outcome of the operation
// that just finished. Status is last-settled-wins: a slow operation resolving
// after a later one simply overwrites it.
func (s *Store) settle(op string, err error, mutate func()) {
	s.mu.Lock()
	if err != nil {
		s.status = StatusError
		s.errMsg = err.Error()
	} else {
		if mutate != nil {
			mutate()
		}
		s.status = StatusReady
		s.errMsg = ""
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.metrics.observeOp(op, err)
	s.notify(snap)
}

// LoadAll fetches the full city list and replaces the collection wholesale,
// preserving server order. On failure the previous collection is kept.
// Safe to call repeatedly; each call simply re-fetches and overwrites.
func (s *Store) LoadAll(ctx context.Context) ([]domain.City, error) {
	s.begin()
	cities, err := s.remote.List(ctx)
	s.settle("load_all", err, func() {
		s.cities = cities
	})
	if err != nil {
		return nil, err
	}
	// The caller gets its own copy: later deletes compact s.cities in place
	// and must not rewrite a list a consumer is still holding.
	out := make([]domain.City, len(cities))
	copy(out, cities)
	return out, nil
}

// Get returns the city with the given ID.
//
// Cache policy: when the currently focused city already has this ID, the
// cached copy is returned without a network call — the detail view is often
// revisited for the same city within a navigation session. On a miss the
// fetched city becomes the new focused city. Concurrent misses for the same
// ID share a single fetch.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (domain.City, error) {
	s.mu.Lock()
	if s.current != nil && s.current.ID == id {
		city := *s.current
		s.mu.Unlock()
		s.metrics.observeCache(true)
		return city, nil
	}
	s.mu.Unlock()
	s.metrics.observeCache(false)

	v, err, _ := s.flight.Do(id.String(), func() (any, error) {
		s.begin()
		city, err := s.remote.Get(ctx, id)
		s.settle("get", err, func() {
			c := city
			s.current = &c
		})
		return city, err
	})
	if err != nil {
		return domain.City{}, err
	}
	return v.(domain.City), nil
}

// Create validates the draft and persists it. The append is confirmed, not
// optimistic: the list only reflects the new entry once the server has
// assigned its ID and canonical field values. The created city also becomes
// the focused city. Concurrent creates are independent and append in
// response-arrival order.
func (s *Store) Create(ctx context.Context, draft domain.CityDraft) (domain.City, error) {
	if draft.CityName == "" {
		return domain.City{}, &FieldError{Field: "cityName", Err: domain.ErrValidation}
	}
	if draft.Position == nil {
		return domain.City{}, &FieldError{Field: "position", Err: domain.ErrValidation}
	}

	s.begin()
	city, err := s.remote.Create(ctx, draft)
	s.settle("create", err, func() {
		s.cities = append(s.cities, city)
		c := city
		s.current = &c
	})
	if err != nil {
		return domain.City{}, err
	}
	return city, nil
}

// Delete removes the city with the given ID. On success the entry leaves the
// collection and, when it was the focused city, the focus cache is cleared so
// a deleted record cannot remain visible. On failure the collection is
// untouched.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	s.begin()
	err := s.remote.Delete(ctx, id)
	s.settle("delete", err, func() {
		kept := s.cities[:0]
		for _, c := range s.cities {
			if c.ID != id {
				kept = append(kept, c)
			}
		}
		s.cities = kept
		if s.current != nil && s.current.ID == id {
			s.current = nil
		}
	})
	return err
}

// Reset returns the store to its initial empty idle state. Called at logout;
// the instance itself lives for the whole process and is reused by the next
// session.
func (s *Store) Reset() {
	s.mu.Lock()
	s.cities = nil
	s.current = nil
	s.status = StatusIdle
	s.errMsg = ""
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// FieldError wraps domain.ErrValidation with the offending field name.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return e.Err.Error() + ": " + e.Field + " is required"
}

func (e *FieldError) Unwrap() error { return e.Err }
