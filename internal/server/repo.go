// Package server is the dev stand-in for the remote city service: the same
// HTTP contract the real deployment exposes, backed by an in-memory table.
// It exists so the client can be developed and end-to-end tested without any
// external service; it is not a persistence layer.
package server

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/jfenske/worldwise/internal/domain"
)

// MemRepo is a mutex-guarded ordered city table. Insertion order is list
// order, matching the contract the client relies on.
type MemRepo struct {
	mu     sync.Mutex
	cities []domain.City
}

// NewMemRepo constructs a repo pre-populated with seed (may be nil).
func NewMemRepo(seed []domain.City) *MemRepo {
	r := &MemRepo{}
	r.cities = append(r.cities, seed...)
	return r
}

// List returns a copy of all cities in insertion order.
func (r *MemRepo) List() []domain.City {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.City, len(r.cities))
	copy(out, r.cities)
	return out
}

// Get returns a single city by ID, or domain.ErrNotFound.
func (r *MemRepo) Get(id uuid.UUID) (domain.City, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.cities {
		if c.ID == id {
			return c, nil
		}
	}
	return domain.City{}, domain.ErrNotFound
}

// Create assigns an ID to the draft and appends it.
func (r *MemRepo) Create(draft domain.CityDraft) domain.City {
	city := domain.City{
		ID:       uuid.New(),
		CityName: draft.CityName,
		Country:  draft.Country,
		Emoji:    draft.Emoji,
		Date:     draft.Date,
		Notes:    draft.Notes,
	}
	if draft.Position != nil {
		city.Position = *draft.Position
	}

	r.mu.Lock()
	r.cities = append(r.cities, city)
	r.mu.Unlock()
	return city
}

// Delete removes a city by ID, or returns domain.ErrNotFound.
func (r *MemRepo) Delete(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, c := range r.cities {
		if c.ID == id {
			r.cities = append(r.cities[:i], r.cities[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

// seedFile is the on-disk shape of a seed: {"cities": [...]}. Cities without
// an ID get one assigned at load, so hand-written fixtures stay short.
type seedFile struct {
	Cities []domain.City `json:"cities"`
}

// LoadSeed reads a JSON seed file of cities.
func LoadSeed(path string) ([]domain.City, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("server.LoadSeed: %w", err)
	}
	var f seedFile
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("server.LoadSeed: parse %s: %w", path, err)
	}
	for i := range f.Cities {
		if f.Cities[i].ID == uuid.Nil {
			f.Cities[i].ID = uuid.New()
		}
	}
	return f.Cities, nil
}
