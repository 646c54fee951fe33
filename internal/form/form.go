// Package form implements the add-city workflow: a chosen map position is
// reverse-geocoded into a suggested city name, country, and flag, the user
// edits the suggestion, and the draft is submitted to the city store.
package form

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jfenske/worldwise/internal/domain"
	"github.com/jfenske/worldwise/internal/geocode"
)

// User-visible messages, mirrored by the UI layer verbatim.
const (
	MsgNoPosition = "Start by choosing a position on the map"
	MsgNotACity   = "That doesn't seem to be a city. Pick somewhere else"
)

// CityCreator is the single store operation the form needs.
type CityCreator interface {
	Create(ctx context.Context, draft domain.CityDraft) (domain.City, error)
}

// State is a read-only view of the form for rendering. When Message is
// non-empty the form is blocked until a new position is chosen.
type State struct {
	Position *domain.Position
	CityName string
	Country  string
	Emoji    string
	Date     time.Time
	Notes    string
	Looking  bool   // a geocode lookup is outstanding
	Message  string // user-visible geocode failure, empty when fine
}

// Form holds the in-progress draft. Safe for concurrent use; a position
// change supersedes any lookup still in flight.
type Form struct {
	geo      geocode.Geocoder
	cities   CityCreator
	validate *validator.Validate
	now      func() time.Time

	mu     sync.Mutex
	state  State
	gen    uint64 // bumped per position change; stale lookups check it
	cancel context.CancelFunc
}

// New constructs an empty Form.
func New(geo geocode.Geocoder, cities CityCreator) *Form {
	return &Form{
		geo:      geo,
		cities:   cities,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}
}

// State returns a copy of the current form state.
func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	st := f.state
	if f.state.Position != nil {
		p := *f.state.Position
		st.Position = &p
	}
	return st
}

// SetPosition records a newly chosen coordinate pair and resolves it to a
// suggested city name, country, and flag. Any lookup still in flight for a
// previous position is cancelled and its result discarded, so a slow stale
// response can never overwrite a newer one.
//
// The call blocks until its own lookup settles or is superseded; run it on a
// separate goroutine when the caller must stay responsive.
func (f *Form) SetPosition(ctx context.Context, pos domain.Position) {
	f.mu.Lock()
	if f.cancel != nil {
		f.cancel()
	}
	f.gen++
	token := f.gen
	lookupCtx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.state = State{
		Position: &pos,
		Date:     f.now(),
		Looking:  true,
	}
	f.mu.Unlock()

	place, err := f.geo.Reverse(lookupCtx, pos)

	f.mu.Lock()
	defer f.mu.Unlock()
	if token != f.gen {
		// A newer position was chosen while this lookup was on the wire.
		return
	}
	f.state.Looking = false
	switch {
	case errors.Is(err, domain.ErrUnresolvable):
		f.state.Message = MsgNotACity
	case err != nil:
		f.state.Message = err.Error()
	default:
		f.state.CityName = place.Name()
		f.state.Country = place.CountryName
		f.state.Emoji = domain.ConvertToEmoji(place.CountryCode)
	}
}

// SetCityName overrides the suggested city name.
func (f *Form) SetCityName(name string) {
	f.mu.Lock()
	f.state.CityName = name
	f.mu.Unlock()
}

// SetDate overrides the visit date (defaults to the time the position was chosen).
func (f *Form) SetDate(date time.Time) {
	f.mu.Lock()
	f.state.Date = date
	f.mu.Unlock()
}

// SetNotes sets the free-text notes.
func (f *Form) SetNotes(notes string) {
	f.mu.Lock()
	f.state.Notes = notes
	f.mu.Unlock()
}

// Submit validates the draft and creates the city through the store. The
// created record is returned so the caller can decide what to do next (the
// UI navigates to the list only on success). The store is never invoked when
// no position is chosen, the position did not resolve to a city, or a new
// position superseded the draft while the submit was validating.
func (f *Form) Submit(ctx context.Context) (domain.City, error) {
	f.mu.Lock()
	st := f.state
	token := f.gen
	f.mu.Unlock()
	return f.submit(ctx, st, token)
}

func (f *Form) submit(ctx context.Context, st State, token uint64) (domain.City, error) {
	if st.Position == nil {
		return domain.City{}, fmt.Errorf("%w: %s", domain.ErrValidation, MsgNoPosition)
	}
	if st.Looking {
		return domain.City{}, fmt.Errorf("%w: still resolving the chosen position", domain.ErrValidation)
	}
	if st.Message != "" {
		return domain.City{}, fmt.Errorf("%w: %s", domain.ErrValidation, st.Message)
	}

	draft := domain.CityDraft{
		CityName: st.CityName,
		Country:  st.Country,
		Emoji:    st.Emoji,
		Date:     st.Date,
		Notes:    st.Notes,
		Position: st.Position,
	}
	if err := f.validate.Struct(draft); err != nil {
		return domain.City{}, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	f.mu.Lock()
	superseded := token != f.gen
	f.mu.Unlock()
	if superseded {
		// A new position was chosen after this draft was captured.
		return domain.City{}, fmt.Errorf("%w: the position changed while submitting", domain.ErrValidation)
	}

	return f.cities.Create(ctx, draft)
}

// Reset clears the draft, e.g. after a successful submit.
func (f *Form) Reset() {
	f.mu.Lock()
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.gen++
	f.state = State{}
	f.mu.Unlock()
}
