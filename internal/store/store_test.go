package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jfenske/worldwise/internal/domain"
	"github.com/jfenske/worldwise/internal/store"
)

// mockCityService is a hand-written test double for store.CityService.
// Each method is a function field — set only the ones your test needs.
type mockCityService struct {
	mu      sync.Mutex
	calls   map[string]int
	list    func(ctx context.Context) ([]domain.City, error)
	get     func(ctx context.Context, id uuid.UUID) (domain.City, error)
	create  func(ctx context.Context, draft domain.CityDraft) (domain.City, error)
	delete_ func(ctx context.Context, id uuid.UUID) error
}

func (m *mockCityService) record(op string) {
	m.mu.Lock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[op]++
	m.mu.Unlock()
}

func (m *mockCityService) callCount(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

func (m *mockCityService) List(ctx context.Context) ([]domain.City, error) {
	m.record("list")
	return m.list(ctx)
}
func (m *mockCityService) Get(ctx context.Context, id uuid.UUID) (domain.City, error) {
	m.record("get")
	return m.get(ctx, id)
}
func (m *mockCityService) Create(ctx context.Context, draft domain.CityDraft) (domain.City, error) {
	m.record("create")
	return m.create(ctx, draft)
}
func (m *mockCityService) Delete(ctx context.Context, id uuid.UUID) error {
	m.record("delete")
	return m.delete_(ctx, id)
}

// compile-time check: mockCityService must satisfy store.CityService.
var _ store.CityService = (*mockCityService)(nil)

// ---- helpers ---------------------------------------------------------------

func cityFixture(name string) domain.City {
	return domain.City{
		ID:       uuid.New(),
		CityName: name,
		Country:  "Portugal",
		Emoji:    domain.ConvertToEmoji("PT"),
		Date:     time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC),
		Notes:    "lovely",
		Position: domain.Position{Lat: 38.7223, Lng: -9.1393},
	}
}

func draftFixture() domain.CityDraft {
	return domain.CityDraft{
		CityName: "Lisbon",
		Country:  "Portugal",
		Emoji:    domain.ConvertToEmoji("PT"),
		Date:     time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC),
		Position: &domain.Position{Lat: 38.7223, Lng: -9.1393},
	}
}

// echoCreate returns a service whose Create assigns an ID and echoes the
// draft back, the way the real remote does.
func echoCreate() *mockCityService {
	return &mockCityService{
		create: func(_ context.Context, d domain.CityDraft) (domain.City, error) {
			return domain.City{
				ID:       uuid.New(),
				CityName: d.CityName,
				Country:  d.Country,
				Emoji:    d.Emoji,
				Date:     d.Date,
				Notes:    d.Notes,
				Position: *d.Position,
			}, nil
		},
	}
}

// ---- LoadAll ---------------------------------------------------------------

func TestStore_LoadAll_ReplacesCollection(t *testing.T) {
	lisbon, berlin := cityFixture("Lisbon"), cityFixture("Berlin")
	svc := &mockCityService{
		list: func(_ context.Context) ([]domain.City, error) {
			return []domain.City{lisbon, berlin}, nil
		},
	}
	s := store.New(svc, nil)

	cities, err := s.LoadAll(context.Background())

	require.NoError(t, err)
	require.Len(t, cities, 2)
	snap := s.Snapshot()
	assert.Equal(t, store.StatusReady, snap.Status)
	assert.Equal(t, []domain.City{lisbon, berlin}, snap.Cities)
	assert.Empty(t, snap.ErrMsg)
}

func TestStore_LoadAll_FailureKeepsPreviousCities(t *testing.T) {
	lisbon := cityFixture("Lisbon")
	failing := false
	svc := &mockCityService{
		list: func(_ context.Context) ([]domain.City, error) {
			if failing {
				return nil, domain.ErrUnavailable
			}
			return []domain.City{lisbon}, nil
		},
	}
	s := store.New(svc, nil)

	_, err := s.LoadAll(context.Background())
	require.NoError(t, err)

	failing = true
	_, err = s.LoadAll(context.Background())

	assert.ErrorIs(t, err, domain.ErrUnavailable)
	snap := s.Snapshot()
	assert.Equal(t, store.StatusError, snap.Status)
	assert.NotEmpty(t, snap.ErrMsg)
	// The previous collection survives a failed reload.
	assert.Equal(t, []domain.City{lisbon}, snap.Cities)
}

func TestStore_LoadAll_FailureOnEmptyStore(t *testing.T) {
	svc := &mockCityService{
		list: func(_ context.Context) ([]domain.City, error) {
			return nil, domain.ErrUnavailable
		},
	}
	s := store.New(svc, nil)

	_, err := s.LoadAll(context.Background())

	assert.ErrorIs(t, err, domain.ErrUnavailable)
	snap := s.Snapshot()
	assert.Empty(t, snap.Cities)
	assert.Equal(t, store.StatusError, snap.Status)
	assert.NotEmpty(t, snap.ErrMsg)
}

// ---- Get -------------------------------------------------------------------

func TestStore_Get_SecondCallIsCacheHit(t *testing.T) {
	lisbon := cityFixture("Lisbon")
	svc := &mockCityService{
		get: func(_ context.Context, id uuid.UUID) (domain.City, error) {
			return lisbon, nil
		},
	}
	s := store.New(svc, nil)

	first, err := s.Get(context.Background(), lisbon.ID)
	require.NoError(t, err)

	second, err := s.Get(context.Background(), lisbon.ID)
	require.NoError(t, err)

	// Exactly one network call; both calls observe identical data.
	assert.Equal(t, 1, svc.callCount("get"))
	assert.Equal(t, first, second)
}

func TestStore_Get_DifferentIDMisses(t *testing.T) {
	lisbon, berlin := cityFixture("Lisbon"), cityFixture("Berlin")
	byID := map[uuid.UUID]domain.City{lisbon.ID: lisbon, berlin.ID: berlin}
	svc := &mockCityService{
		get: func(_ context.Context, id uuid.UUID) (domain.City, error) {
			return byID[id], nil
		},
	}
	s := store.New(svc, nil)

	_, err := s.Get(context.Background(), lisbon.ID)
	require.NoError(t, err)
	got, err := s.Get(context.Background(), berlin.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, svc.callCount("get"))
	assert.Equal(t, "Berlin", got.CityName)
}

func TestStore_Get_NotFoundLeavesCurrentUnchanged(t *testing.T) {
	lisbon := cityFixture("Lisbon")
	svc := &mockCityService{
		get: func(_ context.Context, id uuid.UUID) (domain.City, error) {
			if id == lisbon.ID {
				return lisbon, nil
			}
			return domain.City{}, domain.ErrNotFound
		},
	}
	s := store.New(svc, nil)

	_, err := s.Get(context.Background(), lisbon.ID)
	require.NoError(t, err)

	_, err = s.Get(context.Background(), uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotFound)
	snap := s.Snapshot()
	assert.Equal(t, store.StatusError, snap.Status)
	require.NotNil(t, snap.Current)
	assert.Equal(t, lisbon.ID, snap.Current.ID)
}

func TestStore_Get_CacheHitCounted(t *testing.T) {
	lisbon := cityFixture("Lisbon")
	svc := &mockCityService{
		get: func(_ context.Context, id uuid.UUID) (domain.City, error) {
			return lisbon, nil
		},
	}
	reg := prometheus.NewRegistry()
	metrics := store.NewMetrics(reg)
	s := store.New(svc, metrics)

	_, _ = s.Get(context.Background(), lisbon.ID)
	_, _ = s.Get(context.Background(), lisbon.ID)
	_, _ = s.Get(context.Background(), lisbon.ID)

	assert.Equal(t, 2.0, counterValue(t, reg, "worldwise_store_city_cache_hits_total"))
	assert.Equal(t, 1.0, counterValue(t, reg, "worldwise_store_city_cache_misses_total"))
}

// counterValue reads a plain counter back out of the registry.
func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

// ---- Create ----------------------------------------------------------------

func TestStore_Create_AppendsAndFocuses(t *testing.T) {
	svc := echoCreate()
	svc.list = func(_ context.Context) ([]domain.City, error) {
		return []domain.City{cityFixture("Berlin")}, nil
	}
	s := store.New(svc, nil)
	_, err := s.LoadAll(context.Background())
	require.NoError(t, err)

	before := len(s.Snapshot().Cities)
	draft := draftFixture()

	created, err := s.Create(context.Background(), draft)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, draft.CityName, created.CityName)
	assert.Equal(t, draft.Country, created.Country)
	assert.Equal(t, draft.Emoji, created.Emoji)
	assert.Equal(t, draft.Date, created.Date)
	assert.Equal(t, *draft.Position, created.Position)

	snap := s.Snapshot()
	assert.Len(t, snap.Cities, before+1)
	assert.Equal(t, created, snap.Cities[len(snap.Cities)-1])
	require.NotNil(t, snap.Current)
	assert.Equal(t, created.ID, snap.Current.ID)
	assert.Equal(t, store.StatusReady, snap.Status)
}

func TestStore_Create_ThenGetIsCacheHit(t *testing.T) {
	svc := echoCreate()
	svc.get = func(_ context.Context, id uuid.UUID) (domain.City, error) {
		t.Fatal("Get must not hit the network after Create for the same ID")
		return domain.City{}, nil
	}
	s := store.New(svc, nil)

	created, err := s.Create(context.Background(), draftFixture())
	require.NoError(t, err)

	got, err := s.Get(context.Background(), created.ID)

	require.NoError(t, err)
	assert.Equal(t, created, got)
	assert.Equal(t, 0, svc.callCount("get"))
}

func TestStore_Create_MissingName(t *testing.T) {
	svc := echoCreate()
	s := store.New(svc, nil)

	draft := draftFixture()
	draft.CityName = ""

	_, err := s.Create(context.Background(), draft)

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, 0, svc.callCount("create"))
}

func TestStore_Create_MissingPosition(t *testing.T) {
	svc := echoCreate()
	s := store.New(svc, nil)

	draft := draftFixture()
	draft.Position = nil

	_, err := s.Create(context.Background(), draft)

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, 0, svc.callCount("create"))
}

func TestStore_Create_RemoteFailureLeavesCities(t *testing.T) {
	svc := &mockCityService{
		create: func(_ context.Context, _ domain.CityDraft) (domain.City, error) {
			return domain.City{}, domain.ErrUnavailable
		},
	}
	s := store.New(svc, nil)

	_, err := s.Create(context.Background(), draftFixture())

	assert.ErrorIs(t, err, domain.ErrUnavailable)
	snap := s.Snapshot()
	assert.Empty(t, snap.Cities)
	assert.Nil(t, snap.Current)
	assert.Equal(t, store.StatusError, snap.Status)
}

func TestStore_Create_ConcurrentBothAppend(t *testing.T) {
	svc := echoCreate()
	s := store.New(svc, nil)

	var wg sync.WaitGroup
	for _, name := range []string{"Lisbon", "Berlin"} {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			draft := draftFixture()
			draft.CityName = name
			_, err := s.Create(context.Background(), draft)
			assert.NoError(t, err)
		}(name)
	}
	wg.Wait()

	// Both appended, in whatever order their responses settled.
	snap := s.Snapshot()
	require.Len(t, snap.Cities, 2)
	names := []string{snap.Cities[0].CityName, snap.Cities[1].CityName}
	assert.ElementsMatch(t, []string{"Lisbon", "Berlin"}, names)
}

// ---- Delete ----------------------------------------------------------------

func TestStore_Delete_RemovesAndInvalidatesCache(t *testing.T) {
	svc := echoCreate()
	svc.delete_ = func(_ context.Context, _ uuid.UUID) error { return nil }
	s := store.New(svc, nil)

	created, err := s.Create(context.Background(), draftFixture())
	require.NoError(t, err)
	require.NotNil(t, s.Snapshot().Current)

	err = s.Delete(context.Background(), created.ID)

	require.NoError(t, err)
	snap := s.Snapshot()
	assert.Empty(t, snap.Cities)
	// The focused-city cache must not keep a deleted record visible.
	assert.Nil(t, snap.Current)
	assert.Equal(t, store.StatusReady, snap.Status)
}

func TestStore_Delete_OtherCityKeepsCurrent(t *testing.T) {
	svc := echoCreate()
	svc.delete_ = func(_ context.Context, _ uuid.UUID) error { return nil }
	s := store.New(svc, nil)

	first, err := s.Create(context.Background(), draftFixture())
	require.NoError(t, err)
	draft := draftFixture()
	draft.CityName = "Berlin"
	second, err := s.Create(context.Background(), draft)
	require.NoError(t, err)

	err = s.Delete(context.Background(), first.ID)

	require.NoError(t, err)
	snap := s.Snapshot()
	require.Len(t, snap.Cities, 1)
	assert.Equal(t, second.ID, snap.Cities[0].ID)
	require.NotNil(t, snap.Current)
	assert.Equal(t, second.ID, snap.Current.ID)
}

func TestStore_Delete_FailureLeavesCities(t *testing.T) {
	svc := echoCreate()
	svc.delete_ = func(_ context.Context, _ uuid.UUID) error { return domain.ErrUnavailable }
	s := store.New(svc, nil)

	created, err := s.Create(context.Background(), draftFixture())
	require.NoError(t, err)

	err = s.Delete(context.Background(), created.ID)

	assert.ErrorIs(t, err, domain.ErrUnavailable)
	snap := s.Snapshot()
	assert.Len(t, snap.Cities, 1)
	assert.Equal(t, store.StatusError, snap.Status)
}

// ---- Subscriptions ---------------------------------------------------------

func TestStore_Subscribe_NotifiedOnTransitions(t *testing.T) {
	svc := &mockCityService{
		list: func(_ context.Context) ([]domain.City, error) {
			return []domain.City{cityFixture("Lisbon")}, nil
		},
	}
	s := store.New(svc, nil)

	var mu sync.Mutex
	var statuses []store.Status
	unsubscribe := s.Subscribe(func(snap store.Snapshot) {
		mu.Lock()
		statuses = append(statuses, snap.Status)
		mu.Unlock()
	})

	_, err := s.LoadAll(context.Background())
	require.NoError(t, err)

	mu.Lock()
	got := append([]store.Status(nil), statuses...)
	mu.Unlock()
	assert.Equal(t, []store.Status{store.StatusLoading, store.StatusReady}, got)

	unsubscribe()
	_, err = s.LoadAll(context.Background())
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, statuses, 2, "no notifications after unsubscribe")
}

func TestStore_Subscribe_AllSubscribersSeeSameState(t *testing.T) {
	svc := &mockCityService{
		list: func(_ context.Context) ([]domain.City, error) {
			return []domain.City{cityFixture("Lisbon")}, nil
		},
	}
	s := store.New(svc, nil)

	var mu sync.Mutex
	var a, b store.Snapshot
	s.Subscribe(func(snap store.Snapshot) { mu.Lock(); a = snap; mu.Unlock() })
	s.Subscribe(func(snap store.Snapshot) { mu.Lock(); b = snap; mu.Unlock() })

	_, err := s.LoadAll(context.Background())
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, a.Status, b.Status)
	assert.Equal(t, a.Cities, b.Cities)
}

// ---- Reset -----------------------------------------------------------------

func TestStore_Reset_ReturnsToInitialState(t *testing.T) {
	svc := echoCreate()
	s := store.New(svc, nil)

	_, err := s.Create(context.Background(), draftFixture())
	require.NoError(t, err)

	s.Reset()

	snap := s.Snapshot()
	assert.Empty(t, snap.Cities)
	assert.Nil(t, snap.Current)
	assert.Equal(t, store.StatusIdle, snap.Status)
	assert.Empty(t, snap.ErrMsg)
}

// ---- Snapshot isolation ----------------------------------------------------

func TestStore_Snapshot_CopyIsIsolated(t *testing.T) {
	svc := &mockCityService{
		list: func(_ context.Context) ([]domain.City, error) {
			return []domain.City{cityFixture("Lisbon")}, nil
		},
	}
	s := store.New(svc, nil)
	_, err := s.LoadAll(context.Background())
	require.NoError(t, err)

	snap := s.Snapshot()
	snap.Cities[0].CityName = "Mutated"
	if snap.Current != nil {
		snap.Current.CityName = "Mutated"
	}

	fresh := s.Snapshot()
	assert.Equal(t, "Lisbon", fresh.Cities[0].CityName)
}

func TestStore_LoadAll_ResultSurvivesLaterDelete(t *testing.T) {
	lisbon, berlin, porto := cityFixture("Lisbon"), cityFixture("Berlin"), cityFixture("Porto")
	svc := &mockCityService{
		list: func(_ context.Context) ([]domain.City, error) {
			return []domain.City{lisbon, berlin, porto}, nil
		},
		delete_: func(_ context.Context, _ uuid.UUID) error { return nil },
	}
	s := store.New(svc, nil)

	loaded, err := s.LoadAll(context.Background())
	require.NoError(t, err)

	err = s.Delete(context.Background(), lisbon.ID)
	require.NoError(t, err)

	// The list handed out at load time must not be rewritten by the delete.
	assert.Equal(t, []domain.City{lisbon, berlin, porto}, loaded)
	assert.Equal(t, []domain.City{berlin, porto}, s.Snapshot().Cities)
}

func TestStore_ErrorThenNewOperationRecovers(t *testing.T) {
	failing := true
	svc := &mockCityService{
		list: func(_ context.Context) ([]domain.City, error) {
			if failing {
				return nil, errors.New("boom")
			}
			return []domain.City{cityFixture("Lisbon")}, nil
		},
	}
	s := store.New(svc, nil)

	_, err := s.LoadAll(context.Background())
	require.Error(t, err)
	require.Equal(t, store.StatusError, s.Snapshot().Status)

	failing = false
	_, err = s.LoadAll(context.Background())

	require.NoError(t, err)
	snap := s.Snapshot()
	assert.Equal(t, store.StatusReady, snap.Status)
	assert.Empty(t, snap.ErrMsg)
	assert.Len(t, snap.Cities, 1)
}
