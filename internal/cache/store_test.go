package cache

import (
	"context"
	"path"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	redisadapter "github.com/robertarktes/event-registrations/internal/adapters/redis"
	"github.com/robertarktes/event-registrations/internal/domain"
	"github.com/robertarktes/event-registrations/internal/observability"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memBackend struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemBackend() *memBackend { return &memBackend{data: map[string][]byte{}} }

func (m *memBackend) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, redisadapter.ErrMiss
	}
	return v, nil
}

func (m *memBackend) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memBackend) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memBackend) DeletePattern(_ context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.data {
		if ok, _ := path.Match(pattern, k); ok {
			delete(m.data, k)
		}
	}
	return nil
}

func (m *memBackend) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

type brokenBackend struct{}

var errDown = errors.New("redis down")

func (brokenBackend) Get(context.Context, string) ([]byte, error)                { return nil, errDown }
func (brokenBackend) Set(context.Context, string, []byte, time.Duration) error { return errDown }
func (brokenBackend) Del(context.Context, ...string) error                     { return errDown }
func (brokenBackend) DeletePattern(context.Context, string) error              { return errDown }

// fakeRepo is an in-memory EventRepo + AttendeeRepo that counts reads.
type fakeRepo struct {
	mu         sync.Mutex
	events     map[uuid.UUID]domain.Event
	attendees  []domain.Attendee
	eventReads int
	listReads  int
}

func newFakeRepo() *fakeRepo { return &fakeRepo{events: map[uuid.UUID]domain.Event{}} }

func (f *fakeRepo) CreateEvent(_ context.Context, e domain.Event) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events[e.ID] = e
	return &e, nil
}

func (f *fakeRepo) GetEvent(_ context.Context, id uuid.UUID) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.eventReads++
	e, ok := f.events[id]
	if !ok || e.DeletedAt != nil {
		return nil, domain.ErrNotFound
	}
	return &e, nil
}

func (f *fakeRepo) ListEvents(_ context.Context, _ domain.EventFilter, p domain.PageRequest) (domain.Page[domain.Event], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listReads++
	page := domain.Page[domain.Event]{PageRequest: p, Items: []domain.Event{}}
	for _, e := range f.events {
		if e.DeletedAt == nil {
			page.Items = append(page.Items, e)
		}
	}
	page.Total = len(page.Items)
	return page, nil
}

func (f *fakeRepo) UpcomingEvents(context.Context, time.Time, int) ([]domain.Event, error) {
	return []domain.Event{}, nil
}

func (f *fakeRepo) UpdateEvent(_ context.Context, id uuid.UUID, patch domain.EventPatch) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if patch.Title != nil {
		e.Title = *patch.Title
	}
	f.events[id] = e
	return &e, nil
}

func (f *fakeRepo) SoftDeleteEvent(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return domain.ErrNotFound
	}
	now := time.Now()
	e.DeletedAt = &now
	f.events[id] = e
	return nil
}

func (f *fakeRepo) Register(_ context.Context, a domain.Attendee) (*domain.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[a.EventID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if e.AttendeeCount >= e.Capacity {
		return nil, domain.ErrCapacityFull
	}
	e.AttendeeCount++
	e.TotalRevenue = e.TotalRevenue.Add(e.TicketPrice)
	f.events[a.EventID] = e
	f.attendees = append(f.attendees, a)
	return &domain.Registration{Attendee: a, Event: e}, nil
}

func (f *fakeRepo) GetAttendee(_ context.Context, eventID uuid.UUID, wallet string) (*domain.Attendee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.attendees {
		if a.EventID == eventID && a.AttendeeWalletAddress == wallet {
			return &a, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRepo) CheckIn(_ context.Context, eventID uuid.UUID, wallet string, at time.Time) (*domain.Attendee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, a := range f.attendees {
		if a.EventID == eventID && a.AttendeeWalletAddress == wallet {
			f.attendees[i].Status = domain.AttendeeStatusCheckedIn
			f.attendees[i].TicketCheckInTime = &at
			return &f.attendees[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRepo) ListAttendees(_ context.Context, eventID uuid.UUID, p domain.PageRequest) (domain.Page[domain.Attendee], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listReads++
	page := domain.Page[domain.Attendee]{PageRequest: p, Items: []domain.Attendee{}}
	for _, a := range f.attendees {
		if a.EventID == eventID {
			page.Items = append(page.Items, a)
		}
	}
	page.Total = len(page.Items)
	return page, nil
}

func (f *fakeRepo) SetNFTMint(_ context.Context, attendeeID uuid.UUID, mint string) (*domain.Attendee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, a := range f.attendees {
		if a.ID == attendeeID {
			f.attendees[i].NFTTicketMintAddress = &mint
			return &f.attendees[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRepo) MarkNoShows(context.Context, time.Time) ([]uuid.UUID, error) {
	return nil, nil
}

func (f *fakeRepo) reads() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.eventReads, f.listReads
}

const organizer = "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU"

func seedEvent(t *testing.T, s *Store, capacity int) domain.Event {
	t.Helper()
	e := domain.Event{
		ID:                     uuid.New(),
		OrganizerWalletAddress: organizer,
		Title:                  "Solana Breakpoint",
		Capacity:               capacity,
		TicketPrice:            decimal.RequireFromString("1.5"),
		Status:                 domain.EventStatusPublished,
	}
	created, err := s.CreateEvent(context.Background(), e)
	require.NoError(t, err)
	return *created
}

func newStore(backend Backend) (*Store, *fakeRepo) {
	repo := newFakeRepo()
	return New(repo, repo, backend, observability.NewNopLogger(), Options{}), repo
}

func TestGetEvent_ReadThrough(t *testing.T) {
	backend := newMemBackend()
	s, repo := newStore(backend)
	e := seedEvent(t, s, 10)
	ctx := context.Background()

	first, err := s.GetEvent(ctx, e.ID)
	require.NoError(t, err)
	second, err := s.GetEvent(ctx, e.ID)
	require.NoError(t, err)

	reads, _ := repo.reads()
	assert.Equal(t, 1, reads)
	assert.Equal(t, first.Title, second.Title)
	assert.True(t, first.TicketPrice.Equal(second.TicketPrice))
	assert.True(t, backend.has(eventKey(e.ID)))
}

func TestGetEvent_NotFoundIsNotCached(t *testing.T) {
	backend := newMemBackend()
	s, repo := newStore(backend)
	id := uuid.New()

	_, err := s.GetEvent(context.Background(), id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.False(t, backend.has(eventKey(id)))

	_, err = s.GetEvent(context.Background(), id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	reads, _ := repo.reads()
	assert.Equal(t, 2, reads)
}

func TestUpdateEvent_NoStaleRead(t *testing.T) {
	s, _ := newStore(newMemBackend())
	e := seedEvent(t, s, 10)
	ctx := context.Background()

	_, err := s.GetEvent(ctx, e.ID)
	require.NoError(t, err)

	title := "Renamed meetup"
	_, err = s.UpdateEvent(ctx, e.ID, domain.EventPatch{Title: &title})
	require.NoError(t, err)

	got, err := s.GetEvent(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, title, got.Title)
}

func TestSoftDelete_DropsEventAndLists(t *testing.T) {
	backend := newMemBackend()
	s, _ := newStore(backend)
	e := seedEvent(t, s, 10)
	ctx := context.Background()
	p := domain.NewPageRequest(1, 10, 10, 100)

	_, err := s.GetEvent(ctx, e.ID)
	require.NoError(t, err)
	page, err := s.ListEvents(ctx, domain.EventFilter{}, p)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	require.NoError(t, s.SoftDeleteEvent(ctx, e.ID))

	_, err = s.GetEvent(ctx, e.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	page, err = s.ListEvents(ctx, domain.EventFilter{}, p)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestRegister_InvalidatesCountersAndAttendeeLists(t *testing.T) {
	backend := newMemBackend()
	s, _ := newStore(backend)
	e := seedEvent(t, s, 10)
	ctx := context.Background()
	p := domain.NewPageRequest(1, 50, 50, 100)
	orgFilter := domain.EventFilter{Organizer: organizer}

	_, err := s.GetEvent(ctx, e.ID)
	require.NoError(t, err)
	_, err = s.ListAttendees(ctx, e.ID, p)
	require.NoError(t, err)
	_, err = s.ListEvents(ctx, orgFilter, p)
	require.NoError(t, err)
	require.True(t, backend.has(attendeesKey(e.ID, p)))
	require.True(t, backend.has(listKey(orgFilter, p)))

	_, err = s.Register(ctx, domain.NewAttendee(e.ID, "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM", "", time.Now()))
	require.NoError(t, err)

	assert.False(t, backend.has(eventKey(e.ID)))
	assert.False(t, backend.has(attendeesKey(e.ID, p)))
	assert.False(t, backend.has(listKey(orgFilter, p)))

	got, err := s.GetEvent(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.AttendeeCount)
	assert.Equal(t, "1.5", got.TotalRevenue.String())

	attendees, err := s.ListAttendees(ctx, e.ID, p)
	require.NoError(t, err)
	assert.Equal(t, 1, attendees.Total)
}

func TestRegister_FailureLeavesCacheAlone(t *testing.T) {
	backend := newMemBackend()
	s, _ := newStore(backend)
	e := seedEvent(t, s, 1)
	ctx := context.Background()

	_, err := s.Register(ctx, domain.NewAttendee(e.ID, "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM", "", time.Now()))
	require.NoError(t, err)
	_, err = s.GetEvent(ctx, e.ID)
	require.NoError(t, err)

	_, err = s.Register(ctx, domain.NewAttendee(e.ID, "HN7cABqLq46Es1jh92dQQisAq662SmxELLLsHHe4YWrH", "", time.Now()))
	assert.ErrorIs(t, err, domain.ErrCapacityFull)
	assert.True(t, backend.has(eventKey(e.ID)))
}

func TestCheckIn_DropsAttendeeLists(t *testing.T) {
	backend := newMemBackend()
	s, _ := newStore(backend)
	e := seedEvent(t, s, 10)
	ctx := context.Background()
	p := domain.NewPageRequest(1, 50, 50, 100)
	wallet := "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"

	_, err := s.Register(ctx, domain.NewAttendee(e.ID, wallet, "", time.Now()))
	require.NoError(t, err)
	_, err = s.ListAttendees(ctx, e.ID, p)
	require.NoError(t, err)

	_, err = s.CheckIn(ctx, e.ID, wallet, time.Now())
	require.NoError(t, err)
	assert.False(t, backend.has(attendeesKey(e.ID, p)))

	page, err := s.ListAttendees(ctx, e.ID, p)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, domain.AttendeeStatusCheckedIn, page.Items[0].Status)
}

func TestBrokenBackend_FallsThrough(t *testing.T) {
	s, repo := newStore(brokenBackend{})
	ctx := context.Background()
	e := seedEvent(t, s, 5)

	got, err := s.GetEvent(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)

	_, err = s.GetEvent(ctx, e.ID)
	require.NoError(t, err)
	reads, _ := repo.reads()
	assert.Equal(t, 2, reads)

	_, err = s.Register(ctx, domain.NewAttendee(e.ID, "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM", "", time.Now()))
	assert.NoError(t, err)
}

func TestListKey_SeparatesOrganizerAndFilters(t *testing.T) {
	p := domain.NewPageRequest(2, 20, 10, 100)
	plain := listKey(domain.EventFilter{}, p)
	tech := listKey(domain.EventFilter{Category: domain.CategoryTech}, p)
	mine := listKey(domain.EventFilter{Organizer: organizer}, p)

	assert.NotEqual(t, plain, tech)
	assert.Regexp(t, `^events:list:[0-9a-f]{16}:2:20$`, plain)
	assert.Regexp(t, `^events:organizer:`+organizer+`:[0-9a-f]{16}:2:20$`, mine)
}
