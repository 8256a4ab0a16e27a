package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robertarktes/event-registrations/internal/domain"
	"github.com/stretchr/testify/mock"
)

type mockEventRepo struct{ mock.Mock }

func (m *mockEventRepo) CreateEvent(ctx context.Context, e domain.Event) (*domain.Event, error) {
	args := m.Called(ctx, e)
	if fn, ok := args.Get(0).(func(context.Context, domain.Event) *domain.Event); ok {
		return fn(ctx, e), args.Error(1)
	}
	ev, _ := args.Get(0).(*domain.Event)
	return ev, args.Error(1)
}

func (m *mockEventRepo) GetEvent(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	args := m.Called(ctx, id)
	ev, _ := args.Get(0).(*domain.Event)
	return ev, args.Error(1)
}

func (m *mockEventRepo) ListEvents(ctx context.Context, f domain.EventFilter, p domain.PageRequest) (domain.Page[domain.Event], error) {
	args := m.Called(ctx, f, p)
	return args.Get(0).(domain.Page[domain.Event]), args.Error(1)
}

func (m *mockEventRepo) UpcomingEvents(ctx context.Context, now time.Time, limit int) ([]domain.Event, error) {
	args := m.Called(ctx, now, limit)
	evs, _ := args.Get(0).([]domain.Event)
	return evs, args.Error(1)
}

func (m *mockEventRepo) UpdateEvent(ctx context.Context, id uuid.UUID, patch domain.EventPatch) (*domain.Event, error) {
	args := m.Called(ctx, id, patch)
	ev, _ := args.Get(0).(*domain.Event)
	return ev, args.Error(1)
}

func (m *mockEventRepo) SoftDeleteEvent(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type mockAttendeeRepo struct{ mock.Mock }

func (m *mockAttendeeRepo) Register(ctx context.Context, a domain.Attendee) (*domain.Registration, error) {
	args := m.Called(ctx, a)
	reg, _ := args.Get(0).(*domain.Registration)
	return reg, args.Error(1)
}

func (m *mockAttendeeRepo) GetAttendee(ctx context.Context, eventID uuid.UUID, wallet string) (*domain.Attendee, error) {
	args := m.Called(ctx, eventID, wallet)
	a, _ := args.Get(0).(*domain.Attendee)
	return a, args.Error(1)
}

func (m *mockAttendeeRepo) CheckIn(ctx context.Context, eventID uuid.UUID, wallet string, at time.Time) (*domain.Attendee, error) {
	args := m.Called(ctx, eventID, wallet, at)
	a, _ := args.Get(0).(*domain.Attendee)
	return a, args.Error(1)
}

func (m *mockAttendeeRepo) ListAttendees(ctx context.Context, eventID uuid.UUID, p domain.PageRequest) (domain.Page[domain.Attendee], error) {
	args := m.Called(ctx, eventID, p)
	return args.Get(0).(domain.Page[domain.Attendee]), args.Error(1)
}

func (m *mockAttendeeRepo) SetNFTMint(ctx context.Context, attendeeID uuid.UUID, mint string) (*domain.Attendee, error) {
	args := m.Called(ctx, attendeeID, mint)
	a, _ := args.Get(0).(*domain.Attendee)
	return a, args.Error(1)
}

func (m *mockAttendeeRepo) MarkNoShows(ctx context.Context, endedBefore time.Time) ([]uuid.UUID, error) {
	args := m.Called(ctx, endedBefore)
	ids, _ := args.Get(0).([]uuid.UUID)
	return ids, args.Error(1)
}

type mockAuditor struct{ mock.Mock }

func (m *mockAuditor) LogEvent(ctx context.Context, action, actor string, data map[string]interface{}) error {
	return m.Called(ctx, action, actor, data).Error(0)
}

type mockTickets struct{ mock.Mock }

func (m *mockTickets) SaveTicket(ctx context.Context, prep domain.NFTMintPreparation, wallet string) error {
	return m.Called(ctx, prep, wallet).Error(0)
}
