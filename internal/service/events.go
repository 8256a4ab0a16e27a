package service

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/robertarktes/event-registrations/internal/domain"
	"github.com/robertarktes/event-registrations/internal/observability"
	"github.com/robertarktes/event-registrations/internal/service/ports"
)

const (
	detailAttendeeLimit  = 100
	defaultUpcomingLimit = 10
	maxUpcomingLimit     = 50
)

// EventDetail is an event optionally carrying its first page of attendees.
type EventDetail struct {
	domain.Event
	Attendees []domain.Attendee `json:"attendees,omitempty"`
}

type EventService struct {
	events    ports.EventRepo
	attendees ports.AttendeeRepo
	audit     auditTrail
	logger    observability.Logger
	now       func() time.Time
}

func NewEventService(events ports.EventRepo, attendees ports.AttendeeRepo, auditor ports.Auditor, logger observability.Logger) *EventService {
	return &EventService{
		events:    events,
		attendees: attendees,
		audit:     auditTrail{auditor: auditor, logger: logger},
		logger:    logger,
		now:       time.Now,
	}
}

func (s *EventService) Create(ctx context.Context, organizer string, in domain.CreateEventInput) (*domain.Event, error) {
	if err := requireWallet(organizer); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if err := in.Validate(now); err != nil {
		return nil, err
	}

	created, err := s.events.CreateEvent(ctx, domain.NewEvent(organizer, in, now))
	if err != nil {
		return nil, errors.Wrap(err, "create event")
	}

	s.audit.record(ctx, "event.created", organizer, map[string]interface{}{
		"event_id": created.ID.String(),
		"title":    created.Title,
		"capacity": created.Capacity,
	})
	observability.FromContext(ctx, s.logger).WithField("event_id", created.ID).Info("event created")
	return created, nil
}

func (s *EventService) Get(ctx context.Context, id uuid.UUID, includeAttendees bool) (*EventDetail, error) {
	e, err := s.events.GetEvent(ctx, id)
	if err != nil {
		return nil, errors.WithHint(err, "Event not found")
	}
	detail := &EventDetail{Event: *e}
	if !includeAttendees {
		return detail, nil
	}

	page, err := s.attendees.ListAttendees(ctx, id, domain.PageRequest{Page: 1, Limit: detailAttendeeLimit})
	if err != nil {
		return nil, errors.Wrap(err, "list attendees")
	}
	detail.Attendees = page.Items
	return detail, nil
}

func (s *EventService) List(ctx context.Context, f domain.EventFilter, p domain.PageRequest) (domain.Page[domain.Event], error) {
	if f.Category != "" && !f.Category.Valid() {
		return domain.Page[domain.Event]{}, domain.Invalid("category", "Invalid category")
	}
	if f.Status != "" && !f.Status.Valid() {
		return domain.Page[domain.Event]{}, domain.Invalid("status", "Invalid status")
	}
	return s.events.ListEvents(ctx, f, p)
}

func (s *EventService) Upcoming(ctx context.Context, limit int) ([]domain.Event, error) {
	if limit < 1 {
		limit = defaultUpcomingLimit
	}
	if limit > maxUpcomingLimit {
		limit = maxUpcomingLimit
	}
	return s.events.UpcomingEvents(ctx, s.now().UTC(), limit)
}

// Update applies patch on behalf of caller. Input problems are reported
// before the event is looked up; a missing event wins over a foreign one.
func (s *EventService) Update(ctx context.Context, id uuid.UUID, caller string, patch domain.EventPatch) (*domain.Event, error) {
	if err := requireWallet(caller); err != nil {
		return nil, err
	}
	patch.Normalize()
	if err := patch.Validate(s.now().UTC()); err != nil {
		return nil, err
	}

	current, err := s.owned(ctx, id, caller, "You do not have permission to update this event")
	if err != nil {
		return nil, err
	}
	if err := patch.CheckAgainst(*current); err != nil {
		return nil, err
	}
	if patch.Empty() {
		return current, nil
	}

	updated, err := s.events.UpdateEvent(ctx, id, patch)
	if err != nil {
		return nil, errors.Wrap(err, "update event")
	}
	s.audit.record(ctx, "event.updated", caller, map[string]interface{}{"event_id": id.String()})
	return updated, nil
}

func (s *EventService) Delete(ctx context.Context, id uuid.UUID, caller string) error {
	if err := requireWallet(caller); err != nil {
		return err
	}
	if _, err := s.owned(ctx, id, caller, "You do not have permission to delete this event"); err != nil {
		return err
	}
	if err := s.events.SoftDeleteEvent(ctx, id); err != nil {
		return errors.Wrap(err, "delete event")
	}
	s.audit.record(ctx, "event.deleted", caller, map[string]interface{}{"event_id": id.String()})
	return nil
}

func (s *EventService) owned(ctx context.Context, id uuid.UUID, caller, denied string) (*domain.Event, error) {
	e, err := s.events.GetEvent(ctx, id)
	if err != nil {
		return nil, errors.WithHint(err, "Event not found")
	}
	if !e.OwnedBy(caller) {
		return nil, errors.WithHint(domain.ErrForbidden, denied)
	}
	return e, nil
}

// requireWallet rejects a missing identity with ErrUnauthorized and a
// malformed one with a validation error.
func requireWallet(wallet string) error {
	if wallet == "" {
		return domain.ErrUnauthorized
	}
	return domain.ValidateWallet("walletAddress", wallet)
}
