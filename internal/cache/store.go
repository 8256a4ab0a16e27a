// Package cache wraps the event and attendee repositories with a read-through
// cache. The backend is best-effort: its failures are logged and counted, and
// the call falls through to the repository.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	redisadapter "github.com/robertarktes/event-registrations/internal/adapters/redis"
	"github.com/robertarktes/event-registrations/internal/domain"
	"github.com/robertarktes/event-registrations/internal/observability"
	"github.com/robertarktes/event-registrations/internal/service/ports"
)

type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	DeletePattern(ctx context.Context, pattern string) error
}

type Options struct {
	EventTTL time.Duration
	ListTTL  time.Duration
}

// Store implements ports.EventRepo and ports.AttendeeRepo.
type Store struct {
	events    ports.EventRepo
	attendees ports.AttendeeRepo
	backend   Backend
	logger    observability.Logger
	opts      Options
}

var (
	_ ports.EventRepo    = (*Store)(nil)
	_ ports.AttendeeRepo = (*Store)(nil)
)

func New(events ports.EventRepo, attendees ports.AttendeeRepo, backend Backend, logger observability.Logger, opts Options) *Store {
	if opts.EventTTL <= 0 {
		opts.EventTTL = 30 * time.Minute
	}
	if opts.ListTTL <= 0 {
		opts.ListTTL = 5 * time.Minute
	}
	return &Store{events: events, attendees: attendees, backend: backend, logger: logger, opts: opts}
}

func (s *Store) CreateEvent(ctx context.Context, e domain.Event) (*domain.Event, error) {
	created, err := s.events.CreateEvent(ctx, e)
	if err != nil {
		return nil, err
	}
	s.invalidateLists(ctx)
	return created, nil
}

func (s *Store) GetEvent(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	key := eventKey(id)
	var cached domain.Event
	if s.load(ctx, key, &cached) {
		return &cached, nil
	}
	e, err := s.events.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, e, s.opts.EventTTL)
	return e, nil
}

func (s *Store) ListEvents(ctx context.Context, f domain.EventFilter, p domain.PageRequest) (domain.Page[domain.Event], error) {
	key := listKey(f, p)
	var cached domain.Page[domain.Event]
	if s.load(ctx, key, &cached) {
		return cached, nil
	}
	page, err := s.events.ListEvents(ctx, f, p)
	if err != nil {
		return page, err
	}
	s.store(ctx, key, page, s.opts.ListTTL)
	return page, nil
}

func (s *Store) UpcomingEvents(ctx context.Context, now time.Time, limit int) ([]domain.Event, error) {
	key := upcomingKey(limit)
	var cached []domain.Event
	if s.load(ctx, key, &cached) {
		return cached, nil
	}
	events, err := s.events.UpcomingEvents(ctx, now, limit)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, events, s.opts.ListTTL)
	return events, nil
}

func (s *Store) UpdateEvent(ctx context.Context, id uuid.UUID, patch domain.EventPatch) (*domain.Event, error) {
	updated, err := s.events.UpdateEvent(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.invalidateEvent(ctx, id)
	return updated, nil
}

func (s *Store) SoftDeleteEvent(ctx context.Context, id uuid.UUID) error {
	if err := s.events.SoftDeleteEvent(ctx, id); err != nil {
		return err
	}
	s.invalidateEvent(ctx, id)
	s.drop(ctx, attendeesPattern(id))
	return nil
}

func (s *Store) Register(ctx context.Context, a domain.Attendee) (*domain.Registration, error) {
	reg, err := s.attendees.Register(ctx, a)
	if err != nil {
		return nil, err
	}
	s.invalidateEvent(ctx, a.EventID)
	s.drop(ctx, attendeesPattern(a.EventID))
	return reg, nil
}

// GetAttendee is not cached: it guards writes.
func (s *Store) GetAttendee(ctx context.Context, eventID uuid.UUID, wallet string) (*domain.Attendee, error) {
	return s.attendees.GetAttendee(ctx, eventID, wallet)
}

func (s *Store) CheckIn(ctx context.Context, eventID uuid.UUID, wallet string, at time.Time) (*domain.Attendee, error) {
	a, err := s.attendees.CheckIn(ctx, eventID, wallet, at)
	if err != nil {
		return nil, err
	}
	s.drop(ctx, attendeesPattern(eventID))
	return a, nil
}

func (s *Store) ListAttendees(ctx context.Context, eventID uuid.UUID, p domain.PageRequest) (domain.Page[domain.Attendee], error) {
	key := attendeesKey(eventID, p)
	var cached domain.Page[domain.Attendee]
	if s.load(ctx, key, &cached) {
		return cached, nil
	}
	page, err := s.attendees.ListAttendees(ctx, eventID, p)
	if err != nil {
		return page, err
	}
	s.store(ctx, key, page, s.opts.ListTTL)
	return page, nil
}

func (s *Store) SetNFTMint(ctx context.Context, attendeeID uuid.UUID, mintAddress string) (*domain.Attendee, error) {
	a, err := s.attendees.SetNFTMint(ctx, attendeeID, mintAddress)
	if err != nil {
		return nil, err
	}
	s.drop(ctx, attendeesPattern(a.EventID))
	return a, nil
}

func (s *Store) MarkNoShows(ctx context.Context, endedBefore time.Time) ([]uuid.UUID, error) {
	ids, err := s.attendees.MarkNoShows(ctx, endedBefore)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		s.drop(ctx, attendeesPattern(id))
	}
	return ids, nil
}

func (s *Store) invalidateEvent(ctx context.Context, id uuid.UUID) {
	if err := s.backend.Del(ctx, eventKey(id)); err != nil {
		s.fail(ctx, "del", eventKey(id), err)
	}
	s.invalidateLists(ctx)
}

func (s *Store) invalidateLists(ctx context.Context) {
	s.drop(ctx, listPattern)
	s.drop(ctx, organizerPattern)
}

func (s *Store) drop(ctx context.Context, pattern string) {
	if err := s.backend.DeletePattern(ctx, pattern); err != nil {
		s.fail(ctx, "del_pattern", pattern, err)
	}
}

func (s *Store) load(ctx context.Context, key string, dst interface{}) bool {
	raw, err := s.backend.Get(ctx, key)
	if errors.Is(err, redisadapter.ErrMiss) {
		observability.CacheOps.WithLabelValues("get", "miss").Inc()
		return false
	}
	if err != nil {
		s.fail(ctx, "get", key, err)
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		s.fail(ctx, "decode", key, err)
		return false
	}
	observability.CacheOps.WithLabelValues("get", "hit").Inc()
	return true
}

func (s *Store) store(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	raw, err := json.Marshal(v)
	if err != nil {
		s.fail(ctx, "encode", key, err)
		return
	}
	if err := s.backend.Set(ctx, key, raw, ttl); err != nil {
		s.fail(ctx, "set", key, err)
	}
}

func (s *Store) fail(ctx context.Context, op, key string, err error) {
	observability.CacheOps.WithLabelValues(op, "error").Inc()
	observability.FromContext(ctx, s.logger).
		WithFields(map[string]interface{}{"cache_op": op, "cache_key": key}).
		WithError(err).
		Warn("cache backend failure")
}
