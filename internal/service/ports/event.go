package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robertarktes/event-registrations/internal/domain"
)

type EventRepo interface {
	CreateEvent(ctx context.Context, e domain.Event) (*domain.Event, error)
	GetEvent(ctx context.Context, id uuid.UUID) (*domain.Event, error)
	ListEvents(ctx context.Context, f domain.EventFilter, p domain.PageRequest) (domain.Page[domain.Event], error)
	UpcomingEvents(ctx context.Context, now time.Time, limit int) ([]domain.Event, error)
	UpdateEvent(ctx context.Context, id uuid.UUID, patch domain.EventPatch) (*domain.Event, error)
	SoftDeleteEvent(ctx context.Context, id uuid.UUID) error
}
