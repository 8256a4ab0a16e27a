package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robertarktes/event-registrations/internal/domain"
)

type AttendeeRepo interface {
	// Register reserves a slot and inserts the attendee atomically. It fails
	// with domain.ErrNotFound, domain.ErrCapacityFull or domain.ErrAlreadyRegistered.
	Register(ctx context.Context, a domain.Attendee) (*domain.Registration, error)
	GetAttendee(ctx context.Context, eventID uuid.UUID, wallet string) (*domain.Attendee, error)
	CheckIn(ctx context.Context, eventID uuid.UUID, wallet string, at time.Time) (*domain.Attendee, error)
	ListAttendees(ctx context.Context, eventID uuid.UUID, p domain.PageRequest) (domain.Page[domain.Attendee], error)
	SetNFTMint(ctx context.Context, attendeeID uuid.UUID, mintAddress string) (*domain.Attendee, error)
	// MarkNoShows flips registered attendees of events ended before the cutoff
	// and returns the affected event ids.
	MarkNoShows(ctx context.Context, endedBefore time.Time) ([]uuid.UUID, error)
}
