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
	nftPreparedMessage      = "NFT minting prepared. Sign the transaction in your wallet."
	nftPreparedInstructions = "The attendee should use their wallet to sign the transaction"
)

type RegistrationService struct {
	events    ports.EventRepo
	attendees ports.AttendeeRepo
	tickets   ports.TicketStore
	audit     auditTrail
	logger    observability.Logger
	now       func() time.Time
}

// NewRegistrationService wires the registration workflow. tickets may be nil,
// in which case prepared NFT metadata is returned but not persisted.
func NewRegistrationService(events ports.EventRepo, attendees ports.AttendeeRepo, tickets ports.TicketStore, auditor ports.Auditor, logger observability.Logger) *RegistrationService {
	return &RegistrationService{
		events:    events,
		attendees: attendees,
		tickets:   tickets,
		audit:     auditTrail{auditor: auditor, logger: logger},
		logger:    logger,
		now:       time.Now,
	}
}

// Register claims a capacity slot for wallet. The capacity check and the
// counter increment happen in one store operation, so the outcome for the
// last slot is decided there and nowhere else.
func (s *RegistrationService) Register(ctx context.Context, eventID uuid.UUID, wallet, paymentTxHash string) (*domain.Registration, error) {
	if err := requireWallet(wallet); err != nil {
		return nil, err
	}
	if err := domain.ValidatePaymentTxHash(paymentTxHash); err != nil {
		return nil, err
	}

	reg, err := s.attendees.Register(ctx, domain.NewAttendee(eventID, wallet, paymentTxHash, s.now().UTC()))
	observability.RegistrationsTotal.WithLabelValues(registrationResult(err)).Inc()
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil, errors.WithHint(err, "Event not found")
	case err != nil && !errors.Is(err, domain.ErrCapacityFull) && !errors.Is(err, domain.ErrAlreadyRegistered):
		return nil, errors.Wrap(err, "register attendee")
	case err != nil:
		return nil, err
	}

	s.audit.record(ctx, "attendee.registered", wallet, map[string]interface{}{
		"event_id":       eventID.String(),
		"attendee_id":    reg.Attendee.ID.String(),
		"attendee_count": reg.Event.AttendeeCount,
	})
	observability.FromContext(ctx, s.logger).
		WithFields(map[string]interface{}{"event_id": eventID, "attendee_id": reg.Attendee.ID}).
		Info("attendee registered")
	return reg, nil
}

func registrationResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrCapacityFull):
		return "capacity_full"
	case errors.Is(err, domain.ErrAlreadyRegistered):
		return "already_registered"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

// CheckIn marks attendeeWallet as present. Only the organizer may do it, and
// the event lookup precedes the ownership check.
func (s *RegistrationService) CheckIn(ctx context.Context, eventID uuid.UUID, organizer, attendeeWallet string) (*domain.Attendee, error) {
	if err := requireWallet(organizer); err != nil {
		return nil, err
	}
	if err := domain.ValidateWallet("attendeeWalletAddress", attendeeWallet); err != nil {
		return nil, err
	}

	e, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, errors.WithHint(err, "Event not found")
	}
	if !e.OwnedBy(organizer) {
		return nil, errors.WithHint(domain.ErrForbidden, "You do not have permission to check in attendees for this event")
	}

	a, err := s.attendees.CheckIn(ctx, eventID, attendeeWallet, s.now().UTC())
	if errors.Is(err, domain.ErrNotFound) {
		return nil, errors.WithHint(err, "Attendee not found for this event")
	}
	if err != nil {
		return nil, errors.Wrap(err, "check in attendee")
	}

	observability.CheckInsTotal.Inc()
	s.audit.record(ctx, "attendee.checked_in", organizer, map[string]interface{}{
		"event_id":    eventID.String(),
		"attendee_id": a.ID.String(),
	})
	return a, nil
}

func (s *RegistrationService) ListAttendees(ctx context.Context, eventID uuid.UUID, p domain.PageRequest) (domain.Page[domain.Attendee], error) {
	if _, err := s.events.GetEvent(ctx, eventID); err != nil {
		return domain.Page[domain.Attendee]{}, errors.WithHint(err, "Event not found")
	}
	return s.attendees.ListAttendees(ctx, eventID, p)
}

// PrepareNFTTicket builds the ticket metadata a registered attendee signs a
// mint for. It never talks to a chain.
func (s *RegistrationService) PrepareNFTTicket(ctx context.Context, eventID uuid.UUID, attendeeWallet string) (*domain.NFTMintPreparation, error) {
	if err := domain.ValidateWallet("attendeeAddress", attendeeWallet); err != nil {
		return nil, err
	}

	e, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, errors.WithHint(err, "Event not found")
	}
	if !e.CanMintNFT {
		return nil, domain.ErrNFTMintingDisabled
	}

	a, err := s.attendees.GetAttendee(ctx, eventID, attendeeWallet)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, errors.WithHint(err, "Attendee is not registered for this event")
	}
	if err != nil {
		return nil, errors.Wrap(err, "get attendee")
	}

	prep := &domain.NFTMintPreparation{
		EventID:      eventID,
		AttendeeID:   a.ID,
		Message:      nftPreparedMessage,
		Instructions: nftPreparedInstructions,
		NFTMetadata:  domain.NewNFTTicket(*e, attendeeWallet, s.now()),
	}
	if s.tickets != nil {
		if err := s.tickets.SaveTicket(ctx, *prep, attendeeWallet); err != nil {
			return nil, errors.Wrap(err, "save nft ticket")
		}
	}
	return prep, nil
}

// RecordNFTMint stores the mint address on the caller's own registration.
func (s *RegistrationService) RecordNFTMint(ctx context.Context, eventID uuid.UUID, caller, mintAddress string) (*domain.Attendee, error) {
	if err := requireWallet(caller); err != nil {
		return nil, err
	}
	if err := domain.ValidateWallet("nftMintAddress", mintAddress); err != nil {
		return nil, err
	}

	if _, err := s.events.GetEvent(ctx, eventID); err != nil {
		return nil, errors.WithHint(err, "Event not found")
	}
	a, err := s.attendees.GetAttendee(ctx, eventID, caller)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, errors.WithHint(err, "Attendee not found for this event")
	}
	if err != nil {
		return nil, errors.Wrap(err, "get attendee")
	}

	updated, err := s.attendees.SetNFTMint(ctx, a.ID, mintAddress)
	if err != nil {
		return nil, errors.Wrap(err, "record nft mint")
	}
	s.audit.record(ctx, "attendee.nft_minted", caller, map[string]interface{}{
		"event_id":     eventID.String(),
		"attendee_id":  a.ID.String(),
		"mint_address": mintAddress,
	})
	return updated, nil
}

// SweepNoShows moves registered attendees of events that ended before now to
// no-show and returns the affected event ids.
func (s *RegistrationService) SweepNoShows(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	ids, err := s.attendees.MarkNoShows(ctx, now.UTC())
	if err != nil {
		return nil, errors.Wrap(err, "sweep no-shows")
	}
	observability.NoShowsMarked.Add(float64(len(ids)))
	return ids, nil
}
