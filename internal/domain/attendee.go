package domain

import (
	"time"

	"github.com/google/uuid"
)

type AttendeeStatus string

const (
	AttendeeStatusRegistered AttendeeStatus = "registered"
	AttendeeStatusCheckedIn  AttendeeStatus = "checked-in"
	AttendeeStatusNoShow     AttendeeStatus = "no-show"
	AttendeeStatusCancelled  AttendeeStatus = "cancelled"
)

func (s AttendeeStatus) Valid() bool {
	switch s {
	case AttendeeStatusRegistered, AttendeeStatusCheckedIn, AttendeeStatusNoShow, AttendeeStatusCancelled:
		return true
	}
	return false
}

// Active reports whether the registration still holds a capacity slot.
func (s AttendeeStatus) Active() bool {
	return s != AttendeeStatusCancelled
}

type Attendee struct {
	ID                    uuid.UUID      `json:"id"`
	EventID               uuid.UUID      `json:"eventId"`
	AttendeeWalletAddress string         `json:"attendeeWalletAddress"`
	NFTTicketMintAddress  *string        `json:"nftTicketMintAddress"`
	PaymentTxHash         *string        `json:"paymentTxHash"`
	TicketCheckInTime     *time.Time     `json:"ticketCheckInTime"`
	Status                AttendeeStatus `json:"status"`
	CreatedAt             time.Time      `json:"createdAt"`
}

func NewAttendee(eventID uuid.UUID, wallet string, paymentTxHash string, now time.Time) Attendee {
	return Attendee{
		ID:                    uuid.New(),
		EventID:               eventID,
		AttendeeWalletAddress: wallet,
		PaymentTxHash:         optional(paymentTxHash),
		Status:                AttendeeStatusRegistered,
		CreatedAt:             now,
	}
}

// Registration is the outcome of a successful Register: the new row and the
// event with its counters already advanced.
type Registration struct {
	Attendee Attendee
	Event    Event
}

const (
	minWalletLength = 32
	maxWalletLength = 44
	maxTxHashLength = 88
)

// ValidateWallet checks the shape of a wallet address. It proves nothing about ownership.
func ValidateWallet(field, wallet string) error {
	if len(wallet) < minWalletLength || len(wallet) > maxWalletLength {
		return Invalid(field, "Invalid wallet address")
	}
	return nil
}

func ValidatePaymentTxHash(hash string) error {
	if len(hash) > maxTxHashLength {
		return Invalid("paymentTxHash", "must be at most 88 characters")
	}
	return nil
}
