package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewPageRequest(t *testing.T) {
	assert.Equal(t, PageRequest{Page: 1, Limit: 10}, NewPageRequest(0, 0, 10, 100))
	assert.Equal(t, PageRequest{Page: 3, Limit: 100}, NewPageRequest(3, 500, 10, 100))
	assert.Equal(t, PageRequest{Page: 1, Limit: 25}, NewPageRequest(-4, 25, 10, 100))
	assert.Equal(t, 40, PageRequest{Page: 3, Limit: 20}.Offset())
}

func TestPage_TotalPages(t *testing.T) {
	assert.Equal(t, 0, Page[int]{Total: 0, PageRequest: PageRequest{Page: 1, Limit: 20}}.TotalPages())
	assert.Equal(t, 1, Page[int]{Total: 20, PageRequest: PageRequest{Page: 1, Limit: 20}}.TotalPages())
	assert.Equal(t, 3, Page[int]{Total: 47, PageRequest: PageRequest{Page: 1, Limit: 20}}.TotalPages())
	assert.Equal(t, 0, Page[int]{Total: 5}.TotalPages())
}

func TestValidateWallet(t *testing.T) {
	assert.NoError(t, ValidateWallet("walletAddress", strings.Repeat("a", 32)))
	assert.NoError(t, ValidateWallet("walletAddress", strings.Repeat("a", 44)))
	assert.ErrorIs(t, ValidateWallet("walletAddress", strings.Repeat("a", 31)), ErrValidation)
	assert.ErrorIs(t, ValidateWallet("walletAddress", strings.Repeat("a", 45)), ErrValidation)

	assert.NoError(t, ValidatePaymentTxHash(""))
	assert.ErrorIs(t, ValidatePaymentTxHash(strings.Repeat("f", 89)), ErrValidation)
}

func TestValidationError(t *testing.T) {
	err := errors.Wrap(Invalid("capacity", "too low"), "update")
	assert.ErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "capacity: too low")

	verr := &ValidationError{}
	assert.NoError(t, verr.orNil())
}

func TestNewAttendee(t *testing.T) {
	eventID := uuid.New()
	a := NewAttendee(eventID, "wallet", "", time.Now())
	assert.Equal(t, AttendeeStatusRegistered, a.Status)
	assert.Nil(t, a.PaymentTxHash)
	assert.True(t, a.Status.Active())
	assert.False(t, AttendeeStatusCancelled.Active())
	assert.False(t, AttendeeStatus("gone").Valid())
}

func TestNewNFTTicket(t *testing.T) {
	e := Event{ID: uuid.New(), Title: "Solana Hacker House"}
	minted := time.Date(2026, 5, 2, 8, 30, 0, 0, time.FixedZone("CET", 3600))
	ticket := NewNFTTicket(e, "attendee-wallet", minted)

	assert.Equal(t, "Solana Hacker House Ticket", ticket.Name)
	assert.Equal(t, "TICKET", ticket.Symbol)
	assert.Equal(t, []NFTAttribute{
		{TraitType: "Event", Value: "Solana Hacker House"},
		{TraitType: "Event ID", Value: e.ID.String()},
		{TraitType: "Attendee", Value: "attendee-wallet"},
		{TraitType: "Minted Date", Value: "2026-05-02T07:30:00Z"},
	}, ticket.Attributes)
}
