package domain

import (
	"time"

	"github.com/google/uuid"
)

const nftTicketSymbol = "TICKET"

type NFTAttribute struct {
	TraitType string `json:"trait_type" bson:"trait_type"`
	Value     string `json:"value" bson:"value"`
}

// NFTTicket is the metadata an attendee signs a mint transaction for.
// Nothing here touches a chain.
type NFTTicket struct {
	Name        string         `json:"name" bson:"name"`
	Description string         `json:"description" bson:"description"`
	Symbol      string         `json:"symbol" bson:"symbol"`
	URI         string         `json:"uri" bson:"uri"`
	Attributes  []NFTAttribute `json:"attributes" bson:"attributes"`
}

func NewNFTTicket(event Event, attendeeWallet string, now time.Time) NFTTicket {
	return NFTTicket{
		Name:        event.Title + " Ticket",
		Description: "Attendance certificate for " + event.Title,
		Symbol:      nftTicketSymbol,
		Attributes: []NFTAttribute{
			{TraitType: "Event", Value: event.Title},
			{TraitType: "Event ID", Value: event.ID.String()},
			{TraitType: "Attendee", Value: attendeeWallet},
			{TraitType: "Minted Date", Value: now.UTC().Format(time.RFC3339)},
		},
	}
}

// NFTMintPreparation is what the prepare step hands back to the wallet client.
type NFTMintPreparation struct {
	EventID      uuid.UUID `json:"eventId"`
	AttendeeID   uuid.UUID `json:"attendeeId"`
	Message      string    `json:"message"`
	Instructions string    `json:"instructions"`
	NFTMetadata  NFTTicket `json:"nftMetadata"`
}
