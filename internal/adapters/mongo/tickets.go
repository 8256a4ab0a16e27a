package mongo

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/event-registrations/internal/domain"
	"github.com/robertarktes/event-registrations/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TicketRepository keeps the latest prepared NFT ticket per attendee.
type TicketRepository struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewTicketRepository(db *mongo.Database, logger observability.Logger) *TicketRepository {
	return &TicketRepository{
		coll:   db.Collection("nft_tickets"),
		logger: logger,
	}
}

type TicketDoc struct {
	AttendeeID     string           `bson:"_id"`
	EventID        string           `bson:"event_id"`
	AttendeeWallet string           `bson:"attendee_wallet"`
	Metadata       domain.NFTTicket `bson:"metadata"`
	PreparedAt     time.Time        `bson:"prepared_at"`
}

func newTicketDoc(prep domain.NFTMintPreparation, wallet string, now time.Time) TicketDoc {
	return TicketDoc{
		AttendeeID:     prep.AttendeeID.String(),
		EventID:        prep.EventID.String(),
		AttendeeWallet: wallet,
		Metadata:       prep.NFTMetadata,
		PreparedAt:     now.UTC(),
	}
}

// SaveTicket upserts by attendee id, so preparing twice replaces the metadata.
func (t *TicketRepository) SaveTicket(ctx context.Context, prep domain.NFTMintPreparation, attendeeWallet string) error {
	doc := newTicketDoc(prep, attendeeWallet, time.Now())
	_, err := t.coll.ReplaceOne(ctx, bson.M{"_id": doc.AttendeeID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		t.logger.WithField("attendee_id", doc.AttendeeID).WithError(err).Error("failed to save nft ticket")
		return errors.Wrap(err, "save nft ticket")
	}
	return nil
}

func (t *TicketRepository) GetTicket(ctx context.Context, attendeeID string) (*TicketDoc, error) {
	var doc TicketDoc
	err := t.coll.FindOne(ctx, bson.M{"_id": attendeeID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get nft ticket")
	}
	return &doc, nil
}
