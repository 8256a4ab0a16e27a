package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/robertarktes/event-registrations/internal/domain"
	"golang.org/x/sync/errgroup"
)

const attendeeColumns = `id, event_id, attendee_wallet_address, nft_ticket_mint_address, payment_tx_hash,
	ticket_check_in_time, status, created_at`

func scanAttendee(row pgx.Row) (*domain.Attendee, error) {
	var a domain.Attendee
	var status string
	err := row.Scan(&a.ID, &a.EventID, &a.AttendeeWalletAddress, &a.NFTTicketMintAddress, &a.PaymentTxHash,
		&a.TicketCheckInTime, &status, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "scan attendee")
	}
	a.Status = domain.AttendeeStatus(status)
	return &a, nil
}

// Register takes a capacity slot with a single conditional update and inserts
// the attendee plus its outbox record in the same transaction. Two callers can
// never both pass the attendee_count < capacity guard for the last slot: the
// second one blocks on the row lock and re-evaluates the predicate.
func (r *Repository) Register(ctx context.Context, a domain.Attendee) (*domain.Registration, error) {
	var reg domain.Registration
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			UPDATE events
			SET attendee_count = attendee_count + 1,
				total_revenue = total_revenue + ticket_price,
				updated_at = now()
			WHERE id = $1 AND deleted_at IS NULL AND attendee_count < capacity
			RETURNING `+eventColumns, a.EventID)
		event, err := scanEvent(row)
		if errors.Is(err, domain.ErrNotFound) {
			ok, perr := eventExists(ctx, tx, a.EventID)
			if perr != nil {
				return perr
			}
			if ok {
				return domain.ErrCapacityFull
			}
			return domain.ErrNotFound
		}
		if err != nil {
			return errors.Wrap(err, "reserve slot")
		}

		row = tx.QueryRow(ctx, `
			INSERT INTO event_attendees (id, event_id, attendee_wallet_address, payment_tx_hash, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING `+attendeeColumns,
			a.ID, a.EventID, a.AttendeeWalletAddress, a.PaymentTxHash, string(domain.AttendeeStatusRegistered), a.CreatedAt,
		)
		attendee, err := scanAttendee(row)
		if isUniqueViolation(err, activeWalletIndex) {
			return domain.ErrAlreadyRegistered
		}
		if err != nil {
			return errors.Wrap(err, "insert attendee")
		}

		payload, _ := json.Marshal(map[string]interface{}{
			"attendee_id":    attendee.ID,
			"event_id":       attendee.EventID,
			"wallet_address": attendee.AttendeeWalletAddress,
			"ticket_price":   event.TicketPrice.String(),
		})
		if err := r.InsertOutbox(ctx, tx, newOutboxRecord(attendee.ID, "attendee.registered", payload)); err != nil {
			return err
		}

		reg = domain.Registration{Attendee: *attendee, Event: *event}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// activeAttendeeByWallet selects the live registration of a wallet on an event.
const activeAttendeeByWallet = `
	SELECT id FROM event_attendees
	WHERE event_id = $1 AND attendee_wallet_address = $2 AND status <> 'cancelled'
	ORDER BY created_at ASC
	LIMIT 1`

func (r *Repository) GetAttendee(ctx context.Context, eventID uuid.UUID, wallet string) (*domain.Attendee, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+attendeeColumns+` FROM event_attendees
		WHERE id = (`+activeAttendeeByWallet+`)`, eventID, wallet)
	return scanAttendee(row)
}

func (r *Repository) CheckIn(ctx context.Context, eventID uuid.UUID, wallet string, at time.Time) (*domain.Attendee, error) {
	var checkedIn *domain.Attendee
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			UPDATE event_attendees
			SET status = $3, ticket_check_in_time = $4
			WHERE id = (`+activeAttendeeByWallet+`)
			RETURNING `+attendeeColumns,
			eventID, wallet, string(domain.AttendeeStatusCheckedIn), at,
		)
		a, err := scanAttendee(row)
		if err != nil {
			return err
		}

		payload, _ := json.Marshal(map[string]interface{}{
			"attendee_id":    a.ID,
			"event_id":       a.EventID,
			"wallet_address": a.AttendeeWalletAddress,
			"checked_in_at":  at.UTC().Format(time.RFC3339),
		})
		if err := r.InsertOutbox(ctx, tx, newOutboxRecord(a.ID, "attendee.checked_in", payload)); err != nil {
			return err
		}
		checkedIn = a
		return nil
	})
	return checkedIn, err
}

func (r *Repository) ListAttendees(ctx context.Context, eventID uuid.UUID, p domain.PageRequest) (domain.Page[domain.Attendee], error) {
	page := domain.Page[domain.Attendee]{PageRequest: p, Items: []domain.Attendee{}}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := r.pool.Query(gctx, `
			SELECT `+attendeeColumns+` FROM event_attendees
			WHERE event_id = $1
			ORDER BY created_at ASC, id ASC
			LIMIT $2 OFFSET $3`,
			eventID, p.Limit, p.Offset(),
		)
		if err != nil {
			return errors.Wrap(err, "list attendees")
		}
		defer rows.Close()
		for rows.Next() {
			a, err := scanAttendee(rows)
			if err != nil {
				return err
			}
			page.Items = append(page.Items, *a)
		}
		return rows.Err()
	})
	g.Go(func() error {
		err := r.pool.QueryRow(gctx, `SELECT count(*) FROM event_attendees WHERE event_id = $1`, eventID).Scan(&page.Total)
		return errors.Wrap(err, "count attendees")
	})
	if err := g.Wait(); err != nil {
		return domain.Page[domain.Attendee]{}, err
	}
	return page, nil
}

func (r *Repository) SetNFTMint(ctx context.Context, attendeeID uuid.UUID, mintAddress string) (*domain.Attendee, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE event_attendees SET nft_ticket_mint_address = $2
		WHERE id = $1
		RETURNING `+attendeeColumns, attendeeID, mintAddress)
	return scanAttendee(row)
}

func (r *Repository) MarkNoShows(ctx context.Context, endedBefore time.Time) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE event_attendees a SET status = $1
		FROM events e
		WHERE a.event_id = e.id AND a.status = $2 AND e.end_date < $3
		RETURNING a.event_id`,
		string(domain.AttendeeStatusNoShow), string(domain.AttendeeStatusRegistered), endedBefore,
	)
	if err != nil {
		return nil, errors.Wrap(err, "mark no-shows")
	}
	defer rows.Close()

	seen := map[uuid.UUID]struct{}{}
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "scan event id")
		}
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids, rows.Err()
}
