package postgres

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/robertarktes/event-registrations/internal/domain"
	"golang.org/x/sync/errgroup"
)

const eventColumns = `id, organizer_wallet_address, title, description, category, location, is_virtual,
	start_date, end_date, capacity, attendee_count, ticket_price::text, image_url, banner_url,
	status, can_mint_nft, nft_metadata, total_revenue::text, created_at, updated_at, deleted_at`

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var e domain.Event
	var category, status string
	err := row.Scan(
		&e.ID, &e.OrganizerWalletAddress, &e.Title, &e.Description, &category, &e.Location, &e.IsVirtual,
		&e.StartDate, &e.EndDate, &e.Capacity, &e.AttendeeCount, &e.TicketPrice, &e.ImageURL, &e.BannerURL,
		&status, &e.CanMintNFT, &e.NFTMetadata, &e.TotalRevenue, &e.CreatedAt, &e.UpdatedAt, &e.DeletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "scan event")
	}
	e.Category = domain.Category(category)
	e.Status = domain.EventStatus(status)
	return &e, nil
}

func (r *Repository) CreateEvent(ctx context.Context, e domain.Event) (*domain.Event, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO events (id, organizer_wallet_address, title, description, category, location, is_virtual,
			start_date, end_date, capacity, attendee_count, ticket_price, image_url, banner_url,
			status, can_mint_nft, nft_metadata, total_revenue, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 0, $11::text::numeric, $12, $13, $14, $15, $16, 0, $17, $17)
		RETURNING `+eventColumns,
		e.ID, e.OrganizerWalletAddress, e.Title, e.Description, string(e.Category), e.Location, e.IsVirtual,
		e.StartDate, e.EndDate, e.Capacity, e.TicketPrice.String(), e.ImageURL, e.BannerURL,
		string(domain.EventStatusDraft), e.CanMintNFT, e.NFTMetadata, e.CreatedAt,
	)
	created, err := scanEvent(row)
	return created, errors.Wrap(err, "insert event")
}

func (r *Repository) GetEvent(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1 AND deleted_at IS NULL`, id)
	return scanEvent(row)
}

func (r *Repository) ListEvents(ctx context.Context, f domain.EventFilter, p domain.PageRequest) (domain.Page[domain.Event], error) {
	where, args := eventWhere(f)
	page := domain.Page[domain.Event]{PageRequest: p, Items: []domain.Event{}}

	pageArgs := make([]any, 0, len(args)+2)
	pageArgs = append(pageArgs, args...)
	pageArgs = append(pageArgs, p.Limit, p.Offset())
	limitArg := "$" + strconv.Itoa(len(args)+1)
	offsetArg := "$" + strconv.Itoa(len(args)+2)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := r.pool.Query(gctx, `
			SELECT `+eventColumns+` FROM events WHERE `+where+`
			ORDER BY created_at DESC, id DESC
			LIMIT `+limitArg+` OFFSET `+offsetArg,
			pageArgs...,
		)
		if err != nil {
			return errors.Wrap(err, "list events")
		}
		defer rows.Close()
		for rows.Next() {
			e, err := scanEvent(rows)
			if err != nil {
				return err
			}
			page.Items = append(page.Items, *e)
		}
		return rows.Err()
	})
	g.Go(func() error {
		err := r.pool.QueryRow(gctx, `SELECT count(*) FROM events WHERE `+where, args...).Scan(&page.Total)
		return errors.Wrap(err, "count events")
	})
	if err := g.Wait(); err != nil {
		return domain.Page[domain.Event]{}, err
	}
	return page, nil
}

func eventWhere(f domain.EventFilter) (string, []any) {
	conds := []string{"deleted_at IS NULL"}
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(args))))
	}
	if f.Category != "" {
		add("category = ?", string(f.Category))
	}
	if f.Status != "" {
		add("status = ?", string(f.Status))
	}
	if f.Organizer != "" {
		add("organizer_wallet_address = ?", f.Organizer)
	}
	if f.Search != "" {
		add("(title ILIKE ? OR description ILIKE ?)", "%"+escapeLike(f.Search)+"%")
	}
	return strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (r *Repository) UpcomingEvents(ctx context.Context, now time.Time, limit int) ([]domain.Event, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+eventColumns+` FROM events
		WHERE status = $1 AND start_date >= $2 AND deleted_at IS NULL
		ORDER BY start_date ASC
		LIMIT $3`,
		string(domain.EventStatusPublished), now, limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "upcoming events")
	}
	defer rows.Close()

	events := []domain.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// UpdateEvent merges the non-nil patch fields. A capacity below the current
// attendee count is refused in the same statement.
func (r *Repository) UpdateEvent(ctx context.Context, id uuid.UUID, patch domain.EventPatch) (*domain.Event, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE events SET
			title = COALESCE($2::text, title),
			description = COALESCE($3::text, description),
			category = COALESCE($4::text, category),
			location = COALESCE($5::text, location),
			is_virtual = COALESCE($6::boolean, is_virtual),
			start_date = COALESCE($7::timestamptz, start_date),
			end_date = COALESCE($8::timestamptz, end_date),
			capacity = COALESCE($9::int, capacity),
			ticket_price = COALESCE($10::text::numeric, ticket_price),
			image_url = COALESCE($11::text, image_url),
			banner_url = COALESCE($12::text, banner_url),
			can_mint_nft = COALESCE($13::boolean, can_mint_nft),
			nft_metadata = COALESCE($14::text, nft_metadata),
			status = COALESCE($15::text, status),
			updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL AND COALESCE($9::int, capacity) >= attendee_count
		RETURNING `+eventColumns,
		id, patch.Title, patch.Description, (*string)(patch.Category), patch.Location, patch.IsVirtual,
		patch.StartDate, patch.EndDate, patch.Capacity, patch.TicketPrice, patch.ImageURL, patch.BannerURL,
		patch.CanMintNFT, patch.NFTMetadata, (*string)(patch.Status),
	)
	updated, err := scanEvent(row)
	if !errors.Is(err, domain.ErrNotFound) {
		return updated, errors.Wrap(err, "update event")
	}

	ok, perr := eventExists(ctx, r.pool, id)
	if perr != nil {
		return nil, perr
	}
	if ok {
		return nil, domain.Invalid("capacity", "Capacity cannot be lower than the current attendee count")
	}
	return nil, domain.ErrNotFound
}

func (r *Repository) SoftDeleteEvent(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE events SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return errors.Wrap(err, "soft delete event")
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
