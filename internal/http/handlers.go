package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/robertarktes/event-registrations/internal/domain"
	"github.com/robertarktes/event-registrations/internal/idempotency"
	"github.com/robertarktes/event-registrations/internal/observability"
	"github.com/robertarktes/event-registrations/internal/service"
)

const (
	defaultEventLimit    = 10
	defaultAttendeeLimit = 50
	maxPageLimit         = 100
	maxBodyBytes         = 1 << 20
)

type EventService interface {
	Create(ctx context.Context, organizer string, in domain.CreateEventInput) (*domain.Event, error)
	Get(ctx context.Context, id uuid.UUID, includeAttendees bool) (*service.EventDetail, error)
	List(ctx context.Context, f domain.EventFilter, p domain.PageRequest) (domain.Page[domain.Event], error)
	Upcoming(ctx context.Context, limit int) ([]domain.Event, error)
	Update(ctx context.Context, id uuid.UUID, caller string, patch domain.EventPatch) (*domain.Event, error)
	Delete(ctx context.Context, id uuid.UUID, caller string) error
}

type RegistrationService interface {
	Register(ctx context.Context, eventID uuid.UUID, wallet, paymentTxHash string) (*domain.Registration, error)
	CheckIn(ctx context.Context, eventID uuid.UUID, organizer, attendeeWallet string) (*domain.Attendee, error)
	ListAttendees(ctx context.Context, eventID uuid.UUID, p domain.PageRequest) (domain.Page[domain.Attendee], error)
	PrepareNFTTicket(ctx context.Context, eventID uuid.UUID, attendeeWallet string) (*domain.NFTMintPreparation, error)
	RecordNFTMint(ctx context.Context, eventID uuid.UUID, caller, mintAddress string) (*domain.Attendee, error)
}

// Replayer stores responses under an Idempotency-Key.
type Replayer interface {
	Get(ctx context.Context, key string) (*idempotency.Response, error)
	Begin(ctx context.Context, key string) (bool, error)
	Set(ctx context.Context, key string, resp idempotency.Response) error
	Release(ctx context.Context, key string) error
}

// Check is a readiness probe for one dependency.
type Check func(ctx context.Context) error

type Handlers struct {
	events        EventService
	registrations RegistrationService
	idemp         Replayer
	checks        map[string]Check
	logger        observability.Logger
}

func NewHandlers(events EventService, registrations RegistrationService, idemp Replayer, checks map[string]Check, logger observability.Logger) *Handlers {
	return &Handlers{
		events:        events,
		registrations: registrations,
		idemp:         idemp,
		checks:        checks,
		logger:        logger,
	}
}

func (h *Handlers) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.EventFilter{
		Category:  domain.Category(q.Get("category")),
		Status:    domain.EventStatus(q.Get("status")),
		Organizer: strings.TrimSpace(q.Get("organizer")),
		Search:    strings.TrimSpace(q.Get("search")),
	}
	page, err := h.events.List(r.Context(), filter, pageRequest(r, defaultEventLimit))
	if err != nil {
		h.fail(w, r, err, "Failed to fetch events")
		return
	}
	writeData(w, http.StatusOK, newListData(page))
}

func (h *Handlers) UpcomingEvents(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	events, err := h.events.Upcoming(r.Context(), limit)
	if err != nil {
		h.fail(w, r, err, "Failed to fetch upcoming events")
		return
	}
	writeData(w, http.StatusOK, events)
}

func (h *Handlers) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var in domain.CreateEventInput
	if err := decodeBody(w, r, &in); err != nil {
		h.fail(w, r, err, "Failed to create event")
		return
	}
	created, err := h.events.Create(r.Context(), walletFrom(r.Context()), in)
	if err != nil {
		h.fail(w, r, err, "Failed to create event")
		return
	}
	writeData(w, http.StatusCreated, created)
}

func (h *Handlers) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		h.fail(w, r, err, "Failed to fetch event")
		return
	}
	detail, err := h.events.Get(r.Context(), id, r.URL.Query().Get("includeAttendees") == "true")
	if err != nil {
		h.fail(w, r, err, "Failed to fetch event")
		return
	}
	writeData(w, http.StatusOK, detail)
}

func (h *Handlers) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		h.fail(w, r, err, "Failed to update event")
		return
	}
	var patch domain.EventPatch
	if err := decodeBody(w, r, &patch); err != nil {
		h.fail(w, r, err, "Failed to update event")
		return
	}
	updated, err := h.events.Update(r.Context(), id, walletFrom(r.Context()), patch)
	if err != nil {
		h.fail(w, r, err, "Failed to update event")
		return
	}
	writeData(w, http.StatusOK, updated)
}

func (h *Handlers) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		h.fail(w, r, err, "Failed to delete event")
		return
	}
	if err := h.events.Delete(r.Context(), id, walletFrom(r.Context())); err != nil {
		h.fail(w, r, err, "Failed to delete event")
		return
	}
	writeData(w, http.StatusOK, nil)
}

func (h *Handlers) ListAttendees(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		h.fail(w, r, err, "Failed to fetch attendees")
		return
	}
	page, err := h.registrations.ListAttendees(r.Context(), id, pageRequest(r, defaultAttendeeLimit))
	if err != nil {
		h.fail(w, r, err, "Failed to fetch attendees")
		return
	}
	writeData(w, http.StatusOK, newListData(page))
}

// Register honours an optional Idempotency-Key scoped to the caller and
// event. Only definitive outcomes are stored; a 5xx can be retried.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	const fallback = "Failed to register for event"
	id, err := eventID(r)
	if err != nil {
		h.fail(w, r, err, fallback)
		return
	}
	var req struct {
		PaymentTxHash string `json:"paymentTxHash"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, err, fallback)
		return
	}

	wallet := walletFrom(r.Context())
	key := ""
	if raw := strings.TrimSpace(r.Header.Get("Idempotency-Key")); raw != "" && wallet != "" {
		key = idempotency.Scope(raw, wallet, "register:"+id.String())
	}
	logger := observability.FromContext(r.Context(), h.logger)

	if prev, err := h.idemp.Get(r.Context(), key); err != nil {
		logger.WithError(err).Warn("idempotency lookup failed")
	} else if prev != nil {
		w.Header().Set("Idempotent-Replayed", "true")
		writeRaw(w, prev.Status, prev.Result)
		return
	}
	claimed, err := h.idemp.Begin(r.Context(), key)
	if err != nil {
		logger.WithError(err).Warn("idempotency claim failed")
		claimed, key = true, ""
	}
	if !claimed {
		writeFailure(w, http.StatusConflict, CodeConflict, "A request with this Idempotency-Key is in progress")
		return
	}

	status, body := http.StatusCreated, []byte(nil)
	reg, err := h.registrations.Register(r.Context(), id, wallet, req.PaymentTxHash)
	if err != nil {
		var e apiError
		status, e = classify(err, fallback)
		if status >= http.StatusInternalServerError {
			logger.WithError(err).Error(fallback)
		}
		body = errorBytes(e.Code, e.Message)
	} else {
		body = successBytes(reg.Attendee)
	}

	if status >= http.StatusInternalServerError {
		_ = h.idemp.Release(r.Context(), key)
	} else if err := h.idemp.Set(r.Context(), key, idempotency.Response{Status: status, Result: body}); err != nil {
		logger.WithError(err).Warn("idempotency store failed")
	}
	writeRaw(w, status, body)
}

func (h *Handlers) CheckIn(w http.ResponseWriter, r *http.Request) {
	const fallback = "Failed to check in attendee"
	id, err := eventID(r)
	if err != nil {
		h.fail(w, r, err, fallback)
		return
	}
	var req struct {
		AttendeeWalletAddress string `json:"attendeeWalletAddress"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, err, fallback)
		return
	}
	a, err := h.registrations.CheckIn(r.Context(), id, walletFrom(r.Context()), strings.TrimSpace(req.AttendeeWalletAddress))
	if err != nil {
		h.fail(w, r, err, fallback)
		return
	}
	writeData(w, http.StatusOK, a)
}

func (h *Handlers) PrepareNFT(w http.ResponseWriter, r *http.Request) {
	const fallback = "Failed to prepare NFT minting"
	id, err := eventID(r)
	if err != nil {
		h.fail(w, r, err, fallback)
		return
	}
	var req struct {
		AttendeeAddress string `json:"attendeeAddress"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, err, fallback)
		return
	}
	prep, err := h.registrations.PrepareNFTTicket(r.Context(), id, strings.TrimSpace(req.AttendeeAddress))
	if err != nil {
		h.fail(w, r, err, fallback)
		return
	}
	writeData(w, http.StatusOK, prep)
}

func (h *Handlers) RecordNFTMint(w http.ResponseWriter, r *http.Request) {
	const fallback = "Failed to record NFT mint"
	id, err := eventID(r)
	if err != nil {
		h.fail(w, r, err, fallback)
		return
	}
	var req struct {
		NFTMintAddress string `json:"nftMintAddress"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, err, fallback)
		return
	}
	a, err := h.registrations.RecordNFTMint(r.Context(), id, walletFrom(r.Context()), strings.TrimSpace(req.NFTMintAddress))
	if err != nil {
		h.fail(w, r, err, fallback)
		return
	}
	writeData(w, http.StatusOK, a)
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) Readyz(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{}
	var down []string
	for name, check := range h.checks {
		if err := check(r.Context()); err != nil {
			observability.FromContext(r.Context(), h.logger).WithField("dependency", name).WithError(err).Warn("readiness check failed")
			status[name] = "down"
			down = append(down, name)
			continue
		}
		status[name] = "up"
	}
	if len(down) > 0 {
		sort.Strings(down)
		writeFailure(w, http.StatusServiceUnavailable, CodeUnavailable, "Unavailable: "+strings.Join(down, ", "))
		return
	}
	writeData(w, http.StatusOK, status)
}

func eventID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, domain.Invalid("id", "Invalid event id")
	}
	return id, nil
}

func pageRequest(r *http.Request, defLimit int) domain.PageRequest {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return domain.NewPageRequest(page, limit, defLimit, maxPageLimit)
}

// decodeBody treats an empty body as an empty object.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return domain.Invalid("body", "Invalid JSON body")
}
