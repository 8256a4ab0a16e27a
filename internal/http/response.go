package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/event-registrations/internal/domain"
	"github.com/robertarktes/event-registrations/internal/observability"
)

const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeCapacityFull       = "CAPACITY_FULL"
	CodeAlreadyRegistered  = "ALREADY_REGISTERED"
	CodeNFTMintingDisabled = "NFT_MINTING_DISABLED"
	CodeConflict           = "CONFLICT"
	CodeRateLimited        = "RATE_LIMITED"
	CodeUnavailable        = "SERVICE_UNAVAILABLE"
	CodeInternal           = "INTERNAL_SERVER_ERROR"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type successBody struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
}

type errorBody struct {
	Success   bool     `json:"success"`
	Error     apiError `json:"error"`
	Timestamp string   `json:"timestamp"`
}

type pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
}

type listData[T any] struct {
	Data       []T        `json:"data"`
	Pagination pagination `json:"pagination"`
}

func newListData[T any](p domain.Page[T]) listData[T] {
	items := p.Items
	if items == nil {
		items = []T{}
	}
	return listData[T]{
		Data: items,
		Pagination: pagination{
			Total:      p.Total,
			Page:       p.Page,
			PageSize:   p.Limit,
			TotalPages: p.TotalPages(),
		},
	}
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func successBytes(data interface{}) []byte {
	b, _ := json.Marshal(successBody{Success: true, Data: data, Timestamp: timestamp()})
	return b
}

func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeData(w http.ResponseWriter, status int, data interface{}) {
	writeRaw(w, status, successBytes(data))
}

func errorBytes(code, message string) []byte {
	b, _ := json.Marshal(errorBody{Error: apiError{Code: code, Message: message}, Timestamp: timestamp()})
	return b
}

func writeFailure(w http.ResponseWriter, status int, code, message string) {
	writeRaw(w, status, errorBytes(code, message))
}

// classify maps an error to its status, code and client message. fallback is
// the message for anything unrecognized; internal detail never reaches it.
func classify(err error, fallback string) (int, apiError) {
	hint := func(def string) string {
		if hints := errors.GetAllHints(err); len(hints) > 0 {
			return hints[0]
		}
		return def
	}
	switch {
	case errors.Is(err, domain.ErrValidation):
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			return http.StatusBadRequest, apiError{CodeValidation, verr.Error()}
		}
		return http.StatusBadRequest, apiError{CodeValidation, "Validation failed"}
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, apiError{CodeUnauthorized, "Wallet address required (x-wallet-address header)"}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, apiError{CodeForbidden, hint("You do not have permission to perform this action")}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, apiError{CodeNotFound, hint("Resource not found")}
	case errors.Is(err, domain.ErrCapacityFull):
		return http.StatusConflict, apiError{CodeCapacityFull, "Event is at full capacity"}
	case errors.Is(err, domain.ErrAlreadyRegistered):
		return http.StatusConflict, apiError{CodeAlreadyRegistered, "Wallet is already registered for this event"}
	case errors.Is(err, domain.ErrNFTMintingDisabled):
		return http.StatusBadRequest, apiError{CodeNFTMintingDisabled, "NFT minting is not enabled for this event"}
	case errors.Is(err, domain.ErrSerializationFailure):
		return http.StatusConflict, apiError{CodeConflict, "Concurrent update, please retry"}
	}
	return http.StatusInternalServerError, apiError{CodeInternal, fallback}
}

func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status, body := classify(err, fallback)
	if status >= http.StatusInternalServerError {
		observability.FromContext(r.Context(), h.logger).
			WithField("route", r.URL.Path).
			WithError(err).
			Error(fallback)
	}
	writeFailure(w, status, body.Code, body.Message)
}
