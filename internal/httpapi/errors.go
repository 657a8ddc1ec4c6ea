package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"dealflow-engine/internal/domain"
)

type APIError struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		Field     string `json:"field,omitempty"`
		RequestID string `json:"request_id,omitempty"`
	} `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeAPIError(w, r, status, code, message, "")
}

func writeAPIError(w http.ResponseWriter, r *http.Request, status int, code, message, field string) {
	var e APIError
	e.Error.Code = code
	e.Error.Message = message
	e.Error.Field = field
	e.Error.RequestID = RequestIDFrom(r.Context())
	WriteJSON(w, status, e)
}

// statusClientClosed is the nginx convention for a caller that went away.
const statusClientClosed = 499

// writeSearchError maps a discovery failure onto the API error envelope.
// Upstream detail is logged by the caller, never echoed.
func writeSearchError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		writeAPIError(w, r, http.StatusBadRequest, "validation_error", ve.Message, ve.Field)
	case errors.Is(err, domain.ErrNotConfigured):
		WriteError(w, r, http.StatusInternalServerError, "not_configured", "search providers are not configured")
	case errors.Is(err, domain.ErrGeocode):
		WriteError(w, r, http.StatusBadGateway, "geocode_failed", "could not resolve location")
	case errors.Is(err, domain.ErrPersist):
		WriteError(w, r, http.StatusInternalServerError, "persist_failed", "could not save results")
	case errors.Is(err, context.DeadlineExceeded):
		WriteError(w, r, http.StatusGatewayTimeout, "timeout", "search timed out")
	case errors.Is(err, context.Canceled):
		WriteError(w, r, statusClientClosed, "canceled", "request canceled")
	default:
		WriteError(w, r, http.StatusInternalServerError, "internal_error", "search failed")
	}
}
