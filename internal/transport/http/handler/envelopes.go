package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rentx/rentx-api/internal/application/authflow"
	"github.com/rentx/rentx-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
}

// FlowEnvelope describes a login flow instance: its current step plus, once
// the flow reaches authenticated, the session snapshot and bearer.
type FlowEnvelope struct {
	FlowID  string          `json:"flow_id"`
	State   string          `json:"state"`
	Mode    string          `json:"mode,omitempty"`
	Email   string          `json:"email,omitempty"`
	Bearer  string          `json:"Bearer,omitempty"`
	Session *domain.Session `json:"session,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// ListingEnvelope wraps a single listing response.
type ListingEnvelope struct {
	Listing *domain.Property `json:"listing,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// ListingsEnvelope wraps the public feed.
type ListingsEnvelope struct {
	Data  []domain.Property `json:"data"`
	Error string            `json:"error,omitempty"`
}

// MediaEnvelope wraps upload and URL responses.
type MediaEnvelope struct {
	Key      string `json:"key,omitempty"`
	Location string `json:"location,omitempty"`
	URL      string `json:"url,omitempty"`
	Error    string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// statusFromError maps domain sentinels to HTTP status codes.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, domain.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrCredentialMismatch),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, authflow.ErrBusy),
		errors.Is(err, authflow.ErrInvalidEvent),
		errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
