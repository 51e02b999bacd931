package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rentx/rentx-api/internal/application/activity"
	"github.com/rentx/rentx-api/internal/application/listing"
	"github.com/rentx/rentx-api/internal/domain"
	"github.com/rentx/rentx-api/internal/pkg/validate"
	"github.com/rentx/rentx-api/internal/transport/http/middleware"
)

// ListingHandler serves the public catalog and the admin inventory editor.
type ListingHandler struct {
	svc     listing.Service
	tracker *activity.Tracker
}

func NewListingHandler(svc listing.Service, tracker *activity.Tracker) *ListingHandler {
	return &ListingHandler{svc: svc, tracker: tracker}
}

type createListingRequest struct {
	Info        domain.PropertyInfo    `json:"info"`
	Price       domain.PropertyPrice   `json:"price"`
	Media       domain.PropertyMedia   `json:"media"`
	Rules       domain.PropertyRules   `json:"rules"`
	Contact     domain.PropertyContact `json:"contact"`
	Rating      domain.PropertyRating  `json:"rating"`
	Amenities   []string               `json:"amenities"`
	Description string                 `json:"description"`
	Status      string                 `json:"status" validate:"omitempty,oneof=available booked"`
}

func (h *ListingHandler) List(w http.ResponseWriter, r *http.Request) {
	props, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, statusFromError(err), err.Error())
		return
	}
	if props == nil {
		props = []domain.Property{}
	}
	writeJSON(w, http.StatusOK, ListingsEnvelope{Data: props})
}

func (h *ListingHandler) Get(w http.ResponseWriter, r *http.Request) {
	propertyID := chi.URLParam(r, "id")
	p, err := h.svc.Get(r.Context(), propertyID)
	if err != nil {
		writeError(w, statusFromError(err), err.Error())
		return
	}
	// Views only attribute to signed-in visitors.
	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok && h.tracker != nil {
		h.tracker.Track(claims.AccountID, "room_viewed", propertyID)
	}
	writeJSON(w, http.StatusOK, ListingEnvelope{Listing: p})
}

// Contact reveals the listing's phone number and records who asked for it.
func (h *ListingHandler) Contact(w http.ResponseWriter, r *http.Request) {
	propertyID := chi.URLParam(r, "id")
	p, err := h.svc.Get(r.Context(), propertyID)
	if err != nil {
		writeError(w, statusFromError(err), err.Error())
		return
	}
	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok && h.tracker != nil {
		h.tracker.Track(claims.AccountID, "phone_revealed", propertyID)
	}
	writeJSON(w, http.StatusOK, map[string]string{"phone": p.Contact.Phone})
}

func (h *ListingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Info.Title == "" || req.Info.Location == "" {
		writeError(w, http.StatusBadRequest, "info.title and info.location required")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := h.svc.Create(r.Context(), &domain.Property{
		Info:        req.Info,
		Price:       req.Price,
		Media:       req.Media,
		Rules:       req.Rules,
		Contact:     req.Contact,
		Rating:      req.Rating,
		Amenities:   req.Amenities,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		writeError(w, statusFromError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, ListingEnvelope{Listing: p})
}

func (h *ListingHandler) Update(w http.ResponseWriter, r *http.Request) {
	propertyID := chi.URLParam(r, "id")
	var updates map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p, err := h.svc.Update(r.Context(), propertyID, updates)
	if err != nil {
		writeError(w, statusFromError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ListingEnvelope{Listing: p})
}

func (h *ListingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	propertyID := chi.URLParam(r, "id")
	if err := h.svc.Delete(r.Context(), propertyID); err != nil {
		writeError(w, statusFromError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "deleted"})
}

func (h *ListingHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	propertyID := chi.URLParam(r, "id")
	var req struct {
		Status string `json:"status" validate:"required,oneof=available booked"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := h.svc.SetStatus(r.Context(), propertyID, req.Status)
	if err != nil {
		writeError(w, statusFromError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ListingEnvelope{Listing: p})
}

func (h *ListingHandler) SetRooms(w http.ResponseWriter, r *http.Request) {
	propertyID := chi.URLParam(r, "id")
	var req struct {
		RoomNumbers []int `json:"room_numbers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p, err := h.svc.SetRoomAvailability(r.Context(), propertyID, req.RoomNumbers)
	if err != nil {
		writeError(w, statusFromError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ListingEnvelope{Listing: p})
}
