package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rentx/rentx-api/internal/application/media"
	"github.com/rentx/rentx-api/internal/pkg/validate"
)

// MediaHandler serves listing photo uploads and links.
type MediaHandler struct {
	svc *media.Service
}

func NewMediaHandler(svc *media.Service) *MediaHandler {
	return &MediaHandler{svc: svc}
}

// maxUploadBytes caps multipart uploads at 10 MiB.
const maxUploadBytes = 10 << 20

// Upload accepts a multipart form with a "file" part and stores it under the
// listing given in the URL.
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	propertyID := chi.URLParam(r, "id")
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file part required")
		return
	}
	defer file.Close()

	key, location, err := h.svc.Upload(r.Context(), propertyID, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		writeError(w, statusFromError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, MediaEnvelope{Key: key, Location: location})
}

// UploadBase64 accepts a JSON payload with the image as base64, the shape the
// editor posts for canvas exports.
func (h *MediaHandler) UploadBase64(w http.ResponseWriter, r *http.Request) {
	propertyID := chi.URLParam(r, "id")
	var req struct {
		Filename string `json:"filename" validate:"required"`
		Data     string `json:"data" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	key, location, err := h.svc.UploadBase64(r.Context(), propertyID, req.Filename, req.Data)
	if err != nil {
		writeError(w, statusFromError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, MediaEnvelope{Key: key, Location: location})
}

// URL returns a short-lived link for a stored image key.
func (h *MediaHandler) URL(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "key required")
		return
	}
	url, err := h.svc.URL(r.Context(), key)
	if err != nil {
		writeError(w, statusFromError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, MediaEnvelope{Key: key, URL: url})
}

func (h *MediaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "key required")
		return
	}
	if err := h.svc.Delete(r.Context(), key); err != nil {
		writeError(w, statusFromError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "deleted"})
}
