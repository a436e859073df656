package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/alvifsandana/qms-be/internal/services"
)

// NCRHandler handles HTTP requests for non-conformance reports.
type NCRHandler struct {
	service services.NCRServiceProvider
}

// NewNCRHandler creates a new NCRHandler.
func NewNCRHandler(service services.NCRServiceProvider) *NCRHandler {
	return &NCRHandler{service: service}
}

// CreateNCRPayload is the expected JSON body for creating a record.
type CreateNCRPayload struct {
	Number string `json:"no_jft"`
	Title  string `json:"title"`
}

// GetAll handles the request to list all NCR records.
func (h *NCRHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.GetAll()
	if err != nil {
		log.Error().Err(err).Msg("Failed to retrieve NCR records")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve records")
		return
	}
	respondJSON(w, http.StatusOK, records)
}

// Get handles retrieving a record by its ID.
func (h *NCRHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	record, err := h.service.Get(id)
	if err != nil {
		log.Warn().Err(err).Str("ncr_id", id).Msg("Failed to get NCR record")
		respondError(w, http.StatusNotFound, "Record not found")
		return
	}
	respondJSON(w, http.StatusOK, record)
}

// Create handles the request to create a new record.
func (h *NCRHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload CreateNCRPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if payload.Number == "" {
		respondError(w, http.StatusBadRequest, "no_jft is required")
		return
	}

	record, err := h.service.Create(payload.Number, payload.Title)
	if err != nil {
		log.Error().Err(err).Str("number", payload.Number).Msg("Failed to create NCR record")
		respondError(w, http.StatusInternalServerError, "Failed to create record")
		return
	}
	respondJSON(w, http.StatusCreated, record)
}

// Delete handles the request to delete a record.
func (h *NCRHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.Delete(id); err != nil {
		log.Error().Err(err).Str("ncr_id", id).Msg("Failed to delete NCR record")
		respondError(w, http.StatusInternalServerError, "Failed to delete record")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetAttachment links an uploaded file name to a record.
func (h *NCRHandler) SetAttachment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var payload struct {
		FileName *string `json:"fileName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.service.SetAttachment(id, payload.FileName); err != nil {
		log.Error().Err(err).Str("ncr_id", id).Msg("Failed to set NCR attachment")
		respondError(w, http.StatusInternalServerError, "Failed to update record")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Attachment updated"})
}
