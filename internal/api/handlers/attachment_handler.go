package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/alvifsandana/qms-be/internal/auth"
	"github.com/alvifsandana/qms-be/internal/services"
)

// maxUploadSize bounds the in-memory part of a multipart parse.
const maxUploadSize = 32 << 20 // 32 MiB

// AttachmentHandler handles file upload and deletion requests.
type AttachmentHandler struct {
	service  services.AttachmentServiceProvider
	eventSvc services.EventServiceProvider
}

// NewAttachmentHandler creates a new AttachmentHandler.
func NewAttachmentHandler(service services.AttachmentServiceProvider, eventSvc services.EventServiceProvider) *AttachmentHandler {
	return &AttachmentHandler{service: service, eventSvc: eventSvc}
}

// readUpload pulls the "lampiran" file out of a multipart request.
func readUpload(r *http.Request) (data []byte, declaredName string, err error) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return nil, "", err
	}
	file, header, err := r.FormFile("lampiran")
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	data, err = io.ReadAll(file)
	if err != nil {
		return nil, "", err
	}
	return data, header.Filename, nil
}

// UploadLocal stores an attachment on the local filesystem.
func (h *AttachmentHandler) UploadLocal(w http.ResponseWriter, r *http.Request) {
	data, declaredName, err := readUpload(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "lampiran file is required")
		return
	}
	noJFT := r.FormValue("no_jft")

	fileName := h.service.StoredName(declaredName, noJFT)
	if err := h.service.SaveLocal(fileName, data); err != nil {
		log.Error().Err(err).Str("file_name", fileName).Msg("Failed to store attachment locally")
		respondError(w, http.StatusInternalServerError, "Failed to store attachment")
		return
	}

	h.recordUpload(r, "attachment.upload", "Stored attachment "+fileName)
	respondJSON(w, http.StatusCreated, map[string]string{
		"message":  "File uploaded successfully",
		"fileName": fileName,
	})
}

// UploadRemote commits an attachment to the remote content store.
func (h *AttachmentHandler) UploadRemote(w http.ResponseWriter, r *http.Request) {
	data, declaredName, err := readUpload(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "lampiran file is required")
		return
	}
	if strings.ToLower(filepath.Ext(declaredName)) != ".pdf" {
		respondError(w, http.StatusBadRequest, "Only PDF attachments are accepted")
		return
	}

	fileName := h.service.StoredName(declaredName, r.FormValue("no_jft"))
	url, err := h.service.SaveRemote(r.Context(), fileName, data, "application/pdf")
	if err != nil {
		log.Error().Err(err).Str("file_name", fileName).Msg("Remote store rejected attachment")
		// Surface the upstream message.
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.recordUpload(r, "attachment.upload.remote", "Committed attachment "+fileName)
	respondJSON(w, http.StatusCreated, map[string]string{
		"message":  "File uploaded successfully",
		"fileName": fileName,
		"url":      url,
	})
}

// DeletePayload is the expected JSON body for attachment deletion.
type DeletePayload struct {
	FilePath string `json:"filePath"`
}

// Delete removes a stored attachment. Deleting a path that does not
// exist is still success.
func (h *AttachmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var payload DeletePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if payload.FilePath == "" {
		respondError(w, http.StatusBadRequest, "filePath is required")
		return
	}

	if err := h.service.DeleteLocal(payload.FilePath); err != nil {
		log.Error().Err(err).Str("file_path", payload.FilePath).Msg("Failed to delete attachment")
		respondError(w, http.StatusInternalServerError, "Failed to delete attachment")
		return
	}

	h.recordUpload(r, "attachment.delete", "Deleted attachment "+payload.FilePath)
	respondJSON(w, http.StatusOK, map[string]string{"message": "File deleted"})
}

func (h *AttachmentHandler) recordUpload(r *http.Request, eventType, message string) {
	var userID *string
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		userID = &claims.UserID
	}
	if err := h.eventSvc.Record(eventType, "info", message, userID); err != nil {
		log.Error().Err(err).Str("type", eventType).Msg("Failed to record attachment event")
	}
}
