package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/chimucheck/backend/services"
	"github.com/chimucheck/backend/storage"
	"github.com/google/uuid"
)

type UploadHandler struct {
	uploader storage.FileUploader
}

func NewUploadHandler(uploader storage.FileUploader) *UploadHandler {
	return &UploadHandler{uploader: uploader}
}

// Upload stores an arbitrary file under uploads/ and returns its public URL.
// Used by the back office for gallery photos and rich content.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		badRequestResponse(w, r, errors.New("multipart field 'file' is required"))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	ext, err := services.GetExtensionFromContentType(contentType)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	key := fmt.Sprintf("uploads/%s%s", uuid.NewString(), ext)
	result, err := h.uploader.Upload(r.Context(), key, contentType, file)
	if err != nil {
		serverErrorResponse(w, r, fmt.Errorf("failed to upload file: %w", err))
		return
	}

	response := jsonResponse{
		"success": true,
		"url":     result.Location,
	}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
