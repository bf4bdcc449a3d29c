package handlers

import (
	"errors"
	"net/http"

	"github.com/chimucheck/backend/services"
)

type ImportHandler struct {
	importService services.ImportService
}

func NewImportHandler(importService services.ImportService) *ImportHandler {
	return &ImportHandler{importService: importService}
}

// ImportPlayers accepts a multipart CSV and creates player accounts row by
// row. Always responds 200 with the aggregate report; row failures are part
// of the report, not an HTTP error.
func (h *ImportHandler) ImportPlayers(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("file")
	if err != nil {
		badRequestResponse(w, r, errors.New("multipart field 'file' is required"))
		return
	}
	defer file.Close()

	report, err := h.importService.ImportPlayersCSV(r.Context(), file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"report": report}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
