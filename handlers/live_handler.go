package handlers

import (
	"net/http"

	"github.com/chimucheck/backend/services"
)

type LiveHandler struct {
	liveService services.LiveService
}

func NewLiveHandler(liveService services.LiveService) *LiveHandler {
	return &LiveHandler{liveService: liveService}
}

// GetLiveView serves the public scoreboard payload. Polled by the site and
// the projector view; WebSocket pushes carry the same shape.
func (h *LiveHandler) GetLiveView(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	view, err := h.liveService.GetLiveView(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, view, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
