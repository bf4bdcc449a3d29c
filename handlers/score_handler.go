package handlers

import (
	"errors"
	"net/http"

	"github.com/chimucheck/backend/scoring"
	"github.com/chimucheck/backend/services"
	"github.com/go-chi/chi/v5"
)

type ScoreHandler struct {
	scoreService services.ScoreService
}

func NewScoreHandler(scoreService services.ScoreService) *ScoreHandler {
	return &ScoreHandler{scoreService: scoreService}
}

func (h *ScoreHandler) UpdateScore(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Score int `json:"score"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.scoreService.UpdatePlayerScore(r.Context(), tournamentID, playerID, input.Score); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"player_id": playerID, "score": input.Score}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ScoreHandler) BulkUpdateScores(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Scores []services.ScoreEntry `json:"scores"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if len(input.Scores) == 0 {
		badRequestResponse(w, r, errors.New("scores must not be empty"))
		return
	}

	result, err := h.scoreService.BulkUpdateScores(r.Context(), tournamentID, input.Scores)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"result": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ScoreHandler) OpenSession(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	state, err := h.scoreService.OpenSession(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"session": state}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ScoreHandler) ApplyEdit(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		badRequestResponse(w, r, errors.New("invalid session ID"))
		return
	}

	var input struct {
		PlayerID int  `json:"player_id"`
		Score    *int `json:"score,omitempty"`
		Offset   *int `json:"offset,omitempty"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.PlayerID <= 0 {
		badRequestResponse(w, r, errors.New("player_id is required"))
		return
	}

	var state *services.SessionState
	var err error
	switch {
	case input.Score != nil:
		state, err = h.scoreService.ApplySessionEdit(r.Context(), sessionID, input.PlayerID, *input.Score)
	case input.Offset != nil:
		state, err = h.scoreService.AdjustSessionScore(r.Context(), sessionID, input.PlayerID, *input.Offset)
	default:
		badRequestResponse(w, r, errors.New("either score or offset is required"))
		return
	}
	if err != nil {
		mapSessionErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"session": state}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ScoreHandler) Undo(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	state, err := h.scoreService.UndoSession(r.Context(), sessionID)
	if err != nil {
		mapSessionErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"session": state}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ScoreHandler) Redo(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	state, err := h.scoreService.RedoSession(r.Context(), sessionID)
	if err != nil {
		mapSessionErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"session": state}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ScoreHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	h.scoreService.CloseSession(sessionID)
	w.WriteHeader(http.StatusNoContent)
}

// mapSessionErrorToHTTP adds the empty-stack cases on top of the shared
// mapping: undoing with nothing to undo is a client error, not a crash.
func mapSessionErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, scoring.ErrNothingToUndo), errors.Is(err, scoring.ErrNothingToRedo):
		badRequestResponse(w, r, err)
	default:
		mapServiceErrorToHTTP(w, r, err)
	}
}
