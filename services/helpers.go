package services

import (
	"fmt"
	"strings"

	"github.com/chimucheck/backend/models"
	"github.com/chimucheck/backend/scoring"
	"github.com/chimucheck/backend/storage"
)

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func isValidStatusTransition(current, next models.TournamentStatus) bool {
	if current == next {
		return true
	}
	allowedTransitions := map[models.TournamentStatus][]models.TournamentStatus{
		models.StatusInscripcion: {models.StatusEnJuego},
		models.StatusEnJuego:     {models.StatusFinalizado},
		models.StatusFinalizado:  {},
	}
	for _, allowed := range allowedTransitions[current] {
		if next == allowed {
			return true
		}
	}
	return false
}

func isValidTournamentStatus(status models.TournamentStatus) bool {
	switch status {
	case models.StatusInscripcion, models.StatusEnJuego, models.StatusFinalizado:
		return true
	}
	return false
}

func tournamentRoom(tournamentID int) string {
	return fmt.Sprintf("tournament_%d", tournamentID)
}

func populatePlayerDetails(player *models.Player, uploader storage.FileUploader) {
	if player == nil {
		return
	}
	player.PasswordHash = ""
	if player.AvatarKey != nil && *player.AvatarKey != "" && uploader != nil {
		url := uploader.GetPublicURL(*player.AvatarKey)
		if url != "" {
			player.AvatarURL = &url
		}
	}
}

func populateTournamentImageURL(tournament *models.Tournament, uploader storage.FileUploader) {
	if tournament != nil && tournament.ImageKey != nil && *tournament.ImageKey != "" && uploader != nil {
		url := uploader.GetPublicURL(*tournament.ImageKey)
		if url != "" {
			tournament.ImageURL = &url
		}
	}
}

func populateNewsCoverURL(news *models.News, uploader storage.FileUploader) {
	if news != nil && news.CoverKey != nil && *news.CoverKey != "" && uploader != nil {
		url := uploader.GetPublicURL(*news.CoverKey)
		if url != "" {
			news.CoverURL = &url
		}
	}
}

// entriesFromRegistrations projects registrations into ranking input. The
// player must be preloaded on each registration.
func entriesFromRegistrations(registrations []*models.Registration) []scoring.Entry {
	entries := make([]scoring.Entry, 0, len(registrations))
	for _, reg := range registrations {
		if reg == nil {
			continue
		}
		alias := ""
		if reg.Player != nil {
			alias = reg.Player.Alias
		}
		entries = append(entries, scoring.Entry{
			PlayerID: reg.PlayerID,
			Alias:    alias,
			Score:    reg.Score,
		})
	}
	return entries
}

// GetExtensionFromContentType maps an uploaded file's content type to the
// extension used for its storage key.
func GetExtensionFromContentType(contentType string) (string, error) {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/gif":
		return ".gif", nil
	case "image/webp":
		return ".webp", nil
	default:
		parts := strings.Split(contentType, "/")
		if len(parts) == 2 && strings.HasPrefix(parts[0], "image") && parts[1] != "" {
			return "." + strings.Split(parts[1], "+")[0], nil
		}
		return "", fmt.Errorf("could not determine file extension from content type: '%s'", contentType)
	}
}
