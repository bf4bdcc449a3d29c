package models

import "time"

// RegistrationStatus values match the ENUM in the database.
type RegistrationStatus string

const (
	RegistrationPendiente  RegistrationStatus = "pendiente"
	RegistrationConfirmado RegistrationStatus = "confirmado"
	RegistrationEliminado  RegistrationStatus = "eliminado"
)

// Registration links a player to a tournament and carries their live score.
// One registration per (player, tournament), enforced by a unique constraint.
type Registration struct {
	ID           int                `json:"id"`
	PlayerID     int                `json:"player_id"`
	TournamentID int                `json:"tournament_id"`
	Score        int                `json:"score"`
	Status       RegistrationStatus `json:"status"`
	CreatedAt    time.Time          `json:"created_at"`

	Player *Player `json:"player,omitempty"`
}
