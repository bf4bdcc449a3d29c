package models

import "time"

// TournamentStatus mirrors the ENUM values stored in the database.
// The values are kept in Spanish as the product exposes them directly.
type TournamentStatus string

const (
	StatusInscripcion TournamentStatus = "INSCRIPCION"
	StatusEnJuego     TournamentStatus = "EN_JUEGO"
	StatusFinalizado  TournamentStatus = "FINALIZADO"
)

// GameEntry describes one game played at a tournament. Stored as part of a
// JSON blob on the tournament row.
type GameEntry struct {
	Name   string `json:"name"`
	Image  string `json:"image,omitempty"`
	Format string `json:"format,omitempty"`
}

// PrizePool holds the podium prize descriptions, stored as JSON.
type PrizePool struct {
	First  string `json:"first,omitempty"`
	Second string `json:"second,omitempty"`
	Third  string `json:"third,omitempty"`
}

// Tournament is the central entity. Games, prize pool, winners and photos are
// value objects serialized as JSON at the persistence boundary.
type Tournament struct {
	ID             int              `json:"id" db:"id"`
	Name           string           `json:"name" db:"name"`
	Description    *string          `json:"description,omitempty" db:"description"`
	Date           time.Time        `json:"date" db:"date"`
	Status         TournamentStatus `json:"status" db:"status"`
	MaxPlayers     int              `json:"max_players" db:"max_players"`
	CurrentPlayers int              `json:"current_players" db:"current_players"`
	Games          []GameEntry      `json:"games" db:"-"`
	PrizePool      *PrizePool       `json:"prize_pool,omitempty" db:"-"`
	Winners        []WinnerEntry    `json:"winners" db:"-"`
	Photos         []string         `json:"photos" db:"-"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`
	ImageKey       *string          `json:"-" db:"image_key"`
	ImageURL       *string          `json:"image_url,omitempty" db:"-"`

	// Optional linked data, populated by the service layer.
	Registrations []Registration `json:"registrations,omitempty" db:"-"`
}

// RegistrationOpen reports whether players may still register.
func (t *Tournament) RegistrationOpen() bool {
	return t.Status == StatusInscripcion
}

// Live reports whether score edits make sense for this tournament.
func (t *Tournament) Live() bool {
	return t.Status == StatusEnJuego
}

// Finished reports whether winners and photos may be assigned.
func (t *Tournament) Finished() bool {
	return t.Status == StatusFinalizado
}
