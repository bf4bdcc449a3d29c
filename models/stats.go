package models

import "time"

// PlayerStats aggregates a player's tournament history. Updated when results
// are finalized.
type PlayerStats struct {
	ID            int       `json:"id" db:"id"`
	PlayerID      int       `json:"player_id" db:"player_id"`
	MatchesPlayed int       `json:"matches_played" db:"matches_played"`
	FirstPlaces   int       `json:"first_places" db:"first_places"`
	SecondPlaces  int       `json:"second_places" db:"second_places"`
	ThirdPlaces   int       `json:"third_places" db:"third_places"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}
