package models

import "time"

type PlayerRole string

const (
	RoleAdmin  PlayerRole = "admin"
	RolePlayer PlayerRole = "player"
)

// ApprovalStatus values match the ENUM in the database.
type ApprovalStatus string

const (
	ApprovalPendiente ApprovalStatus = "pendiente"
	ApprovalAprobado  ApprovalStatus = "aprobado"
	ApprovalRechazado ApprovalStatus = "rechazado"
)

// Player is a community member. Alias and email are unique. Chimucoins is the
// reward currency balance mutated by tournament finalization.
type Player struct {
	ID           int            `json:"id"`
	Alias        string         `json:"alias"`
	Name         string         `json:"name"`
	Email        string         `json:"email"`
	PasswordHash string         `json:"-"`
	Phone        *string        `json:"phone,omitempty"`
	Role         PlayerRole     `json:"role"`
	Chimucoins   int            `json:"chimucoins"`
	Approval     ApprovalStatus `json:"approval"`
	CreatedAt    time.Time      `json:"created_at"`
	AvatarKey    *string        `json:"-"`
	AvatarURL    *string        `json:"avatar_url,omitempty"`

	Stats *PlayerStats `json:"stats,omitempty"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
