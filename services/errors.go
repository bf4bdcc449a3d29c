package services

import "errors"

// Shared errors used across services and the HTTP error mapping.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Validation and business rules. User-facing registration messages are
	// kept in Spanish, matching the product copy.
	ErrValidationFailed     = errors.New("validation failed")
	ErrPasswordTooShort     = errors.New("password is too short")
	ErrRegistrationNotOpen  = errors.New("tournament registration is not open")
	ErrTournamentFull       = errors.New("El torneo está lleno")
	ErrPlayerNotApproved    = errors.New("player registration has not been approved")
	ErrTournamentNotLive    = errors.New("tournament is not in progress")
	ErrTournamentNotDone    = errors.New("tournament has not finished")
	ErrScoreUnchanged       = errors.New("score unchanged")
	ErrInvalidWinnersList   = errors.New("invalid winners list")
	ErrTournamentNameNeeded = errors.New("tournament name is required")
	ErrTournamentBadDate    = errors.New("tournament date is required")
	ErrInvalidCapacity      = errors.New("tournament max players must be positive")
	ErrInvalidStatus        = errors.New("invalid tournament status provided")
	ErrInvalidTransition    = errors.New("invalid tournament status transition")

	// Conflicts.
	ErrPlayerEmailConflict  = errors.New("email address is already in use")
	ErrPlayerAliasConflict  = errors.New("alias is already in use")
	ErrRegistrationConflict = errors.New("player is already registered for this tournament")
	ErrTournamentConflict   = errors.New("tournament name already exists")

	// Authentication and authorization.
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")

	// Entity-specific not-found errors.
	ErrPlayerNotFound       = errors.New("player not found")
	ErrTournamentNotFound   = errors.New("tournament not found")
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrNewsNotFound         = errors.New("news post not found")
	ErrEventNotFound        = errors.New("event not found")
	ErrSessionNotFound      = errors.New("scoring session not found")
)
