package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/chimucheck/backend/models"
	"github.com/chimucheck/backend/repositories"
)

type RegistrationService interface {
	Register(ctx context.Context, tournamentID, playerID int) (*models.Registration, error)
	Unregister(ctx context.Context, tournamentID, playerID int) error
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Registration, error)
	SetStatus(ctx context.Context, registrationID int, status models.RegistrationStatus) error
}

type registrationService struct {
	registrationRepo repositories.RegistrationRepository
	tournamentRepo   repositories.TournamentRepository
	playerRepo       repositories.PlayerRepository
	logger           *slog.Logger
}

func NewRegistrationService(
	registrationRepo repositories.RegistrationRepository,
	tournamentRepo repositories.TournamentRepository,
	playerRepo repositories.PlayerRepository,
	logger *slog.Logger,
) RegistrationService {
	return &registrationService{
		registrationRepo: registrationRepo,
		tournamentRepo:   tournamentRepo,
		playerRepo:       playerRepo,
		logger:           logger,
	}
}

// Register enters a player into a tournament. Capacity is claimed with a
// single conditional increment on the tournament row, so two registrations
// racing for the last slot cannot both pass: the check and the increment are
// one atomic statement.
func (s *registrationService) Register(ctx context.Context, tournamentID, playerID int) (*models.Registration, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament: %w", err)
	}
	if !tournament.RegistrationOpen() {
		return nil, ErrRegistrationNotOpen
	}

	player, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to load player: %w", err)
	}
	if player.Approval != models.ApprovalAprobado {
		return nil, ErrPlayerNotApproved
	}

	claimed, err := s.tournamentRepo.ClaimSlot(ctx, nil, tournamentID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, ErrTournamentFull
	}

	registration := &models.Registration{
		PlayerID:     playerID,
		TournamentID: tournamentID,
		Score:        0,
		Status:       models.RegistrationPendiente,
	}

	if err := s.registrationRepo.Create(ctx, nil, registration); err != nil {
		// The slot was claimed but the insert failed; give the slot back.
		if releaseErr := s.tournamentRepo.ReleaseSlot(ctx, nil, tournamentID); releaseErr != nil {
			s.logger.ErrorContext(ctx, "failed to release claimed slot after registration error",
				slog.Int("tournament_id", tournamentID), slog.Any("error", releaseErr))
		}
		if errors.Is(err, repositories.ErrRegistrationConflict) {
			return nil, ErrRegistrationConflict
		}
		return nil, err
	}

	return registration, nil
}

func (s *registrationService) Unregister(ctx context.Context, tournamentID, playerID int) error {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return err
	}
	if !tournament.RegistrationOpen() {
		return ErrRegistrationNotOpen
	}

	if err := s.registrationRepo.Delete(ctx, nil, playerID, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrRegistrationNotFound) {
			return ErrRegistrationNotFound
		}
		return err
	}
	return s.tournamentRepo.ReleaseSlot(ctx, nil, tournamentID)
}

func (s *registrationService) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Registration, error) {
	registrations, err := s.registrationRepo.ListByTournament(ctx, tournamentID, true)
	if err != nil {
		return nil, err
	}
	for _, reg := range registrations {
		if reg.Player != nil {
			reg.Player.PasswordHash = ""
		}
	}
	return registrations, nil
}

func (s *registrationService) SetStatus(ctx context.Context, registrationID int, status models.RegistrationStatus) error {
	switch status {
	case models.RegistrationPendiente, models.RegistrationConfirmado, models.RegistrationEliminado:
	default:
		return fmt.Errorf("%w: unknown registration status %q", ErrValidationFailed, status)
	}
	if err := s.registrationRepo.UpdateStatus(ctx, registrationID, status); err != nil {
		if errors.Is(err, repositories.ErrRegistrationNotFound) {
			return ErrRegistrationNotFound
		}
		return err
	}
	return nil
}
