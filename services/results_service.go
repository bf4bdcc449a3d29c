package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/chimucheck/backend/models"
	"github.com/chimucheck/backend/repositories"
	"github.com/chimucheck/backend/scoring"
)

// SaveResultsInput carries the full state of the results editor: the final
// score sheet and the winners list with chimucoin rewards.
type SaveResultsInput struct {
	Scores  []ScoreEntry         `json:"scores"`
	Winners []models.WinnerEntry `json:"winners"`
}

// SaveResultsOutcome reports the finalization. Warnings hold per-player
// grant or stats failures that did not abort the operation.
type SaveResultsOutcome struct {
	Tournament *models.Tournament `json:"tournament"`
	Warnings   []string           `json:"warnings,omitempty"`
}

type ResultsService interface {
	SaveResults(ctx context.Context, tournamentID int, input SaveResultsInput) (*SaveResultsOutcome, error)
	AutoAssignWinners(ctx context.Context, tournamentID int, current []models.WinnerEntry) ([]models.WinnerEntry, error)
	ToggleWinnerPosition(ctx context.Context, tournamentID, position, playerID int, current []models.WinnerEntry) ([]models.WinnerEntry, error)
	GetResults(ctx context.Context, tournamentID int) (*models.Tournament, error)
}

type resultsService struct {
	tournamentRepo   repositories.TournamentRepository
	registrationRepo repositories.RegistrationRepository
	playerRepo       repositories.PlayerRepository
	statsRepo        repositories.PlayerStatsRepository
	hub              *scoring.Hub
	logger           *slog.Logger
}

func NewResultsService(
	tournamentRepo repositories.TournamentRepository,
	registrationRepo repositories.RegistrationRepository,
	playerRepo repositories.PlayerRepository,
	statsRepo repositories.PlayerStatsRepository,
	hub *scoring.Hub,
	logger *slog.Logger,
) ResultsService {
	return &resultsService{
		tournamentRepo:   tournamentRepo,
		registrationRepo: registrationRepo,
		playerRepo:       playerRepo,
		statsRepo:        statsRepo,
		hub:              hub,
		logger:           logger,
	}
}

// SaveResults finalizes a tournament: persists the final score sheet, stores
// the winners list and grants each winner their chimucoins.
//
// Ordering matters here. All scores must persist before winners are touched;
// any score failure aborts the whole save so coins are never granted against
// a half-written sheet. Re-saving an already finalized tournament first
// reverts the coins granted by the previous save, so the operation stays
// idempotent with respect to player balances.
func (s *resultsService) SaveResults(ctx context.Context, tournamentID int, input SaveResultsInput) (*SaveResultsOutcome, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	if tournament.Status == models.StatusInscripcion {
		return nil, ErrTournamentNotLive
	}

	if err := scoring.ValidateWinners(input.Winners); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWinnersList, err)
	}

	for _, entry := range input.Scores {
		if err := s.registrationRepo.UpdateScore(ctx, nil, tournamentID, entry.PlayerID, entry.Score); err != nil {
			return nil, fmt.Errorf("failed to save score for player %d, results not finalized: %w", entry.PlayerID, err)
		}
	}

	outcome := &SaveResultsOutcome{}

	// Undo the previous grant before applying the new one.
	if tournament.Finished() && len(tournament.Winners) > 0 {
		s.revertChimucoins(ctx, tournament.Winners, outcome)
	}

	if err := s.tournamentRepo.UpdateWinners(ctx, nil, tournamentID, input.Winners); err != nil {
		return nil, fmt.Errorf("failed to store winners: %w", err)
	}

	firstFinalization := !tournament.Finished()
	if firstFinalization {
		if err := s.tournamentRepo.UpdateStatus(ctx, nil, tournamentID, models.StatusFinalizado); err != nil {
			return nil, fmt.Errorf("failed to finalize tournament: %w", err)
		}
		tournament.Status = models.StatusFinalizado
	}
	tournament.Winners = input.Winners

	for _, winner := range input.Winners {
		if winner.Chimucoins == 0 {
			continue
		}
		if err := s.playerRepo.AdjustChimucoins(ctx, nil, winner.PlayerID, winner.Chimucoins); err != nil {
			s.warn(ctx, outcome, fmt.Sprintf("no se pudo acreditar %d chimucoins al jugador %d", winner.Chimucoins, winner.PlayerID), err)
		}
	}

	if firstFinalization {
		s.updateStats(ctx, tournamentID, input.Winners, outcome)
	}

	room := tournamentRoom(tournamentID)
	s.hub.BroadcastToRoom(room, scoring.WebSocketMessage{
		Type:    scoring.EventWinnersPublished,
		Payload: map[string]interface{}{"tournament_id": tournamentID, "winners": input.Winners},
		RoomID:  room,
	})

	outcome.Tournament = tournament
	return outcome, nil
}

// AutoAssignWinners proposes a winners list from the current ranking: the
// top three players take positions 1-3. Nothing is persisted; the caller
// reviews the proposal and submits it through SaveResults.
func (s *resultsService) AutoAssignWinners(ctx context.Context, tournamentID int, current []models.WinnerEntry) ([]models.WinnerEntry, error) {
	ranked, err := s.rankedEntries(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	return scoring.AutoAssign(ranked, current), nil
}

// ToggleWinnerPosition flips a podium position for a player in an in-flight
// winners list, enforcing one owner per position. Nothing is persisted.
func (s *resultsService) ToggleWinnerPosition(ctx context.Context, tournamentID, position, playerID int, current []models.WinnerEntry) ([]models.WinnerEntry, error) {
	registration, err := s.registrationRepo.FindByPlayerAndTournament(ctx, playerID, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrRegistrationNotFound) {
			return nil, ErrRegistrationNotFound
		}
		return nil, err
	}

	alias := ""
	if registration.Player != nil {
		alias = registration.Player.Alias
	} else if player, err := s.playerRepo.GetByID(ctx, playerID); err == nil {
		alias = player.Alias
	}

	winners, err := scoring.TogglePosition(current, position, playerID, alias)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWinnersList, err)
	}
	return winners, nil
}

func (s *resultsService) GetResults(ctx context.Context, tournamentID int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	if !tournament.Finished() {
		return nil, ErrTournamentNotDone
	}
	return tournament, nil
}

// revertChimucoins subtracts the coins granted by a previous finalization.
// Individual failures are reported as warnings: a player deleted since the
// last save must not block re-finalizing the tournament.
func (s *resultsService) revertChimucoins(ctx context.Context, winners []models.WinnerEntry, outcome *SaveResultsOutcome) {
	for _, winner := range winners {
		if winner.Chimucoins == 0 {
			continue
		}
		if err := s.playerRepo.AdjustChimucoins(ctx, nil, winner.PlayerID, -winner.Chimucoins); err != nil {
			s.warn(ctx, outcome, fmt.Sprintf("no se pudo revertir %d chimucoins del jugador %d", winner.Chimucoins, winner.PlayerID), err)
		}
	}
}

func (s *resultsService) updateStats(ctx context.Context, tournamentID int, winners []models.WinnerEntry, outcome *SaveResultsOutcome) {
	registrations, err := s.registrationRepo.ListByTournament(ctx, tournamentID, false)
	if err != nil {
		s.warn(ctx, outcome, "no se pudieron actualizar las estadísticas de los jugadores", err)
		return
	}

	for _, reg := range registrations {
		if err := s.statsRepo.IncrementMatches(ctx, nil, reg.PlayerID); err != nil {
			s.warn(ctx, outcome, fmt.Sprintf("no se pudo actualizar las estadísticas del jugador %d", reg.PlayerID), err)
		}
	}
	for _, winner := range winners {
		if winner.Position < 1 || winner.Position > scoring.PodiumPositions {
			continue
		}
		if err := s.statsRepo.IncrementPodium(ctx, nil, winner.PlayerID, winner.Position); err != nil {
			s.warn(ctx, outcome, fmt.Sprintf("no se pudo registrar el podio del jugador %d", winner.PlayerID), err)
		}
	}
}

func (s *resultsService) rankedEntries(ctx context.Context, tournamentID int) ([]scoring.RankedEntry, error) {
	registrations, err := s.registrationRepo.ListByTournament(ctx, tournamentID, true)
	if err != nil {
		return nil, err
	}
	return scoring.Rank(entriesFromRegistrations(registrations)), nil
}

func (s *resultsService) warn(ctx context.Context, outcome *SaveResultsOutcome, message string, err error) {
	outcome.Warnings = append(outcome.Warnings, message)
	s.logger.WarnContext(ctx, message, slog.Any("error", err))
}
