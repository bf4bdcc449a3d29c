package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/chimucheck/backend/models"
	"github.com/chimucheck/backend/repositories"
	"github.com/chimucheck/backend/scoring"
	"github.com/chimucheck/backend/storage"
	"github.com/google/uuid"
)

type TournamentService interface {
	CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error)
	GetTournamentByID(ctx context.Context, id int) (*models.Tournament, error)
	ListTournaments(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error)
	UpdateTournamentDetails(ctx context.Context, id int, input UpdateTournamentDetailsInput) (*models.Tournament, error)
	UpdateTournamentStatus(ctx context.Context, id int, status models.TournamentStatus) (*models.Tournament, error)
	SetTournamentPhotos(ctx context.Context, id int, photos []string) error
	UploadTournamentImage(ctx context.Context, id int, contentType string, file io.Reader) (*models.Tournament, error)
	DeleteTournament(ctx context.Context, id int) error
	AutoStartTournamentsByDate(ctx context.Context) error
}

type CreateTournamentInput struct {
	Name        string             `json:"name"`
	Description *string            `json:"description,omitempty"`
	Date        time.Time          `json:"date"`
	MaxPlayers  int                `json:"max_players"`
	Games       []models.GameEntry `json:"games,omitempty"`
	PrizePool   *models.PrizePool  `json:"prize_pool,omitempty"`
}

type UpdateTournamentDetailsInput struct {
	Name        *string            `json:"name,omitempty"`
	Description *string            `json:"description,omitempty"`
	Date        *time.Time         `json:"date,omitempty"`
	MaxPlayers  *int               `json:"max_players,omitempty"`
	Games       []models.GameEntry `json:"games,omitempty"`
	PrizePool   *models.PrizePool  `json:"prize_pool,omitempty"`
}

type tournamentService struct {
	tournamentRepo repositories.TournamentRepository
	uploader       storage.FileUploader
	hub            *scoring.Hub
	logger         *slog.Logger
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	uploader storage.FileUploader,
	hub *scoring.Hub,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		tournamentRepo: tournamentRepo,
		uploader:       uploader,
		hub:            hub,
		logger:         logger,
	}
}

func (s *tournamentService) CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	if input.Name == "" {
		return nil, ErrTournamentNameNeeded
	}
	if input.Date.IsZero() {
		return nil, ErrTournamentBadDate
	}
	if input.MaxPlayers <= 0 {
		return nil, ErrInvalidCapacity
	}

	tournament := &models.Tournament{
		Name:        input.Name,
		Description: input.Description,
		Date:        input.Date,
		Status:      models.StatusInscripcion,
		MaxPlayers:  input.MaxPlayers,
		Games:       input.Games,
		PrizePool:   input.PrizePool,
		Winners:     []models.WinnerEntry{},
		Photos:      []string{},
	}

	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		if errors.Is(err, repositories.ErrTournamentNameConflict) {
			return nil, ErrTournamentConflict
		}
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}
	return tournament, nil
}

func (s *tournamentService) GetTournamentByID(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	populateTournamentImageURL(tournament, s.uploader)
	return tournament, nil
}

func (s *tournamentService) ListTournaments(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	tournaments, err := s.tournamentRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	for i := range tournaments {
		populateTournamentImageURL(&tournaments[i], s.uploader)
	}
	return tournaments, nil
}

func (s *tournamentService) UpdateTournamentDetails(ctx context.Context, id int, input UpdateTournamentDetailsInput) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, ErrTournamentNameNeeded
		}
		tournament.Name = *input.Name
	}
	if input.Description != nil {
		tournament.Description = input.Description
	}
	if input.Date != nil {
		tournament.Date = *input.Date
	}
	if input.MaxPlayers != nil {
		if *input.MaxPlayers <= 0 {
			return nil, ErrInvalidCapacity
		}
		if *input.MaxPlayers < tournament.CurrentPlayers {
			return nil, fmt.Errorf("%w: cannot set max players below current registrations (%d)", ErrInvalidCapacity, tournament.CurrentPlayers)
		}
		tournament.MaxPlayers = *input.MaxPlayers
	}
	if input.Games != nil {
		tournament.Games = input.Games
	}
	if input.PrizePool != nil {
		tournament.PrizePool = input.PrizePool
	}

	if err := s.tournamentRepo.Update(ctx, tournament); err != nil {
		if errors.Is(err, repositories.ErrTournamentNameConflict) {
			return nil, ErrTournamentConflict
		}
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	populateTournamentImageURL(tournament, s.uploader)
	return tournament, nil
}

// UpdateTournamentStatus advances the lifecycle. Transitions only move
// forward: INSCRIPCION -> EN_JUEGO -> FINALIZADO.
func (s *tournamentService) UpdateTournamentStatus(ctx context.Context, id int, status models.TournamentStatus) (*models.Tournament, error) {
	if !isValidTournamentStatus(status) {
		return nil, ErrInvalidStatus
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	if !isValidStatusTransition(tournament.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, tournament.Status, status)
	}
	if tournament.Status == status {
		return tournament, nil
	}

	if err := s.tournamentRepo.UpdateStatus(ctx, nil, id, status); err != nil {
		return nil, err
	}
	tournament.Status = status

	s.hub.BroadcastToRoom(tournamentRoom(id), scoring.WebSocketMessage{
		Type:    scoring.EventTournamentStatus,
		Payload: map[string]interface{}{"tournament_id": id, "status": status},
		RoomID:  tournamentRoom(id),
	})

	populateTournamentImageURL(tournament, s.uploader)
	return tournament, nil
}

// SetTournamentPhotos replaces the photo gallery of a finished tournament.
func (s *tournamentService) SetTournamentPhotos(ctx context.Context, id int, photos []string) error {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return err
	}
	if !tournament.Finished() {
		return ErrTournamentNotDone
	}
	return s.tournamentRepo.UpdatePhotos(ctx, id, photos)
}

func (s *tournamentService) UploadTournamentImage(ctx context.Context, id int, contentType string, file io.Reader) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	ext, err := GetExtensionFromContentType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	key := fmt.Sprintf("tournaments/%d/%s%s", id, uuid.NewString(), ext)
	if _, err := s.uploader.Upload(ctx, key, contentType, file); err != nil {
		return nil, fmt.Errorf("failed to upload tournament image: %w", err)
	}

	oldKey := tournament.ImageKey
	if err := s.tournamentRepo.UpdateImageKey(ctx, id, &key); err != nil {
		return nil, err
	}
	if oldKey != nil && *oldKey != "" {
		if err := s.uploader.Delete(ctx, *oldKey); err != nil {
			s.logger.WarnContext(ctx, "failed to delete old tournament image", slog.String("key", *oldKey), slog.Any("error", err))
		}
	}

	tournament.ImageKey = &key
	populateTournamentImageURL(tournament, s.uploader)
	return tournament, nil
}

func (s *tournamentService) DeleteTournament(ctx context.Context, id int) error {
	if err := s.tournamentRepo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repositories.ErrTournamentNotFound):
			return ErrTournamentNotFound
		case errors.Is(err, repositories.ErrTournamentInUse):
			return fmt.Errorf("%w: unregister all players first", ErrForbiddenOperation)
		}
		return err
	}
	return nil
}

// AutoStartTournamentsByDate moves tournaments whose start date has passed
// from INSCRIPCION to EN_JUEGO. Called periodically by the scheduler in main.
func (s *tournamentService) AutoStartTournamentsByDate(ctx context.Context) error {
	tournaments, err := s.tournamentRepo.GetTournamentsForAutoStart(ctx, nil, time.Now())
	if err != nil {
		return fmt.Errorf("failed to load tournaments for auto start: %w", err)
	}

	for _, t := range tournaments {
		if err := s.tournamentRepo.UpdateStatus(ctx, nil, t.ID, models.StatusEnJuego); err != nil {
			s.logger.ErrorContext(ctx, "failed to auto start tournament",
				slog.Int("tournament_id", t.ID), slog.Any("error", err))
			continue
		}
		s.logger.InfoContext(ctx, "tournament auto started", slog.Int("tournament_id", t.ID))
		s.hub.BroadcastToRoom(tournamentRoom(t.ID), scoring.WebSocketMessage{
			Type:    scoring.EventTournamentStatus,
			Payload: map[string]interface{}{"tournament_id": t.ID, "status": models.StatusEnJuego},
			RoomID:  tournamentRoom(t.ID),
		})
	}
	return nil
}
