package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/chimucheck/backend/models"
	"github.com/chimucheck/backend/repositories"
	"github.com/chimucheck/backend/storage"
	"github.com/google/uuid"
)

type PlayerService interface {
	GetPlayerByID(ctx context.Context, id int) (*models.Player, error)
	ListPlayers(ctx context.Context, filter repositories.ListPlayersFilter) ([]models.Player, error)
	UpdatePlayer(ctx context.Context, id int, input UpdatePlayerInput) (*models.Player, error)
	SetApproval(ctx context.Context, id int, approval models.ApprovalStatus) (*models.Player, error)
	AdjustChimucoins(ctx context.Context, id int, delta int) (*models.Player, error)
	UploadAvatar(ctx context.Context, id int, contentType string, file io.Reader) (*models.Player, error)
	DeletePlayer(ctx context.Context, id int) error
}

type UpdatePlayerInput struct {
	Alias *string `json:"alias,omitempty"`
	Name  *string `json:"name,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

type playerService struct {
	playerRepo   repositories.PlayerRepository
	statsRepo    repositories.PlayerStatsRepository
	uploader     storage.FileUploader
	emailService *EmailService
	logger       *slog.Logger
}

func NewPlayerService(
	playerRepo repositories.PlayerRepository,
	statsRepo repositories.PlayerStatsRepository,
	uploader storage.FileUploader,
	emailService *EmailService,
	logger *slog.Logger,
) PlayerService {
	return &playerService{
		playerRepo:   playerRepo,
		statsRepo:    statsRepo,
		uploader:     uploader,
		emailService: emailService,
		logger:       logger,
	}
}

func (s *playerService) GetPlayerByID(ctx context.Context, id int) (*models.Player, error) {
	player, err := s.playerRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}

	stats, err := s.statsRepo.GetByPlayer(ctx, id)
	if err == nil {
		player.Stats = stats
	} else if !errors.Is(err, repositories.ErrPlayerStatsNotFound) {
		s.logger.WarnContext(ctx, "failed to load player stats", slog.Int("player_id", id), slog.Any("error", err))
	}

	populatePlayerDetails(player, s.uploader)
	return player, nil
}

func (s *playerService) ListPlayers(ctx context.Context, filter repositories.ListPlayersFilter) ([]models.Player, error) {
	players, err := s.playerRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	for i := range players {
		populatePlayerDetails(&players[i], s.uploader)
	}
	return players, nil
}

func (s *playerService) UpdatePlayer(ctx context.Context, id int, input UpdatePlayerInput) (*models.Player, error) {
	player, err := s.playerRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}

	if input.Alias != nil {
		player.Alias = *input.Alias
	}
	if input.Name != nil {
		player.Name = *input.Name
	}
	if input.Phone != nil {
		player.Phone = input.Phone
	}

	if err := s.playerRepo.Update(ctx, player); err != nil {
		switch {
		case errors.Is(err, repositories.ErrPlayerEmailConflict):
			return nil, ErrPlayerEmailConflict
		case errors.Is(err, repositories.ErrPlayerAliasConflict):
			return nil, ErrPlayerAliasConflict
		case errors.Is(err, repositories.ErrPlayerNotFound):
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}

	populatePlayerDetails(player, s.uploader)
	return player, nil
}

// SetApproval moves a pending account to approved or rejected and notifies
// the player by email. Email failures are logged, not returned.
func (s *playerService) SetApproval(ctx context.Context, id int, approval models.ApprovalStatus) (*models.Player, error) {
	if approval != models.ApprovalAprobado && approval != models.ApprovalRechazado {
		return nil, fmt.Errorf("%w: approval must be aprobado or rechazado", ErrValidationFailed)
	}

	player, err := s.playerRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}

	if err := s.playerRepo.UpdateApproval(ctx, id, approval); err != nil {
		return nil, err
	}
	player.Approval = approval

	if s.emailService != nil {
		if err := s.emailService.SendApprovalEmail(player.Email, player.Alias, approval == models.ApprovalAprobado); err != nil {
			s.logger.WarnContext(ctx, "failed to send approval email", slog.Int("player_id", id), slog.Any("error", err))
		}
	}

	populatePlayerDetails(player, s.uploader)
	return player, nil
}

func (s *playerService) AdjustChimucoins(ctx context.Context, id int, delta int) (*models.Player, error) {
	if err := s.playerRepo.AdjustChimucoins(ctx, nil, id, delta); err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	return s.GetPlayerByID(ctx, id)
}

func (s *playerService) UploadAvatar(ctx context.Context, id int, contentType string, file io.Reader) (*models.Player, error) {
	player, err := s.playerRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}

	ext, err := GetExtensionFromContentType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	key := fmt.Sprintf("avatars/%d/%s%s", id, uuid.NewString(), ext)
	if _, err := s.uploader.Upload(ctx, key, contentType, file); err != nil {
		return nil, fmt.Errorf("failed to upload avatar: %w", err)
	}

	oldKey := player.AvatarKey
	if err := s.playerRepo.UpdateAvatarKey(ctx, id, &key); err != nil {
		return nil, err
	}
	if oldKey != nil && *oldKey != "" {
		if err := s.uploader.Delete(ctx, *oldKey); err != nil {
			s.logger.WarnContext(ctx, "failed to delete old avatar", slog.String("key", *oldKey), slog.Any("error", err))
		}
	}

	player.AvatarKey = &key
	populatePlayerDetails(player, s.uploader)
	return player, nil
}

func (s *playerService) DeletePlayer(ctx context.Context, id int) error {
	if err := s.playerRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return ErrPlayerNotFound
		}
		return err
	}
	return nil
}
