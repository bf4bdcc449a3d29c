package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/chimucheck/backend/models"
)

var ErrPlayerStatsNotFound = errors.New("player stats not found")

type PlayerStatsRepository interface {
	GetByPlayer(ctx context.Context, playerID int) (*models.PlayerStats, error)
	IncrementMatches(ctx context.Context, exec SQLExecutor, playerID int) error
	IncrementPodium(ctx context.Context, exec SQLExecutor, playerID, position int) error
}

type postgresPlayerStatsRepository struct {
	db *sql.DB
}

func NewPostgresPlayerStatsRepository(db *sql.DB) PlayerStatsRepository {
	return &postgresPlayerStatsRepository{db: db}
}

func (r *postgresPlayerStatsRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresPlayerStatsRepository) GetByPlayer(ctx context.Context, playerID int) (*models.PlayerStats, error) {
	query := `
		SELECT id, player_id, matches_played, first_places, second_places, third_places, updated_at
		FROM player_stats
		WHERE player_id = $1`

	s := &models.PlayerStats{}
	err := r.db.QueryRowContext(ctx, query, playerID).Scan(
		&s.ID, &s.PlayerID, &s.MatchesPlayed, &s.FirstPlaces, &s.SecondPlaces, &s.ThirdPlaces, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerStatsNotFound
		}
		return nil, err
	}
	return s, nil
}

// IncrementMatches upserts the stats row and bumps matches_played.
func (r *postgresPlayerStatsRepository) IncrementMatches(ctx context.Context, exec SQLExecutor, playerID int) error {
	query := `
		INSERT INTO player_stats (player_id, matches_played, updated_at)
		VALUES ($1, 1, NOW())
		ON CONFLICT (player_id)
		DO UPDATE SET matches_played = player_stats.matches_played + 1, updated_at = NOW()`

	_, err := r.getExecutor(exec).ExecContext(ctx, query, playerID)
	if err != nil {
		return fmt.Errorf("failed to increment matches played for player %d: %w", playerID, err)
	}
	return nil
}

// IncrementPodium bumps the counter matching the podium position (1-3).
func (r *postgresPlayerStatsRepository) IncrementPodium(ctx context.Context, exec SQLExecutor, playerID, position int) error {
	var column string
	switch position {
	case 1:
		column = "first_places"
	case 2:
		column = "second_places"
	case 3:
		column = "third_places"
	default:
		return fmt.Errorf("invalid podium position %d", position)
	}

	query := fmt.Sprintf(`
		INSERT INTO player_stats (player_id, %[1]s, updated_at)
		VALUES ($1, 1, NOW())
		ON CONFLICT (player_id)
		DO UPDATE SET %[1]s = player_stats.%[1]s + 1, updated_at = NOW()`, column)

	_, err := r.getExecutor(exec).ExecContext(ctx, query, playerID)
	if err != nil {
		return fmt.Errorf("failed to increment podium stats for player %d: %w", playerID, err)
	}
	return nil
}
