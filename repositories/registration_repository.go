package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/chimucheck/backend/models"
	"github.com/lib/pq"
)

var (
	ErrRegistrationNotFound          = errors.New("registration not found")
	ErrRegistrationConflict          = errors.New("registration conflict: player already registered for this tournament")
	ErrRegistrationPlayerInvalid     = errors.New("registration player conflict or invalid")
	ErrRegistrationTournamentInvalid = errors.New("registration tournament conflict or invalid")
)

type RegistrationRepository interface {
	Create(ctx context.Context, exec SQLExecutor, reg *models.Registration) error
	FindByID(ctx context.Context, id int) (*models.Registration, error)
	FindByPlayerAndTournament(ctx context.Context, playerID, tournamentID int) (*models.Registration, error)
	ListByTournament(ctx context.Context, tournamentID int, includePlayer bool) ([]*models.Registration, error)
	UpdateScore(ctx context.Context, exec SQLExecutor, tournamentID, playerID, score int) error
	UpdateStatus(ctx context.Context, id int, status models.RegistrationStatus) error
	Delete(ctx context.Context, exec SQLExecutor, playerID, tournamentID int) error
}

type postgresRegistrationRepository struct {
	db *sql.DB
}

func NewPostgresRegistrationRepository(db *sql.DB) RegistrationRepository {
	return &postgresRegistrationRepository{db: db}
}

func (r *postgresRegistrationRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresRegistrationRepository) Create(ctx context.Context, exec SQLExecutor, reg *models.Registration) error {
	query := `
		INSERT INTO registrations (player_id, tournament_id, score, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		reg.PlayerID, reg.TournamentID, reg.Score, reg.Status,
	).Scan(&reg.ID, &reg.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				if pqErr.Constraint == "registrations_player_id_tournament_id_key" {
					return ErrRegistrationConflict
				}
			case "23503":
				switch pqErr.Constraint {
				case "registrations_player_id_fkey":
					return ErrRegistrationPlayerInvalid
				case "registrations_tournament_id_fkey":
					return ErrRegistrationTournamentInvalid
				}
			}
		}
		return fmt.Errorf("failed to create registration: %w", err)
	}
	return nil
}

func (r *postgresRegistrationRepository) FindByID(ctx context.Context, id int) (*models.Registration, error) {
	query := `
		SELECT id, player_id, tournament_id, score, status, created_at
		FROM registrations
		WHERE id = $1`
	return r.scanRegistration(ctx, query, id)
}

func (r *postgresRegistrationRepository) FindByPlayerAndTournament(ctx context.Context, playerID, tournamentID int) (*models.Registration, error) {
	query := `
		SELECT id, player_id, tournament_id, score, status, created_at
		FROM registrations
		WHERE player_id = $1 AND tournament_id = $2`
	return r.scanRegistration(ctx, query, playerID, tournamentID)
}

func (r *postgresRegistrationRepository) ListByTournament(ctx context.Context, tournamentID int, includePlayer bool) ([]*models.Registration, error) {
	if !includePlayer {
		query := `
			SELECT id, player_id, tournament_id, score, status, created_at
			FROM registrations
			WHERE tournament_id = $1
			ORDER BY created_at ASC`

		rows, err := r.db.QueryContext(ctx, query, tournamentID)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		return collectRegistrations(rows, false)
	}

	query := `
		SELECT r.id, r.player_id, r.tournament_id, r.score, r.status, r.created_at,
		       p.id, p.alias, p.name, p.email, p.chimucoins, p.approval, p.avatar_key, p.created_at
		FROM registrations r
		JOIN players p ON r.player_id = p.id
		WHERE r.tournament_id = $1
		ORDER BY r.created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRegistrations(rows, true)
}

// UpdateScore persists a score for a single (tournament, player) pair. The
// update is atomic at the row level; any integer is accepted.
func (r *postgresRegistrationRepository) UpdateScore(ctx context.Context, exec SQLExecutor, tournamentID, playerID, score int) error {
	query := `UPDATE registrations SET score = $1 WHERE tournament_id = $2 AND player_id = $3`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, score, tournamentID, playerID)
	if err != nil {
		return fmt.Errorf("failed to update score: %w", err)
	}
	return checkAffectedRows(result, ErrRegistrationNotFound)
}

func (r *postgresRegistrationRepository) UpdateStatus(ctx context.Context, id int, status models.RegistrationStatus) error {
	query := `UPDATE registrations SET status = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update registration status: %w", err)
	}
	return checkAffectedRows(result, ErrRegistrationNotFound)
}

func (r *postgresRegistrationRepository) Delete(ctx context.Context, exec SQLExecutor, playerID, tournamentID int) error {
	query := `DELETE FROM registrations WHERE player_id = $1 AND tournament_id = $2`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, playerID, tournamentID)
	if err != nil {
		return fmt.Errorf("failed to delete registration: %w", err)
	}
	return checkAffectedRows(result, ErrRegistrationNotFound)
}

func (r *postgresRegistrationRepository) scanRegistration(ctx context.Context, query string, args ...interface{}) (*models.Registration, error) {
	reg := &models.Registration{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&reg.ID, &reg.PlayerID, &reg.TournamentID, &reg.Score, &reg.Status, &reg.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, err
	}
	return reg, nil
}

func collectRegistrations(rows *sql.Rows, withPlayer bool) ([]*models.Registration, error) {
	registrations := make([]*models.Registration, 0)
	for rows.Next() {
		reg := &models.Registration{}
		var scanErr error
		if withPlayer {
			player := &models.Player{}
			scanErr = rows.Scan(
				&reg.ID, &reg.PlayerID, &reg.TournamentID, &reg.Score, &reg.Status, &reg.CreatedAt,
				&player.ID, &player.Alias, &player.Name, &player.Email,
				&player.Chimucoins, &player.Approval, &player.AvatarKey, &player.CreatedAt,
			)
			reg.Player = player
		} else {
			scanErr = rows.Scan(
				&reg.ID, &reg.PlayerID, &reg.TournamentID, &reg.Score, &reg.Status, &reg.CreatedAt,
			)
		}
		if scanErr != nil {
			return nil, scanErr
		}
		registrations = append(registrations, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return registrations, nil
}
