package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chimucheck/backend/models"
	"github.com/lib/pq"
)

var (
	ErrTournamentNotFound     = errors.New("tournament not found")
	ErrTournamentNameConflict = errors.New("tournament name conflict")
	ErrTournamentInUse        = errors.New("tournament is in use (registrations exist)")
)

type ListTournamentsFilter struct {
	Status *models.TournamentStatus
	Limit  int
	Offset int
}

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error)
	Update(ctx context.Context, tournament *models.Tournament) error
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus) error
	UpdateWinners(ctx context.Context, exec SQLExecutor, id int, winners []models.WinnerEntry) error
	UpdatePhotos(ctx context.Context, id int, photos []string) error
	UpdateImageKey(ctx context.Context, id int, imageKey *string) error
	ClaimSlot(ctx context.Context, exec SQLExecutor, id int) (bool, error)
	ReleaseSlot(ctx context.Context, exec SQLExecutor, id int) error
	Delete(ctx context.Context, id int) error
	GetTournamentsForAutoStart(ctx context.Context, exec SQLExecutor, currentTime time.Time) ([]*models.Tournament, error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	games, prizes, err := marshalTournamentBlobs(t)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO tournaments (
			name, description, date, status, max_players, current_players,
			games, prize_pool, winners, photos, image_key
		) VALUES ($1, $2, $3, $4, $5, 0, $6, $7, '[]', '[]', $8)
		RETURNING id, current_players, created_at`

	err = r.getExecutor(nil).QueryRowContext(ctx, query,
		t.Name, t.Description, t.Date, t.Status, t.MaxPlayers,
		games, prizes, t.ImageKey,
	).Scan(&t.ID, &t.CurrentPlayers, &t.CreatedAt)

	return r.handleTournamentError(err)
}

const selectTournament = `
	SELECT id, name, description, date, status, max_players, current_players,
	       games, prize_pool, winners, photos, image_key, created_at
	FROM tournaments`

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	t := &models.Tournament{}
	err := scanTournamentRow(r.getExecutor(nil).QueryRowContext(ctx, selectTournament+` WHERE id = $1`, id), t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error) {
	query := selectTournament + ` WHERE 1=1`
	args := []interface{}{}
	argID := 1

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}

	query += " ORDER BY date DESC, created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	rows, err := r.getExecutor(nil).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if scanErr := scanTournamentRow(rows, &t); scanErr != nil {
			return nil, scanErr
		}
		tournaments = append(tournaments, t)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) Update(ctx context.Context, t *models.Tournament) error {
	games, prizes, err := marshalTournamentBlobs(t)
	if err != nil {
		return err
	}

	// Winners, photos, image key and the player counter have their own
	// methods and are not touched here.
	query := `
		UPDATE tournaments SET
			name = $1,
			description = $2,
			date = $3,
			status = $4,
			max_players = $5,
			games = $6,
			prize_pool = $7
		WHERE id = $8`

	result, err := r.getExecutor(nil).ExecContext(ctx, query,
		t.Name, t.Description, t.Date, t.Status, t.MaxPlayers, games, prizes, t.ID,
	)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus) error {
	query := `UPDATE tournaments SET status = $1 WHERE id = $2`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, status, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateWinners(ctx context.Context, exec SQLExecutor, id int, winners []models.WinnerEntry) error {
	if winners == nil {
		winners = []models.WinnerEntry{}
	}
	blob, err := json.Marshal(winners)
	if err != nil {
		return fmt.Errorf("failed to marshal winners: %w", err)
	}
	query := `UPDATE tournaments SET winners = $1 WHERE id = $2`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, blob, id)
	if err != nil {
		return fmt.Errorf("failed to update tournament winners: %w", err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdatePhotos(ctx context.Context, id int, photos []string) error {
	if photos == nil {
		photos = []string{}
	}
	blob, err := json.Marshal(photos)
	if err != nil {
		return fmt.Errorf("failed to marshal photos: %w", err)
	}
	query := `UPDATE tournaments SET photos = $1 WHERE id = $2`
	result, err := r.getExecutor(nil).ExecContext(ctx, query, blob, id)
	if err != nil {
		return fmt.Errorf("failed to update tournament photos: %w", err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateImageKey(ctx context.Context, id int, imageKey *string) error {
	query := `UPDATE tournaments SET image_key = $1 WHERE id = $2`
	result, err := r.getExecutor(nil).ExecContext(ctx, query, imageKey, id)
	if err != nil {
		return fmt.Errorf("failed to update tournament image key: %w", err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

// ClaimSlot atomically takes one registration slot. The capacity check and
// the increment happen in a single UPDATE, so two concurrent registrations
// for the last slot cannot both succeed. Returns false when the tournament
// is already full.
func (r *postgresTournamentRepository) ClaimSlot(ctx context.Context, exec SQLExecutor, id int) (bool, error) {
	query := `
		UPDATE tournaments
		SET current_players = current_players + 1
		WHERE id = $1 AND current_players < max_players`

	result, err := r.getExecutor(exec).ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to claim tournament slot: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return rowsAffected == 1, nil
}

func (r *postgresTournamentRepository) ReleaseSlot(ctx context.Context, exec SQLExecutor, id int) error {
	query := `
		UPDATE tournaments
		SET current_players = current_players - 1
		WHERE id = $1 AND current_players > 0`

	_, err := r.getExecutor(exec).ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to release tournament slot: %w", err)
	}
	return nil
}

func (r *postgresTournamentRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM tournaments WHERE id = $1`
	result, err := r.getExecutor(nil).ExecContext(ctx, query, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) GetTournamentsForAutoStart(ctx context.Context, exec SQLExecutor, currentTime time.Time) ([]*models.Tournament, error) {
	query := selectTournament + ` WHERE status = $1 AND date <= $2`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, models.StatusInscripcion, currentTime)
	if err != nil {
		return nil, fmt.Errorf("failed to query tournaments for auto start: %w", err)
	}
	defer rows.Close()

	var tournaments []*models.Tournament
	for rows.Next() {
		var t models.Tournament
		if scanErr := scanTournamentRow(rows, &t); scanErr != nil {
			return nil, fmt.Errorf("failed to scan tournament for auto start: %w", scanErr)
		}
		tournaments = append(tournaments, &t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during tournament rows iteration for auto start: %w", err)
	}
	return tournaments, nil
}

func marshalTournamentBlobs(t *models.Tournament) ([]byte, []byte, error) {
	games := t.Games
	if games == nil {
		games = []models.GameEntry{}
	}
	gamesBlob, err := json.Marshal(games)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal games: %w", err)
	}
	var prizesBlob []byte
	if t.PrizePool != nil {
		prizesBlob, err = json.Marshal(t.PrizePool)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal prize pool: %w", err)
		}
	}
	return gamesBlob, prizesBlob, nil
}

func scanTournamentRow(row rowScanner, t *models.Tournament) error {
	var games, winners, photos []byte
	var prizes sql.NullString

	err := row.Scan(
		&t.ID, &t.Name, &t.Description, &t.Date, &t.Status, &t.MaxPlayers, &t.CurrentPlayers,
		&games, &prizes, &winners, &photos, &t.ImageKey, &t.CreatedAt,
	)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(games, &t.Games); err != nil {
		return fmt.Errorf("failed to unmarshal games for tournament %d: %w", t.ID, err)
	}
	if err := json.Unmarshal(winners, &t.Winners); err != nil {
		return fmt.Errorf("failed to unmarshal winners for tournament %d: %w", t.ID, err)
	}
	if err := json.Unmarshal(photos, &t.Photos); err != nil {
		return fmt.Errorf("failed to unmarshal photos for tournament %d: %w", t.ID, err)
	}
	if prizes.Valid && prizes.String != "" {
		t.PrizePool = &models.PrizePool{}
		if err := json.Unmarshal([]byte(prizes.String), t.PrizePool); err != nil {
			return fmt.Errorf("failed to unmarshal prize pool for tournament %d: %w", t.ID, err)
		}
	}
	return nil
}

func (r *postgresTournamentRepository) handleTournamentError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505":
			if pqErr.Constraint == "tournaments_name_key" {
				return ErrTournamentNameConflict
			}
		case "23503":
			// Registrations still reference this tournament.
			return ErrTournamentInUse
		}
	}
	return err
}
