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
	ErrPlayerNotFound      = errors.New("player not found")
	ErrPlayerEmailConflict = errors.New("player email conflict")
	ErrPlayerAliasConflict = errors.New("player alias conflict")
)

type ListPlayersFilter struct {
	Approval *models.ApprovalStatus
	Limit    int
	Offset   int
}

type PlayerRepository interface {
	Create(ctx context.Context, player *models.Player) error
	GetByID(ctx context.Context, id int) (*models.Player, error)
	GetByEmail(ctx context.Context, email string) (*models.Player, error)
	GetByAlias(ctx context.Context, alias string) (*models.Player, error)
	List(ctx context.Context, filter ListPlayersFilter) ([]models.Player, error)
	Update(ctx context.Context, player *models.Player) error
	UpdateApproval(ctx context.Context, id int, approval models.ApprovalStatus) error
	UpdateAvatarKey(ctx context.Context, id int, avatarKey *string) error
	AdjustChimucoins(ctx context.Context, exec SQLExecutor, id int, delta int) error
	Delete(ctx context.Context, id int) error
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

func (r *postgresPlayerRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresPlayerRepository) Create(ctx context.Context, p *models.Player) error {
	query := `
		INSERT INTO players (alias, name, email, password_hash, phone, role, chimucoins, approval, avatar_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		p.Alias, p.Name, p.Email, p.PasswordHash, p.Phone, p.Role, p.Chimucoins, p.Approval, p.AvatarKey,
	).Scan(&p.ID, &p.CreatedAt)

	return handlePlayerError(err)
}

func (r *postgresPlayerRepository) GetByID(ctx context.Context, id int) (*models.Player, error) {
	query := selectPlayer + ` WHERE id = $1`
	return r.scanPlayer(ctx, query, id)
}

func (r *postgresPlayerRepository) GetByEmail(ctx context.Context, email string) (*models.Player, error) {
	query := selectPlayer + ` WHERE email = $1`
	return r.scanPlayer(ctx, query, email)
}

func (r *postgresPlayerRepository) GetByAlias(ctx context.Context, alias string) (*models.Player, error) {
	query := selectPlayer + ` WHERE alias = $1`
	return r.scanPlayer(ctx, query, alias)
}

func (r *postgresPlayerRepository) List(ctx context.Context, filter ListPlayersFilter) ([]models.Player, error) {
	query := selectPlayer + ` WHERE 1=1`
	args := []interface{}{}
	argID := 1

	if filter.Approval != nil {
		query += fmt.Sprintf(" AND approval = $%d", argID)
		args = append(args, *filter.Approval)
		argID++
	}

	query += " ORDER BY alias ASC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := make([]models.Player, 0)
	for rows.Next() {
		var p models.Player
		if scanErr := scanPlayerRow(rows, &p); scanErr != nil {
			return nil, scanErr
		}
		players = append(players, p)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return players, nil
}

func (r *postgresPlayerRepository) Update(ctx context.Context, p *models.Player) error {
	query := `
		UPDATE players SET
			alias = $1,
			name = $2,
			email = $3,
			password_hash = $4,
			phone = $5,
			role = $6,
			approval = $7
		WHERE id = $8`

	result, err := r.db.ExecContext(ctx, query,
		p.Alias, p.Name, p.Email, p.PasswordHash, p.Phone, p.Role, p.Approval, p.ID,
	)
	if err != nil {
		return handlePlayerError(err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) UpdateApproval(ctx context.Context, id int, approval models.ApprovalStatus) error {
	query := `UPDATE players SET approval = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, approval, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) UpdateAvatarKey(ctx context.Context, id int, avatarKey *string) error {
	query := `UPDATE players SET avatar_key = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, avatarKey, id)
	if err != nil {
		return fmt.Errorf("failed to update player avatar key: %w", err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

// AdjustChimucoins changes a player's balance by delta in a single atomic
// UPDATE, so concurrent grants and reverts never read stale balances.
func (r *postgresPlayerRepository) AdjustChimucoins(ctx context.Context, exec SQLExecutor, id int, delta int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE players SET chimucoins = chimucoins + $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, delta, id)
	if err != nil {
		return fmt.Errorf("failed to adjust chimucoins for player %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM players WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

const selectPlayer = `
	SELECT id, alias, name, email, password_hash, phone, role, chimucoins, approval, avatar_key, created_at
	FROM players`

func (r *postgresPlayerRepository) scanPlayer(ctx context.Context, query string, args ...interface{}) (*models.Player, error) {
	p := &models.Player{}
	err := scanPlayerRow(r.db.QueryRowContext(ctx, query, args...), p)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	return p, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPlayerRow(row rowScanner, p *models.Player) error {
	return row.Scan(
		&p.ID, &p.Alias, &p.Name, &p.Email, &p.PasswordHash, &p.Phone,
		&p.Role, &p.Chimucoins, &p.Approval, &p.AvatarKey, &p.CreatedAt,
	)
}

func handlePlayerError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		switch pqErr.Constraint {
		case "players_email_key":
			return ErrPlayerEmailConflict
		case "players_alias_key":
			return ErrPlayerAliasConflict
		}
	}
	return err
}
