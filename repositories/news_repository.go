package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/chimucheck/backend/models"
)

var ErrNewsNotFound = errors.New("news post not found")

type NewsRepository interface {
	Create(ctx context.Context, news *models.News) error
	GetByID(ctx context.Context, id int) (*models.News, error)
	List(ctx context.Context, publishedOnly bool, limit, offset int) ([]models.News, error)
	Update(ctx context.Context, news *models.News) error
	UpdateCoverKey(ctx context.Context, id int, coverKey *string) error
	Delete(ctx context.Context, id int) error
}

type postgresNewsRepository struct {
	db *sql.DB
}

func NewPostgresNewsRepository(db *sql.DB) NewsRepository {
	return &postgresNewsRepository{db: db}
}

func (r *postgresNewsRepository) Create(ctx context.Context, n *models.News) error {
	query := `
		INSERT INTO news (title, body, published, cover_key)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, query, n.Title, n.Body, n.Published, n.CoverKey).
		Scan(&n.ID, &n.CreatedAt)
}

func (r *postgresNewsRepository) GetByID(ctx context.Context, id int) (*models.News, error) {
	query := `
		SELECT id, title, body, published, cover_key, created_at
		FROM news
		WHERE id = $1`

	n := &models.News{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&n.ID, &n.Title, &n.Body, &n.Published, &n.CoverKey, &n.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNewsNotFound
		}
		return nil, err
	}
	return n, nil
}

func (r *postgresNewsRepository) List(ctx context.Context, publishedOnly bool, limit, offset int) ([]models.News, error) {
	query := `
		SELECT id, title, body, published, cover_key, created_at
		FROM news
		WHERE ($1 = false OR published = true)
		ORDER BY created_at DESC`
	args := []interface{}{publishedOnly}
	argID := 2

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, limit)
		argID++
	}
	if offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := make([]models.News, 0)
	for rows.Next() {
		var n models.News
		if scanErr := rows.Scan(&n.ID, &n.Title, &n.Body, &n.Published, &n.CoverKey, &n.CreatedAt); scanErr != nil {
			return nil, scanErr
		}
		posts = append(posts, n)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postgresNewsRepository) Update(ctx context.Context, n *models.News) error {
	query := `
		UPDATE news SET title = $1, body = $2, published = $3
		WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, n.Title, n.Body, n.Published, n.ID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrNewsNotFound)
}

func (r *postgresNewsRepository) UpdateCoverKey(ctx context.Context, id int, coverKey *string) error {
	query := `UPDATE news SET cover_key = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, coverKey, id)
	if err != nil {
		return fmt.Errorf("failed to update news cover key: %w", err)
	}
	return checkAffectedRows(result, ErrNewsNotFound)
}

func (r *postgresNewsRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM news WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrNewsNotFound)
}
