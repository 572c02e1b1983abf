package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/threaded-comments-api/internal/database"
	"github.com/threaded-comments-api/internal/models"
)

// articleRepo is the concrete implementation of ArticleRepository
type articleRepo struct {
	db *database.DB
}

// NewArticleRepo creates a new article repository
func NewArticleRepo(db *database.DB) ArticleRepository {
	return &articleRepo{db: db}
}

// Create inserts a new article and sets its ID
func (r *articleRepo) Create(ctx context.Context, article *models.Article) error {
	q := r.db.Querier(ctx)
	query := q.Rebind(`
		INSERT INTO articles (title, comment_count, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`)

	err := q.QueryRowxContext(ctx, query,
		article.Title, article.CommentCount, article.CreatedAt, article.UpdatedAt,
	).Scan(&article.ID)
	if err != nil {
		return fmt.Errorf("insert article: %w", err)
	}
	return nil
}

// GetByID retrieves an article by ID
func (r *articleRepo) GetByID(ctx context.Context, id int64) (*models.Article, error) {
	q := r.db.Querier(ctx)
	query := q.Rebind(`
		SELECT id, title, comment_count, created_at, updated_at
		FROM articles WHERE id = ?
	`)

	var article models.Article
	err := sqlx.GetContext(ctx, q, &article, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get article %d: %w", id, err)
	}
	return &article, nil
}

// Exists checks if an article with the given ID exists
func (r *articleRepo) Exists(ctx context.Context, id int64) (bool, error) {
	q := r.db.Querier(ctx)

	var exists bool
	err := q.QueryRowxContext(ctx, q.Rebind("SELECT EXISTS(SELECT 1 FROM articles WHERE id = ?)"), id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check article %d: %w", id, err)
	}
	return exists, nil
}

// LockForUpdate selects the article row under an exclusive lock
func (r *articleRepo) LockForUpdate(ctx context.Context, id int64) (bool, error) {
	q := r.db.Querier(ctx)
	query := q.Rebind(`SELECT id FROM articles WHERE id = ?` + r.db.UpdateLock())

	var locked int64
	err := q.QueryRowxContext(ctx, query, id).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lock article %d: %w", id, err)
	}
	return true, nil
}

// IncrementCommentCount adds one to the article's counter in a single
// statement so concurrent writers never lose an update
func (r *articleRepo) IncrementCommentCount(ctx context.Context, id int64, updatedAt string) error {
	q := r.db.Querier(ctx)
	query := q.Rebind(`
		UPDATE articles
		SET comment_count = comment_count + 1, updated_at = ?
		WHERE id = ?
	`)

	result, err := q.ExecContext(ctx, query, updatedAt, id)
	if err != nil {
		return fmt.Errorf("increment comment count of article %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("increment comment count of article %d: %w", id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
