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

const commentColumns = `id, article_id, root_id, parent_id, depth, author_id, content, status, is_deleted, created_at, updated_at`

// commentRepo is the concrete implementation of CommentRepository
type commentRepo struct {
	db *database.DB
}

// NewCommentRepo creates a new comment repository
func NewCommentRepo(db *database.DB) CommentRepository {
	return &commentRepo{db: db}
}

// GetByID retrieves a comment by ID, deleted or not
func (r *commentRepo) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	return r.get(ctx, id, "")
}

// GetForShare retrieves a comment under a shared row lock
func (r *commentRepo) GetForShare(ctx context.Context, id int64) (*models.Comment, error) {
	return r.get(ctx, id, r.db.ShareLock())
}

func (r *commentRepo) get(ctx context.Context, id int64, lock string) (*models.Comment, error) {
	q := r.db.Querier(ctx)
	query := q.Rebind(`SELECT ` + commentColumns + ` FROM comments WHERE id = ?` + lock)

	var comment models.Comment
	err := sqlx.GetContext(ctx, q, &comment, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get comment %d: %w", id, err)
	}
	return &comment, nil
}

// Insert stores a new, non-deleted comment and sets its ID. It returns
// ErrNotFound when the article or parent it references does not exist.
func (r *commentRepo) Insert(ctx context.Context, comment *models.Comment) error {
	q := r.db.Querier(ctx)
	query := q.Rebind(`
		INSERT INTO comments (article_id, root_id, parent_id, depth, author_id, content, status, is_deleted, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
		RETURNING id
	`)

	err := q.QueryRowxContext(ctx, query,
		comment.ArticleID, comment.RootID, comment.ParentID, comment.Depth, comment.AuthorID,
		comment.Content, comment.Status, comment.CreatedAt, comment.UpdatedAt,
	).Scan(&comment.ID)
	if database.IsForeignKeyViolation(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	comment.IsDeleted = false
	return nil
}

// UpdateRootID sets the thread root of a comment
func (r *commentRepo) UpdateRootID(ctx context.Context, id, rootID int64) error {
	q := r.db.Querier(ctx)

	result, err := q.ExecContext(ctx, q.Rebind(`UPDATE comments SET root_id = ? WHERE id = ?`), rootID, id)
	if err != nil {
		return fmt.Errorf("update root of comment %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update root of comment %d: %w", id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDelete flags a comment as deleted. It reports false when the comment
// was already deleted or does not exist.
func (r *commentRepo) SoftDelete(ctx context.Context, id int64, updatedAt string) (bool, error) {
	q := r.db.Querier(ctx)
	query := q.Rebind(`
		UPDATE comments
		SET is_deleted = 1, updated_at = ?
		WHERE id = ? AND is_deleted = 0
	`)

	result, err := q.ExecContext(ctx, query, updatedAt, id)
	if err != nil {
		return false, fmt.Errorf("soft delete comment %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("soft delete comment %d: %w", id, err)
	}
	return affected > 0, nil
}

// ListSiblings runs one keyset page query
func (r *commentRepo) ListSiblings(ctx context.Context, sq models.SiblingQuery) ([]*models.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE article_id = ?`
	args := []interface{}{sq.ArticleID}

	if sq.ParentID == nil {
		query += ` AND parent_id IS NULL`
	} else {
		query += ` AND parent_id = ?`
		args = append(args, *sq.ParentID)
	}
	query += ` AND is_deleted = 0`

	if sq.Cursor != nil {
		cmp := "<"
		if sq.Order == models.OrderAsc {
			cmp = ">"
		}
		query += ` AND (created_at, id) ` + cmp + ` (?, ?)`
		args = append(args, sq.Cursor.CreatedAt, sq.Cursor.ID)
	}

	dir := sq.Order.SQL()
	query += ` ORDER BY created_at ` + dir + `, id ` + dir + ` LIMIT ?`
	args = append(args, sq.Limit)

	q := r.db.Querier(ctx)
	comments := []*models.Comment{}
	if err := sqlx.SelectContext(ctx, q, &comments, q.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list comments of article %d: %w", sq.ArticleID, err)
	}
	return comments, nil
}

// ListFirstChildren ranks children per parent with a window function and
// keeps the first perParent of each
func (r *commentRepo) ListFirstChildren(ctx context.Context, articleID int64, parentIDs []int64, perParent int, order models.SortOrder) ([]*models.Comment, error) {
	if perParent <= 0 || len(parentIDs) == 0 {
		return []*models.Comment{}, nil
	}

	dir := order.SQL()
	query, args, err := sqlx.In(`
		SELECT `+commentColumns+` FROM (
			SELECT `+commentColumns+`,
				ROW_NUMBER() OVER (PARTITION BY parent_id ORDER BY created_at `+dir+`, id `+dir+`) AS rn
			FROM comments
			WHERE article_id = ? AND parent_id IN (?)
		) ranked
		WHERE rn <= ?
		ORDER BY parent_id ASC, created_at `+dir+`, id `+dir,
		articleID, parentIDs, perParent,
	)
	if err != nil {
		return nil, fmt.Errorf("build children query: %w", err)
	}

	q := r.db.Querier(ctx)
	comments := []*models.Comment{}
	if err := sqlx.SelectContext(ctx, q, &comments, q.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list children of %d parents: %w", len(parentIDs), err)
	}
	return comments, nil
}

// StreamThread streams every comment sharing rootID, oldest first
func (r *commentRepo) StreamThread(ctx context.Context, rootID int64, callback func(*models.Comment) error) error {
	q := r.db.Querier(ctx)
	query := q.Rebind(`SELECT ` + commentColumns + ` FROM comments WHERE root_id = ? ORDER BY created_at ASC, id ASC`)

	rows, err := q.QueryxContext(ctx, query, rootID)
	if err != nil {
		return fmt.Errorf("stream thread %d: %w", rootID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var comment models.Comment
		if err := rows.StructScan(&comment); err != nil {
			return fmt.Errorf("scan comment: %w", err)
		}
		if err := callback(&comment); err != nil {
			return err
		}
	}

	return rows.Err()
}
