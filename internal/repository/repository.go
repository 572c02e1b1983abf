package repository

import (
	"context"
	"errors"

	"github.com/threaded-comments-api/internal/database"
	"github.com/threaded-comments-api/internal/models"
)

// ErrNotFound is returned by writes that matched no row
var ErrNotFound = errors.New("record not found")

// Transactor runs fn inside one transaction. Repository calls made with the
// context handed to fn take part in that transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ArticleRepository defines the interface for article data operations
type ArticleRepository interface {
	Create(ctx context.Context, article *models.Article) error
	GetByID(ctx context.Context, id int64) (*models.Article, error)
	Exists(ctx context.Context, id int64) (bool, error)
	// LockForUpdate reports whether the article exists and holds its row
	// lock until the surrounding transaction ends
	LockForUpdate(ctx context.Context, id int64) (bool, error)
	IncrementCommentCount(ctx context.Context, id int64, updatedAt string) error
}

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Comment, error)
	// GetForShare reads a comment and keeps it from being modified until
	// the surrounding transaction ends
	GetForShare(ctx context.Context, id int64) (*models.Comment, error)
	Insert(ctx context.Context, comment *models.Comment) error
	UpdateRootID(ctx context.Context, id, rootID int64) error
	SoftDelete(ctx context.Context, id int64, updatedAt string) (bool, error)
	// ListSiblings returns at most q.Limit visible comments of one scope
	// after q.Cursor in q.Order
	ListSiblings(ctx context.Context, q models.SiblingQuery) ([]*models.Comment, error)
	// ListFirstChildren returns up to perParent children of every parent in
	// one query, deleted ones included, grouped by parent id ascending
	ListFirstChildren(ctx context.Context, articleID int64, parentIDs []int64, perParent int, order models.SortOrder) ([]*models.Comment, error)
	StreamThread(ctx context.Context, rootID int64, callback func(*models.Comment) error) error
}

// Repositories holds all repository interfaces
type Repositories struct {
	Article ArticleRepository
	Comment CommentRepository
	Tx      Transactor
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		Article: NewArticleRepo(db),
		Comment: NewCommentRepo(db),
		Tx:      db,
	}
}
