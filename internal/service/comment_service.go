package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/threaded-comments-api/internal/apperror"
	"github.com/threaded-comments-api/internal/config"
	"github.com/threaded-comments-api/internal/metrics"
	"github.com/threaded-comments-api/internal/models"
	"github.com/threaded-comments-api/internal/repository"
	"github.com/threaded-comments-api/internal/validation"
)

// commentService is the concrete implementation of CommentService
type commentService struct {
	repos     *repository.Repositories
	validator *validation.Validator
	cfg       config.CommentsConfig
	treeOrder models.SortOrder
	metrics   *metrics.Metrics
	now       func() time.Time
	trees     singleflight.Group
	log       zerolog.Logger
}

// newCommentService creates a new CommentService
func newCommentService(repos *repository.Repositories, validator *validation.Validator, cfg config.CommentsConfig, o options, log zerolog.Logger) *commentService {
	order, ok := models.ParseSortOrder(cfg.TreeOrder)
	if !ok || cfg.TreeOrder == "" {
		order = models.OrderAsc
	}
	if cfg.ParentBatchSize <= 0 {
		cfg.ParentBatchSize = 500
	}

	return &commentService{
		repos:     repos,
		validator: validator,
		cfg:       cfg,
		treeOrder: order,
		metrics:   o.metrics,
		now:       o.now,
		log:       log.With().Str("service", "comments").Logger(),
	}
}

func (s *commentService) timestamp() string {
	return models.FormatTimestamp(s.now())
}

// ListTopLevel returns one page of an article's visible top-level comments
func (s *commentService) ListTopLevel(ctx context.Context, articleID int64, page models.PageRequest) (*models.CommentPage, error) {
	exists, err := s.repos.Article.Exists(ctx, articleID)
	if err != nil {
		return nil, apperror.Internal(err, "failed to load article")
	}
	if !exists {
		return nil, apperror.NotFound("article not found")
	}

	return s.listPage(ctx, articleID, nil, page)
}

// ListChildren returns one page of a comment's visible direct replies
func (s *commentService) ListChildren(ctx context.Context, commentID int64, page models.PageRequest) (*models.CommentPage, error) {
	parent, err := s.repos.Comment.GetByID(ctx, commentID)
	if err != nil {
		return nil, apperror.Internal(err, "failed to load comment")
	}
	if parent == nil {
		return nil, apperror.NotFound("comment not found")
	}

	parentID := parent.ID
	return s.listPage(ctx, parent.ArticleID, &parentID, page)
}

// listPage fetches one row past the page to learn whether another page exists
func (s *commentService) listPage(ctx context.Context, articleID int64, parentID *int64, page models.PageRequest) (*models.CommentPage, error) {
	limit := validation.ClampLimit(float64(page.Limit))
	order := page.Order
	if order != models.OrderAsc {
		order = models.OrderDesc
	}

	rows, err := s.repos.Comment.ListSiblings(ctx, models.SiblingQuery{
		ArticleID: articleID,
		ParentID:  parentID,
		Limit:     limit + 1,
		Order:     order,
		Cursor:    page.Cursor,
	})
	if err != nil {
		return nil, apperror.Internal(err, "failed to list comments")
	}

	result := &models.CommentPage{Items: make([]*models.Comment, 0, min(len(rows), limit))}
	if len(rows) > limit {
		rows = rows[:limit]
		next := rows[len(rows)-1].Position()
		result.NextCursor = &next
	}
	for _, c := range rows {
		result.Items = append(result.Items, c.Rendered())
	}
	return result, nil
}

// CreateTopLevel adds a comment directly under an article
func (s *commentService) CreateTopLevel(ctx context.Context, articleID int64, content string, authorID *int64) (*models.Comment, error) {
	content, err := s.validator.NormalizeContent(content)
	if err != nil {
		return nil, err
	}

	var created *models.Comment
	err = s.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		// The article lock must be held before the timestamp is taken and
		// the id is drawn, otherwise two writers can commit ids and
		// created_at values in opposite orders and a keyset reader skips
		// the earlier row.
		if err := s.lockArticle(ctx, articleID); err != nil {
			return err
		}

		now := s.timestamp()
		comment := &models.Comment{
			ArticleID: articleID,
			RootID:    0,
			ParentID:  nil,
			Depth:     0,
			AuthorID:  authorID,
			Content:   content,
			Status:    models.StatusVisible,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.insert(ctx, comment, "article not found"); err != nil {
			return err
		}

		if err := s.repos.Comment.UpdateRootID(ctx, comment.ID, comment.ID); err != nil {
			return apperror.Internal(err, "failed to create comment")
		}
		comment.RootID = comment.ID

		created = comment
		return nil
	})
	if err != nil {
		return nil, apperror.Internal(err, "failed to create comment")
	}

	s.metrics.RecordCreated(metrics.KindTopLevel)
	s.log.Info().
		Int64("comment_id", created.ID).
		Int64("article_id", articleID).
		Msg("Top-level comment created")

	return created.Rendered(), nil
}

// CreateReply adds a comment under an existing, non-deleted comment
func (s *commentService) CreateReply(ctx context.Context, parentID int64, content string, authorID *int64) (*models.Comment, error) {
	content, err := s.validator.NormalizeContent(content)
	if err != nil {
		return nil, err
	}

	var created *models.Comment
	err = s.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		parent, err := s.repos.Comment.GetForShare(ctx, parentID)
		if err != nil {
			return apperror.Internal(err, "failed to load comment")
		}
		if parent == nil {
			return apperror.NotFound("comment not found")
		}
		if parent.IsDeleted {
			return apperror.InvalidState("cannot reply to deleted comment")
		}
		// Same ordering rule as CreateTopLevel: lock, then stamp and insert.
		if err := s.lockArticle(ctx, parent.ArticleID); err != nil {
			return err
		}

		now := s.timestamp()
		pid := parent.ID
		comment := &models.Comment{
			ArticleID: parent.ArticleID,
			RootID:    parent.RootID,
			ParentID:  &pid,
			Depth:     parent.Depth + 1,
			AuthorID:  authorID,
			Content:   content,
			Status:    models.StatusVisible,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.insert(ctx, comment, "comment not found"); err != nil {
			return err
		}

		created = comment
		return nil
	})
	if err != nil {
		return nil, apperror.Internal(err, "failed to create reply")
	}

	s.metrics.RecordCreated(metrics.KindReply)
	s.log.Info().
		Int64("comment_id", created.ID).
		Int64("parent_id", parentID).
		Int("depth", created.Depth).
		Msg("Reply created")

	return created.Rendered(), nil
}

// lockArticle serialises the comment writers of one article for the rest
// of the caller's transaction
func (s *commentService) lockArticle(ctx context.Context, articleID int64) error {
	exists, err := s.repos.Article.LockForUpdate(ctx, articleID)
	if err != nil {
		return apperror.Internal(err, "failed to load article")
	}
	if !exists {
		return apperror.NotFound("article not found")
	}
	return nil
}

// insert stores comment and bumps its article's counter in the caller's
// transaction
func (s *commentService) insert(ctx context.Context, comment *models.Comment, missing string) error {
	if err := s.repos.Comment.Insert(ctx, comment); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NotFound(missing)
		}
		return apperror.Internal(err, "failed to insert comment")
	}

	if err := s.repos.Article.IncrementCommentCount(ctx, comment.ArticleID, comment.CreatedAt); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NotFound("article not found")
		}
		return apperror.Internal(err, "failed to update comment count")
	}
	return nil
}

// SoftDelete marks a comment deleted. Deleting an already deleted comment
// succeeds without changes.
func (s *commentService) SoftDelete(ctx context.Context, commentID int64) error {
	deleted := false
	err := s.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		comment, err := s.repos.Comment.GetByID(ctx, commentID)
		if err != nil {
			return apperror.Internal(err, "failed to load comment")
		}
		if comment == nil {
			return apperror.NotFound("comment not found")
		}
		if comment.IsDeleted {
			return nil
		}

		changed, err := s.repos.Comment.SoftDelete(ctx, commentID, s.timestamp())
		if err != nil {
			return apperror.Internal(err, "failed to delete comment")
		}
		deleted = changed
		return nil
	})
	if err != nil {
		return apperror.Internal(err, "failed to delete comment")
	}

	if deleted {
		s.metrics.RecordDeleted()
		s.log.Info().Int64("comment_id", commentID).Msg("Comment soft deleted")
	}
	return nil
}
