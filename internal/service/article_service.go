package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/threaded-comments-api/internal/apperror"
	"github.com/threaded-comments-api/internal/models"
	"github.com/threaded-comments-api/internal/repository"
)

const maxTitleLength = 255

// articleService is the concrete implementation of ArticleService
type articleService struct {
	repos *repository.Repositories
	now   func() time.Time
	log   zerolog.Logger
}

// newArticleService creates a new ArticleService
func newArticleService(repos *repository.Repositories, o options, log zerolog.Logger) *articleService {
	return &articleService{
		repos: repos,
		now:   o.now,
		log:   log.With().Str("service", "articles").Logger(),
	}
}

// Create stores a new article with no comments
func (s *articleService) Create(ctx context.Context, title string) (*models.Article, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperror.InvalidArgument("title is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return nil, apperror.InvalidArgument("title must be at most 255 characters")
	}

	now := models.FormatTimestamp(s.now())
	article := &models.Article{
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repos.Article.Create(ctx, article); err != nil {
		return nil, apperror.Internal(err, "failed to create article")
	}

	s.log.Info().Int64("article_id", article.ID).Msg("Article created")
	return article, nil
}

// Get returns an article with its current comment count
func (s *articleService) Get(ctx context.Context, id int64) (*models.Article, error) {
	article, err := s.repos.Article.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.Internal(err, "failed to load article")
	}
	if article == nil {
		return nil, apperror.NotFound("article not found")
	}
	return article, nil
}
