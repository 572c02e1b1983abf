package service

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/threaded-comments-api/internal/config"
	"github.com/threaded-comments-api/internal/metrics"
	"github.com/threaded-comments-api/internal/models"
	"github.com/threaded-comments-api/internal/render"
	"github.com/threaded-comments-api/internal/repository"
	"github.com/threaded-comments-api/internal/validation"
)

// CommentService defines the read and write operations of the comment engine
type CommentService interface {
	ListTopLevel(ctx context.Context, articleID int64, page models.PageRequest) (*models.CommentPage, error)
	ListChildren(ctx context.Context, commentID int64, page models.PageRequest) (*models.CommentPage, error)
	GetSubtree(ctx context.Context, commentID int64) (*models.CommentNode, error)
	CreateTopLevel(ctx context.Context, articleID int64, content string, authorID *int64) (*models.Comment, error)
	CreateReply(ctx context.Context, parentID int64, content string, authorID *int64) (*models.Comment, error)
	SoftDelete(ctx context.Context, commentID int64) error
}

// ArticleService defines the article operations needed to seed and inspect
// comment targets
type ArticleService interface {
	Create(ctx context.Context, title string) (*models.Article, error)
	Get(ctx context.Context, id int64) (*models.Article, error)
}

// ExportService defines the interface for export operations
type ExportService interface {
	StreamThread(ctx context.Context, w http.ResponseWriter, commentID int64, format string) error
}

// Services holds all service interfaces
type Services struct {
	Comments CommentService
	Articles ArticleService
	Export   ExportService
}

type options struct {
	now     func() time.Time
	metrics *metrics.Metrics
}

// Option customises NewServices
type Option func(*options)

// WithClock replaces the wall clock used to stamp writes
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithMetrics records service activity to m
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, cfg *config.Config, log zerolog.Logger, opts ...Option) *Services {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	validator := validation.NewValidator(cfg.Comments.MaxLength)
	renderer := render.New()

	return &Services{
		Comments: newCommentService(repos, validator, cfg.Comments, o, log),
		Articles: newArticleService(repos, o, log),
		Export:   newExportService(repos, renderer, log),
	}
}
