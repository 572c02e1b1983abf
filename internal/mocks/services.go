package mocks

import (
	"context"
	"net/http"

	"github.com/threaded-comments-api/internal/apperror"
	"github.com/threaded-comments-api/internal/models"
	"github.com/threaded-comments-api/internal/service"
)

// MockCommentService is a mock implementation of CommentService
type MockCommentService struct {
	ListTopLevelFunc   func(ctx context.Context, articleID int64, page models.PageRequest) (*models.CommentPage, error)
	ListChildrenFunc   func(ctx context.Context, commentID int64, page models.PageRequest) (*models.CommentPage, error)
	GetSubtreeFunc     func(ctx context.Context, commentID int64) (*models.CommentNode, error)
	CreateTopLevelFunc func(ctx context.Context, articleID int64, content string, authorID *int64) (*models.Comment, error)
	CreateReplyFunc    func(ctx context.Context, parentID int64, content string, authorID *int64) (*models.Comment, error)
	SoftDeleteFunc     func(ctx context.Context, commentID int64) error

	// Recorded inputs
	LastPage     models.PageRequest
	LastAuthorID *int64
	DeletedIDs   []int64
}

// Verify interface compliance
var _ service.CommentService = (*MockCommentService)(nil)

func NewMockCommentService() *MockCommentService {
	return &MockCommentService{}
}

func (m *MockCommentService) ListTopLevel(ctx context.Context, articleID int64, page models.PageRequest) (*models.CommentPage, error) {
	m.LastPage = page
	if m.ListTopLevelFunc != nil {
		return m.ListTopLevelFunc(ctx, articleID, page)
	}
	return &models.CommentPage{Items: []*models.Comment{}}, nil
}

func (m *MockCommentService) ListChildren(ctx context.Context, commentID int64, page models.PageRequest) (*models.CommentPage, error) {
	m.LastPage = page
	if m.ListChildrenFunc != nil {
		return m.ListChildrenFunc(ctx, commentID, page)
	}
	return &models.CommentPage{Items: []*models.Comment{}}, nil
}

func (m *MockCommentService) GetSubtree(ctx context.Context, commentID int64) (*models.CommentNode, error) {
	if m.GetSubtreeFunc != nil {
		return m.GetSubtreeFunc(ctx, commentID)
	}
	return nil, apperror.NotFound("comment not found")
}

func (m *MockCommentService) CreateTopLevel(ctx context.Context, articleID int64, content string, authorID *int64) (*models.Comment, error) {
	m.LastAuthorID = authorID
	if m.CreateTopLevelFunc != nil {
		return m.CreateTopLevelFunc(ctx, articleID, content, authorID)
	}
	return &models.Comment{ID: 1, ArticleID: articleID, RootID: 1, AuthorID: authorID, Content: content, Status: models.StatusVisible}, nil
}

func (m *MockCommentService) CreateReply(ctx context.Context, parentID int64, content string, authorID *int64) (*models.Comment, error) {
	m.LastAuthorID = authorID
	if m.CreateReplyFunc != nil {
		return m.CreateReplyFunc(ctx, parentID, content, authorID)
	}
	pid := parentID
	return &models.Comment{ID: parentID + 1, RootID: parentID, ParentID: &pid, Depth: 1, AuthorID: authorID, Content: content, Status: models.StatusVisible}, nil
}

func (m *MockCommentService) SoftDelete(ctx context.Context, commentID int64) error {
	m.DeletedIDs = append(m.DeletedIDs, commentID)
	if m.SoftDeleteFunc != nil {
		return m.SoftDeleteFunc(ctx, commentID)
	}
	return nil
}

// MockArticleService is a mock implementation of ArticleService
type MockArticleService struct {
	Articles map[int64]*models.Article
}

// Verify interface compliance
var _ service.ArticleService = (*MockArticleService)(nil)

func NewMockArticleService() *MockArticleService {
	return &MockArticleService{Articles: make(map[int64]*models.Article)}
}

func (m *MockArticleService) Create(ctx context.Context, title string) (*models.Article, error) {
	a := &models.Article{ID: int64(len(m.Articles) + 1), Title: title}
	m.Articles[a.ID] = a
	return a, nil
}

func (m *MockArticleService) Get(ctx context.Context, id int64) (*models.Article, error) {
	a, ok := m.Articles[id]
	if !ok {
		return nil, apperror.NotFound("article not found")
	}
	return a, nil
}

// MockExportService is a mock implementation of ExportService
type MockExportService struct {
	StreamThreadFunc func(ctx context.Context, w http.ResponseWriter, commentID int64, format string) error
}

// Verify interface compliance
var _ service.ExportService = (*MockExportService)(nil)

func NewMockExportService() *MockExportService {
	return &MockExportService{}
}

func (m *MockExportService) StreamThread(ctx context.Context, w http.ResponseWriter, commentID int64, format string) error {
	if m.StreamThreadFunc != nil {
		return m.StreamThreadFunc(ctx, w, commentID, format)
	}
	return nil
}
