package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/threaded-comments-api/internal/models"
	"github.com/threaded-comments-api/internal/repository"
)

// Store is an in-memory, transactional backing for the mock repositories.
// WithinTx runs one transaction at a time and restores the previous state
// when fn fails.
type Store struct {
	mu       sync.Mutex
	txMu     sync.Mutex
	Articles map[int64]*models.Article
	Comments map[int64]*models.Comment
	nextID   map[string]int64
	locked   map[int64]bool

	// Call counters
	ListSiblingsCalls      int
	ListFirstChildrenCalls int
	InsertCalls            int
	LockCalls              int
	Commits                int
	Rollbacks              int

	// Error injection
	InsertError            error
	ListFirstChildrenError error
	IncrementError         error
	// StreamThreadError fails StreamThread once StreamThreadErrorAfter
	// rows have been delivered
	StreamThreadError      error
	StreamThreadErrorAfter int

	// BeforeListFirstChildren runs before each batched children query
	BeforeListFirstChildren func(parentIDs []int64)
}

type txKey struct{}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		Articles: make(map[int64]*models.Article),
		Comments: make(map[int64]*models.Comment),
		nextID:   map[string]int64{"articles": 0, "comments": 0},
		locked:   make(map[int64]bool),
	}
}

// Repositories returns repositories backed by the store
func (s *Store) Repositories() *repository.Repositories {
	return &repository.Repositories{
		Article: &MockArticleRepository{store: s},
		Comment: &MockCommentRepository{store: s},
		Tx:      s,
	}
}

func (s *Store) allocate(table string) int64 {
	s.nextID[table]++
	return s.nextID[table]
}

// WithinTx runs fn with snapshot and restore semantics
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	articles, comments := s.snapshot()
	s.mu.Unlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		s.Articles, s.Comments = articles, comments
		s.locked = make(map[int64]bool)
		s.Rollbacks++
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.locked = make(map[int64]bool)
	s.Commits++
	s.mu.Unlock()
	return nil
}

// Locked reports whether the running transaction holds the article's row lock
func (s *Store) Locked(articleID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked[articleID]
}

func (s *Store) snapshot() (map[int64]*models.Article, map[int64]*models.Comment) {
	articles := make(map[int64]*models.Article, len(s.Articles))
	for id, a := range s.Articles {
		cp := *a
		articles[id] = &cp
	}
	comments := make(map[int64]*models.Comment, len(s.Comments))
	for id, c := range s.Comments {
		cp := *c
		comments[id] = &cp
	}
	return articles, comments
}

// AddArticle stores an article directly, assigning an ID when it has none
func (s *Store) AddArticle(a *models.Article) *models.Article {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == 0 {
		a.ID = s.allocate("articles")
	}
	cp := *a
	s.Articles[a.ID] = &cp
	return a
}

// AddComment stores a comment directly, assigning an ID when it has none.
// No invariants are checked.
func (s *Store) AddComment(c *models.Comment) *models.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == 0 {
		c.ID = s.allocate("comments")
	}
	cp := *c
	s.Comments[c.ID] = &cp
	return c
}

// Article returns a copy of a stored article
func (s *Store) Article(id int64) *models.Article {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.Articles[id]
	if !ok {
		return nil
	}
	cp := *a
	return &cp
}

// Comment returns a copy of a stored comment
func (s *Store) Comment(id int64) *models.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.Comments[id]
	if !ok {
		return nil
	}
	cp := *c
	return &cp
}

// MockArticleRepository is a mock implementation of ArticleRepository
type MockArticleRepository struct {
	store *Store
}

func (m *MockArticleRepository) Create(ctx context.Context, article *models.Article) error {
	m.store.AddArticle(article)
	return nil
}

func (m *MockArticleRepository) GetByID(ctx context.Context, id int64) (*models.Article, error) {
	return m.store.Article(id), nil
}

func (m *MockArticleRepository) Exists(ctx context.Context, id int64) (bool, error) {
	return m.store.Article(id) != nil, nil
}

func (m *MockArticleRepository) LockForUpdate(ctx context.Context, id int64) (bool, error) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LockCalls++
	if _, ok := s.Articles[id]; !ok {
		return false, nil
	}
	if ctx.Value(txKey{}) != nil {
		s.locked[id] = true
	}
	return true, nil
}

func (m *MockArticleRepository) IncrementCommentCount(ctx context.Context, id int64, updatedAt string) error {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.IncrementError != nil {
		return s.IncrementError
	}
	a, ok := s.Articles[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.CommentCount++
	a.UpdatedAt = updatedAt
	return nil
}

// MockCommentRepository is a mock implementation of CommentRepository
type MockCommentRepository struct {
	store *Store
}

func (m *MockCommentRepository) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	return m.store.Comment(id), nil
}

func (m *MockCommentRepository) GetForShare(ctx context.Context, id int64) (*models.Comment, error) {
	return m.store.Comment(id), nil
}

func (m *MockCommentRepository) Insert(ctx context.Context, comment *models.Comment) error {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	s.InsertCalls++
	if s.InsertError != nil {
		return s.InsertError
	}
	if _, ok := s.Articles[comment.ArticleID]; !ok {
		return repository.ErrNotFound
	}
	if comment.ParentID != nil {
		if _, ok := s.Comments[*comment.ParentID]; !ok {
			return repository.ErrNotFound
		}
	}
	comment.ID = s.allocate("comments")
	comment.IsDeleted = false
	cp := *comment
	s.Comments[comment.ID] = &cp
	return nil
}

func (m *MockCommentRepository) UpdateRootID(ctx context.Context, id, rootID int64) error {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.Comments[id]
	if !ok {
		return repository.ErrNotFound
	}
	c.RootID = rootID
	return nil
}

func (m *MockCommentRepository) SoftDelete(ctx context.Context, id int64, updatedAt string) (bool, error) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.Comments[id]
	if !ok || c.IsDeleted {
		return false, nil
	}
	c.IsDeleted = true
	c.UpdatedAt = updatedAt
	return true, nil
}

func (m *MockCommentRepository) ListSiblings(ctx context.Context, q models.SiblingQuery) ([]*models.Comment, error) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ListSiblingsCalls++

	var out []*models.Comment
	for _, c := range s.Comments {
		if c.ArticleID != q.ArticleID || c.IsDeleted {
			continue
		}
		if (q.ParentID == nil) != (c.ParentID == nil) {
			continue
		}
		if q.ParentID != nil && *q.ParentID != *c.ParentID {
			continue
		}
		if q.Cursor != nil {
			if q.Order == models.OrderAsc && !q.Cursor.After(c.CreatedAt, c.ID) {
				continue
			}
			if q.Order != models.OrderAsc && !q.Cursor.Before(c.CreatedAt, c.ID) {
				continue
			}
		}
		cp := *c
		out = append(out, &cp)
	}

	sortComments(out, q.Order)
	if len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *MockCommentRepository) ListFirstChildren(ctx context.Context, articleID int64, parentIDs []int64, perParent int, order models.SortOrder) ([]*models.Comment, error) {
	if perParent <= 0 || len(parentIDs) == 0 {
		return []*models.Comment{}, nil
	}

	s := m.store
	if s.BeforeListFirstChildren != nil {
		s.BeforeListFirstChildren(parentIDs)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ListFirstChildrenCalls++
	if s.ListFirstChildrenError != nil {
		return nil, s.ListFirstChildrenError
	}

	wanted := make(map[int64]bool, len(parentIDs))
	for _, id := range parentIDs {
		wanted[id] = true
	}

	groups := make(map[int64][]*models.Comment)
	for _, c := range s.Comments {
		if c.ArticleID != articleID || c.ParentID == nil || !wanted[*c.ParentID] {
			continue
		}
		cp := *c
		groups[*c.ParentID] = append(groups[*c.ParentID], &cp)
	}

	parents := make([]int64, 0, len(groups))
	for id := range groups {
		parents = append(parents, id)
	}
	sort.Slice(parents, func(i, j int) bool { return parents[i] < parents[j] })

	out := []*models.Comment{}
	for _, id := range parents {
		children := groups[id]
		sortComments(children, order)
		if len(children) > perParent {
			children = children[:perParent]
		}
		out = append(out, children...)
	}
	return out, nil
}

func (m *MockCommentRepository) StreamThread(ctx context.Context, rootID int64, callback func(*models.Comment) error) error {
	s := m.store
	s.mu.Lock()
	var thread []*models.Comment
	for _, c := range s.Comments {
		if c.RootID == rootID {
			cp := *c
			thread = append(thread, &cp)
		}
	}
	s.mu.Unlock()

	sortComments(thread, models.OrderAsc)
	for i, c := range thread {
		if s.StreamThreadError != nil && i == s.StreamThreadErrorAfter {
			return s.StreamThreadError
		}
		if err := callback(c); err != nil {
			return err
		}
	}
	return nil
}

func sortComments(comments []*models.Comment, order models.SortOrder) {
	sort.Slice(comments, func(i, j int) bool {
		a, b := comments[i], comments[j]
		less := a.CreatedAt < b.CreatedAt || (a.CreatedAt == b.CreatedAt && a.ID < b.ID)
		if order == models.OrderAsc {
			return less
		}
		return b.CreatedAt < a.CreatedAt || (a.CreatedAt == b.CreatedAt && b.ID < a.ID)
	})
}

// Compile-time interface compliance checks
var (
	_ repository.ArticleRepository = (*MockArticleRepository)(nil)
	_ repository.CommentRepository = (*MockCommentRepository)(nil)
	_ repository.Transactor        = (*Store)(nil)
)
