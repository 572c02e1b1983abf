package models

import (
	"strings"
	"time"

	"github.com/threaded-comments-api/internal/cursor"
)

// DeletedPlaceholder replaces the content of soft-deleted comments on output
const DeletedPlaceholder = "该评论已删除"

// StatusVisible is the status assigned to every new comment.
// Status is reserved for moderation and is otherwise only round-tripped.
const StatusVisible = 1

// Page size bounds for list views
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// TimestampLayout is fixed-width so that string order equals time order
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// FormatTimestamp renders t as an ISO-8601 UTC string with millisecond precision
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Comment represents a comment on an article. A nil ParentID marks a
// top-level comment, whose RootID equals its own ID.
type Comment struct {
	ID        int64  `json:"id" db:"id"`
	ArticleID int64  `json:"articleId" db:"article_id"`
	RootID    int64  `json:"rootId" db:"root_id"`
	ParentID  *int64 `json:"parentId" db:"parent_id"`
	Depth     int    `json:"depth" db:"depth"`
	AuthorID  *int64 `json:"authorId" db:"author_id"`
	Content   string `json:"content" db:"content"`
	Status    int    `json:"status" db:"status"`
	IsDeleted bool   `json:"isDeleted" db:"is_deleted"`
	CreatedAt string `json:"createdAt" db:"created_at"`
	UpdatedAt string `json:"updatedAt" db:"updated_at"`
}

// IsTopLevel reports whether the comment has no parent
func (c *Comment) IsTopLevel() bool {
	return c.ParentID == nil
}

// Position returns the comment's pagination key
func (c *Comment) Position() cursor.Cursor {
	return cursor.Cursor{CreatedAt: c.CreatedAt, ID: c.ID}
}

// Rendered returns a copy safe to hand to clients: deleted comments keep
// every field except their content, which becomes DeletedPlaceholder.
func (c *Comment) Rendered() *Comment {
	out := *c
	if out.IsDeleted {
		out.Content = DeletedPlaceholder
	}
	return &out
}

// CommentNode is a rendered comment with its rendered replies
type CommentNode struct {
	*Comment
	Children []*CommentNode `json:"children"`
}

// NewCommentNode wraps the rendered form of c with an empty child list
func NewCommentNode(c *Comment) *CommentNode {
	return &CommentNode{
		Comment:  c.Rendered(),
		Children: []*CommentNode{},
	}
}

// Size returns the number of nodes in the subtree rooted at n
func (n *CommentNode) Size() int {
	total := 1
	for _, child := range n.Children {
		total += child.Size()
	}
	return total
}

// SortOrder is the direction of the (created_at, id) ordering
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// ParseSortOrder accepts asc/desc in any case; empty means desc
func ParseSortOrder(s string) (SortOrder, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return OrderDesc, true
	case "asc":
		return OrderAsc, true
	case "desc":
		return OrderDesc, true
	default:
		return "", false
	}
}

// SQL returns the ORDER BY keyword for the direction
func (o SortOrder) SQL() string {
	if o == OrderAsc {
		return "ASC"
	}
	return "DESC"
}

// PageRequest holds client paging input for a list view
type PageRequest struct {
	Limit  int
	Order  SortOrder
	Cursor *cursor.Cursor
}

// SiblingQuery selects one bounded, ordered range of siblings.
// A nil ParentID selects top-level comments of the article.
type SiblingQuery struct {
	ArticleID int64
	ParentID  *int64
	Limit     int
	Order     SortOrder
	Cursor    *cursor.Cursor
}

// CommentPage is one page of a list view
type CommentPage struct {
	Items      []*Comment
	NextCursor *cursor.Cursor
}
