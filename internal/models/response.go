package models

// CommentResponse is the wire form of a rendered comment. IsDeleted is
// 0 or 1 and ContentHTML is the sanitised Markdown rendering of Content.
type CommentResponse struct {
	ID          int64  `json:"id"`
	ArticleID   int64  `json:"articleId"`
	RootID      int64  `json:"rootId"`
	ParentID    *int64 `json:"parentId"`
	Depth       int    `json:"depth"`
	AuthorID    *int64 `json:"authorId"`
	Content     string `json:"content"`
	ContentHTML string `json:"contentHtml"`
	Status      int    `json:"status"`
	IsDeleted   int    `json:"isDeleted"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

// CommentTreeResponse is a CommentResponse with its replies
type CommentTreeResponse struct {
	CommentResponse
	Children []*CommentTreeResponse `json:"children"`
}

// CommentListResponse is one page of a list view. NextCursor is omitted
// on the last page.
type CommentListResponse struct {
	Items      []CommentResponse `json:"items"`
	NextCursor string            `json:"nextCursor,omitempty"`
}

// NewCommentResponse builds the wire form of c. The placeholder is applied
// here as well, so callers may pass stored rows directly.
func NewCommentResponse(c *Comment, contentHTML string) CommentResponse {
	r := c.Rendered()
	deleted := 0
	if r.IsDeleted {
		deleted = 1
	}
	return CommentResponse{
		ID:          r.ID,
		ArticleID:   r.ArticleID,
		RootID:      r.RootID,
		ParentID:    r.ParentID,
		Depth:       r.Depth,
		AuthorID:    r.AuthorID,
		Content:     r.Content,
		ContentHTML: contentHTML,
		Status:      r.Status,
		IsDeleted:   deleted,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
