package render

import (
	"github.com/threaded-comments-api/internal/cursor"
	"github.com/threaded-comments-api/internal/models"
)

// Comment converts a comment to its wire form. Deleted comments carry the
// placeholder in both content fields.
func (r *Renderer) Comment(c *models.Comment) models.CommentResponse {
	rendered := c.Rendered()
	return models.NewCommentResponse(rendered, r.Render(rendered.Content))
}

// Tree converts a subtree to its wire form, preserving child order
func (r *Renderer) Tree(n *models.CommentNode) *models.CommentTreeResponse {
	out := &models.CommentTreeResponse{
		CommentResponse: r.Comment(n.Comment),
		Children:        make([]*models.CommentTreeResponse, 0, len(n.Children)),
	}
	for _, child := range n.Children {
		out.Children = append(out.Children, r.Tree(child))
	}
	return out
}

// Page converts a list page to its wire form
func (r *Renderer) Page(page *models.CommentPage) models.CommentListResponse {
	out := models.CommentListResponse{Items: make([]models.CommentResponse, 0, len(page.Items))}
	for _, c := range page.Items {
		out.Items = append(out.Items, r.Comment(c))
	}
	if page.NextCursor != nil {
		out.NextCursor = cursor.Encode(*page.NextCursor)
	}
	return out
}
