package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/threaded-comments-api/internal/apperror"
	"github.com/threaded-comments-api/internal/models"
	"github.com/threaded-comments-api/internal/render"
	"github.com/threaded-comments-api/internal/service"
	"github.com/threaded-comments-api/internal/validation"
)

// CommentHandler handles article and comment endpoints
type CommentHandler struct {
	services *service.Services
	renderer *render.Renderer
	log      zerolog.Logger
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(services *service.Services, renderer *render.Renderer, log zerolog.Logger) *CommentHandler {
	return &CommentHandler{
		services: services,
		renderer: renderer,
		log:      log.With().Str("handler", "comments").Logger(),
	}
}

// createCommentRequest is the body of both create endpoints. Fields are
// decoded loosely so that type errors can be reported per field.
type createCommentRequest struct {
	Content  interface{} `json:"content"`
	AuthorID interface{} `json:"authorId"`
}

// GetArticle handles GET /v1/articles/:articleId
func (h *CommentHandler) GetArticle(c *gin.Context) {
	articleID, err := validation.ParseID("articleId", c.Param("articleId"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	article, err := h.services.Articles.Get(c.Request.Context(), articleID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"article": article})
}

// ListTopLevel handles GET /v1/articles/:articleId/comments
func (h *CommentHandler) ListTopLevel(c *gin.Context) {
	articleID, err := validation.ParseID("articleId", c.Param("articleId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	page, err := pageRequest(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	result, err := h.services.Comments.ListTopLevel(c.Request.Context(), articleID, page)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.renderer.Page(result))
}

// ListChildren handles GET /v1/comments/:commentId/children
func (h *CommentHandler) ListChildren(c *gin.Context) {
	commentID, err := validation.ParseID("commentId", c.Param("commentId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	page, err := pageRequest(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	result, err := h.services.Comments.ListChildren(c.Request.Context(), commentID, page)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.renderer.Page(result))
}

// GetTree handles GET /v1/comments/:commentId/tree
func (h *CommentHandler) GetTree(c *gin.Context) {
	commentID, err := validation.ParseID("commentId", c.Param("commentId"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	tree, err := h.services.Comments.GetSubtree(c.Request.Context(), commentID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"comment": h.renderer.Tree(tree)})
}

// CreateTopLevel handles POST /v1/articles/:articleId/comments
func (h *CommentHandler) CreateTopLevel(c *gin.Context) {
	articleID, err := validation.ParseID("articleId", c.Param("articleId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	content, authorID, err := decodeCreateRequest(c.Request.Body)
	if err != nil {
		h.respondError(c, err)
		return
	}

	comment, err := h.services.Comments.CreateTopLevel(c.Request.Context(), articleID, content, authorID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"comment": h.renderer.Comment(comment)})
}

// CreateReply handles POST /v1/comments/:commentId/replies
func (h *CommentHandler) CreateReply(c *gin.Context) {
	parentID, err := validation.ParseID("commentId", c.Param("commentId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	content, authorID, err := decodeCreateRequest(c.Request.Body)
	if err != nil {
		h.respondError(c, err)
		return
	}

	comment, err := h.services.Comments.CreateReply(c.Request.Context(), parentID, content, authorID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"comment": h.renderer.Comment(comment)})
}

// Delete handles DELETE /v1/comments/:commentId
func (h *CommentHandler) Delete(c *gin.Context) {
	commentID, err := validation.ParseID("commentId", c.Param("commentId"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.services.Comments.SoftDelete(c.Request.Context(), commentID); err != nil {
		h.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func pageRequest(c *gin.Context) (models.PageRequest, error) {
	limit, limitPresent := c.GetQuery("limit")
	return validation.ParsePageRequest(limit, limitPresent, c.Query("order"), c.Query("cursor"))
}

// decodeCreateRequest reads {content, authorId?}. Content is checked for
// type only; emptiness is the service's concern.
func decodeCreateRequest(body io.Reader) (string, *int64, error) {
	var req createCommentRequest

	dec := json.NewDecoder(body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return "", nil, apperror.InvalidArgumentWrap(err, "invalid request body")
	}

	content := ""
	switch v := req.Content.(type) {
	case nil:
	case string:
		content = v
	default:
		return "", nil, apperror.InvalidArgument("content must be a string")
	}

	var authorID *int64
	switch v := req.AuthorID.(type) {
	case nil:
	case json.Number:
		id, err := v.Int64()
		if err != nil {
			return "", nil, apperror.InvalidArgument("authorId must be a number")
		}
		authorID = &id
	default:
		return "", nil, apperror.InvalidArgument("authorId must be a number")
	}

	return content, authorID, nil
}

// respondError maps an error kind to its HTTP status. Only internal
// failures are logged as errors.
func (h *CommentHandler) respondError(c *gin.Context, err error) {
	writeError(c, h.log, err)
}

func writeError(c *gin.Context, log zerolog.Logger, err error) {
	status := statusFor(apperror.KindOf(err))
	body := gin.H{"error": apperror.Message(err)}
	if field := validation.FieldOf(err); field != nil {
		body["field"] = field.Field
	}

	if status >= http.StatusInternalServerError {
		log.Error().
			Err(err).
			Str("request_id", c.GetString("request_id")).
			Msg("Request failed")
	}

	c.AbortWithStatusJSON(status, body)
}

func statusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindInvalidArgument:
		return http.StatusBadRequest
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindInvalidState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
