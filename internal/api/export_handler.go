package api

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/threaded-comments-api/internal/service"
	"github.com/threaded-comments-api/internal/validation"
)

// ExportHandler handles export endpoints
type ExportHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(services *service.Services, log zerolog.Logger) *ExportHandler {
	return &ExportHandler{
		services: services,
		log:      log.With().Str("handler", "export").Logger(),
	}
}

// StreamThread handles GET /v1/comments/:commentId/thread/export?format=...
// Streams the whole thread directly to the response
func (h *ExportHandler) StreamThread(c *gin.Context) {
	commentID, err := validation.ParseID("commentId", c.Param("commentId"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	format := c.Query("format")

	h.log.Info().
		Int64("comment_id", commentID).
		Str("format", format).
		Msg("Starting thread export")

	err = h.services.Export.StreamThread(c.Request.Context(), c.Writer, commentID, format)
	if err == nil {
		return
	}

	if !c.Writer.Written() {
		writeError(c, h.log, err)
		return
	}

	// Can't return error JSON after streaming has started
	h.log.Error().Err(err).Int64("comment_id", commentID).Msg("Export failed")
}
