package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/threaded-comments-api/internal/apperror"
	"github.com/threaded-comments-api/internal/models"
	"github.com/threaded-comments-api/internal/render"
	"github.com/threaded-comments-api/internal/repository"
)

// Export formats
const (
	FormatNDJSON = "ndjson"
	FormatJSON   = "json"
)

// exportService is the concrete implementation of ExportService
type exportService struct {
	repos    *repository.Repositories
	renderer *render.Renderer
	log      zerolog.Logger
}

// newExportService creates a new ExportService
func newExportService(repos *repository.Repositories, renderer *render.Renderer, log zerolog.Logger) *exportService {
	return &exportService{
		repos:    repos,
		renderer: renderer,
		log:      log.With().Str("service", "export").Logger(),
	}
}

// StreamThread writes every comment of the thread containing commentID,
// oldest first. Nothing is written when the format is unsupported or the
// comment does not exist.
func (s *exportService) StreamThread(ctx context.Context, w http.ResponseWriter, commentID int64, format string) error {
	if format == "" {
		format = FormatNDJSON
	}
	if format != FormatNDJSON && format != FormatJSON {
		return apperror.InvalidArgument("format must be ndjson or json")
	}

	comment, err := s.repos.Comment.GetByID(ctx, commentID)
	if err != nil {
		return apperror.Internal(err, "failed to load comment")
	}
	if comment == nil {
		return apperror.NotFound("comment not found")
	}

	s.log.Info().
		Str("format", format).
		Int64("root_id", comment.RootID).
		Msg("Starting thread export")

	if format == FormatJSON {
		return s.streamThreadJSON(ctx, w, comment.RootID)
	}
	return s.streamThreadNDJSON(ctx, w, comment.RootID)
}

func (s *exportService) streamThreadNDJSON(ctx context.Context, w http.ResponseWriter, rootID int64) error {
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=thread-%d.ndjson", rootID))

	flusher, _ := w.(http.Flusher)
	count := 0

	err := s.repos.Comment.StreamThread(ctx, rootID, func(c *models.Comment) error {
		data, err := json.Marshal(s.renderer.Comment(c))
		if err != nil {
			return err
		}
		w.Write(data)
		w.Write([]byte("\n"))
		count++

		// Flush every 100 records for streaming
		if count%100 == 0 && flusher != nil {
			flusher.Flush()
		}
		return nil
	})
	if err != nil {
		s.log.Error().Err(err).Int("count", count).Msg("Thread export failed")
		return err
	}

	s.log.Info().Int("count", count).Msg("Thread export completed")
	return nil
}

func (s *exportService) streamThreadJSON(ctx context.Context, w http.ResponseWriter, rootID int64) error {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=thread-%d.json", rootID))

	w.Write([]byte("["))
	first := true
	count := 0

	err := s.repos.Comment.StreamThread(ctx, rootID, func(c *models.Comment) error {
		if !first {
			w.Write([]byte(","))
		}
		first = false

		data, err := json.Marshal(s.renderer.Comment(c))
		if err != nil {
			return err
		}
		w.Write(data)
		count++
		return nil
	})
	if err != nil {
		// No closing bracket: a truncated export must not parse as complete.
		s.log.Error().Err(err).Int("count", count).Msg("Thread export failed")
		return err
	}

	w.Write([]byte("]"))
	s.log.Info().Int("count", count).Msg("Thread export completed")
	return nil
}
