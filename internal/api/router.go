package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/threaded-comments-api/internal/metrics"
	"github.com/threaded-comments-api/internal/render"
	"github.com/threaded-comments-api/internal/service"
)

// RequestIDHeader carries the request id in both directions
const RequestIDHeader = "X-Request-ID"

// HealthChecker reports whether a dependency is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Options holds the optional collaborators of the router
type Options struct {
	// Metrics receives request observations; nil disables them
	Metrics *metrics.Metrics

	// Gatherer backs GET /metrics; nil means the default registry
	Gatherer prometheus.Gatherer

	// Health is pinged by GET /health when set
	Health HealthChecker
}

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, opts Options, log zerolog.Logger) *gin.Engine {
	// Set Gin mode
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware(log, opts.Metrics))
	router.Use(corsMiddleware())

	// Handlers
	renderer := render.New()
	commentHandler := NewCommentHandler(services, renderer, log)
	exportHandler := NewExportHandler(services, log)

	// Health check
	router.GET("/health", healthCheck(opts.Health))
	router.GET("/metrics", metricsHandler(opts.Gatherer))

	// API v1
	v1 := router.Group("/v1")
	{
		articles := v1.Group("/articles/:articleId")
		{
			articles.GET("", commentHandler.GetArticle)
			articles.GET("/comments", commentHandler.ListTopLevel)
			articles.POST("/comments", commentHandler.CreateTopLevel)
		}

		comments := v1.Group("/comments/:commentId")
		{
			comments.GET("/children", commentHandler.ListChildren)
			comments.GET("/tree", commentHandler.GetTree)
			comments.POST("/replies", commentHandler.CreateReply)
			comments.DELETE("", commentHandler.Delete)
			comments.GET("/thread/export", exportHandler.StreamThread)
		}
	}

	return router
}

// healthCheck returns the health status
func healthCheck(checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, code := "healthy", http.StatusOK
		if checker != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := checker.HealthCheck(ctx); err != nil {
				status, code = "unhealthy", http.StatusServiceUnavailable
			}
		}

		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   "threaded-comments-api",
		})
	}
}

// metricsHandler exposes the Prometheus registry
func metricsHandler(gatherer prometheus.Gatherer) gin.HandlerFunc {
	if gatherer == nil {
		return gin.WrapH(promhttp.Handler())
	}
	return gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().
					Interface("error", err).
					Str("request_id", c.GetString("request_id")).
					Msg("Panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "internal server error",
				})
			}
		}()
		c.Next()
	}
}

// requestIDMiddleware propagates the caller's request id or assigns one
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()
		m.RecordRequest(c.Request.Method, c.FullPath(), statusCode, duration)

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Str("user_agent", c.Request.UserAgent()).
			Str("request_id", c.GetString("request_id")).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+RequestIDHeader)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
