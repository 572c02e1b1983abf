package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/threaded-comments-api/internal/api"
	"github.com/threaded-comments-api/internal/metrics"
	"github.com/threaded-comments-api/internal/repository"
	"github.com/threaded-comments-api/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	log.Info().Msg("Starting Threaded Comments API server...")

	// Initialize database
	db, err := openDatabase(cfg, log, cfg.Database.AutoMigrate)
	if err != nil {
		return err
	}
	defer db.Close()

	// Initialize metrics
	m := metrics.New(prometheus.DefaultRegisterer)
	if err := m.RegisterDBStats(db.DB.DB, cfg.Database.Driver); err != nil {
		log.Warn().Err(err).Msg("Failed to register database pool metrics")
	}

	// Initialize repositories and services
	repos := repository.New(db)
	services := service.NewServices(repos, cfg, log, service.WithMetrics(m))

	// Initialize router
	router := api.NewRouter(services, api.Options{
		Metrics:  m,
		Gatherer: prometheus.DefaultGatherer,
		Health:   db,
	}, log)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		log.Error().Err(err).Msg("Server failed")
		return err
	case <-quit:
	}
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		return err
	}

	log.Info().Msg("Server exited gracefully")
	return nil
}
