package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/threaded-comments-api/internal/config"
	"github.com/threaded-comments-api/internal/database"
	"github.com/threaded-comments-api/pkg/logger"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "server",
	Short: "Threaded comments API server",
	Long:  "Serves nested article comments over HTTP and manages the comment database.",
	// Running the binary without a subcommand starts the server
	RunE:          runServe,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", os.Getenv("CONFIG_FILE"),
		"Path to a YAML config file (environment variables take precedence)")
}

func main() {
	// A missing .env file is normal outside local development
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// setup loads and validates configuration and builds the logger
func setup() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	log := logger.New(cfg.Log)

	if err := cfg.Validate(); err != nil {
		return nil, log, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, log, nil
}

// openDatabase connects using cfg and applies migrations when asked to
func openDatabase(cfg *config.Config, log zerolog.Logger, migrate bool) (*database.DB, error) {
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if migrate {
		if err := db.RunMigrations(); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run database migrations: %w", err)
		}
	}
	return db, nil
}
