package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Comment engine configuration
	Comments CommentsConfig

	// Logging configuration
	Log LogConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver       string // "postgres" or "sqlite"
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	Path         string // sqlite file path
	AutoMigrate  bool
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// CommentsConfig holds comment tree and write path settings
type CommentsConfig struct {
	TreeMaxChildren int    // per-parent fan-out cap in subtree views
	TreeMaxLevels   int    // 0 means unlimited
	TreeOrder       string // "asc" or "desc"
	MaxLength       int    // in runes, after trimming
	ParentBatchSize int    // parent ids per batched children query
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Format string // "json" or "pretty"
	Env    string
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("SERVER_READ_TIMEOUT", 30*time.Second)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 60*time.Second)
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second)

	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "threaded_comments")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_PATH", "./data/comments.db")
	v.SetDefault("DB_AUTO_MIGRATE", true)
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_MAX_LIFETIME", 5*time.Minute)

	v.SetDefault("COMMENT_TREE_MAX_CHILDREN", 50)
	v.SetDefault("COMMENT_TREE_MAX_LEVELS", 0)
	v.SetDefault("COMMENT_TREE_ORDER", "asc")
	v.SetDefault("COMMENT_MAX_LENGTH", 5000)
	v.SetDefault("COMMENT_PARENT_BATCH_SIZE", 500)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("ENV", "production")
}

// Load reads configuration from defaults, the environment and, when
// configFile is not empty, a YAML file keyed by the same names as the
// environment variables. Environment variables win over the file.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetString("PORT"),
			ReadTimeout:     v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout:    v.GetDuration("SERVER_WRITE_TIMEOUT"),
			ShutdownTimeout: v.GetDuration("SERVER_SHUTDOWN_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Driver:       strings.ToLower(v.GetString("DB_DRIVER")),
			Host:         v.GetString("DB_HOST"),
			Port:         v.GetString("DB_PORT"),
			User:         v.GetString("DB_USER"),
			Password:     v.GetString("DB_PASSWORD"),
			Name:         v.GetString("DB_NAME"),
			SSLMode:      v.GetString("DB_SSLMODE"),
			Path:         v.GetString("DB_PATH"),
			AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
			MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
			MaxLifetime:  v.GetDuration("DB_MAX_LIFETIME"),
		},
		Comments: CommentsConfig{
			TreeMaxChildren: v.GetInt("COMMENT_TREE_MAX_CHILDREN"),
			TreeMaxLevels:   v.GetInt("COMMENT_TREE_MAX_LEVELS"),
			TreeOrder:       strings.ToLower(v.GetString("COMMENT_TREE_ORDER")),
			MaxLength:       v.GetInt("COMMENT_MAX_LENGTH"),
			ParentBatchSize: v.GetInt("COMMENT_PARENT_BATCH_SIZE"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
			Env:    v.GetString("ENV"),
		},
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns the configuration produced by defaults alone
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(err)
	}
	return cfg
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("DB_HOST is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("DB_NAME is required")
		}
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("DB_PATH is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.Database.Driver)
	}

	if c.Comments.TreeOrder != "asc" && c.Comments.TreeOrder != "desc" {
		return fmt.Errorf("COMMENT_TREE_ORDER must be asc or desc, got %q", c.Comments.TreeOrder)
	}
	if c.Comments.TreeMaxChildren <= 0 {
		return fmt.Errorf("COMMENT_TREE_MAX_CHILDREN must be positive")
	}
	if c.Comments.TreeMaxLevels < 0 {
		return fmt.Errorf("COMMENT_TREE_MAX_LEVELS must not be negative")
	}
	if c.Comments.MaxLength <= 0 {
		return fmt.Errorf("COMMENT_MAX_LENGTH must be positive")
	}
	if c.Comments.ParentBatchSize <= 0 {
		return fmt.Errorf("COMMENT_PARENT_BATCH_SIZE must be positive")
	}
	return nil
}

// IsDevelopment reports whether ENV selects development mode
func (c *LogConfig) IsDevelopment() bool {
	return c.Env == "development"
}

// GetDSN returns the connection string for the configured driver
func (c *DatabaseConfig) GetDSN() string {
	if c.Driver == DriverSQLite {
		return fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", c.Path)
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}
