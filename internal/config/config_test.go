package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Expected port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Database.Driver != DriverPostgres {
		t.Errorf("Expected driver postgres, got %s", cfg.Database.Driver)
	}
	if cfg.Comments.TreeMaxChildren != 50 {
		t.Errorf("Expected tree max children 50, got %d", cfg.Comments.TreeMaxChildren)
	}
	if cfg.Comments.TreeMaxLevels != 0 {
		t.Errorf("Expected unlimited tree levels, got %d", cfg.Comments.TreeMaxLevels)
	}
	if cfg.Comments.TreeOrder != "asc" {
		t.Errorf("Expected tree order asc, got %s", cfg.Comments.TreeOrder)
	}
	if cfg.Comments.ParentBatchSize != 500 {
		t.Errorf("Expected parent batch size 500, got %d", cfg.Comments.ParentBatchSize)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("DB_PATH", "/tmp/comments.db")
	t.Setenv("COMMENT_TREE_MAX_CHILDREN", "7")
	t.Setenv("COMMENT_TREE_ORDER", "DESC")
	t.Setenv("SERVER_READ_TIMEOUT", "5s")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Database.Driver != DriverSQLite {
		t.Errorf("Expected driver sqlite, got %s", cfg.Database.Driver)
	}
	if cfg.Comments.TreeMaxChildren != 7 {
		t.Errorf("Expected tree max children 7, got %d", cfg.Comments.TreeMaxChildren)
	}
	if cfg.Comments.TreeOrder != "desc" {
		t.Errorf("Expected tree order desc, got %s", cfg.Comments.TreeOrder)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("Expected read timeout 5s, got %s", cfg.Server.ReadTimeout)
	}

	dsn := cfg.Database.GetDSN()
	if dsn != "file:/tmp/comments.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)" {
		t.Errorf("Unexpected sqlite DSN: %s", dsn)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "PORT: \"7070\"\nCOMMENT_MAX_LENGTH: 280\nLOG_LEVEL: debug\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != "7070" {
		t.Errorf("Expected port 7070, got %s", cfg.Server.Port)
	}
	if cfg.Comments.MaxLength != 280 {
		t.Errorf("Expected max length 280, got %d", cfg.Comments.MaxLength)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Expected environment to override file, got level %s", cfg.Log.Level)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, true},
		{"postgres without host", func(c *Config) { c.Database.Host = "" }, true},
		{"postgres without name", func(c *Config) { c.Database.Name = "" }, true},
		{"sqlite without path", func(c *Config) {
			c.Database.Driver = DriverSQLite
			c.Database.Path = ""
		}, true},
		{"sqlite ignores host", func(c *Config) {
			c.Database.Driver = DriverSQLite
			c.Database.Host = ""
		}, false},
		{"bad tree order", func(c *Config) { c.Comments.TreeOrder = "newest" }, true},
		{"negative fan-out", func(c *Config) { c.Comments.TreeMaxChildren = -1 }, true},
		{"zero fan-out", func(c *Config) { c.Comments.TreeMaxChildren = 0 }, true},
		{"negative levels", func(c *Config) { c.Comments.TreeMaxLevels = -2 }, true},
		{"zero max length", func(c *Config) { c.Comments.MaxLength = 0 }, true},
		{"zero batch size", func(c *Config) { c.Comments.ParentBatchSize = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadRejectsZeroFanOut(t *testing.T) {
	t.Setenv("COMMENT_TREE_MAX_CHILDREN", "0")

	if _, err := Load(""); err == nil {
		t.Error("Expected error for COMMENT_TREE_MAX_CHILDREN=0")
	}
}
